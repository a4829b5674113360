package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"semflow/domain/analytics"
	"semflow/domain/core"
	"semflow/domain/dataset"
	"semflow/domain/model"
	"semflow/internal"
	"semflow/internal/demographic"
	"semflow/internal/grouping"
	"semflow/internal/inference"
	"semflow/internal/modelspec"
	"semflow/internal/quality"
	"semflow/internal/roles"
	"semflow/ports"
)

// Coordinator owns the session and sequences the engine stages. Stage work
// is triggered by step transitions: entering health re-runs the quality
// check, entering group computes suggestions once per dataset, entering
// analyze with a selected set dispatches to the backend.
//
// The session pointer is guarded: dispatch runs in a detached goroutine, so
// every operation captures the session once and works on that capture. A
// swap via Start or Reset is refused while an analysis is in flight.
type Coordinator struct {
	analyzer   *quality.Analyzer
	grouper    *grouping.Engine
	classifier *demographic.Classifier
	suggester  *roles.Suggester
	builder    *modelspec.Builder

	backend ports.AnalyticsBackend
	repo    ports.SelectionRepository
	log     *internal.Logger

	mu      sync.RWMutex
	session *WorkflowSession
}

// NewCoordinator wires the engine stages to the backend and selection store.
// repo may be nil, in which case selections only live for the session.
func NewCoordinator(backend ports.AnalyticsBackend, repo ports.SelectionRepository, log *internal.Logger) *Coordinator {
	if log == nil {
		log = internal.NewDefaultLogger("workflow")
	}
	return &Coordinator{
		analyzer:   quality.NewAnalyzer(),
		grouper:    grouping.NewEngine(),
		classifier: demographic.NewClassifier(),
		suggester:  roles.NewSuggester(),
		builder:    modelspec.NewBuilder(),
		backend:    backend,
		repo:       repo,
		log:        log,
	}
}

// Start begins a new session for an uploaded table: infers variable types
// and hydrates previously persisted selections when a store is configured.
// Any prior idle session is abandoned; a session with an analysis in flight
// refuses replacement.
func (c *Coordinator) Start(ctx context.Context, datasetID core.DatasetID, table *dataset.RawTable) (*WorkflowSession, error) {
	if table == nil || table.RowCount() == 0 {
		return nil, fmt.Errorf("%w: uploaded table has no data rows", core.ErrEmptyDataset)
	}
	variables := inference.InferVariables(table)
	session := NewSession(datasetID, table, variables)

	if c.repo != nil {
		selections, err := c.repo.Load(ctx, datasetID)
		if err != nil {
			c.log.Warn("selection load failed for dataset %s: %v", datasetID, err)
		} else if selections != nil && len(selections.Groups) > 0 {
			session.setGroups(selections.Groups)
			session.setDemographics(selections.Demographics)
			c.log.Info("hydrated %d groups for dataset %s", len(selections.Groups), datasetID)
		}
	}

	if err := c.swapSession(session); err != nil {
		return nil, err
	}
	c.log.Info("session started: dataset=%s columns=%d rows=%d", datasetID, len(table.Headers), table.RowCount())
	return session, nil
}

// Session returns the active session, or nil before Start.
func (c *Coordinator) Session() *WorkflowSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// swapSession installs next as the active session. Refused while the current
// session has a dispatch in flight so an upload cannot pull the table out
// from under a running analysis.
func (c *Coordinator) swapSession(next *WorkflowSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev := c.session; prev != nil && prev.Analyzing() {
		return core.NewTransitionError(string(prev.Step()), string(StepUpload), "analysis in progress")
	}
	c.session = next
	return nil
}

// Reset abandons all accumulated artifacts and returns a fresh session over
// the same table, back at the upload step.
func (c *Coordinator) Reset() (*WorkflowSession, error) {
	s := c.Session()
	if s == nil {
		return nil, core.NewTransitionError("", "", "no active session")
	}
	fresh := NewSession(s.DatasetID(), s.Table(), s.Variables())
	if err := c.swapSession(fresh); err != nil {
		return nil, err
	}
	c.log.Info("session reset: dataset=%s", s.DatasetID())
	return fresh, nil
}

// GoTo moves the session to target. Forward movement is restricted to the
// immediate next step; backward movement is always permitted and preserves
// accumulated artifacts. Entering a step triggers its stage work.
func (c *Coordinator) GoTo(ctx context.Context, target Step) error {
	s := c.Session()
	if s == nil {
		return core.NewTransitionError("", string(target), "no active session")
	}
	if target.Order() < 0 {
		return core.NewTransitionError(string(s.Step()), string(target), "unknown step")
	}
	current := s.Step()
	if target == current {
		return nil
	}
	if s.Analyzing() {
		return core.NewTransitionError(string(current), string(target), "analysis in progress")
	}
	if target.Order() > current.Order() {
		if target.Order() != current.Order()+1 {
			return core.NewTransitionError(string(current), string(target), "steps cannot be skipped")
		}
		if target == StepResults && len(s.Results()) == 0 {
			return core.NewTransitionError(string(current), string(target), "no results yet")
		}
	}

	s.setStep(target)
	return c.enter(ctx, s, target)
}

// enter runs the stage work a step owns. Backward re-entry is idempotent:
// group and demographic suggestions are computed once per dataset and served
// from the session afterwards.
func (c *Coordinator) enter(ctx context.Context, s *WorkflowSession, step Step) error {
	switch step {
	case StepHealth:
		s.setHealth(c.analyzer.Analyze(s.DatasetID(), s.Table(), s.Variables()))
	case StepGroup:
		if !s.hasSuggestions() {
			s.setSuggestions(c.grouper.Suggest(s.Variables()))
		}
	case StepDemographic:
		if !s.hasDemographics() {
			s.setDemographics(c.classifier.Classify(s.Variables()))
		}
	case StepAnalyze:
		if len(s.Selected()) > 0 {
			return c.dispatch(ctx, s)
		}
	}
	return nil
}

// AcceptSuggestion promotes a grouping suggestion to an accepted group.
// Group names are unique case-insensitively within a session.
func (c *Coordinator) AcceptSuggestion(ctx context.Context, suggestion model.GroupSuggestion) (*model.VariableGroup, error) {
	s := c.Session()
	if s == nil {
		return nil, core.NewTransitionError("", "", "no active session")
	}
	return c.createGroup(ctx, s, suggestion.SuggestedName, suggestion.Members)
}

// CreateGroup adds a manually assembled group.
func (c *Coordinator) CreateGroup(ctx context.Context, name string, members []string) (*model.VariableGroup, error) {
	s := c.Session()
	if s == nil {
		return nil, core.NewTransitionError("", "", "no active session")
	}
	return c.createGroup(ctx, s, name, members)
}

func (c *Coordinator) createGroup(ctx context.Context, s *WorkflowSession, name string, members []string) (*model.VariableGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is empty", core.ErrMalformedInput)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: group %q has no members", core.ErrMalformedInput, name)
	}
	known := make(map[string]struct{}, len(s.Table().Headers))
	for _, h := range s.Table().Headers {
		known[h] = struct{}{}
	}
	for _, m := range members {
		if _, ok := known[m]; !ok {
			return nil, fmt.Errorf("%w: group member %q is not a dataset column", core.ErrMalformedInput, m)
		}
	}
	for _, g := range s.Groups() {
		if strings.EqualFold(g.Name, name) {
			return nil, fmt.Errorf("%w: group name %q already in use", core.ErrMalformedInput, g.Name)
		}
	}
	group := model.NewVariableGroup(name, members)
	group.DisplayOrder = len(s.Groups())
	s.addGroup(group)
	c.persistSelections(ctx, s)
	return group, nil
}

// DeleteGroup removes an accepted group by ID.
func (c *Coordinator) DeleteGroup(ctx context.Context, id core.GroupID) error {
	s := c.Session()
	if s == nil {
		return core.NewTransitionError("", "", "no active session")
	}
	if !s.removeGroup(id) {
		return fmt.Errorf("%w: group %s", core.ErrNotFound, id)
	}
	c.persistSelections(ctx, s)
	return nil
}

// SetDemographicSelected flips the accepted flag on a classified column.
func (c *Coordinator) SetDemographicSelected(ctx context.Context, columnName string, selected bool) error {
	s := c.Session()
	if s == nil {
		return core.NewTransitionError("", "", "no active session")
	}
	suggestions := s.Demographics()
	for i := range suggestions {
		if suggestions[i].ColumnName == columnName {
			suggestions[i].AutoSelected = selected
			s.setDemographics(suggestions)
			c.persistSelections(ctx, s)
			return nil
		}
	}
	return fmt.Errorf("%w: demographic column %q", core.ErrNotFound, columnName)
}

// Roles returns role suggestions for the current variables and groups,
// computed fresh on each call.
func (c *Coordinator) Roles() []model.RoleSuggestion {
	s := c.Session()
	if s == nil {
		return nil
	}
	return c.suggester.SuggestAll(s.Variables(), s.Groups())
}

// BuildModelSpec compiles the accepted groups into model grammar for kind.
func (c *Coordinator) BuildModelSpec(kind analytics.AnalysisKind) (*model.ModelSpecification, error) {
	s := c.Session()
	if s == nil {
		return nil, core.NewTransitionError("", "", "no active session")
	}
	return c.buildModelSpec(s, kind)
}

func (c *Coordinator) buildModelSpec(s *WorkflowSession, kind analytics.AnalysisKind) (*model.ModelSpecification, error) {
	groups := s.Groups()
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: no accepted groups to build a model from", core.ErrMalformedInput)
	}
	if kind == analytics.KindSEM {
		return c.builder.BuildStructural(groups), nil
	}
	return c.builder.BuildMeasurement(groups), nil
}

// SelectAnalyses queues the configurations to dispatch. Every config is
// validated here so a malformed selection fails before any backend call.
func (c *Coordinator) SelectAnalyses(configs []analytics.Config) error {
	s := c.Session()
	if s == nil {
		return core.NewTransitionError("", "", "no active session")
	}
	if len(configs) == 0 {
		return fmt.Errorf("%w: no analyses selected", core.ErrInvalidOption)
	}
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	s.setSelected(configs)
	return nil
}

// RunSelected dispatches the queued analyses. The session moves to the
// analyze step first when it is sitting one step behind; earlier steps must
// be completed through GoTo.
func (c *Coordinator) RunSelected(ctx context.Context) error {
	s := c.Session()
	if s == nil {
		return core.NewTransitionError("", string(StepAnalyze), "no active session")
	}
	if s.Analyzing() {
		return core.NewTransitionError(string(s.Step()), string(StepAnalyze), "analysis in progress")
	}
	switch s.Step() {
	case StepAnalyze, StepResults, StepDemographic:
	default:
		return core.NewTransitionError(string(s.Step()), string(StepAnalyze), "complete earlier steps first")
	}
	if len(s.Selected()) == 0 {
		return fmt.Errorf("%w: no analyses selected", core.ErrInvalidOption)
	}
	s.setStep(StepAnalyze)
	return c.dispatch(ctx, s)
}

// dispatch probes backend health, then runs every selected analysis in
// order. On success the session auto-advances to results; on failure it
// stays in analyze with the error recorded for the client to surface. The
// session is the caller's capture: dispatch never consults the coordinator's
// current pointer, so a swap mid-flight cannot mix two sessions' data.
func (c *Coordinator) dispatch(ctx context.Context, s *WorkflowSession) error {
	s.setAnalyzing(true)
	s.setAnalysisError("")
	defer s.setAnalyzing(false)

	if err := c.backend.Health(ctx); err != nil {
		s.setAnalysisError(err.Error())
		return err
	}

	data := columnarData(s)
	s.clearResults()
	for _, cfg := range s.Selected() {
		req := &analytics.Request{
			DatasetID: s.DatasetID(),
			Data:      data,
			Config:    cfg,
		}
		if cfg.RequiresModelSpec() {
			spec, err := c.buildModelSpec(s, cfg.Kind)
			if err != nil {
				s.setAnalysisError(err.Error())
				return err
			}
			req.ModelSpec = spec.Text
		}
		c.log.Info("dispatching %s analysis for dataset %s", cfg.Kind, s.DatasetID())
		result, err := c.backend.Run(ctx, req)
		if err != nil {
			s.setAnalysisError(err.Error())
			c.log.Error("%s analysis failed: %v", cfg.Kind, err)
			return err
		}
		s.appendResult(result)
	}

	s.setStep(StepResults)
	c.log.Info("analysis complete: dataset=%s results=%d", s.DatasetID(), len(s.Results()))
	return nil
}

// columnarData converts the raw table to typed columns for the backend:
// numeric columns carry float64, everything else strings, missing cells nil.
func columnarData(s *WorkflowSession) map[string][]any {
	table := s.Table()
	data := make(map[string][]any, len(s.Variables()))
	for _, v := range s.Variables() {
		column := table.Column(v.ColumnName)
		typed := make([]any, len(column))
		for i, cell := range column {
			if dataset.IsMissingValue(cell) {
				typed[i] = nil
				continue
			}
			if v.DataType == dataset.TypeNumeric {
				if f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
					typed[i] = f
					continue
				}
				typed[i] = nil
				continue
			}
			typed[i] = cell
		}
		data[v.ColumnName] = typed
	}
	return data
}

// persistSelections writes the current groups and demographics through the
// repository. Persistence failures are logged, never fatal to the workflow.
func (c *Coordinator) persistSelections(ctx context.Context, s *WorkflowSession) {
	if c.repo == nil {
		return
	}
	selections := &model.SelectionSet{
		Groups:       s.Groups(),
		Demographics: s.Demographics(),
	}
	if err := c.repo.Save(ctx, s.DatasetID(), selections); err != nil {
		c.log.Warn("selection save failed for dataset %s: %v", s.DatasetID(), err)
	}
}
