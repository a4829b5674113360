// Package workflow sequences the engine: upload, health, grouping,
// demographics, analysis dispatch, results. All accumulated artifacts live
// in one owned WorkflowSession; reset means constructing a new session, not
// mutating a singleton.
package workflow

import (
	"sync"
	"time"

	"semflow/domain/analytics"
	"semflow/domain/core"
	"semflow/domain/dataset"
	"semflow/domain/model"
)

// Step is one stage of the workflow, in strict forward order.
type Step string

const (
	StepUpload      Step = "upload"
	StepHealth      Step = "health"
	StepGroup       Step = "group"
	StepDemographic Step = "demographic"
	StepAnalyze     Step = "analyze"
	StepResults     Step = "results"
)

var stepOrder = map[Step]int{
	StepUpload:      0,
	StepHealth:      1,
	StepGroup:       2,
	StepDemographic: 3,
	StepAnalyze:     4,
	StepResults:     5,
}

// Order returns the step's position, or -1 for an unknown step.
func (s Step) Order() int {
	order, ok := stepOrder[s]
	if !ok {
		return -1
	}
	return order
}

// WorkflowSession holds everything one dataset accumulates while moving
// through the steps. Mutated only by the Coordinator, and only in response
// to a completed stage. Guarded because HTTP handlers read status while an
// analysis dispatch completes in another goroutine.
type WorkflowSession struct {
	mu sync.RWMutex

	datasetID core.DatasetID
	table     *dataset.RawTable
	variables []*dataset.Variable

	step      Step
	analyzing bool
	lastError string

	health *dataset.QualityReport

	suggestions         []model.GroupSuggestion
	suggestionsComputed bool

	groups               []*model.VariableGroup
	demographics         []model.DemographicSuggestion
	demographicsComputed bool

	selected []analytics.Config
	results  []*analytics.Result

	startedAt time.Time
}

// NewSession constructs a fresh session in the upload step. This is also
// the reset operation: abandon the old session and build a new one.
func NewSession(datasetID core.DatasetID, table *dataset.RawTable, variables []*dataset.Variable) *WorkflowSession {
	return &WorkflowSession{
		datasetID: datasetID,
		table:     table,
		variables: variables,
		step:      StepUpload,
		startedAt: time.Now(),
	}
}

// DatasetID returns the dataset this session works on.
func (s *WorkflowSession) DatasetID() core.DatasetID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.datasetID
}

// Step returns the current workflow step.
func (s *WorkflowSession) Step() Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.step
}

// Analyzing reports whether a dispatch to the backend is in flight.
func (s *WorkflowSession) Analyzing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analyzing
}

// Variables returns the inferred variable set.
func (s *WorkflowSession) Variables() []*dataset.Variable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.variables
}

// Table returns the parsed raw table.
func (s *WorkflowSession) Table() *dataset.RawTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// Health returns the latest quality report, if any.
func (s *WorkflowSession) Health() *dataset.QualityReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health
}

// GroupSuggestions returns the cached suggestion list.
func (s *WorkflowSession) GroupSuggestions() []model.GroupSuggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.suggestions
}

// Groups returns the accepted groups.
func (s *WorkflowSession) Groups() []*model.VariableGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.VariableGroup(nil), s.groups...)
}

// Demographics returns the cached demographic suggestions.
func (s *WorkflowSession) Demographics() []model.DemographicSuggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.demographics
}

// Selected returns the analysis configurations queued for dispatch.
func (s *WorkflowSession) Selected() []analytics.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]analytics.Config(nil), s.selected...)
}

// Results returns the backend results collected so far.
func (s *WorkflowSession) Results() []*analytics.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*analytics.Result(nil), s.results...)
}

// LastError returns the most recent analysis error message, empty when the
// last dispatch succeeded.
func (s *WorkflowSession) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// Status returns a snapshot for polling clients.
func (s *WorkflowSession) Status() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"dataset_id":   s.datasetID,
		"step":         s.step,
		"analyzing":    s.analyzing,
		"error":        s.lastError,
		"group_count":  len(s.groups),
		"result_count": len(s.results),
		"started_at":   s.startedAt,
	}
}

// Mutators below are unexported: only the Coordinator drives state.

func (s *WorkflowSession) setStep(step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
}

func (s *WorkflowSession) setAnalyzing(analyzing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzing = analyzing
}

func (s *WorkflowSession) setAnalysisError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

func (s *WorkflowSession) setHealth(report *dataset.QualityReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health = report
}

func (s *WorkflowSession) setSuggestions(suggestions []model.GroupSuggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions = suggestions
	s.suggestionsComputed = true
}

func (s *WorkflowSession) hasSuggestions() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.suggestionsComputed
}

func (s *WorkflowSession) setDemographics(suggestions []model.DemographicSuggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.demographics = suggestions
	s.demographicsComputed = true
}

func (s *WorkflowSession) hasDemographics() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.demographicsComputed
}

func (s *WorkflowSession) addGroup(group *model.VariableGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, group)
}

func (s *WorkflowSession) removeGroup(id core.GroupID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.groups {
		if g.ID == id {
			s.groups = append(s.groups[:i], s.groups[i+1:]...)
			return true
		}
	}
	return false
}

func (s *WorkflowSession) setGroups(groups []*model.VariableGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = groups
}

func (s *WorkflowSession) setSelected(configs []analytics.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = append([]analytics.Config(nil), configs...)
}

func (s *WorkflowSession) appendResult(result *analytics.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
}

func (s *WorkflowSession) clearResults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = nil
}
