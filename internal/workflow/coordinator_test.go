package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mockanalytics "semflow/adapters/analytics"
	"semflow/adapters/memory"
	"semflow/domain/analytics"
	"semflow/domain/core"
	"semflow/domain/dataset"
	"semflow/domain/model"
)

func surveyTable() *dataset.RawTable {
	headers := []string{"Trust_1", "Trust_2", "Trust_3", "satisfaction_score", "age", "gender"}
	rows := []map[string]string{
		{"Trust_1": "4", "Trust_2": "5", "Trust_3": "3", "satisfaction_score": "7.5", "age": "34", "gender": "Male"},
		{"Trust_1": "3", "Trust_2": "4", "Trust_3": "4", "satisfaction_score": "6.0", "age": "29", "gender": "Female"},
		{"Trust_1": "5", "Trust_2": "5", "Trust_3": "5", "satisfaction_score": "8.2", "age": "41", "gender": "Female"},
		{"Trust_1": "2", "Trust_2": "3", "Trust_3": "NA", "satisfaction_score": "5.5", "age": "38", "gender": "Male"},
		{"Trust_1": "4", "Trust_2": "4", "Trust_3": "4", "satisfaction_score": "7.0", "age": "25", "gender": "Female"},
	}
	return &dataset.RawTable{Headers: headers, Rows: rows}
}

func newTestCoordinator(t *testing.T, backend *mockanalytics.MockBackend) (*Coordinator, *WorkflowSession) {
	t.Helper()
	if backend == nil {
		backend = &mockanalytics.MockBackend{}
	}
	c := NewCoordinator(backend, nil, nil)
	session, err := c.Start(context.Background(), core.DatasetID("ds-test"), surveyTable())
	require.NoError(t, err)
	return c, session
}

func TestStartInfersVariables(t *testing.T) {
	_, session := newTestCoordinator(t, nil)

	assert.Equal(t, StepUpload, session.Step())
	require.Len(t, session.Variables(), 6)

	byName := map[string]*dataset.Variable{}
	for _, v := range session.Variables() {
		byName[v.ColumnName] = v
	}
	assert.Equal(t, dataset.TypeNumeric, byName["age"].DataType)
	assert.Equal(t, dataset.TypeCategorical, byName["gender"].DataType)
}

func TestStartRejectsEmptyTable(t *testing.T) {
	c := NewCoordinator(&mockanalytics.MockBackend{}, nil, nil)
	_, err := c.Start(context.Background(), core.DatasetID("ds-empty"), &dataset.RawTable{Headers: []string{"a"}})
	assert.True(t, core.IsMalformedInput(err))
}

func TestForwardSkippingForbidden(t *testing.T) {
	c, _ := newTestCoordinator(t, nil)

	err := c.GoTo(context.Background(), StepGroup)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestHealthStepRunsQualityCheck(t *testing.T) {
	c, session := newTestCoordinator(t, nil)

	require.NoError(t, c.GoTo(context.Background(), StepHealth))
	report := session.Health()
	require.NotNil(t, report)
	assert.Greater(t, report.OverallScore, 0)
}

func TestGroupSuggestionsComputedOncePerDataset(t *testing.T) {
	c, session := newTestCoordinator(t, nil)
	ctx := context.Background()

	require.NoError(t, c.GoTo(ctx, StepHealth))
	require.NoError(t, c.GoTo(ctx, StepGroup))
	first := session.GroupSuggestions()
	require.NotEmpty(t, first)

	// Poison the cache: if re-entry recomputed, the sentinel would vanish.
	sentinel := model.GroupSuggestion{SuggestedName: "sentinel"}
	session.setSuggestions([]model.GroupSuggestion{sentinel})

	require.NoError(t, c.GoTo(ctx, StepUpload))
	require.NoError(t, c.GoTo(ctx, StepHealth))
	require.NoError(t, c.GoTo(ctx, StepGroup))
	require.Len(t, session.GroupSuggestions(), 1)
	assert.Equal(t, "sentinel", session.GroupSuggestions()[0].SuggestedName)
}

func TestBackwardPreservesArtifacts(t *testing.T) {
	c, session := newTestCoordinator(t, nil)
	ctx := context.Background()

	require.NoError(t, c.GoTo(ctx, StepHealth))
	require.NoError(t, c.GoTo(ctx, StepGroup))
	_, err := c.CreateGroup(ctx, "Trust", []string{"Trust_1", "Trust_2", "Trust_3"})
	require.NoError(t, err)

	require.NoError(t, c.GoTo(ctx, StepUpload))
	assert.Len(t, session.Groups(), 1)
	assert.NotNil(t, session.Health())
}

func TestCreateGroupValidation(t *testing.T) {
	c, _ := newTestCoordinator(t, nil)
	ctx := context.Background()

	_, err := c.CreateGroup(ctx, "Trust", []string{"Trust_1", "nope"})
	assert.True(t, core.IsMalformedInput(err))

	_, err = c.CreateGroup(ctx, "  ", []string{"Trust_1"})
	assert.True(t, core.IsMalformedInput(err))

	_, err = c.CreateGroup(ctx, "Trust", []string{"Trust_1", "Trust_2"})
	require.NoError(t, err)

	// Names are unique case-insensitively.
	_, err = c.CreateGroup(ctx, "TRUST", []string{"Trust_3"})
	assert.True(t, core.IsMalformedInput(err))
}

func TestDeleteGroup(t *testing.T) {
	c, session := newTestCoordinator(t, nil)
	ctx := context.Background()

	group, err := c.CreateGroup(ctx, "Trust", []string{"Trust_1", "Trust_2"})
	require.NoError(t, err)
	require.NoError(t, c.DeleteGroup(ctx, group.ID))
	assert.Empty(t, session.Groups())

	err = c.DeleteGroup(ctx, group.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestAcceptSuggestion(t *testing.T) {
	c, session := newTestCoordinator(t, nil)
	ctx := context.Background()

	require.NoError(t, c.GoTo(ctx, StepHealth))
	require.NoError(t, c.GoTo(ctx, StepGroup))
	suggestions := session.GroupSuggestions()
	require.NotEmpty(t, suggestions)

	group, err := c.AcceptSuggestion(ctx, suggestions[0])
	require.NoError(t, err)
	assert.Equal(t, suggestions[0].SuggestedName, group.Name)
	assert.ElementsMatch(t, suggestions[0].Members, group.Members)
}

func TestSetDemographicSelected(t *testing.T) {
	c, session := newTestCoordinator(t, nil)
	ctx := context.Background()

	require.NoError(t, c.GoTo(ctx, StepHealth))
	require.NoError(t, c.GoTo(ctx, StepGroup))
	require.NoError(t, c.GoTo(ctx, StepDemographic))
	require.NotEmpty(t, session.Demographics())

	target := session.Demographics()[0].ColumnName
	require.NoError(t, c.SetDemographicSelected(ctx, target, false))
	for _, d := range session.Demographics() {
		if d.ColumnName == target {
			assert.False(t, d.AutoSelected)
		}
	}

	err := c.SetDemographicSelected(ctx, "nonexistent", true)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRolesOnDemand(t *testing.T) {
	c, _ := newTestCoordinator(t, nil)

	roleSuggestions := c.Roles()
	require.NotEmpty(t, roleSuggestions)
	byTarget := map[string]model.RoleSuggestion{}
	for _, r := range roleSuggestions {
		byTarget[r.TargetID] = r
	}
	assert.Equal(t, model.RoleControl, byTarget["age"].Role)
}

func TestSelectAnalysesValidates(t *testing.T) {
	c, _ := newTestCoordinator(t, nil)

	err := c.SelectAnalyses(nil)
	assert.True(t, core.IsMalformedInput(err))

	err = c.SelectAnalyses([]analytics.Config{{Kind: "bogus"}})
	assert.True(t, core.IsMalformedInput(err))

	err = c.SelectAnalyses([]analytics.Config{{Kind: analytics.KindDescriptive}})
	assert.NoError(t, err)
}

func advanceToAnalyze(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.GoTo(ctx, StepHealth))
	require.NoError(t, c.GoTo(ctx, StepGroup))
	require.NoError(t, c.GoTo(ctx, StepDemographic))
}

func TestDispatchSuccessAdvancesToResults(t *testing.T) {
	backend := &mockanalytics.MockBackend{
		Result: &analytics.Result{Kind: analytics.KindDescriptive, Summary: "ok"},
	}
	c, session := newTestCoordinator(t, backend)
	ctx := context.Background()

	advanceToAnalyze(t, c)
	require.NoError(t, c.SelectAnalyses([]analytics.Config{{Kind: analytics.KindDescriptive}}))
	require.NoError(t, c.GoTo(ctx, StepAnalyze))

	assert.Equal(t, StepResults, session.Step())
	assert.Empty(t, session.LastError())
	require.Len(t, session.Results(), 1)
	assert.Equal(t, "ok", session.Results()[0].Summary)

	// The dispatched request carried typed columns of equal length.
	require.Len(t, backend.Requests(), 1)
	req := backend.Requests()[0]
	assert.Len(t, req.Data, 6)
	assert.Equal(t, float64(34), req.Data["age"][0])
	assert.Nil(t, req.Data["Trust_3"][3])
	assert.Equal(t, "Male", req.Data["gender"][0])
}

func TestDispatchHealthFailureStaysInAnalyze(t *testing.T) {
	backend := &mockanalytics.MockBackend{
		HealthErr: core.NewBackendUnavailableError(assert.AnError),
	}
	c, session := newTestCoordinator(t, backend)
	ctx := context.Background()

	advanceToAnalyze(t, c)
	require.NoError(t, c.SelectAnalyses([]analytics.Config{{Kind: analytics.KindDescriptive}}))
	err := c.GoTo(ctx, StepAnalyze)
	require.Error(t, err)
	assert.True(t, core.IsRetryable(err))
	assert.Equal(t, StepAnalyze, session.Step())
	assert.NotEmpty(t, session.LastError())
	assert.Empty(t, session.Results())
	assert.False(t, session.Analyzing())
}

func TestDispatchRejectionRecorded(t *testing.T) {
	backend := &mockanalytics.MockBackend{
		RunErr: core.NewBackendRejectedError("model not identified"),
	}
	c, session := newTestCoordinator(t, backend)
	ctx := context.Background()

	advanceToAnalyze(t, c)
	require.NoError(t, c.SelectAnalyses([]analytics.Config{{Kind: analytics.KindDescriptive}}))
	err := c.GoTo(ctx, StepAnalyze)
	require.Error(t, err)
	assert.True(t, core.IsBackendRejected(err))
	assert.False(t, core.IsRetryable(err))
	assert.Equal(t, StepAnalyze, session.Step())
	assert.Contains(t, session.LastError(), "not identified")
}

func TestDispatchAttachesModelSpec(t *testing.T) {
	backend := &mockanalytics.MockBackend{
		Result: &analytics.Result{Kind: analytics.KindCFA},
	}
	c, _ := newTestCoordinator(t, backend)
	ctx := context.Background()

	_, err := c.CreateGroup(ctx, "Trust", []string{"Trust_1", "Trust_2", "Trust_3"})
	require.NoError(t, err)

	advanceToAnalyze(t, c)
	cfg := analytics.Config{Kind: analytics.KindCFA, Model: &analytics.ModelConfig{Estimator: analytics.EstimatorML}}
	require.NoError(t, c.SelectAnalyses([]analytics.Config{cfg}))
	require.NoError(t, c.GoTo(ctx, StepAnalyze))

	require.Len(t, backend.Requests(), 1)
	assert.Contains(t, backend.Requests()[0].ModelSpec, "Trust =~ Trust_1 + Trust_2 + Trust_3")
}

func TestResultsStepRequiresResults(t *testing.T) {
	c, _ := newTestCoordinator(t, nil)
	ctx := context.Background()

	advanceToAnalyze(t, c)
	require.NoError(t, c.GoTo(ctx, StepAnalyze))
	err := c.GoTo(ctx, StepResults)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestResetReturnsFreshSession(t *testing.T) {
	c, session := newTestCoordinator(t, nil)
	ctx := context.Background()

	require.NoError(t, c.GoTo(ctx, StepHealth))
	_, err := c.CreateGroup(ctx, "Trust", []string{"Trust_1", "Trust_2"})
	require.NoError(t, err)

	fresh, err := c.Reset()
	require.NoError(t, err)
	assert.NotSame(t, session, fresh)
	assert.Equal(t, StepUpload, fresh.Step())
	assert.Empty(t, fresh.Groups())
	assert.Equal(t, session.DatasetID(), fresh.DatasetID())
	assert.Same(t, fresh, c.Session())
}

func TestSelectionsPersistAcrossSessions(t *testing.T) {
	repo := memory.NewSelectionRepository()
	backend := &mockanalytics.MockBackend{}
	ctx := context.Background()

	c := NewCoordinator(backend, repo, nil)
	_, err := c.Start(ctx, core.DatasetID("ds-persist"), surveyTable())
	require.NoError(t, err)
	_, err = c.CreateGroup(ctx, "Trust", []string{"Trust_1", "Trust_2"})
	require.NoError(t, err)

	c2 := NewCoordinator(backend, repo, nil)
	session, err := c2.Start(ctx, core.DatasetID("ds-persist"), surveyTable())
	require.NoError(t, err)
	require.Len(t, session.Groups(), 1)
	assert.Equal(t, "Trust", session.Groups()[0].Name)
}

func secondTable() *dataset.RawTable {
	headers := []string{"score"}
	rows := []map[string]string{{"score": "1"}, {"score": "2"}, {"score": "3"}}
	return &dataset.RawTable{Headers: headers, Rows: rows}
}

func TestUploadRefusedWhileAnalysisInFlight(t *testing.T) {
	backend := &mockanalytics.MockBackend{
		Result: &analytics.Result{Kind: analytics.KindDescriptive, Summary: "ok"},
		Delay:  make(chan struct{}),
	}
	c, session := newTestCoordinator(t, backend)
	ctx := context.Background()

	advanceToAnalyze(t, c)
	require.NoError(t, c.SelectAnalyses([]analytics.Config{{Kind: analytics.KindDescriptive}}))

	done := make(chan error, 1)
	go func() { done <- c.RunSelected(ctx) }()

	// Wait until the dispatch is actually in flight.
	deadline := time.Now().Add(2 * time.Second)
	for !session.Analyzing() {
		require.True(t, time.Now().Before(deadline), "dispatch never started")
		time.Sleep(time.Millisecond)
	}

	// Neither a new upload nor a reset may pull the session out from under
	// the running analysis.
	_, err := c.Start(ctx, core.DatasetID("ds-other"), secondTable())
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
	_, err = c.Reset()
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
	assert.Same(t, session, c.Session())

	close(backend.Delay)
	require.NoError(t, <-done)

	// The run completed against its own dataset's table.
	assert.Equal(t, StepResults, session.Step())
	require.Len(t, backend.Requests(), 1)
	req := backend.Requests()[0]
	assert.Equal(t, core.DatasetID("ds-test"), req.DatasetID)
	assert.Contains(t, req.Data, "Trust_1")
	assert.NotContains(t, req.Data, "score")

	// Once idle, a new upload swaps the session again.
	fresh, err := c.Start(ctx, core.DatasetID("ds-other"), secondTable())
	require.NoError(t, err)
	assert.Same(t, fresh, c.Session())
	assert.Equal(t, core.DatasetID("ds-other"), fresh.DatasetID())
}

func TestConcurrentStartDuringDispatch(t *testing.T) {
	backend := &mockanalytics.MockBackend{
		Result: &analytics.Result{Kind: analytics.KindDescriptive},
		Delay:  make(chan struct{}),
	}
	c, session := newTestCoordinator(t, backend)
	ctx := context.Background()

	advanceToAnalyze(t, c)
	require.NoError(t, c.SelectAnalyses([]analytics.Config{{Kind: analytics.KindDescriptive}}))

	done := make(chan error, 1)
	go func() { done <- c.RunSelected(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !session.Analyzing() {
		require.True(t, time.Now().Before(deadline), "dispatch never started")
		time.Sleep(time.Millisecond)
	}

	// Hammer the session pointer from this goroutine while the dispatch
	// goroutine works on its capture; the race detector flags any
	// unsynchronized access to the coordinator's session field.
	for i := 0; i < 50 && session.Analyzing(); i++ {
		c.Start(ctx, core.DatasetID("ds-other"), secondTable())
		c.Session()
		time.Sleep(time.Millisecond)
	}

	close(backend.Delay)
	require.NoError(t, <-done)
	assert.Equal(t, StepResults, session.Step())
}
