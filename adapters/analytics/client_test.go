package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semflow/domain/analytics"
	"semflow/domain/core"
)

func validRequest() *analytics.Request {
	return &analytics.Request{
		DatasetID: "ds",
		Data: map[string][]any{
			"a": {1.0, 2.0, 3.0},
			"b": {4.0, 5.0, 6.0},
		},
		Config: analytics.Config{Kind: analytics.KindDescriptive},
	}
}

func TestClient_HealthOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)
	assert.NoError(t, client.Health(context.Background()))
}

func TestClient_HealthUnavailable(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://127.0.0.1:1", HealthTimeout: 200 * time.Millisecond})
	require.NoError(t, err)

	err = client.Health(context.Background())
	assert.True(t, core.IsBackendUnavailable(err))
	assert.True(t, core.IsRetryable(err))
}

func TestClient_RunRejectionCarriesDiagnostic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"model specification is not identified"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Run(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, core.IsBackendRejected(err))
	assert.False(t, core.IsRetryable(err))
	assert.Contains(t, err.Error(), "not identified")
}

func TestClient_RunServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Run(context.Background(), validRequest())
	assert.True(t, core.IsBackendUnavailable(err))
}

func TestClient_RunValidatesBeforeSending(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	req := validRequest()
	req.Config = analytics.Config{
		Kind:        analytics.KindCorrelation,
		Correlation: &analytics.CorrelationConfig{Method: "cosine", ConfidenceLevel: 0.95},
	}

	_, err = client.Run(context.Background(), req)
	assert.True(t, core.IsMalformedInput(err))
	assert.False(t, called, "invalid request must never reach the wire")
}

func TestClient_RunSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		w.Write([]byte(`{"summary":"done","estimates":{"mean_a":2.0}}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	result, err := client.Run(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, analytics.KindDescriptive, result.Kind)
	assert.Equal(t, "done", result.Summary)
}

func TestRequest_UnequalColumnLengthsRejected(t *testing.T) {
	req := validRequest()
	req.Data["b"] = []any{1.0}

	assert.True(t, core.IsMalformedInput(req.Validate()))
}

func TestEstimator_Validation(t *testing.T) {
	assert.NoError(t, analytics.EstimatorWLSMV.Validate())
	assert.True(t, core.IsMalformedInput(analytics.Estimator("OLS").Validate()))
}

func TestConfig_CFARequiresModelSpec(t *testing.T) {
	req := validRequest()
	req.Config = analytics.Config{
		Kind:  analytics.KindCFA,
		Model: &analytics.ModelConfig{Estimator: analytics.EstimatorML},
	}

	err := req.Validate()
	assert.True(t, core.IsMalformedInput(err))

	req.ModelSpec = "A =~ a1 + a2 + a3"
	assert.NoError(t, req.Validate())
}
