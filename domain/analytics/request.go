// Package analytics defines the request/result types exchanged with the
// external statistical-modeling backend, including per-analysis
// configuration validated against closed option sets before dispatch.
package analytics

import (
	"fmt"

	"semflow/domain/core"
)

// Estimator selects the numerical fitting method requested from the backend.
type Estimator string

const (
	EstimatorML    Estimator = "ML"
	EstimatorMLR   Estimator = "MLR"
	EstimatorWLSMV Estimator = "WLSMV"
	EstimatorULS   Estimator = "ULS"
	EstimatorGLS   Estimator = "GLS"
)

var knownEstimators = map[Estimator]bool{
	EstimatorML:    true,
	EstimatorMLR:   true,
	EstimatorWLSMV: true,
	EstimatorULS:   true,
	EstimatorGLS:   true,
}

// Validate rejects unknown estimators before anything reaches the wire.
func (e Estimator) Validate() error {
	if !knownEstimators[e] {
		return fmt.Errorf("%w: %q", core.ErrInvalidEstimator, string(e))
	}
	return nil
}

// AnalysisKind tags the per-analysis configuration union.
type AnalysisKind string

const (
	KindDescriptive AnalysisKind = "descriptive"
	KindCorrelation AnalysisKind = "correlation"
	KindANOVA       AnalysisKind = "anova"
	KindEFA         AnalysisKind = "efa"
	KindCFA         AnalysisKind = "cfa"
	KindSEM         AnalysisKind = "sem"
)

// CorrelationConfig configures a correlation analysis.
type CorrelationConfig struct {
	Method          string  `json:"method"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

var correlationMethods = map[string]bool{"pearson": true, "spearman": true, "kendall": true}
var confidenceLevels = map[float64]bool{0.90: true, 0.95: true, 0.99: true}

func (c CorrelationConfig) validate() error {
	if !correlationMethods[c.Method] {
		return fmt.Errorf("%w: correlation method %q", core.ErrInvalidOption, c.Method)
	}
	if !confidenceLevels[c.ConfidenceLevel] {
		return fmt.Errorf("%w: confidence level %v", core.ErrInvalidOption, c.ConfidenceLevel)
	}
	return nil
}

// ANOVAConfig configures an analysis of variance.
type ANOVAConfig struct {
	PostHoc string `json:"post_hoc"`
}

var postHocTests = map[string]bool{"tukey": true, "bonferroni": true, "scheffe": true, "none": true}

func (c ANOVAConfig) validate() error {
	if !postHocTests[c.PostHoc] {
		return fmt.Errorf("%w: post-hoc test %q", core.ErrInvalidOption, c.PostHoc)
	}
	return nil
}

// EFAConfig configures exploratory factor analysis.
type EFAConfig struct {
	Rotation    string `json:"rotation"`
	FactorCount int    `json:"factor_count"`
}

var rotationMethods = map[string]bool{"varimax": true, "promax": true, "oblimin": true, "none": true}

func (c EFAConfig) validate() error {
	if !rotationMethods[c.Rotation] {
		return fmt.Errorf("%w: rotation %q", core.ErrInvalidOption, c.Rotation)
	}
	if c.FactorCount < 0 {
		return fmt.Errorf("%w: factor count %d", core.ErrInvalidOption, c.FactorCount)
	}
	return nil
}

// ModelConfig configures CFA/SEM requests, which additionally carry the
// compiled model specification text.
type ModelConfig struct {
	Estimator Estimator `json:"estimator"`
}

func (c ModelConfig) validate() error {
	return c.Estimator.Validate()
}

// Config is the tagged per-analysis configuration union. Exactly the field
// matching Kind is consulted.
type Config struct {
	Kind        AnalysisKind       `json:"kind"`
	Correlation *CorrelationConfig `json:"correlation,omitempty"`
	ANOVA       *ANOVAConfig       `json:"anova,omitempty"`
	EFA         *EFAConfig         `json:"efa,omitempty"`
	Model       *ModelConfig       `json:"model,omitempty"`
}

// Validate checks the config against its kind's closed option set.
func (c Config) Validate() error {
	switch c.Kind {
	case KindDescriptive:
		return nil
	case KindCorrelation:
		if c.Correlation == nil {
			return fmt.Errorf("%w: correlation config missing", core.ErrInvalidOption)
		}
		return c.Correlation.validate()
	case KindANOVA:
		if c.ANOVA == nil {
			return fmt.Errorf("%w: anova config missing", core.ErrInvalidOption)
		}
		return c.ANOVA.validate()
	case KindEFA:
		if c.EFA == nil {
			return fmt.Errorf("%w: efa config missing", core.ErrInvalidOption)
		}
		return c.EFA.validate()
	case KindCFA, KindSEM:
		if c.Model == nil {
			return fmt.Errorf("%w: model config missing", core.ErrInvalidOption)
		}
		return c.Model.validate()
	default:
		return fmt.Errorf("%w: unknown analysis kind %q", core.ErrInvalidOption, string(c.Kind))
	}
}

// RequiresModelSpec reports whether this analysis kind needs compiled model
// grammar attached.
func (c Config) RequiresModelSpec() bool {
	return c.Kind == KindCFA || c.Kind == KindSEM
}

// Request is one dispatch to the backend: equal-length columnar data, the
// analysis configuration, and (for CFA/SEM) the model specification text.
type Request struct {
	DatasetID core.DatasetID   `json:"dataset_id"`
	Data      map[string][]any `json:"data"`
	Config    Config           `json:"config"`
	ModelSpec string           `json:"model_spec,omitempty"`
}

// Validate applies every boundary check: option sets, model spec presence,
// and equal column lengths.
func (r *Request) Validate() error {
	if err := r.Config.Validate(); err != nil {
		return err
	}
	if r.Config.RequiresModelSpec() && r.ModelSpec == "" {
		return fmt.Errorf("%w: %s request without a model specification", core.ErrInvalidOption, r.Config.Kind)
	}
	if len(r.Data) == 0 {
		return fmt.Errorf("%w: request carries no data columns", core.ErrInvalidOption)
	}
	length := -1
	for name, column := range r.Data {
		if length == -1 {
			length = len(column)
			continue
		}
		if len(column) != length {
			return fmt.Errorf("%w: column %q length %d differs from %d", core.ErrInvalidOption, name, len(column), length)
		}
	}
	return nil
}

// Result is the backend's reply, opaque to the engine beyond basic shape.
type Result struct {
	Kind      AnalysisKind   `json:"kind"`
	Summary   string         `json:"summary,omitempty"`
	Estimates map[string]any `json:"estimates,omitempty"`
	Raw       []byte         `json:"-"`
}
