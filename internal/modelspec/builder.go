// Package modelspec compiles accepted variable groups into the textual
// measurement/structural grammar the external statistics backend consumes.
// The text is lavaan-style; syntactic validation is the backend's job.
package modelspec

import (
	"strings"

	"semflow/domain/model"
)

// CovariancePolicy controls which structural relations are emitted.
type CovariancePolicy int

const (
	// CovarianceFree emits one covariance line per unordered pair of
	// groups: all constructs correlate freely unless the caller narrows
	// this later. A simplifying default, flagged for methodology review,
	// not a fixed law.
	CovarianceFree CovariancePolicy = iota
	// CovarianceNone suppresses structural lines entirely.
	CovarianceNone
)

// Builder compiles model specifications from accepted groups.
type Builder struct {
	policy CovariancePolicy
}

// NewBuilder creates a builder with the free-correlation default.
func NewBuilder() *Builder {
	return &Builder{policy: CovarianceFree}
}

// WithPolicy returns a builder using the given covariance policy.
func (b *Builder) WithPolicy(policy CovariancePolicy) *Builder {
	return &Builder{policy: policy}
}

// BuildMeasurement emits only measurement lines, one per group in group
// order: "Name =~ ind1 + ind2 + ...". Used for confirmatory (single-model)
// requests.
func (b *Builder) BuildMeasurement(groups []*model.VariableGroup) *model.ModelSpecification {
	measurement := make([]string, 0, len(groups))
	for _, g := range groups {
		measurement = append(measurement, measurementLine(g))
	}
	return &model.ModelSpecification{
		Text:        strings.Join(measurement, "\n"),
		Measurement: measurement,
	}
}

// BuildStructural emits measurement lines followed by the structural lines
// the covariance policy allows, in group-pair order.
func (b *Builder) BuildStructural(groups []*model.VariableGroup) *model.ModelSpecification {
	spec := b.BuildMeasurement(groups)

	if b.policy == CovarianceFree {
		for i := 0; i < len(groups); i++ {
			for j := i + 1; j < len(groups); j++ {
				spec.Structural = append(spec.Structural,
					specName(groups[i])+" ~~ "+specName(groups[j]))
			}
		}
	}

	lines := append(append([]string(nil), spec.Measurement...), spec.Structural...)
	spec.Text = strings.Join(lines, "\n")
	return spec
}

func measurementLine(g *model.VariableGroup) string {
	return specName(g) + " =~ " + strings.Join(g.Members, " + ")
}

// specName collapses whitespace in a group name so it forms a single
// grammar token.
func specName(g *model.VariableGroup) string {
	return strings.Join(strings.Fields(g.Name), "_")
}
