package modelspec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semflow/domain/model"
)

func TestBuildMeasurement_Shape(t *testing.T) {
	groups := []*model.VariableGroup{
		model.NewVariableGroup("A", []string{"a1", "a2", "a3"}),
		model.NewVariableGroup("B", []string{"b1", "b2"}),
	}

	spec := NewBuilder().BuildMeasurement(groups)

	assert.Equal(t, []string{"A =~ a1 + a2 + a3", "B =~ b1 + b2"}, spec.Measurement)
	assert.Empty(t, spec.Structural)
	assert.Equal(t, "A =~ a1 + a2 + a3\nB =~ b1 + b2", spec.Text)
}

func TestBuildStructural_CovarianceOrder(t *testing.T) {
	groups := []*model.VariableGroup{
		model.NewVariableGroup("A", []string{"a1", "a2", "a3"}),
		model.NewVariableGroup("B", []string{"b1", "b2"}),
		model.NewVariableGroup("C", []string{"c1", "c2"}),
	}

	spec := NewBuilder().BuildStructural(groups)

	require.Equal(t, []string{"A ~~ B", "A ~~ C", "B ~~ C"}, spec.Structural)

	lines := strings.Split(spec.Text, "\n")
	assert.Equal(t, []string{
		"A =~ a1 + a2 + a3",
		"B =~ b1 + b2",
		"C =~ c1 + c2",
		"A ~~ B",
		"A ~~ C",
		"B ~~ C",
	}, lines)
}

func TestBuildStructural_CovarianceNonePolicy(t *testing.T) {
	groups := []*model.VariableGroup{
		model.NewVariableGroup("A", []string{"a1", "a2"}),
		model.NewVariableGroup("B", []string{"b1", "b2"}),
	}

	spec := NewBuilder().WithPolicy(CovarianceNone).BuildStructural(groups)

	assert.Empty(t, spec.Structural)
	assert.Equal(t, "A =~ a1 + a2\nB =~ b1 + b2", spec.Text)
}

func TestBuild_MultiWordGroupNameBecomesOneToken(t *testing.T) {
	groups := []*model.VariableGroup{
		model.NewVariableGroup("Brand Image", []string{"bi1", "bi2"}),
	}

	spec := NewBuilder().BuildMeasurement(groups)

	assert.Equal(t, "Brand_Image =~ bi1 + bi2", spec.Text)
}

func TestBuild_FreshEachCall(t *testing.T) {
	groups := []*model.VariableGroup{
		model.NewVariableGroup("A", []string{"a1", "a2"}),
	}
	b := NewBuilder()

	first := b.BuildStructural(groups)
	second := b.BuildStructural(groups)

	assert.Equal(t, first.Text, second.Text)
	assert.NotSame(t, first, second)
}
