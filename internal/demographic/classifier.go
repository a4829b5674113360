// Package demographic scores columns as demographic/control variable
// candidates using keyword and cardinality-shape heuristics.
package demographic

import (
	"fmt"
	"sort"
	"strings"

	"semflow/domain/dataset"
	"semflow/domain/model"
)

const (
	suggestionThreshold = 0.6
	autoSelectThreshold = 0.8
	sexOverrideFloor    = 0.9

	// Shape-only base: a column with no keyword hit but a matching
	// cardinality shape starts here before bonuses are added, so a numeric
	// column with fewer than 10 distinct values lands exactly on the
	// suggestion threshold.
	shapeBase = 0.55

	smallNumericBonus = 0.05
	wideNumericBonus  = 0.03
	categoricalBonus  = 0.05
)

// keywordGroup binds name keywords to a demographic type and base weight.
// Walked in order; the first keyword match wins and locks the type.
type keywordGroup struct {
	label    string
	keywords []string
	demoType model.DemographicType
	weight   float64
}

var keywordGroups = []keywordGroup{
	{"age", []string{"age", "birth", "year_born", "yob"}, model.DemographicContinuous, 0.95},
	{"gender", []string{"gender", "sex"}, model.DemographicCategorical, 0.95},
	{"income", []string{"income", "salary", "wage", "earning"}, model.DemographicOrdinal, 0.85},
	{"education", []string{"education", "edu", "degree", "school"}, model.DemographicOrdinal, 0.9},
	{"location", []string{"location", "city", "region", "country", "state", "province"}, model.DemographicCategorical, 0.8},
	{"occupation", []string{"occupation", "job", "profession", "employ"}, model.DemographicCategorical, 0.8},
	{"marital", []string{"marital", "married", "marriage"}, model.DemographicCategorical, 0.85},
	{"ethnicity", []string{"ethnic", "race", "nationality"}, model.DemographicCategorical, 0.85},
	{"religion", []string{"religio", "faith"}, model.DemographicCategorical, 0.8},
}

// Explicit sex tokens force a categorical classification at high confidence
// regardless of any earlier scoring.
var sexTokens = []string{"male", "female", "sex", "gender"}

// Classifier suggests demographic variables. Stateless.
type Classifier struct{}

// NewClassifier creates a demographic classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns suggestions with confidence >= 0.6, sorted descending by
// confidence. A column can qualify by keyword, by cardinality shape alone,
// or both.
func (c *Classifier) Classify(variables []*dataset.Variable) []model.DemographicSuggestion {
	var suggestions []model.DemographicSuggestion

	for _, v := range variables {
		if s, ok := c.classifyVariable(v); ok {
			suggestions = append(suggestions, s)
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	return suggestions
}

func (c *Classifier) classifyVariable(v *dataset.Variable) (model.DemographicSuggestion, bool) {
	name := strings.ToLower(v.ColumnName)
	confidence := 0.0
	demoType := model.DemographicType("")
	reason := ""

	for _, group := range keywordGroups {
		if matched, keyword := matchKeyword(name, group.keywords); matched {
			confidence = group.weight
			demoType = group.demoType
			reason = fmt.Sprintf("column name contains %s keyword %q", group.label, keyword)
			break
		}
	}

	bonus, shapeType, shapeNote := cardinalityShape(v)
	if confidence > 0 {
		confidence += bonus
	} else if bonus > 0 {
		// No keyword hit: the cardinality shape itself is the signal and
		// decides the type.
		confidence = shapeBase + bonus
		demoType = shapeType
		reason = shapeNote
	}

	if containsSexToken(name) {
		if confidence < sexOverrideFloor {
			confidence = sexOverrideFloor
		}
		demoType = model.DemographicCategorical
		reason = fmt.Sprintf("column name %q contains an explicit sex/gender token", v.ColumnName)
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < suggestionThreshold {
		return model.DemographicSuggestion{}, false
	}

	return model.DemographicSuggestion{
		ColumnName:   v.ColumnName,
		Type:         demoType,
		Confidence:   confidence,
		Reason:       reason,
		AutoSelected: confidence > autoSelectThreshold,
	}, true
}

// cardinalityShape returns the additive confidence bonus plus the type the
// shape implies when no keyword matched.
func cardinalityShape(v *dataset.Variable) (bonus float64, demoType model.DemographicType, note string) {
	switch v.DataType {
	case dataset.TypeNumeric:
		if v.UniqueCount > 0 && v.UniqueCount < 10 {
			return smallNumericBonus, model.DemographicOrdinal,
				fmt.Sprintf("numeric column with only %d distinct values resembles a demographic scale", v.UniqueCount)
		}
		if v.UniqueCount > 0 && v.UniqueCount < 100 {
			return wideNumericBonus, model.DemographicContinuous,
				fmt.Sprintf("numeric column with %d distinct values resembles a bounded demographic measure", v.UniqueCount)
		}
	case dataset.TypeCategorical:
		if v.UniqueCount >= 2 && v.UniqueCount <= 10 {
			return categoricalBonus, model.DemographicCategorical,
				fmt.Sprintf("categorical column with %d levels resembles a demographic grouping", v.UniqueCount)
		}
	}
	return 0, "", ""
}

func matchKeyword(name string, keywords []string) (bool, string) {
	for _, k := range keywords {
		if strings.Contains(name, k) {
			return true, k
		}
	}
	return false, ""
}

func containsSexToken(name string) bool {
	for _, token := range sexTokens {
		if strings.Contains(name, token) {
			return true
		}
	}
	return false
}
