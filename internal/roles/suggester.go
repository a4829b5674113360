// Package roles proposes an analytic role per variable or variable group.
// Variable roles come from ordered keyword tables (dependent before control
// before mediator, so an outcome name wins over a demographic fragment);
// groups large enough to identify a factor are proposed as latent.
package roles

import (
	"fmt"
	"strings"

	"semflow/domain/dataset"
	"semflow/domain/model"
)

const (
	dependentConfidence = 0.8
	controlConfidence   = 0.9
	mediatorConfidence  = 0.7

	latentConfidence = 0.85
	latentMinMembers = 3
)

// roleTable binds keywords to a role. Tables are checked in declaration
// order and the first keyword hit wins.
type roleTable struct {
	role       model.AnalysisRole
	confidence float64
	keywords   []string
	reason     string
}

var roleTables = []roleTable{
	{
		role:       model.RoleDependent,
		confidence: dependentConfidence,
		keywords: []string{
			"satisfaction", "intention", "loyalty", "performance", "purchase",
			"outcome", "recommend", "retention", "churn", "success",
		},
		reason: "name suggests an outcome variable",
	},
	{
		role:       model.RoleControl,
		confidence: controlConfidence,
		keywords: []string{
			"age", "gender", "sex", "income", "education", "tenure",
			"experience", "marital", "occupation",
		},
		reason: "name suggests a demographic or control variable",
	},
	{
		role:       model.RoleMediator,
		confidence: mediatorConfidence,
		keywords: []string{
			"trust", "attitude", "perceived", "belief", "motivation",
			"commitment", "engagement", "involvement",
		},
		reason: "name suggests an attitudinal mediator",
	},
}

// Suggester proposes roles. Stateless; results are recomputed on demand and
// never persisted independently of an accepted role.
type Suggester struct{}

// NewSuggester creates a role suggester.
func NewSuggester() *Suggester {
	return &Suggester{}
}

// SuggestVariable proposes a role for one variable by scanning its column
// and display names against the keyword tables in priority order.
func (s *Suggester) SuggestVariable(v *dataset.Variable) model.RoleSuggestion {
	haystack := strings.ToLower(v.ColumnName + " " + v.DisplayName)

	for _, table := range roleTables {
		for _, keyword := range table.keywords {
			if strings.Contains(haystack, keyword) {
				return model.RoleSuggestion{
					TargetID:   v.ColumnName,
					Role:       table.role,
					Confidence: table.confidence,
					Reasons:    []string{fmt.Sprintf("%s (keyword %q)", table.reason, keyword)},
				}
			}
		}
	}

	return model.RoleSuggestion{
		TargetID:   v.ColumnName,
		Role:       model.RoleNone,
		Confidence: 0,
	}
}

// SuggestGroup proposes the latent role for groups with enough indicators.
// Smaller groups get no suggestion (nil).
func (s *Suggester) SuggestGroup(g *model.VariableGroup) *model.RoleSuggestion {
	if len(g.Members) < latentMinMembers {
		return nil
	}
	return &model.RoleSuggestion{
		TargetID:   g.ID.String(),
		Role:       model.RoleLatent,
		Confidence: latentConfidence,
		Reasons: []string{
			fmt.Sprintf("group %q has %d indicator variables", g.Name, len(g.Members)),
			"multiple indicators of one concept identify a latent construct",
		},
	}
}

// SuggestAll proposes roles for every variable and group.
func (s *Suggester) SuggestAll(variables []*dataset.Variable, groups []*model.VariableGroup) []model.RoleSuggestion {
	var suggestions []model.RoleSuggestion
	for _, v := range variables {
		suggestions = append(suggestions, s.SuggestVariable(v))
	}
	for _, g := range groups {
		if gs := s.SuggestGroup(g); gs != nil {
			suggestions = append(suggestions, *gs)
		}
	}
	return suggestions
}
