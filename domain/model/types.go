// Package model holds the construct-level data model: proposed and accepted
// variable groups, analytic role suggestions, and compiled model
// specifications.
package model

import (
	"sort"
	"strings"
	"time"

	"semflow/domain/core"
)

// GroupPattern identifies which detector produced a suggestion.
type GroupPattern string

const (
	PatternPrefix    GroupPattern = "prefix"
	PatternNumbering GroupPattern = "numbering"
	PatternSemantic  GroupPattern = "semantic"
)

// GroupSuggestion is a proposed variable group before user acceptance.
// Ephemeral: it exists only until accepted into a VariableGroup or discarded.
type GroupSuggestion struct {
	SuggestedName string       `json:"suggested_name"`
	Members       []string     `json:"members"`
	Confidence    float64      `json:"confidence"`
	Reason        string       `json:"reason"`
	Pattern       GroupPattern `json:"pattern"`
}

// MemberKey returns a canonical identity for the member set, independent of
// order and useful for deduplication.
func (s *GroupSuggestion) MemberKey() string {
	sorted := make([]string, len(s.Members))
	copy(sorted, s.Members)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x1f")
}

// VariableGroup is an accepted construct with its ordered indicator columns.
type VariableGroup struct {
	ID           core.GroupID `json:"id"`
	Name         string       `json:"name"`
	Members      []string     `json:"members"`
	Description  string       `json:"description,omitempty"`
	GroupType    string       `json:"group_type"`
	DisplayOrder int          `json:"display_order"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NewVariableGroup creates an accepted group with default values.
func NewVariableGroup(name string, members []string) *VariableGroup {
	return &VariableGroup{
		ID:        core.GroupID(core.NewID()),
		Name:      name,
		Members:   append([]string(nil), members...),
		GroupType: "construct",
		CreatedAt: time.Now(),
	}
}

// HasMember reports whether a column belongs to this group.
func (g *VariableGroup) HasMember(column string) bool {
	for _, m := range g.Members {
		if m == column {
			return true
		}
	}
	return false
}

// AnalysisRole is the proposed analytic role of a variable or group.
type AnalysisRole string

const (
	RoleDependent AnalysisRole = "dependent"
	RoleControl   AnalysisRole = "control"
	RoleMediator  AnalysisRole = "mediator"
	RoleLatent    AnalysisRole = "latent"
	RoleNone      AnalysisRole = "none"
)

// RoleSuggestion is a stateless role proposal, recomputed on demand.
type RoleSuggestion struct {
	TargetID   string       `json:"target_id"`
	Role       AnalysisRole `json:"role"`
	Confidence float64      `json:"confidence"`
	Reasons    []string     `json:"reasons"`
}

// DemographicType describes the measurement level of a demographic variable.
type DemographicType string

const (
	DemographicContinuous  DemographicType = "continuous"
	DemographicOrdinal     DemographicType = "ordinal"
	DemographicCategorical DemographicType = "categorical"
)

// DemographicSuggestion scores a column as a demographic/control candidate.
type DemographicSuggestion struct {
	ColumnName   string          `json:"column_name"`
	Type         DemographicType `json:"type"`
	Confidence   float64         `json:"confidence"`
	Reason       string          `json:"reason"`
	AutoSelected bool            `json:"auto_selected"`
}

// ModelSpecification is compiled measurement/structural grammar text, built
// fresh from the accepted group set each time a run is requested.
type ModelSpecification struct {
	Text        string   `json:"text"`
	Measurement []string `json:"measurement"`
	Structural  []string `json:"structural,omitempty"`
}

// SelectionSet is what persists between sessions for one dataset: the
// accepted groups and accepted demographics.
type SelectionSet struct {
	Groups       []*VariableGroup        `json:"groups"`
	Demographics []DemographicSuggestion `json:"demographics"`
}
