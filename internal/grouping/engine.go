// Package grouping proposes sets of columns that plausibly measure one
// latent construct. Three detectors run independently (prefix patterns,
// trailing numbering, semantic keywords) and their output is merged,
// deduplicated on member sets, and sorted by confidence.
package grouping

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"semflow/domain/dataset"
	"semflow/domain/model"
)

const (
	prefixConfidence    = 0.9
	numberingConfidence = 0.85

	prefixMinMembers    = 2
	numberingMinMembers = 3
	semanticMinMembers  = 2
)

// Prefix forms: a leading alphabetic run followed by digits then an
// underscore ("Q1_a"), or by an underscore then trailing digits ("Trust_1").
var (
	prefixDigitsUnderscore = regexp.MustCompile(`^([A-Za-z]+)\d+_`)
	prefixUnderscoreDigits = regexp.MustCompile(`^([A-Za-z]+)_\d+$`)

	// Numbering form: alphabetic (optionally underscore-joined) base with
	// trailing digits ("Item1", "work_stress2"). A trailing underscore on
	// the base is captured and stripped so "Trust_1" buckets under "Trust".
	trailingDigits = regexp.MustCompile(`^([A-Za-z]+(?:_[A-Za-z]+)*_?)(\d+)$`)

	camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)
)

// semanticConcept maps a construct concept to the name keywords that signal
// it and the confidence a match carries.
type semanticConcept struct {
	name       string
	keywords   []string
	confidence float64
}

var semanticConcepts = []semanticConcept{
	{"Satisfaction", []string{"satisf", "happy", "pleased"}, 0.8},
	{"Trust", []string{"trust", "confidence_in", "reliab"}, 0.8},
	{"Loyalty", []string{"loyal", "retention", "repurchase"}, 0.8},
	{"Quality", []string{"quality", "qual_"}, 0.75},
	{"Value", []string{"value", "worth"}, 0.75},
	{"Service", []string{"service", "support"}, 0.75},
	{"Intention", []string{"intention", "intent", "willing"}, 0.8},
}

// Engine produces group suggestions. Stateless; safe to share.
type Engine struct{}

// NewEngine creates a grouping engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Suggest runs every detector over the variables and returns a deduplicated
// list sorted descending by confidence (name-ordered on ties, so repeated
// runs are byte-identical).
func (e *Engine) Suggest(variables []*dataset.Variable) []model.GroupSuggestion {
	names := make([]string, len(variables))
	for i, v := range variables {
		names[i] = v.ColumnName
	}

	var all []model.GroupSuggestion
	all = append(all, e.detectPrefix(names)...)
	all = append(all, e.detectNumbering(names)...)
	all = append(all, e.detectSemantic(names)...)

	deduped := dedupe(all)

	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].Confidence != deduped[j].Confidence {
			return deduped[i].Confidence > deduped[j].Confidence
		}
		return deduped[i].SuggestedName < deduped[j].SuggestedName
	})
	return deduped
}

// detectPrefix groups names sharing a captured alphabetic prefix. Matching
// is case-insensitive; the suggested label uses the most frequent original
// casing among the matched names.
func (e *Engine) detectPrefix(names []string) []model.GroupSuggestion {
	buckets := collectByPattern(names, func(name string) (string, bool) {
		if m := prefixDigitsUnderscore.FindStringSubmatch(name); m != nil {
			return m[1], true
		}
		if m := prefixUnderscoreDigits.FindStringSubmatch(name); m != nil {
			return m[1], true
		}
		return "", false
	})

	var suggestions []model.GroupSuggestion
	for _, bucket := range buckets {
		if len(bucket.members) < prefixMinMembers {
			continue
		}
		label := deriveLabel(bucket.displayPrefix(), bucket.members)
		suggestions = append(suggestions, model.GroupSuggestion{
			SuggestedName: label,
			Members:       bucket.members,
			Confidence:    prefixConfidence,
			Reason:        fmt.Sprintf("%d columns share the prefix %q", len(bucket.members), bucket.displayPrefix()),
			Pattern:       model.PatternPrefix,
		})
	}
	return suggestions
}

// detectNumbering groups names that are a common base plus trailing digits.
func (e *Engine) detectNumbering(names []string) []model.GroupSuggestion {
	buckets := collectByPattern(names, func(name string) (string, bool) {
		if m := trailingDigits.FindStringSubmatch(name); m != nil {
			return strings.TrimSuffix(m[1], "_"), true
		}
		return "", false
	})

	var suggestions []model.GroupSuggestion
	for _, bucket := range buckets {
		if len(bucket.members) < numberingMinMembers {
			continue
		}
		label := deriveLabel(bucket.displayPrefix(), bucket.members)
		suggestions = append(suggestions, model.GroupSuggestion{
			SuggestedName: label,
			Members:       bucket.members,
			Confidence:    numberingConfidence,
			Reason:        fmt.Sprintf("%d columns number a common base %q", len(bucket.members), bucket.displayPrefix()),
			Pattern:       model.PatternNumbering,
		})
	}
	return suggestions
}

// detectSemantic groups names sharing a construct concept keyword.
func (e *Engine) detectSemantic(names []string) []model.GroupSuggestion {
	var suggestions []model.GroupSuggestion

	for _, concept := range semanticConcepts {
		var members []string
		for _, name := range names {
			lower := strings.ToLower(name)
			for _, keyword := range concept.keywords {
				if strings.Contains(lower, keyword) {
					members = append(members, name)
					break
				}
			}
		}
		if len(members) < semanticMinMembers {
			continue
		}
		suggestions = append(suggestions, model.GroupSuggestion{
			SuggestedName: concept.name,
			Members:       members,
			Confidence:    concept.confidence,
			Reason:        fmt.Sprintf("%d columns reference the %s concept", len(members), strings.ToLower(concept.name)),
			Pattern:       model.PatternSemantic,
		})
	}
	return suggestions
}

// bucket accumulates the members matched under one lowercased key together
// with the original casings of the captured prefix.
type bucket struct {
	members []string
	casings map[string]int
	order   []string
}

// displayPrefix picks the most frequent original casing; ties favor title
// case, then first appearance.
func (b *bucket) displayPrefix() string {
	best := ""
	bestCount := -1
	for _, casing := range b.order {
		count := b.casings[casing]
		switch {
		case count > bestCount:
			best, bestCount = casing, count
		case count == bestCount && isTitleCase(casing) && !isTitleCase(best):
			best = casing
		}
	}
	return best
}

func collectByPattern(names []string, capture func(string) (string, bool)) []*bucket {
	byKey := make(map[string]*bucket)
	var keys []string

	for _, name := range names {
		prefix, ok := capture(strings.ToLower(name))
		if !ok {
			continue
		}
		// Re-capture against the original name to preserve its casing; fall
		// back to the lowercased capture when the original does not match
		// (mixed-case separators).
		display := prefix
		if orig, origOK := capture(name); origOK {
			display = orig
		} else if len(name) >= len(prefix) {
			display = name[:len(prefix)]
		}

		b, exists := byKey[prefix]
		if !exists {
			b = &bucket{casings: make(map[string]int)}
			byKey[prefix] = b
			keys = append(keys, prefix)
		}
		b.members = append(b.members, name)
		if _, seen := b.casings[display]; !seen {
			b.order = append(b.order, display)
		}
		b.casings[display]++
	}

	buckets := make([]*bucket, 0, len(keys))
	for _, key := range keys {
		buckets = append(buckets, byKey[key])
	}
	return buckets
}

// deriveLabel turns a captured prefix into a human label: spaces at camel
// and underscore boundaries, each word title-cased. Degenerate labels fall
// back to the longest common word across member names.
func deriveLabel(prefix string, members []string) string {
	label := humanize(prefix)
	if len(strings.ReplaceAll(label, " ", "")) > 1 {
		return label
	}
	if common := longestCommonWord(members); common != "" {
		return humanize(common)
	}
	return label
}

func humanize(s string) string {
	spaced := camelBoundary.ReplaceAllString(s, "$1 $2")
	spaced = strings.ReplaceAll(spaced, "_", " ")
	words := strings.Fields(spaced)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// longestCommonWord finds the longest alphabetic token present in every
// member name (case-insensitive). Single-letter tokens are ignored: a label
// that degenerated to one letter is not improved by another one-letter word.
func longestCommonWord(members []string) string {
	if len(members) == 0 {
		return ""
	}
	tokens := splitWords(members[0])
	best := ""
	for _, token := range tokens {
		if len(token) < 2 || len(token) <= len(best) {
			continue
		}
		inAll := true
		for _, member := range members[1:] {
			if !strings.Contains(strings.ToLower(member), token) {
				inAll = false
				break
			}
		}
		if inAll {
			best = token
		}
	}
	return best
}

var wordSplitter = regexp.MustCompile(`[A-Za-z]+`)

func splitWords(name string) []string {
	spaced := camelBoundary.ReplaceAllString(name, "$1 $2")
	raw := wordSplitter.FindAllString(spaced, -1)
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		words = append(words, strings.ToLower(w))
	}
	return words
}

func isTitleCase(s string) bool {
	if s == "" {
		return false
	}
	first := s[0]
	if first < 'A' || first > 'Z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			return false
		}
	}
	return true
}

// dedupe merges suggestions with identical member sets, keeping the highest
// confidence one.
func dedupe(suggestions []model.GroupSuggestion) []model.GroupSuggestion {
	byKey := make(map[string]model.GroupSuggestion)
	var order []string

	for _, s := range suggestions {
		key := s.MemberKey()
		existing, seen := byKey[key]
		if !seen {
			byKey[key] = s
			order = append(order, key)
			continue
		}
		if s.Confidence > existing.Confidence {
			byKey[key] = s
		}
	}

	result := make([]model.GroupSuggestion, 0, len(order))
	for _, key := range order {
		result = append(result, byKey[key])
	}
	return result
}
