// Package inference classifies raw columns by data kind from their sampled
// values. Every function here is pure: the same value sequence always yields
// the same classification.
package inference

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"semflow/domain/dataset"
)

const (
	numericThreshold = 0.9
	dateThreshold    = 0.8
	maxSampleValues  = 5
	// Categorical cutoff: a column is categorical when its distinct values
	// number at most min(20, half the non-missing count).
	categoricalCap = 20
)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
	regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`),
	regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`),
	regexp.MustCompile(`^[A-Za-z]{3,9} \d{1,2}, \d{4}$`),
	regexp.MustCompile(`^\d{1,2} [A-Za-z]{3,9} \d{4}$`),
}

var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2-1-2006",
	"02-01-2006",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// InferColumn classifies a column's raw value sequence.
//
// Decision order (first match wins): numeric, date, categorical, text. An
// all-missing column defaults to text with confidence 0.
func InferColumn(values []string) dataset.DataTypeInfo {
	info := dataset.DataTypeInfo{}

	var nonMissing []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if dataset.IsMissingValue(v) {
			info.MissingCount++
			continue
		}
		nonMissing = append(nonMissing, v)
	}

	unique := make(map[string]struct{}, len(nonMissing))
	for _, v := range nonMissing {
		unique[v] = struct{}{}
	}
	info.UniqueCount = len(unique)

	for _, v := range nonMissing {
		if len(info.SampleValues) >= maxSampleValues {
			break
		}
		info.SampleValues = append(info.SampleValues, v)
	}

	n := len(nonMissing)
	if n == 0 {
		info.Type = dataset.TypeText
		info.Confidence = 0
		return info
	}

	numericCount := 0
	dateCount := 0
	for _, v := range nonMissing {
		if isNumeric(v) {
			numericCount++
		}
		if isDate(v) {
			dateCount++
		}
	}

	numericRatio := float64(numericCount) / float64(n)
	dateRatio := float64(dateCount) / float64(n)

	switch {
	case numericRatio > numericThreshold:
		info.Type = dataset.TypeNumeric
		info.Confidence = numericRatio
	case dateRatio > dateThreshold:
		info.Type = dataset.TypeDate
		info.Confidence = dateRatio
	case info.UniqueCount <= categoricalLimit(n):
		info.Type = dataset.TypeCategorical
		info.Confidence = 1 - float64(info.UniqueCount)/float64(n)
	default:
		info.Type = dataset.TypeText
		info.Confidence = 0.8
	}

	return info
}

// InferVariables runs inference over every column of a table, in header order.
func InferVariables(table *dataset.RawTable) []*dataset.Variable {
	variables := make([]*dataset.Variable, 0, len(table.Headers))
	for _, header := range table.Headers {
		info := InferColumn(table.Column(header))
		variables = append(variables, &dataset.Variable{
			ColumnName:   header,
			DataType:     info.Type,
			Confidence:   info.Confidence,
			MissingCount: info.MissingCount,
			UniqueCount:  info.UniqueCount,
		})
	}
	return variables
}

func categoricalLimit(nonMissing int) int {
	half := nonMissing / 2
	if half < categoricalCap {
		return half
	}
	return categoricalCap
}

func isNumeric(v string) bool {
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

// isDate requires both a date-like token pattern and a parseable calendar
// date, so "99/99/9999" does not count.
func isDate(v string) bool {
	matched := false
	for _, p := range datePatterns {
		if p.MatchString(v) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}
