// Package dataset holds the column-level data model the engine operates on:
// raw parsed tables, resolved variables, and quality reports.
package dataset

import (
	"time"

	"semflow/domain/core"
)

// DataType classifies a column's resolved kind.
type DataType string

const (
	TypeNumeric     DataType = "numeric"
	TypeCategorical DataType = "categorical"
	TypeOrdinal     DataType = "ordinal"
	TypeText        DataType = "text"
	TypeDate        DataType = "date"
)

// MissingSentinels are literal cell values treated as missing in addition to
// the empty string.
var MissingSentinels = []string{"NA", "N/A"}

// IsMissingValue reports whether a raw cell value counts as missing.
func IsMissingValue(v string) bool {
	if v == "" {
		return true
	}
	for _, s := range MissingSentinels {
		if v == s {
			return true
		}
	}
	return false
}

// RawTable is an immutable parsed dataset: ordered headers plus row records.
// A cell that was absent in the source is present here as the empty string,
// so every row has a value for every header.
type RawTable struct {
	Headers []string
	Rows    []map[string]string
}

// Column returns the raw value sequence for one header, in row order.
func (t *RawTable) Column(header string) []string {
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[header]
	}
	return values
}

// RowCount returns the number of data rows.
func (t *RawTable) RowCount() int {
	return len(t.Rows)
}

// DataTypeInfo is the output of type inference for a single column.
type DataTypeInfo struct {
	Type         DataType `json:"type"`
	Confidence   float64  `json:"confidence"`
	UniqueCount  int      `json:"unique_count"`
	MissingCount int      `json:"missing_count"`
	SampleValues []string `json:"sample_values,omitempty"`
}

// NumericSummary holds descriptive statistics for a numeric variable.
type NumericSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Variable is one column's resolved identity. Created by type inference,
// enriched by the quality analyzer, read-only afterward.
type Variable struct {
	ColumnName   string          `json:"column_name"`
	DisplayName  string          `json:"display_name,omitempty"`
	DataType     DataType        `json:"data_type"`
	Confidence   float64         `json:"confidence"`
	MissingCount int             `json:"missing_count"`
	UniqueCount  int             `json:"unique_count"`
	Summary      *NumericSummary `json:"summary,omitempty"`
}

// Label returns the display name or falls back to the column name.
func (v *Variable) Label() string {
	if v.DisplayName != "" {
		return v.DisplayName
	}
	return v.ColumnName
}

// MissingReport describes missing values for one variable.
type MissingReport struct {
	ColumnName string  `json:"column_name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// OutlierReport describes IQR outliers for one variable. RowIndices holds at
// most the first 10 offending indices for display; Count covers all of them.
type OutlierReport struct {
	ColumnName string  `json:"column_name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	RowIndices []int   `json:"row_indices"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// DistributionSummary describes the shape of a numeric column.
type DistributionSummary struct {
	ColumnName string  `json:"column_name"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Median     float64 `json:"median"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Skewness   float64 `json:"skewness"`
	Kurtosis   float64 `json:"kurtosis"`
	IsNormal   bool    `json:"is_normal"`
	NormalityP float64 `json:"normality_p"`
}

// QualityReport is the aggregate health check over one table. Immutable;
// regenerated by re-running the check, never merged.
type QualityReport struct {
	DatasetID       core.DatasetID        `json:"dataset_id"`
	TotalRows       int                   `json:"total_rows"`
	TotalColumns    int                   `json:"total_columns"`
	Missing         []MissingReport       `json:"missing"`
	Outliers        []OutlierReport       `json:"outliers"`
	TypeCounts      map[DataType]int      `json:"type_counts"`
	Distributions   []DistributionSummary `json:"distributions,omitempty"`
	OverallScore    int                   `json:"overall_score"`
	Recommendations []string              `json:"recommendations"`
	GeneratedAt     time.Time             `json:"generated_at"`
}
