// Package quality computes per-column and aggregate data health for a parsed
// table: missing-value breakdowns, IQR outliers, distribution shape, a 0-100
// overall score, and ordered recommendations.
package quality

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"semflow/domain/core"
	"semflow/domain/dataset"
)

// Score weights and recommendation thresholds. These literals are part of
// the analyzer's contract; downstream consumers depend on the arithmetic.
const (
	missingWeight = 0.4
	outlierWeight = 0.3
	typeWeight    = 0.3

	missingPenalty = 2.0
	outlierPenalty = 3.0

	overallMissingThreshold = 10.0
	worstVariableThreshold  = 30.0
	outlierShareThreshold   = 5.0
	ambiguousTypeThreshold  = 0.7
	smallSampleRows         = 30
	minValuesForIQR         = 4
	maxOutlierIndicesPerVar = 10
	iqrMultiplier           = 1.5
)

// Analyzer produces QualityReports. Stateless; safe to share.
type Analyzer struct{}

// NewAnalyzer creates a quality analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze computes a fresh QualityReport for the table and enriches numeric
// variables with descriptive summaries. It never fails the whole report for
// a single bad column: columns that cannot support an analysis are skipped.
func (a *Analyzer) Analyze(datasetID core.DatasetID, table *dataset.RawTable, variables []*dataset.Variable) *dataset.QualityReport {
	report := &dataset.QualityReport{
		DatasetID:    datasetID,
		TotalRows:    table.RowCount(),
		TotalColumns: len(table.Headers),
		TypeCounts:   make(map[dataset.DataType]int),
		GeneratedAt:  time.Now(),
	}

	for _, v := range variables {
		report.TypeCounts[v.DataType]++
	}

	report.Missing = a.missingReports(table, variables)
	report.Outliers = a.outlierReports(table, variables)
	report.Distributions = a.distributionSummaries(table, variables)
	a.enrichNumericSummaries(table, variables)

	totalMissing := 0
	for _, m := range report.Missing {
		totalMissing += m.Count
	}
	totalOutliers := 0
	for _, o := range report.Outliers {
		totalOutliers += o.Count
	}

	report.OverallScore = a.score(report, variables, totalMissing, totalOutliers)
	report.Recommendations = a.recommendations(report, variables, totalMissing, totalOutliers)

	return report
}

// missingReports lists variables with at least one missing cell, sorted
// descending by percentage.
func (a *Analyzer) missingReports(table *dataset.RawTable, variables []*dataset.Variable) []dataset.MissingReport {
	rowCount := table.RowCount()
	var reports []dataset.MissingReport

	for _, v := range variables {
		if v.MissingCount == 0 {
			continue
		}
		pct := 0.0
		if rowCount > 0 {
			pct = float64(v.MissingCount) / float64(rowCount) * 100
		}
		reports = append(reports, dataset.MissingReport{
			ColumnName: v.ColumnName,
			Count:      v.MissingCount,
			Percentage: pct,
		})
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Percentage > reports[j].Percentage
	})
	return reports
}

// outlierReports runs positional-index IQR detection over numeric columns.
// Columns with fewer than four numeric values are skipped: they cannot form
// a meaningful IQR.
func (a *Analyzer) outlierReports(table *dataset.RawTable, variables []*dataset.Variable) []dataset.OutlierReport {
	var reports []dataset.OutlierReport

	for _, v := range variables {
		if v.DataType != dataset.TypeNumeric {
			continue
		}
		values, indices := numericColumn(table, v.ColumnName)
		if len(values) < minValuesForIQR {
			continue
		}

		lower, upper := iqrBounds(values)

		var outlierIndices []int
		count := 0
		for i, val := range values {
			if val < lower || val > upper {
				count++
				if len(outlierIndices) < maxOutlierIndicesPerVar {
					outlierIndices = append(outlierIndices, indices[i])
				}
			}
		}
		if count == 0 {
			continue
		}

		reports = append(reports, dataset.OutlierReport{
			ColumnName: v.ColumnName,
			Count:      count,
			Percentage: float64(count) / float64(len(values)) * 100,
			RowIndices: outlierIndices,
			LowerBound: lower,
			UpperBound: upper,
		})
	}

	return reports
}

// iqrBounds takes Q1 and Q3 at simple positional indices, not interpolated:
// sorted[floor(n*0.25)] and sorted[floor(n*0.75)].
func iqrBounds(values []float64) (lower, upper float64) {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	q1 := sorted[int(math.Floor(float64(n)*0.25))]
	q3 := sorted[int(math.Floor(float64(n)*0.75))]
	iqr := q3 - q1

	return q1 - iqrMultiplier*iqr, q3 + iqrMultiplier*iqr
}

// enrichNumericSummaries attaches mean/stddev/min/max to numeric variables.
func (a *Analyzer) enrichNumericSummaries(table *dataset.RawTable, variables []*dataset.Variable) {
	for _, v := range variables {
		if v.DataType != dataset.TypeNumeric {
			continue
		}
		values, _ := numericColumn(table, v.ColumnName)
		if len(values) == 0 {
			continue
		}

		mean, err := stats.Mean(values)
		if err != nil {
			continue
		}
		stdDev, _ := stats.StandardDeviation(values)
		minVal, _ := stats.Min(values)
		maxVal, _ := stats.Max(values)

		v.Summary = &dataset.NumericSummary{
			Mean:   mean,
			StdDev: stdDev,
			Min:    minVal,
			Max:    maxVal,
		}
	}
}

// score blends missing, outlier, and type-confidence components 40/30/30.
func (a *Analyzer) score(report *dataset.QualityReport, variables []*dataset.Variable, totalMissing, totalOutliers int) int {
	totalCells := report.TotalRows * report.TotalColumns
	missingPct := 0.0
	if totalCells > 0 {
		missingPct = float64(totalMissing) / float64(totalCells) * 100
	}
	missingScore := math.Max(0, 100-missingPct*missingPenalty)

	flagged := totalMissing + totalOutliers
	outlierPct := 0.0
	if flagged > 0 {
		outlierPct = float64(totalOutliers) / float64(flagged) * 100
	}
	outlierScore := math.Max(0, 100-outlierPct*outlierPenalty)

	typeScore := 0.0
	if len(variables) > 0 {
		sum := 0.0
		for _, v := range variables {
			sum += v.Confidence
		}
		typeScore = sum / float64(len(variables)) * 100
	}

	final := math.Round(missingWeight*missingScore + outlierWeight*outlierScore + typeWeight*typeScore)
	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}
	return int(final)
}

// recommendations evaluates the fixed rule list in order; each rule appends
// at most one message. Rule order and thresholds are contractual.
func (a *Analyzer) recommendations(report *dataset.QualityReport, variables []*dataset.Variable, totalMissing, totalOutliers int) []string {
	var recs []string

	totalCells := report.TotalRows * report.TotalColumns
	overallMissingPct := 0.0
	if totalCells > 0 {
		overallMissingPct = float64(totalMissing) / float64(totalCells) * 100
	}
	if overallMissingPct > overallMissingThreshold {
		recs = append(recs, fmt.Sprintf(
			"%.1f%% of cells are missing; consider imputing missing values or removing incomplete rows before analysis",
			overallMissingPct))
	}

	if len(report.Missing) > 0 && report.Missing[0].Percentage > worstVariableThreshold {
		worst := report.Missing[0]
		recs = append(recs, fmt.Sprintf(
			"variable %q is missing %.1f%% of its values; consider dropping it",
			worst.ColumnName, worst.Percentage))
	}

	flagged := totalMissing + totalOutliers
	if totalOutliers > 0 && flagged > 0 {
		share := float64(totalOutliers) / float64(flagged) * 100
		if share > outlierShareThreshold {
			recs = append(recs, fmt.Sprintf(
				"%d outlier values detected; review flagged rows before fitting models sensitive to extreme values",
				totalOutliers))
		}
	}

	textCount := report.TypeCounts[dataset.TypeText]
	if textCount > report.TypeCounts[dataset.TypeNumeric]+report.TypeCounts[dataset.TypeCategorical] {
		recs = append(recs, "more text columns than numeric and categorical combined; check for columns parsed with the wrong type")
	}

	for _, v := range variables {
		if v.Confidence < ambiguousTypeThreshold {
			recs = append(recs, "one or more variables have ambiguous types; review and override their inferred types where needed")
			break
		}
	}

	if report.TotalRows < smallSampleRows {
		recs = append(recs, fmt.Sprintf(
			"only %d rows available; results from samples under %d rows are unreliable for most analyses",
			report.TotalRows, smallSampleRows))
	}

	if len(recs) == 0 {
		recs = append(recs, "data quality is good; no issues detected")
	}
	return recs
}

// numericColumn extracts the parseable numeric values of a column along with
// their original row indices. Unparseable or missing cells are skipped.
func numericColumn(table *dataset.RawTable, header string) (values []float64, indices []int) {
	for i, row := range table.Rows {
		cell := strings.TrimSpace(row[header])
		if dataset.IsMissingValue(cell) {
			continue
		}
		val, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			continue
		}
		values = append(values, val)
		indices = append(indices, i)
	}
	return values, indices
}
