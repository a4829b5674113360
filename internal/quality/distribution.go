package quality

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"semflow/domain/dataset"
)

// distributionSummaries computes shape statistics for each numeric column
// with enough values. These are informational only and never feed the
// recommendation rules or the overall score.
func (a *Analyzer) distributionSummaries(table *dataset.RawTable, variables []*dataset.Variable) []dataset.DistributionSummary {
	var summaries []dataset.DistributionSummary

	for _, v := range variables {
		if v.DataType != dataset.TypeNumeric {
			continue
		}
		values, _ := numericColumn(table, v.ColumnName)
		if len(values) < minValuesForIQR {
			continue
		}

		summary, ok := analyzeDistribution(v.ColumnName, values)
		if !ok {
			continue
		}
		summaries = append(summaries, summary)
	}

	return summaries
}

func analyzeDistribution(name string, values []float64) (dataset.DistributionSummary, bool) {
	mean, err := stats.Mean(values)
	if err != nil {
		return dataset.DistributionSummary{}, false
	}
	stdDev, err := stats.StandardDeviation(values)
	if err != nil || stdDev == 0 {
		return dataset.DistributionSummary{}, false
	}
	median, _ := stats.Median(values)
	minVal, _ := stats.Min(values)
	maxVal, _ := stats.Max(values)

	skewness := sampleSkewness(values, mean, stdDev)
	kurtosis := sampleKurtosis(values, mean, stdDev)
	isNormal, pValue := approxNormality(skewness, kurtosis)

	return dataset.DistributionSummary{
		ColumnName: name,
		Mean:       mean,
		StdDev:     stdDev,
		Median:     median,
		Min:        minVal,
		Max:        maxVal,
		Skewness:   skewness,
		Kurtosis:   kurtosis,
		IsNormal:   isNormal,
		NormalityP: pValue,
	}, true
}

// sampleSkewness computes the adjusted Fisher-Pearson coefficient.
func sampleSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 {
		return 0
	}
	n := float64(len(data))
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d
	}
	skew := sum / n
	return skew * math.Sqrt(n*(n-1)) / (n - 2)
}

// sampleKurtosis computes bias-corrected excess kurtosis.
func sampleKurtosis(data []float64, mean, stdDev float64) float64 {
	if len(data) < 4 {
		return 0
	}
	n := float64(len(data))
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d * d
	}
	excess := sum/n - 3
	correction := (n - 1) / ((n - 2) * (n - 3))
	return excess*correction + 6/(n+1)
}

// approxNormality approximates a normality test from the combined
// skewness/kurtosis statistic via a chi-squared tail. A rough screen, not a
// substitute for a proper Shapiro-Wilk on the backend.
func approxNormality(skewness, kurtosis float64) (isNormal bool, pValue float64) {
	testStat := math.Abs(skewness) + math.Abs(kurtosis)/2
	chi := distuv.ChiSquared{K: 2}
	pValue = 1 - chi.CDF(testStat*testStat)
	return pValue > 0.05, pValue
}
