package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"semflow/domain/dataset"
)

func TestInferColumn_Numeric(t *testing.T) {
	values := []string{"1", "2.5", "3", "4.1", "5", "6", "7", "8", "9", "10"}
	info := InferColumn(values)

	assert.Equal(t, dataset.TypeNumeric, info.Type)
	assert.Equal(t, 1.0, info.Confidence)
	assert.Equal(t, 10, info.UniqueCount)
	assert.Equal(t, 0, info.MissingCount)
}

func TestInferColumn_NumericWithSentinels(t *testing.T) {
	values := []string{"1", "2", "NA", "4", "", "6", "7", "N/A", "9", "10"}
	info := InferColumn(values)

	assert.Equal(t, dataset.TypeNumeric, info.Type)
	assert.Equal(t, 3, info.MissingCount)
	assert.Equal(t, 7, info.UniqueCount)
}

func TestInferColumn_Date(t *testing.T) {
	values := []string{"2023-01-15", "2023-02-20", "2023-03-25", "2023-04-30", "2023-05-05"}
	info := InferColumn(values)

	assert.Equal(t, dataset.TypeDate, info.Type)
	assert.Equal(t, 1.0, info.Confidence)
}

func TestInferColumn_DatePatternButNotCalendar(t *testing.T) {
	// Token pattern matches but the values are not real calendar dates, so
	// the date branch must not fire.
	values := []string{"99/99/9999", "88/88/8888", "77/77/7777"}
	info := InferColumn(values)

	assert.NotEqual(t, dataset.TypeDate, info.Type)
}

func TestInferColumn_Categorical(t *testing.T) {
	values := []string{"yes", "no", "yes", "no", "yes", "yes", "no", "yes", "no", "no"}
	info := InferColumn(values)

	assert.Equal(t, dataset.TypeCategorical, info.Type)
	assert.InDelta(t, 1.0-2.0/10.0, info.Confidence, 1e-9)
	assert.Equal(t, 2, info.UniqueCount)
}

func TestInferColumn_Text(t *testing.T) {
	values := []string{
		"the quick brown fox", "jumped over", "a lazy dog", "somewhere in",
		"an open field", "during autumn", "while birds", "sang overhead",
	}
	info := InferColumn(values)

	assert.Equal(t, dataset.TypeText, info.Type)
	assert.Equal(t, 0.8, info.Confidence)
}

func TestInferColumn_AllMissing(t *testing.T) {
	values := []string{"", "NA", "N/A", ""}
	info := InferColumn(values)

	assert.Equal(t, dataset.TypeText, info.Type)
	assert.Equal(t, 0.0, info.Confidence)
	assert.Equal(t, 4, info.MissingCount)
	assert.Equal(t, 0, info.UniqueCount)
}

func TestInferColumn_Deterministic(t *testing.T) {
	values := []string{"1", "2", "foo", "4", "5", "6"}
	first := InferColumn(values)
	for i := 0; i < 10; i++ {
		again := InferColumn(values)
		assert.Equal(t, first.Type, again.Type)
		assert.Equal(t, first.Confidence, again.Confidence)
	}
}

func TestInferVariables_OrderFollowsHeaders(t *testing.T) {
	table := &dataset.RawTable{
		Headers: []string{"age", "name"},
		Rows: []map[string]string{
			{"age": "34", "name": "alice"},
			{"age": "29", "name": "bob"},
			{"age": "41", "name": "carol"},
		},
	}

	vars := InferVariables(table)

	assert.Len(t, vars, 2)
	assert.Equal(t, "age", vars[0].ColumnName)
	assert.Equal(t, dataset.TypeNumeric, vars[0].DataType)
	assert.Equal(t, "name", vars[1].ColumnName)
}
