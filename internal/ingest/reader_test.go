package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semflow/domain/core"
)

func TestReadCSV_Basic(t *testing.T) {
	csvData := "age,name\n34,alice\n29,bob\n"
	table, err := NewReader().ReadCSV(strings.NewReader(csvData))

	require.NoError(t, err)
	assert.Equal(t, []string{"age", "name"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "34", table.Rows[0]["age"])
	assert.Equal(t, "bob", table.Rows[1]["name"])
}

func TestReadCSV_ShortRowsPaddedToExplicitEmpty(t *testing.T) {
	csvData := "a,b,c\n1,2\n"
	table, err := NewReader().ReadCSV(strings.NewReader(csvData))

	require.NoError(t, err)
	val, ok := table.Rows[0]["c"]
	assert.True(t, ok, "every row must carry a value for every header")
	assert.Equal(t, "", val)
}

func TestReadCSV_DuplicateHeaderRejected(t *testing.T) {
	csvData := "age,age\n1,2\n"
	_, err := NewReader().ReadCSV(strings.NewReader(csvData))

	assert.True(t, core.IsMalformedInput(err))
	assert.ErrorIs(t, err, core.ErrDuplicateHeader)
}

func TestReadCSV_EmptyInputRejected(t *testing.T) {
	_, err := NewReader().ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, core.ErrMissingHeaders)
}

func TestReadCSV_HeadersOnlyRejected(t *testing.T) {
	_, err := NewReader().ReadCSV(strings.NewReader("a,b\n"))
	assert.ErrorIs(t, err, core.ErrEmptyDataset)
}

func TestRead_UnsupportedExtension(t *testing.T) {
	_, err := NewReader().Read(strings.NewReader("x"), "data.parquet")
	assert.True(t, core.IsMalformedInput(err))
}
