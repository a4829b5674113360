// Package ingest parses uploaded CSV and Excel files into RawTables and
// enforces the guarantees the engine assumes: non-empty data, unique
// headers, and an explicit value (possibly empty) for every header in every
// row.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"semflow/domain/core"
	"semflow/domain/dataset"
)

// Reader parses tabular uploads.
type Reader struct{}

// NewReader creates an ingest reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read parses a file by extension: .csv, .xlsx, or .xls.
func (r *Reader) Read(src io.Reader, filename string) (*dataset.RawTable, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return r.ReadCSV(src)
	case ".xlsx", ".xls":
		return r.ReadExcel(src)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", core.ErrMalformedInput, filepath.Ext(filename))
	}
}

// ReadCSV parses CSV data; the first record is the header row.
func (r *Reader) ReadCSV(src io.Reader) (*dataset.RawTable, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedInput, err)
	}
	if len(records) == 0 {
		return nil, core.ErrMissingHeaders
	}
	return buildTable(records[0], records[1:])
}

// ReadExcel parses the first sheet of a workbook; the first row is the
// header row.
func (r *Reader) ReadExcel(src io.Reader) (*dataset.RawTable, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.ErrMissingHeaders
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedInput, err)
	}
	if len(rows) == 0 {
		return nil, core.ErrMissingHeaders
	}
	return buildTable(rows[0], rows[1:])
}

// buildTable validates headers and pads every row to an explicit value per
// header.
func buildTable(rawHeaders []string, rawRows [][]string) (*dataset.RawTable, error) {
	headers := make([]string, 0, len(rawHeaders))
	seen := make(map[string]bool, len(rawHeaders))
	for _, h := range rawHeaders {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, core.ErrMissingHeaders
		}
		if seen[h] {
			return nil, core.NewDuplicateHeaderError(h)
		}
		seen[h] = true
		headers = append(headers, h)
	}
	if len(headers) == 0 {
		return nil, core.ErrMissingHeaders
	}
	if len(rawRows) == 0 {
		return nil, core.ErrEmptyDataset
	}

	rows := make([]map[string]string, len(rawRows))
	for i, record := range rawRows {
		row := make(map[string]string, len(headers))
		for j, header := range headers {
			if j < len(record) {
				row[header] = strings.TrimSpace(record[j])
			} else {
				row[header] = ""
			}
		}
		rows[i] = row
	}

	return &dataset.RawTable{Headers: headers, Rows: rows}, nil
}
