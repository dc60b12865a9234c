// Package ingest turns uploaded CSV/XLSX spreadsheets into typed import
// batches. Parsing is pure: nothing here touches storage, and committing a
// batch is always a separate, explicit step.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for any extension other than csv/xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format, expect .csv or .xlsx")
	// ErrEmptyFile is returned when the file decodes to zero data rows.
	ErrEmptyFile = errors.New("file contains no data rows")
	// ErrMissingColumns is returned when the first row lacks name or value.
	ErrMissingColumns = errors.New("data must include name and value columns")
)

// RowError reports a row that could not be coerced. Row is the 1-based index
// of the data row (the header does not count).
type RowError struct {
	Row   int
	Cause error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Cause)
}

func (e *RowError) Unwrap() error { return e.Cause }

// ImportRow is one parsed record awaiting commit.
type ImportRow struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ImportBatch is an ordered, unpersisted sequence of parsed rows.
type ImportBatch []ImportRow

// Parse decodes the first sheet/table of the file into an ImportBatch.
// ext is the declared file extension, with or without the leading dot.
func Parse(r io.Reader, ext string) (ImportBatch, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "csv":
		return parseCSV(r)
	case "xlsx":
		return parseXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func parseCSV(r io.Reader) (ImportBatch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // tolerate ragged rows, validated per cell below

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		// strip UTF-8 BOM some spreadsheet tools prepend
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\uFEFF")
	}
	return fromRows(rows)
}

func parseXLSX(r io.Reader) (ImportBatch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	// only the first sheet is read
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	return fromRows(rows)
}

// fromRows converts header+data rows into a typed batch. Column matching is
// case-insensitive; extra columns are ignored. Only the first data row is
// checked for column presence, matching the documented validation policy.
func fromRows(rows [][]string) (ImportBatch, error) {
	if len(rows) < 2 {
		return nil, ErrEmptyFile
	}

	nameIdx, valueIdx := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name":
			nameIdx = i
		case "value":
			valueIdx = i
		}
	}
	if nameIdx < 0 || valueIdx < 0 {
		return nil, ErrMissingColumns
	}

	first := rows[1]
	if cell(first, nameIdx) == "" || cell(first, valueIdx) == "" {
		return nil, ErrMissingColumns
	}

	batch := make(ImportBatch, 0, len(rows)-1)
	for i, row := range rows[1:] {
		name := cell(row, nameIdx)
		if name == "" {
			return nil, &RowError{Row: i + 1, Cause: errors.New("name is empty")}
		}
		value, err := strconv.ParseFloat(cell(row, valueIdx), 64)
		if err != nil {
			return nil, &RowError{Row: i + 1, Cause: fmt.Errorf("value is not numeric: %q", cell(row, valueIdx))}
		}
		batch = append(batch, ImportRow{Name: name, Value: value})
	}
	return batch, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
