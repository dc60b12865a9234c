package ingest

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParse_CSV(t *testing.T) {
	csvData := "name,value\nWidget,100\nGadget,55.5\nWidget,3\n"

	batch, err := Parse(strings.NewReader(csvData), "csv")
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if len(batch) != 3 {
		t.Fatalf("len(batch) = %d, want 3", len(batch))
	}
	if batch[0].Name != "Widget" || batch[0].Value != 100 {
		t.Errorf("batch[0] = %+v, want {Widget 100}", batch[0])
	}
	if batch[1].Value != 55.5 {
		t.Errorf("batch[1].Value = %f, want 55.5", batch[1].Value)
	}
}

func TestParse_CSVWithBOM(t *testing.T) {
	csvData := "\uFEFFname,value\nWidget,1\n"

	batch, err := Parse(strings.NewReader(csvData), ".csv")
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if len(batch) != 1 {
		t.Errorf("len(batch) = %d, want 1", len(batch))
	}
}

func TestParse_UnsupportedFormat(t *testing.T) {
	for _, ext := range []string{"xls", "txt", "json", ""} {
		_, err := Parse(strings.NewReader("name,value\na,1\n"), ext)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Parse(ext=%q) error = %v, want ErrUnsupportedFormat", ext, err)
		}
	}
}

func TestParse_EmptyFile(t *testing.T) {
	// header only, no data rows
	_, err := Parse(strings.NewReader("name,value\n"), "csv")
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("Parse(header only) error = %v, want ErrEmptyFile", err)
	}

	_, err = Parse(strings.NewReader(""), "csv")
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("Parse(empty) error = %v, want ErrEmptyFile", err)
	}
}

func TestParse_MissingColumns(t *testing.T) {
	testCases := []string{
		"name,amount\nWidget,100\n",  // no value column
		"item,value\nWidget,100\n",   // no name column
		"name,value\nWidget,\n",      // value missing in first row
		"name,value\n,100\n",         // name missing in first row
	}

	for _, data := range testCases {
		_, err := Parse(strings.NewReader(data), "csv")
		if !errors.Is(err, ErrMissingColumns) {
			t.Errorf("Parse(%q) error = %v, want ErrMissingColumns", data, err)
		}
	}
}

func TestParse_InvalidRow(t *testing.T) {
	csvData := "name,value\nWidget,100\nGadget,abc\n"

	_, err := Parse(strings.NewReader(csvData), "csv")
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("Parse() error = %v, want *RowError", err)
	}
	if rowErr.Row != 2 {
		t.Errorf("rowErr.Row = %d, want 2", rowErr.Row)
	}
}

func TestParse_HeaderCaseInsensitive(t *testing.T) {
	csvData := "Name,VALUE\nWidget,7\n"

	batch, err := Parse(strings.NewReader(csvData), "csv")
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if batch[0].Name != "Widget" || batch[0].Value != 7 {
		t.Errorf("batch[0] = %+v, want {Widget 7}", batch[0])
	}
}

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetCellValue(sheet, "A1", "name")
	_ = f.SetCellValue(sheet, "B1", "value")
	_ = f.SetCellValue(sheet, "A2", "Widget")
	_ = f.SetCellValue(sheet, "B2", 100)
	_ = f.SetCellValue(sheet, "A3", "Gadget")
	_ = f.SetCellValue(sheet, "B3", 5)

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}

	batch, err := Parse(bytes.NewReader(buf.Bytes()), "xlsx")
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if len(batch) != 2 {
		t.Fatalf("len(batch) = %d, want 2", len(batch))
	}
	if batch[0].Name != "Widget" || batch[0].Value != 100 {
		t.Errorf("batch[0] = %+v, want {Widget 100}", batch[0])
	}
	if batch[1].Name != "Gadget" || batch[1].Value != 5 {
		t.Errorf("batch[1] = %+v, want {Gadget 5}", batch[1])
	}
}

func TestParse_XLSXMissingValueColumn(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetCellValue(sheet, "A1", "name")
	_ = f.SetCellValue(sheet, "B1", "amount")
	_ = f.SetCellValue(sheet, "A2", "Widget")
	_ = f.SetCellValue(sheet, "B2", 100)

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}

	_, err = Parse(bytes.NewReader(buf.Bytes()), "xlsx")
	if !errors.Is(err, ErrMissingColumns) {
		t.Errorf("Parse() error = %v, want ErrMissingColumns", err)
	}
}
