package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported table format")

// Table is a header row plus data rows keyed by header name.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// Value returns the trimmed cell of row i under column, or "".
func (t *Table) Value(i int, column string) string {
	if column == "" || i < 0 || i >= len(t.Rows) {
		return ""
	}
	return strings.TrimSpace(t.Rows[i][column])
}

// ReadFile loads a .csv or .xlsx file. The first row is the header.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".xlsx", ".xlsm":
		return ReadXLSX(f)
	default:
		return nil, fmt.Errorf("%w %q: accepted extensions are .csv, .xlsx and .xlsm", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadCSV parses comma separated input with a header row. A UTF-8 byte order
// mark is stripped from the first header.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromRows(records)
}

// ReadXLSX parses the first sheet of a workbook.
func ReadXLSX(r io.Reader) (*Table, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer wb.Close()
	sheet := wb.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("xlsx: workbook has no sheets")
	}
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, errors.New("table has no header row")
	}
	header := append([]string(nil), rows[0]...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	t := &Table{Columns: header, Rows: make([]map[string]string, 0, len(rows)-1)}
	for _, rec := range rows[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				// first occurrence wins for duplicate headers
				if _, dup := row[col]; !dup {
					row[col] = rec[i]
				}
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
