// Package ingest turns uploaded webinar and store exports into cohort
// records. It accepts .xlsx workbooks and delimited text (tab, comma or
// semicolon separated).
package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("missing required column")

// table is a header plus raw string rows.
type table struct {
	columns map[string]int
	rows    [][]string
}

// lookup returns the index of the first alias present in the header.
func (t *table) lookup(aliases ...string) (int, bool) {
	for _, a := range aliases {
		if i, ok := t.columns[normalizeHeader(a)]; ok {
			return i, true
		}
	}
	return -1, false
}

// cell reads row[i], tolerating short rows and absent columns.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

func isWorkbook(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// readTable parses r according to the file extension.
func readTable(r io.Reader, filename string) (*table, error) {
	var records [][]string
	var err error
	if isWorkbook(filename) {
		records, err = readWorkbook(r)
	} else {
		records, err = readDelimited(r)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: file is empty", filename)
	}

	t := &table{columns: make(map[string]int, len(records[0]))}
	for i, h := range records[0] {
		key := normalizeHeader(h)
		if _, dup := t.columns[key]; !dup && key != "" {
			t.columns[key] = i
		}
	}
	for _, row := range records[1:] {
		if !blank(row) {
			t.rows = append(t.rows, row)
		}
	}
	return t, nil
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readDelimited(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse delimited file: %w", err)
	}
	return records, nil
}

// sniffDelimiter picks the most frequent of tab, semicolon and comma in the
// header line. Tab wins ties.
func sniffDelimiter(data []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !sc.Scan() {
		return '\t'
	}
	header := sc.Text()

	best, count := '\t', strings.Count(header, "\t")
	for _, d := range []rune{';', ','} {
		if n := strings.Count(header, string(d)); n > count {
			best, count = d, n
		}
	}
	return best
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
