package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// table is a parsed CSV file with a header index
type table struct {
	name    string
	header  []string
	columns map[string]int
	rows    [][]string
}

// readTable reads a whole CSV stream. The first record is the header.
func readTable(name string, r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file", name)
		}
		return nil, fmt.Errorf("%s: failed to read header: %w", name, err)
	}

	t := &table{
		name:    name,
		header:  make([]string, len(header)),
		columns: make(map[string]int, len(header)),
	}
	for i, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		t.header[i] = col
		t.columns[col] = i
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	t.rows = rows
	return t, nil
}

// require returns the index of each named column, failing on the first missing one
func (t *table) require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		col, ok := t.columns[name]
		if !ok {
			return nil, fmt.Errorf("%s: missing column %q", t.name, name)
		}
		idx[i] = col
	}
	return idx, nil
}

// extras returns the indexes of columns not in used
func (t *table) extras(used []int) []int {
	skip := make(map[int]bool, len(used))
	for _, i := range used {
		skip[i] = true
	}
	var out []int
	for i := range t.header {
		if !skip[i] {
			out = append(out, i)
		}
	}
	return out
}

// line returns the 1-based file line of a data row, counting the header
func line(row int) int {
	return row + 2
}

func (t *table) text(row, col int) string {
	return strings.TrimSpace(t.rows[row][col])
}

func (t *table) float(row, col int) (float64, error) {
	raw := t.text(row, col)
	if raw == "" {
		return 0, fmt.Errorf("%s line %d: empty %s", t.name, line(row), t.header[col])
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s line %d: invalid %s %q: %w", t.name, line(row), t.header[col], raw, err)
	}
	return v, nil
}

func (t *table) attributes(row int, cols []int) map[string]string {
	if len(cols) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(cols))
	for _, col := range cols {
		if v := t.text(row, col); v != "" {
			attrs[t.header[col]] = v
		}
	}
	return attrs
}
