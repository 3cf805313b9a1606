// Package batch reads and writes the persisted record batch: a UTF-8 CSV
// table with a byte order mark and a header row.
package batch

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

var ErrMissingColumn = errors.New("missing column")

// Table is a header plus rows of cells. Short rows read as empty cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable returns an empty table with the given header.
func NewTable(header []string) *Table {
	return &Table{Header: append([]string(nil), header...), Rows: make([][]string, 0)}
}

// Len is the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of column name or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Require fails with ErrMissingColumn for the first absent column.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if t.Index(n) < 0 {
			return fmt.Errorf("%w: %q", ErrMissingColumn, n)
		}
	}
	return nil
}

// Cell returns row i of column col, or "" past the end of a short row.
func (t *Table) Cell(i, col int) string {
	row := t.Rows[i]
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// Column returns every value of column name.
func (t *Table) Column(name string) ([]string, error) {
	col := t.Index(name)
	if col < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	out := make([]string, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Cell(i, col)
	}
	return out, nil
}

// SetColumn overwrites column name, appending it to the header when absent.
func (t *Table) SetColumn(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(t.Rows))
	}

	col := t.Index(name)
	if col < 0 {
		t.Header = append(t.Header, name)
		col = len(t.Header) - 1
	}
	for i, v := range values {
		row := t.Rows[i]
		for len(row) <= col {
			row = append(row, "")
		}
		row[col] = v
		t.Rows[i] = row
	}
	return nil
}

// Read parses a table. A leading byte order mark is skipped.
func Read(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && bytes.Equal(head, bom) {
		_, _ = br.Discard(len(bom))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty table: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := NewTable(header)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(t.Rows)+1, err)
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// Write emits the byte order mark, the header and every row.
func Write(w io.Writer, t *Table) error {
	if _, err := w.Write(bom); err != nil {
		return fmt.Errorf("failed to write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}

	return nil
}

// ReadFile reads the table stored at path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path) // nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return t, nil
}

// WriteFile stores t at path, creating parent directories.
func WriteFile(path string, t *Table) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %q: %w", dir, err)
		}
	}

	f, err := os.Create(path) // nolint:gosec
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", path, err)
	}

	if err := Write(f, t); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", path, err)
	}
	return nil
}
