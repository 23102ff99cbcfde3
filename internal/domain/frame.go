package domain

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Frame is a simple tabular frame: named columns over string-valued rows.
// It backs the index fetchers, CSV export and plotting.
type Frame struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewFrame creates an empty frame with the given columns.
func NewFrame(columns []string) *Frame {
	return &Frame{Columns: columns}
}

// NRows returns the number of rows.
func (f *Frame) NRows() int {
	return len(f.Rows)
}

// AppendRow adds a row. The caller is responsible for matching the column
// count; Validate reports mismatches.
func (f *Frame) AppendRow(row []string) {
	f.Rows = append(f.Rows, row)
}

// Validate checks that every row has one cell per column.
func (f *Frame) Validate() error {
	for i, row := range f.Rows {
		if len(row) != len(f.Columns) {
			return fmt.Errorf("row %d has %d cells, expected %d", i, len(row), len(f.Columns))
		}
	}
	return nil
}

func (f *Frame) columnIndex(name string) (int, error) {
	for i, c := range f.Columns {
		if c == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("frame has no column %q (have %v)", name, f.Columns)
}

// Column returns the values of a named column.
func (f *Frame) Column(name string) ([]string, error) {
	idx, err := f.columnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Floats returns a named column parsed as float64 values.
func (f *Frame) Floats(name string) ([]float64, error) {
	cells, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cells))
	for i, cell := range cells {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s row %d: %w", name, i, err)
		}
		out[i] = v
	}
	return out, nil
}

// CountBy returns the number of rows per distinct value of a column.
func (f *Frame) CountBy(name string) (map[string]int, error) {
	cells, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, cell := range cells {
		counts[cell]++
	}
	return counts, nil
}

// SortBy sorts rows in ascending lexical order of a named column.
// The sort is stable so ties keep their original order.
func (f *Frame) SortBy(name string) error {
	idx, err := f.columnIndex(name)
	if err != nil {
		return err
	}
	sort.SliceStable(f.Rows, func(i, j int) bool {
		return f.Rows[i][idx] < f.Rows[j][idx]
	})
	return nil
}

// WriteCSV serializes the frame, header first, to w.
func (f *Frame) WriteCSV(w io.Writer) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("cannot write frame: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range f.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ToDataset converts the frame to a dataset with one point per row.
// Columns whose cells all parse as numbers become numeric variables, the
// rest become string variables.
func (f *Frame) ToDataset() (*Dataset, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("cannot convert frame to dataset: %w", err)
	}
	ds := NewDataset(len(f.Rows))
	for _, name := range f.Columns {
		cells, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		values := make([]float64, len(cells))
		numeric := true
		for i, cell := range cells {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				numeric = false
				break
			}
			values[i] = v
		}
		if numeric && len(cells) > 0 {
			ds.AddVar(&Variable{Name: name, Values: values})
		} else {
			ds.AddVar(&Variable{Name: name, Text: cells})
		}
	}
	return ds, nil
}
