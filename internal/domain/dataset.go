// Package domain defines the data model shared by all Argo data sources:
// the labeled Dataset, the tabular Frame, and the space/time Box.
package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// PointDim is the dimension along which all measurement points are indexed.
// Every per-point coordinate and variable carries this dimension.
const PointDim = "N_POINTS"

// Variable is a labeled one-dimensional array of values. A variable holds
// either numeric values (Values) or string values (Text), never both.
type Variable struct {
	Name   string            `json:"name"`
	Dims   []string          `json:"dims"`
	Values []float64         `json:"values,omitempty"`
	Text   []string          `json:"text,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

// IsText reports whether the variable is string-valued.
func (v *Variable) IsText() bool {
	return v.Text != nil
}

// Len returns the number of elements in the variable.
func (v *Variable) Len() int {
	if v.IsText() {
		return len(v.Text)
	}
	return len(v.Values)
}

// Dataset is an in-memory labeled array: named coordinates and data
// variables over named dimensions, plus free-form attributes. It is the
// Go counterpart of the multi-dimensional dataset the fetchers return.
type Dataset struct {
	Dims   map[string]int       `json:"dims"`
	Coords map[string]*Variable `json:"coords"`
	Vars   map[string]*Variable `json:"vars"`
	Attrs  map[string]string    `json:"attrs,omitempty"`
}

// NewDataset creates an empty dataset with n points.
func NewDataset(n int) *Dataset {
	return &Dataset{
		Dims:   map[string]int{PointDim: n},
		Coords: make(map[string]*Variable),
		Vars:   make(map[string]*Variable),
		Attrs:  make(map[string]string),
	}
}

// Len returns the number of measurement points.
func (ds *Dataset) Len() int {
	return ds.Dims[PointDim]
}

// AddCoord attaches a coordinate variable along the point dimension.
func (ds *Dataset) AddCoord(v *Variable) {
	if len(v.Dims) == 0 {
		v.Dims = []string{PointDim}
	}
	ds.Coords[v.Name] = v
}

// AddVar attaches a data variable along the point dimension.
func (ds *Dataset) AddVar(v *Variable) {
	if len(v.Dims) == 0 {
		v.Dims = []string{PointDim}
	}
	ds.Vars[v.Name] = v
}

// Var looks up a data variable by name.
func (ds *Dataset) Var(name string) (*Variable, bool) {
	v, ok := ds.Vars[name]
	return v, ok
}

// VarNames returns the data variable names in sorted order.
func (ds *Dataset) VarNames() []string {
	names := make([]string, 0, len(ds.Vars))
	for name := range ds.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CoordNames returns the coordinate names in sorted order.
func (ds *Dataset) CoordNames() []string {
	names := make([]string, 0, len(ds.Coords))
	for name := range ds.Coords {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DropVar removes a data variable. Removing an absent variable is a no-op.
func (ds *Dataset) DropVar(name string) {
	delete(ds.Vars, name)
}

// Validate checks that every coordinate and variable along the point
// dimension has exactly one value per point.
func (ds *Dataset) Validate() error {
	n, ok := ds.Dims[PointDim]
	if !ok {
		return fmt.Errorf("dataset has no %s dimension", PointDim)
	}
	check := func(kind string, v *Variable) error {
		for _, d := range v.Dims {
			if d == PointDim && v.Len() != n {
				return fmt.Errorf("%s %s has %d values, expected %d", kind, v.Name, v.Len(), n)
			}
		}
		return nil
	}
	for _, v := range ds.Coords {
		if err := check("coordinate", v); err != nil {
			return err
		}
	}
	for _, v := range ds.Vars {
		if err := check("variable", v); err != nil {
			return err
		}
	}
	return nil
}

// Select returns a new dataset restricted to the points where keep is true.
// Coordinates, variables and attributes are copied; variables not indexed
// by the point dimension are carried over unchanged.
func (ds *Dataset) Select(keep []bool) (*Dataset, error) {
	if len(keep) != ds.Len() {
		return nil, fmt.Errorf("selection mask has %d entries, dataset has %d points", len(keep), ds.Len())
	}
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	out := NewDataset(n)
	for k, val := range ds.Attrs {
		out.Attrs[k] = val
	}
	for name, v := range ds.Coords {
		out.Coords[name] = selectVar(v, keep, n)
	}
	for name, v := range ds.Vars {
		out.Vars[name] = selectVar(v, keep, n)
	}
	return out, nil
}

func selectVar(v *Variable, keep []bool, n int) *Variable {
	onPoints := false
	for _, d := range v.Dims {
		if d == PointDim {
			onPoints = true
		}
	}
	out := &Variable{Name: v.Name, Dims: v.Dims, Attrs: v.Attrs}
	if !onPoints {
		out.Values = v.Values
		out.Text = v.Text
		return out
	}
	if v.IsText() {
		out.Text = make([]string, 0, n)
		for i, k := range keep {
			if k {
				out.Text = append(out.Text, v.Text[i])
			}
		}
		return out
	}
	out.Values = make([]float64, 0, n)
	for i, k := range keep {
		if k {
			out.Values = append(out.Values, v.Values[i])
		}
	}
	return out
}

// ToFrame converts the dataset to a tabular frame with one row per point.
// Coordinate columns come first, then data variables, both in sorted order.
// NaN values render as empty cells.
func (ds *Dataset) ToFrame() (*Frame, error) {
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("cannot convert dataset to frame: %w", err)
	}
	cols := append(ds.CoordNames(), ds.VarNames()...)
	frame := NewFrame(cols)
	vars := make([]*Variable, 0, len(cols))
	for _, name := range ds.CoordNames() {
		vars = append(vars, ds.Coords[name])
	}
	for _, name := range ds.VarNames() {
		vars = append(vars, ds.Vars[name])
	}
	for i := 0; i < ds.Len(); i++ {
		row := make([]string, len(vars))
		for j, v := range vars {
			row[j] = cellString(v, i)
		}
		frame.AppendRow(row)
	}
	return frame, nil
}

func cellString(v *Variable, i int) string {
	if v.IsText() {
		return v.Text[i]
	}
	val := v.Values[i]
	if math.IsNaN(val) {
		return ""
	}
	return strconv.FormatFloat(val, 'g', -1, 64)
}
