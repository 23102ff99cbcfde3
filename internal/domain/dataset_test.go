package domain

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleDataset() *Dataset {
	ds := NewDataset(3)
	ds.AddCoord(&Variable{Name: "LATITUDE", Values: []float64{10, 20, 30}})
	ds.AddVar(&Variable{Name: "TEMP", Values: []float64{15.5, 16.5, 17.5}})
	ds.AddVar(&Variable{Name: "DATA_MODE", Text: []string{"R", "A", "D"}})
	return ds
}

// TestDataset_Validate checks length validation along the point dimension.
func TestDataset_Validate(t *testing.T) {
	ds := sampleDataset()
	if err := ds.Validate(); err != nil {
		t.Fatalf("valid dataset rejected: %v", err)
	}

	ds.AddVar(&Variable{Name: "PSAL", Values: []float64{35.1}})
	if err := ds.Validate(); err == nil {
		t.Error("expected validation error for short variable")
	}
}

// TestDataset_Select checks point selection keeps variables aligned.
func TestDataset_Select(t *testing.T) {
	ds := sampleDataset()
	ds.Attrs["source"] = "test"

	out, err := ds.Select([]bool{true, false, true})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 points, got %d", out.Len())
	}

	temp, _ := out.Var("TEMP")
	if diff := cmp.Diff([]float64{15.5, 17.5}, temp.Values); diff != "" {
		t.Errorf("TEMP mismatch (-want +got):\n%s", diff)
	}
	mode, _ := out.Var("DATA_MODE")
	if diff := cmp.Diff([]string{"R", "D"}, mode.Text); diff != "" {
		t.Errorf("DATA_MODE mismatch (-want +got):\n%s", diff)
	}
	if out.Attrs["source"] != "test" {
		t.Error("attributes not carried over")
	}
}

// TestDataset_Select_BadMask checks mask length validation.
func TestDataset_Select_BadMask(t *testing.T) {
	ds := sampleDataset()
	if _, err := ds.Select([]bool{true}); err == nil {
		t.Error("expected error for short selection mask")
	}
}

// TestDataset_ToFrame checks the tabular conversion: coordinates first,
// then variables, both sorted, NaN as empty cells.
func TestDataset_ToFrame(t *testing.T) {
	ds := NewDataset(2)
	ds.AddCoord(&Variable{Name: "LATITUDE", Values: []float64{10, 20}})
	ds.AddVar(&Variable{Name: "TEMP", Values: []float64{15.5, math.NaN()}})
	ds.AddVar(&Variable{Name: "DATA_MODE", Text: []string{"R", "D"}})

	frame, err := ds.ToFrame()
	if err != nil {
		t.Fatalf("ToFrame failed: %v", err)
	}

	wantCols := []string{"LATITUDE", "DATA_MODE", "TEMP"}
	if diff := cmp.Diff(wantCols, frame.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	wantRows := [][]string{
		{"10", "R", "15.5"},
		{"20", "D", ""},
	}
	if diff := cmp.Diff(wantRows, frame.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

// TestDataset_DropVar checks variable removal, including absent names.
func TestDataset_DropVar(t *testing.T) {
	ds := sampleDataset()
	ds.DropVar("TEMP")
	if _, ok := ds.Var("TEMP"); ok {
		t.Error("TEMP still present after DropVar")
	}
	ds.DropVar("NOT_THERE") // must not panic
}
