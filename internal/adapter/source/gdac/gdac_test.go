package gdac

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jtomfarrar/argopy/internal/adapter/source"
	"github.com/jtomfarrar/argopy/internal/domain"
)

const testIndex = `# Title : Profile directory file of the Argo GDAC
# Date of update : 20180105120000
file,date,latitude,longitude,ocean,profiler_type,institution,date_update
coriolis/6902746/profiles/R6902746_001.nc,20180101000000,44.5,-30.2,A,844,IF,20180102000000
coriolis/6902746/profiles/R6902746_002.nc,20180111000000,44.8,-30.5,A,844,IF,20180112000000
aoml/1901393/profiles/R1901393_003.nc,20170601000000,-12.2,-110.9,P,846,AO,20170602000000
aoml/1901393/profiles/R1901393_004.nc,,,,P,846,AO,20170702000000
`

// mirrorDir writes a minimal mirror holding only the profile index.
func mirrorDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, indexFileName), []byte(testIndex), 0o644); err != nil {
		t.Fatalf("failed to write index: %v", err)
	}
	return dir
}

// TestReadIndexFile checks comment handling, header validation and row
// parsing, including rows without a position.
func TestReadIndexFile(t *testing.T) {
	entries, err := readIndexFile(indexPath(mirrorDir(t)))
	if err != nil {
		t.Fatalf("readIndexFile failed: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	e := entries[0]
	if e.file != "coriolis/6902746/profiles/R6902746_001.nc" {
		t.Errorf("unexpected file: %s", e.file)
	}
	if !e.hasPosition || e.lat != 44.5 || e.lon != -30.2 {
		t.Errorf("position not parsed: %+v", e)
	}
	wmo, ok := e.wmo()
	if !ok || wmo != 6902746 {
		t.Errorf("wmo: got %d %v", wmo, ok)
	}
	if e.date.Year() != 2018 || e.date.Month() != 1 {
		t.Errorf("date not parsed: %v", e.date)
	}

	if entries[3].hasPosition {
		t.Error("entry without coordinates should have no position")
	}
}

// TestReadIndexFile_BadHeader checks rejection of non-index files.
func TestReadIndexFile_BadHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, indexFileName)
	if err := os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := readIndexFile(path); err == nil {
		t.Error("expected error for unexpected header")
	}
	if _, err := readIndexFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

// TestFloatsInBox checks the index scan behind region data queries.
func TestFloatsInBox(t *testing.T) {
	root := mirrorDir(t)

	box, err := domain.ParseBox("-40,-20,40,50,0,2000")
	if err != nil {
		t.Fatalf("ParseBox failed: %v", err)
	}
	wmos, err := floatsInBox(root, box)
	if err != nil {
		t.Fatalf("floatsInBox failed: %v", err)
	}
	if diff := cmp.Diff([]int{6902746}, wmos); diff != "" {
		t.Errorf("wmos mismatch (-want +got):\n%s", diff)
	}

	// Date range excluding both profiles of the float.
	box, err = domain.ParseBox("-40,-20,40,50,0,2000,2019-01,2019-02")
	if err != nil {
		t.Fatalf("ParseBox failed: %v", err)
	}
	wmos, err = floatsInBox(root, box)
	if err != nil {
		t.Fatalf("floatsInBox failed: %v", err)
	}
	if len(wmos) != 0 {
		t.Errorf("expected no floats, got %v", wmos)
	}
}

// TestIndexFetcher_ToFrame_WMO checks index filtering by float.
func TestIndexFetcher_ToFrame_WMO(t *testing.T) {
	s := New(mirrorDir(t))
	f, err := s.OpenIndexWMO(source.Options{}, []int{1901393})
	if err != nil {
		t.Fatalf("OpenIndexWMO failed: %v", err)
	}
	frame, err := f.ToFrame(context.Background())
	if err != nil {
		t.Fatalf("ToFrame failed: %v", err)
	}
	if frame.NRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", frame.NRows())
	}
	files, _ := frame.Column("file")
	for _, file := range files {
		if !strings.HasPrefix(file, "aoml/1901393") {
			t.Errorf("row from wrong float: %s", file)
		}
	}
}

// TestIndexFetcher_ToFrame_Box checks index filtering by region; rows
// without a position are dropped.
func TestIndexFetcher_ToFrame_Box(t *testing.T) {
	s := New(mirrorDir(t))
	box, err := domain.ParseBox("-120,-100,-20,0,0,2000")
	if err != nil {
		t.Fatalf("ParseBox failed: %v", err)
	}
	f, err := s.OpenIndexBox(source.Options{}, box)
	if err != nil {
		t.Fatalf("OpenIndexBox failed: %v", err)
	}
	frame, err := f.ToFrame(context.Background())
	if err != nil {
		t.Fatalf("ToFrame failed: %v", err)
	}
	if frame.NRows() != 1 {
		t.Fatalf("expected 1 row, got %d", frame.NRows())
	}
	insts, _ := frame.Column("institution")
	if insts[0] != "AO" {
		t.Errorf("unexpected row: %v", frame.Rows[0])
	}
}

// TestSource_DatasetValidation checks that a core-file mirror rejects
// everything but the phy dataset.
func TestSource_DatasetValidation(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.OpenWMO(source.Options{Dataset: "bgc"}, []int{1}, nil); err == nil {
		t.Error("expected error for bgc dataset")
	}
	if _, err := s.OpenBox(source.Options{Dataset: "ref"}, domain.Box{LonMin: 0, LonMax: 1, LatMin: 0, LatMax: 1, PresMin: 0, PresMax: 1}); err == nil {
		t.Error("expected error for ref dataset")
	}
	if _, err := s.OpenWMO(source.Options{Dataset: "phy"}, nil, nil); err == nil {
		t.Error("expected error for empty WMO list")
	}
}

// TestFetcher_MissingFloat checks the lookup error for floats absent from
// the mirror.
func TestFetcher_MissingFloat(t *testing.T) {
	s := New(t.TempDir())
	f, err := s.OpenWMO(source.Options{Dataset: "phy"}, []int{6902746}, nil)
	if err != nil {
		t.Fatalf("OpenWMO failed: %v", err)
	}
	if _, err := f.ToDataset(context.Background()); err == nil {
		t.Error("expected error for float missing from mirror")
	}
}
