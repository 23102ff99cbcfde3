package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/jtomfarrar/argopy/internal/domain"
	"github.com/jtomfarrar/argopy/internal/plot"
)

// TestIndexFetcher_NoProfilePoint checks that index facades expose only
// float and region, never profile, regardless of capabilities.
func TestIndexFetcher_NoProfilePoint(t *testing.T) {
	f, err := NewIndexFetcher(NewRegistry(fullStub()), Options{Source: "stub"})
	if err != nil {
		t.Fatalf("NewIndexFetcher failed: %v", err)
	}
	if !f.points[PointFloat] || !f.points[PointRegion] {
		t.Errorf("expected float and region, got %v", sortedPoints(f.points))
	}
	if f.points[PointProfile] {
		t.Error("index facade must not expose the profile access point")
	}
}

// TestIndexFetcher_UnknownSource checks the option error for unregistered
// source names.
func TestIndexFetcher_UnknownSource(t *testing.T) {
	_, err := NewIndexFetcher(NewRegistry(fullStub()), Options{Source: "ftp"})
	var optErr *OptionError
	if !errors.As(err, &optErr) {
		t.Fatalf("expected *OptionError, got %v", err)
	}
	if optErr.Name != "source" {
		t.Errorf("expected source rejected, got %q", optErr.Name)
	}
}

// TestIndexFetcher_TerminalBeforeBind checks the not-initialized error on
// every terminal.
func TestIndexFetcher_TerminalBeforeBind(t *testing.T) {
	f, err := NewIndexFetcher(NewRegistry(fullStub()), Options{Source: "stub"})
	if err != nil {
		t.Fatalf("NewIndexFetcher failed: %v", err)
	}
	ctx := context.Background()
	var initErr *NotInitializedError

	if _, err := f.ToFrame(ctx); !errors.As(err, &initErr) {
		t.Errorf("ToFrame: expected *NotInitializedError, got %v", err)
	}
	if _, err := f.ToDataset(ctx); !errors.As(err, &initErr) {
		t.Errorf("ToDataset: expected *NotInitializedError, got %v", err)
	}
	if err := f.ToCSV(ctx, &bytes.Buffer{}); !errors.As(err, &initErr) {
		t.Errorf("ToCSV: expected *NotInitializedError, got %v", err)
	}
	if _, err := f.Plot(ctx, PlotTrajectory); !errors.As(err, &initErr) {
		t.Errorf("Plot: expected *NotInitializedError, got %v", err)
	}
}

// TestIndexFetcher_ToCSV checks CSV export of a bound index.
func TestIndexFetcher_ToCSV(t *testing.T) {
	f, err := NewIndexFetcher(NewRegistry(fullStub()), Options{Source: "stub"})
	if err != nil {
		t.Fatalf("NewIndexFetcher failed: %v", err)
	}
	if _, err := f.Float([]int{1, 2}); err != nil {
		t.Fatalf("Float failed: %v", err)
	}
	var buf bytes.Buffer
	if err := f.ToCSV(context.Background(), &buf); err != nil {
		t.Fatalf("ToCSV failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "file,") {
		t.Errorf("unexpected header: %q", lines[0])
	}
}

// TestIndexFetcher_PlotUnknownType checks the plot-type vocabulary.
func TestIndexFetcher_PlotUnknownType(t *testing.T) {
	f, err := NewIndexFetcher(NewRegistry(fullStub()), Options{Source: "stub"})
	if err != nil {
		t.Fatalf("NewIndexFetcher failed: %v", err)
	}
	if _, err := f.Float([]int{1}); err != nil {
		t.Fatalf("Float failed: %v", err)
	}
	_, err = f.Plot(context.Background(), "piechart")
	var optErr *OptionError
	if !errors.As(err, &optErr) {
		t.Fatalf("expected *OptionError, got %v", err)
	}
	if optErr.Name != "plot type" {
		t.Errorf("expected plot type rejected, got %q", optErr.Name)
	}
	want := []string{PlotDAC, PlotProfilerType, PlotTrajectory}
	if len(optErr.Valid) != len(want) {
		t.Errorf("valid plot types: got %v, want %v", optErr.Valid, want)
	}
}

// TestIndexFetcher_PlotDispatch checks that each plot type reaches its
// renderer and that trajectory rows arrive sorted by file.
func TestIndexFetcher_PlotDispatch(t *testing.T) {
	f, err := NewIndexFetcher(NewRegistry(fullStub()), Options{Source: "stub"})
	if err != nil {
		t.Fatalf("NewIndexFetcher failed: %v", err)
	}
	if _, err := f.Float([]int{1, 2}); err != nil {
		t.Fatalf("Float failed: %v", err)
	}

	called := make(map[string]*domain.Frame)
	for _, ptype := range []string{PlotTrajectory, PlotDAC, PlotProfilerType} {
		ptype := ptype
		f.plotters[ptype] = func(idx *domain.Frame) (plot.Renderer, error) {
			called[ptype] = idx
			return stubRenderer{}, nil
		}
	}

	ctx := context.Background()
	for _, ptype := range []string{PlotTrajectory, PlotDAC, PlotProfilerType} {
		if _, err := f.Plot(ctx, ptype); err != nil {
			t.Fatalf("Plot(%s) failed: %v", ptype, err)
		}
		if called[ptype] == nil {
			t.Errorf("plotter for %s not invoked", ptype)
		}
	}

	traj := called[PlotTrajectory]
	files, err := traj.Column("file")
	if err != nil {
		t.Fatalf("Column failed: %v", err)
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] > files[i] {
			t.Errorf("trajectory rows not sorted by file: %q > %q", files[i-1], files[i])
		}
	}
}

// TestIndexFetcher_PlotRendersHTML checks the real renderers end to end.
func TestIndexFetcher_PlotRendersHTML(t *testing.T) {
	f, err := NewIndexFetcher(NewRegistry(fullStub()), Options{Source: "stub"})
	if err != nil {
		t.Fatalf("NewIndexFetcher failed: %v", err)
	}
	if _, err := f.Region(testBox(t)); err != nil {
		t.Fatalf("Region failed: %v", err)
	}
	for _, ptype := range []string{PlotTrajectory, PlotDAC, PlotProfilerType} {
		chart, err := f.Plot(context.Background(), ptype)
		if err != nil {
			t.Fatalf("Plot(%s) failed: %v", ptype, err)
		}
		var buf bytes.Buffer
		if err := chart.Render(&buf); err != nil {
			t.Fatalf("Render(%s) failed: %v", ptype, err)
		}
		if !strings.Contains(buf.String(), "echarts") {
			t.Errorf("%s chart output does not look like an echarts page", ptype)
		}
	}
}

// TestIndexFetcher_String checks the summary before and after binding.
func TestIndexFetcher_String(t *testing.T) {
	f, err := NewIndexFetcher(NewRegistry(fullStub()), Options{Source: "stub"})
	if err != nil {
		t.Fatalf("NewIndexFetcher failed: %v", err)
	}
	s := f.String()
	if !strings.Contains(s, "not initialized") || !strings.Contains(s, "Backend: stub") {
		t.Errorf("unexpected unbound summary: %q", s)
	}
	if strings.Contains(s, "profile") {
		t.Errorf("index summary must not offer the profile access point: %q", s)
	}
}

type stubRenderer struct{}

func (stubRenderer) Render(w io.Writer) error { return nil }
