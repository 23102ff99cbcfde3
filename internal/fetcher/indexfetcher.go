package fetcher

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jtomfarrar/argopy/internal/adapter/source"
	"github.com/jtomfarrar/argopy/internal/domain"
	"github.com/jtomfarrar/argopy/internal/plot"
)

// Plot types accepted by IndexFetcher.Plot.
const (
	PlotTrajectory   = "trajectory"
	PlotDAC          = "dac"
	PlotProfilerType = "profiler"
)

// plotFunc renders an index frame as a chart.
type plotFunc func(*domain.Frame) (plot.Renderer, error)

// IndexFetcher is the facade for metadata-only index queries. It mirrors
// DataFetcher over the same source family but exposes only the float and
// region access points and applies no mode-based post-processing.
type IndexFetcher struct {
	opts   Options
	src    source.Source
	points map[AccessPoint]bool

	fetcher  source.IndexFetcher
	plotters map[string]plotFunc
}

// NewIndexFetcher builds an index facade from a registry and options.
// The dataset option is ignored: index queries are dataset-independent.
func NewIndexFetcher(reg *Registry, opts Options) (*IndexFetcher, error) {
	opts, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	src, ok := reg.Lookup(opts.Source)
	if !ok {
		return nil, &OptionError{Name: "source", Value: opts.Source, Valid: reg.Names()}
	}
	return &IndexFetcher{
		opts:   opts,
		src:    src,
		points: accessPointsFor(src, true),
		plotters: map[string]plotFunc{
			PlotTrajectory:   func(idx *domain.Frame) (plot.Renderer, error) { return plot.Trajectory(idx) },
			PlotDAC:          func(idx *domain.Frame) (plot.Renderer, error) { return plot.DAC(idx) },
			PlotProfilerType: func(idx *domain.Frame) (plot.Renderer, error) { return plot.ProfilerType(idx) },
		},
	}, nil
}

// Float binds the facade to the index of one or more floats.
func (f *IndexFetcher) Float(wmo []int) (*IndexFetcher, error) {
	if !f.points[PointFloat] {
		return nil, &AccessPointError{Point: PointFloat, Source: f.src.Name(), Available: sortedPoints(f.points)}
	}
	fetcher, err := f.src.OpenIndexWMO(f.opts.sourceOptions(), wmo)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", f.src.Name(), err)
	}
	f.fetcher = fetcher
	return f, nil
}

// Region binds the facade to the index of a space/time box.
func (f *IndexFetcher) Region(box domain.Box) (*IndexFetcher, error) {
	if !f.points[PointRegion] {
		return nil, &AccessPointError{Point: PointRegion, Source: f.src.Name(), Available: sortedPoints(f.points)}
	}
	if err := box.Validate(); err != nil {
		return nil, fmt.Errorf("invalid region: %w", err)
	}
	fetcher, err := f.src.OpenIndexBox(f.opts.sourceOptions(), box)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", f.src.Name(), err)
	}
	f.fetcher = fetcher
	return f, nil
}

// ToFrame fetches the index and returns it as a tabular frame.
func (f *IndexFetcher) ToFrame(ctx context.Context) (*domain.Frame, error) {
	if f.fetcher == nil {
		return nil, &NotInitializedError{Available: sortedPoints(f.points)}
	}
	return f.fetcher.ToFrame(ctx)
}

// ToDataset fetches the index and returns it as a labeled dataset.
func (f *IndexFetcher) ToDataset(ctx context.Context) (*domain.Dataset, error) {
	if f.fetcher == nil {
		return nil, &NotInitializedError{Available: sortedPoints(f.points)}
	}
	return f.fetcher.ToDataset(ctx)
}

// ToCSV fetches the index and writes it as CSV.
func (f *IndexFetcher) ToCSV(ctx context.Context, w io.Writer) error {
	frame, err := f.ToFrame(ctx)
	if err != nil {
		return err
	}
	return frame.WriteCSV(w)
}

// Plot fetches the index and renders it as the requested chart type:
// "trajectory" (positions, sorted by file), "dac" (entries per data
// centre) or "profiler" (entries per profiler type).
func (f *IndexFetcher) Plot(ctx context.Context, ptype string) (plot.Renderer, error) {
	render, ok := f.plotters[ptype]
	if !ok {
		return nil, &OptionError{Name: "plot type", Value: ptype, Valid: f.plotTypes()}
	}
	idx, err := f.ToFrame(ctx)
	if err != nil {
		return nil, err
	}
	if ptype == PlotTrajectory {
		if err := idx.SortBy("file"); err != nil {
			return nil, err
		}
	}
	return render(idx)
}

func (f *IndexFetcher) plotTypes() []string {
	types := make([]string, 0, len(f.plotters))
	for t := range f.plotters {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Options returns the resolved facade options.
func (f *IndexFetcher) Options() Options {
	return f.opts
}

// String summarizes the facade state.
func (f *IndexFetcher) String() string {
	var sb strings.Builder
	if f.fetcher != nil {
		if s, ok := f.fetcher.(fmt.Stringer); ok {
			sb.WriteString(s.String())
		} else {
			sb.WriteString("<indexfetcher>")
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("<indexfetcher 'not initialized'>\n")
		sb.WriteString(fmt.Sprintf("Access points: %s\n", joinPoints(sortedPoints(f.points))))
	}
	sb.WriteString(fmt.Sprintf("Backend: %s\n", f.src.Name()))
	sb.WriteString(fmt.Sprintf("User mode: %s", f.opts.Mode))
	return sb.String()
}
