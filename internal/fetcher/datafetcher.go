package fetcher

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jtomfarrar/argopy/internal/adapter/source"
	"github.com/jtomfarrar/argopy/internal/domain"
)

// AccessPoint names one of the query shapes the facades expose.
type AccessPoint string

const (
	PointFloat   AccessPoint = "float"
	PointProfile AccessPoint = "profile"
	PointRegion  AccessPoint = "region"
)

// fetchRequest collects the optional parameters of an access-point call.
type fetchRequest struct {
	cycles []int
}

// FetchOption tunes an access-point call.
type FetchOption func(*fetchRequest)

// WithCycles restricts a query to specific cycle numbers. Only the
// profile access point accepts it.
func WithCycles(cyc ...int) FetchOption {
	return func(r *fetchRequest) {
		r.cycles = append(r.cycles, cyc...)
	}
}

// postProcessor transforms a fetched dataset before it is returned.
type postProcessor func(*domain.Dataset) (*domain.Dataset, error)

func identityProcessor(ds *domain.Dataset) (*domain.Dataset, error) {
	return ds, nil
}

// DataFetcher is the facade for loading Argo measurement data. It holds
// the validated options, the selected source and the access points that
// source declares; one access-point call binds a fetcher, after which the
// terminal methods retrieve and post-process data.
//
// Data can be selected from one or more floats (by WMO), from profiles
// (one WMO plus cycle numbers), or from a space/time box.
type DataFetcher struct {
	opts   Options
	src    source.Source
	points map[AccessPoint]bool

	fetcher source.Fetcher
	post    postProcessor

	// bgcCaveat records that the bgc dataset was requested in standard
	// mode, which is not reliable yet.
	bgcCaveat bool
}

// NewDataFetcher builds a data facade from a registry and options.
// Unset options resolve from DefaultOptions; invalid modes, datasets and
// unregistered source names fail immediately.
func NewDataFetcher(reg *Registry, opts Options) (*DataFetcher, error) {
	opts, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	src, ok := reg.Lookup(opts.Source)
	if !ok {
		return nil, &OptionError{Name: "source", Value: opts.Source, Valid: reg.Names()}
	}
	f := &DataFetcher{
		opts:      opts,
		src:       src,
		points:    accessPointsFor(src, false),
		post:      identityProcessor,
		bgcCaveat: opts.Dataset == DatasetBGC && opts.Mode == ModeStandard,
	}
	return f, nil
}

// accessPointsFor maps a source's capability set to facade access points.
// The facade access-point names differ from the capability tags: "wmo"
// carries both float and profile, "box" carries region. Index facades do
// not expose profile.
func accessPointsFor(src source.Source, index bool) map[AccessPoint]bool {
	points := make(map[AccessPoint]bool)
	for _, c := range src.Capabilities() {
		switch c {
		case source.CapWMO:
			points[PointFloat] = true
			if !index {
				points[PointProfile] = true
			}
		case source.CapBox:
			points[PointRegion] = true
		}
	}
	return points
}

func sortedPoints(points map[AccessPoint]bool) []AccessPoint {
	out := make([]AccessPoint, 0, len(points))
	for p := range points {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Float binds the facade to one or more floats identified by WMO number.
// Passing WithCycles is rejected with a redirect to Profile.
func (f *DataFetcher) Float(wmo []int, opts ...FetchOption) (*DataFetcher, error) {
	var req fetchRequest
	for _, opt := range opts {
		opt(&req)
	}
	if len(req.cycles) > 0 {
		return nil, ErrCyclesWithFloat
	}
	if !f.points[PointFloat] {
		return nil, &AccessPointError{Point: PointFloat, Source: f.src.Name(), Available: sortedPoints(f.points)}
	}
	fetcher, err := f.src.OpenWMO(f.opts.sourceOptions(), wmo, nil)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", f.src.Name(), err)
	}
	f.bind(fetcher)
	return f, nil
}

// Profile binds the facade to specific profiles of one float, identified
// by a WMO number and one or more cycle numbers.
func (f *DataFetcher) Profile(wmo int, cyc []int) (*DataFetcher, error) {
	if !f.points[PointProfile] {
		return nil, &AccessPointError{Point: PointProfile, Source: f.src.Name(), Available: sortedPoints(f.points)}
	}
	fetcher, err := f.src.OpenWMO(f.opts.sourceOptions(), []int{wmo}, cyc)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", f.src.Name(), err)
	}
	f.bind(fetcher)
	return f, nil
}

// Region binds the facade to a space/time box.
func (f *DataFetcher) Region(box domain.Box) (*DataFetcher, error) {
	if !f.points[PointRegion] {
		return nil, &AccessPointError{Point: PointRegion, Source: f.src.Name(), Available: sortedPoints(f.points)}
	}
	if err := box.Validate(); err != nil {
		return nil, fmt.Errorf("invalid region: %w", err)
	}
	fetcher, err := f.src.OpenBox(f.opts.sourceOptions(), box)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", f.src.Name(), err)
	}
	f.bind(fetcher)
	return f, nil
}

// bind installs a fresh fetcher, replacing any previous binding, and
// composes the standard-mode post-processing chain when it applies: the
// data-mode filter, then the QC filter, then the variable filter. The
// reference dataset carries no QC or data-mode variables, so it is never
// post-processed.
func (f *DataFetcher) bind(fetcher source.Fetcher) {
	f.fetcher = fetcher
	f.post = identityProcessor
	if f.opts.Mode != ModeStandard || f.opts.Dataset == DatasetRef {
		return
	}
	f.post = func(ds *domain.Dataset) (*domain.Dataset, error) {
		ds, err := fetcher.FilterDataMode(ds)
		if err != nil {
			return nil, fmt.Errorf("data-mode filter: %w", err)
		}
		ds, err = fetcher.FilterQC(ds)
		if err != nil {
			return nil, fmt.Errorf("qc filter: %w", err)
		}
		ds, err = fetcher.FilterVariables(ds, f.opts.Mode)
		if err != nil {
			return nil, fmt.Errorf("variable filter: %w", err)
		}
		return ds, nil
	}
}

// ToDataset fetches and returns the data as a labeled dataset, applying
// the post-processing chain. It fails if no access point was bound.
func (f *DataFetcher) ToDataset(ctx context.Context) (*domain.Dataset, error) {
	if f.fetcher == nil {
		return nil, &NotInitializedError{Available: sortedPoints(f.points)}
	}
	ds, err := f.fetcher.ToDataset(ctx)
	if err != nil {
		return nil, err
	}
	return f.post(ds)
}

// ToFrame fetches via ToDataset and converts the result to a tabular frame.
func (f *DataFetcher) ToFrame(ctx context.Context) (*domain.Frame, error) {
	ds, err := f.ToDataset(ctx)
	if err != nil {
		return nil, err
	}
	return ds.ToFrame()
}

// Options returns the resolved facade options.
func (f *DataFetcher) Options() Options {
	return f.opts
}

// String summarizes the facade state: the bound fetcher if any, otherwise
// the access points still available.
func (f *DataFetcher) String() string {
	var sb strings.Builder
	if f.fetcher != nil {
		if s, ok := f.fetcher.(fmt.Stringer); ok {
			sb.WriteString(s.String())
		} else {
			sb.WriteString("<datafetcher>")
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("<datafetcher 'not initialized'>\n")
		sb.WriteString(fmt.Sprintf("Access points: %s\n", joinPoints(sortedPoints(f.points))))
	}
	sb.WriteString(fmt.Sprintf("Backend: %s\n", f.src.Name()))
	sb.WriteString(fmt.Sprintf("User mode: %s", f.opts.Mode))
	if f.bgcCaveat {
		sb.WriteString("\nNote: bgc fetching in standard mode is not reliable; switch to expert mode on errors")
	}
	return sb.String()
}
