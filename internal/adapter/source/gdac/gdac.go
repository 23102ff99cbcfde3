// Package gdac fetches Argo data from a local mirror of a GDAC node: a
// directory tree holding the global profile index and per-float NetCDF
// profile files under dac/<centre>/<wmo>/<wmo>_prof.nc.
package gdac

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jtomfarrar/argopy/internal/adapter/source"
	"github.com/jtomfarrar/argopy/internal/domain"
)

// juldEpoch is the reference time of the JULD variable (days since
// 1950-01-01 UTC).
var juldEpoch = time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)

// Source fetches from one local GDAC mirror.
type Source struct {
	root string
}

// New creates a GDAC source rooted at a mirror directory.
func New(root string) *Source {
	return &Source{root: root}
}

// Name implements source.Source.
func (s *Source) Name() string { return "gdac" }

// Capabilities implements source.Source.
func (s *Source) Capabilities() []source.Capability {
	return []source.Capability{source.CapWMO, source.CapBox}
}

// DatasetIDs implements source.Source. A core-file mirror serves the
// physical dataset only.
func (s *Source) DatasetIDs() []string { return []string{"phy"} }

func (s *Source) checkDataset(dataset string) error {
	if dataset != "phy" {
		return fmt.Errorf("gdac mirror only serves the phy dataset, not %q", dataset)
	}
	return nil
}

// OpenWMO implements source.Source.
func (s *Source) OpenWMO(opts source.Options, wmo []int, cyc []int) (source.Fetcher, error) {
	if err := s.checkDataset(opts.Dataset); err != nil {
		return nil, err
	}
	if len(wmo) == 0 {
		return nil, fmt.Errorf("at least one WMO number is required")
	}
	return &Fetcher{src: s, opts: opts, wmo: wmo, cyc: cyc}, nil
}

// OpenBox implements source.Source.
func (s *Source) OpenBox(opts source.Options, box domain.Box) (source.Fetcher, error) {
	if err := s.checkDataset(opts.Dataset); err != nil {
		return nil, err
	}
	return &Fetcher{src: s, opts: opts, box: &box}, nil
}

// OpenIndexWMO implements source.Source.
func (s *Source) OpenIndexWMO(opts source.Options, wmo []int) (source.IndexFetcher, error) {
	if len(wmo) == 0 {
		return nil, fmt.Errorf("at least one WMO number is required")
	}
	return &IndexFetcher{src: s, wmo: wmo}, nil
}

// OpenIndexBox implements source.Source.
func (s *Source) OpenIndexBox(opts source.Options, box domain.Box) (source.IndexFetcher, error) {
	return &IndexFetcher{src: s, box: &box}, nil
}

// profileFile locates the multi-profile NetCDF file of a float in the
// mirror, whatever data centre it belongs to.
func (s *Source) profileFile(wmo int) (string, error) {
	pattern := filepath.Join(s.root, "dac", "*", strconv.Itoa(wmo), fmt.Sprintf("%d_prof.nc", wmo))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("failed to scan mirror for float %d: %w", wmo, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("float %d not found in mirror %s", wmo, s.root)
	}
	return matches[0], nil
}

// Fetcher retrieves measurement data for one bound query.
type Fetcher struct {
	src  *Source
	opts source.Options
	wmo  []int
	cyc  []int
	box  *domain.Box
}

// ToDataset implements source.Fetcher: it reads the relevant profile
// files and flattens them to one point per (profile, level) sample.
func (f *Fetcher) ToDataset(ctx context.Context) (*domain.Dataset, error) {
	wmos := f.wmo
	if f.box != nil {
		var err error
		wmos, err = floatsInBox(f.src.root, *f.box)
		if err != nil {
			return nil, err
		}
	}

	points := newPointBuffer()
	for _, wmo := range wmos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, err := f.src.profileFile(wmo)
		if err != nil {
			return nil, err
		}
		if err := appendProfileFile(points, path, wmo, f.cyc, f.box); err != nil {
			return nil, fmt.Errorf("float %d: %w", wmo, err)
		}
	}

	ds := points.dataset()
	ds.Attrs["source"] = f.src.Name()
	ds.Attrs["dataset"] = f.opts.Dataset
	return ds, nil
}

// FilterDataMode implements source.Fetcher.
func (f *Fetcher) FilterDataMode(ds *domain.Dataset) (*domain.Dataset, error) {
	return domain.FilterDataMode(ds)
}

// FilterQC implements source.Fetcher.
func (f *Fetcher) FilterQC(ds *domain.Dataset) (*domain.Dataset, error) {
	return domain.FilterQC(ds)
}

// FilterVariables implements source.Fetcher.
func (f *Fetcher) FilterVariables(ds *domain.Dataset, mode string) (*domain.Dataset, error) {
	return domain.FilterVariables(ds, mode)
}

// String describes the bound query.
func (f *Fetcher) String() string {
	if f.box != nil {
		return fmt.Sprintf("<datafetcher.gdac>\nDataset: %s\nDomain: %s", f.opts.Dataset, f.box)
	}
	return fmt.Sprintf("<datafetcher.gdac>\nDataset: %s\nFloats: %v", f.opts.Dataset, f.wmo)
}

// floatsInBox scans the mirror index for floats with at least one profile
// inside the box.
func floatsInBox(root string, box domain.Box) ([]int, error) {
	entries, err := readIndexFile(indexPath(root))
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool)
	var wmos []int
	for _, e := range entries {
		if !e.hasPosition || !box.Contains(e.lat, e.lon) || !box.ContainsTime(e.date) {
			continue
		}
		wmo, ok := e.wmo()
		if !ok || seen[wmo] {
			continue
		}
		seen[wmo] = true
		wmos = append(wmos, wmo)
	}
	return wmos, nil
}

// pointBuffer accumulates flattened per-point samples across profile files.
type pointBuffer struct {
	platform, cycle, lat, lon, pres, temp, psal []float64
	presAdj, tempAdj, psalAdj                   []float64
	timeText, mode                              []string
	presQC, tempQC, psalQC, posQC               []string
}

func newPointBuffer() *pointBuffer { return &pointBuffer{} }

func (b *pointBuffer) dataset() *domain.Dataset {
	ds := domain.NewDataset(len(b.pres))
	ds.AddCoord(&domain.Variable{Name: "TIME", Text: b.timeText})
	ds.AddCoord(&domain.Variable{Name: "LATITUDE", Values: b.lat})
	ds.AddCoord(&domain.Variable{Name: "LONGITUDE", Values: b.lon})
	ds.AddVar(&domain.Variable{Name: "PLATFORM_NUMBER", Values: b.platform})
	ds.AddVar(&domain.Variable{Name: "CYCLE_NUMBER", Values: b.cycle})
	ds.AddVar(&domain.Variable{Name: domain.DataModeVar, Text: b.mode})
	ds.AddVar(&domain.Variable{Name: "POSITION_QC", Text: b.posQC})
	ds.AddVar(&domain.Variable{Name: "PRES", Values: b.pres})
	ds.AddVar(&domain.Variable{Name: "PRES_QC", Text: b.presQC})
	ds.AddVar(&domain.Variable{Name: "PRES_ADJUSTED", Values: b.presAdj})
	ds.AddVar(&domain.Variable{Name: "TEMP", Values: b.temp})
	ds.AddVar(&domain.Variable{Name: "TEMP_QC", Text: b.tempQC})
	ds.AddVar(&domain.Variable{Name: "TEMP_ADJUSTED", Values: b.tempAdj})
	ds.AddVar(&domain.Variable{Name: "PSAL", Values: b.psal})
	ds.AddVar(&domain.Variable{Name: "PSAL_QC", Text: b.psalQC})
	ds.AddVar(&domain.Variable{Name: "PSAL_ADJUSTED", Values: b.psalAdj})
	return ds
}

// appendProfileFile reads one multi-profile file and appends every sample
// matching the cycle list and box to the buffer.
func appendProfileFile(b *pointBuffer, path string, wmo int, cyc []int, box *domain.Box) error {
	pf, err := readProfileFile(path)
	if err != nil {
		return err
	}

	wantCycle := make(map[int]bool, len(cyc))
	for _, c := range cyc {
		wantCycle[c] = true
	}

	for p := 0; p < pf.nProf; p++ {
		if len(cyc) > 0 && !wantCycle[int(pf.cycle[p])] {
			continue
		}
		sampleTime := juldEpoch.Add(time.Duration(pf.juld[p] * 24 * float64(time.Hour)))
		if box != nil {
			if !box.Contains(pf.lat[p], pf.lon[p]) || !box.ContainsTime(sampleTime) {
				continue
			}
		}
		for l := 0; l < pf.nLevels; l++ {
			i := p*pf.nLevels + l
			if math.IsNaN(pf.pres[i]) {
				continue
			}
			if box != nil && !box.ContainsPres(pf.pres[i]) {
				continue
			}
			b.platform = append(b.platform, float64(wmo))
			b.cycle = append(b.cycle, pf.cycle[p])
			b.lat = append(b.lat, pf.lat[p])
			b.lon = append(b.lon, pf.lon[p])
			b.timeText = append(b.timeText, sampleTime.UTC().Format(time.RFC3339))
			b.mode = append(b.mode, pf.mode[p])
			b.posQC = append(b.posQC, pf.posQC[p])
			b.pres = append(b.pres, pf.pres[i])
			b.presQC = append(b.presQC, pf.presQC[i])
			b.presAdj = append(b.presAdj, pf.presAdj[i])
			b.temp = append(b.temp, pf.temp[i])
			b.tempQC = append(b.tempQC, pf.tempQC[i])
			b.tempAdj = append(b.tempAdj, pf.tempAdj[i])
			b.psal = append(b.psal, pf.psal[i])
			b.psalQC = append(b.psalQC, pf.psalQC[i])
			b.psalAdj = append(b.psalAdj, pf.psalAdj[i])
		}
	}
	return nil
}
