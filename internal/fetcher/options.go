// Package fetcher provides the high-level facades for loading Argo float
// data and index metadata from any registered source.
package fetcher

import "github.com/jtomfarrar/argopy/internal/adapter/source"

// User modes. Expert mode returns data as the source delivers it;
// standard mode post-processes data fetches with the data-mode, QC and
// variable filters.
const (
	ModeExpert   = "expert"
	ModeStandard = "standard"
)

// Dataset identifiers: the physical dataset (temperature, salinity,
// pressure), the biogeochemical dataset, and the reference dataset used
// in delayed-mode quality control.
const (
	DatasetPhy = "phy"
	DatasetBGC = "bgc"
	DatasetRef = "ref"
)

var (
	validModes    = []string{ModeExpert, ModeStandard}
	validDatasets = []string{DatasetPhy, DatasetBGC, DatasetRef}
)

// Options selects the mode, source and dataset a facade operates on.
// Zero-valued fields are resolved from DefaultOptions at construction.
type Options struct {
	Mode    string
	Source  string
	Dataset string
	// Extra is passed through to the source constructors untouched.
	Extra map[string]string
}

// DefaultOptions returns the default facade options. The value is
// constructed on every call; there is no shared mutable default state.
func DefaultOptions() Options {
	return Options{
		Mode:    ModeExpert,
		Source:  "erddap",
		Dataset: DatasetPhy,
	}
}

// resolve fills zero-valued fields from the defaults and validates every
// field against its vocabulary. Source membership is checked against the
// registry by the facade constructors.
func (o Options) resolve() (Options, error) {
	defaults := DefaultOptions()
	if o.Mode == "" {
		o.Mode = defaults.Mode
	}
	if o.Source == "" {
		o.Source = defaults.Source
	}
	if o.Dataset == "" {
		o.Dataset = defaults.Dataset
	}
	if !contains(validModes, o.Mode) {
		return o, &OptionError{Name: "mode", Value: o.Mode, Valid: validModes}
	}
	if !contains(validDatasets, o.Dataset) {
		return o, &OptionError{Name: "dataset", Value: o.Dataset, Valid: validDatasets}
	}
	return o, nil
}

// sourceOptions converts facade options to the shape source constructors take.
func (o Options) sourceOptions() source.Options {
	return source.Options{
		Dataset: o.Dataset,
		Mode:    o.Mode,
		Extra:   o.Extra,
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
