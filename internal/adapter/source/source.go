// Package source defines the contracts every Argo data source implements:
// a capability declaration plus constructors for data and index fetchers.
package source

import (
	"context"

	"github.com/jtomfarrar/argopy/internal/domain"
)

// Capability tags a query shape a source supports.
type Capability string

const (
	// CapWMO marks support for float-identifier queries, required for the
	// float and profile access points.
	CapWMO Capability = "wmo"
	// CapBox marks support for space/time box queries, required for the
	// region access point.
	CapBox Capability = "box"
)

// Options carries the facade options down to a source constructor.
type Options struct {
	// Dataset identifies the dataset to fetch ("phy", "bgc" or "ref").
	Dataset string
	// Mode is the user mode the facade was built with.
	Mode string
	// Extra holds free-form source-specific options.
	Extra map[string]string
}

// Fetcher retrieves measurement data and exposes the post-processing
// filters the facade composes in standard mode.
type Fetcher interface {
	ToDataset(ctx context.Context) (*domain.Dataset, error)
	FilterDataMode(ds *domain.Dataset) (*domain.Dataset, error)
	FilterQC(ds *domain.Dataset) (*domain.Dataset, error)
	FilterVariables(ds *domain.Dataset, mode string) (*domain.Dataset, error)
}

// IndexFetcher retrieves metadata-only index entries.
type IndexFetcher interface {
	ToFrame(ctx context.Context) (*domain.Frame, error)
	ToDataset(ctx context.Context) (*domain.Dataset, error)
}

// Source is one backend data source. Capabilities declares which query
// shapes the source supports; the facade only exposes access points whose
// capability is present. Constructors return an error for options the
// source cannot serve (e.g. an unsupported dataset identifier).
type Source interface {
	Name() string
	Capabilities() []Capability
	// DatasetIDs lists supported dataset identifiers; the first is the default.
	DatasetIDs() []string

	OpenWMO(opts Options, wmo []int, cyc []int) (Fetcher, error)
	OpenBox(opts Options, box domain.Box) (Fetcher, error)
	OpenIndexWMO(opts Options, wmo []int) (IndexFetcher, error)
	OpenIndexBox(opts Options, box domain.Box) (IndexFetcher, error)
}

// Supports reports whether a source declares a capability.
func Supports(s Source, c Capability) bool {
	for _, have := range s.Capabilities() {
		if have == c {
			return true
		}
	}
	return false
}
