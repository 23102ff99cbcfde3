// Package erddap fetches Argo data from an ERDDAP tabular-data server
// (e.g. the Ifremer node) using tabledap CSV queries.
package erddap

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jtomfarrar/argopy/internal/adapter/source"
	"github.com/jtomfarrar/argopy/internal/domain"
)

// DefaultBaseURL is the Ifremer ERDDAP node.
const DefaultBaseURL = "https://erddap.ifremer.fr/erddap"

// Tabledap dataset identifiers on the server, per facade dataset id.
var datasetTables = map[string]string{
	"phy": "ArgoFloats",
	"bgc": "ArgoFloats-bio",
	"ref": "ArgoFloats-ref",
}

// indexTable carries the global profile index (file, date, position,
// ocean, profiler type, institution).
const indexTable = "ArgoFloats-index"

// Variables requested per dataset. QC flags and adjusted fields ride
// along so the standard-mode filters have something to work with; the
// reference dataset carries neither.
var datasetVariables = map[string][]string{
	"phy": {
		"platform_number", "cycle_number", "data_mode",
		"time", "latitude", "longitude", "position_qc",
		"pres", "pres_qc", "pres_adjusted", "pres_adjusted_qc",
		"temp", "temp_qc", "temp_adjusted", "temp_adjusted_qc",
		"psal", "psal_qc", "psal_adjusted", "psal_adjusted_qc",
	},
	"bgc": {
		"platform_number", "cycle_number", "data_mode",
		"time", "latitude", "longitude", "position_qc",
		"pres", "pres_qc", "pres_adjusted", "pres_adjusted_qc",
		"temp", "temp_qc", "temp_adjusted", "temp_adjusted_qc",
		"psal", "psal_qc", "psal_adjusted", "psal_adjusted_qc",
		"doxy", "doxy_qc", "doxy_adjusted", "doxy_adjusted_qc",
	},
	"ref": {
		"platform_number", "cycle_number",
		"time", "latitude", "longitude",
		"pres", "temp", "psal",
	},
}

var indexVariables = []string{
	"file", "date", "latitude", "longitude", "ocean",
	"profiler_type", "institution", "date_update",
}

// Coordinates of the point dimension; every other column is a data variable.
var coordNames = map[string]bool{
	"TIME":      true,
	"LATITUDE":  true,
	"LONGITUDE": true,
}

// Source fetches from one ERDDAP server.
type Source struct {
	baseURL string
	client  *http.Client
}

// New creates an ERDDAP source. An empty baseURL selects the Ifremer node.
func New(baseURL string) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Source{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Name implements source.Source.
func (s *Source) Name() string { return "erddap" }

// Capabilities implements source.Source.
func (s *Source) Capabilities() []source.Capability {
	return []source.Capability{source.CapWMO, source.CapBox}
}

// DatasetIDs implements source.Source.
func (s *Source) DatasetIDs() []string { return []string{"phy", "bgc", "ref"} }

func (s *Source) table(dataset string) (string, error) {
	table, ok := datasetTables[dataset]
	if !ok {
		return "", fmt.Errorf("erddap has no dataset %q", dataset)
	}
	return table, nil
}

// OpenWMO implements source.Source.
func (s *Source) OpenWMO(opts source.Options, wmo []int, cyc []int) (source.Fetcher, error) {
	if len(wmo) == 0 {
		return nil, fmt.Errorf("at least one WMO number is required")
	}
	table, err := s.table(opts.Dataset)
	if err != nil {
		return nil, err
	}
	return &Fetcher{src: s, opts: opts, table: table, wmo: wmo, cyc: cyc}, nil
}

// OpenBox implements source.Source.
func (s *Source) OpenBox(opts source.Options, box domain.Box) (source.Fetcher, error) {
	table, err := s.table(opts.Dataset)
	if err != nil {
		return nil, err
	}
	return &Fetcher{src: s, opts: opts, table: table, box: &box}, nil
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

// Fetcher retrieves measurement data for one bound query.
type Fetcher struct {
	src   *Source
	opts  source.Options
	table string
	wmo   []int
	cyc   []int
	box   *domain.Box
}

// URL returns the tabledap query URL for this fetcher.
func (f *Fetcher) URL() string {
	vars := datasetVariables[f.opts.Dataset]
	var constraints []string
	if f.box != nil {
		constraints = boxConstraints(*f.box, true)
	} else {
		constraints = append(constraints, regexConstraint("platform_number", f.wmo))
		if len(f.cyc) > 0 {
			constraints = append(constraints, regexConstraint("cycle_number", f.cyc))
		}
	}
	return tabledapURL(f.src.baseURL, f.table, vars, constraints)
}

// ToDataset implements source.Fetcher: it runs the tabledap query and
// parses the CSV response into a labeled dataset.
func (f *Fetcher) ToDataset(ctx context.Context) (*domain.Dataset, error) {
	records, err := fetchCSV(ctx, f.src.client, f.URL())
	if err != nil {
		return nil, err
	}
	ds, err := datasetFromCSV(records)
	if err != nil {
		return nil, err
	}
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
		return fmt.Sprintf("<datafetcher.erddap>\nDataset: %s\nDomain: %s", f.opts.Dataset, f.box)
	}
	return fmt.Sprintf("<datafetcher.erddap>\nDataset: %s\nFloats: %s", f.opts.Dataset, joinInts(f.wmo, ", "))
}

// IndexFetcher retrieves index entries for one bound query.
type IndexFetcher struct {
	src *Source
	wmo []int
	box *domain.Box
}

// URL returns the tabledap query URL for this index fetcher.
func (f *IndexFetcher) URL() string {
	var constraints []string
	if f.box != nil {
		constraints = boxConstraints(*f.box, false)
	} else {
		constraints = []string{fmt.Sprintf(`file=~".*(%s).*"`, joinInts(f.wmo, "|"))}
	}
	return tabledapURL(f.src.baseURL, indexTable, indexVariables, constraints)
}

// ToFrame implements source.IndexFetcher.
func (f *IndexFetcher) ToFrame(ctx context.Context) (*domain.Frame, error) {
	records, err := fetchCSV(ctx, f.src.client, f.URL())
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("erddap returned no index rows")
	}
	// Row 0 carries the column names, row 1 the units.
	frame := domain.NewFrame(records[0])
	for _, row := range records[2:] {
		frame.AppendRow(row)
	}
	return frame, nil
}

// ToDataset implements source.IndexFetcher.
func (f *IndexFetcher) ToDataset(ctx context.Context) (*domain.Dataset, error) {
	frame, err := f.ToFrame(ctx)
	if err != nil {
		return nil, err
	}
	return frame.ToDataset()
}

// String describes the bound query.
func (f *IndexFetcher) String() string {
	if f.box != nil {
		return fmt.Sprintf("<indexfetcher.erddap>\nDomain: %s", f.box)
	}
	return fmt.Sprintf("<indexfetcher.erddap>\nFloats: %s", joinInts(f.wmo, ", "))
}

// tabledapURL assembles {base}/tabledap/{table}.csv?{vars}&{constraints}
// with every query token escaped.
func tabledapURL(base, table string, vars, constraints []string) string {
	tokens := make([]string, 0, 1+len(constraints))
	tokens = append(tokens, url.QueryEscape(strings.Join(vars, ",")))
	for _, c := range constraints {
		tokens = append(tokens, url.QueryEscape(c))
	}
	return fmt.Sprintf("%s/tabledap/%s.csv?%s", base, table, strings.Join(tokens, "&"))
}

// regexConstraint matches a numeric column against a set of values, the
// way tabledap expresses OR constraints.
func regexConstraint(column string, values []int) string {
	return fmt.Sprintf(`%s=~"%s"`, column, joinInts(values, "|"))
}

func boxConstraints(box domain.Box, withPres bool) []string {
	constraints := []string{
		fmt.Sprintf("longitude>=%g", box.LonMin),
		fmt.Sprintf("longitude<=%g", box.LonMax),
		fmt.Sprintf("latitude>=%g", box.LatMin),
		fmt.Sprintf("latitude<=%g", box.LatMax),
	}
	if withPres {
		constraints = append(constraints,
			fmt.Sprintf("pres>=%g", box.PresMin),
			fmt.Sprintf("pres<=%g", box.PresMax),
		)
	}
	if box.HasDates() {
		constraints = append(constraints,
			fmt.Sprintf("time>=%s", box.DateMin.Format(time.RFC3339)),
			fmt.Sprintf("time<=%s", box.DateMax.Format(time.RFC3339)),
		)
	}
	return constraints
}

func joinInts(values []int, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}

// fetchCSV runs a GET request and parses the body as CSV.
func fetchCSV(ctx context.Context, client *http.Client, rawURL string) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build erddap request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erddap request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("erddap request failed: %s returned HTTP %d", rawURL, resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse erddap CSV: %w", err)
	}
	return records, nil
}

// datasetFromCSV converts a tabledap CSV response (names row, units row,
// data rows) into a dataset. Column names map to upper-case Argo names;
// columns whose cells all parse as numbers become numeric variables and
// time/position columns become coordinates.
func datasetFromCSV(records [][]string) (*domain.Dataset, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("erddap returned no data rows")
	}
	header := records[0]
	rows := records[2:]

	ds := domain.NewDataset(len(rows))
	for col, rawName := range header {
		name := strings.ToUpper(rawName)
		cells := make([]string, len(rows))
		for i, row := range rows {
			if col >= len(row) {
				return nil, fmt.Errorf("erddap CSV row %d is short: %d cells for %d columns", i, len(row), len(header))
			}
			cells[i] = row[col]
		}
		v := columnVariable(name, cells)
		if coordNames[name] {
			ds.AddCoord(v)
		} else {
			ds.AddVar(v)
		}
	}
	return ds, nil
}

func columnVariable(name string, cells []string) *domain.Variable {
	values := make([]float64, len(cells))
	for i, cell := range cells {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return &domain.Variable{Name: name, Text: cells}
		}
		values[i] = v
	}
	return &domain.Variable{Name: name, Values: values}
}
