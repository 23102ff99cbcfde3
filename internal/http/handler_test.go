package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jtomfarrar/argopy/internal/adapter/source"
	"github.com/jtomfarrar/argopy/internal/domain"
	"github.com/jtomfarrar/argopy/internal/fetcher"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memSource is an in-memory source serving fixed data and index rows.
type memSource struct {
	caps []source.Capability
}

func (s *memSource) Name() string                      { return "mem" }
func (s *memSource) Capabilities() []source.Capability { return s.caps }
func (s *memSource) DatasetIDs() []string              { return []string{"phy"} }

func (s *memSource) OpenWMO(opts source.Options, wmo []int, cyc []int) (source.Fetcher, error) {
	return &memFetcher{}, nil
}

func (s *memSource) OpenBox(opts source.Options, box domain.Box) (source.Fetcher, error) {
	return &memFetcher{}, nil
}

func (s *memSource) OpenIndexWMO(opts source.Options, wmo []int) (source.IndexFetcher, error) {
	return &memIndexFetcher{}, nil
}

func (s *memSource) OpenIndexBox(opts source.Options, box domain.Box) (source.IndexFetcher, error) {
	return &memIndexFetcher{}, nil
}

type memFetcher struct{}

func (f *memFetcher) ToDataset(ctx context.Context) (*domain.Dataset, error) {
	ds := domain.NewDataset(2)
	ds.AddCoord(&domain.Variable{Name: "LATITUDE", Values: []float64{44.5, 44.8}})
	ds.AddVar(&domain.Variable{Name: "TEMP", Values: []float64{15.5, 15.1}})
	return ds, nil
}

func (f *memFetcher) FilterDataMode(ds *domain.Dataset) (*domain.Dataset, error) { return ds, nil }
func (f *memFetcher) FilterQC(ds *domain.Dataset) (*domain.Dataset, error)       { return ds, nil }
func (f *memFetcher) FilterVariables(ds *domain.Dataset, mode string) (*domain.Dataset, error) {
	return ds, nil
}

type memIndexFetcher struct{}

func (f *memIndexFetcher) ToFrame(ctx context.Context) (*domain.Frame, error) {
	frame := domain.NewFrame([]string{"file", "latitude", "longitude", "institution", "profiler_type"})
	frame.AppendRow([]string{"coriolis/6902746/profiles/R6902746_001.nc", "44.5", "-30.2", "IF", "844"})
	return frame, nil
}

func (f *memIndexFetcher) ToDataset(ctx context.Context) (*domain.Dataset, error) {
	frame, err := f.ToFrame(ctx)
	if err != nil {
		return nil, err
	}
	return frame.ToDataset()
}

func testRouter() *gin.Engine {
	reg := fetcher.NewRegistry(&memSource{caps: []source.Capability{source.CapWMO, source.CapBox}})
	return SetupRouter(reg)
}

func doRequest(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	router.ServeHTTP(w, req)
	return w
}

// TestHealthCheck tests the health endpoint.
func TestHealthCheck(t *testing.T) {
	w := doRequest(t, testRouter(), "/health")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// TestGetSources tests the source listing with capabilities.
func TestGetSources(t *testing.T) {
	w := doRequest(t, testRouter(), "/v1/sources")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Sources []struct {
			Name         string   `json:"name"`
			AccessPoints []string `json:"access_points"`
			Datasets     []string `json:"datasets"`
		} `json:"sources"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Name != "mem" {
		t.Fatalf("unexpected sources: %+v", resp.Sources)
	}
	if len(resp.Sources[0].AccessPoints) != 2 {
		t.Errorf("expected wmo and box capabilities, got %v", resp.Sources[0].AccessPoints)
	}
}

// TestGetDataFloat tests a float data query, JSON and CSV forms.
func TestGetDataFloat(t *testing.T) {
	router := testRouter()

	w := doRequest(t, router, "/v1/data/float?source=mem&wmo=6902746")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var frame domain.Frame
	if err := json.Unmarshal(w.Body.Bytes(), &frame); err != nil {
		t.Fatalf("failed to parse frame: %v", err)
	}
	if frame.NRows() != 2 {
		t.Errorf("expected 2 rows, got %d", frame.NRows())
	}

	w = doRequest(t, router, "/v1/data/float?source=mem&wmo=6902746&format=csv")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("unexpected content type: %s", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "LATITUDE,TEMP") {
		t.Errorf("unexpected CSV header: %q", w.Body.String())
	}
}

// TestGetDataFloat_BadRequests tests parameter validation.
func TestGetDataFloat_BadRequests(t *testing.T) {
	router := testRouter()
	cases := []struct {
		name string
		path string
	}{
		{"missing wmo", "/v1/data/float?source=mem"},
		{"bad wmo", "/v1/data/float?source=mem&wmo=abc"},
		{"unknown source", "/v1/data/float?source=ftp&wmo=1"},
		{"bad mode", "/v1/data/float?source=mem&wmo=1&mode=research"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, router, tc.path)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

// TestGetDataProfile tests the profile endpoint, including the
// single-WMO rule.
func TestGetDataProfile(t *testing.T) {
	router := testRouter()

	w := doRequest(t, router, "/v1/data/profile?source=mem&wmo=6902746&cyc=1,2")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, router, "/v1/data/profile?source=mem&wmo=6902746,6902747&cyc=1")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for two WMOs, got %d", w.Code)
	}

	w = doRequest(t, router, "/v1/data/profile?source=mem&wmo=6902746")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing cycles, got %d", w.Code)
	}
}

// TestGetDataRegion tests the region endpoint and box validation.
func TestGetDataRegion(t *testing.T) {
	router := testRouter()

	w := doRequest(t, router, "/v1/data/region?source=mem&box=-75,-45,20,30,0,100")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, router, "/v1/data/region?source=mem&box=1,2,3")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed box, got %d", w.Code)
	}
}

// TestGetIndexFloat tests the index float endpoint.
func TestGetIndexFloat(t *testing.T) {
	w := doRequest(t, testRouter(), "/v1/index/float?source=mem&wmo=6902746")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var frame domain.Frame
	if err := json.Unmarshal(w.Body.Bytes(), &frame); err != nil {
		t.Fatalf("failed to parse frame: %v", err)
	}
	if len(frame.Columns) == 0 || frame.Columns[0] != "file" {
		t.Errorf("unexpected columns: %v", frame.Columns)
	}
}

// TestGetIndexPlot tests chart rendering and plot-type validation.
func TestGetIndexPlot(t *testing.T) {
	router := testRouter()

	w := doRequest(t, router, "/v1/index/plot?source=mem&wmo=6902746")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected content type: %s", ct)
	}
	if !strings.Contains(w.Body.String(), "echarts") {
		t.Error("response does not look like an echarts page")
	}

	w = doRequest(t, router, "/v1/index/plot?source=mem&wmo=6902746&ptype=piechart")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown plot type, got %d", w.Code)
	}

	w = doRequest(t, router, "/v1/index/plot?source=mem")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without wmo or box, got %d", w.Code)
	}
}

// TestGetDataRegion_RegionUnsupported tests the access-point error for a
// wmo-only source.
func TestGetDataRegion_RegionUnsupported(t *testing.T) {
	reg := fetcher.NewRegistry(&memSource{caps: []source.Capability{source.CapWMO}})
	router := SetupRouter(reg)

	w := doRequest(t, router, "/v1/data/region?source=mem&box=-75,-45,20,30,0,100")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "region") {
		t.Errorf("error should name the access point: %s", w.Body.String())
	}
}
