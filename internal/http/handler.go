// Package http exposes the data and index facades as a small REST API.
package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jtomfarrar/argopy/internal/domain"
	"github.com/jtomfarrar/argopy/internal/fetcher"
)

// Handler handles HTTP requests for Argo data and index queries.
type Handler struct {
	registry *fetcher.Registry
}

// NewHandler creates a new HTTP handler over a source registry.
func NewHandler(registry *fetcher.Registry) *Handler {
	return &Handler{registry: registry}
}

// optionsFromQuery builds facade options from the common query parameters.
func optionsFromQuery(c *gin.Context) fetcher.Options {
	return fetcher.Options{
		Mode:    c.Query("mode"),
		Source:  c.Query("source"),
		Dataset: c.Query("dataset"),
	}
}

// parseWMOList parses a comma-separated list of WMO numbers.
func parseWMOList(s string) ([]int, error) {
	if s == "" {
		return nil, fmt.Errorf("wmo parameter is required")
	}
	parts := strings.Split(s, ",")
	wmos := make([]int, len(parts))
	for i, part := range parts {
		wmo, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid WMO number %q: %w", part, err)
		}
		wmos[i] = wmo
	}
	return wmos, nil
}

func parseCycleList(s string) ([]int, error) {
	if s == "" {
		return nil, fmt.Errorf("cyc parameter is required")
	}
	parts := strings.Split(s, ",")
	cycles := make([]int, len(parts))
	for i, part := range parts {
		cyc, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid cycle number %q: %w", part, err)
		}
		cycles[i] = cyc
	}
	return cycles, nil
}

// writeError maps facade errors to HTTP statuses: option, access-point
// and initialization errors are the caller's fault, everything else is a
// fetch failure.
func writeError(c *gin.Context, err error) {
	var optErr *fetcher.OptionError
	var apErr *fetcher.AccessPointError
	var initErr *fetcher.NotInitializedError
	switch {
	case errors.As(err, &optErr), errors.As(err, &apErr), errors.As(err, &initErr),
		errors.Is(err, fetcher.ErrCyclesWithFloat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

func writeFrame(c *gin.Context, frame *domain.Frame) {
	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := frame.WriteCSV(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, frame)
}

// GetSources handles GET /v1/sources.
func (h *Handler) GetSources(c *gin.Context) {
	type sourceInfo struct {
		Name         string   `json:"name"`
		AccessPoints []string `json:"access_points"`
		Datasets     []string `json:"datasets"`
	}
	sources := make([]sourceInfo, 0)
	for _, name := range h.registry.Names() {
		s, _ := h.registry.Lookup(name)
		caps := make([]string, len(s.Capabilities()))
		for i, capability := range s.Capabilities() {
			caps[i] = string(capability)
		}
		sources = append(sources, sourceInfo{Name: name, AccessPoints: caps, Datasets: s.DatasetIDs()})
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

// GetDataFloat handles GET /v1/data/float.
func (h *Handler) GetDataFloat(c *gin.Context) {
	wmos, err := parseWMOList(c.Query("wmo"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := fetcher.NewDataFetcher(h.registry, optionsFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if _, err := f.Float(wmos); err != nil {
		writeError(c, err)
		return
	}
	frame, err := f.ToFrame(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeFrame(c, frame)
}

// GetDataProfile handles GET /v1/data/profile.
func (h *Handler) GetDataProfile(c *gin.Context) {
	wmos, err := parseWMOList(c.Query("wmo"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(wmos) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile queries take exactly one WMO number"})
		return
	}
	cycles, err := parseCycleList(c.Query("cyc"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := fetcher.NewDataFetcher(h.registry, optionsFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if _, err := f.Profile(wmos[0], cycles); err != nil {
		writeError(c, err)
		return
	}
	frame, err := f.ToFrame(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeFrame(c, frame)
}

// GetDataRegion handles GET /v1/data/region.
func (h *Handler) GetDataRegion(c *gin.Context) {
	box, err := domain.ParseBox(c.Query("box"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := fetcher.NewDataFetcher(h.registry, optionsFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if _, err := f.Region(box); err != nil {
		writeError(c, err)
		return
	}
	frame, err := f.ToFrame(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeFrame(c, frame)
}

// GetIndexFloat handles GET /v1/index/float.
func (h *Handler) GetIndexFloat(c *gin.Context) {
	wmos, err := parseWMOList(c.Query("wmo"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := fetcher.NewIndexFetcher(h.registry, optionsFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if _, err := f.Float(wmos); err != nil {
		writeError(c, err)
		return
	}
	frame, err := f.ToFrame(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeFrame(c, frame)
}

// GetIndexRegion handles GET /v1/index/region.
func (h *Handler) GetIndexRegion(c *gin.Context) {
	box, err := domain.ParseBox(c.Query("box"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := fetcher.NewIndexFetcher(h.registry, optionsFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if _, err := f.Region(box); err != nil {
		writeError(c, err)
		return
	}
	frame, err := f.ToFrame(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	writeFrame(c, frame)
}

// GetIndexPlot handles GET /v1/index/plot: it binds float or region from
// the query, renders the requested chart type and returns it as HTML.
func (h *Handler) GetIndexPlot(c *gin.Context) {
	f, err := fetcher.NewIndexFetcher(h.registry, optionsFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	switch {
	case c.Query("wmo") != "":
		wmos, err := parseWMOList(c.Query("wmo"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, err := f.Float(wmos); err != nil {
			writeError(c, err)
			return
		}
	case c.Query("box") != "":
		box, err := domain.ParseBox(c.Query("box"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, err := f.Region(box); err != nil {
			writeError(c, err)
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "either wmo or box is required"})
		return
	}

	ptype := c.DefaultQuery("ptype", fetcher.PlotTrajectory)
	chart, err := f.Plot(c.Request.Context(), ptype)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := chart.Render(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to render chart: %v", err)})
	}
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
