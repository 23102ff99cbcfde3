package gdac

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jtomfarrar/argopy/internal/domain"
)

// indexFileName is the global profile index at the mirror root.
const indexFileName = "ar_index_global_prof.txt"

// indexColumns is the column set of the global profile index.
var indexColumns = []string{
	"file", "date", "latitude", "longitude", "ocean",
	"profiler_type", "institution", "date_update",
}

func indexPath(root string) string {
	return filepath.Join(root, indexFileName)
}

// indexEntry is one parsed index row.
type indexEntry struct {
	row         []string
	file        string
	date        time.Time
	lat, lon    float64
	hasPosition bool
}

// wmo extracts the float identifier from the file path
// (<dac>/<wmo>/profiles/<file>.nc).
func (e *indexEntry) wmo() (int, bool) {
	parts := strings.Split(e.file, "/")
	if len(parts) < 2 {
		return 0, false
	}
	wmo, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return wmo, true
}

// readIndexFile parses the global profile index. Comment lines (leading
// '#') and the header row are skipped; rows without a position keep
// hasPosition unset so callers can decide whether to drop them.
func readIndexFile(path string) ([]indexEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse index file %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("index file %s is empty", path)
	}

	header := records[0]
	if len(header) < len(indexColumns) || header[0] != "file" {
		return nil, fmt.Errorf("unexpected index header in %s: %v", path, header)
	}

	entries := make([]indexEntry, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) < len(indexColumns) {
			continue
		}
		e := indexEntry{row: row[:len(indexColumns)], file: row[0]}
		if t, err := parseIndexDate(row[1]); err == nil {
			e.date = t
		}
		lat, latErr := strconv.ParseFloat(row[2], 64)
		lon, lonErr := strconv.ParseFloat(row[3], 64)
		if latErr == nil && lonErr == nil {
			e.lat, e.lon = lat, lon
			e.hasPosition = true
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// parseIndexDate decodes the YYYYMMDDHHMMSS timestamps the index uses.
func parseIndexDate(s string) (time.Time, error) {
	return time.Parse("20060102150405", strings.TrimSpace(s))
}

// IndexFetcher retrieves index entries for one bound query.
type IndexFetcher struct {
	src *Source
	wmo []int
	box *domain.Box
}

// ToFrame implements source.IndexFetcher.
func (f *IndexFetcher) ToFrame(ctx context.Context) (*domain.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := readIndexFile(indexPath(f.src.root))
	if err != nil {
		return nil, err
	}

	wantWMO := make(map[int]bool, len(f.wmo))
	for _, w := range f.wmo {
		wantWMO[w] = true
	}

	frame := domain.NewFrame(indexColumns)
	for _, e := range entries {
		if len(f.wmo) > 0 {
			wmo, ok := e.wmo()
			if !ok || !wantWMO[wmo] {
				continue
			}
		}
		if f.box != nil {
			if !e.hasPosition || !f.box.Contains(e.lat, e.lon) || !f.box.ContainsTime(e.date) {
				continue
			}
		}
		frame.AppendRow(e.row)
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
		return fmt.Sprintf("<indexfetcher.gdac>\nDomain: %s", f.box)
	}
	return fmt.Sprintf("<indexfetcher.gdac>\nFloats: %v", f.wmo)
}
