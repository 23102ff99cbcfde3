// Package main provides a small tool to query the Argo index from a
// registered source and export it as CSV or an HTML chart.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jtomfarrar/argopy/internal/adapter/source/erddap"
	"github.com/jtomfarrar/argopy/internal/adapter/source/gdac"
	"github.com/jtomfarrar/argopy/internal/domain"
	"github.com/jtomfarrar/argopy/internal/fetcher"
)

func main() {
	src := flag.String("source", "erddap", "Source to query (erddap or gdac)")
	erddapURL := flag.String("erddap", erddap.DefaultBaseURL, "ERDDAP server URL")
	gdacRoot := flag.String("gdac", "", "Local GDAC mirror directory")
	wmoList := flag.String("wmo", "", "Comma-separated WMO numbers")
	boxArg := flag.String("box", "", "Box: lon min/max, lat min/max, pres min/max[, date min/max]")
	csvOut := flag.String("csv", "", "Write the index as CSV to this file")
	plotType := flag.String("plot", "", "Render a chart: trajectory, dac or profiler")
	plotOut := flag.String("o", "index.html", "Chart output file")
	flag.Parse()

	registry := fetcher.NewRegistry(erddap.New(*erddapURL))
	if *gdacRoot != "" {
		registry.Register(gdac.New(*gdacRoot))
	}

	f, err := fetcher.NewIndexFetcher(registry, fetcher.Options{Source: *src})
	if err != nil {
		log.Fatalf("Failed to build index fetcher: %v", err)
	}

	switch {
	case *wmoList != "":
		wmos, err := parseWMOs(*wmoList)
		if err != nil {
			log.Fatalf("Invalid -wmo: %v", err)
		}
		if _, err := f.Float(wmos); err != nil {
			log.Fatalf("Failed to select floats: %v", err)
		}
	case *boxArg != "":
		box, err := domain.ParseBox(*boxArg)
		if err != nil {
			log.Fatalf("Invalid -box: %v", err)
		}
		if _, err := f.Region(box); err != nil {
			log.Fatalf("Failed to select region: %v", err)
		}
	default:
		log.Fatalf("Either -wmo or -box is required")
	}

	ctx := context.Background()

	if *csvOut != "" {
		file, err := os.Create(*csvOut)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *csvOut, err)
		}
		if err := f.ToCSV(ctx, file); err != nil {
			log.Fatalf("Failed to write index CSV: %v", err)
		}
		if err := file.Close(); err != nil {
			log.Fatalf("Failed to close %s: %v", *csvOut, err)
		}
		log.Printf("Index written to %s", *csvOut)
	}

	if *plotType != "" {
		chart, err := f.Plot(ctx, *plotType)
		if err != nil {
			log.Fatalf("Failed to render %s chart: %v", *plotType, err)
		}
		file, err := os.Create(*plotOut)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *plotOut, err)
		}
		if err := chart.Render(file); err != nil {
			log.Fatalf("Failed to write chart: %v", err)
		}
		if err := file.Close(); err != nil {
			log.Fatalf("Failed to close %s: %v", *plotOut, err)
		}
		log.Printf("Chart written to %s", *plotOut)
	}

	if *csvOut == "" && *plotType == "" {
		// No output selected: print a summary.
		frame, err := f.ToFrame(ctx)
		if err != nil {
			log.Fatalf("Failed to fetch index: %v", err)
		}
		fmt.Printf("%d index entries (%s)\n", frame.NRows(), strings.Join(frame.Columns, ", "))
	}
}

func parseWMOs(s string) ([]int, error) {
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
