// Package plot renders Argo index frames as go-echarts charts.
package plot

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/jtomfarrar/argopy/internal/domain"
)

// Renderer is the minimal surface of a chart the facades need: something
// that can write itself as HTML.
type Renderer interface {
	Render(w io.Writer) error
}

// Trajectory renders the profile positions of an index frame as a
// lon/lat scatter chart.
func Trajectory(idx *domain.Frame) (*charts.Scatter, error) {
	lats, err := idx.Floats("latitude")
	if err != nil {
		return nil, fmt.Errorf("trajectory plot: %w", err)
	}
	lons, err := idx.Floats("longitude")
	if err != nil {
		return nil, fmt.Errorf("trajectory plot: %w", err)
	}

	data := make([]opts.ScatterData, 0, len(lats))
	for i := range lats {
		data = append(data, opts.ScatterData{Value: []interface{}{lons[i], lats[i]}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Argo float trajectories", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Argo float trajectories", Subtitle: fmt.Sprintf("profiles=%d", len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("profiles", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	return scatter, nil
}

// DAC renders the number of index entries per data assembly centre as a
// bar chart.
func DAC(idx *domain.Frame) (*charts.Bar, error) {
	return countBar(idx, "institution", "Profiles per data centre")
}

// ProfilerType renders the number of index entries per profiler type as a
// bar chart.
func ProfilerType(idx *domain.Frame) (*charts.Bar, error) {
	return countBar(idx, "profiler_type", "Profiles per profiler type")
}

func countBar(idx *domain.Frame, column, title string) (*charts.Bar, error) {
	counts, err := idx.CountBy(column)
	if err != nil {
		return nil, fmt.Errorf("%s plot: %w", column, err)
	}
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	data := make([]opts.BarData, len(labels))
	for i, label := range labels {
		data[i] = opts.BarData{Value: counts[label]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).AddSeries("profiles", data)
	return bar, nil
}
