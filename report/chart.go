package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteChart renders an HTML page comparing schedules of the same stream:
// completion cycle per instruction, and total cycles per pipeline type.
func WriteChart(w io.Writer, schedules ...*Schedule) error {
	if len(schedules) == 0 {
		return fmt.Errorf("no schedules to chart")
	}

	n := schedules[0].Len()
	for _, s := range schedules[1:] {
		if s.Len() != n {
			return fmt.Errorf("schedules cover different streams (%d and %d instructions)", n, s.Len())
		}
	}

	page := components.NewPage()
	page.AddCharts(completionChart(schedules), totalChart(schedules))

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func completionChart(schedules []*Schedule) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Completion cycle",
			Subtitle: "per instruction",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	axis := make([]string, schedules[0].Len())
	for i := range axis {
		axis[i] = strconv.Itoa(i)
	}
	bar.SetXAxis(axis)

	for _, s := range schedules {
		data := make([]opts.BarData, len(s.Completions))
		for i, c := range s.Completions {
			data[i] = opts.BarData{Name: s.Instructions[i], Value: c}
		}
		bar.AddSeries(s.PipelineType, data)
	}

	return bar
}

func totalChart(schedules []*Schedule) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Total cycles"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	axis := make([]string, len(schedules))
	data := make([]opts.BarData, len(schedules))
	for i, s := range schedules {
		axis[i] = s.PipelineType
		data[i] = opts.BarData{Value: s.TotalCycles}
	}
	bar.SetXAxis(axis)
	bar.AddSeries("cycles", data)

	return bar
}
