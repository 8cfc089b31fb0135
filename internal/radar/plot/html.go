package plot

import (
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/presence.report/internal/radar/perception"
	"github.com/banshee-data/presence.report/internal/radar/pipeline"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteHTMLReport renders an interactive page: window centroids by verdict
// and the dominant cluster size per window.
func WriteHTMLReport(w io.Writer, r *pipeline.AnalysisResult) error {
	page := components.NewPage()
	page.PageTitle = "Presence analysis"
	page.AddCharts(centroidScatter(r), clusterSizeBar(r))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func centroidScatter(r *pipeline.AnalysisResult) *charts.Scatter {
	labels := LabelCombos(r)
	series := map[Label][]opts.ScatterData{}
	for i, c := range r.Combos {
		series[labels[i]] = append(series[labels[i]], opts.ScatterData{
			Name:  fmt.Sprintf("window %d", c.Window),
			Value: []interface{}{c.MeanX, c.MeanY, c.ClusterSize},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Presence Centroids", Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Dominant Cluster Centroids",
			Subtitle: fmt.Sprintf("windows=%d clustered=%d runs=%d", r.Summary.Windows, r.Summary.ClusteredWindows, r.Summary.Runs),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)
	for _, l := range []Label{Human, Rodent, Unlabelled} {
		data := series[l]
		if len(data) == 0 {
			continue
		}
		scatter.AddSeries(l.String(), data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(l)}),
		)
	}
	return scatter
}

func clusterSizeBar(r *pipeline.AnalysisResult) *charts.Bar {
	x := make([]string, 0, len(r.Windows.Windows))
	y := make([]opts.BarData, 0, len(r.Windows.Windows))
	for _, win := range r.Windows.Windows {
		x = append(x, strconv.Itoa(win.Index))
		size := 0
		if win.Status == perception.WindowClustered {
			size = win.ClusterSize
		}
		y = append(y, opts.BarData{Name: win.Status.String(), Value: size})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Dominant Cluster Size",
			Subtitle: fmt.Sprintf("human threshold=%g", r.Params.Classify.HumanClusterSize),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Window"}),
	)
	bar.SetXAxis(x).AddSeries("cluster size", y)
	return bar
}

func hexColor(l Label) string {
	r, g, b, _ := l.color().RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
