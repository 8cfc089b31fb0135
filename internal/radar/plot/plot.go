// Package plot renders a finished analysis as PNG charts (gonum/plot) and
// an HTML page (go-echarts). Nothing here feeds back into the analysis.
package plot

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"

	"github.com/banshee-data/presence.report/internal/fsutil"
	"github.com/banshee-data/presence.report/internal/monitoring"
	"github.com/banshee-data/presence.report/internal/radar/classify"
	"github.com/banshee-data/presence.report/internal/radar/pipeline"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Output file names written by WriteAll.
const (
	CentroidFile    = "centroids.png"
	ClusterSizeFile = "cluster_size.png"
	HTMLFile        = "report.html"
)

var (
	humanColor   = color.RGBA{R: 46, G: 160, B: 67, A: 255}
	rodentColor  = color.RGBA{R: 215, G: 58, B: 73, A: 255}
	neutralColor = color.RGBA{R: 120, G: 120, B: 120, A: 255}
)

// Label is the verdict attached to a clustered window, if its run got one.
type Label int

const (
	Unlabelled Label = iota
	Human
	Rodent
)

func (l Label) String() string {
	switch l {
	case Human:
		return "human"
	case Rodent:
		return "rodent"
	default:
		return "no verdict"
	}
}

func (l Label) color() color.Color {
	switch l {
	case Human:
		return humanColor
	case Rodent:
		return rodentColor
	default:
		return neutralColor
	}
}

// LabelCombos returns one Label per combo record of r.
func LabelCombos(r *pipeline.AnalysisResult) []Label {
	labels := make([]Label, len(r.Combos))
	for _, run := range r.Runs {
		l := Rodent
		if run.Verdict.IsHuman() {
			l = Human
		}
		for i := run.First; i <= run.Last && i < len(labels); i++ {
			labels[i] = l
		}
	}
	return labels
}

// WriteAll writes every chart into dir, creating it if needed, and returns
// the paths written.
func WriteAll(fsys fsutil.FileSystem, dir string, r *pipeline.AnalysisResult) ([]string, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plot dir: %w", err)
	}

	outputs := []struct {
		name  string
		write func(io.Writer, *pipeline.AnalysisResult) error
	}{
		{CentroidFile, WriteCentroidPNG},
		{ClusterSizeFile, WriteClusterSizePNG},
		{HTMLFile, WriteHTMLReport},
	}

	var written []string
	for _, o := range outputs {
		path := filepath.Join(dir, o.name)
		err := fsutil.WriteWith(fsys, path, func(w io.Writer) error { return o.write(w, r) })
		if err != nil {
			return written, err
		}
		written = append(written, path)
		monitoring.Debugf("[plot] wrote %s", path)
	}
	return written, nil
}

// WriteCentroidPNG draws the dominant-cluster centre of every clustered
// window, coloured by verdict, with each run joined by a line.
func WriteCentroidPNG(w io.Writer, r *pipeline.AnalysisResult) error {
	p := plot.New()
	p.Title.Text = "Dominant cluster centroids"
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Add(plotter.NewGrid())

	labels := LabelCombos(r)
	byLabel := map[Label]plotter.XYs{}
	for i, c := range r.Combos {
		byLabel[labels[i]] = append(byLabel[labels[i]], plotter.XY{X: c.MeanX, Y: c.MeanY})
	}

	for _, run := range r.Runs {
		pts := make(plotter.XYs, 0, run.Length)
		for _, c := range r.Combos[run.First : run.Last+1] {
			pts = append(pts, plotter.XY{X: c.MeanX, Y: c.MeanY})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("run line: %w", err)
		}
		line.Color = verdictLabel(run.Verdict).color()
		line.Width = vg.Points(1)
		p.Add(line)
	}

	for _, l := range []Label{Unlabelled, Human, Rodent} {
		pts := byLabel[l]
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("%s scatter: %w", l, err)
		}
		sc.GlyphStyle.Color = l.color()
		sc.GlyphStyle.Radius = vg.Points(3)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add(l.String(), sc)
	}
	p.Legend.Top = true

	return writePNG(w, p, 8*vg.Inch, 8*vg.Inch)
}

// WriteClusterSizePNG draws the dominant cluster size per window against
// the human cluster-size threshold.
func WriteClusterSizePNG(w io.Writer, r *pipeline.AnalysisResult) error {
	p := plot.New()
	p.Title.Text = "Dominant cluster size per window"
	p.X.Label.Text = "Window"
	p.Y.Label.Text = "Points"

	pts := make(plotter.XYs, 0, len(r.Combos))
	for _, c := range r.Combos {
		pts = append(pts, plotter.XY{X: float64(c.Window), Y: float64(c.ClusterSize)})
	}
	if len(pts) > 0 {
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return fmt.Errorf("cluster size line: %w", err)
		}
		line.Width = vg.Points(1)
		points.Shape = draw.CircleGlyph{}
		p.Add(line, points)
		p.Legend.Add("cluster size", line, points)
	}

	last := float64(len(r.Windows.Windows))
	threshold, err := plotter.NewLine(plotter.XYs{
		{X: 0, Y: r.Params.Classify.HumanClusterSize},
		{X: last, Y: r.Params.Classify.HumanClusterSize},
	})
	if err != nil {
		return fmt.Errorf("threshold line: %w", err)
	}
	threshold.Color = humanColor
	threshold.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(threshold)
	p.Legend.Add("human threshold", threshold)
	p.Legend.Top = true

	return writePNG(w, p, 14*vg.Inch, 6*vg.Inch)
}

func writePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func verdictLabel(v classify.Verdict) Label {
	if v.IsHuman() {
		return Human
	}
	return Rodent
}
