// Package plotting renders feature importances as horizontal bar charts
// with gonum/plot.
package plotting

import (
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/collisionforest/collision"
	"github.com/YuminosukeSato/collisionforest/pkg/errors"
	"github.com/YuminosukeSato/collisionforest/pkg/log"
)

// LightGreen is the bar fill color.
var LightGreen = color.RGBA{R: 144, G: 238, B: 144, A: 255}

// BarChartRenderer writes one image per run into Dir. It implements
// collision.ImportanceRenderer.
type BarChartRenderer struct {
	Dir    string
	Format string    // "png" (default), "svg" or "pdf"
	Width  vg.Length // default 6in
	Height vg.Length // default scales with the number of features
	Color  color.Color
}

var _ collision.ImportanceRenderer = (*BarChartRenderer)(nil)

// NewBarChartRenderer returns a PNG renderer writing into dir.
func NewBarChartRenderer(dir string) *BarChartRenderer {
	return &BarChartRenderer{Dir: dir, Format: "png"}
}

// RenderImportances writes <Dir>/<label>.<format>.
func (r *BarChartRenderer) RenderImportances(label, title string, imps []collision.FeatureImportance) error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return errors.Wrapf(err, "create plot directory %s", r.Dir)
	}
	path := filepath.Join(r.Dir, fileName(label)+"."+r.format())

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := r.Render(f, title, imps); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}

	log.GetLoggerWithName("plotting").Debug("Importance chart written", "path", path, log.FeaturesKey, len(imps))
	return nil
}

// Render draws the chart and writes the encoded image to w. Bars are drawn
// bottom-up in the order given, so an ascending ranking puts the most
// important feature on top.
func (r *BarChartRenderer) Render(w io.Writer, title string, imps []collision.FeatureImportance) error {
	if len(imps) == 0 {
		return errors.NewValueError("BarChartRenderer.Render", "no importances to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Importance"
	p.X.Min = 0

	vals := make(plotter.Values, len(imps))
	names := make([]string, len(imps))
	for i, fi := range imps {
		vals[i] = fi.Importance
		names[i] = fi.Feature
	}

	bars, err := plotter.NewBarChart(vals, vg.Points(14))
	if err != nil {
		return errors.Wrap(err, "build bar chart")
	}
	bars.Horizontal = true
	bars.Color = r.Color
	if bars.Color == nil {
		bars.Color = LightGreen
	}
	bars.LineStyle.Width = 0

	p.Add(bars)
	p.NominalY(names...)

	wt, err := p.WriterTo(r.width(), r.height(len(imps)), r.format())
	if err != nil {
		return errors.Wrap(err, "encode chart")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "write chart")
	}
	return nil
}

func (r *BarChartRenderer) format() string {
	if r.Format == "" {
		return "png"
	}
	return r.Format
}

func (r *BarChartRenderer) width() vg.Length {
	if r.Width > 0 {
		return r.Width
	}
	return 6 * vg.Inch
}

func (r *BarChartRenderer) height(n int) vg.Length {
	if r.Height > 0 {
		return r.Height
	}
	h := vg.Length(n) * 0.3 * vg.Inch
	if h < 3*vg.Inch {
		h = 3 * vg.Inch
	}
	return h + vg.Inch
}

// fileName keeps labels from escaping Dir.
func fileName(label string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, label)
}
