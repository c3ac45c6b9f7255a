package visualiser

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/depthcloud/internal/gridbox"
	"github.com/banshee-data/depthcloud/internal/monitoring"
)

// ErrNoPoints is returned when there is nothing to render.
var ErrNoPoints = errors.New("visualiser: no points to render")

var logf = monitoring.Component("visualiser")

var (
	boxColor  = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	gridColor = color.RGBA{R: 0x90, G: 0x90, B: 0x90, A: 0xff}
)

// RenderGridBoxPNG draws the grid box as an orthographic projection and
// saves it to path as a square image sizeCm centimetres wide. The image
// format follows the file extension (png, svg or pdf).
func RenderGridBoxPNG(g *gridbox.Geometry, proj Projection, path string, sizeCm float64) error {
	if g == nil {
		return errors.New("visualiser: nil grid box")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Grid box (%d divisions, %s)", g.Config.Divisions, proj)
	p.X.Label.Text, p.Y.Label.Text = proj.axisLabels()

	// Grid lines first so the box edges are drawn on top.
	for _, l := range append(append([]gridbox.Line(nil), g.GridLines...), g.Edges...) {
		x0, y0 := proj.Project(l.From)
		x1, y1 := proj.Project(l.To)
		line, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y0}, {X: x1, Y: y1}})
		if err != nil {
			return err
		}
		if l.Kind == gridbox.BoxLine {
			line.Color = boxColor
			line.Width = vg.Points(2)
		} else {
			line.Color = gridColor
			line.Width = vg.Points(0.5)
		}
		p.Add(line)
	}

	// Keep the aspect ratio square around the box.
	lo, hi := g.Bounds()
	x0, y0 := proj.Project(lo)
	x1, y1 := proj.Project(hi)
	half := 0.55 * max(x1-x0, y1-y0, 1e-6)
	cx, cy := (x0+x1)/2, (y0+y1)/2
	p.X.Min, p.X.Max = cx-half, cx+half
	p.Y.Min, p.Y.Max = cy-half, cy+half

	size := vg.Length(sizeCm) * vg.Centimeter
	if err := p.Save(size, size, path); err != nil {
		return fmt.Errorf("save grid box plot: %w", err)
	}
	logf("wrote %s (%d lines)", path, len(g.Edges)+len(g.GridLines))
	return nil
}

// RenderCloudPNG saves a top-down (XZ) scatter of points to path.
func RenderCloudPNG(points []r3.Vec, title, path string) error {
	if len(points) == 0 {
		return ErrNoPoints
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text, p.Y.Label.Text = ProjectXZ.axisLabels()

	xys := make(plotter.XYs, len(points))
	for i, v := range points {
		xys[i].X, xys[i].Y = ProjectXZ.Project(v)
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(1)
	scatter.GlyphStyle.Color = color.RGBA{R: 0x31, G: 0x68, B: 0x8e, A: 0xff}
	p.Add(scatter)

	if err := p.Save(14*vg.Centimeter, 14*vg.Centimeter, path); err != nil {
		return fmt.Errorf("save cloud plot: %w", err)
	}
	logf("wrote %s (%d points)", path, len(points))
	return nil
}
