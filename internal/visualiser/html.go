package visualiser

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/spatial/r3"
)

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// RenderCloudHTML writes an interactive scatter of points (X against Y,
// coloured by Z) to w. When there are more than maxPoints points every
// stride-th point is kept; maxPoints <= 0 keeps them all.
func RenderCloudHTML(w io.Writer, points []r3.Vec, title string, maxPoints int) error {
	if len(points) == 0 {
		return ErrNoPoints
	}

	stride := 1
	if maxPoints > 0 && len(points) > maxPoints {
		stride = (len(points) + maxPoints - 1) / maxPoints
	}

	data := make([]opts.ScatterData, 0, len(points)/stride+1)
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	pad := 0.0
	for i := 0; i < len(points); i += stride {
		v := points[i]
		data = append(data, opts.ScatterData{Value: []interface{}{v.X, v.Y, v.Z}})
		minZ, maxZ = math.Min(minZ, v.Z), math.Max(maxZ, v.Z)
		pad = math.Max(pad, math.Max(math.Abs(v.X), math.Abs(v.Y)))
	}
	pad = math.Ceil(pad*1.1*10) / 10
	if pad == 0 {
		pad = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("points=%d stride=%d", len(data), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minZ),
			Max:        float32(maxZ),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("points", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render cloud chart: %w", err)
	}
	return nil
}
