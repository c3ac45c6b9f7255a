package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/depthcloud/internal/config"
	"github.com/banshee-data/depthcloud/internal/gridbox"
	"github.com/banshee-data/depthcloud/internal/visualiser"
)

func runGridBox(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("gridbox", pflag.ContinueOnError)
	out := fs.StringP("out", "o", "", "image to write; format follows the extension (required)")
	projection := fs.String("projection", "xy", "projection plane: xy, xz or zy")
	center := fs.Float64Slice("center", []float64{0, 0, 0}, "box centre x,y,z")
	halfExtents := fs.Float64Slice("half-extents", []float64{1, 1, 1}, "box half extents x,y,z")
	sizeCm := fs.Float64("size", 12, "image size in centimetres")
	if help, err := parseCommandFlags(fs, args); help || err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("gridbox: --out is required")
	}
	proj, err := visualiser.ParseProjection(*projection)
	if err != nil {
		return err
	}
	c, err := vec3("center", *center)
	if err != nil {
		return err
	}
	h, err := vec3("half-extents", *halfExtents)
	if err != nil {
		return err
	}

	g, err := gridbox.Build(gridbox.Config{
		Center:             c,
		HalfExtents:        h,
		Divisions:          cfg.GetGridBoxDivisions(),
		BoxLineWidth:       cfg.GetGridBoxBoxLineWidth(),
		GridLineWidth:      cfg.GetGridBoxGridLineWidth(),
		DrawNearSide:       cfg.GetGridBoxDrawNearSide(),
		ColliderMultiplier: cfg.GetGridBoxColliderMultiplier(),
	})
	if err != nil {
		return err
	}
	if err := visualiser.RenderGridBoxPNG(g, proj, *out, *sizeCm); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s: %d edges, %d grid lines, %d colliders\n", *out, len(g.Edges), len(g.GridLines), len(g.Colliders))
	return nil
}

func vec3(name string, v []float64) (r3.Vec, error) {
	if len(v) != 3 {
		return r3.Vec{}, fmt.Errorf("--%s needs three values, got %d", name, len(v))
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}
