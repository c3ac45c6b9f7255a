// Package gridbox builds the geometry of a debug grid box: a wireframe
// cuboid with evenly spaced grid lines on its faces and one collider per
// side. Front is the -Z face.
package gridbox

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrInvalidDivisions = errors.New("gridbox: divisions must be at least 1")
	ErrInvalidExtents   = errors.New("gridbox: half extents must be non-negative")
)

// Config describes a grid box.
type Config struct {
	Center      r3.Vec
	HalfExtents r3.Vec
	Divisions   int

	BoxLineWidth  float64
	GridLineWidth float64

	// DrawNearSide adds grid lines on the front, top and bottom faces.
	DrawNearSide bool

	// Colliders are at least ColliderMultiplier*BoxLineWidth thick in every
	// dimension so flat sides can still be hit.
	ColliderMultiplier float64
}

// DefaultConfig returns a unit-half-extent box with four divisions.
func DefaultConfig() Config {
	return Config{
		HalfExtents:        r3.Vec{X: 1, Y: 1, Z: 1},
		Divisions:          4,
		BoxLineWidth:       0.05,
		GridLineWidth:      0.01,
		ColliderMultiplier: 10,
	}
}

// LineKind distinguishes box edges from grid lines.
type LineKind uint8

const (
	BoxLine LineKind = iota
	GridLine
)

func (k LineKind) String() string {
	switch k {
	case BoxLine:
		return "box"
	case GridLine:
		return "grid"
	default:
		return fmt.Sprintf("LineKind(%d)", uint8(k))
	}
}

// Line is a straight segment of the wireframe.
type Line struct {
	From, To r3.Vec
	Width    float64
	Kind     LineKind
}

// Face names a side of the box.
type Face uint8

const (
	Front Face = iota
	Back
	Left
	Right
	Top
	Bottom
)

var faceNames = [...]string{"front", "back", "left", "right", "top", "bottom"}

func (f Face) String() string {
	if int(f) < len(faceNames) {
		return faceNames[f]
	}
	return fmt.Sprintf("Face(%d)", uint8(f))
}

// Collider is an axis-aligned box covering one side.
type Collider struct {
	Face   Face
	Center r3.Vec
	Size   r3.Vec
}

// Corners of the box. Front/back is -Z/+Z, top/bottom is +Y/-Y and
// left/right is -X/+X.
type Corners struct {
	FrontTopLeft, FrontTopRight, FrontBottomLeft, FrontBottomRight r3.Vec
	BackTopLeft, BackTopRight, BackBottomLeft, BackBottomRight     r3.Vec
}

// Geometry is a built grid box.
type Geometry struct {
	Config    Config
	Corners   Corners
	Edges     []Line
	GridLines []Line
	Colliders [6]Collider
}

// Build computes the geometry for cfg.
func Build(cfg Config) (*Geometry, error) {
	if cfg.Divisions < 1 {
		return nil, fmt.Errorf("divisions %d: %w", cfg.Divisions, ErrInvalidDivisions)
	}
	if h := cfg.HalfExtents; h.X < 0 || h.Y < 0 || h.Z < 0 {
		return nil, fmt.Errorf("half extents %v: %w", h, ErrInvalidExtents)
	}

	g := &Geometry{Config: cfg}
	c, s := cfg.Center, cfg.HalfExtents
	corner := func(x, y, z float64) r3.Vec {
		return r3.Add(c, r3.Vec{X: x * s.X, Y: y * s.Y, Z: z * s.Z})
	}
	k := Corners{
		FrontTopLeft:     corner(-1, 1, -1),
		FrontTopRight:    corner(1, 1, -1),
		FrontBottomLeft:  corner(-1, -1, -1),
		FrontBottomRight: corner(1, -1, -1),
		BackTopLeft:      corner(-1, 1, 1),
		BackTopRight:     corner(1, 1, 1),
		BackBottomLeft:   corner(-1, -1, 1),
		BackBottomRight:  corner(1, -1, 1),
	}
	g.Corners = k

	g.Colliders = [6]Collider{
		g.collider(Front, k.FrontTopLeft, k.FrontTopRight, k.FrontBottomLeft, k.FrontBottomRight),
		g.collider(Back, k.BackTopLeft, k.BackTopRight, k.BackBottomLeft, k.BackBottomRight),
		g.collider(Left, k.FrontTopLeft, k.FrontBottomLeft, k.BackTopLeft, k.BackBottomLeft),
		g.collider(Right, k.FrontTopRight, k.FrontBottomRight, k.BackTopRight, k.BackBottomRight),
		g.collider(Top, k.FrontTopRight, k.FrontTopLeft, k.BackTopLeft, k.BackTopRight),
		g.collider(Bottom, k.FrontBottomRight, k.FrontBottomLeft, k.BackBottomLeft, k.BackBottomRight),
	}

	g.Edges = make([]Line, 0, 12)
	edge := func(a, b r3.Vec) {
		g.Edges = append(g.Edges, Line{From: a, To: b, Width: cfg.BoxLineWidth, Kind: BoxLine})
	}
	edge(k.FrontTopLeft, k.FrontTopRight)
	edge(k.FrontBottomLeft, k.FrontBottomRight)
	edge(k.FrontTopLeft, k.FrontBottomLeft)
	edge(k.FrontTopRight, k.FrontBottomRight)

	edge(k.BackTopLeft, k.BackTopRight)
	edge(k.BackBottomLeft, k.BackBottomRight)
	edge(k.BackTopLeft, k.BackBottomLeft)
	edge(k.BackTopRight, k.BackBottomRight)

	edge(k.FrontTopLeft, k.BackTopLeft)
	edge(k.FrontTopRight, k.BackTopRight)
	edge(k.FrontBottomLeft, k.BackBottomLeft)
	edge(k.FrontBottomRight, k.BackBottomRight)

	perDivision := 8
	if cfg.DrawNearSide {
		perDivision += 4
	}
	g.GridLines = make([]Line, 0, perDivision*cfg.Divisions)
	grid := func(a, b, offset r3.Vec) {
		g.GridLines = append(g.GridLines, Line{
			From:  r3.Add(a, offset),
			To:    r3.Add(b, offset),
			Width: cfg.GridLineWidth,
			Kind:  GridLine,
		})
	}

	step := r3.Scale(2/float64(cfg.Divisions), s)
	for i := 1; i <= cfg.Divisions; i++ {
		f := float64(i)
		dx := r3.Vec{X: step.X * f}
		dy := r3.Vec{Y: step.Y * f}
		dz := r3.Vec{Z: step.Z * f}

		grid(k.FrontTopLeft, k.BackTopLeft, dx)
		grid(k.FrontBottomLeft, k.BackBottomLeft, dx)

		if cfg.DrawNearSide {
			grid(k.FrontTopLeft, k.FrontTopRight, dz)
			grid(k.FrontBottomLeft, k.FrontBottomRight, dz)
			grid(k.FrontBottomLeft, k.FrontBottomRight, dy)
			grid(k.FrontTopLeft, k.FrontBottomLeft, dx)
		}

		grid(k.BackBottomLeft, k.BackBottomRight, dy)
		grid(k.BackTopLeft, k.BackBottomLeft, dx)

		grid(k.FrontTopLeft, k.FrontBottomLeft, dz)
		grid(k.FrontTopRight, k.FrontBottomRight, dz)
		grid(k.FrontBottomLeft, k.BackBottomLeft, dy)
		grid(k.FrontBottomRight, k.BackBottomRight, dy)
	}

	return g, nil
}

func (g *Geometry) collider(face Face, points ...r3.Vec) Collider {
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	minSize := g.Config.ColliderMultiplier * g.Config.BoxLineWidth
	size := r3.Sub(hi, lo)
	return Collider{
		Face:   face,
		Center: r3.Scale(0.5, r3.Add(lo, hi)),
		Size: r3.Vec{
			X: math.Max(minSize, size.X),
			Y: math.Max(minSize, size.Y),
			Z: math.Max(minSize, size.Z),
		},
	}
}

// Lines returns the box edges followed by the grid lines.
func (g *Geometry) Lines() []Line {
	lines := make([]Line, 0, len(g.Edges)+len(g.GridLines))
	lines = append(lines, g.Edges...)
	return append(lines, g.GridLines...)
}

// Bounds returns the minimum and maximum corners of the box.
func (g *Geometry) Bounds() (lo, hi r3.Vec) {
	return g.Corners.FrontBottomLeft, g.Corners.BackTopRight
}

// Contains reports whether p lies inside the box or on its surface.
func (g *Geometry) Contains(p r3.Vec) bool {
	lo, hi := g.Bounds()
	return p.X >= lo.X && p.X <= hi.X &&
		p.Y >= lo.Y && p.Y <= hi.Y &&
		p.Z >= lo.Z && p.Z <= hi.Z
}
