package gridbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Divisions = 0
	_, err := Build(cfg)
	assert.ErrorIs(t, err, ErrInvalidDivisions)

	cfg = DefaultConfig()
	cfg.HalfExtents.Y = -1
	_, err = Build(cfg)
	assert.ErrorIs(t, err, ErrInvalidExtents)
}

func TestBuild_Corners(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Center = r3.Vec{X: 10, Y: 20, Z: 30}
	cfg.HalfExtents = r3.Vec{X: 1, Y: 2, Z: 3}
	g, err := Build(cfg)
	require.NoError(t, err)

	assert.Equal(t, r3.Vec{X: 9, Y: 22, Z: 27}, g.Corners.FrontTopLeft)
	assert.Equal(t, r3.Vec{X: 11, Y: 18, Z: 33}, g.Corners.BackBottomRight)

	lo, hi := g.Bounds()
	assert.Equal(t, r3.Vec{X: 9, Y: 18, Z: 27}, lo)
	assert.Equal(t, r3.Vec{X: 11, Y: 22, Z: 33}, hi)
	assert.True(t, g.Contains(cfg.Center))
	assert.False(t, g.Contains(r3.Vec{X: 12, Y: 20, Z: 30}))
}

func TestBuild_LineCounts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		divisions int
		nearSide  bool
		wantGrid  int
	}{
		{1, false, 8},
		{4, false, 32},
		{4, true, 48},
		{7, true, 84},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Divisions = tt.divisions
		cfg.DrawNearSide = tt.nearSide
		g, err := Build(cfg)
		require.NoError(t, err)

		assert.Len(t, g.Edges, 12)
		assert.Len(t, g.GridLines, tt.wantGrid, "divisions=%d near=%v", tt.divisions, tt.nearSide)
		assert.Len(t, g.Lines(), 12+tt.wantGrid)
	}
}

func TestBuild_LineKindsAndWidths(t *testing.T) {
	t.Parallel()

	g, err := Build(DefaultConfig())
	require.NoError(t, err)

	for _, l := range g.Edges {
		assert.Equal(t, BoxLine, l.Kind)
		assert.Equal(t, 0.05, l.Width)
	}
	for _, l := range g.GridLines {
		assert.Equal(t, GridLine, l.Kind)
		assert.Equal(t, 0.01, l.Width)
	}
	assert.Equal(t, "box", BoxLine.String())
	assert.Equal(t, "grid", GridLine.String())
}

func TestBuild_GridLinesStayOnSurface(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.HalfExtents = r3.Vec{X: 2, Y: 1, Z: 0.5}
	cfg.DrawNearSide = true
	g, err := Build(cfg)
	require.NoError(t, err)

	const eps = 1e-9
	onSurface := func(p r3.Vec) bool {
		lo, hi := g.Bounds()
		near := func(a, b float64) bool { return a-b < eps && b-a < eps }
		return near(p.X, lo.X) || near(p.X, hi.X) ||
			near(p.Y, lo.Y) || near(p.Y, hi.Y) ||
			near(p.Z, lo.Z) || near(p.Z, hi.Z)
	}
	lo, hi := g.Bounds()
	for _, l := range g.GridLines {
		for _, p := range []r3.Vec{l.From, l.To} {
			assert.True(t, p.X >= lo.X-eps && p.X <= hi.X+eps &&
				p.Y >= lo.Y-eps && p.Y <= hi.Y+eps &&
				p.Z >= lo.Z-eps && p.Z <= hi.Z+eps, "grid point %v outside box", p)
			assert.True(t, onSurface(p), "grid point %v is not on a face", p)
		}
	}
}

func TestBuild_FirstDivisionSpacing(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Divisions = 4
	g, err := Build(cfg)
	require.NoError(t, err)

	// The first line runs along the top at x = -1 + 2/4.
	first := g.GridLines[0]
	assert.InDelta(t, -0.5, first.From.X, 1e-12)
	assert.Equal(t, g.Corners.FrontTopLeft.Z, first.From.Z)
	assert.Equal(t, g.Corners.BackTopLeft.Z, first.To.Z)
}

func TestBuild_Colliders(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.HalfExtents = r3.Vec{X: 1, Y: 0.1, Z: 2}
	g, err := Build(cfg)
	require.NoError(t, err)

	minSize := cfg.ColliderMultiplier * cfg.BoxLineWidth
	for i, c := range g.Colliders {
		assert.Equal(t, Face(i), c.Face)
		assert.GreaterOrEqual(t, c.Size.X, minSize, c.Face.String())
		assert.GreaterOrEqual(t, c.Size.Y, minSize, c.Face.String())
		assert.GreaterOrEqual(t, c.Size.Z, minSize, c.Face.String())
	}

	front := g.Colliders[Front]
	assert.Equal(t, r3.Vec{X: 0, Y: 0, Z: -2}, front.Center)
	assert.Equal(t, r3.Vec{X: 2, Y: 0.5, Z: 0.5}, front.Size, "thin dimensions are padded")

	top := g.Colliders[Top]
	assert.Equal(t, r3.Vec{X: 0, Y: 0.1, Z: 0}, top.Center)
	assert.Equal(t, r3.Vec{X: 2, Y: 0.5, Z: 4}, top.Size)
	assert.Equal(t, "top", Top.String())
}
