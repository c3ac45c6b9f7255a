package pointcloud

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Positions appends the positions of the populated records of a valid
// buffer to dst. Invalid buffers and records without a position contribute
// nothing.
func Positions[T any, PT Record[T]](b *Buffer[T, PT], dst []r3.Vec) []r3.Vec {
	if b == nil || !b.valid {
		return dst
	}
	b.Each(func(_ int, p PT) bool {
		pos, ok := any(p).(Positioner)
		if !ok {
			return false
		}
		dst = append(dst, pos.Position())
		return true
	})
	return dst
}

// Bounds returns the axis-aligned bounding box of the populated records.
// ok is false for nil, invalid or empty buffers.
func Bounds[T any, PT Record[T]](b *Buffer[T, PT]) (lo, hi r3.Vec, ok bool) {
	positions := Positions(b, nil)
	if len(positions) == 0 {
		return r3.Vec{}, r3.Vec{}, false
	}
	lo = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range positions {
		lo.X, hi.X = math.Min(lo.X, p.X), math.Max(hi.X, p.X)
		lo.Y, hi.Y = math.Min(lo.Y, p.Y), math.Max(hi.Y, p.Y)
		lo.Z, hi.Z = math.Min(lo.Z, p.Z), math.Max(hi.Z, p.Z)
	}
	return lo, hi, true
}

// Centroid returns the mean position of the populated records.
func Centroid[T any, PT Record[T]](b *Buffer[T, PT]) (r3.Vec, bool) {
	positions := Positions(b, nil)
	if len(positions) == 0 {
		return r3.Vec{}, false
	}
	var sum r3.Vec
	for _, p := range positions {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(positions)), sum), true
}
