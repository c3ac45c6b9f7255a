package pointcloud

import "gonum.org/v1/gonum/spatial/r3"

// Record is the constraint for point types stored in a Buffer. The zero value
// of T is the default-initialised record; PT is its pointer type, which does
// the raw sample conversion in place.
type Record[T any] interface {
	*T

	// SetFromRaw populates the record from the interleaved sample array.
	// Record i reads RawComponents() values starting at raw[i*stride].
	SetFromRaw(raw []float32, index, stride int)

	// RawComponents is the number of leading values per stride the record
	// consumes. Strides smaller than this are rejected.
	RawComponents() int

	// AppendRaw appends exactly stride values describing the record,
	// zero padded past RawComponents.
	AppendRaw(dst []float32, stride int) []float32
}

// Positioner is implemented by records that carry a 3D position.
type Positioner interface {
	Position() r3.Vec
}

// PointXYZ is a position-only sample in sensor space (meters).
type PointXYZ struct {
	X, Y, Z float32
}

func (p *PointXYZ) SetFromRaw(raw []float32, index, stride int) {
	off := index * stride
	p.X = raw[off]
	p.Y = raw[off+1]
	p.Z = raw[off+2]
}

func (*PointXYZ) RawComponents() int { return 3 }

func (p *PointXYZ) AppendRaw(dst []float32, stride int) []float32 {
	dst = append(dst, p.X, p.Y, p.Z)
	return appendPadding(dst, stride-3)
}

// Position returns the point as a float64 vector.
func (p *PointXYZ) Position() r3.Vec {
	return r3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}

// PointXYZConfidence is a position plus the sensor's per-sample confidence,
// normally in [0, 1].
type PointXYZConfidence struct {
	X, Y, Z    float32
	Confidence float32
}

func (p *PointXYZConfidence) SetFromRaw(raw []float32, index, stride int) {
	off := index * stride
	p.X = raw[off]
	p.Y = raw[off+1]
	p.Z = raw[off+2]
	p.Confidence = raw[off+3]
}

func (*PointXYZConfidence) RawComponents() int { return 4 }

func (p *PointXYZConfidence) AppendRaw(dst []float32, stride int) []float32 {
	dst = append(dst, p.X, p.Y, p.Z, p.Confidence)
	return appendPadding(dst, stride-4)
}

// Position returns the point as a float64 vector.
func (p *PointXYZConfidence) Position() r3.Vec {
	return r3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}

func appendPadding(dst []float32, n int) []float32 {
	for ; n > 0; n-- {
		dst = append(dst, 0)
	}
	return dst
}

// rawComponents reports RawComponents for a record type without needing an
// instance.
func rawComponents[T any, PT Record[T]]() int {
	var zero T
	return PT(&zero).RawComponents()
}

// XYZBuffer is a buffer of position-only records.
type XYZBuffer = Buffer[PointXYZ, *PointXYZ]

// XYZConfidenceBuffer is a buffer of position plus confidence records.
type XYZConfidenceBuffer = Buffer[PointXYZConfidence, *PointXYZConfidence]
