package pointcloud

import "fmt"

// Buffer is a fixed-capacity array of point records plus the descriptor of
// the frame they were populated from.
//
// The zero Buffer is unallocated: it has no records and is only useful as a
// DeepCopyTo destination, which allocates exactly Size records on first use.
type Buffer[T any, PT Record[T]] struct {
	points []T

	size    int
	width   int
	height  int
	frameID int64
	valid   bool

	metadata *Metadata

	arrivalTimestamp    float64
	completionTimestamp float64
}

// NewBuffer allocates capacity default-initialised records. The buffer starts
// empty and invalid. A negative capacity is treated as zero.
func NewBuffer[T any, PT Record[T]](capacity int, metadata *Metadata) *Buffer[T, PT] {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer[T, PT]{
		points:   make([]T, capacity),
		metadata: metadata,
	}
}

// AdoptBuffer wraps caller-owned records without copying them. The first
// numPoints records are treated as populated, the shape is one row of
// metadata.Width samples, and the buffer stays invalid until the caller
// marks it with SetValid.
func AdoptBuffer[T any, PT Record[T]](records []T, numPoints int, metadata *Metadata, frameID int64) (*Buffer[T, PT], error) {
	if metadata == nil {
		return nil, ErrNilMetadata
	}
	if numPoints < 0 || numPoints > len(records) {
		return nil, fmt.Errorf("adopt %d points into %d records: %w", numPoints, len(records), ErrCapacityExceeded)
	}
	return &Buffer[T, PT]{
		points:   records,
		size:     numPoints,
		width:    metadata.Width,
		height:   1,
		frameID:  frameID,
		metadata: metadata,
	}, nil
}

// PopulateFromInterop copies the descriptor onto the buffer and converts the
// first desc.Size records from raw, consuming stride values per record.
// Records at or past desc.Size are left untouched.
//
// Calling it on a nil buffer does nothing and returns nil: interop callbacks
// may fire before the owning stage has allocated its buffer.
//
// Contract violations are reported before any state is modified.
func (b *Buffer[T, PT]) PopulateFromInterop(desc FrameDescriptor, raw []float32, stride int) error {
	if b == nil {
		return nil
	}
	if desc.Size < 0 || desc.Size > len(b.points) {
		return fmt.Errorf("frame %d: size %d, capacity %d: %w", desc.FrameID, desc.Size, len(b.points), ErrCapacityExceeded)
	}
	if desc.Size > 0 {
		if need := rawComponents[T, PT](); stride < need {
			return fmt.Errorf("frame %d: stride %d, record needs %d: %w", desc.FrameID, stride, need, ErrInvalidStride)
		}
		// Compared by division so a huge stride cannot overflow size*stride.
		if stride > len(raw)/desc.Size {
			return fmt.Errorf("frame %d: have %d samples, need %d records of stride %d: %w", desc.FrameID, len(raw), desc.Size, stride, ErrInsufficientRawData)
		}
	}

	b.valid = desc.Valid
	b.size = desc.Size
	b.height = desc.Height
	b.width = desc.Width
	b.frameID = desc.FrameID
	b.arrivalTimestamp = desc.ArrivalTimestamp
	b.completionTimestamp = desc.CompletionTimestamp

	for i := 0; i < desc.Size; i++ {
		PT(&b.points[i]).SetFromRaw(raw, i, stride)
	}
	return nil
}

// DeepCopyTo copies the descriptor fields, the metadata reference and the
// first Size records into dst. An unallocated dst gets exactly Size records;
// an allocated dst must already hold at least Size records. Records in dst
// at or past Size are not touched.
//
// After the copy the two buffers share no records. A nil receiver is a
// no-op, and copying a buffer onto itself does nothing.
func (b *Buffer[T, PT]) DeepCopyTo(dst *Buffer[T, PT]) error {
	if b == nil {
		return nil
	}
	if dst == nil {
		return ErrNilDestination
	}
	if dst == b {
		return nil
	}
	if dst.points == nil {
		dst.points = make([]T, b.size)
	} else if len(dst.points) < b.size {
		return fmt.Errorf("copy frame %d: %d records into capacity %d: %w", b.frameID, b.size, len(dst.points), ErrCapacityExceeded)
	}

	dst.valid = b.valid
	dst.size = b.size
	dst.height = b.height
	dst.width = b.width
	dst.frameID = b.frameID
	dst.metadata = b.metadata
	dst.arrivalTimestamp = b.arrivalTimestamp
	dst.completionTimestamp = b.completionTimestamp

	copy(dst.points[:b.size], b.points[:b.size])
	return nil
}

// Clone returns an independent snapshot holding exactly Size records.
func (b *Buffer[T, PT]) Clone() *Buffer[T, PT] {
	if b == nil {
		return nil
	}
	dst := &Buffer[T, PT]{}
	// A fresh destination is unallocated, so DeepCopyTo cannot fail.
	_ = b.DeepCopyTo(dst)
	return dst
}

// SetValid marks the buffer usable (or not) by consumers. Adopted buffers
// start invalid and must be marked once the caller has populated them.
func (b *Buffer[T, PT]) SetValid(valid bool) { b.valid = valid }

// Capacity is the number of allocated records.
func (b *Buffer[T, PT]) Capacity() int { return len(b.points) }

// Size is the number of records belonging to the current frame.
func (b *Buffer[T, PT]) Size() int { return b.size }

// Width and Height are the logical shape of the sample grid. They are
// descriptive only and need not relate to Size or Capacity.
func (b *Buffer[T, PT]) Width() int { return b.width }

func (b *Buffer[T, PT]) Height() int { return b.height }

// FrameID identifies the sensor frame the records came from.
func (b *Buffer[T, PT]) FrameID() int64 { return b.frameID }

// Valid reports whether consumers may use the current frame.
func (b *Buffer[T, PT]) Valid() bool { return b.valid }

// Metadata returns the shared sensor description, which may be nil.
func (b *Buffer[T, PT]) Metadata() *Metadata { return b.metadata }

func (b *Buffer[T, PT]) ArrivalTimestamp() float64    { return b.arrivalTimestamp }
func (b *Buffer[T, PT]) CompletionTimestamp() float64 { return b.completionTimestamp }

// Latency is the time between raw data arrival and cloud generation
// completion, in the units of the descriptor timestamps.
func (b *Buffer[T, PT]) Latency() float64 {
	return b.completionTimestamp - b.arrivalTimestamp
}

// Descriptor reports the current frame state in interop form.
func (b *Buffer[T, PT]) Descriptor() FrameDescriptor {
	return FrameDescriptor{
		Valid:               b.valid,
		Size:                b.size,
		Height:              b.height,
		Width:               b.width,
		FrameID:             b.frameID,
		ArrivalTimestamp:    b.arrivalTimestamp,
		CompletionTimestamp: b.completionTimestamp,
	}
}

// At returns a copy of populated record i.
func (b *Buffer[T, PT]) At(i int) (T, bool) {
	if i < 0 || i >= b.size {
		var zero T
		return zero, false
	}
	return b.points[i], true
}

// Record returns populated record i for in-place modification by the
// buffer's owner, or nil when i is out of range.
func (b *Buffer[T, PT]) Record(i int) PT {
	if i < 0 || i >= b.size {
		return nil
	}
	return PT(&b.points[i])
}

// Each calls fn for every populated record in order until fn returns false.
// The record passed to fn must not be retained.
func (b *Buffer[T, PT]) Each(fn func(i int, p PT) bool) {
	for i := 0; i < b.size; i++ {
		if !fn(i, PT(&b.points[i])) {
			return
		}
	}
}

// AppendPopulated appends copies of the populated records to dst.
func (b *Buffer[T, PT]) AppendPopulated(dst []T) []T {
	return append(dst, b.points[:b.size]...)
}
