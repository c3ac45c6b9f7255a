package pointcloud

import "errors"

var (
	// ErrCapacityExceeded is returned when a frame or adopted record count
	// does not fit the allocated records.
	ErrCapacityExceeded = errors.New("pointcloud: capacity exceeded")

	// ErrInsufficientRawData is returned when the raw sample array holds
	// fewer than size*stride values.
	ErrInsufficientRawData = errors.New("pointcloud: insufficient raw data")

	// ErrInvalidStride is returned when the stride is smaller than the
	// number of values a record consumes.
	ErrInvalidStride = errors.New("pointcloud: invalid stride")

	// ErrNilMetadata is returned when adopting records without metadata.
	ErrNilMetadata = errors.New("pointcloud: nil metadata")

	// ErrNilDestination is returned by DeepCopyTo with a nil destination.
	ErrNilDestination = errors.New("pointcloud: nil destination")
)

var (
	// ErrNilBuffer is returned when encoding a snapshot of a nil buffer.
	ErrNilBuffer = errors.New("pointcloud: nil buffer")

	// ErrNilSnapshot is returned when decoding a nil snapshot.
	ErrNilSnapshot = errors.New("pointcloud: nil snapshot")

	// ErrCorruptSnapshot is returned when a snapshot payload does not
	// decode to the recorded length.
	ErrCorruptSnapshot = errors.New("pointcloud: corrupt snapshot")

	// ErrChecksumMismatch is returned when decoded samples do not match the
	// recorded checksum.
	ErrChecksumMismatch = errors.New("pointcloud: snapshot checksum mismatch")
)
