package pointcloud

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawFrame builds n stride-4 samples where record i is (i, 10i, 100i, i/10).
func rawFrame(n int) []float32 {
	raw := make([]float32, 0, n*4)
	for i := 0; i < n; i++ {
		f := float32(i)
		raw = append(raw, f, 10*f, 100*f, f/10)
	}
	return raw
}

func TestNewBuffer(t *testing.T) {
	t.Parallel()

	for _, capacity := range []int{0, 1, 10, 1024} {
		b := NewBuffer[PointXYZConfidence](capacity, nil)
		assert.Equal(t, capacity, b.Capacity())
		assert.Equal(t, 0, b.Size())
		assert.Equal(t, 0, b.Width())
		assert.Equal(t, 0, b.Height())
		assert.Equal(t, int64(0), b.FrameID())
		assert.False(t, b.Valid())
		assert.Zero(t, b.ArrivalTimestamp())
		assert.Zero(t, b.CompletionTimestamp())
		assert.Nil(t, b.Metadata())
	}

	t.Run("negative capacity is empty", func(t *testing.T) {
		b := NewBuffer[PointXYZ](-5, nil)
		assert.Equal(t, 0, b.Capacity())
	})

	t.Run("keeps metadata reference", func(t *testing.T) {
		md := &Metadata{Width: 640, Height: 480}
		b := NewBuffer[PointXYZ](4, md)
		assert.Same(t, md, b.Metadata())
	})
}

func TestAdoptBuffer(t *testing.T) {
	t.Parallel()

	md := &Metadata{Width: 320, Height: 240}

	t.Run("adopts without copying", func(t *testing.T) {
		records := make([]PointXYZ, 8)
		b, err := AdoptBuffer[PointXYZ](records, 5, md, 42)
		require.NoError(t, err)

		assert.Equal(t, 8, b.Capacity())
		assert.Equal(t, 5, b.Size())
		assert.Equal(t, 1, b.Height())
		assert.Equal(t, 320, b.Width())
		assert.Equal(t, int64(42), b.FrameID())
		assert.False(t, b.Valid(), "adopted buffers start invalid")

		records[0].X = 7
		p, ok := b.At(0)
		require.True(t, ok)
		assert.Equal(t, float32(7), p.X)

		b.SetValid(true)
		assert.True(t, b.Valid())
	})

	t.Run("rejects more points than records", func(t *testing.T) {
		_, err := AdoptBuffer[PointXYZ](make([]PointXYZ, 2), 3, md, 0)
		assert.ErrorIs(t, err, ErrCapacityExceeded)
	})

	t.Run("rejects negative point count", func(t *testing.T) {
		_, err := AdoptBuffer[PointXYZ](make([]PointXYZ, 2), -1, md, 0)
		assert.ErrorIs(t, err, ErrCapacityExceeded)
	})

	t.Run("requires metadata", func(t *testing.T) {
		_, err := AdoptBuffer[PointXYZ](make([]PointXYZ, 2), 1, nil, 0)
		assert.ErrorIs(t, err, ErrNilMetadata)
	})
}

func TestPopulateFromInterop_Scenario(t *testing.T) {
	t.Parallel()

	b := NewBuffer[PointXYZConfidence](10, nil)
	desc := FrameDescriptor{
		Valid:               true,
		Size:                3,
		Height:              1,
		Width:               3,
		FrameID:             7,
		ArrivalTimestamp:    1.0,
		CompletionTimestamp: 2.0,
	}
	raw := []float32{
		1, 2, 3, 0.5,
		4, 5, 6, 0.6,
		7, 8, 9, 0.7,
	}

	require.NoError(t, b.PopulateFromInterop(desc, raw, 4))

	assert.Equal(t, 3, b.Size())
	assert.True(t, b.Valid())
	assert.Equal(t, int64(7), b.FrameID())
	assert.Equal(t, 1.0, b.Latency())
	if diff := cmp.Diff(desc, b.Descriptor()); diff != "" {
		t.Errorf("descriptor mismatch (-want +got):\n%s", diff)
	}

	want := []PointXYZConfidence{
		{X: 1, Y: 2, Z: 3, Confidence: 0.5},
		{X: 4, Y: 5, Z: 6, Confidence: 0.6},
		{X: 7, Y: 8, Z: 9, Confidence: 0.7},
	}
	if diff := cmp.Diff(want, b.AppendPopulated(nil)); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	for i := 3; i < 10; i++ {
		assert.Equal(t, PointXYZConfidence{}, b.points[i], "record %d must stay default", i)
	}
}

func TestPopulateFromInterop_LeavesTailUntouched(t *testing.T) {
	t.Parallel()

	b := NewBuffer[PointXYZConfidence](6, nil)
	require.NoError(t, b.PopulateFromInterop(FrameDescriptor{Valid: true, Size: 6, FrameID: 1}, rawFrame(6), 4))
	before := append([]PointXYZConfidence(nil), b.points...)

	next := []float32{-1, -2, -3, 1, -4, -5, -6, 1}
	require.NoError(t, b.PopulateFromInterop(FrameDescriptor{Valid: true, Size: 2, FrameID: 2}, next, 4))

	assert.Equal(t, 2, b.Size())
	assert.Equal(t, PointXYZConfidence{X: -1, Y: -2, Z: -3, Confidence: 1}, b.points[0])
	assert.Equal(t, PointXYZConfidence{X: -4, Y: -5, Z: -6, Confidence: 1}, b.points[1])
	if diff := cmp.Diff(before[2:], b.points[2:]); diff != "" {
		t.Errorf("stale records changed (-want +got):\n%s", diff)
	}

	_, ok := b.At(2)
	assert.False(t, ok, "stale records are not readable")
	assert.Nil(t, b.Record(2))
}

func TestPopulateFromInterop_Idempotent(t *testing.T) {
	t.Parallel()

	b := NewBuffer[PointXYZConfidence](8, nil)
	desc := FrameDescriptor{Valid: true, Size: 5, Width: 5, Height: 1, FrameID: 3, ArrivalTimestamp: 0.25, CompletionTimestamp: 0.5}
	raw := rawFrame(5)

	require.NoError(t, b.PopulateFromInterop(desc, raw, 4))
	first := append([]PointXYZConfidence(nil), b.points...)
	firstDesc := b.Descriptor()

	require.NoError(t, b.PopulateFromInterop(desc, raw, 4))
	assert.Equal(t, firstDesc, b.Descriptor())
	if diff := cmp.Diff(first, b.points); diff != "" {
		t.Errorf("second populate changed state (-first +second):\n%s", diff)
	}
}

func TestPopulateFromInterop_ZeroSize(t *testing.T) {
	t.Parallel()

	b := NewBuffer[PointXYZ](4, nil)
	require.NoError(t, b.PopulateFromInterop(FrameDescriptor{Valid: true, Size: 4, FrameID: 1}, rawFrame(4), 4))
	before := append([]PointXYZ(nil), b.points...)

	// Stride and raw data are irrelevant when nothing is populated.
	require.NoError(t, b.PopulateFromInterop(FrameDescriptor{Valid: false, Size: 0, FrameID: 2}, nil, 0))
	assert.Equal(t, 0, b.Size())
	assert.False(t, b.Valid())
	assert.Equal(t, int64(2), b.FrameID())
	assert.Equal(t, before, b.points)
}

func TestPopulateFromInterop_StrideThree(t *testing.T) {
	t.Parallel()

	b := NewBuffer[PointXYZ](2, nil)
	raw := []float32{1, 2, 3, 4, 5, 6}
	require.NoError(t, b.PopulateFromInterop(FrameDescriptor{Valid: true, Size: 2}, raw, 3))

	assert.Equal(t, []PointXYZ{{1, 2, 3}, {4, 5, 6}}, b.AppendPopulated(nil))
}

func TestPopulateFromInterop_ContractViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		desc    FrameDescriptor
		raw     []float32
		stride  int
		wantErr error
	}{
		{"size over capacity", FrameDescriptor{Size: 5}, rawFrame(5), 4, ErrCapacityExceeded},
		{"negative size", FrameDescriptor{Size: -1}, rawFrame(1), 4, ErrCapacityExceeded},
		{"short raw data", FrameDescriptor{Size: 3}, rawFrame(2), 4, ErrInsufficientRawData},
		{"stride below record width", FrameDescriptor{Size: 2}, rawFrame(2), 3, ErrInvalidStride},
		{"zero stride", FrameDescriptor{Size: 1}, rawFrame(1), 0, ErrInvalidStride},
		{"stride overflowing size*stride", FrameDescriptor{Size: 2}, rawFrame(2), math.MaxInt/2 + 1, ErrInsufficientRawData},
		{"stride past raw data", FrameDescriptor{Size: 2}, rawFrame(2), 5, ErrInsufficientRawData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer[PointXYZConfidence](4, nil)
			require.NoError(t, b.PopulateFromInterop(FrameDescriptor{Valid: true, Size: 1, FrameID: 9}, rawFrame(1), 4))
			before := b.Descriptor()

			tt.desc.Valid = true
			err := b.PopulateFromInterop(tt.desc, tt.raw, tt.stride)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, before, b.Descriptor(), "failed populate must not modify the buffer")
		})
	}
}

func TestPopulateFromInterop_NilBuffer(t *testing.T) {
	t.Parallel()

	var b *XYZBuffer
	assert.NoError(t, b.PopulateFromInterop(FrameDescriptor{Valid: true, Size: 3}, rawFrame(3), 4))
}

func TestDeepCopyTo_Scenario(t *testing.T) {
	t.Parallel()

	md := &Metadata{Width: 3, Height: 1, SensorID: "depth-0"}
	src := NewBuffer[PointXYZConfidence](10, md)
	desc := FrameDescriptor{Valid: true, Size: 3, Height: 1, Width: 3, FrameID: 7, ArrivalTimestamp: 1.0, CompletionTimestamp: 2.0}
	require.NoError(t, src.PopulateFromInterop(desc, rawFrame(3), 4))

	dst := &XYZConfidenceBuffer{}
	require.NoError(t, src.DeepCopyTo(dst))

	assert.Equal(t, 3, dst.Capacity(), "fresh destination holds exactly size records")
	if diff := cmp.Diff(src.Descriptor(), dst.Descriptor()); diff != "" {
		t.Errorf("scalar fields differ (-src +dst):\n%s", diff)
	}
	assert.Same(t, md, dst.Metadata())
	if diff := cmp.Diff(src.AppendPopulated(nil), dst.AppendPopulated(nil)); diff != "" {
		t.Errorf("records differ (-src +dst):\n%s", diff)
	}

	dst.Record(0).X = 99
	srcFirst, _ := src.At(0)
	assert.Equal(t, float32(0), srcFirst.X, "mutating destination must not affect source")

	src.Record(1).Y = -1
	dstSecond, _ := dst.At(1)
	assert.Equal(t, float32(10), dstSecond.Y, "mutating source must not affect destination")
}

func TestDeepCopyTo_AllocatedDestination(t *testing.T) {
	t.Parallel()

	src := NewBuffer[PointXYZ](6, nil)
	require.NoError(t, src.PopulateFromInterop(FrameDescriptor{Valid: true, Size: 2, FrameID: 4}, rawFrame(2), 4))

	t.Run("keeps destination capacity and tail", func(t *testing.T) {
		dst := NewBuffer[PointXYZ](5, nil)
		require.NoError(t, dst.PopulateFromInterop(FrameDescriptor{Valid: true, Size: 5}, []float32{
			9, 9, 9, 0, 9, 9, 9, 0, 9, 9, 9, 0, 9, 9, 9, 0, 9, 9, 9, 0,
		}, 4))

		require.NoError(t, src.DeepCopyTo(dst))
		assert.Equal(t, 5, dst.Capacity())
		assert.Equal(t, 2, dst.Size())
		assert.Equal(t, PointXYZ{9, 9, 9}, dst.points[2])
	})

	t.Run("rejects destination shorter than size", func(t *testing.T) {
		dst := NewBuffer[PointXYZ](1, nil)
		err := src.DeepCopyTo(dst)
		assert.ErrorIs(t, err, ErrCapacityExceeded)
		assert.Equal(t, 0, dst.Size())
	})

	t.Run("nil destination", func(t *testing.T) {
		assert.ErrorIs(t, src.DeepCopyTo(nil), ErrNilDestination)
	})

	t.Run("self copy is a no-op", func(t *testing.T) {
		assert.NoError(t, src.DeepCopyTo(src))
		assert.Equal(t, 2, src.Size())
	})
}

func TestDeepCopyTo_PropagatesInvalid(t *testing.T) {
	t.Parallel()

	src := NewBuffer[PointXYZ](4, nil)
	require.NoError(t, src.PopulateFromInterop(FrameDescriptor{Valid: false, Size: 2, FrameID: 11}, rawFrame(2), 4))

	dst := src.Clone()
	assert.False(t, dst.Valid())
	assert.Equal(t, 2, dst.Size())
	assert.Equal(t, int64(11), dst.FrameID())
}

func TestClone_Independent(t *testing.T) {
	t.Parallel()

	src := NewBuffer[PointXYZConfidence](4, nil)
	require.NoError(t, src.PopulateFromInterop(FrameDescriptor{Valid: true, Size: 4, FrameID: 1}, rawFrame(4), 4))
	snap := src.Clone()

	// The producer moves on to the next frame in place.
	require.NoError(t, src.PopulateFromInterop(FrameDescriptor{Valid: true, Size: 4, FrameID: 2}, rawFrame(5)[4:], 4))

	assert.Equal(t, int64(1), snap.FrameID())
	first, _ := snap.At(0)
	assert.Equal(t, PointXYZConfidence{}, first)

	var nilBuf *XYZBuffer
	assert.Nil(t, nilBuf.Clone())
}

func TestEach_StopsEarly(t *testing.T) {
	t.Parallel()

	b := NewBuffer[PointXYZ](5, nil)
	require.NoError(t, b.PopulateFromInterop(FrameDescriptor{Valid: true, Size: 5}, rawFrame(5), 4))

	var seen []int
	b.Each(func(i int, p *PointXYZ) bool {
		seen = append(seen, i)
		return i < 2
	})
	assert.Equal(t, []int{0, 1, 2}, seen)
}
