package pointcloud

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// Snapshot is a self-contained, serialisable copy of one populated frame.
// Payload holds the records in raw interop form (stride float32 values per
// record, little endian), compressed as Compression says. Checksum is the
// BLAKE3 digest of the uncompressed payload.
type Snapshot struct {
	ID          string          `cbor:"id"`
	Descriptor  FrameDescriptor `cbor:"descriptor"`
	Metadata    *Metadata       `cbor:"metadata,omitempty"`
	Stride      int             `cbor:"stride"`
	Compression Compression     `cbor:"compression"`
	RawLength   int             `cbor:"raw_length"`
	Checksum    [32]byte        `cbor:"checksum"`
	Payload     []byte          `cbor:"payload"`
}

// EncodeSnapshot captures the current frame of b. Compression falls back to
// none when it would not shrink the payload.
func EncodeSnapshot[T any, PT Record[T]](b *Buffer[T, PT], stride int, c Compression) (*Snapshot, error) {
	if b == nil {
		return nil, ErrNilBuffer
	}
	if need := rawComponents[T, PT](); stride < need {
		return nil, fmt.Errorf("snapshot stride %d, record needs %d: %w", stride, need, ErrInvalidStride)
	}

	samples := make([]float32, 0, b.size*stride)
	b.Each(func(_ int, p PT) bool {
		samples = p.AppendRaw(samples, stride)
		return true
	})
	raw := float32sToBytes(samples)

	payload, err := compressPayload(raw, c)
	if errors.Is(err, errIncompressible) {
		payload, c = raw, CompressionNone
	} else if err != nil {
		return nil, err
	}

	return &Snapshot{
		ID:          uuid.NewString(),
		Descriptor:  b.Descriptor(),
		Metadata:    b.metadata,
		Stride:      stride,
		Compression: c,
		RawLength:   len(raw),
		Checksum:    blake3.Sum256(raw),
		Payload:     payload,
	}, nil
}

// Samples decompresses and verifies the payload.
func (s *Snapshot) Samples() ([]float32, error) {
	if err := checkRawLength(s.Payload, s.Compression, s.RawLength); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", s.ID, err)
	}
	raw, err := decompressPayload(s.Payload, s.Compression, s.RawLength)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", s.ID, err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("snapshot %s: %d bytes is not a float32 array: %w", s.ID, len(raw), ErrCorruptSnapshot)
	}
	if blake3.Sum256(raw) != s.Checksum {
		return nil, fmt.Errorf("snapshot %s: %w", s.ID, ErrChecksumMismatch)
	}
	return bytesToFloat32s(raw), nil
}

// DecodeSnapshot populates dst from the snapshot as if the frame had arrived
// from the interop layer, and points dst at the snapshot's metadata. A nil
// dst is a no-op, matching PopulateFromInterop. A nil s returns ErrNilSnapshot.
func DecodeSnapshot[T any, PT Record[T]](s *Snapshot, dst *Buffer[T, PT]) error {
	if dst == nil {
		return nil
	}
	if s == nil {
		return ErrNilSnapshot
	}
	samples, err := s.Samples()
	if err != nil {
		return err
	}
	if err := dst.PopulateFromInterop(s.Descriptor, samples, s.Stride); err != nil {
		return fmt.Errorf("snapshot %s: %w", s.ID, err)
	}
	dst.metadata = s.Metadata
	return nil
}

// Snapshots are encoded with Core Deterministic Encoding so the same frame
// always produces the same bytes.
var (
	snapshotEncMode cbor.EncMode
	snapshotDecMode cbor.DecMode
)

func init() {
	var err error
	snapshotEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("pointcloud: CBOR encoder initialization failed: " + err.Error())
	}
	snapshotDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("pointcloud: CBOR decoder initialization failed: " + err.Error())
	}
}

// MarshalSnapshot encodes s as a single CBOR item.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return snapshotEncMode.Marshal(s)
}

// UnmarshalSnapshot decodes a single CBOR item produced by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := snapshotDecMode.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &s, nil
}

// SnapshotWriter writes a stream of snapshots as a CBOR sequence.
type SnapshotWriter struct {
	enc   *cbor.Encoder
	count int
}

func NewSnapshotWriter(w io.Writer) *SnapshotWriter {
	return &SnapshotWriter{enc: snapshotEncMode.NewEncoder(w)}
}

// Write appends one snapshot to the stream.
func (sw *SnapshotWriter) Write(s *Snapshot) error {
	if err := sw.enc.Encode(s); err != nil {
		return fmt.Errorf("write snapshot %d: %w", sw.count, err)
	}
	sw.count++
	return nil
}

// Count is the number of snapshots written so far.
func (sw *SnapshotWriter) Count() int { return sw.count }

// SnapshotReader reads snapshots written by SnapshotWriter.
type SnapshotReader struct {
	dec   *cbor.Decoder
	count int
}

func NewSnapshotReader(r io.Reader) *SnapshotReader {
	return &SnapshotReader{dec: snapshotDecMode.NewDecoder(r)}
}

// Next returns the next snapshot, or io.EOF at the end of the stream.
func (sr *SnapshotReader) Next() (*Snapshot, error) {
	var s Snapshot
	if err := sr.dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read snapshot %d: %w", sr.count, err)
	}
	sr.count++
	return &s, nil
}

func float32sToBytes(samples []float32) []byte {
	out := make([]byte, 4*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32s(raw []byte) []float32 {
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}
