package pointcloud

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a snapshot payload is compressed. The values
// are written into recorded streams and must not change.
type Compression uint8

const (
	CompressionNone Compression = 0

	// CompressionLZ4 is LZ4 block compression.
	CompressionLZ4 Compression = 1

	// CompressionZstd is zstd at the default level.
	CompressionZstd Compression = 2

	// CompressionBG4LZ4 groups the bytes of each float32 by position before
	// LZ4. Neighbouring depth samples share exponents, so the high-order
	// byte planes compress well.
	CompressionBG4LZ4 Compression = 3
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	case CompressionBG4LZ4:
		return "bg4_lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses the String form of a Compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	case "bg4_lz4":
		return CompressionBG4LZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// errIncompressible means compression would not shrink the payload; the
// caller stores it uncompressed instead.
var errIncompressible = errors.New("payload is incompressible")

func compressPayload(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		return compressLZ4(data)
	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return nil, errIncompressible
		}
		return compressed, nil
	case CompressionBG4LZ4:
		return compressLZ4(byteGroup4(data))
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}

const (
	// MaxSnapshotBytes bounds the decompressed size of one snapshot payload.
	MaxSnapshotBytes = 1 << 30

	// An LZ4 block cannot expand by more than this factor.
	lz4MaxRatio = 255
)

// checkRawLength rejects recorded lengths that no valid payload of the given
// compression could decompress to. It runs before any allocation sized by
// rawLength.
func checkRawLength(data []byte, c Compression, rawLength int) error {
	if rawLength < 0 || rawLength%4 != 0 {
		return fmt.Errorf("raw length %d is not a float32 array: %w", rawLength, ErrCorruptSnapshot)
	}
	if rawLength > MaxSnapshotBytes {
		return fmt.Errorf("raw length %d exceeds %d: %w", rawLength, MaxSnapshotBytes, ErrCorruptSnapshot)
	}
	switch c {
	case CompressionLZ4, CompressionBG4LZ4:
		if rawLength > lz4MaxRatio*len(data) {
			return fmt.Errorf("raw length %d from %d lz4 bytes: %w", rawLength, len(data), ErrCorruptSnapshot)
		}
	}
	return nil
}

func decompressPayload(data []byte, c Compression, rawLength int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(data) != rawLength {
			return nil, fmt.Errorf("payload is %d bytes, expected %d: %w", len(data), rawLength, ErrCorruptSnapshot)
		}
		return data, nil
	case CompressionLZ4:
		return decompressLZ4(data, rawLength)
	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(out) != rawLength {
			return nil, fmt.Errorf("zstd produced %d bytes, expected %d: %w", len(out), rawLength, ErrCorruptSnapshot)
		}
		return out, nil
	case CompressionBG4LZ4:
		grouped, err := decompressLZ4(data, rawLength)
		if err != nil {
			return nil, err
		}
		return byteUngroup4(grouped), nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock reports 0 for incompressible input.
	if n == 0 || n >= len(data) {
		return nil, errIncompressible
	}
	return dst[:n], nil
}

func decompressLZ4(data []byte, rawLength int) ([]byte, error) {
	dst := make([]byte, rawLength)
	n, err := lz4.UncompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if n != rawLength {
		return nil, fmt.Errorf("lz4 produced %d bytes, expected %d: %w", n, rawLength, ErrCorruptSnapshot)
	}
	return dst, nil
}

// zstd encoders and decoders are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("pointcloud: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxSnapshotBytes))
	if err != nil {
		panic("pointcloud: zstd decoder initialization failed: " + err.Error())
	}
}

// byteGroup4 moves byte 0 of every 4-byte group first, then byte 1, and so
// on. Trailing bytes that do not fill a group are kept in place at the end.
func byteGroup4(data []byte) []byte {
	groups := len(data) / 4
	out := make([]byte, len(data))
	for i := 0; i < groups; i++ {
		out[i] = data[i*4]
		out[groups+i] = data[i*4+1]
		out[groups*2+i] = data[i*4+2]
		out[groups*3+i] = data[i*4+3]
	}
	copy(out[groups*4:], data[groups*4:])
	return out
}

func byteUngroup4(data []byte) []byte {
	groups := len(data) / 4
	out := make([]byte, len(data))
	for i := 0; i < groups; i++ {
		out[i*4] = data[i]
		out[i*4+1] = data[groups+i]
		out[i*4+2] = data[groups*2+i]
		out[i*4+3] = data[groups*3+i]
	}
	copy(out[groups*4:], data[groups*4:])
	return out
}
