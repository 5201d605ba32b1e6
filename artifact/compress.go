package artifact

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the algorithm applied to snapshot payloads.
type Compression uint8

const (
	// CompressionNone stores payloads raw.
	CompressionNone Compression = 0

	// CompressionLZ4 uses LZ4 block compression (fastest, lighter ratio).
	CompressionLZ4 Compression = 1

	// CompressionZstd uses zstd block compression (better ratio).
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

func (c Compression) valid() bool {
	switch c {
	case CompressionNone, CompressionLZ4, CompressionZstd:
		return true
	default:
		return false
	}
}

// zstd coders are expensive to construct, so they are pooled.
var (
	zstdEncoderPool = sync.Pool{
		New: func() any {
			enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
			return enc
		},
	}

	zstdDecoderPool = sync.Pool{
		New: func() any {
			dec, _ := zstd.NewReader(nil)
			return dec
		},
	}
)

// compressPayload compresses data with c. A zero stored size reports that
// the payload was kept raw, either because c is CompressionNone or because
// compression did not pay for itself.
func compressPayload(data []byte, c Compression) (stored []byte, storedSize int64, err error) {
	if c == CompressionNone || len(data) == 0 {
		return data, 0, nil
	}

	var compressed []byte

	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("lz4 compression failed: %w", err)
		}
		compressed = buf[:n] // n == 0 means incompressible

	case CompressionZstd:
		enc := zstdEncoderPool.Get().(*zstd.Encoder)
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)

	default:
		return nil, 0, fmt.Errorf("unsupported compression: %s", c)
	}

	// Keep the raw payload when compression does not pay for itself.
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		return data, 0, nil
	}

	return compressed, int64(len(compressed)), nil
}

// decompressPayload reverses compressPayload for a payload that was stored
// compressed (non-zero stored size in the header).
func decompressPayload(payload []byte, c Compression, uncompressedSize int64) ([]byte, error) {
	switch c {
	case CompressionLZ4:
		out := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		if int64(n) != uncompressedSize {
			return nil, fmt.Errorf("%w: lz4 payload decodes to %d bytes, header says %d", ErrCorruptSnapshot, n, uncompressedSize)
		}
		return out, nil

	case CompressionZstd:
		dec := zstdDecoderPool.Get().(*zstd.Decoder)
		out, err := dec.DecodeAll(payload, make([]byte, 0, uncompressedSize))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("zstd decompression failed: %w", err)
		}
		if int64(len(out)) != uncompressedSize {
			return nil, fmt.Errorf("%w: zstd payload decodes to %d bytes, header says %d", ErrCorruptSnapshot, len(out), uncompressedSize)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: compression %s cannot carry a compressed payload", ErrCorruptSnapshot, c)
	}
}
