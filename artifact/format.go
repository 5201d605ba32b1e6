package artifact

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Snapshot object layout:
//
//	[0:4)   magic "ADVS"
//	[4:6)   format version (uint16, little-endian)
//	[6]     compression
//	[7]     codec name length
//	[8:12)  uncompressed payload size (uint32, little-endian)
//	[12:16) stored payload size (uint32, little-endian, 0 = stored raw)
//	[16:)   codec name, then payload
var snapMagic = [4]byte{'A', 'D', 'V', 'S'}

const (
	snapVersion        uint16 = 1
	snapHeaderFixedLen        = 16
)

var (
	// ErrInvalidMagic is returned when a stored object is not a snapshot.
	ErrInvalidMagic = errors.New("artifact: invalid snapshot magic")

	// ErrUnsupportedVersion is returned for snapshot format versions this
	// build cannot read.
	ErrUnsupportedVersion = errors.New("artifact: unsupported snapshot version")

	// ErrCorruptSnapshot is returned when a snapshot fails structural
	// validation.
	ErrCorruptSnapshot = errors.New("artifact: corrupt snapshot")
)

type snapHeader struct {
	compression      Compression
	codecName        string
	uncompressedSize int64
	storedSize       int64
}

func encodeSnapHeader(h snapHeader) ([]byte, error) {
	if len(h.codecName) == 0 || len(h.codecName) > 255 {
		return nil, fmt.Errorf("codec name %q does not fit the snapshot header", h.codecName)
	}
	if h.uncompressedSize < 0 || h.uncompressedSize > math.MaxUint32 {
		return nil, fmt.Errorf("snapshot payload of %d bytes does not fit the snapshot header", h.uncompressedSize)
	}
	if h.storedSize < 0 || h.storedSize > math.MaxUint32 {
		return nil, fmt.Errorf("stored payload of %d bytes does not fit the snapshot header", h.storedSize)
	}

	buf := make([]byte, snapHeaderFixedLen, snapHeaderFixedLen+len(h.codecName))
	copy(buf[0:4], snapMagic[:])
	binary.LittleEndian.PutUint16(buf[4:6], snapVersion)
	buf[6] = byte(h.compression)
	buf[7] = byte(len(h.codecName))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.uncompressedSize))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(h.storedSize))

	return append(buf, h.codecName...), nil
}

// decodeSnapHeader validates the header and returns it together with the
// payload bytes that follow it.
func decodeSnapHeader(data []byte) (snapHeader, []byte, error) {
	if len(data) < snapHeaderFixedLen {
		return snapHeader{}, nil, fmt.Errorf("%w: truncated header", ErrCorruptSnapshot)
	}

	if [4]byte(data[0:4]) != snapMagic {
		return snapHeader{}, nil, ErrInvalidMagic
	}

	if version := binary.LittleEndian.Uint16(data[4:6]); version != snapVersion {
		return snapHeader{}, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	h := snapHeader{
		compression:      Compression(data[6]),
		uncompressedSize: int64(binary.LittleEndian.Uint32(data[8:12])),
		storedSize:       int64(binary.LittleEndian.Uint32(data[12:16])),
	}

	if !h.compression.valid() {
		return snapHeader{}, nil, fmt.Errorf("%w: unknown compression %d", ErrCorruptSnapshot, data[6])
	}

	nameLen := int(data[7])
	if len(data) < snapHeaderFixedLen+nameLen {
		return snapHeader{}, nil, fmt.Errorf("%w: truncated codec name", ErrCorruptSnapshot)
	}
	h.codecName = string(data[snapHeaderFixedLen : snapHeaderFixedLen+nameLen])

	payload := data[snapHeaderFixedLen+nameLen:]

	want := h.uncompressedSize
	if h.storedSize != 0 {
		want = h.storedSize
	}
	if int64(len(payload)) != want {
		return snapHeader{}, nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorruptSnapshot, len(payload), want)
	}

	return h, payload, nil
}
