package pointio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/nearest"
	"github.com/hupe1980/nearest/internal/conv"
)

// ErrCorrupt is returned for files with a bad header or payload.
var ErrCorrupt = errors.New("pointio: corrupt file")

const (
	pointsMagic  = "NPT3"
	indicesMagic = "NIDX"
	parquetMagic = "PAR1"

	formatVersion = 1
	headerSize    = 16

	pointSize = 12 // three float32
	indexSize = 4  // one int32
)

type header struct {
	magic       string
	compression Compression
	count       uint32
	payloadLen  uint32
}

func putHeader(dst []byte, h header) {
	copy(dst[0:4], h.magic)
	dst[4] = formatVersion
	dst[5] = byte(h.compression)
	binary.LittleEndian.PutUint16(dst[6:], 0)
	binary.LittleEndian.PutUint32(dst[8:], h.count)
	binary.LittleEndian.PutUint32(dst[12:], h.payloadLen)
}

func parseHeader(data []byte, magic string) (header, []byte, error) {
	if len(data) < headerSize {
		return header{}, nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(data))
	}
	if got := string(data[0:4]); got != magic {
		return header{}, nil, fmt.Errorf("%w: magic %q, want %q", ErrCorrupt, got, magic)
	}
	if v := data[4]; v != formatVersion {
		return header{}, nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}

	h := header{
		magic:       magic,
		compression: Compression(data[5]),
		count:       binary.LittleEndian.Uint32(data[8:]),
		payloadLen:  binary.LittleEndian.Uint32(data[12:]),
	}
	payload := data[headerSize:]
	if uint64(len(payload)) < uint64(h.payloadLen) {
		return header{}, nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(payload), h.payloadLen)
	}
	return h, payload[:h.payloadLen], nil
}

// declaredSize returns the decoded payload size an NPT3 or NIDX header
// claims, or 0 when data carries no such header.
func declaredSize(data []byte) int64 {
	if len(data) < headerSize {
		return 0
	}
	count := int64(binary.LittleEndian.Uint32(data[8:]))
	switch string(data[0:4]) {
	case pointsMagic:
		return count * pointSize
	case indicesMagic:
		return count * indexSize
	default:
		return 0
	}
}

func encode(magic string, count int, raw []byte, c Compression) ([]byte, error) {
	n, err := conv.IntToUint32(count)
	if err != nil {
		return nil, fmt.Errorf("pointio: %w", err)
	}
	payload, used, err := compress(raw, c)
	if err != nil {
		return nil, err
	}
	plen, err := conv.IntToUint32(len(payload))
	if err != nil {
		return nil, fmt.Errorf("pointio: %w", err)
	}

	out := make([]byte, headerSize+len(payload))
	putHeader(out, header{magic: magic, compression: used, count: n, payloadLen: plen})
	copy(out[headerSize:], payload)
	return out, nil
}

func decode(data []byte, magic string, elemSize int) (int, []byte, error) {
	h, payload, err := parseHeader(data, magic)
	if err != nil {
		return 0, nil, err
	}
	count, err := conv.Uint32ToInt(h.count)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	rawLen := uint64(count) * uint64(elemSize)
	if rawLen > math.MaxInt32 {
		return 0, nil, fmt.Errorf("%w: %d elements is too many", ErrCorrupt, count)
	}
	raw, err := decompress(payload, h.compression, int(rawLen))
	if err != nil {
		return 0, nil, err
	}
	return count, raw, nil
}

// EncodePoints serializes points into an NPT3 file.
func EncodePoints(points []nearest.Point3, c Compression) ([]byte, error) {
	raw := make([]byte, len(points)*pointSize)
	for i, p := range points {
		off := i * pointSize
		binary.LittleEndian.PutUint32(raw[off:], math.Float32bits(p.X))
		binary.LittleEndian.PutUint32(raw[off+4:], math.Float32bits(p.Y))
		binary.LittleEndian.PutUint32(raw[off+8:], math.Float32bits(p.Z))
	}
	return encode(pointsMagic, len(points), raw, c)
}

// DecodePoints parses an NPT3 file. Coordinates are returned as stored;
// the assigner rejects non-finite values.
func DecodePoints(data []byte) ([]nearest.Point3, error) {
	count, raw, err := decode(data, pointsMagic, pointSize)
	if err != nil {
		return nil, err
	}
	points := make([]nearest.Point3, count)
	for i := range points {
		off := i * pointSize
		points[i] = nearest.Point3{
			X: math.Float32frombits(binary.LittleEndian.Uint32(raw[off:])),
			Y: math.Float32frombits(binary.LittleEndian.Uint32(raw[off+4:])),
			Z: math.Float32frombits(binary.LittleEndian.Uint32(raw[off+8:])),
		}
	}
	return points, nil
}

// EncodeIndices serializes an assignment result into an NIDX file.
// Every index must fit in an int32.
func EncodeIndices(indices []int, c Compression) ([]byte, error) {
	narrow := make([]int32, len(indices))
	if err := conv.IntsToInt32(narrow, indices); err != nil {
		return nil, fmt.Errorf("pointio: %w", err)
	}
	raw := make([]byte, len(indices)*indexSize)
	for i, v := range narrow {
		binary.LittleEndian.PutUint32(raw[i*indexSize:], uint32(v))
	}
	return encode(indicesMagic, len(indices), raw, c)
}

// DecodeIndices parses an NIDX file.
func DecodeIndices(data []byte) ([]int, error) {
	count, raw, err := decode(data, indicesMagic, indexSize)
	if err != nil {
		return nil, err
	}
	indices := make([]int, count)
	for i := range indices {
		indices[i] = int(int32(binary.LittleEndian.Uint32(raw[i*indexSize:])))
	}
	return indices, nil
}
