package pointio

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the payload codec.
type Compression uint8

const (
	// CompressionNone stores the payload raw.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses Zstandard (better ratio).
	CompressionZstd Compression = 2
)

// String returns the flag spelling of c.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("pointio: unknown compression %q", s)
	}
}

// Upper bounds on how far one payload byte can expand. An LZ4 block
// sequence encodes at most 255 bytes of match length per length byte; a zstd
// block carries a 3-byte header and decodes to at most 128 KiB.
const (
	lz4MaxRatio  = 255
	zstdMaxRatio = (128 << 10) / 3
)

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("pointio: zstd encoder: %w", err)
	}
	return enc, nil
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(math.MaxInt32),
	)
	if err != nil {
		return nil, fmt.Errorf("pointio: zstd decoder: %w", err)
	}
	return dec, nil
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// compress returns the encoded payload and the codec actually used.
// Payloads that do not shrink are returned as-is with CompressionNone.
func compress(raw []byte, c Compression) ([]byte, Compression, error) {
	if c == CompressionNone || len(raw) == 0 {
		return raw, CompressionNone, nil
	}

	var out []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("pointio: lz4: %w", err)
		}
		// n == 0 means incompressible.
		out = buf[:n]
	case CompressionZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, 0, err
		}
		out = enc.EncodeAll(raw, nil)
		putZstdEncoder(enc)
	default:
		return nil, 0, fmt.Errorf("pointio: unknown compression %d", uint8(c))
	}

	if len(out) == 0 || len(out) >= len(raw) {
		return raw, CompressionNone, nil
	}
	return out, c, nil
}

// checkExpansion rejects headers claiming more output than payload can
// decode to, before anything of size rawLen is allocated.
func checkExpansion(payload []byte, c Compression, rawLen int, ratio uint64) error {
	if uint64(rawLen) > uint64(len(payload))*ratio {
		return fmt.Errorf("%w: %d %s bytes cannot expand to %d", ErrCorrupt, len(payload), c, rawLen)
	}
	return nil
}

// decompress expands payload into exactly rawLen bytes.
func decompress(payload []byte, c Compression, rawLen int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(payload) != rawLen {
			return nil, fmt.Errorf("%w: raw payload is %d bytes, want %d", ErrCorrupt, len(payload), rawLen)
		}
		return payload, nil

	case CompressionLZ4:
		if err := checkExpansion(payload, c, rawLen, lz4MaxRatio); err != nil {
			return nil, err
		}
		out := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCorrupt, err)
		}
		if n != rawLen {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, nil

	case CompressionZstd:
		if err := checkExpansion(payload, c, rawLen, zstdMaxRatio); err != nil {
			return nil, err
		}
		// The frame header must agree with ours.
		var fh zstd.Header
		if err := fh.Decode(payload); err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
		}
		if fh.HasFCS && fh.FrameContentSize != uint64(rawLen) {
			return nil, fmt.Errorf("%w: zstd frame holds %d bytes, header says %d", ErrCorrupt, fh.FrameContentSize, rawLen)
		}

		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer putZstdDecoder(dec)

		// Stream so the buffer grows with what actually decodes, not with
		// what the headers claim.
		if err := dec.Reset(bytes.NewReader(payload)); err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
		}
		var out bytes.Buffer
		n, err := io.Copy(&out, io.LimitReader(dec, int64(rawLen)+1))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
		}
		if n != int64(rawLen) {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out.Bytes(), nil

	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, uint8(c))
	}
}
