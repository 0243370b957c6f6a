package pointio

import (
	"bytes"
	"context"
	"math"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nearest"
	"github.com/hupe1980/nearest/blobstore"
	"github.com/hupe1980/nearest/resource"
	"github.com/hupe1980/nearest/testutil"
)

func TestPoints_RoundTrip(t *testing.T) {
	random := testutil.NewRNG(5).UniformPoints(500, -1000, 1000)
	// A lattice repeats exact byte patterns and compresses well.
	lattice := testutil.NewRNG(9).GridPoints(4000, 2)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			for name, points := range map[string][]nearest.Point3{
				"Random":  random,
				"Lattice": lattice,
				"Empty":   {},
				"Demo":    {nearest.Pt(0, 0, 0), nearest.Pt(10, 10, 10), nearest.Pt(-0.5, 51, 64)},
			} {
				data, err := EncodePoints(points, c)
				require.NoError(t, err, name)

				got, err := DecodePoints(data)
				require.NoError(t, err, name)
				if diff := cmp.Diff(points, got); diff != "" {
					t.Errorf("%s: decoded points mismatch (-want +got):\n%s", name, diff)
				}
			}
		})
	}

	t.Run("CompressionShrinksLattice", func(t *testing.T) {
		raw, err := EncodePoints(lattice, CompressionNone)
		require.NoError(t, err)
		for _, c := range []Compression{CompressionLZ4, CompressionZstd} {
			packed, err := EncodePoints(lattice, c)
			require.NoError(t, err)
			assert.Less(t, len(packed), len(raw), c.String())
			assert.Equal(t, byte(c), packed[5])
		}
	})

	t.Run("IncompressibleStoredRaw", func(t *testing.T) {
		one := []nearest.Point3{nearest.Pt(1.5, -2.25, 3.125)}
		for _, c := range []Compression{CompressionLZ4, CompressionZstd} {
			data, err := EncodePoints(one, c)
			require.NoError(t, err)
			assert.Equal(t, byte(CompressionNone), data[5], c.String())
			assert.Len(t, data, headerSize+pointSize)
		}
	})

	t.Run("NonFinitePreserved", func(t *testing.T) {
		inf := float32(math.Inf(1))
		data, err := EncodePoints([]nearest.Point3{nearest.Pt(inf, 0, 0)}, CompressionNone)
		require.NoError(t, err)
		got, err := DecodePoints(data)
		require.NoError(t, err)
		assert.True(t, math.IsInf(float64(got[0].X), 1))
	})
}

func TestPoints_Layout(t *testing.T) {
	data, err := EncodePoints([]nearest.Point3{nearest.Pt(51, 64, 90)}, CompressionNone)
	require.NoError(t, err)

	assert.Equal(t, []byte("NPT3"), data[0:4])
	assert.Equal(t, byte(formatVersion), data[4])
	assert.Equal(t, []byte{1, 0, 0, 0}, data[8:12])  // count
	assert.Equal(t, []byte{12, 0, 0, 0}, data[12:16]) // payload length
	// float32(51) = 0x424C0000, little-endian.
	assert.Equal(t, []byte{0x00, 0x00, 0x4C, 0x42}, data[16:20])
}

func TestIndices_RoundTrip(t *testing.T) {
	indices := make([]int, 2000)
	for i := range indices {
		indices[i] = i % 7
	}

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		data, err := EncodeIndices(indices, c)
		require.NoError(t, err)
		assert.Equal(t, []byte("NIDX"), data[0:4])

		got, err := DecodeIndices(data)
		require.NoError(t, err)
		assert.Equal(t, indices, got)
	}

	t.Run("Overflow", func(t *testing.T) {
		_, err := EncodeIndices([]int{0, math.MaxInt32 + 1}, CompressionNone)
		assert.Error(t, err)
	})

	t.Run("WrongKind", func(t *testing.T) {
		data, err := EncodePoints([]nearest.Point3{nearest.Pt(1, 2, 3)}, CompressionNone)
		require.NoError(t, err)
		_, err = DecodeIndices(data)
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestDecode_Corrupt(t *testing.T) {
	valid, err := EncodePoints([]nearest.Point3{nearest.Pt(1, 2, 3), nearest.Pt(4, 5, 6)}, CompressionNone)
	require.NoError(t, err)

	mutate := func(fn func(b []byte) []byte) []byte {
		b := append([]byte(nil), valid...)
		return fn(b)
	}

	tests := map[string][]byte{
		"Empty":       nil,
		"ShortHeader": valid[:10],
		"BadMagic":    mutate(func(b []byte) []byte { b[0] = 'X'; return b }),
		"BadVersion":  mutate(func(b []byte) []byte { b[4] = 9; return b }),
		"Truncated":   valid[:len(valid)-1],
		"CountTooBig": mutate(func(b []byte) []byte { b[8] = 3; return b }),
		"UnknownCodec": mutate(func(b []byte) []byte {
			b[5] = 7
			return b
		}),
		"BadLZ4": mutate(func(b []byte) []byte {
			b[5] = byte(CompressionLZ4)
			b[16] = 0xFF
			return b
		}),
		"BadZstd": mutate(func(b []byte) []byte {
			b[5] = byte(CompressionZstd)
			return b
		}),
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePoints(data)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func container(magic string, c Compression, count uint32, payload []byte) []byte {
	out := make([]byte, headerSize+len(payload))
	putHeader(out, header{magic: magic, compression: c, count: count, payloadLen: uint32(len(payload))})
	copy(out[headerSize:], payload)
	return out
}

func TestDecode_InflatedCount(t *testing.T) {
	// 178956970 points is just under 2 GiB of payload.
	const huge = 178956970

	zeros, err := EncodePoints(make([]nearest.Point3, 1000), CompressionZstd)
	require.NoError(t, err)
	require.Equal(t, byte(CompressionZstd), zeros[5])
	zstdPayload := zeros[headerSize:]

	tests := map[string][]byte{
		"LZ4":          container(pointsMagic, CompressionLZ4, huge, []byte{0x1F, 0, 0, 0}),
		"Zstd":         container(pointsMagic, CompressionZstd, huge, zstdPayload),
		"Raw":          container(pointsMagic, CompressionNone, huge, make([]byte, 12)),
		"IndicesLZ4":   container(indicesMagic, CompressionLZ4, huge, []byte{0x1F, 0, 0, 0}),
		"ZstdOffByOne": container(pointsMagic, CompressionZstd, 1001, zstdPayload),
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)

			var err error
			if string(data[:4]) == indicesMagic {
				_, err = DecodeIndices(data)
			} else {
				_, err = DecodePoints(data)
			}

			runtime.ReadMemStats(&after)
			assert.ErrorIs(t, err, ErrCorrupt)
			assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(64<<20))
		})
	}
}

func TestLoad_ReservesDecodedSize(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "bad.npt", container(pointsMagic, CompressionLZ4, 1<<20, []byte{0x1F, 0, 0, 0})))

	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 10})
	_, err := Load(ctx, store, "bad.npt", rc)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Equal(t, int64(0), rc.MemoryUsage())

	assert.Equal(t, int64(12<<20), declaredSize(container(pointsMagic, CompressionLZ4, 1<<20, nil)))
	assert.Equal(t, int64(0), declaredSize([]byte("PAR1")))
}

func TestParquet_RoundTrip(t *testing.T) {
	points := testutil.NewRNG(3).ClusteredPoints(1000, 4, 100, 1)

	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, points))
	assert.Equal(t, []byte("PAR1"), buf.Bytes()[:4])

	got, err := ReadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, points, got)

	t.Run("Empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteParquet(&buf, nil))
		got, err := ReadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Garbage", func(t *testing.T) {
		junk := []byte("PAR1 definitely not a parquet file")
		_, err := ReadParquet(bytes.NewReader(junk), int64(len(junk)))
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestLoadSave(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	points := testutil.NewRNG(1).UniformPoints(300, -5, 5)

	require.NoError(t, SavePoints(ctx, store, "red.npt", points, FormatNPT, CompressionZstd))
	require.NoError(t, SavePoints(ctx, store, "blue.parquet", points, FormatParquet, CompressionNone))
	require.NoError(t, SaveIndices(ctx, store, "out.nidx", []int{3, 0, 2}, CompressionLZ4))

	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20, IOLimitBytesPerSec: 1 << 30})

	for _, name := range []string{"red.npt", "blue.parquet"} {
		t.Run(name, func(t *testing.T) {
			got, err := Load(ctx, store, name, rc)
			require.NoError(t, err)
			assert.Equal(t, points, got)
			assert.Equal(t, int64(0), rc.MemoryUsage())
		})
	}

	t.Run("Indices", func(t *testing.T) {
		got, err := LoadIndices(ctx, store, "out.nidx", nil)
		require.NoError(t, err)
		assert.Equal(t, []int{3, 0, 2}, got)

		_, err = Load(ctx, store, "out.nidx", nil)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := Load(ctx, store, "missing.npt", nil)
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Unrecognized", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "notes.txt", []byte("hello")))
		_, err := Load(ctx, store, "notes.txt", nil)
		assert.ErrorIs(t, err, ErrCorrupt)
		assert.Contains(t, err.Error(), "notes.txt")
	})

	t.Run("LocalStore", func(t *testing.T) {
		local := blobstore.NewLocalStore(t.TempDir())
		require.NoError(t, SavePoints(ctx, local, "sets/red.npt", points, FormatNPT, CompressionLZ4))
		got, err := Load(ctx, local, "sets/red.npt", nil)
		require.NoError(t, err)
		assert.Equal(t, points, got)
	})
}

func TestParse(t *testing.T) {
	for in, want := range map[string]Compression{"": CompressionNone, "none": CompressionNone, "LZ4": CompressionLZ4, "zstd": CompressionZstd} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("gzip")
	assert.Error(t, err)

	f, err := ParseFormat("parquet")
	require.NoError(t, err)
	assert.Equal(t, FormatParquet, f)
	_, err = ParseFormat("csv")
	assert.Error(t, err)

	assert.Equal(t, FormatParquet, FormatForName("s3/blue.PARQUET"))
	assert.Equal(t, FormatNPT, FormatForName("red.npt"))
	assert.Equal(t, "Compression(9)", Compression(9).String())
}

func TestZstdPools(t *testing.T) {
	enc, err := getZstdEncoder()
	require.NoError(t, err)
	require.NotNil(t, enc)

	dec, err := getZstdDecoder()
	require.NoError(t, err)
	require.NotNil(t, dec)

	raw := bytes.Repeat([]byte{1, 2, 3, 4}, 1024)
	payload := enc.EncodeAll(raw, nil)
	putZstdEncoder(enc)
	putZstdDecoder(dec)

	got, err := decompress(payload, CompressionZstd, len(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}
