package pointio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/hupe1980/nearest"
	"github.com/hupe1980/nearest/blobstore"
	"github.com/hupe1980/nearest/resource"
)

// Format selects the on-disk point format.
type Format int

const (
	// FormatNPT is the NPT3 binary container.
	FormatNPT Format = iota
	// FormatParquet is a parquet file with x, y, z columns.
	FormatParquet
)

// String returns the flag spelling of f.
func (f Format) String() string {
	switch f {
	case FormatNPT:
		return "npt"
	case FormatParquet:
		return "parquet"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat parses "npt" or "parquet".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "npt":
		return FormatNPT, nil
	case "parquet", "pq":
		return FormatParquet, nil
	default:
		return 0, fmt.Errorf("pointio: unknown format %q", s)
	}
}

// FormatForName guesses the format from a file extension.
func FormatForName(name string) Format {
	if ext := strings.ToLower(path.Ext(name)); ext == ".parquet" || ext == ".pq" {
		return FormatParquet
	}
	return FormatNPT
}

// Load reads a point set from store, detecting NPT3 or parquet by magic.
//
// rc may be nil. When set, the file size is reserved against its memory
// budget during the read, the decoded size claimed by an NPT3 header during
// decoding, and reads are throttled by its IO limit.
func Load(ctx context.Context, store blobstore.BlobStore, name string, rc *resource.Controller) ([]nearest.Point3, error) {
	data, err := readBlob(ctx, store, name, rc)
	if err != nil {
		return nil, err
	}

	switch magicOf(data) {
	case pointsMagic:
		release, err := reserveDecoded(ctx, rc, data)
		if err != nil {
			return nil, err
		}
		defer release()

		points, err := DecodePoints(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return points, nil
	case parquetMagic:
		points, err := ReadParquet(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return points, nil
	case indicesMagic:
		return nil, fmt.Errorf("%s: %w: holds an assignment, not points", name, ErrCorrupt)
	default:
		return nil, fmt.Errorf("%s: %w: unrecognized magic", name, ErrCorrupt)
	}
}

// LoadIndices reads an NIDX assignment result from store.
func LoadIndices(ctx context.Context, store blobstore.BlobStore, name string, rc *resource.Controller) ([]int, error) {
	data, err := readBlob(ctx, store, name, rc)
	if err != nil {
		return nil, err
	}
	release, err := reserveDecoded(ctx, rc, data)
	if err != nil {
		return nil, err
	}
	defer release()

	indices, err := DecodeIndices(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return indices, nil
}

// SavePoints writes points to store in the given format.
// Compression applies to FormatNPT only; parquet always uses zstd columns.
func SavePoints(ctx context.Context, store blobstore.BlobStore, name string, points []nearest.Point3, f Format, c Compression) error {
	var data []byte
	switch f {
	case FormatNPT:
		var err error
		if data, err = EncodePoints(points, c); err != nil {
			return err
		}
	case FormatParquet:
		var buf bytes.Buffer
		if err := WriteParquet(&buf, points); err != nil {
			return err
		}
		data = buf.Bytes()
	default:
		return fmt.Errorf("pointio: unknown format %d", int(f))
	}
	return store.Put(ctx, name, data)
}

// SaveIndices writes an assignment result to store as NIDX.
func SaveIndices(ctx context.Context, store blobstore.BlobStore, name string, indices []int, c Compression) error {
	data, err := EncodeIndices(indices, c)
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}

func readBlob(ctx context.Context, store blobstore.BlobStore, name string, rc *resource.Controller) ([]byte, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("pointio: open %s: %w", name, err)
	}
	defer func() { _ = blob.Close() }()

	size := blob.Size()
	if err := rc.AcquireMemory(ctx, size); err != nil {
		return nil, err
	}
	defer rc.ReleaseMemory(size)

	r := resource.NewRateLimitedReader(ctx, io.NewSectionReader(blob, 0, size), rc)
	buf := bytes.NewBuffer(make([]byte, 0, size))
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("pointio: read %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func reserveDecoded(ctx context.Context, rc *resource.Controller, data []byte) (func(), error) {
	n := declaredSize(data)
	if err := rc.AcquireMemory(ctx, n); err != nil {
		return nil, err
	}
	return func() { rc.ReleaseMemory(n) }, nil
}

func magicOf(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	return string(data[:4])
}
