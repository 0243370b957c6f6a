package pointio

import (
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/hupe1980/nearest"
)

// pointRecord is one parquet row.
type pointRecord struct {
	X float32 `parquet:"x"`
	Y float32 `parquet:"y"`
	Z float32 `parquet:"z"`
}

// WriteParquet writes points as a zstd-compressed parquet file.
func WriteParquet(w io.Writer, points []nearest.Point3) error {
	pw := parquet.NewGenericWriter[pointRecord](w, parquet.Compression(&parquet.Zstd))

	rows := make([]pointRecord, len(points))
	for i, p := range points {
		rows[i] = pointRecord(p)
	}

	if _, err := pw.Write(rows); err != nil {
		_ = pw.Close()
		return fmt.Errorf("pointio: write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("pointio: close parquet writer: %w", err)
	}
	return nil
}

// ReadParquet reads a parquet file with x, y and z columns.
func ReadParquet(r io.ReaderAt, size int64) ([]nearest.Point3, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	pr := parquet.NewGenericReader[pointRecord](pf)
	defer func() { _ = pr.Close() }()

	rows := make([]pointRecord, pr.NumRows())
	total := 0
	for total < len(rows) {
		n, err := pr.Read(rows[total:])
		total += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("pointio: read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	if total != len(rows) {
		return nil, fmt.Errorf("%w: read %d of %d parquet rows", ErrCorrupt, total, len(rows))
	}

	points := make([]nearest.Point3, len(rows))
	for i, row := range rows {
		points[i] = nearest.Point3(row)
	}
	return points, nil
}
