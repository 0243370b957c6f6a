// Package distance provides the distance kernels used by the assigner.
package distance

import (
	"fmt"
)

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	b = b[:len(a)]
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// SquaredL2Batch calculates the squared L2 distance from query to each vector
// of a flattened target buffer.
// targets holds N vectors of dimension dim back to back; out must have length N.
func SquaredL2Batch(query []float32, targets []float32, dim int, out []float32) {
	if dim <= 0 || len(out) == 0 || len(query) < dim {
		return
	}

	q := query[:dim]
	n := min(len(out), len(targets)/dim)
	for i := 0; i < n; i++ {
		off := i * dim
		out[i] = SquaredL2(q, targets[off:off+dim])
	}
}

// Nearest returns the index and squared distance of the vector in targets
// closest to query. Among equidistant vectors the lowest index wins.
// Returns -1 when targets holds no complete vector.
func Nearest(query []float32, targets []float32, dim int) (int, float32) {
	if dim <= 0 || len(query) < dim {
		return -1, 0
	}
	n := len(targets) / dim
	if n == 0 {
		return -1, 0
	}

	q := query[:dim]
	best := 0
	bestDist := SquaredL2(q, targets[:dim])
	for i := 1; i < n; i++ {
		off := i * dim
		if d := SquaredL2(q, targets[off:off+dim]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// Metric represents the distance metric used for point comparison.
type Metric int

const (
	// MetricL2 is the squared Euclidean distance.
	MetricL2 Metric = iota
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Func is a function type for distance calculation.
type Func func(a, b []float32) float32

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricL2:
		return SquaredL2, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
