package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/nearest"
	"github.com/hupe1980/nearest/internal/pointgen"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// UniformPoints generates num points with coordinates in [minVal, maxVal).
func (r *RNG) UniformPoints(num int, minVal, maxVal float32) []nearest.Point3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pointgen.Uniform(r.rand, num, minVal, maxVal)
}

// GridPoints generates num points on an integer lattice in [0, side)^3.
// Lattice points produce many exact distance ties, which exercises
// tie-breaking.
func (r *RNG) GridPoints(num, side int) []nearest.Point3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pointgen.Grid(r.rand, num, side)
}

// ClusteredPoints generates points around random centroids, like two armies
// gathered in squads.
func (r *RNG) ClusteredPoints(num, clusters int, extent, spread float32) []nearest.Point3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pointgen.Clustered(r.rand, num, clusters, extent, spread)
}

// ReferenceAssign is an independent, deliberately naive nearest-target
// assignment used as ground truth. It scans targets from the highest index
// down and keeps later (lower-index) candidates on ties.
func ReferenceAssign(sources, targets []nearest.Point3) []int {
	out := make([]int, len(sources))
	for i, s := range sources {
		best := -1
		var bestDist float32
		for j := len(targets) - 1; j >= 0; j-- {
			dx := s.X - targets[j].X
			dy := s.Y - targets[j].Y
			dz := s.Z - targets[j].Z
			d := dx*dx + dy*dy + dz*dz
			if best < 0 || d <= bestDist {
				best, bestDist = j, d
			}
		}
		out[i] = best
	}
	return out
}
