// Package pointgen draws reproducible point sets from a caller-owned
// *rand.Rand. Callers serialize access to r.
package pointgen

import (
	"math/rand"

	"github.com/hupe1980/nearest"
)

// Uniform returns num points with coordinates in [minVal, maxVal).
func Uniform(r *rand.Rand, num int, minVal, maxVal float32) []nearest.Point3 {
	span := maxVal - minVal
	points := make([]nearest.Point3, num)
	for i := range points {
		points[i] = nearest.Point3{
			X: minVal + r.Float32()*span,
			Y: minVal + r.Float32()*span,
			Z: minVal + r.Float32()*span,
		}
	}
	return points
}

// Grid returns num points on an integer lattice in [0, side)^3.
func Grid(r *rand.Rand, num, side int) []nearest.Point3 {
	points := make([]nearest.Point3, num)
	for i := range points {
		points[i] = nearest.Point3{
			X: float32(r.Intn(side)),
			Y: float32(r.Intn(side)),
			Z: float32(r.Intn(side)),
		}
	}
	return points
}

// Clustered returns num points scattered with standard deviation spread
// around clusters centroids drawn from [-extent, extent)^3.
// clusters < 1 is treated as 1.
func Clustered(r *rand.Rand, num, clusters int, extent, spread float32) []nearest.Point3 {
	clusters = max(clusters, 1)

	centroids := make([]nearest.Point3, clusters)
	for i := range centroids {
		centroids[i] = nearest.Point3{
			X: (r.Float32()*2 - 1) * extent,
			Y: (r.Float32()*2 - 1) * extent,
			Z: (r.Float32()*2 - 1) * extent,
		}
	}

	points := make([]nearest.Point3, num)
	for i := range points {
		c := centroids[r.Intn(clusters)]
		points[i] = nearest.Point3{
			X: c.X + float32(r.NormFloat64())*spread,
			Y: c.Y + float32(r.NormFloat64())*spread,
			Z: c.Z + float32(r.NormFloat64())*spread,
		}
	}
	return points
}

// Shift adds offset to every coordinate of points in place.
func Shift(points []nearest.Point3, offset float32) {
	for i := range points {
		points[i].X += offset
		points[i].Y += offset
		points[i].Z += offset
	}
}
