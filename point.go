package nearest

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Point3 is a position in 3D space with single-precision coordinates.
//
// Its memory layout matches a C `struct { float x, y, z; }`.
type Point3 struct {
	X float32
	Y float32
	Z float32
}

// Pt is shorthand for Point3{X: x, Y: y, Z: z}.
func Pt(x, y, z float32) Point3 {
	return Point3{X: x, Y: y, Z: z}
}

// SquaredDistance returns the squared Euclidean distance between p and o.
func (p Point3) SquaredDistance(o Point3) float32 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	dz := p.Z - o.Z
	return dx*dx + dy*dy + dz*dz
}

// IsFinite reports whether all three coordinates are neither NaN nor infinite.
func (p Point3) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y) && isFinite(p.Z)
}

// Vec3 converts p to a mathgl vector.
func (p Point3) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{p.X, p.Y, p.Z}
}

// FromVec3 converts a mathgl vector to a Point3.
func FromVec3(v mgl32.Vec3) Point3 {
	return Point3{X: v.X(), Y: v.Y(), Z: v.Z()}
}

// Flatten returns the packed x,y,z,x,y,z,... representation of points.
func Flatten(points []Point3) []float32 {
	flat := make([]float32, 0, len(points)*3)
	for _, p := range points {
		flat = append(flat, p.X, p.Y, p.Z)
	}
	return flat
}

// Unflatten is the inverse of Flatten.
// A buffer whose length is not a multiple of 3 yields a *LengthError.
func Unflatten(flat []float32) ([]Point3, error) {
	if len(flat)%3 != 0 {
		return nil, &LengthError{What: "packed point buffer", Expected: len(flat) - len(flat)%3, Actual: len(flat)}
	}
	points := make([]Point3, len(flat)/3)
	for i := range points {
		points[i] = Point3{X: flat[3*i], Y: flat[3*i+1], Z: flat[3*i+2]}
	}
	return points, nil
}

func isFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
