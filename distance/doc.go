// Package distance provides squared Euclidean distance kernels.
//
// Only squared L2 is supported: ordering by squared distance is identical to
// ordering by true distance, so the square root is never taken.
//
// # Usage
//
//	d := distance.SquaredL2(a, b)
//	idx, d := distance.Nearest(query, flatTargets, 3)
package distance
