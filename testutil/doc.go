// Package testutil provides testing utilities for nearest.
//
// This package is intended for use in tests and benchmarks only.
//
//	rng := testutil.NewRNG(seed)
//	sources := rng.UniformPoints(1000, -100, 100)
//	targets := rng.ClusteredPoints(500, 8, 100, 5)
//	want := testutil.ReferenceAssign(sources, targets)
package testutil
