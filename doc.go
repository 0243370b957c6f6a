// Package nearest assigns each point of a source set to its nearest point in
// a target set.
//
// Points are three float32 coordinates. Distance is squared Euclidean, and
// among equidistant targets the one with the lowest index wins, so results
// are deterministic whatever the degree of parallelism.
//
// # Quick Start
//
//	sources := []nearest.Point3{nearest.Pt(0, 0, 0), nearest.Pt(10, 10, 10)}
//	targets := []nearest.Point3{nearest.Pt(9, 9, 9), nearest.Pt(-0.5, -0.5, -0.5)}
//
//	idx, err := nearest.Assign(sources, targets) // [1 0]
//
// # Assigner
//
// The package-level Assign runs on the calling goroutine and keeps no state.
// An Assigner adds parallelism, shared resource budgets, structured logging
// and metrics:
//
//	metrics := &nearest.BasicMetricsCollector{}
//	a := nearest.New(
//	    nearest.WithParallelism(8),
//	    nearest.WithMetricsCollector(metrics),
//	    nearest.WithLogger(nearest.NewJSONLogger(slog.LevelDebug)),
//	)
//	idx, err := a.Assign(ctx, sources, targets)
//
// Large inputs are split into chunks of sources and assigned concurrently.
// Each chunk writes a disjoint range of the result, so no locking is needed.
//
// # Eligible Targets
//
// A roaring bitmap restricts which targets may be selected, for example to
// skip targets that have been destroyed without reallocating the target set:
//
//	alive := roaring.BitmapOf(0, 2, 5)
//	idx, err := a.Assign(ctx, sources, targets, nearest.WithEligibleTargets(alive))
//
// # Two Teams
//
// AssignMutual assigns each side to the other in one call:
//
//	redToBlue, blueToRed, err := a.AssignMutual(ctx, red, blue)
//
// # Errors
//
// An empty target set yields ErrEmptyTargetSet. Malformed input yields an
// error matching ErrInvalidInput: *LengthError for ragged buffers,
// *NonFiniteError for NaN or infinite coordinates, and *TargetIndexError for
// an eligible index outside the target set.
//
//	if errors.Is(err, nearest.ErrEmptyTargetSet) {
//	    // nothing left to target
//	}
//
// # Packages
//
//   - distance: squared L2 kernels over packed float32 buffers
//   - pointio: binary and parquet point-set files
//   - blobstore: local, S3 and MinIO storage for point-set files
//   - resource: memory, worker and IO budgets
//   - prommetrics: Prometheus MetricsCollector
//   - testutil: deterministic point generators and a reference assigner
//   - cmd/nearest: command-line assign and generate over local, S3 and MinIO files
//   - cmd/libnearest: C shared library exposing compute_targets
package nearest
