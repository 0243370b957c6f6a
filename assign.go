package nearest

import (
	"context"
	"fmt"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/nearest/distance"
)

// minChunk is the smallest number of sources handed to one goroutine.
const minChunk = 64

// Assign returns, for each source, the index of the nearest target under
// squared Euclidean distance. Among equidistant targets the lowest index wins.
//
// The result has len(sources) elements, each in [0, len(targets)).
// An empty source set yields an empty result regardless of targets.
// An empty target set yields ErrEmptyTargetSet; a NaN or infinite coordinate
// yields a *NonFiniteError.
//
// Assign runs on the calling goroutine. Use an Assigner for parallelism,
// target filters, logging and metrics.
func Assign(sources, targets []Point3) ([]int, error) {
	if len(sources) == 0 {
		return []int{}, nil
	}
	if err := validate(sources, targets); err != nil {
		return nil, err
	}
	out := make([]int, len(sources))
	fill(out, sources, targets, nil, 0, len(sources))
	return out, nil
}

// AssignFlat is Assign over packed x,y,z,x,y,z,... buffers, the layout a C
// `float3` array has in memory. A buffer whose length is not a multiple of 3
// yields a *LengthError.
func AssignFlat(sources, targets []float32) ([]int, error) {
	if err := checkPacked("sources", sources); err != nil {
		return nil, err
	}
	if err := checkPacked("targets", targets); err != nil {
		return nil, err
	}

	n := len(sources) / 3
	if n == 0 {
		return []int{}, nil
	}
	if len(targets) == 0 {
		return nil, ErrEmptyTargetSet
	}
	if i := firstNonFinite(sources); i >= 0 {
		return nil, &NonFiniteError{Set: "sources", Index: i / 3}
	}
	if i := firstNonFinite(targets); i >= 0 {
		return nil, &NonFiniteError{Set: "targets", Index: i / 3}
	}

	out := make([]int, n)
	for i := range out {
		out[i], _ = distance.Nearest(sources[3*i:3*i+3], targets, 3)
	}
	return out, nil
}

// Assigner performs nearest-target assignment with configurable parallelism,
// resource limits, logging and metrics.
//
// An Assigner holds no per-call state and is safe for concurrent use.
type Assigner struct {
	opts options
}

// New creates an Assigner.
func New(optFns ...Option) *Assigner {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Assigner{opts: opts}
}

// Assign is the configurable form of the package-level Assign.
// Its output is identical to the package-level function for the same input,
// whatever the degree of parallelism.
func (a *Assigner) Assign(ctx context.Context, sources, targets []Point3, opts ...AssignOption) ([]int, error) {
	dst := make([]int, len(sources))
	if err := a.AssignInto(ctx, dst, sources, targets, opts...); err != nil {
		return nil, err
	}
	return dst, nil
}

// AssignInto writes the assignment into dst, which must have len(sources) elements.
// The caller owns dst; it is not retained after return. On error dst may be
// partially written.
func (a *Assigner) AssignInto(ctx context.Context, dst []int, sources, targets []Point3, opts ...AssignOption) (err error) {
	var ao assignOptions
	for _, fn := range opts {
		fn(&ao)
	}

	start := time.Now()
	candidates := len(targets)
	workers := 1
	defer func() {
		d := time.Since(start)
		a.opts.metricsCollector.RecordAssign(len(sources), candidates, d, err)
		a.opts.logger.LogAssign(ctx, len(sources), candidates, workers, d, err)
	}()

	if len(dst) != len(sources) {
		return &LengthError{What: "result buffer", Expected: len(sources), Actual: len(dst)}
	}
	if len(sources) == 0 {
		return nil
	}
	if err := validate(sources, targets); err != nil {
		return err
	}

	var eligible []uint32
	if ao.eligible != nil {
		eligible, err = eligibleIndices(ao.eligible, len(targets))
		if err != nil {
			return err
		}
		candidates = len(eligible)
	}

	mem := workingSet(len(sources), len(targets))
	if err := a.opts.resources.AcquireMemory(ctx, mem); err != nil {
		return err
	}
	defer a.opts.resources.ReleaseMemory(mem)

	workers = a.workersFor(len(sources), candidates)
	if workers == 1 {
		return a.runChunk(ctx, dst, sources, targets, eligible, 0, len(sources))
	}

	chunk := max(minChunk, (len(sources)+4*workers-1)/(4*workers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(sources); lo += chunk {
		hi := min(lo+chunk, len(sources))
		g.Go(func() error {
			return a.runChunk(gctx, dst, sources, targets, eligible, lo, hi)
		})
	}
	return g.Wait()
}

// AssignMutual assigns each member of team a to its nearest member of team b
// and vice versa.
//
// If one team is empty and the other is not, the non-empty side has nothing
// to target and ErrEmptyTargetSet is returned.
func (a *Assigner) AssignMutual(ctx context.Context, teamA, teamB []Point3) (aToB, bToA []int, err error) {
	start := time.Now()
	defer func() {
		a.opts.metricsCollector.RecordMutual(time.Since(start), err)
		a.opts.logger.LogMutual(ctx, len(teamA), len(teamB), err)
	}()

	aToB, err = a.Assign(ctx, teamA, teamB)
	if err != nil {
		return nil, nil, fmt.Errorf("team a: %w", err)
	}
	bToA, err = a.Assign(ctx, teamB, teamA)
	if err != nil {
		return nil, nil, fmt.Errorf("team b: %w", err)
	}
	return aToB, bToA, nil
}

func (a *Assigner) workersFor(sources, candidates int) int {
	if a.opts.workers <= 1 || int64(sources)*int64(candidates) < a.opts.parallelThreshold {
		return 1
	}
	return min(a.opts.workers, (sources+minChunk-1)/minChunk)
}

func (a *Assigner) runChunk(ctx context.Context, dst []int, sources, targets []Point3, eligible []uint32, lo, hi int) error {
	if err := a.opts.resources.AcquireWorker(ctx); err != nil {
		return err
	}
	defer a.opts.resources.ReleaseWorker()

	if err := ctx.Err(); err != nil {
		return err
	}
	fill(dst, sources, targets, eligible, lo, hi)
	return nil
}

// fill assigns sources[lo:hi] into dst[lo:hi].
// eligible, when non-nil, is the ascending list of candidate target indices.
func fill(dst []int, sources, targets []Point3, eligible []uint32, lo, hi int) {
	if eligible != nil {
		for i := lo; i < hi; i++ {
			dst[i] = nearestEligible(sources[i], targets, eligible)
		}
		return
	}
	for i := lo; i < hi; i++ {
		dst[i] = nearestIndex(sources[i], targets)
	}
}

// nearestIndex scans targets in ascending order; a strict comparison keeps
// the first minimum. targets must be non-empty.
func nearestIndex(p Point3, targets []Point3) int {
	best := 0
	bestDist := p.SquaredDistance(targets[0])
	for j := 1; j < len(targets); j++ {
		if d := p.SquaredDistance(targets[j]); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

func nearestEligible(p Point3, targets []Point3, eligible []uint32) int {
	best := int(eligible[0])
	bestDist := p.SquaredDistance(targets[best])
	for _, j := range eligible[1:] {
		if d := p.SquaredDistance(targets[j]); d < bestDist {
			best, bestDist = int(j), d
		}
	}
	return best
}

func validate(sources, targets []Point3) error {
	if len(targets) == 0 {
		return ErrEmptyTargetSet
	}
	for i, p := range sources {
		if !p.IsFinite() {
			return &NonFiniteError{Set: "sources", Index: i}
		}
	}
	for i, p := range targets {
		if !p.IsFinite() {
			return &NonFiniteError{Set: "targets", Index: i}
		}
	}
	return nil
}

func eligibleIndices(bm *roaring.Bitmap, numTargets int) ([]uint32, error) {
	if bm.IsEmpty() {
		return nil, ErrNoEligibleTarget
	}
	if last := bm.Maximum(); uint64(last) >= uint64(numTargets) {
		return nil, &TargetIndexError{Index: last, Len: numTargets}
	}
	return bm.ToArray(), nil
}

func workingSet(sources, targets int) int64 {
	return 12*int64(targets) + 8*int64(sources)
}

func checkPacked(set string, buf []float32) error {
	if len(buf)%3 != 0 {
		return &LengthError{What: "packed " + set + " buffer", Expected: len(buf) - len(buf)%3, Actual: len(buf)}
	}
	return nil
}

func firstNonFinite(buf []float32) int {
	for i, v := range buf {
		if !isFinite(v) {
			return i
		}
	}
	return -1
}
