package nearest

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/nearest/resource"
)

func TestAssign(t *testing.T) {
	tests := []struct {
		name     string
		sources  []Point3
		targets  []Point3
		expected []int
	}{
		{
			name:     "TieLowestIndexWins",
			sources:  []Point3{Pt(0, 0, 0)},
			targets:  []Point3{Pt(1, 0, 0), Pt(-1, 0, 0)},
			expected: []int{0},
		},
		{
			name:     "ScalingSanity",
			sources:  []Point3{Pt(0, 0, 0), Pt(10, 10, 10)},
			targets:  []Point3{Pt(0, 0, 0), Pt(10, 10, 10)},
			expected: []int{0, 1},
		},
		{
			name:    "MixedTargets",
			sources: []Point3{Pt(0, 0, 0), Pt(10, 10, 10)},
			targets: []Point3{
				Pt(9, 9, 9),
				Pt(50, 50, 50),
				Pt(1, 1, 1),
				Pt(-0.5, -0.5, -0.5),
			},
			expected: []int{3, 0},
		},
		{
			name:     "CoincidentTargetSelected",
			sources:  []Point3{Pt(2, 3, 4)},
			targets:  []Point3{Pt(2, 3, 4.5), Pt(2, 3, 4), Pt(2, 3, 3.5)},
			expected: []int{1},
		},
		{
			name:     "DuplicateCoincidentLowestIndex",
			sources:  []Point3{Pt(2, 3, 4)},
			targets:  []Point3{Pt(9, 9, 9), Pt(2, 3, 4), Pt(2, 3, 4)},
			expected: []int{1},
		},
		{
			name:     "SingleTarget",
			sources:  []Point3{Pt(1, 1, 1), Pt(-7, 3, 0), Pt(100, 0, 0)},
			targets:  []Point3{Pt(5, 5, 5)},
			expected: []int{0, 0, 0},
		},
		{
			name:     "TieAtHigherIndices",
			sources:  []Point3{Pt(0, 0, 0)},
			targets:  []Point3{Pt(5, 0, 0), Pt(0, 2, 0), Pt(0, 0, -2), Pt(2, 0, 0)},
			expected: []int{1},
		},
		{
			name:     "OverflowedDistancesTieToFirst",
			sources:  []Point3{Pt(0, 0, 0)},
			targets:  []Point3{Pt(3e19, 0, 0), Pt(-3e19, 0, 0)},
			expected: []int{0},
		},
		{
			name:     "FiniteBeatsOverflow",
			sources:  []Point3{Pt(0, 0, 0)},
			targets:  []Point3{Pt(3e19, 0, 0), Pt(1, 0, 0)},
			expected: []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Assign(tt.sources, tt.targets)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)

			flat, err := AssignFlat(Flatten(tt.sources), Flatten(tt.targets))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, flat)

			cfg, err := New().Assign(context.Background(), tt.sources, tt.targets)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestAssign_EmptySources(t *testing.T) {
	for name, targets := range map[string][]Point3{
		"WithTargets": {Pt(1, 2, 3)},
		"NoTargets":   nil,
		"NaNTargets":  {Pt(float32(math.NaN()), 0, 0)},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := Assign(nil, targets)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)

			got, err = New().Assign(context.Background(), []Point3{}, targets)
			require.NoError(t, err)
			assert.Empty(t, got)

			flat, err := AssignFlat(nil, Flatten(targets))
			require.NoError(t, err)
			assert.Empty(t, flat)
		})
	}
}

func TestAssign_EmptyTargetSet(t *testing.T) {
	sources := []Point3{Pt(0, 0, 0)}

	_, err := Assign(sources, nil)
	assert.ErrorIs(t, err, ErrEmptyTargetSet)

	_, err = Assign(sources, []Point3{})
	assert.ErrorIs(t, err, ErrEmptyTargetSet)

	_, err = AssignFlat(Flatten(sources), nil)
	assert.ErrorIs(t, err, ErrEmptyTargetSet)

	_, err = New().Assign(context.Background(), sources, nil)
	assert.ErrorIs(t, err, ErrEmptyTargetSet)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestAssign_NonFinite(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(-1))

	t.Run("Source", func(t *testing.T) {
		_, err := Assign([]Point3{Pt(0, 0, 0), Pt(0, nan, 0)}, []Point3{Pt(1, 1, 1)})
		require.ErrorIs(t, err, ErrInvalidInput)

		var nf *NonFiniteError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "sources", nf.Set)
		assert.Equal(t, 1, nf.Index)
	})

	t.Run("Target", func(t *testing.T) {
		_, err := Assign([]Point3{Pt(0, 0, 0)}, []Point3{Pt(1, 1, 1), Pt(2, 2, 2), Pt(0, 0, inf)})

		var nf *NonFiniteError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "targets", nf.Set)
		assert.Equal(t, 2, nf.Index)
	})

	t.Run("Flat", func(t *testing.T) {
		_, err := AssignFlat([]float32{0, 0, 0}, []float32{1, 1, 1, 2, nan, 2})

		var nf *NonFiniteError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, 1, nf.Index)
	})
}

func TestAssignFlat_RaggedBuffers(t *testing.T) {
	_, err := AssignFlat([]float32{0, 0}, []float32{1, 1, 1})
	var le *LengthError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.What, "sources")

	_, err = AssignFlat([]float32{0, 0, 0}, []float32{1, 1, 1, 1})
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.What, "targets")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAssign_Deterministic(t *testing.T) {
	sources := []Point3{Pt(0.1, 0.2, 0.3), Pt(-4, 5, 6), Pt(7, -8, 9)}
	targets := []Point3{Pt(1, 1, 1), Pt(-4, 5, 5), Pt(7, -8, 10), Pt(0, 0, 0)}

	first, err := Assign(sources, targets)
	require.NoError(t, err)
	for range 10 {
		again, err := Assign(sources, targets)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAssigner_AssignInto(t *testing.T) {
	a := New()
	sources := []Point3{Pt(0, 0, 0), Pt(10, 10, 10)}
	targets := []Point3{Pt(10, 10, 10), Pt(0, 0, 0)}

	dst := []int{-1, -1}
	require.NoError(t, a.AssignInto(context.Background(), dst, sources, targets))
	assert.Equal(t, []int{1, 0}, dst)

	err := a.AssignInto(context.Background(), make([]int, 3), sources, targets)
	var le *LengthError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 2, le.Expected)
	assert.Equal(t, 3, le.Actual)
}

func TestAssigner_EligibleTargets(t *testing.T) {
	a := New()
	ctx := context.Background()
	sources := []Point3{Pt(0, 0, 0), Pt(10, 10, 10)}
	targets := []Point3{Pt(0, 0, 0), Pt(10, 10, 10), Pt(1, 0, 0), Pt(-1, 0, 0)}

	t.Run("ExcludesDeadTargets", func(t *testing.T) {
		got, err := a.Assign(ctx, sources, targets, WithEligibleTargets(roaring.BitmapOf(2, 3)))
		require.NoError(t, err)
		// Both survivors are equidistant from the origin; 2 is the lower index.
		assert.Equal(t, []int{2, 2}, got)
	})

	t.Run("AllEligibleMatchesUnfiltered", func(t *testing.T) {
		got, err := a.Assign(ctx, sources, targets, WithEligibleTargets(roaring.BitmapOf(0, 1, 2, 3)))
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, got)
	})

	t.Run("NilBitmap", func(t *testing.T) {
		got, err := a.Assign(ctx, sources, targets, WithEligibleTargets(nil))
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, got)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := a.Assign(ctx, sources, targets, WithEligibleTargets(roaring.New()))
		assert.ErrorIs(t, err, ErrNoEligibleTarget)
		assert.ErrorIs(t, err, ErrEmptyTargetSet)
	})

	t.Run("OutOfRange", func(t *testing.T) {
		_, err := a.Assign(ctx, sources, targets, WithEligibleTargets(roaring.BitmapOf(1, 4)))
		var ti *TargetIndexError
		require.ErrorAs(t, err, &ti)
		assert.Equal(t, uint32(4), ti.Index)
		assert.Equal(t, 4, ti.Len)
	})
}

func TestAssigner_Parallel(t *testing.T) {
	sources := make([]Point3, 1000)
	for i := range sources {
		sources[i] = Pt(float32(i%17), float32(i%5), float32(i%3))
	}
	targets := []Point3{Pt(0, 0, 0), Pt(8, 2, 1), Pt(16, 4, 2), Pt(8, 2, 1)}

	want, err := Assign(sources, targets)
	require.NoError(t, err)

	a := New(WithParallelism(4), WithParallelThreshold(0))
	got, err := a.Assign(context.Background(), sources, targets)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 4, a.workersFor(len(sources), len(targets)))
}

func TestAssigner_WorkersFor(t *testing.T) {
	assert.Equal(t, 1, New(WithParallelism(1), WithParallelThreshold(0)).workersFor(10000, 10000))
	assert.Equal(t, 1, New(WithParallelism(8)).workersFor(10, 10))
	assert.Equal(t, 2, New(WithParallelism(8), WithParallelThreshold(0)).workersFor(100, 1))
	assert.Equal(t, 8, New(WithParallelism(8), WithParallelThreshold(0)).workersFor(10000, 1))
	assert.Equal(t, 1, New(WithParallelism(-3)).opts.workers)
}

func TestAssigner_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sources := make([]Point3, 512)
	targets := []Point3{Pt(1, 2, 3)}

	for name, a := range map[string]*Assigner{
		"Serial":   New(WithParallelism(1)),
		"Parallel": New(WithParallelism(4), WithParallelThreshold(0)),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := a.Assign(ctx, sources, targets)
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestAssigner_ResourceController(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20, MaxWorkers: 2})
	a := New(WithResourceController(rc), WithParallelism(4), WithParallelThreshold(0))

	sources := make([]Point3, 2048)
	targets := []Point3{Pt(1, 0, 0), Pt(0, 1, 0)}

	got, err := a.Assign(context.Background(), sources, targets)
	require.NoError(t, err)
	assert.Len(t, got, len(sources))

	// Budgets are returned after the call.
	assert.Equal(t, int64(0), rc.MemoryUsage())
	assert.Equal(t, int64(0), rc.ActiveWorkers())

	t.Run("MemoryExhausted", func(t *testing.T) {
		require.True(t, rc.TryAcquireMemory(1<<20))
		defer rc.ReleaseMemory(1 << 20)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := a.Assign(ctx, sources, targets)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestAssigner_AssignMutual(t *testing.T) {
	a := New()
	ctx := context.Background()

	red := []Point3{Pt(0, 0, 0), Pt(10, 10, 10)}
	blue := []Point3{Pt(9, 9, 9), Pt(50, 50, 50), Pt(1, 1, 1), Pt(-0.5, -0.5, -0.5)}

	redToBlue, blueToRed, err := a.AssignMutual(ctx, red, blue)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 0}, redToBlue)
	assert.Equal(t, []int{1, 1, 0, 0}, blueToRed)

	t.Run("TeamWipedOut", func(t *testing.T) {
		_, _, err := a.AssignMutual(ctx, red, nil)
		assert.ErrorIs(t, err, ErrEmptyTargetSet)
		assert.Contains(t, err.Error(), "team a")

		_, _, err = a.AssignMutual(ctx, nil, blue)
		assert.ErrorIs(t, err, ErrEmptyTargetSet)
		assert.Contains(t, err.Error(), "team b")
	})

	t.Run("BothEmpty", func(t *testing.T) {
		aToB, bToA, err := a.AssignMutual(ctx, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, aToB)
		assert.Empty(t, bToA)
	})
}

func TestAssigner_Observability(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	metrics := &BasicMetricsCollector{}

	a := New(WithLogger(logger.WithRunID("run-1")), WithMetricsCollector(metrics))
	ctx := context.Background()

	_, err := a.Assign(ctx, []Point3{Pt(0, 0, 0), Pt(1, 1, 1)}, []Point3{Pt(0, 0, 0), Pt(2, 2, 2), Pt(3, 3, 3)})
	require.NoError(t, err)
	_, err = a.Assign(ctx, []Point3{Pt(0, 0, 0)}, nil)
	require.Error(t, err)
	_, _, err = a.AssignMutual(ctx, []Point3{Pt(0, 0, 0)}, []Point3{Pt(1, 0, 0)})
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(4), stats.AssignCount)
	assert.Equal(t, int64(1), stats.AssignErrors)
	assert.Equal(t, int64(4), stats.SourcesTotal)
	assert.Equal(t, int64(8), stats.PairsTotal)
	assert.Equal(t, int64(1), stats.MutualCount)
	assert.Equal(t, int64(0), stats.MutualErrors)

	out := buf.String()
	assert.Contains(t, out, `"msg":"assign completed"`)
	assert.Contains(t, out, `"msg":"assign failed"`)
	assert.Contains(t, out, `"msg":"mutual assign completed"`)
	assert.Contains(t, out, `"run_id":"run-1"`)
	assert.Contains(t, out, `"targets":3`)
}

func TestAssigner_NilOptions(t *testing.T) {
	a := New(WithLogger(nil), WithMetricsCollector(nil))
	got, err := a.Assign(context.Background(), []Point3{Pt(0, 0, 0)}, []Point3{Pt(1, 1, 1)})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)
}

func TestAssigner_SourceSubset(t *testing.T) {
	ctx := context.Background()
	targets := []Point3{Pt(9, 9, 9), Pt(50, 50, 50), Pt(1, 1, 1), Pt(-0.5, -0.5, -0.5)}
	all := []Point3{Pt(0, 0, 0), Pt(10, 10, 10), Pt(40, 40, 40), Pt(2, 2, 2)}

	a := New()
	full, err := a.Assign(ctx, all, targets)
	require.NoError(t, err)

	// Only sources still looking for a target are passed; the rest keep theirs.
	pending := []int{1, 3}
	subset := make([]Point3, len(pending))
	for i, j := range pending {
		subset[i] = all[j]
	}
	got, err := a.Assign(ctx, subset, targets)
	require.NoError(t, err)
	for i, j := range pending {
		assert.Equal(t, full[j], got[i])
	}
}
