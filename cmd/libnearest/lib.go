// Command libnearest builds the assigner as a C shared library:
//
//	go build -buildmode=c-shared -o libnearest.so ./cmd/libnearest
//
// The generated header declares
//
//	int32_t  return42(void);
//	int32_t  my_add(int32_t a, int32_t b);
//	uint64_t returnMyStruct(void);
//	int32_t  readMyStruct(uint64_t handle, float3 *out);
//	int32_t  deleteMyStruct(uint64_t handle);
//	int32_t  compute_targets(const float3 *src, int32_t n,
//	                         const float3 *dst, int32_t m, int32_t *out);
//
// Functions that can fail return a status code: 0 on success, -1 for invalid
// input (negative lengths, a NULL pointer with a non-zero length, non-finite
// coordinates, unknown handles) and -2 when the target set is empty.
// Caller buffers are never retained past return.
package main

import (
	"context"
	"errors"

	"github.com/hupe1980/nearest"
	"github.com/hupe1980/nearest/internal/conv"
	"github.com/hupe1980/nearest/internal/handle"
)

// Status codes returned across the C boundary.
const (
	StatusOK             int32 = 0
	StatusInvalidInput   int32 = -1
	StatusEmptyTargetSet int32 = -2
)

var (
	assigner = nearest.New()
	structs  = handle.NewTable[nearest.Point3](16)
)

func main() {}

func answer() int32 {
	return 42
}

// add wraps on overflow like two's-complement hardware addition.
func add(a, b int32) int32 {
	return a + b
}

func newMyStruct() handle.Handle {
	return structs.Alloc(nearest.Pt(51, 64, 90))
}

func lookupMyStruct(h handle.Handle) (nearest.Point3, int32) {
	p, err := structs.Get(h)
	if err != nil {
		return nearest.Point3{}, StatusInvalidInput
	}
	return p, StatusOK
}

func freeMyStruct(h handle.Handle) int32 {
	if _, err := structs.Free(h); err != nil {
		return StatusInvalidInput
	}
	return StatusOK
}

// computeTargets assigns packed sources to packed targets and writes the
// indices to out, which must hold one slot per source.
func computeTargets(src, dst []float32, out []int32) int32 {
	sources, err := nearest.Unflatten(src)
	if err != nil {
		return statusOf(err)
	}
	targets, err := nearest.Unflatten(dst)
	if err != nil {
		return statusOf(err)
	}
	if len(out) != len(sources) {
		return StatusInvalidInput
	}

	idx := make([]int, len(sources))
	if err := assigner.AssignInto(context.Background(), idx, sources, targets); err != nil {
		return statusOf(err)
	}
	if err := conv.IntsToInt32(out, idx); err != nil {
		return StatusInvalidInput
	}
	return StatusOK
}

func statusOf(err error) int32 {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, nearest.ErrEmptyTargetSet):
		return StatusEmptyTargetSet
	default:
		return StatusInvalidInput
	}
}
