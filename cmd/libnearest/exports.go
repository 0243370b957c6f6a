package main

/*
#include <stdint.h>

typedef struct {
	float x;
	float y;
	float z;
} float3;
*/
import "C"

import (
	"unsafe"

	"github.com/hupe1980/nearest/internal/handle"
)

//export return42
func return42() C.int32_t {
	return C.int32_t(answer())
}

//export my_add
func my_add(a, b C.int32_t) C.int32_t {
	return C.int32_t(add(int32(a), int32(b)))
}

//export returnMyStruct
func returnMyStruct() C.uint64_t {
	return C.uint64_t(newMyStruct())
}

//export readMyStruct
func readMyStruct(h C.uint64_t, out *C.float3) C.int32_t {
	if out == nil {
		return C.int32_t(StatusInvalidInput)
	}
	p, status := lookupMyStruct(handle.Handle(h))
	if status != StatusOK {
		return C.int32_t(status)
	}
	out.x, out.y, out.z = C.float(p.X), C.float(p.Y), C.float(p.Z)
	return C.int32_t(StatusOK)
}

//export deleteMyStruct
func deleteMyStruct(h C.uint64_t) C.int32_t {
	return C.int32_t(freeMyStruct(handle.Handle(h)))
}

//export compute_targets
func compute_targets(src *C.float3, n C.int32_t, dst *C.float3, m C.int32_t, out *C.int32_t) C.int32_t {
	if n < 0 || m < 0 {
		return C.int32_t(StatusInvalidInput)
	}
	if (src == nil && n > 0) || (dst == nil && m > 0) || (out == nil && n > 0) {
		return C.int32_t(StatusInvalidInput)
	}

	var results []int32
	if n > 0 {
		results = unsafe.Slice((*int32)(unsafe.Pointer(out)), int(n))
	}
	return C.int32_t(computeTargets(float3s(src, n), float3s(dst, m), results))
}

// float3s views a C float3 array as packed float32 without copying.
func float3s(p *C.float3, n C.int32_t) []float32 {
	if p == nil || n == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(p)), 3*int(n))
}
