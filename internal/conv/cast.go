package conv

import (
	"fmt"
	"math"
)

// IntToInt32 converts int to int32 safely.
func IntToInt32(v int) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int32", v)
	}
	return int32(v), nil
}

// IntToUint32 converts int to uint32 safely.
func IntToUint32(v int) (uint32, error) {
	if v < 0 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint32 (negative)", v)
	}
	// On 64-bit systems, int can exceed uint32 max; on 32-bit, this is always false
	if uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint32 (too large)", v)
	}
	return uint32(v), nil
}

// Uint32ToInt converts uint32 to int safely.
func Uint32ToInt(v uint32) (int, error) {
	if uint64(v) > uint64(math.MaxInt) {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int (too large)", v)
	}
	return int(v), nil
}

// Int32ToInt converts a non-negative int32 length or index to int.
func Int32ToInt(v int32) (int, error) {
	if v < 0 {
		return 0, fmt.Errorf("negative value: %d", v)
	}
	return int(v), nil
}

// IntsToInt32 converts every element of src into dst.
// len(dst) must be at least len(src).
func IntsToInt32(dst []int32, src []int) error {
	if len(dst) < len(src) {
		return fmt.Errorf("destination too short: %d < %d", len(dst), len(src))
	}
	for i, v := range src {
		c, err := IntToInt32(v)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		dst[i] = c
	}
	return nil
}
