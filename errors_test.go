package nearest

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	t.Run("InvalidInputFamily", func(t *testing.T) {
		for _, err := range []error{
			&LengthError{What: "result buffer", Expected: 2, Actual: 1},
			&NonFiniteError{Set: "targets", Index: 3},
			&TargetIndexError{Index: 9, Len: 4},
		} {
			assert.ErrorIs(t, err, ErrInvalidInput, err.Error())
			assert.NotErrorIs(t, err, ErrEmptyTargetSet)
		}
	})

	t.Run("NoEligibleTargetIsEmptyTargetSet", func(t *testing.T) {
		assert.ErrorIs(t, ErrNoEligibleTarget, ErrEmptyTargetSet)
		assert.NotErrorIs(t, ErrNoEligibleTarget, ErrInvalidInput)
	})

	t.Run("Messages", func(t *testing.T) {
		assert.Equal(t, "result buffer length mismatch: expected 2, got 1",
			(&LengthError{What: "result buffer", Expected: 2, Actual: 1}).Error())
		assert.Equal(t, "non-finite coordinate in targets[3]",
			(&NonFiniteError{Set: "targets", Index: 3}).Error())
		assert.Equal(t, "eligible target 9 out of range [0, 4)",
			(&TargetIndexError{Index: 9, Len: 4}).Error())
	})

	t.Run("SurvivesWrapping", func(t *testing.T) {
		err := fmt.Errorf("team a: %w", &NonFiniteError{Set: "sources", Index: 0})

		var nf *NonFiniteError
		assert.True(t, errors.As(err, &nf))
		assert.Equal(t, "sources", nf.Set)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
