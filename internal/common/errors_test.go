package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConflictVariants_WrapErrConflict(t *testing.T) {
	for _, err := range []error{ErrAlreadyQueued, ErrShiftClosed, ErrDuplicatePhone} {
		assert.ErrorIs(t, err, ErrConflict, err.Error())
	}
	assert.False(t, errors.Is(ErrAlreadyQueued, ErrShiftClosed))
}

func TestValidationf(t *testing.T) {
	err := Validationf("field %q is required", "phone")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, `validation error: field "phone" is required`, err.Error())
}
