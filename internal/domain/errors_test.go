package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stocktake-api/internal/domain"
)

func TestErrores_ClasePorErrorEspecifico(t *testing.T) {
	cases := []struct {
		err  error
		kind error
	}{
		{domain.ErrInvalidQuantity, domain.ErrValidation},
		{domain.ErrInvalidThresholds, domain.ErrValidation},
		{domain.ErrTaskNotActive, domain.ErrState},
		{domain.ErrIncompleteItems, domain.ErrState},
		{domain.ErrEmptyTask, domain.ErrState},
		{domain.ErrSameSnapshot, domain.ErrState},
		{domain.ErrTaskNotFound, domain.ErrNotFound},
		{domain.ErrItemNotFound, domain.ErrNotFound},
		{domain.ErrDuplicateItem, domain.ErrConflict},
		{domain.ErrConcurrentModification, domain.ErrConflict},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, tc.err, tc.kind, "%s debe pertenecer a su clase", domain.Code(tc.err))
	}
	assert.False(t, errors.Is(domain.ErrDuplicateItem, domain.ErrState))
}

func TestTaskError_ConservaContextoYCadena(t *testing.T) {
	err := fmt.Errorf("completar: %w", domain.NewTaskError("c-1", "cancelled", domain.ErrTaskNotActive))

	assert.ErrorIs(t, err, domain.ErrTaskNotActive)
	assert.ErrorIs(t, err, domain.ErrState)
	assert.Equal(t, "TASK_NOT_ACTIVE", domain.Code(err))
	assert.Contains(t, err.Error(), "c-1")
	assert.Contains(t, err.Error(), "cancelled")

	var te *domain.TaskError
	if assert.True(t, errors.As(err, &te)) {
		assert.Equal(t, "cancelled", te.Status)
	}
}

func TestCode_ErrorAjeno(t *testing.T) {
	assert.Equal(t, "", domain.Code(errors.New("otro")))
}
