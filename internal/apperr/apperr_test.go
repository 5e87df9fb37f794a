package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWrapsCauseAndReportsKind(t *testing.T) {
	cause := errors.New("machine M-1 is under maintenance")
	err := New(ResourceConflict, "MACHINE_UNAVAILABLE", cause)

	assert.Equal(t, ResourceConflict, err.Kind())
	assert.Equal(t, "MACHINE_UNAVAILABLE", err.Code())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "machine M-1 is under maintenance")
}

func TestKindOfUnwrapsThroughFmtErrorf(t *testing.T) {
	base := New(Optimization, "SOLVER_TIMEOUT", errors.New("deadline exceeded"))
	outer := fmt.Errorf("solve failed: %w", base)

	kind, ok := KindOf(outer)
	require.True(t, ok)
	assert.Equal(t, Optimization, kind)
}

func TestIsMatchesExpectedKind(t *testing.T) {
	err := Newf(Validation, "BAD_SEQUENCE", "sequence %d out of range", 101)
	assert.True(t, Is(err, Validation))
	assert.False(t, Is(err, NotFound))
}

func TestKindOfReturnsFalseForPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestWithContextIsRetrievable(t *testing.T) {
	err := New(BusinessRule, "WIP_LIMIT", errors.New("zone Z-1 wip limit exceeded")).
		WithContext(map[string]any{"zone": "Z-1", "limit": 3})

	assert.Equal(t, "Z-1", err.Context()["zone"])
}
