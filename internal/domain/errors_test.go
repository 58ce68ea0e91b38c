package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferenceNotFoundError(t *testing.T) {
	err := NewReferenceNotFound("materials", "MAT-COPPER")

	assert.True(t, IsReferenceNotFound(err))
	assert.Contains(t, err.Error(), "materials")
	assert.Contains(t, err.Error(), "MAT-COPPER")
}

func TestReferenceNotFoundErrorWrapped(t *testing.T) {
	inner := NewReferenceNotFound("products", "SKU-404")
	wrapped := fmt.Errorf("pricing tender T-1: %w", inner)

	assert.True(t, IsReferenceNotFound(wrapped))

	var refErr *ReferenceNotFoundError
	assert.True(t, errors.As(wrapped, &refErr))
	assert.Equal(t, "products", refErr.Table)
	assert.Equal(t, "SKU-404", refErr.ID)
}

func TestUnparseableTermsError(t *testing.T) {
	err := NewUnparseableTerms("cash on delivery")

	assert.True(t, IsUnparseableTerms(err))
	assert.False(t, IsReferenceNotFound(err))
	assert.Contains(t, err.Error(), "cash on delivery")
}

func TestIsHelpersRejectOtherErrors(t *testing.T) {
	plain := errors.New("boom")

	assert.False(t, IsReferenceNotFound(plain))
	assert.False(t, IsUnparseableTerms(plain))
	assert.False(t, IsReferenceNotFound(nil))
}
