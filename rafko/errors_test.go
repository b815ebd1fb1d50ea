package rafko

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBuilderInvariant_FormatsMessage(t *testing.T) {
	err := NewBuilderInvariant("layer %d has zero size", 3)
	assert.EqualError(t, err, "builder invariant violated: layer 3 has zero size")
	assert.IsType(t, &BuilderInvariantError{}, err)
}

func TestNewGraphInvariant_FormatsMessage(t *testing.T) {
	err := NewGraphInvariant("operation %d depends on %d", 1, 5)
	assert.EqualError(t, err, "graph invariant violated: operation 1 depends on 5")
}

func TestNewBoundsCheck_FormatsMessage(t *testing.T) {
	err := NewBoundsCheck("index %d out of range [0, %d)", 10, 5)
	assert.EqualError(t, err, "bounds check failed: index 10 out of range [0, 5)")
}

func TestNewRuntimeResource_WrapsUnderlyingError(t *testing.T) {
	cause := errors.New("kernel compile failed")
	err := NewRuntimeResource(cause, "shader link")
	assert.EqualError(t, err, "runtime resource error: shader link: kernel compile failed")
	assert.ErrorIs(t, err, cause)
}

func TestNewRuntimeResource_OmitsColonWithoutUnderlyingError(t *testing.T) {
	err := NewRuntimeResource(nil, "no GPU context available")
	assert.EqualError(t, err, "runtime resource error: no GPU context available")
	assert.Nil(t, errors.Unwrap(err))
}
