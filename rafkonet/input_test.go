package rafkonet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputFunction_AddReducesBySum(t *testing.T) {
	f := InputFunctionFor(InputAdd)
	assert.InDelta(t, 6.0, f.Reduce([]float64{1, 2, 3}), 1e-9)
}

func TestInputFunction_MultiplySeedsFromFirstOperand(t *testing.T) {
	f := InputFunctionFor(InputMultiply)
	assert.InDelta(t, 24.0, f.Reduce([]float64{2, 3, 4}), 1e-9)
	// A naive zero-seeded reducer would always return 0; guard against that.
	assert.InDelta(t, 5.0, f.Reduce([]float64{5}), 1e-9)
}

func TestInputFunction_ReduceEmptyIsZero(t *testing.T) {
	assert.Equal(t, float64(0), InputFunctionFor(InputAdd).Reduce(nil))
}

func TestInputFunction_MultiplyDerivativeIsProductRule(t *testing.T) {
	f := InputFunctionFor(InputMultiply)
	// d(a*b)/dw = da*b + a*db
	got := f.Derivative(2, 3, 1, 0)
	assert.InDelta(t, 3.0, got, 1e-9)
}

func TestInputFunction_KernelCombineEmbedsOperands(t *testing.T) {
	for _, kind := range AllInputFunctions() {
		expr := InputFunctionFor(kind).KernelCombine("acc", "next")
		assert.Contains(t, expr, "acc")
		assert.Contains(t, expr, "next")
	}
}
