package rafkonet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferFunction_SigmoidValue(t *testing.T) {
	f := TransferFunctionFor(TransferSigmoid)
	assert.InDelta(t, 0.5, f.Value(0), 1e-9)
}

func TestTransferFunction_ReLUClampsNegatives(t *testing.T) {
	f := TransferFunctionFor(TransferReLU)
	assert.Equal(t, float64(0), f.Value(-3))
	assert.Equal(t, float64(2), f.Value(2))
	assert.Equal(t, float64(0), f.Derivative(-1, 1))
	assert.Equal(t, float64(1), f.Derivative(1, 1))
}

func TestTransferFunction_IdentityIsNoOp(t *testing.T) {
	f := TransferFunctionFor(TransferIdentity)
	assert.Equal(t, 4.2, f.Value(4.2))
	assert.Equal(t, 3.0, f.Derivative(1.0, 3.0))
}

func TestTransferFunction_DerivativeMatchesFiniteDifference(t *testing.T) {
	const h = 1e-6
	for _, kind := range AllTransferFunctions() {
		f := TransferFunctionFor(kind)
		x := 0.3
		numeric := (f.Value(x+h) - f.Value(x-h)) / (2 * h)
		analytic := f.Derivative(x, 1.0)
		assert.InDelta(t, numeric, analytic, 1e-3, "kind %s", kind)
	}
}

func TestTransferFunction_KernelExpressionEmbedsVarName(t *testing.T) {
	for _, kind := range AllTransferFunctions() {
		expr := TransferFunctionFor(kind).KernelExpression("my_x")
		assert.Contains(t, expr, "my_x")
	}
}
