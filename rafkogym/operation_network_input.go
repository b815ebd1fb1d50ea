package rafkogym

import (
	"fmt"

	"github.com/davids91/rafko-go/rafkonet"
)

// networkInputOperation is a graph leaf: it has no dependencies and its
// value is read straight from the current timestep's input sample.
// Network inputs are placed at the tail of the operation array (see
// builder.go) since nothing in the graph can depend on them before every
// neuron-chain node has already claimed its own index.
type networkInputOperation struct {
	baseOp
	inputIndex uint32
}

func newNetworkInputOperation(inputIndex uint32) *networkInputOperation {
	return &networkInputOperation{baseOp: baseOp{kind: KindNetworkInput}, inputIndex: inputIndex}
}

func (o *networkInputOperation) Dependencies() []Operation { return nil }

func (o *networkInputOperation) Value(store *BackpropData, _ *rafkonet.Network, input []float64) float64 {
	var v float64
	if int(o.inputIndex) < len(input) {
		v = input[o.inputIndex]
	}
	store.SetValue(o.index, v)
	return v
}

func (o *networkInputOperation) Derivative(store *BackpropData, _ *rafkonet.Network, weightIdx int) float64 {
	// A network input does not depend on any weight.
	store.SetDerivative(o.index, weightIdx, 0)
	return 0
}

func (o *networkInputOperation) KernelExpression() string {
	return fmt.Sprintf("inputs[%d]", o.inputIndex)
}

// DerivativeKernelExpression is always 0.0: a network input does not
// depend on any weight, the same as Derivative.
func (o *networkInputOperation) DerivativeKernelExpression() string {
	return "0.0"
}
