package rafkogym

import (
	"fmt"

	"github.com/davids91/rafko-go/rafkonet"
)

// transferOperation applies a neuron's transfer (activation) function to
// the reduced value of its input chain.
type transferOperation struct {
	baseOp
	neuronIdx uint32
	headDep   Operation // first NeuronInput slot, or first NeuronBias slot if the neuron takes no inputs
	fn        rafkonet.TransferFunction
}

func newTransferOperation(neuronIdx uint32, fn rafkonet.TransferFunction) *transferOperation {
	return &transferOperation{baseOp: baseOp{kind: KindTransfer}, neuronIdx: neuronIdx, fn: fn}
}

func (o *transferOperation) Dependencies() []Operation {
	if o.headDep == nil {
		return nil
	}
	return []Operation{o.headDep}
}

func (o *transferOperation) Value(store *BackpropData, _ *rafkonet.Network, _ []float64) float64 {
	var x float64
	if o.headDep != nil {
		x = store.GetValue(0, o.headDep.Index())
	}
	v := o.fn.Value(x)
	store.SetValue(o.index, v)
	return v
}

func (o *transferOperation) Derivative(store *BackpropData, _ *rafkonet.Network, weightIdx int) float64 {
	var x, dx float64
	if o.headDep != nil {
		x = store.GetValue(0, o.headDep.Index())
		dx = store.GetDerivative(0, o.headDep.Index(), weightIdx)
	}
	d := o.fn.Derivative(x, dx)
	store.SetDerivative(o.index, weightIdx, d)
	return d
}

func (o *transferOperation) KernelExpression() string {
	varName := "0.0"
	if o.headDep != nil {
		varName = fmt.Sprintf("values(%d)", o.headDep.Index())
	}
	return o.fn.KernelExpression(varName)
}

func (o *transferOperation) DerivativeKernelExpression() string {
	xVar, dxVar := "0.0", "0.0"
	if o.headDep != nil {
		xVar = fmt.Sprintf("values(%d)", o.headDep.Index())
		dxVar = fmt.Sprintf("derivatives(%d)", o.headDep.Index())
	}
	return o.fn.DerivativeKernelExpression(xVar, dxVar)
}
