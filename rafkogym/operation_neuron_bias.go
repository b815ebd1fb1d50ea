package rafkogym

import (
	"fmt"

	"github.com/davids91/rafko-go/rafkonet"
)

// neuronBiasOperation is one weight-only term in a neuron's input chain: it
// contributes its own weight as a constant addend (bias) or factor,
// combined with the next bias slot (or nothing, at the chain's end) the
// same way input slots combine (see operation_neuron_input.go).
type neuronBiasOperation struct {
	baseOp
	neuronIdx  uint32
	weightIdx  uint32
	combine    rafkonet.InputFunctionKind
	nextDep    Operation // next bias slot, or nil at the chain's end
	hasNext    bool
}

func newNeuronBiasOperation(neuronIdx, weightIdx uint32, combine rafkonet.InputFunctionKind) *neuronBiasOperation {
	return &neuronBiasOperation{
		baseOp:    baseOp{kind: KindNeuronBias},
		neuronIdx: neuronIdx,
		weightIdx: weightIdx,
		combine:   combine,
	}
}

func (o *neuronBiasOperation) Dependencies() []Operation {
	if o.hasNext {
		return []Operation{o.nextDep}
	}
	return nil
}

func (o *neuronBiasOperation) Value(store *BackpropData, network *rafkonet.Network, input []float64) float64 {
	own := network.Weights[o.weightIdx]
	if !o.hasNext {
		store.SetValue(o.index, own)
		return own
	}
	rest := store.GetValue(0, o.nextDep.Index())
	v := rafkonet.InputFunctionFor(o.combine).Reduce([]float64{own, rest})
	store.SetValue(o.index, v)
	return v
}

func (o *neuronBiasOperation) Derivative(store *BackpropData, network *rafkonet.Network, weightIdx int) float64 {
	own := network.Weights[o.weightIdx]
	dOwn := 0.0
	if weightIdx == int(o.weightIdx) {
		dOwn = 1.0
	}
	if !o.hasNext {
		store.SetDerivative(o.index, weightIdx, dOwn)
		return dOwn
	}
	rest := store.GetValue(0, o.nextDep.Index())
	dRest := store.GetDerivative(0, o.nextDep.Index(), weightIdx)
	d := rafkonet.InputFunctionFor(o.combine).Derivative(own, rest, dOwn, dRest)
	store.SetDerivative(o.index, weightIdx, d)
	return d
}

func (o *neuronBiasOperation) KernelExpression() string {
	own := fmt.Sprintf("weights[%d]", o.weightIdx)
	if !o.hasNext {
		return own
	}
	rest := fmt.Sprintf("values(%d)", o.nextDep.Index())
	return rafkonet.InputFunctionFor(o.combine).KernelCombine(own, rest)
}

// DerivativeKernelExpression mirrors operation_neuron_input.go's: a bias
// slot's own term is just its weight, so f_x_derivative is 1.0 exactly
// when d_w_index names this slot's weight.
func (o *neuronBiasOperation) DerivativeKernelExpression() string {
	weightVar := fmt.Sprintf("weights[%d]", o.weightIdx)
	assignOwn := fmt.Sprintf("f_x_value = %s", weightVar)
	assignDOwn := fmt.Sprintf("f_x_derivative = (d_w_index == %d ? 1.0 : 0.0)", o.weightIdx)
	if !o.hasNext {
		return fmt.Sprintf("(%s, %s, f_x_derivative)", assignOwn, assignDOwn)
	}
	assignRest := fmt.Sprintf("u_x_value = values(%d)", o.nextDep.Index())
	assignDRest := fmt.Sprintf("u_x_derivative = derivatives(%d)", o.nextDep.Index())
	combine := rafkonet.InputFunctionFor(o.combine).DerivativeKernelCombine("f_x_value", "u_x_value", "f_x_derivative", "u_x_derivative")
	return fmt.Sprintf("(%s, %s, %s, %s, %s)", assignOwn, assignDOwn, assignRest, assignDRest, combine)
}
