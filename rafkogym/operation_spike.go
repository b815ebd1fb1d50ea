package rafkogym

import (
	"fmt"

	"github.com/davids91/rafko-go/rafkonet"
)

// spikeOperation blends a neuron's freshly transferred value with its own
// previous value (read one step back from the store), per the neuron's
// spike function. Objective operations and other neurons' input operations
// reference this node, never the raw transfer value, so solution-relevant feature
// groups (see graph.go's applySolutionRelevantFeatures) can overwrite a
// member neuron's spike value after the main sweep without disturbing the
// rest of the chain.
type spikeOperation struct {
	baseOp
	neuronIdx   uint32
	transferDep Operation
	weightIdx   uint32
	fn          rafkonet.SpikeFunction
}

func (o *spikeOperation) Dependencies() []Operation {
	return []Operation{o.transferDep}
}

func (o *spikeOperation) Value(store *BackpropData, network *rafkonet.Network, _ []float64) float64 {
	transferred := store.GetValue(0, o.transferDep.Index())
	prevValue := store.GetValue(1, o.index)
	weight := network.Weights[o.weightIdx]
	v := o.fn.Value(weight, transferred, prevValue)
	store.SetValue(o.index, v)
	return v
}

func (o *spikeOperation) Derivative(store *BackpropData, network *rafkonet.Network, weightIdx int) float64 {
	transferred := store.GetValue(0, o.transferDep.Index())
	prevValue := store.GetValue(1, o.index)
	dTransferred := store.GetDerivative(0, o.transferDep.Index(), weightIdx)
	dPrevValue := store.GetDerivative(1, o.index, weightIdx)
	weight := network.Weights[o.weightIdx]

	var d float64
	if weightIdx == int(o.weightIdx) {
		d = o.fn.DerivativeForOwnParameter(weight, transferred, prevValue, dTransferred, dPrevValue)
	} else {
		d = o.fn.DerivativeForOtherParameter(weight, dTransferred, dPrevValue)
	}
	store.SetDerivative(o.index, weightIdx, d)
	return d
}

func (o *spikeOperation) KernelExpression() string {
	weightVar := fmt.Sprintf("weights[%d]", o.weightIdx)
	transferredVar := fmt.Sprintf("values(%d)", o.transferDep.Index())
	prevValueVar := fmt.Sprintf("history(%d, 1)", o.index)
	return o.fn.KernelExpression(weightVar, transferredVar, prevValueVar)
}

// DerivativeKernelExpression branches at runtime on d_w_index since one
// compiled kernel is dispatched once per weight index: the spike's own
// weight carries a direct term only when d_w_index names it, matching the
// own/other split spikeOperation.Derivative makes at Go-codegen-unknown
// runtime. past_value/past_derivative_value are the declared locals
// (tokens.go) the spike's previous value and derivative are assigned into.
func (o *spikeOperation) DerivativeKernelExpression() string {
	weightVar := fmt.Sprintf("weights[%d]", o.weightIdx)
	transferredVar := fmt.Sprintf("values(%d)", o.transferDep.Index())
	dTransferredVar := fmt.Sprintf("derivatives(%d)", o.transferDep.Index())
	own := o.fn.DerivativeKernelExpressionForOwnParameter(
		weightVar, transferredVar, "past_value", dTransferredVar, "past_derivative_value")
	other := o.fn.DerivativeKernelExpressionForOtherParameter(weightVar, dTransferredVar, "past_derivative_value")
	return fmt.Sprintf("(past_value = history(%d, 1), past_derivative_value = history_d(%d, 1), (d_w_index == %d) ? (%s) : (%s))",
		o.index, o.index, o.weightIdx, own, other)
}
