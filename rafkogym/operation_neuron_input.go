package rafkogym

import (
	"fmt"

	"github.com/davids91/rafko-go/rafkonet"
)

// neuronInputOperation is one weighted-input term of a neuron's input
// chain. Consecutive slots combine left to right with the neuron's input
// function, terminating in the neuron's bias chain (operation_neuron_bias.go)
// rather than a literal zero, so Add and Multiply both see every term.
type neuronInputOperation struct {
	baseOp
	neuronIdx uint32
	weightIdx uint32
	producer  Operation // the Spike or NetworkInput this slot reads
	reachPast uint32
	combine   rafkonet.InputFunctionKind
	nextDep   Operation // next input slot, or the bias chain's head
	hasNext   bool
}

func newNeuronInputOperation(neuronIdx, weightIdx uint32, producer Operation, reachPast uint32, combine rafkonet.InputFunctionKind) *neuronInputOperation {
	return &neuronInputOperation{
		baseOp:    baseOp{kind: KindNeuronInput},
		neuronIdx: neuronIdx,
		weightIdx: weightIdx,
		producer:  producer,
		reachPast: reachPast,
		combine:   combine,
	}
}

func (o *neuronInputOperation) Dependencies() []Operation {
	var deps []Operation
	if o.reachPast == 0 {
		deps = append(deps, o.producer)
	}
	if o.hasNext {
		deps = append(deps, o.nextDep)
	}
	return deps
}

func (o *neuronInputOperation) Value(store *BackpropData, network *rafkonet.Network, input []float64) float64 {
	producerVal := store.GetValue(int(o.reachPast), o.producer.Index())
	own := network.Weights[o.weightIdx] * producerVal
	if !o.hasNext {
		store.SetValue(o.index, own)
		return own
	}
	rest := store.GetValue(0, o.nextDep.Index())
	v := rafkonet.InputFunctionFor(o.combine).Reduce([]float64{own, rest})
	store.SetValue(o.index, v)
	return v
}

func (o *neuronInputOperation) Derivative(store *BackpropData, network *rafkonet.Network, weightIdx int) float64 {
	producerVal := store.GetValue(int(o.reachPast), o.producer.Index())
	dProducer := store.GetDerivative(int(o.reachPast), o.producer.Index(), weightIdx)
	weight := network.Weights[o.weightIdx]
	indicator := 0.0
	if weightIdx == int(o.weightIdx) {
		indicator = 1.0
	}
	dOwn := indicator*producerVal + weight*dProducer
	if !o.hasNext {
		store.SetDerivative(o.index, weightIdx, dOwn)
		return dOwn
	}
	own := weight * producerVal
	rest := store.GetValue(0, o.nextDep.Index())
	dRest := store.GetDerivative(0, o.nextDep.Index(), weightIdx)
	d := rafkonet.InputFunctionFor(o.combine).Derivative(own, rest, dOwn, dRest)
	store.SetDerivative(o.index, weightIdx, d)
	return d
}

// KernelExpression renders this slot's term. A reach_past > 0 producer is
// addressed through a `history(index, past)` lookup the dispatch side
// defines over its ring-buffer-shaped SSBO; a reach_past == 0 producer
// reads straight from the current `values[]` buffer.
func (o *neuronInputOperation) KernelExpression() string {
	var producerExpr string
	if o.reachPast == 0 {
		producerExpr = fmt.Sprintf("values(%d)", o.producer.Index())
	} else {
		producerExpr = fmt.Sprintf("history(%d, %d)", o.producer.Index(), o.reachPast)
	}
	own := fmt.Sprintf("(weights[%d] * %s)", o.weightIdx, producerExpr)
	if !o.hasNext {
		return own
	}
	rest := fmt.Sprintf("values(%d)", o.nextDep.Index())
	return rafkonet.InputFunctionFor(o.combine).KernelCombine(own, rest)
}

// DerivativeKernelExpression assigns the declared f_x_value/u_x_value and
// f_x_derivative/u_x_derivative locals (tokens.go) exactly the way this
// slot's Derivative computes own/rest and dOwn/dRest, then combines the
// derivative locals with the input function's own kernel-text form.
func (o *neuronInputOperation) DerivativeKernelExpression() string {
	var producerExpr, dProducerExpr string
	if o.reachPast == 0 {
		producerExpr = fmt.Sprintf("values(%d)", o.producer.Index())
		dProducerExpr = fmt.Sprintf("derivatives(%d)", o.producer.Index())
	} else {
		producerExpr = fmt.Sprintf("history(%d, %d)", o.producer.Index(), o.reachPast)
		dProducerExpr = fmt.Sprintf("history_d(%d, %d)", o.producer.Index(), o.reachPast)
	}
	weightVar := fmt.Sprintf("weights[%d]", o.weightIdx)
	indicator := fmt.Sprintf("(d_w_index == %d ? 1.0 : 0.0)", o.weightIdx)
	assignOwn := fmt.Sprintf("f_x_value = (%s) * (%s)", weightVar, producerExpr)
	assignDOwn := fmt.Sprintf("f_x_derivative = (%s) * (%s) + (%s) * (%s)", indicator, producerExpr, weightVar, dProducerExpr)
	if !o.hasNext {
		return fmt.Sprintf("(%s, %s, f_x_derivative)", assignOwn, assignDOwn)
	}
	assignRest := fmt.Sprintf("u_x_value = values(%d)", o.nextDep.Index())
	assignDRest := fmt.Sprintf("u_x_derivative = derivatives(%d)", o.nextDep.Index())
	combine := rafkonet.InputFunctionFor(o.combine).DerivativeKernelCombine("f_x_value", "u_x_value", "f_x_derivative", "u_x_derivative")
	return fmt.Sprintf("(%s, %s, %s, %s, %s)", assignOwn, assignDOwn, assignRest, assignDRest, combine)
}
