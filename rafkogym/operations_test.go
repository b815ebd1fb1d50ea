package rafkogym

import (
	"testing"

	"github.com/davids91/rafko-go/rafkonet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkInputOperation_ValueReadsFromInputSample(t *testing.T) {
	store := NewBackpropData()
	require.NoError(t, store.Build(1, 0, 0, 0, 1))
	op := newNetworkInputOperation(1)
	op.index = 0

	v := op.Value(store, nil, []float64{10, 20, 30})
	assert.Equal(t, float64(20), v)
	assert.Empty(t, op.Dependencies())
	assert.Contains(t, op.KernelExpression(), "inputs[1]")
}

func TestNetworkInputOperation_OutOfRangeIndexIsZero(t *testing.T) {
	store := NewBackpropData()
	require.NoError(t, store.Build(1, 0, 0, 0, 1))
	op := newNetworkInputOperation(5)
	op.index = 0
	v := op.Value(store, nil, []float64{1})
	assert.Equal(t, float64(0), v)
}

func TestNeuronBiasOperation_ChainsWithNext(t *testing.T) {
	store := NewBackpropData()
	require.NoError(t, store.Build(2, 0, 3, 0, 1))
	network := &rafkonet.Network{Weights: []float64{2, 5}}

	tail := newNeuronBiasOperation(0, 1, rafkonet.InputAdd)
	tail.index = 1
	head := newNeuronBiasOperation(0, 0, rafkonet.InputAdd)
	head.nextDep, head.hasNext = tail, true
	head.index = 0

	tail.Value(store, network, nil)
	v := head.Value(store, network, nil)
	assert.InDelta(t, 7.0, v, 1e-9) // weight[0] + weight[1] = 2 + 5

	tail.Derivative(store, network, 1)
	d := head.Derivative(store, network, 1)
	assert.InDelta(t, 1.0, d, 1e-9) // d/dw1 of (w0+w1) is 1
}

func TestNeuronInputOperation_ReachPastExcludesProducerFromDependencies(t *testing.T) {
	producer := newNetworkInputOperation(0)
	producer.index = 2

	current := newNeuronInputOperation(0, 0, producer, 0, rafkonet.InputAdd)
	current.index = 1
	assert.Contains(t, current.Dependencies(), Operation(producer))

	delayed := newNeuronInputOperation(0, 0, producer, 1, rafkonet.InputAdd)
	delayed.index = 1
	assert.NotContains(t, delayed.Dependencies(), Operation(producer))
	assert.Contains(t, delayed.KernelExpression(), "history(2, 1)")
}

func TestTransferOperation_NoHeadDepValuesAtZero(t *testing.T) {
	store := NewBackpropData()
	require.NoError(t, store.Build(1, 0, 0, 0, 1))
	op := newTransferOperation(0, rafkonet.TransferFunctionFor(rafkonet.TransferIdentity))
	op.index = 0
	assert.Nil(t, op.Dependencies())
	v := op.Value(store, nil, nil)
	assert.Equal(t, float64(0), v)
	assert.Equal(t, "0.0", op.KernelExpression())
}

func TestSpikeOperation_ValueBlendsTransferAndPrevious(t *testing.T) {
	store := NewBackpropData()
	require.NoError(t, store.Build(2, 0, 1, 0, 1))
	network := &rafkonet.Network{Weights: []float64{0.5}}

	transfer := newTransferOperation(0, rafkonet.TransferFunctionFor(rafkonet.TransferIdentity))
	transfer.index = 1
	store.SetValue(1, 4.0)

	spike := &spikeOperation{
		baseOp:      baseOp{kind: KindSpike},
		transferDep: transfer,
		weightIdx:   0,
		fn:          rafkonet.SpikeFunctionFor(rafkonet.SpikeMemoryBlend),
	}
	spike.index = 0

	v := spike.Value(store, network, nil)
	// prevValue defaults to 0 (nothing written to past=1 yet): blend is
	// weight*0 + (1-weight)*4 = 2.0
	assert.InDelta(t, 2.0, v, 1e-9)
}

func TestFeatureRegularisationOperation_L1UsesAbsoluteValue(t *testing.T) {
	store := NewBackpropData()
	require.NoError(t, store.Build(1, 1, 2, 0, 1))
	network := &rafkonet.Network{Weights: []float64{-3, 4}}

	op := newFeatureRegularisationOperation(rafkonet.FeatureL1Regularization, []uint32{0, 1})
	op.index = 0

	v := op.Value(store, network, nil)
	assert.InDelta(t, 3+4, v, 1e-9)

	d := op.Derivative(store, network, 0)
	assert.InDelta(t, -1, d, 1e-9) // sign(-3) == -1
}

func TestFeatureRegularisationOperation_L2UsesSquaredValue(t *testing.T) {
	store := NewBackpropData()
	require.NoError(t, store.Build(1, 1, 1, 0, 1))
	network := &rafkonet.Network{Weights: []float64{2}}

	op := newFeatureRegularisationOperation(rafkonet.FeatureL2Regularization, []uint32{0})
	op.index = 0
	v := op.Value(store, network, nil)
	assert.InDelta(t, 4.0, v, 1e-9) // 2*2 = 4
}

func TestObjectiveOperation_ValueUsesCostCell(t *testing.T) {
	store := NewBackpropData()
	require.NoError(t, store.Build(2, 1, 0, 0, 1))
	spikeStub := newNetworkInputOperation(0)
	spikeStub.index = 1
	store.SetValue(1, 0.7)

	obj := newObjectiveOperation(0, spikeStub, rafkonet.CostFunctionFor(rafkonet.CostSquaredError), 1)
	obj.index = 0
	obj.SetLabel(1.0)

	v := obj.Value(store, nil, nil)
	assert.InDelta(t, 0.5*0.3*0.3, v, 1e-9)
	assert.Contains(t, obj.KernelExpression(), "labels[0]")
}
