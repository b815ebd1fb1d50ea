package rafkonet

import (
	"math/rand"
	"testing"

	"github.com/davids91/rafko-go/rafko"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyValidNetwork(t *testing.T) *Network {
	t.Helper()
	b := NewBuilder(rand.New(rand.NewSource(7)), nil)
	b.SetSizes(2, 1)
	_, err := b.AddLayer(LayerConfig{
		Size:                     2,
		AllowedTransferFunctions: AllTransferFunctions(),
		AllowedInputFunctions:    AllInputFunctions(),
		AllowedSpikeFunctions:    AllSpikeFunctions(),
	})
	require.NoError(t, err)
	network, err := b.Build(2)
	require.NoError(t, err)
	return network
}

func TestNetwork_ValidateAcceptsBuilderOutput(t *testing.T) {
	network := tinyValidNetwork(t)
	assert.NoError(t, network.Validate())
}

func TestNetwork_ValidateRejectsBackwardInputEdge(t *testing.T) {
	network := tinyValidNetwork(t)
	// Point neuron 0's input synapse at neuron 1 (a later index) instead of
	// a network input — the forward-only invariant must reject this.
	network.Neurons[0].InputSynapses[0].Start = 1

	err := network.Validate()
	require.Error(t, err)
	assert.IsType(t, &rafko.GraphInvariantError{}, err)
}

func TestNetwork_ValidateRejectsOutOfBoundsWeightSynapse(t *testing.T) {
	network := tinyValidNetwork(t)
	network.Neurons[0].WeightSynapses[0].Size = uint32(len(network.Weights)) + 10

	err := network.Validate()
	assert.Error(t, err)
}

func TestNetwork_OutputNeuronIndicesAreTrailing(t *testing.T) {
	network := tinyValidNetwork(t)
	indices := network.OutputNeuronIndices()
	assert.Len(t, indices, int(network.OutputCount))
	assert.Equal(t, uint32(network.NeuronCount())-network.OutputCount, indices[0])
}
