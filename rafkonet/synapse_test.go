package rafkonet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeInputIndex_RoundTrip(t *testing.T) {
	for _, idx := range []uint32{0, 1, 7, 1000} {
		encoded := EncodeInputIndex(idx)
		assert.Less(t, encoded, int32(0))
		assert.Equal(t, idx, DecodeInputIndex(encoded))
	}
}

func TestInputSynapse_IsNetworkInputDistinguishesZeroFromNeuronZero(t *testing.T) {
	networkInputZero := InputSynapse{Start: EncodeInputIndex(0)}
	neuronZero := InputSynapse{Start: 0}

	assert.True(t, networkInputZero.IsNetworkInput())
	assert.False(t, neuronZero.IsNetworkInput())
	assert.Equal(t, uint32(0), networkInputZero.NetworkInputIndex())
	assert.Equal(t, uint32(0), neuronZero.NeuronIndex())
}
