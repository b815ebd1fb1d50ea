package neuronrouter

import (
	"math/rand"
	"testing"

	"github.com/davids91/rafko-go/rafkonet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoLayerNetwork(t *testing.T) *rafkonet.Network {
	t.Helper()
	b := rafkonet.NewBuilder(rand.New(rand.NewSource(3)), nil)
	b.SetSizes(2, 1)
	_, err := b.AddLayer(rafkonet.LayerConfig{
		Size:                     3,
		AllowedTransferFunctions: rafkonet.AllTransferFunctions(),
		AllowedInputFunctions:    rafkonet.AllInputFunctions(),
		AllowedSpikeFunctions:    rafkonet.AllSpikeFunctions(),
	})
	require.NoError(t, err)
	_, err = b.AddLayer(rafkonet.LayerConfig{
		Size:                     2,
		AllowedTransferFunctions: rafkonet.AllTransferFunctions(),
		AllowedInputFunctions:    rafkonet.AllInputFunctions(),
		AllowedSpikeFunctions:    rafkonet.AllSpikeFunctions(),
	})
	require.NoError(t, err)
	network, err := b.Build(2)
	require.NoError(t, err)
	return network
}

func TestRouter_CollectSubsetRespectsLayerOrder(t *testing.T) {
	network := twoLayerNetwork(t)
	router := NewRouter(network)

	first := router.CollectSubset(0, 0, true)
	assert.ElementsMatch(t, []int{0, 1, 2}, first)
	for _, idx := range first {
		router.ConfirmProcessed(idx)
	}

	second := router.CollectSubset(0, 0, true)
	assert.ElementsMatch(t, []int{3, 4}, second)
}

func TestRouter_FinishedOnlyAfterEveryNeuronProcessed(t *testing.T) {
	network := twoLayerNetwork(t)
	router := NewRouter(network)
	assert.False(t, router.Finished())

	for !router.Finished() {
		subset := router.CollectSubset(0, 0, true)
		require.NotEmpty(t, subset)
		for _, idx := range subset {
			router.ConfirmProcessed(idx)
		}
	}
	assert.True(t, router.Finished())
}

func TestRouter_CollectSubsetHonoursMaxThreads(t *testing.T) {
	network := twoLayerNetwork(t)
	router := NewRouter(network)
	subset := router.CollectSubset(2, 0, true)
	assert.Len(t, subset, 2)
}

func TestRouter_ResetRestoresUnprocessedState(t *testing.T) {
	network := twoLayerNetwork(t)
	router := NewRouter(network)
	for !router.Finished() {
		subset := router.CollectSubset(0, 0, true)
		for _, idx := range subset {
			router.ConfirmProcessed(idx)
		}
	}
	require.True(t, router.Finished())

	router.Reset()
	assert.False(t, router.Finished())
	first := router.CollectSubset(0, 0, true)
	assert.ElementsMatch(t, []int{0, 1, 2}, first)
}

func TestRouter_DebugSnapshotReflectsState(t *testing.T) {
	network := twoLayerNetwork(t)
	router := NewRouter(network)
	subset := router.CollectSubset(1, 0, true)
	require.Len(t, subset, 1)
	router.ConfirmProcessed(subset[0])

	snapshot := router.DebugSnapshot()
	assert.Equal(t, "processed", snapshot[subset[0]])
	keys := router.DebugKeys(snapshot)
	assert.True(t, len(keys) == len(network.Neurons))
}
