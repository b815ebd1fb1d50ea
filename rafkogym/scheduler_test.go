package rafkogym

import (
	"testing"

	"github.com/davids91/rafko-go/internal/testutil"
	"github.com/davids91/rafko-go/rafkonet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunForwardMatchesSequentialEvaluate(t *testing.T) {
	network, err := testutil.TinyNetwork()
	require.NoError(t, err)
	graph, err := NewGraphBuilder(network, rafkonet.CostMSE).Build()
	require.NoError(t, err)

	input := []float64{0.4, -0.2}

	sequential := NewBackpropData()
	require.NoError(t, sequential.Build(len(graph.Operations), graph.WeightRelevantOperationCount, network.WeightCount(), network.MemorySize, 1))
	graph.SetLabels([]float64{0, 0})
	for i := len(graph.Operations) - 1; i >= graph.WeightRelevantOperationCount; i-- {
		graph.Operations[i].Value(sequential, network, input)
	}
	graph.applySolutionRelevantFeatures(sequential)
	for i := graph.WeightRelevantOperationCount - 1; i >= 0; i-- {
		graph.Operations[i].Value(sequential, network, input)
	}

	scheduled := NewBackpropData()
	require.NoError(t, scheduled.Build(len(graph.Operations), graph.WeightRelevantOperationCount, network.WeightCount(), network.MemorySize, 1))
	graph.SetLabels([]float64{0, 0})
	NewScheduler(4).RunForward(graph, scheduled, input)

	for i := range graph.Operations {
		assert.InDelta(t, sequential.GetValue(0, i), scheduled.GetValue(0, i), 1e-12, "operation %d", i)
	}
}

func TestScheduler_ClampsSubOneMaxThreads(t *testing.T) {
	s := NewScheduler(0)
	assert.Equal(t, 1, s.MaxThreads)
}
