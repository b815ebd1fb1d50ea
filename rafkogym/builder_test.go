package rafkogym

import (
	"testing"

	"github.com/davids91/rafko-go/internal/testutil"
	"github.com/davids91/rafko-go/rafkonet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphBuilder_BuildProducesAValidGraph(t *testing.T) {
	network, err := testutil.TinyNetwork()
	require.NoError(t, err)

	graph, err := NewGraphBuilder(network, rafkonet.CostMSE).Build()
	require.NoError(t, err)
	require.NotNil(t, graph)

	assert.NoError(t, graph.Validate())
	assert.Equal(t, 2, graph.WeightRelevantOperationCount) // one Objective per output, no feature groups
	assert.Len(t, graph.Objectives(), 2)
}

func TestGraphBuilder_EveryDependencyHasStrictlyGreaterIndex(t *testing.T) {
	network, err := testutil.TinyNetwork()
	require.NoError(t, err)
	graph, err := NewGraphBuilder(network, rafkonet.CostSquaredError).Build()
	require.NoError(t, err)

	for _, op := range graph.Operations {
		for _, dep := range op.Dependencies() {
			if dep == nil {
				continue
			}
			assert.Greater(t, dep.Index(), op.Index(),
				"operation %d (%s) dependency %d (%s)", op.Index(), op.Kind(), dep.Index(), dep.Kind())
		}
	}
}

func TestGraphBuilder_RejectsInvalidNetwork(t *testing.T) {
	network := &rafkonet.Network{} // no neurons, no output count
	_, err := NewGraphBuilder(network, rafkonet.CostMSE).Build()
	assert.Error(t, err)
}
