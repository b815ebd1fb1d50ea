package rafkogym

import (
	"testing"

	"github.com/davids91/rafko-go/internal/testutil"
	"github.com/davids91/rafko-go/rafkonet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeWaves_EveryOperationPrecedesItsDependents(t *testing.T) {
	network, err := testutil.TinyNetwork()
	require.NoError(t, err)
	graph, err := NewGraphBuilder(network, rafkonet.CostMSE).Build()
	require.NoError(t, err)

	waves, depth := ComputeWaves(graph)
	require.NotEmpty(t, waves)

	for _, op := range graph.Operations {
		for _, dep := range op.Dependencies() {
			if dep == nil {
				continue
			}
			assert.Greater(t, depth[op.Index()], depth[dep.Index()],
				"operation %d's wave must run after dependency %d's", op.Index(), dep.Index())
		}
	}
}

func TestComputeWaves_PartitionsEveryOperationExactlyOnce(t *testing.T) {
	network, err := testutil.TinyNetwork()
	require.NoError(t, err)
	graph, err := NewGraphBuilder(network, rafkonet.CostMSE).Build()
	require.NoError(t, err)

	waves, _ := ComputeWaves(graph)
	seen := map[int]bool{}
	for _, w := range waves {
		for _, op := range w.Operations {
			assert.False(t, seen[op.Index()], "operation %d appears in more than one wave", op.Index())
			seen[op.Index()] = true
		}
	}
	assert.Len(t, seen, len(graph.Operations))
}
