package rafkogpu

import (
	"strconv"
	"testing"

	"github.com/davids91/rafko-go/internal/testutil"
	"github.com/davids91/rafko-go/rafkogym"
	"github.com/davids91/rafko-go/rafkonet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests exercise Emit's pure text-generation path only. Compile,
// Dispatch and DispatchDerivative need a live OpenGL context and are not
// reachable without a GPU/display, so they aren't covered here.

func buildTinyGraphForEmit(t *testing.T) *rafkogym.Graph {
	t.Helper()
	network, err := testutil.TinyNetwork()
	require.NoError(t, err)
	graph, err := rafkogym.NewGraphBuilder(network, rafkonet.CostMSE).Build()
	require.NoError(t, err)
	return graph
}

func TestEmitter_EmitProducesOneCaseLabelPerOperation(t *testing.T) {
	graph := buildTinyGraphForEmit(t)
	waves, _ := rafkogym.ComputeWaves(graph)

	source, err := NewEmitter().Emit(graph, waves, 4)
	require.NoError(t, err)

	for _, op := range graph.Operations {
		assert.Contains(t, source, "case "+strconv.Itoa(op.Index())+":")
	}
	assert.Contains(t, source, "#define values(i)")
	assert.Contains(t, source, "layout(local_size_x = 4) in;")
}

func TestEmitter_EmitInsertsBarrierBetweenWaves(t *testing.T) {
	graph := buildTinyGraphForEmit(t)
	waves, _ := rafkogym.ComputeWaves(graph)
	require.Greater(t, len(waves), 1, "tiny network's chain should span multiple waves")

	source, err := NewEmitter().Emit(graph, waves, 2)
	require.NoError(t, err)
	assert.Contains(t, source, "barrier();")
}

func TestEmitter_EmitRejectsZeroWorkers(t *testing.T) {
	graph := buildTinyGraphForEmit(t)
	waves, _ := rafkogym.ComputeWaves(graph)
	_, err := NewEmitter().Emit(graph, waves, 0)
	assert.Error(t, err)
}

func TestEmitter_EmitRejectsEmptyGraph(t *testing.T) {
	_, err := NewEmitter().Emit(&rafkogym.Graph{}, nil, 1)
	assert.Error(t, err)
}
