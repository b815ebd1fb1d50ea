package rafkogym

import (
	"testing"

	"github.com/davids91/rafko-go/internal/testutil"
	"github.com/davids91/rafko-go/rafko"
	"github.com/davids91/rafko-go/rafkonet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizer_IterateReducesTrainingErrorOverManySteps(t *testing.T) {
	network, err := testutil.TinyNetwork()
	require.NoError(t, err)
	graph, err := NewGraphBuilder(network, rafkonet.CostMSE).Build()
	require.NoError(t, err)
	dataset, err := testutil.TinyDataset()
	require.NoError(t, err)

	settings := rafko.DefaultSettings()
	settings.MinibatchSize = uint32(dataset.NumberOfSequences())
	settings.LearningRate = 0.05
	settings.MaxSolveThreads = 1
	settings.MaxProcessingThreads = 1
	settings.SqrtOfSolveThreads = 1

	optimizer, err := NewOptimizer(network, graph, dataset, settings, 1)
	require.NoError(t, err)

	first, _, err := optimizer.Iterate()
	require.NoError(t, err)

	var last float64
	for i := 0; i < 50; i++ {
		last, _, err = optimizer.Iterate()
		require.NoError(t, err)
	}

	assert.Less(t, last, first, "training error should trend downward over 50 iterations")
}

func TestOptimizer_EvaluateErrorDoesNotMutateWeights(t *testing.T) {
	network, err := testutil.TinyNetwork()
	require.NoError(t, err)
	graph, err := NewGraphBuilder(network, rafkonet.CostMSE).Build()
	require.NoError(t, err)
	dataset, err := testutil.TinyDataset()
	require.NoError(t, err)

	settings := rafko.DefaultSettings()
	settings.MaxSolveThreads = 1
	settings.MaxProcessingThreads = 1
	settings.SqrtOfSolveThreads = 1
	optimizer, err := NewOptimizer(network, graph, dataset, settings, 2)
	require.NoError(t, err)

	before := append([]float64(nil), network.Weights...)
	_ = optimizer.EvaluateError(dataset)
	assert.Equal(t, before, network.Weights)
}

func TestOptimizer_CheckEarlyStoppingRequiresStrategyFlag(t *testing.T) {
	network, err := testutil.TinyNetwork()
	require.NoError(t, err)
	graph, err := NewGraphBuilder(network, rafkonet.CostMSE).Build()
	require.NoError(t, err)
	dataset, err := testutil.TinyDataset()
	require.NoError(t, err)

	settings := rafko.DefaultSettings()
	settings.MaxSolveThreads = 1
	settings.MaxProcessingThreads = 1
	settings.SqrtOfSolveThreads = 1
	optimizer, err := NewOptimizer(network, graph, dataset, settings, 3)
	require.NoError(t, err)

	assert.False(t, optimizer.CheckEarlyStopping(1.0))

	settings.TrainingStrategy = rafko.EarlyStopping
	optimizer.Settings = settings
	assert.False(t, optimizer.CheckEarlyStopping(1.0)) // first call just records the baseline
	assert.False(t, optimizer.CheckEarlyStopping(1.0))  // no regression yet
	assert.True(t, optimizer.CheckEarlyStopping(10.0))  // far worse than best-so-far
}
