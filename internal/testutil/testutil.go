// Package testutil builds small, deterministic networks and datasets
// shared across rafkogym/rafkogpu/rafkonet test files.
package testutil

import (
	"math/rand"

	"github.com/davids91/rafko-go/rafkodataset"
	"github.com/davids91/rafko-go/rafkonet"
)

// TinyNetwork builds a 2-input, one-hidden-layer (size 3), 2-output
// feed-forward network with a fixed seed, deterministic across runs.
func TinyNetwork() (*rafkonet.Network, error) {
	rng := rand.New(rand.NewSource(11))
	b := rafkonet.NewBuilder(rng, nil)
	b.SetSizes(2, 1)
	if _, err := b.AddLayer(rafkonet.LayerConfig{
		Size:                     3,
		AllowedTransferFunctions: []rafkonet.TransferFunctionKind{rafkonet.TransferTanh},
		AllowedInputFunctions:    []rafkonet.InputFunctionKind{rafkonet.InputAdd},
		AllowedSpikeFunctions:    []rafkonet.SpikeFunctionKind{rafkonet.SpikeNone},
		BiasCount:                1,
	}); err != nil {
		return nil, err
	}
	if _, err := b.AddLayer(rafkonet.LayerConfig{
		Size:                     2,
		AllowedTransferFunctions: []rafkonet.TransferFunctionKind{rafkonet.TransferIdentity},
		AllowedInputFunctions:    []rafkonet.InputFunctionKind{rafkonet.InputAdd},
		AllowedSpikeFunctions:    []rafkonet.SpikeFunctionKind{rafkonet.SpikeNone},
		BiasCount:                1,
	}); err != nil {
		return nil, err
	}
	return b.Build(2)
}

// TinyDataset builds a 2-sequence, 1-prefill, 2-label-step dataset matching
// TinyNetwork's shape (input size 2, feature size 2).
func TinyDataset() (*rafkodataset.InMemoryDataset, error) {
	const inputSize, featureSize, sequenceSize, prefill, sequences = 2, 2, 2, 1, 2
	inputs := make([]float64, sequences*(sequenceSize+prefill)*inputSize)
	for i := range inputs {
		inputs[i] = float64(i%7) * 0.1
	}
	labels := make([]float64, sequences*sequenceSize*featureSize)
	for i := range labels {
		labels[i] = float64(i%3) * 0.2
	}
	return rafkodataset.NewInMemoryDataset(inputSize, featureSize, sequenceSize, prefill, sequences, inputs, labels)
}
