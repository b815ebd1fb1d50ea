package rafkodataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInMemoryDataset_RejectsWrongLabelLength(t *testing.T) {
	_, err := NewInMemoryDataset(2, 1, 3, 0, 1, make([]float64, 6), make([]float64, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "labels")
}

func TestNewInMemoryDataset_RejectsWrongInputLength(t *testing.T) {
	_, err := NewInMemoryDataset(2, 1, 3, 0, 1, make([]float64, 5), make([]float64, 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inputs")
}

func TestNewInMemoryDataset_RejectsNonPositiveShape(t *testing.T) {
	_, err := NewInMemoryDataset(0, 1, 3, 0, 1, nil, nil)
	assert.Error(t, err)
}

func TestNewInMemoryDataset_AccountsForPrefillInInputLength(t *testing.T) {
	// 1 sequence, 2 prefill + 3 labelled steps, input size 2.
	inputs := make([]float64, 1*(3+2)*2)
	labels := make([]float64, 1*3*1)
	ds, err := NewInMemoryDataset(2, 1, 3, 2, 1, inputs, labels)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.SequenceSize())
	assert.Equal(t, 2, ds.PrefillSamplesNumber())
	assert.Equal(t, 1, ds.NumberOfSequences())
}

func TestInMemoryDataset_SampleViewsAreBorrowedSlices(t *testing.T) {
	inputs := []float64{1, 2, 3, 4, 5, 6}
	labels := []float64{10, 20}
	ds, err := NewInMemoryDataset(2, 1, 2, 1, 1, inputs, labels)
	require.NoError(t, err)

	sample := ds.GetInputSample(1)
	assert.Equal(t, []float64{3, 4}, sample)
	sample[0] = 99
	assert.Equal(t, float64(99), inputs[2], "GetInputSample must return a view, not a copy")

	assert.Equal(t, []float64{10}, ds.GetLabelSample(0))
}

func TestInMemoryDataset_SequenceStartsAccountForPrefill(t *testing.T) {
	// 2 sequences, prefill 1, sequence size 2, input size 1.
	ds, err := NewInMemoryDataset(1, 1, 2, 1, 2, make([]float64, 2*3), make([]float64, 2*2))
	require.NoError(t, err)

	assert.Equal(t, 0, ds.SequenceInputStart(0))
	assert.Equal(t, 3, ds.SequenceInputStart(1))
	assert.Equal(t, 0, ds.SequenceLabelStart(0))
	assert.Equal(t, 2, ds.SequenceLabelStart(1))
}
