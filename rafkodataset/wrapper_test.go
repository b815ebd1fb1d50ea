package rafkodataset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	inputs := []float64{1, 2, 3, 4, 5, 6}
	labels := []float64{0.5, 0.25}
	original, err := NewInMemoryDataset(2, 1, 2, 1, 1, inputs, labels)
	require.NoError(t, err)

	record := Encode(original)
	decoded, err := Decode(record)
	require.NoError(t, err)

	assert.Equal(t, original.InputSize(), decoded.InputSize())
	assert.Equal(t, original.FeatureSize(), decoded.FeatureSize())
	assert.Equal(t, original.SequenceSize(), decoded.SequenceSize())
	assert.Equal(t, original.PrefillSamplesNumber(), decoded.PrefillSamplesNumber())
	assert.Equal(t, original.NumberOfSequences(), decoded.NumberOfSequences())
	assert.Equal(t, original.GetInputSample(0), decoded.GetInputSample(0))
	assert.Equal(t, original.GetLabelSample(0), decoded.GetLabelSample(0))
}

func TestRecord_SurvivesJSONRoundTrip(t *testing.T) {
	ds, err := NewInMemoryDataset(1, 1, 1, 0, 1, []float64{1}, []float64{2})
	require.NoError(t, err)
	record := Encode(ds)

	blob, err := json.Marshal(record)
	require.NoError(t, err)

	var decoded Record
	require.NoError(t, json.Unmarshal(blob, &decoded))
	assert.Equal(t, record, decoded)
}
