// Package rafkodataset is the read-only, sequence-oriented dataset view:
// N sequences, each P prefill inputs followed by S labelled inputs, every
// input vector shaped I, every label vector shaped F.
package rafkodataset

import "fmt"

// Dataset is the read-only contract the Optimizer pulls sequences from.
// Implementations must return borrowed references valid for the caller's
// scope — InMemoryDataset below returns slice views into its own backing
// arrays rather than copies.
type Dataset interface {
	GetInputSample(i int) []float64
	GetLabelSample(i int) []float64
	SequenceSize() int
	NumberOfSequences() int
	PrefillSamplesNumber() int
	InputSize() int
	FeatureSize() int
	// SequenceInputStart and SequenceLabelStart return the flat sample
	// index at which sequence seq's inputs (prefill included) and labels
	// begin, respectively.
	SequenceInputStart(seq int) int
	SequenceLabelStart(seq int) int
}

// InMemoryDataset is the concrete, flat-backed Dataset implementation.
type InMemoryDataset struct {
	inputSize    int
	featureSize  int
	sequenceSize int
	prefill      int
	sequences    int

	inputs []float64 // len = sequences * (sequenceSize+prefill) * inputSize
	labels []float64 // len = sequences * sequenceSize * featureSize
}

// NewInMemoryDataset builds a Dataset view over caller-owned flat slices.
// It requires len(labels) == sequences*sequenceSize*featureSize exactly,
// rejecting any input where that doesn't hold, rather than silently
// accepting a shape it would have to guess the meaning of.
func NewInMemoryDataset(inputSize, featureSize, sequenceSize, prefill, sequences int, inputs, labels []float64) (*InMemoryDataset, error) {
	if inputSize <= 0 || featureSize <= 0 || sequenceSize <= 0 || sequences <= 0 || prefill < 0 {
		return nil, errInvalidShape("input_size, feature_size, sequence_size and number_of_sequences must be > 0, prefill >= 0")
	}
	wantInputs := sequences * (sequenceSize + prefill) * inputSize
	wantLabels := sequences * sequenceSize * featureSize
	if len(inputs) != wantInputs {
		return nil, errInvalidShape("inputs has length %d, want %d", len(inputs), wantInputs)
	}
	if len(labels) != wantLabels {
		return nil, errInvalidShape("labels has length %d, want %d", len(labels), wantLabels)
	}
	return &InMemoryDataset{
		inputSize:    inputSize,
		featureSize:  featureSize,
		sequenceSize: sequenceSize,
		prefill:      prefill,
		sequences:    sequences,
		inputs:       inputs,
		labels:       labels,
	}, nil
}

// GetInputSample returns a borrowed view of the i-th flat input sample,
// where i ranges over sequences*(sequenceSize+prefill).
func (d *InMemoryDataset) GetInputSample(i int) []float64 {
	start := i * d.inputSize
	return d.inputs[start : start+d.inputSize]
}

// GetLabelSample returns a borrowed view of the i-th flat label sample,
// where i ranges over sequences*sequenceSize (prefill steps have no
// label).
func (d *InMemoryDataset) GetLabelSample(i int) []float64 {
	start := i * d.featureSize
	return d.labels[start : start+d.featureSize]
}

func (d *InMemoryDataset) SequenceSize() int         { return d.sequenceSize }
func (d *InMemoryDataset) NumberOfSequences() int    { return d.sequences }
func (d *InMemoryDataset) PrefillSamplesNumber() int { return d.prefill }
func (d *InMemoryDataset) InputSize() int   { return d.inputSize }
func (d *InMemoryDataset) FeatureSize() int { return d.featureSize }

// SequenceInputStart returns the flat sample index at which sequence seq's
// inputs begin (prefill inputs included).
func (d *InMemoryDataset) SequenceInputStart(seq int) int {
	return seq * (d.sequenceSize + d.prefill)
}

// SequenceLabelStart returns the flat sample index at which sequence seq's
// labels begin.
func (d *InMemoryDataset) SequenceLabelStart(seq int) int {
	return seq * d.sequenceSize
}

type invalidShapeError struct{ msg string }

func (e *invalidShapeError) Error() string { return e.msg }

func errInvalidShape(format string, args ...any) error {
	return &invalidShapeError{msg: fmt.Sprintf(format, args...)}
}
