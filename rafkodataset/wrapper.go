package rafkodataset

// Header is the logical dataset record header.
type Header struct {
	InputSize             uint32 `json:"input_size"`
	FeatureSize           uint32 `json:"feature_size"`
	SequenceSize          uint32 `json:"sequence_size"`
	PossibleSequenceCount uint32 `json:"possible_sequence_count"`
}

// Record is the persistence-neutral logical dataset record: a header plus
// flat inputs/labels, all float64. Encoding a Dataset to a Record and
// decoding it back must be the identity.
type Record struct {
	Header  Header    `json:"header"`
	Inputs  []float64 `json:"inputs"`
	Labels  []float64 `json:"labels"`
	Prefill uint32    `json:"prefill"`
}

// Encode flattens d into its logical record form.
func Encode(d *InMemoryDataset) Record {
	return Record{
		Header: Header{
			InputSize:             uint32(d.InputSize()),
			FeatureSize:           uint32(d.FeatureSize()),
			SequenceSize:          uint32(d.SequenceSize()),
			PossibleSequenceCount: uint32(d.NumberOfSequences()),
		},
		Inputs:  append([]float64(nil), d.inputs...),
		Labels:  append([]float64(nil), d.labels...),
		Prefill: uint32(d.PrefillSamplesNumber()),
	}
}

// Decode reconstructs an InMemoryDataset from its logical record form.
func Decode(r Record) (*InMemoryDataset, error) {
	return NewInMemoryDataset(
		int(r.Header.InputSize), int(r.Header.FeatureSize), int(r.Header.SequenceSize),
		int(r.Prefill), int(r.Header.PossibleSequenceCount),
		append([]float64(nil), r.Inputs...), append([]float64(nil), r.Labels...),
	)
}
