package rafkonet

import "github.com/davids91/rafko-go/rafko"

// Network is the layered network descriptor: a flat weight table plus a
// neuron array in topological-friendly order (outputs at the tail), plus
// feature-group decorations.
//
// A Network is immutable during a forward/backward cycle; Weights is the
// only field the Optimizer mutates between cycles.
type Network struct {
	InputSize     uint32         `json:"input_size"`
	MemorySize    uint32         `json:"memory_size"`
	OutputCount   uint32         `json:"output_count"`
	Weights       []float64      `json:"weights"`
	Neurons       []Neuron       `json:"neurons"`
	FeatureGroups []FeatureGroup `json:"feature_groups"`
}

// WeightCount returns len(Weights).
func (n *Network) WeightCount() int { return len(n.Weights) }

// NeuronCount returns len(Neurons).
func (n *Network) NeuronCount() int { return len(n.Neurons) }

// OutputNeuronIndices returns the indices of the OutputCount neurons at
// the tail of the Neurons array.
func (n *Network) OutputNeuronIndices() []uint32 {
	total := uint32(len(n.Neurons))
	out := make([]uint32, 0, n.OutputCount)
	for i := total - n.OutputCount; i < total; i++ {
		out = append(out, i)
	}
	return out
}

// Validate re-checks the invariants a constructed network must hold:
// every neuron's weight count matches 1 (spike) +
// inputs + biases >= 1; every non-negative input index on a synapse with
// ReachPast == 0 references a strictly earlier neuron (reach-past synapses
// are exempt); every network-input synapse index lies in
// [0, InputSize).
func (n *Network) Validate() error {
	for i := range n.Neurons {
		neuron := &n.Neurons[i]
		totalWeights := neuron.TotalWeightCount()
		inputs := neuron.TotalInputCount()
		if totalWeights < 1+inputs || totalWeights < 1 {
			return rafko.NewGraphInvariant(
				"neuron %d consumes %d weights but needs at least 1 (spike) + %d (inputs)",
				i, totalWeights, inputs)
		}
		for _, syn := range neuron.InputSynapses {
			if syn.IsNetworkInput() {
				idx := syn.NetworkInputIndex()
				if idx >= n.InputSize {
					return rafko.NewGraphInvariant(
						"neuron %d references network input %d >= input_size %d", i, idx, n.InputSize)
				}
				continue
			}
			if syn.ReachPast == 0 && syn.NeuronIndex() >= uint32(i) {
				return rafko.NewGraphInvariant(
					"neuron %d has a forward-only input edge violation: input synapse references neuron %d",
					i, syn.NeuronIndex())
			}
		}
		for _, syn := range neuron.WeightSynapses {
			if uint32(syn.Start+syn.Size) > uint32(len(n.Weights)) {
				return rafko.NewBoundsCheck(
					"neuron %d weight synapse [%d,%d) exceeds weight table of size %d",
					i, syn.Start, syn.Start+syn.Size, len(n.Weights))
			}
		}
	}
	return nil
}
