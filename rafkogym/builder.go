package rafkogym

import (
	"sort"

	"github.com/davids91/rafko-go/neuronrouter"
	"github.com/davids91/rafko-go/rafko"
	"github.com/davids91/rafko-go/rafkonet"
)

// GraphBuilder drives a three-phase construction: Phase A places the
// terminal operations (Objective, FeatureRegularisation)
// at the front of the array; Phase B places every Spike/Transfer/
// NeuronInput/NeuronBias/NetworkInput node so that every dependency ends up
// at a strictly greater index than its dependent; Phase C is implicit here
// since indices are finalised exactly once, at placement time, rather than
// patched afterward.
type GraphBuilder struct {
	network *rafkonet.Network
	cost    rafkonet.CostFunctionKind
}

// NewGraphBuilder returns a builder for network, scoring outputs against
// cost.
func NewGraphBuilder(network *rafkonet.Network, cost rafkonet.CostFunctionKind) *GraphBuilder {
	return &GraphBuilder{network: network, cost: cost}
}

// Build constructs the operation graph.
//
// Phase B's traversal order matters only for where a Spike node's
// placeholder first gets referenced, not for its final array index: every
// neuron's Spike/Transfer/input-chain/bias-chain block is placed while
// visiting neurons in descending network-index order (outputs toward
// inputs), which guarantees a producer (always a strictly smaller network
// index than its consumer, per rafkonet.Network's forward-edges-only
// invariant) is always placed later — hence at a strictly greater
// operation index — than every consumer that already holds a pointer to
// its not-yet-placed Spike handle. The Neuron Router is still driven, in
// its natural ascending order, purely to surface feature-group-satisfied
// boundaries for the solution-relevant features wired up below; its subset
// batching plays no role in index assignment.
func (b *GraphBuilder) Build() (*Graph, error) {
	if err := b.network.Validate(); err != nil {
		return nil, err
	}
	n := uint32(b.network.NeuronCount())

	spikeHandles := make([]*spikeOperation, n)
	for i := uint32(0); i < n; i++ {
		neuron := &b.network.Neurons[i]
		spikeHandles[i] = &spikeOperation{
			baseOp:    baseOp{kind: KindSpike},
			neuronIdx: i,
			weightIdx: neuron.SpikeWeightIndex(),
			fn:        rafkonet.SpikeFunctionFor(neuron.SpikeFunction),
		}
	}
	networkInputHandles := map[uint32]*networkInputOperation{}
	getNetworkInput := func(idx uint32) *networkInputOperation {
		if h, ok := networkInputHandles[idx]; ok {
			return h
		}
		h := newNetworkInputOperation(idx)
		networkInputHandles[idx] = h
		return h
	}

	var ops []Operation

	// Phase A: one Objective per output, in output order.
	outIdxs := b.network.OutputNeuronIndices()
	objectives := make([]*objectiveOperation, 0, len(outIdxs))
	costFn := rafkonet.CostFunctionFor(b.cost)
	for _, outIdx := range outIdxs {
		obj := newObjectiveOperation(len(objectives), spikeHandles[outIdx], costFn, len(outIdxs))
		obj.index = len(ops)
		ops = append(ops, obj)
		objectives = append(objectives, obj)
	}
	// Phase A continued: one FeatureRegularisation per performance-relevant
	// feature group.
	for _, fg := range b.network.FeatureGroups {
		if !fg.Kind.IsPerformanceRelevant() {
			continue
		}
		var weightIdxs []uint32
		for _, neuronIdx := range fg.Neurons() {
			neuron := &b.network.Neurons[neuronIdx]
			for _, syn := range neuron.WeightSynapses {
				for k := uint32(0); k < syn.Size; k++ {
					weightIdxs = append(weightIdxs, syn.Start+k)
				}
			}
		}
		fr := newFeatureRegularisationOperation(fg.Kind, weightIdxs)
		fr.index = len(ops)
		ops = append(ops, fr)
	}
	weightRelevantCount := len(ops)

	// Drive the router in ascending order purely to discover, for each
	// solution-relevant feature group, the full member list once every
	// member neuron has been visited.
	router := neuronrouter.NewRouter(b.network)
	var solutionGroups []solutionGroupBinding
	for !router.Finished() {
		subset := router.CollectSubset(0, 0, true)
		if len(subset) == 0 {
			break
		}
		for _, idx := range subset {
			satisfied := router.ConfirmProcessed(idx)
			for _, g := range satisfied {
				fg := b.network.FeatureGroups[g]
				if !fg.Kind.IsSolutionRelevant() {
					continue
				}
				members := make([]*spikeOperation, 0, len(fg.Neurons()))
				for _, ni := range fg.Neurons() {
					members = append(members, spikeHandles[ni])
				}
				solutionGroups = append(solutionGroups, solutionGroupBinding{kind: fg.Kind, members: members})
			}
		}
	}

	// Phase B: place every neuron's Spike/Transfer/input-chain/bias-chain
	// block, descending so producers (smaller network index) are always
	// placed after every consumer that references them.
	for i := int64(n) - 1; i >= 0; i-- {
		idx := uint32(i)
		neuron := &b.network.Neurons[idx]

		sp := spikeHandles[idx]
		sp.index = len(ops)
		ops = append(ops, sp)

		tr := newTransferOperation(idx, rafkonet.TransferFunctionFor(neuron.TransferFunction))
		tr.index = len(ops)
		ops = append(ops, tr)
		sp.transferDep = tr

		inputCount := neuron.TotalInputCount()
		biasCount := neuron.BiasCount()
		inputHandles := make([]*neuronInputOperation, inputCount)
		biasHandles := make([]*neuronBiasOperation, biasCount)
		for slot := uint32(0); slot < inputCount; slot++ {
			syn, offset := neuron.InputSourceAt(slot)
			weightIdx := neuron.WeightIndexAt(1 + slot)
			var producer Operation
			if syn.IsNetworkInput() {
				producer = getNetworkInput(syn.NetworkInputIndex() + offset)
			} else {
				producer = spikeHandles[syn.NeuronIndex()+offset]
			}
			inputHandles[slot] = newNeuronInputOperation(idx, weightIdx, producer, syn.ReachPast, neuron.InputFunction)
		}
		for slot := uint32(0); slot < biasCount; slot++ {
			weightIdx := neuron.WeightIndexAt(1 + inputCount + slot)
			biasHandles[slot] = newNeuronBiasOperation(idx, weightIdx, neuron.InputFunction)
		}
		for slot := uint32(0); slot < biasCount; slot++ {
			if slot+1 < biasCount {
				biasHandles[slot].nextDep = biasHandles[slot+1]
				biasHandles[slot].hasNext = true
			}
		}
		for slot := uint32(0); slot < inputCount; slot++ {
			switch {
			case slot+1 < inputCount:
				inputHandles[slot].nextDep = inputHandles[slot+1]
				inputHandles[slot].hasNext = true
			case biasCount > 0:
				inputHandles[slot].nextDep = biasHandles[0]
				inputHandles[slot].hasNext = true
			}
		}
		switch {
		case inputCount > 0:
			tr.headDep = inputHandles[0]
		case biasCount > 0:
			tr.headDep = biasHandles[0]
		}

		for slot := uint32(0); slot < inputCount; slot++ {
			h := inputHandles[slot]
			h.index = len(ops)
			ops = append(ops, h)
		}
		for slot := uint32(0); slot < biasCount; slot++ {
			h := biasHandles[slot]
			h.index = len(ops)
			ops = append(ops, h)
		}
	}

	// Finalise network-input placeholders at the array's tail, in index
	// order, since no graph node precedes them.
	niIdxs := make([]uint32, 0, len(networkInputHandles))
	for idx := range networkInputHandles {
		niIdxs = append(niIdxs, idx)
	}
	sort.Slice(niIdxs, func(a, c int) bool { return niIdxs[a] < niIdxs[c] })
	for _, idx := range niIdxs {
		h := networkInputHandles[idx]
		h.index = len(ops)
		ops = append(ops, h)
	}

	graph := &Graph{
		Operations:                   ops,
		WeightRelevantOperationCount: weightRelevantCount,
		network:                      b.network,
		objectives:                   objectives,
		solutionGroups:               solutionGroups,
	}
	if err := graph.Validate(); err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, rafko.NewBuilderInvariant("graph builder produced an empty operation array")
	}
	return graph, nil
}
