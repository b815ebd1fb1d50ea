// Package neuronrouter implements a topological-subset generator: it walks
// a network and hands back independent groups of neuron indices whose
// dependencies are either external inputs or already-emitted neurons,
// feeding both the wave scheduler's graph builder and (in strict mode) any
// solution builder that needs the same ordering.
package neuronrouter

import (
	"sort"

	"github.com/davids91/rafko-go/rafkonet"
	"golang.org/x/exp/maps"
)

type neuronState uint8

const (
	stateUnprocessed neuronState = iota
	stateReserved
	stateProcessed
)

// Router maintains per-neuron processing state across repeated calls to
// CollectSubset, and the feature-group bookkeeping backing
// ConfirmProcessed.
type Router struct {
	network *rafkonet.Network
	states  []neuronState

	// groupRemaining[g] counts how many neurons of feature group g are
	// still unprocessed; it reaches zero exactly when the group becomes
	// fully processed.
	groupRemaining []int
	groupNeurons   [][]int // which groups each neuron index belongs to

	Debug bool
}

// NewRouter builds a Router over network, ready to serve CollectSubset
// calls in network-construction order.
func NewRouter(network *rafkonet.Network) *Router {
	r := &Router{
		network:      network,
		states:       make([]neuronState, len(network.Neurons)),
		groupNeurons: make([][]int, len(network.Neurons)),
	}
	r.groupRemaining = make([]int, len(network.FeatureGroups))
	for g, fg := range network.FeatureGroups {
		neurons := fg.Neurons()
		r.groupRemaining[g] = len(neurons)
		for _, n := range neurons {
			r.groupNeurons[n] = append(r.groupNeurons[n], g)
		}
	}
	return r
}

// estimateNeuronBytes approximates the memory a single neuron's operation
// nodes will consume once placed in the operation graph: one float64 per
// input/weight slot plus a fixed per-node overhead, grounded on the
// weight- and synapse-count fields already on the descriptor.
func estimateNeuronBytes(n *rafkonet.Neuron) float64 {
	const perNodeOverheadBytes = 64.0
	slots := float64(n.TotalInputCount() + n.TotalWeightCount())
	nodes := float64(3 + len(n.InputSynapses)) // spike + transfer + first input + remaining input/bias chain
	return nodes*perNodeOverheadBytes + slots*8.0
}

// CollectSubset walks the network once and reserves a batch of neurons
// whose dependencies are satisfied: in strict mode, only neurons whose
// unresolved inputs are already processed; in non-strict mode, neurons
// whose inputs are processed *or* reserved earlier in this same subset
// (the caller must then honour that intra-subset order). Stops early once
// the per-neuron byte-budget estimate would be exceeded, or once
// maxThreads neurons have been reserved. Returns the reserved neuron
// indices in network order.
//
// Termination is guaranteed: each call either reserves at least one
// neuron or returns an empty subset, in which case Finished reports true
// (every neuron already processed) or the caller must retry non-strict.
func (r *Router) CollectSubset(maxThreads int, budgetMB float64, strict bool) []int {
	var subset []int
	budgetBytes := budgetMB * 1024 * 1024
	usedBytes := 0.0

	for i := range r.network.Neurons {
		if maxThreads > 0 && len(subset) >= maxThreads {
			break
		}
		if r.states[i] != stateUnprocessed {
			continue
		}
		if !r.dependenciesSatisfied(i, strict) {
			continue
		}
		cost := estimateNeuronBytes(&r.network.Neurons[i])
		if budgetMB > 0 && usedBytes+cost > budgetBytes && len(subset) > 0 {
			break
		}
		r.states[i] = stateReserved
		subset = append(subset, i)
		usedBytes += cost
	}
	return subset
}

func (r *Router) dependenciesSatisfied(idx int, strict bool) bool {
	neuron := &r.network.Neurons[idx]
	for _, syn := range neuron.InputSynapses {
		if syn.ReachPast > 0 || syn.IsNetworkInput() {
			continue // reach-past reads and network inputs are always available
		}
		for o := uint32(0); o < syn.Size; o++ {
			src := int(syn.NeuronIndex()) + int(o)
			switch r.states[src] {
			case stateProcessed:
				continue
			case stateReserved:
				if !strict {
					continue
				}
				return false
			default:
				return false
			}
		}
	}
	return true
}

// ConfirmProcessed marks neuronIdx (previously reserved) as processed and
// returns the indices of every feature group whose relevant neuron set
// became fully processed as a result — the boundary at which the
// operation-graph builder should insert that feature's execution node.
func (r *Router) ConfirmProcessed(neuronIdx int) []int {
	r.states[neuronIdx] = stateProcessed
	var newlySatisfied []int
	for _, g := range r.groupNeurons[neuronIdx] {
		r.groupRemaining[g]--
		if r.groupRemaining[g] == 0 {
			newlySatisfied = append(newlySatisfied, g)
		}
	}
	sort.Ints(newlySatisfied)
	return newlySatisfied
}

// Finished reports whether every neuron has been processed.
func (r *Router) Finished() bool {
	for _, s := range r.states {
		if s != stateProcessed {
			return false
		}
	}
	return true
}

// Reset returns every neuron to the unprocessed state and restores
// feature-group counters, so the same Router can be reused across
// multiple graph builds (e.g. across the forward and backward operation
// graphs, which both drive the router the same way).
func (r *Router) Reset() {
	for i := range r.states {
		r.states[i] = stateUnprocessed
	}
	for g, fg := range r.network.FeatureGroups {
		r.groupRemaining[g] = len(fg.Neurons())
	}
}

// DebugSnapshot returns a defensive copy of every neuron's current state,
// keyed by index, for logging/inspection when Debug is enabled — a plain
// `if Debug { ... }` idiom rather than a structured-logging dependency.
func (r *Router) DebugSnapshot() map[int]string {
	out := make(map[int]string, len(r.states))
	for i, s := range r.states {
		switch s {
		case stateUnprocessed:
			out[i] = "unprocessed"
		case stateReserved:
			out[i] = "reserved"
		case stateProcessed:
			out[i] = "processed"
		}
	}
	return out
}

// DebugKeys returns the sorted neuron indices of a DebugSnapshot map, for
// deterministic log output.
func (r *Router) DebugKeys(m map[int]string) []int {
	keys := maps.Keys(m)
	sort.Ints(keys)
	return keys
}
