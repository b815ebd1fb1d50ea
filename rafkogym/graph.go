package rafkogym

import (
	"math"

	"github.com/davids91/rafko-go/rafko"
	"github.com/davids91/rafko-go/rafkonet"
)

const (
	// boltzmannTemperature scales the Boltzmann-recurrence feature's
	// exponent; no network in the catalogue fixes a value for it, so this
	// constant is a deliberate, documented choice (see DESIGN.md).
	boltzmannTemperature = 1.0
	// boltzmannRecurrenceDecay blends the freshly normalised distribution
	// against the previous timestep's, giving the feature its namesake
	// recurrence.
	boltzmannRecurrenceDecay = 0.5
)

// solutionGroupBinding ties a solution-relevant feature group to the Spike
// operations of its member neurons, for the post-sweep normalisation pass
// applySolutionRelevantFeatures runs.
type solutionGroupBinding struct {
	kind    rafkonet.FeatureGroupKind
	members []*spikeOperation
}

// Graph is a fully built operation graph: Operations is addressed by
// operation index (0 is an Objective; see operation.go), and
// WeightRelevantOperationCount marks the boundary between Phase-A terminal
// operations (Objective, FeatureRegularisation) and every operation
// discovered in Phase B.
type Graph struct {
	Operations                   []Operation
	WeightRelevantOperationCount int

	network        *rafkonet.Network
	objectives     []*objectiveOperation
	solutionGroups []solutionGroupBinding
}

// Network returns the network descriptor this graph was built from.
func (g *Graph) Network() *rafkonet.Network { return g.network }

// SetLabels assigns one label per network output, in output order, to this
// timestep's Objective operations.
func (g *Graph) SetLabels(labels []float64) {
	for i, obj := range g.objectives {
		if i < len(labels) {
			obj.SetLabel(labels[i])
		}
	}
}

// Objectives exposes the Phase-A objective operations in output order.
func (g *Graph) Objectives() []Operation {
	out := make([]Operation, len(g.objectives))
	for i, o := range g.objectives {
		out[i] = o
	}
	return out
}

// FeatureRegularisations exposes the Phase-A weight-decay terminals (the
// FeatureRegularisation operations placed after the objectives, before
// Phase B's weight-relevant boundary). Their values never feed the
// per-step objective sum -- they drive only a derivative contribution on
// their relevant weights (see operation_feature.go) -- but the reported
// dataset-level error still needs to add their sum in separately.
func (g *Graph) FeatureRegularisations() []Operation {
	return append([]Operation(nil), g.Operations[len(g.objectives):g.WeightRelevantOperationCount]...)
}

// Validate re-checks, for every operation, that each of its dependencies
// has a strictly greater Index — the invariant the whole forward/backward
// high-to-low sweep relies on.
func (g *Graph) Validate() error {
	for _, op := range g.Operations {
		for _, dep := range op.Dependencies() {
			if dep == nil {
				continue
			}
			if dep.Index() <= op.Index() {
				return rafko.NewGraphInvariant(
					"operation %d (%s) has dependency %d (%s) with non-increasing index",
					op.Index(), op.Kind(), dep.Index(), dep.Kind())
			}
		}
	}
	return nil
}

// Evaluate runs one forward sweep over store's current timestep: every
// Phase-B operation (index >= WeightRelevantOperationCount) is evaluated
// high index to low, solution-relevant feature groups are normalised, and
// finally every Phase-A terminal (index < WeightRelevantOperationCount) is
// evaluated — so an Objective always reads its output neuron's
// already-normalised spike value.
func (g *Graph) Evaluate(store *BackpropData, input []float64) {
	for i := len(g.Operations) - 1; i >= g.WeightRelevantOperationCount; i-- {
		g.Operations[i].Value(store, g.network, input)
	}
	g.applySolutionRelevantFeatures(store)
	for i := g.WeightRelevantOperationCount - 1; i >= 0; i-- {
		g.Operations[i].Value(store, g.network, input)
	}
}

// EvaluateDerivative runs one backward sweep for weight index weightIdx,
// with the same Phase-B-then-Phase-A split as Evaluate.
func (g *Graph) EvaluateDerivative(store *BackpropData, weightIdx int) {
	for i := len(g.Operations) - 1; i >= g.WeightRelevantOperationCount; i-- {
		g.Operations[i].Derivative(store, g.network, weightIdx)
	}
	for i := g.WeightRelevantOperationCount - 1; i >= 0; i-- {
		g.Operations[i].Derivative(store, g.network, weightIdx)
	}
}

func (g *Graph) applySolutionRelevantFeatures(store *BackpropData) {
	for _, grp := range g.solutionGroups {
		raw := make([]float64, len(grp.members))
		for i, m := range grp.members {
			raw[i] = store.GetValue(0, m.Index())
		}
		switch grp.kind {
		case rafkonet.FeatureSoftmax:
			adjusted := softmax(raw, 1.0)
			for i, m := range grp.members {
				store.SetValue(m.Index(), adjusted[i])
			}
		case rafkonet.FeatureBoltzmannRecurrence:
			adjusted := softmax(raw, boltzmannTemperature)
			for i, m := range grp.members {
				prev := store.GetValue(1, m.Index())
				blended := boltzmannRecurrenceDecay*adjusted[i] + (1-boltzmannRecurrenceDecay)*prev
				store.SetValue(m.Index(), blended)
			}
		}
	}
}

func softmax(raw []float64, temperature float64) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}
	max := raw[0]
	for _, v := range raw[1:] {
		if v > max {
			max = v
		}
	}
	var sum float64
	for i, v := range raw {
		e := math.Exp((v - max) / temperature)
		out[i] = e
		sum += e
	}
	if sum == 0 {
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
