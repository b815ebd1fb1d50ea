package rafkogym

import (
	"fmt"

	"github.com/davids91/rafko-go/rafkonet"
)

// costCellKernelExpression is the forward counterpart of
// rafkonet.CostFunction.DerivativeKernelSource: that method only renders the
// backward (dL/dyHat) form, so the emitter needs this schematic per-cell
// formula to populate an objective operation's forward kernel case.
func costCellKernelExpression(kind rafkonet.CostFunctionKind, yVar, yHatVar string) string {
	const logClamp = 1e-16
	switch kind {
	case rafkonet.CostSquaredError, rafkonet.CostMSE:
		return fmt.Sprintf("(0.5 * (%s - %s) * (%s - %s))", yVar, yHatVar, yVar, yHatVar)
	case rafkonet.CostCrossEntropy:
		return fmt.Sprintf("(-%s * log(max(%s, %v)))", yVar, yHatVar, logClamp)
	case rafkonet.CostBinaryCrossEntropy:
		return fmt.Sprintf("(-(%s * log(max(%s, %v)) + (1.0 - %s) * log(max(1.0 - %s, %v))))",
			yVar, yHatVar, logClamp, yVar, yHatVar, logClamp)
	case rafkonet.CostKLDivergence:
		return fmt.Sprintf("(%s == 0.0 ? 0.0 : %s * log(max(%s, %v) / max(%s, %v)))",
			yVar, yVar, yVar, logClamp, yHatVar, logClamp)
	default:
		return "0.0"
	}
}

// costDerivativeKernelExpression is the kernel-text counterpart of
// rafkonet.CostFunction.Derivative: CostFunction.DerivativeKernelSource
// renders the same formula but with fixed placeholder variable names
// baked into its returned string, which is fine for a human reading
// generated source but unsuitable for substituting this operation's own
// variable names into, so this mirrors it directly against caller-supplied
// names instead.
func costDerivativeKernelExpression(kind rafkonet.CostFunctionKind, yVar, yHatVar, dyHatVar string, n int) string {
	const logClamp = 1e-16
	switch kind {
	case rafkonet.CostSquaredError:
		return fmt.Sprintf("(-(%s - %s) * %s)", yVar, yHatVar, dyHatVar)
	case rafkonet.CostMSE:
		if n == 0 {
			return "0.0"
		}
		return fmt.Sprintf("(-(%s - %s) * %s / %v)", yVar, yHatVar, dyHatVar, float64(n))
	case rafkonet.CostCrossEntropy:
		return fmt.Sprintf("(-%s / max(%s, %v) * %s)", yVar, yHatVar, logClamp, dyHatVar)
	case rafkonet.CostBinaryCrossEntropy:
		return fmt.Sprintf("(-(%s / max(%s, %v) - (1.0 - %s) / max(1.0 - %s, %v)) * %s)",
			yVar, yHatVar, logClamp, yVar, yHatVar, logClamp, dyHatVar)
	case rafkonet.CostKLDivergence:
		return fmt.Sprintf("(%s == 0.0 ? 0.0 : -%s / max(%s, %v) * %s)", yVar, yVar, yHatVar, logClamp, dyHatVar)
	default:
		return "0.0"
	}
}

// objectiveOperation is a Phase-A terminal: one per network output, it
// compares the output neuron's spike value against the current label.
// SetLabel is called by the optimiser once per timestep, before Evaluate,
// since a label is a property of the training sample rather than of the
// static graph.
type objectiveOperation struct {
	baseOp
	outputIndex int // position among the network's outputs, 0-based
	spikeDep    Operation
	cost        rafkonet.CostFunction
	sampleCount int
	label       float64
}

func newObjectiveOperation(outputIndex int, spikeDep Operation, cost rafkonet.CostFunction, sampleCount int) *objectiveOperation {
	return &objectiveOperation{
		baseOp:      baseOp{kind: KindObjective},
		outputIndex: outputIndex,
		spikeDep:    spikeDep,
		cost:        cost,
		sampleCount: sampleCount,
	}
}

func (o *objectiveOperation) Dependencies() []Operation { return []Operation{o.spikeDep} }

func (o *objectiveOperation) SetLabel(v float64) { o.label = v }

func (o *objectiveOperation) Value(store *BackpropData, _ *rafkonet.Network, _ []float64) float64 {
	yHat := store.GetValue(0, o.spikeDep.Index())
	v := o.cost.Cell(o.label, yHat)
	store.SetValue(o.index, v)
	return v
}

func (o *objectiveOperation) Derivative(store *BackpropData, _ *rafkonet.Network, weightIdx int) float64 {
	yHat := store.GetValue(0, o.spikeDep.Index())
	dyHat := store.GetDerivative(0, o.spikeDep.Index(), weightIdx)
	d := o.cost.Derivative(o.label, yHat, dyHat, o.sampleCount)
	store.SetDerivative(o.index, weightIdx, d)
	return d
}

func (o *objectiveOperation) KernelExpression() string {
	yVar := fmt.Sprintf("labels[%d]", o.outputIndex)
	yHatVar := fmt.Sprintf("values(%d)", o.spikeDep.Index())
	return costCellKernelExpression(o.cost.Kind(), yVar, yHatVar)
}

func (o *objectiveOperation) DerivativeKernelExpression() string {
	yVar := fmt.Sprintf("labels[%d]", o.outputIndex)
	yHatVar := fmt.Sprintf("values(%d)", o.spikeDep.Index())
	dyHatVar := fmt.Sprintf("derivatives(%d)", o.spikeDep.Index())
	return costDerivativeKernelExpression(o.cost.Kind(), yVar, yHatVar, dyHatVar, o.sampleCount)
}
