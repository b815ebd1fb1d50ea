package rafkonet

import "fmt"

// SpikeFunctionKind tags one of the four spike functions. A spike function
// combines a neuron's freshly transferred value with its own previous value
// (read from the backprop data store at past=1) and the first weight the
// neuron consumes; None and Amplify ignore the previous value.
type SpikeFunctionKind uint8

const (
	SpikeNone SpikeFunctionKind = iota
	SpikeMemoryBlend
	SpikeParametric
	SpikeAmplify
)

func (k SpikeFunctionKind) String() string {
	switch k {
	case SpikeNone:
		return "none"
	case SpikeMemoryBlend:
		return "memory_blend"
	case SpikeParametric:
		return "parametric"
	case SpikeAmplify:
		return "amplify"
	default:
		return "unknown"
	}
}

// SpikeFunction exposes the value and two derivative forms: differentiating
// by the spike's own weight takes a different shape than differentiating
// by any other weight, because the weight appears explicitly in the spike
// expression only for the former.
type SpikeFunction interface {
	Kind() SpikeFunctionKind
	Value(weight, transferred, prevValue float64) float64
	// DerivativeForOwnParameter computes d(value)/dw when w is this
	// spike's own weight: dTransferred and dPrevValue are the already
	// accumulated indirect derivatives w.r.t. w.
	DerivativeForOwnParameter(weight, transferred, prevValue, dTransferred, dPrevValue float64) float64
	// DerivativeForOtherParameter computes d(value)/dw when w is any
	// other weight: the spike weight itself carries no direct term.
	DerivativeForOtherParameter(weight, dTransferred, dPrevValue float64) float64
	KernelExpression(weightVar, transferredVar, prevValueVar string) string
	// DerivativeKernelExpressionForOwnParameter renders
	// DerivativeForOwnParameter as a GLSL expression.
	DerivativeKernelExpressionForOwnParameter(weightVar, transferredVar, prevValueVar, dTransferredVar, dPrevValueVar string) string
	// DerivativeKernelExpressionForOtherParameter renders
	// DerivativeForOtherParameter as a GLSL expression.
	DerivativeKernelExpressionForOtherParameter(weightVar, dTransferredVar, dPrevValueVar string) string
}

type spikeFunction struct {
	kind SpikeFunctionKind
}

func (f spikeFunction) Kind() SpikeFunctionKind { return f.kind }

func (f spikeFunction) Value(weight, transferred, prevValue float64) float64 {
	switch f.kind {
	case SpikeNone:
		return transferred
	case SpikeMemoryBlend:
		return weight*prevValue + (1-weight)*transferred
	case SpikeParametric:
		return transferred + weight*prevValue
	case SpikeAmplify:
		return weight * transferred
	default:
		return transferred
	}
}

func (f spikeFunction) DerivativeForOwnParameter(weight, transferred, prevValue, dTransferred, dPrevValue float64) float64 {
	switch f.kind {
	case SpikeNone:
		return dTransferred
	case SpikeMemoryBlend:
		return (prevValue - transferred) + weight*dPrevValue + (1-weight)*dTransferred
	case SpikeParametric:
		return dTransferred + prevValue + weight*dPrevValue
	case SpikeAmplify:
		return transferred + weight*dTransferred
	default:
		return dTransferred
	}
}

func (f spikeFunction) DerivativeForOtherParameter(weight, dTransferred, dPrevValue float64) float64 {
	switch f.kind {
	case SpikeNone:
		return dTransferred
	case SpikeMemoryBlend:
		return weight*dPrevValue + (1-weight)*dTransferred
	case SpikeParametric:
		return dTransferred + weight*dPrevValue
	case SpikeAmplify:
		return weight * dTransferred
	default:
		return dTransferred
	}
}

func (f spikeFunction) KernelExpression(weightVar, transferredVar, prevValueVar string) string {
	switch f.kind {
	case SpikeNone:
		return transferredVar
	case SpikeMemoryBlend:
		return fmt.Sprintf("((%s) * (%s) + (1.0 - (%s)) * (%s))", weightVar, prevValueVar, weightVar, transferredVar)
	case SpikeParametric:
		return fmt.Sprintf("((%s) + (%s) * (%s))", transferredVar, weightVar, prevValueVar)
	case SpikeAmplify:
		return fmt.Sprintf("((%s) * (%s))", weightVar, transferredVar)
	default:
		return transferredVar
	}
}

func (f spikeFunction) DerivativeKernelExpressionForOwnParameter(weightVar, transferredVar, prevValueVar, dTransferredVar, dPrevValueVar string) string {
	switch f.kind {
	case SpikeNone:
		return dTransferredVar
	case SpikeMemoryBlend:
		return fmt.Sprintf("(((%s) - (%s)) + (%s) * (%s) + (1.0 - (%s)) * (%s))",
			prevValueVar, transferredVar, weightVar, dPrevValueVar, weightVar, dTransferredVar)
	case SpikeParametric:
		return fmt.Sprintf("((%s) + (%s) + (%s) * (%s))", dTransferredVar, prevValueVar, weightVar, dPrevValueVar)
	case SpikeAmplify:
		return fmt.Sprintf("((%s) + (%s) * (%s))", transferredVar, weightVar, dTransferredVar)
	default:
		return dTransferredVar
	}
}

func (f spikeFunction) DerivativeKernelExpressionForOtherParameter(weightVar, dTransferredVar, dPrevValueVar string) string {
	switch f.kind {
	case SpikeNone:
		return dTransferredVar
	case SpikeMemoryBlend:
		return fmt.Sprintf("((%s) * (%s) + (1.0 - (%s)) * (%s))", weightVar, dPrevValueVar, weightVar, dTransferredVar)
	case SpikeParametric:
		return fmt.Sprintf("((%s) + (%s) * (%s))", dTransferredVar, weightVar, dPrevValueVar)
	case SpikeAmplify:
		return fmt.Sprintf("((%s) * (%s))", weightVar, dTransferredVar)
	default:
		return dTransferredVar
	}
}

// SpikeFunctionFor returns the catalogue entry for kind.
func SpikeFunctionFor(kind SpikeFunctionKind) SpikeFunction {
	return spikeFunction{kind: kind}
}

// AllSpikeFunctions lists the full catalogue.
func AllSpikeFunctions() []SpikeFunctionKind {
	return []SpikeFunctionKind{SpikeNone, SpikeMemoryBlend, SpikeParametric, SpikeAmplify}
}
