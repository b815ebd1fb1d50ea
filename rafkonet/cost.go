package rafkonet

import (
	"fmt"
	"math"
)

// CostFunctionKind tags one of the five cost functions in the catalogue.
type CostFunctionKind uint8

const (
	CostSquaredError CostFunctionKind = iota
	CostMSE
	CostCrossEntropy
	CostBinaryCrossEntropy
	CostKLDivergence
)

func (k CostFunctionKind) String() string {
	switch k {
	case CostSquaredError:
		return "squared_error"
	case CostMSE:
		return "mse"
	case CostCrossEntropy:
		return "cross_entropy"
	case CostBinaryCrossEntropy:
		return "binary_cross_entropy"
	case CostKLDivergence:
		return "kl_divergence"
	default:
		return "unknown"
	}
}

// logClamp is the minimum value binary-cross-entropy (and, by the same
// reasoning, KL-divergence) clamps its logarithm argument to, avoiding
// log(0).
const logClamp = 1e-16

func clampLog(x float64) float64 {
	if x < logClamp {
		return logClamp
	}
	return x
}

// CostFunction exposes the per-cell error, per-sample aggregation and
// derivative forms every cost function needs, plus a textual kernel
// expression for the derivative over the fixed names y, y_hat, d_y_hat
// and n (the objective operation renders its own kernel case instead).
type CostFunction interface {
	Kind() CostFunctionKind
	// Cell computes the per-output-cell error between label y and
	// prediction yHat.
	Cell(y, yHat float64) float64
	// PostProcess aggregates a summed cell error over sampleCount cells
	// into the reported error value.
	PostProcess(sum float64, sampleCount int) float64
	// Derivative computes dL/dyHat given the label, the prediction, the
	// already-known derivative of yHat w.r.t. some weight, and the total
	// cell count n used for normalisation.
	Derivative(y, yHat, dyHat float64, n int) float64
	DerivativeKernelSource() string
}

type costFunction struct {
	kind CostFunctionKind
}

func (f costFunction) Kind() CostFunctionKind { return f.kind }

func (f costFunction) Cell(y, yHat float64) float64 {
	switch f.kind {
	case CostSquaredError, CostMSE:
		d := y - yHat
		return 0.5 * d * d
	case CostCrossEntropy:
		return -y * math.Log(clampLog(yHat))
	case CostBinaryCrossEntropy:
		return -(y*math.Log(clampLog(yHat)) + (1-y)*math.Log(clampLog(1-yHat)))
	case CostKLDivergence:
		if y == 0 {
			return 0
		}
		return y * math.Log(clampLog(y)/clampLog(yHat))
	default:
		return 0
	}
}

func (f costFunction) PostProcess(sum float64, sampleCount int) float64 {
	if sampleCount == 0 {
		return 0
	}
	switch f.kind {
	case CostMSE:
		return sum / float64(sampleCount)
	default:
		return sum
	}
}

func (f costFunction) Derivative(y, yHat, dyHat float64, n int) float64 {
	switch f.kind {
	case CostSquaredError:
		return -(y - yHat) * dyHat
	case CostMSE:
		if n == 0 {
			return 0
		}
		return -(y - yHat) * dyHat / float64(n)
	case CostCrossEntropy:
		return -y / clampLog(yHat) * dyHat
	case CostBinaryCrossEntropy:
		yh := clampLog(yHat)
		omyh := clampLog(1 - yHat)
		return -(y/yh - (1-y)/omyh) * dyHat
	case CostKLDivergence:
		if y == 0 {
			return 0
		}
		return -y / clampLog(yHat) * dyHat
	default:
		return 0
	}
}

func (f costFunction) DerivativeKernelSource() string {
	switch f.kind {
	case CostSquaredError:
		return "(-(y - y_hat) * d_y_hat)"
	case CostMSE:
		return "(-(y - y_hat) * d_y_hat / (double)n)"
	case CostCrossEntropy:
		return fmt.Sprintf("(-y / max(y_hat, %v) * d_y_hat)", logClamp)
	case CostBinaryCrossEntropy:
		return fmt.Sprintf("(-(y / max(y_hat, %v) - (1.0 - y) / max(1.0 - y_hat, %v)) * d_y_hat)", logClamp, logClamp)
	case CostKLDivergence:
		return fmt.Sprintf("(-y / max(y_hat, %v) * d_y_hat)", logClamp)
	default:
		return "0.0"
	}
}

// CostFunctionFor returns the catalogue entry for kind.
func CostFunctionFor(kind CostFunctionKind) CostFunction {
	return costFunction{kind: kind}
}

// AllCostFunctions lists the full catalogue.
func AllCostFunctions() []CostFunctionKind {
	return []CostFunctionKind{
		CostSquaredError, CostMSE, CostCrossEntropy, CostBinaryCrossEntropy, CostKLDivergence,
	}
}
