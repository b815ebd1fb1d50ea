package rafkonet

import (
	"fmt"
	"math"
)

// TransferFunctionKind tags one of the transfer functions in the catalogue:
// a closed enum rather than a map key, since the kernel emitter needs to
// switch on them exhaustively.
type TransferFunctionKind uint8

const (
	TransferIdentity TransferFunctionKind = iota
	TransferSigmoid
	TransferTanh
	TransferELU
	TransferSELU
	TransferReLU
	TransferSwish
)

func (k TransferFunctionKind) String() string {
	switch k {
	case TransferIdentity:
		return "identity"
	case TransferSigmoid:
		return "sigmoid"
	case TransferTanh:
		return "tanh"
	case TransferELU:
		return "elu"
	case TransferSELU:
		return "selu"
	case TransferReLU:
		return "relu"
	case TransferSwish:
		return "swish"
	default:
		return "unknown"
	}
}

const (
	eluAlpha   = 1.0
	seluAlpha  = 1.6732632423543772
	seluLambda = 1.0507009873554805
)

// TransferFunction exposes the value, derivative and kernel-source forms
// every transfer function in the catalogue needs.
type TransferFunction interface {
	Kind() TransferFunctionKind
	Value(x float64) float64
	// Derivative returns d(value)/dx * dx, i.e. it chains the local
	// derivative against the already-accumulated input derivative dx.
	Derivative(x, dx float64) float64
	KernelExpression(varName string) string
	// DerivativeKernelExpression renders d(value)/dx * dx as a GLSL
	// expression, the kernel-text counterpart of Derivative -- xVar and
	// dxVar name the already-emitted forward value and its accumulated
	// input derivative.
	DerivativeKernelExpression(xVar, dxVar string) string
}

type transferFunction struct {
	kind TransferFunctionKind
}

func (f transferFunction) Kind() TransferFunctionKind { return f.kind }

func (f transferFunction) Value(x float64) float64 {
	switch f.kind {
	case TransferIdentity:
		return x
	case TransferSigmoid:
		return 1.0 / (1.0 + math.Exp(-x))
	case TransferTanh:
		return math.Tanh(x)
	case TransferELU:
		if x >= 0 {
			return x
		}
		return eluAlpha * (math.Exp(x) - 1)
	case TransferSELU:
		if x >= 0 {
			return seluLambda * x
		}
		return seluLambda * seluAlpha * (math.Exp(x) - 1)
	case TransferReLU:
		return math.Max(0, x)
	case TransferSwish:
		return x / (1.0 + math.Exp(-x))
	default:
		return x
	}
}

func (f transferFunction) Derivative(x, dx float64) float64 {
	var local float64
	switch f.kind {
	case TransferIdentity:
		local = 1.0
	case TransferSigmoid:
		s := f.Value(x)
		local = s * (1 - s)
	case TransferTanh:
		t := math.Tanh(x)
		local = 1 - t*t
	case TransferELU:
		if x >= 0 {
			local = 1.0
		} else {
			local = eluAlpha * math.Exp(x)
		}
	case TransferSELU:
		if x >= 0 {
			local = seluLambda
		} else {
			local = seluLambda * seluAlpha * math.Exp(x)
		}
	case TransferReLU:
		if x > 0 {
			local = 1.0
		}
	case TransferSwish:
		s := 1.0 / (1.0 + math.Exp(-x))
		swish := x * s
		local = swish + s*(1-swish)
	default:
		local = 1.0
	}
	return local * dx
}

func (f transferFunction) KernelExpression(varName string) string {
	switch f.kind {
	case TransferIdentity:
		return varName
	case TransferSigmoid:
		return fmt.Sprintf("(1.0 / (1.0 + exp(-(%s))))", varName)
	case TransferTanh:
		return fmt.Sprintf("tanh(%s)", varName)
	case TransferELU:
		return fmt.Sprintf("((%s) >= 0.0 ? (%s) : (exp(%s) - 1.0))", varName, varName, varName)
	case TransferSELU:
		return fmt.Sprintf("((%s) >= 0.0 ? %v * (%s) : %v * (exp(%s) - 1.0))",
			varName, seluLambda, varName, seluLambda*seluAlpha, varName)
	case TransferReLU:
		return fmt.Sprintf("max(0.0, (%s))", varName)
	case TransferSwish:
		return fmt.Sprintf("((%s) / (1.0 + exp(-(%s))))", varName, varName)
	default:
		return varName
	}
}

func (f transferFunction) DerivativeKernelExpression(xVar, dxVar string) string {
	var local string
	switch f.kind {
	case TransferIdentity:
		local = "1.0"
	case TransferSigmoid:
		s := f.KernelExpression(xVar)
		local = fmt.Sprintf("((%s) * (1.0 - (%s)))", s, s)
	case TransferTanh:
		t := fmt.Sprintf("tanh(%s)", xVar)
		local = fmt.Sprintf("(1.0 - (%s) * (%s))", t, t)
	case TransferELU:
		local = fmt.Sprintf("((%s) >= 0.0 ? 1.0 : (%v * exp(%s)))", xVar, eluAlpha, xVar)
	case TransferSELU:
		local = fmt.Sprintf("((%s) >= 0.0 ? %v : (%v * exp(%s)))",
			xVar, seluLambda, seluLambda*seluAlpha, xVar)
	case TransferReLU:
		local = fmt.Sprintf("((%s) > 0.0 ? 1.0 : 0.0)", xVar)
	case TransferSwish:
		s := fmt.Sprintf("(1.0 / (1.0 + exp(-(%s))))", xVar)
		swish := fmt.Sprintf("((%s) * %s)", xVar, s)
		local = fmt.Sprintf("((%s) + (%s) * (1.0 - (%s)))", swish, s, swish)
	default:
		local = "1.0"
	}
	return fmt.Sprintf("((%s) * (%s))", local, dxVar)
}

// TransferFunctionFor returns the catalogue entry for kind.
func TransferFunctionFor(kind TransferFunctionKind) TransferFunction {
	return transferFunction{kind: kind}
}

// AllTransferFunctions lists the full catalogue, used by the Builder's
// layer-wide allowed-set selection.
func AllTransferFunctions() []TransferFunctionKind {
	return []TransferFunctionKind{
		TransferIdentity, TransferSigmoid, TransferTanh,
		TransferELU, TransferSELU, TransferReLU, TransferSwish,
	}
}
