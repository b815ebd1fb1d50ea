package rafkonet

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// InputFunctionKind tags one of the two n-ary input reducers.
type InputFunctionKind uint8

const (
	InputAdd InputFunctionKind = iota
	InputMultiply
)

func (k InputFunctionKind) String() string {
	if k == InputMultiply {
		return "multiply"
	}
	return "add"
}

// InputFunction is a binary reducer applied pairwise, left to right, over
// a neuron's weighted inputs and biases. The first operand sets the
// accumulator rather than being combined against a reducer-specific
// identity of zero — for Multiply that guard is load-bearing: seeding the
// accumulator at 0 would zero every product.
type InputFunction interface {
	Kind() InputFunctionKind
	// Reduce combines values left to right using the reducer, seeding the
	// accumulator with values[0] rather than the reducer's identity.
	Reduce(values []float64) float64
	// Derivative returns d(f(a,b))/dw given the two operand values and
	// their already-known derivatives w.r.t. some weight w.
	Derivative(a, b, da, db float64) float64
	KernelCombine(accVar, nextVar string) string
	// DerivativeKernelCombine renders d(f(a,b))/dw as a GLSL expression,
	// the kernel-text counterpart of Derivative: accVar/nextVar name the
	// two operands' already-emitted forward values, dAccVar/dNextVar their
	// already-emitted derivatives w.r.t. the weight being differentiated.
	DerivativeKernelCombine(accVar, nextVar, dAccVar, dNextVar string) string
}

type inputFunction struct {
	kind InputFunctionKind
}

func (f inputFunction) Kind() InputFunctionKind { return f.kind }

func (f inputFunction) Reduce(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if f.kind == InputAdd {
		return floats.Sum(values)
	}
	// Multiply: the first operand seeds the accumulator (guard against
	// the identity-element-of-multiply-is-1-not-0 pitfall).
	acc := values[0]
	for _, v := range values[1:] {
		acc *= v
	}
	return acc
}

func (f inputFunction) Derivative(a, b, da, db float64) float64 {
	if f.kind == InputAdd {
		return da + db
	}
	return da*b + a*db
}

func (f inputFunction) KernelCombine(accVar, nextVar string) string {
	if f.kind == InputAdd {
		return fmt.Sprintf("(%s) + (%s)", accVar, nextVar)
	}
	return fmt.Sprintf("(%s) * (%s)", accVar, nextVar)
}

func (f inputFunction) DerivativeKernelCombine(accVar, nextVar, dAccVar, dNextVar string) string {
	if f.kind == InputAdd {
		return fmt.Sprintf("(%s) + (%s)", dAccVar, dNextVar)
	}
	return fmt.Sprintf("((%s) * (%s) + (%s) * (%s))", dAccVar, nextVar, accVar, dNextVar)
}

// InputFunctionFor returns the catalogue entry for kind.
func InputFunctionFor(kind InputFunctionKind) InputFunction {
	return inputFunction{kind: kind}
}

// AllInputFunctions lists the full catalogue.
func AllInputFunctions() []InputFunctionKind {
	return []InputFunctionKind{InputAdd, InputMultiply}
}
