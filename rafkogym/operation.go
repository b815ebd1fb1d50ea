// Package rafkogym is the training core: the backprop data store (see
// backprop_data.go), the operation graph (operation*.go, graph.go,
// builder.go), the wave scheduler (wave.go, scheduler.go) and the autodiff
// optimiser (optimizer.go).
package rafkogym

import "github.com/davids91/rafko-go/rafkonet"

// OperationKind tags one of the seven node kinds the operation graph is
// built from.
type OperationKind uint8

const (
	KindObjective OperationKind = iota
	KindSpike
	KindTransfer
	KindNeuronInput
	KindNeuronBias
	KindNetworkInput
	KindFeatureRegularisation
)

func (k OperationKind) String() string {
	switch k {
	case KindObjective:
		return "objective"
	case KindSpike:
		return "spike"
	case KindTransfer:
		return "transfer"
	case KindNeuronInput:
		return "neuron_input"
	case KindNeuronBias:
		return "neuron_bias"
	case KindNetworkInput:
		return "network_input"
	case KindFeatureRegularisation:
		return "feature_regularisation"
	default:
		return "unknown"
	}
}

// Operation is one node of the operation graph: a scalar computation with
// a fixed, execution-order position (its Index) and a fixed dependency
// shape determined by its Kind.
type Operation interface {
	// Index returns this operation's position in the owning Graph's
	// Operations array. Index 0 is an Objective; higher indices lie
	// deeper toward network inputs. Every dependency returned by
	// Dependencies() has a strictly greater Index than this operation.
	Index() int
	Kind() OperationKind
	// Dependencies lists this operation's already-resolved dependency
	// pointers, in the fixed shape its Kind requires.
	Dependencies() []Operation

	// Value computes and stores this operation's forward value into
	// store at the current timestep, reading its dependencies' already-
	// computed values from store (dependencies are evaluated first
	// because the forward sweep iterates high index to low index).
	// input is the network's current input sample, needed only by
	// NetworkInput.
	Value(store *BackpropData, network *rafkonet.Network, input []float64) float64

	// Derivative computes and stores, into store, this operation's
	// derivative with respect to weight index weightIdx, reading
	// dependencies' already-computed derivatives (dependencies are
	// evaluated first for the same high-to-low reason as Value).
	Derivative(store *BackpropData, network *rafkonet.Network, weightIdx int) float64

	// KernelExpression renders this operation's forward computation as a
	// GLSL expression over a `values[]` buffer (addressed by operation
	// index), a `weights[]` buffer, and an `inputs[]` buffer — the
	// building block rafkogpu's kernel emitter substitutes into a single
	// compute shader's per-index switch case.
	KernelExpression() string

	// DerivativeKernelExpression renders this operation's Derivative as a
	// GLSL expression over the same `values`/`history`/`weights` buffers
	// KernelExpression uses, plus a `derivatives`/`history_d`
	// counterpart addressed the same way, and the runtime `d_w_index`
	// uniform for operations whose CPU Derivative branches on weightIdx.
	DerivativeKernelExpression() string
}

// baseOp holds the fields every concrete operation needs: its own index
// (settable exactly once, by the builder, at placement time) and its
// kind.
type baseOp struct {
	index int
	kind  OperationKind
}

func (b *baseOp) Index() int        { return b.index }
func (b *baseOp) Kind() OperationKind { return b.kind }
