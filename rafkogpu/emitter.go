package rafkogpu

import (
	"fmt"
	"strings"

	"github.com/davids91/rafko-go/rafkogym"
)

// Emitter produces a single OpenGL compute-shader kernel that evaluates a
// whole rafkogym.Graph, one workgroup per sequence in the dispatched
// minibatch. Waves become barrier-separated sections of the same kernel
// body rather than separate kernel objects: the kernel is compiled
// once and reused across every weight index a training iteration visits.
//
// The kernel carries two named entry blocks, mirroring the original
// execute_value_workers/execute_derivative_workers kernel pair: main()
// dispatches to whichever one the caller's kernel_mode uniform selects for
// the current Dispatch call, so compilation and SSBO setup still happen
// once per (network, dataset shape) pair.
type Emitter struct{}

// NewEmitter returns an Emitter. It holds no state; every Emit call is
// independent.
func NewEmitter() *Emitter { return &Emitter{} }

// Emit renders g's forward and backward sweeps, both partitioned into the
// same waves, as GLSL compute shader source. workers bounds the local
// workgroup size; the caller dispatches one workgroup per sequence and
// workers invocations per workgroup, each responsible for a contiguous
// stripe of operation indices within a wave.
func (e *Emitter) Emit(g *rafkogym.Graph, waves []rafkogym.Wave, workers int) (string, error) {
	if workers < 1 {
		return "", fmt.Errorf("rafkogpu: emit requires at least one worker slot, got %d", workers)
	}
	if len(g.Operations) == 0 {
		return "", fmt.Errorf("rafkogpu: cannot emit a kernel for an empty graph")
	}

	var body strings.Builder
	body.WriteString(kernelPreamble(len(g.Operations), g.Network().WeightCount(), g.WeightRelevantOperationCount, workers))
	body.WriteString(declareLocals(localsFor(g)))
	body.WriteString(emitValueWorkers(waves))
	body.WriteString(emitDerivativeWorkers(waves))
	body.WriteString(kernelMain)

	return body.String(), nil
}

// emitValueWorkers renders execute_value_workers: one case per operation,
// assigning values(i) from its forward KernelExpression, barrier-separated
// by wave.
func emitValueWorkers(waves []rafkogym.Wave) string {
	var body strings.Builder
	body.WriteString("void execute_value_workers() {\n")
	body.WriteString("  switch (op_index) {\n")
	for waveIdx, w := range waves {
		if waveIdx > 0 {
			body.WriteString("    barrier();\n")
			body.WriteString("    memoryBarrierBuffer();\n")
		}
		for _, op := range w.Operations {
			fmt.Fprintf(&body, "    case %d: values(%d) = %s; break;\n",
				op.Index(), op.Index(), op.KernelExpression())
		}
	}
	body.WriteString("    default: break;\n")
	body.WriteString("  }\n")
	body.WriteString("}\n")
	return body.String()
}

// emitDerivativeWorkers renders execute_derivative_workers: one case per
// operation, assigning derivatives(i) from its DerivativeKernelExpression,
// in the same wave partition (and therefore the same dependency-safe
// execution order) as the forward sweep. Every Phase-A operation (index <
// weight_relevant_operation_count) additionally folds its freshly computed
// derivative into weight_derivatives[d_w_index] through the atomic-add
// helper, gated by update_weight_deriv -- the GPU counterpart of
// rafkogym.BackpropData.SetDerivative's weight-relevant EMA fold, done as a
// plain atomic sum here since multiple invocations across workgroups (one
// per sequence in the minibatch) can reach the same weight index in the
// same dispatch.
func emitDerivativeWorkers(waves []rafkogym.Wave) string {
	var body strings.Builder
	body.WriteString("void execute_derivative_workers() {\n")
	body.WriteString("  switch (op_index) {\n")
	for waveIdx, w := range waves {
		if waveIdx > 0 {
			body.WriteString("    barrier();\n")
			body.WriteString("    memoryBarrierBuffer();\n")
		}
		for _, op := range w.Operations {
			fmt.Fprintf(&body, "    case %d: {\n", op.Index())
			fmt.Fprintf(&body, "      float d = %s;\n", op.DerivativeKernelExpression())
			fmt.Fprintf(&body, "      derivatives(%d) = d;\n", op.Index())
			fmt.Fprintf(&body, "      if (%d < weight_relevant_operation_count && update_weight_deriv != 0) {\n", op.Index())
			body.WriteString("        atomicAddWeightDerivative(d_w_index, d);\n")
			body.WriteString("      }\n")
			body.WriteString("      break;\n")
			body.WriteString("    }\n")
		}
	}
	body.WriteString("    default: break;\n")
	body.WriteString("  }\n")
	body.WriteString("}\n")
	return body.String()
}

func kernelPreamble(opCount, weightCount, weightRelevantOperationCount, workers int) string {
	return fmt.Sprintf(`#version 430

layout(local_size_x = %d) in;

layout(std430, binding = 0) readonly buffer Weights { float weights[]; };
layout(std430, binding = 1) readonly buffer Inputs { float inputs[]; };
layout(std430, binding = 2) readonly buffer Labels { float labels[]; };
layout(std430, binding = 3) buffer OpValues { float op_values[]; };
layout(std430, binding = 4) buffer OpDerivatives { float op_derivatives[]; };
// weight_derivatives is addressed through atomicAddWeightDerivative's
// CAS loop, which needs atomicCompSwap's integer-only form: the buffer is
// declared as the raw uint reinterpretation of the float gradient it
// stores (see floatBitsToUint/uintBitsToFloat below).
layout(std430, binding = 5) buffer WeightDerivatives { uint weight_derivatives[]; };

uniform int sequence_start_index;
uniform int sequence_truncation;
uniform int current_step;
uniform int d_w_index;
uniform int kernel_mode; // 0 = execute_value_workers, 1 = execute_derivative_workers
uniform int update_weight_deriv;

const int OP_COUNT = %d;
const int WEIGHT_COUNT = %d;
const int weight_relevant_operation_count = %d;
const int WORKER_COUNT = %d;

// op_index/sequence_values_base are assigned once, in main(), from the
// invocation's workgroup/local IDs, then read by whichever of
// execute_value_workers/execute_derivative_workers main() calls -- they
// are declared at file scope (rather than as main()-local variables)
// purely so both functions, defined after this preamble, can see them.
int op_index;
int sequence_base;
int sequence_values_base;
uint rng_state;

// values(i) addresses operation i's slot for the step currently being
// evaluated; every Operation.KernelExpression emits reads/writes through
// this macro rather than indexing op_values directly, so the same
// generated text works regardless of where in the ring buffer the current
// step physically lives. derivatives(i) is the same addressing scheme
// over op_derivatives, populated by execute_derivative_workers.
#define values(i) op_values[sequence_values_base + (i)]
#define derivatives(i) op_derivatives[sequence_values_base + (i)]

// xorshift32 over rng_state, which main() seeds per invocation from
// gl_GlobalInvocationID; no generated case calls it.
uint xorshift32(inout uint state) {
  state ^= state << 13;
  state ^= state >> 17;
  state ^= state << 5;
  return state;
}

// history reads op_index's value from 'past' steps before current_step,
// within this workgroup's own slice of op_values — the GPU counterpart of
// rafkogym.BackpropData's ring buffer. Each workgroup (one sequence) owns
// (sequence_truncation + 1) consecutive step-slices of OP_COUNT floats.
// history_d is the same lookup against op_derivatives.
float history(int index, int past) {
  int base = int(gl_WorkGroupID.x) * OP_COUNT * (sequence_truncation + 1);
  int step = max(current_step - past, 0);
  return op_values[base + step * OP_COUNT + index];
}

float history_d(int index, int past) {
  int base = int(gl_WorkGroupID.x) * OP_COUNT * (sequence_truncation + 1);
  int step = max(current_step - past, 0);
  return op_derivatives[base + step * OP_COUNT + index];
}

// atomicAddWeightDerivative folds v into weight_derivatives[w] via a
// compare-and-swap loop: GLSL has no native atomic add over floats (only
// over ints/uints), so the float bit pattern is read, the add is performed
// in float space, and the result is written back through
// atomicCompSwap -- retrying whenever another invocation's write raced
// ahead of this one.
void atomicAddWeightDerivative(int w, float v) {
  uint old_bits = weight_derivatives[w];
  uint assumed;
  do {
    assumed = old_bits;
    float updated = uintBitsToFloat(assumed) + v;
    old_bits = atomicCompSwap(weight_derivatives[w], assumed, floatBitsToUint(updated));
  } while (assumed != old_bits);
}

`, workers, opCount, weightCount, weightRelevantOperationCount, workers)
}

// kernelMain assigns the file-scope scratch variables every generated
// switch case reads through the values/derivatives/history macros, then
// dispatches to whichever entry block kernel_mode names.
const kernelMain = `void main() {
  rng_state = gl_GlobalInvocationID.x * 747796405u + 2891336453u;
  op_index = int(gl_LocalInvocationID.x) + int(gl_WorkGroupID.y) * WORKER_COUNT;
  sequence_base = int(gl_WorkGroupID.x) * OP_COUNT * (sequence_truncation + 1);
  sequence_values_base = sequence_base + current_step * OP_COUNT;
  if (op_index >= OP_COUNT) {
    return;
  }
  if (kernel_mode == 0) {
    execute_value_workers();
  } else {
    execute_derivative_workers();
  }
}
`
