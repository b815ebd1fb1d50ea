// Package rafkogpu materialises a rafkogym.Graph into a single OpenGL
// compute-shader kernel and dispatches it against real SSBOs, the GPU
// counterpart of rafkogym.Scheduler's CPU wave execution.
package rafkogpu

import "github.com/davids91/rafko-go/rafkogym"

// localDecl names one of the per-op-kind scratch variables the kernel body
// declares exactly once, before the first wave that needs it, by scanning
// the operation kinds actually present in the graph. Declaring unconditionally
// would shadow-warn on drivers that treat unused locals as an error; declaring
// per-case would redeclare across cases sharing a switch block.
type localDecl struct {
	name string
	glsl string
}

var knownLocals = []localDecl{
	{name: "f_x_value", glsl: "float f_x_value = 0.0;"},
	{name: "u_x_value", glsl: "float u_x_value = 0.0;"},
	{name: "f_x_derivative", glsl: "float f_x_derivative = 0.0;"},
	{name: "u_x_derivative", glsl: "float u_x_derivative = 0.0;"},
	{name: "past_value", glsl: "float past_value = 0.0;"},
	{name: "past_derivative_value", glsl: "float past_derivative_value = 0.0;"},
}

// localsFor reports which of knownLocals a graph built from these
// operation kinds actually needs. Spike operations are the only writers
// and readers of past_value/past_derivative_value (NeuronInput reach-past
// reads go through history()/history_d() directly); since every neuron
// contributes a Spike, any graph built from a non-empty network declares
// both.
func localsFor(g *rafkogym.Graph) []string {
	seen := map[rafkogym.OperationKind]bool{}
	needsPast := false
	for _, op := range g.Operations {
		seen[op.Kind()] = true
		if op.Kind() == rafkogym.KindSpike {
			needsPast = true
		}
	}
	var names []string
	if seen[rafkogym.KindNeuronInput] || seen[rafkogym.KindNeuronBias] {
		names = append(names, "f_x_value", "u_x_value", "f_x_derivative", "u_x_derivative")
	}
	if needsPast {
		names = append(names, "past_value", "past_derivative_value")
	}
	return names
}

func declareLocals(names []string) string {
	var out string
	for _, want := range names {
		for _, d := range knownLocals {
			if d.name == want {
				out += "  " + d.glsl + "\n"
				break
			}
		}
	}
	return out
}
