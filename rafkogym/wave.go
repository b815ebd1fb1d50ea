package rafkogym

// Wave is a batch of operations whose dependencies are all satisfied by
// already-executed waves, and which therefore carry no dependency among
// each other — safe to execute concurrently.
type Wave struct {
	Operations []Operation
}

// ComputeWaves groups a Graph's operations into waves by longest-
// dependency-chain depth: an operation with no dependencies sits in wave 0;
// an operation with dependencies sits one wave past the deepest of them.
// Waves execute in increasing depth order, so by the time wave k runs,
// every operation any wave-k operation depends on has already run. depth
// is returned alongside the waves so callers that need to interleave a
// side-channel pass (solution-relevant feature normalisation) at a precise
// wave boundary don't have to recompute it.
func ComputeWaves(g *Graph) (waves []Wave, depth []int) {
	depth = make([]int, len(g.Operations))
	for i := len(g.Operations) - 1; i >= 0; i-- {
		op := g.Operations[i]
		d := 0
		for _, dep := range op.Dependencies() {
			if dep == nil {
				continue
			}
			if dd := depth[dep.Index()] + 1; dd > d {
				d = dd
			}
		}
		depth[i] = d
	}
	maxDepth := 0
	for _, d := range depth {
		if d > maxDepth {
			maxDepth = d
		}
	}
	waves = make([]Wave, maxDepth+1)
	for i, op := range g.Operations {
		waves[depth[i]].Operations = append(waves[depth[i]].Operations, op)
	}
	return waves, depth
}

// solutionFeatureBoundaryDepth returns the greatest wave depth among any
// solution-relevant feature group's member Spike operations, or -1 if the
// graph has no solution-relevant feature groups. The scheduler normalises
// those groups immediately after running that wave, before any later wave
// (which may depend on the normalised value) starts.
func solutionFeatureBoundaryDepth(g *Graph, depth []int) int {
	boundary := -1
	for _, grp := range g.solutionGroups {
		for _, m := range grp.members {
			if depth[m.Index()] > boundary {
				boundary = depth[m.Index()]
			}
		}
	}
	return boundary
}
