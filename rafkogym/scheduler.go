package rafkogym

import "sync"

// Scheduler runs a Graph's waves with a bounded worker pool: every
// operation within a wave is independent of every other, so they execute
// concurrently, with a barrier between waves (bulk-synchronous-parallel).
// Optimizer runs every sweep through this scheduler; GPU dispatch
// (rafkogpu) is a separate path that renders the same wave list as kernel
// text and is not called by Optimizer.
type Scheduler struct {
	MaxThreads int

	// cacheMu guards cachedGraph/cachedWaves/cachedBoundary: Optimizer's
	// derivative sweep calls RunDerivative from several worker goroutines
	// at once, and the first call after a new graph is seen is the one
	// that populates the cache.
	cacheMu sync.Mutex
	// cachedGraph/cachedWaves/cachedBoundary memoise ComputeWaves against
	// the graph pointer last seen: a graph's dependency structure never
	// changes after GraphBuilder.Build, and RunDerivative is called once
	// per weight index per labelled step, so recomputing the wave
	// partition on every call would dwarf the actual per-operation work.
	cachedGraph    *Graph
	cachedWaves    []Wave
	cachedBoundary int
}

// NewScheduler returns a Scheduler bounded to maxThreads concurrent
// operations per wave; maxThreads < 1 is clamped to 1.
func NewScheduler(maxThreads int) *Scheduler {
	if maxThreads < 1 {
		maxThreads = 1
	}
	return &Scheduler{MaxThreads: maxThreads}
}

func (s *Scheduler) wavesFor(graph *Graph) ([]Wave, int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cachedGraph == graph {
		return s.cachedWaves, s.cachedBoundary
	}
	waves, depth := ComputeWaves(graph)
	boundary := solutionFeatureBoundaryDepth(graph, depth)
	s.cachedGraph = graph
	s.cachedWaves = waves
	s.cachedBoundary = boundary
	return waves, boundary
}

// RunForward executes one forward sweep of graph into store for the given
// input sample.
func (s *Scheduler) RunForward(graph *Graph, store *BackpropData, input []float64) {
	waves, boundary := s.wavesFor(graph)
	for d, w := range waves {
		s.runWave(w, func(op Operation) { op.Value(store, graph.network, input) })
		if d == boundary {
			graph.applySolutionRelevantFeatures(store)
		}
	}
}

// RunDerivative executes one backward sweep of graph into store for weight
// index weightIdx.
func (s *Scheduler) RunDerivative(graph *Graph, store *BackpropData, weightIdx int) {
	waves, _ := s.wavesFor(graph)
	for _, w := range waves {
		s.runWave(w, func(op Operation) { op.Derivative(store, graph.network, weightIdx) })
	}
}

func (s *Scheduler) runWave(w Wave, run func(Operation)) {
	if len(w.Operations) == 0 {
		return
	}
	if len(w.Operations) == 1 || s.MaxThreads == 1 {
		for _, op := range w.Operations {
			run(op)
		}
		return
	}
	sem := make(chan struct{}, s.MaxThreads)
	var wg sync.WaitGroup
	for _, op := range w.Operations {
		wg.Add(1)
		sem <- struct{}{}
		go func(op Operation) {
			defer wg.Done()
			defer func() { <-sem }()
			run(op)
		}(op)
	}
	wg.Wait()
}
