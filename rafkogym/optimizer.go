package rafkogym

import (
	"math/rand"
	"sync"

	"github.com/davids91/rafko-go/rafko"
	"github.com/davids91/rafko-go/rafkodataset"
	"github.com/davids91/rafko-go/rafkonet"
)

// Optimizer drives one training iteration: pick a minibatch of sequences,
// run each sequence's prefill inputs with
// derivative tracking off, then its labelled inputs with derivative
// tracking restricted to a truncation window drawn once per iteration, accumulate each
// weight's sequence-position EMA into a gradient, and apply one
// gradient-descent step scaled by the current (possibly decayed) learning
// rate.
type Optimizer struct {
	Network   *rafkonet.Network
	Graph     *Graph
	Store     *BackpropData
	Dataset   rafkodataset.Dataset
	Settings  rafko.Settings
	Scheduler *Scheduler

	CurrentIteration  uint32
	bestTestError     float64
	haveBestTestError bool
	rng               *rand.Rand
}

// NewOptimizer builds an Optimizer over network/graph/dataset. settings is
// copied; its thread counts are autodetected (via gopsutil) if left at
// zero. seed fixes the minibatch sampler's randomness.
func NewOptimizer(network *rafkonet.Network, graph *Graph, dataset rafkodataset.Dataset, settings rafko.Settings, seed int64) (*Optimizer, error) {
	if err := settings.AutoDetectThreads(); err != nil {
		return nil, err
	}
	store := NewBackpropData()
	if err := store.Build(len(graph.Operations), graph.WeightRelevantOperationCount, network.WeightCount(), network.MemorySize, dataset.SequenceSize()); err != nil {
		return nil, err
	}
	return &Optimizer{
		Network:   network,
		Graph:     graph,
		Store:     store,
		Dataset:   dataset,
		Settings:  settings,
		Scheduler: NewScheduler(settings.MaxSolveThreads),
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// Iterate runs one training iteration and returns the minibatch's mean
// training error, along with whether the configured TrainingStrategy
// reports the run as finished.
func (o *Optimizer) Iterate() (trainingError float64, finished bool, err error) {
	minibatch := o.selectMinibatch()
	gradient := make([]float64, o.Network.WeightCount())
	truncation, truncStart := o.selectTruncationWindow()

	var total float64
	for _, seq := range minibatch {
		e, runErr := o.runSequence(seq, truncation, truncStart, gradient)
		if runErr != nil {
			return 0, false, runErr
		}
		total += e
	}
	trainingError = total/float64(len(minibatch)) + o.regularisationTerm(len(minibatch))
	o.applyGradient(gradient, len(minibatch))
	o.CurrentIteration++
	return trainingError, o.checkStop(trainingError), nil
}

func (o *Optimizer) selectMinibatch() []int {
	n := o.Dataset.NumberOfSequences()
	size := int(o.Settings.MinibatchSize)
	if size <= 0 || size > n {
		size = n
	}
	return o.rng.Perm(n)[:size]
}

// selectTruncationWindow picks the truncation length and a window start
// drawn uniformly from [0, seqSize-truncation], once per iteration and
// shared by every sequence in the minibatch -- mirroring
// rafko_autodiff_optimizer.cc's start_index_inside_sequence, which is
// drawn once per iterate() call rather than once per sequence, so memory
// truncation training exercises every window position across iterations
// instead of always the trailing one.
func (o *Optimizer) selectTruncationWindow() (truncation, start int) {
	seqSize := o.Dataset.SequenceSize()
	truncation = int(o.Settings.MemoryTruncation)
	if truncation <= 0 || truncation > seqSize {
		truncation = seqSize
	}
	span := seqSize - truncation + 1
	if span > 1 {
		start = o.rng.Intn(span)
	}
	return truncation, start
}

// runSequence plays one sequence's prefill, then its labelled steps,
// accumulating each weight's truncation-window derivative EMA into
// gradient, and returns the sequence's mean per-step, per-output error.
func (o *Optimizer) runSequence(seq, truncation, truncStart int, gradient []float64) (float64, error) {
	prefill := o.Dataset.PrefillSamplesNumber()
	seqSize := o.Dataset.SequenceSize()
	inputBase := o.Dataset.SequenceInputStart(seq)
	labelBase := o.Dataset.SequenceLabelStart(seq)

	o.Store.Reset()
	o.Store.SetWeightDerivUpdateFlag(false)
	for step := 0; step < prefill; step++ {
		o.Scheduler.RunForward(o.Graph, o.Store, o.Dataset.GetInputSample(inputBase+step))
		o.Store.Step()
	}

	objectives := o.Graph.Objectives()
	var totalErr float64
	for step := 0; step < seqSize; step++ {
		input := o.Dataset.GetInputSample(inputBase + prefill + step)
		label := o.Dataset.GetLabelSample(labelBase + step)
		o.Graph.SetLabels(label)

		inWindow := step >= truncStart && step < truncStart+truncation
		o.Store.SetWeightDerivUpdateFlag(inWindow)
		o.Scheduler.RunForward(o.Graph, o.Store, input)
		for _, obj := range objectives {
			totalErr += o.Store.GetValue(0, obj.Index())
		}
		if inWindow {
			o.runDerivativeSweep()
		}
		// The last labelled step stays current, so the fold below finds
		// step s at offset seqSize-1-s.
		if step < seqSize-1 {
			o.Store.Step()
		}
	}

	// Fold the window's per-position derivatives into gradient with the
	// same two-level EMA rafko_autodiff_optimizer.cc applies across a
	// truncation window (its m_tmpAvgD fold, via std::transform's
	// (a+b)/2.0): positions are walked in ascending step order -- offset
	// seqSize-1-step converts an absolute step into BackpropData's
	// offset-behind-current addressing -- folding into a zero-initialised
	// accumulator so the most recently stepped position in the window
	// ends up weighted heaviest (1/2), the one before it 1/4, and so on.
	// This sequence's fold is then added into gradient, preserving the
	// existing cross-sequence summation applyGradient divides down by
	// minibatch size.
	windowAvg := make([]float64, len(gradient))
	for step := truncStart; step < truncStart+truncation; step++ {
		offset := seqSize - 1 - step
		for w := range windowAvg {
			windowAvg[w] = (windowAvg[w] + o.Store.SequenceDerivative(offset, w)) / 2.0
		}
	}
	for w := range gradient {
		gradient[w] += windowAvg[w]
	}
	return totalErr / float64(seqSize*len(objectives)), nil
}

// regularisationTerm computes the sum of every FeatureRegularisation
// operation's raw value (no lambda, no 0.5 scaling) and divides it by n.
// It is computed once per Iterate/EvaluateError call rather than folded
// into the per-step accumulation loop above, since those loops divide by
// step count times objective count -- a different (and wrong) scaling
// than the dataset-size divisor the regularised-error formula calls for.
func (o *Optimizer) regularisationTerm(n int) float64 {
	if n == 0 {
		return 0
	}
	var sum float64
	for _, op := range o.Graph.FeatureRegularisations() {
		sum += op.Value(o.Store, o.Network, nil)
	}
	return sum / float64(n)
}

// runDerivativeSweep runs EvaluateDerivative once per weight index,
// distributing weight indices across MaxProcessingThreads workers by
// stride (worker k handles weights k, k+numWorkers, k+2*numWorkers, ...).
func (o *Optimizer) runDerivativeSweep() {
	weightCount := o.Network.WeightCount()
	numWorkers := o.Settings.MaxProcessingThreads
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > weightCount {
		numWorkers = weightCount
	}
	if numWorkers <= 1 {
		for w := 0; w < weightCount; w++ {
			o.Scheduler.RunDerivative(o.Graph, o.Store, w)
		}
		return
	}
	var wg sync.WaitGroup
	for worker := 0; worker < numWorkers; worker++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for w := start; w < weightCount; w += numWorkers {
				o.Scheduler.RunDerivative(o.Graph, o.Store, w)
			}
		}(worker)
	}
	wg.Wait()
}

func (o *Optimizer) applyGradient(gradient []float64, minibatchSize int) {
	if minibatchSize == 0 {
		return
	}
	rate := o.Settings.LearningRateAt(o.CurrentIteration)
	for i, g := range gradient {
		o.Network.Weights[i] -= rate * g / float64(minibatchSize)
	}
}

func (o *Optimizer) checkStop(trainingError float64) bool {
	s := o.Settings.TrainingStrategy
	if s.Has(rafko.StopIfTrainingErrorZero) && trainingError <= 0 {
		return true
	}
	if s.Has(rafko.StopIfTrainingErrorBelowLearningRate) &&
		trainingError < o.Settings.LearningRateAt(o.CurrentIteration) {
		return true
	}
	return false
}

// CheckEarlyStopping records testError as the latest test-set evaluation
// and reports whether the EarlyStopping strategy should halt training: the
// test error has worsened by more than (1+Delta) times the best seen so
// far. Reports false whenever EarlyStopping is not part of TrainingStrategy.
func (o *Optimizer) CheckEarlyStopping(testError float64) bool {
	if !o.Settings.TrainingStrategy.Has(rafko.EarlyStopping) {
		return false
	}
	if !o.haveBestTestError || testError < o.bestTestError {
		o.bestTestError = testError
		o.haveBestTestError = true
		return false
	}
	return testError > (1+o.Settings.Delta)*o.bestTestError
}

// EvaluateError runs every sequence of dataset with derivative tracking
// off and returns the mean per-step, per-output error — the test-error
// figure CheckEarlyStopping consumes. The stop checks inside Iterate use
// Iterate's own training error instead.
func (o *Optimizer) EvaluateError(dataset rafkodataset.Dataset) float64 {
	count := dataset.NumberOfSequences()
	if count == 0 {
		return 0
	}
	var total float64
	for seq := 0; seq < count; seq++ {
		total += o.evaluateSequenceError(dataset, seq)
	}
	return total/float64(count) + o.regularisationTerm(count)
}

func (o *Optimizer) evaluateSequenceError(dataset rafkodataset.Dataset, seq int) float64 {
	prefill := dataset.PrefillSamplesNumber()
	seqSize := dataset.SequenceSize()
	inputBase := dataset.SequenceInputStart(seq)
	labelBase := dataset.SequenceLabelStart(seq)

	o.Store.Reset()
	o.Store.SetWeightDerivUpdateFlag(false)
	for step := 0; step < prefill; step++ {
		o.Scheduler.RunForward(o.Graph, o.Store, dataset.GetInputSample(inputBase+step))
		o.Store.Step()
	}
	objectives := o.Graph.Objectives()
	var total float64
	for step := 0; step < seqSize; step++ {
		input := dataset.GetInputSample(inputBase + prefill + step)
		label := dataset.GetLabelSample(labelBase + step)
		o.Graph.SetLabels(label)
		o.Scheduler.RunForward(o.Graph, o.Store, input)
		for _, obj := range objectives {
			total += o.Store.GetValue(0, obj.Index())
		}
		o.Store.Step()
	}
	return total / float64(seqSize*len(objectives))
}
