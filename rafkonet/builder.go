package rafkonet

import (
	"math/rand"

	"github.com/davids91/rafko-go/rafko"
)

// FunctionOverride pins one or more of a neuron's catalogue functions,
// overriding the layer-wide allowed set it would otherwise be drawn from.
type FunctionOverride struct {
	Transfer *TransferFunctionKind
	Input    *InputFunctionKind
	Spike    *SpikeFunctionKind
}

// LayerConfig describes one layer of neurons to add to a network under
// construction: how many neurons, and the allowed-function sets the
// builder draws uniformly from for each neuron unless overridden.
type LayerConfig struct {
	Size int

	AllowedTransferFunctions []TransferFunctionKind
	AllowedInputFunctions    []InputFunctionKind
	AllowedSpikeFunctions    []SpikeFunctionKind

	// RecurrentReachPast, when nonzero, makes every neuron in this layer
	// also take one extra recurrent input from its own previous value at
	// the given past depth (a Boltzmann-style self-loop is instead
	// expressed via a FeatureBoltzmannRecurrence feature group, not this
	// field — this field is for plain recurrent wiring).
	RecurrentReachPast uint32

	// FeatureGroups attaches per-layer decorations over exactly this
	// layer's neuron range.
	FeatureGroups []FeatureGroupKind

	// BiasCount is the number of bias weights (beyond the spike weight
	// and per-input weights) each neuron in this layer consumes. Must be
	// >= 1 when a neuron has zero inputs (bias-only neuron), since a
	// neuron must own at least one weight.
	BiasCount uint32
}

// Builder constructs a Network incrementally, layer by layer. It enforces
// preconditions: sizes must be declared before layers are added, and a
// per-neuron override incompatible with its layer's allowed-function set
// is rejected rather than silently honored.
type Builder struct {
	inputSize  uint32
	memorySize uint32
	sizesSet   bool

	layers    []LayerConfig
	overrides map[int]FunctionOverride // global neuron index -> override

	rng        *rand.Rand
	weightInit WeightInitializer
}

// NewBuilder constructs an empty Builder. rng defaults to a fresh
// rand.Rand seeded from rand.Int63() when nil, and weightInit defaults to
// DenseNetWeightInitializer{} when nil.
func NewBuilder(rng *rand.Rand, weightInit WeightInitializer) *Builder {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	if weightInit == nil {
		weightInit = DenseNetWeightInitializer{}
	}
	return &Builder{
		overrides:  make(map[int]FunctionOverride),
		rng:        rng,
		weightInit: weightInit,
	}
}

// SetSizes declares the input size and the maximum past-loop count any
// synapse in the eventual network may reach. Must be called before
// AddLayer.
func (b *Builder) SetSizes(inputSize, memorySize uint32) {
	b.inputSize = inputSize
	b.memorySize = memorySize
	b.sizesSet = true
}

// AddLayer appends a layer of neurons fed from the previous layer (or, for
// the first layer, from the network inputs). Returns the starting global
// neuron index of the new layer.
func (b *Builder) AddLayer(cfg LayerConfig) (int, error) {
	if !b.sizesSet {
		return 0, rafko.NewBuilderInvariant("SetSizes must be called before AddLayer")
	}
	if cfg.Size <= 0 {
		return 0, rafko.NewBuilderInvariant("layer size must be > 0, got %d", cfg.Size)
	}
	start := b.neuronCountSoFar()
	b.layers = append(b.layers, cfg)
	return start, nil
}

// SetOverride pins function choices for a single global neuron index,
// overriding the layer-wide allowed set. Build returns a
// BuilderInvariantError if the override names a function absent from its
// layer's allowed set.
func (b *Builder) SetOverride(globalNeuronIndex int, override FunctionOverride) {
	b.overrides[globalNeuronIndex] = override
}

func (b *Builder) neuronCountSoFar() int {
	total := 0
	for _, l := range b.layers {
		total += l.Size
	}
	return total
}

// Build constructs the final Network, validating every declared layer and
// override. On any error the returned Network is nil: the builder leaves
// no partially constructed network behind.
func (b *Builder) Build(outputCount uint32) (*Network, error) {
	if !b.sizesSet {
		return nil, rafko.NewBuilderInvariant("SetSizes was never called")
	}
	if len(b.layers) == 0 {
		return nil, rafko.NewBuilderInvariant("at least one layer is required")
	}

	totalNeurons := b.neuronCountSoFar()
	if outputCount == 0 || int(outputCount) > totalNeurons {
		return nil, rafko.NewBuilderInvariant("output_count %d invalid for %d neurons", outputCount, totalNeurons)
	}

	draft := &Network{
		InputSize:   b.inputSize,
		MemorySize:  b.memorySize,
		OutputCount: outputCount,
		Neurons:     make([]Neuron, 0, totalNeurons),
	}

	layerStart := 0
	prevLayerStart, prevLayerSize := -1, 0 // -1 means "read from network inputs"

	for _, layer := range b.layers {
		for local := 0; local < layer.Size; local++ {
			globalIdx := layerStart + local
			neuron, err := b.buildNeuron(draft, globalIdx, layer, prevLayerStart, prevLayerSize)
			if err != nil {
				return nil, err
			}
			draft.Neurons = append(draft.Neurons, neuron)
		}

		if len(layer.FeatureGroups) > 0 {
			syn := NeuronSynapse{Start: uint32(layerStart), Size: uint32(layer.Size)}
			for _, kind := range layer.FeatureGroups {
				draft.FeatureGroups = append(draft.FeatureGroups, FeatureGroup{
					Kind:           kind,
					NeuronSynapses: []NeuronSynapse{syn},
				})
			}
		}

		prevLayerStart, prevLayerSize = layerStart, layer.Size
		layerStart += layer.Size
	}

	if err := draft.Validate(); err != nil {
		return nil, err
	}
	return draft, nil
}

func (b *Builder) buildNeuron(draft *Network, globalIdx int, layer LayerConfig, prevStart, prevSize int) (Neuron, error) {
	override := b.overrides[globalIdx]

	transferKind, err := pickFunction(b.rng, override.Transfer, layer.AllowedTransferFunctions, AllTransferFunctions())
	if err != nil {
		return Neuron{}, rafko.NewBuilderInvariant("neuron %d transfer function: %v", globalIdx, err)
	}
	inputKind, err := pickFunction(b.rng, override.Input, layer.AllowedInputFunctions, AllInputFunctions())
	if err != nil {
		return Neuron{}, rafko.NewBuilderInvariant("neuron %d input function: %v", globalIdx, err)
	}
	spikeKind, err := pickFunction(b.rng, override.Spike, layer.AllowedSpikeFunctions, AllSpikeFunctions())
	if err != nil {
		return Neuron{}, rafko.NewBuilderInvariant("neuron %d spike function: %v", globalIdx, err)
	}

	var inputSynapses []InputSynapse
	var inputCount uint32
	if prevStart < 0 {
		if draft.InputSize == 0 {
			return Neuron{}, rafko.NewBuilderInvariant("layer reads from network inputs but input_size is 0")
		}
		inputSynapses = append(inputSynapses, InputSynapse{
			Start: EncodeInputIndex(0),
			Size:  draft.InputSize,
		})
		inputCount = draft.InputSize
	} else if prevSize > 0 {
		inputSynapses = append(inputSynapses, InputSynapse{
			Start: int32(prevStart),
			Size:  uint32(prevSize),
		})
		inputCount = uint32(prevSize)
	}
	if layer.RecurrentReachPast > 0 {
		inputSynapses = append(inputSynapses, InputSynapse{
			Start:     int32(globalIdx),
			Size:      1,
			ReachPast: layer.RecurrentReachPast,
		})
		inputCount++
	}
	for _, syn := range inputSynapses {
		if syn.Size == 0 {
			return Neuron{}, rafko.NewBuilderInvariant(
				"neuron %d has a zero-length input synapse cut, which is forbidden", globalIdx)
		}
	}

	biasCount := layer.BiasCount
	if inputCount == 0 && biasCount == 0 {
		biasCount = 1 // a neuron with no inputs must still consume >= 1 weight (bias-only).
	}
	totalWeights := 1 + inputCount + biasCount // spike + inputs + biases

	weightStart := uint32(len(draft.Weights))
	fanIn := int(inputCount)
	if fanIn == 0 {
		fanIn = 1
	}
	for i := uint32(0); i < totalWeights; i++ {
		draft.Weights = append(draft.Weights, b.weightInit.InitWeight(b.rng, fanIn))
	}

	return Neuron{
		InputFunction:    inputKind,
		TransferFunction: transferKind,
		SpikeFunction:    spikeKind,
		InputSynapses:    inputSynapses,
		WeightSynapses:   []WeightSynapse{{Start: weightStart, Size: totalWeights}},
	}, nil
}

// pickFunction resolves an override, a layer-wide allowed set, or a
// uniform-random draw over the full catalogue, in that priority order. It
// returns an error when override is non-nil but absent from a non-empty
// allowed set.
func pickFunction[T comparable](rng *rand.Rand, override *T, allowed []T, full []T) (T, error) {
	var zero T
	if override != nil {
		if len(allowed) > 0 && !contains(allowed, *override) {
			return zero, &overrideConflictError{}
		}
		return *override, nil
	}
	pool := allowed
	if len(pool) == 0 {
		pool = full
	}
	return pool[rng.Intn(len(pool))], nil
}

func contains[T comparable](s []T, v T) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

type overrideConflictError struct{}

func (e *overrideConflictError) Error() string {
	return "override is incompatible with the layer-wide allowed-function filter"
}
