// Command rafko-train builds a dense recurrent network from flag-specified
// layer sizes, trains it against a JSON dataset record, and reports the
// training and evaluation error every few iterations.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/davids91/rafko-go/rafko"
	"github.com/davids91/rafko-go/rafkodataset"
	"github.com/davids91/rafko-go/rafkogym"
	"github.com/davids91/rafko-go/rafkonet"
)

func main() {
	var (
		datasetPath  = flag.String("dataset", "", "path to a JSON-encoded rafkodataset.Record (required)")
		layerSpec    = flag.String("layers", "8,4", "comma-separated hidden/output layer sizes")
		outputCount  = flag.Uint("outputs", 0, "number of output neurons (defaults to the last layer's size)")
		costName     = flag.String("cost", rafkonet.CostMSE.String(), "cost function: "+costNameList())
		iterations   = flag.Uint("iterations", 100, "maximum number of training iterations")
		reportEvery  = flag.Uint("report-every", 10, "print training/evaluation error every N iterations")
		learningRate = flag.Float64("learning-rate", 0.1, "initial learning rate")
		minibatch    = flag.Uint("minibatch-size", 1, "sequences drawn per training iteration")
		truncation   = flag.Uint("truncation", 2, "backprop-through-time truncation window, in steps")
		seed         = flag.Int64("seed", 1, "RNG seed for weight init and minibatch sampling")
	)
	flag.Parse()

	if *datasetPath == "" {
		log.Fatal("rafko-train: -dataset is required")
	}

	layers, err := parseLayerSpec(*layerSpec)
	if err != nil {
		log.Fatalf("rafko-train: %v", err)
	}

	dataset, err := loadDataset(*datasetPath)
	if err != nil {
		log.Fatalf("rafko-train: loading dataset: %v", err)
	}

	costKind, err := parseCostName(*costName)
	if err != nil {
		log.Fatalf("rafko-train: %v", err)
	}

	outputs := uint32(*outputCount)
	if outputs == 0 {
		outputs = uint32(layers[len(layers)-1])
	}

	network, err := buildNetwork(dataset, layers, outputs, *seed)
	if err != nil {
		log.Fatalf("rafko-train: building network: %v", err)
	}

	graph, err := rafkogym.NewGraphBuilder(network, costKind).Build()
	if err != nil {
		log.Fatalf("rafko-train: building operation graph: %v", err)
	}

	settings := rafko.DefaultSettings()
	settings.LearningRate = *learningRate
	settings.MinibatchSize = uint32(*minibatch)
	settings.MemoryTruncation = uint32(*truncation)

	optimizer, err := rafkogym.NewOptimizer(network, graph, dataset, settings, *seed)
	if err != nil {
		log.Fatalf("rafko-train: building optimizer: %v", err)
	}

	fmt.Printf("rafko-train: %d neurons, %d weights, cost=%s, outputs=%d\n",
		network.NeuronCount(), network.WeightCount(), costKind, outputs)

	for i := uint32(0); i < uint32(*iterations); i++ {
		trainingError, finished, err := optimizer.Iterate()
		if err != nil {
			log.Fatalf("rafko-train: iteration %d: %v", i, err)
		}
		if *reportEvery > 0 && (i%uint32(*reportEvery) == 0 || finished) {
			evalError := optimizer.EvaluateError(dataset)
			fmt.Printf("iteration %d: training_error=%.6f eval_error=%.6f\n", i, trainingError, evalError)
		}
		if finished {
			fmt.Printf("rafko-train: stopping early at iteration %d (training strategy satisfied)\n", i)
			break
		}
	}
}

// buildNetwork constructs a fully-connected feed-forward-with-recurrence
// network: dataset.InputSize() inputs feed the first layer, and every
// subsequent layer reads from the one before it. Every layer may draw any
// catalogue transfer/input/spike function, and carries a one-step
// recurrent self-loop so the resulting network can actually learn sequence
// structure.
func buildNetwork(dataset *rafkodataset.InMemoryDataset, layers []int, outputs uint32, seed int64) (*rafkonet.Network, error) {
	rng := rand.New(rand.NewSource(seed))
	builder := rafkonet.NewBuilder(rng, nil)
	builder.SetSizes(uint32(dataset.InputSize()), 1)

	for _, size := range layers {
		if _, err := builder.AddLayer(rafkonet.LayerConfig{
			Size:                     size,
			AllowedTransferFunctions: rafkonet.AllTransferFunctions(),
			AllowedInputFunctions:    rafkonet.AllInputFunctions(),
			AllowedSpikeFunctions:    rafkonet.AllSpikeFunctions(),
			RecurrentReachPast:       1,
			BiasCount:                1,
		}); err != nil {
			return nil, err
		}
	}

	return builder.Build(outputs)
}

func parseLayerSpec(spec string) ([]int, error) {
	parts := strings.Split(spec, ",")
	layers := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		size, err := strconv.Atoi(p)
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("invalid layer size %q in -layers", p)
		}
		layers = append(layers, size)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("-layers must name at least one layer")
	}
	return layers, nil
}

func parseCostName(name string) (rafkonet.CostFunctionKind, error) {
	for _, kind := range rafkonet.AllCostFunctions() {
		if kind.String() == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown cost function %q, want one of %s", name, costNameList())
}

func costNameList() string {
	names := make([]string, 0, len(rafkonet.AllCostFunctions()))
	for _, kind := range rafkonet.AllCostFunctions() {
		names = append(names, kind.String())
	}
	return strings.Join(names, ", ")
}

func loadDataset(path string) (*rafkodataset.InMemoryDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var record rafkodataset.Record
	if err := json.NewDecoder(f).Decode(&record); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return rafkodataset.Decode(record)
}
