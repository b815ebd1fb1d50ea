package rafko

import (
	"math"

	"github.com/shirou/gopsutil/v3/cpu"
)

// TrainingStrategy is a bit-flag set controlling when Optimizer.Iterate
// reports the training loop as finished.
type TrainingStrategy uint8

const (
	// StopIfTrainingErrorZero stops once the training error is zero or
	// below; StopIfTrainingErrorBelowLearningRate is the tolerance variant.
	StopIfTrainingErrorZero TrainingStrategy = 1 << iota
	// StopIfTrainingErrorBelowLearningRate stops once the training error
	// falls below the current learning rate.
	StopIfTrainingErrorBelowLearningRate
	// EarlyStopping stops once the test error worsens by more than
	// (1+delta)*best_so_far.
	EarlyStopping
)

// Has reports whether flag is set in s.
func (s TrainingStrategy) Has(flag TrainingStrategy) bool {
	return s&flag != 0
}

// DecayStep is one entry of a step-wise learning-rate decay schedule:
// once Optimizer.CurrentIteration reaches IterationThreshold, the learning
// rate is multiplied by Multiplier.
type DecayStep struct {
	IterationThreshold uint32  `json:"iteration_threshold"`
	Multiplier         float64 `json:"multiplier"`
}

// Settings is the training run's configuration surface: a plain
// JSON-tagged struct, loaded with encoding/json — no env/flag
// configuration framework.
type Settings struct {
	// MaxSolveThreads bounds forward-pass (value) worker parallelism.
	// Zero means "autodetect" via AutoDetectThreads.
	MaxSolveThreads int `json:"max_solve_threads"`
	// MaxProcessingThreads bounds backward-pass (derivative) worker
	// parallelism across the weight-index dimension. Zero means
	// autodetect.
	MaxProcessingThreads int `json:"max_processing_threads"`
	// SqrtOfSolveThreads sizes an inner sub-pool used when a single wave
	// node itself wants parallelism (e.g. a wide feature group).
	SqrtOfSolveThreads int `json:"sqrt_of_solve_threads"`

	MemoryTruncation uint32 `json:"memory_truncation"`
	MinibatchSize    uint32 `json:"minibatch_size"`

	LearningRate      float64     `json:"learning_rate"`
	LearningRateDecay []DecayStep `json:"learning_rate_decay"`

	Alpha   float64 `json:"alpha"`
	Beta    float64 `json:"beta"`
	Gamma   float64 `json:"gamma"`
	Delta   float64 `json:"delta"`
	Epsilon float64 `json:"epsilon"`
	Zetta   float64 `json:"zetta"`
	Lambda  float64 `json:"lambda"`

	DropoutProbability float64 `json:"dropout_probability"`
	DeviceMaxMegabytes float64 `json:"device_max_megabytes"`

	TrainingStrategy TrainingStrategy `json:"training_strategy"`
}

// DefaultSettings returns a Settings populated with the values the rest of
// this package treats as sane defaults when a caller doesn't override them.
func DefaultSettings() Settings {
	return Settings{
		MemoryTruncation:   2,
		MinibatchSize:      1,
		LearningRate:       0.1,
		Alpha:              1.0,
		Beta:               1.0,
		Gamma:              1.0,
		Delta:              0.1,
		Epsilon:            1e-8,
		Zetta:              1.0,
		Lambda:             0.0,
		DropoutProbability: 0.0,
		DeviceMaxMegabytes: 512,
	}
}

// AutoDetectThreads fills MaxSolveThreads, MaxProcessingThreads and
// SqrtOfSolveThreads from the host's logical CPU count when they are left
// at zero, since the wave scheduler needs exactly this "how many workers"
// answer.
func (s *Settings) AutoDetectThreads() error {
	if s.MaxSolveThreads > 0 && s.MaxProcessingThreads > 0 && s.SqrtOfSolveThreads > 0 {
		return nil
	}
	counts, err := cpu.Counts(true)
	if err != nil {
		return NewRuntimeResource(err, "cpu.Counts failed during thread autodetection")
	}
	if counts < 1 {
		counts = 1
	}
	if s.MaxSolveThreads <= 0 {
		s.MaxSolveThreads = counts
	}
	if s.MaxProcessingThreads <= 0 {
		s.MaxProcessingThreads = counts
	}
	if s.SqrtOfSolveThreads <= 0 {
		s.SqrtOfSolveThreads = int(math.Ceil(math.Sqrt(float64(s.MaxSolveThreads))))
		if s.SqrtOfSolveThreads < 1 {
			s.SqrtOfSolveThreads = 1
		}
	}
	return nil
}

// LearningRateAt applies the step-wise decay schedule and returns the
// effective learning rate for the given iteration.
func (s *Settings) LearningRateAt(iteration uint32) float64 {
	rate := s.LearningRate
	for _, step := range s.LearningRateDecay {
		if iteration >= step.IterationThreshold {
			rate *= step.Multiplier
		}
	}
	return rate
}
