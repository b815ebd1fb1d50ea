package rafko

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrainingStrategy_HasChecksBitwiseMembership(t *testing.T) {
	s := StopIfTrainingErrorZero | EarlyStopping
	assert.True(t, s.Has(StopIfTrainingErrorZero))
	assert.True(t, s.Has(EarlyStopping))
	assert.False(t, s.Has(StopIfTrainingErrorBelowLearningRate))
}

func TestSettings_LearningRateAtAppliesThresholdsInOrder(t *testing.T) {
	s := DefaultSettings()
	s.LearningRate = 1.0
	s.LearningRateDecay = []DecayStep{
		{IterationThreshold: 10, Multiplier: 0.5},
		{IterationThreshold: 20, Multiplier: 0.5},
	}

	assert.Equal(t, 1.0, s.LearningRateAt(5))
	assert.Equal(t, 0.5, s.LearningRateAt(10))
	assert.Equal(t, 0.25, s.LearningRateAt(20))
	assert.Equal(t, 0.25, s.LearningRateAt(25))
}

func TestSettings_AutoDetectThreadsSkipsWhenAlreadySet(t *testing.T) {
	s := Settings{MaxSolveThreads: 4, MaxProcessingThreads: 4, SqrtOfSolveThreads: 2}
	err := s.AutoDetectThreads()
	assert.NoError(t, err)
	assert.Equal(t, 4, s.MaxSolveThreads)
	assert.Equal(t, 4, s.MaxProcessingThreads)
	assert.Equal(t, 2, s.SqrtOfSolveThreads)
}

func TestSettings_AutoDetectThreadsFillsZeroFields(t *testing.T) {
	s := Settings{}
	err := s.AutoDetectThreads()
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, s.MaxSolveThreads, 1)
	assert.GreaterOrEqual(t, s.MaxProcessingThreads, 1)
	assert.GreaterOrEqual(t, s.SqrtOfSolveThreads, 1)
}

func TestDefaultSettings_MatchesDocumentedBaseline(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, uint32(2), s.MemoryTruncation)
	assert.Equal(t, uint32(1), s.MinibatchSize)
	assert.Equal(t, 0.1, s.LearningRate)
	assert.Equal(t, 1e-8, s.Epsilon)
}
