package rafkonet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeatureGroup_NeuronsExpandsSynapses(t *testing.T) {
	g := FeatureGroup{NeuronSynapses: []NeuronSynapse{{Start: 2, Size: 3}, {Start: 10, Size: 1}}}
	assert.Equal(t, []uint32{2, 3, 4, 10}, g.Neurons())
}

func TestFeatureGroup_Contains(t *testing.T) {
	g := FeatureGroup{NeuronSynapses: []NeuronSynapse{{Start: 5, Size: 2}}}
	assert.True(t, g.Contains(5))
	assert.True(t, g.Contains(6))
	assert.False(t, g.Contains(7))
	assert.False(t, g.Contains(4))
}

func TestFeatureGroupKind_Relevance(t *testing.T) {
	assert.True(t, FeatureSoftmax.IsSolutionRelevant())
	assert.True(t, FeatureBoltzmannRecurrence.IsSolutionRelevant())
	assert.False(t, FeatureL1Regularization.IsSolutionRelevant())

	assert.True(t, FeatureL1Regularization.IsPerformanceRelevant())
	assert.True(t, FeatureL2Regularization.IsPerformanceRelevant())
	assert.False(t, FeatureDropout.IsPerformanceRelevant())
}
