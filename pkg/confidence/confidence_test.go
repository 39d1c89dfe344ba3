package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageScoreIsMin(t *testing.T) {
	assert.Equal(t, 72, ImageScore(72, 91))
	assert.Equal(t, 72, ImageScore(91, 72))
	assert.Equal(t, 80, ImageScore(80, 80))
}

func TestAccumulateEdgeIsRunningMax(t *testing.T) {
	c := 0
	c = AccumulateEdge(c, 60)
	assert.Equal(t, 60, c)
	c = AccumulateEdge(c, 45)
	assert.Equal(t, 60, c, "lower observation must not decrease confidence")
	c = AccumulateEdge(c, 92)
	assert.Equal(t, 92, c)
}

func TestReplacesBestEvidenceStrictlyGreater(t *testing.T) {
	assert.True(t, ReplacesBestEvidence(80, 81))
	assert.False(t, ReplacesBestEvidence(80, 80), "equal confidence must not replace evidence")
	assert.False(t, ReplacesBestEvidence(80, 79))
}

func TestBottleneck(t *testing.T) {
	assert.Equal(t, 60, Bottleneck([]int{95, 60, 88}))
	assert.Equal(t, 100, Bottleneck([]int{100}))
}

func TestCumulative(t *testing.T) {
	assert.InDelta(t, 0.72, Cumulative([]int{90, 80}), 1e-9)
}

func TestConfidenceBoundary(t *testing.T) {
	const threshold = 80
	accept := func(conf int) bool { return conf >= threshold }
	assert.True(t, accept(80))
	assert.False(t, accept(79))
}
