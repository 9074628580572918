package diagnosis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoftmaxSumsToOne(t *testing.T) {
	for _, logits := range [][]float32{
		{2, 0},
		{-3, 0.5, 7, 7, 1},
		{1000, 999, -1000},
		{0},
	} {
		probs := Softmax(logits)
		require.Len(t, probs, len(logits))

		var sum float64
		for _, p := range probs {
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
			assert.False(t, math.IsNaN(p))
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestSoftmaxEmpty(t *testing.T) {
	assert.Nil(t, Softmax(nil))
}

func TestTopKTwoClasses(t *testing.T) {
	confidences, ids := TopK([]float32{2, 0}, 3)

	require.Len(t, ids, 2)
	assert.Equal(t, []int{0, 1}, ids)
	assert.InDelta(t, 0.8808, confidences[0], 1e-4)
	assert.InDelta(t, 0.1192, confidences[1], 1e-4)
}

func TestTopKClampsToK(t *testing.T) {
	confidences, ids := TopK([]float32{0.1, 3, -1, 2, 0.5}, 3)

	assert.Equal(t, []int{1, 3, 4}, ids)
	require.Len(t, confidences, 3)
	assert.Greater(t, confidences[0], confidences[1])
	assert.Greater(t, confidences[1], confidences[2])
}

func TestTopKTiesKeepAscendingClassID(t *testing.T) {
	_, ids := TopK([]float32{1, 5, 1, 5, 1}, 4)
	assert.Equal(t, []int{1, 3, 0, 2}, ids)
}

func TestTopKNonPositiveK(t *testing.T) {
	confidences, ids := TopK([]float32{1, 2}, 0)
	assert.Empty(t, confidences)
	assert.Empty(t, ids)

	confidences, ids = TopK(nil, 3)
	assert.Empty(t, confidences)
	assert.Empty(t, ids)
}
