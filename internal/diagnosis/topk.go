package diagnosis

import (
	"math"
	"sort"
)

// Softmax converts logits into probabilities. It subtracts the maximum logit
// first, so large inputs do not overflow.
func Softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}

	maxLogit := math.Inf(-1)
	for _, v := range logits {
		maxLogit = math.Max(maxLogit, float64(v))
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(float64(v) - maxLogit)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// TopK returns the k most probable classes, highest first, as parallel
// slices of confidences and class ids. k is clamped to len(logits). Equal
// probabilities keep ascending class id order.
func TopK(logits []float32, k int) ([]float64, []int) {
	probs := Softmax(logits)
	if k > len(probs) {
		k = len(probs)
	}
	if k <= 0 {
		return nil, nil
	}

	ids := make([]int, len(probs))
	for i := range ids {
		ids[i] = i
	}
	sort.SliceStable(ids, func(a, b int) bool {
		return probs[ids[a]] > probs[ids[b]]
	})

	ids = ids[:k]
	confidences := make([]float64, k)
	for i, id := range ids {
		confidences[i] = probs[id]
	}
	return confidences, ids
}
