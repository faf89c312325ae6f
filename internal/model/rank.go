package model

import (
	"math"
	"sort"
)

// Softmax turns raw logits into probabilities that sum to one.
func Softmax(logits []float32) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	maxVal := float64(logits[0])
	for _, v := range logits[1:] {
		maxVal = math.Max(maxVal, float64(v))
	}
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(float64(v) - maxVal)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Rank pairs scores with their class labels, sorts them best first and keeps
// the top k. Ties keep class order. Scores beyond the class list are ignored.
func Rank(scores []float64, classes []string, k int) []Prediction {
	n := min(len(scores), len(classes))
	preds := make([]Prediction, 0, n)
	for i := 0; i < n; i++ {
		preds = append(preds, Prediction{Label: classes[i], Score: scores[i]})
	}

	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].Score > preds[j].Score
	})

	if k > 0 && len(preds) > k {
		preds = preds[:k]
	}
	return preds
}
