package diagnosis

import (
	"fmt"
	"strings"

	"github.com/Brownie44l1/plantdoc/internal/model"
)

// Percent renders a probability as a percentage with two decimals, e.g. 0.87 -> "87.00%".
func Percent(score float64) string {
	return fmt.Sprintf("%.2f%%", score*100)
}

// RankedList renders predictions as a numbered Markdown list.
func RankedList(preds []model.Prediction) string {
	lines := make([]string, len(preds))
	for i, p := range preds {
		lines[i] = fmt.Sprintf("%d. %s: %s", i+1, p.Label, Percent(p.Score))
	}
	return strings.Join(lines, "\n")
}

// PredictionSummary is the left-hand results pane: the ranked list followed by the primary diagnosis.
func PredictionSummary(preds []model.Prediction) string {
	top := preds[0]

	var b strings.Builder
	b.WriteString("\n# 🔍 Disease Detection Results\n\n---\n\n")
	b.WriteString("### 📊 Top Predictions:\n\n")
	b.WriteString(RankedList(preds))
	b.WriteString("\n\n---\n\n")
	b.WriteString("### 🎯 Primary Diagnosis\n\n")
	fmt.Fprintf(&b, "**Disease:** %s  \n", top.Label)
	fmt.Fprintf(&b, "**Confidence Level:** %s\n\n---\n", Percent(top.Score))
	return b.String()
}

// RemedyHeader precedes whatever the advice generator returned.
func RemedyHeader(label string) string {
	return fmt.Sprintf("\n# 🌿 Treatment & Remedies\n\n## 📋 Detected Disease: **%s**\n\n---\n\n", label)
}
