package task

import (
	"strings"

	"github.com/tirkarthi/mmf/pkg/core"
)

// scorePredictions computes normalized exact-match accuracy and fills in each
// prediction's score.
func scorePredictions(preds []core.Prediction) float64 {
	if len(preds) == 0 {
		return 0
	}
	var matched int
	for i := range preds {
		if normalizeText(preds[i].Answer) == normalizeText(preds[i].Expected) {
			preds[i].Score = 1
			matched++
		} else {
			preds[i].Score = 0
		}
	}
	return float64(matched) / float64(len(preds))
}

func normalizeText(input string) string {
	return strings.ToLower(strings.Join(strings.Fields(input), " "))
}
