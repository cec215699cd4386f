package ml

// DefaultThreshold is the decision cutoff used before a workspace has
// ever been calibrated.
const DefaultThreshold = 0.35

// BestThreshold grid-searches candidate thresholds 0.05, 0.10, ... 0.95
// and returns the one with the strictly greatest F1 together with its
// metrics. Ties go to the lowest candidate, keeping the search
// deterministic.
func BestThreshold(rows []LabeledPrediction) (float64, Metrics) {
	bestT := DefaultThreshold
	bestF1 := -1.0
	var bestM Metrics
	for i := 5; i <= 95; i += 5 {
		t := float64(i) / 100
		m := EvaluateThreshold(rows, t)
		if m.F1 > bestF1 {
			bestF1 = m.F1
			bestT = t
			bestM = m
		}
	}
	return bestT, bestM
}
