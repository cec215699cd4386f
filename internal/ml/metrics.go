package ml

// Metrics holds classification quality at a given threshold.
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// LabeledPrediction pairs a stored probability with its true outcome.
type LabeledPrediction struct {
	Probability float64
	Converted   bool
}

// EvaluateThreshold computes precision, recall and F1 of the rule
// "predict converted when probability >= threshold". Zero denominators
// yield 0, not NaN, so grid searches over thresholds stay well-formed.
func EvaluateThreshold(rows []LabeledPrediction, threshold float64) Metrics {
	var tp, fp, fn int
	for _, row := range rows {
		predicted := row.Probability >= threshold
		switch {
		case predicted && row.Converted:
			tp++
		case predicted && !row.Converted:
			fp++
		case !predicted && row.Converted:
			fn++
		}
	}

	var m Metrics
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}
