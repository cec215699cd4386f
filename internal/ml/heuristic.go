package ml

import "math"

// Heuristic scorer used while a workspace has no eligible training set.
// Deterministic affine combination with each term capped so the total
// stays bounded; output is always strictly inside (0, 1).
const (
	heuristicBase   = 0.10
	timeOnSiteScale = 400.0
	timeOnSiteCap   = 0.25
	pagesScale      = 10.0
	pagesCap        = 0.25
	clickedBonus    = 0.20

	minProbability = 0.02
	maxProbability = 0.98
)

// HeuristicScore computes the cold-start probability for a lead. It is
// stateless and monotonic non-decreasing in each signal.
func HeuristicScore(f Features) float64 {
	p := heuristicBase
	p += math.Min(f[0]/timeOnSiteScale, timeOnSiteCap)
	p += math.Min(f[1]/pagesScale, pagesCap)
	if f[2] != 0 {
		p += clickedBonus
	}
	return ClampProbability(p)
}

// ClampProbability bounds a probability to [0.02, 0.98] so downstream
// log-loss-style consumers never see exactly 0 or 1.
func ClampProbability(p float64) float64 {
	return math.Max(minProbability, math.Min(maxProbability, p))
}

// ScoreFromProbability converts a probability to the 0-100 integer
// score stored alongside it.
func ScoreFromProbability(p float64) int {
	return int(math.Round(p * 100))
}
