package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFeatures(t *testing.T) {
	f := ExtractFeatures(120, 5, true)
	assert.Equal(t, Features{120, 5, 1}, f)

	f = ExtractFeatures(0, 0, false)
	assert.Equal(t, Features{0, 0, 0}, f)

	// Negative signals degrade to zero instead of failing.
	f = ExtractFeatures(-30, -2, false)
	assert.Equal(t, Features{0, 0, 0}, f)
}

func TestHeuristicScoreBaseline(t *testing.T) {
	p := HeuristicScore(ExtractFeatures(0, 0, false))
	assert.InDelta(t, 0.10, p, 1e-9)
}

func TestHeuristicScoreComponents(t *testing.T) {
	// 50s on site: 50/400 = 0.125, below the 0.25 time cap.
	p := HeuristicScore(ExtractFeatures(50, 0, false))
	assert.InDelta(t, 0.10+0.125, p, 1e-9)

	// The time term caps at 0.25 from 100s onward.
	p = HeuristicScore(ExtractFeatures(200, 0, false))
	assert.InDelta(t, 0.10+0.25, p, 1e-9)

	// 2 pages: 2/10 = 0.20, below the 0.25 pages cap.
	p = HeuristicScore(ExtractFeatures(0, 2, false))
	assert.InDelta(t, 0.10+0.20, p, 1e-9)

	// The pages term caps at 0.25 from 3 pages onward.
	p = HeuristicScore(ExtractFeatures(0, 5, false))
	assert.InDelta(t, 0.10+0.25, p, 1e-9)

	p = HeuristicScore(ExtractFeatures(0, 0, true))
	assert.InDelta(t, 0.30, p, 1e-9)
}

func TestHeuristicScoreCapsSaturate(t *testing.T) {
	// Far past both caps: 0.10 + 0.25 + 0.25 + 0.20.
	p := HeuristicScore(ExtractFeatures(100000, 1000, true))
	assert.InDelta(t, 0.80, p, 1e-9)

	// More input beyond saturation changes nothing.
	assert.Equal(t, p, HeuristicScore(ExtractFeatures(999999, 9999, true)))
}

func TestHeuristicScoreMonotonic(t *testing.T) {
	low := HeuristicScore(ExtractFeatures(10, 1, false))
	high := HeuristicScore(ExtractFeatures(100, 4, false))
	assert.Greater(t, high, low)
}

func TestClampProbability(t *testing.T) {
	assert.Equal(t, 0.02, ClampProbability(-3.0))
	assert.Equal(t, 0.02, ClampProbability(0.0))
	assert.Equal(t, 0.5, ClampProbability(0.5))
	assert.Equal(t, 0.98, ClampProbability(1.0))
	assert.Equal(t, 0.98, ClampProbability(42.0))
}

func TestScoreFromProbability(t *testing.T) {
	assert.Equal(t, 10, ScoreFromProbability(0.10))
	assert.Equal(t, 35, ScoreFromProbability(0.345))
	assert.Equal(t, 98, ScoreFromProbability(0.98))
	assert.Equal(t, 0, ScoreFromProbability(0.004))
}
