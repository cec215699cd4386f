package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labeledExamples() []Example {
	return []Example{
		{Features: Features{300, 8, 1}, Converted: true},
		{Features: Features{250, 6, 1}, Converted: true},
		{Features: Features{20, 1, 0}, Converted: false},
		{Features: Features{35, 2, 0}, Converted: false},
	}
}

func TestCheckEligibilityTooFew(t *testing.T) {
	elig := CheckEligibility([]Example{
		{Features: Features{10, 1, 0}, Converted: false},
		{Features: Features{200, 5, 1}, Converted: true},
	})
	assert.False(t, elig.CanTrain)
	assert.Contains(t, elig.Reason, "both outcomes present")
	assert.Equal(t, []int{0, 1}, elig.Classes)
}

func TestCheckEligibilityLopsidedSplit(t *testing.T) {
	// 3-1 is enough: the gate requires 4 labeled rows and both classes,
	// not a per-class minimum.
	elig := CheckEligibility([]Example{
		{Features: Features{300, 8, 1}, Converted: true},
		{Features: Features{250, 6, 1}, Converted: true},
		{Features: Features{180, 5, 1}, Converted: true},
		{Features: Features{20, 1, 0}, Converted: false},
	})
	assert.True(t, elig.CanTrain)
	assert.Empty(t, elig.Reason)
}

func TestCheckEligibilitySingleClass(t *testing.T) {
	examples := []Example{
		{Features: Features{10, 1, 0}, Converted: false},
		{Features: Features{20, 2, 0}, Converted: false},
		{Features: Features{30, 3, 0}, Converted: false},
		{Features: Features{40, 4, 0}, Converted: false},
		{Features: Features{50, 5, 0}, Converted: false},
	}
	elig := CheckEligibility(examples)
	assert.False(t, elig.CanTrain)
	assert.Equal(t, []int{0}, elig.Classes)
}

func TestCheckEligibilityOK(t *testing.T) {
	elig := CheckEligibility(labeledExamples())
	assert.True(t, elig.CanTrain)
	assert.Empty(t, elig.Reason)
	assert.Equal(t, []int{0, 1}, elig.Classes)
}

func TestCheckEligibilityEmpty(t *testing.T) {
	elig := CheckEligibility(nil)
	assert.False(t, elig.CanTrain)
	assert.Empty(t, elig.Classes)
}

func TestTrainSeparatesClasses(t *testing.T) {
	model, err := Train(labeledExamples())
	require.NoError(t, err)

	pConverted := model.Predict(Features{280, 7, 1})
	pDenied := model.Predict(Features{25, 1, 0})
	assert.Greater(t, pConverted, 0.5)
	assert.Less(t, pDenied, 0.5)
}

func TestTrainDeterministic(t *testing.T) {
	m1, err := Train(labeledExamples())
	require.NoError(t, err)
	m2, err := Train(labeledExamples())
	require.NoError(t, err)

	sample := Features{150, 4, 1}
	assert.Equal(t, m1.Predict(sample), m2.Predict(sample))
}

func TestTrainHandlesConstantFeature(t *testing.T) {
	// clicked_price identical on every row: zero variance must not
	// divide by zero.
	examples := []Example{
		{Features: Features{300, 8, 0}, Converted: true},
		{Features: Features{250, 6, 0}, Converted: true},
		{Features: Features{20, 1, 0}, Converted: false},
		{Features: Features{35, 2, 0}, Converted: false},
	}
	model, err := Train(examples)
	require.NoError(t, err)

	p := model.Predict(Features{280, 7, 0})
	assert.Greater(t, p, 0.5)
}

func TestPredictBounded(t *testing.T) {
	model, err := Train(labeledExamples())
	require.NoError(t, err)

	for _, f := range []Features{
		{0, 0, 0},
		{1e6, 1e4, 1},
		{300, 8, 1},
	} {
		p := model.Predict(f)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}
