package ml

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

const (
	// MinLabeledToTrain is the minimum labeled-lead count before a
	// classifier can be fitted or a threshold calibrated.
	MinLabeledToTrain = 4

	maxIterations  = 200
	convergenceTol = 1e-8

	// L2 penalty on the non-intercept weights. Keeps the IRLS solve
	// non-singular and bounded even on perfectly separable sets.
	l2Penalty = 1.0
)

// ErrNotConverged is returned when the solver fails within the
// iteration budget. Callers treat it as ineligible-to-train, not as a
// system fault.
var ErrNotConverged = errors.New("logistic solver did not converge")

// Example is a single labeled training row.
type Example struct {
	Features  Features
	Converted bool
}

// Eligibility is the result of the training gate. When CanTrain is
// false, Reason is a human-readable explanation and Classes lists the
// distinct outcome classes observed, for UI messaging.
type Eligibility struct {
	CanTrain bool
	Reason   string
	Classes  []int
}

// CheckEligibility re-evaluates the training gate against the current
// labeled set. It must be called on every invocation, never cached.
func CheckEligibility(examples []Example) Eligibility {
	seen := map[int]bool{}
	for _, ex := range examples {
		if ex.Converted {
			seen[1] = true
		} else {
			seen[0] = true
		}
	}
	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	if len(examples) < MinLabeledToTrain {
		return Eligibility{
			Reason:  fmt.Sprintf("need at least %d labeled leads with both outcomes present before training", MinLabeledToTrain),
			Classes: classes,
		}
	}
	if len(classes) < 2 {
		return Eligibility{
			Reason:  "need labeled examples of both outcomes (converted and denied) to train",
			Classes: classes,
		}
	}
	return Eligibility{CanTrain: true, Classes: classes}
}

// Model is a standardized logistic-regression classifier fitted from a
// single labeled set. Both the scaler statistics and the weights come
// from that fit alone; the model is used for one request and discarded.
type Model struct {
	mean  [FeatureCount]float64
	scale [FeatureCount]float64

	weights [FeatureCount]float64
	bias    float64
}

// Train fits the scaler and classifier from scratch on the given
// labeled set using iteratively reweighted least squares. Training is
// deterministic: the same examples always produce the same model.
func Train(examples []Example) (*Model, error) {
	n := len(examples)
	if n == 0 {
		return nil, errors.New("no training examples")
	}

	m := &Model{}
	for j := 0; j < FeatureCount; j++ {
		var sum float64
		for _, ex := range examples {
			sum += ex.Features[j]
		}
		m.mean[j] = sum / float64(n)

		var sq float64
		for _, ex := range examples {
			d := ex.Features[j] - m.mean[j]
			sq += d * d
		}
		m.scale[j] = math.Sqrt(sq / float64(n))
		if m.scale[j] == 0 {
			// Constant column: standardizes to zero either way.
			m.scale[j] = 1
		}
	}

	// Design matrix with a trailing intercept column.
	const dim = FeatureCount + 1
	x := mat.NewDense(n, dim, nil)
	y := make([]float64, n)
	for i, ex := range examples {
		for j := 0; j < FeatureCount; j++ {
			x.Set(i, j, (ex.Features[j]-m.mean[j])/m.scale[j])
		}
		x.Set(i, FeatureCount, 1)
		if ex.Converted {
			y[i] = 1
		}
	}

	beta := make([]float64, dim)
	converged := false
	for iter := 0; iter < maxIterations; iter++ {
		// Newton step: solve (X'WX + λI) δ = X'(y - p) - λβ,
		// leaving the intercept unpenalized.
		grad := make([]float64, dim)
		hess := mat.NewDense(dim, dim, nil)
		for i := 0; i < n; i++ {
			var z float64
			for j := 0; j < dim; j++ {
				z += x.At(i, j) * beta[j]
			}
			p := sigmoid(z)
			w := p * (1 - p)
			if w < 1e-10 {
				w = 1e-10
			}
			r := y[i] - p
			for j := 0; j < dim; j++ {
				grad[j] += x.At(i, j) * r
				for k := 0; k < dim; k++ {
					hess.Set(j, k, hess.At(j, k)+w*x.At(i, j)*x.At(i, k))
				}
			}
		}
		for j := 0; j < FeatureCount; j++ {
			grad[j] -= l2Penalty * beta[j]
			hess.Set(j, j, hess.At(j, j)+l2Penalty)
		}

		delta := mat.NewVecDense(dim, nil)
		if err := delta.SolveVec(hess, mat.NewVecDense(dim, grad)); err != nil {
			return nil, ErrNotConverged
		}

		var maxStep float64
		for j := 0; j < dim; j++ {
			beta[j] += delta.AtVec(j)
			maxStep = math.Max(maxStep, math.Abs(delta.AtVec(j)))
		}
		if maxStep < convergenceTol {
			converged = true
			break
		}
	}
	if !converged {
		return nil, ErrNotConverged
	}

	copy(m.weights[:], beta[:FeatureCount])
	m.bias = beta[FeatureCount]
	return m, nil
}

// Predict transforms a feature vector through the fitted scaler and
// returns the probability of conversion. The output lies in [0, 1] by
// construction.
func (m *Model) Predict(f Features) float64 {
	z := m.bias
	for j := 0; j < FeatureCount; j++ {
		z += m.weights[j] * (f[j] - m.mean[j]) / m.scale[j]
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
