package analytics

import (
	"math"

	"liftbot/domain/abtest"
	"liftbot/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// SignificanceLevel is the fixed confidence threshold for both tests.
const SignificanceLevel = 0.05

// StudentTTest runs a two-sample pooled-variance t-test on per-record
// conversion rates and computes the exact two-sided p-value against the
// Student's t-distribution. The statistic uses control minus experiment, so
// swapping the samples flips its sign but leaves the p-value unchanged.
func StudentTTest(control, experiment []float64) (abtest.TTestResult, error) {
	n1, n2 := len(control), len(experiment)
	if n1 < 2 {
		return abtest.TTestResult{}, core.NewInsufficientDataError("control", n1)
	}
	if n2 < 2 {
		return abtest.TTestResult{}, core.NewInsufficientDataError("experiment", n2)
	}

	mean1, var1 := meanVariance(control)
	mean2, var2 := meanVariance(experiment)

	fn1, fn2 := float64(n1), float64(n2)
	df := fn1 + fn2 - 2
	pooled := ((fn1-1)*var1 + (fn2-1)*var2) / df
	se := math.Sqrt(pooled * (1/fn1 + 1/fn2))

	// Identical constant samples: no evidence either way.
	if se == 0 {
		return abtest.TTestResult{Statistic: 0, PValue: 1}, nil
	}

	t := (mean1 - mean2) / se
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - dist.CDF(math.Abs(t)))

	return abtest.TTestResult{
		Statistic:   t,
		PValue:      p,
		Significant: p < SignificanceLevel,
	}, nil
}

// ChiSquare2x2 runs a contingency test on {conversions, non-conversions} x
// {control, experiment}. Yates' continuity correction is applied, matching
// the usual convention for 2x2 tables; the p-value comes from the exact
// chi-squared distribution with one degree of freedom.
func ChiSquare2x2(controlConversions, controlUsers, expConversions, expUsers int) (abtest.ChiSquareResult, error) {
	if controlUsers <= 0 || expUsers <= 0 {
		return abtest.ChiSquareResult{}, core.NewInsufficientDataError("contingency", 0)
	}

	observed := [2][2]float64{
		{float64(controlConversions), float64(controlUsers - controlConversions)},
		{float64(expConversions), float64(expUsers - expConversions)},
	}

	var rowTotals, colTotals [2]float64
	total := 0.0
	for i := range 2 {
		for j := range 2 {
			rowTotals[i] += observed[i][j]
			colTotals[j] += observed[i][j]
			total += observed[i][j]
		}
	}

	chi := 0.0
	for i := range 2 {
		for j := range 2 {
			expected := rowTotals[i] * colTotals[j] / total
			if expected == 0 {
				return abtest.ChiSquareResult{}, core.NewInsufficientDataError("contingency", int(total))
			}
			diff := math.Max(0, math.Abs(observed[i][j]-expected)-0.5)
			chi += diff * diff / expected
		}
	}

	dist := distuv.ChiSquared{K: 1}
	p := 1 - dist.CDF(chi)

	return abtest.ChiSquareResult{
		Statistic:        chi,
		PValue:           p,
		DegreesOfFreedom: 1,
		Significant:      p < SignificanceLevel,
	}, nil
}

// meanVariance returns the mean and sample variance.
func meanVariance(data []float64) (float64, float64) {
	n := float64(len(data))
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / n

	if len(data) < 2 {
		return mean, 0
	}
	sumSq := 0.0
	for _, v := range data {
		diff := v - mean
		sumSq += diff * diff
	}
	return mean, sumSq / (n - 1)
}
