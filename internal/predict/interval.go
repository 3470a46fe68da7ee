package predict

import (
	"math"
	"sort"
)

// Interval bounds for the ensemble path, in percent.
const (
	LowerPercentile = 2.5
	UpperPercentile = 97.5
)

// Mean returns the arithmetic mean of vals. It returns NaN for no values.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// Percentile returns the p-th percentile of vals (0 <= p <= 100), linearly
// interpolating between the closest order statistics. vals is not modified.
func Percentile(vals []float64, p float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		return sorted[0]
	}
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Summarize reduces per-member predictions to an estimate and interval.
func Summarize(members []float64) (estimate, lower, upper float64) {
	return Mean(members), Percentile(members, LowerPercentile), Percentile(members, UpperPercentile)
}
