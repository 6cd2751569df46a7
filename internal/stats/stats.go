// Package stats holds the descriptive statistics the cleaning stages share.
// Quantiles interpolate linearly between ranks.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Quantile returns the q-quantile (0..1) of vals using linear interpolation
// between the two closest ranks. vals need not be sorted and is not modified.
func Quantile(vals []float64, q float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return quantileSorted(cp, q)
}

// Quartiles returns Q1 and Q3 in a single sort.
func Quartiles(vals []float64) (q1, q3 float64) {
	if len(vals) == 0 {
		return math.NaN(), math.NaN()
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return quantileSorted(cp, 0.25), quantileSorted(cp, 0.75)
}

func quantileSorted(sorted []float64, q float64) float64 {
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Median is Quantile(vals, 0.5).
func Median(vals []float64) float64 { return Quantile(vals, 0.5) }

// MeanStd returns the mean and the sample (n-1) standard deviation.
// Fewer than two values yield a zero deviation.
func MeanStd(vals []float64) (mean, std float64) {
	switch len(vals) {
	case 0:
		return math.NaN(), 0
	case 1:
		return vals[0], 0
	}
	return stat.MeanStdDev(vals, nil)
}

// MinMax returns the extremes of vals. Empty input yields NaNs.
func MinMax(vals []float64) (lo, hi float64) {
	if len(vals) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(vals), floats.Max(vals)
}

// Distance is the Euclidean distance between equal-length vectors.
func Distance(a, b []float64) float64 { return floats.Distance(a, b, 2) }

// Correlation is the Pearson coefficient of x and y. Degenerate inputs yield 0.
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}

// Mode returns the most frequent key and how often it occurs. Ties go to
// the key seen first. ok is false when keys is empty.
func Mode(keys []string) (mode string, count int, ok bool) {
	counts := make(map[string]int, len(keys))
	for _, k := range keys {
		counts[k]++
	}
	for _, k := range keys {
		if c := counts[k]; c > count {
			mode, count = k, c
		}
	}
	return mode, count, len(keys) > 0
}
