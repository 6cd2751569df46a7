// Package profile computes descriptive statistics and correlations for a
// dataset and renders them as a compact markdown summary.
package profile

import (
	"math"
	"sort"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/stats"
)

// Options tunes what Describe computes.
type Options struct {
	// TopValues caps the categorical value counts kept per column.
	TopValues int
	// RobustThreshold is the |z| cut-off for the MAD-based outlier count.
	// Zero disables it.
	RobustThreshold float64
	// Correlations enables the Pearson matrix across numeric columns.
	Correlations bool
}

// DefaultOptions returns the stock profile settings.
func DefaultOptions() Options {
	return Options{TopValues: 8, RobustThreshold: 3.5, Correlations: true}
}

// Profile is a markdown-friendly description of a dataset.
type Profile struct {
	Name    string          `json:"name,omitempty"`
	Rows    int             `json:"rows"`
	Cols    []ColumnSummary `json:"columns"`
	Corr    *CorrMatrix     `json:"correlations,omitempty"`
	Missing int             `json:"missing"`
}

// ColumnSummary captures the type and statistics of one column.
type ColumnSummary struct {
	Name    string               `json:"name"`
	Type    dataset.SemanticType `json:"type"`
	NonNull int                  `json:"non_null"`
	Missing int                  `json:"missing"`
	Unique  int                  `json:"unique"`
	// Numeric stats
	Mean   float64 `json:"mean,omitempty"`
	Std    float64 `json:"std,omitempty"`
	Min    float64 `json:"min,omitempty"`
	Q1     float64 `json:"q1,omitempty"`
	Median float64 `json:"median,omitempty"`
	Q3     float64 `json:"q3,omitempty"`
	Max    float64 `json:"max,omitempty"`
	// Robust outliers (MAD)
	RobustOutliers  int     `json:"robust_outliers,omitempty"`
	RobustMaxAbsZ   float64 `json:"robust_max_abs_z,omitempty"`
	RobustThreshold float64 `json:"robust_threshold,omitempty"`
	// Categorical top values
	TopValues []CategoryCount `json:"top_values,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"` // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// Describe profiles ds. Unclassified columns are classified first.
func Describe(ds *dataset.Dataset, opt Options) *Profile {
	ds = dataset.Classify(ds)
	p := &Profile{Rows: ds.Len(), Missing: ds.MissingCount()}
	var numeric []*dataset.Column
	for _, c := range ds.Columns() {
		s := ColumnSummary{Name: c.Name, Type: c.Type, Missing: c.MissingCount()}
		s.NonNull = c.Len() - s.Missing
		counts, order := valueCounts(c)
		s.Unique = len(order)

		switch c.Type {
		case dataset.Numeric:
			vals, _ := c.Floats()
			if len(vals) > 0 {
				s.Mean, s.Std = stats.MeanStd(vals)
				s.Min, s.Max = stats.MinMax(vals)
				s.Q1, s.Q3 = stats.Quartiles(vals)
				s.Median = stats.Median(vals)
				numeric = append(numeric, c)
			}
			if opt.RobustThreshold > 0 && len(vals) >= 8 {
				s.RobustOutliers, s.RobustMaxAbsZ = robustOutliers(vals, opt.RobustThreshold)
				s.RobustThreshold = opt.RobustThreshold
			}
		case dataset.Categorical:
			s.TopValues = topValues(counts, order, opt.TopValues)
		}
		p.Cols = append(p.Cols, s)
	}
	if opt.Correlations && len(numeric) >= 2 {
		p.Corr = correlations(numeric)
	}
	return p
}

func valueCounts(c *dataset.Column) (map[string]int, []dataset.Value) {
	counts := map[string]int{}
	var order []dataset.Value
	for _, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		k := v.Key()
		if counts[k] == 0 {
			order = append(order, v)
		}
		counts[k]++
	}
	return counts, order
}

func topValues(counts map[string]int, order []dataset.Value, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(order))
	for _, v := range order {
		tops = append(tops, CategoryCount{Value: v.String(), Count: counts[v.Key()]})
	}
	sort.SliceStable(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if limit > 0 && len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// robustOutliers counts values whose modified z-score 0.6745*(x-median)/MAD
// exceeds thr.
func robustOutliers(vals []float64, thr float64) (int, float64) {
	median := stats.Median(vals)
	dev := make([]float64, len(vals))
	for i, v := range vals {
		dev[i] = math.Abs(v - median)
	}
	mad := stats.Median(dev)
	if mad == 0 {
		return 0, 0
	}
	var cnt int
	maxAbsZ := 0.0
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			cnt++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return cnt, maxAbsZ
}

// correlations uses rows where both columns are observed.
func correlations(cols []*dataset.Column) *CorrMatrix {
	n := len(cols)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.Values[i] = make([]float64, n)
		m.Values[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			var x, y []float64
			for r := range cols[a].Values {
				fa, okA := cols[a].Values[r].Float()
				fb, okB := cols[b].Values[r].Float()
				if okA && okB {
					x = append(x, fa)
					y = append(y, fb)
				}
			}
			r := stats.Correlation(x, y)
			m.Values[a][b] = r
			m.Values[b][a] = r
		}
	}
	return m
}

// Pairs lists the off-diagonal pairs sorted by |r|, strongest first.
func (m *CorrMatrix) Pairs() []PairCorr {
	if m == nil {
		return nil
	}
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai := math.Abs(pairs[i].R)
		aj := math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	return pairs
}
