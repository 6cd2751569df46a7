package clean

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/logging"
	"github.com/KaramelBytes/dataloom-cli/internal/stats"
	"github.com/sirupsen/logrus"
)

const stageImpute = "impute"

// Imputer fills missing cells: numeric columns with the median, categorical
// columns with the mode, then refines numeric fills from the nearest rows.
type Imputer struct {
	Config Config
	Logger logrus.FieldLogger
}

// NewImputer returns an imputer with cfg.
func NewImputer(cfg Config, log logrus.FieldLogger) *Imputer {
	return &Imputer{Config: cfg, Logger: log}
}

func (m *Imputer) Name() string { return stageImpute }

// Apply returns a dataset with no missing cells in numeric or categorical
// columns, except columns whose fill could not be computed; those keep their
// values and produce a warning.
func (m *Imputer) Apply(ds *dataset.Dataset) Result {
	log := logging.OrDiscard(m.Logger).WithField("stage", stageImpute)
	ds = dataset.Classify(ds)
	res := Result{Dataset: ds}

	out := ds
	// filled numeric columns and which rows were missing before the fill
	var refined []refineTarget
	for i, c := range ds.Columns() {
		miss := c.MissingCount()
		switch c.Type {
		case dataset.Numeric:
			vals, err := numericValues(c)
			if err != nil {
				res.Warnings = append(res.Warnings, warn(stageImpute, c.Name, err))
				log.WithField("column", c.Name).WithError(err).Warn("column left unimputed")
				continue
			}
			if miss == 0 {
				refined = append(refined, refineTarget{pos: i, vals: vals})
				continue
			}
			obs, _ := c.Floats()
			if len(obs) == 0 {
				res.Warnings = append(res.Warnings, warn(stageImpute, c.Name, ErrNoObserved))
				log.WithField("column", c.Name).Warn("column has no observed values")
				continue
			}
			med := stats.Median(obs)
			t := refineTarget{pos: i, vals: vals, missing: make([]bool, len(vals))}
			filled := make([]dataset.Value, len(c.Values))
			for r, v := range c.Values {
				if v.IsMissing() {
					t.vals[r] = med
					t.missing[r] = true
					filled[r] = dataset.Number(med)
				} else {
					filled[r] = v
				}
			}
			t.hasMissing = true
			refined = append(refined, t)
			out = out.WithColumn(i, &dataset.Column{Name: c.Name, Type: c.Type, Values: filled})
			log.WithFields(logrus.Fields{"column": c.Name, "filled": miss, "median": med}).Debug("median fill")

		case dataset.Categorical:
			if miss == 0 {
				continue
			}
			fill, ok := modeValue(c)
			if !ok {
				res.Warnings = append(res.Warnings, warn(stageImpute, c.Name, ErrNoObserved))
				log.WithField("column", c.Name).Warn("column has no observed values")
				continue
			}
			filled := make([]dataset.Value, len(c.Values))
			for r, v := range c.Values {
				if v.IsMissing() {
					filled[r] = fill
				} else {
					filled[r] = v
				}
			}
			out = out.WithColumn(i, &dataset.Column{Name: c.Name, Type: c.Type, Values: filled})
			log.WithFields(logrus.Fields{"column": c.Name, "filled": miss, "mode": fill.String()}).Debug("mode fill")
		}
	}

	pending := false
	for _, t := range refined {
		if t.hasMissing {
			pending = true
			break
		}
	}
	switch {
	case !pending:
	case m.Config.MaxRows > 0 && ds.Len() > m.Config.MaxRows:
		err := fmt.Errorf("%w: %d rows exceeds limit %d", ErrRefinementSkipped, ds.Len(), m.Config.MaxRows)
		res.Warnings = append(res.Warnings, warn(stageImpute, "", err))
		log.WithError(err).Warn("keeping median fills")
	default:
		out = m.refine(out, refined, log)
	}

	res.Dataset = out
	return res
}

type refineTarget struct {
	pos        int
	vals       []float64 // median-filled
	missing    []bool    // rows filled by the median; nil when none
	hasMissing bool
}

// refine replaces each median fill with the mean of the k nearest rows that
// observed the column. Distances span every numeric column of the
// median-filled matrix, the target included. All estimates are computed
// before any is applied.
func (m *Imputer) refine(ds *dataset.Dataset, targets []refineTarget, log logrus.FieldLogger) *dataset.Dataset {
	k := m.Config.neighbors()
	n := ds.Len()
	type estimate struct {
		pos, row int
		val      float64
	}
	var est []estimate

	for _, t := range targets {
		if !t.hasMissing {
			continue
		}
		var donors []int
		for r := 0; r < n; r++ {
			if !t.missing[r] {
				donors = append(donors, r)
			}
		}
		if len(donors) == 0 {
			continue
		}
		for r := 0; r < n; r++ {
			if !t.missing[r] {
				continue
			}
			self := point(targets, r)
			cands := make([]neighbor, len(donors))
			for i, d := range donors {
				cands[i] = neighbor{row: d, dist: stats.Distance(self, point(targets, d))}
			}
			sort.SliceStable(cands, func(a, b int) bool { return cands[a].dist < cands[b].dist })
			if len(cands) > k {
				cands = cands[:k]
			}
			est = append(est, estimate{pos: t.pos, row: r, val: weighted(cands, t.vals, m.Config.Weighting)})
		}
	}
	if len(est) == 0 {
		return ds
	}

	cols := map[int][]dataset.Value{}
	for _, e := range est {
		vals, ok := cols[e.pos]
		if !ok {
			src := ds.Columns()[e.pos].Values
			vals = make([]dataset.Value, len(src))
			copy(vals, src)
			cols[e.pos] = vals
		}
		vals[e.row] = dataset.Number(e.val)
	}
	out := ds
	for pos, vals := range cols {
		c := ds.Columns()[pos]
		out = out.WithColumn(pos, &dataset.Column{Name: c.Name, Type: c.Type, Values: vals})
	}
	log.WithFields(logrus.Fields{"cells": len(est), "k": k}).Debug("neighbor refinement applied")
	return out
}

type neighbor struct {
	row  int
	dist float64
}

// point is row's position in the median-filled numeric matrix.
func point(targets []refineTarget, row int) []float64 {
	out := make([]float64, len(targets))
	for i, t := range targets {
		out[i] = t.vals[row]
	}
	return out
}

// weighted averages the donors' values. Under distance weighting, donors at
// distance zero take all the weight.
func weighted(ns []neighbor, vals []float64, w Weighting) float64 {
	if w == WeightDistance {
		var exact []neighbor
		for _, n := range ns {
			if n.dist == 0 {
				exact = append(exact, n)
			}
		}
		if len(exact) > 0 {
			return weighted(exact, vals, WeightUniform)
		}
		var sum, wsum float64
		for _, n := range ns {
			sum += vals[n.row] / n.dist
			wsum += 1 / n.dist
		}
		return sum / wsum
	}
	var sum float64
	for _, n := range ns {
		sum += vals[n.row]
	}
	return sum / float64(len(ns))
}

// numericValues returns the column as floats (0 for missing) or an error if
// a non-missing cell is not a number.
func numericValues(c *dataset.Column) ([]float64, error) {
	out := make([]float64, len(c.Values))
	for r, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		f, ok := v.Float()
		if !ok {
			return nil, fmt.Errorf("%w: row %d holds %s", ErrMixedValues, r, v.Kind())
		}
		out[r] = f
	}
	return out, nil
}

// modeValue returns the most frequent observed value; ties go to the first seen.
func modeValue(c *dataset.Column) (dataset.Value, bool) {
	keys := make([]string, 0, len(c.Values))
	first := map[string]dataset.Value{}
	for _, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		k := v.Key()
		if _, ok := first[k]; !ok {
			first[k] = v
		}
		keys = append(keys, k)
	}
	k, _, ok := stats.Mode(keys)
	if !ok {
		return dataset.Missing(), false
	}
	return first[k], true
}
