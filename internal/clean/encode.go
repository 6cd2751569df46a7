package clean

import (
	"fmt"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/logging"
	"github.com/sirupsen/logrus"
)

const stageEncode = "encode"

// Encoder replaces categorical columns with boolean indicators, one per
// distinct value except the first one seen.
type Encoder struct {
	Logger logrus.FieldLogger
}

func NewEncoder(log logrus.FieldLogger) *Encoder { return &Encoder{Logger: log} }

func (e *Encoder) Name() string { return stageEncode }

// Apply encodes every categorical column in place. A column with a single
// distinct value is dropped. Missing cells become false in every indicator.
func (e *Encoder) Apply(ds *dataset.Dataset) Result {
	log := logging.OrDiscard(e.Logger).WithField("stage", stageEncode)
	ds = dataset.Classify(ds)
	res := Result{Dataset: ds}

	taken := make(map[string]bool, ds.Width())
	for _, c := range ds.Columns() {
		taken[c.Name] = true
	}

	changed := false
	cols := make([]*dataset.Column, 0, ds.Width())
	for _, c := range ds.Columns() {
		if c.Type != dataset.Categorical {
			cols = append(cols, c)
			continue
		}
		levels := distinct(c)
		names := make([]string, 0, len(levels))
		clash := ""
		local := map[string]bool{}
		for _, name := range indicatorNames(c.Name, levels[min(1, len(levels)):]) {
			if taken[name] || local[name] {
				clash = name
				break
			}
			local[name] = true
			names = append(names, name)
		}
		if clash != "" {
			err := fmt.Errorf("%w: %s", ErrNameCollision, clash)
			res.Warnings = append(res.Warnings, warn(stageEncode, c.Name, err))
			log.WithField("column", c.Name).WithError(err).Warn("column left unencoded")
			cols = append(cols, c)
			continue
		}

		changed = true
		delete(taken, c.Name)
		for i, name := range names {
			key := levels[i+1].Key()
			vals := make([]dataset.Value, len(c.Values))
			for r, v := range c.Values {
				vals[r] = dataset.Bool(!v.IsMissing() && v.Key() == key)
			}
			taken[name] = true
			cols = append(cols, &dataset.Column{Name: name, Type: dataset.Other, Values: vals})
		}
		log.WithFields(logrus.Fields{"column": c.Name, "levels": len(levels), "indicators": len(names)}).Debug("column encoded")
	}
	if !changed {
		return res
	}

	out, err := ds.Rebuild(cols...)
	if err != nil {
		res.Failure = &StageWarning{Stage: stageEncode, Err: fmt.Errorf("assemble dataset: %w", err)}
		return res
	}
	res.Dataset = out
	return res
}

// indicatorNames renders <column>_<level> for each level. Levels of
// different kinds that render alike (1 and "1") get a _<kind> suffix.
func indicatorNames(column string, levels []dataset.Value) []string {
	rendered := make([]string, len(levels))
	count := make(map[string]int, len(levels))
	for i, lv := range levels {
		rendered[i] = fmt.Sprintf("%s_%s", column, lv.String())
		count[rendered[i]]++
	}
	for i, lv := range levels {
		if count[rendered[i]] > 1 {
			rendered[i] = fmt.Sprintf("%s_%s", rendered[i], lv.Kind())
		}
	}
	return rendered
}

// distinct returns the observed values of c in first-seen order.
func distinct(c *dataset.Column) []dataset.Value {
	seen := map[string]bool{}
	var out []dataset.Value
	for _, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		k := v.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}
