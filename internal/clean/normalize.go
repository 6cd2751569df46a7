package clean

import (
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/logging"
	"github.com/KaramelBytes/dataloom-cli/internal/stats"
	"github.com/sirupsen/logrus"
)

const stageNormalize = "normalize"

// Normalizer rescales numeric columns to [0,1] with min-max scaling.
type Normalizer struct {
	Logger logrus.FieldLogger
}

func NewNormalizer(log logrus.FieldLogger) *Normalizer { return &Normalizer{Logger: log} }

func (n *Normalizer) Name() string { return stageNormalize }

// Apply scales each numeric column over its observed values. A constant
// column becomes all zeros. Missing cells stay missing.
func (n *Normalizer) Apply(ds *dataset.Dataset) Result {
	log := logging.OrDiscard(n.Logger).WithField("stage", stageNormalize)
	ds = dataset.Classify(ds)
	res := Result{Dataset: ds}

	out := ds
	for i, c := range ds.Columns() {
		if c.Type != dataset.Numeric {
			continue
		}
		if _, err := numericValues(c); err != nil {
			res.Warnings = append(res.Warnings, warn(stageNormalize, c.Name, err))
			log.WithField("column", c.Name).WithError(err).Warn("column left unscaled")
			continue
		}
		obs, _ := c.Floats()
		if len(obs) == 0 {
			continue
		}
		lo, hi := stats.MinMax(obs)
		span := hi - lo
		if lo == 0 && hi == 1 {
			continue
		}
		vals := make([]dataset.Value, len(c.Values))
		for r, v := range c.Values {
			f, ok := v.Float()
			switch {
			case !ok:
				vals[r] = v
			case span == 0:
				vals[r] = dataset.Number(0)
			default:
				vals[r] = dataset.Number((f - lo) / span)
			}
		}
		out = out.WithColumn(i, &dataset.Column{Name: c.Name, Type: c.Type, Values: vals})
		log.WithFields(logrus.Fields{"column": c.Name, "min": lo, "max": hi}).Debug("column scaled")
	}
	res.Dataset = out
	return res
}
