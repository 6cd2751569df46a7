// Package validate inspects a dataset for missing cells, duplicate rows and
// numeric outliers, and removes exact duplicate rows.
package validate

import (
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/logging"
	"github.com/KaramelBytes/dataloom-cli/internal/outlier"
	"github.com/sirupsen/logrus"
)

// Validator produces a Report and a de-duplicated dataset.
type Validator struct {
	Detector   *outlier.Detector
	ZThreshold float64
	Logger     logrus.FieldLogger
}

// New returns a validator using detector d (a default detector when nil).
func New(d *outlier.Detector, zThreshold float64, log logrus.FieldLogger) *Validator {
	if d == nil {
		d = outlier.NewDetector(log)
	}
	return &Validator{Detector: d, ZThreshold: zThreshold, Logger: log}
}

// Validate classifies columns, counts and drops duplicate rows, counts
// missing cells and outliers on the reduced dataset. It never fails; an
// empty input yields a zero report and the input itself.
func (v *Validator) Validate(ds *dataset.Dataset) (*dataset.Dataset, Report) {
	log := logging.OrDiscard(v.Logger)
	rep := Report{
		ColumnTypes: map[string]dataset.SemanticType{},
		GeneratedAt: time.Now().UTC(),
	}
	if ds == nil {
		return dataset.Empty(), rep
	}
	rep.RowsIn = ds.Len()
	rep.RowsOut = ds.Len()
	if ds.IsEmpty() {
		rep.ColumnTypes = ds.Types()
		return ds, rep
	}

	ds = dataset.Classify(ds)
	for _, c := range ds.Columns() {
		rep.ColumnTypes[c.Name] = c.Type
		log.WithFields(logrus.Fields{"column": c.Name, "type": c.Type}).Debug("column classified")
	}

	ds, rep.DuplicateRowCount = Dedupe(ds)
	rep.RowsOut = ds.Len()
	if rep.DuplicateRowCount > 0 {
		log.WithField("duplicates", rep.DuplicateRowCount).Info("duplicate rows removed")
	}

	rep.MissingValueCount = ds.MissingCount()

	det := v.Detector
	if det == nil {
		det = outlier.NewDetector(log)
	}
	iqr, err := det.IQR(ds)
	if err != nil {
		log.WithError(err).Warn("iqr scan failed")
	}
	z, err := det.ZScore(ds, v.ZThreshold)
	if err != nil {
		log.WithError(err).Warn("z-score scan failed")
	}
	rep.OutlierCount = iqr.Count() + z.Count()

	zeroStd := make(map[string]bool, len(z.Degenerate))
	for _, name := range z.Degenerate {
		zeroStd[name] = true
	}
	for _, c := range ds.Columns() {
		cr := ColumnReport{Name: c.Name, Type: c.Type, Missing: c.MissingCount()}
		if c.Type == dataset.Numeric {
			cr.IQROutliers = iqr.CountFor(c.Name)
			cr.ZOutliers = z.CountFor(c.Name)
			cr.ZeroStd = zeroStd[c.Name]
		}
		rep.Columns = append(rep.Columns, cr)
	}

	log.WithFields(logrus.Fields{
		"rows":       rep.RowsOut,
		"missing":    rep.MissingValueCount,
		"duplicates": rep.DuplicateRowCount,
		"outliers":   rep.OutlierCount,
	}).Info("validation complete")
	return ds, rep
}

// Dedupe keeps the first occurrence of every distinct row, preserving order,
// and returns how many rows were dropped. Missing cells compare equal.
func Dedupe(ds *dataset.Dataset) (*dataset.Dataset, int) {
	seen := make(map[string]struct{}, ds.Len())
	keep := make([]int, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		k := ds.RowKey(i)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}
	dropped := ds.Len() - len(keep)
	if dropped == 0 {
		return ds, 0
	}
	return ds.SelectRows(keep), dropped
}
