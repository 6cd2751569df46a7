// Package outlier flags unusual values in numeric columns using the
// interquartile-range fence or the Z-score. Columns are scanned concurrently.
package outlier

import (
	"math"
	"runtime"
	"sort"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/logging"
	"github.com/KaramelBytes/dataloom-cli/internal/stats"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultIQRFactor scales the IQR to build the fences.
	DefaultIQRFactor = 1.5
	// DefaultZThreshold is the |z| above which a value is flagged.
	DefaultZThreshold = 3.0
)

// Method names a detection strategy.
type Method string

const (
	MethodIQR    Method = "iqr"
	MethodZScore Method = "zscore"
)

// Record is one flagged cell.
type Record struct {
	Row       int     `json:"row"`
	Value     float64 `json:"value"`
	ZScore    float64 `json:"z_score,omitempty"`
	HasZScore bool    `json:"-"`
}

// Set maps column names to their flagged rows. Every scanned column has an
// entry, possibly empty.
type Set struct {
	Method  Method              `json:"method"`
	Records map[string][]Record `json:"records"`
	// Degenerate lists columns skipped because their spread is zero.
	Degenerate []string `json:"degenerate,omitempty"`
}

// Count returns the total number of flagged cells.
func (s Set) Count() int {
	n := 0
	for _, r := range s.Records {
		n += len(r)
	}
	return n
}

// CountFor returns the number of flagged cells in one column.
func (s Set) CountFor(column string) int { return len(s.Records[column]) }

// Columns returns the scanned column names, sorted.
func (s Set) Columns() []string {
	out := make([]string, 0, len(s.Records))
	for k := range s.Records {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Detector runs the outlier scans.
type Detector struct {
	// IQRFactor widens the fences; zero means DefaultIQRFactor.
	IQRFactor float64
	// Parallelism caps concurrent column scans; zero means GOMAXPROCS.
	Parallelism int
	Logger      logrus.FieldLogger
}

// NewDetector returns a detector with default settings.
func NewDetector(log logrus.FieldLogger) *Detector {
	return &Detector{IQRFactor: DefaultIQRFactor, Logger: log}
}

var defaultDetector = &Detector{IQRFactor: DefaultIQRFactor}

// DetectByIQR scans the given columns (all numeric columns when none are
// named) with the default detector.
func DetectByIQR(ds *dataset.Dataset, columns ...string) (Set, error) {
	return defaultDetector.IQR(ds, columns...)
}

// DetectByZScore scans the given columns (all numeric columns when none are
// named) with the default detector.
func DetectByZScore(ds *dataset.Dataset, threshold float64, columns ...string) (Set, error) {
	return defaultDetector.ZScore(ds, threshold, columns...)
}

// IQR flags values strictly outside [Q1 - f*IQR, Q3 + f*IQR].
func (d *Detector) IQR(ds *dataset.Dataset, columns ...string) (Set, error) {
	cols, err := targets("detect outliers (iqr)", ds, columns)
	if err != nil {
		return Set{}, err
	}
	factor := d.IQRFactor
	if factor <= 0 {
		factor = DefaultIQRFactor
	}
	res := d.scan(cols, func(c *dataset.Column) ([]Record, bool) {
		vals, rows := c.Floats()
		if len(vals) == 0 {
			return []Record{}, false
		}
		q1, q3 := stats.Quartiles(vals)
		iqr := q3 - q1
		lo, hi := q1-factor*iqr, q3+factor*iqr
		out := []Record{}
		for i, v := range vals {
			if v < lo || v > hi {
				out = append(out, Record{Row: rows[i], Value: v})
			}
		}
		return out, false
	})
	res.Method = MethodIQR
	d.logSet(res)
	return res, nil
}

// ZScore flags values whose |x-mean|/std exceeds threshold, using the
// sample standard deviation. Columns with zero deviation yield no records
// and are reported as degenerate. A non-positive threshold means the default.
func (d *Detector) ZScore(ds *dataset.Dataset, threshold float64, columns ...string) (Set, error) {
	cols, err := targets("detect outliers (zscore)", ds, columns)
	if err != nil {
		return Set{}, err
	}
	if threshold <= 0 {
		threshold = DefaultZThreshold
	}
	res := d.scan(cols, func(c *dataset.Column) ([]Record, bool) {
		vals, rows := c.Floats()
		if len(vals) == 0 {
			return []Record{}, false
		}
		mean, std := stats.MeanStd(vals)
		if std == 0 || math.IsNaN(std) {
			return []Record{}, true
		}
		out := []Record{}
		for i, v := range vals {
			z := (v - mean) / std
			if math.Abs(z) > threshold {
				out = append(out, Record{Row: rows[i], Value: v, ZScore: z, HasZScore: true})
			}
		}
		return out, false
	})
	res.Method = MethodZScore
	for _, name := range res.Degenerate {
		d.log().WithFields(logrus.Fields{"column": name, "method": MethodZScore}).
			Warn("zero standard deviation, no z-score outliers")
	}
	d.logSet(res)
	return res, nil
}

// scan runs fn for each column concurrently and gathers results by name.
func (d *Detector) scan(cols []*dataset.Column, fn func(*dataset.Column) ([]Record, bool)) Set {
	recs := make([][]Record, len(cols))
	degenerate := make([]bool, len(cols))
	var g errgroup.Group
	limit := d.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)
	for i, c := range cols {
		i, c := i, c
		g.Go(func() error {
			recs[i], degenerate[i] = fn(c)
			return nil
		})
	}
	_ = g.Wait()

	out := Set{Records: make(map[string][]Record, len(cols))}
	for i, c := range cols {
		out.Records[c.Name] = recs[i]
		if degenerate[i] {
			out.Degenerate = append(out.Degenerate, c.Name)
		}
	}
	return out
}

func (d *Detector) log() logrus.FieldLogger { return logging.OrDiscard(d.Logger) }

func (d *Detector) logSet(s Set) {
	for _, name := range s.Columns() {
		if n := s.CountFor(name); n > 0 {
			d.log().WithFields(logrus.Fields{"column": name, "method": s.Method, "count": n}).
				Debug("outliers detected")
		}
	}
}

// targets resolves the columns to scan. Named columns must exist and be numeric.
func targets(op string, ds *dataset.Dataset, names []string) ([]*dataset.Column, error) {
	ds = dataset.Classify(ds)
	if len(names) == 0 {
		return ds.ColumnsOfType(dataset.Numeric), nil
	}
	out := make([]*dataset.Column, 0, len(names))
	for _, name := range names {
		c, ok := ds.Column(name)
		if !ok {
			return nil, &dataset.ColumnNotFoundError{Op: op, Column: name}
		}
		if c.Type != dataset.Numeric {
			return nil, &dataset.NotNumericError{Op: op, Column: name, Type: c.Type}
		}
		out = append(out, c)
	}
	return out, nil
}
