// Package metrics records pipeline activity in a Prometheus registry and
// writes it in the node-exporter textfile format for batch runs.
package metrics

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/clean"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/KaramelBytes/dataloom-cli/internal/validate"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dataloom"

// Recorder owns a private registry holding the pipeline collectors.
type Recorder struct {
	reg *prometheus.Registry

	runs          *prometheus.CounterVec
	rowsIn        prometheus.Counter
	rowsOut       prometheus.Counter
	duplicates    prometheus.Counter
	missing       prometheus.Counter
	outliers      prometheus.Counter
	stageDuration *prometheus.HistogramVec
	stageStatus   *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
}

var _ clean.Observer = (*Recorder)(nil)

// New builds a recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total",
			Help: "Clean runs by result.",
		}, []string{"result"}),
		rowsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_in_total",
			Help: "Rows read from input files.",
		}),
		rowsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_out_total",
			Help: "Rows written after cleaning.",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "duplicate_rows_total",
			Help: "Duplicate rows removed during validation.",
		}),
		missing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "missing_values_total",
			Help: "Missing cells found during validation.",
		}),
		outliers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "outliers_total",
			Help: "Outliers flagged during validation (IQR plus z-score).",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "stage_duration_seconds",
			Help:    "Wall time of each cleaning stage.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"stage"}),
		stageStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stage_results_total",
			Help: "Cleaning stage outcomes by stage and status.",
		}, []string{"stage", "status"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_success_timestamp_seconds",
			Help: "Unix time of the last successful clean run.",
		}),
	}
	r.reg.MustRegister(r.runs, r.rowsIn, r.rowsOut, r.duplicates, r.missing, r.outliers,
		r.stageDuration, r.stageStatus, r.lastSuccess)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// ObserveStage implements clean.Observer.
func (r *Recorder) ObserveStage(stage, status string, elapsed time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	r.stageStatus.WithLabelValues(stage, status).Inc()
}

// ObserveValidation adds the counts of one validation report.
func (r *Recorder) ObserveValidation(rep validate.Report) {
	r.rowsIn.Add(float64(rep.RowsIn))
	r.duplicates.Add(float64(rep.DuplicateRowCount))
	r.missing.Add(float64(rep.MissingValueCount))
	r.outliers.Add(float64(rep.OutlierCount))
}

// RunSucceeded records a completed run that wrote rowsOut rows.
func (r *Recorder) RunSucceeded(rowsOut int) {
	r.runs.WithLabelValues("success").Inc()
	r.rowsOut.Add(float64(rowsOut))
	r.lastSuccess.SetToCurrentTime()
}

// RunFailed records a run that did not produce output.
func (r *Recorder) RunFailed() {
	r.runs.WithLabelValues("failure").Inc()
}

// WriteTextfile writes every collector to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
