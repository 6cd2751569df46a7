package clean

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/logging"
	"github.com/sirupsen/logrus"
)

// Stage status values reported in an Outcome.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusFailed  = "failed"
)

// Observer receives per-stage timings. The metrics package implements it.
type Observer interface {
	ObserveStage(stage, status string, elapsed time.Duration)
}

// StageReport describes how one stage went.
type StageReport struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Warnings int           `json:"warnings"`
	Duration time.Duration `json:"duration"`
}

// Outcome is the full result of a pipeline run.
type Outcome struct {
	Dataset  *dataset.Dataset
	Warnings []StageWarning
	Stages   []StageReport
}

// Pipeline runs impute, encode and normalize in that order.
type Pipeline struct {
	Stages   []Stage
	Logger   logrus.FieldLogger
	Observer Observer
}

// NewPipeline wires the three stages with cfg.
func NewPipeline(cfg Config, log logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		Stages: []Stage{NewImputer(cfg, log), NewEncoder(log), NewNormalizer(log)},
		Logger: log,
	}
}

// Clean returns the cleaned dataset.
func (p *Pipeline) Clean(ds *dataset.Dataset) *dataset.Dataset {
	return p.Run(ds).Dataset
}

// Run executes every stage. A failing or panicking stage is logged and its
// input is handed to the next stage unchanged. Empty input returns at once.
func (p *Pipeline) Run(ds *dataset.Dataset) Outcome {
	log := logging.OrDiscard(p.Logger)
	if ds == nil || ds.IsEmpty() {
		if ds == nil {
			ds = dataset.Empty()
		}
		log.Debug("empty dataset, nothing to clean")
		return Outcome{Dataset: ds}
	}

	cur := dataset.Classify(ds)
	var out Outcome
	for _, st := range p.Stages {
		start := time.Now()
		res := runStage(st, cur)
		elapsed := time.Since(start)

		rep := StageReport{Name: st.Name(), Status: StatusOK, Warnings: len(res.Warnings), Duration: elapsed}
		out.Warnings = append(out.Warnings, res.Warnings...)
		switch {
		case res.Failure != nil:
			rep.Status = StatusFailed
			out.Warnings = append(out.Warnings, *res.Failure)
			log.WithField("stage", st.Name()).WithError(res.Failure).Error("stage failed, passing data through")
		case res.Dataset == nil:
			rep.Status = StatusFailed
			w := warn(st.Name(), "", fmt.Errorf("stage returned no dataset"))
			out.Warnings = append(out.Warnings, w)
			log.WithField("stage", st.Name()).Error("stage returned no dataset, passing data through")
		default:
			if len(res.Warnings) > 0 {
				rep.Status = StatusWarning
			}
			cur = res.Dataset
		}
		out.Stages = append(out.Stages, rep)
		if p.Observer != nil {
			p.Observer.ObserveStage(rep.Name, rep.Status, elapsed)
		}
		log.WithFields(logrus.Fields{
			"stage":    rep.Name,
			"status":   rep.Status,
			"warnings": rep.Warnings,
			"columns":  cur.Width(),
		}).Debug("stage finished")
	}
	out.Dataset = cur
	return out
}

func runStage(st Stage, ds *dataset.Dataset) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Failure: &StageWarning{Stage: st.Name(), Err: fmt.Errorf("panic: %v", r)}}
		}
	}()
	return st.Apply(ds)
}
