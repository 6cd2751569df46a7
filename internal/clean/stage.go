// Package clean implements the cleaning stages (imputation, categorical
// encoding, min-max normalization) and the pipeline that chains them.
// Stages never mutate their input; each returns a Result holding a new
// dataset plus any column-level warnings.
package clean

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

var (
	// ErrNoObserved means a column had no value to derive a fill from.
	ErrNoObserved = errors.New("no observed values")
	// ErrMixedValues means a numeric column holds a non-numeric value.
	ErrMixedValues = errors.New("non-numeric value in numeric column")
	// ErrNameCollision means an indicator name already exists in the dataset.
	ErrNameCollision = errors.New("indicator column name already exists")
	// ErrRefinementSkipped means neighbor refinement was not attempted.
	ErrRefinementSkipped = errors.New("neighbor refinement skipped")
)

// StageWarning records a recovered problem inside a stage. Column is empty
// when the problem concerns the whole stage.
type StageWarning struct {
	Stage  string `json:"stage"`
	Column string `json:"column,omitempty"`
	Err    error  `json:"-"`
}

func (w StageWarning) Error() string {
	if w.Column == "" {
		return fmt.Sprintf("%s: %v", w.Stage, w.Err)
	}
	return fmt.Sprintf("%s: column %q: %v", w.Stage, w.Column, w.Err)
}

func (w StageWarning) Unwrap() error { return w.Err }

// Message is the rendered warning, used when persisting.
func (w StageWarning) Message() string { return w.Error() }

// Result is the outcome of one stage. When Failure is set the caller should
// discard Dataset and continue with the stage's input.
type Result struct {
	Dataset  *dataset.Dataset
	Warnings []StageWarning
	Failure  *StageWarning
}

// Stage is one step of the pipeline.
type Stage interface {
	Name() string
	Apply(ds *dataset.Dataset) Result
}

func warn(stage, column string, err error) StageWarning {
	return StageWarning{Stage: stage, Column: column, Err: err}
}
