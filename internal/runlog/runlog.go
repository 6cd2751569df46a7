// Package runlog persists one JSON record per cleaning run.
package runlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/clean"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/KaramelBytes/dataloom-cli/internal/validate"
	"github.com/google/uuid"
)

const runFileExt = ".json"

// ErrNotFound is returned when no run matches an id.
var ErrNotFound = errors.New("run not found")

// Run describes a single clean invocation over one input file.
type Run struct {
	ID         string              `json:"id"`
	Source     string              `json:"source"`
	Output     string              `json:"output,omitempty"`
	ReportPath string              `json:"report_path,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	RowsIn     int                 `json:"rows_in"`
	RowsOut    int                 `json:"rows_out"`
	ColumnsOut []string            `json:"columns_out"`
	Report     validate.Report     `json:"report"`
	Stages     []clean.StageReport `json:"stages"`
	Warnings   []string            `json:"warnings,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// NewRun starts a run record for source.
func NewRun(source string) *Run {
	return &Run{ID: uuid.NewString(), Source: source, StartedAt: time.Now()}
}

// Finish stamps the end time and copies the pipeline outcome.
func (r *Run) Finish(rep validate.Report, oc clean.Outcome) {
	r.FinishedAt = time.Now()
	r.Report = rep
	r.RowsIn = rep.RowsIn
	r.Stages = oc.Stages
	if oc.Dataset != nil {
		r.RowsOut = oc.Dataset.Len()
		r.ColumnsOut = oc.Dataset.Names()
	}
	for _, w := range oc.Warnings {
		r.Warnings = append(r.Warnings, w.Message())
	}
}

// Fail stamps the end time and records err.
func (r *Run) Fail(err error) {
	r.FinishedAt = time.Now()
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration is the wall time of the run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Save writes <dir>/<id>.json using atomic write.
func (r *Run) Save(dir string) error {
	if dir == "" {
		return errors.New("runs directory not set")
	}
	if r.ID == "" {
		return errors.New("run id not set")
	}
	data, err := utils.PrettyJSON(r)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(dir, r.ID+runFileExt), data, 0o644)
}

// Load reads the run whose id equals or uniquely starts with id.
func Load(dir, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("load run: empty id")
	}
	path := filepath.Join(dir, id+runFileExt)
	if _, err := os.Stat(path); err != nil {
		matches, _ := filepath.Glob(filepath.Join(dir, id+"*"+runFileExt))
		switch len(matches) {
		case 0:
			return nil, fmt.Errorf("load run %s: %w", id, ErrNotFound)
		case 1:
			path = matches[0]
		default:
			return nil, fmt.Errorf("load run %s: prefix matches %d runs", id, len(matches))
		}
	}
	return readRun(path)
}

func readRun(path string) (*Run, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("run not found at %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("read run: %w", err)
	}
	var r Run
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse run %s: %w", filepath.Base(path), err)
	}
	return &r, nil
}

// List returns all runs in dir, newest first. A missing dir yields no runs.
func List(dir string) ([]*Run, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read runs dir: %w", err)
	}
	var runs []*Run
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), runFileExt) {
			continue
		}
		r, err := readRun(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}
