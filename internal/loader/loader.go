// Package loader turns tabular files into datasets. Loaders register
// themselves by file extension; Load picks the first one that accepts a path.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

// ErrUnsupported indicates no loader accepts the file.
var ErrUnsupported = errors.New("unsupported data format")

// Options controls how raw cells become values.
type Options struct {
	// Delimiter overrides the CSV separator. Zero picks ',' or '\t' by extension.
	Delimiter rune
	// SheetName selects an XLSX sheet by name; it wins over SheetIndex.
	SheetName string
	// SheetIndex is the 1-based XLSX sheet position. Zero means the first sheet.
	SheetIndex int
	// ParseDates turns recognised date strings into time values.
	ParseDates bool
	// DecimalSeparator and ThousandsSeparator override numeric detection.
	// Zero means auto-detect.
	DecimalSeparator   rune
	ThousandsSeparator rune
}

// Loader reads one file format.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string, opt Options) (*dataset.Dataset, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// Load selects a loader based on the file name and reads the dataset.
func Load(path string, opt Options) (*dataset.Dataset, error) {
	for _, l := range registry {
		if l.CanLoad(path) {
			ds, err := l.Load(path, opt)
			if err != nil {
				return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
			}
			return ds, nil
		}
	}
	return nil, fmt.Errorf("load %s: %w", filepath.Base(path), ErrUnsupported)
}

// Supported reports whether some loader accepts path.
func Supported(path string) bool {
	for _, l := range registry {
		if l.CanLoad(path) {
			return true
		}
	}
	return false
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
	Register(jsonLoader{})
}

func hasExt(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// table is the common shape every loader produces before typing cells.
type table struct {
	header []string
	rows   [][]string
}

// build types every cell and assembles the dataset. Short rows are padded
// with missing values.
func (t table) build(opt Options) (*dataset.Dataset, error) {
	names := headerNames(t.header)
	cols := make([]*dataset.Column, len(names))
	for j, name := range names {
		vals := make([]dataset.Value, len(t.rows))
		for i, row := range t.rows {
			if j < len(row) {
				vals[i] = ParseCell(row[j], opt)
			}
		}
		cols[j] = dataset.NewColumn(name, vals...)
	}
	for i, row := range t.rows {
		if len(row) > len(names) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+2, len(row), len(names))
		}
	}
	if len(cols) == 0 {
		return dataset.Empty(), nil
	}
	return dataset.New(cols...)
}

// headerNames trims names, fills blanks and makes duplicates unique.
func headerNames(header []string) []string {
	out := make([]string, len(header))
	seen := map[string]int{}
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}
