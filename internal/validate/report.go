package validate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

// Report summarises the quality of a dataset.
type Report struct {
	MissingValueCount int                             `json:"missing_value_count"`
	DuplicateRowCount int                             `json:"duplicate_row_count"`
	OutlierCount      int                             `json:"outlier_count"`
	ColumnTypes       map[string]dataset.SemanticType `json:"column_types"`

	RowsIn      int            `json:"rows_in"`
	RowsOut     int            `json:"rows_out"`
	Columns     []ColumnReport `json:"columns,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// ColumnReport holds per-column counts. Outlier fields are only set for
// numeric columns.
type ColumnReport struct {
	Name        string               `json:"name"`
	Type        dataset.SemanticType `json:"type"`
	Missing     int                  `json:"missing"`
	IQROutliers int                  `json:"iqr_outliers,omitempty"`
	ZOutliers   int                  `json:"z_outliers,omitempty"`
	ZeroStd     bool                 `json:"zero_std,omitempty"`
}

// JSON renders the report as indented JSON.
func (r Report) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return b, nil
}

// Markdown renders the report in plain bracketed sections.
func (r Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[VALIDATION SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Rows: %d", r.RowsIn))
	if r.RowsOut != r.RowsIn {
		b.WriteString(fmt.Sprintf(" (%d after removing duplicates)", r.RowsOut))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.ColumnTypes)))
	b.WriteString(fmt.Sprintf("Missing values: %d\n", r.MissingValueCount))
	b.WriteString(fmt.Sprintf("Duplicate rows: %d\n", r.DuplicateRowCount))
	b.WriteString(fmt.Sprintf("Outliers (IQR + z-score): %d\n", r.OutlierCount))

	if len(r.Columns) > 0 {
		b.WriteString("\n[COLUMNS]\n")
		for _, c := range r.Columns {
			b.WriteString(fmt.Sprintf("- %s: %s (missing %d)", safeName(c.Name), c.Type, c.Missing))
			if c.Type == dataset.Numeric {
				b.WriteString(fmt.Sprintf("; outliers iqr=%d z=%d", c.IQROutliers, c.ZOutliers))
				if c.ZeroStd {
					b.WriteString("; constant")
				}
			}
			b.WriteString("\n")
		}
	} else if len(r.ColumnTypes) > 0 {
		b.WriteString("\n[COLUMNS]\n")
		names := make([]string, 0, len(r.ColumnTypes))
		for k := range r.ColumnTypes {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, n := range names {
			b.WriteString(fmt.Sprintf("- %s: %s\n", safeName(n), r.ColumnTypes[n]))
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
