package profile

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

// Markdown renders a compact report suitable for standalone docs.
func (p *Profile) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if p.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", p.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", p.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(p.Cols)))
	b.WriteString(fmt.Sprintf("Missing cells: %d\n\n", p.Missing))

	b.WriteString("[SCHEMA]\n")
	for _, c := range p.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Type, c.NonNull, missPct))
		switch c.Type {
		case dataset.Numeric:
			if c.NonNull > 0 {
				b.WriteString(fmt.Sprintf("; min %.4g, 25%% %.4g, 50%% %.4g, 75%% %.4g, max %.4g, mean %.4g, std %.4g",
					c.Min, c.Q1, c.Median, c.Q3, c.Max, c.Mean, c.Std))
			}
			if c.RobustThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.RobustOutliers, c.RobustThreshold))
				if c.RobustMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.RobustMaxAbsZ))
				}
			}
		case dataset.Categorical:
			if len(c.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		b.WriteString("\n")
	}
	if pairs := p.Corr.Pairs(); len(pairs) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		maxp := 10
		if len(pairs) < maxp {
			maxp = len(pairs)
		}
		for _, pr := range pairs[:maxp] {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", pr.A, pr.B, pr.R))
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
