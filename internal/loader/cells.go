package loader

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

var missingTokens = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "null": true, "none": true, "-": true,
}

// ParseCell converts one raw cell. Empty and NA-like tokens become missing,
// true/false become booleans, numbers are parsed with locale detection and
// dates are recognised when opt.ParseDates is set. Anything else is a string.
func ParseCell(s string, opt Options) dataset.Value {
	raw := strings.TrimSpace(s)
	low := strings.ToLower(raw)
	if missingTokens[low] {
		return dataset.Missing()
	}
	switch low {
	case "true":
		return dataset.Bool(true)
	case "false":
		return dataset.Bool(false)
	}
	if f, ok := parseNumeric(raw, opt); ok {
		return dataset.Number(f)
	}
	if opt.ParseDates {
		if t, ok := parseTimeMaybe(raw); ok {
			return dataset.Time(t)
		}
	}
	return dataset.String(raw)
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumeric accepts plain, percent and locale-formatted numbers such as
// "1.234,5" or "12,5%". Values must start like a number.
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.ReplaceAll(s, "\u00A0", " ")
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if raw == "" || !strings.ContainsAny(raw[:1], "+-.0123456789") {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0 && strings.Count(raw, ",") == 1 && len(raw)-cpos-1 != 3:
			// "12,5" is a decimal comma; "1,234" is a thousands group
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
