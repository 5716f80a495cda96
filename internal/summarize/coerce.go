// Package summarize reduces each raw financial source into a typed
// summary. Raw records arrive in whatever shape the provider produced:
// keyed objects, positional arrays, numeric strings, or garbage. The
// coercion helpers here map any accepted shape into typed values before
// arithmetic; anything unusable becomes the zero value, never an error.
package summarize

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AsMap returns v as a string-keyed map, or nil.
func AsMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// AsSlice returns v as a slice, or nil. A lone map is not promoted; the
// callers that accept both shapes handle that explicitly.
func AsSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// Str returns v as a trimmed string, or "".
func Str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// Num coerces v to a float64. Numeric strings go through decimal so
// "15000.50" and "-3,200" parse exactly; anything else yields 0.
func Num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		if s == "" {
			return 0
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0
		}
		f, _ := d.Float64()
		return f
	default:
		return 0
	}
}

// Dig walks nested maps along path and returns the value at the end, or
// nil as soon as any step is missing or not a map.
func Dig(v any, path ...string) any {
	cur := v
	for _, key := range path {
		m := AsMap(cur)
		if m == nil {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// Field returns the first present key from m, or nil.
func Field(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}

// ParseDate parses the date formats the providers emit.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(s, "Z"))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MonthKey formats t as a "2006-01" trend bucket key.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
