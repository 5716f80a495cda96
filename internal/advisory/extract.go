package advisory

import (
	"regexp"
	"strings"
)

var (
	fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	jsonRe  = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSONBlock pulls the JSON object out of a model response: the
// fenced block if one is present, otherwise the outermost {...} span.
// Returns "" when the response carries no object at all.
func ExtractJSONBlock(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return jsonRe.FindString(s)
}

// IsUnusable reports whether a model response cannot be presented or
// parsed: blank output, or an HTML error page leaking through the API.
func IsUnusable(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" {
		return true
	}
	lower := strings.ToLower(t)
	return strings.HasPrefix(lower, "<html") || strings.HasPrefix(lower, "<!doctype html")
}
