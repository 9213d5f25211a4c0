package runid

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/adept-bench/benchctl/bench"
)

// DefaultSummary builds a short human summary for RunSlug from the first value
// of the common sweep parameters, e.g. "t4-ppe1000-e10". It returns "params"
// when none of them is present.
func DefaultSummary(benchmarkConfig map[string]any) string {
	params, _ := benchmarkConfig["parameters"].(map[string]any)

	var parts []string
	if v, ok := first(params["NUMBER_OF_THREADS"]); ok {
		parts = append(parts, "t"+bench.FormatValue(v))
	}
	if v, ok := first(params["PARTICLES_PER_EVENT"]); ok {
		parts = append(parts, "ppe"+bench.FormatValue(v))
	}
	if v, ok := first(params["NUMBER_OF_EVENTS"]); ok {
		parts = append(parts, "e"+bench.FormatValue(v))
	}
	if len(parts) == 0 {
		return "params"
	}
	return SafeSummary(strings.Join(parts, "-"))
}

func first(v any) (any, bool) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 || list[0] == nil {
		return nil, false
	}
	return list[0], true
}

// SafeSummary makes s usable as a path component: accents are stripped and
// anything outside [A-Za-z0-9._-] becomes '_'.
func SafeSummary(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	var b strings.Builder
	for _, r := range stripped {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" || out == "." || out == ".." {
		return "params"
	}
	return out
}
