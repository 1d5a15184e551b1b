// Package fields parses structured key/value data out of extracted document
// text. Parsing is best-effort: it never fails a job, and an empty result is
// not an error.
package fields

import (
	"regexp"
	"strings"
)

var (
	formPattern   = regexp.MustCompile(`(?i)\bform\s+([0-9]{3,4}[A-Z\-]*(?:EZ|NR|SR)?)\b`)
	yearPattern   = regexp.MustCompile(`(?i)\b(?:tax\s+year|year)[:\s]+([12][0-9]{3})\b`)
	amountPattern = regexp.MustCompile(`(?i)\b(refund|total|amount\s+due|balance)[:\s]*\$?\s*([0-9][0-9,]*(?:\.[0-9]{2})?)`)
)

// Parse scans text lines for recognizable document fields: a form type,
// a tax year, and labeled dollar amounts. Returns nil when nothing matched.
func Parse(lines []string) map[string]string {
	out := make(map[string]string)

	for _, line := range lines {
		if _, ok := out["form_type"]; !ok {
			if m := formPattern.FindStringSubmatch(line); m != nil {
				out["form_type"] = strings.ToUpper(m[1])
			}
		}

		if _, ok := out["tax_year"]; !ok {
			if m := yearPattern.FindStringSubmatch(line); m != nil {
				out["tax_year"] = m[1]
			}
		}

		if m := amountPattern.FindStringSubmatch(line); m != nil {
			key := normalizeKey(m[1])
			if _, ok := out[key]; !ok {
				out[key] = strings.ReplaceAll(m[2], ",", "")
			}
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeKey(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	return strings.Join(strings.Fields(key), "_")
}
