package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthNumbers = map[string]string{
	"january": "01", "february": "02", "march": "03", "april": "04",
	"may": "05", "june": "06", "july": "07", "august": "08",
	"september": "09", "october": "10", "november": "11", "december": "12",
}

var (
	isoMonth = regexp.MustCompile(`^\d{4}-\d{2}$`)
	yearOnly = regexp.MustCompile(`^\d{4}$`)
)

// ParseWebinarMonth converts an export label such as
// "Month 09 - September 2025" to "2025-09". Labels already in YYYY-MM form
// pass through. Anything else yields "".
func ParseWebinarMonth(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return ""
	}
	if isoMonth.MatchString(s) {
		return s
	}

	parts := strings.Fields(s)
	year := parts[len(parts)-1]
	if !yearOnly.MatchString(year) {
		return ""
	}
	for _, word := range parts {
		if mm, ok := monthNumbers[word]; ok {
			return year + "-" + mm
		}
	}
	return ""
}

// ParseDate reads a DD/MM/YYYY date (ISO dates are accepted too). It
// returns nil for empty or unparsable input.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2/1/2006", "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// parseNumber coerces a numeric cell, treating anything unparsable as 0.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != v {
		return 0
	}
	return v
}
