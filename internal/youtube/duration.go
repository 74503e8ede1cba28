package youtube

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseISODuration converts an ISO 8601 duration as returned by the
// videos.list contentDetails part into seconds.
// Examples: "PT4M13S" -> 253, "PT1H1.5S" -> 3601.5, "P1DT2H" -> 93600,
// "P0D" -> 0 (YouTube reports live streams this way).
func ParseISODuration(raw string) (float64, error) {
	if !strings.HasPrefix(raw, "P") {
		return 0, fmt.Errorf("invalid duration format: %q", raw)
	}

	datePart := strings.TrimPrefix(raw, "P")
	timePart := ""
	if i := strings.Index(datePart, "T"); i != -1 {
		datePart, timePart = datePart[:i], datePart[i+1:]
	}

	var total float64

	days, rest, err := cutComponent(datePart, "D")
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	if rest != "" {
		// Year/month designators never occur for video durations.
		return 0, fmt.Errorf("unsupported designators in duration %q", raw)
	}
	total += days * 86400

	hours, rest, err := cutComponent(timePart, "H")
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	minutes, rest, err := cutComponent(rest, "M")
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	seconds, rest, err := cutComponent(rest, "S")
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	if rest != "" {
		return 0, fmt.Errorf("trailing data in duration %q", raw)
	}

	total += hours*3600 + minutes*60 + seconds
	return total, nil
}

// cutComponent parses the leading "<number><designator>" component off s.
// When the designator is not present, s is returned unchanged with value 0.
func cutComponent(s, designator string) (float64, string, error) {
	idx := strings.Index(s, designator)
	if idx == -1 {
		return 0, s, nil
	}

	value, err := strconv.ParseFloat(s[:idx], 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse %s component: %w", designator, err)
	}
	if value < 0 {
		return 0, "", fmt.Errorf("negative %s component", designator)
	}
	return value, s[idx+len(designator):], nil
}
