package at

import (
	"strconv"
	"strings"
)

// FileID converts a service-center timestamp to a filename-safe, lexically
// sortable key: "25/12/25,16:25:06-32" -> "251225_162506".
//
// A date-only timestamp gets a zero clock so it still sorts against full
// ones from the same day.
func FileID(timestamp string) string {
	datePart, clockPart, ok := strings.Cut(timestamp, ",")
	if !ok {
		return strings.ReplaceAll(timestamp, "/", "") + "_000000"
	}
	clock, _, _ := strings.Cut(clockPart, "-")
	return strings.ReplaceAll(datePart, "/", "") + "_" + strings.ReplaceAll(clock, ":", "")
}

// DisplayTime renders a timestamp as "MM/DD HH:MM" for list rows.
//
// The modem reports two-digit date components whose order is ambiguous:
// "25/12/25" can be read YY/MM/DD or DD/MM/YY. The heuristic here treats the
// first component as a year when it falls in [20,30], otherwise as a day.
// The upstream intent beyond this rule is unknown, so it is preserved as-is
// rather than replaced with a stricter parse.
func DisplayTime(timestamp string) string {
	datePart := timestamp
	clock := "00:00"
	if d, c, ok := strings.Cut(timestamp, ","); ok {
		datePart = d
		trimmed, _, _ := strings.Cut(c, "-")
		if len(trimmed) >= 5 {
			clock = trimmed[:5]
		}
	}

	comps := strings.Split(datePart, "/")
	if len(comps) != 3 {
		if len(timestamp) > 8 {
			return timestamp[:8]
		}
		return timestamp
	}

	if len(comps[0]) == 2 && len(comps[2]) == 2 {
		first, err := strconv.Atoi(comps[0])
		if err != nil {
			return comps[1] + "/" + comps[0] + " " + clock
		}
		if first >= 20 && first <= 30 {
			// YY/MM/DD: "25/12/25" -> month 12, day 25
			return comps[1] + "/" + comps[2] + " " + clock
		}
		// DD/MM/YY: "26/12/25" -> month 12, day 26
		return comps[1] + "/" + comps[0] + " " + clock
	}

	return comps[1] + "/" + comps[2] + " " + clock
}
