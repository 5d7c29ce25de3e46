package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

var (
	isoDateRe      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dayFirstDateRe = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	meridiemTimeRe = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*([ap])\.?m\.?$`)
	clockTimeRe    = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)
	bareHourRe     = regexp.MustCompile(`(?i)^(\d{1,2})\s*([ap])\.?m\.?$`)
)

// Layouts tried when a date is neither ISO nor day-first numeric.
var fallbackDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006.01.02",
	"02.01.2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2-Jan-2006",
	"02-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 January 2006",
	"Mon, 2 Jan 2006",
	"Monday, January 2, 2006",
}

// ToISODate converts a loosely formatted date to YYYY-MM-DD.
// An empty string means the value could not be understood as a date.
func ToISODate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if isoDateRe.MatchString(s) {
		return s
	}
	if m := dayFirstDateRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return calendarDate(year, month, day)
	}
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoLayout)
		}
	}
	return ""
}

// calendarDate formats a date, rejecting values time.Date would silently roll over.
func calendarDate(year, month, day int) string {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return ""
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return ""
	}
	return t.Format(isoLayout)
}

// NormalizeTime converts a clock reading to "H:MM AM/PM".
// Values it does not recognise are returned unchanged.
func NormalizeTime(s string) string {
	s = strings.TrimSpace(s)
	if m := meridiemTimeRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%d:%02d %sM", hour, minute, strings.ToUpper(m[3]))
	}
	if m := clockTimeRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return s
		}
		meridiem := "AM"
		if hour >= 12 {
			meridiem = "PM"
		}
		hour %= 12
		if hour == 0 {
			hour = 12
		}
		return fmt.Sprintf("%d:%02d %s", hour, minute, meridiem)
	}
	if m := bareHourRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%d:00 %sM", hour, strings.ToUpper(m[2]))
	}
	return s
}

// isTime reports whether a value looks like a clock reading.
func isTime(s string) bool {
	s = strings.TrimSpace(s)
	return meridiemTimeRe.MatchString(s) || clockTimeRe.MatchString(s) || bareHourRe.MatchString(s)
}
