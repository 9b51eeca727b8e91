package parsing

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const monthNames = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

type dateShape int

const (
	shapeDMY dateShape = iota
	shapeYMD
	shapeDayMonthYear
	shapeMonthDayYear
)

// datePatterns are tried in order; the first one that matches anywhere in
// the text decides the date.
var datePatterns = []struct {
	shape dateShape
	re    *regexp.Regexp
}{
	{shapeDMY, regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4}|\d{2})\b`)},
	{shapeYMD, regexp.MustCompile(`\b(\d{4})[/.\-](\d{1,2})[/.\-](\d{1,2})\b`)},
	{shapeDayMonthYear, regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?[\s\-]+` + monthNames + `\.?,?[\s\-]+(\d{4}|\d{2})\b`)},
	{shapeMonthDayYear, regexp.MustCompile(`(?i)\b` + monthNames + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4}|\d{2})\b`)},
}

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// extractDate returns nil when no date shape matches or the first match is
// not a valid calendar date.
func extractDate(text string) *time.Time {
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		return interpretDate(p.shape, m[1], m[2], m[3])
	}
	return nil
}

func interpretDate(shape dateShape, a, b, c string) *time.Time {
	switch shape {
	case shapeDMY:
		year := expandYear(atoi(c))
		if t, ok := makeDate(year, atoi(b), atoi(a)); ok {
			return &t
		}
		if t, ok := makeDate(year, atoi(a), atoi(b)); ok {
			return &t
		}
	case shapeYMD:
		year := atoi(a)
		if t, ok := makeDate(year, atoi(b), atoi(c)); ok {
			return &t
		}
		if t, ok := makeDate(year, atoi(c), atoi(b)); ok {
			return &t
		}
	case shapeDayMonthYear:
		if t, ok := makeDate(expandYear(atoi(c)), int(lookupMonth(b)), atoi(a)); ok {
			return &t
		}
	case shapeMonthDayYear:
		if t, ok := makeDate(expandYear(atoi(c)), int(lookupMonth(a)), atoi(b)); ok {
			return &t
		}
	}
	return nil
}

// expandYear maps two-digit years with a pivot at 50.
func expandYear(y int) int {
	switch {
	case y >= 100:
		return y
	case y < 50:
		return 2000 + y
	default:
		return 1900 + y
	}
}

func lookupMonth(name string) time.Month {
	name = strings.ToLower(name)
	if len(name) < 3 {
		return 0
	}
	return monthIndex[name[:3]]
}

// makeDate rejects values time.Date would silently normalize.
func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
