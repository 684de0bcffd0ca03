package feed

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Candidates longer than this are free text, not a date.
const maxDirectDateLength = 64

const monthYearExpr = `(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\.?\s+(\d{4})`

var (
	monthYearPattern      = regexp.MustCompile(`(?i)\b` + monthYearExpr + `\b`)
	exactMonthYearPattern = regexp.MustCompile(`(?i)^` + monthYearExpr + `$`)
)

var monthTable = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// ParseDate applies the full date rule: a direct parse, then a
// "Month YYYY" match, then now.
func ParseDate(text string, now time.Time) time.Time {
	if t, ok := ParseDateText(text); ok {
		return t
	}
	return now
}

// ParseDateText tries a direct date parse followed by a "Month YYYY" match.
func ParseDateText(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	// A bare "Month YYYY" always means the first of that month.
	if exactMonthYearPattern.MatchString(text) {
		return FindMonthYear(text)
	}

	if len(text) <= maxDirectDateLength {
		if t, ok := parseDirect(text); ok {
			return t, true
		}
	}

	return FindMonthYear(text)
}

// FindMonthYear returns the first day of the first "Month YYYY" found in text.
func FindMonthYear(text string) (time.Time, bool) {
	match := monthYearPattern.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}, false
	}

	// Casers are stateful, so each call gets its own.
	name := cases.Lower(language.Und).String(match[1])
	month, ok := monthTable[name[:3]]
	if !ok {
		return time.Time{}, false
	}

	year, err := strconv.Atoi(match[2])
	if err != nil {
		return time.Time{}, false
	}

	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
}

func parseDirect(text string) (t time.Time, ok bool) {
	// dateparse panics on some malformed inputs.
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()

	parsed, err := dateparse.ParseIn(text, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
