package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNoDate is returned when no date can be found in a string.
var ErrNoDate = errors.New("no date found")

var (
	reISODate   = regexp.MustCompile(`(?:^|\D)(\d{4})[-./](\d{1,2})[-./](\d{1,2})(?:\D|$)`)
	reDayFirst  = regexp.MustCompile(`(?:^|\D)(\d{1,2})[./-](\d{1,2})[./-](\d{4}|\d{2})(?:\D|$)`)
	reMonthName = regexp.MustCompile(`(?i)(?:^|[^\pL\d])(\d{1,2})\s+(\pL+)\.?\s+(\d{4})`)
	reClock     = regexp.MustCompile(`(\d{1,2}):(\d{2})(?::(\d{2}))?`)
)

// monthNames maps lowercased month names and common abbreviations, Russian
// genitive and nominative forms included, to months.
var monthNames = map[string]time.Month{
	"января": time.January, "январь": time.January, "янв": time.January,
	"февраля": time.February, "февраль": time.February, "фев": time.February,
	"марта": time.March, "март": time.March, "мар": time.March,
	"апреля": time.April, "апрель": time.April, "апр": time.April,
	"мая": time.May, "май": time.May,
	"июня": time.June, "июнь": time.June, "июн": time.June,
	"июля": time.July, "июль": time.July, "июл": time.July,
	"августа": time.August, "август": time.August, "авг": time.August,
	"сентября": time.September, "сентябрь": time.September, "сен": time.September,
	"октября": time.October, "октябрь": time.October, "окт": time.October,
	"ноября": time.November, "ноябрь": time.November, "ноя": time.November,
	"декабря": time.December, "декабрь": time.December, "дек": time.December,
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// ParseDate finds the first date in s, ignoring surrounding text. Numeric
// dates are read day first (DD.MM.YYYY); ISO dates (YYYY-MM-DD) and
// "5 января 2023" style dates are also recognized. A clock time following the
// date is kept. Results are in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.ReplaceAll(s, "\u00a0", " ")

	re, loc := firstMatch(s, reISODate, reDayFirst, reMonthName)
	if loc == nil {
		return time.Time{}, fmt.Errorf("%w in %q", ErrNoDate, s)
	}

	var (
		y, m, d int
		err     error
	)
	switch re {
	case reISODate:
		y, m, d, err = atoi3(s[loc[2]:loc[3]], s[loc[4]:loc[5]], s[loc[6]:loc[7]])
	case reDayFirst:
		d, m, y, err = atoi3(s[loc[2]:loc[3]], s[loc[4]:loc[5]], s[loc[6]:loc[7]])
		if loc[7]-loc[6] == 2 {
			y += 2000
		}
	default:
		month, ok := monthNames[strings.ToLower(s[loc[4]:loc[5]])]
		if !ok {
			return time.Time{}, fmt.Errorf("%w in %q: unknown month %q", ErrNoDate, s, s[loc[4]:loc[5]])
		}
		m = int(month)
		d, _, y, err = atoi3(s[loc[2]:loc[3]], "0", s[loc[6]:loc[7]])
	}
	rest := s[loc[7]:]
	if err != nil {
		return time.Time{}, err
	}

	var hh, mm, ss int
	if c := reClock.FindStringSubmatch(rest); c != nil {
		hh, mm, ss, err = atoi3(c[1], c[2], orZero(c[3]))
		if err != nil {
			return time.Time{}, err
		}
		if hh > 23 || mm > 59 || ss > 59 {
			return time.Time{}, fmt.Errorf("invalid clock %q", c[0])
		}
	}

	t := time.Date(y, time.Month(m), d, hh, mm, ss, 0, time.UTC)
	// time.Date normalizes overflowing values (31.02 becomes 03.03); reject them.
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, fmt.Errorf("invalid date %02d.%02d.%04d", d, m, y)
	}
	return t, nil
}

// firstMatch returns the pattern whose match starts earliest in s, with its
// submatch indexes. Ties go to the pattern listed first.
func firstMatch(s string, patterns ...*regexp.Regexp) (*regexp.Regexp, []int) {
	var (
		best    *regexp.Regexp
		bestLoc []int
	)
	for _, re := range patterns {
		loc := re.FindStringSubmatchIndex(s)
		if loc != nil && (bestLoc == nil || loc[0] < bestLoc[0]) {
			best, bestLoc = re, loc
		}
	}
	return best, bestLoc
}

func atoi3(a, b, c string) (int, int, int, error) {
	x, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, 0, err
	}
	y, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, 0, err
	}
	z, err := strconv.Atoi(c)
	if err != nil {
		return 0, 0, 0, err
	}
	return x, y, z, nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
