// Package period parses and formats the hand-authored period labels used by the
// conversation fixture.
//
// Two label shapes exist:
//
//	daily   "Mon D, YY"  e.g. "Dec 26, 22" (weekly samples use their start day)
//	monthly "Mon YY"     e.g. "Dec 22"
//
// Granularity is inferred from the token count. Two-digit years below 50 map to
// 2000+YY, everything else to 1900+YY. The sales fixture uses a third shape,
// "Mon YYYY", handled by ParseSalesMonth.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed is returned for labels that do not denote a calendar date.
var ErrMalformed = errors.New("malformed period label")

// Granularity is the time-bucket size of a series.
type Granularity int

const (
	Daily Granularity = iota
	Weekly
	Monthly
)

// String returns the config/query spelling of the granularity.
func (g Granularity) String() string {
	switch g {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// ParseGranularity accepts "daily", "weekly" or "monthly" (case-insensitive).
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	default:
		return Daily, fmt.Errorf("unknown granularity %q: must be daily, weekly or monthly", s)
	}
}

const (
	dailyLayout      = "Jan 2, 06"
	monthlyLayout    = "Jan 06"
	salesMonthLayout = "Jan 2006"
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Parse returns the calendar date a label denotes and the granularity inferred
// from its token count. Monthly labels resolve to the first of the month.
func Parse(label string) (time.Time, Granularity, error) {
	tokens := strings.Fields(label)
	switch len(tokens) {
	case 3:
		month, err := parseMonth(tokens[0])
		if err != nil {
			return time.Time{}, Daily, malformed(label, err)
		}
		dayToken := strings.TrimSuffix(tokens[1], ",")
		day, err := strconv.Atoi(dayToken)
		if err != nil || day < 1 || day > 31 {
			return time.Time{}, Daily, malformed(label, fmt.Errorf("bad day %q", tokens[1]))
		}
		year, err := parseShortYear(tokens[2])
		if err != nil {
			return time.Time{}, Daily, malformed(label, err)
		}
		t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		// time.Date normalizes Feb 30 into March; reject instead.
		if t.Day() != day || t.Month() != month {
			return time.Time{}, Daily, malformed(label, fmt.Errorf("day %d out of range for %s", day, month))
		}
		return t, Daily, nil
	case 2:
		month, err := parseMonth(tokens[0])
		if err != nil {
			return time.Time{}, Monthly, malformed(label, err)
		}
		year, err := parseShortYear(tokens[1])
		if err != nil {
			return time.Time{}, Monthly, malformed(label, err)
		}
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), Monthly, nil
	default:
		return time.Time{}, Daily, malformed(label, fmt.Errorf("expected 2 or 3 tokens, got %d", len(tokens)))
	}
}

// ParseSalesMonth parses the "Mon YYYY" labels of the sales fixture.
func ParseSalesMonth(label string) (time.Time, error) {
	tokens := strings.Fields(label)
	if len(tokens) != 2 {
		return time.Time{}, malformed(label, fmt.Errorf("expected 2 tokens, got %d", len(tokens)))
	}
	month, err := parseMonth(tokens[0])
	if err != nil {
		return time.Time{}, malformed(label, err)
	}
	if len(tokens[1]) != 4 {
		return time.Time{}, malformed(label, fmt.Errorf("bad year %q", tokens[1]))
	}
	year, err := strconv.Atoi(tokens[1])
	if err != nil {
		return time.Time{}, malformed(label, fmt.Errorf("bad year %q", tokens[1]))
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), nil
}

// FormatDaily renders t as "Mon D, YY".
func FormatDaily(t time.Time) string {
	return t.Format(dailyLayout)
}

// FormatMonthly renders t as "Mon YY".
func FormatMonthly(t time.Time) string {
	return t.Format(monthlyLayout)
}

// FormatSalesMonth renders t as "Mon YYYY".
func FormatSalesMonth(t time.Time) string {
	return t.Format(salesMonthLayout)
}

// Format renders t at granularity g. Weekly periods are labelled by their start day.
func Format(t time.Time, g Granularity) string {
	if g == Monthly {
		return FormatMonthly(t)
	}
	return FormatDaily(t)
}

// Start returns the first day of the g-sized bucket containing t: the day
// itself, the Monday of its ISO week, or the first of its month.
func Start(t time.Time, g Granularity) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch g {
	case Weekly:
		// time.Weekday counts from Sunday; ISO weeks start on Monday.
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case Monthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

func parseMonth(token string) (time.Month, error) {
	m, ok := months[strings.ToLower(token)]
	if !ok {
		return 0, fmt.Errorf("unknown month %q", token)
	}
	return m, nil
}

func parseShortYear(token string) (int, error) {
	if len(token) != 2 {
		return 0, fmt.Errorf("bad year %q", token)
	}
	yy, err := strconv.Atoi(token)
	if err != nil || yy < 0 {
		return 0, fmt.Errorf("bad year %q", token)
	}
	if yy < 50 {
		return 2000 + yy, nil
	}
	return 1900 + yy, nil
}

func malformed(label string, cause error) error {
	return fmt.Errorf("%w %q: %v", ErrMalformed, label, cause)
}
