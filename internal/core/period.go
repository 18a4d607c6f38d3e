package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// Period is the bucket granularity used when grouping records.
type Period string

var ErrInvalidPeriod = errors.New("invalid period")

// ParsePeriod accepts daily, weekly or monthly (case-insensitive). An empty
// string selects Monthly.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return Monthly, nil
	case Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

func (p Period) String() string {
	return string(p)
}

// BucketKey returns the bucket a date falls into for the period. The boolean
// is false when the date cannot be parsed for weekly or monthly grouping;
// daily grouping uses the date string verbatim and always succeeds.
func BucketKey(date string, p Period) (string, bool) {
	if p == Daily {
		return date, true
	}
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", false
	}
	switch p {
	case Weekly:
		return fmt.Sprintf("%d-W%d", t.Year(), weekOfYear(t)), true
	case Monthly:
		return fmt.Sprintf("%d-%d", t.Year(), int(t.Month())), true
	default:
		return "", false
	}
}

// weekOfYear is ceil((daysSinceJan1 + jan1Weekday + 1) / 7) with Sunday as
// weekday 0. This is not ISO-8601 week numbering; stored bucket keys depend
// on it staying this way.
func weekOfYear(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := t.YearDay() - 1
	n := days + int(jan1.Weekday()) + 1
	return (n + 6) / 7
}
