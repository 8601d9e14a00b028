// Package core provides the domain types shared across the application:
// the civil date value type, order and cashflow rows, and the numeric
// helpers the aggregation engine relies on.
//
// A CivilDate is a calendar date (year, month, day) with no time-of-day and
// no timezone. All date arithmetic converts to a UTC instant only internally,
// so grid building and period shifting can never drift across DST boundaries
// the way local-time math does.
package core

import (
	"errors"
	"fmt"
	"time"
)

// CivilDate is a plain calendar date. The zero value is "no date".
type CivilDate struct {
	Year  int
	Month int // 1-12
	Day   int // 1-31
}

var ErrInvalidDate = errors.New("invalid date")

// NewCivilDate builds a date, normalizing overflow the way time.Date does
// (e.g. March 0 becomes the last day of February).
func NewCivilDate(year, month, day int) CivilDate {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return CivilDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// ParseCivilDate parses an ISO date (YYYY-MM-DD).
func ParseCivilDate(s string) (CivilDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return CivilDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return CivilDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

// CivilDateOf truncates an instant to its UTC calendar date.
func CivilDateOf(t time.Time) CivilDate {
	u := t.UTC()
	return CivilDate{Year: u.Year(), Month: int(u.Month()), Day: u.Day()}
}

func (d CivilDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d CivilDate) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return ErrInvalidDate
	}
	// Reject non-normalized dates such as February 30.
	if NewCivilDate(d.Year, d.Month, d.Day) != d {
		return ErrInvalidDate
	}
	return nil
}

// UTC returns the midnight instant of the date in UTC. This is the only
// bridge between civil dates and instants.
func (d CivilDate) UTC() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats the date as ISO YYYY-MM-DD.
func (d CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// AddDays shifts the date by n calendar days (n may be negative).
func (d CivilDate) AddDays(n int) CivilDate {
	return CivilDateOf(d.UTC().AddDate(0, 0, n))
}

// Weekday returns the day of the week.
func (d CivilDate) Weekday() time.Weekday {
	return d.UTC().Weekday()
}

// Compare orders two dates chronologically (-1, 0, +1).
func (d CivilDate) Compare(o CivilDate) int {
	return d.UTC().Compare(o.UTC())
}

func (d CivilDate) Before(o CivilDate) bool { return d.Compare(o) < 0 }
func (d CivilDate) After(o CivilDate) bool  { return d.Compare(o) > 0 }

// MonthKey returns the YYYY-MM prefix, YearKey the YYYY prefix.
func (d CivilDate) MonthKey() string { return d.String()[:7] }
func (d CivilDate) YearKey() string  { return d.String()[:4] }

// DaysInclusive counts the days in [start, end], both ends included.
// DaysInclusive(d, d) is 1. Reversed bounds count as a single day window.
func DaysInclusive(start, end CivilDate) int {
	days := int(end.UTC().Sub(start.UTC()) / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	return days + 1
}

// MarshalJSON encodes the date as an ISO string.
func (d CivilDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes an ISO date string.
func (d *CivilDate) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(data))
	}
	parsed, err := ParseCivilDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
