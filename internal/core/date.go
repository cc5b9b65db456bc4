package core

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const (
	isoLayout = "2006-01-02"
)

// dayMonthYearLayouts are tried in order when parsing imported dates.
var dayMonthYearLayouts = []string{"02/01/2006", "2/1/2006", "02-01-2006", "2-1-2006"}

// Date is a calendar day, normalized to midnight UTC.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month and day. Out of range values
// are normalized the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseISODate parses a YYYY-MM-DD date.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse(isoLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// ParseDayMonthYear parses a day/month/year date such as "05/03/2025".
func ParseDayMonthYear(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dayMonthYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(isoLayout)
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month0 returns the zero-based month (January = 0).
func (d Date) Month0() int {
	return int(d.Time.Month()) - 1
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Equal reports whether both dates denote the same day.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes "YYYY-MM-DD" (or day/month/year as a fallback).
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	parsed, err := ParseISODate(s)
	if err != nil {
		parsed, err = ParseDayMonthYear(s)
		if err != nil {
			return err
		}
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner for DATE and TEXT columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}

func (d *Date) scanString(s string) error {
	// SQLite may hand back a full timestamp for values written by other tools.
	if len(s) > len(isoLayout) {
		s = s[:len(isoLayout)]
	}
	parsed, err := ParseISODate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysIn returns the number of days of the zero-based month in year.
func DaysIn(year, month0 int) int {
	return time.Date(year, time.Month(month0+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthRange returns the half-open range [first day, first day of next month).
func MonthRange(year, month0 int) (from, to Date) {
	from = NewDate(year, time.Month(month0+1), 1)
	to = NewDate(year, time.Month(month0+2), 1)
	return from, to
}

// ValidateMonth0 checks a zero-based month index.
func ValidateMonth0(month0 int) error {
	if month0 < 0 || month0 > 11 {
		return ErrInvalidMonth
	}
	return nil
}
