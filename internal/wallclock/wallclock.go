// Package wallclock provides zone-less date and time types for the
// scheduling engine. All arithmetic is plain wall-clock math: no UTC
// conversion, no DST adjustment. Values convert to and from zoned
// time.Time only at storage and transport boundaries.
package wallclock

import (
	"fmt"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	bucketLayout   = "2006-01-02 15:04"
)

// BucketMinutes is the occupancy granularity used across the engine.
const BucketMinutes = 5

// Date is a calendar date with no time component.
type Date struct {
	t time.Time // midnight, location fixed to UTC as a neutral carrier
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// NewDate builds a Date from components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf extracts the calendar date from any time.Time, ignoring its zone.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) String() string { return d.t.Format(DateLayout) }

// Time returns the carrier value (midnight). For storage layers writing
// `date` columns.
func (d Date) Time() time.Time { return d.t }
func (d Date) IsZero() bool       { return d.t.IsZero() }
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// At combines the date with a clock time into a DateTime.
func (d Date) At(c ClockTime) DateTime {
	return DateTime{t: d.t.Add(time.Duration(c) * time.Second)}
}

// ClockTime is a time of day expressed as seconds since midnight.
type ClockTime int

// ParseClockTime parses HH:mm:ss (seconds optional).
func ParseClockTime(s string) (ClockTime, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ClockTime(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
		}
	}
	return 0, fmt.Errorf("parse clock time %q: invalid format", s)
}

// NewClockTime builds a ClockTime from hour/minute.
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*3600 + minute*60)
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(c)/3600, int(c)%3600/60, int(c)%60)
}

// DateTime is a wall-clock timestamp with no zone attached.
type DateTime struct {
	t time.Time
}

// ParseDateTime parses "YYYY-MM-DD HH:mm:ss".
func ParseDateTime(s string) (DateTime, error) {
	t, err := time.ParseInLocation(DateTimeLayout, s, time.UTC)
	if err != nil {
		return DateTime{}, fmt.Errorf("parse datetime %q: %w", s, err)
	}
	return DateTime{t: t}, nil
}

// FromTime strips the zone from a time.Time, keeping its wall-clock reading.
func FromTime(t time.Time) DateTime {
	return DateTime{t: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
}

func (dt DateTime) String() string { return dt.t.Format(DateTimeLayout) }
func (dt DateTime) IsZero() bool   { return dt.t.IsZero() }

// Time returns the underlying carrier value. Intended for storage layers
// writing `timestamp without time zone` columns; the zone it carries is
// meaningless.
func (dt DateTime) Time() time.Time { return dt.t }

func (dt DateTime) Date() Date { return DateOf(dt.t) }

func (dt DateTime) Clock() ClockTime {
	return ClockTime(dt.t.Hour()*3600 + dt.t.Minute()*60 + dt.t.Second())
}

func (dt DateTime) AddMinutes(n int) DateTime {
	return DateTime{t: dt.t.Add(time.Duration(n) * time.Minute)}
}

func (dt DateTime) Before(o DateTime) bool { return dt.t.Before(o.t) }
func (dt DateTime) After(o DateTime) bool  { return dt.t.After(o.t) }
func (dt DateTime) Equal(o DateTime) bool  { return dt.t.Equal(o.t) }

// BucketKey returns the occupancy-bucket identifier containing dt,
// truncated to the 5-minute grid.
func (dt DateTime) BucketKey() string {
	return dt.t.Truncate(time.Duration(BucketMinutes) * time.Minute).Format(bucketLayout)
}
