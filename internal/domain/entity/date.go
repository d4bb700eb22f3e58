package entity

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// Date is a calendar date held as UTC midnight
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in t's location and re-anchors it at UTC midnight
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// MustParseDate is ParseDate for literals
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Today returns the current UTC calendar date
func Today(now time.Time) Date {
	return NewDate(now.UTC())
}

// AddDays returns the date n days later
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// Before reports whether d is strictly earlier than o
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// After reports whether d is strictly later than o
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(`"`+DateLayout+`"`, s)
	if err != nil {
		return err
	}
	*d = Date{t}
	return nil
}

// DateWindow is an inclusive range of calendar dates
type DateWindow struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Validate rejects empty or inverted windows
func (w DateWindow) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return &ValidationError{Field: "dateWindow", Reason: "start and end are required"}
	}
	if w.End.Before(w.Start) {
		return &ValidationError{Field: "endDate", Reason: "endDate must not be before startDate"}
	}
	return nil
}

// Contains reports whether d falls inside the window, inclusive on both ends
func (w DateWindow) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Covers reports whether o lies entirely inside w
func (w DateWindow) Covers(o DateWindow) bool {
	return w.Contains(o.Start) && w.Contains(o.End)
}

// Days lists every date in the window in order
func (w DateWindow) Days() []Date {
	var days []Date
	for d := w.Start; !d.After(w.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

func (w DateWindow) String() string {
	return w.Start.String() + ".." + w.End.String()
}
