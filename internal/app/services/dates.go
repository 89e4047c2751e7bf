package services

import "time"

const (
	displayLayout = "02/01/06, 15:04"
	invalidDate   = "Invalid Date"
)

// DateFormatter renders timestamps as dd/mm/yy, HH:MM in one time zone.
type DateFormatter struct {
	loc *time.Location
}

// NewDateFormatter returns a formatter for loc; nil means UTC.
func NewDateFormatter(loc *time.Location) DateFormatter {
	if loc == nil {
		loc = time.UTC
	}
	return DateFormatter{loc: loc}
}

// Format renders t, or "Invalid Date" for the zero time.
func (f DateFormatter) Format(t time.Time) string {
	if t.IsZero() {
		return invalidDate
	}
	loc := f.loc
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(displayLayout)
}
