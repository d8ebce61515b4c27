// Package deadline derives visa submission deadlines from departure dates and
// classifies how urgent a booking is. All functions are pure and operate on
// calendar dates: inputs are normalized to midnight in their own location.
package deadline

import (
	"fmt"
	"strings"
	"time"
)

// DefaultBufferDays is the safety margin kept between the end of visa
// processing and the departure date.
const DefaultBufferDays = 7

// Level is the urgency band of a booking.
type Level string

const (
	LevelOverdue     Level = "overdue"
	LevelCritical    Level = "critical"
	LevelUrgent      Level = "urgent"
	LevelNormal      Level = "normal"
	LevelComfortable Level = "comfortable"
)

// Assessment bundles all deadline figures for one booking row.
type Assessment struct {
	DepartureDate      time.Time `json:"departureDate"`
	Deadline           time.Time `json:"deadline"`
	DaysUntilDeadline  int       `json:"daysUntilDeadline"`
	DaysUntilDeparture int       `json:"daysUntilDeparture"`
	Urgency            Level     `json:"urgency"`
}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SubmissionDeadline returns departure minus (processingDays + bufferDays)
// calendar days. Negative totals are not rejected: they yield a deadline after
// departure, which surfaces as an urgency signal rather than an error.
func SubmissionDeadline(departure time.Time, processingDays, bufferDays int) time.Time {
	return Midnight(departure).AddDate(0, 0, -(processingDays + bufferDays))
}

// Classify maps a day difference to its urgency band. First match wins.
func Classify(diffDays int) Level {
	switch {
	case diffDays < 0:
		return LevelOverdue
	case diffDays <= 3:
		return LevelCritical
	case diffDays <= 7:
		return LevelUrgent
	case diffDays <= 14:
		return LevelNormal
	default:
		return LevelComfortable
	}
}

// UrgencyAt classifies a booking relative to the given day.
func UrgencyAt(departure time.Time, processingDays, bufferDays int, today time.Time) Level {
	deadline := SubmissionDeadline(departure, processingDays, bufferDays)
	return Classify(DaysBetween(today, deadline))
}

// Urgency classifies a booking relative to the current day, using the
// default buffer.
func Urgency(departure time.Time, processingDays int) Level {
	return UrgencyAt(departure, processingDays, DefaultBufferDays, time.Now().In(departure.Location()))
}

// DaysUntilDepartureAt returns the calendar days from today to departure.
// The result is negative once departure has passed.
func DaysUntilDepartureAt(departure, today time.Time) int {
	return DaysBetween(today, departure)
}

// DaysUntilDeparture is DaysUntilDepartureAt relative to now.
func DaysUntilDeparture(departure time.Time) int {
	return DaysUntilDepartureAt(departure, time.Now().In(departure.Location()))
}

// Evaluate computes every deadline figure for one booking row.
func Evaluate(departure time.Time, processingDays, bufferDays int, today time.Time) Assessment {
	deadline := SubmissionDeadline(departure, processingDays, bufferDays)
	diff := DaysBetween(today, deadline)
	return Assessment{
		DepartureDate:      Midnight(departure),
		Deadline:           deadline,
		DaysUntilDeadline:  diff,
		DaysUntilDeparture: DaysBetween(today, departure),
		Urgency:            Classify(diff),
	}
}

// DaysBetween counts calendar days from a to b using each value's own
// calendar date, so DST shifts and time-of-day never change the count.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// ParseDate parses a date-only string (YYYY-MM-DD) or an RFC3339 timestamp
// into midnight of that calendar date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Midnight(t.In(loc)), nil
}
