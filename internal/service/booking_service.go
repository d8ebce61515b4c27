package service

import (
	"time"

	"github.com/GTDGit/gtd_visa/internal/deadline"
	"github.com/GTDGit/gtd_visa/internal/models"
)

// BookingUrgency is the deadline assessment of one booking row. Error is set
// instead of the assessment when the row could not be evaluated.
type BookingUrgency struct {
	BookingID string `json:"bookingId"`
	*deadline.Assessment
	Error string `json:"error,omitempty"`
}

// BookingService computes submission deadlines for booking lists.
type BookingService struct {
	loc        *time.Location
	bufferDays int
	now        func() time.Time
}

// NewBookingService constructs a BookingService.
func NewBookingService(loc *time.Location, bufferDays int) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{loc: loc, bufferDays: bufferDays, now: time.Now}
}

// Urgency evaluates every row against the same business day. Rows are
// independent: a bad date fails only its own row.
func (s *BookingService) Urgency(rows []models.BookingDeadlineInput) []BookingUrgency {
	today := deadline.Midnight(s.now().In(s.loc))
	out := make([]BookingUrgency, 0, len(rows))
	for _, row := range rows {
		res := BookingUrgency{BookingID: row.BookingID}
		dep, err := deadline.ParseDate(row.DepartureDate, s.loc)
		if err != nil {
			res.Error = err.Error()
			out = append(out, res)
			continue
		}
		buffer, err := resolveBuffer(row.BufferDays, s.bufferDays)
		if err != nil {
			res.Error = err.Error()
			out = append(out, res)
			continue
		}
		a := deadline.Evaluate(dep, row.ProcessingTimeDays, buffer, today)
		res.Assessment = &a
		out = append(out, res)
	}
	return out
}
