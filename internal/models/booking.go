package models

// BookingDeadlineInput is the slice of a booking row needed for urgency.
// BufferDays nil means the configured default.
type BookingDeadlineInput struct {
	BookingID          string `json:"bookingId"`
	DepartureDate      string `json:"departureDate"`
	ProcessingTimeDays int    `json:"processingTimeDays"`
	BufferDays         *int   `json:"bufferDays"`
}
