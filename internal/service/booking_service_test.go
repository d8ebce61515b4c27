package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_visa/internal/deadline"
	"github.com/GTDGit/gtd_visa/internal/models"
)

func TestBookingUrgency(t *testing.T) {
	svc := NewBookingService(wib, 7)
	svc.now = func() time.Time { return fixedNow }

	zero, neg := 0, -2
	rows := svc.Urgency([]models.BookingDeadlineInput{
		{BookingID: "b1", DepartureDate: "2025-06-20", ProcessingTimeDays: 5},
		{BookingID: "b2", DepartureDate: "2025-06-05", ProcessingTimeDays: 3},
		{BookingID: "b3", DepartureDate: "2025-08-01", ProcessingTimeDays: 5, BufferDays: &zero},
		{BookingID: "b4", DepartureDate: "next week"},
		{BookingID: "b5", DepartureDate: "2025-06-20", BufferDays: &neg},
	})
	require.Len(t, rows, 5)

	assert.Equal(t, deadline.LevelUrgent, rows[0].Urgency)
	assert.Equal(t, 7, rows[0].DaysUntilDeadline)
	assert.Equal(t, 19, rows[0].DaysUntilDeparture)

	assert.Equal(t, deadline.LevelOverdue, rows[1].Urgency)
	assert.Equal(t, deadline.LevelComfortable, rows[2].Urgency)

	assert.Nil(t, rows[3].Assessment)
	assert.NotEmpty(t, rows[3].Error)
	assert.Nil(t, rows[4].Assessment)
	assert.NotEmpty(t, rows[4].Error)
	assert.Equal(t, "b5", rows[4].BookingID)
}
