package scheduling

import "context"

type WeeklySlotRepository interface {
	// ListWeeklySlots returns the doctor's template for dayOfWeek ordered by
	// start time ascending.
	ListWeeklySlots(ctx context.Context, doctorID string, dayOfWeek int, availableOnly bool) ([]WeeklySlot, error)
}

type BookingRepository interface {
	// ListBookings returns the doctor's bookings on date (YYYY-MM-DD) whose
	// status is not excludeStatus.
	ListBookings(ctx context.Context, doctorID string, date, excludeStatus string) ([]Booking, error)
	// UpdateStatus sets status and, when notes is non-nil, notes. It returns
	// ErrAppointmentNotFound when no row matches.
	UpdateStatus(ctx context.Context, id string, status string, notes *string) error
}
