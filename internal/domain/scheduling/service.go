package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// defaultQueryTimeout bounds each backend read when no timeout is configured.
const defaultQueryTimeout = 5 * time.Second

type Service struct {
	slots        WeeklySlotRepository
	bookings     BookingRepository
	queryTimeout time.Duration
	metrics      *Metrics
	logger       zerolog.Logger
}

func NewService(slots WeeklySlotRepository, bookings BookingRepository, queryTimeout time.Duration, logger zerolog.Logger) *Service {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &Service{
		slots:        slots,
		bookings:     bookings,
		queryTimeout: queryTimeout,
		logger:       logger.With().Str("component", "scheduling").Logger(),
	}
}

// SetMetrics attaches lookup metrics to the service.
func (s *Service) SetMetrics(m *Metrics) {
	s.metrics = m
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// AvailableSlots returns the doctor's weekly slots for the weekday of date
// that no non-cancelled booking on that date starts at, ordered by start
// time. The bookings read is only issued after the template read succeeds,
// and either failure aborts the call.
func (s *Service) AvailableSlots(ctx context.Context, doctorID, date string) ([]ResolvedSlot, error) {
	if doctorID == "" || date == "" {
		s.metrics.observe("invalid", 0)
		return nil, &ValidationError{Message: "Doctor ID and date are required"}
	}
	day, err := ParseDate(date)
	if err != nil {
		s.metrics.observe("invalid", 0)
		return nil, &ValidationError{Message: "invalid date, expected YYYY-MM-DD"}
	}
	dayOfWeek := int(day.Weekday())

	slots, err := s.listWeeklySlots(ctx, doctorID, dayOfWeek)
	if err != nil {
		s.metrics.observe("upstream_error", 0)
		return nil, err
	}

	bookings, err := s.listBookings(ctx, doctorID, day.Format(DateLayout))
	if err != nil {
		s.metrics.observe("upstream_error", 0)
		return nil, err
	}

	resolved := ResolveAvailable(slots, bookings)
	s.metrics.observe("ok", len(resolved))
	s.logger.Debug().
		Str("doctor_id", doctorID).
		Str("date", day.Format(DateLayout)).
		Int("template", len(slots)).
		Int("booked", len(bookings)).
		Int("available", len(resolved)).
		Msg("resolved available slots")
	return resolved, nil
}

func (s *Service) listWeeklySlots(ctx context.Context, doctorID string, dayOfWeek int) ([]WeeklySlot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	slots, err := s.slots.ListWeeklySlots(ctx, doctorID, dayOfWeek, true)
	if err != nil {
		return nil, &UpstreamQueryError{Op: "list weekly slots", Err: err}
	}
	return slots, nil
}

func (s *Service) listBookings(ctx context.Context, doctorID string, date string) ([]Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	bookings, err := s.bookings.ListBookings(ctx, doctorID, date, StatusCancelled)
	if err != nil {
		return nil, &UpstreamQueryError{Op: "list bookings", Err: err}
	}
	return bookings, nil
}

// UpdateStatus changes one appointment's status and optionally its notes.
func (s *Service) UpdateStatus(ctx context.Context, appointmentID, status string, notes *string) error {
	if appointmentID == "" || status == "" {
		return &ValidationError{Message: "Appointment ID and status are required"}
	}
	if !ValidStatus(status) {
		return &ValidationError{Message: "invalid appointment status: " + status}
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := s.bookings.UpdateStatus(ctx, appointmentID, status, notes); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return &UpstreamQueryError{Op: "update appointment status", Err: err}
	}

	s.logger.Info().
		Str("appointment_id", appointmentID).
		Str("status", status).
		Msg("appointment status updated")
	return nil
}
