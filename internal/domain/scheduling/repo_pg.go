package scheduling

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/telecare/telecare/internal/platform/db"
)

// =========== Weekly Slot Repository ===========

type weeklySlotRepoPG struct{ q db.Querier }

func NewWeeklySlotRepoPG(q db.Querier) WeeklySlotRepository { return &weeklySlotRepoPG{q: q} }

const weeklySlotCols = `id::text, doctor_id::text, day_of_week, start_time::text, end_time::text, is_available`

func scanWeeklySlot(row pgx.Row) (WeeklySlot, error) {
	var s WeeklySlot
	err := row.Scan(&s.ID, &s.DoctorID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.IsAvailable)
	return s, err
}

func (r *weeklySlotRepoPG) ListWeeklySlots(ctx context.Context, doctorID string, dayOfWeek int, availableOnly bool) ([]WeeklySlot, error) {
	query := `SELECT ` + weeklySlotCols + ` FROM doctor_availability
		WHERE doctor_id = $1 AND day_of_week = $2`
	if availableOnly {
		query += ` AND is_available = TRUE`
	}
	query += ` ORDER BY start_time ASC`

	rows, err := r.q.Query(ctx, query, doctorID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []WeeklySlot
	for rows.Next() {
		s, err := scanWeeklySlot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// =========== Booking Repository ===========

type bookingRepoPG struct{ q db.Querier }

func NewBookingRepoPG(q db.Querier) BookingRepository { return &bookingRepoPG{q: q} }

const bookingCols = `id::text, doctor_id::text, patient_id::text, date::text, start_time::text, end_time::text,
	status, notes, updated_at`

func scanBooking(row pgx.Row) (Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.DoctorID, &b.PatientID, &b.Date, &b.StartTime, &b.EndTime,
		&b.Status, &b.Notes, &b.UpdatedAt)
	return b, err
}

func (r *bookingRepoPG) ListBookings(ctx context.Context, doctorID string, date, excludeStatus string) ([]Booking, error) {
	rows, err := r.q.Query(ctx, `SELECT `+bookingCols+` FROM appointments
		WHERE doctor_id = $1 AND date = $2::date AND status <> $3`,
		doctorID, date, excludeStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (r *bookingRepoPG) UpdateStatus(ctx context.Context, id string, status string, notes *string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE appointments SET status = $2, notes = COALESCE($3, notes), updated_at = NOW()
		WHERE id = $1`,
		id, status, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}
