package scheduling

import "time"

// DateLayout is the calendar date format used for booking dates.
const DateLayout = "2006-01-02"

// StatusCancelled marks a booking that no longer occupies its slot.
const StatusCancelled = "cancelled"

var validStatuses = map[string]bool{
	"pending": true, "confirmed": true, "in-progress": true,
	"completed": true, StatusCancelled: true, "no-show": true,
}

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s string) bool { return validStatuses[s] }

// WeeklySlot maps to the doctor_availability table: one recurring window on
// a day of the week (0 = Sunday).
type WeeklySlot struct {
	ID          string `db:"id" json:"id"`
	DoctorID    string `db:"doctor_id" json:"doctor_id"`
	DayOfWeek   int    `db:"day_of_week" json:"day_of_week"`
	StartTime   string `db:"start_time" json:"start_time"`
	EndTime     string `db:"end_time" json:"end_time"`
	IsAvailable bool   `db:"is_available" json:"is_available"`
}

// Booking maps to the appointments table.
type Booking struct {
	ID        string    `db:"id" json:"id"`
	DoctorID  string    `db:"doctor_id" json:"doctor_id"`
	PatientID string    `db:"patient_id" json:"patient_id"`
	Date      string    `db:"date" json:"date"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Status    string    `db:"status" json:"status"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ResolvedSlot is a weekly slot that is still bookable on a given date.
type ResolvedSlot struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}
