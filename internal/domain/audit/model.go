package audit

import "time"

// Entry maps to the data_access_logs table.
type Entry struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	RecordType string    `db:"record_type" json:"record_type"`
	RecordID   string    `db:"record_id" json:"record_id"`
	Action     string    `db:"action" json:"action"`
	IPAddress  string    `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent  string    `db:"user_agent" json:"user_agent,omitempty"`
	AccessedAt time.Time `db:"accessed_at" json:"accessed_at"`
}
