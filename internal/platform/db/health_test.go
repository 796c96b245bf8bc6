package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestBuildHealthReport(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	applied := MigrationStatus{Version: 1, Name: "001_identity.sql", Applied: true, AppliedAt: &at}
	pending := MigrationStatus{Version: 2, Name: "002_scheduling.sql"}

	tests := []struct {
		name        string
		pingErr     error
		statuses    []MigrationStatus
		statusErr   error
		wantCode    int
		wantStatus  string
		wantApplied int
		wantPending int
	}{
		{"all applied", nil, []MigrationStatus{applied}, nil, http.StatusOK, "healthy", 1, 0},
		{"pending migration", nil, []MigrationStatus{applied, pending}, nil, http.StatusOK, "degraded", 1, 1},
		{"status unreadable", nil, nil, errors.New("permission denied"), http.StatusOK, "degraded", 0, 0},
		{"ping failed", errors.New("connection refused"), nil, nil, http.StatusServiceUnavailable, "unhealthy", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, report := BuildHealthReport(tt.pingErr, PoolStats{MaxConns: 20}, tt.statuses, tt.statusErr)
			if code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, code)
			}
			if report.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, report.Status)
			}
			if report.Schema.Applied != tt.wantApplied || report.Schema.Pending != tt.wantPending {
				t.Errorf("unexpected schema counts: %+v", report.Schema)
			}
			if report.Pool.MaxConns != 20 {
				t.Errorf("expected pool stats carried through, got %+v", report.Pool)
			}
			if tt.pingErr != nil && report.Error != tt.pingErr.Error() {
				t.Errorf("expected ping error in report, got %q", report.Error)
			}
			if tt.statusErr != nil && report.Schema.Error != tt.statusErr.Error() {
				t.Errorf("expected schema error in report, got %q", report.Schema.Error)
			}
		})
	}
}

func TestHealthReport_JSON(t *testing.T) {
	_, report := BuildHealthReport(nil, PoolStats{TotalConns: 1, CanceledAcquires: 3}, nil, nil)
	b, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	pool, _ := m["pool"].(map[string]interface{})
	for _, k := range []string{"total_conns", "idle_conns", "acquired_conns", "max_conns", "acquire_count", "empty_acquires", "canceled_acquires", "acquire_duration"} {
		if _, ok := pool[k]; !ok {
			t.Errorf("expected pool key %q in %s", k, b)
		}
	}
	if _, ok := m["schema"]; !ok {
		t.Errorf("expected schema in %s", b)
	}
	if _, ok := m["error"]; ok {
		t.Errorf("expected no error key on healthy report, got %s", b)
	}
}

func TestUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505"}
	if !UniqueViolation(dup) {
		t.Error("expected 23505 to be a unique violation")
	}
	if !UniqueViolation(fmt.Errorf("insert identity: %w", dup)) {
		t.Error("expected wrapped 23505 to be a unique violation")
	}
	if UniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("expected foreign key violation not to match")
	}
	if UniqueViolation(errors.New("boom")) {
		t.Error("expected plain error not to match")
	}
}
