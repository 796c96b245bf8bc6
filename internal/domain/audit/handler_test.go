package audit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/telecare/telecare/internal/platform/auth"
)

type mockRepo struct {
	entries []*Entry
	err     error
}

func (m *mockRepo) Insert(_ context.Context, e *Entry) error {
	if m.err != nil {
		return m.err
	}
	e.ID = "log-1"
	e.AccessedAt = time.Now()
	m.entries = append(m.entries, e)
	return nil
}

const validBody = `{"recordType":"medical_record","recordId":"rec-9","action":"view","userId":"user-1"}`

func runLog(t *testing.T, repo *mockRepo, caller, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/audit/log-data-access", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("User-Agent", "telecare-web/1.0")
	if caller != "" {
		req = req.WithContext(auth.WithSession(req.Context(), caller, auth.RolePatient))
	}
	rec := httptest.NewRecorder()
	h := NewHandler(NewService(repo, zerolog.Nop()))
	return rec, h.LogDataAccess(e.NewContext(req, rec))
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Errorf("expected %d, got %d", code, he.Code)
	}
}

func TestHandler_LogDataAccess(t *testing.T) {
	repo := &mockRepo{}
	rec, err := runLog(t, repo, "user-1", validBody)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	got := repo.entries[0]
	if got.UserID != "user-1" || got.RecordType != "medical_record" || got.RecordID != "rec-9" || got.Action != "view" {
		t.Errorf("unexpected entry: %+v", got)
	}
	if got.UserAgent != "telecare-web/1.0" || got.IPAddress == "" {
		t.Errorf("expected request metadata, got %+v", got)
	}
}

func TestHandler_LogDataAccess_WriteFailureSwallowed(t *testing.T) {
	repo := &mockRepo{err: errors.New("insert failed")}
	rec, err := runLog(t, repo, "user-1", validBody)
	if err != nil {
		t.Fatalf("expected write failure to be swallowed, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_LogDataAccess_CheckOrder(t *testing.T) {
	tests := []struct {
		name   string
		caller string
		body   string
		code   int
	}{
		{"unauthenticated with bad body", "", `{}`, http.StatusUnauthorized},
		{"unauthenticated", "", validBody, http.StatusUnauthorized},
		{"missing fields before mismatch", "user-2", `{"recordType":"x","userId":"user-1"}`, http.StatusBadRequest},
		{"malformed body", "user-1", `{"recordType":`, http.StatusBadRequest},
		{"other user", "user-2", validBody, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			_, err := runLog(t, repo, tt.caller, tt.body)
			expectHTTPError(t, err, tt.code)
			if len(repo.entries) != 0 {
				t.Error("expected nothing to be written")
			}
		})
	}
}
