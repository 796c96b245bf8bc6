package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler(slots *mockSlotRepo, bookings *mockBookingRepo) (*Handler, *echo.Echo) {
	h := NewHandler(newTestService(slots, bookings))
	e := echo.New()
	return h, e
}

func expectHTTPError(t *testing.T, err error, code int) *echo.HTTPError {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Errorf("expected %d, got %d", code, he.Code)
	}
	return he
}

func TestHandler_AvailableSlots(t *testing.T) {
	bookings := newMockBookingRepo(Booking{ID: "a1", DoctorID: "doc1", Date: "2024-01-01", StartTime: "09:00", Status: "confirmed"})
	h, e := newTestHandler(doc1Slots(), bookings)

	req := httptest.NewRequest(http.MethodGet, "/appointments/available-slots?doctorId=doc1&date=2024-01-01", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.AvailableSlots(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var body struct {
		TimeSlots []ResolvedSlot `json:"time_slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.TimeSlots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(body.TimeSlots))
	}
	got := body.TimeSlots[0]
	if got.ID != "s2" || got.StartTime != "09:30" || got.EndTime != "10:00" || !got.Available {
		t.Errorf("unexpected slot: %+v", got)
	}
}

func TestHandler_AvailableSlots_EmptyIsArray(t *testing.T) {
	h, e := newTestHandler(doc1Slots(), newMockBookingRepo())

	req := httptest.NewRequest(http.MethodGet, "/appointments/available-slots?doctorId=doc1&date=2024-01-02", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.AvailableSlots(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"time_slots":[]`) {
		t.Errorf("expected empty time_slots array, got %s", rec.Body.String())
	}
}

func TestHandler_AvailableSlots_MissingParams(t *testing.T) {
	h, e := newTestHandler(doc1Slots(), newMockBookingRepo())

	for _, target := range []string{
		"/appointments/available-slots?date=2024-01-01",
		"/appointments/available-slots?doctorId=doc1",
		"/appointments/available-slots",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		he := expectHTTPError(t, h.AvailableSlots(c), http.StatusBadRequest)
		if he.Message != "Doctor ID and date are required" {
			t.Errorf("%s: unexpected message %v", target, he.Message)
		}
	}
}

func TestHandler_AvailableSlots_UpstreamFailure(t *testing.T) {
	bookings := newMockBookingRepo()
	bookings.err = errors.New("relation \"appointments\" does not exist")
	h, e := newTestHandler(doc1Slots(), bookings)

	req := httptest.NewRequest(http.MethodGet, "/appointments/available-slots?doctorId=doc1&date=2024-01-01", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	he := expectHTTPError(t, h.AvailableSlots(c), http.StatusInternalServerError)
	if msg, _ := he.Message.(string); !strings.Contains(msg, "list bookings") {
		t.Errorf("expected upstream message, got %v", he.Message)
	}
	if he.Internal == nil {
		t.Error("expected internal error to be attached")
	}
}

func TestHandler_UpdateStatus(t *testing.T) {
	bookings := newMockBookingRepo(Booking{ID: "a1", Status: "pending"})
	h, e := newTestHandler(doc1Slots(), bookings)

	body := `{"appointmentId":"a1","status":"completed","notes":"follow up in 2 weeks"}`
	req := httptest.NewRequest(http.MethodPost, "/appointments/update-status", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
	if bookings.updated["a1"].Status != "completed" {
		t.Errorf("expected status to be updated, got %+v", bookings.updated["a1"])
	}
}

func TestHandler_UpdateStatus_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed body", `{"appointmentId":`, http.StatusBadRequest},
		{"missing status", `{"appointmentId":"a1"}`, http.StatusBadRequest},
		{"unknown status", `{"appointmentId":"a1","status":"lost"}`, http.StatusBadRequest},
		{"unknown appointment", `{"appointmentId":"zz","status":"confirmed"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, e := newTestHandler(doc1Slots(), newMockBookingRepo(Booking{ID: "a1", Status: "pending"}))
			req := httptest.NewRequest(http.MethodPost, "/appointments/update-status", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			expectHTTPError(t, h.UpdateStatus(c), tt.code)
		})
	}
}
