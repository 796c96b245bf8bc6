package scheduling

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/appointments/available-slots", h.AvailableSlots)
	g.POST("/appointments/update-status", h.UpdateStatus)
}

type updateStatusRequest struct {
	AppointmentID string  `json:"appointmentId"`
	Status        string  `json:"status"`
	Notes         *string `json:"notes"`
}

func (h *Handler) AvailableSlots(c echo.Context) error {
	slots, err := h.svc.AvailableSlots(c.Request().Context(), c.QueryParam("doctorId"), c.QueryParam("date"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"time_slots": slots})
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.UpdateStatus(c.Request().Context(), req.AppointmentID, req.Status, req.Notes); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func toHTTPError(err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return echo.NewHTTPError(http.StatusBadRequest, verr.Message)
	}
	if errors.Is(err, ErrAppointmentNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
}
