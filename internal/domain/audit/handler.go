package audit

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/telecare/telecare/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/audit/log-data-access", h.LogDataAccess)
}

type logDataAccessRequest struct {
	RecordType string `json:"recordType"`
	RecordID   string `json:"recordId"`
	Action     string `json:"action"`
	UserID     string `json:"userId"`
}

// LogDataAccess checks the caller before the body: 401 without a session,
// then 400 for missing fields, then 403 when userId is someone else.
func (h *Handler) LogDataAccess(c echo.Context) error {
	caller := auth.UserIDFromContext(c.Request().Context())
	if caller == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	var req logDataAccessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.RecordType == "" || req.RecordID == "" || req.Action == "" || req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing required fields")
	}
	if req.UserID != caller {
		return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
	}

	h.svc.LogDataAccess(c.Request().Context(), &Entry{
		UserID:     req.UserID,
		RecordType: req.RecordType,
		RecordID:   req.RecordID,
		Action:     req.Action,
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
	})
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
