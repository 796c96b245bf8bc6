package setup

import (
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
	g.GET("/init", h.Init)
}

func (h *Handler) Init(c echo.Context) error {
	details, err := h.svc.Ensure(c.Request().Context())
	if err != nil {
		h.svc.logger.Error().Err(err).Msg("initialization failed")
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   err.Error(),
			"details": details,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"details": details,
	})
}
