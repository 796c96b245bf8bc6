// Package video mints access tokens for the hosted video provider.
package video

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	twiliojwt "github.com/twilio/twilio-go/client/jwt"
)

const defaultTTL = time.Hour

var (
	ErrNotConfigured = errors.New("video provider credentials are not configured")
	ErrMissingFields = errors.New("room name and identity are required")
)

// Minter signs room-scoped Twilio Video access tokens.
type Minter struct {
	accountSID string
	apiKey     string
	apiSecret  string
	ttl        time.Duration
}

func NewMinter(accountSID, apiKey, apiSecret string, ttl time.Duration) *Minter {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Minter{accountSID: accountSID, apiKey: apiKey, apiSecret: apiSecret, ttl: ttl}
}

func (m *Minter) configured() bool {
	return m.accountSID != "" && m.apiKey != "" && m.apiSecret != ""
}

// Mint returns a token that lets identity join roomName.
func (m *Minter) Mint(roomName, identity string) (string, error) {
	roomName, identity = strings.TrimSpace(roomName), strings.TrimSpace(identity)
	if roomName == "" || identity == "" {
		return "", ErrMissingFields
	}
	if !m.configured() {
		return "", ErrNotConfigured
	}

	token := twiliojwt.CreateAccessToken(twiliojwt.AccessTokenParams{
		AccountSid:    m.accountSID,
		SigningKeySid: m.apiKey,
		Secret:        m.apiSecret,
		Identity:      identity,
		Ttl:           m.ttl.Seconds(),
	})
	token.AddGrant(&twiliojwt.VideoGrant{Room: roomName})

	signed, err := token.ToJwt()
	if err != nil {
		return "", fmt.Errorf("sign video token: %w", err)
	}
	return signed, nil
}

type Handler struct {
	minter *Minter
	logger zerolog.Logger
}

func NewHandler(minter *Minter, logger zerolog.Logger) *Handler {
	return &Handler{minter: minter, logger: logger.With().Str("component", "video").Logger()}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/video-token", h.Token)
}

type tokenRequest struct {
	RoomName string `json:"roomName"`
	Identity string `json:"identity"`
}

func (h *Handler) Token(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	token, err := h.minter.Mint(req.RoomName, req.Identity)
	switch {
	case errors.Is(err, ErrMissingFields):
		return echo.NewHTTPError(http.StatusBadRequest, "Room name and identity are required")
	case errors.Is(err, ErrNotConfigured):
		return echo.NewHTTPError(http.StatusInternalServerError, "Video service not configured").SetInternal(err)
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token").SetInternal(err)
	}

	h.logger.Debug().Str("room", strings.TrimSpace(req.RoomName)).Msg("video token issued")
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}
