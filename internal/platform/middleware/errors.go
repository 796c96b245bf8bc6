package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorHandler renders every error returned by a handler as
// {"error": "<message>"} with the matching status code. Server errors are
// logged with their internal cause.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := statusOf(err)
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
			if he.Internal != nil && code >= 500 {
				err = he.Internal
			}
		}

		if code >= 500 {
			logger.Error().Err(err).
				Str("request_id", requestID(c)).
				Str("path", c.Request().URL.Path).
				Int("status", code).
				Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, map[string]string{"error": msg})
		}
		if writeErr != nil {
			logger.Warn().Err(writeErr).Msg("write error response")
		}
	}
}

// statusOf returns the HTTP status an error will be rendered with.
func statusOf(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
