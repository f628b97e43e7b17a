package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/quranchallenge/server/domain"
)

const (
	msgRouteNotFound   = "Route not found"
	msgInvalidBody     = "Invalid request body"
	msgInternal        = "Internal server error"
	msgTooManyRequests = "Too many requests, please slow down"
	msgDuplicateEmail  = "User with this email already exists"
	msgBadCredentials  = "Invalid email or password"
	msgForbidden       = "Forbidden"
)

// respondError maps a service error to a status and envelope. Anything not
// recognised is logged and answered with fallback so driver text never leaks.
func (h *handler) respondError(c echo.Context, err error, fallback string) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: verr.Error(),
			Errors:  verr.Fields,
		})
	case errors.Is(err, domain.ErrDuplicateEmail):
		return c.JSON(http.StatusBadRequest, Response{Message: msgDuplicateEmail})
	case errors.Is(err, domain.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, Response{Message: msgBadCredentials})
	}

	h.logger.Error(fallback,
		zap.String("route", c.Path()),
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, Response{Message: fallback})
}

// httpErrorHandler replaces echo's default so every failure uses the envelope
func httpErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := msgInternal

		var he *echo.HTTPError
		if errors.As(err, &he) {
			switch he.Code {
			case http.StatusNotFound, http.StatusMethodNotAllowed:
				status, message = http.StatusNotFound, msgRouteNotFound
			case http.StatusBadRequest, http.StatusUnsupportedMediaType:
				status, message = http.StatusBadRequest, msgInvalidBody
			case http.StatusForbidden:
				status, message = http.StatusForbidden, msgForbidden
			case http.StatusTooManyRequests:
				status, message = http.StatusTooManyRequests, msgTooManyRequests
			}
		}

		if status == http.StatusInternalServerError {
			logger.Error("Unhandled request error",
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err))
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, Response{Message: message})
		}
		if writeErr != nil {
			logger.Warn("Failed to write error response", zap.Error(writeErr))
		}
	}
}
