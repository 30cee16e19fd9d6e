package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/lendnet/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// StatusFor maps the error taxonomy onto HTTP status codes. Infrastructure
// failures win over business outcomes when both are present.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, common.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrCapacityExceeded):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func fail(c echo.Context, message string, err error) error {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("[Server] Request failed", "path", c.Path(), "request_id", requestID(c), "status", status, "err", err)
		return c.JSON(status, errorResponse{Message: message})
	}
	return c.JSON(status, errorResponse{Message: message, Error: err.Error()})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Message: message})
}

func app(c echo.Context) *middleware.App {
	return c.(*middleware.AppContext).App
}

func requestID(c echo.Context) string {
	if cc, ok := c.(*middleware.AppContext); ok {
		return cc.RequestID
	}
	return ""
}

// bindValid binds the request into data and validates it.
func bindValid(c echo.Context, data any) bool {
	if err := c.Bind(data); err != nil {
		return false
	}
	return c.Validate(data) == nil
}
