package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

const APIKeyHeader = "X-API-Key"

// RequireAPIKey guards the destructive admin routes with the master API key,
// sent as X-API-Key or as a bearer token. Without a configured key the
// routes are closed.
func RequireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		app := c.(*AppContext).App
		if app.MasterAPIKey == "" {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Admin API disabled"})
		}

		token := c.Request().Header.Get(APIKeyHeader)
		if token == "" {
			authHeader := c.Request().Header.Get("Authorization")
			token, _ = strings.CutPrefix(authHeader, "Bearer ")
		}
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(app.MasterAPIKey)) != 1 {
			logger.Warn("[Server] Rejected admin request", "path", c.Path(), "request_id", c.(*AppContext).RequestID)
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}
		return next(c)
	}
}
