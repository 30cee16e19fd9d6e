package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

const healthTimeout = 5 * time.Second

func HealthHandler(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// DetailedHealthHandler pings the ledger and the graph store concurrently.
func DetailedHealthHandler(c echo.Context) error {
	type componentStatus struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}

	type healthResponse struct {
		Status     string                     `json:"status"`
		Components map[string]componentStatus `json:"components"`
	}

	a := app(c)
	checks := map[string]func(context.Context) error{
		"postgres": a.Ledger.Ping,
		"neo4j":    a.Graph.Ping,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(checks))
	results := make([]error, len(checks))
	var eg errgroup.Group
	for name, check := range checks {
		i := len(names)
		names = append(names, name)
		eg.Go(func() error {
			results[i] = check(ctx)
			return nil
		})
	}
	_ = eg.Wait()

	resp := healthResponse{Status: "ok", Components: make(map[string]componentStatus, len(names))}
	status := http.StatusOK
	for i, name := range names {
		if err := results[i]; err != nil {
			resp.Components[name] = componentStatus{Status: "down", Error: err.Error()}
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Components[name] = componentStatus{Status: "up"}
	}
	return c.JSON(status, resp)
}
