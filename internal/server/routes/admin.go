package routes

import (
	"fmt"
	"net/http"

	"github.com/OFFIS-RIT/lendnet/backend/internal/person"
	"github.com/OFFIS-RIT/lendnet/backend/internal/queue"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ReconcileHandler runs one reconciliation sweep, or queues it when
// ?async=true and a queue is configured.
func ReconcileHandler(c echo.Context) error {
	type reconcileResponse struct {
		Message       string                  `json:"message"`
		CorrelationID string                  `json:"correlation_id,omitempty"`
		Report        *person.ReconcileReport `json:"report,omitempty"`
	}

	ctx := c.Request().Context()
	a := app(c)

	if c.QueryParam("async") == "true" {
		if a.Queue == nil {
			return fail(c, "Async sweeps are not available", fmt.Errorf("%w: no queue configured", common.ErrStoreUnavailable))
		}
		msg := queue.ReconcileMsg{CorrelationID: requestID(c)}
		if err := queue.PublishJSON(ctx, a.Queue, queue.ReconcileQueue, msg); err != nil {
			return fail(c, "Failed to queue reconciliation", fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err))
		}
		return c.JSON(http.StatusAccepted, reconcileResponse{Message: "Reconciliation queued", CorrelationID: msg.CorrelationID})
	}

	report, err := a.Persons.Reconcile(ctx)
	if err != nil {
		return fail(c, "Reconciliation failed", err)
	}
	return c.JSON(http.StatusOK, reconcileResponse{Message: "Reconciliation completed", Report: &report})
}

// ClearGraphHandler drops every vertex and edge. The ledger is untouched; a
// reconcile afterwards recreates the vertices without friendships.
func ClearGraphHandler(c echo.Context) error {
	logger.Warn("[Server] Clearing graph", "request_id", requestID(c))
	if err := app(c).Persons.ClearGraph(c.Request().Context()); err != nil {
		return fail(c, "Failed to clear graph", err)
	}
	return c.JSON(http.StatusOK, errorResponse{Message: "Graph cleared"})
}
