package routes

import (
	"fmt"
	"net/http"

	"github.com/OFFIS-RIT/lendnet/backend/internal/queue"
	"github.com/OFFIS-RIT/lendnet/backend/internal/settlement"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"

	"github.com/labstack/echo/v4"
)

// RunProcessHandler runs the settlement pipeline up to the requested stage.
// With async set the run is queued for the worker instead.
func RunProcessHandler(c echo.Context) error {
	type runProcessBody struct {
		Stage int  `json:"stage" validate:"required,min=1,max=3"`
		Async bool `json:"async"`
	}

	type runProcessResponse struct {
		Message       string                `json:"message"`
		CorrelationID string                `json:"correlation_id,omitempty"`
		Report        *settlement.RunReport `json:"report,omitempty"`
	}

	data := new(runProcessBody)
	if !bindValid(c, data) {
		return badRequest(c, "Invalid request body: stage must be 1, 2 or 3")
	}
	ctx := c.Request().Context()
	a := app(c)

	if data.Async {
		if a.Queue == nil {
			return fail(c, "Async runs are not available", fmt.Errorf("%w: no queue configured", common.ErrStoreUnavailable))
		}
		msg := queue.SettlementMsg{Stage: data.Stage, CorrelationID: requestID(c)}
		if err := queue.PublishJSON(ctx, a.Queue, queue.SettlementQueue, msg); err != nil {
			return fail(c, "Failed to queue settlement run", fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err))
		}
		return c.JSON(http.StatusAccepted, runProcessResponse{Message: "Settlement run queued", CorrelationID: msg.CorrelationID})
	}

	report, err := a.Settlement.Run(ctx, settlement.Stage(data.Stage))
	if err != nil {
		if report != nil && len(report.CompletedStages) > 0 {
			return c.JSON(StatusFor(err), runProcessResponse{Message: "Settlement run failed: " + err.Error(), Report: report})
		}
		return fail(c, "Settlement run failed", err)
	}
	return c.JSON(http.StatusOK, runProcessResponse{Message: "Settlement run completed", Report: report})
}

func LoanPotentialHandler(c echo.Context) error {
	type loanPotentialResponse struct {
		Message       string                `json:"message"`
		LoanPotential *common.LoanPotential `json:"loan_potential,omitempty"`
	}

	lp, err := app(c).Settlement.LoanPotentialFor(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, "Failed to compute loan potential", err)
	}
	return c.JSON(http.StatusOK, loanPotentialResponse{Message: "OK", LoanPotential: &lp})
}
