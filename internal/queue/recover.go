package queue

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type unsettledCounter interface {
	CountUnsettledTransactions(ctx context.Context) (int64, error)
}

// RecoverPendingSettlement queues a settlement run when transactions were
// left unsettled, e.g. because a worker died mid-run. Stage 1 folds each
// transaction once, so an extra run is harmless.
func RecoverPendingSettlement(ctx context.Context, ch publisher, ledger unsettledCounter) error {
	n, err := ledger.CountUnsettledTransactions(ctx)
	if err != nil {
		return fmt.Errorf("failed to count unsettled transactions: %w", err)
	}
	if n == 0 {
		logger.Debug("[Queue] No unsettled transactions found")
		return nil
	}

	correlationID, err := gonanoid.New()
	if err != nil {
		return err
	}
	msg := SettlementMsg{Stage: 2, CorrelationID: correlationID, Reason: "recovered unsettled transactions"}
	if err := PublishJSON(ctx, ch, SettlementQueue, msg); err != nil {
		return fmt.Errorf("failed to queue settlement run: %w", err)
	}

	logger.Info("[Queue] Queued settlement for unsettled transactions", "count", n, "correlation_id", correlationID)
	return nil
}
