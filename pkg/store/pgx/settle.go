package pgx

import (
	"context"
	"math"

	pgdb "github.com/OFFIS-RIT/lendnet/backend/pkg/db/pgx"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/store"

	"github.com/shopspring/decimal"
)

const defaultSettleBatch = 1000

// SettleTransactions runs SettleAccountBatch in its own transaction until no
// unsettled transaction is left. A failed batch is rolled back as a whole;
// batches committed before it stay settled.
func (s *LedgerDBStorage) SettleTransactions(ctx context.Context, batchAccounts int) (store.SettleResult, error) {
	if batchAccounts <= 0 {
		batchAccounts = defaultSettleBatch
	}
	limit := int32(min(batchAccounts, math.MaxInt32))

	res := store.SettleResult{Total: decimal.Zero}
	for {
		rows, err := s.settleBatch(ctx, limit)
		if err != nil {
			return res, translate("settle transactions", err)
		}
		if len(rows) == 0 {
			break
		}

		res.Batches++
		res.Accounts += len(rows)
		for _, row := range rows {
			res.Transactions += row.SettledCount
			res.Total = res.Total.Add(row.Total)
		}
		logger.Debug("[Ledger][SettleTransactions] Batch settled", "batch", res.Batches, "accounts", len(rows))
	}
	return res, nil
}

func (s *LedgerDBStorage) settleBatch(ctx context.Context, limit int32) ([]pgdb.SettleAccountBatchRow, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := pgdb.New(tx).SettleAccountBatch(ctx, limit)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *LedgerDBStorage) CountUnsettledTransactions(ctx context.Context) (int64, error) {
	n, err := pgdb.New(s.conn).CountUnsettledTransactions(ctx)
	if err != nil {
		return 0, translate("count unsettled transactions", err)
	}
	return n, nil
}

// RecomputeNetWorth is a full overwrite, not an increment, so it also
// repairs any earlier drift.
func (s *LedgerDBStorage) RecomputeNetWorth(ctx context.Context) (int64, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return 0, translate("recompute net worth", err)
	}
	defer tx.Rollback(ctx)

	n, err := pgdb.New(tx).RecomputeNetWorth(ctx)
	if err != nil {
		return 0, translate("recompute net worth", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, translate("recompute net worth", err)
	}
	return n, nil
}
