package pgx

import (
	"context"
	"fmt"

	pgdb "github.com/OFFIS-RIT/lendnet/backend/pkg/db/pgx"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"

	"github.com/shopspring/decimal"
)

// CreateAccount opens an account with a zero balance. An unknown person is
// ErrNotFound and a taken account number ErrConflict.
func (s *LedgerDBStorage) CreateAccount(ctx context.Context, personID, number, bankName string) (common.Account, error) {
	pid, err := parsePersonID(personID)
	if err != nil {
		return common.Account{}, err
	}
	row, err := pgdb.New(s.conn).CreateAccount(ctx, pgdb.CreateAccountParams{
		PersonID:      pid,
		AccountNumber: number,
		BankName:      bankName,
	})
	if err != nil {
		return common.Account{}, translate("create account", err)
	}
	return toAccount(row), nil
}

func (s *LedgerDBStorage) ListAccounts(ctx context.Context, personID string) ([]common.Account, error) {
	pid, err := parsePersonID(personID)
	if err != nil {
		return nil, err
	}
	rows, err := pgdb.New(s.conn).ListAccountsByPerson(ctx, pid)
	if err != nil {
		return nil, translate("list accounts", err)
	}
	out := make([]common.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, toAccount(row))
	}
	return out, nil
}

// CreateTransaction books an unsettled transaction. It does not touch the
// account balance; settlement does.
func (s *LedgerDBStorage) CreateTransaction(ctx context.Context, accountID int64, amount decimal.Decimal, counterpart string) (common.Transaction, error) {
	amount, err := transactionAmount(amount)
	if err != nil {
		return common.Transaction{}, err
	}
	row, err := pgdb.New(s.conn).CreateTransaction(ctx, pgdb.CreateTransactionParams{
		AccountID:   accountID,
		Amount:      amount,
		Counterpart: counterpart,
	})
	if err != nil {
		return common.Transaction{}, translate("create transaction", err)
	}
	return toTransaction(row), nil
}

// transactionAmount rounds to cents and rejects amounts that round to zero.
func transactionAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	rounded := amount.Round(2)
	if rounded.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: transaction amount %s rounds to zero", common.ErrInvalidInput, amount)
	}
	return rounded, nil
}
