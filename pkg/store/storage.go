package store

import (
	"context"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"

	"github.com/shopspring/decimal"
)

// PersonUpdate carries the person fields to change; nil fields are kept.
type PersonUpdate struct {
	Name  *string
	Email *string
}

// Empty reports whether the update changes nothing.
func (u PersonUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil
}

// SettleResult summarizes one settlement pass over the unsettled
// transactions.
type SettleResult struct {
	Batches      int             `json:"batches"`
	Accounts     int             `json:"accounts"`
	Transactions int64           `json:"transactions"`
	Total        decimal.Decimal `json:"total"`
}

// LedgerStorage is the relational source of truth for persons, accounts and
// transactions. Every failure to reach the store matches
// common.ErrStoreUnavailable; missing rows match common.ErrNotFound and
// uniqueness violations match common.ErrConflict.
type LedgerStorage interface {
	Ping(ctx context.Context) error

	CreatePerson(ctx context.Context, name, email string) (common.Person, error)
	GetPerson(ctx context.Context, id string) (common.Person, error)
	UpdatePerson(ctx context.Context, id string, update PersonUpdate) (common.Person, error)
	DeletePerson(ctx context.Context, id string) error
	ListPersons(ctx context.Context) ([]common.Person, error)
	ListPersonsByIDs(ctx context.Context, ids []string) ([]common.Person, error)
	ListPersonIDs(ctx context.Context) ([]string, error)

	CreateAccount(ctx context.Context, personID, number, bankName string) (common.Account, error)
	ListAccounts(ctx context.Context, personID string) ([]common.Account, error)
	CreateTransaction(ctx context.Context, accountID int64, amount decimal.Decimal, counterpart string) (common.Transaction, error)
	CountUnsettledTransactions(ctx context.Context) (int64, error)

	// SettleTransactions folds every unsettled transaction into its account
	// balance, batchAccounts accounts per unit of work, until none is left.
	// Each unit of work folds and flags atomically, so a retry after a
	// partial failure only folds the remainder.
	SettleTransactions(ctx context.Context, batchAccounts int) (SettleResult, error)
	// RecomputeNetWorth overwrites every person's net worth with the sum of
	// their account balances and returns the number of persons updated.
	RecomputeNetWorth(ctx context.Context) (int64, error)
}
