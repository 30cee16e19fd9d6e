package pgx

import (
	"context"
	"errors"
	"fmt"

	pgdb "github.com/OFFIS-RIT/lendnet/backend/pkg/db/pgx"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/store"

	"github.com/google/uuid"
	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// SQLSTATE codes translated into the error taxonomy.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
	invalidTextRepr     = "22P02"
	numericOutOfRange   = "22003"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// LedgerDBStorage implements store.LedgerStorage on PostgreSQL.
type LedgerDBStorage struct {
	conn pgxIConn
}

var _ store.LedgerStorage = (*LedgerDBStorage)(nil)

// NewLedgerDBStorageWithConnection wraps an existing pool or connection.
func NewLedgerDBStorageWithConnection(conn pgxIConn) *LedgerDBStorage {
	return &LedgerDBStorage{conn: conn}
}

func (s *LedgerDBStorage) Ping(ctx context.Context) error {
	if p, ok := s.conn.(pinger); ok {
		return translate("ping", p.Ping(ctx))
	}
	_, err := s.conn.Exec(ctx, "SELECT 1")
	return translate("ping", err)
}

// translate maps driver errors onto the common error taxonomy. Anything not
// attributable to the request itself is reported as the store being
// unavailable.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgxv5.ErrNoRows) {
		return fmt.Errorf("%w: %s", common.ErrNotFound, op)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s: %s", common.ErrConflict, op, pgErr.ConstraintName)
		case foreignKeyViolation:
			return fmt.Errorf("%w: %s: %s", common.ErrNotFound, op, pgErr.ConstraintName)
		case checkViolation, invalidTextRepr, numericOutOfRange:
			return fmt.Errorf("%w: %s: %s", common.ErrInvalidInput, op, pgErr.Message)
		}
	}
	return fmt.Errorf("%w: ledger %s: %w", common.ErrStoreUnavailable, op, err)
}

func parsePersonID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: person id %q", common.ErrInvalidInput, id)
	}
	return parsed, nil
}

func textOrNull(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func toPerson(p pgdb.Person) common.Person {
	return common.Person{
		ID:        p.ID.String(),
		Name:      p.Name,
		Email:     p.Email,
		NetWorth:  p.NetWorth,
		CreatedAt: p.CreatedAt.Time,
		UpdatedAt: p.UpdatedAt.Time,
	}
}

func toAccount(a pgdb.Account) common.Account {
	return common.Account{
		ID:        a.ID,
		PersonID:  a.PersonID.String(),
		Number:    a.AccountNumber,
		BankName:  a.BankName,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt.Time,
		UpdatedAt: a.UpdatedAt.Time,
	}
}

func toTransaction(t pgdb.Transaction) common.Transaction {
	tx := common.Transaction{
		ID:          t.ID,
		AccountID:   t.AccountID,
		Amount:      t.Amount,
		Counterpart: t.Counterpart,
		Settled:     t.Settled,
		CreatedAt:   t.CreatedAt.Time,
	}
	if t.SettledAt.Valid {
		settledAt := t.SettledAt.Time
		tx.SettledAt = &settledAt
	}
	return tx
}
