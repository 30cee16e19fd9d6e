package pgx

import (
	"context"
	"fmt"

	pgdb "github.com/OFFIS-RIT/lendnet/backend/pkg/db/pgx"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/store"

	"github.com/google/uuid"
)

// CreatePerson inserts a person under a fresh random id. A taken email is
// ErrConflict.
func (s *LedgerDBStorage) CreatePerson(ctx context.Context, name, email string) (common.Person, error) {
	q := pgdb.New(s.conn)
	row, err := q.CreatePerson(ctx, pgdb.CreatePersonParams{
		ID:    uuid.New(),
		Name:  name,
		Email: email,
	})
	if err != nil {
		return common.Person{}, translate("create person", err)
	}
	logger.Debug("[Ledger][CreatePerson] Person created", "person_id", row.ID)
	return toPerson(row), nil
}

func (s *LedgerDBStorage) GetPerson(ctx context.Context, id string) (common.Person, error) {
	pid, err := parsePersonID(id)
	if err != nil {
		return common.Person{}, err
	}
	row, err := pgdb.New(s.conn).GetPerson(ctx, pid)
	if err != nil {
		return common.Person{}, translate("get person "+id, err)
	}
	return toPerson(row), nil
}

func (s *LedgerDBStorage) UpdatePerson(ctx context.Context, id string, update store.PersonUpdate) (common.Person, error) {
	pid, err := parsePersonID(id)
	if err != nil {
		return common.Person{}, err
	}
	row, err := pgdb.New(s.conn).UpdatePerson(ctx, pgdb.UpdatePersonParams{
		Name:  textOrNull(update.Name),
		Email: textOrNull(update.Email),
		ID:    pid,
	})
	if err != nil {
		return common.Person{}, translate("update person "+id, err)
	}
	return toPerson(row), nil
}

// DeletePerson removes the person together with its accounts and
// transactions.
func (s *LedgerDBStorage) DeletePerson(ctx context.Context, id string) error {
	pid, err := parsePersonID(id)
	if err != nil {
		return err
	}
	n, err := pgdb.New(s.conn).DeletePerson(ctx, pid)
	if err != nil {
		return translate("delete person "+id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: person %s", common.ErrNotFound, id)
	}
	return nil
}

func (s *LedgerDBStorage) ListPersons(ctx context.Context) ([]common.Person, error) {
	rows, err := pgdb.New(s.conn).ListPersons(ctx)
	if err != nil {
		return nil, translate("list persons", err)
	}
	out := make([]common.Person, 0, len(rows))
	for _, row := range rows {
		out = append(out, toPerson(row))
	}
	return out, nil
}

// ListPersonsByIDs returns the persons among ids that exist. Ids that are not
// valid UUIDs cannot exist and are skipped.
func (s *LedgerDBStorage) ListPersonsByIDs(ctx context.Context, ids []string) ([]common.Person, error) {
	ids = store.DedupeStrings(ids)
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if pid, err := uuid.Parse(id); err == nil {
			parsed = append(parsed, pid)
		}
	}
	if len(parsed) == 0 {
		return []common.Person{}, nil
	}

	rows, err := pgdb.New(s.conn).ListPersonsByIDs(ctx, parsed)
	if err != nil {
		return nil, translate("list persons by ids", err)
	}
	out := make([]common.Person, 0, len(rows))
	for _, row := range rows {
		out = append(out, toPerson(row))
	}
	return out, nil
}

func (s *LedgerDBStorage) ListPersonIDs(ctx context.Context) ([]string, error) {
	rows, err := pgdb.New(s.conn).ListPersonIDs(ctx)
	if err != nil {
		return nil, translate("list person ids", err)
	}
	out := make([]string, 0, len(rows))
	for _, id := range rows {
		out = append(out, id.String())
	}
	return out, nil
}
