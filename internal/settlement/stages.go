package settlement

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/loan"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/store"
)

// Stage identifies one step of the pipeline. Requesting a stage runs every
// lower stage first.
type Stage int

const (
	StageSettle        Stage = 1
	StageNetWorth      Stage = 2
	StageLoanPotential Stage = 3
)

func (s Stage) String() string {
	switch s {
	case StageSettle:
		return "settle"
	case StageNetWorth:
		return "net_worth"
	case StageLoanPotential:
		return "loan_potential"
	}
	return fmt.Sprintf("stage_%d", int(s))
}

func (s Stage) Validate() error {
	if s < StageSettle || s > StageLoanPotential {
		return fmt.Errorf("%w: stage must be 1, 2 or 3, got %d", common.ErrInvalidInput, int(s))
	}
	return nil
}

// settle folds every unsettled transaction into its account balance.
func (p *Processor) settle(ctx context.Context, report *RunReport) error {
	res, err := p.ledger.SettleTransactions(ctx, p.batchAccounts)
	if err != nil {
		return err
	}
	report.Settlement = &res
	transactionsSettledTotal.Add(float64(res.Transactions))

	logger.Info("[Settlement][Stage1] Transactions settled",
		"accounts", res.Accounts,
		"transactions", res.Transactions,
		"batches", res.Batches,
		"total", res.Total,
	)
	return nil
}

// aggregateNetWorth overwrites every net worth with the sum of balances.
func (p *Processor) aggregateNetWorth(ctx context.Context, report *RunReport) error {
	n, err := p.ledger.RecomputeNetWorth(ctx)
	if err != nil {
		return err
	}
	report.NetWorthUpdated = &n

	logger.Info("[Settlement][Stage2] Net worth aggregated", "persons", n)
	return nil
}

// computeLoanPotentials resolves friends for all persons in bulk, chunk by
// chunk, loads the union of their net worths in one batch per chunk and
// runs the calculator for each person.
func (p *Processor) computeLoanPotentials(ctx context.Context, report *RunReport) error {
	persons, err := p.ledger.ListPersons(ctx)
	if err != nil {
		return err
	}

	potentials := make([]common.LoanPotential, 0, len(persons))
	err = store.ChunkRange(len(persons), p.loanChunk, func(start, end int) error {
		chunk := persons[start:end]
		ids := make([]string, 0, len(chunk))
		for _, person := range chunk {
			ids = append(ids, person.ID)
		}

		friendIDs, err := p.graph.FindMultipleFriendIDs(ctx, ids)
		if err != nil {
			return err
		}

		union := make([]string, 0)
		for _, id := range ids {
			union = append(union, friendIDs[id]...)
		}
		friends, err := p.resolveFriends(ctx, union)
		if err != nil {
			return err
		}

		for _, person := range chunk {
			potentials = append(potentials, p.potential(person, friendIDs[person.ID], friends))
		}
		return nil
	})
	if err != nil {
		return err
	}

	report.setLoanPotentials(potentials)
	loanPotentialsTotal.Add(float64(len(potentials)))

	logger.Info("[Settlement][Stage3] Loan potentials computed",
		"persons", len(potentials),
		"with_capacity", report.LoanSummary.PersonsWithCapacity,
		"total_capacity", report.LoanSummary.TotalCapacity,
	)
	return nil
}

// resolveFriends loads the ledger rows of ids in one batch. Ids without a
// ledger row belong to vertices awaiting reconciliation and are dropped.
func (p *Processor) resolveFriends(ctx context.Context, ids []string) (map[string]common.Person, error) {
	ids = store.DedupeStrings(ids)
	out := make(map[string]common.Person, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := p.ledger.ListPersonsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	if missing := len(ids) - len(out); missing > 0 {
		logger.Warn("[Settlement] Friends without ledger row skipped", "missing", missing)
	}
	return out, nil
}

// potential runs the calculator for person. friendIDs keeps graph order so
// ties resolve the same way on every run.
func (p *Processor) potential(person common.Person, friendIDs []string, known map[string]common.Person) common.LoanPotential {
	friends := make([]loan.Friend, 0, len(friendIDs))
	for _, id := range store.DedupeStrings(friendIDs) {
		f, ok := known[id]
		if !ok || id == person.ID {
			continue
		}
		friends = append(friends, loan.Friend{ID: f.ID, Name: f.Name, NetWorth: f.NetWorth})
	}

	res := p.calc.Calculate(person.NetWorth, friends)
	return common.LoanPotential{
		PersonID:       person.ID,
		PersonNetWorth: person.NetWorth,
		MaxLoanAmount:  res.TotalAmount,
		Contributions:  res.Contributions,
		Method:         res.Method,
	}
}
