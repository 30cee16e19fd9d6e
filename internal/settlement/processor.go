// Package settlement runs the cascading ledger pipeline: settle pending
// transactions, aggregate net worth, and derive loan potentials from the
// friendship graph.
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/leaselock"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/loan"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/logger"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/store"
)

// Ledger is the part of the ledger store the pipeline needs.
type Ledger interface {
	SettleTransactions(ctx context.Context, batchAccounts int) (store.SettleResult, error)
	RecomputeNetWorth(ctx context.Context) (int64, error)
	ListPersons(ctx context.Context) ([]common.Person, error)
	ListPersonsByIDs(ctx context.Context, ids []string) ([]common.Person, error)
	GetPerson(ctx context.Context, id string) (common.Person, error)
}

// FriendGraph resolves direct friends.
type FriendGraph interface {
	FindFriendIDs(ctx context.Context, id string) ([]string, error)
	FindMultipleFriendIDs(ctx context.Context, ids []string) (map[string][]string, error)
}

// Locker serializes runs across processes.
type Locker interface {
	WithLease(ctx context.Context, key string, opts leaselock.Options, fn func(ctx context.Context) error) error
}

// ReportSink receives the report of every completed run.
type ReportSink interface {
	PutJSON(ctx context.Context, key string, v any) error
}

type Processor struct {
	ledger  Ledger
	graph   FriendGraph
	calc    *loan.Calculator
	locker  Locker
	reports ReportSink

	batchAccounts int
	loanChunk     int
	now           func() time.Time
}

// NewProcessorParams wires a Processor. Locker and Reports are optional.
//
// BatchAccounts bounds the accounts folded per stage-1 unit of work.
// LoanChunk bounds the persons per stage-3 graph round trip; zero or less
// resolves every person in one round trip.
type NewProcessorParams struct {
	Ledger     Ledger
	Graph      FriendGraph
	Calculator *loan.Calculator
	Locker     Locker
	Reports    ReportSink

	BatchAccounts int
	LoanChunk     int
}

func NewProcessor(params NewProcessorParams) (*Processor, error) {
	if params.Ledger == nil || params.Graph == nil || params.Calculator == nil {
		return nil, fmt.Errorf("%w: settlement processor needs a ledger, a graph and a calculator", common.ErrInvalidInput)
	}
	return &Processor{
		ledger:        params.Ledger,
		graph:         params.Graph,
		calc:          params.Calculator,
		locker:        params.Locker,
		reports:       params.Reports,
		batchAccounts: params.BatchAccounts,
		loanChunk:     params.LoanChunk,
		now:           time.Now,
	}, nil
}

var runLease = leaselock.Options{
	TTL:          2 * time.Minute,
	Wait:         true,
	WaitInterval: 500 * time.Millisecond,
	WaitJitter:   250 * time.Millisecond,
	TokenPrefix:  "settlement-",
}

// Run executes stages 1 through upTo in order. Stages that completed stay
// durable when a later one fails; the returned report lists them and is
// non-nil whenever upTo is valid.
func (p *Processor) Run(ctx context.Context, upTo Stage) (*RunReport, error) {
	if err := upTo.Validate(); err != nil {
		return nil, err
	}

	report := newRunReport(upTo, p.now())
	logger.Info("[Settlement][Run] Starting run", "run_id", report.ID, "up_to", int(upTo))

	err := p.withLease(ctx, func(ctx context.Context) error {
		return p.runStages(ctx, upTo, report)
	})
	report.FinishedAt = p.now()
	if err != nil {
		logger.Error("[Settlement][Run] Run failed", "run_id", report.ID, "completed", report.CompletedStages, "err", err)
		return report, err
	}

	logger.Info("[Settlement][Run] Run completed", "run_id", report.ID, "duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds())
	p.publish(ctx, report)
	return report, nil
}

// LoanPotentialFor computes the current loan potential of one person. It
// re-runs stages 1 and 2 over the whole ledger first so that the figures
// reflect every pending transaction.
func (p *Processor) LoanPotentialFor(ctx context.Context, personID string) (common.LoanPotential, error) {
	if _, err := p.ledger.GetPerson(ctx, personID); err != nil {
		return common.LoanPotential{}, err
	}

	report := newRunReport(StageNetWorth, p.now())
	err := p.withLease(ctx, func(ctx context.Context) error {
		return p.runStages(ctx, StageNetWorth, report)
	})
	if err != nil {
		return common.LoanPotential{}, err
	}

	person, err := p.ledger.GetPerson(ctx, personID)
	if err != nil {
		return common.LoanPotential{}, err
	}
	friendIDs, err := p.graph.FindFriendIDs(ctx, personID)
	if err != nil {
		return common.LoanPotential{}, err
	}
	friends, err := p.resolveFriends(ctx, friendIDs)
	if err != nil {
		return common.LoanPotential{}, err
	}

	potential := p.potential(person, friendIDs, friends)
	loanPotentialsTotal.Inc()
	logger.Debug("[Settlement][LoanPotentialFor] Computed", "person_id", personID, "max_loan", potential.MaxLoanAmount, "friends", len(potential.Contributions))
	return potential, nil
}

func (p *Processor) withLease(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.locker == nil {
		return fn(ctx)
	}
	return p.locker.WithLease(ctx, leaselock.SettlementKey, runLease, fn)
}

func (p *Processor) runStages(ctx context.Context, upTo Stage, report *RunReport) error {
	for stage := StageSettle; stage <= upTo; stage++ {
		start := p.now()
		err := p.runStage(ctx, stage, report)
		observeStage(stage, p.now().Sub(start), err)
		if err != nil {
			return fmt.Errorf("stage %d (%s): %w", stage, stage, err)
		}
		report.CompletedStages = append(report.CompletedStages, int(stage))
	}
	return nil
}

func (p *Processor) runStage(ctx context.Context, stage Stage, report *RunReport) error {
	switch stage {
	case StageSettle:
		return p.settle(ctx, report)
	case StageNetWorth:
		return p.aggregateNetWorth(ctx, report)
	case StageLoanPotential:
		return p.computeLoanPotentials(ctx, report)
	}
	return fmt.Errorf("%w: stage %d", common.ErrInvalidInput, stage)
}

func (p *Processor) publish(ctx context.Context, report *RunReport) {
	if p.reports == nil {
		return
	}
	if err := p.reports.PutJSON(ctx, report.ObjectKey(), report); err != nil {
		logger.Warn("[Settlement][Run] Report upload failed", "run_id", report.ID, "err", err)
	}
}
