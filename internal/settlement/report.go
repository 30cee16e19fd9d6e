package settlement

import (
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RunReport is the audit record of one pipeline run.
type RunReport struct {
	ID              string    `json:"id"`
	RequestedStage  int       `json:"requested_stage"`
	CompletedStages []int     `json:"completed_stages"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`

	Settlement      *store.SettleResult    `json:"settlement,omitempty"`
	NetWorthUpdated *int64                 `json:"net_worth_updated,omitempty"`
	LoanSummary     *LoanSummary           `json:"loan_summary,omitempty"`
	LoanPotentials  []common.LoanPotential `json:"loan_potentials,omitempty"`
}

type LoanSummary struct {
	Persons             int               `json:"persons"`
	PersonsWithCapacity int               `json:"persons_with_capacity"`
	TotalCapacity       decimal.Decimal   `json:"total_capacity"`
	Method              common.LoanMethod `json:"method,omitempty"`
}

func newRunReport(stage Stage, now time.Time) *RunReport {
	return &RunReport{
		ID:              uuid.NewString(),
		RequestedStage:  int(stage),
		CompletedStages: []int{},
		StartedAt:       now,
	}
}

func (r *RunReport) setLoanPotentials(potentials []common.LoanPotential) {
	summary := &LoanSummary{Persons: len(potentials), TotalCapacity: decimal.Zero}
	for _, lp := range potentials {
		summary.Method = lp.Method
		if lp.MaxLoanAmount.IsPositive() {
			summary.PersonsWithCapacity++
			summary.TotalCapacity = summary.TotalCapacity.Add(lp.MaxLoanAmount)
		}
	}
	r.LoanSummary = summary
	r.LoanPotentials = potentials
}

// ObjectKey is where the report is stored, partitioned by day.
func (r *RunReport) ObjectKey() string {
	return fmt.Sprintf("settlement-runs/%s/%s.json", r.StartedAt.UTC().Format("2006/01/02"), r.ID)
}
