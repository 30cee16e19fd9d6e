package loan

import (
	"fmt"
	"time"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"

	"github.com/shopspring/decimal"
)

// Config holds the lending parameters of a deployment. One method is active
// per deployment, never per call.
type Config struct {
	LendingPercentage decimal.Decimal
	MaxLoanPerFriend  decimal.Decimal
	Method            common.LoanMethod

	// CacheExpiration is accepted for configuration compatibility only.
	// Loan potentials are always computed live.
	CacheExpiration time.Duration
}

// DefaultConfig returns the stock lending parameters.
func DefaultConfig() Config {
	return Config{
		LendingPercentage: decimal.NewFromInt(25),
		MaxLoanPerFriend:  decimal.NewFromInt(10000),
		Method:            common.LoanMethodDifference,
		CacheExpiration:   5 * time.Minute,
	}
}

// ParseMethod maps the configuration spelling of a method to its LoanMethod.
func ParseMethod(s string) (common.LoanMethod, error) {
	switch s {
	case "difference", string(common.LoanMethodDifference):
		return common.LoanMethodDifference, nil
	case "percentage", string(common.LoanMethodPercentage):
		return common.LoanMethodPercentage, nil
	}
	return "", fmt.Errorf("%w: unknown loan method %q", common.ErrInvalidInput, s)
}

// Validate rejects out-of-range parameters.
func (c Config) Validate() error {
	hundred := decimal.NewFromInt(100)
	if !c.LendingPercentage.IsPositive() || c.LendingPercentage.GreaterThan(hundred) {
		return fmt.Errorf("%w: lending percentage must be in (0, 100], got %s", common.ErrInvalidInput, c.LendingPercentage)
	}
	if !c.MaxLoanPerFriend.IsPositive() {
		return fmt.Errorf("%w: max loan per friend must be positive, got %s", common.ErrInvalidInput, c.MaxLoanPerFriend)
	}
	if c.Method != common.LoanMethodDifference && c.Method != common.LoanMethodPercentage {
		return fmt.Errorf("%w: unknown loan method %q", common.ErrInvalidInput, c.Method)
	}
	if c.CacheExpiration < 0 {
		return fmt.Errorf("%w: cache expiration must not be negative", common.ErrInvalidInput)
	}
	return nil
}
