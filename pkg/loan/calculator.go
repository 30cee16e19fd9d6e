package loan

import (
	"sort"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"

	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Friend is a lending candidate as seen by the calculator.
type Friend struct {
	ID       string
	Name     string
	NetWorth decimal.Decimal
}

// Result is the outcome of one calculation.
type Result struct {
	TotalAmount   decimal.Decimal
	Contributions []common.LoanContribution
	Method        common.LoanMethod
}

// Calculator derives how much a person can borrow from wealthier friends.
// It holds no state besides its configuration and performs no I/O, so a
// single instance is safe for concurrent use.
type Calculator struct {
	cfg Config
}

// NewCalculator validates cfg and returns a Calculator bound to it.
func NewCalculator(cfg Config) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{cfg: cfg}, nil
}

// Method reports the configured calculation method.
func (c *Calculator) Method() common.LoanMethod {
	return c.cfg.Method
}

// Calculate computes the lending capacity of a person with personNetWorth
// from the given friends.
//
// Only friends strictly wealthier than the person lend. Each raw amount is
// capped at the per-friend maximum; friends whose capped amount is not
// positive are dropped. Contributions are ordered by amount, largest first,
// keeping input order for ties. Money values are rounded to two places and
// the total is the sum of the rounded contributions.
func (c *Calculator) Calculate(personNetWorth decimal.Decimal, friends []Friend) Result {
	if len(friends) == 0 {
		return c.empty()
	}

	contributions := make([]common.LoanContribution, 0, len(friends))
	total := decimal.Zero
	for _, f := range friends {
		if !f.NetWorth.GreaterThan(personNetWorth) {
			continue
		}

		capped := decimal.Min(c.rawAmount(personNetWorth, f.NetWorth), c.cfg.MaxLoanPerFriend).Round(moneyPlaces)
		if !capped.IsPositive() {
			continue
		}

		contributions = append(contributions, common.LoanContribution{
			FriendID:          f.ID,
			FriendName:        f.Name,
			FriendNetWorth:    f.NetWorth.Round(moneyPlaces),
			MaxLoanFromFriend: capped,
			LendingPercentage: c.effectivePercentage(capped, f.NetWorth),
		})
		total = total.Add(capped)
	}

	if len(contributions) == 0 {
		return c.empty()
	}

	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].MaxLoanFromFriend.GreaterThan(contributions[j].MaxLoanFromFriend)
	})

	return Result{
		TotalAmount:   total.Round(moneyPlaces),
		Contributions: contributions,
		Method:        c.cfg.Method,
	}
}

func (c *Calculator) rawAmount(personNetWorth, friendNetWorth decimal.Decimal) decimal.Decimal {
	if c.cfg.Method == common.LoanMethodPercentage {
		return friendNetWorth.Mul(c.cfg.LendingPercentage).Div(hundred)
	}
	return friendNetWorth.Sub(personNetWorth)
}

// effectivePercentage is reported, not prescribed, under the difference
// method. A friend with zero net worth can only be eligible when the person
// is in debt; the share is reported as zero there.
func (c *Calculator) effectivePercentage(capped, friendNetWorth decimal.Decimal) decimal.Decimal {
	if c.cfg.Method == common.LoanMethodPercentage {
		return c.cfg.LendingPercentage.Round(moneyPlaces)
	}
	if !friendNetWorth.IsPositive() {
		return decimal.Zero
	}
	return capped.Div(friendNetWorth).Mul(hundred).Round(moneyPlaces)
}

func (c *Calculator) empty() Result {
	return Result{
		TotalAmount:   decimal.Zero,
		Contributions: []common.LoanContribution{},
		Method:        c.cfg.Method,
	}
}
