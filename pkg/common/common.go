package common

import (
	"time"

	"github.com/shopspring/decimal"
)

// Person is a ledger participant. The ledger row is the source of truth for
// identity and email uniqueness; the graph store mirrors it as a vertex keyed
// by the same ID.
//
// NetWorth is derived by the settlement pipeline and is never set by callers.
type Person struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	NetWorth  decimal.Decimal `json:"net_worth"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Account belongs to exactly one person. Balance equals the sum of every
// settled transaction booked on the account.
type Account struct {
	ID        int64           `json:"id"`
	PersonID  string          `json:"person_id"`
	Number    string          `json:"number"`
	BankName  string          `json:"bank_name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Transaction is a signed money movement on an account. Positive amounts are
// credits, negative amounts debits. Once Settled is true the amount has been
// folded into the account balance exactly once.
type Transaction struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Counterpart string          `json:"counterpart,omitempty"`
	Settled     bool            `json:"settled"`
	CreatedAt   time.Time       `json:"created_at"`
	SettledAt   *time.Time      `json:"settled_at,omitempty"`
}

// FriendPair is an unordered friendship between two persons.
type FriendPair struct {
	PersonID string `json:"person_id"`
	FriendID string `json:"friend_id"`
}

// NetworkStats summarizes the friendship neighborhood of a person.
//
// FriendsOfFriends counts persons reachable in at most two hops, excluding
// direct friends and the person itself. NetworkSize counts distinct persons
// reachable within Depth hops, excluding the person itself.
type NetworkStats struct {
	DirectFriends    int `json:"direct_friends"`
	FriendsOfFriends int `json:"friends_of_friends"`
	NetworkSize      int `json:"network_size"`
	Depth            int `json:"depth"`
}

// LoanMethod names the formula used to derive a friend's loan amount.
type LoanMethod string

const (
	LoanMethodDifference LoanMethod = "DIFFERENCE_BASED"
	LoanMethodPercentage LoanMethod = "PERCENTAGE_BASED"
)

// LoanContribution is what a single friend can lend.
type LoanContribution struct {
	FriendID          string          `json:"friend_id"`
	FriendName        string          `json:"friend_name,omitempty"`
	FriendNetWorth    decimal.Decimal `json:"friend_net_worth"`
	MaxLoanFromFriend decimal.Decimal `json:"max_loan_from_friend"`
	LendingPercentage decimal.Decimal `json:"lending_percentage"`
}

// LoanPotential is the lending capacity of one person. It is computed on
// demand and never stored.
type LoanPotential struct {
	PersonID       string             `json:"person_id"`
	PersonNetWorth decimal.Decimal    `json:"person_net_worth"`
	MaxLoanAmount  decimal.Decimal    `json:"max_loan_amount"`
	Contributions  []LoanContribution `json:"friend_contributions"`
	Method         LoanMethod         `json:"calculation_method"`
}
