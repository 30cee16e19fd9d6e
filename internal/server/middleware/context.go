package middleware

import (
	"context"

	"github.com/OFFIS-RIT/lendnet/backend/internal/person"
	"github.com/OFFIS-RIT/lendnet/backend/internal/settlement"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/store"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

type PersonService interface {
	Create(ctx context.Context, name, email string) (common.Person, error)
	Get(ctx context.Context, id string) (common.Person, error)
	Update(ctx context.Context, id string, update store.PersonUpdate) (common.Person, error)
	Delete(ctx context.Context, id string) error

	AddFriend(ctx context.Context, personID, friendID string) error
	RemoveFriend(ctx context.Context, personID, friendID string) error
	ListFriends(ctx context.Context, id string) ([]common.Person, error)
	NetworkStats(ctx context.Context, id string) (common.NetworkStats, error)

	Reconcile(ctx context.Context) (person.ReconcileReport, error)
	ClearGraph(ctx context.Context) error
}

type SettlementService interface {
	Run(ctx context.Context, upTo settlement.Stage) (*settlement.RunReport, error)
	LoanPotentialFor(ctx context.Context, personID string) (common.LoanPotential, error)
}

type LedgerService interface {
	Ping(ctx context.Context) error
	CreateAccount(ctx context.Context, personID, number, bankName string) (common.Account, error)
	ListAccounts(ctx context.Context, personID string) ([]common.Account, error)
	CreateTransaction(ctx context.Context, accountID int64, amount decimal.Decimal, counterpart string) (common.Transaction, error)
}

type GraphHealth interface {
	Ping(ctx context.Context) error
}

// Publisher is an open AMQP channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// App holds the process-wide collaborators shared by every request. Queue
// is nil when no broker is configured.
type App struct {
	Persons    PersonService
	Settlement SettlementService
	Ledger     LedgerService
	Graph      GraphHealth
	Queue      Publisher

	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App       *App
	RequestID string
}

const RequestIDHeader = "X-Request-ID"

// AppContextMiddleware wraps every request in an AppContext and tags it
// with a request id, reusing the caller's id when one is sent.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(RequestIDHeader)
			if id == "" {
				var err error
				if id, err = gonanoid.New(); err != nil {
					return err
				}
			}
			c.Response().Header().Set(RequestIDHeader, id)

			cc := &AppContext{Context: c, App: app, RequestID: id}
			return next(cc)
		}
	}
}
