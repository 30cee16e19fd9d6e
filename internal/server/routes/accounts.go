package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/lendnet/backend/internal/util"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// CreateAccountHandler opens a bank account for a person. The account
// number must be an IBAN and is stored without spaces in upper case.
func CreateAccountHandler(c echo.Context) error {
	type createAccountBody struct {
		PersonID      string `json:"person_id" validate:"required"`
		AccountNumber string `json:"account_number" validate:"required,iban"`
		BankName      string `json:"bank_name" validate:"max=255"`
	}

	type accountResponse struct {
		Message string          `json:"message"`
		Account *common.Account `json:"account,omitempty"`
	}

	data := new(createAccountBody)
	if !bindValid(c, data) {
		return badRequest(c, "Invalid request body")
	}

	number := util.NormalizeIBAN(data.AccountNumber)
	acc, err := app(c).Ledger.CreateAccount(c.Request().Context(), data.PersonID, number, data.BankName)
	if err != nil {
		return fail(c, "Failed to create account", err)
	}
	return c.JSON(http.StatusCreated, accountResponse{Message: "Account created successfully", Account: &acc})
}

func ListAccountsHandler(c echo.Context) error {
	type accountsResponse struct {
		Message  string           `json:"message"`
		Accounts []common.Account `json:"accounts"`
	}

	accounts, err := app(c).Ledger.ListAccounts(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, "Failed to list accounts", err)
	}
	return c.JSON(http.StatusOK, accountsResponse{Message: "OK", Accounts: accounts})
}

// CreateTransactionHandler books an unsettled transaction. It only reaches
// balances with the next settlement run.
func CreateTransactionHandler(c echo.Context) error {
	type createTransactionBody struct {
		AccountID   int64           `json:"account_id" validate:"required,min=1"`
		Amount      decimal.Decimal `json:"amount"`
		Counterpart string          `json:"counterpart" validate:"max=255"`
	}

	type transactionResponse struct {
		Message     string              `json:"message"`
		Transaction *common.Transaction `json:"transaction,omitempty"`
	}

	data := new(createTransactionBody)
	if !bindValid(c, data) {
		return badRequest(c, "Invalid request body")
	}

	tx, err := app(c).Ledger.CreateTransaction(c.Request().Context(), data.AccountID, data.Amount, data.Counterpart)
	if err != nil {
		return fail(c, "Failed to create transaction", err)
	}
	return c.JSON(http.StatusCreated, transactionResponse{Message: "Transaction recorded", Transaction: &tx})
}
