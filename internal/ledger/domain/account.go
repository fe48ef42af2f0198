package domain

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeLoan       AccountType = "loan"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeOther      AccountType = "other"
)

var accountTypes = map[AccountType]bool{
	AccountTypeChecking:   true,
	AccountTypeSavings:    true,
	AccountTypeCredit:     true,
	AccountTypeLoan:       true,
	AccountTypeInvestment: true,
	AccountTypeOther:      true,
}

// Account is one ledger account owned by exactly one user. Credit and loan
// accounts store the amount owed as a positive balance; net-worth math
// subtracts them.
type Account struct {
	ID                uuid.UUID
	UserID            string // user UUID
	Name              string
	Type              AccountType
	CurrentBalance    decimal.Decimal
	AvailableBalance  *decimal.Decimal
	CreditLimit       *decimal.Decimal
	Active            bool
	ConnectionID      *uuid.UUID
	ExternalAccountID *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (a *Account) Validate() error {
	if a.Name == "" {
		return ledgerErrors.NewValidationError("Account name must not be empty")
	}
	if !accountTypes[a.Type] {
		return ledgerErrors.NewValidationError("Unknown account type: " + string(a.Type))
	}
	return nil
}

// IsLiability reports whether the account's balance counts against net worth.
func (a *Account) IsLiability() bool {
	return a.Type == AccountTypeCredit || a.Type == AccountTypeLoan
}

type AccountRepository interface {
	Save(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, accountID uuid.UUID) (*Account, error)
	FindByUser(ctx context.Context, userID string) ([]Account, error)
	FindByConnectionAndExternalID(ctx context.Context, connectionID uuid.UUID, externalAccountID string) (*Account, error)
	Update(ctx context.Context, account *Account) error
	UpsertByExternalIDTx(ctx context.Context, tx *sql.Tx, account *Account) error
	Delete(ctx context.Context, accountID uuid.UUID) error
}
