package domain

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

type TransactionSource string

const (
	SourceAggregator TransactionSource = "aggregator"
	SourceManual     TransactionSource = "manual"
	SourceImport     TransactionSource = "import"
)

var transactionSources = map[TransactionSource]bool{
	SourceAggregator: true,
	SourceManual:     true,
	SourceImport:     true,
}

// Transaction is a single ledger entry. Amounts are signed at ingestion:
// positive is money in, negative is money out, regardless of source.
type Transaction struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	Date           time.Time
	AuthorizedDate *time.Time
	Description    string
	Merchant       *string
	Amount         decimal.Decimal
	CategoryID     *uuid.UUID
	Source         TransactionSource
	Pending        bool
	ConnectionID   *uuid.UUID
	ExternalID     *string // unique per connection, drives upsert matching
	TransferPairID *uuid.UUID
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t *Transaction) Validate() error {
	if t.AccountID == uuid.Nil {
		return ledgerErrors.NewValidationError("Transaction must reference an account")
	}
	if t.Date.IsZero() {
		return ledgerErrors.NewValidationError("Transaction date must be set")
	}
	if len(t.Description) > 500 {
		return ledgerErrors.NewValidationError("Description must be of length less than 500")
	}
	if !transactionSources[t.Source] {
		return ledgerErrors.NewValidationError("Unknown transaction source: " + string(t.Source))
	}
	return nil
}

// IsTransfer reports whether the transaction is one leg of a paired internal
// transfer, which excludes it from income/expense summaries.
func (t *Transaction) IsTransfer() bool {
	return t.TransferPairID != nil
}

type TransactionRepository interface {
	Save(ctx context.Context, transaction *Transaction) error
	FindByID(ctx context.Context, transactionID uuid.UUID) (*Transaction, error)
	FindByUser(ctx context.Context, userID string) ([]Transaction, error)
	FindUncategorizedByUser(ctx context.Context, userID string) ([]Transaction, error)
	FindUnpairedByUser(ctx context.Context, userID string) ([]Transaction, error)
	Update(ctx context.Context, transaction *Transaction) error
	UpdateCategory(ctx context.Context, transactionID uuid.UUID, categoryID uuid.UUID) error
	SetTransferPair(ctx context.Context, firstID, secondID uuid.UUID) error
	ClearTransferPair(ctx context.Context, transactionID uuid.UUID) error
	Delete(ctx context.Context, transactionID uuid.UUID) error
	SumByCategoryInRange(ctx context.Context, categoryID uuid.UUID, start, end time.Time) (decimal.Decimal, error)

	// Sync applies a whole aggregator page plus the cursor advance inside one
	// SQL transaction, hence the Tx variants.
	BeginTx(ctx context.Context) (*sql.Tx, error)
	UpsertByExternalIDTx(ctx context.Context, tx *sql.Tx, transaction *Transaction) (inserted bool, err error)
	DeleteByExternalIDTx(ctx context.Context, tx *sql.Tx, connectionID uuid.UUID, externalID string) (deleted bool, err error)
}
