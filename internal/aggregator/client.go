package aggregator

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AccountChange is the aggregator's view of one account at sync time.
type AccountChange struct {
	ExternalAccountID string
	Name              string
	Type              string
	CurrentBalance    decimal.Decimal
	AvailableBalance  *decimal.Decimal
	CreditLimit       *decimal.Decimal
}

// TransactionChange is one added or modified transaction in a change set.
// Amount follows the ledger convention: positive inflow, negative outflow.
type TransactionChange struct {
	ExternalID        string
	ExternalAccountID string
	Date              time.Time
	AuthorizedDate    *time.Time
	Description       string
	Merchant          *string
	Amount            decimal.Decimal
	Pending           bool
}

// RemovedTransaction identifies a transaction the aggregator has withdrawn.
type RemovedTransaction struct {
	ExternalID string
}

// ChangeSet is one page of incremental changes for a connection. Added,
// Modified and Removed are disjoint. NextCursor checkpoints everything up to
// and including this page; HasMore signals another page should be fetched
// before the sync call returns.
type ChangeSet struct {
	Accounts   []AccountChange
	Added      []TransactionChange
	Modified   []TransactionChange
	Removed    []RemovedTransaction
	NextCursor string
	HasMore    bool
}

type LinkToken struct {
	Token     string
	ExpiresAt time.Time
}

// Client is the boundary to the external banking aggregator. Implementations
// are fallible remote calls; callers wrap failures as upstream errors and
// never advance the sync cursor past an unapplied page.
type Client interface {
	// FetchChanges returns everything reported since cursor. An empty cursor
	// means full history.
	FetchChanges(ctx context.Context, externalItemID, cursor string) (*ChangeSet, error)
	CreateLinkToken(ctx context.Context, userID string) (*LinkToken, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (externalItemID string, err error)
}
