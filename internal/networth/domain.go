package networth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

// Asset is a manually maintained item of value (real estate, vehicle, cash
// holdings), independent of the aggregator feed.
type Asset struct {
	ID         uuid.UUID
	UserID     string // user UUID
	Name       string
	Type       string
	Value      decimal.Decimal
	AcquiredAt *time.Time
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (a *Asset) Validate() error {
	if a.Name == "" {
		return ledgerErrors.NewValidationError("Asset name must not be empty")
	}
	return nil
}

// Liability is a manually maintained debt. Balance is stored positive and
// subtracted from net worth.
type Liability struct {
	ID        uuid.UUID
	UserID    string // user UUID
	Name      string
	Type      string
	Balance   decimal.Decimal
	DueDate   *time.Time
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (l *Liability) Validate() error {
	if l.Name == "" {
		return ledgerErrors.NewValidationError("Liability name must not be empty")
	}
	return nil
}

// Snapshot is one persisted daily net-worth record. Immutable once written,
// except that re-snapshotting the same day overwrites it.
type Snapshot struct {
	ID                 uuid.UUID
	UserID             string // user UUID
	Date               time.Time
	NetWorth           decimal.Decimal
	TotalAssets        decimal.Decimal
	TotalLiabilities   decimal.Decimal
	AccountAssets      decimal.Decimal
	AccountLiabilities decimal.Decimal
	InvestmentAssets   decimal.Decimal
	ManualAssets       decimal.Decimal
	ManualLiabilities  decimal.Decimal
}

type AssetRepository interface {
	Save(ctx context.Context, asset *Asset) error
	FindByID(ctx context.Context, assetID uuid.UUID) (*Asset, error)
	FindByUser(ctx context.Context, userID string) ([]Asset, error)
	Update(ctx context.Context, asset *Asset) error
	Delete(ctx context.Context, assetID uuid.UUID) error
}

type LiabilityRepository interface {
	Save(ctx context.Context, liability *Liability) error
	FindByID(ctx context.Context, liabilityID uuid.UUID) (*Liability, error)
	FindByUser(ctx context.Context, userID string) ([]Liability, error)
	Update(ctx context.Context, liability *Liability) error
	Delete(ctx context.Context, liabilityID uuid.UUID) error
}

type SnapshotRepository interface {
	// Upsert writes the snapshot, overwriting an existing record for the same
	// user and day.
	Upsert(ctx context.Context, snapshot *Snapshot) error
	FindByUserInRange(ctx context.Context, userID string, start, end time.Time) ([]Snapshot, error)
}
