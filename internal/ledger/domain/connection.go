package domain

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ExternalConnection is one link to the banking aggregator (the aggregator
// calls it an "item"). SyncCursor is the sole checkpoint of sync progress:
// nil means a full resync is needed, and it only ever advances together with
// the page of changes it represents.
type ExternalConnection struct {
	ID              uuid.UUID
	UserID          string // user UUID
	ExternalItemID  string
	InstitutionName string
	SyncCursor      *string
	LastSyncedAt    *time.Time
	CreatedAt       time.Time
}

type ConnectionRepository interface {
	Save(ctx context.Context, connection *ExternalConnection) error
	FindByID(ctx context.Context, connectionID uuid.UUID) (*ExternalConnection, error)
	FindByUser(ctx context.Context, userID string) ([]ExternalConnection, error)
	// UpdateCursorTx persists the advanced cursor inside the same SQL
	// transaction as the page of writes it checkpoints.
	UpdateCursorTx(ctx context.Context, tx *sql.Tx, connectionID uuid.UUID, cursor string) error
	ClearCursor(ctx context.Context, connectionID uuid.UUID) error
	Delete(ctx context.Context, connectionID uuid.UUID) error
}
