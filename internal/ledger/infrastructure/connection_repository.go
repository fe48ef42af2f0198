package infrastructure

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
)

type ConnectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

func (r *ConnectionRepository) Save(ctx context.Context, connection *domain.ExternalConnection) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO external_connections (id, user_id, external_item_id, institution_name, sync_cursor)
         VALUES ($1, $2, $3, $4, $5)`,
		connection.ID, connection.UserID, connection.ExternalItemID, connection.InstitutionName, connection.SyncCursor,
	)
	return err
}

func (r *ConnectionRepository) FindByID(ctx context.Context, connectionID uuid.UUID) (*domain.ExternalConnection, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, external_item_id, institution_name, sync_cursor, last_synced_at, created_at
         FROM external_connections WHERE id = $1`, connectionID)

	var connection domain.ExternalConnection
	if err := row.Scan(&connection.ID, &connection.UserID, &connection.ExternalItemID,
		&connection.InstitutionName, &connection.SyncCursor, &connection.LastSyncedAt, &connection.CreatedAt); err != nil {
		return nil, err
	}
	return &connection, nil
}

func (r *ConnectionRepository) FindByUser(ctx context.Context, userID string) ([]domain.ExternalConnection, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, external_item_id, institution_name, sync_cursor, last_synced_at, created_at
         FROM external_connections WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var connections []domain.ExternalConnection
	for rows.Next() {
		var connection domain.ExternalConnection
		if err := rows.Scan(&connection.ID, &connection.UserID, &connection.ExternalItemID,
			&connection.InstitutionName, &connection.SyncCursor, &connection.LastSyncedAt, &connection.CreatedAt); err != nil {
			return nil, err
		}
		connections = append(connections, connection)
	}
	return connections, rows.Err()
}

func (r *ConnectionRepository) UpdateCursorTx(ctx context.Context, tx *sql.Tx, connectionID uuid.UUID, cursor string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE external_connections SET sync_cursor = $2, last_synced_at = now() WHERE id = $1`,
		connectionID, cursor)
	return err
}

func (r *ConnectionRepository) ClearCursor(ctx context.Context, connectionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE external_connections SET sync_cursor = NULL WHERE id = $1`, connectionID)
	return err
}

func (r *ConnectionRepository) Delete(ctx context.Context, connectionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM external_connections WHERE id = $1`, connectionID)
	return err
}
