package networth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

type PostgresAssetRepository struct {
	db *sql.DB
}

func NewAssetRepository(db *sql.DB) *PostgresAssetRepository {
	return &PostgresAssetRepository{db: db}
}

func (r *PostgresAssetRepository) Save(ctx context.Context, asset *Asset) error {
	query := `
		INSERT INTO assets (id, user_id, name, type, value, acquired_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		asset.ID, asset.UserID, asset.Name, asset.Type, asset.Value, asset.AcquiredAt, asset.Notes,
	).Scan(&asset.CreatedAt, &asset.UpdatedAt)
}

func (r *PostgresAssetRepository) FindByID(ctx context.Context, assetID uuid.UUID) (*Asset, error) {
	query := `
		SELECT id, user_id, name, type, value, acquired_at, notes, created_at, updated_at
		FROM assets
		WHERE id = $1
	`
	var asset Asset
	err := r.db.QueryRowContext(ctx, query, assetID).Scan(
		&asset.ID, &asset.UserID, &asset.Name, &asset.Type, &asset.Value,
		&asset.AcquiredAt, &asset.Notes, &asset.CreatedAt, &asset.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledgerErrors.NewNotFoundError("Asset")
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *PostgresAssetRepository) FindByUser(ctx context.Context, userID string) ([]Asset, error) {
	query := `
		SELECT id, user_id, name, type, value, acquired_at, notes, created_at, updated_at
		FROM assets
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var asset Asset
		if err := rows.Scan(
			&asset.ID, &asset.UserID, &asset.Name, &asset.Type, &asset.Value,
			&asset.AcquiredAt, &asset.Notes, &asset.CreatedAt, &asset.UpdatedAt,
		); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func (r *PostgresAssetRepository) Update(ctx context.Context, asset *Asset) error {
	query := `
		UPDATE assets
		SET name = $2, type = $3, value = $4, acquired_at = $5, notes = $6, updated_at = now()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		asset.ID, asset.Name, asset.Type, asset.Value, asset.AcquiredAt, asset.Notes)
	return err
}

func (r *PostgresAssetRepository) Delete(ctx context.Context, assetID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE id = $1`, assetID)
	return err
}

type PostgresLiabilityRepository struct {
	db *sql.DB
}

func NewLiabilityRepository(db *sql.DB) *PostgresLiabilityRepository {
	return &PostgresLiabilityRepository{db: db}
}

func (r *PostgresLiabilityRepository) Save(ctx context.Context, liability *Liability) error {
	query := `
		INSERT INTO liabilities (id, user_id, name, type, balance, due_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		liability.ID, liability.UserID, liability.Name, liability.Type,
		liability.Balance, liability.DueDate, liability.Notes,
	).Scan(&liability.CreatedAt, &liability.UpdatedAt)
}

func (r *PostgresLiabilityRepository) FindByID(ctx context.Context, liabilityID uuid.UUID) (*Liability, error) {
	query := `
		SELECT id, user_id, name, type, balance, due_date, notes, created_at, updated_at
		FROM liabilities
		WHERE id = $1
	`
	var liability Liability
	err := r.db.QueryRowContext(ctx, query, liabilityID).Scan(
		&liability.ID, &liability.UserID, &liability.Name, &liability.Type, &liability.Balance,
		&liability.DueDate, &liability.Notes, &liability.CreatedAt, &liability.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledgerErrors.NewNotFoundError("Liability")
	}
	if err != nil {
		return nil, err
	}
	return &liability, nil
}

func (r *PostgresLiabilityRepository) FindByUser(ctx context.Context, userID string) ([]Liability, error) {
	query := `
		SELECT id, user_id, name, type, balance, due_date, notes, created_at, updated_at
		FROM liabilities
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var liabilities []Liability
	for rows.Next() {
		var liability Liability
		if err := rows.Scan(
			&liability.ID, &liability.UserID, &liability.Name, &liability.Type, &liability.Balance,
			&liability.DueDate, &liability.Notes, &liability.CreatedAt, &liability.UpdatedAt,
		); err != nil {
			return nil, err
		}
		liabilities = append(liabilities, liability)
	}
	return liabilities, rows.Err()
}

func (r *PostgresLiabilityRepository) Update(ctx context.Context, liability *Liability) error {
	query := `
		UPDATE liabilities
		SET name = $2, type = $3, balance = $4, due_date = $5, notes = $6, updated_at = now()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		liability.ID, liability.Name, liability.Type, liability.Balance,
		liability.DueDate, liability.Notes)
	return err
}

func (r *PostgresLiabilityRepository) Delete(ctx context.Context, liabilityID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM liabilities WHERE id = $1`, liabilityID)
	return err
}

type PostgresSnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

func (r *PostgresSnapshotRepository) Upsert(ctx context.Context, snapshot *Snapshot) error {
	query := `
		INSERT INTO net_worth_snapshots (
			id, user_id, snapshot_date, net_worth, total_assets, total_liabilities,
			account_assets, account_liabilities, investment_assets, manual_assets, manual_liabilities
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, snapshot_date) DO UPDATE SET
			net_worth = EXCLUDED.net_worth,
			total_assets = EXCLUDED.total_assets,
			total_liabilities = EXCLUDED.total_liabilities,
			account_assets = EXCLUDED.account_assets,
			account_liabilities = EXCLUDED.account_liabilities,
			investment_assets = EXCLUDED.investment_assets,
			manual_assets = EXCLUDED.manual_assets,
			manual_liabilities = EXCLUDED.manual_liabilities
	`
	_, err := r.db.ExecContext(ctx, query,
		snapshot.ID, snapshot.UserID, snapshot.Date,
		snapshot.NetWorth, snapshot.TotalAssets, snapshot.TotalLiabilities,
		snapshot.AccountAssets, snapshot.AccountLiabilities, snapshot.InvestmentAssets,
		snapshot.ManualAssets, snapshot.ManualLiabilities,
	)
	return err
}

func (r *PostgresSnapshotRepository) FindByUserInRange(ctx context.Context, userID string, start, end time.Time) ([]Snapshot, error) {
	query := `
		SELECT id, user_id, snapshot_date, net_worth, total_assets, total_liabilities,
			account_assets, account_liabilities, investment_assets, manual_assets, manual_liabilities
		FROM net_worth_snapshots
		WHERE user_id = $1 AND snapshot_date BETWEEN $2 AND $3
		ORDER BY snapshot_date
	`
	rows, err := r.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var snapshot Snapshot
		if err := rows.Scan(
			&snapshot.ID, &snapshot.UserID, &snapshot.Date,
			&snapshot.NetWorth, &snapshot.TotalAssets, &snapshot.TotalLiabilities,
			&snapshot.AccountAssets, &snapshot.AccountLiabilities, &snapshot.InvestmentAssets,
			&snapshot.ManualAssets, &snapshot.ManualLiabilities,
		); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}
