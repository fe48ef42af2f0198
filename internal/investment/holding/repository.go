package holding

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/drewzeee/WealthVue-sub001/internal/investment/models"
)

type HoldingRepository interface {
	createAccount(ctx context.Context, account *models.InvestmentAccount) error
	findAccountByID(ctx context.Context, accountID uuid.UUID) (*models.InvestmentAccount, error)
	findAccountsByUser(ctx context.Context, userID string) ([]models.InvestmentAccount, error)
	deleteAccount(ctx context.Context, accountID uuid.UUID) error
	createHolding(ctx context.Context, holding *models.Holding) error
	findHoldingByID(ctx context.Context, holdingID uuid.UUID) (*models.Holding, error)
	findHoldingsByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Holding, error)
	findHoldingsByUser(ctx context.Context, userID string) ([]models.Holding, error)
	updateHolding(ctx context.Context, holding *models.Holding) error
	updateHoldingPrice(ctx context.Context, holding *models.Holding) error
	deleteHolding(ctx context.Context, holdingID uuid.UUID) error
}

type holdingRepository struct {
	db *sql.DB
}

func NewHoldingRepository(db *sql.DB) HoldingRepository {
	return &holdingRepository{db: db}
}

func (r *holdingRepository) createAccount(ctx context.Context, account *models.InvestmentAccount) error {
	query := `
		INSERT INTO investment_accounts (id, user_id, name, broker)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	return r.db.QueryRowContext(ctx, query,
		account.ID, account.UserID, account.Name, account.Broker,
	).Scan(&account.CreatedAt)
}

func (r *holdingRepository) findAccountByID(ctx context.Context, accountID uuid.UUID) (*models.InvestmentAccount, error) {
	query := `
		SELECT id, user_id, name, broker, created_at
		FROM investment_accounts
		WHERE id = $1
	`
	var account models.InvestmentAccount
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&account.ID, &account.UserID, &account.Name, &account.Broker, &account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *holdingRepository) findAccountsByUser(ctx context.Context, userID string) ([]models.InvestmentAccount, error) {
	query := `
		SELECT id, user_id, name, broker, created_at
		FROM investment_accounts
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.InvestmentAccount
	for rows.Next() {
		var account models.InvestmentAccount
		if err := rows.Scan(
			&account.ID, &account.UserID, &account.Name, &account.Broker, &account.CreatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *holdingRepository) deleteAccount(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM investment_accounts WHERE id = $1`, accountID)
	return err
}

func (r *holdingRepository) createHolding(ctx context.Context, holding *models.Holding) error {
	query := `
		INSERT INTO holdings (
			id, investment_account_id, symbol, asset_class, quantity,
			cost_basis, current_price, previous_close, manual_price, price_updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		holding.ID, holding.InvestmentAccountID, holding.Symbol, holding.AssetClass,
		holding.Quantity, holding.CostBasis, holding.CurrentPrice,
		holding.PreviousClose, holding.ManualPrice, holding.PriceUpdatedAt,
	)
	return err
}

const holdingColumns = `
	id, investment_account_id, symbol, asset_class, quantity,
	cost_basis, current_price, previous_close, manual_price, price_updated_at
`

func scanHolding(scanner interface{ Scan(...any) error }) (*models.Holding, error) {
	var holding models.Holding
	err := scanner.Scan(
		&holding.ID, &holding.InvestmentAccountID, &holding.Symbol, &holding.AssetClass,
		&holding.Quantity, &holding.CostBasis, &holding.CurrentPrice,
		&holding.PreviousClose, &holding.ManualPrice, &holding.PriceUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &holding, nil
}

func (r *holdingRepository) findHoldingByID(ctx context.Context, holdingID uuid.UUID) (*models.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings WHERE id = $1`
	return scanHolding(r.db.QueryRowContext(ctx, query, holdingID))
}

func (r *holdingRepository) findHoldingsByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings WHERE investment_account_id = $1 ORDER BY symbol`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHoldings(rows)
}

func (r *holdingRepository) findHoldingsByUser(ctx context.Context, userID string) ([]models.Holding, error) {
	query := `
		SELECT h.id, h.investment_account_id, h.symbol, h.asset_class, h.quantity,
			h.cost_basis, h.current_price, h.previous_close, h.manual_price, h.price_updated_at
		FROM holdings h
		JOIN investment_accounts a ON a.id = h.investment_account_id
		WHERE a.user_id = $1
		ORDER BY h.symbol
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHoldings(rows)
}

func collectHoldings(rows *sql.Rows) ([]models.Holding, error) {
	var holdings []models.Holding
	for rows.Next() {
		holding, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, *holding)
	}
	return holdings, rows.Err()
}

func (r *holdingRepository) updateHolding(ctx context.Context, holding *models.Holding) error {
	query := `
		UPDATE holdings
		SET symbol = $2, asset_class = $3, quantity = $4, cost_basis = $5,
			current_price = $6, previous_close = $7, manual_price = $8, price_updated_at = $9
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		holding.ID, holding.Symbol, holding.AssetClass, holding.Quantity, holding.CostBasis,
		holding.CurrentPrice, holding.PreviousClose, holding.ManualPrice, holding.PriceUpdatedAt,
	)
	return err
}

func (r *holdingRepository) updateHoldingPrice(ctx context.Context, holding *models.Holding) error {
	query := `
		UPDATE holdings
		SET current_price = $2, previous_close = $3, price_updated_at = $4
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		holding.ID, holding.CurrentPrice, holding.PreviousClose, holding.PriceUpdatedAt,
	)
	return err
}

func (r *holdingRepository) deleteHolding(ctx context.Context, holdingID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM holdings WHERE id = $1`, holdingID)
	return err
}
