package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
)

const transactionColumns = `id, account_id, date, authorized_date, description, merchant, amount,
        category_id, source, pending, connection_id, external_id, transfer_pair_id, notes, created_at, updated_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Save(ctx context.Context, transaction *domain.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions
        (id, account_id, date, authorized_date, description, merchant, amount, category_id, source, pending, connection_id, external_id, notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		transaction.ID, transaction.AccountID, transaction.Date, transaction.AuthorizedDate, transaction.Description,
		transaction.Merchant, transaction.Amount, transaction.CategoryID, transaction.Source, transaction.Pending,
		transaction.ConnectionID, transaction.ExternalID, transaction.Notes,
	)
	return err
}

func (r *TransactionRepository) FindByID(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, transactionID)
	return scanTransaction(row)
}

func (r *TransactionRepository) FindByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT t.id, t.account_id, t.date, t.authorized_date, t.description, t.merchant, t.amount,
                t.category_id, t.source, t.pending, t.connection_id, t.external_id, t.transfer_pair_id, t.notes, t.created_at, t.updated_at
         FROM transactions t
         JOIN accounts a ON a.id = t.account_id
         WHERE a.user_id = $1
         ORDER BY t.date DESC, t.created_at DESC`, userID)
}

func (r *TransactionRepository) FindUncategorizedByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT t.id, t.account_id, t.date, t.authorized_date, t.description, t.merchant, t.amount,
                t.category_id, t.source, t.pending, t.connection_id, t.external_id, t.transfer_pair_id, t.notes, t.created_at, t.updated_at
         FROM transactions t
         JOIN accounts a ON a.id = t.account_id
         WHERE a.user_id = $1 AND t.category_id IS NULL
         ORDER BY t.date, t.created_at`, userID)
}

func (r *TransactionRepository) FindUnpairedByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT t.id, t.account_id, t.date, t.authorized_date, t.description, t.merchant, t.amount,
                t.category_id, t.source, t.pending, t.connection_id, t.external_id, t.transfer_pair_id, t.notes, t.created_at, t.updated_at
         FROM transactions t
         JOIN accounts a ON a.id = t.account_id
         WHERE a.user_id = $1 AND t.transfer_pair_id IS NULL
         ORDER BY t.date, t.created_at`, userID)
}

func (r *TransactionRepository) Update(ctx context.Context, transaction *domain.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET account_id = $2, date = $3, authorized_date = $4, description = $5, merchant = $6,
                amount = $7, category_id = $8, pending = $9, transfer_pair_id = $10, notes = $11, updated_at = now()
         WHERE id = $1`,
		transaction.ID, transaction.AccountID, transaction.Date, transaction.AuthorizedDate, transaction.Description,
		transaction.Merchant, transaction.Amount, transaction.CategoryID, transaction.Pending,
		transaction.TransferPairID, transaction.Notes,
	)
	return err
}

func (r *TransactionRepository) UpdateCategory(ctx context.Context, transactionID uuid.UUID, categoryID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET category_id = $2, updated_at = now() WHERE id = $1`, transactionID, categoryID)
	return err
}

func (r *TransactionRepository) SetTransferPair(ctx context.Context, firstID, secondID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET transfer_pair_id = $2, updated_at = now() WHERE id = $1`, firstID, secondID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET transfer_pair_id = $2, updated_at = now() WHERE id = $1`, secondID, firstID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *TransactionRepository) ClearTransferPair(ctx context.Context, transactionID uuid.UUID) error {
	// Clears both legs: the partner is whatever row points back.
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET transfer_pair_id = NULL, updated_at = now()
         WHERE id = $1 OR transfer_pair_id = $1`, transactionID)
	return err
}

func (r *TransactionRepository) Delete(ctx context.Context, transactionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, transactionID)
	return err
}

func (r *TransactionRepository) SumByCategoryInRange(ctx context.Context, categoryID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions
         WHERE category_id = $1 AND date >= $2 AND date < $3 AND transfer_pair_id IS NULL`,
		categoryID, start, end).Scan(&sum)
	return sum, err
}

func (r *TransactionRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

// UpsertByExternalIDTx inserts or, when a row with the same (connection,
// external id) already exists, updates the mutable fields the aggregator may
// revise. Category is only written on insert so later rule or manual
// categorization sticks.
func (r *TransactionRepository) UpsertByExternalIDTx(ctx context.Context, tx *sql.Tx, transaction *domain.Transaction) (bool, error) {
	var inserted bool
	err := tx.QueryRowContext(ctx,
		`INSERT INTO transactions
        (id, account_id, date, authorized_date, description, merchant, amount, category_id, source, pending, connection_id, external_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (connection_id, external_id) DO UPDATE SET
            account_id = EXCLUDED.account_id,
            date = EXCLUDED.date,
            authorized_date = EXCLUDED.authorized_date,
            description = EXCLUDED.description,
            merchant = EXCLUDED.merchant,
            amount = EXCLUDED.amount,
            pending = EXCLUDED.pending,
            updated_at = now()
        RETURNING (xmax = 0)`,
		transaction.ID, transaction.AccountID, transaction.Date, transaction.AuthorizedDate, transaction.Description,
		transaction.Merchant, transaction.Amount, transaction.CategoryID, transaction.Source, transaction.Pending,
		transaction.ConnectionID, transaction.ExternalID,
	).Scan(&inserted)
	return inserted, err
}

func (r *TransactionRepository) DeleteByExternalIDTx(ctx context.Context, tx *sql.Tx, connectionID uuid.UUID, externalID string) (bool, error) {
	result, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE connection_id = $1 AND external_id = $2`, connectionID, externalID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var transaction domain.Transaction
		if err := rows.Scan(
			&transaction.ID, &transaction.AccountID, &transaction.Date, &transaction.AuthorizedDate,
			&transaction.Description, &transaction.Merchant, &transaction.Amount, &transaction.CategoryID,
			&transaction.Source, &transaction.Pending, &transaction.ConnectionID, &transaction.ExternalID,
			&transaction.TransferPairID, &transaction.Notes, &transaction.CreatedAt, &transaction.UpdatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	return transactions, rows.Err()
}

func scanTransaction(row *sql.Row) (*domain.Transaction, error) {
	var transaction domain.Transaction
	if err := row.Scan(
		&transaction.ID, &transaction.AccountID, &transaction.Date, &transaction.AuthorizedDate,
		&transaction.Description, &transaction.Merchant, &transaction.Amount, &transaction.CategoryID,
		&transaction.Source, &transaction.Pending, &transaction.ConnectionID, &transaction.ExternalID,
		&transaction.TransferPairID, &transaction.Notes, &transaction.CreatedAt, &transaction.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &transaction, nil
}
