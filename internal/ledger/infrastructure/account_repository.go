package infrastructure

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
)

const accountColumns = `id, user_id, name, type, current_balance, available_balance, credit_limit,
        active, connection_id, external_account_id, created_at, updated_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Save(ctx context.Context, account *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts
        (id, user_id, name, type, current_balance, available_balance, credit_limit, active, connection_id, external_account_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		account.ID, account.UserID, account.Name, account.Type, account.CurrentBalance, account.AvailableBalance,
		account.CreditLimit, account.Active, account.ConnectionID, account.ExternalAccountID,
	)
	return err
}

func (r *AccountRepository) FindByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID)
	return scanAccount(row)
}

func (r *AccountRepository) FindByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(
			&account.ID, &account.UserID, &account.Name, &account.Type, &account.CurrentBalance,
			&account.AvailableBalance, &account.CreditLimit, &account.Active, &account.ConnectionID,
			&account.ExternalAccountID, &account.CreatedAt, &account.UpdatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) FindByConnectionAndExternalID(ctx context.Context, connectionID uuid.UUID, externalAccountID string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE connection_id = $1 AND external_account_id = $2`,
		connectionID, externalAccountID)
	return scanAccount(row)
}

func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = $2, type = $3, current_balance = $4, available_balance = $5,
                credit_limit = $6, active = $7, updated_at = now()
         WHERE id = $1`,
		account.ID, account.Name, account.Type, account.CurrentBalance, account.AvailableBalance,
		account.CreditLimit, account.Active,
	)
	return err
}

// UpsertByExternalIDTx keeps the account's balances fresh on every sync page
// and resolves the caller's Account to the stored row's id.
func (r *AccountRepository) UpsertByExternalIDTx(ctx context.Context, tx *sql.Tx, account *domain.Account) error {
	return tx.QueryRowContext(ctx,
		`INSERT INTO accounts
        (id, user_id, name, type, current_balance, available_balance, credit_limit, active, connection_id, external_account_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (connection_id, external_account_id) DO UPDATE SET
            name = EXCLUDED.name,
            current_balance = EXCLUDED.current_balance,
            available_balance = EXCLUDED.available_balance,
            credit_limit = EXCLUDED.credit_limit,
            updated_at = now()
        RETURNING id`,
		account.ID, account.UserID, account.Name, account.Type, account.CurrentBalance, account.AvailableBalance,
		account.CreditLimit, account.Active, account.ConnectionID, account.ExternalAccountID,
	).Scan(&account.ID)
}

func (r *AccountRepository) Delete(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, accountID)
	return err
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.ID, &account.UserID, &account.Name, &account.Type, &account.CurrentBalance,
		&account.AvailableBalance, &account.CreditLimit, &account.Active, &account.ConnectionID,
		&account.ExternalAccountID, &account.CreatedAt, &account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}
