package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Save(ctx context.Context, category *domain.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, color, icon, carry_over)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		category.ID, category.UserID, category.Name, category.Color, category.Icon, category.CarryOver,
	)
	return err
}

func (r *CategoryRepository) FindByID(ctx context.Context, categoryID uuid.UUID) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, color, icon, carry_over, created_at FROM categories WHERE id = $1`, categoryID)
	return scanCategory(row)
}

func (r *CategoryRepository) FindByUser(ctx context.Context, userID string) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, color, icon, carry_over, created_at FROM categories
         WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.UserID, &category.Name, &category.Color,
			&category.Icon, &category.CarryOver, &category.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) FindByUserAndName(ctx context.Context, userID, name string) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, color, icon, carry_over, created_at FROM categories
         WHERE user_id = $1 AND lower(name) = lower($2)`, userID, name)
	return scanCategory(row)
}

func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = $2, color = $3, icon = $4, carry_over = $5 WHERE id = $1`,
		category.ID, category.Name, category.Color, category.Icon, category.CarryOver,
	)
	return err
}

// Delete removes the category; budgets cascade and transactions fall back to
// NULL category via the schema's foreign keys.
func (r *CategoryRepository) Delete(ctx context.Context, categoryID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, categoryID)
	return err
}

func (r *CategoryRepository) UpsertBudget(ctx context.Context, budget *domain.CategoryBudget) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO category_budgets (id, category_id, month, amount)
         VALUES ($1, $2, $3, $4)
         ON CONFLICT (category_id, month) DO UPDATE SET amount = EXCLUDED.amount
         RETURNING id`,
		budget.ID, budget.CategoryID, budget.Month, budget.Amount,
	).Scan(&budget.ID)
}

func (r *CategoryRepository) FindBudgets(ctx context.Context, categoryID uuid.UUID, until time.Time) ([]domain.CategoryBudget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, month, amount FROM category_budgets
         WHERE category_id = $1 AND month < $2 ORDER BY month`, categoryID, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBudgets(rows)
}

func (r *CategoryRepository) FindBudgetsByUserAndMonth(ctx context.Context, userID string, month time.Time) ([]domain.CategoryBudget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.category_id, b.month, b.amount FROM category_budgets b
         JOIN categories c ON c.id = b.category_id
         WHERE c.user_id = $1 AND b.month = $2 ORDER BY c.name`, userID, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBudgets(rows)
}

func scanBudgets(rows *sql.Rows) ([]domain.CategoryBudget, error) {
	var budgets []domain.CategoryBudget
	for rows.Next() {
		var budget domain.CategoryBudget
		if err := rows.Scan(&budget.ID, &budget.CategoryID, &budget.Month, &budget.Amount); err != nil {
			return nil, err
		}
		budgets = append(budgets, budget)
	}
	return budgets, rows.Err()
}

func scanCategory(row *sql.Row) (*domain.Category, error) {
	var category domain.Category
	if err := row.Scan(&category.ID, &category.UserID, &category.Name, &category.Color,
		&category.Icon, &category.CarryOver, &category.CreatedAt); err != nil {
		return nil, err
	}
	return &category, nil
}
