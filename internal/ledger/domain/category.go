package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

// Category is a user-defined spending category. Name is unique per user
// (case-insensitive).
type Category struct {
	ID        uuid.UUID
	UserID    string // user UUID
	Name      string
	Color     string
	Icon      string
	CarryOver bool // unused monthly budget rolls into the next month
	CreatedAt time.Time
}

func (c *Category) Validate() error {
	if c.Name == "" {
		return ledgerErrors.NewValidationError("Category name must not be empty")
	}
	if len(c.Name) > 100 {
		return ledgerErrors.NewValidationError("Category name must be of length less than 100")
	}
	return nil
}

// CategoryBudget is the budgeted amount for one category in one month.
// Month is always the first day of the month. Carry-over amounts are
// computed on read, never stored.
type CategoryBudget struct {
	ID         uuid.UUID
	CategoryID uuid.UUID
	Month      time.Time
	Amount     decimal.Decimal
}

func (b *CategoryBudget) Validate() error {
	if b.CategoryID == uuid.Nil {
		return ledgerErrors.NewValidationError("Budget must reference a category")
	}
	if b.Month.Day() != 1 {
		return ledgerErrors.NewValidationError("Budget month must be the first day of a month")
	}
	if b.Amount.IsNegative() {
		return ledgerErrors.NewValidationError("Budget amount must not be negative")
	}
	return nil
}

type CategoryRepository interface {
	Save(ctx context.Context, category *Category) error
	FindByID(ctx context.Context, categoryID uuid.UUID) (*Category, error)
	FindByUser(ctx context.Context, userID string) ([]Category, error)
	FindByUserAndName(ctx context.Context, userID, name string) (*Category, error)
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, categoryID uuid.UUID) error

	UpsertBudget(ctx context.Context, budget *CategoryBudget) error
	FindBudgets(ctx context.Context, categoryID uuid.UUID, until time.Time) ([]CategoryBudget, error)
	FindBudgetsByUserAndMonth(ctx context.Context, userID string, month time.Time) ([]CategoryBudget, error)
}
