package application

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

// CategoryService manages user categories and their monthly budgets.
type CategoryService struct {
	categoryRepo domain.CategoryRepository
	txRepo       domain.TransactionRepository
}

func NewCategoryService(categoryRepo domain.CategoryRepository, txRepo domain.TransactionRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, txRepo: txRepo}
}

func (s *CategoryService) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	category.ID = uuid.New()
	if err := category.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.categoryRepo.FindByUserAndName(ctx, category.UserID, category.Name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, ledgerErrors.NewConflictError("Category with this name already exists")
	}
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Upsert creates the category or returns the existing one with the same
// name, updating its display fields.
func (s *CategoryService) Upsert(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	existing, err := s.categoryRepo.FindByUserAndName(ctx, category.UserID, category.Name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existing == nil {
		return s.Create(ctx, category)
	}
	existing.Color = category.Color
	existing.Icon = category.Icon
	existing.CarryOver = category.CarryOver
	if err := s.categoryRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *CategoryService) ListByUser(ctx context.Context, userID string) ([]domain.Category, error) {
	categories, err := s.categoryRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		return []domain.Category{}, nil
	}
	return categories, nil
}

func (s *CategoryService) Update(ctx context.Context, userID string, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}
	if _, err := s.findOwned(ctx, userID, category.ID); err != nil {
		return err
	}
	sameName, err := s.categoryRepo.FindByUserAndName(ctx, userID, category.Name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if sameName != nil && sameName.ID != category.ID {
		return ledgerErrors.NewConflictError("Category with this name already exists")
	}
	return s.categoryRepo.Update(ctx, category)
}

// Delete removes the category. Budgets go with it and transactions fall back
// to uncategorized; the schema's foreign keys carry that policy.
func (s *CategoryService) Delete(ctx context.Context, userID string, categoryID uuid.UUID) error {
	if _, err := s.findOwned(ctx, userID, categoryID); err != nil {
		return err
	}
	return s.categoryRepo.Delete(ctx, categoryID)
}

// SetBudget upserts the budgeted amount for one category and month.
func (s *CategoryService) SetBudget(ctx context.Context, userID string, categoryID uuid.UUID, month time.Time, amount decimal.Decimal) (*domain.CategoryBudget, error) {
	if _, err := s.findOwned(ctx, userID, categoryID); err != nil {
		return nil, err
	}
	budget := &domain.CategoryBudget{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Month:      firstOfMonth(month),
		Amount:     amount,
	}
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.UpsertBudget(ctx, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

// BudgetStatus is the state of one category's budget in one month.
type BudgetStatus struct {
	CategoryID uuid.UUID       `json:"category_id"`
	Category   string          `json:"category"`
	Month      time.Time       `json:"month"`
	Budgeted   decimal.Decimal `json:"budgeted"`
	CarryOver  decimal.Decimal `json:"carry_over"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
}

// MonthlyBudgetReport returns every budgeted category's status for the given
// month. For carry-over categories the unused remainder of each earlier
// budgeted month rolls forward; a negative remainder does not roll (an
// overspent month starts the next one at zero, not in debt).
func (s *CategoryService) MonthlyBudgetReport(ctx context.Context, userID string, month time.Time) ([]BudgetStatus, error) {
	month = firstOfMonth(month)
	budgets, err := s.categoryRepo.FindBudgetsByUserAndMonth(ctx, userID, month)
	if err != nil {
		return nil, err
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, budget := range budgets {
		category, err := s.categoryRepo.FindByID(ctx, budget.CategoryID)
		if err != nil {
			return nil, err
		}
		spent, err := s.spentInMonth(ctx, budget.CategoryID, month)
		if err != nil {
			return nil, err
		}
		carryOver := decimal.Zero
		if category.CarryOver {
			carryOver, err = s.carryOverInto(ctx, category, month)
			if err != nil {
				return nil, err
			}
		}
		statuses = append(statuses, BudgetStatus{
			CategoryID: category.ID,
			Category:   category.Name,
			Month:      month,
			Budgeted:   budget.Amount,
			CarryOver:  carryOver,
			Spent:      spent,
			Remaining:  budget.Amount.Add(carryOver).Sub(spent),
		})
	}
	return statuses, nil
}

// carryOverInto walks the category's budgets strictly before month in
// chronological order and accumulates the unused remainder.
func (s *CategoryService) carryOverInto(ctx context.Context, category *domain.Category, month time.Time) (decimal.Decimal, error) {
	budgets, err := s.categoryRepo.FindBudgets(ctx, category.ID, month)
	if err != nil {
		return decimal.Zero, err
	}
	carry := decimal.Zero
	for _, budget := range budgets {
		if !budget.Month.Before(month) {
			continue
		}
		spent, err := s.spentInMonth(ctx, category.ID, budget.Month)
		if err != nil {
			return decimal.Zero, err
		}
		carry = budget.Amount.Add(carry).Sub(spent)
		if carry.IsNegative() {
			carry = decimal.Zero
		}
	}
	return carry, nil
}

// spentInMonth is the categorized outflow for the month, as a positive
// number. Inflows in the category reduce it.
func (s *CategoryService) spentInMonth(ctx context.Context, categoryID uuid.UUID, month time.Time) (decimal.Decimal, error) {
	sum, err := s.txRepo.SumByCategoryInRange(ctx, categoryID, month, month.AddDate(0, 1, 0))
	if err != nil {
		return decimal.Zero, err
	}
	return sum.Neg(), nil
}

func (s *CategoryService) findOwned(ctx context.Context, userID string, categoryID uuid.UUID) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledgerErrors.NewNotFoundError("category")
		}
		return nil, err
	}
	if category.UserID != userID {
		return nil, ledgerErrors.NewNotFoundError("category")
	}
	return category, nil
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
