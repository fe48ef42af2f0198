package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
	"github.com/drewzeee/WealthVue-sub001/internal/ledger/infrastructure"
)

func categoryFixture() (*CategoryService, *infrastructure.MockCategoryRepository, *infrastructure.MockTransactionRepository) {
	categoryRepo := &infrastructure.MockCategoryRepository{}
	txRepo := &infrastructure.MockTransactionRepository{
		Accounts:     map[uuid.UUID]domain.Account{},
		FailUpdateOn: map[uuid.UUID]bool{},
	}
	return NewCategoryService(categoryRepo, txRepo), categoryRepo, txRepo
}

func TestCategoryRoundTrip(t *testing.T) {
	service, _, _ := categoryFixture()
	ctx := context.Background()

	created, err := service.Create(ctx, &domain.Category{
		UserID: testUserID,
		Name:   "Groceries",
		Color:  "#22c55e",
	})
	assert.NoError(t, err)

	categories, err := service.ListByUser(ctx, testUserID)
	assert.NoError(t, err)
	assert.Len(t, categories, 1)
	assert.Equal(t, "Groceries", categories[0].Name)
	assert.Equal(t, "#22c55e", categories[0].Color)

	assert.NoError(t, service.Delete(ctx, testUserID, created.ID))

	categories, err = service.ListByUser(ctx, testUserID)
	assert.NoError(t, err)
	assert.Empty(t, categories)
}

func TestCreateCategory_DuplicateNameConflicts(t *testing.T) {
	service, _, _ := categoryFixture()
	ctx := context.Background()

	_, err := service.Create(ctx, &domain.Category{UserID: testUserID, Name: "Travel"})
	assert.NoError(t, err)

	_, err = service.Create(ctx, &domain.Category{UserID: testUserID, Name: "travel"})
	assert.Error(t, err)
	assert.True(t, ledgerErrors.IsConflictError(err), "duplicate name must surface as a conflict")
}

func TestUpdateCategory_RenameToExistingNameConflicts(t *testing.T) {
	service, _, _ := categoryFixture()
	ctx := context.Background()

	_, err := service.Create(ctx, &domain.Category{UserID: testUserID, Name: "Travel"})
	assert.NoError(t, err)
	dining, err := service.Create(ctx, &domain.Category{UserID: testUserID, Name: "Dining"})
	assert.NoError(t, err)

	dining.Name = "Travel"
	err = service.Update(ctx, testUserID, dining)
	assert.True(t, ledgerErrors.IsConflictError(err), "rename onto an existing name must surface as a conflict")
}

func TestUpdateCategory_KeepingOwnNameIsNotAConflict(t *testing.T) {
	service, _, _ := categoryFixture()
	ctx := context.Background()

	travel, err := service.Create(ctx, &domain.Category{UserID: testUserID, Name: "Travel"})
	assert.NoError(t, err)

	travel.Color = "#0ea5e9"
	assert.NoError(t, service.Update(ctx, testUserID, travel))
}

func TestDeleteCategory_OtherUsersCategoryIsNotFound(t *testing.T) {
	service, _, _ := categoryFixture()
	ctx := context.Background()

	created, err := service.Create(ctx, &domain.Category{UserID: testUserID, Name: "Dining"})
	assert.NoError(t, err)

	err = service.Delete(ctx, "22222222-2222-2222-2222-222222222222", created.ID)
	assert.True(t, ledgerErrors.IsNotFoundError(err))
}

func TestMonthlyBudgetReport_CarryOverRollsUnusedBudget(t *testing.T) {
	service, _, txRepo := categoryFixture()
	ctx := context.Background()

	category, err := service.Create(ctx, &domain.Category{
		UserID:    testUserID,
		Name:      "Groceries",
		CarryOver: true,
	})
	assert.NoError(t, err)

	january := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	february := january.AddDate(0, 1, 0)

	_, err = service.SetBudget(ctx, testUserID, category.ID, january, decimal.RequireFromString("300"))
	assert.NoError(t, err)
	_, err = service.SetBudget(ctx, testUserID, category.ID, february, decimal.RequireFromString("300"))
	assert.NoError(t, err)

	// Spent 250 of January's 300.
	account := uuid.New()
	txRepo.Accounts[account] = domain.Account{ID: account, UserID: testUserID}
	categoryID := category.ID
	txRepo.Transactions = append(txRepo.Transactions, domain.Transaction{
		ID:         uuid.New(),
		AccountID:  account,
		Date:       january.AddDate(0, 0, 14),
		Amount:     decimal.RequireFromString("-250"),
		CategoryID: &categoryID,
		Source:     domain.SourceAggregator,
	})

	report, err := service.MonthlyBudgetReport(ctx, testUserID, february)
	assert.NoError(t, err)
	assert.Len(t, report, 1)
	assert.True(t, report[0].CarryOver.Equal(decimal.RequireFromString("50")),
		"expected carry-over 50, got %s", report[0].CarryOver)
	assert.True(t, report[0].Remaining.Equal(decimal.RequireFromString("350")),
		"expected remaining 350, got %s", report[0].Remaining)
}

func TestMonthlyBudgetReport_OverspentMonthDoesNotCarryDebt(t *testing.T) {
	service, _, txRepo := categoryFixture()
	ctx := context.Background()

	category, err := service.Create(ctx, &domain.Category{
		UserID:    testUserID,
		Name:      "Dining",
		CarryOver: true,
	})
	assert.NoError(t, err)

	january := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	february := january.AddDate(0, 1, 0)

	_, err = service.SetBudget(ctx, testUserID, category.ID, january, decimal.RequireFromString("100"))
	assert.NoError(t, err)
	_, err = service.SetBudget(ctx, testUserID, category.ID, february, decimal.RequireFromString("100"))
	assert.NoError(t, err)

	account := uuid.New()
	txRepo.Accounts[account] = domain.Account{ID: account, UserID: testUserID}
	categoryID := category.ID
	txRepo.Transactions = append(txRepo.Transactions, domain.Transaction{
		ID:         uuid.New(),
		AccountID:  account,
		Date:       january.AddDate(0, 0, 5),
		Amount:     decimal.RequireFromString("-180"),
		CategoryID: &categoryID,
		Source:     domain.SourceAggregator,
	})

	report, err := service.MonthlyBudgetReport(ctx, testUserID, february)
	assert.NoError(t, err)
	assert.Len(t, report, 1)
	assert.True(t, report[0].CarryOver.IsZero(), "overspend must not carry negative, got %s", report[0].CarryOver)
}
