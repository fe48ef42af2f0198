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

func transactionFixture(rules []domain.CategorizationRule) (*TransactionService, *infrastructure.MockTransactionRepository, *infrastructure.MockCategoryRepository, uuid.UUID, uuid.UUID) {
	checking := uuid.New()
	savings := uuid.New()
	accounts := []domain.Account{
		{ID: checking, UserID: testUserID, Name: "Checking", Type: domain.AccountTypeChecking, Active: true},
		{ID: savings, UserID: testUserID, Name: "Savings", Type: domain.AccountTypeSavings, Active: true},
	}
	txRepo := &infrastructure.MockTransactionRepository{
		Accounts: map[uuid.UUID]domain.Account{
			checking: accounts[0],
			savings:  accounts[1],
		},
		FailUpdateOn: map[uuid.UUID]bool{},
	}
	accountRepo := &infrastructure.MockAccountRepository{Accounts: accounts}
	categoryRepo := &infrastructure.MockCategoryRepository{}
	categorizer := NewCategorizationService(&infrastructure.MockRuleRepository{Rules: rules})
	return NewTransactionService(txRepo, accountRepo, categoryRepo, categorizer), txRepo, categoryRepo, checking, savings
}

func TestCreateManual_RunsRuleEngineWhenUncategorized(t *testing.T) {
	groceries := uuid.New()
	rules := []domain.CategorizationRule{
		{
			ID: uuid.New(), UserID: testUserID, CategoryID: groceries, Priority: 1,
			Conditions: []domain.Condition{
				{Field: domain.FieldDescription, Operator: domain.OperatorContains, Value: "grocery"},
			},
		},
	}
	service, txRepo, _, checking, _ := transactionFixture(rules)

	transaction := &domain.Transaction{
		AccountID:   checking,
		Date:        time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		Description: "CORNER GROCERY",
		Amount:      decimal.RequireFromString("-42.00"),
	}
	assert.NoError(t, service.CreateManual(context.Background(), testUserID, transaction))
	assert.Equal(t, domain.SourceManual, transaction.Source)
	assert.NotNil(t, transaction.CategoryID)
	assert.Equal(t, groceries, *transaction.CategoryID)
	assert.Len(t, txRepo.Transactions, 1)
}

func TestCreateManual_ForeignAccountIsNotFound(t *testing.T) {
	service, _, _, _, _ := transactionFixture(nil)

	transaction := &domain.Transaction{
		AccountID:   uuid.New(),
		Date:        time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		Description: "anything",
		Amount:      decimal.RequireFromString("-1.00"),
	}
	err := service.CreateManual(context.Background(), testUserID, transaction)
	assert.True(t, ledgerErrors.IsNotFoundError(err))
}

func TestCreateManual_ForeignCategoryIsRejected(t *testing.T) {
	service, txRepo, categoryRepo, checking, _ := transactionFixture(nil)
	foreignCategory := uuid.New()
	categoryRepo.Categories = []domain.Category{
		{ID: foreignCategory, UserID: "22222222-2222-2222-2222-222222222222", Name: "Groceries"},
	}

	transaction := &domain.Transaction{
		AccountID:   checking,
		Date:        time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		Description: "CORNER GROCERY",
		Amount:      decimal.RequireFromString("-42.00"),
		CategoryID:  &foreignCategory,
	}
	err := service.CreateManual(context.Background(), testUserID, transaction)
	assert.True(t, ledgerErrors.IsValidationError(err))
	assert.Empty(t, txRepo.Transactions, "rejected transaction must not be persisted")
}

func TestCreateManual_UnknownCategoryIsRejected(t *testing.T) {
	service, txRepo, _, checking, _ := transactionFixture(nil)

	unknown := uuid.New()
	transaction := &domain.Transaction{
		AccountID:   checking,
		Date:        time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		Description: "CORNER GROCERY",
		Amount:      decimal.RequireFromString("-42.00"),
		CategoryID:  &unknown,
	}
	err := service.CreateManual(context.Background(), testUserID, transaction)
	assert.True(t, ledgerErrors.IsValidationError(err))
	assert.Empty(t, txRepo.Transactions)
}

func TestUpdate_ForeignCategoryIsRejected(t *testing.T) {
	service, txRepo, categoryRepo, checking, _ := transactionFixture(nil)
	ctx := context.Background()
	foreignCategory := uuid.New()
	categoryRepo.Categories = []domain.Category{
		{ID: foreignCategory, UserID: "22222222-2222-2222-2222-222222222222", Name: "Groceries"},
	}

	existing := ledgerTxn(checking, "CORNER GROCERY", "-42.00", time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC))
	existing.Source = domain.SourceManual
	txRepo.Transactions = append(txRepo.Transactions, existing)

	edited := existing
	edited.CategoryID = &foreignCategory
	err := service.Update(ctx, testUserID, &edited)
	assert.True(t, ledgerErrors.IsValidationError(err))
	assert.Nil(t, txRepo.Transactions[0].CategoryID, "rejected edit must not change the stored category")
}

func TestUpdate_AmountChangeBreaksTransferPairing(t *testing.T) {
	service, txRepo, _, checking, savings := transactionFixture(nil)
	ctx := context.Background()
	day := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

	out := ledgerTxn(checking, "MOVE OUT", "-80.00", day)
	in := ledgerTxn(savings, "MOVE IN", "80.00", day)
	out.Source = domain.SourceManual
	in.Source = domain.SourceManual
	txRepo.Transactions = append(txRepo.Transactions, out, in)
	assert.NoError(t, txRepo.SetTransferPair(ctx, out.ID, in.ID))

	edited := out
	edited.Amount = decimal.RequireFromString("-90.00")
	assert.NoError(t, service.Update(ctx, testUserID, &edited))

	stored := map[uuid.UUID]domain.Transaction{}
	for _, txn := range txRepo.Transactions {
		stored[txn.ID] = txn
	}
	assert.Nil(t, stored[out.ID].TransferPairID, "edited leg must be unpaired")
	assert.Nil(t, stored[in.ID].TransferPairID, "partner leg must be unpaired too")
}

func TestUpdate_NeutralEditKeepsPairing(t *testing.T) {
	service, txRepo, _, checking, savings := transactionFixture(nil)
	ctx := context.Background()
	day := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

	out := ledgerTxn(checking, "MOVE OUT", "-80.00", day)
	in := ledgerTxn(savings, "MOVE IN", "80.00", day)
	out.Source = domain.SourceManual
	in.Source = domain.SourceManual
	txRepo.Transactions = append(txRepo.Transactions, out, in)
	assert.NoError(t, txRepo.SetTransferPair(ctx, out.ID, in.ID))

	edited := out
	edited.Description = "Monthly savings move"
	assert.NoError(t, service.Update(ctx, testUserID, &edited))

	stored := map[uuid.UUID]domain.Transaction{}
	for _, txn := range txRepo.Transactions {
		stored[txn.ID] = txn
	}
	assert.NotNil(t, stored[out.ID].TransferPairID, "description edits keep the pairing")
}

func TestUnpair_RequiresExistingPair(t *testing.T) {
	service, txRepo, _, checking, _ := transactionFixture(nil)
	ctx := context.Background()

	solo := ledgerTxn(checking, "SOLO", "-10.00", time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC))
	txRepo.Transactions = append(txRepo.Transactions, solo)

	err := service.Unpair(ctx, testUserID, solo.ID)
	assert.True(t, ledgerErrors.IsValidationError(err))
}
