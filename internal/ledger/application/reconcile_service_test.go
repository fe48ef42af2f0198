package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
	"github.com/drewzeee/WealthVue-sub001/internal/ledger/infrastructure"
)

const testUserID = "11111111-1111-1111-1111-111111111111"

func reconcileFixture(rules []domain.CategorizationRule) (*ReconcileService, *infrastructure.MockTransactionRepository, uuid.UUID, uuid.UUID) {
	checking := uuid.New()
	savings := uuid.New()
	txRepo := &infrastructure.MockTransactionRepository{
		Accounts: map[uuid.UUID]domain.Account{
			checking: {ID: checking, UserID: testUserID},
			savings:  {ID: savings, UserID: testUserID},
		},
		FailUpdateOn: map[uuid.UUID]bool{},
	}
	categorizer := NewCategorizationService(&infrastructure.MockRuleRepository{Rules: rules})
	service := NewReconcileService(txRepo, categorizer, DefaultReconcileConfig)
	return service, txRepo, checking, savings
}

func ledgerTxn(account uuid.UUID, description, amount string, date time.Time) domain.Transaction {
	return domain.Transaction{
		ID:          uuid.New(),
		AccountID:   account,
		Date:        date,
		Amount:      decimal.RequireFromString(amount),
		Source:      domain.SourceAggregator,
		CreatedAt:   date,
		Description: description,
	}
}

func TestProcessAllTransactions_CategorizesOnlyMatchingUncategorized(t *testing.T) {
	groceries := uuid.New()
	rules := []domain.CategorizationRule{
		{
			ID: uuid.New(), UserID: testUserID, CategoryID: groceries, Priority: 1,
			Conditions: []domain.Condition{
				{Field: domain.FieldDescription, Operator: domain.OperatorContains, Value: "market"},
			},
		},
	}
	service, txRepo, checking, _ := reconcileFixture(rules)

	day := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	preCategorized := uuid.New()

	// 3 already categorized, 4 matching the rule, 3 matching nothing.
	for i := 0; i < 3; i++ {
		txn := ledgerTxn(checking, "FARMERS MARKET", "-10.00", day.AddDate(0, 0, i))
		txn.CategoryID = &preCategorized
		txRepo.Transactions = append(txRepo.Transactions, txn)
	}
	for i := 0; i < 4; i++ {
		txRepo.Transactions = append(txRepo.Transactions,
			ledgerTxn(checking, "WHOLESALE MARKET", "-20.00", day.AddDate(0, 0, i)))
	}
	for i := 0; i < 3; i++ {
		txRepo.Transactions = append(txRepo.Transactions,
			ledgerTxn(checking, "GAS STATION", "-30.00", day.AddDate(0, 0, i)))
	}

	result, err := service.ProcessAllTransactions(context.Background(), testUserID)
	assert.NoError(t, err)
	assert.Equal(t, 4, result.CategorizedCount)
	assert.Equal(t, 0, result.FailedCount)

	categorized := 0
	untouchedPreCategorized := 0
	for _, txn := range txRepo.Transactions {
		if txn.CategoryID != nil && *txn.CategoryID == groceries {
			categorized++
		}
		if txn.CategoryID != nil && *txn.CategoryID == preCategorized {
			untouchedPreCategorized++
		}
	}
	assert.Equal(t, 4, categorized)
	assert.Equal(t, 3, untouchedPreCategorized, "pre-categorized rows stay untouched")
}

func TestProcessAllTransactions_PairsTransfers(t *testing.T) {
	service, txRepo, checking, savings := reconcileFixture(nil)

	day := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	out := ledgerTxn(checking, "TRANSFER TO SAVINGS", "-50.00", day)
	in := ledgerTxn(savings, "TRANSFER FROM CHECKING", "50.00", day.AddDate(0, 0, 1))
	txRepo.Transactions = append(txRepo.Transactions, out, in)

	result, err := service.ProcessAllTransactions(context.Background(), testUserID)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.TransferCount)

	stored := map[uuid.UUID]domain.Transaction{}
	for _, txn := range txRepo.Transactions {
		stored[txn.ID] = txn
	}
	assert.NotNil(t, stored[out.ID].TransferPairID)
	assert.NotNil(t, stored[in.ID].TransferPairID)
	assert.Equal(t, in.ID, *stored[out.ID].TransferPairID)
	assert.Equal(t, out.ID, *stored[in.ID].TransferPairID)
}

func TestProcessAllTransactions_CrossUserTransactionsNeverPair(t *testing.T) {
	// The repository scopes by user; the other user's matching leg is simply
	// not in this user's set.
	service, txRepo, checking, _ := reconcileFixture(nil)

	otherUsersAccount := uuid.New() // not registered for testUserID
	day := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	txRepo.Transactions = append(txRepo.Transactions,
		ledgerTxn(checking, "OUT", "-50.00", day),
		ledgerTxn(otherUsersAccount, "IN", "50.00", day),
	)

	result, err := service.ProcessAllTransactions(context.Background(), testUserID)
	assert.NoError(t, err)
	assert.Equal(t, 0, result.TransferCount)
}

func TestProcessAllTransactions_ContinuesPastRowFailures(t *testing.T) {
	category := uuid.New()
	rules := []domain.CategorizationRule{
		{
			ID: uuid.New(), UserID: testUserID, CategoryID: category, Priority: 1,
			Conditions: []domain.Condition{
				{Field: domain.FieldDescription, Operator: domain.OperatorContains, Value: "shop"},
			},
		},
	}
	service, txRepo, checking, _ := reconcileFixture(rules)

	day := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	failing := ledgerTxn(checking, "SHOP ONE", "-10.00", day)
	healthy := ledgerTxn(checking, "SHOP TWO", "-20.00", day)
	txRepo.Transactions = append(txRepo.Transactions, failing, healthy)
	txRepo.FailUpdateOn[failing.ID] = true

	result, err := service.ProcessAllTransactions(context.Background(), testUserID)
	assert.NoError(t, err, "single-row failures must not fail the batch")
	assert.Equal(t, 1, result.CategorizedCount)
	assert.Equal(t, 1, result.FailedCount)
}

func TestProcessAllTransactions_ManualExcludedWhenConfigured(t *testing.T) {
	service, txRepo, checking, savings := reconcileFixture(nil)
	service.config = ReconcileConfig{IncludeManualInAutoPasses: false}

	day := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	out := ledgerTxn(checking, "MOVE", "-40.00", day)
	in := ledgerTxn(savings, "MOVE", "40.00", day)
	in.Source = domain.SourceManual
	txRepo.Transactions = append(txRepo.Transactions, out, in)

	result, err := service.ProcessAllTransactions(context.Background(), testUserID)
	assert.NoError(t, err)
	assert.Equal(t, 0, result.TransferCount, "manual leg is excluded by policy")
}
