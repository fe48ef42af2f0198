package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
)

// In-memory repositories for service-level tests. Only the paths the
// application services exercise are implemented; the Tx-variants used by
// sync are covered by the Postgres integration test instead.

type MockTransactionRepository struct {
	Transactions []domain.Transaction
	Accounts     map[uuid.UUID]domain.Account // account id -> account, for user scoping
	FailUpdateOn map[uuid.UUID]bool           // transaction ids whose writes should error
}

func (m *MockTransactionRepository) userOf(accountID uuid.UUID) string {
	if account, ok := m.Accounts[accountID]; ok {
		return account.UserID
	}
	return ""
}

func (m *MockTransactionRepository) Save(_ context.Context, transaction *domain.Transaction) error {
	m.Transactions = append(m.Transactions, *transaction)
	return nil
}

func (m *MockTransactionRepository) FindByID(_ context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	for i := range m.Transactions {
		if m.Transactions[i].ID == transactionID {
			transaction := m.Transactions[i]
			return &transaction, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MockTransactionRepository) FindByUser(_ context.Context, userID string) ([]domain.Transaction, error) {
	var result []domain.Transaction
	for _, transaction := range m.Transactions {
		if m.userOf(transaction.AccountID) == userID {
			result = append(result, transaction)
		}
	}
	return result, nil
}

func (m *MockTransactionRepository) FindUncategorizedByUser(_ context.Context, userID string) ([]domain.Transaction, error) {
	var result []domain.Transaction
	for _, transaction := range m.Transactions {
		if m.userOf(transaction.AccountID) == userID && transaction.CategoryID == nil {
			result = append(result, transaction)
		}
	}
	return result, nil
}

func (m *MockTransactionRepository) FindUnpairedByUser(_ context.Context, userID string) ([]domain.Transaction, error) {
	var result []domain.Transaction
	for _, transaction := range m.Transactions {
		if m.userOf(transaction.AccountID) == userID && transaction.TransferPairID == nil {
			result = append(result, transaction)
		}
	}
	return result, nil
}

func (m *MockTransactionRepository) Update(_ context.Context, transaction *domain.Transaction) error {
	if m.FailUpdateOn[transaction.ID] {
		return errors.New("forced update failure")
	}
	for i := range m.Transactions {
		if m.Transactions[i].ID == transaction.ID {
			m.Transactions[i] = *transaction
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *MockTransactionRepository) UpdateCategory(_ context.Context, transactionID uuid.UUID, categoryID uuid.UUID) error {
	if m.FailUpdateOn[transactionID] {
		return errors.New("forced update failure")
	}
	for i := range m.Transactions {
		if m.Transactions[i].ID == transactionID {
			id := categoryID
			m.Transactions[i].CategoryID = &id
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *MockTransactionRepository) SetTransferPair(_ context.Context, firstID, secondID uuid.UUID) error {
	if m.FailUpdateOn[firstID] || m.FailUpdateOn[secondID] {
		return errors.New("forced update failure")
	}
	for i := range m.Transactions {
		if m.Transactions[i].ID == firstID {
			id := secondID
			m.Transactions[i].TransferPairID = &id
		}
		if m.Transactions[i].ID == secondID {
			id := firstID
			m.Transactions[i].TransferPairID = &id
		}
	}
	return nil
}

func (m *MockTransactionRepository) ClearTransferPair(_ context.Context, transactionID uuid.UUID) error {
	for i := range m.Transactions {
		if m.Transactions[i].ID == transactionID || (m.Transactions[i].TransferPairID != nil && *m.Transactions[i].TransferPairID == transactionID) {
			m.Transactions[i].TransferPairID = nil
		}
	}
	return nil
}

func (m *MockTransactionRepository) Delete(_ context.Context, transactionID uuid.UUID) error {
	for i := range m.Transactions {
		if m.Transactions[i].ID == transactionID {
			m.Transactions = append(m.Transactions[:i], m.Transactions[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *MockTransactionRepository) SumByCategoryInRange(_ context.Context, categoryID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, transaction := range m.Transactions {
		if transaction.CategoryID == nil || *transaction.CategoryID != categoryID {
			continue
		}
		if transaction.TransferPairID != nil {
			continue
		}
		if transaction.Date.Before(start) || !transaction.Date.Before(end) {
			continue
		}
		sum = sum.Add(transaction.Amount)
	}
	return sum, nil
}

func (m *MockTransactionRepository) BeginTx(_ context.Context) (*sql.Tx, error) {
	panic("implement me")
}

func (m *MockTransactionRepository) UpsertByExternalIDTx(_ context.Context, _ *sql.Tx, _ *domain.Transaction) (bool, error) {
	panic("implement me")
}

func (m *MockTransactionRepository) DeleteByExternalIDTx(_ context.Context, _ *sql.Tx, _ uuid.UUID, _ string) (bool, error) {
	panic("implement me")
}

type MockAccountRepository struct {
	Accounts []domain.Account
}

func (m *MockAccountRepository) Save(_ context.Context, account *domain.Account) error {
	m.Accounts = append(m.Accounts, *account)
	return nil
}

func (m *MockAccountRepository) FindByID(_ context.Context, accountID uuid.UUID) (*domain.Account, error) {
	for i := range m.Accounts {
		if m.Accounts[i].ID == accountID {
			account := m.Accounts[i]
			return &account, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MockAccountRepository) FindByUser(_ context.Context, userID string) ([]domain.Account, error) {
	var result []domain.Account
	for _, account := range m.Accounts {
		if account.UserID == userID {
			result = append(result, account)
		}
	}
	return result, nil
}

func (m *MockAccountRepository) FindByConnectionAndExternalID(_ context.Context, connectionID uuid.UUID, externalAccountID string) (*domain.Account, error) {
	for i := range m.Accounts {
		account := m.Accounts[i]
		if account.ConnectionID != nil && *account.ConnectionID == connectionID &&
			account.ExternalAccountID != nil && *account.ExternalAccountID == externalAccountID {
			return &account, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MockAccountRepository) Update(_ context.Context, account *domain.Account) error {
	for i := range m.Accounts {
		if m.Accounts[i].ID == account.ID {
			m.Accounts[i] = *account
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *MockAccountRepository) UpsertByExternalIDTx(_ context.Context, _ *sql.Tx, _ *domain.Account) error {
	panic("implement me")
}

func (m *MockAccountRepository) Delete(_ context.Context, accountID uuid.UUID) error {
	for i := range m.Accounts {
		if m.Accounts[i].ID == accountID {
			m.Accounts = append(m.Accounts[:i], m.Accounts[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type MockRuleRepository struct {
	Rules []domain.CategorizationRule
}

func (m *MockRuleRepository) Save(_ context.Context, rule *domain.CategorizationRule) error {
	m.Rules = append(m.Rules, *rule)
	return nil
}

func (m *MockRuleRepository) FindByID(_ context.Context, ruleID uuid.UUID) (*domain.CategorizationRule, error) {
	for i := range m.Rules {
		if m.Rules[i].ID == ruleID {
			rule := m.Rules[i]
			return &rule, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MockRuleRepository) FindByUser(_ context.Context, userID string) ([]domain.CategorizationRule, error) {
	var result []domain.CategorizationRule
	for _, rule := range m.Rules {
		if rule.UserID == userID {
			result = append(result, rule)
		}
	}
	return result, nil
}

func (m *MockRuleRepository) Update(_ context.Context, rule *domain.CategorizationRule) error {
	for i := range m.Rules {
		if m.Rules[i].ID == rule.ID {
			m.Rules[i] = *rule
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *MockRuleRepository) Delete(_ context.Context, ruleID uuid.UUID) error {
	for i := range m.Rules {
		if m.Rules[i].ID == ruleID {
			m.Rules = append(m.Rules[:i], m.Rules[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type MockCategoryRepository struct {
	Categories []domain.Category
	Budgets    []domain.CategoryBudget
}

func (m *MockCategoryRepository) Save(_ context.Context, category *domain.Category) error {
	m.Categories = append(m.Categories, *category)
	return nil
}

func (m *MockCategoryRepository) FindByID(_ context.Context, categoryID uuid.UUID) (*domain.Category, error) {
	for i := range m.Categories {
		if m.Categories[i].ID == categoryID {
			category := m.Categories[i]
			return &category, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MockCategoryRepository) FindByUser(_ context.Context, userID string) ([]domain.Category, error) {
	var result []domain.Category
	for _, category := range m.Categories {
		if category.UserID == userID {
			result = append(result, category)
		}
	}
	return result, nil
}

func (m *MockCategoryRepository) FindByUserAndName(_ context.Context, userID, name string) (*domain.Category, error) {
	for i := range m.Categories {
		if m.Categories[i].UserID == userID && strings.EqualFold(m.Categories[i].Name, name) {
			category := m.Categories[i]
			return &category, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MockCategoryRepository) Update(_ context.Context, category *domain.Category) error {
	for i := range m.Categories {
		if m.Categories[i].ID == category.ID {
			m.Categories[i] = *category
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *MockCategoryRepository) Delete(_ context.Context, categoryID uuid.UUID) error {
	for i := range m.Categories {
		if m.Categories[i].ID == categoryID {
			m.Categories = append(m.Categories[:i], m.Categories[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *MockCategoryRepository) UpsertBudget(_ context.Context, budget *domain.CategoryBudget) error {
	for i := range m.Budgets {
		if m.Budgets[i].CategoryID == budget.CategoryID && m.Budgets[i].Month.Equal(budget.Month) {
			m.Budgets[i].Amount = budget.Amount
			budget.ID = m.Budgets[i].ID
			return nil
		}
	}
	m.Budgets = append(m.Budgets, *budget)
	return nil
}

func (m *MockCategoryRepository) FindBudgets(_ context.Context, categoryID uuid.UUID, until time.Time) ([]domain.CategoryBudget, error) {
	var result []domain.CategoryBudget
	for _, budget := range m.Budgets {
		if budget.CategoryID == categoryID && budget.Month.Before(until) {
			result = append(result, budget)
		}
	}
	sortBudgetsByMonth(result)
	return result, nil
}

func (m *MockCategoryRepository) FindBudgetsByUserAndMonth(_ context.Context, userID string, month time.Time) ([]domain.CategoryBudget, error) {
	owned := make(map[uuid.UUID]bool)
	for _, category := range m.Categories {
		if category.UserID == userID {
			owned[category.ID] = true
		}
	}
	var result []domain.CategoryBudget
	for _, budget := range m.Budgets {
		if owned[budget.CategoryID] && budget.Month.Equal(month) {
			result = append(result, budget)
		}
	}
	return result, nil
}

func sortBudgetsByMonth(budgets []domain.CategoryBudget) {
	for i := 1; i < len(budgets); i++ {
		for j := i; j > 0 && budgets[j].Month.Before(budgets[j-1].Month); j-- {
			budgets[j], budgets[j-1] = budgets[j-1], budgets[j]
		}
	}
}
