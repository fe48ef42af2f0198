package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/application"
	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

type MockCategoryService struct {
	categories []domain.Category
	report     []application.BudgetStatus
	err        error
	lastBudget *domain.CategoryBudget
}

func (m *MockCategoryService) Create(_ context.Context, category *domain.Category) (*domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	category.ID = uuid.New()
	return category, nil
}

func (m *MockCategoryService) ListByUser(_ context.Context, _ string) ([]domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.categories, nil
}

func (m *MockCategoryService) Update(_ context.Context, _ string, _ *domain.Category) error {
	return m.err
}

func (m *MockCategoryService) Delete(_ context.Context, _ string, _ uuid.UUID) error {
	return m.err
}

func (m *MockCategoryService) SetBudget(_ context.Context, _ string, categoryID uuid.UUID, month time.Time, amount decimal.Decimal) (*domain.CategoryBudget, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastBudget = &domain.CategoryBudget{CategoryID: categoryID, Month: month, Amount: amount}
	return m.lastBudget, nil
}

func (m *MockCategoryService) MonthlyBudgetReport(_ context.Context, _ string, _ time.Time) ([]application.BudgetStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func TestCategoryHandler_CreateCategory_Success(t *testing.T) {
	mockService := &MockCategoryService{}
	handler := NewCategoryHandler(mockService, respondJSON, respondError)

	body, err := json.Marshal(map[string]interface{}{
		"name":  "Groceries",
		"color": "#2ECC71",
		"icon":  "cart",
	})
	require.NoError(t, err)

	req := authenticatedRequest(http.MethodPost, "/categories", body)
	w := httptest.NewRecorder()

	handler.CreateCategory(w, req)

	assert.Equal(t, http.StatusCreated, w.Result().StatusCode)

	var response struct {
		Status  string           `json:"status"`
		Message string           `json:"message"`
		Data    categoryResponse `json:"data"`
	}
	err = json.NewDecoder(w.Result().Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "success", response.Status)
	assert.Equal(t, "Groceries", response.Data.Name)
	assert.NotEqual(t, uuid.Nil, response.Data.ID)
}

func TestCategoryHandler_CreateCategory_Conflict(t *testing.T) {
	mockService := &MockCategoryService{err: ledgerErrors.NewConflictError("Category with this name already exists")}
	handler := NewCategoryHandler(mockService, respondJSON, respondError)

	body, err := json.Marshal(map[string]interface{}{"name": "Groceries"})
	require.NoError(t, err)

	req := authenticatedRequest(http.MethodPost, "/categories", body)
	w := httptest.NewRecorder()

	handler.CreateCategory(w, req)

	assert.Equal(t, http.StatusConflict, w.Result().StatusCode)

	var response map[string]interface{}
	err = json.NewDecoder(w.Result().Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "Category with this name already exists", response["message"])
}

func TestCategoryHandler_SetBudget_Success(t *testing.T) {
	mockService := &MockCategoryService{}
	handler := NewCategoryHandler(mockService, respondJSON, respondError)

	categoryID := uuid.New()
	body, err := json.Marshal(map[string]interface{}{
		"month":  "2026-04",
		"amount": "600.00",
	})
	require.NoError(t, err)

	req := authenticatedRequest(http.MethodPut, "/categories/"+categoryID.String()+"/budget", body)
	req.SetPathValue("categoryID", categoryID.String())
	w := httptest.NewRecorder()

	handler.SetBudget(w, req)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	require.NotNil(t, mockService.lastBudget)
	assert.Equal(t, categoryID, mockService.lastBudget.CategoryID)
	assert.Equal(t, time.April, mockService.lastBudget.Month.Month())
	assert.True(t, decimal.NewFromInt(600).Equal(mockService.lastBudget.Amount))
}

func TestCategoryHandler_SetBudget_InvalidMonth(t *testing.T) {
	handler := NewCategoryHandler(&MockCategoryService{}, respondJSON, respondError)

	categoryID := uuid.New()
	body, err := json.Marshal(map[string]interface{}{
		"month":  "April 2026",
		"amount": "600.00",
	})
	require.NoError(t, err)

	req := authenticatedRequest(http.MethodPut, "/categories/"+categoryID.String()+"/budget", body)
	req.SetPathValue("categoryID", categoryID.String())
	w := httptest.NewRecorder()

	handler.SetBudget(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)

	var response map[string]interface{}
	err = json.NewDecoder(w.Result().Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "Invalid month format, expected YYYY-MM", response["message"])
}

func TestCategoryHandler_GetBudgetReport_EmptyReportIsNotNull(t *testing.T) {
	handler := NewCategoryHandler(&MockCategoryService{}, respondJSON, respondError)

	req := authenticatedRequest(http.MethodGet, "/categories/budget-report?month=2026-04", nil)
	w := httptest.NewRecorder()

	handler.GetBudgetReport(w, req)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)

	var response struct {
		Status string                     `json:"status"`
		Data   []application.BudgetStatus `json:"data"`
	}
	err := json.NewDecoder(w.Result().Body).Decode(&response)
	require.NoError(t, err)
	assert.NotNil(t, response.Data)
	assert.Empty(t, response.Data)
}

func TestCategoryHandler_GetBudgetReport_Success(t *testing.T) {
	categoryID := uuid.New()
	mockService := &MockCategoryService{
		report: []application.BudgetStatus{
			{
				CategoryID: categoryID,
				Category:   "Groceries",
				Month:      time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
				Budgeted:   decimal.NewFromInt(600),
				Spent:      decimal.NewFromFloat(412.55),
				Remaining:  decimal.NewFromFloat(187.45),
			},
		},
	}
	handler := NewCategoryHandler(mockService, respondJSON, respondError)

	req := authenticatedRequest(http.MethodGet, "/categories/budget-report?month=2026-04", nil)
	w := httptest.NewRecorder()

	handler.GetBudgetReport(w, req)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)

	var response struct {
		Status string                     `json:"status"`
		Data   []application.BudgetStatus `json:"data"`
	}
	err := json.NewDecoder(w.Result().Body).Decode(&response)
	require.NoError(t, err)
	require.Len(t, response.Data, 1)
	assert.Equal(t, "Groceries", response.Data[0].Category)
	assert.True(t, decimal.NewFromFloat(187.45).Equal(response.Data[0].Remaining))
}
