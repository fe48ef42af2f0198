package holding

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drewzeee/WealthVue-sub001/internal/investment/marketdata"
	"github.com/drewzeee/WealthVue-sub001/internal/investment/models"
	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

const testUserID = "11111111-1111-1111-1111-111111111111"

type mockHoldingRepository struct {
	accounts map[uuid.UUID]models.InvestmentAccount
	holdings map[uuid.UUID]models.Holding
}

func newMockHoldingRepository() *mockHoldingRepository {
	return &mockHoldingRepository{
		accounts: make(map[uuid.UUID]models.InvestmentAccount),
		holdings: make(map[uuid.UUID]models.Holding),
	}
}

func (m *mockHoldingRepository) createAccount(_ context.Context, account *models.InvestmentAccount) error {
	m.accounts[account.ID] = *account
	return nil
}

func (m *mockHoldingRepository) findAccountByID(_ context.Context, accountID uuid.UUID) (*models.InvestmentAccount, error) {
	account, ok := m.accounts[accountID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &account, nil
}

func (m *mockHoldingRepository) findAccountsByUser(_ context.Context, userID string) ([]models.InvestmentAccount, error) {
	var accounts []models.InvestmentAccount
	for _, account := range m.accounts {
		if account.UserID == userID {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}

func (m *mockHoldingRepository) deleteAccount(_ context.Context, accountID uuid.UUID) error {
	delete(m.accounts, accountID)
	return nil
}

func (m *mockHoldingRepository) createHolding(_ context.Context, holding *models.Holding) error {
	m.holdings[holding.ID] = *holding
	return nil
}

func (m *mockHoldingRepository) findHoldingByID(_ context.Context, holdingID uuid.UUID) (*models.Holding, error) {
	holding, ok := m.holdings[holdingID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &holding, nil
}

func (m *mockHoldingRepository) findHoldingsByAccount(_ context.Context, accountID uuid.UUID) ([]models.Holding, error) {
	var holdings []models.Holding
	for _, holding := range m.holdings {
		if holding.InvestmentAccountID == accountID {
			holdings = append(holdings, holding)
		}
	}
	return holdings, nil
}

func (m *mockHoldingRepository) findHoldingsByUser(_ context.Context, userID string) ([]models.Holding, error) {
	var holdings []models.Holding
	for _, holding := range m.holdings {
		account, ok := m.accounts[holding.InvestmentAccountID]
		if ok && account.UserID == userID {
			holdings = append(holdings, holding)
		}
	}
	return holdings, nil
}

func (m *mockHoldingRepository) updateHolding(_ context.Context, holding *models.Holding) error {
	m.holdings[holding.ID] = *holding
	return nil
}

func (m *mockHoldingRepository) updateHoldingPrice(_ context.Context, holding *models.Holding) error {
	m.holdings[holding.ID] = *holding
	return nil
}

func (m *mockHoldingRepository) deleteHolding(_ context.Context, holdingID uuid.UUID) error {
	delete(m.holdings, holdingID)
	return nil
}

type mockMarketData struct {
	quotes map[string]marketdata.Quote
	err    error
	calls  []map[models.AssetClass][]string
}

func (m *mockMarketData) GetPrices(_ context.Context, symbolsByClass map[models.AssetClass][]string) (map[string]marketdata.Quote, error) {
	m.calls = append(m.calls, symbolsByClass)
	if m.err != nil {
		return nil, m.err
	}
	return m.quotes, nil
}

func seedAccount(t *testing.T, repo *mockHoldingRepository, userID string) uuid.UUID {
	t.Helper()
	account := models.InvestmentAccount{ID: uuid.New(), UserID: userID, Name: "Brokerage"}
	require.NoError(t, repo.createAccount(context.Background(), &account))
	return account.ID
}

func seedHolding(t *testing.T, repo *mockHoldingRepository, accountID uuid.UUID, symbol string, class models.AssetClass, quantity, price string, manual bool) uuid.UUID {
	t.Helper()
	holding := models.Holding{
		ID:                  uuid.New(),
		InvestmentAccountID: accountID,
		Symbol:              symbol,
		AssetClass:          class,
		Quantity:            decimal.RequireFromString(quantity),
		CurrentPrice:        decimal.RequireFromString(price),
		ManualPrice:         manual,
	}
	require.NoError(t, repo.createHolding(context.Background(), &holding))
	return holding.ID
}

func TestRefreshPrices_UpdatesAutomaticHoldingsOnly(t *testing.T) {
	repo := newMockHoldingRepository()
	accountID := seedAccount(t, repo, testUserID)
	appleID := seedHolding(t, repo, accountID, "AAPL", models.AssetClassEquity, "10", "100.00", false)
	houseID := seedHolding(t, repo, accountID, "HOUSE", models.AssetClassEquity, "1", "350000.00", true)

	market := &mockMarketData{quotes: map[string]marketdata.Quote{
		"AAPL":  {Price: decimal.RequireFromString("187.50"), PreviousClose: decimal.RequireFromString("185.00")},
		"HOUSE": {Price: decimal.RequireFromString("1.00"), PreviousClose: decimal.RequireFromString("1.00")},
	}}
	service := NewHoldingService(repo, market, nil)

	updated, err := service.RefreshPrices(context.Background(), testUserID)
	assert.NoError(t, err)
	assert.Equal(t, 1, updated)

	apple := repo.holdings[appleID]
	assert.True(t, apple.CurrentPrice.Equal(decimal.RequireFromString("187.50")))
	require.NotNil(t, apple.PreviousClose)
	assert.True(t, apple.PreviousClose.Equal(decimal.RequireFromString("185.00")))
	assert.NotNil(t, apple.PriceUpdatedAt)

	// The manually priced position keeps its user-set price even though the
	// provider returned a quote for its symbol.
	house := repo.holdings[houseID]
	assert.True(t, house.CurrentPrice.Equal(decimal.RequireFromString("350000.00")))
	assert.Nil(t, house.PriceUpdatedAt)

	// Manual symbols are not even requested.
	require.Len(t, market.calls, 1)
	assert.Equal(t, []string{"AAPL"}, market.calls[0][models.AssetClassEquity])
}

func TestRefreshPrices_MissingQuoteKeepsLastPrice(t *testing.T) {
	repo := newMockHoldingRepository()
	accountID := seedAccount(t, repo, testUserID)
	appleID := seedHolding(t, repo, accountID, "AAPL", models.AssetClassEquity, "10", "100.00", false)
	obscureID := seedHolding(t, repo, accountID, "OBSCURE", models.AssetClassEquity, "5", "42.00", false)

	market := &mockMarketData{quotes: map[string]marketdata.Quote{
		"AAPL": {Price: decimal.RequireFromString("187.50"), PreviousClose: decimal.RequireFromString("185.00")},
	}}
	service := NewHoldingService(repo, market, nil)

	updated, err := service.RefreshPrices(context.Background(), testUserID)
	assert.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.True(t, repo.holdings[appleID].CurrentPrice.Equal(decimal.RequireFromString("187.50")))
	assert.True(t, repo.holdings[obscureID].CurrentPrice.Equal(decimal.RequireFromString("42.00")))
}

func TestTotalValueByUser_SplitsByAssetClass(t *testing.T) {
	repo := newMockHoldingRepository()
	accountID := seedAccount(t, repo, testUserID)
	seedHolding(t, repo, accountID, "AAPL", models.AssetClassEquity, "10", "100.00", false)
	seedHolding(t, repo, accountID, "BTC", models.AssetClassCrypto, "0.5", "60000.00", false)

	otherAccount := seedAccount(t, repo, "22222222-2222-2222-2222-222222222222")
	seedHolding(t, repo, otherAccount, "ETH", models.AssetClassCrypto, "100", "3000.00", false)

	service := NewHoldingService(repo, &mockMarketData{}, nil)
	total, byClass, err := service.TotalValueByUser(context.Background(), testUserID)
	assert.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("31000.00")), "got %s", total)
	assert.True(t, byClass["equity"].Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, byClass["crypto"].Equal(decimal.RequireFromString("30000.00")))
}

func TestHoldingOwnership_ForeignAccountIsNotFound(t *testing.T) {
	repo := newMockHoldingRepository()
	foreignAccount := seedAccount(t, repo, "22222222-2222-2222-2222-222222222222")

	service := NewHoldingService(repo, &mockMarketData{}, nil)
	holding := models.Holding{
		ID:                  uuid.New(),
		InvestmentAccountID: foreignAccount,
		Symbol:              "AAPL",
		AssetClass:          models.AssetClassEquity,
		Quantity:            decimal.NewFromInt(1),
	}
	err := service.CreateHolding(context.Background(), &holding, testUserID)
	assert.True(t, ledgerErrors.IsNotFoundError(err))
}

func TestHoldingDayChange(t *testing.T) {
	previousClose := decimal.RequireFromString("185.00")
	holding := models.Holding{
		Quantity:      decimal.RequireFromString("10"),
		CurrentPrice:  decimal.RequireFromString("187.50"),
		PreviousClose: &previousClose,
	}
	assert.True(t, holding.DayChange().Equal(decimal.RequireFromString("25.00")))

	holding.PreviousClose = nil
	assert.True(t, holding.DayChange().IsZero())
}
