package holding

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drewzeee/WealthVue-sub001/internal/investment/marketdata"
	"github.com/drewzeee/WealthVue-sub001/internal/investment/models"
	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

type MarketDataService interface {
	GetPrices(ctx context.Context, symbolsByClass map[models.AssetClass][]string) (map[string]marketdata.Quote, error)
}

type Service interface {
	CreateAccount(ctx context.Context, account *models.InvestmentAccount) error
	ListAccounts(ctx context.Context, userID string) ([]models.InvestmentAccount, error)
	DeleteAccount(ctx context.Context, accountID uuid.UUID, userID string) error
	CreateHolding(ctx context.Context, holding *models.Holding, userID string) error
	ListHoldings(ctx context.Context, accountID uuid.UUID, userID string) ([]models.Holding, error)
	UpdateHolding(ctx context.Context, holding *models.Holding, userID string) error
	DeleteHolding(ctx context.Context, holdingID uuid.UUID, userID string) error
	RefreshPrices(ctx context.Context, userID string) (int, error)
	// TotalValueByUser returns the summed market value of all the user's
	// holdings, plus the per-asset-class split of that total.
	TotalValueByUser(ctx context.Context, userID string) (decimal.Decimal, map[string]decimal.Decimal, error)
}

type service struct {
	repo       HoldingRepository
	marketData MarketDataService
	logger     *log.Logger
}

func NewHoldingService(repo HoldingRepository, marketData MarketDataService, logger *log.Logger) Service {
	if logger == nil {
		logger = log.Default()
	}
	return &service{repo: repo, marketData: marketData, logger: logger}
}

func (s *service) CreateAccount(ctx context.Context, account *models.InvestmentAccount) error {
	if err := account.Validate(); err != nil {
		return err
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	return s.repo.createAccount(ctx, account)
}

func (s *service) ListAccounts(ctx context.Context, userID string) ([]models.InvestmentAccount, error) {
	return s.repo.findAccountsByUser(ctx, userID)
}

func (s *service) DeleteAccount(ctx context.Context, accountID uuid.UUID, userID string) error {
	if _, err := s.ownedAccount(ctx, accountID, userID); err != nil {
		return err
	}
	return s.repo.deleteAccount(ctx, accountID)
}

func (s *service) CreateHolding(ctx context.Context, holding *models.Holding, userID string) error {
	if err := holding.Validate(); err != nil {
		return err
	}
	if _, err := s.ownedAccount(ctx, holding.InvestmentAccountID, userID); err != nil {
		return err
	}
	if holding.ID == uuid.Nil {
		holding.ID = uuid.New()
	}
	return s.repo.createHolding(ctx, holding)
}

func (s *service) ListHoldings(ctx context.Context, accountID uuid.UUID, userID string) ([]models.Holding, error) {
	if _, err := s.ownedAccount(ctx, accountID, userID); err != nil {
		return nil, err
	}
	return s.repo.findHoldingsByAccount(ctx, accountID)
}

func (s *service) UpdateHolding(ctx context.Context, holding *models.Holding, userID string) error {
	if err := holding.Validate(); err != nil {
		return err
	}
	existing, err := s.ownedHolding(ctx, holding.ID, userID)
	if err != nil {
		return err
	}
	holding.InvestmentAccountID = existing.InvestmentAccountID
	return s.repo.updateHolding(ctx, holding)
}

func (s *service) DeleteHolding(ctx context.Context, holdingID uuid.UUID, userID string) error {
	if _, err := s.ownedHolding(ctx, holdingID, userID); err != nil {
		return err
	}
	return s.repo.deleteHolding(ctx, holdingID)
}

// RefreshPrices pulls fresh quotes for every automatically priced holding of
// the user and returns how many holdings were updated. Manually priced
// holdings are never touched; symbols the providers could not quote keep
// their last known price.
func (s *service) RefreshPrices(ctx context.Context, userID string) (int, error) {
	holdings, err := s.repo.findHoldingsByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	symbolsByClass := make(map[models.AssetClass][]string)
	for _, holding := range holdings {
		if holding.ManualPrice || holding.AssetClass == models.AssetClassCash {
			continue
		}
		symbolsByClass[holding.AssetClass] = append(symbolsByClass[holding.AssetClass], holding.Symbol)
	}
	if len(symbolsByClass) == 0 {
		return 0, nil
	}

	quotes, err := s.marketData.GetPrices(ctx, symbolsByClass)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	updated := 0
	for i := range holdings {
		holding := &holdings[i]
		if holding.ManualPrice {
			continue
		}
		quote, ok := quotes[holding.Symbol]
		if !ok {
			continue
		}
		holding.CurrentPrice = quote.Price
		previousClose := quote.PreviousClose
		holding.PreviousClose = &previousClose
		holding.PriceUpdatedAt = &now
		if err := s.repo.updateHoldingPrice(ctx, holding); err != nil {
			s.logger.Printf("failed to store refreshed price for %s: %v", holding.Symbol, err)
			continue
		}
		updated++
	}
	return updated, nil
}

func (s *service) TotalValueByUser(ctx context.Context, userID string) (decimal.Decimal, map[string]decimal.Decimal, error) {
	holdings, err := s.repo.findHoldingsByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, nil, err
	}
	total := decimal.Zero
	byClass := make(map[string]decimal.Decimal)
	for _, holding := range holdings {
		value := holding.Value()
		total = total.Add(value)
		byClass[string(holding.AssetClass)] = byClass[string(holding.AssetClass)].Add(value)
	}
	return total, byClass, nil
}

func (s *service) ownedAccount(ctx context.Context, accountID uuid.UUID, userID string) (*models.InvestmentAccount, error) {
	account, err := s.repo.findAccountByID(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledgerErrors.NewNotFoundError("Investment account")
	}
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, ledgerErrors.NewNotFoundError("Investment account")
	}
	return account, nil
}

func (s *service) ownedHolding(ctx context.Context, holdingID uuid.UUID, userID string) (*models.Holding, error) {
	holding, err := s.repo.findHoldingByID(ctx, holdingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledgerErrors.NewNotFoundError("Holding")
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedAccount(ctx, holding.InvestmentAccountID, userID); err != nil {
		return nil, err
	}
	return holding, nil
}
