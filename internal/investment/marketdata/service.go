package marketdata

import (
	"context"
	"log"

	"github.com/shopspring/decimal"

	"github.com/drewzeee/WealthVue-sub001/internal/investment/models"
	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

// Quote is the latest known price for one symbol.
type Quote struct {
	Price         decimal.Decimal
	PreviousClose decimal.Decimal
}

// Client fetches quotes from one upstream provider. Implementations return
// whatever subset of symbols they could resolve; a missing symbol is not an
// error.
type Client interface {
	GetLatestPrices(ctx context.Context, symbols []string) (map[string]Quote, error)
}

// Service routes quote lookups to the provider that covers the asset class:
// equities and ETFs go to FMP, crypto to CoinGecko.
type Service struct {
	equities Client
	crypto   Client
	logger   *log.Logger
}

func NewService(equities, crypto Client, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{equities: equities, crypto: crypto, logger: logger}
}

func (s *Service) clientFor(class models.AssetClass) Client {
	switch class {
	case models.AssetClassCrypto:
		return s.crypto
	case models.AssetClassEquity, models.AssetClassETF:
		return s.equities
	default:
		return nil
	}
}

// GetPrices fetches quotes for the given symbols grouped by asset class.
// A provider outage takes out only the symbols of that class; the rest of
// the map is still returned. The call fails only when every provider failed.
func (s *Service) GetPrices(ctx context.Context, symbolsByClass map[models.AssetClass][]string) (map[string]Quote, error) {
	quotes := make(map[string]Quote)
	var lastErr error
	succeeded := false

	for class, symbols := range symbolsByClass {
		if len(symbols) == 0 {
			continue
		}
		client := s.clientFor(class)
		if client == nil {
			continue
		}
		classQuotes, err := client.GetLatestPrices(ctx, symbols)
		if err != nil {
			s.logger.Printf("market data fetch failed for asset class %s: %v", class, err)
			lastErr = err
			continue
		}
		succeeded = true
		for symbol, quote := range classQuotes {
			quotes[symbol] = quote
		}
	}

	if !succeeded && lastErr != nil {
		return nil, ledgerErrors.NewUpstreamError("market data", lastErr)
	}
	return quotes, nil
}
