package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type FinancialModelingPrepClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewFMPClient(apiKey string) *FinancialModelingPrepClient {
	return &FinancialModelingPrepClient{
		apiKey:     apiKey,
		baseURL:    "https://financialmodelingprep.com/api/v3",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type fmpQuote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	PreviousClose decimal.Decimal `json:"previousClose"`
}

// GetLatestPrices fetches quotes for the given symbols in one batched call.
// Symbols the provider does not know are simply absent from the result.
func (c *FinancialModelingPrepClient) GetLatestPrices(ctx context.Context, symbols []string) (map[string]Quote, error) {
	if len(symbols) == 0 {
		return map[string]Quote{}, nil
	}

	endpoint := fmt.Sprintf("%s/quote/%s?apikey=%s",
		c.baseURL, url.PathEscape(strings.Join(symbols, ",")), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error querying API: %s", resp.Status)
	}

	var results []fmpQuote
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, err
	}

	quotes := make(map[string]Quote, len(results))
	for _, result := range results {
		quotes[result.Symbol] = Quote{
			Price:         result.Price,
			PreviousClose: result.PreviousClose,
		}
	}
	return quotes, nil
}
