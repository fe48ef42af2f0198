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

// CoinGeckoClient quotes crypto symbols. CoinGecko keys prices by coin id,
// so common ticker symbols are translated first.
type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCoinGeckoClient() *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL:    "https://api.coingecko.com/api/v3",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

var coinIDBySymbol = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"LTC":   "litecoin",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
	"XRP":   "ripple",
}

func (c *CoinGeckoClient) GetLatestPrices(ctx context.Context, symbols []string) (map[string]Quote, error) {
	ids := make([]string, 0, len(symbols))
	symbolByID := make(map[string]string, len(symbols))
	for _, symbol := range symbols {
		id, ok := coinIDBySymbol[strings.ToUpper(symbol)]
		if !ok {
			continue
		}
		ids = append(ids, id)
		symbolByID[id] = symbol
	}
	if len(ids) == 0 {
		return map[string]Quote{}, nil
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true",
		c.baseURL, url.QueryEscape(strings.Join(ids, ",")))
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

	var results map[string]struct {
		USD       decimal.Decimal `json:"usd"`
		Change24h decimal.Decimal `json:"usd_24h_change"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, err
	}

	quotes := make(map[string]Quote, len(results))
	for id, entry := range results {
		symbol, ok := symbolByID[id]
		if !ok {
			continue
		}
		// CoinGecko reports a 24h percentage change rather than a close;
		// back the previous close out of it.
		divisor := decimal.NewFromInt(1).Add(entry.Change24h.Div(decimal.NewFromInt(100)))
		previousClose := entry.USD
		if !divisor.IsZero() {
			previousClose = entry.USD.DivRound(divisor, 8)
		}
		quotes[symbol] = Quote{Price: entry.USD, PreviousClose: previousClose}
	}
	return quotes, nil
}
