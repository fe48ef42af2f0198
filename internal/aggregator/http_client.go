package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// HTTPClient talks to a Plaid-style aggregator API over JSON.
type HTTPClient struct {
	baseURL    string
	clientID   string
	secret     string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, clientID, secret string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		clientID:   clientID,
		secret:     secret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type wireAccount struct {
	AccountID        string          `json:"account_id"`
	Name             string          `json:"name"`
	Type             string          `json:"type"`
	CurrentBalance   decimal.Decimal `json:"current_balance"`
	AvailableBalance *decimal.Decimal `json:"available_balance"`
	CreditLimit      *decimal.Decimal `json:"credit_limit"`
}

type wireTransaction struct {
	TransactionID  string          `json:"transaction_id"`
	AccountID      string          `json:"account_id"`
	Date           string          `json:"date"`
	AuthorizedDate *string         `json:"authorized_date"`
	Name           string          `json:"name"`
	MerchantName   *string         `json:"merchant_name"`
	Amount         decimal.Decimal `json:"amount"`
	Pending        bool            `json:"pending"`
}

type syncResponse struct {
	Accounts   []wireAccount     `json:"accounts"`
	Added      []wireTransaction `json:"added"`
	Modified   []wireTransaction `json:"modified"`
	Removed    []struct {
		TransactionID string `json:"transaction_id"`
	} `json:"removed"`
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}

func (c *HTTPClient) FetchChanges(ctx context.Context, externalItemID, cursor string) (*ChangeSet, error) {
	body := map[string]string{
		"item_id": externalItemID,
		"cursor":  cursor,
	}
	var response syncResponse
	if err := c.post(ctx, "/transactions/sync", body, &response); err != nil {
		return nil, err
	}

	changeSet := &ChangeSet{
		NextCursor: response.NextCursor,
		HasMore:    response.HasMore,
	}
	for _, account := range response.Accounts {
		changeSet.Accounts = append(changeSet.Accounts, AccountChange{
			ExternalAccountID: account.AccountID,
			Name:              account.Name,
			Type:              account.Type,
			CurrentBalance:    account.CurrentBalance,
			AvailableBalance:  account.AvailableBalance,
			CreditLimit:       account.CreditLimit,
		})
	}
	var err error
	if changeSet.Added, err = toTransactionChanges(response.Added); err != nil {
		return nil, err
	}
	if changeSet.Modified, err = toTransactionChanges(response.Modified); err != nil {
		return nil, err
	}
	for _, removed := range response.Removed {
		changeSet.Removed = append(changeSet.Removed, RemovedTransaction{ExternalID: removed.TransactionID})
	}
	return changeSet, nil
}

func toTransactionChanges(wire []wireTransaction) ([]TransactionChange, error) {
	changes := make([]TransactionChange, 0, len(wire))
	for _, transaction := range wire {
		date, err := time.Parse("2006-01-02", transaction.Date)
		if err != nil {
			return nil, fmt.Errorf("unparseable transaction date %q: %w", transaction.Date, err)
		}
		var authorizedDate *time.Time
		if transaction.AuthorizedDate != nil {
			parsed, err := time.Parse("2006-01-02", *transaction.AuthorizedDate)
			if err != nil {
				return nil, fmt.Errorf("unparseable authorized date %q: %w", *transaction.AuthorizedDate, err)
			}
			authorizedDate = &parsed
		}
		changes = append(changes, TransactionChange{
			ExternalID:        transaction.TransactionID,
			ExternalAccountID: transaction.AccountID,
			Date:              date,
			AuthorizedDate:    authorizedDate,
			Description:       transaction.Name,
			Merchant:          transaction.MerchantName,
			// The aggregator reports outflows as positive amounts; flip the
			// sign once, here, so the rest of the system never has to.
			Amount:  transaction.Amount.Neg(),
			Pending: transaction.Pending,
		})
	}
	return changes, nil
}

func (c *HTTPClient) CreateLinkToken(ctx context.Context, userID string) (*LinkToken, error) {
	body := map[string]string{"user_id": userID}
	var response struct {
		LinkToken  string    `json:"link_token"`
		Expiration time.Time `json:"expiration"`
	}
	if err := c.post(ctx, "/link/token/create", body, &response); err != nil {
		return nil, err
	}
	return &LinkToken{Token: response.LinkToken, ExpiresAt: response.Expiration}, nil
}

func (c *HTTPClient) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	body := map[string]string{"public_token": publicToken}
	var response struct {
		ItemID string `json:"item_id"`
	}
	if err := c.post(ctx, "/item/public_token/exchange", body, &response); err != nil {
		return "", err
	}
	return response.ItemID, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PLAID-CLIENT-ID", c.clientID)
	req.Header.Set("PLAID-SECRET", c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error querying aggregator %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
