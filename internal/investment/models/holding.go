package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerErrors "github.com/drewzeee/WealthVue-sub001/internal/ledger/errors"
)

type AssetClass string

const (
	AssetClassEquity AssetClass = "equity"
	AssetClassETF    AssetClass = "etf"
	AssetClassCrypto AssetClass = "crypto"
	AssetClassCash   AssetClass = "cash"
)

func (c AssetClass) Valid() bool {
	switch c {
	case AssetClassEquity, AssetClassETF, AssetClassCrypto, AssetClassCash:
		return true
	}
	return false
}

// InvestmentAccount groups holdings under one brokerage or wallet.
type InvestmentAccount struct {
	ID        uuid.UUID
	UserID    string // user UUID
	Name      string
	Broker    string
	CreatedAt time.Time
}

func (a *InvestmentAccount) Validate() error {
	if a.Name == "" {
		return ledgerErrors.NewValidationError("Investment account name must not be empty")
	}
	return nil
}

// Holding is one position inside an investment account. Value is always
// Quantity x CurrentPrice; the product is never stored.
type Holding struct {
	ID                  uuid.UUID
	InvestmentAccountID uuid.UUID
	Symbol              string
	AssetClass          AssetClass
	Quantity            decimal.Decimal
	CostBasis           decimal.Decimal
	CurrentPrice        decimal.Decimal
	PreviousClose       *decimal.Decimal
	// ManualPrice marks positions whose price is user-maintained; automated
	// refreshes must leave them alone.
	ManualPrice    bool
	PriceUpdatedAt *time.Time
}

func (h *Holding) Validate() error {
	if h.Symbol == "" {
		return ledgerErrors.NewValidationError("Holding symbol must not be empty")
	}
	if !h.AssetClass.Valid() {
		return ledgerErrors.NewValidationError("Unknown asset class: " + string(h.AssetClass))
	}
	if h.Quantity.IsNegative() {
		return ledgerErrors.NewValidationError("Holding quantity must not be negative")
	}
	return nil
}

func (h *Holding) Value() decimal.Decimal {
	return h.Quantity.Mul(h.CurrentPrice)
}

// DayChange is the position's value movement since the previous close, zero
// when no previous close is known.
func (h *Holding) DayChange() decimal.Decimal {
	if h.PreviousClose == nil {
		return decimal.Zero
	}
	return h.Quantity.Mul(h.CurrentPrice.Sub(*h.PreviousClose))
}

func (h *Holding) GainLoss() decimal.Decimal {
	return h.Value().Sub(h.CostBasis)
}
