package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingType is how an on-chain offer prices its withdrawal asset.
type PricingType string

const (
	PricingFixed   PricingType = "fixed"   // fixed price per unit, set at offer creation
	PricingDynamic PricingType = "dynamic" // price tracks an oracle rate at take time
)

// Offer is one resting offer on the on-chain offer book. Deposit is what the
// maker deposited (and the taker receives); withdrawal is what the taker pays.
type Offer struct {
	ID                      string
	Maker                   string
	DepositAsset            string
	WithdrawalAsset         string
	AvailableAmount         decimal.Decimal // deposit asset still available
	PricePerUnit            decimal.Decimal // withdrawal per deposit unit, fixed offers
	DepositToWithdrawalRate decimal.Decimal // oracle rate, dynamic offers; zero when unset
	Pricing                 PricingType
	ExpiresAt               time.Time
}

// PriceFeed links a token contract to the oracle aggregator used to price
// dynamic offers in that token.
type PriceFeed struct {
	Asset string
	Feed  string
}

// OfferTerms describes a new offer to place on the offer book.
type OfferTerms struct {
	DepositAsset    string
	WithdrawalAsset string
	DepositAmount   decimal.Decimal
	PricePerUnit    decimal.Decimal
	Pricing         PricingType
	ExpiresAt       time.Time
}

// AccountStatus is the brokerage account's eligibility snapshot.
type AccountStatus struct {
	KYCPassed     bool
	Blocked       bool
	BlockedReason string
	MarketOpen    bool
}

// IsTradingAllowed reports whether the account can place orders right now.
// The market-hours check is separate; this covers account state only.
func (s AccountStatus) IsTradingAllowed() bool {
	return s.KYCPassed && !s.Blocked
}

// Funds is the brokerage account's spendable balances.
type Funds struct {
	BuyingPower decimal.Decimal // USDC available for buys
	Currency    string
}
