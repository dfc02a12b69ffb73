package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide is the direction of a brokerage order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// TradeRequest describes one trade attempt. Exactly one of FromAmount and
// ToAmount must be set; Validate enforces this before any I/O happens.
type TradeRequest struct {
	FromToken  string
	ToToken    string
	FromAmount *decimal.Decimal // amount to sell
	ToAmount   *decimal.Decimal // amount to buy
	Symbol     string           // stock ticker, required for Cross-Chain Access (e.g. "AAPL")
	Affiliate  string           // optional affiliate address for Market Maker fee sharing
	UserEmail  string           // optional, used for brokerage order notifications
	Strategy   RoutingStrategy  // optional per-call override; empty uses the client default
}

// Validate checks the one-amount invariant and that the given amount is
// positive.
func (r TradeRequest) Validate() error {
	if r.FromAmount != nil && r.ToAmount != nil {
		return ErrBothAmounts
	}
	if r.FromAmount == nil && r.ToAmount == nil {
		return ErrNoAmount
	}
	amt := r.Amount()
	if !amt.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidAmount, amt)
	}
	return nil
}

// IsBuy reports the trade direction: spending a known from-amount means
// buying the to-token.
func (r TradeRequest) IsBuy() bool { return r.FromAmount != nil }

// Amount returns whichever amount was provided, or zero if none.
func (r TradeRequest) Amount() decimal.Decimal {
	if r.FromAmount != nil {
		return *r.FromAmount
	}
	if r.ToAmount != nil {
		return *r.ToAmount
	}
	return decimal.Zero
}

// TradeResult is the outcome of a completed trade. It is only constructed
// after every step of the venue protocol succeeded; no partial results exist.
type TradeResult struct {
	TxHash     string
	OrderID    string // venue order or offer ID, empty when not applicable
	SellToken  string
	BuyToken   string
	SellAmount decimal.Decimal
	BuyAmount  decimal.Decimal
	Rate       decimal.Decimal
	Source     Venue
	Timestamp  time.Time
	Network    Network
	Status     string
}

// StatusCompleted is the terminal state of a successful trade.
const StatusCompleted = "completed"

func (t TradeResult) String() string {
	return fmt.Sprintf("Trade(%s): sold %s for %s on %s (tx %s)",
		t.Source, t.SellAmount, t.BuyAmount, t.Network, short(t.TxHash))
}

func short(h string) string {
	if len(h) > 10 {
		return h[:10] + "..."
	}
	return h
}
