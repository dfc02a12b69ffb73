package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a normalized price snapshot from one venue at one instant.
// All amounts are in human-readable units (e.g. 1.5 USDC, not base units).
// Quotes are immutable once constructed.
type Quote struct {
	SellToken  string
	BuyToken   string
	SellAmount decimal.Decimal
	BuyAmount  decimal.Decimal
	Rate       decimal.Decimal // BuyAmount / SellAmount
	Source     Venue
	Timestamp  time.Time
}

// NewQuote builds a Quote with the rate derived from the amounts.
// A zero sell amount yields a zero rate.
func NewQuote(sellToken, buyToken string, sellAmount, buyAmount decimal.Decimal, source Venue) Quote {
	rate := decimal.Zero
	if sellAmount.IsPositive() {
		rate = buyAmount.Div(sellAmount)
	}
	return Quote{
		SellToken:  sellToken,
		BuyToken:   buyToken,
		SellAmount: sellAmount,
		BuyAmount:  buyAmount,
		Rate:       rate,
		Source:     source,
		Timestamp:  time.Now().UTC(),
	}
}

// PricePerUnit is the amount of buy token received per unit of sell token.
// Returns zero when SellAmount is zero.
func (q Quote) PricePerUnit() decimal.Decimal {
	if q.SellAmount.IsZero() {
		return decimal.Zero
	}
	return q.BuyAmount.Div(q.SellAmount)
}

// InverseRate is SellAmount / BuyAmount, for displaying the opposite
// direction. Returns zero when BuyAmount is zero.
func (q Quote) InverseRate() decimal.Decimal {
	if q.BuyAmount.IsZero() {
		return decimal.Zero
	}
	return q.SellAmount.Div(q.BuyAmount)
}

// Empty reports whether either side of the quote is zero. An empty quote
// carries no usable price and is treated as venue-unavailable upstream.
func (q Quote) Empty() bool {
	return q.SellAmount.IsZero() || q.BuyAmount.IsZero()
}

func (q Quote) String() string {
	return fmt.Sprintf("Quote(%s): sell %s -> buy %s (rate %s)",
		q.Source, q.SellAmount, q.BuyAmount, q.Rate.StringFixed(6))
}
