package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Fixed decimal precision per asset class. On-chain base units keep their own
// token decimals; these apply to the normalized amounts the brokerage venue
// trades in.
const (
	RWADecimals  = 9 // RWA tokens
	USDCDecimals = 2 // fiat-pegged stablecoin legs
)

// ComputeLegs derives both legs of a trade from a unit price and exactly one
// caller-provided amount. price is the cost of one RWA unit in USDC. The
// missing leg is computed by direct multiplication or division and both legs
// are rounded to their asset's fixed precision with the same rounding rule
// (round half away from zero), so round-trips are deterministic.
func ComputeLegs(price decimal.Decimal, rwaAmount, usdcAmount *decimal.Decimal) (rwa, usdc decimal.Decimal, err error) {
	if rwaAmount != nil && usdcAmount != nil {
		return decimal.Zero, decimal.Zero, ErrBothAmounts
	}
	if rwaAmount == nil && usdcAmount == nil {
		return decimal.Zero, decimal.Zero, ErrNoAmount
	}
	if !price.IsPositive() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: price must be positive, got %s", ErrInvalidAmount, price)
	}

	if rwaAmount != nil {
		rwa = *rwaAmount
		usdc = rwa.Mul(price)
	} else {
		usdc = *usdcAmount
		rwa = usdc.Div(price)
	}

	rwa = rwa.Round(RWADecimals)
	usdc = usdc.Round(USDCDecimals)
	return rwa, usdc, nil
}
