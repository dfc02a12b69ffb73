package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Caller input errors. Always local, never retried.
var (
	ErrBothAmounts   = errors.New("provide either a from amount or a to amount, not both")
	ErrNoAmount      = errors.New("provide either a from amount or a to amount")
	ErrInvalidAmount = errors.New("invalid amount")
)

// NoLiquidityError means routing cannot proceed: no venue can serve the
// request. Reasons holds the per-venue unavailability messages.
type NoLiquidityError struct {
	Reasons []string
}

func (e *NoLiquidityError) Error() string {
	return "no platforms available: " + strings.Join(e.Reasons, "; ")
}

// MarketClosedError means the brokerage venue rejected the trade because the
// stock market is closed.
type MarketClosedError struct {
	Reason string
}

func (e *MarketClosedError) Error() string { return "market closed: " + e.Reason }

// AccountBlockedError means the brokerage account cannot trade.
type AccountBlockedError struct {
	Reason string
}

func (e *AccountBlockedError) Error() string { return "account blocked: " + e.Reason }

// InsufficientFundsError is raised before any transfer when buying power or
// token balance does not cover the computed amount.
type InsufficientFundsError struct {
	Need string
	Have string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %s, have %s", e.Need, e.Have)
}

// TxFailedError means an on-chain transaction reverted or its confirmation
// timed out. Always fatal for the attempt. Hash is set when the transaction
// was broadcast.
type TxFailedError struct {
	Hash   string
	Reason string
}

func (e *TxFailedError) Error() string {
	if e.Hash != "" {
		return fmt.Sprintf("transaction %s failed: %s", e.Hash, e.Reason)
	}
	return "transaction failed: " + e.Reason
}

// TradeError wraps a failure inside one venue's multi-step trade protocol.
// TxHash is non-empty when funds already moved on-chain before the failure,
// so the caller can reconcile manually; no automatic reversal exists.
type TradeError struct {
	Venue  Venue
	TxHash string
	Err    error
}

func (e *TradeError) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("%s trade failed after transfer %s: %v", e.Venue.DisplayName(), e.TxHash, e.Err)
	}
	return fmt.Sprintf("%s trade failed: %v", e.Venue.DisplayName(), e.Err)
}

func (e *TradeError) Unwrap() error { return e.Err }

// AllPlatformsFailedError is terminal: the selected venue failed and the
// fallback venue failed too. Both underlying causes are retained.
type AllPlatformsFailedError struct {
	PrimaryVenue  Venue
	Primary       error
	FallbackVenue Venue
	Fallback      error
}

func (e *AllPlatformsFailedError) Error() string {
	return fmt.Sprintf("all platforms failed: primary (%s): %v; fallback (%s): %v",
		e.PrimaryVenue.DisplayName(), e.Primary, e.FallbackVenue.DisplayName(), e.Fallback)
}
