package domain

import "github.com/shopspring/decimal"

// Venue identifies one of the two trading backends.
type Venue string

const (
	VenueCrossChainAccess Venue = "cross_chain_access"
	VenueMarketMaker      Venue = "market_maker"
)

func (v Venue) String() string { return string(v) }

// DisplayName returns the human-readable venue name used in errors and logs.
func (v Venue) DisplayName() string {
	switch v {
	case VenueCrossChainAccess:
		return "Cross-Chain Access"
	case VenueMarketMaker:
		return "Market Maker"
	}
	return string(v)
}

// RoutingStrategy selects how the orchestrator picks between venues.
type RoutingStrategy string

const (
	BestPrice             RoutingStrategy = "best_price"
	CrossChainAccessFirst RoutingStrategy = "cross_chain_access_first"
	MarketMakerFirst      RoutingStrategy = "market_maker_first"
	CrossChainAccessOnly  RoutingStrategy = "cross_chain_access_only"
	MarketMakerOnly       RoutingStrategy = "market_maker_only"
)

// AllowsFallback reports whether a failed execution on the selected venue may
// be retried on the other venue.
func (s RoutingStrategy) AllowsFallback() bool {
	switch s {
	case BestPrice, CrossChainAccessFirst, MarketMakerFirst:
		return true
	}
	return false
}

// ParseStrategy maps a strategy name to its RoutingStrategy value.
func ParseStrategy(name string) (RoutingStrategy, bool) {
	switch RoutingStrategy(name) {
	case BestPrice, CrossChainAccessFirst, MarketMakerFirst,
		CrossChainAccessOnly, MarketMakerOnly:
		return RoutingStrategy(name), true
	}
	return "", false
}

// PlatformOption is a venue's participation state for one trade attempt.
// Constructed once per request by the availability probe; never mutated.
// Available == false means trade execution on that venue must not be
// attempted.
type PlatformOption struct {
	Venue     Venue
	Quote     *Quote
	Available bool
	Err       string
}

// AvailableOption wraps a quote in an available PlatformOption. Quotes with a
// zero side are degenerate and mark the venue unavailable instead, so the
// router never compares them.
func AvailableOption(v Venue, q Quote) PlatformOption {
	if q.Empty() {
		return UnavailableOption(v, "empty quote")
	}
	return PlatformOption{Venue: v, Quote: &q, Available: true}
}

// UnavailableOption builds the unavailable state with a classification reason.
func UnavailableOption(v Venue, reason string) PlatformOption {
	return PlatformOption{Venue: v, Available: false, Err: reason}
}

// EffectiveRate is BuyAmount / SellAmount of the option's quote, the figure
// compared across venues. Zero when there is no quote or the quote has a zero
// sell amount.
func (o PlatformOption) EffectiveRate() decimal.Decimal {
	if o.Quote == nil || o.Quote.SellAmount.IsZero() {
		return decimal.Zero
	}
	return o.Quote.BuyAmount.Div(o.Quote.SellAmount)
}

// Usable reports whether the option can be routed to: available and quoted.
func (o PlatformOption) Usable() bool {
	return o.Available && o.Quote != nil
}
