package ports

import (
	"context"

	"github.com/jperezh/swarmtrader/internal/domain"
)

// OfferBook reads the off-chain view of the on-chain offer book.
type OfferBook interface {
	// ListOffers returns resting offers for a deposit/withdrawal asset pair,
	// paged from the RFQ API.
	ListOffers(ctx context.Context, depositAsset, withdrawalAsset string, page int) ([]domain.Offer, error)

	// PriceFeeds returns all oracle price feeds the venue publishes.
	PriceFeeds(ctx context.Context) ([]domain.PriceFeed, error)
}

// AccountReader exposes the brokerage account state for display.
type AccountReader interface {
	// Status returns account eligibility flags.
	Status(ctx context.Context) (domain.AccountStatus, error)

	// Funds returns the account's spendable balances.
	Funds(ctx context.Context) (domain.Funds, error)
}
