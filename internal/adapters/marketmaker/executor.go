// Package marketmaker drives trades against the on-chain offer book: the RFQ
// service selects the best resting offers, and the manager contract fills
// them atomically.
package marketmaker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jperezh/swarmtrader/internal/adapters/rfq"
	"github.com/jperezh/swarmtrader/internal/domain"
	"github.com/jperezh/swarmtrader/internal/ports"
)

// Executor implements ports.VenueExecutor for the offer-book venue.
type Executor struct {
	offers  *rfq.Client
	taker   ports.OfferTaker
	network domain.Network
}

// New builds the offer-book executor. taker submits the fill transactions.
func New(offers *rfq.Client, taker ports.OfferTaker, network domain.Network) *Executor {
	return &Executor{offers: offers, taker: taker, network: network}
}

// Venue identifies this executor to the router.
func (e *Executor) Venue() domain.Venue { return domain.VenueMarketMaker }

// Probe fetches an RFQ quote for the pair. Any failure, including an empty
// book, becomes an unavailable option.
func (e *Executor) Probe(ctx context.Context, req domain.TradeRequest) domain.PlatformOption {
	quote, err := e.offers.Quote(ctx, req.ToToken, req.FromToken, req.FromAmount, req.ToAmount)
	if err != nil {
		slog.Warn("marketmaker: quote failed", "from", req.FromToken, "to", req.ToToken, "error", err)
		return domain.UnavailableOption(domain.VenueMarketMaker, err.Error())
	}
	return domain.AvailableOption(domain.VenueMarketMaker, quote)
}

// Execute fills the best resting offer for the request. Dynamic offers
// without a rate cap in the RFQ response are refused before any transaction
// is sent.
func (e *Executor) Execute(ctx context.Context, req domain.TradeRequest, _ domain.PlatformOption) (domain.TradeResult, error) {
	best, err := e.offers.BestOffers(ctx, req.ToToken, req.FromToken, req.FromAmount, req.ToAmount)
	if err != nil {
		return domain.TradeResult{}, &domain.TradeError{Venue: domain.VenueMarketMaker, Err: err}
	}
	sel := best.Offers[0]

	if sel.Pricing == domain.PricingDynamic && sel.MaxRate == nil {
		return domain.TradeResult{}, &domain.TradeError{
			Venue: domain.VenueMarketMaker,
			Err:   fmt.Errorf("marketmaker.Execute: dynamic offer %s missing deposit-to-withdrawal rate", sel.ID),
		}
	}
	if !sel.PricePerUnit.IsPositive() {
		return domain.TradeResult{}, &domain.TradeError{
			Venue: domain.VenueMarketMaker,
			Err:   fmt.Errorf("marketmaker.Execute: offer %s has no price", sel.ID),
		}
	}

	slog.Info("marketmaker: taking offer",
		"offer_id", sel.ID, "pricing", sel.Pricing, "amount_paid", sel.AmountPaid, "price_per_unit", sel.PricePerUnit)

	var txHash string
	if sel.Pricing == domain.PricingDynamic {
		txHash, err = e.taker.TakeOfferDynamic(ctx, sel.ID, req.FromToken, sel.AmountPaid, *sel.MaxRate, req.Affiliate)
	} else {
		txHash, err = e.taker.TakeOfferFixed(ctx, sel.ID, req.FromToken, sel.AmountPaid, req.Affiliate)
	}
	if err != nil {
		return domain.TradeResult{}, &domain.TradeError{Venue: domain.VenueMarketMaker, TxHash: txHash, Err: err}
	}

	received := sel.AmountPaid.Div(sel.PricePerUnit)
	return domain.TradeResult{
		TxHash:     txHash,
		OrderID:    sel.ID,
		SellToken:  req.FromToken,
		BuyToken:   req.ToToken,
		SellAmount: sel.AmountPaid,
		BuyAmount:  received,
		Rate:       sel.PricePerUnit,
		Source:     domain.VenueMarketMaker,
		Timestamp:  time.Now().UTC(),
		Network:    e.network,
		Status:     domain.StatusCompleted,
	}, nil
}
