package rfq

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jperezh/swarmtrader/internal/adapters/httpapi"
	"github.com/jperezh/swarmtrader/internal/domain"
)

const defaultBase = "https://rfq.swarm.com/v1/client"

// SelectedOffer is one offer chosen by the RFQ optimizer to fill a target
// amount. AmountPaid is the withdrawal-asset payment in human-readable units.
type SelectedOffer struct {
	ID           string
	Maker        string
	AmountPaid   decimal.Decimal
	PricePerUnit decimal.Decimal
	Pricing      domain.PricingType
	MaxRate      *decimal.Decimal // slippage ceiling for dynamic offers; nil when the API omitted it
}

// BestOffers is the optimizer's answer for one target amount.
type BestOffers struct {
	TargetAmount decimal.Decimal
	TotalPaid    decimal.Decimal
	Offers       []SelectedOffer
}

// Client talks to the offer-book RFQ API for one network.
type Client struct {
	api     *httpapi.Client
	network string
}

// NewClient builds an RFQ client. base may be empty for production; apiKey is
// required by the offers and quote endpoints.
func NewClient(base, network, apiKey string) *Client {
	if base == "" {
		base = defaultBase
	}
	api := httpapi.NewClient(base, nil)
	if apiKey != "" {
		api.SetHeader("X-API-Key", apiKey)
	}
	return &Client{api: api, network: network}
}

// Quote asks the RFQ service for a price. Exactly one of sellAmount and
// buyAmount must be set; amounts are human-readable.
func (c *Client) Quote(ctx context.Context, buyAsset, sellAsset string, sellAmount, buyAmount *decimal.Decimal) (domain.Quote, error) {
	q := c.pairQuery(buyAsset, sellAsset)
	if err := setTarget(q, sellAmount, buyAmount); err != nil {
		return domain.Quote{}, err
	}

	var resp quoteResponse
	if err := c.api.Get(ctx, "/dotc_offers/quote", q, &resp); err != nil {
		return domain.Quote{}, fmt.Errorf("rfq quote: %w", err)
	}

	sell := parseDecimal(resp.SellAmount)
	buy := parseDecimal(resp.BuyAmount)
	quote := domain.NewQuote(resp.SellAssetAddress, resp.BuyAssetAddress, sell, buy, domain.VenueMarketMaker)
	slog.Debug("rfq: quote", "sell", sell, "buy", buy, "rate", quote.Rate)
	return quote, nil
}

// BestOffers returns the optimal offers to fill the target. Exactly one of
// sellAmount and buyAmount must be set.
func (c *Client) BestOffers(ctx context.Context, buyAsset, sellAsset string, sellAmount, buyAmount *decimal.Decimal) (BestOffers, error) {
	q := c.pairQuery(buyAsset, sellAsset)
	if err := setTarget(q, sellAmount, buyAmount); err != nil {
		return BestOffers{}, err
	}

	var resp bestOffersResponse
	if err := c.api.Get(ctx, "/dotc_offers/best", q, &resp); err != nil {
		return BestOffers{}, fmt.Errorf("rfq best offers: %w", err)
	}
	if !resp.Result.Success || len(resp.Result.SelectedOffers) == 0 {
		return BestOffers{}, fmt.Errorf("no offers available for %s -> %s", sellAsset, buyAsset)
	}

	best := BestOffers{
		TargetAmount: parseDecimal(resp.Result.TargetAmount),
		TotalPaid:    parseDecimal(resp.Result.TotalWithdrawalAmountPaid),
	}
	for _, sel := range resp.Result.SelectedOffers {
		offer := SelectedOffer{
			ID:           sel.ID,
			Maker:        sel.Maker,
			AmountPaid:   parseDecimal(sel.WithdrawalAmountPaid).Shift(-sel.WithdrawalAmountPaidDecimal),
			PricePerUnit: parseDecimal(sel.PricePerUnit),
			Pricing:      parsePricing(sel.PricingType),
		}
		if sel.DepositToWithdrawalRate != "" {
			// The API reports the rate in withdrawal-token base units,
			// like withdrawalAmountPaid.
			rate := parseDecimal(sel.DepositToWithdrawalRate).Shift(-sel.WithdrawalAmountPaidDecimal)
			offer.MaxRate = &rate
		}
		best.Offers = append(best.Offers, offer)
	}
	return best, nil
}

// ListOffers returns resting offers for an asset pair, one page at a time.
func (c *Client) ListOffers(ctx context.Context, depositAsset, withdrawalAsset string, page int) ([]domain.Offer, error) {
	q := url.Values{}
	q.Set("network", c.network)
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", "100")
	if depositAsset != "" {
		q.Set("buyAssetAddress", strings.ToLower(depositAsset))
	}
	if withdrawalAsset != "" {
		q.Set("sellAssetAddress", strings.ToLower(withdrawalAsset))
	}

	var resp offersResponse
	if err := c.api.Get(ctx, "/dotc_offers", q, &resp); err != nil {
		return nil, fmt.Errorf("rfq list offers: %w", err)
	}

	offers := make([]domain.Offer, 0, len(resp.Offers))
	for _, p := range resp.Offers {
		offers = append(offers, domain.Offer{
			ID:                      p.ID,
			Maker:                   p.Maker,
			DepositAsset:            p.DepositAsset.Address,
			WithdrawalAsset:         p.WithdrawalAsset.Address,
			AvailableAmount:         parseDecimal(p.AvailableAmount).Shift(-p.DepositAsset.Decimals),
			PricePerUnit:            parseDecimal(p.OfferPrice.UnitPrice),
			DepositToWithdrawalRate: parseDecimal(p.DepositToWithdrawalRate).Shift(-p.WithdrawalAsset.Decimals),
			Pricing:                 parsePricing(p.OfferPrice.PricingType),
			ExpiresAt:               time.Unix(p.ExpiryTimestamp, 0).UTC(),
		})
	}
	return offers, nil
}

// PriceFeeds returns the oracle feed registered for each token, sorted by
// token address for stable output.
func (c *Client) PriceFeeds(ctx context.Context) ([]domain.PriceFeed, error) {
	q := url.Values{}
	q.Set("network", c.network)

	var resp priceFeedsResponse
	if err := c.api.Get(ctx, "/all_price_feeds", q, &resp); err != nil {
		return nil, fmt.Errorf("rfq price feeds: %w", err)
	}
	if len(resp.PriceFeeds) == 0 {
		return nil, fmt.Errorf("no price feeds found for network %s", c.network)
	}

	feeds := make([]domain.PriceFeed, 0, len(resp.PriceFeeds))
	for asset, feed := range resp.PriceFeeds {
		feeds = append(feeds, domain.PriceFeed{Asset: asset, Feed: feed})
	}
	sort.Slice(feeds, func(i, j int) bool { return feeds[i].Asset < feeds[j].Asset })
	return feeds, nil
}

func (c *Client) pairQuery(buyAsset, sellAsset string) url.Values {
	q := url.Values{}
	q.Set("network", c.network)
	q.Set("buyAssetAddress", strings.ToLower(buyAsset))
	q.Set("sellAssetAddress", strings.ToLower(sellAsset))
	return q
}

func setTarget(q url.Values, sellAmount, buyAmount *decimal.Decimal) error {
	if sellAmount != nil && buyAmount != nil {
		return domain.ErrBothAmounts
	}
	if sellAmount == nil && buyAmount == nil {
		return domain.ErrNoAmount
	}
	if sellAmount != nil {
		q.Set("targetSellAmount", sellAmount.String())
	} else {
		q.Set("targetBuyAmount", buyAmount.String())
	}
	return nil
}

// parseDecimal tolerates empty strings, mapping them to zero. Malformed
// numbers also map to zero; the quote-level Empty check catches them.
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parsePricing(wire string) domain.PricingType {
	if wire == pricingDynamicWire {
		return domain.PricingDynamic
	}
	return domain.PricingFixed
}
