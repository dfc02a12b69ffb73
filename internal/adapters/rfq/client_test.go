package rfq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jperezh/swarmtrader/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "polygon", "test-key")
}

func decp(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestQuoteMapsAmountsAndRate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dotc_offers/quote", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "polygon", r.URL.Query().Get("network"))
		assert.Equal(t, "100", r.URL.Query().Get("targetSellAmount"))
		w.Write([]byte(`{
			"success": true,
			"buyAssetAddress": "0xaaa",
			"sellAssetAddress": "0xbbb",
			"averagePrice": "2000000",
			"sellAmount": "100",
			"buyAmount": "0.5"
		}`))
	})

	q, err := c.Quote(context.Background(), "0xAAA", "0xBBB", decp("100"), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.VenueMarketMaker, q.Source)
	assert.True(t, q.SellAmount.Equal(decimal.RequireFromString("100")))
	assert.True(t, q.BuyAmount.Equal(decimal.RequireFromString("0.5")))
	// rate derives from the normalized amounts, never from averagePrice
	assert.True(t, q.Rate.Equal(decimal.RequireFromString("0.005")), "rate = %s", q.Rate)
}

func TestQuoteRequiresExactlyOneAmount(t *testing.T) {
	c := NewClient("http://unused", "polygon", "k")
	_, err := c.Quote(context.Background(), "0xa", "0xb", decp("1"), decp("2"))
	assert.ErrorIs(t, err, domain.ErrBothAmounts)
	_, err = c.Quote(context.Background(), "0xa", "0xb", nil, nil)
	assert.ErrorIs(t, err, domain.ErrNoAmount)
}

func TestBestOffersParsesSelectedOffers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dotc_offers/best", r.URL.Path)
		w.Write([]byte(`{
			"success": true,
			"result": {
				"success": true,
				"targetAmount": "100",
				"totalWithdrawalAmountPaid": "99.5",
				"mode": "sell",
				"selectedOffers": [
					{
						"id": "77",
						"withdrawalAmountPaid": "99500000",
						"withdrawalAmountPaidDecimals": 6,
						"offerType": "PartialOffer",
						"maker": "0xmaker",
						"pricePerUnit": "199",
						"pricingType": "DynamicPricing",
						"depositToWithdrawalRate": "5000"
					}
				]
			}
		}`))
	})

	best, err := c.BestOffers(context.Background(), "0xaaa", "0xbbb", decp("100"), nil)
	require.NoError(t, err)
	require.Len(t, best.Offers, 1)

	sel := best.Offers[0]
	assert.Equal(t, "77", sel.ID)
	assert.True(t, sel.AmountPaid.Equal(decimal.RequireFromString("99.5")), "paid = %s", sel.AmountPaid)
	assert.Equal(t, domain.PricingDynamic, sel.Pricing)
	require.NotNil(t, sel.MaxRate)
	assert.True(t, sel.MaxRate.Equal(decimal.RequireFromString("0.005")), "rate = %s", sel.MaxRate)
}

func TestBestOffersNoneAvailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "result": {"success": false, "selectedOffers": []}}`))
	})

	_, err := c.BestOffers(context.Background(), "0xaaa", "0xbbb", decp("100"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no offers available")
}

func TestListOffersMapsPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dotc_offers", r.URL.Path)
		assert.Equal(t, "0xaaa", r.URL.Query().Get("buyAssetAddress"))
		w.Write([]byte(`{
			"success": true,
			"offers": [
				{
					"id": "12",
					"maker": "0xmaker",
					"amountIn": "1000000000",
					"amountOut": "500000",
					"availableAmount": "1000000000",
					"depositAsset": {"id": "1", "symbol": "TAAPL", "address": "0xaaa", "decimals": 9},
					"withdrawalAsset": {"id": "2", "symbol": "USDC", "address": "0xbbb", "decimals": 6},
					"offerPrice": {"id": "p1", "pricingType": "FixedPricing", "unitPrice": "199.5"},
					"expiryTimestamp": 1767225600
				}
			]
		}`))
	})

	offers, err := c.ListOffers(context.Background(), "0xAAA", "0xBBB", 0)
	require.NoError(t, err)
	require.Len(t, offers, 1)

	o := offers[0]
	assert.Equal(t, "12", o.ID)
	assert.Equal(t, domain.PricingFixed, o.Pricing)
	assert.True(t, o.AvailableAmount.Equal(decimal.RequireFromString("1")), "available = %s", o.AvailableAmount)
	assert.True(t, o.PricePerUnit.Equal(decimal.RequireFromString("199.5")))
}

func TestPriceFeedsSorted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/all_price_feeds", r.URL.Path)
		w.Write([]byte(`{"success": true, "priceFeeds": {"0xccc": "0xfeed3", "0xaaa": "0xfeed1"}}`))
	})

	feeds, err := c.PriceFeeds(context.Background())
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, "0xaaa", feeds[0].Asset)
	assert.Equal(t, "0xfeed1", feeds[0].Feed)
}
