package marketmaker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jperezh/swarmtrader/internal/adapters/rfq"
	"github.com/jperezh/swarmtrader/internal/domain"
)

type stubTaker struct {
	fixedCalls   int
	dynamicCalls int
	lastOfferID  string
	lastPayment  string
	lastAmount   decimal.Decimal
	lastMaxRate  decimal.Decimal
	txHash       string
	err          error
}

func (s *stubTaker) TakeOfferFixed(_ context.Context, offerID, paymentToken string, amount decimal.Decimal, _ string) (string, error) {
	s.fixedCalls++
	s.lastOfferID = offerID
	s.lastPayment = paymentToken
	s.lastAmount = amount
	return s.txHash, s.err
}

func (s *stubTaker) TakeOfferDynamic(_ context.Context, offerID, paymentToken string, amount, maxRate decimal.Decimal, _ string) (string, error) {
	s.dynamicCalls++
	s.lastOfferID = offerID
	s.lastPayment = paymentToken
	s.lastAmount = amount
	s.lastMaxRate = maxRate
	return s.txHash, s.err
}

func (s *stubTaker) MakeOffer(context.Context, domain.OfferTerms) (string, string, error) {
	return "", "", errors.New("not implemented")
}

func (s *stubTaker) CancelOffer(context.Context, string) (string, error) {
	return "", errors.New("not implemented")
}

func newExecutor(t *testing.T, handler http.HandlerFunc, taker *stubTaker) *Executor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	offers := rfq.NewClient(srv.URL, "polygon", "test-key")
	return New(offers, taker, domain.NetworkPolygon)
}

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestProbeReturnsQuote(t *testing.T) {
	e := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dotc_offers/quote", r.URL.Path)
		w.Write([]byte(`{"success": true, "sellAmount": "100", "buyAmount": "0.5"}`))
	}, &stubTaker{})

	opt := e.Probe(context.Background(), domain.TradeRequest{
		FromToken: "0xusdc", ToToken: "0xrwa", FromAmount: decp("100"),
	})
	require.True(t, opt.Usable())
	assert.Equal(t, domain.VenueMarketMaker, opt.Venue)
	assert.True(t, opt.Quote.Rate.Equal(decimal.RequireFromString("0.005")))
}

func TestProbeUnavailableOnError(t *testing.T) {
	e := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "pair not found"}`))
	}, &stubTaker{})

	opt := e.Probe(context.Background(), domain.TradeRequest{
		FromToken: "0xusdc", ToToken: "0xrwa", FromAmount: decp("100"),
	})
	assert.False(t, opt.Usable())
	assert.Contains(t, opt.Err, "pair not found")
}

func bestOffersBody(pricing, rate string) string {
	body := `{
		"success": true,
		"result": {
			"success": true,
			"targetAmount": "100",
			"totalWithdrawalAmountPaid": "99.5",
			"selectedOffers": [{
				"id": "42",
				"withdrawalAmountPaid": "99500000",
				"withdrawalAmountPaidDecimals": 6,
				"maker": "0xmaker",
				"pricePerUnit": "199",
				"pricingType": "` + pricing + `"`
	if rate != "" {
		body += `, "depositToWithdrawalRate": "` + rate + `"`
	}
	return body + `}]}}`
}

func TestExecuteFixedOffer(t *testing.T) {
	taker := &stubTaker{txHash: "0xdeadbeef"}
	e := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dotc_offers/best", r.URL.Path)
		w.Write([]byte(bestOffersBody("FixedPricing", "")))
	}, taker)

	req := domain.TradeRequest{FromToken: "0xusdc", ToToken: "0xrwa", FromAmount: decp("100")}
	res, err := e.Execute(context.Background(), req, domain.PlatformOption{})
	require.NoError(t, err)

	assert.Equal(t, 1, taker.fixedCalls)
	assert.Equal(t, 0, taker.dynamicCalls)
	assert.Equal(t, "42", taker.lastOfferID)
	assert.Equal(t, "0xusdc", taker.lastPayment)
	assert.True(t, taker.lastAmount.Equal(decimal.RequireFromString("99.5")))

	assert.Equal(t, "0xdeadbeef", res.TxHash)
	assert.Equal(t, "42", res.OrderID)
	assert.True(t, res.SellAmount.Equal(decimal.RequireFromString("99.5")))
	assert.True(t, res.BuyAmount.Equal(decimal.RequireFromString("0.5")), "received = %s", res.BuyAmount)
	assert.True(t, res.Rate.Equal(decimal.RequireFromString("199")))
	assert.Equal(t, domain.VenueMarketMaker, res.Source)
	assert.Equal(t, domain.StatusCompleted, res.Status)
}

func TestExecuteDynamicOfferPassesRateCap(t *testing.T) {
	// depositToWithdrawalRate arrives in withdrawal-token base units, same
	// as withdrawalAmountPaid. With 6 decimals a wire value of 1050000 is a
	// cap of 1.05, and that is what the taker must receive.
	taker := &stubTaker{txHash: "0xfeed"}
	e := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(bestOffersBody("DynamicPricing", "1050000")))
	}, taker)

	req := domain.TradeRequest{FromToken: "0xusdc", ToToken: "0xrwa", FromAmount: decp("100")}
	_, err := e.Execute(context.Background(), req, domain.PlatformOption{})
	require.NoError(t, err)

	assert.Equal(t, 1, taker.dynamicCalls)
	assert.Equal(t, 0, taker.fixedCalls)
	assert.True(t, taker.lastAmount.Equal(decimal.RequireFromString("99.5")))
	assert.True(t, taker.lastMaxRate.Equal(decimal.RequireFromString("1.05")),
		"max rate = %s", taker.lastMaxRate)
}

func TestExecuteDynamicOfferWithoutRateFailsBeforeTx(t *testing.T) {
	taker := &stubTaker{txHash: "0xfeed"}
	e := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(bestOffersBody("DynamicPricing", "")))
	}, taker)

	req := domain.TradeRequest{FromToken: "0xusdc", ToToken: "0xrwa", FromAmount: decp("100")}
	_, err := e.Execute(context.Background(), req, domain.PlatformOption{})
	require.Error(t, err)

	var tradeErr *domain.TradeError
	require.ErrorAs(t, err, &tradeErr)
	assert.Equal(t, domain.VenueMarketMaker, tradeErr.Venue)
	assert.Contains(t, err.Error(), "missing deposit-to-withdrawal rate")
	assert.Equal(t, 0, taker.fixedCalls+taker.dynamicCalls, "no transaction may be sent")
}

func TestExecuteWrapsTakerFailure(t *testing.T) {
	taker := &stubTaker{txHash: "0xabc", err: errors.New("execution reverted")}
	e := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(bestOffersBody("FixedPricing", "")))
	}, taker)

	req := domain.TradeRequest{FromToken: "0xusdc", ToToken: "0xrwa", FromAmount: decp("100")}
	_, err := e.Execute(context.Background(), req, domain.PlatformOption{})
	require.Error(t, err)

	var tradeErr *domain.TradeError
	require.ErrorAs(t, err, &tradeErr)
	assert.Equal(t, "0xabc", tradeErr.TxHash)
	assert.Contains(t, err.Error(), "execution reverted")
}
