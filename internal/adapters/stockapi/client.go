package stockapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jperezh/swarmtrader/internal/adapters/httpapi"
	"github.com/jperezh/swarmtrader/internal/domain"
	"github.com/jperezh/swarmtrader/internal/ports"
)

// AssetQuote is the brokerage's bid/ask snapshot for one symbol.
type AssetQuote struct {
	BidPrice  decimal.Decimal
	AskPrice  decimal.Decimal
	BidSize   decimal.Decimal
	AskSize   decimal.Decimal
	Timestamp time.Time
}

// Price picks the side-appropriate price: ask for buys, bid for sells.
func (q AssetQuote) Price(side domain.OrderSide) decimal.Decimal {
	if side == domain.SideBuy {
		return q.AskPrice
	}
	return q.BidPrice
}

// OrderRequest is everything the brokerage needs to accept an order after the
// on-chain payment transfer confirmed.
type OrderRequest struct {
	Wallet        string
	TxHash        string
	AssetAddress  string
	AssetSymbol   string
	Side          domain.OrderSide
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	Notional      decimal.Decimal
	ChainID       int64
	TargetChainID int64
	UserEmail     string
}

// Order is the brokerage's acknowledgement of a created order.
type Order struct {
	ID        string
	Symbol    string
	Side      string
	Quantity  decimal.Decimal
	FilledQty decimal.Decimal
	Status    string
	CreatedAt time.Time
}

// Client talks to the brokerage stock-trading API. All endpoints except the
// quote require authentication; the wired TokenSource handles that.
type Client struct {
	api *httpapi.Client
}

// NewClient builds a brokerage client against base. tokens supplies bearer
// tokens for the authenticated endpoints.
func NewClient(base string, tokens ports.TokenSource) *Client {
	return &Client{api: httpapi.NewClient(base, tokens)}
}

// jsonAPI is the envelope every brokerage endpoint uses.
type jsonAPI[T any] struct {
	Data struct {
		ID         string `json:"id"`
		Attributes T      `json:"attributes"`
	} `json:"data"`
}

type quoteAttrs struct {
	BidPrice  decimal.Decimal `json:"bidPrice"`
	AskPrice  decimal.Decimal `json:"askPrice"`
	BidSize   decimal.Decimal `json:"bidSize"`
	AskSize   decimal.Decimal `json:"askSize"`
	Timestamp string          `json:"timestamp"`
}

type statusAttrs struct {
	AccountBlocked       bool   `json:"account_blocked"`
	TradingBlocked       bool   `json:"trading_blocked"`
	TransfersBlocked     bool   `json:"transfers_blocked"`
	TradeSuspendedByUser bool   `json:"trade_suspended_by_user"`
	MarketOpen           bool   `json:"market_open"`
	AccountStatus        string `json:"account_status"`
}

type fundsAttrs struct {
	Cash        decimal.Decimal `json:"cash"`
	BuyingPower decimal.Decimal `json:"buying_power"`
}

type orderAttrs struct {
	Symbol    string          `json:"symbol"`
	Side      string          `json:"side"`
	Qty       decimal.Decimal `json:"qty"`
	FilledQty decimal.Decimal `json:"filled_qty"`
	Status    string          `json:"status"`
	CreatedAt string          `json:"created_at"`
}

// AssetQuote fetches a fresh bid/ask for the symbol.
func (c *Client) AssetQuote(ctx context.Context, symbol string) (AssetQuote, error) {
	q := url.Values{}
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("currency", "usd")

	var resp jsonAPI[quoteAttrs]
	if err := c.api.Get(ctx, "/asset-quote", q, &resp); err != nil {
		if httpapi.IsNotFound(err) {
			return AssetQuote{}, fmt.Errorf("invalid trading symbol %q: %w", symbol, err)
		}
		return AssetQuote{}, fmt.Errorf("asset quote %s: %w", symbol, err)
	}

	a := resp.Data.Attributes
	quote := AssetQuote{
		BidPrice:  a.BidPrice,
		AskPrice:  a.AskPrice,
		BidSize:   a.BidSize,
		AskSize:   a.AskSize,
		Timestamp: parseTime(a.Timestamp),
	}
	slog.Debug("brokerage: quote", "symbol", symbol, "bid", quote.BidPrice, "ask", quote.AskPrice)
	return quote, nil
}

// Status returns the account's eligibility flags.
func (c *Client) Status(ctx context.Context) (domain.AccountStatus, error) {
	var resp jsonAPI[statusAttrs]
	if err := c.api.Get(ctx, "/status", nil, &resp); err != nil {
		return domain.AccountStatus{}, fmt.Errorf("account status: %w", err)
	}

	a := resp.Data.Attributes
	status := domain.AccountStatus{
		KYCPassed:  strings.EqualFold(a.AccountStatus, "ACTIVE"),
		Blocked:    a.AccountBlocked || a.TradingBlocked || a.TradeSuspendedByUser,
		MarketOpen: a.MarketOpen,
	}
	switch {
	case a.AccountBlocked:
		status.BlockedReason = "account blocked"
	case a.TradingBlocked:
		status.BlockedReason = "trading blocked"
	case a.TradeSuspendedByUser:
		status.BlockedReason = "trading suspended by user"
	}
	return status, nil
}

// Funds returns the account's buying power.
func (c *Client) Funds(ctx context.Context) (domain.Funds, error) {
	var resp jsonAPI[fundsAttrs]
	if err := c.api.Get(ctx, "/funds", nil, &resp); err != nil {
		return domain.Funds{}, fmt.Errorf("account funds: %w", err)
	}
	return domain.Funds{
		BuyingPower: resp.Data.Attributes.BuyingPower,
		Currency:    "USD",
	}, nil
}

// CreateOrder submits the off-chain order referencing a confirmed on-chain
// transfer. Callers must only invoke this after the transfer receipt.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	if req.TargetChainID == 0 {
		req.TargetChainID = req.ChainID
	}
	body := map[string]any{
		"data": map[string]any{
			"attributes": map[string]any{
				"wallet":          strings.ToLower(req.Wallet),
				"tx_hash":         req.TxHash,
				"asset":           strings.ToLower(req.AssetAddress),
				"asset_symbol":    strings.ToUpper(req.AssetSymbol),
				"side":            string(req.Side),
				"price":           req.Price.InexactFloat64(),
				"qty":             req.Quantity.InexactFloat64(),
				"notional":        req.Notional.InexactFloat64(),
				"chain_id":        req.ChainID,
				"target_chain_id": req.TargetChainID,
				"user_email":      req.UserEmail,
			},
		},
	}

	var resp jsonAPI[orderAttrs]
	if err := c.api.Post(ctx, "/orders", body, &resp); err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}

	a := resp.Data.Attributes
	order := Order{
		ID:        resp.Data.ID,
		Symbol:    a.Symbol,
		Side:      a.Side,
		Quantity:  a.Qty,
		FilledQty: a.FilledQty,
		Status:    a.Status,
		CreatedAt: parseTime(a.CreatedAt),
	}
	slog.Info("brokerage: order created",
		"order_id", order.ID, "symbol", order.Symbol, "side", order.Side, "status", order.Status)
	return order, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}
