// Package stocks drives trades against the brokerage venue: tokens move
// on-chain into an escrow wallet, and the matching stock order is placed
// off-chain referencing the transfer hash.
package stocks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jperezh/swarmtrader/internal/adapters/stockapi"
	"github.com/jperezh/swarmtrader/internal/domain"
	"github.com/jperezh/swarmtrader/internal/ports"
)

// Executor implements ports.VenueExecutor for the brokerage venue.
type Executor struct {
	api     *stockapi.Client
	chain   ports.ChainClient
	book    ports.AddressBook
	usdc    string
	network domain.Network
	now     func() time.Time
}

// New builds the brokerage executor. usdcAddress is the stablecoin contract
// used as the cash leg; a request selling it is a buy, anything else a sell.
func New(api *stockapi.Client, chain ports.ChainClient, book ports.AddressBook, usdcAddress string, network domain.Network) *Executor {
	return &Executor{
		api:     api,
		chain:   chain,
		book:    book,
		usdc:    usdcAddress,
		network: network,
		now:     time.Now,
	}
}

// Venue identifies this executor to the router.
func (e *Executor) Venue() domain.Venue { return domain.VenueCrossChainAccess }

func (e *Executor) side(req domain.TradeRequest) domain.OrderSide {
	if strings.EqualFold(req.FromToken, e.usdc) {
		return domain.SideBuy
	}
	return domain.SideSell
}

// legs maps the request's single amount onto the calculator's RWA/USDC legs
// for the given side.
func legs(req domain.TradeRequest, side domain.OrderSide) (rwa, usdc *decimal.Decimal) {
	if side == domain.SideBuy {
		return req.ToAmount, req.FromAmount
	}
	return req.FromAmount, req.ToAmount
}

// Probe checks eligibility and fetches a bid/ask quote. Failures never
// surface as errors; each becomes an unavailable option with the reason, so
// a closed market reads differently from a dead API.
func (e *Executor) Probe(ctx context.Context, req domain.TradeRequest) domain.PlatformOption {
	if req.Symbol == "" {
		return domain.UnavailableOption(domain.VenueCrossChainAccess, "symbol not provided")
	}
	if err := e.eligible(ctx); err != nil {
		slog.Warn("stocks: not eligible", "symbol", req.Symbol, "error", err)
		return domain.UnavailableOption(domain.VenueCrossChainAccess, err.Error())
	}

	side := e.side(req)
	asset, err := e.api.AssetQuote(ctx, req.Symbol)
	if err != nil {
		slog.Warn("stocks: quote failed", "symbol", req.Symbol, "error", err)
		return domain.UnavailableOption(domain.VenueCrossChainAccess, err.Error())
	}
	price := asset.Price(side)
	if !price.IsPositive() {
		return domain.UnavailableOption(domain.VenueCrossChainAccess,
			fmt.Sprintf("no %s price for %s", side, req.Symbol))
	}

	rwaAmt, usdcAmt := legs(req, side)
	rwa, usdc, err := domain.ComputeLegs(price, rwaAmt, usdcAmt)
	if err != nil {
		return domain.UnavailableOption(domain.VenueCrossChainAccess, err.Error())
	}

	var quote domain.Quote
	if side == domain.SideBuy {
		quote = domain.NewQuote(req.FromToken, req.ToToken, usdc, rwa, domain.VenueCrossChainAccess)
	} else {
		quote = domain.NewQuote(req.FromToken, req.ToToken, rwa, usdc, domain.VenueCrossChainAccess)
	}
	return domain.AvailableOption(domain.VenueCrossChainAccess, quote)
}

// Execute runs the full brokerage protocol: eligibility, fresh quote, amount
// calculation, funds check, escrow transfer, then the off-chain order. An
// order failure after a confirmed transfer keeps the hash in the error since
// funds already moved.
func (e *Executor) Execute(ctx context.Context, req domain.TradeRequest, _ domain.PlatformOption) (domain.TradeResult, error) {
	fail := func(txHash string, err error) (domain.TradeResult, error) {
		return domain.TradeResult{}, &domain.TradeError{Venue: domain.VenueCrossChainAccess, TxHash: txHash, Err: err}
	}

	if err := e.eligible(ctx); err != nil {
		return fail("", err)
	}

	side := e.side(req)
	asset, err := e.api.AssetQuote(ctx, req.Symbol)
	if err != nil {
		return fail("", err)
	}
	price := asset.Price(side)

	rwaAmt, usdcAmt := legs(req, side)
	rwa, usdc, err := domain.ComputeLegs(price, rwaAmt, usdcAmt)
	if err != nil {
		return fail("", err)
	}
	slog.Info("stocks: executing trade",
		"symbol", req.Symbol, "side", side, "price", price, "rwa", rwa, "usdc", usdc)

	// The asset being traded as a stock. On a buy it is the token received,
	// on a sell the token paid in.
	rwaToken := req.ToToken
	transferToken, transferAmount := req.FromToken, usdc
	if side == domain.SideSell {
		rwaToken = req.FromToken
		transferAmount = rwa
	}

	if side == domain.SideBuy {
		funds, err := e.api.Funds(ctx)
		if err != nil {
			return fail("", err)
		}
		if funds.BuyingPower.LessThan(usdc) {
			return fail("", &domain.InsufficientFundsError{
				Need: "$" + usdc.StringFixed(2), Have: "$" + funds.BuyingPower.StringFixed(2),
			})
		}
	} else {
		balance, err := e.chain.TokenBalance(ctx, rwaToken)
		if err != nil {
			return fail("", err)
		}
		if balance.LessThan(rwa) {
			return fail("", &domain.InsufficientFundsError{
				Need: rwa.String(), Have: balance.String(),
			})
		}
	}

	escrow, err := e.book.EscrowAddress(ctx, e.network)
	if err != nil {
		return fail("", err)
	}

	txHash, err := e.chain.Transfer(ctx, transferToken, escrow, transferAmount)
	if err != nil {
		return fail(txHash, err)
	}
	slog.Info("stocks: escrow transfer confirmed", "tx_hash", txHash, "escrow", escrow)

	order, err := e.api.CreateOrder(ctx, stockapi.OrderRequest{
		Wallet:       e.chain.WalletAddress(),
		TxHash:       txHash,
		AssetAddress: rwaToken,
		AssetSymbol:  req.Symbol,
		Side:         side,
		Price:        price,
		Quantity:     rwa,
		Notional:     usdc,
		ChainID:      e.network.ChainID(),
		UserEmail:    req.UserEmail,
	})
	if err != nil {
		return fail(txHash, fmt.Errorf("order creation failed: %w", err))
	}

	buyAmount := rwa
	if side == domain.SideSell {
		buyAmount = usdc
	}
	return domain.TradeResult{
		TxHash:     txHash,
		OrderID:    order.ID,
		SellToken:  transferToken,
		BuyToken:   req.ToToken,
		SellAmount: transferAmount,
		BuyAmount:  buyAmount,
		Rate:       price,
		Source:     domain.VenueCrossChainAccess,
		Timestamp:  time.Now().UTC(),
		Network:    e.network,
		Status:     domain.StatusCompleted,
	}, nil
}

// eligible checks the market clock and the account's trading status.
func (e *Executor) eligible(ctx context.Context) error {
	if now := e.now(); !stockapi.IsMarketOpen(now) {
		return &domain.MarketClosedError{Reason: fmt.Sprintf(
			"outside trading hours (14:30-21:00 UTC, weekdays), next open %s",
			stockapi.NextOpen(now).Format(time.RFC3339))}
	}
	status, err := e.api.Status(ctx)
	if err != nil {
		return fmt.Errorf("stocks.eligible: status check: %w", err)
	}
	if !status.MarketOpen {
		return &domain.MarketClosedError{Reason: "venue reports market closed"}
	}
	if !status.IsTradingAllowed() {
		reason := status.BlockedReason
		if reason == "" {
			reason = "trading not allowed"
		}
		return &domain.AccountBlockedError{Reason: reason}
	}
	return nil
}
