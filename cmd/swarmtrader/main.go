package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jperezh/swarmtrader/config"
	"github.com/jperezh/swarmtrader/internal/adapters/console"
	"github.com/jperezh/swarmtrader/internal/adapters/marketmaker"
	"github.com/jperezh/swarmtrader/internal/adapters/onchain"
	"github.com/jperezh/swarmtrader/internal/adapters/remoteconfig"
	"github.com/jperezh/swarmtrader/internal/adapters/rfq"
	"github.com/jperezh/swarmtrader/internal/adapters/stockapi"
	"github.com/jperezh/swarmtrader/internal/adapters/stocks"
	"github.com/jperezh/swarmtrader/internal/adapters/storage"
	"github.com/jperezh/swarmtrader/internal/adapters/swarmauth"
	"github.com/jperezh/swarmtrader/internal/application/trading"
	"github.com/jperezh/swarmtrader/internal/domain"
	"github.com/jperezh/swarmtrader/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	quote := flag.Bool("quote", false, "compare venue quotes without trading")
	trade := flag.Bool("trade", false, "execute a trade with routing")
	history := flag.Int("history", 0, "print the last N stored trades and exit")
	offers := flag.Bool("offers", false, "list resting offers for the -from/-to pair and exit")
	feeds := flag.Bool("feeds", false, "list oracle price feeds and exit")
	makeOffer := flag.Bool("make-offer", false, "place a resting offer (-from deposit, -to withdrawal, -from-amount, -price) and exit")
	cancelOffer := flag.String("cancel-offer", "", "cancel the resting offer with this id and exit")
	price := flag.String("price", "", "make-offer: price per deposit unit, in withdrawal tokens")
	dynamic := flag.Bool("dynamic", false, "make-offer: oracle-priced offer instead of fixed")
	expires := flag.Duration("expires", 0, "make-offer: offer lifetime, 0 means no expiry")
	status := flag.Bool("status", false, "print brokerage account status and funds, then exit")
	fromToken := flag.String("from", "", "token address to sell")
	toToken := flag.String("to", "", "token address to buy")
	fromAmount := flag.String("from-amount", "", "amount of the from-token to spend")
	toAmount := flag.String("to-amount", "", "amount of the to-token to acquire")
	symbol := flag.String("symbol", "", "stock ticker for the brokerage venue (e.g. AAPL)")
	strategy := flag.String("strategy", "", "routing strategy override")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	network := cfg.ParsedNetwork()
	out := console.New()

	if *offers || *feeds {
		rfqClient := rfq.NewClient(cfg.API.RFQBase, network.String(), cfg.API.RFQAPIKey)
		if err := runOfferBook(ctx, rfqClient, out, *offers, *fromToken, *toToken); err != nil {
			slog.Error("offer book query failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if *makeOffer || *cancelOffer != "" {
		book := remoteconfig.New(cfg.API.ConfigURL)
		wallet, err := onchain.NewWallet(cfg.Wallet.RPCURL, cfg.Wallet.PrivateKey, network)
		if err != nil {
			slog.Error("failed to open wallet", "err", err)
			os.Exit(1)
		}
		manager := onchain.NewManager(wallet, book)
		if *cancelOffer != "" {
			err = runCancelOffer(ctx, manager, out, *cancelOffer)
		} else {
			err = runMakeOffer(ctx, manager, out, *fromToken, *toToken, *fromAmount, *price, *dynamic, *expires)
		}
		if err != nil {
			slog.Error("offer maintenance failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if *status {
		auth, err := swarmauth.New(cfg.API.AuthBase, cfg.Wallet.PrivateKey)
		if err != nil {
			slog.Error("account status failed", "err", err)
			os.Exit(1)
		}
		reader := stockapi.NewClient(cfg.API.StockBase, auth)
		if err := runAccountStatus(ctx, reader, out); err != nil {
			slog.Error("account status failed", "err", err)
			os.Exit(1)
		}
		return
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.ApplySchema(ctx); err != nil {
		slog.Error("failed to apply schema", "err", err)
		os.Exit(1)
	}

	if *history > 0 {
		trades, err := store.ListTrades(ctx, *history)
		if err != nil {
			slog.Error("failed to load history", "err", err)
			os.Exit(1)
		}
		out.PrintHistory(trades)
		return
	}

	if !*quote && !*trade {
		slog.Error("nothing to do: pass -quote, -trade or -history")
		flag.Usage()
		os.Exit(1)
	}

	req, err := buildRequest(cfg, *fromToken, *toToken, *fromAmount, *toAmount, *symbol, *strategy)
	if err != nil {
		slog.Error("invalid trade request", "err", err)
		os.Exit(1)
	}

	orch, err := buildOrchestrator(cfg, network, store)
	if err != nil {
		slog.Error("failed to wire venues", "err", err)
		os.Exit(1)
	}

	slog.Info("swarmtrader starting",
		"network", network,
		"strategy", cfg.Trading.Strategy,
		"quote_only", *quote && !*trade,
	)

	if *quote && !*trade {
		cca, mm, err := orch.Quotes(ctx, req)
		if err != nil {
			slog.Error("quote failed", "err", err)
			os.Exit(1)
		}
		selected, routeErr := trading.Select(cca, mm, req.Strategy, req.IsBuy())
		out.PrintQuotes(cca, mm, selected)
		if routeErr != nil {
			out.PrintNoRoute(routeErr)
		}
		return
	}

	result, err := orch.Trade(ctx, req)
	if err != nil {
		slog.Error("trade failed", "err", err)
		os.Exit(1)
	}
	out.PrintResult(result)
}

// buildRequest assembles and validates the TradeRequest from flags, falling
// back to configured defaults for strategy, affiliate and email.
func buildRequest(cfg *config.Config, from, to, fromAmt, toAmt, symbol, strategy string) (domain.TradeRequest, error) {
	req := domain.TradeRequest{
		FromToken: from,
		ToToken:   to,
		Symbol:    symbol,
		Affiliate: cfg.Trading.Affiliate,
		UserEmail: cfg.Trading.UserEmail,
		Strategy:  cfg.ParsedStrategy(),
	}
	if strategy != "" {
		s, ok := domain.ParseStrategy(strategy)
		if !ok {
			return domain.TradeRequest{}, &flagError{"unknown strategy " + strategy}
		}
		req.Strategy = s
	}
	if fromAmt != "" {
		d, err := decimal.NewFromString(fromAmt)
		if err != nil {
			return domain.TradeRequest{}, err
		}
		req.FromAmount = &d
	}
	if toAmt != "" {
		d, err := decimal.NewFromString(toAmt)
		if err != nil {
			return domain.TradeRequest{}, err
		}
		req.ToAmount = &d
	}
	return req, req.Validate()
}

func buildOrchestrator(cfg *config.Config, network domain.Network, store *storage.SQLiteStore) (*trading.Orchestrator, error) {
	book := remoteconfig.New(cfg.API.ConfigURL)

	wallet, err := onchain.NewWallet(cfg.Wallet.RPCURL, cfg.Wallet.PrivateKey, network)
	if err != nil {
		return nil, err
	}
	manager := onchain.NewManager(wallet, book)

	rfqClient := rfq.NewClient(cfg.API.RFQBase, network.String(), cfg.API.RFQAPIKey)
	mm := marketmaker.New(rfqClient, manager, network)

	auth, err := swarmauth.New(cfg.API.AuthBase, cfg.Wallet.PrivateKey)
	if err != nil {
		return nil, err
	}
	stockClient := stockapi.NewClient(cfg.API.StockBase, auth)
	cca := stocks.New(stockClient, wallet, book, cfg.Trading.USDCAddress, network)

	return trading.NewOrchestrator(cca, mm, store, cfg.ParsedStrategy()), nil
}

// runOfferBook serves the -offers and -feeds modes. listOffers selects which
// of the two.
func runOfferBook(ctx context.Context, client ports.OfferBook, out *console.Console, listOffers bool, from, to string) error {
	if !listOffers {
		feeds, err := client.PriceFeeds(ctx)
		if err != nil {
			return err
		}
		out.PrintFeeds(feeds)
		return nil
	}
	if from == "" || to == "" {
		return &flagError{"-offers needs -from and -to token addresses"}
	}
	// Offers deposit the token being bought and withdraw the one being paid.
	found, err := client.ListOffers(ctx, to, from, 0)
	if err != nil {
		return err
	}
	out.PrintOffers(found)
	return nil
}

// runMakeOffer places a resting offer: the -from token is deposited, priced
// in -to tokens per unit.
func runMakeOffer(ctx context.Context, taker ports.OfferTaker, out *console.Console, deposit, withdrawal, amount, price string, dynamic bool, ttl time.Duration) error {
	if deposit == "" || withdrawal == "" || amount == "" || price == "" {
		return &flagError{"-make-offer needs -from, -to, -from-amount and -price"}
	}
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	unitPrice, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}

	terms := domain.OfferTerms{
		DepositAsset:    deposit,
		WithdrawalAsset: withdrawal,
		DepositAmount:   amt,
		PricePerUnit:    unitPrice,
		Pricing:         domain.PricingFixed,
	}
	if dynamic {
		terms.Pricing = domain.PricingDynamic
	}
	if ttl > 0 {
		terms.ExpiresAt = time.Now().Add(ttl).UTC()
	}

	offerID, txHash, err := taker.MakeOffer(ctx, terms)
	if err != nil {
		return err
	}
	out.PrintOfferPlaced(offerID, txHash)
	return nil
}

func runCancelOffer(ctx context.Context, taker ports.OfferTaker, out *console.Console, offerID string) error {
	txHash, err := taker.CancelOffer(ctx, offerID)
	if err != nil {
		return err
	}
	out.PrintOfferCancelled(offerID, txHash)
	return nil
}

func runAccountStatus(ctx context.Context, client ports.AccountReader, out *console.Console) error {
	status, err := client.Status(ctx)
	if err != nil {
		return err
	}
	funds, err := client.Funds(ctx)
	if err != nil {
		return err
	}
	out.PrintAccount(status, funds)
	return nil
}

type flagError struct{ msg string }

func (e *flagError) Error() string { return e.msg }

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
