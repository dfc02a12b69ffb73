package trading

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jperezh/swarmtrader/internal/domain"
	"github.com/jperezh/swarmtrader/internal/ports"
)

// Orchestrator coordinates one trade across both venues: probe both
// concurrently, route, execute, and fall back to the other venue when the
// strategy permits it.
type Orchestrator struct {
	cca             ports.VenueExecutor
	mm              ports.VenueExecutor
	store           ports.TradeStore // optional; nil disables history
	defaultStrategy domain.RoutingStrategy
}

// NewOrchestrator wires the two venue executors. store may be nil.
func NewOrchestrator(cca, mm ports.VenueExecutor, store ports.TradeStore, defaultStrategy domain.RoutingStrategy) *Orchestrator {
	if defaultStrategy == "" {
		defaultStrategy = domain.BestPrice
	}
	return &Orchestrator{cca: cca, mm: mm, store: store, defaultStrategy: defaultStrategy}
}

// Trade runs the full flow for one request. Cancelling ctx after a
// transaction was broadcast cannot revoke it; the error surfaces any hash
// already produced.
func (o *Orchestrator) Trade(ctx context.Context, req domain.TradeRequest) (domain.TradeResult, error) {
	if err := req.Validate(); err != nil {
		return domain.TradeResult{}, err
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = o.defaultStrategy
	}

	ccaOpt, mmOpt := o.probe(ctx, req)
	slog.Info("trade: probes done",
		"cross_chain_access", ccaOpt.Available,
		"market_maker", mmOpt.Available,
		"strategy", strategy,
	)

	selected, err := Select(ccaOpt, mmOpt, strategy, req.IsBuy())
	if err != nil {
		return domain.TradeResult{}, err
	}
	slog.Info("trade: venue selected", "venue", selected.Venue, "rate", selected.EffectiveRate())

	result, execErr := o.executorFor(selected.Venue).Execute(ctx, req, selected)
	if execErr != nil {
		other := o.other(selected.Venue, ccaOpt, mmOpt)
		if !strategy.AllowsFallback() || !other.Usable() {
			return domain.TradeResult{}, execErr
		}

		slog.Warn("trade: primary venue failed, trying fallback",
			"primary", selected.Venue, "fallback", other.Venue, "err", execErr)
		result, err = o.executorFor(other.Venue).Execute(ctx, req, other)
		if err != nil {
			return domain.TradeResult{}, &domain.AllPlatformsFailedError{
				PrimaryVenue:  selected.Venue,
				Primary:       execErr,
				FallbackVenue: other.Venue,
				Fallback:      err,
			}
		}
	}

	o.record(ctx, result)
	return result, nil
}

// Quotes probes both venues without executing anything, for display.
func (o *Orchestrator) Quotes(ctx context.Context, req domain.TradeRequest) (cca, mm domain.PlatformOption, err error) {
	if err := req.Validate(); err != nil {
		return domain.PlatformOption{}, domain.PlatformOption{}, err
	}
	cca, mm = o.probe(ctx, req)
	return cca, mm, nil
}

// History returns recent completed trades, newest first.
func (o *Orchestrator) History(ctx context.Context, limit int) ([]domain.TradeResult, error) {
	if o.store == nil {
		return nil, nil
	}
	return o.store.ListTrades(ctx, limit)
}

// probe runs both availability probes concurrently. A failure in one never
// blocks or cancels the other; probes report failure through the option.
func (o *Orchestrator) probe(ctx context.Context, req domain.TradeRequest) (ccaOpt, mmOpt domain.PlatformOption) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ccaOpt = o.cca.Probe(ctx, req)
	}()
	go func() {
		defer wg.Done()
		mmOpt = o.mm.Probe(ctx, req)
	}()
	wg.Wait()
	return ccaOpt, mmOpt
}

func (o *Orchestrator) executorFor(v domain.Venue) ports.VenueExecutor {
	if v == domain.VenueMarketMaker {
		return o.mm
	}
	return o.cca
}

// other returns the probe option of the venue that was not selected.
func (o *Orchestrator) other(selected domain.Venue, ccaOpt, mmOpt domain.PlatformOption) domain.PlatformOption {
	if selected == domain.VenueCrossChainAccess {
		return mmOpt
	}
	return ccaOpt
}

func (o *Orchestrator) record(ctx context.Context, result domain.TradeResult) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveTrade(ctx, result); err != nil {
		// History is best-effort; the trade itself already settled.
		slog.Warn("trade: save history failed", "err", fmt.Sprintf("%v", err))
	}
}
