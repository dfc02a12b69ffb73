package ports

import (
	"context"

	"github.com/jperezh/swarmtrader/internal/domain"
)

// VenueExecutor is one trading backend. The orchestrator holds one per venue
// and never talks to venue protocols directly.
type VenueExecutor interface {
	// Venue identifies which backend this executor drives.
	Venue() domain.Venue

	// Probe checks availability and fetches a quote for the request without
	// side effects. It never returns an error: failures become an
	// unavailable PlatformOption carrying the reason.
	Probe(ctx context.Context, req domain.TradeRequest) domain.PlatformOption

	// Execute runs the venue's full trade protocol using the quote obtained
	// by Probe. The returned result is only valid when err is nil.
	Execute(ctx context.Context, req domain.TradeRequest, opt domain.PlatformOption) (domain.TradeResult, error)
}
