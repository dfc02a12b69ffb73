package ports

import (
	"context"

	"github.com/jperezh/swarmtrader/internal/domain"
)

// TradeStore persists completed trades for history and reporting.
type TradeStore interface {
	// ApplySchema creates the trade tables if they do not exist.
	ApplySchema(ctx context.Context) error

	// SaveTrade records one completed trade.
	SaveTrade(ctx context.Context, result domain.TradeResult) error

	// ListTrades returns the most recent trades, newest first.
	ListTrades(ctx context.Context, limit int) ([]domain.TradeResult, error)

	Close() error
}
