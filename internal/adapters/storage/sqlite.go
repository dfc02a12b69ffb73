// Package storage persists completed trades in a local SQLite database.
// Pure-Go driver, no CGo. Amounts are stored as decimal strings so no
// precision is lost on the round trip.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/jperezh/swarmtrader/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
    id          TEXT PRIMARY KEY,
    tx_hash     TEXT NOT NULL,
    order_id    TEXT NOT NULL DEFAULT '',
    sell_token  TEXT NOT NULL,
    buy_token   TEXT NOT NULL,
    sell_amount TEXT NOT NULL,
    buy_amount  TEXT NOT NULL,
    rate        TEXT NOT NULL,
    source      TEXT NOT NULL,
    network     INTEGER NOT NULL,
    status      TEXT NOT NULL,
    executed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_at     ON trades(executed_at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_source ON trades(source);
`

// SQLiteStore implements ports.TradeStore on a single local file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &SQLiteStore{db: db}, nil
}

// ApplySchema creates the trades table and its indexes if missing.
func (s *SQLiteStore) ApplySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("storage.ApplySchema: %w", err)
	}
	return nil
}

// SaveTrade records one completed trade under a fresh uuid.
func (s *SQLiteStore) SaveTrade(ctx context.Context, res domain.TradeResult) error {
	executedAt := res.Timestamp
	if executedAt.IsZero() {
		executedAt = time.Now()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(id, tx_hash, order_id, sell_token, buy_token, sell_amount,
			 buy_amount, rate, source, network, status, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		res.TxHash,
		res.OrderID,
		res.SellToken,
		res.BuyToken,
		res.SellAmount.String(),
		res.BuyAmount.String(),
		res.Rate.String(),
		string(res.Source),
		res.Network.ChainID(),
		res.Status,
		executedAt.UTC(),
	); err != nil {
		return fmt.Errorf("storage.SaveTrade: insert %s: %w", res.TxHash, err)
	}
	return nil
}

// ListTrades returns the most recent trades, newest first. limit <= 0 means
// no limit.
func (s *SQLiteStore) ListTrades(ctx context.Context, limit int) ([]domain.TradeResult, error) {
	if limit <= 0 {
		limit = -1 // SQLite: negative LIMIT disables it
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT tx_hash, order_id, sell_token, buy_token, sell_amount,
		       buy_amount, rate, source, network, status, executed_at
		FROM trades
		ORDER BY executed_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListTrades: query: %w", err)
	}
	defer rows.Close()

	var trades []domain.TradeResult
	for rows.Next() {
		var (
			res                         domain.TradeResult
			sellAmount, buyAmount, rate string
			source, executedAt          string
			network                     int64
		)
		if err := rows.Scan(
			&res.TxHash, &res.OrderID, &res.SellToken, &res.BuyToken,
			&sellAmount, &buyAmount, &rate, &source, &network, &res.Status,
			&executedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.ListTrades: scan row: %w", err)
		}

		if res.SellAmount, err = decimal.NewFromString(sellAmount); err != nil {
			return nil, fmt.Errorf("storage.ListTrades: sell amount %q: %w", sellAmount, err)
		}
		if res.BuyAmount, err = decimal.NewFromString(buyAmount); err != nil {
			return nil, fmt.Errorf("storage.ListTrades: buy amount %q: %w", buyAmount, err)
		}
		if res.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("storage.ListTrades: rate %q: %w", rate, err)
		}
		res.Source = domain.Venue(source)
		res.Network = domain.Network(network)
		res.Timestamp, _ = time.Parse(time.RFC3339, executedAt)
		trades = append(trades, res)
	}
	return trades, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
