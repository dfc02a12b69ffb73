package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jperezh/swarmtrader/internal/adapters/storage"
	"github.com/jperezh/swarmtrader/internal/domain"
)

func makeTrade(txHash string, executedAt time.Time) domain.TradeResult {
	return domain.TradeResult{
		TxHash:     txHash,
		OrderID:    "ord-1",
		SellToken:  "0xusdc",
		BuyToken:   "0xrwa",
		SellAmount: decimal.RequireFromString("1000.50"),
		BuyAmount:  decimal.RequireFromString("5.002500001"),
		Rate:       decimal.RequireFromString("200.02"),
		Source:     domain.VenueMarketMaker,
		Timestamp:  executedAt,
		Network:    domain.NetworkPolygon,
		Status:     domain.StatusCompleted,
	}
}

func newStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.ApplySchema(context.Background()))
	return db
}

func TestSQLiteStore_SaveAndList(t *testing.T) {
	db := newStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, db.SaveTrade(context.Background(), makeTrade("0xaaa", now.Add(-time.Hour))))
	require.NoError(t, db.SaveTrade(context.Background(), makeTrade("0xbbb", now)))

	trades, err := db.ListTrades(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	// newest first
	assert.Equal(t, "0xbbb", trades[0].TxHash)
	assert.Equal(t, "0xaaa", trades[1].TxHash)

	got := trades[0]
	assert.Equal(t, "ord-1", got.OrderID)
	assert.True(t, got.SellAmount.Equal(decimal.RequireFromString("1000.50")))
	assert.True(t, got.BuyAmount.Equal(decimal.RequireFromString("5.002500001")), "decimal precision survives the round trip")
	assert.Equal(t, domain.VenueMarketMaker, got.Source)
	assert.Equal(t, domain.NetworkPolygon, got.Network)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestSQLiteStore_ListRespectsLimit(t *testing.T) {
	db := newStore(t)
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		require.NoError(t, db.SaveTrade(context.Background(),
			makeTrade("0x"+string(rune('a'+i)), now.Add(time.Duration(i)*time.Minute))))
	}

	trades, err := db.ListTrades(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, trades, 3)
	assert.Equal(t, "0xe", trades[0].TxHash)
}

func TestSQLiteStore_ListEmpty(t *testing.T) {
	db := newStore(t)

	trades, err := db.ListTrades(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, trades)
}
