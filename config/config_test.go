package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jperezh/swarmtrader/config"
	"github.com/jperezh/swarmtrader/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "api:\n  rfq_base: https://rfq.example.com\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "polygon", cfg.Network)
	assert.Equal(t, domain.NetworkPolygon, cfg.ParsedNetwork())
	assert.Equal(t, domain.BestPrice, cfg.ParsedStrategy())
	assert.Equal(t, "swarmtrader.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "https://rfq.example.com", cfg.API.RFQBase)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NETWORK", "base")
	t.Setenv("WALLET_PRIVATE_KEY", "deadbeef")
	t.Setenv("RFQ_API_KEY", "secret")
	t.Setenv("LOG_LEVEL", "debug")

	path := writeConfig(t, "network: polygon\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, domain.NetworkBase, cfg.ParsedNetwork())
	assert.Equal(t, "deadbeef", cfg.Wallet.PrivateKey)
	assert.Equal(t, "secret", cfg.API.RFQAPIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsUnknownNetwork(t *testing.T) {
	path := writeConfig(t, "network: solana\n")
	_, err := config.Load(path)
	assert.ErrorContains(t, err, "unknown network")
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	path := writeConfig(t, "trading:\n  strategy: yolo\n")
	_, err := config.Load(path)
	assert.ErrorContains(t, err, "unknown strategy")
}
