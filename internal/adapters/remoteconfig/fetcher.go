package remoteconfig

// Remote configuration: venue contract addresses published as a JSON file,
// cached with a 5-minute refresh. The fetcher is an injectable service
// owned by the client, not process-global state; concurrent callers during
// a refresh wait on the same fetch instead of issuing duplicates.

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jperezh/swarmtrader/internal/domain"
)

const (
	defaultConfigURL = "https://trading-configurations.swarm.com/config.prod.json"

	refreshInterval = 5 * time.Minute
)

// staticFallback covers an unreachable config service. Addresses here lag
// the remote file; they are a last resort, not the source of truth.
var staticFallback = payload{
	Version: "static-fallback",
	TopupAddresses: map[string]string{
		"cross_chain_access_escrow": "0x51B172895C0Da80025512dE5412EAf351B4297C3",
	},
	ManagerAddresses: map[string]string{
		"1":    "0x764a0F4F6Bc0d89D94fC1fa2bd9E6D49588e9D76",
		"137":  "0x3B51Ff1a4C2d82Ca25Eb224d4b55b8A0e0f79EAb",
		"8453": "0x9d4f71C55ee2B0DBbd54561a37B47cF4c5e9b94D",
	},
}

type payload struct {
	Version          string            `json:"version"`
	TopupAddresses   map[string]string `json:"topup_addresses"`
	ManagerAddresses map[string]string `json:"dotc_manager_addresses"`
}

// Fetcher implements ports.AddressBook backed by the remote config file.
type Fetcher struct {
	url  string
	http *http.Client

	mu        sync.Mutex
	cache     payload
	loaded    bool
	lastFetch time.Time
}

// New builds a Fetcher. url may be empty for the production config file.
func New(url string) *Fetcher {
	if url == "" {
		url = defaultConfigURL
	}
	return &Fetcher{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// EscrowAddress returns the brokerage escrow wallet. The escrow is one
// address across networks in the published config.
func (f *Fetcher) EscrowAddress(ctx context.Context, network domain.Network) (string, error) {
	cfg, err := f.current(ctx)
	if err != nil {
		return "", err
	}
	addr, ok := cfg.TopupAddresses["cross_chain_access_escrow"]
	if !ok || addr == "" {
		return "", fmt.Errorf("remoteconfig: escrow address missing (version %s)", cfg.Version)
	}
	return addr, nil
}

// ManagerAddress returns the offer-book manager contract for the network.
func (f *Fetcher) ManagerAddress(ctx context.Context, network domain.Network) (string, error) {
	cfg, err := f.current(ctx)
	if err != nil {
		return "", err
	}
	addr, ok := cfg.ManagerAddresses[fmt.Sprintf("%d", network.ChainID())]
	if !ok || addr == "" {
		return "", fmt.Errorf("remoteconfig: no manager contract for chain %d (version %s)",
			network.ChainID(), cfg.Version)
	}
	return addr, nil
}

// Version reports the loaded configuration version, for diagnostics.
func (f *Fetcher) Version(ctx context.Context) string {
	cfg, err := f.current(ctx)
	if err != nil {
		return "unknown"
	}
	return cfg.Version
}

// current returns the cached payload, refreshing it when stale. The mutex
// covers the whole fetch so concurrent callers wait for the in-flight
// refresh rather than racing their own.
func (f *Fetcher) current(ctx context.Context) (payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loaded && time.Since(f.lastFetch) < refreshInterval {
		return f.cache, nil
	}

	cfg, err := f.fetch(ctx)
	if err != nil {
		if f.loaded {
			slog.Warn("remoteconfig: refresh failed, keeping cached config",
				"err", err, "age", time.Since(f.lastFetch).Round(time.Second))
			return f.cache, nil
		}
		slog.Warn("remoteconfig: initial fetch failed, using static fallback", "err", err)
		f.cache = staticFallback
		f.loaded = true
		f.lastFetch = time.Now()
		return f.cache, nil
	}

	f.cache = cfg
	f.loaded = true
	f.lastFetch = time.Now()
	slog.Info("remoteconfig: loaded", "version", cfg.Version)
	return f.cache, nil
}

func (f *Fetcher) fetch(ctx context.Context) (payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return payload{}, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return payload{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return payload{}, fmt.Errorf("config fetch status %d", resp.StatusCode)
	}
	var cfg payload
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return payload{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
