package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jperezh/swarmtrader/internal/domain"
)

// Config is the full trader configuration.
type Config struct {
	Network string        `yaml:"network"` // ethereum | bsc | polygon | base
	Wallet  WalletConfig  `yaml:"wallet"`
	API     APIConfig     `yaml:"api"`
	Trading TradingConfig `yaml:"trading"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// WalletConfig holds the signing key and RPC endpoint. The private key is
// only ever read from the environment, never from the YAML file.
type WalletConfig struct {
	RPCURL     string `yaml:"rpc_url"`
	PrivateKey string `yaml:"-"` // WALLET_PRIVATE_KEY env var
}

// APIConfig contains the venue base URLs and credentials.
type APIConfig struct {
	RFQBase   string `yaml:"rfq_base"`
	RFQAPIKey string `yaml:"-"` // RFQ_API_KEY env var
	StockBase string `yaml:"stock_base"`
	AuthBase  string `yaml:"auth_base"`
	ConfigURL string `yaml:"config_url"` // remote address book; empty uses production
}

// TradingConfig controls routing and order defaults.
type TradingConfig struct {
	Strategy    string `yaml:"strategy"` // best_price | *_first | *_only
	USDCAddress string `yaml:"usdc_address"`
	Affiliate   string `yaml:"affiliate"`
	UserEmail   string `yaml:"user_email"`
}

// StorageConfig controls where trade history is persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file and the .env file if present. Environment
// variables override YAML values for the keys that map to them.
func Load(path string) (*Config, error) {
	// Load .env when present (missing file is not an error)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParsedNetwork returns the configured network. Only valid after Load.
func (c *Config) ParsedNetwork() domain.Network {
	n, _ := domain.ParseNetwork(c.Network)
	return n
}

// ParsedStrategy returns the configured routing strategy. Only valid after
// Load.
func (c *Config) ParsedStrategy() domain.RoutingStrategy {
	s, _ := domain.ParseStrategy(c.Trading.Strategy)
	return s
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WALLET_PRIVATE_KEY"); v != "" {
		cfg.Wallet.PrivateKey = v
	}
	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.Wallet.RPCURL = v
	}
	if v := os.Getenv("RFQ_API_KEY"); v != "" {
		cfg.API.RFQAPIKey = v
	}
	if v := os.Getenv("NETWORK"); v != "" {
		cfg.Network = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Network == "" {
		cfg.Network = "polygon"
	}
	if cfg.Trading.Strategy == "" {
		cfg.Trading.Strategy = "best_price"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "swarmtrader.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	if _, ok := domain.ParseNetwork(c.Network); !ok {
		return fmt.Errorf("config.Load: unknown network %q", c.Network)
	}
	if _, ok := domain.ParseStrategy(c.Trading.Strategy); !ok {
		return fmt.Errorf("config.Load: unknown strategy %q", c.Trading.Strategy)
	}
	return nil
}
