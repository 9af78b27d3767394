package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config holds the complete client configuration, loadable from environment
// variables (STOREFRONT_ prefix) or YAML config files.
type Config struct {
	API       APIConfig
	Storage   StorageConfig
	Bootstrap BootstrapConfig
	DeepLinks DeepLinkConfig
	RateLimit RateLimitConfig
	Breaker   BreakerConfig
	Cart      CartConfig
	Checkout  CheckoutConfig
	Catalog   CatalogConfig
}

// APIConfig locates the storefront backend.
type APIConfig struct {
	BaseURL string        `default:"http://localhost:3000/api" usage:"Storefront API base URL"`
	Timeout time.Duration `default:"30s" usage:"Per-request timeout"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver        string `default:"file" usage:"Storage driver: memory, file, redis or postgres"`
	Path          string `usage:"State file for the file driver (default: user data dir)"`
	RedisAddr     string `default:"localhost:6379" usage:"Redis address"`
	RedisPassword string `usage:"Redis password"`
	RedisDB       int    `default:"0" usage:"Redis database"`
	RedisPrefix   string `default:"storefront:" usage:"Redis key prefix"`
	DatabaseURL   string `usage:"PostgreSQL connection URL (STOREFRONT_STORAGE_DATABASE_URL or DATABASE_URL)"`
	Mirror        bool   `default:"true" usage:"Mirror catalog products for offline browsing (postgres driver)"`
}

// BootstrapConfig controls the launch check.
type BootstrapConfig struct {
	MinDuration time.Duration `default:"1s" usage:"Minimum time the launch check takes"`
}

// DeepLinkConfig lists accepted deep-link prefixes.
type DeepLinkConfig struct {
	Prefixes []string `default:"shopify://,https://shopify.app,https://*.shopify.app" usage:"Accepted deep-link prefixes"`
}

// RateLimitConfig controls the client-side sliding window limiter.
type RateLimitConfig struct {
	Max    int           `default:"120" usage:"Max requests per window, 0 disables"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// BreakerConfig controls the circuit breaker in front of the API.
type BreakerConfig struct {
	Failures         uint32        `default:"5" usage:"Consecutive failures that open the circuit"`
	Timeout          time.Duration `default:"30s" usage:"How long the circuit stays open"`
	HalfOpenRequests uint32        `default:"1" usage:"Probe requests while half-open"`
}

// CartConfig holds caller-side cart limits.
type CartConfig struct {
	MaxQuantity int  `default:"99" usage:"Per-line quantity cap, 0 disables"`
	GateStock   bool `default:"false" usage:"Refuse to add products with no stock"`
}

// CheckoutConfig holds order pricing.
type CheckoutConfig struct {
	DeliveryFee string `default:"5.00" usage:"Flat delivery fee for non-empty orders"`
}

// CatalogConfig controls catalog listings.
type CatalogConfig struct {
	PageSize int `default:"20" usage:"Products per page"`
}

// LoadConfig loads configuration from environment variables and YAML files.
// An explicit path replaces the default file search list.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	files := []string{"storefront.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, ".config", "storefront", "config.yaml"))
	}
	if path != "" {
		files = []string{path}
	}

	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
			".yml":  aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills values derived from the environment.
func (c *Config) applyDefaults() {
	if c.Storage.DatabaseURL == "" {
		c.Storage.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Storage.Path == "" {
		c.Storage.Path = defaultStatePath()
	}
}

func defaultStatePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "storefront", "state.json.gz")
	}
	return filepath.Join(os.TempDir(), "storefront", "state.json.gz")
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverFile, DriverRedis:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required for the postgres driver: set STOREFRONT_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if _, err := c.DeliveryFee(); err != nil {
		return err
	}
	if c.Catalog.PageSize < 0 {
		return errors.New("catalog page size must not be negative")
	}
	return nil
}

// DeliveryFee parses the configured fee.
func (c *Config) DeliveryFee() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(c.Checkout.DeliveryFee)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse delivery fee %q", c.Checkout.DeliveryFee)
	}
	if fee.IsNegative() {
		return decimal.Zero, errors.New("delivery fee must not be negative")
	}
	return fee, nil
}
