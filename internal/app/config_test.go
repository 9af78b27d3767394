package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://shop.example.com/api
  timeout: 5s
storage:
  driver: memory
bootstrap:
  min_duration: 250ms
checkout:
  delivery_fee: "7.50"
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Bootstrap.MinDuration)

	fee, err := cfg.DeliveryFee()
	require.NoError(t, err)
	assert.Equal(t, "7.5", fee.String())

	// Untouched sections keep their defaults.
	assert.Equal(t, 120, cfg.RateLimit.Max)
	assert.Equal(t, 99, cfg.Cart.MaxQuantity)
	assert.Equal(t, []string{"shopify://", "https://shopify.app", "https://*.shopify.app"}, cfg.DeepLinks.Prefixes)
}

func TestLoadConfig_Env(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))
	t.Setenv("STOREFRONT_API_BASE_URL", "http://10.0.2.2:3000/api")
	t.Setenv("STOREFRONT_STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/storefront")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.2.2:3000/api", cfg.API.BaseURL)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/storefront", cfg.Storage.DatabaseURL)
	assert.NotEmpty(t, cfg.Storage.Path)
}

func TestConfig_Validate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{name: "Valid", mutate: func(*Config) {}},
		{name: "Unknown driver", mutate: func(c *Config) { c.Storage.Driver = "sqlite" }, errMsg: "unknown storage driver"},
		{name: "Postgres without URL", mutate: func(c *Config) { c.Storage.Driver = DriverPostgres }, errMsg: "database URL is required"},
		{name: "Bad fee", mutate: func(c *Config) { c.Checkout.DeliveryFee = "five" }, errMsg: "parse delivery fee"},
		{name: "Negative fee", mutate: func(c *Config) { c.Checkout.DeliveryFee = "-1" }, errMsg: "must not be negative"},
		{name: "Negative page size", mutate: func(c *Config) { c.Catalog.PageSize = -1 }, errMsg: "page size"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t, "http://localhost:3000/api")
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.errMsg)
		})
	}
}
