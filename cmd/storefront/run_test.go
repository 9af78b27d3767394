package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appkg "github.com/xenking/kart-storefront/internal/app"
)

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: `+baseURL+`
storage:
  driver: memory
bootstrap:
  min_duration: 0s
`), 0o600))
	return path
}

func TestRun(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products/categories", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`["Mugs","Lamps"]`))
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	config := writeConfig(t, srv.URL+"/api")
	ctx := context.Background()

	t.Run("Help", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(ctx, []string{"help"}, &out, appkg.Options{}))
		assert.Contains(t, out.String(), "cart [show")
	})
	t.Run("Unknown", func(t *testing.T) {
		var out bytes.Buffer
		require.ErrorContains(t, run(ctx, []string{"-config", config, "teleport"}, &out, appkg.Options{}), "unknown command")
	})
	t.Run("Categories", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(ctx, []string{"-config", config, "categories"}, &out, appkg.Options{}))
		assert.JSONEq(t, `["Mugs","Lamps"]`, out.String())
	})
	t.Run("Open", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(ctx, []string{"-config", config, "open", "shopify://cart"}, &out, appkg.Options{}))
		assert.JSONEq(t, `{"screen":"Login","root":"auth","params":{"redirect":"cart"}}`, out.String())
	})
	t.Run("Invalid form never reaches the API", func(t *testing.T) {
		var out bytes.Buffer
		err := run(ctx, []string{"-config", config, "login", "-email", "nope", "-password", "x"}, &out, appkg.Options{})
		require.ErrorContains(t, err, "email")
	})
	t.Run("Server error is shown as a user message", func(t *testing.T) {
		var out bytes.Buffer
		err := run(ctx, []string{"-config", config, "login", "-email", "a@b.co", "-password", "secret"}, &out, appkg.Options{})
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "401")
	})
	t.Run("Positional arguments", func(t *testing.T) {
		var out bytes.Buffer
		require.ErrorContains(t, run(ctx, []string{"-config", config, "product"}, &out, appkg.Options{}), "usage: product <id>")
	})
	t.Run("Settings", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(ctx, []string{"-config", config, "settings"}, &out, appkg.Options{}))
		var shown struct {
			Language  string   `json:"language"`
			Theme     string   `json:"theme"`
			Onboarded bool     `json:"onboarded"`
			Stored    []string `json:"stored"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &shown))
		assert.Equal(t, appkg.DefaultLanguage, shown.Language)
		assert.Equal(t, appkg.DefaultTheme, shown.Theme)
		assert.False(t, shown.Onboarded)

		out.Reset()
		require.NoError(t, run(ctx, []string{"-config", config, "settings", "theme", "Dark"}, &out, appkg.Options{}))
		require.NoError(t, json.Unmarshal(out.Bytes(), &shown))
		assert.Equal(t, "dark", shown.Theme)
		assert.Contains(t, shown.Stored, "@theme")

		out.Reset()
		err := run(ctx, []string{"-config", config, "settings", "language", "klingon"}, &out, appkg.Options{})
		require.ErrorContains(t, err, "language")
	})
	t.Run("Status shows onboarding", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(ctx, []string{"-config", config, "status"}, &out, appkg.Options{}))
		var status struct {
			Onboarded *bool `json:"onboarded"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &status))
		require.NotNil(t, status.Onboarded)
		assert.False(t, *status.Onboarded)
	})
	t.Run("Health watch stops with the context", func(t *testing.T) {
		wctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()

		var out bytes.Buffer
		require.NoError(t, run(wctx, []string{"-config", config, "health", "-watch", "10ms"}, &out, appkg.Options{}))

		var report struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.NewDecoder(&out).Decode(&report))
		assert.Equal(t, "ok", report.Status)
	})
}
