package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolscope/poolscope/internal/catalog"
	"github.com/poolscope/poolscope/internal/decoder"
	"github.com/poolscope/poolscope/internal/mev"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "ethereum", cfg.Chain)
	assert.Equal(t, "POOLSCOPE", cfg.NATS.Stream)
}

func TestLoadEmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ethereum", cfg.Chain)
}

// A broken file must still leave the caller with a usable config.
func TestLoadParseErrorDegradesToDefaults(t *testing.T) {
	path := writeConfig(t, "chain: [unterminated")

	cfg, err := Load(path)
	assert.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "ethereum", cfg.Chain)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
chain: polygon
chains:
  polygon:
    http_url: https://example.invalid/rpc
    ws_url: wss://example.invalid/ws
mev:
  min_swap_value_usd: 5000
  min_profit_usd: 50
nats:
  url: nats://localhost:4222
  stream: ALERTS
  subject: alerts.mev
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "polygon", cfg.Chain)
	assert.Equal(t, "https://example.invalid/rpc", cfg.Chains["polygon"].HTTPURL)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "ALERTS", cfg.NATS.Stream)
}

func TestThresholdPriority(t *testing.T) {
	path := writeConfig(t, `
mev:
  min_swap_value_usd: 5000
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	// File value beats the default; the unset profit keeps the default.
	got := cfg.Thresholds(0, 0)
	assert.Equal(t, 5000.0, got.MinSwapValueUSD)
	assert.Equal(t, float64(mev.DefaultMinProfitUSD), got.MinProfitUSD)

	// Explicit argument beats the file.
	got = cfg.Thresholds(25000, 500)
	assert.Equal(t, 25000.0, got.MinSwapValueUSD)
	assert.Equal(t, 500.0, got.MinProfitUSD)
}

// A file that sets a threshold to 0 means "no minimum", not "use the
// default"; the value must survive all the way into the detector.
func TestThresholdExplicitZeroFromFile(t *testing.T) {
	path := writeConfig(t, `
mev:
  min_swap_value_usd: 0
  min_profit_usd: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	got := cfg.Thresholds(0, 0)
	assert.Zero(t, got.MinSwapValueUSD)
	assert.Zero(t, got.MinProfitUSD)

	det := mev.NewDetector(decoder.New(catalog.Default()), got)
	assert.Zero(t, det.Thresholds().MinProfitUSD)
	assert.Zero(t, det.Thresholds().MinSwapValueUSD)
}

func TestThresholdDefaults(t *testing.T) {
	got := Default().Thresholds(0, 0)
	assert.Equal(t, float64(mev.DefaultMinSwapValueUSD), got.MinSwapValueUSD)
	assert.Equal(t, float64(mev.DefaultMinProfitUSD), got.MinProfitUSD)
}

func TestHTTPURLResolution(t *testing.T) {
	t.Setenv("ETH_RPC_URL", "")
	cfg := Default()
	cfg.Chains["ethereum"] = ChainConfig{HTTPURL: "https://file.invalid/rpc"}

	// Explicit wins over everything.
	assert.Equal(t, "https://flag.invalid/rpc", cfg.HTTPURL("ethereum", "https://flag.invalid/rpc"))

	// Then the config file.
	assert.Equal(t, "https://file.invalid/rpc", cfg.HTTPURL("ethereum", ""))

	// An unknown chain with no configuration resolves to nothing.
	assert.Empty(t, cfg.HTTPURL("devnet", ""))
}

func TestHTTPURLPublicDefault(t *testing.T) {
	t.Setenv("ETH_RPC_URL", "")
	assert.Equal(t, "https://eth.llamarpc.com", Default().HTTPURL("ethereum", ""))
}

func TestWSURLResolution(t *testing.T) {
	t.Setenv("ETH_WS_URL", "")
	cfg := Default()
	assert.Equal(t, "wss://ethereum-rpc.publicnode.com", cfg.WSURL("ethereum", ""))

	cfg.Chains["ethereum"] = ChainConfig{WSURL: "wss://file.invalid/ws"}
	assert.Equal(t, "wss://file.invalid/ws", cfg.WSURL("ethereum", ""))
}

func TestLoadExpandsEnvInURLs(t *testing.T) {
	t.Setenv("TEST_RPC_HOST", "node.example.invalid")
	path := writeConfig(t, `
chains:
  ethereum:
    http_url: https://${TEST_RPC_HOST}/rpc
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://node.example.invalid/rpc", cfg.Chains["ethereum"].HTTPURL)
}
