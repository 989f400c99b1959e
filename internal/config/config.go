// Package config loads analyzer settings from a YAML file with
// environment-variable fallbacks. Loading never hard-fails: a missing or
// unreadable file degrades to built-in defaults so every consumer stays
// constructible.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/poolscope/poolscope/internal/mev"
)

// DefaultEthPriceUSD is used when no price flag is given and the price
// feed is unavailable.
const DefaultEthPriceUSD = 3000.0

// Config holds the application configuration.
type Config struct {
	Chain  string                 `yaml:"chain"`
	Chains map[string]ChainConfig `yaml:"chains"`
	MEV    MEVConfig              `yaml:"mev"`
	NATS   NATSConfig             `yaml:"nats"`
}

// ChainConfig holds per-chain node endpoints.
type ChainConfig struct {
	HTTPURL string `yaml:"http_url"`
	WSURL   string `yaml:"ws_url"`
}

// MEVConfig holds detection thresholds. Pointers distinguish "absent"
// (use default) from an explicitly configured value.
type MEVConfig struct {
	MinSwapValueUSD *float64 `yaml:"min_swap_value_usd"`
	MinProfitUSD    *float64 `yaml:"min_profit_usd"`
}

// NATSConfig holds the optional alert-publication settings for stream mode.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream"`
	Subject string `yaml:"subject"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Chain:  getEnvWithDefault("POOLSCOPE_CHAIN", "ethereum"),
		Chains: map[string]ChainConfig{},
		NATS: NATSConfig{
			Stream:  "POOLSCOPE",
			Subject: "poolscope.alerts",
		},
	}
}

// Load reads the YAML config at path. A missing file yields the defaults;
// a parse error is reported so the caller can log it, alongside a usable
// default config.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Chain == "" {
		cfg.Chain = "ethereum"
	}
	for name, cc := range cfg.Chains {
		cc.HTTPURL = os.ExpandEnv(cc.HTTPURL)
		cc.WSURL = os.ExpandEnv(cc.WSURL)
		cfg.Chains[name] = cc
	}
	return cfg, nil
}

// Thresholds resolves the detection thresholds, applying built-in
// defaults for any value the file left unset. Explicit overrides win:
// a non-zero argument replaces whatever the file said.
func (c *Config) Thresholds(overrideSwapValue, overrideProfit float64) mev.Thresholds {
	t := mev.Thresholds{
		MinSwapValueUSD: mev.DefaultMinSwapValueUSD,
		MinProfitUSD:    mev.DefaultMinProfitUSD,
	}
	if c.MEV.MinSwapValueUSD != nil {
		t.MinSwapValueUSD = *c.MEV.MinSwapValueUSD
	}
	if c.MEV.MinProfitUSD != nil {
		t.MinProfitUSD = *c.MEV.MinProfitUSD
	}
	if overrideSwapValue > 0 {
		t.MinSwapValueUSD = overrideSwapValue
	}
	if overrideProfit > 0 {
		t.MinProfitUSD = overrideProfit
	}
	return t
}

// HTTPURL resolves the node HTTP endpoint for the given chain: explicit
// URL first, then config file, then ETH_RPC_URL, then the public default.
func (c *Config) HTTPURL(chain, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if cc, ok := c.Chains[chain]; ok && cc.HTTPURL != "" {
		return cc.HTTPURL
	}
	if url := os.Getenv("ETH_RPC_URL"); url != "" {
		return url
	}
	return defaultRPCURLs[chain]
}

// WSURL resolves the node WebSocket endpoint for the given chain.
func (c *Config) WSURL(chain, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if cc, ok := c.Chains[chain]; ok && cc.WSURL != "" {
		return cc.WSURL
	}
	if url := os.Getenv("ETH_WS_URL"); url != "" {
		return url
	}
	return defaultWSURLs[chain]
}

// Public endpoints, possibly rate limited.
var defaultRPCURLs = map[string]string{
	"ethereum": "https://eth.llamarpc.com",
	"polygon":  "https://polygon-rpc.com",
	"arbitrum": "https://arb1.arbitrum.io/rpc",
	"optimism": "https://mainnet.optimism.io",
	"base":     "https://mainnet.base.org",
}

var defaultWSURLs = map[string]string{
	"ethereum": "wss://ethereum-rpc.publicnode.com",
	"polygon":  "wss://polygon-bor-rpc.publicnode.com",
	"arbitrum": "wss://arbitrum-one-rpc.publicnode.com",
	"optimism": "wss://optimism-rpc.publicnode.com",
	"base":     "wss://base-rpc.publicnode.com",
}

// getEnvWithDefault returns the environment variable value or a default.
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
