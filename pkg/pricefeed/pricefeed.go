// Package pricefeed fetches spot prices used for USD estimation. The
// analyzer only needs a rough ETH/USD figure; callers fall back to a
// static default when the feed is unreachable.
package pricefeed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Client queries a CoinGecko-compatible simple-price endpoint.
type Client struct {
	http *resty.Client
}

// New returns a price client against the public CoinGecko API.
func New() *Client {
	return NewWithBaseURL(defaultBaseURL)
}

// NewWithBaseURL returns a price client against a custom endpoint.
func NewWithBaseURL(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second),
	}
}

// EthereumUSD returns the current ETH price in USD.
func (c *Client) EthereumUSD(ctx context.Context) (float64, error) {
	var out map[string]map[string]float64
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":           "ethereum",
			"vs_currencies": "usd",
		}).
		SetResult(&out).
		Get("/simple/price")
	if err != nil {
		return 0, fmt.Errorf("price request: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("price request: status %s", resp.Status())
	}
	price, ok := out["ethereum"]["usd"]
	if !ok || price <= 0 {
		return 0, fmt.Errorf("price response missing ethereum/usd")
	}
	return price, nil
}
