// Package flamingo is the client for the Flamingo aggregated price feed,
// the source of the daily token price history.
package flamingo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const DefaultBaseURL = "https://neo-api.b-cdn.net"

// Price is one token quote. BlockIndex and Timestamp are zero in feed
// responses; the indexer fills them from the source block before
// persistence.
type Price struct {
	Symbol          string  `json:"symbol"`
	UnwrappedSymbol string  `json:"unwrappedSymbol"`
	Hash            string  `json:"hash"`
	USDPrice        float64 `json:"usd_price"`
	BlockIndex      uint64  `json:"block_index,omitempty"`
	Timestamp       uint64  `json:"timestamp,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// GetPricesFromBlock returns the feed's quotes as of the given block.
func (c *Client) GetPricesFromBlock(ctx context.Context, height uint64) ([]Price, error) {
	url := fmt.Sprintf("%s/flamingo/live-data/prices/from-block/%d", c.baseURL, height)
	return c.get(ctx, url)
}

// GetLatestPrices returns the feed's current quotes.
func (c *Client) GetLatestPrices(ctx context.Context) ([]Price, error) {
	return c.get(ctx, c.baseURL+"/flamingo/live-data/prices/latest")
}

func (c *Client) get(ctx context.Context, url string) ([]Price, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build price request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	var prices []Price
	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		return nil, fmt.Errorf("failed to decode prices: %w", err)
	}
	return prices, nil
}
