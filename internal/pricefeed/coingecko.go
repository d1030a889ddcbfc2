// Package pricefeed fetches market data for tracked crypto assets.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"relaybot/internal/domain"
)

// Quote is a snapshot of an asset's price against its all-time high,
// as reported by the upstream market data API.
type Quote struct {
	AssetID         string
	AllTimeHigh     decimal.Decimal
	AllTimeHighDate time.Time
	CurrentPrice    decimal.Decimal
	PercentFromATH  decimal.Decimal
}

// CoinGecko fetches quotes from the CoinGecko coins API.
type CoinGecko struct {
	base   string
	client *http.Client
	logger *slog.Logger
}

// NewCoinGecko creates a client against the given API base URL,
// e.g. "https://api.coingecko.com/api/v3".
func NewCoinGecko(base string, timeout time.Duration, logger *slog.Logger) *CoinGecko {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CoinGecko{
		base:   base,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// coinResponse mirrors the subset of /coins/{id} we consume. Prices are
// keyed by fiat currency code.
type coinResponse struct {
	ID         string `json:"id"`
	MarketData struct {
		ATH              map[string]decimal.Decimal `json:"ath"`
		ATHDate          map[string]string          `json:"ath_date"`
		ATHChangePercent map[string]decimal.Decimal `json:"ath_change_percentage"`
		CurrentPrice     map[string]decimal.Decimal `json:"current_price"`
	} `json:"market_data"`
}

// Quote fetches the current USD quote for one asset.
func (c *CoinGecko) Quote(ctx context.Context, assetID string) (*Quote, error) {
	url := fmt.Sprintf("%s/coins/%s?localization=false&tickers=false&community_data=false&developer_data=false", c.base, assetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
		}
		return nil, &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.DeliveryError{Status: resp.StatusCode, Body: string(body)}
	}

	var cr coinResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decode quote for %s: %w", assetID, err)
	}

	q := &Quote{
		AssetID:        assetID,
		AllTimeHigh:    cr.MarketData.ATH["usd"],
		CurrentPrice:   cr.MarketData.CurrentPrice["usd"],
		PercentFromATH: cr.MarketData.ATHChangePercent["usd"],
	}
	if raw, ok := cr.MarketData.ATHDate["usd"]; ok && raw != "" {
		athDate, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("parse ath_date for %s: %w", assetID, err)
		}
		q.AllTimeHighDate = athDate.UTC()
	}
	return q, nil
}
