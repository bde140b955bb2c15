// Package exchange fetches exchange rates from a frankfurter.app-style API
// and keeps the stored rate table fresh.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Client is a client for a frankfurter.app-style exchange rates API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// RateTable is one fetch of latest rates relative to a base currency.
type RateTable struct {
	Base  string
	Date  time.Time
	Rates map[string]decimal.Decimal
}

type latestResponse struct {
	Base  string                 `json:"base"`
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

// NewClient creates an exchange API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = "https://api.frankfurter.app"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		baseURL: trimmed,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Latest fetches the full latest rate table relative to the base currency.
func (c *Client) Latest(ctx context.Context, base string) (RateTable, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return RateTable{}, errors.New("base currency is required")
	}

	endpoint := fmt.Sprintf("%s/latest?base=%s", c.baseURL, url.QueryEscape(base))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RateTable{}, fmt.Errorf("failed to create rates request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RateTable{}, fmt.Errorf("failed to request rates: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return RateTable{}, fmt.Errorf("exchange API returned status %d", resp.StatusCode)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()

	var payload latestResponse
	if err := decoder.Decode(&payload); err != nil {
		return RateTable{}, fmt.Errorf("failed to decode rates response: %w", err)
	}

	table := RateTable{
		Base:  payload.Base,
		Rates: make(map[string]decimal.Decimal, len(payload.Rates)),
	}

	table.Date, err = time.Parse("2006-01-02", payload.Date)
	if err != nil {
		return RateTable{}, fmt.Errorf("failed to parse rates date: %w", err)
	}

	for code, raw := range payload.Rates {
		rate, err := decimal.NewFromString(raw.String())
		if err != nil {
			return RateTable{}, fmt.Errorf("failed to parse rate for %s: %w", code, err)
		}
		if !rate.IsPositive() {
			return RateTable{}, fmt.Errorf("rate for %s must be positive", code)
		}
		table.Rates[code] = rate
	}

	return table, nil
}
