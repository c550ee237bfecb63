package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/revreport/backend/internal/domain/revenue"
	"github.com/shopspring/decimal"
)

// Config holds CRM API client settings
type Config struct {
	BaseURL string
	APIKey  string
	DealURL string // deal page URL template, %s replaced with the deal id
	Timeout time.Duration
}

// Client is an HTTP client for the CRM deal API. It implements
// revenue.CRMClient.
type Client struct {
	baseURL    string
	apiKey     string
	dealURL    string
	httpClient *http.Client
}

// NewClient creates a new CRM API client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		dealURL: cfg.DealURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// dealResponse is the wire format of a CRM deal.
type dealResponse struct {
	ID    string          `json:"id"`
	Value decimal.Decimal `json:"value"`
	URL   string          `json:"url"`
}

// GetDeal fetches the commercial summary of a deal.
func (c *Client) GetDeal(ctx context.Context, dealID string) (revenue.Deal, error) {
	if c.baseURL == "" {
		return revenue.Deal{}, fmt.Errorf("crm client not configured")
	}

	url := fmt.Sprintf("%s/deals/%s", c.baseURL, dealID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return revenue.Deal{}, fmt.Errorf("failed to create deal request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return revenue.Deal{}, fmt.Errorf("deal request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return revenue.Deal{}, fmt.Errorf("deal request returned status %d", resp.StatusCode)
	}

	var body dealResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return revenue.Deal{}, fmt.Errorf("failed to decode deal response: %w", err)
	}

	deal := revenue.Deal{
		ID:    body.ID,
		Value: body.Value,
		URL:   body.URL,
	}
	if deal.ID == "" {
		deal.ID = dealID
	}
	if deal.URL == "" {
		deal.URL = c.DealURL(dealID)
	}
	return deal, nil
}

// DealURL returns the human-facing deal page URL, or empty when no template
// is configured.
func (c *Client) DealURL(dealID string) string {
	if c.dealURL == "" || dealID == "" {
		return ""
	}
	if strings.Contains(c.dealURL, "%s") {
		return fmt.Sprintf(c.dealURL, dealID)
	}
	return strings.TrimRight(c.dealURL, "/") + "/" + dealID
}
