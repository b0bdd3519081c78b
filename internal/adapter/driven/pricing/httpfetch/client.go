// Package httpfetch loads the price table from the billing backend.
package httpfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tolkvo/callengine/internal/core/domain"
)

type Client struct {
	url   string
	token string
	http  *http.Client
}

func New(url, token string) *Client {
	return &Client{
		url:   url,
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

type ruleDTO struct {
	CallType             string          `json:"call_type"`
	CallMode             string          `json:"call_mode"`
	PricePerMinute       decimal.Decimal `json:"price_per_minute"`
	MinimumChargeMinutes int             `json:"minimum_charge_minutes"`
}

func (c *Client) FetchRules(ctx context.Context) ([]domain.PricingRule, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch pricing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch pricing: unexpected status %d", resp.StatusCode)
	}

	var dtos []ruleDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		return nil, fmt.Errorf("decode pricing: %w", err)
	}

	rules := make([]domain.PricingRule, 0, len(dtos))
	for _, d := range dtos {
		r := domain.PricingRule{
			CallType:             domain.CallType(d.CallType),
			CallMode:             domain.CallMode(d.CallMode),
			PricePerMinute:       d.PricePerMinute,
			MinimumChargeMinutes: d.MinimumChargeMinutes,
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("invalid pricing rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}
