package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RateProvider is the external shipping-rate collaborator.
type RateProvider interface {
	Rates(ctx context.Context, req *RateRequest) ([]Option, error)
}

type RateRequest struct {
	DestinationCEP string      `json:"destination_cep"`
	Items          []RateItem  `json:"items"`
}

type RateItem struct {
	WeightKg float64 `json:"weight_kg"`
	LengthCm float64 `json:"length_cm"`
	HeightCm float64 `json:"height_cm"`
	WidthCm  float64 `json:"width_cm"`
	Quantity int     `json:"quantity"`
}

// Option is one quoted shipping choice. Immutable once returned; selection is
// a client concern until order creation.
type Option struct {
	ID            string  `json:"id"`
	Carrier       string  `json:"carrier"`
	Service       string  `json:"service"`
	Price         float64 `json:"price"`
	EstimatedDays int     `json:"estimated_days"`
}

type HTTPRateProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRateProvider(baseURL string, timeout time.Duration) *HTTPRateProvider {
	return &HTTPRateProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPRateProvider) Rates(ctx context.Context, req *RateRequest) ([]Option, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal rate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/rates", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("rate provider call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var options []Option
	if err := json.NewDecoder(resp.Body).Decode(&options); err != nil {
		return nil, fmt.Errorf("decode rate response: %w", err)
	}
	return options, nil
}
