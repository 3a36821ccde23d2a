package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/abarbosa/loja-virtual/internal/order/domain"
)

// Gateway creates hosted-checkout preferences at the external payment
// collaborator. The buyer finishes payment on the redirect URL; the result
// comes back out-of-band as a payment-status event.
type Gateway interface {
	CreatePreference(ctx context.Context, order *domain.Order) (*Preference, error)
}

type Preference struct {
	ID          string `json:"preference_id"`
	RedirectURL string `json:"redirect_url"`
}

type preferenceRequest struct {
	OrderID string           `json:"order_id"`
	Payer   string           `json:"payer"`
	Items   []preferenceItem `json:"items"`
}

type preferenceItem struct {
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type HTTPGateway struct {
	baseURL     string
	accessToken string
	client      *http.Client
}

func NewHTTPGateway(baseURL, accessToken string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL:     baseURL,
		accessToken: accessToken,
		client:      &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGateway) CreatePreference(ctx context.Context, order *domain.Order) (*Preference, error) {
	req := preferenceRequest{
		OrderID: order.ID.String(),
		Payer:   order.CustomerName,
		Items:   make([]preferenceItem, 0, len(order.Items)+1),
	}
	for _, item := range order.Items {
		req.Items = append(req.Items, preferenceItem{
			Title:     item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	if order.ShippingCost > 0 {
		req.Items = append(req.Items, preferenceItem{
			Title:     fmt.Sprintf("Frete - %s", order.ShippingMethod),
			Quantity:  1,
			UnitPrice: order.ShippingCost,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal preference request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build preference request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment gateway call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var pref Preference
	if err := json.NewDecoder(resp.Body).Decode(&pref); err != nil {
		return nil, fmt.Errorf("decode preference response: %w", err)
	}
	if pref.ID == "" || pref.RedirectURL == "" {
		return nil, fmt.Errorf("payment gateway returned incomplete preference")
	}
	return &pref, nil
}
