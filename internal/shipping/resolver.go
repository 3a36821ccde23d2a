package shipping

import (
	"context"
	"errors"
	"log"
	"regexp"
	"sort"

	"github.com/abarbosa/loja-virtual/internal/cart/domain"
)

var ErrInvalidCEP = errors.New("invalid CEP: must be 8 digits")

var cepPattern = regexp.MustCompile(`^\d{8}$`)

const (
	PickupOptionID = "retirada"

	// shown to the buyer alongside the pickup fallback when the provider is down
	ProviderUnavailableWarning = "não foi possível calcular o frete no momento; apenas retirada na loja está disponível"
)

// Quote is the resolver result: ranked options plus an optional degraded-mode
// warning. Checkout is never fully blocked by a provider outage.
type Quote struct {
	Options []Option `json:"options"`
	Warning string   `json:"warning,omitempty"`
}

// Resolver is stateless and idempotent per call; callers re-quote whenever
// cart weight or dimensions change.
type Resolver struct {
	provider RateProvider
}

func NewResolver(provider RateProvider) *Resolver {
	return &Resolver{provider: provider}
}

func (r *Resolver) QuoteFor(ctx context.Context, destinationCEP string, items []domain.CartItem) (*Quote, error) {
	cep := normalizeCEP(destinationCEP)
	if !cepPattern.MatchString(cep) {
		return nil, ErrInvalidCEP
	}

	req := &RateRequest{
		DestinationCEP: cep,
		Items:          make([]RateItem, len(items)),
	}
	for i, item := range items {
		req.Items[i] = RateItem{
			WeightKg: item.WeightKg,
			LengthCm: item.LengthCm,
			HeightCm: item.HeightCm,
			WidthCm:  item.WidthCm,
			Quantity: item.Quantity,
		}
	}

	options, err := r.provider.Rates(ctx, req)
	if err != nil {
		log.Printf("shipping rate lookup failed for CEP %s: %v", cep, err)
		return &Quote{
			Options: []Option{pickupOption()},
			Warning: ProviderUnavailableWarning,
		}, nil
	}

	sort.Slice(options, func(i, j int) bool {
		return options[i].Price < options[j].Price
	})

	return &Quote{Options: options}, nil
}

func pickupOption() Option {
	return Option{
		ID:            PickupOptionID,
		Carrier:       "Loja",
		Service:       "Retirada na loja",
		Price:         0,
		EstimatedDays: 0,
	}
}

// normalizeCEP strips the conventional dash from e.g. "01310-100".
func normalizeCEP(cep string) string {
	out := make([]byte, 0, len(cep))
	for i := 0; i < len(cep); i++ {
		if cep[i] == '-' || cep[i] == ' ' {
			continue
		}
		out = append(out, cep[i])
	}
	return string(out)
}
