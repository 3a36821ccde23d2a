package shipping

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abarbosa/loja-virtual/internal/cart/domain"
)

type mockProvider struct {
	options []Option
	err     error
	calls   int
	lastReq *RateRequest
}

func (m *mockProvider) Rates(_ context.Context, req *RateRequest) ([]Option, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.options, nil
}

var testItems = []domain.CartItem{
	{ProductID: 1, Quantity: 2, WeightKg: 0.4, LengthCm: 20, HeightCm: 10, WidthCm: 15},
}

func TestQuoteFor_RanksByPrice(t *testing.T) {
	provider := &mockProvider{options: []Option{
		{ID: "sedex", Carrier: "Correios", Service: "SEDEX", Price: 35.5, EstimatedDays: 2},
		{ID: "pac", Carrier: "Correios", Service: "PAC", Price: 22.1, EstimatedDays: 7},
	}}
	r := NewResolver(provider)

	quote, err := r.QuoteFor(context.Background(), "01310100", testItems)
	require.NoError(t, err)

	require.Len(t, quote.Options, 2)
	assert.Equal(t, "pac", quote.Options[0].ID)
	assert.Equal(t, "sedex", quote.Options[1].ID)
	assert.Empty(t, quote.Warning)
}

func TestQuoteFor_InvalidCEP_NoProviderCall(t *testing.T) {
	provider := &mockProvider{}
	r := NewResolver(provider)

	_, err := r.QuoteFor(context.Background(), "12345", testItems)
	assert.ErrorIs(t, err, ErrInvalidCEP)
	assert.Zero(t, provider.calls)
}

func TestQuoteFor_RejectsNonNumericCEP(t *testing.T) {
	r := NewResolver(&mockProvider{})

	_, err := r.QuoteFor(context.Background(), "abcdefgh", testItems)
	assert.ErrorIs(t, err, ErrInvalidCEP)
}

func TestQuoteFor_AcceptsDashedCEP(t *testing.T) {
	provider := &mockProvider{options: []Option{{ID: "pac", Price: 20}}}
	r := NewResolver(provider)

	_, err := r.QuoteFor(context.Background(), "01310-100", testItems)
	require.NoError(t, err)
	assert.Equal(t, "01310100", provider.lastReq.DestinationCEP)
}

func TestQuoteFor_ProviderFailure_PickupFallback(t *testing.T) {
	provider := &mockProvider{err: errors.New("timeout")}
	r := NewResolver(provider)

	quote, err := r.QuoteFor(context.Background(), "01310100", testItems)
	require.NoError(t, err)

	require.Len(t, quote.Options, 1)
	assert.Equal(t, PickupOptionID, quote.Options[0].ID)
	assert.Zero(t, quote.Options[0].Price)
	assert.Zero(t, quote.Options[0].EstimatedDays)
	assert.Equal(t, ProviderUnavailableWarning, quote.Warning)
}

func TestQuoteFor_ForwardsCartDimensions(t *testing.T) {
	provider := &mockProvider{options: []Option{{ID: "pac", Price: 20}}}
	r := NewResolver(provider)

	_, err := r.QuoteFor(context.Background(), "01310100", testItems)
	require.NoError(t, err)

	require.Len(t, provider.lastReq.Items, 1)
	assert.Equal(t, 0.4, provider.lastReq.Items[0].WeightKg)
	assert.Equal(t, 2, provider.lastReq.Items[0].Quantity)
}
