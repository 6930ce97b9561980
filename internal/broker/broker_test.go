package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wavecap/pkg/wavecap"
)

func TestAlpacaBrokerName(t *testing.T) {
	b := NewAlpacaBroker("key", "secret", "https://paper-api.alpaca.markets")
	if got := b.Name(); got != "alpaca" {
		t.Errorf("AlpacaBroker.Name() = %q, want %q", got, "alpaca")
	}
}

func TestBackendBrokerName(t *testing.T) {
	b := NewBackendBroker(nil)
	if got := b.Name(); got != "backend" {
		t.Errorf("BackendBroker.Name() = %q, want %q", got, "backend")
	}
}

type fakePlacer struct {
	got wavecap.OrderRequest
	id  string
	err error
}

func (f *fakePlacer) PlaceOrder(_ context.Context, req wavecap.OrderRequest) (*wavecap.Order, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &wavecap.Order{ID: wavecap.Scalar(f.id)}, nil
}

func TestBackendBroker(t *testing.T) {
	req := wavecap.OrderRequest{Ticker: "MSFT", DollarAmount: "100", OrderType: "market", Side: "buy"}

	f := &fakePlacer{id: "ord-9"}
	id, err := NewBackendBroker(f).PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ord-9", id)
	assert.Equal(t, req, f.got)
	assert.Equal(t, "Order placed successfully: ord-9", ResultText(id, err))

	f = &fakePlacer{err: &wavecap.Error{Kind: wavecap.KindHTTP, Status: 400, Message: "insufficient funds"}}
	_, err = NewBackendBroker(f).PlaceOrder(context.Background(), req)
	assert.Equal(t, "Error placing order: insufficient funds", ResultText("", err))

	f = &fakePlacer{err: &wavecap.Error{Kind: wavecap.KindNetwork, Op: "POST /place-order", Err: errors.New("connection refused")}}
	_, err = NewBackendBroker(f).PlaceOrder(context.Background(), req)
	assert.Equal(t, "Error: POST /place-order: network: connection refused", ResultText("", err))
}

type fakeAlpaca struct {
	got alpaca.PlaceOrderRequest
	err error
}

func (f *fakeAlpaca) PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &alpaca.Order{ID: "alp-1"}, nil
}

func TestAlpacaBrokerPlaceOrder(t *testing.T) {
	f := &fakeAlpaca{}
	b := &AlpacaBroker{client: f}

	id, err := b.PlaceOrder(context.Background(), wavecap.OrderRequest{
		Ticker: " msft ", DollarAmount: "250.50", OrderType: "market", Side: "sell",
	})
	require.NoError(t, err)
	assert.Equal(t, "alp-1", id)
	assert.Equal(t, "MSFT", f.got.Symbol)
	require.NotNil(t, f.got.Notional)
	assert.True(t, f.got.Notional.Equal(decimal.RequireFromString("250.50")))
	assert.Equal(t, alpaca.Sell, f.got.Side)
	assert.Equal(t, alpaca.Market, f.got.Type)
	assert.Equal(t, alpaca.Day, f.got.TimeInForce)

	f.err = &alpaca.APIError{StatusCode: 403, Message: "insufficient buying power"}
	_, err = b.PlaceOrder(context.Background(), wavecap.OrderRequest{
		Ticker: "MSFT", DollarAmount: "1", OrderType: "market", Side: "buy",
	})
	assert.Equal(t, "Error placing order: insufficient buying power", ResultText("", err))
}

func TestAlpacaRequestValidation(t *testing.T) {
	tests := []struct {
		name  string
		order wavecap.OrderRequest
	}{
		{"empty ticker", wavecap.OrderRequest{DollarAmount: "10", OrderType: "market", Side: "buy"}},
		{"bad amount", wavecap.OrderRequest{Ticker: "A", DollarAmount: "ten", OrderType: "market", Side: "buy"}},
		{"zero amount", wavecap.OrderRequest{Ticker: "A", DollarAmount: "0", OrderType: "market", Side: "buy"}},
		{"bad side", wavecap.OrderRequest{Ticker: "A", DollarAmount: "10", OrderType: "market", Side: "hold"}},
		{"limit", wavecap.OrderRequest{Ticker: "A", DollarAmount: "10", OrderType: "limit", Side: "buy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeAlpaca{}
			_, err := (&AlpacaBroker{client: f}).PlaceOrder(context.Background(), tt.order)
			var rej *Rejection
			assert.ErrorAs(t, err, &rej)
			assert.Empty(t, f.got.Symbol, "request must not reach alpaca")
		})
	}
}
