package broker

import (
	"context"

	"wavecap/pkg/wavecap"
)

// Compile-time interface check.
var _ Broker = (*BackendBroker)(nil)

// OrderPlacer is the subset of *wavecap.Client used by BackendBroker.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req wavecap.OrderRequest) (*wavecap.Order, error)
}

// BackendBroker sends orders to the WaveCap backend's /place-order endpoint.
type BackendBroker struct {
	api OrderPlacer
}

// NewBackendBroker creates a BackendBroker over api.
func NewBackendBroker(api OrderPlacer) *BackendBroker {
	return &BackendBroker{api: api}
}

// Name returns "backend".
func (b *BackendBroker) Name() string {
	return "backend"
}

// PlaceOrder forwards order unchanged.
func (b *BackendBroker) PlaceOrder(ctx context.Context, order wavecap.OrderRequest) (string, error) {
	o, err := b.api.PlaceOrder(ctx, order)
	if err != nil {
		if wavecap.IsHTTP(err) {
			return "", &Rejection{Reason: wavecap.Message(err)}
		}
		return "", err
	}
	return string(o.ID), nil
}
