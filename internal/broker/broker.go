// Package broker defines the Broker interface and provides implementations
// for submitting paper orders from a trading session.
package broker

import (
	"context"
	"errors"

	"wavecap/pkg/wavecap"
)

// Broker submits paper orders.
type Broker interface {
	// Name returns the broker identifier (e.g. "backend", "alpaca").
	Name() string

	// PlaceOrder submits order and returns the venue's order ID.
	PlaceOrder(ctx context.Context, order wavecap.OrderRequest) (string, error)
}

// Rejection is returned when the venue answered and refused the order, as
// opposed to the request failing in transit.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

// ResultText is the message a trading session shows after an attempt.
func ResultText(orderID string, err error) string {
	if err == nil {
		return "Order placed successfully: " + orderID
	}
	var rej *Rejection
	if errors.As(err, &rej) {
		return "Error placing order: " + rej.Reason
	}
	return "Error: " + err.Error()
}
