package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"wavecap/pkg/wavecap"
)

// Compile-time interface check.
var _ Broker = (*AlpacaBroker)(nil)

// alpacaOrders is the subset of *alpaca.Client used by AlpacaBroker.
type alpacaOrders interface {
	PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error)
}

// AlpacaBroker submits dollar-amount orders directly to an Alpaca paper
// account.
type AlpacaBroker struct {
	client alpacaOrders
}

// NewAlpacaBroker creates a new AlpacaBroker configured with the given
// credentials and API endpoint.
func NewAlpacaBroker(apiKey, apiSecret, baseURL string) *AlpacaBroker {
	return &AlpacaBroker{
		client: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
	}
}

// Name returns "alpaca".
func (b *AlpacaBroker) Name() string {
	return "alpaca"
}

// PlaceOrder submits a notional day order. Alpaca only accepts notional
// amounts on market orders, so limit orders are refused locally.
func (b *AlpacaBroker) PlaceOrder(_ context.Context, order wavecap.OrderRequest) (string, error) {
	req, err := alpacaRequest(order)
	if err != nil {
		return "", err
	}
	o, err := b.client.PlaceOrder(req)
	if err != nil {
		var apiErr *alpaca.APIError
		if errors.As(err, &apiErr) {
			return "", &Rejection{Reason: apiErr.Message}
		}
		return "", err
	}
	return o.ID, nil
}

func alpacaRequest(order wavecap.OrderRequest) (alpaca.PlaceOrderRequest, error) {
	symbol := strings.ToUpper(strings.TrimSpace(order.Ticker))
	if symbol == "" {
		return alpaca.PlaceOrderRequest{}, &Rejection{Reason: "ticker is required"}
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(order.DollarAmount))
	if err != nil || !amount.IsPositive() {
		return alpaca.PlaceOrderRequest{}, &Rejection{Reason: fmt.Sprintf("invalid dollar amount %q", order.DollarAmount)}
	}

	var side alpaca.Side
	switch strings.ToLower(order.Side) {
	case "buy":
		side = alpaca.Buy
	case "sell":
		side = alpaca.Sell
	default:
		return alpaca.PlaceOrderRequest{}, &Rejection{Reason: fmt.Sprintf("invalid side %q", order.Side)}
	}

	switch strings.ToLower(order.OrderType) {
	case "market":
	case "limit":
		return alpaca.PlaceOrderRequest{}, &Rejection{Reason: "limit orders need a limit price; dollar-amount orders must be market orders"}
	default:
		return alpaca.PlaceOrderRequest{}, &Rejection{Reason: fmt.Sprintf("invalid order type %q", order.OrderType)}
	}

	return alpaca.PlaceOrderRequest{
		Symbol:      symbol,
		Notional:    &amount,
		Side:        side,
		Type:        alpaca.Market,
		TimeInForce: alpaca.Day,
	}, nil
}
