// Package wavecap is a Go SDK for the WaveCap backend API.
package wavecap

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds every request unless overridden with WithTimeout.
const DefaultTimeout = 30 * time.Second

// Client provides typed access to the WaveCap backend. A single Client keeps
// one cookie jar for its lifetime and presents it on every request, so the
// backend session established by Login follows all later calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient uses a copy of hc for requests. The copy gets the client's
// cookie jar if hc has none; hc itself is not modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		if cp.Jar == nil {
			cp.Jar = c.httpClient.Jar
		}
		c.httpClient = &cp
	}
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a new WaveCap API client.
func NewClient(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil) // never fails with nil options
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout, Jar: jar},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates and returns the issued uid.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/login", nil, credentials{email, password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup creates an account. The backend answers with a message and the
// IPFS hash of the stored record.
func (c *Client) Signup(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/signup", nil, credentials{email, password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the session for uid.
func (c *Client) Logout(ctx context.Context, uid string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/logout", nil, map[string]string{"uid": uid}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// ServerTest checks that the backend is reachable.
func (c *Client) ServerTest(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/server-test", nil, struct{}{}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// ---------------------------------------------------------------------------
// Market data
// ---------------------------------------------------------------------------

// Autocomplete returns symbol suggestions for a partial query.
func (c *Client) Autocomplete(ctx context.Context, query string) ([]Suggestion, error) {
	var out struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	q := url.Values{"query": {query}}
	if err := c.do(ctx, http.MethodGet, "/autocomplete", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

// StockGraph returns the price series for symbol at the given interval. Both
// the line and the candlestick series are present in one response.
func (c *Client) StockGraph(ctx context.Context, symbol string, interval Interval) (*Graph, error) {
	var out Graph
	path := "/stock-graph/" + url.PathEscape(symbol) + "/" + interval.Path()
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StockMetrics returns descriptive metrics for symbol.
func (c *Client) StockMetrics(ctx context.Context, symbol string) (*Metrics, error) {
	var out Metrics
	if err := c.do(ctx, http.MethodGet, "/stock-name/"+url.PathEscape(symbol), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TopGainers returns the backend's gainer summary. The endpoint has answered
// with a single object, a bare list and a wrapped list over time; all three
// are accepted.
func (c *Client) TopGainers(ctx context.Context) ([]Gainer, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/top-gainers", nil, nil, &raw); err != nil {
		return nil, err
	}
	gainers, err := decodeGainers(raw)
	if err != nil {
		return nil, &Error{Kind: KindParse, Op: "GET /top-gainers", Err: err}
	}
	return gainers, nil
}

func decodeGainers(raw json.RawMessage) ([]Gainer, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var list []Gainer
		err := json.Unmarshal(raw, &list)
		return list, err
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	for _, key := range []string{"gainers", "topGainers", "top_gainers"} {
		if inner, ok := wrapped[key]; ok {
			return decodeGainers(inner)
		}
	}
	var g Gainer
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return []Gainer{g}, nil
}

// News returns headlines for a company, looked up by symbol or name.
func (c *Client) News(ctx context.Context, company string) ([]Article, error) {
	var out struct {
		News []Article `json:"news"`
	}
	if err := c.do(ctx, http.MethodGet, "/news/"+url.PathEscape(company), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.News, nil
}

// ---------------------------------------------------------------------------
// Portfolio
// ---------------------------------------------------------------------------

type stockRef struct {
	UID    string `json:"uid"`
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
}

// Portfolio returns the symbols saved by uid, in server order.
func (c *Client) Portfolio(ctx context.Context, uid string) ([]PortfolioEntry, error) {
	var out struct {
		Portfolio []PortfolioEntry `json:"portfolio"`
	}
	if err := c.do(ctx, http.MethodGet, "/get-portfolio", url.Values{"uid": {uid}}, nil, &out); err != nil {
		return nil, err
	}
	return out.Portfolio, nil
}

// SaveStock adds symbol to uid's portfolio.
func (c *Client) SaveStock(ctx context.Context, uid, symbol, name string) error {
	return c.do(ctx, http.MethodPost, "/save-stock", nil, stockRef{uid, symbol, name}, nil)
}

// RemoveStock removes symbol from uid's portfolio.
func (c *Client) RemoveStock(ctx context.Context, uid, symbol, name string) error {
	return c.do(ctx, http.MethodPost, "/remove-stock", nil, stockRef{uid, symbol, name}, nil)
}

// IsSaved reports whether symbol is in uid's portfolio.
func (c *Client) IsSaved(ctx context.Context, uid, symbol string) (bool, error) {
	var out struct {
		IsSaved bool `json:"isSaved"`
	}
	if err := c.do(ctx, http.MethodPost, "/is-saved", nil, stockRef{UID: uid, Symbol: symbol}, &out); err != nil {
		return false, err
	}
	return out.IsSaved, nil
}

// ---------------------------------------------------------------------------
// Simulations
// ---------------------------------------------------------------------------

// FetchUserSims lists uid's paper-trading simulations.
func (c *Client) FetchUserSims(ctx context.Context, uid string) ([]Simulation, error) {
	var out struct {
		Sims []Simulation `json:"sims"`
	}
	if err := c.do(ctx, http.MethodPost, "/fetch-user-sims", nil, map[string]string{"uid": uid}, &out); err != nil {
		return nil, err
	}
	return out.Sims, nil
}

// CreateSimulation creates a simulation and returns the stored record.
func (c *Client) CreateSimulation(ctx context.Context, req NewSimulation) (*Simulation, error) {
	var out struct {
		Simulation *Simulation `json:"simulation"`
	}
	if err := c.do(ctx, http.MethodPost, "/create-new-simulation", nil, req, &out); err != nil {
		return nil, err
	}
	if out.Simulation == nil {
		return nil, &Error{Kind: KindParse, Op: "POST /create-new-simulation", Message: "response has no simulation"}
	}
	return out.Simulation, nil
}

// PlaceOrder submits a paper order.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	var out struct {
		Order *Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/place-order", nil, req, &out); err != nil {
		return nil, err
	}
	if out.Order == nil {
		return nil, &Error{Kind: KindParse, Op: "POST /place-order", Message: "response has no order"}
	}
	return out.Order, nil
}

// ---------------------------------------------------------------------------
// Assistant
// ---------------------------------------------------------------------------

// Chat sends one message to the investment assistant and returns its reply,
// which may be empty.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	var out struct {
		Response string `json:"response"`
	}
	if err := c.do(ctx, http.MethodPost, "/sambanova-investment-chat", nil, map[string]string{"message": message}, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	op := method + " " + path
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindParse, Op: op, Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", op, "request_id", reqID, "error", err)
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	c.logger.Debug("request done", "op", op, "request_id", reqID,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, msg := bodyFields(data)
		return &Error{Kind: KindHTTP, Op: op, Status: resp.StatusCode, Detail: detail, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindParse, Op: op, Err: err}
	}
	return nil
}

// bodyFields extracts the "error" and "message" strings from an error body.
func bodyFields(data []byte) (detail, message string) {
	var m map[string]any
	if json.Unmarshal(data, &m) != nil {
		return "", ""
	}
	detail, _ = m["error"].(string)
	message, _ = m["message"].(string)
	return detail, message
}
