package wavecap

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:5000/"
	c := NewClient(baseURL)

	if c == nil {
		t.Fatal("expected non-nil client")
	}
	if c.baseURL != "http://localhost:5000" {
		t.Errorf("expected trailing slash trimmed, got %q", c.baseURL)
	}
	if c.httpClient == nil {
		t.Fatal("expected non-nil httpClient")
	}
	if c.httpClient.Jar == nil {
		t.Error("expected a cookie jar")
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, DefaultTimeout)
	}

	c = NewClient(baseURL, WithTimeout(2*time.Second))
	if c.httpClient.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", c.httpClient.Timeout)
	}
}

func TestWithHTTPClientCopies(t *testing.T) {
	hc := &http.Client{Timeout: time.Second}
	c := NewClient("http://localhost:5000", WithHTTPClient(hc), WithTimeout(5*time.Second))

	if hc.Jar != nil {
		t.Error("caller's client was given a jar")
	}
	if hc.Timeout != time.Second {
		t.Errorf("caller's Timeout = %v, want 1s", hc.Timeout)
	}
	if c.httpClient == hc {
		t.Fatal("client shares the caller's *http.Client")
	}
	if c.httpClient.Jar == nil {
		t.Error("expected a cookie jar on the copy")
	}
	if c.httpClient.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", c.httpClient.Timeout)
	}
}

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestAutocomplete(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/autocomplete" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "AA PL" {
			t.Errorf("query = %q, want %q", got, "AA PL")
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
		w.Write([]byte(`{"suggestions":[{"symbol":"AAPL","name":"Apple Inc."}]}`))
	})

	got, err := c.Autocomplete(context.Background(), "AA PL")
	if err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	if len(got) != 1 || got[0].Symbol != "AAPL" || got[0].Name != "Apple Inc." {
		t.Errorf("Autocomplete = %+v", got)
	}
}

func TestStockGraph(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stock-graph/AAPL/minutes" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"labels": ["09:30", 1700000000],
			"data": [101.5, 102],
			"candleData": [{"timestamp": 1700000000, "open": 1, "high": 2, "low": 0.5, "close": 1.5}]
		}`))
	})

	g, err := c.StockGraph(context.Background(), "AAPL", IntervalIntraday)
	if err != nil {
		t.Fatalf("StockGraph: %v", err)
	}
	if len(g.Labels) != 2 || g.Labels[0] != "09:30" || g.Labels[1] != "1700000000" {
		t.Errorf("Labels = %v", g.Labels)
	}
	if len(g.Data) != 2 || g.Data[1] != 102 {
		t.Errorf("Data = %v", g.Data)
	}
	if len(g.CandleData) != 1 || g.CandleData[0].Timestamp != "1700000000" || g.CandleData[0].Close != 1.5 {
		t.Errorf("CandleData = %+v", g.CandleData)
	}
}

func TestIntervalPath(t *testing.T) {
	tests := []struct {
		in   Interval
		want string
	}{
		{IntervalIntraday, "minutes"},
		{IntervalDay, "days"},
		{IntervalMonth, "months"},
		{IntervalYear, "years"},
	}
	for _, tt := range tests {
		if got := tt.in.Path(); got != tt.want {
			t.Errorf("%s.Path() = %q, want %q", tt.in, got, tt.want)
		}
		back, err := ParseInterval(tt.want)
		if err != nil || back != tt.in {
			t.Errorf("ParseInterval(%q) = %q, %v", tt.want, back, err)
		}
	}
	if _, err := ParseInterval("weeks"); err == nil {
		t.Error("expected error for unknown interval")
	}
}

func TestErrorKinds(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/save-stock":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"database unavailable"}`))
		case "/remove-stock":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"Symbol is required."}`))
		case "/is-saved":
			w.Write([]byte(`{"isSaved": tru`))
		}
	})
	ctx := context.Background()

	err := c.SaveStock(ctx, "u1", "AAPL", "Apple")
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindHTTP || e.Status != 500 {
		t.Fatalf("SaveStock err = %v", err)
	}
	if Message(err) != "database unavailable" {
		t.Errorf("Message = %q", Message(err))
	}
	if !IsHTTP(err) || IsNetwork(err) {
		t.Error("expected an HTTP error, not a network one")
	}

	err = c.RemoveStock(ctx, "u1", "AAPL", "Apple")
	if Message(err) != "Symbol is required." {
		t.Errorf("Message = %q", Message(err))
	}

	_, err = c.IsSaved(ctx, "u1", "AAPL")
	if !errors.As(err, &e) || e.Kind != KindParse {
		t.Fatalf("IsSaved err = %v, want parse error", err)
	}
	if !IsNetwork(err) {
		t.Error("parse failures should count as network failures")
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := NewClient(srv.URL)
	srv.Close()

	_, err := c.Portfolio(context.Background(), "u1")
	if !IsNetwork(err) {
		t.Fatalf("err = %v, want network error", err)
	}
}

func TestSessionCookieSentOnEveryRequest(t *testing.T) {
	var sawCookie bool
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			w.Write([]byte(`{"uid":"u-42"}`))
		case "/get-portfolio":
			if ck, err := r.Cookie("session"); err == nil && ck.Value == "abc" {
				sawCookie = true
			}
			if r.URL.Query().Get("uid") != "u-42" {
				t.Errorf("uid = %q", r.URL.Query().Get("uid"))
			}
			w.Write([]byte(`{"portfolio":[{"symbol":"MSFT","name":"Microsoft"},{"symbol":"AAPL","name":"Apple"}]}`))
		}
	})
	ctx := context.Background()

	res, err := c.Login(ctx, "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.UID != "u-42" {
		t.Errorf("UID = %q", res.UID)
	}

	entries, err := c.Portfolio(ctx, res.UID)
	if err != nil {
		t.Fatalf("Portfolio: %v", err)
	}
	if !sawCookie {
		t.Error("session cookie not sent with portfolio request")
	}
	if len(entries) != 2 || entries[0].Symbol != "MSFT" {
		t.Errorf("Portfolio order not preserved: %+v", entries)
	}
}

func TestTopGainersShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"single object", `{"symbol":"NVDA","percentChange":4.2}`, []string{"NVDA"}},
		{"bare list", `[{"symbol":"NVDA"},{"symbol":"AMD"}]`, []string{"NVDA", "AMD"}},
		{"wrapped list", `{"gainers":[{"symbol":"TSLA"}]}`, []string{"TSLA"}},
		{"null", `null`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			got, err := c.TopGainers(context.Background())
			if err != nil {
				t.Fatalf("TopGainers: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, g := range got {
				if g.Symbol != tt.want[i] {
					t.Errorf("[%d] = %q, want %q", i, g.Symbol, tt.want[i])
				}
			}
		})
	}
}

func TestCreateSimulation(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var got map[string]any
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad request body: %v", err)
			return
		}
		if got["startingBalance"] != float64(1000) {
			t.Errorf("startingBalance = %#v, want number 1000", got["startingBalance"])
		}
		if got["uid"] != "u1" || got["name"] != "Test" || got["startingTicker"] != "MSFT" {
			t.Errorf("body = %v", got)
		}
		w.Write([]byte(`{"simulation":{"id":7,"name":"Test","startingBalance":1000,
			"currentBalance":1000,"simulatedCash":"1000.00","startingTicker":"MSFT",
			"dateOpened":{"day":3,"month":9,"year":2024}}}`))
	})

	sim, err := c.CreateSimulation(context.Background(), NewSimulation{
		UID: "u1", Name: "Test", StartingBalance: decimal.NewFromInt(1000), StartingTicker: "MSFT",
	})
	if err != nil {
		t.Fatalf("CreateSimulation: %v", err)
	}
	if cash, ok := sim.SimulatedCash.Decimal(); sim.ID != "7" || !ok || !cash.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("sim = %+v", sim)
	}
	if sim.DateOpened == nil || !sim.DateOpened.OK || sim.DateOpened.Month != 9 {
		t.Errorf("DateOpened = %+v", sim.DateOpened)
	}
}

func TestFetchUserSimsDisplayText(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fetch-user-sims" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"sims":[
			{"id":1,"name":"Fresh","startingBalance":1000,"currentBalance":"1000.50",
			 "simulatedCash":1000,"profitLoss":0,"winRate":"0%","startingTicker":"MSFT"},
			{"id":2,"name":"Old","startingBalance":500,"profitLoss":-12.5,"winRate":null}]}`))
	})

	sims, err := c.FetchUserSims(context.Background(), "u1")
	if err != nil {
		t.Fatalf("FetchUserSims: %v", err)
	}
	if len(sims) != 2 {
		t.Fatalf("len = %d, want 2", len(sims))
	}
	if _, ok := sims[0].WinRate.Decimal(); ok || sims[0].WinRate.String() != "0%" {
		t.Errorf("WinRate = %+v, want text 0%%", sims[0].WinRate)
	}
	if d, ok := sims[0].CurrentBalance.Decimal(); !ok || !d.Equal(decimal.RequireFromString("1000.50")) {
		t.Errorf("CurrentBalance = %v, %v", d, ok)
	}
	if d, ok := sims[1].ProfitLoss.Decimal(); !ok || !d.Equal(decimal.RequireFromString("-12.5")) {
		t.Errorf("ProfitLoss = %v, %v", d, ok)
	}
	if sims[1].WinRate.Valid() || sims[1].SimulatedCash.Valid() {
		t.Error("null and missing amounts should be absent")
	}
}

func TestPlaceOrder(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req OrderRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Ticker != "MSFT" || req.DollarAmount != "250" || req.OrderType != "market" || req.Side != "buy" {
			t.Errorf("req = %+v", req)
		}
		w.Write([]byte(`{"order":{"id":"ord-1"}}`))
	})

	o, err := c.PlaceOrder(context.Background(), OrderRequest{Ticker: "MSFT", DollarAmount: "250", OrderType: "market", Side: "buy"})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if o.ID != "ord-1" {
		t.Errorf("ID = %q", o.ID)
	}
}

func TestMetricsValues(t *testing.T) {
	var m Metrics
	err := json.Unmarshal([]byte(`{
		"name": null,
		"stockName": "Apple Inc.",
		"marketCap": 2.9e12,
		"eps": "6.42",
		"sector": "Technology",
		"dividendYield": ""
	}`), &m)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m.Name.Valid() {
		t.Error("null name should be absent")
	}
	if m.DisplayName() != "Apple Inc." {
		t.Errorf("DisplayName = %q", m.DisplayName())
	}
	if f, ok := m.MarketCap.Float(); !ok || f != 2.9e12 {
		t.Errorf("MarketCap = %v, %v", f, ok)
	}
	if f, ok := m.EPS.Float(); !ok || f != 6.42 {
		t.Errorf("EPS = %v, %v", f, ok)
	}
	if _, ok := m.Sector.Float(); ok || m.Sector.String() != "Technology" {
		t.Errorf("Sector = %+v", m.Sector)
	}
	if m.DividendYield.Valid() || m.YearHigh.Valid() {
		t.Error("empty and missing values should be absent")
	}

	var none *Metrics
	if none.DisplayName() != "Unknown Stock" {
		t.Errorf("nil DisplayName = %q", none.DisplayName())
	}
}

func TestDateOpenedInvalid(t *testing.T) {
	var s Simulation
	if err := json.Unmarshal([]byte(`{"dateOpened":{"day":"3","month":9,"year":2024}}`), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s.DateOpened == nil || s.DateOpened.OK {
		t.Errorf("DateOpened = %+v, want not OK", s.DateOpened)
	}
}
