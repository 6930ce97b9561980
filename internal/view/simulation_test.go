package view

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wavecap/internal/broker"
	"wavecap/internal/store"
	"wavecap/pkg/wavecap"
)

func TestPortfolioMountOnce(t *testing.T) {
	api := &fakeAPI{portfolio: []wavecap.PortfolioEntry{{Symbol: "AAPL", Name: "Apple"}, {Symbol: "TSLA", Name: "Tesla"}}}
	p := NewPortfolio(api, testLog)

	run(p.Mount("u1"))
	assert.Nil(t, p.Mount("u1"))
	assert.Equal(t, []string{"portfolio u1"}, api.Calls())

	st := p.State()
	assert.Len(t, st.Data, 2)
	assert.Empty(t, st.Placeholder)
	assert.Equal(t, Intent{Kind: IntentSymbol, Symbol: "TSLA"}, p.Select(1))
	assert.Equal(t, Intent{}, p.Select(5))
}

func TestPortfolioEmptyPlaceholder(t *testing.T) {
	p := NewPortfolio(&fakeAPI{}, testLog)
	assert.Empty(t, p.State().Placeholder, "not shown before loading")
	run(p.Mount("u1"))
	assert.Equal(t, EmptyPortfolio, p.State().Placeholder)
}

func TestPortfolioFailure(t *testing.T) {
	p := NewPortfolio(&fakeAPI{portfolioErr: httpErr(500, "boom")}, testLog)
	run(p.Mount("u1"))
	st := p.State()
	assert.Contains(t, st.Err, "boom")
	assert.Empty(t, st.Placeholder)
}

var msftSim = wavecap.Simulation{
	ID:              "sim-1",
	Name:            "Test",
	StartingBalance: wavecap.Dec(decimal.NewFromInt(1000)),
	CurrentBalance:  wavecap.Dec(decimal.NewFromInt(1000)),
	StartingTicker:  "MSFT",
}

func TestSimulationsMount(t *testing.T) {
	api := &fakeAPI{sims: []wavecap.Simulation{msftSim}}
	s := NewSimulations(api, nil, testLog)
	f := s.Mount("u1")
	assert.True(t, s.State().Loading)
	run(f)
	st := s.State()
	assert.False(t, st.Loading)
	assert.Len(t, st.Sims, 1)

	failing := NewSimulations(&fakeAPI{simsErr: errors.New("offline")}, nil, testLog)
	run(failing.Mount("u1"))
	assert.Empty(t, failing.State().Sims)
}

func TestSimulationsCreate(t *testing.T) {
	created := msftSim
	api := &fakeAPI{created: &created}
	s := NewSimulations(api, nil, testLog)
	run(s.Mount("u1"))
	before := len(s.State().Sims)

	s.OpenForm()
	s.SetField(SimFieldName, "Test")
	s.SetField(SimFieldBalance, "1000")
	s.SetField(SimFieldTicker, "msft ")
	f := s.Create()
	require.NotNil(t, f)
	assert.True(t, s.State().Form.Submitting)
	run(f)

	st := s.State()
	require.Len(t, st.Sims, before+1)
	assert.Equal(t, created, st.Sims[len(st.Sims)-1])
	assert.Equal(t, SimForm{}, st.Form)

	assert.Equal(t, "u1", api.lastCreate.UID)
	assert.True(t, decimal.NewFromInt(1000).Equal(api.lastCreate.StartingBalance))
	assert.Equal(t, "msft ", api.lastCreate.StartingTicker)
}

func TestSimulationsCreateInvalidBalance(t *testing.T) {
	api := &fakeAPI{}
	s := NewSimulations(api, nil, testLog)
	s.OpenForm()
	s.SetField(SimFieldBalance, "lots")

	assert.Nil(t, s.Create())
	st := s.State()
	assert.True(t, st.Form.Open)
	assert.Equal(t, "Starting balance must be a number", st.Form.Err)
	assert.Empty(t, api.CallsWith("create"))
}

func TestSimulationsCreateFailureStaysOpen(t *testing.T) {
	api := &fakeAPI{createErr: httpErr(400, "ticker not found")}
	s := NewSimulations(api, nil, testLog)
	run(s.Mount("u1"))
	s.OpenForm()
	s.SetField(SimFieldName, "Bad")
	s.SetField(SimFieldBalance, "50")
	run(s.Create())

	st := s.State()
	assert.True(t, st.Form.Open)
	assert.False(t, st.Form.Submitting)
	assert.Equal(t, "Bad", st.Form.Name)
	assert.Equal(t, "Failed to create simulation: ticker not found", st.Form.Err)
	assert.Empty(t, st.Sims)
}

type stubBroker struct {
	id  string
	err error
	got []wavecap.OrderRequest
}

func (b *stubBroker) Name() string { return "stub" }

func (b *stubBroker) PlaceOrder(_ context.Context, req wavecap.OrderRequest) (string, error) {
	b.got = append(b.got, req)
	return b.id, b.err
}

type memJournal struct {
	store.NoopJournal
	entries []store.OrderEntry
}

func (j *memJournal) RecordOrder(_ context.Context, e *store.OrderEntry) error {
	j.entries = append(j.entries, *e)
	return nil
}

func TestSimulationsEnterSession(t *testing.T) {
	api := &fakeAPI{
		sims:   []wavecap.Simulation{msftSim},
		graphs: map[string]*wavecap.Graph{"MSFT": lineGraph(1, 2, 3)},
	}
	b := &stubBroker{id: "ord-1"}
	j := &memJournal{}
	factory := func(uid string, sim wavecap.Simulation) *Session {
		chart := NewChart(api, DefaultPalette, nil, nil, testLog)
		return NewSession(uid, sim, chart, b, j, nil, testLog)
	}
	s := NewSimulations(api, factory, testLog)
	run(s.Mount("u1"))

	assert.Nil(t, s.Enter(3))
	run(s.Enter(0))
	sess := s.State().Session
	require.NotNil(t, sess)
	assert.Equal(t, []string{"sims u1", "graph MSFT day"}, api.Calls(), "entering fetches only the chart")
	assert.NotNil(t, sess.Chart().State().Series)

	sess.SetAmount("250")
	sess.SetSide("sell")
	sess.SetSide("short")
	sess.SetOrderType("limit")
	run(sess.PlaceOrder())

	st := sess.State()
	assert.Equal(t, "Order placed successfully: ord-1", st.Message)
	assert.Equal(t, msftSim.CurrentBalance, st.Sim.CurrentBalance)
	require.Len(t, b.got, 1)
	assert.Equal(t, wavecap.OrderRequest{Ticker: "MSFT", DollarAmount: "250", OrderType: "limit", Side: "sell"}, b.got[0])

	require.Len(t, j.entries, 1)
	assert.Equal(t, "sim-1", j.entries[0].SimulationID)
	assert.Equal(t, "ord-1", j.entries[0].OrderID)
	assert.True(t, j.entries[0].OK)

	s.Back()
	assert.Nil(t, s.State().Session)
}

func TestSessionOrderRejected(t *testing.T) {
	b := &stubBroker{err: &broker.Rejection{Reason: "insufficient funds"}}
	notes := &recorder{}
	chart := NewChart(&fakeAPI{}, DefaultPalette, nil, nil, testLog)
	sess := NewSession("u1", msftSim, chart, b, nil, notes, testLog)

	assert.Equal(t, OrderForm{OrderType: "market", Side: "buy"}, sess.State().Form)
	run(sess.PlaceOrder())
	assert.Equal(t, "Error placing order: insufficient funds", sess.State().Message)
	assert.Equal(t, []string{"Error placing order: insufficient funds"}, notes.Texts())
}
