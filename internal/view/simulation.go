package view

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"wavecap/internal/broker"
	"wavecap/internal/store"
	"wavecap/pkg/wavecap"
)

// SimulationAPI is the backend surface used by the simulation dashboard.
type SimulationAPI interface {
	FetchUserSims(ctx context.Context, uid string) ([]wavecap.Simulation, error)
	CreateSimulation(ctx context.Context, req wavecap.NewSimulation) (*wavecap.Simulation, error)
}

// SimField names a field of the creation form.
type SimField int

const (
	SimFieldName SimField = iota
	SimFieldBalance
	SimFieldTicker
)

// SimForm is the new-simulation form.
type SimForm struct {
	Open            bool
	Name            string
	StartingBalance string
	StartingTicker  string
	Submitting      bool
	Err             string
}

// SimulationsState is a snapshot of the dashboard.
type SimulationsState struct {
	Loading bool
	Sims    []wavecap.Simulation
	Form    SimForm
	Session *Session // non-nil while a simulation is open
}

// SessionFactory opens a trading session for a simulation.
type SessionFactory func(uid string, sim wavecap.Simulation) *Session

// Simulations lists a user's paper-trading simulations and creates new ones.
type Simulations struct {
	mu         sync.Mutex
	api        SimulationAPI
	log        *slog.Logger
	newSession SessionFactory

	uid     string
	mounted bool
	loading bool
	sims    []wavecap.Simulation
	form    SimForm
	session *Session
	gen     generation
}

// NewSimulations creates an unmounted dashboard.
func NewSimulations(api SimulationAPI, newSession SessionFactory, log *slog.Logger) *Simulations {
	return &Simulations{api: api, newSession: newSession, log: log}
}

// Mount loads the simulations of uid once. Failures are logged and leave
// the list empty.
func (s *Simulations) Mount(uid string) Fetch {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mounted && s.uid == uid {
		return nil
	}
	s.closeSessionLocked()
	s.uid, s.mounted = uid, true
	s.sims, s.form = nil, SimForm{}
	seq := s.gen.advance()
	s.loading = uid != ""
	if uid == "" {
		return nil
	}

	return func(ctx context.Context) {
		guarded(ctx, &s.mu, &s.gen, seq,
			func(ctx context.Context) ([]wavecap.Simulation, error) {
				return s.api.FetchUserSims(ctx, uid)
			},
			func(sims []wavecap.Simulation, err error) {
				s.loading = false
				if err != nil {
					s.log.Error("fetching simulations", "uid", uid, "error", err)
					return
				}
				s.sims = sims
			})
	}
}

// Unmount forgets the user.
func (s *Simulations) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeSessionLocked()
	s.gen.advance()
	s.uid, s.mounted, s.loading = "", false, false
	s.sims, s.form = nil, SimForm{}
}

// OpenForm shows an empty creation form.
func (s *Simulations) OpenForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.form.Open {
		s.form = SimForm{Open: true}
	}
}

// CancelForm clears and closes the form.
func (s *Simulations) CancelForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = SimForm{}
}

// SetField updates one form field.
func (s *Simulations) SetField(f SimField, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch f {
	case SimFieldName:
		s.form.Name = v
	case SimFieldBalance:
		s.form.StartingBalance = v
	case SimFieldTicker:
		s.form.StartingTicker = v
	}
}

// Create submits the form. The balance must parse as a number; the name and
// ticker are sent as typed. On success the returned record is appended and the
// form cleared and closed; on failure the form stays open with the error.
func (s *Simulations) Create() Fetch {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.form.Open || s.form.Submitting {
		return nil
	}
	balance, err := decimal.NewFromString(strings.TrimSpace(s.form.StartingBalance))
	if err != nil {
		s.form.Err = "Starting balance must be a number"
		return nil
	}
	s.form.Err = ""
	s.form.Submitting = true
	seq := s.gen.seq
	req := wavecap.NewSimulation{
		UID:             s.uid,
		Name:            s.form.Name,
		StartingBalance: balance,
		StartingTicker:  s.form.StartingTicker,
	}

	return func(ctx context.Context) {
		sim, err := s.api.CreateSimulation(ctx, req)

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.gen.current(seq) {
			return
		}
		s.form.Submitting = false
		if err != nil {
			s.log.Error("creating simulation", "uid", req.UID, "name", req.Name, "error", err)
			s.form.Err = "Failed to create simulation: " + wavecap.Message(err)
			return
		}
		s.sims = append(s.sims, *sim)
		s.form = SimForm{}
	}
}

// Enter opens simulation i in a trading session. The held record is used
// as-is; only the session's chart loads data.
func (s *Simulations) Enter(i int) Fetch {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.sims) || s.newSession == nil {
		return nil
	}
	s.closeSessionLocked()
	s.session = s.newSession(s.uid, s.sims[i])
	return s.session.Open()
}

// Back closes the open session and returns to the list.
func (s *Simulations) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeSessionLocked()
}

func (s *Simulations) closeSessionLocked() {
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
}

// State returns a snapshot.
func (s *Simulations) State() SimulationsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SimulationsState{
		Loading: s.loading,
		Sims:    append([]wavecap.Simulation(nil), s.sims...),
		Form:    s.form,
		Session: s.session,
	}
}

// ---------------------------------------------------------------------------
// Trading session
// ---------------------------------------------------------------------------

// OrderForm is the order entry form of a session.
type OrderForm struct {
	DollarAmount string
	OrderType    string // "market" or "limit"
	Side         string // "buy" or "sell"
}

// SessionState is a snapshot of a trading session.
type SessionState struct {
	Sim     wavecap.Simulation
	Form    OrderForm
	Placing bool
	Message string // result of the last order, shown verbatim
}

// Session shows one simulation: a chart of its starting ticker and an order
// form. Balances shown are those loaded with the dashboard; placing orders
// never changes them locally.
type Session struct {
	mu      sync.Mutex
	uid     string
	sim     wavecap.Simulation
	chart   *Chart
	broker  broker.Broker
	journal store.OrderJournal
	notify  Notifier
	log     *slog.Logger
	form    OrderForm
	placing bool
	message string
}

// NewSession creates a session for sim. journal may be nil.
func NewSession(uid string, sim wavecap.Simulation, chart *Chart, b broker.Broker,
	journal store.OrderJournal, notify Notifier, log *slog.Logger) *Session {
	if journal == nil {
		journal = store.NoopJournal{}
	}
	if notify == nil {
		notify = discardNotifier{}
	}
	return &Session{
		uid:     uid,
		sim:     sim,
		chart:   chart,
		broker:  b,
		journal: journal,
		notify:  notify,
		log:     log,
		form:    OrderForm{OrderType: "market", Side: "buy"},
	}
}

// Open loads the chart for the starting ticker.
func (s *Session) Open() Fetch {
	return s.chart.SetSymbol(s.sim.StartingTicker)
}

// Close releases the chart.
func (s *Session) Close() {
	s.chart.Close()
}

// Chart returns the session chart.
func (s *Session) Chart() *Chart { return s.chart }

// SetAmount sets the dollar amount as typed.
func (s *Session) SetAmount(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.DollarAmount = v
}

// SetOrderType selects "market" or "limit". Other values are ignored.
func (s *Session) SetOrderType(t string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t == "market" || t == "limit" {
		s.form.OrderType = t
	}
}

// SetSide selects "buy" or "sell". Other values are ignored.
func (s *Session) SetSide(side string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if side == "buy" || side == "sell" {
		s.form.Side = side
	}
}

// PlaceOrder submits the form through the broker. The outcome replaces the
// session message and is appended to the journal.
func (s *Session) PlaceOrder() Fetch {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.placing {
		return nil
	}
	s.placing = true
	req := wavecap.OrderRequest{
		Ticker:       s.sim.StartingTicker,
		DollarAmount: s.form.DollarAmount,
		OrderType:    s.form.OrderType,
		Side:         s.form.Side,
	}

	return func(ctx context.Context) {
		id, err := s.broker.PlaceOrder(ctx, req)
		text := broker.ResultText(id, err)

		s.mu.Lock()
		s.placing = false
		s.message = text
		s.mu.Unlock()

		if err != nil {
			s.log.Warn("order failed", "ticker", req.Ticker, "broker", s.broker.Name(), "error", err)
			s.notify.Notify(LevelError, text)
		} else {
			s.log.Info("order placed", "ticker", req.Ticker, "broker", s.broker.Name(), "order_id", id)
		}

		entry := &store.OrderEntry{
			UID:          s.uid,
			SimulationID: string(s.sim.ID),
			Broker:       s.broker.Name(),
			Ticker:       req.Ticker,
			DollarAmount: req.DollarAmount,
			OrderType:    req.OrderType,
			Side:         req.Side,
			OrderID:      id,
			Result:       text,
			OK:           err == nil,
		}
		if jerr := s.journal.RecordOrder(ctx, entry); jerr != nil {
			s.log.Warn("journal write failed", "error", jerr)
		}
	}
}

// State returns a snapshot.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{Sim: s.sim, Form: s.form, Placing: s.placing, Message: s.message}
}
