package view

import (
	"log/slog"
	"strings"
	"sync"
)

// Screen is the main area's branch.
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenStockDetail
	ScreenEmpty
)

func (s Screen) String() string {
	switch s {
	case ScreenDashboard:
		return "dashboard"
	case ScreenStockDetail:
		return "detail"
	default:
		return "empty"
	}
}

// View is the shell's navigation state. Symbol is set only on
// ScreenStockDetail, so the dashboard and a stock can never show together.
type View struct {
	Screen Screen
	Symbol string
}

// Shell composes the components and routes navigation intents between them.
type Shell struct {
	Search      *Search
	Portfolio   *Portfolio
	Detail      *Detail
	Chart       *Chart
	Simulations *Simulations
	Gainers     *Gainers
	Chat        *Chat
	Auth        *Auth

	log  *slog.Logger
	mu   sync.Mutex
	view View
}

// NewShell wires the components. The initial view is the dashboard.
func NewShell(search *Search, portfolio *Portfolio, detail *Detail, chart *Chart,
	sims *Simulations, gainers *Gainers, chat *Chat, auth *Auth, log *slog.Logger) *Shell {
	return &Shell{
		Search:      search,
		Portfolio:   portfolio,
		Detail:      detail,
		Chart:       chart,
		Simulations: sims,
		Gainers:     gainers,
		Chat:        chat,
		Auth:        auth,
		log:         log,
		view:        View{Screen: ScreenDashboard},
	}
}

// Mount starts the per-user loads for uid.
func (s *Shell) Mount(uid string) []Fetch {
	s.Detail.SetUID(uid)
	return Batch(
		s.Portfolio.Mount(uid),
		s.Simulations.Mount(uid),
		s.Gainers.Load(),
	)
}

// Unmount drops the per-user state and returns to the dashboard.
func (s *Shell) Unmount() {
	s.Detail.SetUID("")
	s.Portfolio.Unmount()
	s.Simulations.Unmount()
	s.mu.Lock()
	s.view = View{Screen: ScreenDashboard}
	s.mu.Unlock()
}

// Submit acts on the search box contents.
func (s *Shell) Submit() []Fetch {
	return s.Navigate(s.Search.OnSubmit())
}

// PickSuggestion acts as if symbol had been typed and submitted.
func (s *Shell) PickSuggestion(symbol string) []Fetch {
	return s.Navigate(s.Search.OnSuggestionPick(symbol))
}

// PickPortfolio opens saved entry i.
func (s *Shell) PickPortfolio(i int) []Fetch {
	return s.Navigate(s.Portfolio.Select(i))
}

// GoDashboard is the dashboard nav action.
func (s *Shell) GoDashboard() []Fetch {
	return s.Navigate(Intent{Kind: IntentDashboard})
}

// Navigate applies intent. Opening a symbol starts the detail and chart
// loads; an intent with a blank symbol lands on the empty screen.
func (s *Shell) Navigate(in Intent) []Fetch {
	switch in.Kind {
	case IntentDashboard:
		s.setView(View{Screen: ScreenDashboard})
		return nil
	case IntentSymbol:
		symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
		if symbol == "" {
			s.setView(View{Screen: ScreenEmpty})
			return nil
		}
		s.setView(View{Screen: ScreenStockDetail, Symbol: symbol})
		return Batch(s.Detail.SetSymbol(symbol), s.Chart.SetSymbol(symbol))
	}
	return nil
}

func (s *Shell) setView(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v != s.view {
		s.log.Debug("navigate", "screen", v.Screen.String(), "symbol", v.Symbol)
	}
	s.view = v
}

// View returns the current navigation state.
func (s *Shell) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}
