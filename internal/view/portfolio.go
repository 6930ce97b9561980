package view

import (
	"context"
	"log/slog"
	"sync"

	"wavecap/pkg/wavecap"
)

// EmptyPortfolio is shown in place of an empty saved list.
const EmptyPortfolio = "Nothing here....yet"

// PortfolioLister fetches a user's saved symbols.
type PortfolioLister interface {
	Portfolio(ctx context.Context, uid string) ([]wavecap.PortfolioEntry, error)
}

// PortfolioState is a snapshot of the saved-symbols panel.
type PortfolioState struct {
	Sub[[]wavecap.PortfolioEntry]
	Placeholder string // set when the loaded list is empty
}

// Portfolio lists the signed-in user's saved symbols. The list is loaded once
// per uid and is not refreshed when symbols are saved or removed elsewhere.
type Portfolio struct {
	mu      sync.Mutex
	api     PortfolioLister
	log     *slog.Logger
	uid     string
	mounted bool
	loaded  bool
	state   Sub[[]wavecap.PortfolioEntry]
	gen     generation
}

// NewPortfolio creates an unmounted panel.
func NewPortfolio(api PortfolioLister, log *slog.Logger) *Portfolio {
	return &Portfolio{api: api, log: log}
}

// Mount loads the list for uid. Mounting again for the same uid is a no-op.
func (p *Portfolio) Mount(uid string) Fetch {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mounted && p.uid == uid {
		return nil
	}
	p.uid, p.mounted, p.loaded = uid, true, false
	p.state = Sub[[]wavecap.PortfolioEntry]{Loading: uid != ""}
	seq := p.gen.advance()
	if uid == "" {
		return nil
	}

	return func(ctx context.Context) {
		guarded(ctx, &p.mu, &p.gen, seq,
			func(ctx context.Context) ([]wavecap.PortfolioEntry, error) {
				return p.api.Portfolio(ctx, uid)
			},
			func(entries []wavecap.PortfolioEntry, err error) {
				p.state.Loading = false
				p.loaded = true
				if err != nil {
					p.state.Err = "Failed to load portfolio: " + wavecap.Message(err)
					p.log.Warn("portfolio load failed", "uid", uid, "error", err)
					return
				}
				p.state.Data = entries
			})
	}
}

// Unmount forgets the user, e.g. after logout.
func (p *Portfolio) Unmount() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen.advance()
	p.uid, p.mounted, p.loaded = "", false, false
	p.state = Sub[[]wavecap.PortfolioEntry]{}
}

// Select emits the navigation intent for entry i.
func (p *Portfolio) Select(i int) Intent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.state.Data) {
		return Intent{}
	}
	return Intent{Kind: IntentSymbol, Symbol: p.state.Data[i].Symbol}
}

// State returns a snapshot.
func (p *Portfolio) State() PortfolioState {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := PortfolioState{Sub: p.state}
	st.Data = append([]wavecap.PortfolioEntry(nil), p.state.Data...)
	if p.loaded && p.state.Err == "" && len(p.state.Data) == 0 {
		st.Placeholder = EmptyPortfolio
	}
	return st
}
