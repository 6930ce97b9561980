package view

import (
	"context"
	"log/slog"
	"sync"

	"wavecap/pkg/wavecap"
)

// GainerSource fetches the top-gainer summary.
type GainerSource interface {
	TopGainers(ctx context.Context) ([]wavecap.Gainer, error)
}

// Gainers is the dashboard's top-gainer summary.
type Gainers struct {
	mu    sync.Mutex
	api   GainerSource
	log   *slog.Logger
	state Sub[[]wavecap.Gainer]
	gen   generation
}

// NewGainers creates an empty summary.
func NewGainers(api GainerSource, log *slog.Logger) *Gainers {
	return &Gainers{api: api, log: log}
}

// Load fetches the summary.
func (g *Gainers) Load() Fetch {
	g.mu.Lock()
	defer g.mu.Unlock()
	seq := g.gen.advance()
	g.state.Loading = true

	return func(ctx context.Context) {
		guarded(ctx, &g.mu, &g.gen, seq,
			g.api.TopGainers,
			func(list []wavecap.Gainer, err error) {
				g.state.Loading = false
				if err != nil {
					g.log.Warn("top gainers failed", "error", err)
					g.state.Err = "Failed to load top gainers: " + wavecap.Message(err)
					g.state.Data = nil
					return
				}
				g.state.Err = ""
				g.state.Data = list
			})
	}
}

// State returns a snapshot.
func (g *Gainers) State() Sub[[]wavecap.Gainer] {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := g.state
	st.Data = append([]wavecap.Gainer(nil), g.state.Data...)
	return st
}
