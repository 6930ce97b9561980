package view

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"wavecap/internal/news"
	"wavecap/pkg/wavecap"
)

// DetailAPI is the backend surface used by the stock detail view.
type DetailAPI interface {
	StockMetrics(ctx context.Context, symbol string) (*wavecap.Metrics, error)
	IsSaved(ctx context.Context, uid, symbol string) (bool, error)
	News(ctx context.Context, company string) ([]wavecap.Article, error)
	SaveStock(ctx context.Context, uid, symbol, name string) error
	RemoveStock(ctx context.Context, uid, symbol, name string) error
}

// DetailState is a snapshot of the stock detail view.
type DetailState struct {
	Symbol   string
	Metrics  Sub[*wavecap.Metrics]
	Saved    Sub[bool]
	News     Sub[[]news.Headline]
	Toggling bool
}

// CanToggle reports whether the save button accepts a press.
func (s DetailState) CanToggle() bool {
	return s.Symbol != "" && !s.Saved.Loading && !s.Toggling
}

// Detail coordinates the metrics, saved status and news of one symbol.
type Detail struct {
	mu     sync.Mutex
	api    DetailAPI
	notify Notifier
	log    *slog.Logger

	uid      string
	symbol   string
	metrics  Sub[*wavecap.Metrics]
	saved    Sub[bool]
	news     Sub[[]news.Headline]
	toggling bool
	gen      generation
}

// NewDetail creates an empty detail view.
func NewDetail(api DetailAPI, notify Notifier, log *slog.Logger) *Detail {
	if notify == nil {
		notify = discardNotifier{}
	}
	return &Detail{api: api, notify: notify, log: log}
}

// SetUID sets the user the saved status is looked up for.
func (d *Detail) SetUID(uid string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.uid = uid
}

// SetSymbol switches to symbol and returns a Fetch that loads metrics, saved
// status and news concurrently. Each lands in its own sub-state; none waits
// for or cancels another.
func (d *Detail) SetSymbol(symbol string) Fetch {
	d.mu.Lock()
	defer d.mu.Unlock()

	seq := d.gen.advance()
	d.symbol = symbol
	d.toggling = false
	d.metrics = Sub[*wavecap.Metrics]{Loading: true}
	d.saved = Sub[bool]{Loading: true}
	d.news = Sub[[]news.Headline]{Loading: true}
	uid := d.uid
	if symbol == "" {
		d.metrics.Loading, d.saved.Loading, d.news.Loading = false, false, false
		return nil
	}

	return func(ctx context.Context) {
		d.mu.Lock()
		ctx, cancel, ok := d.gen.bind(ctx, seq)
		d.mu.Unlock()
		if !ok {
			return
		}
		defer cancel()

		var g errgroup.Group
		g.Go(func() error {
			m, err := d.api.StockMetrics(ctx, symbol)
			d.apply(seq, func() {
				d.metrics.Loading = false
				if err != nil {
					d.metrics.Err = "Failed to load stock data: " + wavecap.Message(err)
					d.log.Warn("metrics load failed", "symbol", symbol, "error", err)
					d.notify.Notify(LevelError, d.metrics.Err)
					return
				}
				d.metrics.Data = m
			})
			return nil
		})
		g.Go(func() error {
			if uid == "" {
				d.apply(seq, func() {
					d.saved.Loading = false
					d.saved.Err = "Sign in to save stocks"
				})
				return nil
			}
			saved, err := d.api.IsSaved(ctx, uid, symbol)
			d.apply(seq, func() {
				d.saved.Loading = false
				if err != nil {
					d.saved.Err = "Failed to check saved status: " + wavecap.Message(err)
					d.log.Warn("saved status failed", "symbol", symbol, "uid", uid, "error", err)
					return
				}
				d.saved.Data = saved
			})
			return nil
		})
		g.Go(func() error {
			articles, err := d.api.News(ctx, symbol)
			d.apply(seq, func() {
				d.news.Loading = false
				if err != nil {
					d.news.Err = "Failed to load news: " + wavecap.Message(err)
					d.log.Warn("news load failed", "symbol", symbol, "error", err)
					d.notify.Notify(LevelError, d.news.Err)
					return
				}
				d.news.Data = news.Normalize(articles)
			})
			return nil
		})
		_ = g.Wait()
	}
}

// apply runs fn under the lock if seq is still the current symbol.
func (d *Detail) apply(seq uint64, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gen.current(seq) {
		fn()
	}
}

// ToggleSave removes the symbol from the portfolio if it is saved and adds
// it otherwise. The local flag flips only after the backend acknowledges.
// Returns nil while the saved status is loading or a toggle is in flight.
func (d *Detail) ToggleSave() Fetch {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.symbol == "" || d.saved.Loading || d.toggling {
		return nil
	}
	if d.uid == "" {
		d.notify.Notify(LevelError, "Sign in to save stocks")
		return nil
	}
	d.toggling = true
	seq := d.gen.seq
	uid, symbol := d.uid, d.symbol
	wasSaved := d.saved.Data
	name := d.metrics.Data.DisplayName()

	return func(ctx context.Context) {
		var err error
		if wasSaved {
			err = d.api.RemoveStock(ctx, uid, symbol, name)
		} else {
			err = d.api.SaveStock(ctx, uid, symbol, name)
		}

		d.mu.Lock()
		defer d.mu.Unlock()
		if !d.gen.current(seq) {
			return
		}
		d.toggling = false
		if err != nil {
			action := "save"
			if wasSaved {
				action = "remove"
			}
			d.log.Warn("portfolio toggle failed", "symbol", symbol, "action", action, "error", err)
			d.notify.Notify(LevelError, "Failed to "+action+" "+symbol+": "+wavecap.Message(err))
			return
		}
		d.saved.Data = !wasSaved
		d.saved.Err = ""
		d.log.Info("portfolio toggled", "symbol", symbol, "saved", !wasSaved)
	}
}

// State returns a snapshot.
func (d *Detail) State() DetailState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DetailState{
		Symbol:   d.symbol,
		Metrics:  d.metrics,
		Saved:    d.saved,
		News:     d.news,
		Toggling: d.toggling,
	}
}
