// Package view holds the client's view state. Each component is a small
// coordinator over the WaveCap API: a state change happens synchronously on
// the caller's goroutine and, when it needs data, returns a Fetch that the
// caller runs in the background. Results are folded back only while they are
// still current, so the latest request always wins.
package view

import (
	"context"
	"sync"
	"time"
)

// Fetch performs the network half of a state change. It is safe to run on
// any goroutine and returns once its result has been applied or discarded.
type Fetch func(ctx context.Context)

// Batch drops nil fetches.
func Batch(fs ...Fetch) []Fetch {
	var out []Fetch
	for _, f := range fs {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}

// IntentKind is a navigation request emitted by a component.
type IntentKind int

const (
	IntentNone IntentKind = iota
	IntentDashboard
	IntentSymbol
)

// Intent asks the shell to navigate. Symbol is set for IntentSymbol.
type Intent struct {
	Kind   IntentKind
	Symbol string
}

// Sub is one independently loaded piece of view state.
type Sub[T any] struct {
	Loading bool
	Err     string
	Data    T
}

// ---------------------------------------------------------------------------
// Latest-wins guard
// ---------------------------------------------------------------------------

// generation tags requests so that only the newest one is applied. Every
// method must be called with the owning component's mutex held.
type generation struct {
	seq    uint64
	cancel context.CancelFunc
}

// advance invalidates the current request, cancelling it if it has started.
func (g *generation) advance() uint64 {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.seq++
	return g.seq
}

func (g *generation) current(seq uint64) bool { return seq == g.seq }

// bind derives the request context for seq. ok is false if seq is stale.
func (g *generation) bind(ctx context.Context, seq uint64) (context.Context, context.CancelFunc, bool) {
	if seq != g.seq {
		return nil, nil, false
	}
	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	return ctx, cancel, true
}

// guarded runs call for generation seq and hands its result to apply, with
// mu held, only if seq is still current when call returns.
func guarded[T any](ctx context.Context, mu *sync.Mutex, g *generation, seq uint64,
	call func(context.Context) (T, error), apply func(T, error)) {
	mu.Lock()
	ctx, cancel, ok := g.bind(ctx, seq)
	mu.Unlock()
	if !ok {
		return
	}
	defer cancel()

	v, err := call(ctx)

	mu.Lock()
	defer mu.Unlock()
	if g.current(seq) {
		apply(v, err)
	}
}

// ---------------------------------------------------------------------------
// Notifications
// ---------------------------------------------------------------------------

// Level grades a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notifier presents user-facing notices. Every component routes its
// user-visible failures through one Notifier so they look the same.
type Notifier interface {
	Notify(level Level, text string)
}

// Notice is the last message shown on a Banner.
type Notice struct {
	Level Level
	Text  string
	At    time.Time
}

// Banner is a Notifier that keeps the most recent notice.
type Banner struct {
	mu     sync.Mutex
	notice Notice
	now    func() time.Time
}

// NewBanner creates an empty Banner.
func NewBanner() *Banner {
	return &Banner{now: time.Now}
}

// Notify replaces the current notice.
func (b *Banner) Notify(level Level, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = Notice{Level: level, Text: text, At: b.now()}
}

// Current returns the notice if one is set and younger than ttl. A zero
// ttl never expires.
func (b *Banner) Current(ttl time.Duration) (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.notice.Text == "" {
		return Notice{}, false
	}
	if ttl > 0 && b.now().Sub(b.notice.At) > ttl {
		return Notice{}, false
	}
	return b.notice, true
}

// Dismiss clears the current notice.
func (b *Banner) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = Notice{}
}

type discardNotifier struct{}

func (discardNotifier) Notify(Level, string) {}
