package view

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"wavecap/pkg/wavecap"
)

// Style is the chart rendering mode.
type Style string

const (
	StyleLine   Style = "line"
	StyleCandle Style = "candle"
)

// Trend is the direction of a series from its first to its last value.
type Trend int

const (
	TrendUp Trend = iota // last >= first, including flat series
	TrendDown
)

// Color is a hex colour with an opacity in [0, 1].
type Color struct {
	Hex   string
	Alpha float64
}

// Gradient is the area fill under a line: Top sits at the line, Bottom at
// the baseline.
type Gradient struct {
	Top    Color
	Bottom Color
}

// Palette holds the trend colours.
type Palette struct {
	Positive    string
	Negative    string
	FillOpacity float64
}

// DefaultPalette is green for up and red for down.
var DefaultPalette = Palette{Positive: "#22c55e", Negative: "#ef4444", FillOpacity: 0.35}

// Series is a plot-ready price series. For StyleLine, Labels and Points are
// index-aligned; for StyleCandle, Labels and Candles are.
type Series struct {
	Style   Style
	Labels  []string
	Points  []float64
	Candles []wavecap.Candle
	Trend   Trend
	Stroke  Color
	Fill    Gradient
}

// TrendOf reports the direction of values. An empty series counts as up.
func TrendOf(values []float64) Trend {
	if len(values) == 0 || values[len(values)-1] >= values[0] {
		return TrendUp
	}
	return TrendDown
}

// Colors derives the stroke and fill for trend.
func (p Palette) Colors(t Trend) (Color, Gradient) {
	hex := p.Positive
	if t == TrendDown {
		hex = p.Negative
	}
	stroke := Color{Hex: hex, Alpha: 1}
	return stroke, Gradient{
		Top:    Color{Hex: hex, Alpha: p.FillOpacity},
		Bottom: Color{Hex: hex, Alpha: 0},
	}
}

// BuildSeries turns a graph payload into a series for style.
func BuildSeries(g *wavecap.Graph, style Style, p Palette) (*Series, error) {
	if g == nil {
		return nil, fmt.Errorf("chart data missing")
	}
	s := &Series{Style: style}
	switch style {
	case StyleCandle:
		closes := make([]float64, len(g.CandleData))
		s.Labels = make([]string, len(g.CandleData))
		for i, c := range g.CandleData {
			s.Labels[i] = string(c.Timestamp)
			closes[i] = c.Close
		}
		s.Candles = append(s.Candles, g.CandleData...)
		s.Trend = TrendOf(closes)
	default:
		if len(g.Labels) != len(g.Data) {
			return nil, fmt.Errorf("chart data misaligned: %d labels for %d points", len(g.Labels), len(g.Data))
		}
		s.Style = StyleLine
		s.Labels = make([]string, len(g.Labels))
		for i, l := range g.Labels {
			s.Labels[i] = string(l)
		}
		s.Points = append(s.Points, g.Data...)
		s.Trend = TrendOf(s.Points)
	}
	s.Stroke, s.Fill = p.Colors(s.Trend)
	return s, nil
}

// RenderTarget draws series of one style. Line and candlestick plots are
// structurally different, so a target is never reused across styles.
type RenderTarget interface {
	Draw(s *Series)
	Dispose()
}

// TargetFactory creates a render target for style.
type TargetFactory func(style Style) RenderTarget

// GraphSource fetches price series.
type GraphSource interface {
	StockGraph(ctx context.Context, symbol string, interval wavecap.Interval) (*wavecap.Graph, error)
}

// ChartState is a snapshot of a chart.
type ChartState struct {
	Symbol   string
	Interval wavecap.Interval
	Style    Style
	Loading  bool
	Err      string
	Series   *Series
}

// Chart selects and loads the price series for one symbol.
type Chart struct {
	mu       sync.Mutex
	api      GraphSource
	palette  Palette
	factory  TargetFactory
	notify   Notifier
	log      *slog.Logger
	symbol   string
	interval wavecap.Interval
	style    Style
	loading  bool
	err      string
	series   *Series
	gen      generation

	target      RenderTarget
	targetStyle Style
}

// NewChart creates a chart with the default day/line selection. factory
// may be nil when nothing is drawn.
func NewChart(api GraphSource, p Palette, factory TargetFactory, notify Notifier, log *slog.Logger) *Chart {
	if notify == nil {
		notify = discardNotifier{}
	}
	return &Chart{
		api:      api,
		palette:  p,
		factory:  factory,
		notify:   notify,
		log:      log,
		interval: wavecap.IntervalDay,
		style:    StyleLine,
	}
}

// SetSymbol switches to symbol, dropping any previous data, and loads it.
func (c *Chart) SetSymbol(symbol string) Fetch {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.symbol = symbol
	c.series = nil
	c.err = ""
	return c.loadLocked()
}

// SetInterval changes the interval and reloads. No-op if unchanged.
func (c *Chart) SetInterval(iv wavecap.Interval) Fetch {
	c.mu.Lock()
	defer c.mu.Unlock()
	if iv == c.interval {
		return nil
	}
	c.interval = iv
	return c.loadLocked()
}

// SetStyle changes the style and reloads the full series. No-op if
// unchanged.
func (c *Chart) SetStyle(st Style) Fetch {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st == c.style {
		return nil
	}
	c.style = st
	return c.loadLocked()
}

// Reload fetches the current selection again.
func (c *Chart) Reload() Fetch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked()
}

func (c *Chart) loadLocked() Fetch {
	seq := c.gen.advance()
	if c.symbol == "" {
		c.loading = false
		return nil
	}
	c.loading = true
	symbol, interval, style := c.symbol, c.interval, c.style

	return func(ctx context.Context) {
		guarded(ctx, &c.mu, &c.gen, seq,
			func(ctx context.Context) (*wavecap.Graph, error) {
				return c.api.StockGraph(ctx, symbol, interval)
			},
			func(g *wavecap.Graph, err error) {
				c.loading = false
				var s *Series
				if err == nil {
					s, err = BuildSeries(g, style, c.palette)
				}
				if err != nil {
					// Prior data stays on screen.
					c.err = "Failed to load chart: " + wavecap.Message(err)
					c.log.Warn("chart load failed", "symbol", symbol, "interval", interval, "style", style, "error", err)
					c.notify.Notify(LevelError, fmt.Sprintf("%s chart: %s", symbol, wavecap.Message(err)))
					return
				}
				c.err = ""
				c.series = s
				c.drawLocked(s)
			})
	}
}

// drawLocked disposes the mounted target when its style no longer matches,
// then draws s on a target of the right style.
func (c *Chart) drawLocked(s *Series) {
	if c.factory == nil {
		return
	}
	if c.target != nil && c.targetStyle != s.Style {
		c.target.Dispose()
		c.target = nil
	}
	if c.target == nil {
		c.target = c.factory(s.Style)
		c.targetStyle = s.Style
	}
	c.target.Draw(s)
}

// Close cancels any load in flight and disposes the mounted target.
func (c *Chart) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen.advance()
	c.loading = false
	if c.target != nil {
		c.target.Dispose()
		c.target = nil
	}
}

// Target returns the mounted render target, or nil.
func (c *Chart) Target() RenderTarget {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// State returns a snapshot.
func (c *Chart) State() ChartState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ChartState{
		Symbol:   c.symbol,
		Interval: c.interval,
		Style:    c.style,
		Loading:  c.loading,
		Err:      c.err,
		Series:   c.series,
	}
}
