package main

import (
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"wavecap/internal/format"
	"wavecap/internal/view"
	"wavecap/pkg/wavecap"
)

// terminalBG is the colour fills are blended against.
const terminalBG = "#000000"

var levels = []rune(" ▁▂▃▄▅▆▇█")

// termChart is a render target that rasterises a series into coloured
// terminal cells. Draw runs on fetch goroutines, Render on the UI loop.
type termChart struct {
	style   view.Style
	palette view.Palette

	mu       sync.Mutex
	series   *view.Series
	disposed bool
}

func chartFactory(p view.Palette) view.TargetFactory {
	return func(style view.Style) view.RenderTarget {
		return &termChart{style: style, palette: p}
	}
}

func (c *termChart) Draw(s *view.Series) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series = s
}

func (c *termChart) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series = nil
	c.disposed = true
}

// Render draws the series into width x height cells plus an axis line.
func (c *termChart) Render(width, height int) string {
	c.mu.Lock()
	s := c.series
	c.mu.Unlock()
	if s == nil || width < 8 || height < 2 {
		return ""
	}
	var body string
	var lo, hi float64
	switch c.style {
	case view.StyleCandle:
		candles := bucketCandles(s.Candles, width)
		if len(candles) == 0 {
			return dimStyle.Render("(no data)")
		}
		lo, hi = candleRange(candles)
		body = c.renderCandles(candles, lo, hi, height)
	default:
		points := resample(s.Points, width)
		if len(points) == 0 {
			return dimStyle.Render("(no data)")
		}
		lo, hi = pointRange(points)
		body = renderArea(s, points, lo, hi, height)
	}

	axis := dimStyle.Render(format.Price(lo) + " – " + format.Price(hi))
	if n := len(s.Labels); n > 0 {
		axis += dimStyle.Render("   " + s.Labels[0] + " → " + s.Labels[n-1])
	}
	return body + "\n" + axis
}

// renderArea draws a line as the top edge of a filled area. The edge uses
// the stroke colour; the fill fades from the top opacity to the bottom one.
func renderArea(s *view.Series, points []float64, lo, hi float64, height int) string {
	span := hi - lo
	stroke := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Stroke.Hex))
	steps := height * 8

	tops := make([]int, len(points))
	for i, v := range points {
		lvl := steps / 2
		if span > 0 {
			lvl = int(math.Round((v - lo) / span * float64(steps-1)))
		}
		tops[i] = lvl + 1
	}

	var b strings.Builder
	for row := height - 1; row >= 0; row-- {
		t := float64(row+1) / float64(height)
		alpha := s.Fill.Bottom.Alpha + (s.Fill.Top.Alpha-s.Fill.Bottom.Alpha)*t
		fill := lipgloss.NewStyle().Foreground(lipgloss.Color(blend(s.Fill.Top.Hex, alpha)))
		for _, top := range tops {
			base := row * 8
			switch {
			case top >= base+8:
				if top == base+8 {
					b.WriteString(stroke.Render(string(levels[8])))
				} else {
					b.WriteString(fill.Render(string(levels[8])))
				}
			case top > base:
				b.WriteString(stroke.Render(string(levels[top-base])))
			default:
				b.WriteByte(' ')
			}
		}
		if row > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (c *termChart) renderCandles(candles []wavecap.Candle, lo, hi float64, height int) string {
	up := lipgloss.NewStyle().Foreground(lipgloss.Color(c.palette.Positive))
	down := lipgloss.NewStyle().Foreground(lipgloss.Color(c.palette.Negative))
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for row := height - 1; row >= 0; row-- {
		rowLo := lo + span*float64(row)/float64(height)
		rowHi := lo + span*float64(row+1)/float64(height)
		for _, k := range candles {
			st := up
			if k.Close < k.Open {
				st = down
			}
			bodyLo, bodyHi := math.Min(k.Open, k.Close), math.Max(k.Open, k.Close)
			switch {
			case bodyHi >= rowLo && bodyLo <= rowHi:
				b.WriteString(st.Render("┃"))
			case k.High >= rowLo && k.Low <= rowHi:
				b.WriteString(st.Render("│"))
			default:
				b.WriteByte(' ')
			}
		}
		if row > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// blend mixes hex over the terminal background at alpha.
func blend(hex string, alpha float64) string {
	fg, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	bg, _ := colorful.Hex(terminalBG)
	return bg.BlendRgb(fg, alpha).Clamped().Hex()
}

// resample maps points onto at most width columns, averaging each bucket.
func resample(points []float64, width int) []float64 {
	if len(points) <= width {
		return points
	}
	out := make([]float64, width)
	for col := range out {
		from := col * len(points) / width
		to := (col + 1) * len(points) / width
		var sum float64
		for _, v := range points[from:to] {
			sum += v
		}
		out[col] = sum / float64(to-from)
	}
	return out
}

// bucketCandles merges candles so they fit in width columns.
func bucketCandles(candles []wavecap.Candle, width int) []wavecap.Candle {
	if len(candles) <= width {
		return candles
	}
	out := make([]wavecap.Candle, width)
	for col := range out {
		group := candles[col*len(candles)/width : (col+1)*len(candles)/width]
		k := group[0]
		for _, g := range group[1:] {
			k.High = math.Max(k.High, g.High)
			k.Low = math.Min(k.Low, g.Low)
			k.Close = g.Close
		}
		out[col] = k
	}
	return out
}

func pointRange(points []float64) (lo, hi float64) {
	lo, hi = points[0], points[0]
	for _, v := range points[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi
}

func candleRange(candles []wavecap.Candle) (lo, hi float64) {
	lo, hi = candles[0].Low, candles[0].High
	for _, k := range candles[1:] {
		lo, hi = math.Min(lo, k.Low), math.Max(hi, k.High)
	}
	return lo, hi
}
