// Package store persists client-side records: a journal of paper orders the
// user submitted and snapshots of fetched price series.
package store

import (
	"context"
	"time"

	"wavecap/pkg/wavecap"
)

// OrderEntry is one order attempt as seen by the client.
type OrderEntry struct {
	ID           int64
	Time         time.Time
	UID          string
	SimulationID string
	Broker       string
	Ticker       string
	DollarAmount string
	OrderType    string
	Side         string
	OrderID      string // empty when the attempt failed
	Result       string // text shown to the user
	OK           bool
}

// OrderJournal records order attempts locally.
type OrderJournal interface {
	// RecordOrder appends entry. ID and a zero Time are filled in.
	RecordOrder(ctx context.Context, entry *OrderEntry) error

	// RecentOrders returns up to limit entries, newest first.
	RecentOrders(ctx context.Context, limit int) ([]OrderEntry, error)

	Close() error
}

// SeriesPoint is one point of a price series. Open/High/Low are zero for
// line-only series.
type SeriesPoint struct {
	Label string
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// SeriesStore keeps the latest snapshot of a symbol's series per interval.
type SeriesStore interface {
	// WriteSeries replaces the snapshot for (symbol, interval).
	WriteSeries(ctx context.Context, symbol, interval string, points []SeriesPoint) error

	// ReadSeries returns the snapshot for (symbol, interval).
	ReadSeries(ctx context.Context, symbol, interval string) ([]SeriesPoint, error)
}

// SeriesFromGraph converts a graph payload into series points. OHLC values
// are taken from the candle at the same index when one exists.
func SeriesFromGraph(g *wavecap.Graph) []SeriesPoint {
	if g == nil {
		return nil
	}
	n := len(g.Labels)
	if len(g.Data) < n {
		n = len(g.Data)
	}
	points := make([]SeriesPoint, n)
	for i := 0; i < n; i++ {
		p := SeriesPoint{Label: string(g.Labels[i]), Close: g.Data[i]}
		if i < len(g.CandleData) {
			c := g.CandleData[i]
			p.Open, p.High, p.Low = c.Open, c.High, c.Low
		}
		points[i] = p
	}
	return points
}
