package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Compile-time interface check.
var _ SeriesStore = (*ParquetStore)(nil)

// ParquetStore implements SeriesStore using Parquet files on disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// SeriesRecord is the Parquet schema for a series point.
type SeriesRecord struct {
	Symbol   string  `parquet:"symbol"`
	Interval string  `parquet:"interval"`
	Seq      int64   `parquet:"seq"`
	Label    string  `parquet:"label"`
	Open     float64 `parquet:"open"`
	High     float64 `parquet:"high"`
	Low      float64 `parquet:"low"`
	Close    float64 `parquet:"close"`
}

// WriteSeries replaces the snapshot file for (symbol, interval) at:
//
//	<DataDir>/<interval>/<SYMBOL>.parquet
func (s *ParquetStore) WriteSeries(_ context.Context, symbol, interval string, points []SeriesPoint) error {
	if err := WriteSeriesFile(s.seriesPath(symbol, interval), symbol, interval, points); err != nil {
		return fmt.Errorf("writing series for %s/%s: %w", symbol, interval, err)
	}
	return nil
}

// ReadSeries reads the snapshot for (symbol, interval).
func (s *ParquetStore) ReadSeries(_ context.Context, symbol, interval string) ([]SeriesPoint, error) {
	return ReadSeriesFile(s.seriesPath(symbol, interval))
}

// ListSymbols lists symbols with a snapshot for interval.
func (s *ParquetStore) ListSymbols(_ context.Context, interval string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.DataDir, interval))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var symbols []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".parquet"); ok && !e.IsDir() {
			symbols = append(symbols, name)
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (s *ParquetStore) seriesPath(symbol, interval string) string {
	return filepath.Join(s.DataDir, interval, strings.ToUpper(symbol)+".parquet")
}

// WriteSeriesFile writes points to a single Parquet file at path.
func WriteSeriesFile(path, symbol, interval string, points []SeriesPoint) error {
	records := make([]SeriesRecord, len(points))
	for i, p := range points {
		records[i] = SeriesRecord{
			Symbol:   strings.ToUpper(symbol),
			Interval: interval,
			Seq:      int64(i),
			Label:    p.Label,
			Open:     p.Open,
			High:     p.High,
			Low:      p.Low,
			Close:    p.Close,
		}
	}
	return writeParquetFile(path, records)
}

// ReadSeriesFile reads a file written by WriteSeriesFile, in series order.
func ReadSeriesFile(path string) ([]SeriesPoint, error) {
	records, err := readParquetFile[SeriesRecord](path)
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	points := make([]SeriesPoint, len(records))
	for i, r := range records {
		points[i] = SeriesPoint{Label: r.Label, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close}
	}
	return points, nil
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}
