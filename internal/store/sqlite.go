package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ OrderJournal = (*SQLiteJournal)(nil)
var _ OrderJournal = NoopJournal{}

// SQLiteJournal implements OrderJournal backed by a SQLite database.
type SQLiteJournal struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteJournal opens (or creates) a SQLite database at dbPath and
// creates the orders table.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	j := &SQLiteJournal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return j, nil
}

func (j *SQLiteJournal) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			uid           TEXT,
			simulation_id TEXT,
			broker        TEXT,
			ticker        TEXT NOT NULL,
			dollar_amount TEXT,
			order_type    TEXT,
			side          TEXT,
			order_id      TEXT,
			result        TEXT,
			ok            INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_ts ON orders(timestamp)`,
	}
	for _, s := range stmts {
		if _, err := j.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordOrder inserts entry and sets its ID.
func (j *SQLiteJournal) RecordOrder(ctx context.Context, e *OrderEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	ok := 0
	if e.OK {
		ok = 1
	}
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO orders (timestamp, uid, simulation_id, broker, ticker, dollar_amount,
			order_type, side, order_id, result, ok)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Time.UnixMilli(), e.UID, e.SimulationID, e.Broker, e.Ticker, e.DollarAmount,
		e.OrderType, e.Side, e.OrderID, e.Result, ok)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// RecentOrders returns up to limit entries, newest first.
func (j *SQLiteJournal) RecentOrders(ctx context.Context, limit int) ([]OrderEntry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, timestamp, uid, simulation_id, broker, ticker, dollar_amount,
			order_type, side, order_id, result, ok
		 FROM orders ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []OrderEntry
	for rows.Next() {
		var e OrderEntry
		var ts int64
		var ok int
		if err := rows.Scan(&e.ID, &ts, &e.UID, &e.SimulationID, &e.Broker, &e.Ticker,
			&e.DollarAmount, &e.OrderType, &e.Side, &e.OrderID, &e.Result, &ok); err != nil {
			return nil, err
		}
		e.Time = time.UnixMilli(ts)
		e.OK = ok == 1
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// NoopJournal discards entries. Used when no journal path is configured.
type NoopJournal struct{}

func (NoopJournal) RecordOrder(context.Context, *OrderEntry) error { return nil }
func (NoopJournal) RecentOrders(context.Context, int) ([]OrderEntry, error) {
	return nil, nil
}
func (NoopJournal) Close() error { return nil }

// OpenJournal returns a SQLite journal at path, or a NoopJournal when path
// is empty.
func OpenJournal(path string) (OrderJournal, error) {
	if path == "" {
		return NoopJournal{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal dir: %w", err)
	}
	j, err := NewSQLiteJournal(path)
	if err != nil {
		return nil, err
	}
	return j, nil
}
