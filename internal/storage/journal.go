// Package storage persists an append-only journal of execution events
// in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
)

// Event types recorded in the journal.
const (
	EventOrderSubmitted = "ORDER_SUBMITTED"
	EventOrderFailed    = "ORDER_FAILED"
	EventOrderFilled    = "ORDER_FILLED"
	EventOrderCanceled  = "ORDER_CANCELED"
	EventStrategyOpened = "STRATEGY_OPENED"
	EventStrategyClosed = "STRATEGY_CLOSED"
)

// Entry is one journal row.
type Entry struct {
	ID         int64
	Type       string
	StrategyID string
	Symbol     string
	Ts         time.Time
	Payload    json.RawMessage
}

// Journal is an append-only SQLite log of execution events. It carries
// no strategy state; the in-memory registry stays authoritative.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database with WAL mode enabled.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS journal (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			strategy_id TEXT NOT NULL DEFAULT '',
			symbol TEXT NOT NULL DEFAULT '',
			ts INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal table: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record appends one event. payload may be any JSON-marshalable value;
// nil records an empty object.
func (j *Journal) Record(ctx context.Context, evType, strategyID, symbol string, payload any) error {
	if payload == nil {
		payload = struct{}{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal journal payload: %w", err)
	}

	_, err = j.db.ExecContext(ctx,
		"INSERT INTO journal (type, strategy_id, symbol, ts, payload) VALUES (?, ?, ?, ?, ?)",
		evType, strategyID, symbol, time.Now().UnixMilli(), data,
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// RecordOrder appends the outcome of an order submission.
func (j *Journal) RecordOrder(ctx context.Context, strategyID string, rec domain.OrderRecord) error {
	evType := EventOrderSubmitted
	if rec.Status == domain.OrderFailed {
		evType = EventOrderFailed
	}
	return j.Record(ctx, evType, strategyID, rec.Intent.Symbol, rec)
}

// LoadSince returns entries with id >= fromID in insertion order.
func (j *Journal) LoadSince(ctx context.Context, fromID int64) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT id, type, strategy_id, symbol, ts, payload FROM journal WHERE id >= ? ORDER BY id ASC",
		fromID,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &e.Type, &e.StrategyID, &e.Symbol, &ts, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Ts = time.UnixMilli(ts)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal rows: %w", err)
	}
	return out, nil
}

// LastID returns the highest entry id, or 0 when the journal is empty.
func (j *Journal) LastID(ctx context.Context) (int64, error) {
	var last sql.NullInt64
	if err := j.db.QueryRowContext(ctx, "SELECT MAX(id) FROM journal").Scan(&last); err != nil {
		return 0, fmt.Errorf("query last journal id: %w", err)
	}
	if !last.Valid {
		return 0, nil
	}
	return last.Int64, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}
