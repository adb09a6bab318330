package storage

// sqlite.go — pista de auditoría persistente para runs de backtest.
//
// Estrategia:
//   - `runs`: una fila por run con sus metadatos (JSON).
//   - `orders`, `fills`, `equity`: append-only, una fila por registro
//     recibido del recorder en streaming.
//   - `events`: cualquier kind no reconocido cae aquí con el payload
//     completo en JSON, así no se pierde nada.
//   - Sin updates ni deletes durante el run: solo INSERT.

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
-- Una fila por run de backtest
CREATE TABLE IF NOT EXISTS runs (
    run_id     TEXT PRIMARY KEY,
    started_at DATETIME NOT NULL,
    metadata   TEXT
);

CREATE TABLE IF NOT EXISTS orders (
    run_id      TEXT NOT NULL,
    order_id    TEXT NOT NULL,
    ts          TEXT,
    symbol      TEXT,
    side        TEXT,
    qty         REAL,
    type        TEXT,
    limit_price REAL,
    status      TEXT
);

CREATE TABLE IF NOT EXISTS fills (
    run_id        TEXT NOT NULL,
    order_id      TEXT NOT NULL,
    ts            TEXT,
    symbol        TEXT,
    side          TEXT,
    qty           REAL,
    price         REAL,
    fee           REAL,
    notional      REAL,
    net_cash_flow REAL
);

CREATE TABLE IF NOT EXISTS equity (
    run_id          TEXT NOT NULL,
    ts              TEXT,
    equity          REAL,
    cash            REAL,
    positions_value REAL
);

CREATE TABLE IF NOT EXISTS events (
    run_id  TEXT NOT NULL,
    kind    TEXT NOT NULL,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_run ON orders(run_id);
CREATE INDEX IF NOT EXISTS idx_fills_run  ON fills(run_id);
CREATE INDEX IF NOT EXISTS idx_equity_run ON equity(run_id);
`

// SQLiteSink implementa ports.RecordSink sobre SQLite (pure Go, sin
// CGo). Cada sink pertenece a un único run.
type SQLiteSink struct {
	db    *sql.DB
	runID string
}

// NewSQLiteSink abre (o crea) la base de datos en la ruta dada, aplica
// el schema y registra el run.
func NewSQLiteSink(path, runID string, metadata map[string]any) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteSink: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteSink: apply schema: %w", err)
	}

	meta, err := json.Marshal(metadata)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteSink: encode metadata: %w", err)
	}
	if _, err := db.Exec(
		`INSERT INTO runs (run_id, started_at, metadata) VALUES (?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET started_at = excluded.started_at, metadata = excluded.metadata`,
		runID, time.Now().UTC(), string(meta),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteSink: register run: %w", err)
	}

	return &SQLiteSink{db: db, runID: runID}, nil
}

// Write inserta un registro según su kind. Kinds desconocidos van a la
// tabla events con el payload en JSON.
func (s *SQLiteSink) Write(kind string, record map[string]any) error {
	var err error
	switch kind {
	case "orders":
		_, err = s.db.Exec(
			`INSERT INTO orders (run_id, order_id, ts, symbol, side, qty, type, limit_price, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.runID, record["id"], record["ts"], record["symbol"], record["side"],
			record["qty"], record["type"], record["limit_price"], record["status"],
		)
	case "fills":
		_, err = s.db.Exec(
			`INSERT INTO fills (run_id, order_id, ts, symbol, side, qty, price, fee, notional, net_cash_flow)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.runID, record["order_id"], record["ts"], record["symbol"], record["side"],
			record["qty"], record["price"], record["fee"], record["notional"], record["net_cash_flow"],
		)
	case "equity":
		_, err = s.db.Exec(
			`INSERT INTO equity (run_id, ts, equity, cash, positions_value)
			 VALUES (?, ?, ?, ?, ?)`,
			s.runID, record["ts"], record["equity"], record["cash"], record["positions_value"],
		)
	default:
		var payload []byte
		payload, err = json.Marshal(record)
		if err != nil {
			return fmt.Errorf("storage.SQLiteSink.Write: encode %q payload: %w", kind, err)
		}
		_, err = s.db.Exec(
			`INSERT INTO events (run_id, kind, payload) VALUES (?, ?, ?)`,
			s.runID, kind, string(payload),
		)
	}
	if err != nil {
		return fmt.Errorf("storage.SQLiteSink.Write: insert %q: %w", kind, err)
	}
	return nil
}

// CountRecords devuelve el número de filas de este run en la tabla
// dada. Útil para inspección y tests.
func (s *SQLiteSink) CountRecords(table string) (int, error) {
	switch table {
	case "orders", "fills", "equity", "events":
	default:
		return 0, fmt.Errorf("storage.SQLiteSink.CountRecords: unknown table %q", table)
	}
	var n int
	err := s.db.QueryRow(
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE run_id = ?`, table), s.runID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("storage.SQLiteSink.CountRecords: %w", err)
	}
	return n, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
