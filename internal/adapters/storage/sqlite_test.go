package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSink(t *testing.T) *SQLiteSink {
	t.Helper()
	s, err := NewSQLiteSink(":memory:", "run-1", map[string]any{"strategy": "sma_cross"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWrite_RoutesByKind(t *testing.T) {
	s := newSink(t)

	require.NoError(t, s.Write("orders", map[string]any{
		"id": "ord-000001", "ts": "2024-03-01T12:00:00Z", "symbol": "BTCUSDT",
		"side": "BUY", "qty": 1.0, "type": "MARKET", "limit_price": 0.0, "status": "FILLED",
	}))
	require.NoError(t, s.Write("fills", map[string]any{
		"order_id": "ord-000001", "ts": "2024-03-01T12:00:00Z", "symbol": "BTCUSDT",
		"side": "BUY", "qty": 1.0, "price": 100.0, "fee": 0.1,
		"notional": 100.0, "net_cash_flow": -100.1,
	}))
	require.NoError(t, s.Write("equity", map[string]any{
		"ts": "2024-03-01T12:00:00Z", "equity": 10_000.0, "cash": 9_899.9, "positions_value": 100.1,
	}))

	for table, want := range map[string]int{"orders": 1, "fills": 1, "equity": 1, "events": 0} {
		n, err := s.CountRecords(table)
		require.NoError(t, err)
		assert.Equal(t, want, n, table)
	}
}

func TestWrite_UnknownKindGoesToEvents(t *testing.T) {
	s := newSink(t)

	require.NoError(t, s.Write("bars", map[string]any{"symbol": "BTCUSDT", "close": 100.0}))

	n, err := s.CountRecords("events")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCountRecords_UnknownTable(t *testing.T) {
	s := newSink(t)
	_, err := s.CountRecords("runs; DROP TABLE runs")
	assert.Error(t, err)
}

func TestNewSQLiteSink_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	s, err := NewSQLiteSink(path, "run-file", nil)
	require.NoError(t, err)
	require.NoError(t, s.Write("equity", map[string]any{"ts": "2024-03-01T12:00:00Z", "equity": 10_000.0}))
	require.NoError(t, s.Close())

	// reabrir el mismo run no duplica la fila de runs
	s2, err := NewSQLiteSink(path, "run-file", nil)
	require.NoError(t, err)
	defer s2.Close()

	n, err := s2.CountRecords("equity")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
