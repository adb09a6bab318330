// Package feed loads historical bars from external data files.
package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/barsim/internal/domain"
)

// CSV reads bars from a CSV file with a header row. Required columns:
// ts, open, high, low, close, volume. A symbol column is optional; rows
// without one take the configured default symbol. Timestamps accept
// RFC 3339 or unix seconds.
type CSV struct {
	path   string
	symbol string
}

// NewCSV creates a bar source for the given file. defaultSymbol is
// used when the file has no symbol column.
func NewCSV(path, defaultSymbol string) *CSV {
	return &CSV{path: path, symbol: defaultSymbol}
}

// Bars loads and validates the whole file. Rows must already be in
// chronological order; bar validation errors abort with the row number.
func (f *CSV) Bars(ctx context.Context) ([]domain.Bar, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("feed.CSV.Bars: open %q: %w", f.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("feed.CSV.Bars: read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"ts", "open", "high", "low", "close", "volume"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("feed.CSV.Bars: missing column %q", required)
		}
	}
	symbolCol, hasSymbol := cols["symbol"]

	var bars []domain.Bar
	for row := 2; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("feed.CSV.Bars: %w", err)
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("feed.CSV.Bars: row %d: %w", row, err)
		}

		ts, err := parseTimestamp(record[cols["ts"]])
		if err != nil {
			return nil, fmt.Errorf("feed.CSV.Bars: row %d: %w", row, err)
		}

		symbol := f.symbol
		if hasSymbol && record[symbolCol] != "" {
			symbol = record[symbolCol]
		}

		var ohlcv [5]float64
		for i, name := range []string{"open", "high", "low", "close", "volume"} {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[cols[name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("feed.CSV.Bars: row %d: parse %s: %w", row, name, err)
			}
			ohlcv[i] = v
		}

		bar, err := domain.NewBar(ts, symbol, ohlcv[0], ohlcv[1], ohlcv[2], ohlcv[3], ohlcv[4])
		if err != nil {
			return nil, fmt.Errorf("feed.CSV.Bars: row %d: %w", row, err)
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}
