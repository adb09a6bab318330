package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/barsim/internal/domain"
	"github.com/alejandrodnm/barsim/internal/engine/execution"
)

var ts = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newBroker() *Simulated {
	return NewSimulated(execution.NewSimulated(execution.NoSlippage{}, execution.NoFees{}))
}

func bar(t *testing.T, symbol string, o, h, l, c, v float64) domain.Bar {
	t.Helper()
	b, err := domain.NewBar(ts, symbol, o, h, l, c, v)
	require.NoError(t, err)
	return b
}

func order(t *testing.T, id string, side domain.Side, qty float64, typ domain.OrderType, limit float64) *domain.Order {
	t.Helper()
	o, err := domain.NewOrder(id, ts, "BTCUSDT", side, qty, typ, limit)
	require.NoError(t, err)
	return o
}

func TestSubmit_DuplicateRejected(t *testing.T) {
	b := newBroker()
	o1 := order(t, "o1", domain.SideBuy, 1, domain.OrderMarket, 0)

	assert.True(t, b.Submit(o1))
	assert.False(t, b.Submit(o1))
	assert.Len(t, b.Pending(""), 1)
}

func TestSubmit_InvalidRejected(t *testing.T) {
	b := newBroker()
	o := order(t, "o1", domain.SideBuy, 1, domain.OrderMarket, 0)
	o.Qty = -1 // corrupted after construction

	assert.False(t, b.Submit(o))
	assert.Equal(t, domain.StatusRejected, o.Status)
	assert.Empty(t, b.Pending(""))
}

func TestProcessBar_FillsAndRetires(t *testing.T) {
	b := newBroker()
	o := order(t, "o1", domain.SideBuy, 1, domain.OrderLimit, 100)
	require.True(t, b.Submit(o))

	// limit not reached: stays pending
	fills := b.ProcessBar(bar(t, "BTCUSDT", 102, 103, 101, 102, 10))
	assert.Empty(t, fills)
	assert.Len(t, b.Pending("BTCUSDT"), 1)

	// bar low touches the limit
	fills = b.ProcessBar(bar(t, "BTCUSDT", 101, 101, 99, 100, 10))
	require.Len(t, fills, 1)
	assert.InDelta(t, 100.0, fills[0].Price, 1e-9)
	assert.Equal(t, domain.StatusFilled, o.Status)
	assert.Empty(t, b.Pending(""))
	assert.Len(t, b.Fills(), 1)
}

func TestProcessBar_InsertionOrder(t *testing.T) {
	b := newBroker()
	require.True(t, b.Submit(order(t, "o1", domain.SideBuy, 1, domain.OrderMarket, 0)))
	require.True(t, b.Submit(order(t, "o2", domain.SideBuy, 2, domain.OrderMarket, 0)))

	fills := b.ProcessBar(bar(t, "BTCUSDT", 100, 101, 99, 100, 10))
	require.Len(t, fills, 2)
	assert.Equal(t, "o1", fills[0].OrderID)
	assert.Equal(t, "o2", fills[1].OrderID)
}

func TestProcessBar_OtherSymbolUntouched(t *testing.T) {
	b := newBroker()
	require.True(t, b.Submit(order(t, "o1", domain.SideBuy, 1, domain.OrderMarket, 0)))

	fills := b.ProcessBar(bar(t, "ETHUSDT", 10, 11, 9, 10, 10))
	assert.Empty(t, fills)
	assert.Len(t, b.Pending("BTCUSDT"), 1)
}

func TestCancel_Idempotent(t *testing.T) {
	b := newBroker()
	o := order(t, "o1", domain.SideBuy, 1, domain.OrderLimit, 90)
	require.True(t, b.Submit(o))

	assert.True(t, b.Cancel("o1"))
	assert.Equal(t, domain.StatusCancelled, o.Status)
	assert.False(t, b.Cancel("o1"), "second cancel fails")
	assert.False(t, b.Cancel("missing"))
}

func TestOrderLookup(t *testing.T) {
	b := newBroker()
	o := order(t, "o1", domain.SideBuy, 1, domain.OrderMarket, 0)
	require.True(t, b.Submit(o))

	assert.Same(t, o, b.Order("o1"))
	assert.Nil(t, b.Order("nope"))
}

func TestRealistic_PartialRetired(t *testing.T) {
	model := execution.NewRealistic(execution.NoSlippage{}, execution.NoFees{}, 0, 0.1)
	b := NewSimulated(model)

	o := order(t, "o1", domain.SideBuy, 5, domain.OrderMarket, 0)
	require.True(t, b.Submit(o))

	fills := b.ProcessBar(bar(t, "BTCUSDT", 100, 101, 99, 100, 10))
	require.Len(t, fills, 1)
	assert.InDelta(t, 1.0, fills[0].Qty, 1e-9)
	assert.Equal(t, domain.StatusPartial, o.Status)
	assert.Empty(t, b.Pending(""), "no retry of the remainder")
}

func TestPaper_DelayedMatching(t *testing.T) {
	model := execution.NewSimulated(execution.NoSlippage{}, execution.NoFees{})
	b := NewPaper(model, 2)

	o := order(t, "o1", domain.SideBuy, 1, domain.OrderMarket, 0)
	require.True(t, b.Submit(o))

	// bar 1: counter 2 → 1, no attempt
	assert.Empty(t, b.ProcessBar(bar(t, "BTCUSDT", 100, 101, 99, 100, 10)))
	// bar on another symbol does not decrement
	assert.Empty(t, b.ProcessBar(bar(t, "ETHUSDT", 10, 11, 9, 10, 10)))
	assert.Len(t, b.Pending("BTCUSDT"), 1)
	// bar 2: counter 1 → 0, fills
	fills := b.ProcessBar(bar(t, "BTCUSDT", 100, 101, 99, 105, 10))
	require.Len(t, fills, 1)
	assert.InDelta(t, 105.0, fills[0].Price, 1e-9)
}

func TestPaper_ZeroDelayActsImmediately(t *testing.T) {
	model := execution.NewSimulated(execution.NoSlippage{}, execution.NoFees{})
	b := NewPaper(model, 0)

	require.True(t, b.Submit(order(t, "o1", domain.SideBuy, 1, domain.OrderMarket, 0)))
	fills := b.ProcessBar(bar(t, "BTCUSDT", 100, 101, 99, 100, 10))
	assert.Len(t, fills, 1)
}
