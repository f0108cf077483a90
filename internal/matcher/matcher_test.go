package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenrir-labs/lob/internal/order"
)

func gtc(id order.ID, side order.Side, price float64, qty uint64) *order.Order {
	return order.New(id, side, order.GoodTillCancel, price, qty)
}

// --- spec.md §8 concrete scenarios ------------------------------------------

func TestExactCross(t *testing.T) {
	m := New()
	require.Empty(t, m.Add(gtc(1, order.Sell, 100, 5)))
	trades := m.Add(gtc(2, order.Buy, 100, 5))

	require.Len(t, trades, 1)
	assert.Equal(t, uint64(5), trades[0].Taker.Quantity)
	assert.Equal(t, uint64(5), trades[0].Maker.Quantity)
	assert.Equal(t, 0, m.Size())
}

func TestPartialFill(t *testing.T) {
	m := New()
	require.Empty(t, m.Add(gtc(1, order.Sell, 100, 10)))
	trades := m.Add(gtc(2, order.Buy, 100, 6))

	require.Len(t, trades, 1)
	assert.Equal(t, uint64(6), trades[0].Taker.Quantity)

	_, asks := m.Snapshot()
	require.Len(t, asks, 1)
	assert.Equal(t, uint64(4), asks[0].TotalRemaining)
	assert.Equal(t, 1, asks[0].RestingCount)
}

func TestDepthSweep(t *testing.T) {
	m := New()
	require.Empty(t, m.Add(gtc(1, order.Sell, 100, 3)))
	require.Empty(t, m.Add(gtc(2, order.Sell, 101, 4)))
	trades := m.Add(gtc(3, order.Buy, 101, 7))

	require.Len(t, trades, 2)
	assert.Equal(t, uint64(3), trades[0].Taker.Quantity)
	assert.Equal(t, uint64(4), trades[1].Taker.Quantity)
	assert.Equal(t, 0, m.Size())
}

func TestFillOrKillRejectsOnInsufficientLiquidity(t *testing.T) {
	m := New()
	require.Empty(t, m.Add(gtc(1, order.Sell, 100, 2)))

	trades := m.Add(order.New(2, order.Buy, order.FillOrKill, 100, 5))
	assert.Empty(t, trades)
	assert.Equal(t, 1, m.Size())

	_, asks := m.Snapshot()
	require.Len(t, asks, 1)
	assert.Equal(t, uint64(2), asks[0].TotalRemaining)
}

func TestFillOrKillAcceptsAcrossTwoMakers(t *testing.T) {
	m := New()
	require.Empty(t, m.Add(gtc(1, order.Sell, 100, 3)))
	require.Empty(t, m.Add(gtc(2, order.Sell, 100, 2)))

	trades := m.Add(order.New(3, order.Buy, order.FillOrKill, 100, 5))
	require.Len(t, trades, 2)
	assert.Equal(t, uint64(3), trades[0].Taker.Quantity)
	assert.Equal(t, uint64(2), trades[1].Taker.Quantity)
	assert.Equal(t, 0, m.Size())
}

func TestFillAndKillKeepsPartialDiscardsRemainder(t *testing.T) {
	m := New()
	require.Empty(t, m.Add(gtc(1, order.Sell, 100, 3)))

	trades := m.Add(order.New(2, order.Buy, order.FillAndKill, 100, 10))
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(3), trades[0].Taker.Quantity)
	assert.Equal(t, 0, m.Size())
}

func TestMarketOrderWithNoLiquidityIsANoOp(t *testing.T) {
	m := New()
	trades := m.Add(order.New(1, order.Sell, order.Market, 0, 5))
	assert.Empty(t, trades)
	assert.Equal(t, 0, m.Size())
}

func TestCancel(t *testing.T) {
	m := New()
	require.Empty(t, m.Add(gtc(1, order.Sell, 101, 7)))

	m.Cancel(1)
	assert.Equal(t, 0, m.Size())

	_, asks := m.Snapshot()
	assert.Empty(t, asks)
}

// --- additional coverage -----------------------------------------------------

func TestDuplicateOrderIDIsSilentlyRejected(t *testing.T) {
	m := New()
	require.Empty(t, m.Add(gtc(1, order.Buy, 99, 10)))
	trades := m.Add(gtc(1, order.Buy, 99, 10))

	assert.Empty(t, trades)
	assert.Equal(t, 1, m.Size())
}

func TestCancelOfUnknownIDIsANoOp(t *testing.T) {
	m := New()
	require.NotPanics(t, func() { m.Cancel(999) })
	assert.Equal(t, 0, m.Size())
}

func TestCancelIdempotence(t *testing.T) {
	m := New()
	require.Empty(t, m.Add(gtc(1, order.Buy, 99, 10)))
	m.Cancel(1)
	m.Cancel(1) // must not panic or double-decrement aggregates
	assert.Equal(t, 0, m.Size())
}

func TestMarketOrderNeverRests(t *testing.T) {
	m := New()
	require.Empty(t, m.Add(gtc(1, order.Sell, 100, 3)))

	trades := m.Add(order.New(2, order.Buy, order.Market, 0, 10))
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(3), trades[0].Taker.Quantity)
	assert.False(t, m.Has(2), "market order must never be present in the directory")
	assert.Equal(t, 0, m.Size())
}

func TestMarketOrderSweepsMultiplePriceLevels(t *testing.T) {
	m := New()
	require.Empty(t, m.Add(gtc(1, order.Sell, 100, 3)))
	require.Empty(t, m.Add(gtc(2, order.Sell, 101, 4)))
	require.Empty(t, m.Add(gtc(3, order.Sell, 102, 10)))

	trades := m.Add(order.New(4, order.Buy, order.Market, 0, 9))
	require.Len(t, trades, 3)
	assert.Equal(t, uint64(3), trades[0].Taker.Quantity)
	assert.Equal(t, uint64(4), trades[1].Taker.Quantity)
	assert.Equal(t, uint64(2), trades[2].Taker.Quantity)

	_, asks := m.Snapshot()
	require.Len(t, asks, 1)
	assert.Equal(t, 102.0, asks[0].Price)
	assert.Equal(t, uint64(8), asks[0].TotalRemaining)
}

func TestMarketOrderTakerLegCarriesMakerPrice(t *testing.T) {
	m := New()
	require.Empty(t, m.Add(gtc(1, order.Sell, 105.25, 3)))

	trades := m.Add(order.New(2, order.Buy, order.Market, 0, 3))
	require.Len(t, trades, 1)
	assert.Equal(t, 105.25, trades[0].Taker.Price)
	assert.Equal(t, 105.25, trades[0].Maker.Price)
}

func TestBookNeverLeftCrossedAfterAdd(t *testing.T) {
	m := New()
	require.Empty(t, m.Add(gtc(1, order.Buy, 99, 5)))
	require.Empty(t, m.Add(gtc(2, order.Sell, 101, 5)))
	m.Add(gtc(3, order.Buy, 102, 3))

	bids, asks := m.Snapshot()
	if len(bids) > 0 && len(asks) > 0 {
		assert.Less(t, bids[0].Price, asks[0].Price, "best bid must be below best ask")
	}
}

func TestLevelAggregateMatchesQueueContents(t *testing.T) {
	m := New()
	require.Empty(t, m.Add(gtc(1, order.Buy, 99, 10)))
	require.Empty(t, m.Add(gtc(2, order.Buy, 99, 5)))

	bids, _ := m.Snapshot()
	require.Len(t, bids, 1)
	assert.Equal(t, uint64(15), bids[0].TotalRemaining)
	assert.Equal(t, 2, bids[0].RestingCount)
}

func TestFillOrKillAtomicityLeavesNoSideEffectOnReject(t *testing.T) {
	m := New()
	require.Empty(t, m.Add(gtc(1, order.Sell, 100, 2)))
	before, _ := m.Snapshot()

	trades := m.Add(order.New(2, order.Buy, order.FillOrKill, 100, 50))
	assert.Empty(t, trades)

	after, _ := m.Snapshot()
	assert.Equal(t, before, after)
}

func TestRoundTripAddThenCancelRestoresLevelData(t *testing.T) {
	m := New()
	before, _ := m.Snapshot()

	require.Empty(t, m.Add(gtc(1, order.Buy, 99, 10)))
	m.Cancel(1)

	after, _ := m.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, 0, m.Size())
}
