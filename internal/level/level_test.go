package level

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fenrir-labs/lob/internal/order"
)

func TestAddAccumulatesTotalsAndCount(t *testing.T) {
	d := New()
	d.Add(order.Buy, 100, 5)
	d.Add(order.Buy, 100, 3)

	info := d.Get(order.Buy, 100)
	assert.Equal(t, uint64(8), info.TotalRemaining)
	assert.Equal(t, 2, info.RestingCount)
}

func TestMatchReducesTotalWithoutChangingCount(t *testing.T) {
	d := New()
	d.Add(order.Sell, 50, 10)
	d.Match(order.Sell, 50, 4)

	info := d.Get(order.Sell, 50)
	assert.Equal(t, uint64(6), info.TotalRemaining)
	assert.Equal(t, 1, info.RestingCount)
}

func TestRemoveErasesEntryOnceCountReachesZero(t *testing.T) {
	d := New()
	d.Add(order.Buy, 100, 5)
	d.Remove(order.Buy, 100, 5)

	assert.Equal(t, Info{}, d.Get(order.Buy, 100))
}

func TestSameAggregatePriceOnOppositeSidesAreIndependent(t *testing.T) {
	d := New()
	d.Add(order.Buy, 100, 5)
	d.Add(order.Sell, 100, 9)

	assert.Equal(t, uint64(5), d.Get(order.Buy, 100).TotalRemaining)
	assert.Equal(t, uint64(9), d.Get(order.Sell, 100).TotalRemaining)
}
