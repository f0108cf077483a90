// Package level maintains the per-(side, price) aggregate quantity and
// count that §4.4 calls LevelData. It is keyed by (side, price), not price
// alone, resolving the ambiguity spec.md §9 flags in the source this
// engine is modeled on.
package level

import "github.com/fenrir-labs/lob/internal/order"

// Key identifies one aggregate level.
type Key struct {
	Side  order.Side
	Price float64
}

// Info is the aggregate state at one key: the sum of remaining quantity
// across its queue, and the number of resting orders.
type Info struct {
	TotalRemaining uint64
	RestingCount   int
}

// Data is the LevelData aggregator.
type Data struct {
	levels map[Key]*Info
}

// New constructs an empty aggregator.
func New() *Data {
	return &Data{levels: make(map[Key]*Info)}
}

// Add records a newly resting order: total += remaining, count += 1.
func (d *Data) Add(side order.Side, price float64, remaining uint64) {
	key := Key{side, price}
	info, ok := d.levels[key]
	if !ok {
		info = &Info{}
		d.levels[key] = info
	}
	info.TotalRemaining += remaining
	info.RestingCount++
}

// Match records a partial or full fill against the resting order: total
// -= traded. The level itself is never removed here — removal happens via
// Remove once the filled order is actually popped off its queue.
func (d *Data) Match(side order.Side, price float64, traded uint64) {
	info, ok := d.levels[Key{side, price}]
	if !ok {
		return
	}
	info.TotalRemaining -= traded
}

// Remove records a resting order leaving the book (cancellation, or a fill
// that emptied it): total -= remaining, count -= 1; the entry is erased
// once count reaches zero.
func (d *Data) Remove(side order.Side, price float64, remaining uint64) {
	key := Key{side, price}
	info, ok := d.levels[key]
	if !ok {
		return
	}
	info.TotalRemaining -= remaining
	info.RestingCount--
	if info.RestingCount <= 0 {
		delete(d.levels, key)
	}
}

// Get returns the aggregate at (side, price), or the zero Info if none.
func (d *Data) Get(side order.Side, price float64) Info {
	if info, ok := d.levels[Key{side, price}]; ok {
		return *info
	}
	return Info{}
}
