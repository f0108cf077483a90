// Package directory maps order ids to the handle locating each resting
// order inside its price level, giving O(1) removal on cancel.
package directory

import (
	"container/list"

	"github.com/fenrir-labs/lob/internal/book"
	"github.com/fenrir-labs/lob/internal/order"
)

// Entry is the handle stored per resting order: the order itself, its
// position inside its PriceLevel's list, and the level it rests on.
type Entry struct {
	Order *order.Order
	Elem  *list.Element
	Level *book.PriceLevel
	// Seq is the matcher's monotonic arrival sequence, used to break
	// taker/maker ties when a single Add call drains more than one cross
	// (spec.md §9).
	Seq uint64
}

// Directory is the order_id -> handle mapping of §4.3.
type Directory struct {
	entries map[order.ID]*Entry
}

// New constructs an empty directory.
func New() *Directory {
	return &Directory{entries: make(map[order.ID]*Entry)}
}

// Has reports whether id is currently resting.
func (d *Directory) Has(id order.ID) bool {
	_, ok := d.entries[id]
	return ok
}

// Get returns the entry for id, or nil if it is not resting.
func (d *Directory) Get(id order.ID) *Entry {
	return d.entries[id]
}

// Put records a new resting order's handle.
func (d *Directory) Put(id order.ID, entry *Entry) {
	d.entries[id] = entry
}

// Delete removes id from the directory. A no-op if id is not present.
func (d *Directory) Delete(id order.ID) {
	delete(d.entries, id)
}

// Len returns the number of resting orders, used by Engine.Size.
func (d *Directory) Len() int {
	return len(d.entries)
}

// Each calls fn for every resting entry. The callback must not mutate the
// directory.
func (d *Directory) Each(fn func(id order.ID, entry *Entry)) {
	for id, entry := range d.entries {
		fn(id, entry)
	}
}
