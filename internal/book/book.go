// Package book holds the price-ordered bid/ask indices. Each side is a
// tidwall/btree ordered map from price to a FIFO of resting orders; the two
// sides use opposite less-functions so that the minimum item of either
// tree is always that side's best price.
package book

import (
	"container/list"

	"github.com/tidwall/btree"

	"github.com/fenrir-labs/lob/internal/order"
)

// PriceLevel is the FIFO of resting orders at a single price on one side.
// Orders is a container/list.List rather than a slice: cancellation needs
// O(1) removal given a stored position, and a slice does not keep other
// elements' positions stable across a middle erase.
type PriceLevel struct {
	Price  float64
	Side   order.Side
	Orders *list.List // of *order.Order
}

func newPriceLevel(side order.Side, price float64) *PriceLevel {
	return &PriceLevel{Side: side, Price: price, Orders: list.New()}
}

// Empty reports whether the level has no resting orders. Empty levels are
// never left observable in a Book.
func (l *PriceLevel) Empty() bool {
	return l.Orders.Len() == 0
}

// Levels is a price-ordered index for one side of the book.
type Levels = btree.BTreeG[*PriceLevel]

// Book is the two-sided price index: bids descending, asks ascending, so
// that Bids.Min() / Asks.Min() both yield that side's best price.
type Book struct {
	Bids *Levels
	Asks *Levels
}

// New constructs an empty, two-sided book index.
func New() *Book {
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price > b.Price // descending: best bid first
	})
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price < b.Price // ascending: best ask first
	})
	return &Book{Bids: bids, Asks: asks}
}

// Side returns the ordered level index for s.
func (b *Book) Side(s order.Side) *Levels {
	if s == order.Buy {
		return b.Bids
	}
	return b.Asks
}

// Best returns the best (head) price level on s, or nil if that side is
// empty.
func (b *Book) Best(s order.Side) *PriceLevel {
	level, ok := b.Side(s).Min()
	if !ok {
		return nil
	}
	return level
}

// LevelAt returns the existing level at price on side s, or nil.
func (b *Book) LevelAt(s order.Side, price float64) *PriceLevel {
	level, ok := b.Side(s).Get(&PriceLevel{Side: s, Price: price})
	if !ok {
		return nil
	}
	return level
}

// GetOrCreate returns the level at price on side s, creating and inserting
// an empty one if none exists yet.
func (b *Book) GetOrCreate(s order.Side, price float64) *PriceLevel {
	if level := b.LevelAt(s, price); level != nil {
		return level
	}
	level := newPriceLevel(s, price)
	b.Side(s).Set(level)
	return level
}

// EraseIfEmpty removes level from its side's index if it has no resting
// orders left. No empty PriceLevel is ever left observable.
func (b *Book) EraseIfEmpty(level *PriceLevel) {
	if level.Empty() {
		b.Side(level.Side).Delete(level)
	}
}

// Crossed reports whether the best bid is at or above the best ask, i.e.
// the book is in a state the matcher must drain before returning control.
func (b *Book) Crossed() bool {
	bid := b.Best(order.Buy)
	ask := b.Best(order.Sell)
	return bid != nil && ask != nil && bid.Price >= ask.Price
}
