// Package matcher is the algorithmic core of the engine: per-order-type
// admission policy, the market sweep, the crossed-book drain, and
// FillAndKill cleanup (spec.md §4.5-§4.6).
package matcher

import (
	"github.com/fenrir-labs/lob/internal/book"
	"github.com/fenrir-labs/lob/internal/directory"
	"github.com/fenrir-labs/lob/internal/level"
	"github.com/fenrir-labs/lob/internal/order"
)

// Matcher holds the book index, the order directory, and the level
// aggregator it keeps in lockstep. Callers (the engine façade) are
// responsible for serializing access; Matcher itself does no locking.
type Matcher struct {
	book *book.Book
	dir  *directory.Directory
	lvls *level.Data
	seq  uint64
}

// New constructs an empty matcher over its own book, directory, and level
// aggregator.
func New() *Matcher {
	return &Matcher{
		book: book.New(),
		dir:  directory.New(),
		lvls: level.New(),
	}
}

// Size returns the number of currently resting orders.
func (m *Matcher) Size() int {
	return m.dir.Len()
}

// Has reports whether id is currently resting.
func (m *Matcher) Has(id order.ID) bool {
	return m.dir.Has(id)
}

// LevelInfo is one row of a book-side snapshot (spec.md §4.8, §6).
type LevelInfo struct {
	Price          float64
	TotalRemaining uint64
	RestingCount   int
}

// Snapshot returns a price-ordered summary of both sides: bids best-first
// (highest price first), asks best-first (lowest price first).
func (m *Matcher) Snapshot() (bids, asks []LevelInfo) {
	m.book.Bids.Scan(func(lvl *book.PriceLevel) bool {
		bids = append(bids, m.summarize(lvl))
		return true
	})
	m.book.Asks.Scan(func(lvl *book.PriceLevel) bool {
		asks = append(asks, m.summarize(lvl))
		return true
	})
	return bids, asks
}

func (m *Matcher) summarize(lvl *book.PriceLevel) LevelInfo {
	info := m.lvls.Get(lvl.Side, lvl.Price)
	return LevelInfo{Price: lvl.Price, TotalRemaining: info.TotalRemaining, RestingCount: info.RestingCount}
}

func opposite(s order.Side) order.Side {
	if s == order.Buy {
		return order.Sell
	}
	return order.Buy
}

// Add admits o, running the policy checks and matching of spec.md §4.5 in
// order, and returns every trade o's admission produced.
func (m *Matcher) Add(o *order.Order) []Trade {
	// 1. Duplicate check: silent rejection, no state change.
	if m.dir.Has(o.OrderID) {
		return nil
	}

	// 2. Market orders never rest; sweep and return immediately.
	if o.Type == order.Market {
		return m.sweepMarket(o)
	}

	// 3. FillAndKill pre-check.
	if o.Type == order.FillAndKill && !m.canMatch(o.Side, o.Price) {
		return nil
	}

	// 4. FillOrKill pre-check.
	if o.Type == order.FillOrKill && !m.canFullyFill(o.Side, o.Price, o.Remaining()) {
		return nil
	}

	// 5/6. GoodTillCancel, GoodForDay, and pre-checked FAK/FOK all insert.
	m.insert(o)

	// 7. Drain any cross the insertion created.
	trades := m.drainCrossed(o.OrderID)

	// 8. FillAndKill cleanup: discard any unfilled remainder resting at
	// the head of either side.
	m.cleanupFillAndKill()

	return trades
}

// insert appends o to the tail of its side's price level, records its
// directory handle and arrival sequence, and applies the Add aggregation.
func (m *Matcher) insert(o *order.Order) {
	lvl := m.book.GetOrCreate(o.Side, o.Price)
	elem := lvl.Orders.PushBack(o)
	m.seq++
	m.dir.Put(o.OrderID, &directory.Entry{Order: o, Elem: elem, Level: lvl, Seq: m.seq})
	m.lvls.Add(o.Side, o.Price, o.Remaining())
}

// removeResting pops a cancelled order off its level and out of the
// directory. It does not touch the level aggregator; Cancel applies Remove
// itself with the remaining quantity it read beforehand.
func (m *Matcher) removeResting(entry *directory.Entry) {
	entry.Level.Orders.Remove(entry.Elem)
	m.book.EraseIfEmpty(entry.Level)
	m.dir.Delete(entry.Order.OrderID)
}

// Cancel removes id from the book. A no-op if id is not resting.
func (m *Matcher) Cancel(id order.ID) {
	entry := m.dir.Get(id)
	if entry == nil {
		return
	}
	remaining := entry.Order.Remaining()
	m.removeResting(entry)
	m.lvls.Remove(entry.Order.Side, entry.Order.Price, remaining)
}

// sweepMarket executes a market order against the opposite side best-to-
// worst until it is fully filled or that side is exhausted. The market
// order itself never enters the book; any unfilled remainder is discarded.
func (m *Matcher) sweepMarket(o *order.Order) []Trade {
	var trades []Trade
	side := m.book.Side(opposite(o.Side))

	for o.Remaining() > 0 {
		lvl, ok := side.Min()
		if !ok {
			break
		}
		front := lvl.Orders.Front()
		for front != nil && o.Remaining() > 0 {
			maker := front.Value.(*order.Order)
			qty := min(o.Remaining(), maker.Remaining())
			o.Fill(qty)
			maker.Fill(qty)

			trades = append(trades, Trade{
				Taker: Leg{OrderID: o.OrderID, Price: maker.Price, Quantity: qty},
				Maker: Leg{OrderID: maker.OrderID, Price: maker.Price, Quantity: qty},
			})
			m.lvls.Match(maker.Side, maker.Price, qty)

			next := front.Next()
			if maker.IsFilled() {
				lvl.Orders.Remove(front)
				m.lvls.Remove(maker.Side, maker.Price, 0)
				m.dir.Delete(maker.OrderID)
			}
			front = next
		}
		// Erasing the exhausted level lets the next outer iteration's
		// side.Min() advance to the next-best price; o.Remaining() > 0
		// still holding is what keeps the sweep going across levels.
		m.book.EraseIfEmpty(lvl)
	}
	return trades
}

// canMatch reports whether a FillAndKill order at (side, price) can cross
// the current best opposite price.
func (m *Matcher) canMatch(side order.Side, price float64) bool {
	opp := m.book.Best(opposite(side))
	if opp == nil {
		return false
	}
	if side == order.Buy {
		return price >= opp.Price
	}
	return price <= opp.Price
}

// canFullyFill reports whether the opposite side holds enough cumulative
// liquidity within the limit price to fully satisfy quantity, without
// mutating any state.
func (m *Matcher) canFullyFill(side order.Side, price float64, quantity uint64) bool {
	var available uint64
	done := false
	m.book.Side(opposite(side)).Scan(func(lvl *book.PriceLevel) bool {
		if side == order.Buy && lvl.Price > price {
			return false
		}
		if side == order.Sell && lvl.Price < price {
			return false
		}
		for e := lvl.Orders.Front(); e != nil; e = e.Next() {
			available += e.Value.(*order.Order).Remaining()
			if available >= quantity {
				done = true
				return false
			}
		}
		return true
	})
	return done
}

// drainCrossed repeatedly matches the heads of both sides while the book
// is crossed. admittedID identifies the order whose Add call this drain
// runs under, used to resolve taker/maker tagging (spec.md §9).
func (m *Matcher) drainCrossed(admittedID order.ID) []Trade {
	var trades []Trade
	for m.book.Crossed() {
		bidLvl := m.book.Best(order.Buy)
		askLvl := m.book.Best(order.Sell)
		bidElem := bidLvl.Orders.Front()
		askElem := askLvl.Orders.Front()
		bid := bidElem.Value.(*order.Order)
		ask := askElem.Value.(*order.Order)

		qty := min(bid.Remaining(), ask.Remaining())
		bid.Fill(qty)
		ask.Fill(qty)

		takerLeg, makerLeg := m.tagLegs(admittedID, bid, ask, qty)
		trades = append(trades, Trade{Taker: takerLeg, Maker: makerLeg})

		m.lvls.Match(order.Buy, bid.Price, qty)
		m.lvls.Match(order.Sell, ask.Price, qty)

		if bid.IsFilled() {
			bidLvl.Orders.Remove(bidElem)
			m.lvls.Remove(order.Buy, bid.Price, 0)
			m.dir.Delete(bid.OrderID)
		}
		if ask.IsFilled() {
			askLvl.Orders.Remove(askElem)
			m.lvls.Remove(order.Sell, ask.Price, 0)
			m.dir.Delete(ask.OrderID)
		}
		m.book.EraseIfEmpty(bidLvl)
		m.book.EraseIfEmpty(askLvl)
	}
	return trades
}

// tagLegs resolves which of bid/ask is the taker leg. The newly admitted
// order is the aggressor if it is still at the head of its side; otherwise
// the later arrival (higher sequence number) is treated as the aggressor,
// matching the teacher's arrival-order tie-break.
func (m *Matcher) tagLegs(admittedID order.ID, bid, ask *order.Order, qty uint64) (taker, maker Leg) {
	bidLeg := Leg{OrderID: bid.OrderID, Price: bid.Price, Quantity: qty}
	askLeg := Leg{OrderID: ask.OrderID, Price: ask.Price, Quantity: qty}

	if bid.OrderID == admittedID {
		return bidLeg, askLeg
	}
	if ask.OrderID == admittedID {
		return askLeg, bidLeg
	}

	bidSeq, askSeq := m.seqOf(bid.OrderID), m.seqOf(ask.OrderID)
	if askSeq > bidSeq {
		return askLeg, bidLeg
	}
	return bidLeg, askLeg
}

func (m *Matcher) seqOf(id order.ID) uint64 {
	if entry := m.dir.Get(id); entry != nil {
		return entry.Seq
	}
	return 0
}

// cleanupFillAndKill discards any unfilled FillAndKill order left resting
// at the head of either side after a drain.
func (m *Matcher) cleanupFillAndKill() {
	for _, side := range [2]order.Side{order.Buy, order.Sell} {
		lvl := m.book.Best(side)
		if lvl == nil {
			continue
		}
		front := lvl.Orders.Front()
		if front == nil {
			continue
		}
		head := front.Value.(*order.Order)
		if head.Type != order.FillAndKill || head.IsFilled() {
			continue
		}
		remaining := head.Remaining()
		lvl.Orders.Remove(front)
		m.book.EraseIfEmpty(lvl)
		m.dir.Delete(head.OrderID)
		m.lvls.Remove(head.Side, head.Price, remaining)
	}
}

// GoodForDayIDs returns every resting GoodForDay order id, for the expiry
// pruner (spec.md §4.7). It takes no lock; the caller holds the engine
// mutex.
func (m *Matcher) GoodForDayIDs() []order.ID {
	var ids []order.ID
	m.dir.Each(func(id order.ID, entry *directory.Entry) {
		if entry.Order.Type == order.GoodForDay {
			ids = append(ids, id)
		}
	})
	return ids
}
