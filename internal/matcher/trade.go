package matcher

import "github.com/fenrir-labs/lob/internal/order"

// Leg is one side of a Trade: the id, execution price, and quantity of the
// order that participated.
type Leg struct {
	OrderID  order.ID
	Price    float64
	Quantity uint64
}

// Trade is a single match produced by Add: a taker leg (the order whose
// admission caused the match, or the later-arrived resident leg when a
// cross drains two pre-existing orders — see spec.md §9) paired with a
// maker leg (the resting counterparty). Quantity is always positive on
// both legs and always equal.
type Trade struct {
	Taker Leg
	Maker Leg
}
