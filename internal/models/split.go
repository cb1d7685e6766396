package models

// SplitMethod is the active bill-splitting strategy.
type SplitMethod string

const (
	// SplitItems computes each guest's share from their selected cart items.
	// Percentage allocations are not consulted.
	SplitItems SplitMethod = "items"
	// SplitEqual divides the bill evenly across active (non-excluded)
	// guests.
	SplitEqual SplitMethod = "equal"
	// SplitPercentage uses per-guest percentage allocations set explicitly
	// by the guests.
	SplitPercentage SplitMethod = "percentage"
)

// Valid reports whether m is one of the known strategies.
func (m SplitMethod) Valid() bool {
	switch m {
	case SplitItems, SplitEqual, SplitPercentage:
		return true
	}
	return false
}

// GuestSplit is one guest's percentage allocation of the bill.
//
// Splits are created and retired automatically as guests appear in and
// disappear from the item collection; they are never authored independently.
// The owed amount is always derived (percentage/100 * subtotal), never
// stored.
//
// The engine does not force percentages to sum to 100; it surfaces the
// allocated total and lets the caller decide whether to block. Out-of-range
// values are likewise a caller concern.
type GuestSplit struct {
	// GuestID identifies the guest; GuestSelf for unassigned items.
	GuestID string `json:"guestId"`

	// Percentage is this guest's allocation in [0, 100] by convention.
	Percentage float64 `json:"percentage"`

	// Excluded removes the guest from the equal strategy's automatic
	// redistribution. The one-shot split-equally action ignores it.
	Excluded bool `json:"excluded,omitempty"`
}
