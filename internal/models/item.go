package models

import "encoding/json"

// ItemStatus is the lifecycle stage of an order item.
// Transitions are one-directional: cart -> kitchen -> paid.
type ItemStatus string

const (
	// StatusCart is an item the guests are still editing.
	StatusCart ItemStatus = "cart"
	// StatusKitchen is an item that has been sent to the kitchen.
	StatusKitchen ItemStatus = "kitchen"
	// StatusPaid is an item that has been settled.
	StatusPaid ItemStatus = "paid"
)

// GuestSelf is the synthetic guest id for items added without a guest
// assignment.
const GuestSelf = "self"

// OrderItem is a single line item on the table's order.
//
// The tuple (ID, GuestID, Status) is the effective identity used for lookup
// and merge: adding the same catalog item for the same guest while it is
// still in the cart increments Quantity instead of creating a new row; the
// same catalog item for a different guest, or in a different status, is a
// distinct row.
type OrderItem struct {
	// ID is the catalog item identifier. Not unique across guests.
	ID string `json:"id"`

	// Name is the catalog display name.
	Name string `json:"name"`

	// UnitPrice is the non-negative price of a single unit.
	UnitPrice float64 `json:"unitPrice"`

	// Quantity is the positive number of units ordered.
	Quantity int `json:"quantity"`

	// GuestID assigns the item to a guest. Empty means unassigned; such
	// items belong to the synthetic guest GuestSelf.
	GuestID string `json:"guestId,omitempty"`

	// GuestName is the display name captured when the guest was first
	// attached to an item. Resolution falls back to a label built from
	// GuestID when empty.
	GuestName string `json:"guestName,omitempty"`

	// Selected marks the item as included for item-based splitting.
	// Defaults to true; ignored by the equal and percentage strategies.
	Selected bool `json:"selected"`

	// Notes is optional free text for the kitchen.
	Notes string `json:"notes,omitempty"`

	// Status is the lifecycle stage. Zero value is treated as StatusCart
	// when restored from older snapshots.
	Status ItemStatus `json:"status"`

	// MovedAt is the Unix timestamp set on creation and on every status
	// transition.
	MovedAt int64 `json:"createdOrMovedAt"`
}

// LineTotal returns UnitPrice * Quantity.
func (it OrderItem) LineTotal() float64 {
	return it.UnitPrice * float64(it.Quantity)
}

// Matches reports whether the item has the given identity tuple.
func (it OrderItem) Matches(id, guestID string, status ItemStatus) bool {
	return it.ID == id && it.GuestID == guestID && it.Status == status
}

// UnmarshalJSON restores an item from a snapshot. A missing "selected" key
// means selected: older snapshots only wrote the field once a guest
// deselected something, so absence must collapse to true.
func (it *OrderItem) UnmarshalJSON(data []byte) error {
	type alias OrderItem
	aux := struct {
		Selected *bool `json:"selected"`
		*alias
	}{alias: (*alias)(it)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	it.Selected = aux.Selected == nil || *aux.Selected
	if it.Status == "" {
		it.Status = StatusCart
	}
	return nil
}
