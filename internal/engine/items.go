package engine

import (
	"context"

	"github.com/tabsplit/tabsplit/internal/calculator"
	"github.com/tabsplit/tabsplit/internal/models"
)

// normalizeStatus collapses the zero value to the cart, the default scope
// for every item operation.
func normalizeStatus(status models.ItemStatus) models.ItemStatus {
	if status == "" {
		return models.StatusCart
	}
	return status
}

// AddItem adds a catalog item to the cart. When a cart row with the same
// (id, guest) already exists its quantity is incremented and the row is
// re-selected; otherwise a new selected cart row is inserted. The same
// catalog item for a different guest, or in a different status, is always a
// distinct row.
func (e *Engine) AddItem(ctx context.Context, item models.OrderItem) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	qty := item.Quantity
	if qty <= 0 {
		qty = 1
	}

	merged := false
	for i := range e.items {
		if e.items[i].Matches(item.ID, item.GuestID, models.StatusCart) {
			e.items[i].Quantity += qty
			e.items[i].Selected = true
			merged = true
			break
		}
	}
	if !merged {
		item.Quantity = qty
		item.Selected = true
		item.Status = models.StatusCart
		item.MovedAt = e.now().Unix()
		e.items = append(e.items, item)
	}

	e.syncSplits()
	return e.persistLocked(ctx)
}

// RemoveItem deletes the row matching (id, guest, status). Missing rows are
// a no-op.
func (e *Engine) RemoveItem(ctx context.Context, id, guestID string, status models.ItemStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.removeLocked(id, guestID, normalizeStatus(status)) {
		return nil
	}
	e.syncSplits()
	return e.persistLocked(ctx)
}

func (e *Engine) removeLocked(id, guestID string, status models.ItemStatus) bool {
	kept := e.items[:0]
	removed := false
	for _, it := range e.items {
		if it.Matches(id, guestID, status) {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	e.items = kept
	return removed
}

// UpdateQuantity replaces the quantity of the matching row in place. A
// quantity of zero or less is normalized to removal. Status never changes.
func (e *Engine) UpdateQuantity(ctx context.Context, id string, qty int, guestID string, status models.ItemStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	status = normalizeStatus(status)

	if qty <= 0 {
		if !e.removeLocked(id, guestID, status) {
			return nil
		}
	} else {
		updated := false
		for i := range e.items {
			if e.items[i].Matches(id, guestID, status) {
				e.items[i].Quantity = qty
				updated = true
			}
		}
		if !updated {
			return nil
		}
	}

	e.syncSplits()
	return e.persistLocked(ctx)
}

// UpdateNotes replaces the kitchen notes of the matching row. Missing rows
// are a no-op.
func (e *Engine) UpdateNotes(ctx context.Context, id, notes, guestID string, status models.ItemStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	status = normalizeStatus(status)

	updated := false
	for i := range e.items {
		if e.items[i].Matches(id, guestID, status) {
			e.items[i].Notes = notes
			updated = true
		}
	}
	if !updated {
		return nil
	}
	return e.persistLocked(ctx)
}

// ClearCart removes every cart row and resets the tip and payment-method
// selections. The table context and any kitchen or paid rows survive.
func (e *Engine) ClearCart(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clearStatusLocked(models.StatusCart)
	e.tipOption = 0
	e.customTip = 0
	e.paymentMethod = ""
	e.specialInstructions = ""

	e.syncSplits()
	return e.persistLocked(ctx)
}

// ClearKitchenItems wipes the kitchen queue.
func (e *Engine) ClearKitchenItems(ctx context.Context) error {
	e.mu.Lock()
	e.clearStatusLocked(models.StatusKitchen)
	e.syncSplits()
	err := e.persistLocked(ctx)
	ev := e.eventLocked(EventKitchenCleared, nil)
	e.mu.Unlock()

	e.emit(ev)
	return err
}

// ClearPaidItems removes settled rows and draws a fresh order number for
// the next cycle.
func (e *Engine) ClearPaidItems(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clearStatusLocked(models.StatusPaid)
	e.orderNumber = newOrderNumber()
	e.syncSplits()
	return e.persistLocked(ctx)
}

func (e *Engine) clearStatusLocked(status models.ItemStatus) {
	kept := e.items[:0]
	for _, it := range e.items {
		if it.Status != status {
			kept = append(kept, it)
		}
	}
	e.items = kept
}

// SendItemsToKitchen transitions every cart row to the kitchen. Rows in
// other statuses are untouched; an empty cart is a no-op. Gating on table
// verification is the caller's job, not the engine's.
func (e *Engine) SendItemsToKitchen(ctx context.Context) error {
	e.mu.Lock()

	now := e.now().Unix()
	var moved []models.OrderItem
	for i := range e.items {
		if e.items[i].Status == models.StatusCart {
			e.items[i].Status = models.StatusKitchen
			e.items[i].MovedAt = now
			moved = append(moved, e.items[i])
		}
	}
	if len(moved) == 0 {
		e.mu.Unlock()
		return nil
	}

	e.syncSplits()
	err := e.persistLocked(ctx)
	ev := e.eventLocked(EventSentToKitchen, moved)
	e.mu.Unlock()

	e.emit(ev)
	return err
}

// MarkItemsAsPaid transitions kitchen rows to paid. A nil or empty subset
// settles every kitchen row; otherwise exactly the referenced rows move.
// Refs pointing at rows that are not currently in the kitchen are ignored.
func (e *Engine) MarkItemsAsPaid(ctx context.Context, refs []models.ItemRef) error {
	e.mu.Lock()

	moved := e.markPaidLocked(refs)
	if len(moved) == 0 {
		e.mu.Unlock()
		return nil
	}

	e.syncSplits()
	err := e.persistLocked(ctx)
	ev := e.eventLocked(EventItemsPaid, moved)
	e.mu.Unlock()

	e.emit(ev)
	return err
}

func (e *Engine) markPaidLocked(refs []models.ItemRef) []models.OrderItem {
	now := e.now().Unix()
	var moved []models.OrderItem
	for i := range e.items {
		if e.items[i].Status != models.StatusKitchen {
			continue
		}
		if len(refs) > 0 && !refsInclude(refs, e.items[i]) {
			continue
		}
		e.items[i].Status = models.StatusPaid
		e.items[i].MovedAt = now
		moved = append(moved, e.items[i])
	}
	return moved
}

func refsInclude(refs []models.ItemRef, it models.OrderItem) bool {
	for _, ref := range refs {
		if ref.ID == it.ID && ref.GuestID == it.GuestID {
			return true
		}
	}
	return false
}

// Items returns a copy of every row, whatever its status.
func (e *Engine) Items() []models.OrderItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.OrderItem, len(e.items))
	copy(out, e.items)
	return out
}

// ItemCount is the summed quantity of cart rows.
func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return calculator.CountByStatus(e.items, models.StatusCart)
}

// KitchenItemCount is the summed quantity of kitchen rows.
func (e *Engine) KitchenItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return calculator.CountByStatus(e.items, models.StatusKitchen)
}

// PaidItemCount is the summed quantity of paid rows.
func (e *Engine) PaidItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return calculator.CountByStatus(e.items, models.StatusPaid)
}

// TotalPrice is the cart subtotal.
func (e *Engine) TotalPrice() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return calculator.Subtotal(e.items, models.StatusCart)
}

// KitchenTotal is the kitchen subtotal, the amount outstanding for payment.
func (e *Engine) KitchenTotal() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return calculator.Subtotal(e.items, models.StatusKitchen)
}
