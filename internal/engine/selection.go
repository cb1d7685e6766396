package engine

import (
	"context"

	"github.com/tabsplit/tabsplit/internal/calculator"
	"github.com/tabsplit/tabsplit/internal/models"
)

// ToggleItemSelection flips the selection of the matching row, or sets it
// when explicit is non-nil. Selection only matters to the item-based split
// strategy; the equal and percentage strategies ignore it. Missing rows are
// a no-op.
func (e *Engine) ToggleItemSelection(ctx context.Context, id, guestID string, explicit *bool, status models.ItemStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	status = normalizeStatus(status)

	updated := false
	for i := range e.items {
		if e.items[i].Matches(id, guestID, status) {
			if explicit != nil {
				e.items[i].Selected = *explicit
			} else {
				e.items[i].Selected = !e.items[i].Selected
			}
			updated = true
		}
	}
	if !updated {
		return nil
	}
	return e.persistLocked(ctx)
}

// SelectAllItems applies the selection uniformly to every row of the given
// status.
func (e *Engine) SelectAllItems(ctx context.Context, selected bool, status models.ItemStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	status = normalizeStatus(status)

	for i := range e.items {
		if e.items[i].Status == status {
			e.items[i].Selected = selected
		}
	}
	return e.persistLocked(ctx)
}

// SelectedTotalPrice sums price*quantity over selected cart rows. Never
// exceeds TotalPrice.
func (e *Engine) SelectedTotalPrice() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return calculator.SelectedSubtotal(e.items)
}

// SelectionRatio is the selected share of the cart subtotal, 0 when the
// cart is empty.
func (e *Engine) SelectionRatio() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return calculator.SelectionRatio(e.items)
}
