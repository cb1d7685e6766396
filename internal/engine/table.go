package engine

import (
	"context"

	"github.com/tabsplit/tabsplit/internal/calculator"
	"github.com/tabsplit/tabsplit/internal/models"
)

// SetTableID updates the table context. Besides the cart blob, the id is
// mirrored to the legacy table-id key, which is removed when the id is
// cleared; on restore that key wins over the blob.
func (e *Engine) SetTableID(ctx context.Context, tableID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tableID = tableID
	e.tableVerified = false
	if tableID == "" {
		if err := e.store.DeleteTableID(ctx); err != nil {
			return err
		}
	} else {
		if err := e.store.SaveTableID(ctx, tableID); err != nil {
			return err
		}
	}
	return e.persistLocked(ctx)
}

// TableID returns the current table context.
func (e *Engine) TableID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tableID
}

// SetTableVerified records the outcome of staff verification. The flag is
// written to the snapshot for completeness but never trusted on restore.
func (e *Engine) SetTableVerified(ctx context.Context, verified bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tableVerified = verified
	return e.persistLocked(ctx)
}

// TableVerified reports whether staff verified the table this session.
func (e *Engine) TableVerified() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tableVerified
}

// SetPaymentMethod records the selected payment method. Cleared along with
// the cart.
func (e *Engine) SetPaymentMethod(ctx context.Context, method string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paymentMethod = method
	return e.persistLocked(ctx)
}

// PaymentMethod returns the selected payment method, empty when none.
func (e *Engine) PaymentMethod() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paymentMethod
}

// SetSpecialInstructions records free-text instructions for the order.
func (e *Engine) SetSpecialInstructions(ctx context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.specialInstructions = text
	return e.persistLocked(ctx)
}

// SpecialInstructions returns the order-level instructions.
func (e *Engine) SpecialInstructions() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.specialInstructions
}

// Receipt builds the read-only snapshot downstream consumers render. It
// covers the settled rows: subtotal over paid items, the current tip, and
// their sum.
func (e *Engine) Receipt() models.Receipt {
	e.mu.Lock()
	defer e.mu.Unlock()

	var paid []models.OrderItem
	for _, it := range e.items {
		if it.Status == models.StatusPaid {
			paid = append(paid, it)
		}
	}
	subtotal := calculator.Subtotal(e.items, models.StatusPaid)
	tip := e.tipAmountLocked()
	return models.Receipt{
		OrderNumber:   e.orderNumber,
		Items:         paid,
		Subtotal:      subtotal,
		TipAmount:     tip,
		Total:         subtotal + tip,
		Timestamp:     e.now().Unix(),
		PaymentMethod: e.paymentMethod,
	}
}
