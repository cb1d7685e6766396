package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tabsplit/tabsplit/internal/calculator"
	"github.com/tabsplit/tabsplit/internal/models"
)

var (
	// ErrPaymentNotFound is returned for unknown payment handles.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrPaymentSettled is returned when a payment is settled twice.
	ErrPaymentSettled = errors.New("payment already settled")
)

// InitiatePayment opens a two-phase payment over the given kitchen subset
// (every kitchen row when refs is empty) and returns a pending handle. No
// item moves until CompletePayment is observed; the gateway outcome arrives
// later through exactly one of CompletePayment, CancelPayment or
// FailPayment. An empty method falls back to the cart's selected payment
// method; the engine does not insist one is set, that check belongs to the
// checkout flow.
func (e *Engine) InitiatePayment(ctx context.Context, method string, refs []models.ItemRef) (models.Payment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if method == "" {
		method = e.paymentMethod
	}

	var amount float64
	for _, it := range e.items {
		if it.Status != models.StatusKitchen {
			continue
		}
		if len(refs) > 0 && !refsInclude(refs, it) {
			continue
		}
		amount += it.LineTotal()
	}
	amount += calculator.TipAmount(e.tipOption, e.customTip, calculator.Subtotal(e.items, models.StatusCart))

	p := &models.Payment{
		ID:        uuid.New().String(),
		Method:    method,
		Refs:      refs,
		Amount:    amount,
		Status:    models.PaymentPending,
		CreatedAt: e.now().Unix(),
	}
	e.payments[p.ID] = p
	return *p, nil
}

// CompletePayment settles a pending payment: the covered kitchen rows
// transition to paid and the payment becomes terminal. Settling twice is an
// error.
func (e *Engine) CompletePayment(ctx context.Context, id string) (models.Payment, error) {
	e.mu.Lock()

	p, ok := e.payments[id]
	if !ok {
		e.mu.Unlock()
		return models.Payment{}, ErrPaymentNotFound
	}
	if p.Status.Terminal() {
		e.mu.Unlock()
		return *p, ErrPaymentSettled
	}

	p.Status = models.PaymentCompleted
	moved := e.markPaidLocked(p.Refs)
	e.syncSplits()
	err := e.persistLocked(ctx)
	result := *p
	ev := e.eventLocked(EventItemsPaid, moved)
	e.mu.Unlock()

	if len(moved) > 0 {
		e.emit(ev)
	}
	return result, err
}

// CancelPayment abandons a pending payment. Every item keeps its status; no
// partial state is left behind.
func (e *Engine) CancelPayment(id string) (models.Payment, error) {
	return e.settleWithoutItems(id, models.PaymentCancelled)
}

// FailPayment records a gateway rejection. Like cancellation it leaves all
// items untouched, but the terminal status lets the caller distinguish a
// rejection from an abandoned checkout.
func (e *Engine) FailPayment(id string) (models.Payment, error) {
	return e.settleWithoutItems(id, models.PaymentFailed)
}

func (e *Engine) settleWithoutItems(id string, status models.PaymentStatus) (models.Payment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.payments[id]
	if !ok {
		return models.Payment{}, ErrPaymentNotFound
	}
	if p.Status.Terminal() {
		return *p, ErrPaymentSettled
	}
	p.Status = status
	return *p, nil
}

// GetPayment returns the payment for the given handle.
func (e *Engine) GetPayment(id string) (models.Payment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.payments[id]
	if !ok {
		return models.Payment{}, ErrPaymentNotFound
	}
	return *p, nil
}
