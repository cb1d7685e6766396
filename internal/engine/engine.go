// Package engine implements the order and bill-splitting engine: a single
// owned aggregate holding the item collection, the split allocations, the
// tip selection, and the table context.
//
// Every public operation runs to completion under one mutex; callers see a
// strictly serial sequence of states. Mutations persist a full snapshot
// through the storage adapter before returning. In line with its role as
// reactive session state, the engine favors silent normalization over
// errors: operations referencing rows that do not exist are no-ops, and
// out-of-range percentages are accepted and surfaced rather than rejected.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tabsplit/tabsplit/internal/models"
	"github.com/tabsplit/tabsplit/internal/storage"
)

// EventType classifies engine notifications.
type EventType string

const (
	// EventSentToKitchen fires when cart items move to the kitchen.
	EventSentToKitchen EventType = "sent_to_kitchen"
	// EventItemsPaid fires when kitchen items are settled.
	EventItemsPaid EventType = "items_paid"
	// EventKitchenCleared fires when the kitchen queue is wiped.
	EventKitchenCleared EventType = "kitchen_cleared"
)

// Event describes a status transition for kitchen displays.
type Event struct {
	Type        EventType          `json:"type"`
	OrderNumber string             `json:"orderNumber"`
	TableID     string             `json:"tableId,omitempty"`
	Items       []models.OrderItem `json:"items,omitempty"`
	Timestamp   int64              `json:"timestamp"`
}

// Notifier receives transition events. It is invoked synchronously after
// the engine has released its lock; implementations must not call back into
// the engine from the same goroutine expecting the pre-event state.
type Notifier func(Event)

// Engine is the owned order aggregate. All exported methods are safe for
// concurrent use; the single mutex matches the strictly serial access
// pattern of a table session.
type Engine struct {
	mu     sync.Mutex
	store  storage.Store
	notify Notifier
	now    func() time.Time

	orderNumber string
	items       []models.OrderItem
	splitMethod models.SplitMethod
	splits      []models.GuestSplit

	tipOption models.TipOption
	customTip float64

	paymentMethod       string
	specialInstructions string
	tableID             string
	tableVerified       bool

	payments map[string]*models.Payment
}

// New restores the engine from the store, or starts empty when no snapshot
// exists. The legacy table id key overrides the blob's table id, and table
// verification is always reset: it is never trusted across sessions.
func New(ctx context.Context, store storage.Store) (*Engine, error) {
	e := &Engine{
		store:       store,
		now:         time.Now,
		splitMethod: models.SplitItems,
		payments:    make(map[string]*models.Payment),
	}
	e.orderNumber = newOrderNumber()

	state, err := store.LoadCart(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart snapshot: %w", err)
	}
	if state != nil {
		e.items = state.Items
		e.paymentMethod = state.PaymentMethod
		e.specialInstructions = state.SpecialInstructions
		e.tableID = state.TableID
		if state.SplitMethod.Valid() {
			e.splitMethod = state.SplitMethod
		}
		e.splits = state.GuestSplits
		e.tipOption = state.TipOption
		e.customTip = state.CustomTipAmount
	}

	tableID, err := store.LoadTableID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load table id: %w", err)
	}
	if tableID != "" {
		e.tableID = tableID
	}
	e.tableVerified = false

	e.syncSplits()
	slog.Info("engine restored",
		"order_number", e.orderNumber,
		"items", len(e.items),
		"table_id", e.tableID,
	)
	return e, nil
}

// SetNotifier registers the transition listener. Call before serving
// traffic; the notifier is read without the engine lock held.
func (e *Engine) SetNotifier(fn Notifier) {
	e.notify = fn
}

// OrderNumber returns the identifier stamped on receipts and kitchen
// events. A fresh number is drawn when the paid history is cleared.
func (e *Engine) OrderNumber() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.orderNumber
}

// snapshotLocked builds the persisted blob. Callers must hold mu.
func (e *Engine) snapshotLocked() *models.CartState {
	items := make([]models.OrderItem, len(e.items))
	copy(items, e.items)
	splits := make([]models.GuestSplit, len(e.splits))
	copy(splits, e.splits)
	return &models.CartState{
		Items:               items,
		PaymentMethod:       e.paymentMethod,
		SpecialInstructions: e.specialInstructions,
		TableID:             e.tableID,
		TableVerified:       e.tableVerified,
		SplitMethod:         e.splitMethod,
		GuestSplits:         splits,
		TipOption:           e.tipOption,
		CustomTipAmount:     e.customTip,
	}
}

// persistLocked writes the full snapshot. Callers must hold mu. State
// mutations stay applied even when the write fails; the caller decides how
// loudly to surface the error.
func (e *Engine) persistLocked(ctx context.Context) error {
	if err := e.store.SaveCart(ctx, e.snapshotLocked()); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}

func (e *Engine) eventLocked(t EventType, items []models.OrderItem) Event {
	return Event{
		Type:        t,
		OrderNumber: e.orderNumber,
		TableID:     e.tableID,
		Items:       items,
		Timestamp:   e.now().Unix(),
	}
}

func (e *Engine) emit(ev Event) {
	if e.notify != nil {
		e.notify(ev)
	}
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}
