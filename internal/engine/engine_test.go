package engine

import (
	"context"
	"math"
	"testing"

	"github.com/tabsplit/tabsplit/internal/models"
)

const epsilon = 1e-9

// memStore is an in-memory storage.Store for engine tests. It keeps the
// snapshot by value so later engine mutations cannot leak into it.
type memStore struct {
	cart    *models.CartState
	tableID string
	hasTID  bool
	saves   int
}

func (m *memStore) SaveCart(_ context.Context, state *models.CartState) error {
	s := *state
	m.cart = &s
	m.saves++
	return nil
}

func (m *memStore) LoadCart(_ context.Context) (*models.CartState, error) {
	return m.cart, nil
}

func (m *memStore) SaveTableID(_ context.Context, tableID string) error {
	m.tableID = tableID
	m.hasTID = true
	return nil
}

func (m *memStore) DeleteTableID(_ context.Context) error {
	m.tableID = ""
	m.hasTID = false
	return nil
}

func (m *memStore) LoadTableID(_ context.Context) (string, error) {
	return m.tableID, nil
}

func (m *memStore) Close() error { return nil }

func newTestEngine(t *testing.T) (*Engine, *memStore) {
	t.Helper()
	store := &memStore{}
	e, err := New(context.Background(), store)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e, store
}

func pizza(guestID string) models.OrderItem {
	return models.OrderItem{ID: "pizza", Name: "Pizza Margherita", UnitPrice: 12.90, GuestID: guestID}
}

func mustAdd(t *testing.T, e *Engine, item models.OrderItem) {
	t.Helper()
	if err := e.AddItem(context.Background(), item); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
}

func TestAddItemMergesSameGuestCartRows(t *testing.T) {
	e, _ := newTestEngine(t)

	mustAdd(t, e, pizza("alice"))
	mustAdd(t, e, pizza("alice"))

	items := e.Items()
	if len(items) != 1 {
		t.Fatalf("got %d rows, want 1 merged row", len(items))
	}
	if items[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2", items[0].Quantity)
	}
	if !items[0].Selected {
		t.Error("merged row must be re-selected")
	}
}

func TestAddItemKeepsGuestsSeparate(t *testing.T) {
	e, _ := newTestEngine(t)

	mustAdd(t, e, pizza("alice"))
	mustAdd(t, e, pizza("bob"))

	items := e.Items()
	if len(items) != 2 {
		t.Fatalf("got %d rows, want 2 distinct rows", len(items))
	}
	for _, it := range items {
		if it.Quantity != 1 {
			t.Errorf("guest %q quantity = %d, want 1", it.GuestID, it.Quantity)
		}
	}
}

func TestAddItemDoesNotMergeAcrossStatuses(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	mustAdd(t, e, pizza("alice"))
	if err := e.SendItemsToKitchen(ctx); err != nil {
		t.Fatalf("SendItemsToKitchen failed: %v", err)
	}
	mustAdd(t, e, pizza("alice"))

	if got := len(e.Items()); got != 2 {
		t.Fatalf("got %d rows, want kitchen row + fresh cart row", got)
	}
	if e.ItemCount() != 1 || e.KitchenItemCount() != 1 {
		t.Errorf("counts = cart %d / kitchen %d, want 1 / 1", e.ItemCount(), e.KitchenItemCount())
	}
}

func TestEndToEndOrderLifecycle(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	mustAdd(t, e, pizza(""))
	mustAdd(t, e, pizza(""))

	if e.ItemCount() != 2 {
		t.Fatalf("item count = %d, want 2", e.ItemCount())
	}
	if math.Abs(e.TotalPrice()-25.80) > epsilon {
		t.Fatalf("total = %v, want 25.80", e.TotalPrice())
	}

	if err := e.SendItemsToKitchen(ctx); err != nil {
		t.Fatalf("SendItemsToKitchen failed: %v", err)
	}
	if e.KitchenItemCount() != 2 || e.ItemCount() != 0 {
		t.Fatalf("after send: kitchen %d cart %d, want 2 / 0", e.KitchenItemCount(), e.ItemCount())
	}

	if err := e.MarkItemsAsPaid(ctx, nil); err != nil {
		t.Fatalf("MarkItemsAsPaid failed: %v", err)
	}
	if e.PaidItemCount() != 2 || e.KitchenItemCount() != 0 {
		t.Fatalf("after pay: paid %d kitchen %d, want 2 / 0", e.PaidItemCount(), e.KitchenItemCount())
	}
}

func TestStatusMonotonicity(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	mustAdd(t, e, pizza("alice"))
	if err := e.SendItemsToKitchen(ctx); err != nil {
		t.Fatal(err)
	}
	mustAdd(t, e, models.OrderItem{ID: "salad", UnitPrice: 8, GuestID: "alice"})

	// Paying with a ref that also matches the cart row must only move the
	// kitchen row.
	if err := e.MarkItemsAsPaid(ctx, []models.ItemRef{{ID: "pizza", GuestID: "alice"}, {ID: "salad", GuestID: "alice"}}); err != nil {
		t.Fatal(err)
	}
	for _, it := range e.Items() {
		switch it.ID {
		case "pizza":
			if it.Status != models.StatusPaid {
				t.Errorf("pizza status = %s, want paid", it.Status)
			}
		case "salad":
			if it.Status != models.StatusCart {
				t.Errorf("salad status = %s, want cart (never kitchen-skipped)", it.Status)
			}
		}
	}

	// Sending again must not touch paid rows.
	if err := e.SendItemsToKitchen(ctx); err != nil {
		t.Fatal(err)
	}
	if e.PaidItemCount() != 1 || e.KitchenItemCount() != 1 {
		t.Errorf("paid %d kitchen %d, want 1 / 1", e.PaidItemCount(), e.KitchenItemCount())
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	mustAdd(t, e, pizza("alice"))
	if err := e.UpdateQuantity(ctx, "pizza", 0, "alice", models.StatusCart); err != nil {
		t.Fatal(err)
	}
	if got := len(e.Items()); got != 0 {
		t.Errorf("got %d rows, want 0 after zero-quantity update", got)
	}

	// Missing rows are a no-op, not an error.
	if err := e.UpdateQuantity(ctx, "ghost", 3, "", models.StatusCart); err != nil {
		t.Errorf("missing row update errored: %v", err)
	}
}

func TestClearCartSemantics(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	if err := e.SetTableID(ctx, "T7"); err != nil {
		t.Fatal(err)
	}
	mustAdd(t, e, pizza("alice"))
	if err := e.SendItemsToKitchen(ctx); err != nil {
		t.Fatal(err)
	}
	mustAdd(t, e, models.OrderItem{ID: "salad", UnitPrice: 8, GuestID: "alice"})
	if err := e.SetTipOption(ctx, 15); err != nil {
		t.Fatal(err)
	}
	if err := e.SetPaymentMethod(ctx, "card"); err != nil {
		t.Fatal(err)
	}

	if err := e.ClearCart(ctx); err != nil {
		t.Fatal(err)
	}

	if e.ItemCount() != 0 {
		t.Error("cart rows must be gone")
	}
	if e.KitchenItemCount() != 1 {
		t.Error("kitchen rows must survive a cart clear")
	}
	if e.TipOption() != 0 || e.TipAmount() != 0 {
		t.Error("tip selection must reset with the cart")
	}
	if e.PaymentMethod() != "" {
		t.Error("payment method must reset with the cart")
	}
	if e.TableID() != "T7" {
		t.Error("table context must survive a cart clear")
	}
	if store.tableID != "T7" {
		t.Error("legacy table id key must survive a cart clear")
	}
}

func TestSplitEquallySumsTo100(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 7} {
		e, _ := newTestEngine(t)
		ctx := context.Background()
		for i := 0; i < n; i++ {
			mustAdd(t, e, models.OrderItem{ID: "dish", UnitPrice: 10, GuestID: string(rune('a' + i))})
		}

		if err := e.SplitEqually(ctx); err != nil {
			t.Fatal(err)
		}
		splits := e.GuestSplits()
		if len(splits) != n {
			t.Fatalf("n=%d: got %d splits", n, len(splits))
		}
		var sum float64
		for _, s := range splits {
			if math.Abs(s.Percentage-100.0/float64(n)) > epsilon {
				t.Errorf("n=%d: guest %s = %v, want %v", n, s.GuestID, s.Percentage, 100.0/float64(n))
			}
			sum += s.Percentage
		}
		if math.Abs(sum-100.0) > 1e-6 {
			t.Errorf("n=%d: percentages sum to %v, want 100", n, sum)
		}
	}
}

func TestQuickSplitThreeWay(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	for _, g := range []string{"alice", "bob", "carol"} {
		mustAdd(t, e, models.OrderItem{ID: "dish", UnitPrice: 10, GuestID: g})
	}

	if err := e.ApplyQuickSplit(ctx); err != nil {
		t.Fatal(err)
	}
	splits := e.GuestSplits()
	want := []float64{33.33, 33.33, 33.34}
	var sum float64
	for i, s := range splits {
		if math.Abs(s.Percentage-want[i]) > epsilon {
			t.Errorf("guest %d = %v, want %v", i, s.Percentage, want[i])
		}
		sum += s.Percentage
	}
	if math.Abs(sum-100.0) > epsilon {
		t.Errorf("sum = %v, want exactly 100.00", sum)
	}
}

func TestDistributeRemaining(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	for _, g := range []string{"alice", "bob", "carol"} {
		mustAdd(t, e, models.OrderItem{ID: "dish", UnitPrice: 10, GuestID: g})
	}
	if err := e.SetSplitMethod(ctx, models.SplitPercentage); err != nil {
		t.Fatal(err)
	}
	if err := e.UpdateGuestPercentage(ctx, "alice", 60); err != nil {
		t.Fatal(err)
	}

	if err := e.DistributeRemaining(ctx); err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{"alice": 60, "bob": 20, "carol": 20}
	for _, s := range e.GuestSplits() {
		if math.Abs(s.Percentage-want[s.GuestID]) > epsilon {
			t.Errorf("guest %s = %v, want %v", s.GuestID, s.Percentage, want[s.GuestID])
		}
	}
	if math.Abs(e.Remaining()) > epsilon {
		t.Errorf("remaining = %v, want 0", e.Remaining())
	}
}

func TestPercentagesAreNotClamped(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	mustAdd(t, e, pizza("alice"))
	mustAdd(t, e, pizza("bob"))
	if err := e.SetSplitMethod(ctx, models.SplitPercentage); err != nil {
		t.Fatal(err)
	}

	if err := e.UpdateGuestPercentage(ctx, "alice", 90); err != nil {
		t.Fatal(err)
	}
	if err := e.UpdateGuestPercentage(ctx, "bob", 40); err != nil {
		t.Fatal(err)
	}
	if got := e.TotalAllocated(); math.Abs(got-130) > epsilon {
		t.Errorf("total allocated = %v, want 130 (over-allocation surfaced, not blocked)", got)
	}
	if got := e.Remaining(); math.Abs(got+30) > epsilon {
		t.Errorf("remaining = %v, want -30", got)
	}
}

func TestEqualStrategyRespectsExclusions(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	for _, g := range []string{"alice", "bob", "carol"} {
		mustAdd(t, e, models.OrderItem{ID: "dish", UnitPrice: 10, GuestID: g})
	}
	if err := e.SetSplitMethod(ctx, models.SplitEqual); err != nil {
		t.Fatal(err)
	}

	if err := e.SetGuestExcluded(ctx, "carol", true); err != nil {
		t.Fatal(err)
	}
	for _, s := range e.GuestSplits() {
		if s.GuestID == "carol" {
			if s.Percentage != 0 {
				t.Errorf("excluded guest = %v, want 0", s.Percentage)
			}
		} else if math.Abs(s.Percentage-50) > epsilon {
			t.Errorf("active guest %s = %v, want 50", s.GuestID, s.Percentage)
		}
	}

	// The one-shot SplitEqually ignores exclusions.
	if err := e.SplitEqually(ctx); err != nil {
		t.Fatal(err)
	}
	for _, s := range e.GuestSplits() {
		if math.Abs(s.Percentage-100.0/3.0) > epsilon {
			t.Errorf("after SplitEqually guest %s = %v, want 100/3", s.GuestID, s.Percentage)
		}
	}
}

func TestGuestSetDerivation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	mustAdd(t, e, models.OrderItem{ID: "dish", UnitPrice: 10, GuestID: "bob", GuestName: "Bob"})
	mustAdd(t, e, models.OrderItem{ID: "dish", UnitPrice: 10, GuestID: "alice"})
	mustAdd(t, e, models.OrderItem{ID: "dish", UnitPrice: 10}) // self

	ids := e.GuestIDs()
	want := []string{"bob", "alice", models.GuestSelf}
	if len(ids) != len(want) {
		t.Fatalf("guest ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("guest ids = %v, want first-seen order %v", ids, want)
			break
		}
	}

	if got := e.GuestName("bob"); got != "Bob" {
		t.Errorf("GuestName(bob) = %q, want captured name", got)
	}
	if got := e.GuestName("alice"); got != "Guest alice" {
		t.Errorf("GuestName(alice) = %q, want templated fallback", got)
	}
	if got := e.GuestName(models.GuestSelf); got != "Me" {
		t.Errorf("GuestName(self) = %q, want fixed label", got)
	}

	// Splits retire with their guests.
	if err := e.RemoveItem(ctx, "dish", "bob", models.StatusCart); err != nil {
		t.Fatal(err)
	}
	for _, s := range e.GuestSplits() {
		if s.GuestID == "bob" {
			t.Error("split for departed guest must be retired")
		}
	}
}

func TestSelectionOverlay(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	mustAdd(t, e, models.OrderItem{ID: "pizza", UnitPrice: 10, Quantity: 2, GuestID: "alice"})
	mustAdd(t, e, models.OrderItem{ID: "salad", UnitPrice: 5, GuestID: "alice"})

	if err := e.ToggleItemSelection(ctx, "salad", "alice", nil, models.StatusCart); err != nil {
		t.Fatal(err)
	}
	if math.Abs(e.SelectedTotalPrice()-20) > epsilon {
		t.Errorf("selected total = %v, want 20", e.SelectedTotalPrice())
	}
	if e.SelectedTotalPrice() > e.TotalPrice() {
		t.Error("selected subtotal must never exceed cart subtotal")
	}

	if err := e.SetSplitMethod(ctx, models.SplitItems); err != nil {
		t.Fatal(err)
	}
	if got := e.GetGuestTotal("alice"); math.Abs(got-20) > epsilon {
		t.Errorf("item-based guest total = %v, want 20", got)
	}

	if err := e.SelectAllItems(ctx, true, models.StatusCart); err != nil {
		t.Fatal(err)
	}
	if math.Abs(e.SelectedTotalPrice()-e.TotalPrice()) > epsilon {
		t.Error("select-all must restore equality with cart subtotal")
	}
	if math.Abs(e.SelectionRatio()-1.0) > epsilon {
		t.Errorf("selection ratio = %v, want 1", e.SelectionRatio())
	}
}

func TestTipTrackingAsymmetry(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	mustAdd(t, e, models.OrderItem{ID: "a", UnitPrice: 100})
	if err := e.SetTipOption(ctx, 10); err != nil {
		t.Fatal(err)
	}
	if math.Abs(e.TipAmount()-10) > epsilon {
		t.Fatalf("preset tip = %v, want 10", e.TipAmount())
	}

	// Preset tips re-derive from the live subtotal.
	mustAdd(t, e, models.OrderItem{ID: "b", UnitPrice: 100})
	if math.Abs(e.TipAmount()-20) > epsilon {
		t.Errorf("preset tip after cart change = %v, want 20", e.TipAmount())
	}

	// Custom amounts are pinned.
	if err := e.SetCustomTipAmount(ctx, 10); err != nil {
		t.Fatal(err)
	}
	mustAdd(t, e, models.OrderItem{ID: "c", UnitPrice: 100})
	if math.Abs(e.TipAmount()-10) > epsilon {
		t.Errorf("custom tip after cart change = %v, want pinned 10", e.TipAmount())
	}

	// A custom percentage converts once and pins the result.
	if err := e.SetCustomTipPercentage(ctx, 10); err != nil {
		t.Fatal(err)
	}
	if math.Abs(e.TipAmount()-30) > epsilon {
		t.Fatalf("custom 10%% of 300 = %v, want 30", e.TipAmount())
	}
	mustAdd(t, e, models.OrderItem{ID: "d", UnitPrice: 100})
	if math.Abs(e.TipAmount()-30) > epsilon {
		t.Errorf("pinned percentage tip re-scaled to %v, want 30", e.TipAmount())
	}

	if math.Abs(e.TotalWithTip()-430) > epsilon {
		t.Errorf("total with tip = %v, want 430", e.TotalWithTip())
	}
}

func TestTwoPhasePayment(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	mustAdd(t, e, pizza("alice"))
	if err := e.SendItemsToKitchen(ctx); err != nil {
		t.Fatal(err)
	}

	t.Run("cancel leaves everything untouched", func(t *testing.T) {
		p, err := e.InitiatePayment(ctx, "card", nil)
		if err != nil {
			t.Fatal(err)
		}
		if p.Status != models.PaymentPending {
			t.Fatalf("status = %s, want pending", p.Status)
		}
		if e.KitchenItemCount() != 1 {
			t.Error("initiate must not move items")
		}

		cancelled, err := e.CancelPayment(p.ID)
		if err != nil {
			t.Fatal(err)
		}
		if cancelled.Status != models.PaymentCancelled {
			t.Errorf("status = %s, want cancelled", cancelled.Status)
		}
		if e.KitchenItemCount() != 1 || e.PaidItemCount() != 0 {
			t.Error("cancel must leave all items untouched")
		}
	})

	t.Run("failure is distinguishable from cancellation", func(t *testing.T) {
		p, err := e.InitiatePayment(ctx, "card", nil)
		if err != nil {
			t.Fatal(err)
		}
		failed, err := e.FailPayment(p.ID)
		if err != nil {
			t.Fatal(err)
		}
		if failed.Status != models.PaymentFailed {
			t.Errorf("status = %s, want failed", failed.Status)
		}
		if e.KitchenItemCount() != 1 {
			t.Error("failure must leave all items untouched")
		}
	})

	t.Run("complete settles the kitchen subset", func(t *testing.T) {
		p, err := e.InitiatePayment(ctx, "card", nil)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(p.Amount-12.90) > epsilon {
			t.Errorf("captured amount = %v, want 12.90", p.Amount)
		}

		completed, err := e.CompletePayment(ctx, p.ID)
		if err != nil {
			t.Fatal(err)
		}
		if completed.Status != models.PaymentCompleted {
			t.Errorf("status = %s, want completed", completed.Status)
		}
		if e.PaidItemCount() != 1 || e.KitchenItemCount() != 0 {
			t.Error("complete must move kitchen items to paid")
		}

		// Settling twice is an error.
		if _, err := e.CompletePayment(ctx, p.ID); err != ErrPaymentSettled {
			t.Errorf("second settle error = %v, want ErrPaymentSettled", err)
		}
		if _, err := e.CancelPayment(p.ID); err != ErrPaymentSettled {
			t.Errorf("cancel after complete error = %v, want ErrPaymentSettled", err)
		}
	})

	t.Run("unknown handle", func(t *testing.T) {
		if _, err := e.CompletePayment(ctx, "nope"); err != ErrPaymentNotFound {
			t.Errorf("error = %v, want ErrPaymentNotFound", err)
		}
	})
}

func TestRestoreFromSnapshot(t *testing.T) {
	store := &memStore{}
	ctx := context.Background()

	e1, err := New(ctx, store)
	if err != nil {
		t.Fatal(err)
	}
	if err := e1.SetTableID(ctx, "T3"); err != nil {
		t.Fatal(err)
	}
	mustAdd(t, e1, pizza("alice"))
	if err := e1.SetTableVerified(ctx, true); err != nil {
		t.Fatal(err)
	}
	if err := e1.SetCustomTipAmount(ctx, 5); err != nil {
		t.Fatal(err)
	}

	// Legacy key diverges from the blob; it must win on restore.
	if err := store.SaveTableID(ctx, "T9"); err != nil {
		t.Fatal(err)
	}

	e2, err := New(ctx, store)
	if err != nil {
		t.Fatal(err)
	}
	if e2.ItemCount() != 1 {
		t.Errorf("restored item count = %d, want 1", e2.ItemCount())
	}
	if e2.TableID() != "T9" {
		t.Errorf("restored table id = %q, want legacy override T9", e2.TableID())
	}
	if e2.TableVerified() {
		t.Error("table verification must never be trusted across sessions")
	}
	if e2.TipOption() != models.TipCustom || math.Abs(e2.TipAmount()-5) > epsilon {
		t.Error("tip selection must survive a restore")
	}
}

func TestEveryMutationPersists(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	before := store.saves
	mustAdd(t, e, pizza("alice"))
	if err := e.SetTipOption(ctx, 20); err != nil {
		t.Fatal(err)
	}
	if err := e.SendItemsToKitchen(ctx); err != nil {
		t.Fatal(err)
	}
	if store.saves != before+3 {
		t.Errorf("snapshot writes = %d, want one per mutation (3)", store.saves-before)
	}
	if store.cart == nil || len(store.cart.Items) != 1 {
		t.Fatal("snapshot must contain the current items")
	}
	if store.cart.Items[0].Status != models.StatusKitchen {
		t.Error("snapshot must reflect the latest status transition")
	}
}
