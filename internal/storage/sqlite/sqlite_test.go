package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tabsplit/tabsplit/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "tabsplit-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("LoadCart before any save returns nil", func(t *testing.T) {
		state, err := store.LoadCart(ctx)
		if err != nil {
			t.Fatalf("LoadCart failed: %v", err)
		}
		if state != nil {
			t.Errorf("expected nil snapshot, got %+v", state)
		}
	})

	t.Run("SaveCart round-trips the full snapshot", func(t *testing.T) {
		original := &models.CartState{
			Items: []models.OrderItem{
				{ID: "pizza", Name: "Pizza", UnitPrice: 12.90, Quantity: 2, GuestID: "alice", Selected: true, Status: models.StatusCart, MovedAt: 1700000000},
				{ID: "beer", Name: "Beer", UnitPrice: 5.0, Quantity: 1, Selected: false, Status: models.StatusKitchen, MovedAt: 1700000100},
			},
			PaymentMethod:       "card",
			SpecialInstructions: "no onions",
			TableID:             "T4",
			SplitMethod:         models.SplitPercentage,
			GuestSplits: []models.GuestSplit{
				{GuestID: "alice", Percentage: 60},
				{GuestID: models.GuestSelf, Percentage: 40},
			},
			TipOption:       models.TipCustom,
			CustomTipAmount: 3.5,
		}

		if err := store.SaveCart(ctx, original); err != nil {
			t.Fatalf("SaveCart failed: %v", err)
		}

		retrieved, err := store.LoadCart(ctx)
		if err != nil {
			t.Fatalf("LoadCart failed: %v", err)
		}
		if retrieved == nil {
			t.Fatal("expected snapshot, got nil")
		}
		if len(retrieved.Items) != 2 {
			t.Fatalf("items = %d, want 2", len(retrieved.Items))
		}
		if retrieved.Items[0].Quantity != 2 || retrieved.Items[0].GuestID != "alice" {
			t.Errorf("item 0 mismatch: %+v", retrieved.Items[0])
		}
		if retrieved.Items[0].MovedAt != 1700000000 {
			t.Errorf("MovedAt = %d, want 1700000000", retrieved.Items[0].MovedAt)
		}
		if retrieved.Items[1].Selected {
			t.Error("explicit deselection must survive the round trip")
		}
		if retrieved.SplitMethod != models.SplitPercentage {
			t.Errorf("split method = %s, want percentage", retrieved.SplitMethod)
		}
		if retrieved.TipOption != models.TipCustom || retrieved.CustomTipAmount != 3.5 {
			t.Errorf("tip = %d / %v, want custom / 3.5", retrieved.TipOption, retrieved.CustomTipAmount)
		}
		if retrieved.TableID != "T4" || retrieved.PaymentMethod != "card" {
			t.Errorf("context mismatch: %+v", retrieved)
		}
	})

	t.Run("SaveCart overwrites the previous snapshot", func(t *testing.T) {
		if err := store.SaveCart(ctx, &models.CartState{SplitMethod: models.SplitEqual}); err != nil {
			t.Fatalf("SaveCart failed: %v", err)
		}
		retrieved, err := store.LoadCart(ctx)
		if err != nil {
			t.Fatalf("LoadCart failed: %v", err)
		}
		if len(retrieved.Items) != 0 {
			t.Errorf("old items leaked into rewritten snapshot: %+v", retrieved.Items)
		}
	})

	t.Run("table id key lifecycle", func(t *testing.T) {
		tableID, err := store.LoadTableID(ctx)
		if err != nil {
			t.Fatalf("LoadTableID failed: %v", err)
		}
		if tableID != "" {
			t.Errorf("expected empty table id, got %q", tableID)
		}

		if err := store.SaveTableID(ctx, "T12"); err != nil {
			t.Fatalf("SaveTableID failed: %v", err)
		}
		tableID, err = store.LoadTableID(ctx)
		if err != nil {
			t.Fatalf("LoadTableID failed: %v", err)
		}
		if tableID != "T12" {
			t.Errorf("table id = %q, want T12", tableID)
		}

		if err := store.DeleteTableID(ctx); err != nil {
			t.Fatalf("DeleteTableID failed: %v", err)
		}
		tableID, err = store.LoadTableID(ctx)
		if err != nil {
			t.Fatalf("LoadTableID failed: %v", err)
		}
		if tableID != "" {
			t.Errorf("table id after delete = %q, want empty", tableID)
		}

		// Deleting twice is harmless.
		if err := store.DeleteTableID(ctx); err != nil {
			t.Errorf("second DeleteTableID failed: %v", err)
		}
	})
}

func TestLegacySnapshotSelectionDefault(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Older snapshots omitted "selected" for rows nobody deselected; absence
	// must collapse to selected on load.
	legacy := `{"items":[{"id":"pizza","name":"Pizza","unitPrice":10,"quantity":1,"status":"cart","createdOrMovedAt":1700000000}],"splitMethod":"equal","tipOption":0,"tableVerified":false}`
	if err := store.put(ctx, keyCart, legacy); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	state, err := store.LoadCart(ctx)
	if err != nil {
		t.Fatalf("LoadCart failed: %v", err)
	}
	if len(state.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(state.Items))
	}
	if !state.Items[0].Selected {
		t.Error("missing selected field must default to true")
	}
}
