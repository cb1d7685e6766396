package engine

import (
	"context"

	"github.com/tabsplit/tabsplit/internal/calculator"
	"github.com/tabsplit/tabsplit/internal/models"
)

// syncSplits reconciles the split list with the derived guest set: splits
// for departed guests are retired, new guests start at 0%, and surviving
// guests keep their allocation and exclusion flag. Under the equal strategy
// the percentages are then recomputed across active guests. Callers must
// hold mu.
func (e *Engine) syncSplits() {
	ids := e.guestIDsLocked()
	prev := make(map[string]models.GuestSplit, len(e.splits))
	for _, s := range e.splits {
		prev[s.GuestID] = s
	}

	splits := make([]models.GuestSplit, 0, len(ids))
	for _, id := range ids {
		if s, ok := prev[id]; ok {
			splits = append(splits, s)
		} else {
			splits = append(splits, models.GuestSplit{GuestID: id})
		}
	}
	e.splits = splits

	if e.splitMethod == models.SplitEqual {
		e.applyEqualLocked()
	}
}

// applyEqualLocked gives every active guest 100/activeCount and forces
// excluded guests to 0. Callers must hold mu.
func (e *Engine) applyEqualLocked() {
	var active int
	for _, s := range e.splits {
		if !s.Excluded {
			active++
		}
	}
	for i := range e.splits {
		if e.splits[i].Excluded || active == 0 {
			e.splits[i].Percentage = 0
		} else {
			e.splits[i].Percentage = 100.0 / float64(active)
		}
	}
}

// SetSplitMethod switches the active strategy. Unknown methods are ignored.
// Switching to equal recomputes allocations immediately.
func (e *Engine) SetSplitMethod(ctx context.Context, method models.SplitMethod) error {
	if !method.Valid() {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.splitMethod = method
	e.syncSplits()
	return e.persistLocked(ctx)
}

// SplitMethod returns the active strategy.
func (e *Engine) SplitMethod() models.SplitMethod {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.splitMethod
}

// UpdateGuestPercentage sets a guest's allocation as given. The engine does
// not clamp to [0,100] and does not forbid the total exceeding 100; it
// reports the allocated total and lets the caller warn or block. Unknown
// guests are a no-op.
func (e *Engine) UpdateGuestPercentage(ctx context.Context, guestID string, pct float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	updated := false
	for i := range e.splits {
		if e.splits[i].GuestID == guestID {
			e.splits[i].Percentage = pct
			updated = true
		}
	}
	if !updated {
		return nil
	}
	return e.persistLocked(ctx)
}

// SetGuestExcluded toggles a guest out of (or back into) the equal
// strategy's automatic redistribution.
func (e *Engine) SetGuestExcluded(ctx context.Context, guestID string, excluded bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	updated := false
	for i := range e.splits {
		if e.splits[i].GuestID == guestID {
			e.splits[i].Excluded = excluded
			updated = true
		}
	}
	if !updated {
		return nil
	}
	if e.splitMethod == models.SplitEqual {
		e.applyEqualLocked()
	}
	return e.persistLocked(ctx)
}

// DistributeRemaining spreads the unallocated remainder across guests at
// exactly 0%. No-op when nothing remains or no guest is at zero.
func (e *Engine) DistributeRemaining(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.splits = calculator.FillZeroSplits(e.splits)
	return e.persistLocked(ctx)
}

// ResetSplits forces every guest's percentage to 0.
func (e *Engine) ResetSplits(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.splits {
		e.splits[i].Percentage = 0
	}
	return e.persistLocked(ctx)
}

// SplitEqually forces every guest's percentage to 100/guestCount, including
// previously excluded guests. This is a one-shot action available under any
// strategy; unlike the equal strategy itself it does not respect
// exclusions. No-op with no guests.
func (e *Engine) SplitEqually(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.splits) == 0 {
		return nil
	}
	share := 100.0 / float64(len(e.splits))
	for i := range e.splits {
		e.splits[i].Percentage = share
	}
	return e.persistLocked(ctx)
}

// ApplyQuickSplit assigns the two-decimal equal preset in guest order, the
// rounding remainder landing on the last guest (33.33/33.33/33.34 for
// three). No-op with no guests.
func (e *Engine) ApplyQuickSplit(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	shares := calculator.EqualShares(len(e.splits))
	if shares == nil {
		return nil
	}
	for i := range e.splits {
		e.splits[i].Percentage = shares[i]
	}
	return e.persistLocked(ctx)
}

// GuestSplits returns a copy of the current allocations.
func (e *Engine) GuestSplits() []models.GuestSplit {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.GuestSplit, len(e.splits))
	copy(out, e.splits)
	return out
}

// TotalAllocated is the sum of all guest percentages; may exceed 100.
func (e *Engine) TotalAllocated() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return calculator.TotalAllocated(e.splits)
}

// Remaining is 100 minus the allocated total; negative when over-allocated.
func (e *Engine) Remaining() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return calculator.Remaining(e.splits)
}

// GetGuestTotal returns the amount the guest owes under the active
// strategy. Unknown guests owe 0.
func (e *Engine) GetGuestTotal(guestID string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return calculator.SplitAmounts(e.items, e.splits, e.splitMethod)[guestID]
}

// GuestTotals returns the owed amount per guest under the active strategy.
func (e *Engine) GuestTotals() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return calculator.SplitAmounts(e.items, e.splits, e.splitMethod)
}
