// Package calculator contains the pure split and tip math for the ordering
// engine. Functions here never mutate their inputs and carry amounts and
// percentages as full-precision float64; rounding happens only where a
// preset is defined in two-decimal terms (EqualShares).
package calculator

import (
	"math"

	"github.com/tabsplit/tabsplit/internal/models"
)

// EqualShares returns n percentages that sum to exactly 100.00. Every share
// is 100/n rounded to two decimals, except the last, which absorbs the
// rounding remainder: EqualShares(3) is [33.33, 33.33, 33.34].
func EqualShares(n int) []float64 {
	if n <= 0 {
		return nil
	}
	shares := make([]float64, n)
	each := round2(100.0 / float64(n))
	var allocated float64
	for i := 0; i < n-1; i++ {
		shares[i] = each
		allocated += each
	}
	shares[n-1] = round2(100.0 - allocated)
	return shares
}

// TotalAllocated returns the sum of all guest percentages. The result may
// exceed 100; the engine reports it and leaves enforcement to the caller.
func TotalAllocated(splits []models.GuestSplit) float64 {
	var total float64
	for _, s := range splits {
		total += s.Percentage
	}
	return total
}

// Remaining returns 100 minus the allocated total. Negative when the guests
// over-allocated.
func Remaining(splits []models.GuestSplit) float64 {
	return 100.0 - TotalAllocated(splits)
}

// FillZeroSplits spreads the unallocated remainder evenly across guests
// currently at exactly 0%. Guests holding any nonzero percentage are left
// untouched, even when they sit below the average; the exactly-zero
// threshold is the contract. Returns a copy. No-op when nothing remains or
// no guest is at zero.
func FillZeroSplits(splits []models.GuestSplit) []models.GuestSplit {
	out := make([]models.GuestSplit, len(splits))
	copy(out, splits)

	remaining := Remaining(splits)
	if remaining <= 0 {
		return out
	}
	var zeros int
	for _, s := range out {
		if s.Percentage == 0 {
			zeros++
		}
	}
	if zeros == 0 {
		return out
	}
	share := remaining / float64(zeros)
	for i := range out {
		if out[i].Percentage == 0 {
			out[i].Percentage = share
		}
	}
	return out
}

// SplitAmounts returns the owed amount per guest under the given strategy.
//
// Items: each guest owes the sum of their selected cart rows; deselected
// rows are simply unpaid-for in this pass, so the amounts may sum to less
// than the cart subtotal. Equal and percentage: percentage/100 of the cart
// subtotal, whatever the percentages happen to sum to.
func SplitAmounts(items []models.OrderItem, splits []models.GuestSplit, method models.SplitMethod) map[string]float64 {
	amounts := make(map[string]float64, len(splits))
	for _, s := range splits {
		amounts[s.GuestID] = 0
	}

	if method == models.SplitItems {
		for _, it := range items {
			if it.Status != models.StatusCart || !it.Selected {
				continue
			}
			amounts[GuestKey(it.GuestID)] += it.LineTotal()
		}
		return amounts
	}

	subtotal := Subtotal(items, models.StatusCart)
	for _, s := range splits {
		amounts[s.GuestID] = s.Percentage / 100.0 * subtotal
	}
	return amounts
}

// GuestKey maps an item's guest id to the split key, collapsing the empty
// id to the synthetic self guest.
func GuestKey(guestID string) string {
	if guestID == "" {
		return models.GuestSelf
	}
	return guestID
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
