package calculator

import "github.com/tabsplit/tabsplit/internal/models"

// TipAmount derives the tip from the current subtotal. Preset options
// re-derive on every call, so the tip tracks cart edits; the custom option
// returns the pinned amount unchanged regardless of the subtotal.
func TipAmount(option models.TipOption, customAmount, subtotal float64) float64 {
	switch {
	case option == models.TipCustom:
		return customAmount
	case option <= 0:
		return 0
	default:
		return subtotal * float64(option) / 100.0
	}
}

// TipPercentage reports the effective tip percentage. For presets it is the
// preset itself; for a custom amount it is derived from the live subtotal
// (0 when the subtotal is 0).
func TipPercentage(option models.TipOption, customAmount, subtotal float64) float64 {
	if option != models.TipCustom {
		return float64(option)
	}
	if subtotal == 0 {
		return 0
	}
	return customAmount / subtotal * 100.0
}

// AmountFromPercentage converts a percentage of the subtotal into an
// amount. Used when a guest enters a custom tip as a percentage: the result
// is pinned and does not re-scale with later subtotal changes.
func AmountFromPercentage(pct, subtotal float64) float64 {
	return pct / 100.0 * subtotal
}

// GrandTotal folds caller-supplied adjustments and the tip into the final
// payable figure. Discount and service fee are owned by the checkout flow;
// the engine only adds them up.
func GrandTotal(subtotal, discount, serviceFee, tip float64) float64 {
	return subtotal - discount + serviceFee + tip
}
