package models

// TipOption selects how the tip is derived. Non-negative values are preset
// percentages from TipPresets and re-derive the tip amount from the live
// cart subtotal on every read. TipCustom pins a fixed amount instead: once
// set, later subtotal changes do not re-scale it. That asymmetry is
// deliberate and load-bearing for the checkout flow.
type TipOption int

// TipCustom is the sentinel for a custom (pinned-amount) tip.
const TipCustom TipOption = -1

// TipPresets is the closed set of selectable preset percentages.
var TipPresets = []TipOption{0, 5, 10, 15, 18, 20, 25}

// IsPreset reports whether o is one of the preset percentages.
func (o TipOption) IsPreset() bool {
	for _, p := range TipPresets {
		if o == p {
			return true
		}
	}
	return false
}
