package engine

import (
	"context"

	"github.com/tabsplit/tabsplit/internal/calculator"
	"github.com/tabsplit/tabsplit/internal/models"
)

// SetTipOption selects a preset tip percentage and clears any custom
// amount. Passing models.TipCustom switches to custom mode without touching
// the stored amount. Values outside the preset set are ignored.
func (e *Engine) SetTipOption(ctx context.Context, option models.TipOption) error {
	if option != models.TipCustom && !option.IsPreset() {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tipOption = option
	if option != models.TipCustom {
		e.customTip = 0
	}
	return e.persistLocked(ctx)
}

// SetCustomTipAmount pins the tip to a fixed amount. The amount does not
// re-scale when the cart subtotal later changes; only preset tips track the
// live subtotal.
func (e *Engine) SetCustomTipAmount(ctx context.Context, amount float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tipOption = models.TipCustom
	e.customTip = amount
	return e.persistLocked(ctx)
}

// SetCustomTipPercentage converts the percentage to an amount against the
// current cart subtotal and pins it. Later subtotal changes do not re-scale
// the result; entering 10% of 100 pins 10, whatever the cart does next.
func (e *Engine) SetCustomTipPercentage(ctx context.Context, pct float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	subtotal := calculator.Subtotal(e.items, models.StatusCart)
	e.tipOption = models.TipCustom
	e.customTip = calculator.AmountFromPercentage(pct, subtotal)
	return e.persistLocked(ctx)
}

// TipOption returns the active selection.
func (e *Engine) TipOption() models.TipOption {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tipOption
}

// TipAmount derives the tip from the live cart subtotal for presets, or
// returns the pinned custom amount.
func (e *Engine) TipAmount() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tipAmountLocked()
}

func (e *Engine) tipAmountLocked() float64 {
	subtotal := calculator.Subtotal(e.items, models.StatusCart)
	return calculator.TipAmount(e.tipOption, e.customTip, subtotal)
}

// TipPercentage reports the effective percentage: the preset itself, or the
// pinned amount relative to the live subtotal.
func (e *Engine) TipPercentage() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	subtotal := calculator.Subtotal(e.items, models.StatusCart)
	return calculator.TipPercentage(e.tipOption, e.customTip, subtotal)
}

// TotalWithTip is the cart subtotal plus the tip.
func (e *Engine) TotalWithTip() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return calculator.Subtotal(e.items, models.StatusCart) + e.tipAmountLocked()
}

// GrandTotal folds caller-supplied discount and service-fee adjustments
// into the final payable figure. Both are owned by the checkout flow; the
// engine only adds them up.
func (e *Engine) GrandTotal(discount, serviceFee float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	subtotal := calculator.Subtotal(e.items, models.StatusCart)
	return calculator.GrandTotal(subtotal, discount, serviceFee, e.tipAmountLocked())
}
