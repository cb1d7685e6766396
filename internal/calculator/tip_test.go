package calculator

import (
	"math"
	"testing"

	"github.com/tabsplit/tabsplit/internal/models"
)

func TestTipAmount(t *testing.T) {
	tests := []struct {
		name     string
		option   models.TipOption
		custom   float64
		subtotal float64
		want     float64
	}{
		{name: "no tip", option: 0, subtotal: 100, want: 0},
		{name: "preset tracks subtotal", option: 10, subtotal: 100, want: 10},
		{name: "preset re-derives after cart change", option: 10, subtotal: 200, want: 20},
		{name: "preset on empty cart", option: 15, subtotal: 0, want: 0},
		{name: "custom amount ignores subtotal", option: models.TipCustom, custom: 10, subtotal: 200, want: 10},
		{name: "custom amount on empty cart", option: models.TipCustom, custom: 7.5, subtotal: 0, want: 7.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TipAmount(tt.option, tt.custom, tt.subtotal)
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("TipAmount = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTipPercentage(t *testing.T) {
	if got := TipPercentage(18, 0, 50); got != 18 {
		t.Errorf("preset percentage = %v, want 18", got)
	}
	if got := TipPercentage(models.TipCustom, 10, 100); math.Abs(got-10) > epsilon {
		t.Errorf("custom percentage = %v, want 10", got)
	}
	if got := TipPercentage(models.TipCustom, 10, 0); got != 0 {
		t.Errorf("custom percentage on empty cart = %v, want 0", got)
	}
}

func TestGrandTotal(t *testing.T) {
	got := GrandTotal(100, 10, 2.5, 15)
	if math.Abs(got-107.5) > epsilon {
		t.Errorf("GrandTotal = %v, want 107.5", got)
	}
}
