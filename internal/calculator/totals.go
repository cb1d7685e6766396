package calculator

import "github.com/tabsplit/tabsplit/internal/models"

// Subtotal sums price*quantity over every item in the given status.
func Subtotal(items []models.OrderItem, status models.ItemStatus) float64 {
	var total float64
	for _, it := range items {
		if it.Status == status {
			total += it.LineTotal()
		}
	}
	return total
}

// SelectedSubtotal sums price*quantity over selected cart items only.
func SelectedSubtotal(items []models.OrderItem) float64 {
	var total float64
	for _, it := range items {
		if it.Status == models.StatusCart && it.Selected {
			total += it.LineTotal()
		}
	}
	return total
}

// SelectionRatio is SelectedSubtotal over the cart subtotal, 0 when the
// cart is empty. Always in [0, 1].
func SelectionRatio(items []models.OrderItem) float64 {
	subtotal := Subtotal(items, models.StatusCart)
	if subtotal == 0 {
		return 0
	}
	return SelectedSubtotal(items) / subtotal
}

// CountByStatus sums quantities over every item in the given status.
func CountByStatus(items []models.OrderItem, status models.ItemStatus) int {
	var count int
	for _, it := range items {
		if it.Status == status {
			count += it.Quantity
		}
	}
	return count
}
