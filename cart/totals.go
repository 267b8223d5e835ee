package cart

import "sort"

// Prices maps item id to unit price.
type Prices map[string]float64

type Totals struct {
	Subtotal        float64 `json:"subtotal"`
	DeliveryFee     float64 `json:"deliveryFee"`
	DiscountPercent float64 `json:"discountPercent"`
	Discount        float64 `json:"discount"`
	Total           float64 `json:"total"`
	// Quantity is the number of priced units in the cart.
	Quantity int `json:"quantity"`
}

type Line struct {
	ItemID    string  `json:"itemId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Amount    float64 `json:"amount"`
}

// pricedLines returns the lines that contribute to the subtotal, sorted by
// item id. Items without a known price are skipped.
func pricedLines(items map[string]int, prices Prices) []Line {
	lines := make([]Line, 0, len(items))
	for id, qty := range items {
		if qty <= 0 {
			continue
		}
		price, ok := prices[id]
		if !ok {
			continue
		}
		lines = append(lines, Line{
			ItemID:    id,
			Quantity:  qty,
			UnitPrice: price,
			Amount:    float64(qty) * price,
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })
	return lines
}

// ComputeTotals applies the flat delivery fee and a percentage discount taken
// from the subtotal.
func ComputeTotals(items map[string]int, prices Prices, deliveryFee, discountPercent float64) Totals {
	t := Totals{DeliveryFee: deliveryFee, DiscountPercent: discountPercent}
	for _, l := range pricedLines(items, prices) {
		t.Subtotal += l.Amount
		t.Quantity += l.Quantity
	}
	t.Discount = t.Subtotal * discountPercent / 100
	t.Total = t.Subtotal + deliveryFee - t.Discount
	return t
}
