// Package pricing computes effective prices and order-level totals for a
// cart snapshot. Everything here is a pure function of its input; coupon
// arithmetic is done upstream and only read back here.
package pricing

import "github.com/Vast-Academy/codeonwork-checkout/internal/domain"

// EffectivePrice is the actual per-unit charge for a line. A discounted
// line's finalPrice already covers the whole quantity, so it is divided
// back down; otherwise the catalog price applies.
func EffectivePrice(line domain.CartLine) float64 {
	if line.HasDiscount() {
		return line.FinalPrice / float64(line.Quantity)
	}
	return line.Product.SellingPrice
}

// LineTotal is the amount charged for a line after any discount.
func LineTotal(line domain.CartLine) float64 {
	if line.HasDiscount() {
		return line.FinalPrice
	}
	return float64(line.Quantity) * line.Product.SellingPrice
}

// Summary holds the order-level totals displayed in the cart summary and
// used by checkout. PayableTotal is the amount actually charged.
type Summary struct {
	TotalQuantity int     `json:"totalQuantity"`
	OriginalTotal float64 `json:"originalTotal"`
	TotalDiscount float64 `json:"totalDiscount"`
	PayableTotal  float64 `json:"payableTotal"`
}

func Summarize(snapshot *domain.CartSnapshot) Summary {
	var s Summary
	if snapshot == nil {
		return s
	}
	for _, line := range snapshot.Lines {
		s.TotalQuantity += line.Quantity
		s.OriginalTotal += float64(line.Quantity) * line.Product.SellingPrice
		s.TotalDiscount += line.DiscountAmount
		s.PayableTotal += LineTotal(line)
	}
	return s
}
