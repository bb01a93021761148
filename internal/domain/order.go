package domain

// OrderDraft is the order-creation payload built from one cart line at
// checkout time. Price is the effective per-unit price after discount.
// Immutable after creation.
type OrderDraft struct {
	ProductID      string  `json:"productId"`
	Quantity       int     `json:"quantity"`
	Price          float64 `json:"price"`
	CouponApplied  *string `json:"couponApplied"`
	DiscountAmount float64 `json:"discountAmount"`
}
