package domain

import "time"

// Product is the subset of the upstream service catalog entry that
// cart lines embed. Field names follow the platform wire contract.
type Product struct {
	ID           string   `json:"_id"`
	ServiceName  string   `json:"serviceName"`
	Category     string   `json:"category"`
	SellingPrice float64  `json:"sellingPrice"`
	ServiceImage []string `json:"serviceImage,omitempty"`
}

// CartLine is one product+quantity entry in a user's cart. When a coupon
// has been applied upstream, FinalPrice carries the discounted line total
// and DiscountAmount the line-level reduction.
type CartLine struct {
	ID             string  `json:"_id"`
	Product        Product `json:"productId"`
	Quantity       int     `json:"quantity"`
	CouponCode     string  `json:"couponCode,omitempty"`
	DiscountAmount float64 `json:"discountAmount,omitempty"`
	FinalPrice     float64 `json:"finalPrice,omitempty"`
}

// HasDiscount reports whether a coupon price overrides the catalog price.
// The upstream API omits finalPrice entirely for undiscounted lines, so a
// zero value means "not set".
func (l CartLine) HasDiscount() bool {
	return l.FinalPrice > 0
}

// CartSnapshot is the full cart state for one session, replaced wholesale
// on every successful fetch.
type CartSnapshot struct {
	Lines      []CartLine `json:"lines"`
	CapturedAt time.Time  `json:"captured_at"`
}

func (s *CartSnapshot) Empty() bool {
	return s == nil || len(s.Lines) == 0
}
