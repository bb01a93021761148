package checkout

import (
	"context"

	"github.com/Vast-Academy/codeonwork-checkout/internal/domain"
	"github.com/Vast-Academy/codeonwork-checkout/internal/platform"
	"github.com/Vast-Academy/codeonwork-checkout/internal/pricing"
)

// createOrders creates one order per cart line, sequentially, so a
// mid-sequence failure leaves a well-defined prefix of created orders.
// The wallet has already been debited when this runs; on failure no
// compensating refund is issued here. The attempt row records how far
// the sequence got so recovery can happen out-of-band.
func (s *Service) createOrders(ctx context.Context, sess platform.Session, lines []domain.CartLine) (int, error) {
	for i, line := range lines {
		draft := domain.OrderDraft{
			ProductID:      line.Product.ID,
			Quantity:       line.Quantity,
			Price:          pricing.EffectivePrice(line),
			DiscountAmount: line.DiscountAmount,
		}
		if line.CouponCode != "" {
			coupon := line.CouponCode
			draft.CouponApplied = &coupon
		}

		if err := s.upstream.CreateOrder(ctx, sess, draft); err != nil {
			s.log.Error("order creation failed, aborting remaining lines",
				"line", line.ID, "created", i, "remaining", len(lines)-i, "error", err)
			e := failure(FailureOrderCreation, "Payment failed!", err)
			e.OrdersCreated = i
			return i, e
		}
	}
	return len(lines), nil
}
