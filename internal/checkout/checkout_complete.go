package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Vast-Academy/codeonwork-checkout/internal/domain"
	"github.com/Vast-Academy/codeonwork-checkout/internal/platform"
	"github.com/Vast-Academy/codeonwork-checkout/internal/pricing"
	"github.com/Vast-Academy/codeonwork-checkout/internal/session"
)

// complete runs the post-payment cleanup: wallet refresh, removal of every
// purchased line, counter invalidation, and the terminal status write with
// its outbox event. Each line deletion is independent; one failure must
// not stop the others, and nothing in here can fail the attempt itself.
func (s *Service) complete(ctx context.Context, sess platform.Session, attemptID string, status *domain.CheckoutStatus, snapshot *domain.CartSnapshot, summary pricing.Summary, created int) error {
	if !domain.CanTransitionTo(*status, domain.CheckoutStatusSucceeded) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, *status, domain.CheckoutStatusSucceeded)
	}
	// Payment and order creation are done; the attempt has succeeded from
	// the user's point of view no matter what cleanup does below.
	*status = domain.CheckoutStatusSucceeded

	if _, err := s.state.RefreshWalletBalance(ctx, sess); err != nil {
		s.log.Warn("wallet refresh after debit failed", "attempt", attemptID, "error", err)
	}

	for _, line := range snapshot.Lines {
		if err := s.upstream.DeleteCartLine(ctx, sess, line.ID); err != nil {
			s.log.Warn("failed to clear purchased cart line", "attempt", attemptID, "line", line.ID, "error", err)
		}
	}
	s.state.InvalidateCartCount(ctx, sess)

	payload := map[string]interface{}{
		"attempt_id":     attemptID,
		"session_key":    session.Key(sess),
		"lines":          snapshot.Lines,
		"payable_total":  summary.PayableTotal,
		"total_discount": summary.TotalDiscount,
		"orders_created": created,
		"completed_at":   time.Now(),
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal completion payload: %w", err)
	}

	if err := s.store.CompleteAttempt(ctx, attemptID, created, payloadJSON); err != nil {
		return fmt.Errorf("record attempt completion: %w", err)
	}

	return nil
}
