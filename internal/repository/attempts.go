package repository

import (
	"context"
	"fmt"

	"github.com/Vast-Academy/codeonwork-checkout/internal/domain"
)

func (s *Store) CreateAttempt(ctx context.Context, attempt *Attempt) error {
	query := `INSERT INTO checkout_attempts (id, session_key, cart_snapshot, payable_total, status, orders_created, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`

	_, err := s.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.SessionKey,
		attempt.CartSnapshot,
		attempt.PayableTotal,
		attempt.Status,
		attempt.OrdersCreated)
	if err != nil {
		return fmt.Errorf("insert checkout attempt: %w", err)
	}
	return nil
}

func (s *Store) MarkAttemptFailed(ctx context.Context, id string, reason string, ordersCreated int) error {
	query := `UPDATE checkout_attempts
	          SET status = $2, failure_reason = $3, orders_created = $4, updated_at = NOW()
	          WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, id, domain.CheckoutStatusFailed, reason, ordersCreated)
	if err != nil {
		return fmt.Errorf("mark attempt failed: %w", err)
	}
	return requireRow(res, id)
}

// CompleteAttempt marks the attempt succeeded and enqueues its outbox
// event in the same transaction, so a published completion always has a
// matching audit row.
func (s *Store) CompleteAttempt(ctx context.Context, id string, ordersCreated int, payload []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complete attempt tx: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE checkout_attempts
	          SET status = $2, orders_created = $3, updated_at = NOW()
	          WHERE id = $1`
	res, err := tx.ExecContext(ctx, query, id, domain.CheckoutStatusSucceeded, ordersCreated)
	if err != nil {
		return fmt.Errorf("mark attempt succeeded: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}

	outbox := `INSERT INTO checkout_outbox (event_type, aggregate_id, payload, created_at)
	           VALUES ($1, $2, $3, NOW())`
	if _, err := tx.ExecContext(ctx, outbox, EventCheckoutCompleted, id, payload); err != nil {
		return fmt.Errorf("enqueue outbox event: %w", err)
	}

	return tx.Commit()
}
