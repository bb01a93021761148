package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Vast-Academy/codeonwork-checkout/internal/domain"
)

const EventCheckoutCompleted = "checkout-completed"

func (s *Store) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, event_type, aggregate_id, payload, created_at
	          FROM checkout_outbox
	          WHERE processed = FALSE
	          ORDER BY id
	          LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select unprocessed events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.AggregateID, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}

func (s *Store) MarkEventAsProcessed(ctx context.Context, id int) error {
	query := `UPDATE checkout_outbox SET processed = TRUE, processed_at = NOW() WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	return nil
}

// GetUnpublishedAttempts finds succeeded attempts that have no outbox row.
// CompleteAttempt writes both in one transaction, so this only finds rows
// left behind by older schema versions or manual intervention; the poller
// re-enqueues them.
func (s *Store) GetUnpublishedAttempts(ctx context.Context) ([]*Attempt, error) {
	query := `SELECT a.id, a.session_key, a.cart_snapshot, a.payable_total, a.status, COALESCE(a.failure_reason, ''), a.orders_created, a.created_at, a.updated_at
	          FROM checkout_attempts a
	          LEFT JOIN checkout_outbox o ON o.aggregate_id = a.id
	          WHERE a.status = $1 AND o.id IS NULL`

	rows, err := s.db.QueryContext(ctx, query, domain.CheckoutStatusSucceeded)
	if err != nil {
		return nil, fmt.Errorf("select unpublished attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.SessionKey, &a.CartSnapshot, &a.PayableTotal, &a.Status, &a.FailureReason, &a.OrdersCreated, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, &a)
	}
	return attempts, rows.Err()
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("attempt %s: %w", id, ErrAttemptNotFound)
	}
	return nil
}
