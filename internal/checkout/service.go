// Package checkout implements the payment executor: wallet sufficiency
// check, audit snapshot, wallet debit, sequential order creation and
// post-payment cleanup. Each step is its own failure domain; a failure is
// terminal for the attempt and never retried automatically.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Vast-Academy/codeonwork-checkout/internal/domain"
	"github.com/Vast-Academy/codeonwork-checkout/internal/platform"
	"github.com/Vast-Academy/codeonwork-checkout/internal/pricing"
	"github.com/Vast-Academy/codeonwork-checkout/internal/repository"
	"github.com/Vast-Academy/codeonwork-checkout/internal/session"
	"github.com/google/uuid"
)

// Upstream is the slice of the platform client checkout uses.
type Upstream interface {
	DebitWallet(ctx context.Context, session platform.Session, amount float64) error
	CreateOrder(ctx context.Context, session platform.Session, draft domain.OrderDraft) error
	DeleteCartLine(ctx context.Context, session platform.Session, lineID string) error
}

// Counters is the slice of the session state checkout writes to.
type Counters interface {
	RefreshWalletBalance(ctx context.Context, session platform.Session) (float64, error)
	InvalidateWalletBalance(ctx context.Context, session platform.Session)
	InvalidateCartCount(ctx context.Context, session platform.Session)
}

type Service struct {
	upstream Upstream
	store    repository.StoreInterface
	state    Counters
	log      *slog.Logger
}

func NewService(upstream Upstream, store repository.StoreInterface, state Counters, log *slog.Logger) *Service {
	return &Service{
		upstream: upstream,
		store:    store,
		state:    state,
		log:      log,
	}
}

// Result is what a finished attempt leaves behind: the audit row id and
// the terminal status. The snapshot itself is not retained in memory.
type Result struct {
	AttemptID     string
	Status        domain.CheckoutStatus
	OrdersCreated int
}

// Checkout runs the whole reconciliation flow for a snapshot the caller
// already holds, against the wallet balance the caller already read. The
// sufficiency check happens before any network effect; a snapshot whose
// payable total exceeds the balance never leaves the process.
func (s *Service) Checkout(ctx context.Context, sess platform.Session, snapshot *domain.CartSnapshot, walletBalance float64) (*Result, error) {
	if snapshot.Empty() {
		return nil, ErrEmptyCart
	}

	summary := pricing.Summarize(snapshot)
	if summary.PayableTotal > walletBalance {
		return nil, failure(FailureInsufficientBalance, "Insufficient wallet balance!", nil)
	}

	attemptID, err := s.persistSnapshot(ctx, sess, snapshot, summary)
	if err != nil {
		return nil, failure(FailureNetwork, "Payment failed!", err)
	}
	status := domain.CheckoutStatusSubmitting

	if err := s.debitWallet(ctx, sess, summary.PayableTotal); err != nil {
		return nil, s.failAttempt(ctx, attemptID, &status, err)
	}

	created, err := s.createOrders(ctx, sess, snapshot.Lines)
	if err != nil {
		return nil, s.failAttempt(ctx, attemptID, &status, err)
	}

	if err := s.complete(ctx, sess, attemptID, &status, snapshot, summary, created); err != nil {
		s.log.Error("checkout cleanup failed after success", "attempt", attemptID, "error", err)
	}

	return &Result{
		AttemptID:     attemptID,
		Status:        status,
		OrdersCreated: created,
	}, nil
}

// persistSnapshot writes the immutable audit record of the cart contents
// at submission time, before any money moves.
func (s *Service) persistSnapshot(ctx context.Context, sess platform.Session, snapshot *domain.CartSnapshot, summary pricing.Summary) (string, error) {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal cart snapshot: %w", err)
	}

	attemptID := uuid.NewString()
	attempt := &repository.Attempt{
		ID:           attemptID,
		SessionKey:   session.Key(sess),
		CartSnapshot: snapshotJSON,
		PayableTotal: summary.PayableTotal,
		Status:       domain.CheckoutStatusSubmitting,
	}
	if err := s.store.CreateAttempt(ctx, attempt); err != nil {
		return "", fmt.Errorf("persist checkout attempt: %w", err)
	}
	return attemptID, nil
}

// failAttempt records the terminal failure on the audit row and returns
// the original typed error for the caller.
func (s *Service) failAttempt(ctx context.Context, attemptID string, status *domain.CheckoutStatus, cause error) error {
	if !domain.CanTransitionTo(*status, domain.CheckoutStatusFailed) {
		s.log.Error("refusing illegal transition to FAILED", "attempt", attemptID, "from", *status)
		return cause
	}
	*status = domain.CheckoutStatusFailed

	ordersCreated := 0
	reason := cause.Error()
	if ce, ok := AsCheckoutError(cause); ok {
		ordersCreated = ce.OrdersCreated
	}
	if err := s.store.MarkAttemptFailed(ctx, attemptID, reason, ordersCreated); err != nil {
		s.log.Error("failed to record attempt failure", "attempt", attemptID, "error", err)
	}
	return cause
}
