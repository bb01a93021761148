package checkout

import (
	"context"
	"errors"

	"github.com/Vast-Academy/codeonwork-checkout/internal/platform"
)

// debitWallet charges exactly the payable total. A well-formed upstream
// rejection surfaces the server reason verbatim as PaymentRejected;
// anything else is a network failure. After a successful debit the cached
// balance is stale, so it is dropped immediately; the refresh happens in
// the completion step.
func (s *Service) debitWallet(ctx context.Context, sess platform.Session, amount float64) error {
	if err := s.upstream.DebitWallet(ctx, sess, amount); err != nil {
		var remote *platform.RemoteError
		if errors.As(err, &remote) {
			return failure(FailurePaymentRejected, remote.Message, err)
		}
		return failure(FailureNetwork, "Payment failed!", err)
	}

	s.state.InvalidateWalletBalance(ctx, sess)
	return nil
}
