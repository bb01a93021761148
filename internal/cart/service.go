// Package cart implements the cart snapshot loader and the quantity/delete
// mutations. Mutations are single-flight per cart: while one is pending no
// other may be issued for the same session, so concurrent taps cannot lose
// updates or double-submit. There are no optimistic updates; a failed
// mutation leaves the previously fetched snapshot untouched.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Vast-Academy/codeonwork-checkout/internal/domain"
	"github.com/Vast-Academy/codeonwork-checkout/internal/platform"
	"github.com/Vast-Academy/codeonwork-checkout/internal/session"
	"golang.org/x/sync/singleflight"
)

var (
	ErrMutationInFlight = errors.New("another cart mutation is already in flight")
	ErrLineNotFound     = errors.New("cart line not found")
)

// Upstream is the slice of the platform client the cart service uses.
type Upstream interface {
	FetchCart(ctx context.Context, session platform.Session) ([]domain.CartLine, error)
	UpdateCartLine(ctx context.Context, session platform.Session, lineID string, quantity int) error
	DeleteCartLine(ctx context.Context, session platform.Session, lineID string) error
}

type Service struct {
	upstream Upstream
	state    *session.State
	sfg      singleflight.Group // dedupes concurrent loads per session
	busy     sync.Map           // session key -> *sync.Mutex, the shared mutation flag
	log      *slog.Logger
}

func NewService(upstream Upstream, state *session.State, log *slog.Logger) *Service {
	return &Service{
		upstream: upstream,
		state:    state,
		log:      log,
	}
}

// Load fetches the current cart and replaces any previous snapshot
// wholesale. Concurrent loads for the same session share one request.
func (s *Service) Load(ctx context.Context, sess platform.Session) (*domain.CartSnapshot, error) {
	v, err, _ := s.sfg.Do(session.Key(sess), func() (interface{}, error) {
		return s.fetch(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CartSnapshot), nil
}

// fetch bypasses singleflight; reloads after a mutation must never be
// coalesced with a load that started before the mutation finished.
func (s *Service) fetch(ctx context.Context, sess platform.Session) (*domain.CartSnapshot, error) {
	lines, err := s.upstream.FetchCart(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("fetch cart: %w", err)
	}
	return &domain.CartSnapshot{Lines: lines, CapturedAt: time.Now()}, nil
}

// IncreaseQuantity submits quantity+1 for the line and reloads the
// snapshot on success.
func (s *Service) IncreaseQuantity(ctx context.Context, sess platform.Session, lineID string) (*domain.CartSnapshot, error) {
	return s.mutate(ctx, sess, func(snapshot *domain.CartSnapshot) (bool, error) {
		line, err := findLine(snapshot, lineID)
		if err != nil {
			return false, err
		}
		return true, s.upstream.UpdateCartLine(ctx, sess, lineID, line.Quantity+1)
	})
}

// DecreaseQuantity submits quantity-1 for the line. Below quantity 2 it is
// a silent no-op: no request is issued and the snapshot is returned
// unchanged, since 1 is the quantity floor and deletion is the only path
// to zero.
func (s *Service) DecreaseQuantity(ctx context.Context, sess platform.Session, lineID string) (*domain.CartSnapshot, error) {
	return s.mutate(ctx, sess, func(snapshot *domain.CartSnapshot) (bool, error) {
		line, err := findLine(snapshot, lineID)
		if err != nil {
			return false, err
		}
		if line.Quantity < 2 {
			return false, nil
		}
		return true, s.upstream.UpdateCartLine(ctx, sess, lineID, line.Quantity-1)
	})
}

// DeleteLine removes the line and invalidates the cart badge count so
// sibling displays pick up the change.
func (s *Service) DeleteLine(ctx context.Context, sess platform.Session, lineID string) (*domain.CartSnapshot, error) {
	snapshot, err := s.mutate(ctx, sess, func(snapshot *domain.CartSnapshot) (bool, error) {
		if _, err := findLine(snapshot, lineID); err != nil {
			return false, err
		}
		return true, s.upstream.DeleteCartLine(ctx, sess, lineID)
	})
	if err != nil {
		return nil, err
	}

	s.state.InvalidateCartCount(ctx, sess)
	return snapshot, nil
}

// mutate runs op under the session's shared busy flag. op reports whether
// it issued a request; only then is the snapshot reloaded.
func (s *Service) mutate(ctx context.Context, sess platform.Session, op func(*domain.CartSnapshot) (bool, error)) (*domain.CartSnapshot, error) {
	mu := s.busyFlag(session.Key(sess))
	if !mu.TryLock() {
		return nil, ErrMutationInFlight
	}
	defer mu.Unlock()

	snapshot, err := s.fetch(ctx, sess)
	if err != nil {
		return nil, err
	}

	issued, err := op(snapshot)
	if err != nil {
		s.log.Warn("cart mutation failed", "error", err)
		return nil, err
	}
	if !issued {
		return snapshot, nil
	}

	return s.fetch(ctx, sess)
}

func (s *Service) busyFlag(key string) *sync.Mutex {
	mu, _ := s.busy.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func findLine(snapshot *domain.CartSnapshot, lineID string) (domain.CartLine, error) {
	for _, line := range snapshot.Lines {
		if line.ID == lineID {
			return line, nil
		}
	}
	return domain.CartLine{}, ErrLineNotFound
}
