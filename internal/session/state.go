// Package session owns the per-session counters that the rest of the UI
// tree reads: wallet balance and cart badge count. It replaces ambient
// global state with one explicitly owned object; the cart and checkout
// services are the only writers, everything else reads.
package session

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/Vast-Academy/codeonwork-checkout/internal/cache"
	"github.com/Vast-Academy/codeonwork-checkout/internal/platform"
)

// Upstream is the slice of the platform client this package needs.
type Upstream interface {
	FetchWalletBalance(ctx context.Context, session platform.Session) (float64, error)
	FetchCartCount(ctx context.Context, session platform.Session) (int, error)
}

type State struct {
	cache    cache.SessionCache
	upstream Upstream
	log      *slog.Logger
}

func New(c cache.SessionCache, upstream Upstream, log *slog.Logger) *State {
	return &State{
		cache:    c,
		upstream: upstream,
		log:      log,
	}
}

// Key derives a stable cache key from the session cookie without ever
// storing the credential itself.
func Key(session platform.Session) string {
	h := fnv.New64a()
	h.Write([]byte(session))
	return fmt.Sprintf("%x", h.Sum64())
}

// WalletBalance returns the cached balance, refreshing from upstream on a
// miss. Cache write-backs are best-effort.
func (s *State) WalletBalance(ctx context.Context, session platform.Session) (float64, error) {
	balance, err := s.cache.WalletBalance(ctx, Key(session))
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("wallet cache read failed", "error", err)
	}

	return s.RefreshWalletBalance(ctx, session)
}

// RefreshWalletBalance always asks upstream and writes the cache back.
func (s *State) RefreshWalletBalance(ctx context.Context, session platform.Session) (float64, error) {
	balance, err := s.upstream.FetchWalletBalance(ctx, session)
	if err != nil {
		return 0, fmt.Errorf("refresh wallet balance: %w", err)
	}

	if err := s.cache.SetWalletBalance(ctx, Key(session), balance); err != nil {
		s.log.Warn("wallet cache write failed", "error", err)
	}
	return balance, nil
}

func (s *State) CartCount(ctx context.Context, session platform.Session) (int, error) {
	count, err := s.cache.CartCount(ctx, Key(session))
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("cart count cache read failed", "error", err)
	}

	return s.RefreshCartCount(ctx, session)
}

func (s *State) RefreshCartCount(ctx context.Context, session platform.Session) (int, error) {
	count, err := s.upstream.FetchCartCount(ctx, session)
	if err != nil {
		return 0, fmt.Errorf("refresh cart count: %w", err)
	}

	if err := s.cache.SetCartCount(ctx, Key(session), count); err != nil {
		s.log.Warn("cart count cache write failed", "error", err)
	}
	return count, nil
}

// InvalidateCartCount drops the cached badge count so the next read goes
// upstream. Used after deletions instead of guessing the new count.
func (s *State) InvalidateCartCount(ctx context.Context, session platform.Session) {
	if err := s.cache.DeleteCartCount(ctx, Key(session)); err != nil {
		s.log.Warn("cart count invalidate failed", "error", err)
	}
}

// InvalidateWalletBalance drops the cached balance after a debit.
func (s *State) InvalidateWalletBalance(ctx context.Context, session platform.Session) {
	if err := s.cache.DeleteWalletBalance(ctx, Key(session)); err != nil {
		s.log.Warn("wallet invalidate failed", "error", err)
	}
}
