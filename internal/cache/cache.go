package cache

import (
	"context"
	"errors"
)

// SessionCache holds the per-session counters the UI chrome reads on
// every page: wallet balance and the cart badge count. Values are only
// ever written back from upstream responses, never computed locally.
type SessionCache interface {
	WalletBalance(ctx context.Context, sessionKey string) (float64, error)
	SetWalletBalance(ctx context.Context, sessionKey string, balance float64) error
	DeleteWalletBalance(ctx context.Context, sessionKey string) error

	CartCount(ctx context.Context, sessionKey string) (int, error)
	SetCartCount(ctx context.Context, sessionKey string, count int) error
	DeleteCartCount(ctx context.Context, sessionKey string) error
}

var ErrCacheMiss = errors.New("cache miss")
