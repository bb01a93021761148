package checkout

import (
	"context"
	"log/slog"

	"github.com/Vast-Academy/codeonwork-checkout/internal/domain"
	"github.com/Vast-Academy/codeonwork-checkout/internal/platform"
	"github.com/Vast-Academy/codeonwork-checkout/internal/repository"
)

// MockUpstream implements Upstream, recording every call and failing on
// demand.
type MockUpstream struct {
	DebitErr     error
	Debits       []float64
	OrderErrAt   int // 1-based index of the order creation that fails, 0 = never
	OrderErr     error
	Orders       []domain.OrderDraft
	DeleteErrFor map[string]error
	DeletedLines []string
}

func (m *MockUpstream) DebitWallet(_ context.Context, _ platform.Session, amount float64) error {
	if m.DebitErr != nil {
		return m.DebitErr
	}
	m.Debits = append(m.Debits, amount)
	return nil
}

func (m *MockUpstream) CreateOrder(_ context.Context, _ platform.Session, draft domain.OrderDraft) error {
	if m.OrderErrAt > 0 && len(m.Orders)+1 == m.OrderErrAt {
		return m.OrderErr
	}
	m.Orders = append(m.Orders, draft)
	return nil
}

func (m *MockUpstream) DeleteCartLine(_ context.Context, _ platform.Session, lineID string) error {
	if err, ok := m.DeleteErrFor[lineID]; ok {
		return err
	}
	m.DeletedLines = append(m.DeletedLines, lineID)
	return nil
}

// MockStore implements repository.StoreInterface.
type MockStore struct {
	CreateErr        error
	CreatedAttempt   *repository.Attempt
	FailedID         string
	FailedReason     string
	FailedOrders     int
	CompletedID      string
	CompletedOrders  int
	CompletedPayload []byte
	CompleteErr      error
}

func (m *MockStore) Close() error {
	return nil
}

func (m *MockStore) RunMigrations(*repository.Credentials) error {
	return nil
}

func (m *MockStore) CreateAttempt(_ context.Context, attempt *repository.Attempt) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.CreatedAttempt = attempt
	return nil
}

func (m *MockStore) MarkAttemptFailed(_ context.Context, id string, reason string, ordersCreated int) error {
	m.FailedID = id
	m.FailedReason = reason
	m.FailedOrders = ordersCreated
	return nil
}

func (m *MockStore) CompleteAttempt(_ context.Context, id string, ordersCreated int, payload []byte) error {
	if m.CompleteErr != nil {
		return m.CompleteErr
	}
	m.CompletedID = id
	m.CompletedOrders = ordersCreated
	m.CompletedPayload = payload
	return nil
}

func (m *MockStore) GetUnprocessedEvents(context.Context, int) ([]*repository.OutboxEvent, error) {
	return nil, nil
}

func (m *MockStore) MarkEventAsProcessed(context.Context, int) error {
	return nil
}

func (m *MockStore) GetUnpublishedAttempts(context.Context) ([]*repository.Attempt, error) {
	return nil, nil
}

// MockCounters implements Counters, tracking refreshes and invalidations.
type MockCounters struct {
	RefreshedBalance  float64
	RefreshErr        error
	WalletRefreshes   int
	WalletInvalidates int
	CountInvalidates  int
}

func (m *MockCounters) RefreshWalletBalance(context.Context, platform.Session) (float64, error) {
	m.WalletRefreshes++
	return m.RefreshedBalance, m.RefreshErr
}

func (m *MockCounters) InvalidateWalletBalance(context.Context, platform.Session) {
	m.WalletInvalidates++
}

func (m *MockCounters) InvalidateCartCount(context.Context, platform.Session) {
	m.CountInvalidates++
}

// newTestCheckoutService creates a fully wired Service for testing.
func newTestCheckoutService(upstream *MockUpstream, store *MockStore, counters *MockCounters) *Service {
	return NewService(upstream, store, counters, slog.Default())
}
