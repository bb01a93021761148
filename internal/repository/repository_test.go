package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Vast-Academy/codeonwork-checkout/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*Store, func()) {
	if testing.Short() {
		t.Skip("skipping container-backed repository tests in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "../../migrations",
	}

	store, err := NewStore(creds)
	require.NoError(t, err)

	err = store.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		store.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return store, cleanup
}

func testAttempt() *Attempt {
	snapshot, _ := json.Marshal(map[string]any{"lines": []any{}})
	return &Attempt{
		ID:           uuid.NewString(),
		SessionKey:   "sess-1",
		CartSnapshot: snapshot,
		PayableTotal: 1800,
		Status:       domain.CheckoutStatusSubmitting,
	}
}

func TestCreateAttempt_Success(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	attempt := testAttempt()

	require.NoError(t, store.CreateAttempt(ctx, attempt))

	var status string
	var total float64
	err := store.db.QueryRowContext(ctx,
		`SELECT status, payable_total FROM checkout_attempts WHERE id = $1`, attempt.ID).
		Scan(&status, &total)
	require.NoError(t, err)
	assert.Equal(t, string(domain.CheckoutStatusSubmitting), status)
	assert.Equal(t, 1800.0, total)
}

func TestMarkAttemptFailed(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	attempt := testAttempt()
	require.NoError(t, store.CreateAttempt(ctx, attempt))

	require.NoError(t, store.MarkAttemptFailed(ctx, attempt.ID, "order creation failed", 1))

	var status, reason string
	var created int
	err := store.db.QueryRowContext(ctx,
		`SELECT status, failure_reason, orders_created FROM checkout_attempts WHERE id = $1`, attempt.ID).
		Scan(&status, &reason, &created)
	require.NoError(t, err)
	assert.Equal(t, string(domain.CheckoutStatusFailed), status)
	assert.Equal(t, "order creation failed", reason)
	assert.Equal(t, 1, created)
}

func TestMarkAttemptFailed_UnknownID(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	err := store.MarkAttemptFailed(context.Background(), uuid.NewString(), "whatever", 0)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestCompleteAttempt_WritesOutboxInSameTx(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	attempt := testAttempt()
	require.NoError(t, store.CreateAttempt(ctx, attempt))

	payload, _ := json.Marshal(map[string]any{"attempt_id": attempt.ID, "payable_total": 1800.0})
	require.NoError(t, store.CompleteAttempt(ctx, attempt.ID, 2, payload))

	events, err := store.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventCheckoutCompleted, events[0].EventType)
	assert.Equal(t, attempt.ID, events[0].AggregateID)

	var status string
	var created int
	err = store.db.QueryRowContext(ctx,
		`SELECT status, orders_created FROM checkout_attempts WHERE id = $1`, attempt.ID).
		Scan(&status, &created)
	require.NoError(t, err)
	assert.Equal(t, string(domain.CheckoutStatusSucceeded), status)
	assert.Equal(t, 2, created)
}

func TestMarkEventAsProcessed(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	attempt := testAttempt()
	require.NoError(t, store.CreateAttempt(ctx, attempt))
	require.NoError(t, store.CompleteAttempt(ctx, attempt.ID, 1, []byte(`{}`)))

	events, err := store.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, store.MarkEventAsProcessed(ctx, events[0].ID))

	events, err = store.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestGetUnpublishedAttempts(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	completed := testAttempt()
	require.NoError(t, store.CreateAttempt(ctx, completed))
	require.NoError(t, store.CompleteAttempt(ctx, completed.ID, 1, []byte(`{}`)))

	// Simulate a succeeded attempt whose outbox row is missing.
	orphan := testAttempt()
	require.NoError(t, store.CreateAttempt(ctx, orphan))
	_, err := store.db.ExecContext(ctx,
		`UPDATE checkout_attempts SET status = $2 WHERE id = $1`,
		orphan.ID, domain.CheckoutStatusSucceeded)
	require.NoError(t, err)

	attempts, err := store.GetUnpublishedAttempts(ctx)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, orphan.ID, attempts[0].ID)
}

func TestContextCancellation(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()

	time.Sleep(10 * time.Millisecond) // Ensure context is cancelled

	_, err := store.GetUnprocessedEvents(ctx, 10)
	assert.Error(t, err)
}
