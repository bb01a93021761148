// Package repository persists checkout attempts and their outbox events in
// postgres. An attempt row is the immutable audit record of the cart at
// submission time; it is written before any money moves so a partial
// failure can always be reconstructed.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Vast-Academy/codeonwork-checkout/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

var ErrAttemptNotFound = errors.New("checkout attempt not found")

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Attempt is one checkout submission. CartSnapshot is the JSON-encoded
// cart state captured before the wallet debit.
type Attempt struct {
	ID            string
	SessionKey    string
	CartSnapshot  []byte
	PayableTotal  float64
	Status        domain.CheckoutStatus
	FailureReason string
	OrdersCreated int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OutboxEvent struct {
	ID          int
	EventType   string
	AggregateID string
	Payload     []byte
	CreatedAt   time.Time
}

type StoreInterface interface {
	Close() error
	RunMigrations(*Credentials) error
	CreateAttempt(ctx context.Context, attempt *Attempt) error
	MarkAttemptFailed(ctx context.Context, id string, reason string, ordersCreated int) error
	CompleteAttempt(ctx context.Context, id string, ordersCreated int, payload []byte) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int) error
	GetUnpublishedAttempts(ctx context.Context) ([]*Attempt, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(cred *Credentials) (*Store, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Store{db: db}, nil
}

func (s *Store) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(s.db, &postgres.Config{
		MigrationsTable: "checkout_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
