// Package publisher drains the checkout outbox into Kafka so back-office
// consumers (order history, ticketing) get a completion feed without the
// checkout path ever talking to the broker directly.
package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/Vast-Academy/codeonwork-checkout/internal/repository"
	"github.com/segmentio/kafka-go"
)

const Topic = "checkout-events"

// Writer is the slice of kafka.Writer the poller needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OutboxPoller struct {
	eventTick    time.Duration
	recoveryTick time.Duration
	store        repository.StoreInterface
	writer       Writer
	log          *slog.Logger
}

func NewOutboxPoller(store repository.StoreInterface, log *slog.Logger, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{
		eventTick:    time.Second,
		recoveryTick: 5 * time.Second,
		store:        store,
		writer:       w,
		log:          log,
	}
}

// Close flushes and closes the underlying kafka writer.
func (p *OutboxPoller) Close() error {
	if c, ok := p.writer.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.recoverOrphanedAttempts(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.store.GetUnprocessedEvents(ctx, 100)
	if err != nil {
		p.log.Error("failed to fetch outbox events", "error", err)
		return
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.log.Error("failed to publish outbox event", "event", event.ID, "error", err)
			continue
		}

		if err := p.store.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.log.Error("failed to mark event as processed", "event", event.ID, "error", err)
			continue
		}
	}
}

// recoverOrphanedAttempts re-enqueues succeeded attempts that have no
// outbox row, so every completed checkout eventually reaches the topic.
func (p *OutboxPoller) recoverOrphanedAttempts(ctx context.Context) {
	attempts, err := p.store.GetUnpublishedAttempts(ctx)
	if err != nil {
		p.log.Error("failed to fetch unpublished attempts", "error", err)
		return
	}

	for _, attempt := range attempts {
		p.log.Warn("recovering attempt without outbox event", "attempt", attempt.ID)
		if err := p.store.CompleteAttempt(ctx, attempt.ID, attempt.OrdersCreated, attempt.CartSnapshot); err != nil {
			p.log.Error("failed to re-enqueue attempt", "attempt", attempt.ID, "error", err)
		}
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // attempt id for per-checkout ordering
		Value: event.Payload,             // already JSON from the database
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
