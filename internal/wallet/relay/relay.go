// Package relay publishes the wallet outbox to a message broker.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ecowallet/internal/common/events"
	"ecowallet/internal/common/logging"
	"ecowallet/internal/common/metrics"
	"ecowallet/internal/wallet/domain"
)

// RoutingKeyPrefix namespaces the routing keys of wallet events.
const RoutingKeyPrefix = "wallet."

// BacklogReporter is implemented by stores that can report the unpublished
// backlog.
type BacklogReporter interface {
	OutboxBacklog(ctx context.Context) (int, time.Duration, error)
}

// Relay moves outbox entries to a Publisher. Each batch is fetched, published
// and marked inside one atomic operation so that concurrent relays never
// publish the same entry twice.
type Relay struct {
	store     domain.AtomicExecutor
	publisher Publisher
	interval  time.Duration
	batchSize int
}

// New creates a Relay polling store every interval.
func New(store domain.AtomicExecutor, publisher Publisher, interval time.Duration, batchSize int) *Relay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Relay{store: store, publisher: publisher, interval: interval, batchSize: batchSize}
}

// NewMessage converts an outbox entry into its published form.
func NewMessage(entry *domain.OutboxEntry) (Message, error) {
	envelope := entry.Envelope()
	body, err := json.Marshal(envelope)
	if err != nil {
		return Message{}, fmt.Errorf("marshal event %s: %w", entry.ID, err)
	}
	return Message{
		ID:            entry.ID.String(),
		RoutingKey:    envelope.RoutingKey(RoutingKeyPrefix),
		CorrelationID: entry.CorrelationID.String(),
		Body:          body,
	}, nil
}

// RunOnce publishes one batch and returns how many entries were published.
// Entries published before a failure are still marked; the failing entry and
// the rest of the batch stay in the outbox for the next run.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	var (
		published  []events.EventID
		publishErr error
	)
	err := r.store.Atomic(ctx, func(repos domain.Repositories) error {
		published = published[:0]
		entries, err := repos.Outbox().FetchUnpublished(ctx, r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch unpublished: %w", err)
		}
		for _, entry := range entries {
			msg, err := NewMessage(entry)
			if err == nil {
				err = r.publisher.Publish(ctx, msg)
			}
			metrics.RecordOutboxPublished(entry.EventType, err == nil)
			if err != nil {
				publishErr = err
				break
			}
			published = append(published, entry.ID)
		}
		if len(published) == 0 {
			return nil
		}
		return repos.Outbox().MarkPublished(ctx, published)
	})
	if err != nil {
		return 0, err
	}
	return len(published), publishErr
}

// Run publishes batches until ctx is canceled. A full batch is followed
// immediately by another one; otherwise the relay waits for the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logging.InfoContext(ctx, "Outbox relay started",
		"interval", r.interval.String(),
		"batch_size", r.batchSize,
	)
	for {
		n, err := r.RunOnce(ctx)
		switch {
		case ctx.Err() != nil:
			logging.InfoContext(ctx, "Outbox relay stopped")
			return nil
		case err != nil:
			logging.WarnContext(ctx, "Outbox relay batch failed", "published", n, "error", err)
		case n > 0:
			logging.DebugContext(ctx, "Outbox relay batch published", "published", n)
		}
		r.reportBacklog(ctx)

		if err == nil && n == r.batchSize {
			continue
		}
		select {
		case <-ctx.Done():
			logging.InfoContext(ctx, "Outbox relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (r *Relay) reportBacklog(ctx context.Context) {
	reporter, ok := r.store.(BacklogReporter)
	if !ok {
		return
	}
	pending, oldest, err := reporter.OutboxBacklog(ctx)
	if err != nil {
		logging.WarnContext(ctx, "Failed to read outbox backlog", "error", err)
		return
	}
	metrics.RecordOutboxBacklog(pending, oldest)
}
