package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"ecowallet/internal/common/events"
	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/domain"
)

// OutboxRepository implements domain.OutboxRepository using PostgreSQL.
//
// Events are written to the outbox within the same transaction as the wallet
// changes, then published asynchronously by the relay.
type OutboxRepository struct {
	db Executor
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(db Executor) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Append adds an event to the outbox.
func (r *OutboxRepository) Append(ctx context.Context, entry *domain.OutboxEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO wallet.outbox (event_id, event_type, user_id, correlation_id, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID.String(),
		entry.EventType,
		entry.UserID.String(),
		textFromString(entry.CorrelationID.String()),
		entry.Payload,
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// FetchUnpublished retrieves unpublished events for publishing.
// It locks rows with FOR UPDATE SKIP LOCKED to support concurrent relays,
// ordering by occurred_at to maintain event ordering.
func (r *OutboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT event_id, event_type, user_id, correlation_id, payload, occurred_at, published_at
		FROM wallet.outbox
		WHERE published_at IS NULL
		ORDER BY occurred_at, event_id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select outbox: %w", err)
	}
	defer rows.Close()

	var entries []*domain.OutboxEntry
	for rows.Next() {
		var (
			eventID, eventType, userID string
			correlationID              pgtype.Text
			payload                    []byte
			occurredAt                 time.Time
			publishedAt                *time.Time
		)
		if err := rows.Scan(&eventID, &eventType, &userID, &correlationID, &payload, &occurredAt, &publishedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}

		id, err := events.ParseEventID(eventID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCorruptData, err)
		}
		user, err := vo.ParseUserID(userID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCorruptData, err)
		}
		var correlation vo.CorrelationID
		if correlationID.Valid {
			correlation, _ = vo.ParseCorrelationID(correlationID.String)
		}

		entries = append(entries, &domain.OutboxEntry{
			ID:            id,
			EventType:     eventType,
			UserID:        user,
			CorrelationID: correlation,
			Payload:       payload,
			OccurredAt:    occurredAt,
			PublishedAt:   publishedAt,
		})
	}
	return entries, rows.Err()
}

// MarkPublished marks events as published.
// It is a no-op when the input list is empty.
func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []events.EventID) error {
	if len(ids) == 0 {
		return nil
	}

	stringIDs := make([]string, len(ids))
	for i, id := range ids {
		stringIDs[i] = id.String()
	}

	_, err := r.db.Exec(ctx, `
		UPDATE wallet.outbox SET published_at = $1
		WHERE event_id = ANY($2) AND published_at IS NULL`,
		time.Now(), stringIDs,
	)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// Backlog reports the number of unpublished events and the age of the oldest.
func (r *OutboxRepository) Backlog(ctx context.Context) (int, time.Duration, error) {
	var (
		pending int
		oldest  *time.Time
	)
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), MIN(occurred_at)
		FROM wallet.outbox
		WHERE published_at IS NULL`,
	).Scan(&pending, &oldest)
	if err != nil {
		return 0, 0, fmt.Errorf("select outbox backlog: %w", err)
	}
	if oldest == nil {
		return pending, 0, nil
	}
	return pending, time.Since(*oldest), nil
}

// Verify interface implementation.
var _ domain.OutboxRepository = (*OutboxRepository)(nil)
