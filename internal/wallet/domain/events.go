package domain

import (
	"context"
	"encoding/json"
	"time"

	"ecowallet/internal/common/events"
	vo "ecowallet/internal/common/value_objects"
)

// Event types written to the outbox.
const (
	EventTypeChargeCompleted    = "charge.completed"
	EventTypeTransferCompleted  = "transfer.completed"
	EventTypePaymentCompleted   = "payment.completed"
	EventTypeDonationCompleted  = "donation.completed"
	EventTypeTransactionCreated = "transaction.created"
	EventTypeTransactionUpdated = "transaction.updated"
	EventTypeTransactionDeleted = "transaction.deleted"
)

// TransactionEvent is the payload of every money and history event.
type TransactionEvent struct {
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	Type          TransactionType `json:"type"`
	Amount        int64           `json:"amount"`
	Description   string          `json:"description"`
	Counterparty  string          `json:"counterparty,omitempty"`
	Balance       *int64          `json:"regular_balance,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// OutboxEntry represents a wallet event waiting to be published.
type OutboxEntry struct {
	ID            events.EventID
	EventType     string
	UserID        vo.UserID
	CorrelationID vo.CorrelationID
	Payload       []byte
	OccurredAt    time.Time
	PublishedAt   *time.Time
}

// Envelope converts the entry into the published message form.
func (e *OutboxEntry) Envelope() events.EventEnvelope {
	return events.EventEnvelope{
		EventID:       e.ID,
		EventType:     e.EventType,
		OccurredAt:    e.OccurredAt,
		UserID:        e.UserID,
		CorrelationID: e.CorrelationID,
		Payload:       e.Payload,
	}
}

// NewTransactionOutboxEntry creates an outbox entry for a transaction event.
// regularBalance may be nil for events that do not move money.
func NewTransactionOutboxEntry(
	eventType string,
	userID vo.UserID,
	tx Transaction,
	counterparty string,
	regularBalance *int64,
	correlationID vo.CorrelationID,
) (*OutboxEntry, error) {
	event := TransactionEvent{
		TransactionID: tx.ID.String(),
		UserID:        userID.String(),
		Type:          tx.Type,
		Amount:        tx.Amount,
		Description:   tx.Description,
		Counterparty:  counterparty,
		Balance:       regularBalance,
		OccurredAt:    time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &OutboxEntry{
		ID:            events.NewEventID(),
		EventType:     eventType,
		UserID:        userID,
		CorrelationID: correlationID,
		Payload:       payload,
		OccurredAt:    event.OccurredAt,
	}, nil
}

// OutboxRepository defines the interface for the outbox pattern.
// Events are written to the outbox within the same transaction as the wallet
// changes, then published asynchronously by the relay.
type OutboxRepository interface {
	// Append adds an event to the outbox.
	Append(ctx context.Context, entry *OutboxEntry) error
	// FetchUnpublished retrieves unpublished events for publishing, oldest first.
	FetchUnpublished(ctx context.Context, limit int) ([]*OutboxEntry, error)
	// MarkPublished marks events as published.
	MarkPublished(ctx context.Context, ids []events.EventID) error
}
