package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	vo "ecowallet/internal/common/value_objects"
)

// SchemaVersion is stamped on every published wallet event. Consumers reject
// envelopes with a newer major version.
const SchemaVersion = 1

// EventEnvelope is the body of one wallet event on the broker. Payload holds
// the event-specific JSON and is decoded by EventType.
type EventEnvelope struct {
	EventID       EventID
	EventType     string
	OccurredAt    time.Time
	UserID        vo.UserID
	CorrelationID vo.CorrelationID
	Payload       json.RawMessage
}

// RoutingKey places the event under prefix on a topic exchange, so that
// "wallet." and "charge.completed" give "wallet.charge.completed".
func (e EventEnvelope) RoutingKey(prefix string) string {
	return prefix + e.EventType
}

// DecodePayload decodes the payload into target.
func (e EventEnvelope) DecodePayload(target any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s has no payload", e.EventID)
	}
	return json.Unmarshal(e.Payload, target)
}

type envelopeWire struct {
	Version       int             `json:"version"`
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	UserID        string          `json:"user_id"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

func (e EventEnvelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelopeWire{
		Version:       SchemaVersion,
		EventID:       e.EventID.String(),
		EventType:     e.EventType,
		OccurredAt:    e.OccurredAt,
		UserID:        e.UserID.String(),
		CorrelationID: e.CorrelationID.String(),
		Payload:       e.Payload,
	})
}

// UnmarshalJSON accepts envelopes without a correlation ID. A missing
// version is read as the first one.
func (e *EventEnvelope) UnmarshalJSON(data []byte) error {
	var w envelopeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Version > SchemaVersion {
		return fmt.Errorf("event envelope version %d is newer than %d", w.Version, SchemaVersion)
	}
	if w.EventType == "" {
		return errors.New("event_type: missing")
	}

	eventID, err := ParseEventID(w.EventID)
	if err != nil {
		return err
	}
	userID, err := vo.ParseUserID(w.UserID)
	if err != nil {
		return err
	}
	var correlationID vo.CorrelationID
	if w.CorrelationID != "" {
		if correlationID, err = vo.ParseCorrelationID(w.CorrelationID); err != nil {
			return err
		}
	}

	*e = EventEnvelope{
		EventID:       eventID,
		EventType:     w.EventType,
		OccurredAt:    w.OccurredAt,
		UserID:        userID,
		CorrelationID: correlationID,
		Payload:       w.Payload,
	}
	return nil
}
