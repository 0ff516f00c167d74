package domain

import (
	"fmt"

	"github.com/google/uuid"

	vo "ecowallet/internal/common/value_objects"
)

// TransactionID uniquely identifies a transaction.
// It is a struct wrapper to prevent accidental type confusion at compile time.
type TransactionID struct {
	value string
}

// ParseTransactionID creates a TransactionID from a string, validating UUID format.
func ParseTransactionID(s string) (TransactionID, error) {
	if s == "" {
		return TransactionID{}, fmt.Errorf("transaction_id: %w", vo.ErrEmptyID)
	}
	if _, err := uuid.Parse(s); err != nil {
		return TransactionID{}, fmt.Errorf("transaction_id: %w", vo.ErrInvalidUUID)
	}
	return TransactionID{value: s}, nil
}

// NewTransactionID generates a new unique TransactionID.
func NewTransactionID() TransactionID {
	return TransactionID{value: uuid.NewString()}
}

// String returns the string representation of TransactionID.
func (t TransactionID) String() string {
	return t.value
}

// IsEmpty checks if the TransactionID is empty.
func (t TransactionID) IsEmpty() bool {
	return t.value == ""
}

// MarshalText implements encoding.TextMarshaler.
func (t TransactionID) MarshalText() ([]byte, error) {
	return []byte(t.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input leaves the
// ID empty so that create requests may omit it.
func (t *TransactionID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*t = TransactionID{}
		return nil
	}
	parsed, err := ParseTransactionID(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
