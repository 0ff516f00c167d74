package valueobjects

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrEmptyID is returned when parsing an empty string as an ID.
var ErrEmptyID = errors.New("id cannot be empty")

// ErrInvalidUUID is returned when parsing an invalid UUID format.
var ErrInvalidUUID = errors.New("invalid uuid format")

// UserID identifies the owner of a wallet.
// It is a struct wrapper to prevent accidental type confusion at compile time.
type UserID struct {
	value string
}

// ParseUserID creates a UserID from a string, validating it is non-empty.
func ParseUserID(s string) (UserID, error) {
	if s == "" {
		return UserID{}, fmt.Errorf("user_id: %w", ErrEmptyID)
	}
	return UserID{value: s}, nil
}

// MustParseUserID creates a UserID from a string, panicking on invalid input.
// Use only in tests or initialization code where panicking is acceptable.
func MustParseUserID(s string) UserID {
	u, err := ParseUserID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// String returns the string representation of UserID.
func (u UserID) String() string {
	return u.value
}

// IsEmpty checks if the UserID is empty.
func (u UserID) IsEmpty() bool {
	return u.value == ""
}

// MarshalText implements encoding.TextMarshaler.
func (u UserID) MarshalText() ([]byte, error) {
	return []byte(u.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// CorrelationID tracks a request across service boundaries.
// It is a struct wrapper to prevent accidental type confusion at compile time.
type CorrelationID struct {
	value string
}

// ParseCorrelationID creates a CorrelationID from a string, validating it is non-empty.
func ParseCorrelationID(s string) (CorrelationID, error) {
	if s == "" {
		return CorrelationID{}, fmt.Errorf("correlation_id: %w", ErrEmptyID)
	}
	return CorrelationID{value: s}, nil
}

// NewCorrelationID generates a new unique CorrelationID.
func NewCorrelationID() CorrelationID {
	return CorrelationID{value: uuid.NewString()}
}

// String returns the string representation of CorrelationID.
func (c CorrelationID) String() string {
	return c.value
}

// IsEmpty checks if the CorrelationID is empty.
func (c CorrelationID) IsEmpty() bool {
	return c.value == ""
}
