package domain

import "errors"

// Storage errors returned by wallet backends. Orchestrators convert them into
// failures at the transport boundary.
var (
	// ErrTransactionNotFound is returned when a transaction cannot be found.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrWalletNotFound is returned when no wallet exists for a user.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrCampaignNotFound is returned when a campaign credit cannot be found.
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrCorruptData is returned when data loaded from persistence is invalid.
	ErrCorruptData = errors.New("corrupt data in database")

	// ErrEmptyUserID is returned when a required user ID is empty.
	ErrEmptyUserID = errors.New("user_id is required")
)
