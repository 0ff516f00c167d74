package domain

import (
	"context"
	"errors"

	vo "ecowallet/internal/common/value_objects"
)

// ErrOptimisticLock is returned when an account was modified concurrently.
var ErrOptimisticLock = errors.New("optimistic lock conflict")

// AccountRepository defines the interface for account persistence.
type AccountRepository interface {
	// FindByUserID retrieves the account of a user.
	// Returns ErrWalletNotFound when no record exists.
	FindByUserID(ctx context.Context, userID vo.UserID) (*Account, error)
	// Save persists an account aggregate and increments its version.
	// Implementations return ErrOptimisticLock if a version conflict is detected.
	Save(ctx context.Context, account *Account) error
}

// TransactionRepository defines the interface for transaction history persistence.
type TransactionRepository interface {
	// ListByUserID returns the history of a user, newest first.
	ListByUserID(ctx context.Context, userID vo.UserID) ([]Transaction, error)
	// FindByID returns ErrTransactionNotFound when no record exists.
	FindByID(ctx context.Context, userID vo.UserID, id TransactionID) (Transaction, error)
	// Save inserts or replaces a transaction.
	Save(ctx context.Context, userID vo.UserID, tx Transaction) error
	// Delete returns ErrTransactionNotFound when no record exists.
	Delete(ctx context.Context, userID vo.UserID, id TransactionID) error
}

// Repositories provides access to all repositories within a transaction.
// This is used with the Atomic pattern to ensure all operations share the same transaction.
type Repositories interface {
	Accounts() AccountRepository
	Transactions() TransactionRepository
	Outbox() OutboxRepository
}

// AtomicCallback is the function signature for atomic operations.
// Any error returned will cause the transaction to be rolled back.
type AtomicCallback func(repos Repositories) error

// AtomicExecutor runs a set of repository calls as one unit. Commits and
// rollbacks are left to the implementation.
//
// Example usage:
//
//	err := executor.Atomic(ctx, func(repos Repositories) error {
//	    account, err := repos.Accounts().FindByUserID(ctx, userID)
//	    if err != nil {
//	        return err
//	    }
//	    if f := account.Debit(amount, now); f != nil {
//	        return f
//	    }
//	    return repos.Accounts().Save(ctx, account)
//	})
type AtomicExecutor interface {
	// Atomic executes the callback within a database transaction.
	// If the callback returns nil, the transaction is committed.
	// If the callback returns an error, the transaction is rolled back.
	Atomic(ctx context.Context, fn AtomicCallback) error
}
