package application

import (
	"context"
	"sync"
	"time"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/result"
	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/domain"
)

// TransactionStore holds the transaction history of one wallet, newest first.
type TransactionStore struct {
	tracker
	userID        vo.UserID
	transport     domain.TransactionTransport
	clock         func() time.Time
	windowMinutes int

	stateMu      sync.RWMutex
	transactions []domain.Transaction
}

// NewTransactionStore creates a store with an empty history. windowMinutes
// configures duplicate detection; non-positive values use the default.
func NewTransactionStore(userID vo.UserID, transport domain.TransactionTransport, notifier Notifier, clock func() time.Time, windowMinutes int) *TransactionStore {
	if clock == nil {
		clock = time.Now
	}
	if windowMinutes <= 0 {
		windowMinutes = domain.DefaultDuplicateWindowMinutes
	}
	return &TransactionStore{
		tracker:       newTracker(notifier),
		userID:        userID,
		transport:     transport,
		clock:         clock,
		windowMinutes: windowMinutes,
		transactions:  []domain.Transaction{},
	}
}

// Reset restores the initial state.
func (s *TransactionStore) Reset() {
	s.stateMu.Lock()
	s.transactions = []domain.Transaction{}
	s.stateMu.Unlock()
	s.resetStatus()
}

// Transactions returns a copy of the history.
func (s *TransactionStore) Transactions() []domain.Transaction {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return append([]domain.Transaction{}, s.transactions...)
}

// Summary aggregates the history.
func (s *TransactionStore) Summary() domain.TransactionSummary {
	return domain.AggregateTransactions(s.Transactions())
}

// FindDuplicate looks for a recorded transaction matching candidate within
// windowMinutes of now.
func (s *TransactionStore) FindDuplicate(candidate domain.Transaction, windowMinutes int, now time.Time) result.Result[*domain.Transaction] {
	return domain.CheckTransactionDuplicate(candidate, s.Transactions(), windowMinutes, now)
}

// Prepend records a transaction produced by another action.
func (s *TransactionStore) Prepend(tx domain.Transaction) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.transactions = append([]domain.Transaction{tx}, s.transactions...)
}

func (s *TransactionStore) replace(txs []domain.Transaction) {
	if txs == nil {
		txs = []domain.Transaction{}
	}
	s.stateMu.Lock()
	s.transactions = txs
	s.stateMu.Unlock()
}

func (s *TransactionStore) upsert(tx domain.Transaction) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == tx.ID {
			s.transactions[i] = tx
			return
		}
	}
	s.transactions = append([]domain.Transaction{tx}, s.transactions...)
}

func (s *TransactionStore) remove(id domain.TransactionID) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return
		}
	}
}

// FetchTransactions loads the history from the transport.
func (s *TransactionStore) FetchTransactions(ctx context.Context) result.Result[[]domain.Transaction] {
	a := action{name: "fetch_transactions", fallback: failure.AsNetworkError}
	return run(ctx, &s.tracker, a, func(ctx context.Context) result.Result[[]domain.Transaction] {
		return s.transport.FetchTransactions(ctx, s.userID).OnOk(s.replace)
	})
}

// CreateTransaction validates in, rejects duplicates of recent entries and
// records the transaction.
func (s *TransactionStore) CreateTransaction(ctx context.Context, in domain.TransactionInput) result.Result[domain.Transaction] {
	const op = "create_transaction"
	now := s.clock()
	validated := result.AndThen(domain.ValidateTransaction(in, now), func(tx domain.Transaction) result.Result[domain.Transaction] {
		dup := s.FindDuplicate(tx, s.windowMinutes, now)
		if dup.IsErr() {
			return result.Err[domain.Transaction](dup.Failure())
		}
		if match := dup.Value(); match != nil {
			return result.Err[domain.Transaction](failure.Conflict{Message: "duplicate of transaction " + match.ID.String()})
		}
		return result.Ok(tx)
	})
	if validated.IsErr() {
		return rejected[domain.Transaction](ctx, &s.tracker, op, validated.Failure())
	}

	a := action{name: op, fallback: failure.AsPaymentFailed}
	return run(ctx, &s.tracker, a, func(ctx context.Context) result.Result[domain.Transaction] {
		return s.transport.CreateTransaction(ctx, s.userID, validated.Value()).OnOk(s.Prepend)
	})
}

// UpdateTransaction changes the metadata of a recorded transaction. Amount and
// type cannot change.
func (s *TransactionStore) UpdateTransaction(ctx context.Context, id domain.TransactionID, patch domain.TransactionPatch) result.Result[domain.Transaction] {
	const op = "update_transaction"
	if id.IsEmpty() {
		return rejected[domain.Transaction](ctx, &s.tracker, op, failure.RequiredField{Field: "id"})
	}
	validated := domain.ValidatePatch(patch, s.clock())
	if validated.IsErr() {
		return rejected[domain.Transaction](ctx, &s.tracker, op, validated.Failure())
	}

	a := action{name: op, fallback: failure.AsPaymentFailed}
	return run(ctx, &s.tracker, a, func(ctx context.Context) result.Result[domain.Transaction] {
		return s.transport.UpdateTransaction(ctx, s.userID, id, validated.Value()).OnOk(s.upsert)
	})
}

// DeleteTransaction removes a transaction from the history.
func (s *TransactionStore) DeleteTransaction(ctx context.Context, id domain.TransactionID) result.Result[domain.TransactionID] {
	const op = "delete_transaction"
	if id.IsEmpty() {
		return rejected[domain.TransactionID](ctx, &s.tracker, op, failure.RequiredField{Field: "id"})
	}

	a := action{name: op, fallback: failure.AsPaymentFailed}
	return run(ctx, &s.tracker, a, func(ctx context.Context) result.Result[domain.TransactionID] {
		return s.transport.DeleteTransaction(ctx, s.userID, id).OnOk(s.remove)
	})
}
