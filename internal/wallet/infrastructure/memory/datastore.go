package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"ecowallet/internal/common/events"
	"ecowallet/internal/common/logging"
	"ecowallet/internal/common/metrics"
	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/domain"
)

// DataStore implements domain.AtomicExecutor and domain.Repositories in memory.
// Callbacks run against staged copies that are applied only when the callback
// succeeds, so a failed operation leaves no trace.
// Concurrency: all access is guarded by a mutex.
type DataStore struct {
	mu           sync.Mutex
	accounts     map[vo.UserID]*domain.Account
	transactions map[vo.UserID]map[domain.TransactionID]domain.Transaction
	outbox       []*domain.OutboxEntry
	// outboxCapacity bounds the unpublished backlog; zero means unbounded.
	outboxCapacity int
	clock          func() time.Time
}

// Option configures a DataStore.
type Option func(*DataStore)

// WithOutboxCapacity keeps at most n unpublished events, dropping the oldest
// once the limit is reached. Use it when no relay drains the outbox.
func WithOutboxCapacity(n int) Option {
	return func(ds *DataStore) {
		if n > 0 {
			ds.outboxCapacity = n
		}
	}
}

var _ interface {
	domain.AtomicExecutor
	domain.Repositories
} = (*DataStore)(nil)

// NewDataStore creates an empty DataStore.
func NewDataStore(opts ...Option) *DataStore {
	ds := &DataStore{
		accounts:     make(map[vo.UserID]*domain.Account),
		transactions: make(map[vo.UserID]map[domain.TransactionID]domain.Transaction),
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(ds)
	}
	return ds
}

// Accounts returns an account repository that commits each call on its own.
func (ds *DataStore) Accounts() domain.AccountRepository {
	return autoAccounts{ds: ds}
}

// Transactions returns a transaction repository that commits each call on its own.
func (ds *DataStore) Transactions() domain.TransactionRepository {
	return autoTransactions{ds: ds}
}

// Outbox returns an outbox repository that commits each call on its own.
func (ds *DataStore) Outbox() domain.OutboxRepository {
	return autoOutbox{ds: ds}
}

// Atomic executes the callback against a staged view of the store and commits
// the staged changes only if the callback succeeds.
// Concurrency: the store is locked for the duration of the callback.
func (ds *DataStore) Atomic(ctx context.Context, fn domain.AtomicCallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()

	tx := &stagedView{
		parent:    ds,
		accounts:  make(map[vo.UserID]*domain.Account),
		saved:     make(map[vo.UserID]map[domain.TransactionID]domain.Transaction),
		deleted:   make(map[vo.UserID]map[domain.TransactionID]bool),
		published: make(map[events.EventID]bool),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// Len reports the number of stored accounts.
func (ds *DataStore) Len() int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return len(ds.accounts)
}

// OutboxBacklog reports the number of unpublished events and the age of the
// oldest one.
func (ds *DataStore) OutboxBacklog(_ context.Context) (int, time.Duration, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	var (
		pending int
		oldest  time.Duration
	)
	now := ds.clock()
	for _, entry := range ds.outbox {
		if entry.PublishedAt != nil {
			continue
		}
		pending++
		oldest = max(oldest, now.Sub(entry.OccurredAt))
	}
	return pending, oldest, nil
}

type stagedView struct {
	parent    *DataStore
	accounts  map[vo.UserID]*domain.Account
	saved     map[vo.UserID]map[domain.TransactionID]domain.Transaction
	deleted   map[vo.UserID]map[domain.TransactionID]bool
	outbox    []*domain.OutboxEntry
	published map[events.EventID]bool
}

func (v *stagedView) Accounts() domain.AccountRepository         { return stagedAccounts{v} }
func (v *stagedView) Transactions() domain.TransactionRepository { return stagedTransactions{v} }
func (v *stagedView) Outbox() domain.OutboxRepository            { return stagedOutbox{v} }

func (v *stagedView) commit() {
	ds := v.parent
	for id, account := range v.accounts {
		ds.accounts[id] = account
	}
	for userID, ids := range v.deleted {
		for id := range ids {
			delete(ds.transactions[userID], id)
		}
	}
	for userID, txs := range v.saved {
		if ds.transactions[userID] == nil {
			ds.transactions[userID] = make(map[domain.TransactionID]domain.Transaction)
		}
		for id, tx := range txs {
			ds.transactions[userID][id] = tx
		}
	}
	ds.outbox = append(ds.outbox, v.outbox...)
	if len(v.published) > 0 {
		// published events are not kept in memory
		ds.outbox = slices.DeleteFunc(ds.outbox, func(entry *domain.OutboxEntry) bool {
			return v.published[entry.ID] || entry.PublishedAt != nil
		})
	}
	if ds.outboxCapacity > 0 && len(ds.outbox) > ds.outboxCapacity {
		dropped := len(ds.outbox) - ds.outboxCapacity
		ds.outbox = slices.Delete(ds.outbox, 0, dropped)
		metrics.RecordOutboxDropped(dropped)
		logging.Debug("Dropped unpublished outbox events", "count", dropped, "capacity", ds.outboxCapacity)
	}
}

type stagedAccounts struct{ v *stagedView }

func (r stagedAccounts) FindByUserID(_ context.Context, userID vo.UserID) (*domain.Account, error) {
	if account, ok := r.v.accounts[userID]; ok {
		return account.Clone(), nil
	}
	if account, ok := r.v.parent.accounts[userID]; ok {
		return account.Clone(), nil
	}
	return nil, domain.ErrWalletNotFound
}

func (r stagedAccounts) Save(_ context.Context, account *domain.Account) error {
	if account.UserID.IsEmpty() {
		return domain.ErrEmptyUserID
	}
	current, ok := r.v.accounts[account.UserID]
	if !ok {
		current, ok = r.v.parent.accounts[account.UserID]
	}
	if ok && current.Version != account.Version {
		return domain.ErrOptimisticLock
	}
	if !ok && account.Version != 0 {
		return domain.ErrOptimisticLock
	}
	account.Version++
	r.v.accounts[account.UserID] = account.Clone()
	return nil
}

type stagedTransactions struct{ v *stagedView }

func (r stagedTransactions) ListByUserID(_ context.Context, userID vo.UserID) ([]domain.Transaction, error) {
	merged := make(map[domain.TransactionID]domain.Transaction)
	for id, tx := range r.v.parent.transactions[userID] {
		merged[id] = tx
	}
	for id := range r.v.deleted[userID] {
		delete(merged, id)
	}
	for id, tx := range r.v.saved[userID] {
		merged[id] = tx
	}
	out := make([]domain.Transaction, 0, len(merged))
	for _, tx := range merged {
		out = append(out, tx)
	}
	slices.SortFunc(out, func(a, b domain.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (r stagedTransactions) FindByID(_ context.Context, userID vo.UserID, id domain.TransactionID) (domain.Transaction, error) {
	if tx, ok := r.v.saved[userID][id]; ok {
		return tx, nil
	}
	if r.v.deleted[userID][id] {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}
	if tx, ok := r.v.parent.transactions[userID][id]; ok {
		return tx, nil
	}
	return domain.Transaction{}, domain.ErrTransactionNotFound
}

func (r stagedTransactions) Save(_ context.Context, userID vo.UserID, tx domain.Transaction) error {
	if userID.IsEmpty() {
		return domain.ErrEmptyUserID
	}
	if r.v.saved[userID] == nil {
		r.v.saved[userID] = make(map[domain.TransactionID]domain.Transaction)
	}
	r.v.saved[userID][tx.ID] = tx
	delete(r.v.deleted[userID], tx.ID)
	return nil
}

func (r stagedTransactions) Delete(ctx context.Context, userID vo.UserID, id domain.TransactionID) error {
	if _, err := r.FindByID(ctx, userID, id); err != nil {
		return err
	}
	delete(r.v.saved[userID], id)
	if r.v.deleted[userID] == nil {
		r.v.deleted[userID] = make(map[domain.TransactionID]bool)
	}
	r.v.deleted[userID][id] = true
	return nil
}

type stagedOutbox struct{ v *stagedView }

func (r stagedOutbox) Append(_ context.Context, entry *domain.OutboxEntry) error {
	r.v.outbox = append(r.v.outbox, entry)
	return nil
}

func (r stagedOutbox) FetchUnpublished(_ context.Context, limit int) ([]*domain.OutboxEntry, error) {
	var entries []*domain.OutboxEntry
	for _, entry := range r.v.parent.outbox {
		if entry.PublishedAt == nil && !r.v.published[entry.ID] {
			entries = append(entries, entry)
			if len(entries) >= limit {
				break
			}
		}
	}
	return entries, nil
}

func (r stagedOutbox) MarkPublished(_ context.Context, ids []events.EventID) error {
	for _, id := range ids {
		r.v.published[id] = true
	}
	return nil
}

// Auto-commit repositories used outside Atomic.

type autoAccounts struct{ ds *DataStore }

func (r autoAccounts) FindByUserID(ctx context.Context, userID vo.UserID) (account *domain.Account, err error) {
	err = r.ds.Atomic(ctx, func(repos domain.Repositories) error {
		account, err = repos.Accounts().FindByUserID(ctx, userID)
		return err
	})
	return account, err
}

func (r autoAccounts) Save(ctx context.Context, account *domain.Account) error {
	return r.ds.Atomic(ctx, func(repos domain.Repositories) error {
		return repos.Accounts().Save(ctx, account)
	})
}

type autoTransactions struct{ ds *DataStore }

func (r autoTransactions) ListByUserID(ctx context.Context, userID vo.UserID) (txs []domain.Transaction, err error) {
	err = r.ds.Atomic(ctx, func(repos domain.Repositories) error {
		txs, err = repos.Transactions().ListByUserID(ctx, userID)
		return err
	})
	return txs, err
}

func (r autoTransactions) FindByID(ctx context.Context, userID vo.UserID, id domain.TransactionID) (tx domain.Transaction, err error) {
	err = r.ds.Atomic(ctx, func(repos domain.Repositories) error {
		tx, err = repos.Transactions().FindByID(ctx, userID, id)
		return err
	})
	return tx, err
}

func (r autoTransactions) Save(ctx context.Context, userID vo.UserID, tx domain.Transaction) error {
	return r.ds.Atomic(ctx, func(repos domain.Repositories) error {
		return repos.Transactions().Save(ctx, userID, tx)
	})
}

func (r autoTransactions) Delete(ctx context.Context, userID vo.UserID, id domain.TransactionID) error {
	return r.ds.Atomic(ctx, func(repos domain.Repositories) error {
		return repos.Transactions().Delete(ctx, userID, id)
	})
}

type autoOutbox struct{ ds *DataStore }

func (r autoOutbox) Append(ctx context.Context, entry *domain.OutboxEntry) error {
	return r.ds.Atomic(ctx, func(repos domain.Repositories) error {
		return repos.Outbox().Append(ctx, entry)
	})
}

func (r autoOutbox) FetchUnpublished(ctx context.Context, limit int) (entries []*domain.OutboxEntry, err error) {
	err = r.ds.Atomic(ctx, func(repos domain.Repositories) error {
		entries, err = repos.Outbox().FetchUnpublished(ctx, limit)
		return err
	})
	return entries, err
}

func (r autoOutbox) MarkPublished(ctx context.Context, ids []events.EventID) error {
	return r.ds.Atomic(ctx, func(repos domain.Repositories) error {
		return repos.Outbox().MarkPublished(ctx, ids)
	})
}
