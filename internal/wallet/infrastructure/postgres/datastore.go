package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ecowallet/internal/common/metrics"
	"ecowallet/internal/wallet/domain"
)

// DataStore implements domain.AtomicExecutor and domain.Repositories over a
// pgx pool.
type DataStore struct {
	pool            *pgxpool.Pool
	accountRepo     *AccountRepository
	transactionRepo *TransactionRepository
	outboxRepo      *OutboxRepository
}

// NewDataStore creates a new DataStore with the given connection pool.
func NewDataStore(pool *pgxpool.Pool) *DataStore {
	return &DataStore{
		pool:            pool,
		accountRepo:     NewAccountRepository(pool),
		transactionRepo: NewTransactionRepository(pool),
		outboxRepo:      NewOutboxRepository(pool),
	}
}

// Accounts returns the account repository.
func (ds *DataStore) Accounts() domain.AccountRepository {
	return ds.accountRepo
}

// Transactions returns the transaction repository.
func (ds *DataStore) Transactions() domain.TransactionRepository {
	return ds.transactionRepo
}

// Outbox returns the outbox repository.
func (ds *DataStore) Outbox() domain.OutboxRepository {
	return ds.outboxRepo
}

// withTx creates a DataStore whose repositories share tx.
func (ds *DataStore) withTx(tx pgx.Tx) *DataStore {
	return &DataStore{
		pool:            ds.pool,
		accountRepo:     NewAccountRepository(tx),
		transactionRepo: NewTransactionRepository(tx),
		outboxRepo:      NewOutboxRepository(tx),
	}
}

// Atomic executes the callback within a database transaction.
// If the callback returns nil, the transaction is committed.
// If the callback returns an error or panics, the transaction is rolled back.
func (ds *DataStore) Atomic(ctx context.Context, fn domain.AtomicCallback) (err error) {
	started := time.Now()
	tx, err := ds.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				err = fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
			}
		} else {
			err = tx.Commit(ctx)
			if err != nil {
				err = fmt.Errorf("commit transaction: %w", err)
			}
		}
		metrics.RecordTransactionDuration("atomic", time.Since(started))
	}()

	err = fn(ds.withTx(tx))
	return
}

// RecordPoolStats publishes the connection pool gauges.
func (ds *DataStore) RecordPoolStats() {
	stat := ds.pool.Stat()
	metrics.RecordPoolStats(stat.AcquiredConns(), stat.IdleConns())
}

// Verify interface implementations.
var (
	_ domain.AtomicExecutor = (*DataStore)(nil)
	_ domain.Repositories   = (*DataStore)(nil)
)

// OutboxBacklog reports the unpublished outbox backlog.
func (ds *DataStore) OutboxBacklog(ctx context.Context) (int, time.Duration, error) {
	return ds.outboxRepo.Backlog(ctx)
}
