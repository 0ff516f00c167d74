// Package ledger is the server side of the wallet transports. It applies
// charges, transfers, payments and donations to persisted accounts and writes
// the resulting events to the outbox, all inside one atomic unit per call.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/logging"
	"ecowallet/internal/common/result"
	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/domain"
)

// DataStore is what the service needs from a storage backend.
type DataStore interface {
	domain.AtomicExecutor
	domain.Repositories
}

// Service implements domain.Transport over a DataStore.
type Service struct {
	store DataStore
	clock func() time.Time
}

var _ domain.Transport = (*Service)(nil)

// NewService creates a Service. A nil clock uses time.Now.
func NewService(store DataStore, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, clock: clock}
}

// toFailure converts storage errors into failures.
func toFailure(err error, fallback failure.Fallback) failure.Failure {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrTransactionNotFound):
		return failure.NotFound{Resource: "transaction"}
	case errors.Is(err, domain.ErrWalletNotFound):
		return failure.NotFound{Resource: "wallet"}
	case errors.Is(err, domain.ErrCampaignNotFound):
		return failure.NotFound{Resource: "campaign"}
	case errors.Is(err, domain.ErrOptimisticLock):
		return failure.Conflict{Message: "wallet was modified concurrently"}
	default:
		return failure.FromError(err, fallback)
	}
}

func finish[T any](ctx context.Context, op string, value T, err error, fallback failure.Fallback) result.Result[T] {
	if err != nil {
		f := toFailure(err, fallback)
		if f.Family() == failure.FamilyTransport || f.Kind() == failure.KindPaymentFailed {
			logging.ErrorContext(ctx, "ledger operation failed", append([]any{"operation", op, "cause", err.Error()}, logging.FailureAttrs(f)...)...)
		}
		return result.Err[T](f)
	}
	return result.Ok(value)
}

// loadOrOpen returns the account of userID, or a new unsaved one.
func loadOrOpen(ctx context.Context, repos domain.Repositories, userID vo.UserID, now time.Time) (*domain.Account, error) {
	account, err := repos.Accounts().FindByUserID(ctx, userID)
	if errors.Is(err, domain.ErrWalletNotFound) {
		return domain.NewAccount(userID, now), nil
	}
	return account, err
}

func appendEvent(ctx context.Context, repos domain.Repositories, eventType string, userID vo.UserID, tx domain.Transaction, counterparty string, balance *int64) error {
	entry, err := domain.NewTransactionOutboxEntry(eventType, userID, tx, counterparty, balance, logging.CorrelationIDFromContext(ctx))
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	return repos.Outbox().Append(ctx, entry)
}

// FetchBalance returns the balance of userID. Unknown users have an empty balance.
func (s *Service) FetchBalance(ctx context.Context, userID vo.UserID) result.Result[domain.Balance] {
	now := s.clock()
	var balance domain.Balance
	err := s.store.Atomic(ctx, func(repos domain.Repositories) error {
		account, err := loadOrOpen(ctx, repos, userID, now)
		if err != nil {
			return err
		}
		balance = account.Balance(now)
		return nil
	})
	return finish(ctx, "fetch_balance", balance, err, failure.AsNetworkError)
}

// Charge credits the regular balance, opening the wallet on first use.
func (s *Service) Charge(ctx context.Context, req domain.ChargeRequest) result.Result[domain.BalanceMutation] {
	if f := checkCharge(req); f != nil {
		return result.Err[domain.BalanceMutation](f)
	}
	now := s.clock()
	var out domain.BalanceMutation
	err := s.store.Atomic(ctx, func(repos domain.Repositories) error {
		account, err := loadOrOpen(ctx, repos, req.UserID, now)
		if err != nil {
			return err
		}
		account.Credit(req.Amount, now)

		tx := domain.Transaction{
			ID:          domain.NewTransactionID(),
			Type:        domain.TransactionTypeCharge,
			Amount:      req.Amount,
			Description: "チャージ",
			Date:        now,
		}
		if err := s.commit(ctx, repos, account, tx); err != nil {
			return err
		}
		regular := account.RegularBalance
		if err := appendEvent(ctx, repos, domain.EventTypeChargeCompleted, req.UserID, tx, "", &regular); err != nil {
			return err
		}
		out = domain.BalanceMutation{Balance: account.Balance(now), Transaction: tx}
		return nil
	})
	return finish(ctx, "charge", out, err, failure.AsPaymentFailed)
}

// Transfer debits the sender and credits an existing recipient wallet.
func (s *Service) Transfer(ctx context.Context, req domain.TransferRequest) result.Result[domain.BalanceMutation] {
	now := s.clock()
	var out domain.BalanceMutation
	err := s.store.Atomic(ctx, func(repos domain.Repositories) error {
		if req.UserID == req.RecipientID {
			return failure.TransferToSelf{}
		}
		sender, err := loadOrOpen(ctx, repos, req.UserID, now)
		if err != nil {
			return err
		}
		recipient, err := repos.Accounts().FindByUserID(ctx, req.RecipientID)
		if err != nil {
			return err
		}
		if f := checkTransfer(req, sender.Available(now)); f != nil {
			return f
		}
		if f := sender.Debit(req.Amount, now); f != nil {
			return f
		}
		recipient.Credit(req.Amount, now)

		description := strings.TrimSpace(req.Message)
		if description == "" {
			description = "送金"
		}
		sent := domain.Transaction{
			ID:          domain.NewTransactionID(),
			Type:        domain.TransactionTypePayment,
			Amount:      -req.Amount,
			Description: description,
			Date:        now,
			SplitInfo:   req.SplitInfo,
		}
		received := domain.Transaction{
			ID:          domain.NewTransactionID(),
			Type:        domain.TransactionTypeReceive,
			Amount:      req.Amount,
			Description: description,
			Date:        now,
		}
		if err := s.commit(ctx, repos, sender, sent); err != nil {
			return err
		}
		if err := s.commit(ctx, repos, recipient, received); err != nil {
			return err
		}
		regular := sender.RegularBalance
		if err := appendEvent(ctx, repos, domain.EventTypeTransferCompleted, req.UserID, sent, req.RecipientID.String(), &regular); err != nil {
			return err
		}
		out = domain.BalanceMutation{Balance: sender.Balance(now), Transaction: sent}
		return nil
	})
	return finish(ctx, "transfer", out, err, failure.AsPaymentFailed)
}

// Pay debits the wallet for a merchant payment.
func (s *Service) Pay(ctx context.Context, req domain.PaymentRequest) result.Result[domain.BalanceMutation] {
	if f := checkPayment(req); f != nil {
		return result.Err[domain.BalanceMutation](f)
	}
	now := s.clock()
	var out domain.BalanceMutation
	err := s.store.Atomic(ctx, func(repos domain.Repositories) error {
		account, err := loadOrOpen(ctx, repos, req.UserID, now)
		if err != nil {
			return err
		}
		if f := account.Debit(req.Amount, now); f != nil {
			return f
		}
		tx := domain.Transaction{
			ID:          domain.NewTransactionID(),
			Type:        domain.TransactionTypePayment,
			Amount:      -req.Amount,
			Description: req.MerchantName,
			Date:        now,
		}
		if err := s.commit(ctx, repos, account, tx); err != nil {
			return err
		}
		regular := account.RegularBalance
		if err := appendEvent(ctx, repos, domain.EventTypePaymentCompleted, req.UserID, tx, req.MerchantID, &regular); err != nil {
			return err
		}
		out = domain.BalanceMutation{Balance: account.Balance(now), Transaction: tx}
		return nil
	})
	return finish(ctx, "pay", out, err, failure.AsPaymentFailed)
}

// Donate debits the wallet, records the donation and updates the eco state.
func (s *Service) Donate(ctx context.Context, req domain.DonationRequest) result.Result[domain.BalanceMutation] {
	now := s.clock()
	contribution, f := checkDonation(req, now)
	if f != nil {
		return result.Err[domain.BalanceMutation](f)
	}
	var out domain.BalanceMutation
	err := s.store.Atomic(ctx, func(repos domain.Repositories) error {
		account, err := loadOrOpen(ctx, repos, req.UserID, now)
		if err != nil {
			return err
		}
		if f := account.Debit(contribution.Amount, now); f != nil {
			return f
		}
		account.RecordDonation(contribution, now)
		tx := domain.Transaction{
			ID:              domain.NewTransactionID(),
			Type:            domain.TransactionTypeDonation,
			Amount:          -contribution.Amount,
			Description:     contribution.ProjectName,
			Date:            now,
			EcoContribution: &contribution,
		}
		if err := s.commit(ctx, repos, account, tx); err != nil {
			return err
		}
		regular := account.RegularBalance
		if err := appendEvent(ctx, repos, domain.EventTypeDonationCompleted, req.UserID, tx, string(contribution.Category), &regular); err != nil {
			return err
		}
		eco := account.Eco
		out = domain.BalanceMutation{Balance: account.Balance(now), Transaction: tx, Eco: &eco}
		return nil
	})
	return finish(ctx, "donate", out, err, failure.AsPaymentFailed)
}

// FetchEcoState returns the eco state of userID.
func (s *Service) FetchEcoState(ctx context.Context, userID vo.UserID) result.Result[domain.EcoState] {
	now := s.clock()
	var state domain.EcoState
	err := s.store.Atomic(ctx, func(repos domain.Repositories) error {
		account, err := loadOrOpen(ctx, repos, userID, now)
		if err != nil {
			return err
		}
		state = account.Eco
		return nil
	})
	return finish(ctx, "fetch_eco_state", state, err, failure.AsNetworkError)
}

// FetchTransactions returns the history of userID, newest first.
func (s *Service) FetchTransactions(ctx context.Context, userID vo.UserID) result.Result[[]domain.Transaction] {
	var txs []domain.Transaction
	err := s.store.Atomic(ctx, func(repos domain.Repositories) error {
		var err error
		txs, err = repos.Transactions().ListByUserID(ctx, userID)
		return err
	})
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return finish(ctx, "fetch_transactions", txs, err, failure.AsNetworkError)
}

// CreateTransaction records a history entry without moving money.
func (s *Service) CreateTransaction(ctx context.Context, userID vo.UserID, tx domain.Transaction) result.Result[domain.Transaction] {
	now := s.clock()
	tx, f := checkRecord(tx, now)
	if f != nil {
		return result.Err[domain.Transaction](f)
	}
	if tx.ID.IsEmpty() {
		tx.ID = domain.NewTransactionID()
	}
	if tx.Date.IsZero() {
		tx.Date = now
	}
	err := s.store.Atomic(ctx, func(repos domain.Repositories) error {
		if _, err := repos.Transactions().FindByID(ctx, userID, tx.ID); err == nil {
			return failure.Conflict{Message: "transaction " + tx.ID.String() + " already exists"}
		} else if !errors.Is(err, domain.ErrTransactionNotFound) {
			return err
		}
		if err := repos.Transactions().Save(ctx, userID, tx); err != nil {
			return err
		}
		return appendEvent(ctx, repos, domain.EventTypeTransactionCreated, userID, tx, "", nil)
	})
	return finish(ctx, "create_transaction", tx, err, failure.AsPaymentFailed)
}

// UpdateTransaction applies a metadata patch.
func (s *Service) UpdateTransaction(ctx context.Context, userID vo.UserID, id domain.TransactionID, patch domain.TransactionPatch) result.Result[domain.Transaction] {
	validated := domain.ValidatePatch(patch, s.clock())
	if validated.IsErr() {
		return result.Err[domain.Transaction](validated.Failure())
	}
	patch = validated.Value()
	var updated domain.Transaction
	err := s.store.Atomic(ctx, func(repos domain.Repositories) error {
		current, err := repos.Transactions().FindByID(ctx, userID, id)
		if err != nil {
			return err
		}
		updated = patch.Apply(current)
		if err := repos.Transactions().Save(ctx, userID, updated); err != nil {
			return err
		}
		return appendEvent(ctx, repos, domain.EventTypeTransactionUpdated, userID, updated, "", nil)
	})
	return finish(ctx, "update_transaction", updated, err, failure.AsPaymentFailed)
}

// DeleteTransaction removes a history entry. Balances are not adjusted.
func (s *Service) DeleteTransaction(ctx context.Context, userID vo.UserID, id domain.TransactionID) result.Result[domain.TransactionID] {
	err := s.store.Atomic(ctx, func(repos domain.Repositories) error {
		current, err := repos.Transactions().FindByID(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := repos.Transactions().Delete(ctx, userID, id); err != nil {
			return err
		}
		return appendEvent(ctx, repos, domain.EventTypeTransactionDeleted, userID, current, "", nil)
	})
	return finish(ctx, "delete_transaction", id, err, failure.AsPaymentFailed)
}

// GrantCampaign adds a campaign credit to the wallet of userID.
func (s *Service) GrantCampaign(ctx context.Context, userID vo.UserID, c domain.CampaignBalance) result.Result[domain.Balance] {
	now := s.clock()
	var balance domain.Balance
	err := s.store.Atomic(ctx, func(repos domain.Repositories) error {
		account, err := loadOrOpen(ctx, repos, userID, now)
		if err != nil {
			return err
		}
		if f := account.AddCampaign(c, now); f != nil {
			return f
		}
		if err := repos.Accounts().Save(ctx, account); err != nil {
			return err
		}
		balance = account.Balance(now)
		return nil
	})
	return finish(ctx, "grant_campaign", balance, err, failure.AsPaymentFailed)
}

func (s *Service) commit(ctx context.Context, repos domain.Repositories, account *domain.Account, tx domain.Transaction) error {
	if err := repos.Accounts().Save(ctx, account); err != nil {
		return err
	}
	return repos.Transactions().Save(ctx, account.UserID, tx)
}
