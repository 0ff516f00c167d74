package application

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/result"
	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/domain"
)

// Money-moving actions share one in-flight guard per wallet.
const moneyGuard = "payment"

// TransferInput is an unvalidated transfer request.
type TransferInput struct {
	RecipientID string            `json:"recipient_id"`
	Amount      decimal.Decimal   `json:"amount"`
	Message     string            `json:"message,omitempty"`
	SplitInfo   *domain.SplitInfo `json:"split_info,omitempty"`
}

// BalanceStore holds the balance of one wallet and orchestrates charge,
// transfer and QR payment.
type BalanceStore struct {
	tracker
	userID    vo.UserID
	transport domain.BalanceTransport
	clock     func() time.Time

	stateMu sync.RWMutex
	balance domain.Balance
	// loaded is set once balance reflects the backend.
	loaded bool
}

// NewBalanceStore creates a store with an empty balance.
func NewBalanceStore(userID vo.UserID, transport domain.BalanceTransport, notifier Notifier, clock func() time.Time) *BalanceStore {
	if clock == nil {
		clock = time.Now
	}
	return &BalanceStore{
		tracker:   newTracker(notifier),
		userID:    userID,
		transport: transport,
		clock:     clock,
		balance:   emptyBalance(),
	}
}

func emptyBalance() domain.Balance {
	return domain.Balance{CampaignBalances: []domain.CampaignBalance{}}
}

// Reset restores the initial state.
func (s *BalanceStore) Reset() {
	s.stateMu.Lock()
	s.balance = emptyBalance()
	s.loaded = false
	s.stateMu.Unlock()
	s.resetStatus()
}

// Balance returns a copy of the current balance.
func (s *BalanceStore) Balance() domain.Balance {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	b := s.balance
	b.CampaignBalances = append([]domain.CampaignBalance(nil), s.balance.CampaignBalances...)
	return b
}

// Summary derives totals at now.
func (s *BalanceStore) Summary(now time.Time) result.Result[domain.BalanceSummary] {
	b := s.Balance()
	return domain.CalculateTotalBalance(b.RegularBalance, b.CampaignBalances, now)
}

// CheckSufficient compares required against the available balance at now.
func (s *BalanceStore) CheckSufficient(required int64, now time.Time) result.Result[domain.SufficiencyCheck] {
	return result.AndThen(s.Summary(now), func(sum domain.BalanceSummary) result.Result[domain.SufficiencyCheck] {
		return domain.CheckSufficientBalance(required, sum.AvailableBalance)
	})
}

// Apply replaces the balance with one returned by another action.
func (s *BalanceStore) Apply(b domain.Balance) {
	if b.CampaignBalances == nil {
		b.CampaignBalances = []domain.CampaignBalance{}
	}
	s.stateMu.Lock()
	s.balance = b
	s.loaded = true
	s.stateMu.Unlock()
}

// Loaded reports whether the balance has been fetched from the backend since
// the store was created or reset.
func (s *BalanceStore) Loaded() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.loaded
}

// ensureLoaded fetches the balance when the store has never seen the backend,
// so that sufficiency checks do not run against an empty cache.
func (s *BalanceStore) ensureLoaded(ctx context.Context) failure.Failure {
	if s.Loaded() {
		return nil
	}
	return s.FetchBalance(ctx).Failure()
}

// FetchBalance loads the balance from the transport.
func (s *BalanceStore) FetchBalance(ctx context.Context) result.Result[domain.Balance] {
	a := action{name: "fetch_balance", fallback: failure.AsNetworkError}
	return run(ctx, &s.tracker, a, func(ctx context.Context) result.Result[domain.Balance] {
		return s.transport.FetchBalance(ctx, s.userID).OnOk(s.Apply)
	})
}

// ProcessCharge validates amount and tops up the wallet.
func (s *BalanceStore) ProcessCharge(ctx context.Context, amount decimal.Decimal) result.Result[domain.BalanceMutation] {
	const op = "charge"
	validated := domain.ValidateChargeAmount(amount)
	if validated.IsErr() {
		return rejected[domain.BalanceMutation](ctx, &s.tracker, op, validated.Failure())
	}

	a := action{name: op, guard: moneyGuard, fallback: failure.AsPaymentFailed}
	return run(ctx, &s.tracker, a, func(ctx context.Context) result.Result[domain.BalanceMutation] {
		req := domain.ChargeRequest{UserID: s.userID, Amount: validated.Value()}
		return s.transport.Charge(ctx, req).OnOk(s.applyMutation)
	})
}

// ProcessTransfer validates recipient, amount and split details and sends
// money to another wallet.
func (s *BalanceStore) ProcessTransfer(ctx context.Context, in TransferInput) result.Result[domain.BalanceMutation] {
	const op = "transfer"
	if f := s.ensureLoaded(ctx); f != nil {
		return result.Err[domain.BalanceMutation](f)
	}
	req := s.validateTransfer(in, s.clock())
	if req.IsErr() {
		return rejected[domain.BalanceMutation](ctx, &s.tracker, op, req.Failure())
	}

	a := action{name: op, guard: moneyGuard, fallback: failure.AsPaymentFailed}
	return run(ctx, &s.tracker, a, func(ctx context.Context) result.Result[domain.BalanceMutation] {
		return s.transport.Transfer(ctx, req.Value()).OnOk(s.applyMutation)
	})
}

func (s *BalanceStore) validateTransfer(in TransferInput, now time.Time) result.Result[domain.TransferRequest] {
	recipient := domain.ValidateTransferRecipient(in.RecipientID, s.userID.String())
	if recipient.IsErr() {
		return result.Err[domain.TransferRequest](recipient.Failure())
	}
	summary := s.Summary(now)
	if summary.IsErr() {
		return result.Err[domain.TransferRequest](summary.Failure())
	}
	amount := domain.ValidateTransferAmount(in.Amount, summary.Value().AvailableBalance)
	if amount.IsErr() {
		return result.Err[domain.TransferRequest](amount.Failure())
	}
	req := domain.TransferRequest{
		UserID:      s.userID,
		RecipientID: vo.MustParseUserID(recipient.Value()),
		Amount:      amount.Value(),
		Message:     strings.TrimSpace(in.Message),
	}
	if in.SplitInfo != nil {
		split := domain.ValidateSplitInfo(*in.SplitInfo)
		if split.IsErr() {
			return result.Err[domain.TransferRequest](split.Failure())
		}
		info := split.Value()
		if !containsShare(info.Shares, req.Amount) {
			return result.Err[domain.TransferRequest](failure.PaymentFailed{Reason: "transfer amount does not match any split share"})
		}
		req.SplitInfo = &info
	}
	return result.Ok(req)
}

func containsShare(shares []int64, amount int64) bool {
	for _, share := range shares {
		if share == amount {
			return true
		}
	}
	return false
}

// ProcessQRPayment decodes a merchant QR code and pays it.
func (s *BalanceStore) ProcessQRPayment(ctx context.Context, payload string) result.Result[domain.BalanceMutation] {
	const op = "qr_payment"
	if f := s.ensureLoaded(ctx); f != nil {
		return result.Err[domain.BalanceMutation](f)
	}
	req := s.validateQRPayment(payload, s.clock())
	if req.IsErr() {
		return rejected[domain.BalanceMutation](ctx, &s.tracker, op, req.Failure())
	}

	a := action{name: op, guard: moneyGuard, fallback: failure.AsPaymentFailed}
	return run(ctx, &s.tracker, a, func(ctx context.Context) result.Result[domain.BalanceMutation] {
		return s.transport.Pay(ctx, req.Value()).OnOk(s.applyMutation)
	})
}

func (s *BalanceStore) validateQRPayment(payload string, now time.Time) result.Result[domain.PaymentRequest] {
	qr := domain.ParseQRPayload(payload)
	if qr.IsErr() {
		return result.Err[domain.PaymentRequest](qr.Failure())
	}
	p := qr.Value()
	amount := domain.ValidateTransactionAmount(p.AmountDecimal().Neg(), domain.TransactionTypePayment)
	if amount.IsErr() {
		return result.Err[domain.PaymentRequest](amount.Failure())
	}
	sufficient := s.CheckSufficient(p.Amount, now)
	if sufficient.IsErr() {
		return result.Err[domain.PaymentRequest](sufficient.Failure())
	}
	if !sufficient.Value().HasSufficientFunds {
		available := p.Amount - sufficient.Value().ShortfallAmount
		return result.Err[domain.PaymentRequest](failure.InsufficientBalance{Required: p.Amount, Available: available})
	}
	return result.Ok(domain.PaymentRequest{
		UserID:       s.userID,
		MerchantID:   p.MerchantID,
		MerchantName: p.MerchantName,
		Amount:       p.Amount,
	})
}

func (s *BalanceStore) applyMutation(m domain.BalanceMutation) {
	s.Apply(m.Balance)
}
