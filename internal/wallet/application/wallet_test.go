package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/result"
	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/application"
	"ecowallet/internal/wallet/domain"
	"ecowallet/internal/wallet/infrastructure/memory"
	"ecowallet/internal/wallet/ledger"
)

// stubTransport delegates to a real ledger unless a hook overrides the call.
type stubTransport struct {
	domain.Transport
	mu      sync.Mutex
	calls   map[string]int
	charge  func(context.Context, domain.ChargeRequest) result.Result[domain.BalanceMutation]
	balance func(context.Context, vo.UserID) result.Result[domain.Balance]
}

func (s *stubTransport) count(name string) {
	s.mu.Lock()
	s.calls[name]++
	s.mu.Unlock()
}

func (s *stubTransport) called(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubTransport) Charge(ctx context.Context, req domain.ChargeRequest) result.Result[domain.BalanceMutation] {
	s.count("charge")
	if s.charge != nil {
		return s.charge(ctx, req)
	}
	return s.Transport.Charge(ctx, req)
}

func (s *stubTransport) FetchBalance(ctx context.Context, userID vo.UserID) result.Result[domain.Balance] {
	s.count("fetch_balance")
	if s.balance != nil {
		return s.balance(ctx, userID)
	}
	return s.Transport.FetchBalance(ctx, userID)
}

func (s *stubTransport) Pay(ctx context.Context, req domain.PaymentRequest) result.Result[domain.BalanceMutation] {
	s.count("pay")
	return s.Transport.Pay(ctx, req)
}

func (s *stubTransport) Donate(ctx context.Context, req domain.DonationRequest) result.Result[domain.BalanceMutation] {
	s.count("donate")
	return s.Transport.Donate(ctx, req)
}

type WalletSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	ledger    *ledger.Service
	transport *stubTransport
	registry  *application.Registry
	wallet    *application.Wallet
}

func TestWalletSuite(t *testing.T) {
	suite.Run(t, new(WalletSuite))
}

func (s *WalletSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }
	s.ledger = ledger.NewService(memory.NewDataStore(), clock)
	s.transport = &stubTransport{Transport: s.ledger, calls: make(map[string]int)}
	s.registry = application.NewRegistry(s.transport, application.Options{Clock: clock})
	s.wallet = s.registry.Wallet(vo.MustParseUserID("alice")).Value()
}

func (s *WalletSuite) charge(amount int64) {
	_, f := s.wallet.Charge(s.ctx, decimal.NewFromInt(amount)).Unwrap()
	s.Require().Nil(f)
}

func (s *WalletSuite) TestChargeUpdatesBalanceAndHistory() {
	mutation, f := s.wallet.Charge(s.ctx, decimal.NewFromInt(1000)).Unwrap()
	s.Require().Nil(f)
	s.Equal(int64(1000), mutation.Balance.RegularBalance)
	s.Equal(int64(1000), s.wallet.Balance.Balance().RegularBalance)

	txs := s.wallet.Transactions.Transactions()
	s.Require().Len(txs, 1)
	s.Equal(domain.TransactionTypeCharge, txs[0].Type)
	s.False(s.wallet.IsLoading())
	s.Nil(s.wallet.Balance.Error())
	s.Zero(s.wallet.Notifications.Len())
}

func (s *WalletSuite) TestChargeBelowMinimumNeverReachesTransport() {
	f := s.wallet.Charge(s.ctx, decimal.NewFromInt(50)).Failure()
	s.Equal(failure.ChargeMinimumNotMet{Minimum: domain.MinChargeAmount, Requested: 50}, f)
	s.Zero(s.transport.called("charge"))
	s.Equal(f, s.wallet.Balance.Error())
	s.Equal(1, s.wallet.Notifications.Len())
	s.False(s.wallet.IsLoading())

	s.wallet.Balance.ClearError()
	s.Nil(s.wallet.Balance.Error())
}

func (s *WalletSuite) TestConcurrentMoneyActionIsConflict() {
	started := make(chan struct{})
	release := make(chan struct{})
	s.transport.charge = func(ctx context.Context, req domain.ChargeRequest) result.Result[domain.BalanceMutation] {
		close(started)
		<-release
		return s.ledger.Charge(ctx, req)
	}

	done := make(chan result.Result[domain.BalanceMutation])
	go func() { done <- s.wallet.Charge(s.ctx, decimal.NewFromInt(1000)) }()
	<-started
	s.True(s.wallet.IsLoading())

	s.transport.mu.Lock()
	s.transport.charge = nil
	s.transport.mu.Unlock()
	second := s.wallet.PayQR(s.ctx, "ecowallet://pay?merchant=m1&amount=1")
	s.Equal(failure.KindInsufficientBalance, second.Failure().Kind())

	third := s.wallet.Balance.ProcessCharge(s.ctx, decimal.NewFromInt(500))
	s.Equal(failure.KindConflict, third.Failure().Kind())

	close(release)
	first := <-done
	s.True(first.IsOk())
	s.False(s.wallet.IsLoading())
	s.Equal(1, s.transport.called("charge"))

	again := s.wallet.Charge(s.ctx, decimal.NewFromInt(500))
	s.True(again.IsOk())
}

func (s *WalletSuite) TestPanicInTransportBecomesFailure() {
	s.transport.charge = func(context.Context, domain.ChargeRequest) result.Result[domain.BalanceMutation] {
		panic("boom")
	}
	f := s.wallet.Charge(s.ctx, decimal.NewFromInt(1000)).Failure()
	s.Equal(failure.PaymentFailed{Reason: "boom"}, f)
	s.False(s.wallet.IsLoading())
	s.Equal(f, s.wallet.Balance.Error())
	s.Empty(s.wallet.Transactions.Transactions())
}

func (s *WalletSuite) TestPanicWithErrorKeepsFailureFromChain() {
	s.transport.balance = func(context.Context, vo.UserID) result.Result[domain.Balance] {
		panic(errors.Join(errors.New("wrapped"), failure.ServerError{StatusCode: 503}))
	}
	f := s.wallet.Balance.FetchBalance(s.ctx).Failure()
	s.Equal(failure.ServerError{StatusCode: 503}, f)
}

func (s *WalletSuite) TestFetchFailureIsRecordedAndNotified() {
	s.transport.balance = func(context.Context, vo.UserID) result.Result[domain.Balance] {
		return result.Err[domain.Balance](failure.NetworkError{Cause: "offline"})
	}
	f := s.wallet.Balance.FetchBalance(s.ctx).Failure()
	s.Equal(failure.KindNetworkError, f.Kind())

	active := s.wallet.Notifications.Active(s.now)
	s.Require().Len(active, 1)
	s.Equal(failure.KindNetworkError, active[0].Spec.Kind)
	s.True(active[0].Spec.Retryable)

	snap := s.wallet.Snapshot().Value()
	s.Contains(snap.Errors, "balance")
	s.clearErrorsAndExpectNone()
}

func (s *WalletSuite) clearErrorsAndExpectNone() {
	s.wallet.ClearErrors()
	s.Empty(s.wallet.Snapshot().Value().Errors)
}

func (s *WalletSuite) TestValidationFailureStaysInline() {
	f := s.wallet.Donate(s.ctx, domain.EcoContributionInput{
		Amount: decimal.NewFromInt(1000), Category: "space", ProjectName: "Orbit",
	}).Failure()
	s.Equal(failure.FamilyValidation, f.Family())
	s.Equal(f, s.wallet.Eco.Error())
	s.Zero(s.wallet.Notifications.Len())
	s.Contains(s.wallet.Snapshot().Value().Errors, "eco")
}

func (s *WalletSuite) TestCanceledContextFailsWithoutCallingTransport() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	f := s.wallet.Charge(ctx, decimal.NewFromInt(1000)).Failure()
	s.Equal(failure.FamilyTransport, f.Family())
	s.Zero(s.transport.called("charge"))
}

func (s *WalletSuite) TestTransferValidatesAgainstLocalBalance() {
	s.charge(1000)
	_, err := s.ledger.Charge(s.ctx, domain.ChargeRequest{UserID: vo.MustParseUserID("bob"), Amount: 100}).Unwrap()
	s.Require().Nil(err)

	f := s.wallet.Transfer(s.ctx, application.TransferInput{RecipientID: "bob", Amount: decimal.NewFromInt(2000)}).Failure()
	s.Equal(failure.InsufficientBalance{Required: 2000, Available: 1000}, f)

	f = s.wallet.Transfer(s.ctx, application.TransferInput{RecipientID: "alice", Amount: decimal.NewFromInt(100)}).Failure()
	s.Equal(failure.KindTransferToSelf, f.Kind())

	mutation, f := s.wallet.Transfer(s.ctx, application.TransferInput{RecipientID: "bob", Amount: decimal.NewFromInt(400), Message: " dinner "}).Unwrap()
	s.Require().Nil(f)
	s.Equal(int64(600), mutation.Balance.RegularBalance)
	s.Equal("dinner", mutation.Transaction.Description)
	s.Len(s.wallet.Transactions.Transactions(), 2)
}

func (s *WalletSuite) TestSplitTransferMustMatchAShare() {
	s.charge(5000)
	s.Require().True(s.ledger.Charge(s.ctx, domain.ChargeRequest{UserID: vo.MustParseUserID("bob"), Amount: 100}).IsOk())

	split := &domain.SplitInfo{TotalAmount: 1000, Participants: 3}
	f := s.wallet.Transfer(s.ctx, application.TransferInput{RecipientID: "bob", Amount: decimal.NewFromInt(500), SplitInfo: split}).Failure()
	s.Equal(failure.KindPaymentFailed, f.Kind())

	mutation, f := s.wallet.Transfer(s.ctx, application.TransferInput{RecipientID: "bob", Amount: decimal.NewFromInt(334), SplitInfo: split}).Unwrap()
	s.Require().Nil(f)
	s.Require().NotNil(mutation.Transaction.SplitInfo)
	s.Equal([]int64{334, 333, 333}, mutation.Transaction.SplitInfo.Shares)
}

func (s *WalletSuite) TestQRPayment() {
	s.charge(2000)

	mutation, f := s.wallet.PayQR(s.ctx, "ecowallet://pay?merchant=m-1&amount=500&name=Cafe").Unwrap()
	s.Require().Nil(f)
	s.Equal(int64(1500), mutation.Balance.RegularBalance)
	s.Equal("Cafe", mutation.Transaction.Description)

	f = s.wallet.PayQR(s.ctx, "ecowallet://pay?merchant=m-1&amount=5000").Failure()
	s.Equal(failure.InsufficientBalance{Required: 5000, Available: 1500}, f)

	f = s.wallet.PayQR(s.ctx, "https://example.com").Failure()
	s.Equal(failure.KindInvalidQRCode, f.Kind())
	s.Equal(1, s.transport.called("pay"))
}

func (s *WalletSuite) TestDonateUpdatesEveryStore() {
	s.charge(10000)

	outcome, f := s.wallet.Donate(s.ctx, domain.EcoContributionInput{
		Amount: decimal.NewFromInt(6000), Category: "Forest", ProjectName: "Mangroves",
	}).Unwrap()
	s.Require().Nil(f)
	s.True(outcome.RankChanged)
	s.Equal(domain.EcoRankFriend, outcome.Rank)
	s.Equal(int64(4000), s.wallet.Balance.Balance().RegularBalance)
	s.Equal(int64(6000), s.wallet.Eco.State().TotalDonation)
	s.Equal(domain.TransactionTypeDonation, s.wallet.Transactions.Transactions()[0].Type)
	s.Equal(1, s.wallet.Eco.Summary().Count)

	milestone, f := s.wallet.Eco.NextMilestone().Unwrap()
	s.Require().Nil(f)
	s.Equal(int64(14000), milestone.Amount)
}

func (s *WalletSuite) TestDonateAfterResetAdoptsBackendTotals() {
	s.charge(10000)
	s.Require().True(s.wallet.Donate(s.ctx, domain.EcoContributionInput{
		Amount: decimal.NewFromInt(6000), Category: "forest", ProjectName: "Mangroves",
	}).IsOk())

	s.wallet.Reset()
	s.False(s.wallet.Eco.Loaded())
	s.charge(1000)

	outcome, f := s.wallet.Donate(s.ctx, domain.EcoContributionInput{
		Amount: decimal.NewFromInt(100), Category: "water", ProjectName: "Wells",
	}).Unwrap()
	s.Require().Nil(f)

	backend, f := s.ledger.FetchEcoState(s.ctx, s.wallet.UserID).Unwrap()
	s.Require().Nil(f)
	s.Equal(int64(6100), backend.TotalDonation)
	s.Equal(backend, outcome.State)
	s.Equal(backend, s.wallet.Eco.State())
	s.Equal(domain.EcoRankFriend, outcome.Rank)
	s.False(outcome.RankChanged)
	s.True(s.wallet.Eco.Loaded())
}

func (s *WalletSuite) TestMoneyActionsLoadBalanceFirst() {
	alice := s.wallet.UserID
	s.Require().True(s.ledger.Charge(s.ctx, domain.ChargeRequest{UserID: alice, Amount: 5000}).IsOk())
	s.Require().True(s.ledger.Charge(s.ctx, domain.ChargeRequest{UserID: vo.MustParseUserID("bob"), Amount: 100}).IsOk())
	s.False(s.wallet.Balance.Loaded())

	mutation, f := s.wallet.Transfer(s.ctx, application.TransferInput{RecipientID: "bob", Amount: decimal.NewFromInt(1000)}).Unwrap()
	s.Require().Nil(f)
	s.Equal(int64(4000), mutation.Balance.RegularBalance)
	s.Equal(1, s.transport.called("fetch_balance"))

	s.wallet.Reset()
	mutation, f = s.wallet.PayQR(s.ctx, "ecowallet://pay?merchant=m-1&amount=500&name=Cafe").Unwrap()
	s.Require().Nil(f)
	s.Equal(int64(3500), mutation.Balance.RegularBalance)
	s.Equal(2, s.transport.called("fetch_balance"))

	s.Require().True(s.wallet.Transfer(s.ctx, application.TransferInput{RecipientID: "bob", Amount: decimal.NewFromInt(500)}).IsOk())
	s.Equal(2, s.transport.called("fetch_balance"))
}

func (s *WalletSuite) TestDonationLimits() {
	s.charge(100000)

	f := s.wallet.Donate(s.ctx, domain.EcoContributionInput{
		Amount: decimal.NewFromInt(60000), Category: "ocean", ProjectName: "Reef",
	}).Failure()
	s.Equal(failure.KindDonationLimitExceeded, f.Kind())

	f = s.wallet.Donate(s.ctx, domain.EcoContributionInput{
		Amount: decimal.Zero, Category: "ocean", ProjectName: "Reef",
	}).Failure()
	s.Equal(failure.KindPaymentFailed, f.Kind())
	s.Zero(s.transport.called("donate"))
}

func (s *WalletSuite) TestCreateTransactionRejectsRecentDuplicate() {
	in := domain.TransactionInput{Type: "payment", Amount: decimal.NewFromInt(-300), Description: "coffee"}

	created, f := s.wallet.Transactions.CreateTransaction(s.ctx, in).Unwrap()
	s.Require().Nil(f)

	f = s.wallet.Transactions.CreateTransaction(s.ctx, in).Failure()
	s.Equal(failure.Conflict{Message: "duplicate of transaction " + created.ID.String()}, f)

	s.now = s.now.Add(10 * time.Minute)
	s.True(s.wallet.Transactions.CreateTransaction(s.ctx, in).IsOk())
}

func (s *WalletSuite) TestUpdateAndDeleteTransaction() {
	created := s.wallet.Transactions.CreateTransaction(s.ctx, domain.TransactionInput{
		Type: "payment", Amount: decimal.NewFromInt(-300), Description: "coffee",
	}).Value()

	description := "latte"
	updated, f := s.wallet.Transactions.UpdateTransaction(s.ctx, created.ID, domain.TransactionPatch{Description: &description}).Unwrap()
	s.Require().Nil(f)
	s.Equal("latte", updated.Description)
	s.Equal("latte", s.wallet.Transactions.Transactions()[0].Description)

	s.Equal(failure.RequiredField{Field: "id"},
		s.wallet.Transactions.DeleteTransaction(s.ctx, domain.TransactionID{}).Failure())

	_, f = s.wallet.Transactions.DeleteTransaction(s.ctx, created.ID).Unwrap()
	s.Require().Nil(f)
	s.Empty(s.wallet.Transactions.Transactions())

	f = s.wallet.Transactions.DeleteTransaction(s.ctx, created.ID).Failure()
	s.Equal(failure.NotFound{Resource: "transaction"}, f)
}

func (s *WalletSuite) TestRefreshLoadsStateFromTransport() {
	s.charge(3000)
	s.Require().True(s.wallet.Donate(s.ctx, domain.EcoContributionInput{
		Amount: decimal.NewFromInt(1000), Category: "water", ProjectName: "Wells",
	}).IsOk())

	s.registry.Forget(s.wallet.UserID)
	fresh := s.registry.Wallet(s.wallet.UserID).Value()
	s.Zero(fresh.Balance.Balance().RegularBalance)

	snap, f := fresh.Refresh(s.ctx).Unwrap()
	s.Require().Nil(f)
	s.Equal(int64(2000), snap.Balance.TotalBalance)
	s.Len(snap.Transactions, 2)
	s.Equal(int64(1000), snap.Eco.TotalDonation)
	s.Equal(1, fresh.Eco.Summary().Count)
	s.False(snap.Loading)
}

func (s *WalletSuite) TestResetRestoresInitialState() {
	s.charge(3000)
	s.wallet.Charge(s.ctx, decimal.NewFromInt(1))

	s.wallet.Reset()
	s.Zero(s.wallet.Balance.Balance().RegularBalance)
	s.Empty(s.wallet.Transactions.Transactions())
	s.Equal(domain.NewEcoState(), s.wallet.Eco.State())
	s.Nil(s.wallet.Balance.Error())
	s.Zero(s.wallet.Notifications.Len())
}

func (s *WalletSuite) TestRegistry() {
	f := s.registry.Wallet(vo.UserID{}).Failure()
	s.Equal(failure.RequiredField{Field: "user_id"}, f)

	again := s.registry.Wallet(vo.MustParseUserID("alice")).Value()
	s.Same(s.wallet, again)
	s.Equal(1, s.registry.Len())
}

func (s *WalletSuite) TestRegistryDropsLeastRecentlyUsedWallets() {
	clock := func() time.Time { return s.now }
	registry := application.NewRegistry(s.transport, application.Options{Clock: clock, MaxWallets: 2})

	alice := registry.Wallet(vo.MustParseUserID("alice")).Value()
	_, f := alice.Charge(s.ctx, decimal.NewFromInt(3000)).Unwrap()
	s.Require().Nil(f)
	registry.Wallet(vo.MustParseUserID("bob"))
	s.Same(alice, registry.Wallet(vo.MustParseUserID("alice")).Value())

	registry.Wallet(vo.MustParseUserID("carol"))
	s.Equal(2, registry.Len())
	s.Same(alice, registry.Wallet(vo.MustParseUserID("alice")).Value())

	registry.Wallet(vo.MustParseUserID("dave"))
	registry.Wallet(vo.MustParseUserID("erin"))
	rebuilt := registry.Wallet(vo.MustParseUserID("alice")).Value()
	s.NotSame(alice, rebuilt)
	s.Equal(2, registry.Len())

	balance, f := rebuilt.Balance.FetchBalance(s.ctx).Unwrap()
	s.Require().Nil(f)
	s.Equal(int64(3000), balance.RegularBalance)
}
