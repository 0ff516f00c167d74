package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"ecowallet/internal/common/failure"
	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/application"
	"ecowallet/internal/wallet/domain"
	"ecowallet/internal/wallet/infrastructure/memory"
	"ecowallet/internal/wallet/ledger"
)

type walletState struct {
	ctx         context.Context
	now         time.Time
	ledger      *ledger.Service
	registry    *application.Registry
	lastFailure failure.Failure
	acted       bool
}

func InitializeWalletScenario(ctx *godog.ScenarioContext) {
	state := &walletState{ctx: context.Background()}

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		state.reset()
		return c, nil
	})

	// Background steps
	ctx.Step(`^a wallet for "([^"]*)"$`, state.aWalletFor)
	ctx.Step(`^"([^"]*)" has charged (\d+) yen$`, state.hasCharged)
	ctx.Step(`^"([^"]*)" has a campaign credit of (\d+) yen expiring in (\d+) days$`, state.hasCampaignCredit)
	ctx.Step(`^(\d+) minutes pass$`, state.minutesPass)

	// Action steps
	ctx.Step(`^"([^"]*)" charges (\d+) yen$`, state.charges)
	ctx.Step(`^"([^"]*)" scans the QR code "([^"]*)"$`, state.scansQRCode)
	ctx.Step(`^"([^"]*)" transfers (\d+) yen to "([^"]*)"$`, state.transfers)
	ctx.Step(`^"([^"]*)" transfers (\d+) yen to "([^"]*)" as a share of (\d+) yen split (\d+) ways$`, state.transfersShare)
	ctx.Step(`^"([^"]*)" donates (\d+) yen to "([^"]*)" project "([^"]*)"$`, state.donates)
	ctx.Step(`^"([^"]*)" records a "([^"]*)" of (-?\d+) yen described as "([^"]*)"$`, state.records)

	// Outcome steps
	ctx.Step(`^the action should succeed$`, state.theActionShouldSucceed)
	ctx.Step(`^the action should fail with "([^"]*)"$`, state.theActionShouldFailWith)
	ctx.Step(`^"([^"]*)" should have a "([^"]*)" notification for "([^"]*)"$`, state.shouldHaveNotification)
	ctx.Step(`^the available balance of "([^"]*)" should be (\d+) yen$`, state.theAvailableBalanceShouldBe)
	ctx.Step(`^the regular balance of "([^"]*)" should be (\d+) yen$`, state.theRegularBalanceShouldBe)
	ctx.Step(`^the ledger balance of "([^"]*)" should be (\d+) yen$`, state.theLedgerBalanceShouldBe)
	ctx.Step(`^"([^"]*)" should have (\d+) transactions$`, state.shouldHaveTransactions)
	ctx.Step(`^the eco rank of "([^"]*)" should be "([^"]*)"$`, state.theEcoRankShouldBe)
	ctx.Step(`^the total donation of "([^"]*)" should be (\d+) yen$`, state.theTotalDonationShouldBe)
	ctx.Step(`^the next milestone of "([^"]*)" should be (\d+) yen away$`, state.theNextMilestoneShouldBe)
}

func (s *walletState) reset() {
	s.now = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }
	s.ledger = ledger.NewService(memory.NewDataStore(), clock)
	s.registry = application.NewRegistry(s.ledger, application.Options{Clock: clock})
	s.lastFailure = nil
	s.acted = false
}

func (s *walletState) wallet(user string) (*application.Wallet, error) {
	w, f := s.registry.Wallet(vo.MustParseUserID(user)).Unwrap()
	if f != nil {
		return nil, f
	}
	return w, nil
}

// record keeps the outcome of an action for later assertions.
func (s *walletState) record(f failure.Failure) {
	s.acted = true
	s.lastFailure = f
}

func (s *walletState) aWalletFor(user string) error {
	_, err := s.wallet(user)
	return err
}

func (s *walletState) hasCharged(user string, amount int) error {
	if err := s.charges(user, amount); err != nil {
		return err
	}
	if s.lastFailure != nil {
		return fmt.Errorf("failed to charge: %w", s.lastFailure)
	}
	return nil
}

func (s *walletState) hasCampaignCredit(user string, amount, days int) error {
	f := s.ledger.GrantCampaign(s.ctx, vo.MustParseUserID(user), domain.CampaignBalance{
		ID:         fmt.Sprintf("campaign-%d", amount),
		Name:       "Spring bonus",
		Amount:     int64(amount),
		ExpiryDate: s.now.AddDate(0, 0, days),
	}).Failure()
	if f != nil {
		return f
	}
	w, err := s.wallet(user)
	if err != nil {
		return err
	}
	return w.Balance.FetchBalance(s.ctx).Failure()
}

func (s *walletState) minutesPass(minutes int) error {
	s.now = s.now.Add(time.Duration(minutes) * time.Minute)
	return nil
}

func (s *walletState) charges(user string, amount int) error {
	w, err := s.wallet(user)
	if err != nil {
		return err
	}
	s.record(w.Charge(s.ctx, decimal.NewFromInt(int64(amount))).Failure())
	return nil
}

func (s *walletState) scansQRCode(user, payload string) error {
	w, err := s.wallet(user)
	if err != nil {
		return err
	}
	s.record(w.PayQR(s.ctx, payload).Failure())
	return nil
}

func (s *walletState) transfers(user string, amount int, recipient string) error {
	w, err := s.wallet(user)
	if err != nil {
		return err
	}
	s.record(w.Transfer(s.ctx, application.TransferInput{
		RecipientID: recipient,
		Amount:      decimal.NewFromInt(int64(amount)),
	}).Failure())
	return nil
}

func (s *walletState) transfersShare(user string, amount int, recipient string, total, participants int) error {
	w, err := s.wallet(user)
	if err != nil {
		return err
	}
	s.record(w.Transfer(s.ctx, application.TransferInput{
		RecipientID: recipient,
		Amount:      decimal.NewFromInt(int64(amount)),
		SplitInfo:   &domain.SplitInfo{TotalAmount: int64(total), Participants: participants},
	}).Failure())
	return nil
}

func (s *walletState) donates(user string, amount int, category, project string) error {
	w, err := s.wallet(user)
	if err != nil {
		return err
	}
	s.record(w.Donate(s.ctx, domain.EcoContributionInput{
		Amount:      decimal.NewFromInt(int64(amount)),
		Category:    category,
		ProjectName: project,
	}).Failure())
	return nil
}

func (s *walletState) records(user, txType string, amount int, description string) error {
	w, err := s.wallet(user)
	if err != nil {
		return err
	}
	s.record(w.Transactions.CreateTransaction(s.ctx, domain.TransactionInput{
		Type:        txType,
		Amount:      decimal.NewFromInt(int64(amount)),
		Description: description,
	}).Failure())
	return nil
}

func (s *walletState) theActionShouldSucceed() error {
	if !s.acted {
		return fmt.Errorf("no action was performed")
	}
	if s.lastFailure != nil {
		return fmt.Errorf("expected success, got %s: %v", s.lastFailure.Kind(), s.lastFailure)
	}
	return nil
}

func (s *walletState) theActionShouldFailWith(kind string) error {
	if s.lastFailure == nil {
		return fmt.Errorf("expected failure %s, got success", kind)
	}
	if string(s.lastFailure.Kind()) != kind {
		return fmt.Errorf("expected failure %s, got %s: %v", kind, s.lastFailure.Kind(), s.lastFailure)
	}
	return nil
}

func (s *walletState) shouldHaveNotification(user, severity, kind string) error {
	w, err := s.wallet(user)
	if err != nil {
		return err
	}
	for _, n := range w.Notifications.Active(s.now) {
		if string(n.Spec.Kind) == kind {
			if string(n.Spec.Severity) != severity {
				return fmt.Errorf("expected %s notification, got %s", severity, n.Spec.Severity)
			}
			return nil
		}
	}
	return fmt.Errorf("no notification for %s", kind)
}

func (s *walletState) theAvailableBalanceShouldBe(user string, expected int) error {
	w, err := s.wallet(user)
	if err != nil {
		return err
	}
	summary, f := w.Balance.Summary(s.now).Unwrap()
	if f != nil {
		return f
	}
	if summary.AvailableBalance != int64(expected) {
		return fmt.Errorf("expected available balance %d, got %d", expected, summary.AvailableBalance)
	}
	return nil
}

func (s *walletState) theRegularBalanceShouldBe(user string, expected int) error {
	w, err := s.wallet(user)
	if err != nil {
		return err
	}
	if got := w.Balance.Balance().RegularBalance; got != int64(expected) {
		return fmt.Errorf("expected regular balance %d, got %d", expected, got)
	}
	return nil
}

func (s *walletState) theLedgerBalanceShouldBe(user string, expected int) error {
	balance, f := s.ledger.FetchBalance(s.ctx, vo.MustParseUserID(user)).Unwrap()
	if f != nil {
		return f
	}
	if balance.RegularBalance != int64(expected) {
		return fmt.Errorf("expected ledger balance %d, got %d", expected, balance.RegularBalance)
	}
	return nil
}

func (s *walletState) shouldHaveTransactions(user string, expected int) error {
	w, err := s.wallet(user)
	if err != nil {
		return err
	}
	if got := len(w.Transactions.Transactions()); got != expected {
		return fmt.Errorf("expected %d transactions, got %d", expected, got)
	}
	return nil
}

func (s *walletState) theEcoRankShouldBe(user, rank string) error {
	w, err := s.wallet(user)
	if err != nil {
		return err
	}
	if got := w.Eco.Rank(); string(got) != rank {
		return fmt.Errorf("expected rank %q, got %q", rank, got)
	}
	return nil
}

func (s *walletState) theTotalDonationShouldBe(user string, expected int) error {
	w, err := s.wallet(user)
	if err != nil {
		return err
	}
	if got := w.Eco.State().TotalDonation; got != int64(expected) {
		return fmt.Errorf("expected total donation %d, got %d", expected, got)
	}
	return nil
}

func (s *walletState) theNextMilestoneShouldBe(user string, expected int) error {
	w, err := s.wallet(user)
	if err != nil {
		return err
	}
	milestone, f := w.Eco.NextMilestone().Unwrap()
	if f != nil {
		return f
	}
	if milestone.Amount != int64(expected) {
		return fmt.Errorf("expected next milestone in %d yen, got %d", expected, milestone.Amount)
	}
	return nil
}
