package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/wallet/domain"
)

// Requests reach the ledger over HTTP as well as from the wallet stores, so
// every mutation re-runs the domain validators before touching an account.

func checkCharge(req domain.ChargeRequest) failure.Failure {
	if req.UserID.IsEmpty() {
		return failure.RequiredField{Field: "user_id"}
	}
	return domain.ValidateChargeAmount(decimal.NewFromInt(req.Amount)).Failure()
}

// checkTransfer validates a transfer against the sender's available balance.
func checkTransfer(req domain.TransferRequest, available int64) failure.Failure {
	if f := domain.ValidateTransferRecipient(req.RecipientID.String(), req.UserID.String()).Failure(); f != nil {
		return f
	}
	if f := domain.ValidateTransferAmount(decimal.NewFromInt(req.Amount), available).Failure(); f != nil {
		return f
	}
	if strings.TrimSpace(req.Message) != "" {
		if f := domain.ValidateDescription(req.Message).Failure(); f != nil {
			return f
		}
	}
	if req.SplitInfo != nil {
		return domain.ValidateSplitInfo(*req.SplitInfo).Failure()
	}
	return nil
}

func checkPayment(req domain.PaymentRequest) failure.Failure {
	if req.UserID.IsEmpty() {
		return failure.RequiredField{Field: "user_id"}
	}
	if strings.TrimSpace(req.MerchantName) == "" {
		return failure.RequiredField{Field: "merchant_name"}
	}
	return domain.ValidateTransactionAmount(decimal.NewFromInt(-req.Amount), domain.TransactionTypePayment).Failure()
}

func checkDonation(req domain.DonationRequest, now time.Time) (domain.EcoContribution, failure.Failure) {
	if req.UserID.IsEmpty() {
		return domain.EcoContribution{}, failure.RequiredField{Field: "user_id"}
	}
	return checkContribution(req.Contribution, now)
}

// checkContribution returns the normalized contribution. The caller's date is
// kept when set.
func checkContribution(raw domain.EcoContribution, now time.Time) (domain.EcoContribution, failure.Failure) {
	in := domain.EcoContributionInput{
		Amount:      decimal.NewFromInt(raw.Amount),
		Category:    string(raw.Category),
		ProjectName: raw.ProjectName,
	}
	validated := domain.ValidateEcoContribution(in, now)
	if validated.IsErr() {
		return domain.EcoContribution{}, validated.Failure()
	}
	c := validated.Value()
	if c.Amount == 0 {
		return domain.EcoContribution{}, failure.PaymentFailed{Reason: "donation amount must be positive"}
	}
	if !raw.Date.IsZero() {
		c.Date = raw.Date
	}
	return c, nil
}

// checkRecord validates a history entry and returns it with a trimmed
// description.
func checkRecord(tx domain.Transaction, now time.Time) (domain.Transaction, failure.Failure) {
	typ := domain.ValidateTransactionType(string(tx.Type))
	if typ.IsErr() {
		return tx, typ.Failure()
	}
	if f := domain.ValidateTransactionAmount(decimal.NewFromInt(tx.Amount), typ.Value()).Failure(); f != nil {
		return tx, f
	}
	description := domain.ValidateDescription(tx.Description)
	if description.IsErr() {
		return tx, description.Failure()
	}
	tx.Description = description.Value()

	if tx.EcoContribution != nil {
		c, f := checkContribution(*tx.EcoContribution, now)
		if f != nil {
			return tx, f
		}
		tx.EcoContribution = &c
	}
	if tx.SplitInfo != nil {
		if f := domain.ValidateSplitInfo(*tx.SplitInfo).Failure(); f != nil {
			return tx, f
		}
	}
	return tx, nil
}
