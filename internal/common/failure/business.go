package failure

import (
	"fmt"
	"time"
)

// InsufficientBalance reports that the available balance does not cover the amount.
type InsufficientBalance struct {
	business
	Required  int64 `json:"required"`
	Available int64 `json:"available"`
}

func (f InsufficientBalance) Kind() Kind       { return KindInsufficientBalance }
func (f InsufficientBalance) accept(v visitor) { v.insufficientBalance(f) }
func (f InsufficientBalance) Error() string {
	return fmt.Sprintf("insufficient balance: required %d, available %d", f.Required, f.Available)
}

// PaymentFailed is the generic business failure. It also carries converted
// collaborator errors.
type PaymentFailed struct {
	business
	Reason string `json:"reason"`
}

func (f PaymentFailed) Kind() Kind       { return KindPaymentFailed }
func (f PaymentFailed) accept(v visitor) { v.paymentFailed(f) }
func (f PaymentFailed) Error() string    { return "payment failed: " + f.Reason }

// TransactionLimitExceeded reports an amount above a per-operation limit.
type TransactionLimitExceeded struct {
	business
	Limit     int64  `json:"limit"`
	Attempted int64  `json:"attempted"`
	LimitType string `json:"limit_type"`
}

func (f TransactionLimitExceeded) Kind() Kind       { return KindTransactionLimitExceeded }
func (f TransactionLimitExceeded) accept(v visitor) { v.transactionLimitExceeded(f) }
func (f TransactionLimitExceeded) Error() string {
	return fmt.Sprintf("%s limit exceeded: limit %d, attempted %d", f.LimitType, f.Limit, f.Attempted)
}

// CampaignNotActive reports a campaign credit that is expired or not started.
type CampaignNotActive struct {
	business
	CampaignID string `json:"campaign_id,omitempty"`
}

func (f CampaignNotActive) Kind() Kind       { return KindCampaignNotActive }
func (f CampaignNotActive) accept(v visitor) { v.campaignNotActive(f) }
func (f CampaignNotActive) Error() string {
	return fmt.Sprintf("campaign %q is not active", f.CampaignID)
}

// DonationLimitExceeded reports a donation outside [0, Max].
type DonationLimitExceeded struct {
	business
	Max       int64 `json:"max"`
	Requested int64 `json:"requested"`
}

func (f DonationLimitExceeded) Kind() Kind       { return KindDonationLimitExceeded }
func (f DonationLimitExceeded) accept(v visitor) { v.donationLimitExceeded(f) }
func (f DonationLimitExceeded) Error() string {
	return fmt.Sprintf("donation limit exceeded: max %d, requested %d", f.Max, f.Requested)
}

// AccountSuspended reports a suspended account. Until is nil for indefinite suspensions.
type AccountSuspended struct {
	business
	Reason string     `json:"reason"`
	Until  *time.Time `json:"until,omitempty"`
}

func (f AccountSuspended) Kind() Kind       { return KindAccountSuspended }
func (f AccountSuspended) accept(v visitor) { v.accountSuspended(f) }
func (f AccountSuspended) Error() string {
	if f.Until != nil {
		return fmt.Sprintf("account suspended until %s: %s", f.Until.Format(time.RFC3339), f.Reason)
	}
	return "account suspended: " + f.Reason
}

// KYCRequired reports that identity verification at Level is needed first.
type KYCRequired struct {
	business
	Level string `json:"level"`
}

func (f KYCRequired) Kind() Kind       { return KindKYCRequired }
func (f KYCRequired) accept(v visitor) { v.kycRequired(f) }
func (f KYCRequired) Error() string    { return fmt.Sprintf("kyc level %s required", f.Level) }

// ChargeMinimumNotMet reports a charge below the minimum amount.
type ChargeMinimumNotMet struct {
	business
	Minimum   int64 `json:"minimum"`
	Requested int64 `json:"requested"`
}

func (f ChargeMinimumNotMet) Kind() Kind       { return KindChargeMinimumNotMet }
func (f ChargeMinimumNotMet) accept(v visitor) { v.chargeMinimumNotMet(f) }
func (f ChargeMinimumNotMet) Error() string {
	return fmt.Sprintf("charge minimum not met: minimum %d, requested %d", f.Minimum, f.Requested)
}

// InvalidQRCode reports a QR payload that cannot be used for payment.
type InvalidQRCode struct {
	business
	Reason string `json:"reason,omitempty"`
}

func (f InvalidQRCode) Kind() Kind       { return KindInvalidQRCode }
func (f InvalidQRCode) accept(v visitor) { v.invalidQRCode(f) }
func (f InvalidQRCode) Error() string {
	if f.Reason == "" {
		return "invalid qr code"
	}
	return "invalid qr code: " + f.Reason
}

// TransferToSelf reports a transfer whose recipient is the sender.
type TransferToSelf struct {
	business
}

func (f TransferToSelf) Kind() Kind       { return KindTransferToSelf }
func (f TransferToSelf) accept(v visitor) { v.transferToSelf(f) }
func (f TransferToSelf) Error() string    { return "cannot transfer to self" }
