package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/result"
	vo "ecowallet/internal/common/value_objects"
)

// ParseAmount parses a raw amount. Unparseable and non-finite input fails with
// PAYMENT_FAILED.
func ParseAmount(raw string) result.Result[decimal.Decimal] {
	d, err := vo.ParseAmount(raw)
	if err != nil {
		return result.Err[decimal.Decimal](failure.PaymentFailed{Reason: err.Error()})
	}
	return result.Ok(d)
}

// ValidateChargeAmount checks a top-up amount against the minimum and the
// per-charge limit.
func ValidateChargeAmount(amount decimal.Decimal) result.Result[int64] {
	if !amount.IsPositive() || amount.LessThan(decimal.NewFromInt(MinChargeAmount)) {
		return result.Err[int64](failure.ChargeMinimumNotMet{
			Minimum:   MinChargeAmount,
			Requested: vo.Yen(amount),
		})
	}
	if amount.GreaterThan(decimal.NewFromInt(MaxChargeAmount)) {
		return result.Err[int64](failure.TransactionLimitExceeded{
			Limit:     MaxChargeAmount,
			Attempted: vo.Yen(amount),
			LimitType: LimitTypePerCharge,
		})
	}
	if !vo.IsWhole(amount) {
		return result.Err[int64](failure.PaymentFailed{Reason: "charge amount must be a whole number of yen"})
	}
	return result.Ok(amount.IntPart())
}

// ValidateTransferAmount checks an outgoing amount against the available
// balance and the per-transfer limit.
func ValidateTransferAmount(amount decimal.Decimal, availableBalance int64) result.Result[int64] {
	if !amount.IsPositive() {
		return result.Err[int64](failure.PaymentFailed{Reason: "transfer amount must be positive"})
	}
	if amount.GreaterThan(decimal.NewFromInt(availableBalance)) {
		return result.Err[int64](failure.InsufficientBalance{
			Required:  vo.Yen(amount),
			Available: availableBalance,
		})
	}
	if amount.GreaterThan(decimal.NewFromInt(MaxTransferAmount)) {
		return result.Err[int64](failure.TransactionLimitExceeded{
			Limit:     MaxTransferAmount,
			Attempted: vo.Yen(amount),
			LimitType: LimitTypePerTransfer,
		})
	}
	if !vo.IsWhole(amount) {
		return result.Err[int64](failure.PaymentFailed{Reason: "transfer amount must be a whole number of yen"})
	}
	return result.Ok(amount.IntPart())
}

// ValidateTransferRecipient rejects empty recipients and transfers to oneself.
func ValidateTransferRecipient(recipientID, senderID string) result.Result[string] {
	recipient := strings.TrimSpace(recipientID)
	if recipient == "" {
		return result.Err[string](failure.PaymentFailed{Reason: "recipient is required"})
	}
	if recipient == strings.TrimSpace(senderID) {
		return result.Err[string](failure.TransferToSelf{})
	}
	return result.Ok(recipient)
}
