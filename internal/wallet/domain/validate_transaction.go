package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/result"
	vo "ecowallet/internal/common/value_objects"
)

// TransactionInput is an unvalidated request to record a transaction.
type TransactionInput struct {
	Type            string                `json:"type"`
	Amount          decimal.Decimal       `json:"amount"`
	Description     string                `json:"description"`
	EcoContribution *EcoContributionInput `json:"eco_contribution,omitempty"`
	CampaignInfo    *CampaignInfo         `json:"campaign_info,omitempty"`
	SplitInfo       *SplitInfo            `json:"split_info,omitempty"`
}

// ValidateTransactionType checks membership in the known transaction types.
func ValidateTransactionType(raw string) result.Result[TransactionType] {
	t := TransactionType(strings.TrimSpace(raw))
	if _, ok := transactionLimits[t]; !ok {
		return result.Err[TransactionType](failure.InvalidFormat{
			Field:          "type",
			ExpectedFormat: "charge|payment|receive|donation|expired",
		})
	}
	return result.Ok(t)
}

// ValidateTransactionAmount applies the sign rule and absolute limit of t.
func ValidateTransactionAmount(amount decimal.Decimal, t TransactionType) result.Result[int64] {
	limit, ok := TransactionLimit(t)
	if !ok {
		return result.Err[int64](failure.InvalidFormat{
			Field:          "type",
			ExpectedFormat: "charge|payment|receive|donation|expired",
		})
	}
	switch t {
	case TransactionTypeCharge:
		if !amount.IsPositive() {
			return result.Err[int64](failure.ChargeMinimumNotMet{Minimum: 1, Requested: vo.Yen(amount)})
		}
	case TransactionTypePayment:
		if !amount.IsNegative() {
			return result.Err[int64](failure.PaymentFailed{Reason: "payment amount must be negative"})
		}
	}
	if amount.Abs().GreaterThan(decimal.NewFromInt(limit)) {
		return result.Err[int64](failure.TransactionLimitExceeded{
			Limit:     limit,
			Attempted: vo.Yen(amount.Abs()),
			LimitType: string(t),
		})
	}
	if !vo.IsWhole(amount) {
		return result.Err[int64](failure.PaymentFailed{Reason: "amount must be a whole number of yen"})
	}
	return result.Ok(amount.IntPart())
}

// ValidateDescription requires a non-blank description of bounded length.
func ValidateDescription(description string) result.Result[string] {
	d := strings.TrimSpace(description)
	if d == "" {
		return result.Err[string](failure.RequiredField{Field: "description"})
	}
	if utf8.RuneCountInString(d) > MaxDescriptionLength {
		return result.Err[string](failure.InvalidRange{
			Field: "description",
			Min:   1,
			Max:   MaxDescriptionLength,
		})
	}
	return result.Ok(d)
}

// ValidateCampaignInfo rejects campaigns that have already expired at now.
func ValidateCampaignInfo(c CampaignInfo, now time.Time) result.Result[CampaignInfo] {
	if strings.TrimSpace(c.CampaignID) == "" {
		return result.Err[CampaignInfo](failure.RequiredField{Field: "campaign_id"})
	}
	if !c.ExpiryDate.After(now) {
		return result.Err[CampaignInfo](failure.CampaignNotActive{CampaignID: c.CampaignID})
	}
	return result.Ok(c)
}

// ValidateTransaction runs every field validator in order and builds the
// transaction to record. The result has no ID; the backend assigns one.
func ValidateTransaction(in TransactionInput, now time.Time) result.Result[Transaction] {
	typ := ValidateTransactionType(in.Type)
	if typ.IsErr() {
		return result.Err[Transaction](typ.Failure())
	}
	amount := ValidateTransactionAmount(in.Amount, typ.Value())
	if amount.IsErr() {
		return result.Err[Transaction](amount.Failure())
	}
	description := ValidateDescription(in.Description)
	if description.IsErr() {
		return result.Err[Transaction](description.Failure())
	}

	tx := Transaction{
		Type:        typ.Value(),
		Amount:      amount.Value(),
		Description: description.Value(),
		Date:        now,
	}

	if in.EcoContribution != nil {
		eco := ValidateEcoContribution(*in.EcoContribution, now)
		if eco.IsErr() {
			return result.Err[Transaction](eco.Failure())
		}
		contribution := eco.Value()
		tx.EcoContribution = &contribution
	}
	if in.CampaignInfo != nil {
		campaign := ValidateCampaignInfo(*in.CampaignInfo, now)
		if campaign.IsErr() {
			return result.Err[Transaction](campaign.Failure())
		}
		info := campaign.Value()
		tx.CampaignInfo = &info
	}
	if in.SplitInfo != nil {
		split := ValidateSplitInfo(*in.SplitInfo)
		if split.IsErr() {
			return result.Err[Transaction](split.Failure())
		}
		info := split.Value()
		tx.SplitInfo = &info
	}
	return result.Ok(tx)
}

// ValidatePatch validates the metadata fields an update touches.
func ValidatePatch(p TransactionPatch, now time.Time) result.Result[TransactionPatch] {
	if p.IsEmpty() {
		return result.Err[TransactionPatch](failure.RequiredField{Field: "patch"})
	}
	if p.Description != nil {
		d := ValidateDescription(*p.Description)
		if d.IsErr() {
			return result.Err[TransactionPatch](d.Failure())
		}
		v := d.Value()
		p.Description = &v
	}
	if p.EcoContribution != nil {
		in := EcoContributionInput{
			Amount:      decimal.NewFromInt(p.EcoContribution.Amount),
			Category:    string(p.EcoContribution.Category),
			ProjectName: p.EcoContribution.ProjectName,
		}
		eco := ValidateEcoContribution(in, now)
		if eco.IsErr() {
			return result.Err[TransactionPatch](eco.Failure())
		}
		v := eco.Value()
		if !p.EcoContribution.Date.IsZero() {
			v.Date = p.EcoContribution.Date
		}
		p.EcoContribution = &v
	}
	if p.CampaignInfo != nil {
		c := ValidateCampaignInfo(*p.CampaignInfo, now)
		if c.IsErr() {
			return result.Err[TransactionPatch](c.Failure())
		}
	}
	if p.SplitInfo != nil {
		s := ValidateSplitInfo(*p.SplitInfo)
		if s.IsErr() {
			return result.Err[TransactionPatch](s.Failure())
		}
	}
	return result.Ok(p)
}

// CheckTransactionDuplicate looks for an entry in existing with the same type,
// amount and description recorded within windowMinutes of now. It returns the
// match, or nil when there is none.
func CheckTransactionDuplicate(candidate Transaction, existing []Transaction, windowMinutes int, now time.Time) result.Result[*Transaction] {
	if windowMinutes <= 0 {
		return result.Err[*Transaction](failure.PaymentFailed{Reason: "duplicate window must be positive"})
	}
	window := time.Duration(windowMinutes) * time.Minute
	for i := range existing {
		e := existing[i]
		if e.Type != candidate.Type || e.Amount != candidate.Amount || e.Description != candidate.Description {
			continue
		}
		age := now.Sub(e.Date)
		if age < 0 {
			age = -age
		}
		if age <= window {
			return result.Ok(&e)
		}
	}
	return result.Ok[*Transaction](nil)
}
