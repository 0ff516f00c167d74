package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/result"
	vo "ecowallet/internal/common/value_objects"
)

// EcoContributionInput is an unvalidated donation.
type EcoContributionInput struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	ProjectName string          `json:"project_name"`
}

// ValidateEcoContributionAmount accepts whole amounts in [0, MaxDonationAmount].
func ValidateEcoContributionAmount(amount decimal.Decimal) result.Result[int64] {
	if amount.IsNegative() || amount.GreaterThan(decimal.NewFromInt(MaxDonationAmount)) {
		return result.Err[int64](failure.DonationLimitExceeded{
			Max:       MaxDonationAmount,
			Requested: vo.Yen(amount),
		})
	}
	if !vo.IsWhole(amount) {
		return result.Err[int64](failure.PaymentFailed{Reason: "donation amount must be a whole number of yen"})
	}
	return result.Ok(amount.IntPart())
}

// ValidateEcoCategory checks membership in the supported categories.
func ValidateEcoCategory(raw string) result.Result[EcoCategory] {
	c := EcoCategory(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range EcoCategories() {
		if c == known {
			return result.Ok(c)
		}
	}
	return result.Err[EcoCategory](failure.InvalidFormat{
		Field:          "category",
		ExpectedFormat: "forest|ocean|water|climate",
	})
}

// ValidateEcoContribution validates amount, category and project name.
func ValidateEcoContribution(in EcoContributionInput, now time.Time) result.Result[EcoContribution] {
	amount := ValidateEcoContributionAmount(in.Amount)
	if amount.IsErr() {
		return result.Err[EcoContribution](amount.Failure())
	}
	category := ValidateEcoCategory(in.Category)
	if category.IsErr() {
		return result.Err[EcoContribution](category.Failure())
	}
	project := strings.TrimSpace(in.ProjectName)
	if project == "" {
		return result.Err[EcoContribution](failure.RequiredField{Field: "project_name"})
	}
	return result.Ok(EcoContribution{
		Amount:      amount.Value(),
		Category:    category.Value(),
		ProjectName: project,
		Date:        now,
	})
}
