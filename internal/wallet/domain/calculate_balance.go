package domain

import (
	"time"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/result"
)

// BalanceSummary is the derived view of a wallet balance at a point in time.
type BalanceSummary struct {
	TotalBalance     int64               `json:"total_balance"`
	AvailableBalance int64               `json:"available_balance"`
	CampaignBalance  int64               `json:"campaign_balance"`
	Breakdown        []CampaignBreakdown `json:"breakdown"`
}

// CampaignBreakdown is one campaign credit as seen at the summary time.
type CampaignBreakdown struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Amount     int64     `json:"amount"`
	ExpiryDate time.Time `json:"expiry_date"`
	DaysLeft   int       `json:"days_left"`
	Expired    bool      `json:"expired"`
}

// SufficiencyCheck reports whether a payment can be covered.
type SufficiencyCheck struct {
	HasSufficientFunds    bool  `json:"has_sufficient_funds"`
	ShortfallAmount       int64 `json:"shortfall_amount"`
	SuggestedChargeAmount int64 `json:"suggested_charge_amount"`
}

// CalculateTotalBalance sums the regular balance and campaign credits.
// Credits whose expiry is at or before now count toward the total but not
// toward the available balance.
func CalculateTotalBalance(regular int64, campaigns []CampaignBalance, now time.Time) result.Result[BalanceSummary] {
	if regular < 0 {
		return result.Err[BalanceSummary](failure.PaymentFailed{Reason: "regular balance cannot be negative"})
	}
	summary := BalanceSummary{
		TotalBalance:     regular,
		AvailableBalance: regular,
		Breakdown:        make([]CampaignBreakdown, 0, len(campaigns)),
	}
	for _, c := range campaigns {
		if c.Amount < 0 {
			return result.Err[BalanceSummary](failure.PaymentFailed{Reason: "campaign balance cannot be negative"})
		}
		active := c.IsActive(now)
		summary.CampaignBalance += c.Amount
		summary.TotalBalance += c.Amount
		if active {
			summary.AvailableBalance += c.Amount
		}
		summary.Breakdown = append(summary.Breakdown, CampaignBreakdown{
			ID:         c.ID,
			Name:       c.Name,
			Amount:     c.Amount,
			ExpiryDate: c.ExpiryDate,
			DaysLeft:   DaysLeft(c.ExpiryDate, now),
			Expired:    !active,
		})
	}
	return result.Ok(summary)
}

// DaysLeft returns the whole days remaining until expiry, rounded up, or 0
// once expired.
func DaysLeft(expiry, now time.Time) int {
	remaining := expiry.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := remaining / (24 * time.Hour)
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return int(days)
}

// CheckSufficientBalance compares required against available and suggests a
// charge, in steps of 1,000 yen, that covers the shortfall with headroom.
func CheckSufficientBalance(required, available int64) result.Result[SufficiencyCheck] {
	if required < 0 || available < 0 {
		return result.Err[SufficiencyCheck](failure.PaymentFailed{Reason: "amounts cannot be negative"})
	}
	if available >= required {
		return result.Ok(SufficiencyCheck{HasSufficientFunds: true})
	}
	shortfall := required - available
	return result.Ok(SufficiencyCheck{
		ShortfallAmount:       shortfall,
		SuggestedChargeAmount: ceilToThousand(shortfall + 1000),
	})
}

func ceilToThousand(v int64) int64 {
	return (v + 999) / 1000 * 1000
}
