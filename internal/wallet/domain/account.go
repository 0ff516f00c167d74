package domain

import (
	"slices"
	"time"

	"ecowallet/internal/common/failure"
	vo "ecowallet/internal/common/value_objects"
)

// Account is the persisted wallet of one user: the regular balance, campaign
// credits and accumulated eco state. Version supports optimistic locking.
type Account struct {
	UserID         vo.UserID
	RegularBalance int64
	Campaigns      []CampaignBalance
	Eco            EcoState
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAccount opens an empty wallet.
func NewAccount(userID vo.UserID, now time.Time) *Account {
	return &Account{
		UserID:    userID,
		Campaigns: []CampaignBalance{},
		Eco:       NewEcoState(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	c := *a
	c.Campaigns = slices.Clone(a.Campaigns)
	if c.Campaigns == nil {
		c.Campaigns = []CampaignBalance{}
	}
	return &c
}

// Balance returns the balance as seen at now, with DaysLeft recomputed.
func (a *Account) Balance(now time.Time) Balance {
	campaigns := make([]CampaignBalance, len(a.Campaigns))
	for i, c := range a.Campaigns {
		c.DaysLeft = DaysLeft(c.ExpiryDate, now)
		campaigns[i] = c
	}
	return Balance{RegularBalance: a.RegularBalance, CampaignBalances: campaigns}
}

// Available returns the spendable amount at now.
func (a *Account) Available(now time.Time) int64 {
	total := a.RegularBalance
	for _, c := range a.Campaigns {
		if c.IsActive(now) {
			total += c.Amount
		}
	}
	return total
}

// Credit adds amount to the regular balance.
func (a *Account) Credit(amount int64, now time.Time) {
	a.RegularBalance += amount
	a.UpdatedAt = now
}

// Debit spends amount, consuming active campaign credits that expire soonest
// before the regular balance. Expired credits are never touched.
func (a *Account) Debit(amount int64, now time.Time) failure.Failure {
	if amount <= 0 {
		return failure.PaymentFailed{Reason: "debit amount must be positive"}
	}
	available := a.Available(now)
	if amount > available {
		return failure.InsufficientBalance{Required: amount, Available: available}
	}

	order := make([]int, 0, len(a.Campaigns))
	for i, c := range a.Campaigns {
		if c.IsActive(now) && c.Amount > 0 {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(x, y int) int {
		return a.Campaigns[x].ExpiryDate.Compare(a.Campaigns[y].ExpiryDate)
	})

	remaining := amount
	for _, i := range order {
		take := min(remaining, a.Campaigns[i].Amount)
		a.Campaigns[i].Amount -= take
		remaining -= take
		if remaining == 0 {
			break
		}
	}
	a.RegularBalance -= remaining
	a.UpdatedAt = now
	return nil
}

// AddCampaign grants a campaign credit. Credits that are already expired or
// non-positive are rejected.
func (a *Account) AddCampaign(c CampaignBalance, now time.Time) failure.Failure {
	if !c.IsActive(now) {
		return failure.CampaignNotActive{CampaignID: c.ID}
	}
	if c.Amount <= 0 {
		return failure.PaymentFailed{Reason: "campaign amount must be positive"}
	}
	for _, existing := range a.Campaigns {
		if existing.ID == c.ID {
			return failure.Conflict{Message: "campaign " + c.ID + " already granted"}
		}
	}
	c.DaysLeft = DaysLeft(c.ExpiryDate, now)
	a.Campaigns = append(a.Campaigns, c)
	a.UpdatedAt = now
	return nil
}

// RecordDonation folds a donation into the eco state and returns its impact.
func (a *Account) RecordDonation(c EcoContribution, now time.Time) EcoImpact {
	impact := CalculateEcoImpact(c.Amount)
	a.Eco = ApplyEcoImpact(a.Eco, impact, c.Amount)
	a.UpdatedAt = now
	return impact
}
