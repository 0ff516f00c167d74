package domain

import (
	"time"
)

// TransactionType classifies a wallet transaction.
type TransactionType string

const (
	TransactionTypeCharge   TransactionType = "charge"
	TransactionTypePayment  TransactionType = "payment"
	TransactionTypeReceive  TransactionType = "receive"
	TransactionTypeDonation TransactionType = "donation"
	TransactionTypeExpired  TransactionType = "expired"
)

// TransactionTypes lists every transaction type.
func TransactionTypes() []TransactionType {
	return []TransactionType{
		TransactionTypeCharge,
		TransactionTypePayment,
		TransactionTypeReceive,
		TransactionTypeDonation,
		TransactionTypeExpired,
	}
}

// Transaction is a single entry in the wallet history. Amounts are signed yen:
// charges are positive, payments negative.
type Transaction struct {
	ID              TransactionID    `json:"id"`
	Type            TransactionType  `json:"type"`
	Amount          int64            `json:"amount"`
	Description     string           `json:"description"`
	Date            time.Time        `json:"date"`
	EcoContribution *EcoContribution `json:"eco_contribution,omitempty"`
	CampaignInfo    *CampaignInfo    `json:"campaign_info,omitempty"`
	SplitInfo       *SplitInfo       `json:"split_info,omitempty"`
}

// TransactionPatch holds the metadata an update may touch. Amount and type are
// deliberately absent. Nil fields are left unchanged.
type TransactionPatch struct {
	Description     *string          `json:"description,omitempty"`
	EcoContribution *EcoContribution `json:"eco_contribution,omitempty"`
	CampaignInfo    *CampaignInfo    `json:"campaign_info,omitempty"`
	SplitInfo       *SplitInfo       `json:"split_info,omitempty"`
}

// Apply returns a copy of t with the patch applied.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.EcoContribution != nil {
		eco := *p.EcoContribution
		t.EcoContribution = &eco
	}
	if p.CampaignInfo != nil {
		campaign := *p.CampaignInfo
		t.CampaignInfo = &campaign
	}
	if p.SplitInfo != nil {
		split := *p.SplitInfo
		t.SplitInfo = &split
	}
	return t
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Description == nil && p.EcoContribution == nil && p.CampaignInfo == nil && p.SplitInfo == nil
}

// EcoCategory is the environmental project area a contribution supports.
type EcoCategory string

const (
	EcoCategoryForest  EcoCategory = "forest"
	EcoCategoryOcean   EcoCategory = "ocean"
	EcoCategoryWater   EcoCategory = "water"
	EcoCategoryClimate EcoCategory = "climate"
)

// EcoCategories lists every supported category.
func EcoCategories() []EcoCategory {
	return []EcoCategory{EcoCategoryForest, EcoCategoryOcean, EcoCategoryWater, EcoCategoryClimate}
}

// EcoContribution is an environmental donation, either standalone or attached
// to a transaction.
type EcoContribution struct {
	Amount      int64       `json:"amount"`
	Category    EcoCategory `json:"category"`
	ProjectName string      `json:"project_name"`
	Date        time.Time   `json:"date"`
}

// CampaignInfo links a transaction to a promotional campaign.
type CampaignInfo struct {
	CampaignID string    `json:"campaign_id"`
	Name       string    `json:"name"`
	ExpiryDate time.Time `json:"expiry_date"`
}

// SplitInfo describes a bill split among several participants.
type SplitInfo struct {
	TotalAmount  int64    `json:"total_amount"`
	Participants int      `json:"participants"`
	Shares       []int64  `json:"shares"`
	MemberIDs    []string `json:"member_ids,omitempty"`
}

// CampaignBalance is a time-limited credit. It stops counting toward the
// available balance once ExpiryDate has passed.
type CampaignBalance struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Amount     int64     `json:"amount"`
	ExpiryDate time.Time `json:"expiry_date"`
	DaysLeft   int       `json:"days_left"`
}

// IsActive reports whether the credit is still spendable at now.
func (c CampaignBalance) IsActive(now time.Time) bool {
	return c.ExpiryDate.After(now)
}

// Balance is the wallet balance as reported by the backend.
type Balance struct {
	RegularBalance   int64             `json:"regular_balance"`
	CampaignBalances []CampaignBalance `json:"campaign_balances"`
}

// EcoTargets are the goals progress is measured against.
type EcoTargets struct {
	ForestArea   float64 `json:"target_forest_area"`
	WaterSaved   int64   `json:"target_water_saved"`
	Co2Reduction int64   `json:"target_co2_reduction"`
}

// DefaultEcoTargets are the goals new wallets start with.
var DefaultEcoTargets = EcoTargets{
	ForestArea:   50,
	WaterSaved:   5000,
	Co2Reduction: 300,
}

// EcoState accumulates the environmental impact of a user's donations.
// ForestArea is in square meters, WaterSaved in liters, Co2Reduction in kg.
type EcoState struct {
	ForestArea      float64 `json:"forest_area"`
	WaterSaved      int64   `json:"water_saved"`
	Co2Reduction    int64   `json:"co2_reduction"`
	TotalDonation   int64   `json:"total_donation"`
	MonthlyDonation int64   `json:"monthly_donation"`
	EcoTargets
}

// NewEcoState returns the initial state of a wallet with no donations.
func NewEcoState() EcoState {
	return EcoState{EcoTargets: DefaultEcoTargets}
}
