package domain

import (
	"math"

	"github.com/shopspring/decimal"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/result"
)

// EcoRank is the tier earned through cumulative donations.
type EcoRank string

const (
	EcoRankBeginner EcoRank = "エコビギナー"
	EcoRankFriend   EcoRank = "エコフレンド"
	EcoRankHero     EcoRank = "エコヒーロー"
	EcoRankMaster   EcoRank = "エコマスター"
)

// Rank thresholds in yen of cumulative donation.
const (
	EcoRankFriendThreshold int64 = 5_000
	EcoRankHeroThreshold   int64 = 10_000
	EcoRankMasterThreshold int64 = 50_000
)

// Level returns 1 for the base rank up to 4 for the top rank, or 0 for an
// unknown rank.
func (r EcoRank) Level() int {
	switch r {
	case EcoRankBeginner:
		return 1
	case EcoRankFriend:
		return 2
	case EcoRankHero:
		return 3
	case EcoRankMaster:
		return 4
	default:
		return 0
	}
}

// EcoImpact is the environmental effect of a donation.
type EcoImpact struct {
	ForestArea   float64 `json:"forest_area"`
	WaterSaved   int64   `json:"water_saved"`
	Co2Reduction int64   `json:"co2_reduction"`
}

// Impact per yen donated.
var (
	forestAreaPerYen   = decimal.RequireFromString("0.00042")
	waterSavedPerYen   = decimal.RequireFromString("0.036")
	co2ReductionPerYen = decimal.RequireFromString("0.002")
)

// CalculateEcoImpact converts a donation into square meters of forest, liters
// of water and kilograms of CO2, rounding half up.
func CalculateEcoImpact(amount int64) EcoImpact {
	a := decimal.NewFromInt(amount)
	return EcoImpact{
		ForestArea:   a.Mul(forestAreaPerYen).Round(1).InexactFloat64(),
		WaterSaved:   a.Mul(waterSavedPerYen).Round(0).IntPart(),
		Co2Reduction: a.Mul(co2ReductionPerYen).Round(0).IntPart(),
	}
}

// GetEcoRankFromDonation returns the rank for a cumulative donation.
func GetEcoRankFromDonation(total int64) EcoRank {
	switch {
	case total >= EcoRankMasterThreshold:
		return EcoRankMaster
	case total >= EcoRankHeroThreshold:
		return EcoRankHero
	case total >= EcoRankFriendThreshold:
		return EcoRankFriend
	default:
		return EcoRankBeginner
	}
}

// CalculateEcoProgress returns the rounded mean of the three per-metric
// percentages. Targets must be positive.
func CalculateEcoProgress(forestArea float64, waterSaved, co2Reduction int64, targets EcoTargets) result.Result[int] {
	switch {
	case targets.ForestArea <= 0:
		return result.Err[int](nonPositiveTarget("target_forest_area"))
	case targets.WaterSaved <= 0:
		return result.Err[int](nonPositiveTarget("target_water_saved"))
	case targets.Co2Reduction <= 0:
		return result.Err[int](nonPositiveTarget("target_co2_reduction"))
	}
	hundred := decimal.NewFromInt(100)
	forest := decimal.NewFromFloat(forestArea).Div(decimal.NewFromFloat(targets.ForestArea)).Mul(hundred)
	water := decimal.NewFromInt(waterSaved).Div(decimal.NewFromInt(targets.WaterSaved)).Mul(hundred)
	co2 := decimal.NewFromInt(co2Reduction).Div(decimal.NewFromInt(targets.Co2Reduction)).Mul(hundred)
	mean := forest.Add(water).Add(co2).Div(decimal.NewFromInt(3))
	return result.Ok(int(mean.Round(0).IntPart()))
}

func nonPositiveTarget(field string) failure.Failure {
	return failure.InvalidRange{Field: field, Min: 0, Max: math.MaxFloat64}
}

// Milestone is the next donation goal.
type Milestone struct {
	Amount      int64   `json:"amount"`
	Target      int64   `json:"target"`
	Rank        EcoRank `json:"rank"`
	Description string  `json:"description"`
}

var milestones = []Milestone{
	{Target: 5_000, Rank: EcoRankFriend, Description: "エコフレンドへ昇格"},
	{Target: 20_000, Rank: EcoRankHero, Description: "植林プロジェクト 1区画を達成"},
	{Target: 50_000, Rank: EcoRankMaster, Description: "エコマスターへ昇格"},
}

// CalculateNextMilestone returns the gap to the first milestone not yet met.
// Once every milestone is met the result has Amount 0 and the top rank.
func CalculateNextMilestone(currentDonation int64, currentRank EcoRank) result.Result[Milestone] {
	if currentDonation < 0 {
		return result.Err[Milestone](failure.PaymentFailed{Reason: "donation total cannot be negative"})
	}
	if currentRank.Level() == 0 {
		return result.Err[Milestone](failure.InvalidFormat{Field: "rank", ExpectedFormat: "eco rank"})
	}
	for _, m := range milestones {
		if currentDonation < m.Target {
			m.Amount = m.Target - currentDonation
			return result.Ok(m)
		}
	}
	return result.Ok(Milestone{Amount: 0, Target: currentDonation, Rank: EcoRankMaster, Description: "全てのマイルストーンを達成"})
}

// ApplyEcoImpact returns state after a donation of amount with the given impact.
func ApplyEcoImpact(state EcoState, impact EcoImpact, amount int64) EcoState {
	state.ForestArea = decimal.NewFromFloat(state.ForestArea).
		Add(decimal.NewFromFloat(impact.ForestArea)).
		Round(1).
		InexactFloat64()
	state.WaterSaved += impact.WaterSaved
	state.Co2Reduction += impact.Co2Reduction
	state.TotalDonation += amount
	state.MonthlyDonation += amount
	return state
}
