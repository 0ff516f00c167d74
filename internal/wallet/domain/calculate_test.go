package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/wallet/domain"
)

func TestCalculateTotalBalance(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("sums regular and campaign credits", func(t *testing.T) {
		r := domain.CalculateTotalBalance(1000, []domain.CampaignBalance{
			{ID: "a", Amount: 500, ExpiryDate: now.Add(48 * time.Hour)},
			{ID: "b", Amount: 300, ExpiryDate: now.Add(36 * time.Hour)},
		}, now)
		require.True(t, r.IsOk())
		s := r.Value()
		assert.Equal(t, int64(1800), s.TotalBalance)
		assert.Equal(t, int64(800), s.CampaignBalance)
		assert.Equal(t, int64(1800), s.AvailableBalance)
		require.Len(t, s.Breakdown, 2)
		assert.Equal(t, 2, s.Breakdown[0].DaysLeft)
		assert.Equal(t, 2, s.Breakdown[1].DaysLeft)
	})

	t.Run("expired credits are not available", func(t *testing.T) {
		r := domain.CalculateTotalBalance(1000, []domain.CampaignBalance{
			{ID: "live", Amount: 500, ExpiryDate: now.Add(time.Hour)},
			{ID: "gone", Amount: 300, ExpiryDate: now},
		}, now)
		s := r.Value()
		assert.Equal(t, int64(1800), s.TotalBalance)
		assert.Equal(t, int64(1500), s.AvailableBalance)
		assert.True(t, s.Breakdown[1].Expired)
		assert.Equal(t, 0, s.Breakdown[1].DaysLeft)
	})

	t.Run("negative inputs", func(t *testing.T) {
		assert.Equal(t, failure.KindPaymentFailed, domain.CalculateTotalBalance(-1, nil, now).Failure().Kind())
		r := domain.CalculateTotalBalance(0, []domain.CampaignBalance{{Amount: -5, ExpiryDate: now.Add(time.Hour)}}, now)
		assert.Equal(t, failure.KindPaymentFailed, r.Failure().Kind())
	})

	t.Run("no campaigns", func(t *testing.T) {
		s := domain.CalculateTotalBalance(0, nil, now).Value()
		assert.NotNil(t, s.Breakdown)
		assert.Zero(t, s.TotalBalance)
	})
}

func TestCheckSufficientBalance(t *testing.T) {
	r := domain.CheckSufficientBalance(5000, 3000)
	require.True(t, r.IsOk())
	assert.Equal(t, domain.SufficiencyCheck{HasSufficientFunds: false, ShortfallAmount: 2000, SuggestedChargeAmount: 3000}, r.Value())

	assert.Equal(t, domain.SufficiencyCheck{HasSufficientFunds: true}, domain.CheckSufficientBalance(3000, 3000).Value())
	assert.Equal(t, int64(3000), domain.CheckSufficientBalance(3001, 1500).Value().SuggestedChargeAmount)
	assert.Equal(t, failure.KindPaymentFailed, domain.CheckSufficientBalance(-1, 0).Failure().Kind())
}

func TestCalculateEcoImpact(t *testing.T) {
	assert.Equal(t, domain.EcoImpact{ForestArea: 0.4, WaterSaved: 36, Co2Reduction: 2}, domain.CalculateEcoImpact(1000))
	assert.Equal(t, domain.EcoImpact{ForestArea: 2.1, WaterSaved: 180, Co2Reduction: 10}, domain.CalculateEcoImpact(5000))
	// 250 * 0.002 = 0.5 rounds half up.
	assert.Equal(t, int64(1), domain.CalculateEcoImpact(250).Co2Reduction)
	assert.Equal(t, domain.EcoImpact{}, domain.CalculateEcoImpact(0))
}

func TestGetEcoRankFromDonation(t *testing.T) {
	assert.Equal(t, domain.EcoRankBeginner, domain.GetEcoRankFromDonation(4999))
	assert.Equal(t, domain.EcoRankFriend, domain.GetEcoRankFromDonation(5000))
	assert.Equal(t, domain.EcoRankFriend, domain.GetEcoRankFromDonation(9999))
	assert.Equal(t, domain.EcoRankHero, domain.GetEcoRankFromDonation(10000))
	assert.Equal(t, domain.EcoRankMaster, domain.GetEcoRankFromDonation(50000))

	t.Run("rank never decreases as donations grow", func(t *testing.T) {
		prev := 0
		for total := int64(0); total <= 60000; total += 250 {
			level := domain.GetEcoRankFromDonation(total).Level()
			assert.GreaterOrEqual(t, level, prev)
			prev = level
		}
	})
}

func TestCalculateEcoProgress(t *testing.T) {
	targets := domain.EcoTargets{ForestArea: 50, WaterSaved: 5000, Co2Reduction: 300}

	r := domain.CalculateEcoProgress(25, 2500, 150, targets)
	require.True(t, r.IsOk())
	assert.Equal(t, 50, r.Value())

	// (10 + 20 + 0) / 3 = 10
	assert.Equal(t, 10, domain.CalculateEcoProgress(5, 1000, 0, targets).Value())
	// (2 + 1 + 1) / 3 = 1.33
	assert.Equal(t, 1, domain.CalculateEcoProgress(1, 50, 3, targets).Value())

	t.Run("non-positive target", func(t *testing.T) {
		bad := targets
		bad.WaterSaved = 0
		r := domain.CalculateEcoProgress(1, 1, 1, bad)
		require.True(t, r.IsErr())
		f, ok := r.Failure().(failure.InvalidRange)
		require.True(t, ok)
		assert.Equal(t, "target_water_saved", f.Field)
	})
}

func TestCalculateNextMilestone(t *testing.T) {
	r := domain.CalculateNextMilestone(3000, domain.EcoRankBeginner)
	require.True(t, r.IsOk())
	assert.Equal(t, int64(2000), r.Value().Amount)
	assert.Equal(t, domain.EcoRankFriend, r.Value().Rank)

	r = domain.CalculateNextMilestone(12000, domain.EcoRankHero)
	assert.Equal(t, int64(8000), r.Value().Amount)
	assert.Equal(t, int64(20000), r.Value().Target)

	r = domain.CalculateNextMilestone(50000, domain.EcoRankMaster)
	assert.Equal(t, int64(0), r.Value().Amount)
	assert.Equal(t, domain.EcoRankMaster, r.Value().Rank)

	assert.Equal(t, failure.KindPaymentFailed, domain.CalculateNextMilestone(-1, domain.EcoRankBeginner).Failure().Kind())
	assert.Equal(t, failure.KindInvalidFormat, domain.CalculateNextMilestone(0, domain.EcoRank("?")).Failure().Kind())
}

func TestApplyEcoImpact(t *testing.T) {
	state := domain.NewEcoState()
	state = domain.ApplyEcoImpact(state, domain.CalculateEcoImpact(1000), 1000)
	state = domain.ApplyEcoImpact(state, domain.CalculateEcoImpact(1000), 1000)

	assert.Equal(t, 0.8, state.ForestArea)
	assert.Equal(t, int64(72), state.WaterSaved)
	assert.Equal(t, int64(4), state.Co2Reduction)
	assert.Equal(t, int64(2000), state.TotalDonation)
	assert.Equal(t, int64(2000), state.MonthlyDonation)
	assert.Equal(t, domain.DefaultEcoTargets, state.EcoTargets)
}

func TestCalculateSplitAmounts(t *testing.T) {
	r := domain.CalculateSplitAmounts(1000, 3)
	require.True(t, r.IsOk())
	assert.Equal(t, []int64{334, 333, 333}, r.Value())

	var sum int64
	for _, s := range domain.CalculateSplitAmounts(10001, 7).Value() {
		sum += s
	}
	assert.Equal(t, int64(10001), sum)

	assert.Equal(t, failure.KindInvalidRange, domain.CalculateSplitAmounts(1000, 1).Failure().Kind())
	assert.Equal(t, failure.KindPaymentFailed, domain.CalculateSplitAmounts(0, 2).Failure().Kind())

	t.Run("validate explicit shares", func(t *testing.T) {
		ok := domain.ValidateSplitInfo(domain.SplitInfo{TotalAmount: 900, Participants: 2, Shares: []int64{600, 300}})
		assert.True(t, ok.IsOk())
		bad := domain.ValidateSplitInfo(domain.SplitInfo{TotalAmount: 900, Participants: 2, Shares: []int64{600, 200}})
		assert.Equal(t, failure.KindPaymentFailed, bad.Failure().Kind())
		short := domain.ValidateSplitInfo(domain.SplitInfo{TotalAmount: 900, Participants: 3, Shares: []int64{900}})
		assert.Equal(t, failure.KindInvalidFormat, short.Failure().Kind())
	})
}
