package application

import (
	"context"
	"sync"
	"time"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/result"
	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/domain"
)

// DonationOutcome is the result of a donation: the recorded transaction, the
// impact it had and the eco state after it.
type DonationOutcome struct {
	Mutation     domain.BalanceMutation `json:"mutation"`
	Impact       domain.EcoImpact       `json:"impact"`
	State        domain.EcoState        `json:"state"`
	Rank         domain.EcoRank         `json:"rank"`
	RankChanged  bool                   `json:"rank_changed"`
	Contribution domain.EcoContribution `json:"contribution"`
}

// EcoStore holds the environmental impact of one wallet.
type EcoStore struct {
	tracker
	userID    vo.UserID
	transport domain.EcoTransport
	clock     func() time.Time

	stateMu       sync.RWMutex
	state         domain.EcoState
	contributions []domain.EcoContribution
	// loaded is set once state reflects the backend.
	loaded bool
}

// NewEcoStore creates a store with no donations and the default targets.
func NewEcoStore(userID vo.UserID, transport domain.EcoTransport, notifier Notifier, clock func() time.Time) *EcoStore {
	if clock == nil {
		clock = time.Now
	}
	return &EcoStore{
		tracker:       newTracker(notifier),
		userID:        userID,
		transport:     transport,
		clock:         clock,
		state:         domain.NewEcoState(),
		contributions: []domain.EcoContribution{},
	}
}

// Reset restores the initial state.
func (s *EcoStore) Reset() {
	s.stateMu.Lock()
	s.state = domain.NewEcoState()
	s.contributions = []domain.EcoContribution{}
	s.loaded = false
	s.stateMu.Unlock()
	s.resetStatus()
}

// State returns the current eco state.
func (s *EcoStore) State() domain.EcoState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Rank returns the rank earned by the total donation.
func (s *EcoStore) Rank() domain.EcoRank {
	return domain.GetEcoRankFromDonation(s.State().TotalDonation)
}

// Progress returns the overall progress toward the targets in percent.
func (s *EcoStore) Progress() result.Result[int] {
	st := s.State()
	return domain.CalculateEcoProgress(st.ForestArea, st.WaterSaved, st.Co2Reduction, st.EcoTargets)
}

// NextMilestone returns the gap to the next donation milestone.
func (s *EcoStore) NextMilestone() result.Result[domain.Milestone] {
	st := s.State()
	return domain.CalculateNextMilestone(st.TotalDonation, domain.GetEcoRankFromDonation(st.TotalDonation))
}

// Summary aggregates the known contributions.
func (s *EcoStore) Summary() domain.EcoContributionSummary {
	s.stateMu.RLock()
	contributions := append([]domain.EcoContribution{}, s.contributions...)
	s.stateMu.RUnlock()
	return domain.AggregateEcoContributions(contributions)
}

// LoadContributions replaces the known contributions, typically with those
// found in the transaction history.
func (s *EcoStore) LoadContributions(contributions []domain.EcoContribution) {
	s.stateMu.Lock()
	s.contributions = append([]domain.EcoContribution{}, contributions...)
	s.stateMu.Unlock()
}

func (s *EcoStore) setState(st domain.EcoState) {
	s.stateMu.Lock()
	s.state = st
	s.loaded = true
	s.stateMu.Unlock()
}

// Loaded reports whether the state has been fetched from the backend since
// the store was created or reset.
func (s *EcoStore) Loaded() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.loaded
}

// FetchEcoState loads the eco state from the transport.
func (s *EcoStore) FetchEcoState(ctx context.Context) result.Result[domain.EcoState] {
	a := action{name: "fetch_eco_state", fallback: failure.AsNetworkError}
	return run(ctx, &s.tracker, a, func(ctx context.Context) result.Result[domain.EcoState] {
		return s.transport.FetchEcoState(ctx, s.userID).OnOk(s.setState)
	})
}

// Donate validates the contribution, records it and folds its impact into the
// eco state. A store that was never loaded fetches the state first so that
// the rank change is measured against the backend totals.
func (s *EcoStore) Donate(ctx context.Context, in domain.EcoContributionInput) result.Result[DonationOutcome] {
	const op = "donate"
	validated := domain.ValidateEcoContribution(in, s.clock())
	if validated.IsErr() {
		return rejected[DonationOutcome](ctx, &s.tracker, op, validated.Failure())
	}
	contribution := validated.Value()
	if contribution.Amount == 0 {
		return rejected[DonationOutcome](ctx, &s.tracker, op, failure.PaymentFailed{Reason: "donation amount must be positive"})
	}

	a := action{name: op, guard: op, fallback: failure.AsPaymentFailed}
	return run(ctx, &s.tracker, a, func(ctx context.Context) result.Result[DonationOutcome] {
		if !s.Loaded() {
			if f := s.transport.FetchEcoState(ctx, s.userID).OnOk(s.setState).Failure(); f != nil {
				return result.Err[DonationOutcome](f)
			}
		}
		req := domain.DonationRequest{UserID: s.userID, Contribution: contribution}
		return result.Map(s.transport.Donate(ctx, req), func(m domain.BalanceMutation) DonationOutcome {
			return s.apply(m, contribution)
		})
	})
}

func (s *EcoStore) apply(m domain.BalanceMutation, c domain.EcoContribution) DonationOutcome {
	impact := domain.CalculateEcoImpact(c.Amount)

	s.stateMu.Lock()
	before := domain.GetEcoRankFromDonation(s.state.TotalDonation)
	if m.Eco != nil {
		s.state = *m.Eco
		s.loaded = true
	} else {
		s.state = domain.ApplyEcoImpact(s.state, impact, c.Amount)
	}
	s.contributions = append(s.contributions, c)
	st := s.state
	s.stateMu.Unlock()

	rank := domain.GetEcoRankFromDonation(st.TotalDonation)
	return DonationOutcome{
		Mutation:     m,
		Impact:       impact,
		State:        st,
		Rank:         rank,
		RankChanged:  rank != before,
		Contribution: c,
	}
}
