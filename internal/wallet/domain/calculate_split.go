package domain

import (
	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/result"
)

// MaxSplitParticipants bounds the size of a bill split.
const MaxSplitParticipants = 20

// CalculateSplitAmounts divides total into participants shares. Any remainder
// is spread one yen at a time over the first participants.
func CalculateSplitAmounts(total int64, participants int) result.Result[[]int64] {
	if participants < 2 || participants > MaxSplitParticipants {
		return result.Err[[]int64](failure.InvalidRange{
			Field: "participants",
			Min:   2,
			Max:   MaxSplitParticipants,
		})
	}
	if total <= 0 {
		return result.Err[[]int64](failure.PaymentFailed{Reason: "split total must be positive"})
	}
	n := int64(participants)
	base, remainder := total/n, total%n
	shares := make([]int64, participants)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return result.Ok(shares)
}

// ValidateSplitInfo checks that the shares cover the total exactly.
func ValidateSplitInfo(s SplitInfo) result.Result[SplitInfo] {
	if s.Participants < 2 || s.Participants > MaxSplitParticipants {
		return result.Err[SplitInfo](failure.InvalidRange{Field: "participants", Min: 2, Max: MaxSplitParticipants})
	}
	if s.TotalAmount <= 0 {
		return result.Err[SplitInfo](failure.PaymentFailed{Reason: "split total must be positive"})
	}
	if len(s.Shares) == 0 {
		shares := CalculateSplitAmounts(s.TotalAmount, s.Participants)
		if shares.IsErr() {
			return result.Err[SplitInfo](shares.Failure())
		}
		s.Shares = shares.Value()
		return result.Ok(s)
	}
	if len(s.Shares) != s.Participants {
		return result.Err[SplitInfo](failure.InvalidFormat{Field: "shares", ExpectedFormat: "one share per participant"})
	}
	var sum int64
	for _, share := range s.Shares {
		if share < 0 {
			return result.Err[SplitInfo](failure.PaymentFailed{Reason: "split share cannot be negative"})
		}
		sum += share
	}
	if sum != s.TotalAmount {
		return result.Err[SplitInfo](failure.PaymentFailed{Reason: "split shares do not add up to the total"})
	}
	return result.Ok(s)
}
