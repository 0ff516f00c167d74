package domain

// Amount policy in yen.
const (
	MinChargeAmount   int64 = 100
	MaxChargeAmount   int64 = 1_000_000
	MaxTransferAmount int64 = 100_000
	MaxDonationAmount int64 = 50_000

	MaxDescriptionLength = 100

	LimitTypePerCharge   = "per_charge"
	LimitTypePerTransfer = "per_transfer"

	// DefaultDuplicateWindowMinutes is how far back CheckTransactionDuplicate
	// looks when callers do not configure a window.
	DefaultDuplicateWindowMinutes = 5
)

// transactionLimits caps the absolute amount of each transaction type.
var transactionLimits = map[TransactionType]int64{
	TransactionTypeCharge:   1_000_000,
	TransactionTypePayment:  500_000,
	TransactionTypeReceive:  100_000,
	TransactionTypeDonation: 50_000,
	TransactionTypeExpired:  0,
}

// TransactionLimit returns the maximum absolute amount for t.
func TransactionLimit(t TransactionType) (int64, bool) {
	limit, ok := transactionLimits[t]
	return limit, ok
}
