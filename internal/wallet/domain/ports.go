package domain

import (
	"context"

	"ecowallet/internal/common/result"
	vo "ecowallet/internal/common/value_objects"
)

// BalanceMutation is the outcome of a money-moving call: the recorded
// transaction and the balance after it.
type BalanceMutation struct {
	Balance     Balance     `json:"balance"`
	Transaction Transaction `json:"transaction"`
	// Eco is the eco state after a donation. Other mutations leave it nil.
	Eco *EcoState `json:"eco,omitempty"`
}

// ChargeRequest tops up a wallet.
type ChargeRequest struct {
	UserID vo.UserID `json:"user_id"`
	Amount int64     `json:"amount"`
}

// TransferRequest moves money to another wallet.
type TransferRequest struct {
	UserID      vo.UserID  `json:"user_id"`
	RecipientID vo.UserID  `json:"recipient_id"`
	Amount      int64      `json:"amount"`
	Message     string     `json:"message,omitempty"`
	SplitInfo   *SplitInfo `json:"split_info,omitempty"`
}

// PaymentRequest pays a merchant, typically from a scanned QR code.
type PaymentRequest struct {
	UserID       vo.UserID `json:"user_id"`
	MerchantID   string    `json:"merchant_id"`
	MerchantName string    `json:"merchant_name"`
	Amount       int64     `json:"amount"`
}

// DonationRequest records an eco contribution paid from the wallet.
type DonationRequest struct {
	UserID       vo.UserID       `json:"user_id"`
	Contribution EcoContribution `json:"contribution"`
}

// BalanceTransport is the balance collaborator. Implementations never panic
// across the boundary and report every failure through the Result.
type BalanceTransport interface {
	FetchBalance(ctx context.Context, userID vo.UserID) result.Result[Balance]
	Charge(ctx context.Context, req ChargeRequest) result.Result[BalanceMutation]
	Transfer(ctx context.Context, req TransferRequest) result.Result[BalanceMutation]
	Pay(ctx context.Context, req PaymentRequest) result.Result[BalanceMutation]
}

// TransactionTransport is the transaction history collaborator.
type TransactionTransport interface {
	FetchTransactions(ctx context.Context, userID vo.UserID) result.Result[[]Transaction]
	CreateTransaction(ctx context.Context, userID vo.UserID, tx Transaction) result.Result[Transaction]
	UpdateTransaction(ctx context.Context, userID vo.UserID, id TransactionID, patch TransactionPatch) result.Result[Transaction]
	DeleteTransaction(ctx context.Context, userID vo.UserID, id TransactionID) result.Result[TransactionID]
}

// EcoTransport is the eco contribution collaborator.
type EcoTransport interface {
	FetchEcoState(ctx context.Context, userID vo.UserID) result.Result[EcoState]
	Donate(ctx context.Context, req DonationRequest) result.Result[BalanceMutation]
}

// Transport bundles the collaborators a wallet needs.
type Transport interface {
	BalanceTransport
	TransactionTransport
	EcoTransport
}
