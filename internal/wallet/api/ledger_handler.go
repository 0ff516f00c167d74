package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/result"
	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/domain"
)

// Ledger is the backend served by LedgerHandler.
type Ledger interface {
	domain.Transport
	GrantCampaign(ctx context.Context, userID vo.UserID, c domain.CampaignBalance) result.Result[domain.Balance]
}

// LedgerHandler exposes a Ledger over HTTP so that remote wallets can use it
// as their transport. Request bodies are the domain request types; the user
// always comes from the path.
type LedgerHandler struct {
	ledger Ledger
}

// NewLedgerHandler creates a LedgerHandler over ledger.
func NewLedgerHandler(ledger Ledger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// RegisterRoutes registers the ledger routes on r.
func (h *LedgerHandler) RegisterRoutes(r *mux.Router) {
	l := r.PathPrefix("/ledger/users/{userID}").Subrouter()
	l.HandleFunc("/balance", h.GetBalance).Methods(http.MethodGet)
	l.HandleFunc("/charges", h.Charge).Methods(http.MethodPost)
	l.HandleFunc("/transfers", h.Transfer).Methods(http.MethodPost)
	l.HandleFunc("/payments", h.Pay).Methods(http.MethodPost)
	l.HandleFunc("/donations", h.Donate).Methods(http.MethodPost)
	l.HandleFunc("/campaigns", h.GrantCampaign).Methods(http.MethodPost)
	l.HandleFunc("/eco", h.GetEcoState).Methods(http.MethodGet)
	l.HandleFunc("/transactions", h.ListTransactions).Methods(http.MethodGet)
	l.HandleFunc("/transactions", h.CreateTransaction).Methods(http.MethodPost)
	l.HandleFunc("/transactions/{id}", h.UpdateTransaction).Methods(http.MethodPatch)
	l.HandleFunc("/transactions/{id}", h.DeleteTransaction).Methods(http.MethodDelete)
}

func userID(w http.ResponseWriter, r *http.Request) (vo.UserID, bool) {
	id, err := vo.ParseUserID(mux.Vars(r)["userID"])
	if err != nil {
		writeFailure(w, r, failure.RequiredField{Field: "user_id"})
		return vo.UserID{}, false
	}
	return id, true
}

// GetBalance handles GET /ledger/users/{userID}/balance.
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	respond(w, r, http.StatusOK, h.ledger.FetchBalance(r.Context(), user))
}

// Charge handles POST /ledger/users/{userID}/charges.
func (h *LedgerHandler) Charge(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	var req domain.ChargeRequest
	if f := decodeBody(r, &req); f != nil {
		writeFailure(w, r, f)
		return
	}
	req.UserID = user
	respond(w, r, http.StatusCreated, h.ledger.Charge(r.Context(), req))
}

// Transfer handles POST /ledger/users/{userID}/transfers.
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	var req domain.TransferRequest
	if f := decodeBody(r, &req); f != nil {
		writeFailure(w, r, f)
		return
	}
	req.UserID = user
	respond(w, r, http.StatusCreated, h.ledger.Transfer(r.Context(), req))
}

// Pay handles POST /ledger/users/{userID}/payments.
func (h *LedgerHandler) Pay(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	var req domain.PaymentRequest
	if f := decodeBody(r, &req); f != nil {
		writeFailure(w, r, f)
		return
	}
	req.UserID = user
	respond(w, r, http.StatusCreated, h.ledger.Pay(r.Context(), req))
}

// Donate handles POST /ledger/users/{userID}/donations.
func (h *LedgerHandler) Donate(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	var req domain.DonationRequest
	if f := decodeBody(r, &req); f != nil {
		writeFailure(w, r, f)
		return
	}
	req.UserID = user
	respond(w, r, http.StatusCreated, h.ledger.Donate(r.Context(), req))
}

// GrantCampaign handles POST /ledger/users/{userID}/campaigns.
func (h *LedgerHandler) GrantCampaign(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	var c domain.CampaignBalance
	if f := decodeBody(r, &c); f != nil {
		writeFailure(w, r, f)
		return
	}
	respond(w, r, http.StatusCreated, h.ledger.GrantCampaign(r.Context(), user, c))
}

// GetEcoState handles GET /ledger/users/{userID}/eco.
func (h *LedgerHandler) GetEcoState(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	respond(w, r, http.StatusOK, h.ledger.FetchEcoState(r.Context(), user))
}

// ListTransactions handles GET /ledger/users/{userID}/transactions.
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	respond(w, r, http.StatusOK, h.ledger.FetchTransactions(r.Context(), user))
}

// CreateTransaction handles POST /ledger/users/{userID}/transactions.
func (h *LedgerHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	var tx domain.Transaction
	if f := decodeBody(r, &tx); f != nil {
		writeFailure(w, r, f)
		return
	}
	respond(w, r, http.StatusCreated, h.ledger.CreateTransaction(r.Context(), user, tx))
}

// UpdateTransaction handles PATCH /ledger/users/{userID}/transactions/{id}.
func (h *LedgerHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, f := transactionID(r)
	if f != nil {
		writeFailure(w, r, f)
		return
	}
	var patch domain.TransactionPatch
	if f := decodeBody(r, &patch); f != nil {
		writeFailure(w, r, f)
		return
	}
	respond(w, r, http.StatusOK, h.ledger.UpdateTransaction(r.Context(), user, id, patch))
}

// DeletedResponse is the JSON body of a successful delete.
type DeletedResponse struct {
	ID domain.TransactionID `json:"id"`
}

// DeleteTransaction handles DELETE /ledger/users/{userID}/transactions/{id}.
func (h *LedgerHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, f := transactionID(r)
	if f != nil {
		writeFailure(w, r, f)
		return
	}
	res := result.Map(h.ledger.DeleteTransaction(r.Context(), user, id), func(id domain.TransactionID) DeletedResponse {
		return DeletedResponse{ID: id}
	})
	respond(w, r, http.StatusOK, res)
}
