package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/result"
	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/application"
	"ecowallet/internal/wallet/domain"
	"ecowallet/internal/wallet/notification"
)

// WalletHandler exposes the wallet orchestrators over HTTP. Every route is
// scoped to the wallet named by {userID}.
type WalletHandler struct {
	registry *application.Registry
}

// NewWalletHandler creates a WalletHandler over registry.
func NewWalletHandler(registry *application.Registry) *WalletHandler {
	return &WalletHandler{registry: registry}
}

// RegisterRoutes registers the wallet routes on r.
func (h *WalletHandler) RegisterRoutes(r *mux.Router) {
	w := r.PathPrefix("/wallets/{userID}").Subrouter()
	w.HandleFunc("", h.GetSnapshot).Methods(http.MethodGet)
	w.HandleFunc("/refresh", h.Refresh).Methods(http.MethodPost)
	w.HandleFunc("/reset", h.Reset).Methods(http.MethodPost)
	w.HandleFunc("/errors", h.ClearErrors).Methods(http.MethodDelete)

	w.HandleFunc("/balance/summary", h.GetBalanceSummary).Methods(http.MethodGet)
	w.HandleFunc("/balance/sufficiency", h.CheckSufficiency).Methods(http.MethodGet)
	w.HandleFunc("/charge", h.Charge).Methods(http.MethodPost)
	w.HandleFunc("/transfer", h.Transfer).Methods(http.MethodPost)
	w.HandleFunc("/qr-payment", h.PayQR).Methods(http.MethodPost)

	w.HandleFunc("/transactions", h.ListTransactions).Methods(http.MethodGet)
	w.HandleFunc("/transactions", h.CreateTransaction).Methods(http.MethodPost)
	w.HandleFunc("/transactions/summary", h.GetTransactionSummary).Methods(http.MethodGet)
	w.HandleFunc("/transactions/{id}", h.UpdateTransaction).Methods(http.MethodPatch)
	w.HandleFunc("/transactions/{id}", h.DeleteTransaction).Methods(http.MethodDelete)

	w.HandleFunc("/eco", h.GetEco).Methods(http.MethodGet)
	w.HandleFunc("/donations", h.Donate).Methods(http.MethodPost)

	w.HandleFunc("/notifications", h.ListNotifications).Methods(http.MethodGet)
	w.HandleFunc("/notifications/{id}", h.DismissNotification).Methods(http.MethodDelete)
}

// wallet resolves the wallet of the request, answering with a failure when the
// path holds no usable user ID.
func (h *WalletHandler) wallet(w http.ResponseWriter, r *http.Request) (*application.Wallet, bool) {
	userID, _ := vo.ParseUserID(mux.Vars(r)["userID"])
	res := h.registry.Wallet(userID)
	if res.IsErr() {
		writeFailure(w, r, res.Failure())
		return nil, false
	}
	return res.Value(), true
}

// respond writes res with status on success.
func respond[T any](w http.ResponseWriter, r *http.Request, status int, res result.Result[T]) {
	result.Match(res,
		func(v T) struct{} { writeJSON(w, status, v); return struct{}{} },
		func(f failure.Failure) struct{} { writeFailure(w, r, f); return struct{}{} },
	)
}

// GetSnapshot handles GET /wallets/{userID}.
func (h *WalletHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	respond(w, r, http.StatusOK, wallet.Snapshot())
}

// Refresh handles POST /wallets/{userID}/refresh.
func (h *WalletHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	respond(w, r, http.StatusOK, wallet.Refresh(r.Context()))
}

// Reset handles POST /wallets/{userID}/reset.
func (h *WalletHandler) Reset(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	wallet.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// ClearErrors handles DELETE /wallets/{userID}/errors.
func (h *WalletHandler) ClearErrors(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	wallet.ClearErrors()
	w.WriteHeader(http.StatusNoContent)
}

// GetBalanceSummary handles GET /wallets/{userID}/balance/summary.
func (h *WalletHandler) GetBalanceSummary(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	respond(w, r, http.StatusOK, wallet.Balance.Summary(wallet.Now()))
}

// CheckSufficiency handles GET /wallets/{userID}/balance/sufficiency?required=N.
func (h *WalletHandler) CheckSufficiency(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	raw := r.URL.Query().Get("required")
	if raw == "" {
		writeFailure(w, r, failure.RequiredField{Field: "required"})
		return
	}
	required, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeFailure(w, r, failure.InvalidFormat{Field: "required", ExpectedFormat: "integer yen"})
		return
	}
	respond(w, r, http.StatusOK, wallet.Balance.CheckSufficient(required, wallet.Now()))
}

// ChargeRequest is the JSON request body for a charge.
type ChargeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Charge handles POST /wallets/{userID}/charge.
func (h *WalletHandler) Charge(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	var req ChargeRequest
	if f := decodeBody(r, &req); f != nil {
		writeFailure(w, r, f)
		return
	}
	respond(w, r, http.StatusCreated, wallet.Charge(r.Context(), req.Amount))
}

// Transfer handles POST /wallets/{userID}/transfer.
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	var req application.TransferInput
	if f := decodeBody(r, &req); f != nil {
		writeFailure(w, r, f)
		return
	}
	respond(w, r, http.StatusCreated, wallet.Transfer(r.Context(), req))
}

// QRPaymentRequest is the JSON request body for a QR payment.
type QRPaymentRequest struct {
	Payload string `json:"payload"`
}

// PayQR handles POST /wallets/{userID}/qr-payment.
func (h *WalletHandler) PayQR(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	var req QRPaymentRequest
	if f := decodeBody(r, &req); f != nil {
		writeFailure(w, r, f)
		return
	}
	respond(w, r, http.StatusCreated, wallet.PayQR(r.Context(), req.Payload))
}

// ListTransactions handles GET /wallets/{userID}/transactions. The cached
// history is returned unless ?refresh=true is given.
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("refresh") == "true" {
		respond(w, r, http.StatusOK, wallet.Transactions.FetchTransactions(r.Context()))
		return
	}
	writeJSON(w, http.StatusOK, wallet.Transactions.Transactions())
}

// CreateTransaction handles POST /wallets/{userID}/transactions.
func (h *WalletHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	var req domain.TransactionInput
	if f := decodeBody(r, &req); f != nil {
		writeFailure(w, r, f)
		return
	}
	respond(w, r, http.StatusCreated, wallet.Transactions.CreateTransaction(r.Context(), req))
}

// GetTransactionSummary handles GET /wallets/{userID}/transactions/summary.
func (h *WalletHandler) GetTransactionSummary(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wallet.Transactions.Summary())
}

func transactionID(r *http.Request) (domain.TransactionID, failure.Failure) {
	id, err := domain.ParseTransactionID(mux.Vars(r)["id"])
	if err != nil {
		return domain.TransactionID{}, failure.InvalidFormat{Field: "id", ExpectedFormat: "UUID"}
	}
	return id, nil
}

// UpdateTransaction handles PATCH /wallets/{userID}/transactions/{id}.
func (h *WalletHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
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
	respond(w, r, http.StatusOK, wallet.Transactions.UpdateTransaction(r.Context(), id, patch))
}

// DeleteTransaction handles DELETE /wallets/{userID}/transactions/{id}.
func (h *WalletHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	id, f := transactionID(r)
	if f != nil {
		writeFailure(w, r, f)
		return
	}
	res := wallet.Transactions.DeleteTransaction(r.Context(), id)
	if res.IsErr() {
		writeFailure(w, r, res.Failure())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EcoResponse is the eco dashboard of a wallet. Progress and milestone are
// omitted when they cannot be computed; the failure is reported instead.
type EcoResponse struct {
	State         domain.EcoState               `json:"state"`
	Rank          domain.EcoRank                `json:"rank"`
	Level         int                           `json:"level"`
	Progress      *int                          `json:"progress,omitempty"`
	NextMilestone *domain.Milestone             `json:"next_milestone,omitempty"`
	Summary       domain.EcoContributionSummary `json:"summary"`
	Errors        []failure.Envelope            `json:"errors,omitempty"`
}

// GetEco handles GET /wallets/{userID}/eco.
func (h *WalletHandler) GetEco(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	rank := wallet.Eco.Rank()
	resp := EcoResponse{
		State:   wallet.Eco.State(),
		Rank:    rank,
		Level:   rank.Level(),
		Summary: wallet.Eco.Summary(),
	}
	report := func(f failure.Failure) {
		if env, err := failure.Encode(f); err == nil {
			resp.Errors = append(resp.Errors, env)
		}
	}
	wallet.Eco.Progress().Tap(func(p int) { resp.Progress = &p }, report)
	wallet.Eco.NextMilestone().Tap(func(m domain.Milestone) { resp.NextMilestone = &m }, report)
	writeJSON(w, http.StatusOK, resp)
}

// Donate handles POST /wallets/{userID}/donations.
func (h *WalletHandler) Donate(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	var req domain.EcoContributionInput
	if f := decodeBody(r, &req); f != nil {
		writeFailure(w, r, f)
		return
	}
	respond(w, r, http.StatusCreated, wallet.Donate(r.Context(), req))
}

// ListNotifications handles GET /wallets/{userID}/notifications.
func (h *WalletHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wallet.Notifications.Active(wallet.Now()))
}

// DismissNotification handles DELETE /wallets/{userID}/notifications/{id}.
func (h *WalletHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	wallet, ok := h.wallet(w, r)
	if !ok {
		return
	}
	if !wallet.Notifications.Remove(notification.ID(mux.Vars(r)["id"])) {
		writeFailure(w, r, failure.NotFound{Resource: "notification"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
