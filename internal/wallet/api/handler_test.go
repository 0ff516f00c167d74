package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/suite"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/wallet/api"
	"ecowallet/internal/wallet/application"
	"ecowallet/internal/wallet/domain"
	"ecowallet/internal/wallet/infrastructure/memory"
	"ecowallet/internal/wallet/ledger"
	"ecowallet/internal/wallet/notification"
)

// HandlerSuite tests HTTP handler behavior including failure mapping.
//
// Failure-to-status mapping is a boundary concern that requires HTTP-level
// testing. Every failure must reach the client as an envelope it can decode.
type HandlerSuite struct {
	suite.Suite
	now    time.Time
	router *mux.Router
	ready  error
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s.ready = nil
	clock := func() time.Time { return s.now }

	service := ledger.NewService(memory.NewDataStore(), clock)
	registry := application.NewRegistry(service, application.Options{Clock: clock})

	s.router = api.NewRouter(api.RouterConfig{
		Wallets:        api.NewWalletHandler(registry),
		Ledger:         api.NewLedgerHandler(service),
		Ready:          func(context.Context) error { return s.ready },
		Environment:    "test",
		RequestTimeout: 5 * time.Second,
	})
}

func (s *HandlerSuite) doRequest(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, dst any) {
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(dst))
}

// failureOf decodes the error envelope of rec back into a Failure.
func (s *HandlerSuite) failureOf(rec *httptest.ResponseRecorder) (failure.Failure, notification.Spec) {
	var resp api.ErrorResponse
	s.decode(rec, &resp)
	f, err := failure.Decode(resp.Error)
	s.Require().NoError(err)
	return f, resp.Notification
}

func (s *HandlerSuite) charge(user string, amount int64) {
	rec := s.doRequest(http.MethodPost, "/wallets/"+user+"/charge", map[string]any{"amount": amount})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *HandlerSuite) TestHealthAndReady() {
	rec := s.doRequest(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.NotEmpty(rec.Header().Get(api.CorrelationHeader))

	rec = s.doRequest(http.MethodGet, "/ready", nil)
	s.Equal(http.StatusOK, rec.Code)

	s.ready = errors.New("database unreachable")
	rec = s.doRequest(http.MethodGet, "/ready", nil)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
}

func (s *HandlerSuite) TestCorrelationIDIsEchoed() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(api.CorrelationHeader, "corr-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal("corr-123", rec.Header().Get(api.CorrelationHeader))
}

func (s *HandlerSuite) TestFailureMapping() {
	s.Run("charge below minimum returns 422 with envelope", func() {
		rec := s.doRequest(http.MethodPost, "/wallets/alice/charge", map[string]any{"amount": 50})

		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		f, spec := s.failureOf(rec)
		s.Equal(failure.ChargeMinimumNotMet{Minimum: domain.MinChargeAmount, Requested: 50}, f)
		s.Equal(failure.KindChargeMinimumNotMet, spec.Kind)
		s.NotEmpty(spec.Message)
	})

	s.Run("malformed body returns 400", func() {
		req := httptest.NewRequest(http.MethodPost, "/wallets/alice/charge", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusBadRequest, rec.Code)
		f, _ := s.failureOf(rec)
		s.Equal(failure.InvalidFormat{Field: "body", ExpectedFormat: "JSON object"}, f)
	})

	s.Run("unknown fields are rejected", func() {
		rec := s.doRequest(http.MethodPost, "/wallets/alice/charge", map[string]any{"amount": 1000, "bonus": 1})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("insufficient balance returns 422", func() {
		rec := s.doRequest(http.MethodPost, "/wallets/alice/transfer", map[string]any{
			"recipient_id": "bob",
			"amount":       500,
		})

		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		f, _ := s.failureOf(rec)
		s.Equal(failure.KindInsufficientBalance, f.Kind())
	})

	s.Run("invalid QR code returns 400", func() {
		rec := s.doRequest(http.MethodPost, "/wallets/alice/qr-payment", map[string]any{"payload": "https://example.com"})

		s.Equal(http.StatusBadRequest, rec.Code)
		f, _ := s.failureOf(rec)
		s.Equal(failure.KindInvalidQRCode, f.Kind())
	})

	s.Run("malformed transaction ID returns 400", func() {
		rec := s.doRequest(http.MethodDelete, "/wallets/alice/transactions/not-a-uuid", nil)

		s.Equal(http.StatusBadRequest, rec.Code)
		f, _ := s.failureOf(rec)
		s.Equal(failure.InvalidFormat{Field: "id", ExpectedFormat: "UUID"}, f)
	})

	s.Run("missing sufficiency amount returns 400", func() {
		rec := s.doRequest(http.MethodGet, "/wallets/alice/balance/sufficiency", nil)

		s.Equal(http.StatusBadRequest, rec.Code)
		f, _ := s.failureOf(rec)
		s.Equal(failure.RequiredField{Field: "required"}, f)
	})
}

func (s *HandlerSuite) TestChargeAndTransfer() {
	s.charge("alice", 3000)
	s.charge("bob", 1000)

	rec := s.doRequest(http.MethodPost, "/wallets/alice/transfer", map[string]any{
		"recipient_id": "bob",
		"amount":       1200,
		"message":      "  lunch  ",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var mutation domain.BalanceMutation
	s.decode(rec, &mutation)
	s.Equal(int64(1800), mutation.Balance.RegularBalance)
	s.Equal(int64(-1200), mutation.Transaction.Amount)
	s.Equal("lunch", mutation.Transaction.Description)

	rec = s.doRequest(http.MethodGet, "/wallets/alice/balance/summary", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var summary domain.BalanceSummary
	s.decode(rec, &summary)
	s.Equal(int64(1800), summary.AvailableBalance)

	rec = s.doRequest(http.MethodGet, "/wallets/alice/balance/sufficiency?required=2000", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var check domain.SufficiencyCheck
	s.decode(rec, &check)
	s.False(check.HasSufficientFunds)
	s.Equal(int64(200), check.ShortfallAmount)

	rec = s.doRequest(http.MethodGet, "/ledger/users/bob/balance", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var bobBalance domain.Balance
	s.decode(rec, &bobBalance)
	s.Equal(int64(2200), bobBalance.RegularBalance)
}

func (s *HandlerSuite) TestTransactionLifecycle() {
	rec := s.doRequest(http.MethodPost, "/wallets/alice/transactions", map[string]any{
		"type":        "payment",
		"amount":      -300,
		"description": "coffee",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.Transaction
	s.decode(rec, &created)

	rec = s.doRequest(http.MethodPost, "/wallets/alice/transactions", map[string]any{
		"type":        "payment",
		"amount":      -300,
		"description": "coffee",
	})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.doRequest(http.MethodPatch, "/wallets/alice/transactions/"+created.ID.String(), map[string]any{
		"description": "espresso",
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.Transaction
	s.decode(rec, &updated)
	s.Equal("espresso", updated.Description)
	s.Equal(created.Amount, updated.Amount)

	rec = s.doRequest(http.MethodGet, "/wallets/alice/transactions/summary", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var summary domain.TransactionSummary
	s.decode(rec, &summary)
	s.Equal(1, summary.Count)
	s.Equal(int64(300), summary.TotalExpense)

	rec = s.doRequest(http.MethodDelete, "/wallets/alice/transactions/"+created.ID.String(), nil)
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.doRequest(http.MethodDelete, "/ledger/users/alice/transactions/"+created.ID.String(), nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.doRequest(http.MethodGet, "/wallets/alice/transactions?refresh=true", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var txs []domain.Transaction
	s.decode(rec, &txs)
	s.Empty(txs)
}

func (s *HandlerSuite) TestDonationAndEco() {
	s.charge("alice", 10000)

	rec := s.doRequest(http.MethodPost, "/wallets/alice/donations", map[string]any{
		"amount":       6000,
		"category":     "forest",
		"project_name": "Mangroves",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var outcome application.DonationOutcome
	s.decode(rec, &outcome)
	s.True(outcome.RankChanged)
	s.Equal(domain.EcoRankFriend, outcome.Rank)

	rec = s.doRequest(http.MethodGet, "/wallets/alice/eco", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var eco api.EcoResponse
	s.decode(rec, &eco)
	s.Equal(int64(6000), eco.State.TotalDonation)
	s.Equal(2, eco.Level)
	s.Require().NotNil(eco.Progress)
	s.Require().NotNil(eco.NextMilestone)
	s.Equal(int64(14000), eco.NextMilestone.Amount)
	s.Empty(eco.Errors)

	rec = s.doRequest(http.MethodGet, "/ledger/users/alice/eco", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var state domain.EcoState
	s.decode(rec, &state)
	s.Equal(int64(6000), state.TotalDonation)
}

func (s *HandlerSuite) TestNotifications() {
	rec := s.doRequest(http.MethodPost, "/wallets/alice/charge", map[string]any{"amount": 50})
	s.Require().Equal(http.StatusUnprocessableEntity, rec.Code)

	rec = s.doRequest(http.MethodGet, "/wallets/alice/notifications", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var active []notification.Notification
	s.decode(rec, &active)
	s.Require().Len(active, 1)
	s.Equal(failure.KindChargeMinimumNotMet, active[0].Spec.Kind)

	rec = s.doRequest(http.MethodDelete, "/wallets/alice/notifications/"+string(active[0].ID), nil)
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.doRequest(http.MethodDelete, "/wallets/alice/notifications/"+string(active[0].ID), nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestSnapshotResetAndErrors() {
	s.charge("alice", 2000)

	rec := s.doRequest(http.MethodPost, "/wallets/alice/refresh", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.doRequest(http.MethodGet, "/wallets/alice", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var snap application.Snapshot
	s.decode(rec, &snap)
	s.Equal(int64(2000), snap.Balance.TotalBalance)
	s.Len(snap.Transactions, 1)

	rec = s.doRequest(http.MethodDelete, "/wallets/alice/errors", nil)
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.doRequest(http.MethodPost, "/wallets/alice/reset", nil)
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.doRequest(http.MethodGet, "/wallets/alice", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	snap = application.Snapshot{}
	s.decode(rec, &snap)
	s.Zero(snap.Balance.TotalBalance)
	s.Empty(snap.Transactions)
}

func (s *HandlerSuite) TestLedgerRoutes() {
	s.Run("charge and pay", func() {
		rec := s.doRequest(http.MethodPost, "/ledger/users/carol/charges", map[string]any{"amount": 5000})
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

		rec = s.doRequest(http.MethodPost, "/ledger/users/carol/payments", map[string]any{
			"merchant_id":   "m-1",
			"merchant_name": "Bakery",
			"amount":        1500,
		})
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
		var mutation domain.BalanceMutation
		s.decode(rec, &mutation)
		s.Equal(int64(3500), mutation.Balance.RegularBalance)
		s.Equal("Bakery", mutation.Transaction.Description)
	})

	s.Run("self transfer is rejected", func() {
		rec := s.doRequest(http.MethodPost, "/ledger/users/carol/transfers", map[string]any{
			"recipient_id": "carol",
			"amount":       100,
		})
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		f, _ := s.failureOf(rec)
		s.Equal(failure.KindTransferToSelf, f.Kind())
	})

	s.Run("campaign grant", func() {
		rec := s.doRequest(http.MethodPost, "/ledger/users/carol/campaigns", map[string]any{
			"id":          "spring",
			"name":        "Spring bonus",
			"amount":      500,
			"expiry_date": s.now.Add(72 * time.Hour),
		})
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
		var balance domain.Balance
		s.decode(rec, &balance)
		s.Require().Len(balance.CampaignBalances, 1)
		s.Equal(int64(500), balance.CampaignBalances[0].Amount)
	})

	s.Run("transactions are listed newest first", func() {
		rec := s.doRequest(http.MethodGet, "/ledger/users/carol/transactions", nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var txs []domain.Transaction
		s.decode(rec, &txs)
		s.Len(txs, 2)
	})
}

func (s *HandlerSuite) TestLedgerRoutesRejectUnvalidatedAmounts() {
	rec := s.doRequest(http.MethodPost, "/ledger/users/mallory/charges", map[string]any{"amount": -5000})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	f, _ := s.failureOf(rec)
	s.Equal(failure.KindChargeMinimumNotMet, f.Kind())

	rec = s.doRequest(http.MethodPost, "/ledger/users/mallory/charges", map[string]any{"amount": 50_000_000})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	f, _ = s.failureOf(rec)
	s.Equal(failure.KindTransactionLimitExceeded, f.Kind())

	rec = s.doRequest(http.MethodPost, "/ledger/users/mallory/transactions", map[string]any{
		"type":        "charge",
		"amount":      -7,
		"description": "",
	})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	f, _ = s.failureOf(rec)
	s.Equal(failure.KindChargeMinimumNotMet, f.Kind())

	rec = s.doRequest(http.MethodPost, "/ledger/users/mallory/transactions", map[string]any{
		"type":        "payment",
		"amount":      -300,
		"description": "",
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	f, _ = s.failureOf(rec)
	s.Equal(failure.RequiredField{Field: "description"}, f)

	rec = s.doRequest(http.MethodGet, "/wallets/mallory", nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var snap application.Snapshot
	s.decode(rec, &snap)
	s.Zero(snap.Balance.TotalBalance)
	s.Empty(snap.Transactions)
}
