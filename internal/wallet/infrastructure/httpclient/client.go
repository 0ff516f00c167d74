// Package httpclient is a domain.Transport that talks to the ledger routes of
// a remote wallet service.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/logging"
	"ecowallet/internal/common/metrics"
	"ecowallet/internal/common/result"
	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/api"
	"ecowallet/internal/wallet/domain"
)

// Client calls a remote ledger over HTTP. Every outcome, including transport
// errors and undecodable responses, is reported as a Failure.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

var _ api.Ledger = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout bounds every call made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid wallet API URL %q", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		userAgent:  "ecowallet/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// call describes one request to the ledger.
type call struct {
	op       string
	method   string
	path     string
	body     any
	resource string
	fallback failure.Fallback
}

func userPath(userID vo.UserID, suffix string) string {
	return "/ledger/users/" + url.PathEscape(userID.String()) + suffix
}

func do[T any](ctx context.Context, c *Client, cl call) result.Result[T] {
	out, f := c.send(ctx, cl)
	if f != nil {
		return result.Err[T](f)
	}
	defer out.Body.Close()

	var v T
	if err := json.NewDecoder(out.Body).Decode(&v); err != nil {
		logging.WarnContext(ctx, "Undecodable ledger response", "op", cl.op, "error", err)
		return result.Err[T](failure.ServerError{StatusCode: http.StatusBadGateway})
	}
	return result.Ok(v)
}

// send performs the request and returns the response only for 2xx statuses.
func (c *Client) send(ctx context.Context, cl call) (*http.Response, failure.Failure) {
	var body bytes.Buffer
	if cl.body != nil {
		if err := json.NewEncoder(&body).Encode(cl.body); err != nil {
			return nil, failure.BadRequest{Message: "encode request: " + err.Error()}
		}
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, &body)
	if err != nil {
		return nil, failure.FromError(err, cl.fallback)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if corrID := logging.CorrelationIDFromContext(ctx); !corrID.IsEmpty() {
		req.Header.Set(api.CorrelationHeader, corrID.String())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		f := transportFailure(err, cl.fallback)
		logging.WarnContext(ctx, "Ledger call failed", append([]any{"op", cl.op}, logging.FailureAttrs(f)...)...)
		metrics.RecordOperation("remote_"+cl.op, false)
		return nil, f
	}
	logging.DebugContext(ctx, "Ledger call",
		"op", cl.op,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		metrics.RecordOperation("remote_"+cl.op, true)
		return resp, nil
	}
	defer resp.Body.Close()
	metrics.RecordOperation("remote_"+cl.op, false)
	return nil, decodeFailure(resp, cl.resource)
}

// transportFailure classifies an error returned by http.Client.Do.
func transportFailure(err error, fallback failure.Fallback) failure.Failure {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failure.TimeoutError{}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return failure.FromError(err, fallback)
	}
	return failure.NetworkError{Cause: err.Error()}
}

// decodeFailure rebuilds the failure carried by an error response. Bodies
// that are not an error envelope fall back to the status code.
func decodeFailure(resp *http.Response, resource string) failure.Failure {
	var body api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error.Type != "" {
		if f, err := failure.Decode(body.Error); err == nil {
			return f
		}
	}
	return failure.FromHTTPStatus(resp.StatusCode, resource, resp.Header.Get("Retry-After"))
}

// FetchBalance implements domain.BalanceTransport.
func (c *Client) FetchBalance(ctx context.Context, userID vo.UserID) result.Result[domain.Balance] {
	return do[domain.Balance](ctx, c, call{
		op:       "fetch_balance",
		method:   http.MethodGet,
		path:     userPath(userID, "/balance"),
		resource: "wallet",
		fallback: failure.AsNetworkError,
	})
}

// Charge implements domain.BalanceTransport.
func (c *Client) Charge(ctx context.Context, req domain.ChargeRequest) result.Result[domain.BalanceMutation] {
	return do[domain.BalanceMutation](ctx, c, call{
		op:       "charge",
		method:   http.MethodPost,
		path:     userPath(req.UserID, "/charges"),
		body:     req,
		resource: "wallet",
		fallback: failure.AsPaymentFailed,
	})
}

// Transfer implements domain.BalanceTransport.
func (c *Client) Transfer(ctx context.Context, req domain.TransferRequest) result.Result[domain.BalanceMutation] {
	return do[domain.BalanceMutation](ctx, c, call{
		op:       "transfer",
		method:   http.MethodPost,
		path:     userPath(req.UserID, "/transfers"),
		body:     req,
		resource: "wallet",
		fallback: failure.AsPaymentFailed,
	})
}

// Pay implements domain.BalanceTransport.
func (c *Client) Pay(ctx context.Context, req domain.PaymentRequest) result.Result[domain.BalanceMutation] {
	return do[domain.BalanceMutation](ctx, c, call{
		op:       "pay",
		method:   http.MethodPost,
		path:     userPath(req.UserID, "/payments"),
		body:     req,
		resource: "wallet",
		fallback: failure.AsPaymentFailed,
	})
}

// FetchEcoState implements domain.EcoTransport.
func (c *Client) FetchEcoState(ctx context.Context, userID vo.UserID) result.Result[domain.EcoState] {
	return do[domain.EcoState](ctx, c, call{
		op:       "fetch_eco_state",
		method:   http.MethodGet,
		path:     userPath(userID, "/eco"),
		resource: "wallet",
		fallback: failure.AsNetworkError,
	})
}

// Donate implements domain.EcoTransport.
func (c *Client) Donate(ctx context.Context, req domain.DonationRequest) result.Result[domain.BalanceMutation] {
	return do[domain.BalanceMutation](ctx, c, call{
		op:       "donate",
		method:   http.MethodPost,
		path:     userPath(req.UserID, "/donations"),
		body:     req,
		resource: "wallet",
		fallback: failure.AsPaymentFailed,
	})
}

// FetchTransactions implements domain.TransactionTransport.
func (c *Client) FetchTransactions(ctx context.Context, userID vo.UserID) result.Result[[]domain.Transaction] {
	return result.Map(do[[]domain.Transaction](ctx, c, call{
		op:       "fetch_transactions",
		method:   http.MethodGet,
		path:     userPath(userID, "/transactions"),
		resource: "wallet",
		fallback: failure.AsNetworkError,
	}), func(txs []domain.Transaction) []domain.Transaction {
		if txs == nil {
			return []domain.Transaction{}
		}
		return txs
	})
}

// CreateTransaction implements domain.TransactionTransport.
func (c *Client) CreateTransaction(ctx context.Context, userID vo.UserID, tx domain.Transaction) result.Result[domain.Transaction] {
	return do[domain.Transaction](ctx, c, call{
		op:       "create_transaction",
		method:   http.MethodPost,
		path:     userPath(userID, "/transactions"),
		body:     tx,
		resource: "wallet",
		fallback: failure.AsNetworkError,
	})
}

// UpdateTransaction implements domain.TransactionTransport.
func (c *Client) UpdateTransaction(ctx context.Context, userID vo.UserID, id domain.TransactionID, patch domain.TransactionPatch) result.Result[domain.Transaction] {
	return do[domain.Transaction](ctx, c, call{
		op:       "update_transaction",
		method:   http.MethodPatch,
		path:     userPath(userID, "/transactions/"+url.PathEscape(id.String())),
		body:     patch,
		resource: "transaction",
		fallback: failure.AsNetworkError,
	})
}

// DeleteTransaction implements domain.TransactionTransport.
func (c *Client) DeleteTransaction(ctx context.Context, userID vo.UserID, id domain.TransactionID) result.Result[domain.TransactionID] {
	return result.Map(do[api.DeletedResponse](ctx, c, call{
		op:       "delete_transaction",
		method:   http.MethodDelete,
		path:     userPath(userID, "/transactions/"+url.PathEscape(id.String())),
		resource: "transaction",
		fallback: failure.AsNetworkError,
	}), func(resp api.DeletedResponse) domain.TransactionID {
		return resp.ID
	})
}

// GrantCampaign adds a campaign credit on the remote ledger.
func (c *Client) GrantCampaign(ctx context.Context, userID vo.UserID, campaign domain.CampaignBalance) result.Result[domain.Balance] {
	return do[domain.Balance](ctx, c, call{
		op:       "grant_campaign",
		method:   http.MethodPost,
		path:     userPath(userID, "/campaigns"),
		body:     campaign,
		resource: "wallet",
		fallback: failure.AsPaymentFailed,
	})
}
