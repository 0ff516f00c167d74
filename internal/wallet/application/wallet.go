package application

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/shopspring/decimal"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/result"
	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/domain"
	"ecowallet/internal/wallet/notification"
)

// DefaultMaxWallets is the registry size used when Options.MaxWallets is unset.
const DefaultMaxWallets = 10_000

// Options configures the wallets created by a Registry.
type Options struct {
	DuplicateWindowMinutes int
	NotificationCapacity   int
	// MaxWallets bounds the wallets a Registry keeps; the least recently used
	// one is dropped beyond it. Defaults to DefaultMaxWallets.
	MaxWallets int
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Wallet bundles the stores of one user and keeps them consistent across
// actions that touch more than one of them.
type Wallet struct {
	UserID        vo.UserID
	Balance       *BalanceStore
	Transactions  *TransactionStore
	Eco           *EcoStore
	Notifications *notification.Queue
	clock         func() time.Time
}

// NewWallet wires the stores of userID to transport.
func NewWallet(userID vo.UserID, transport domain.Transport, opts Options) *Wallet {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	queue := notification.NewQueue(opts.NotificationCapacity, clock)
	return &Wallet{
		UserID:        userID,
		Balance:       NewBalanceStore(userID, transport, queue, clock),
		Transactions:  NewTransactionStore(userID, transport, queue, clock, opts.DuplicateWindowMinutes),
		Eco:           NewEcoStore(userID, transport, queue, clock),
		Notifications: queue,
		clock:         clock,
	}
}

// Now returns the current time of the wallet clock.
func (w *Wallet) Now() time.Time {
	return w.clock()
}

// Snapshot is the whole observable state of a wallet.
type Snapshot struct {
	UserID        vo.UserID                   `json:"user_id"`
	Balance       domain.BalanceSummary       `json:"balance"`
	Transactions  []domain.Transaction        `json:"transactions"`
	Eco           domain.EcoState             `json:"eco"`
	Rank          domain.EcoRank              `json:"rank"`
	Loading       bool                        `json:"loading"`
	Notifications []notification.Notification `json:"notifications"`
	Errors        map[string]failure.Envelope `json:"errors,omitempty"`
}

// Refresh reloads balance, history and eco state. The first failure is
// returned; every store still attempts its fetch.
func (w *Wallet) Refresh(ctx context.Context) result.Result[Snapshot] {
	var (
		wg       sync.WaitGroup
		balance  result.Result[domain.Balance]
		txs      result.Result[[]domain.Transaction]
		ecoState result.Result[domain.EcoState]
	)
	wg.Add(3)
	go func() { defer wg.Done(); balance = w.Balance.FetchBalance(ctx) }()
	go func() { defer wg.Done(); txs = w.Transactions.FetchTransactions(ctx) }()
	go func() { defer wg.Done(); ecoState = w.Eco.FetchEcoState(ctx) }()
	wg.Wait()

	for _, f := range []failure.Failure{balance.Failure(), txs.Failure(), ecoState.Failure()} {
		if f != nil {
			return result.Err[Snapshot](f)
		}
	}
	w.Eco.LoadContributions(domain.EcoContributions(txs.Value()))
	return w.Snapshot()
}

// Snapshot derives the current state without calling the transport.
func (w *Wallet) Snapshot() result.Result[Snapshot] {
	now := w.clock()
	return result.Map(w.Balance.Summary(now), func(sum domain.BalanceSummary) Snapshot {
		snap := Snapshot{
			UserID:        w.UserID,
			Balance:       sum,
			Transactions:  w.Transactions.Transactions(),
			Eco:           w.Eco.State(),
			Rank:          w.Eco.Rank(),
			Loading:       w.IsLoading(),
			Notifications: w.Notifications.Active(now),
		}
		for name, f := range w.errors() {
			if env, err := failure.Encode(f); err == nil {
				if snap.Errors == nil {
					snap.Errors = make(map[string]failure.Envelope)
				}
				snap.Errors[name] = env
			}
		}
		return snap
	})
}

func (w *Wallet) errors() map[string]failure.Failure {
	out := make(map[string]failure.Failure)
	if f := w.Balance.Error(); f != nil {
		out["balance"] = f
	}
	if f := w.Transactions.Error(); f != nil {
		out["transactions"] = f
	}
	if f := w.Eco.Error(); f != nil {
		out["eco"] = f
	}
	return out
}

// IsLoading reports whether any store has an action in flight.
func (w *Wallet) IsLoading() bool {
	return w.Balance.IsLoading() || w.Transactions.IsLoading() || w.Eco.IsLoading()
}

// ClearErrors clears the last failure of every store.
func (w *Wallet) ClearErrors() {
	w.Balance.ClearError()
	w.Transactions.ClearError()
	w.Eco.ClearError()
}

// Reset restores every store and the notification queue to the initial state.
func (w *Wallet) Reset() {
	w.Balance.Reset()
	w.Transactions.Reset()
	w.Eco.Reset()
	w.Notifications.Clear()
}

// Charge tops up the wallet and records the charge in the history.
func (w *Wallet) Charge(ctx context.Context, amount decimal.Decimal) result.Result[domain.BalanceMutation] {
	return w.Balance.ProcessCharge(ctx, amount).OnOk(w.record)
}

// Transfer sends money and records it in the history.
func (w *Wallet) Transfer(ctx context.Context, in TransferInput) result.Result[domain.BalanceMutation] {
	return w.Balance.ProcessTransfer(ctx, in).OnOk(w.record)
}

// PayQR pays a merchant QR code and records the payment in the history.
func (w *Wallet) PayQR(ctx context.Context, payload string) result.Result[domain.BalanceMutation] {
	return w.Balance.ProcessQRPayment(ctx, payload).OnOk(w.record)
}

// Donate records a donation, updates the balance and the history.
func (w *Wallet) Donate(ctx context.Context, in domain.EcoContributionInput) result.Result[DonationOutcome] {
	return w.Eco.Donate(ctx, in).OnOk(func(o DonationOutcome) {
		w.Balance.Apply(o.Mutation.Balance)
		w.Transactions.Prepend(o.Mutation.Transaction)
	})
}

func (w *Wallet) record(m domain.BalanceMutation) {
	w.Transactions.Prepend(m.Transaction)
}

// Registry lazily creates one Wallet per user over a shared transport and
// keeps the most recently used ones. A dropped wallet is rebuilt from the
// transport on its next use.
type Registry struct {
	transport domain.Transport
	opts      Options

	// mu makes get-or-create atomic; the cache is safe on its own.
	mu      sync.Mutex
	wallets *lru.Cache
}

// NewRegistry creates an empty registry.
func NewRegistry(transport domain.Transport, opts Options) *Registry {
	if opts.MaxWallets <= 0 {
		opts.MaxWallets = DefaultMaxWallets
	}
	wallets, err := lru.New(opts.MaxWallets)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &Registry{
		transport: transport,
		opts:      opts,
		wallets:   wallets,
	}
}

// Wallet returns the wallet of userID, creating it on first use.
func (r *Registry) Wallet(userID vo.UserID) result.Result[*Wallet] {
	if userID.IsEmpty() {
		return result.Err[*Wallet](failure.RequiredField{Field: "user_id"})
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.wallets.Get(userID); ok {
		return result.Ok(cached.(*Wallet))
	}
	w := NewWallet(userID, r.transport, r.opts)
	r.wallets.Add(userID, w)
	return result.Ok(w)
}

// Forget drops the cached wallet of userID.
func (r *Registry) Forget(userID vo.UserID) {
	r.wallets.Remove(userID)
}

// Len returns the number of cached wallets.
func (r *Registry) Len() int {
	return r.wallets.Len()
}
