package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecowallet/internal/common/events"
	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/domain"
	"ecowallet/internal/wallet/infrastructure/memory"
	"ecowallet/internal/wallet/ledger"
	"ecowallet/internal/wallet/relay"
)

type fakePublisher struct {
	mu       sync.Mutex
	messages []relay.Message
	failOn   int
	calls    int
}

func (p *fakePublisher) Publish(_ context.Context, msg relay.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failOn > 0 && p.calls == p.failOn {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published() []relay.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]relay.Message(nil), p.messages...)
}

// seed charges three wallets, leaving three events in the outbox.
func seed(t *testing.T, store *memory.DataStore) {
	t.Helper()
	service := ledger.NewService(store, nil)
	for _, user := range []string{"alice", "bob", "carol"} {
		res := service.Charge(context.Background(), domain.ChargeRequest{UserID: vo.MustParseUserID(user), Amount: 1000})
		require.True(t, res.IsOk())
	}
}

func TestRunOnce(t *testing.T) {
	t.Run("publishes and marks every pending entry", func(t *testing.T) {
		store := memory.NewDataStore()
		seed(t, store)
		publisher := &fakePublisher{}
		r := relay.New(store, publisher, time.Second, 10)

		n, err := r.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		msgs := publisher.published()
		require.Len(t, msgs, 3)
		assert.Equal(t, "wallet."+domain.EventTypeChargeCompleted, msgs[0].RoutingKey)

		var env events.EventEnvelope
		require.NoError(t, json.Unmarshal(msgs[0].Body, &env))
		assert.Equal(t, msgs[0].ID, env.EventID.String())
		assert.Equal(t, "alice", env.UserID.String())
		var event domain.TransactionEvent
		require.NoError(t, env.DecodePayload(&event))
		assert.Equal(t, domain.TransactionTypeCharge, event.Type)
		assert.Equal(t, int64(1000), event.Amount)

		pending, _, err := store.OutboxBacklog(context.Background())
		require.NoError(t, err)
		assert.Zero(t, pending)

		n, err = r.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("respects the batch size", func(t *testing.T) {
		store := memory.NewDataStore()
		seed(t, store)
		r := relay.New(store, &fakePublisher{}, time.Second, 2)

		n, err := r.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		pending, _, err := store.OutboxBacklog(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, pending)
	})

	t.Run("keeps entries after a publish failure", func(t *testing.T) {
		store := memory.NewDataStore()
		seed(t, store)
		publisher := &fakePublisher{failOn: 2}
		r := relay.New(store, publisher, time.Second, 10)

		n, err := r.RunOnce(context.Background())
		require.Error(t, err)
		assert.Equal(t, 1, n)

		pending, _, err := store.OutboxBacklog(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, pending)

		n, err = r.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Len(t, publisher.published(), 3)
	})
}

func TestRunStopsOnCancel(t *testing.T) {
	store := memory.NewDataStore()
	seed(t, store)
	publisher := &fakePublisher{}
	r := relay.New(store, publisher, 10*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return len(publisher.published()) == 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
