package application

import (
	"context"
	"sync"
	"time"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/logging"
	"ecowallet/internal/common/metrics"
	"ecowallet/internal/common/result"
	"ecowallet/internal/wallet/notification"
)

// Notifier receives the failures of wallet actions. *notification.Queue
// satisfies it.
type Notifier interface {
	Notify(f failure.Failure) result.Result[notification.ID]
}

type discardNotifier struct{}

func (discardNotifier) Notify(failure.Failure) result.Result[notification.ID] {
	return result.Ok(notification.ID(""))
}

// tracker is the status shared by the stores: a loading counter, the last
// failure and the set of actions currently in flight.
type tracker struct {
	mu       sync.Mutex
	loading  int
	lastErr  failure.Failure
	inFlight map[string]bool
	notifier Notifier
}

func newTracker(n Notifier) tracker {
	if n == nil {
		n = discardNotifier{}
	}
	return tracker{inFlight: make(map[string]bool), notifier: n}
}

// IsLoading reports whether any action is running.
func (t *tracker) IsLoading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading > 0
}

// Error returns the failure of the last failed action, or nil.
func (t *tracker) Error() failure.Failure {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// ClearError forgets the last failure.
func (t *tracker) ClearError() {
	t.mu.Lock()
	t.lastErr = nil
	t.mu.Unlock()
}

func (t *tracker) resetStatus() {
	t.mu.Lock()
	t.lastErr = nil
	t.mu.Unlock()
}

// begin marks an action as running. When guard is non-empty and an action
// with the same guard is already running, begin fails with CONFLICT.
func (t *tracker) begin(guard string) failure.Failure {
	t.mu.Lock()
	defer t.mu.Unlock()
	if guard != "" {
		if t.inFlight[guard] {
			return failure.Conflict{Message: guard + " already in progress"}
		}
		t.inFlight[guard] = true
	}
	t.loading++
	return nil
}

func (t *tracker) end(guard string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if guard != "" {
		delete(t.inFlight, guard)
	}
	t.loading--
}

// fail records f as the last failure and counts it. Transport and business
// failures are queued as notifications; validation failures stay inline with
// the field that caused them.
func (t *tracker) fail(ctx context.Context, op string, f failure.Failure) {
	t.mu.Lock()
	t.lastErr = f
	t.mu.Unlock()

	metrics.RecordOperation(op, false)
	metrics.RecordFailure(f.Kind().String(), string(f.Family()))
	logging.WarnContext(ctx, "wallet operation failed", append([]any{"operation", op}, logging.FailureAttrs(f)...)...)
	if f.Family() == failure.FamilyValidation {
		return
	}
	t.notifier.Notify(f)
}

func (t *tracker) succeed(ctx context.Context, op string, started time.Time) {
	metrics.RecordOperation(op, true)
	logging.DebugContext(ctx, "wallet operation completed", "operation", op, "duration_ms", time.Since(started).Milliseconds())
}

// action describes one orchestrated call.
type action struct {
	name string
	// guard rejects a second concurrent run with the same key.
	guard    string
	fallback failure.Fallback
}

// run executes call between begin and end. Panics and failures are recorded
// on the tracker and returned as failed results; loading is cleared on every
// exit path.
func run[T any](ctx context.Context, t *tracker, a action, call func(context.Context) result.Result[T]) (out result.Result[T]) {
	started := time.Now()
	if f := t.begin(a.guard); f != nil {
		metrics.RecordInFlightRejected(a.name)
		t.fail(ctx, a.name, f)
		return result.Err[T](f)
	}
	defer t.end(a.guard)

	defer func() {
		if r := recover(); r != nil {
			logging.ErrorContext(ctx, "recovered panic in wallet operation", "operation", a.name, "panic", r)
			out = result.Err[T](failure.FromRecovered(r, a.fallback))
		}
		if out.IsErr() {
			t.fail(ctx, a.name, out.Failure())
			return
		}
		t.succeed(ctx, a.name, started)
	}()

	if err := ctx.Err(); err != nil {
		return result.Err[T](failure.FromError(err, a.fallback))
	}
	return call(ctx)
}

// rejected records a validation failure that stopped an action before the
// external call.
func rejected[T any](ctx context.Context, t *tracker, op string, f failure.Failure) result.Result[T] {
	t.fail(ctx, op, f)
	return result.Err[T](f)
}
