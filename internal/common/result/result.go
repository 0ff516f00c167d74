// Package result provides the outcome container returned by every operation
// of the wallet core that can fail.
package result

import "ecowallet/internal/common/failure"

// Result holds exactly one of a success value or a failure.
// The zero value is a failure; build results with Ok and Err.
type Result[T any] struct {
	value   T
	failure failure.Failure
	ok      bool
}

// Ok creates a successful result.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

// Err creates a failed result. A nil failure is replaced by a PaymentFailed so
// that a failed result always carries a reason.
func Err[T any](f failure.Failure) Result[T] {
	if f == nil {
		f = failure.PaymentFailed{Reason: "unspecified failure"}
	}
	return Result[T]{failure: f}
}

// IsOk reports whether the result holds a value.
func (r Result[T]) IsOk() bool {
	return r.ok
}

// IsErr reports whether the result holds a failure.
func (r Result[T]) IsErr() bool {
	return !r.ok
}

// Value returns the success value, or the zero value for failures.
func (r Result[T]) Value() T {
	return r.value
}

// Failure returns the failure, or nil for successes.
func (r Result[T]) Failure() failure.Failure {
	if r.ok {
		return nil
	}
	if r.failure == nil {
		return failure.PaymentFailed{Reason: "unspecified failure"}
	}
	return r.failure
}

// Unwrap returns both halves, in the shape of a conventional Go return.
func (r Result[T]) Unwrap() (T, failure.Failure) {
	return r.value, r.Failure()
}

// OrElse returns the success value or fallback.
func (r Result[T]) OrElse(fallback T) T {
	if r.ok {
		return r.value
	}
	return fallback
}

// Tap runs onOk or onErr depending on the branch and returns r unchanged.
// Either handler may be nil.
func (r Result[T]) Tap(onOk func(T), onErr func(failure.Failure)) Result[T] {
	if r.ok {
		if onOk != nil {
			onOk(r.value)
		}
		return r
	}
	if onErr != nil {
		onErr(r.Failure())
	}
	return r
}

// OnOk runs fn with the value of a successful result.
func (r Result[T]) OnOk(fn func(T)) Result[T] {
	return r.Tap(fn, nil)
}

// OnErr runs fn with the failure of a failed result.
func (r Result[T]) OnErr(fn func(failure.Failure)) Result[T] {
	return r.Tap(nil, fn)
}

// MapErr transforms the failure of a failed result.
func (r Result[T]) MapErr(fn func(failure.Failure) failure.Failure) Result[T] {
	if r.ok {
		return r
	}
	return Err[T](fn(r.Failure()))
}

// Map transforms the value of a successful result.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if !r.ok {
		return Err[U](r.Failure())
	}
	return Ok(fn(r.value))
}

// AndThen chains an operation that can itself fail.
func AndThen[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if !r.ok {
		return Err[U](r.Failure())
	}
	return fn(r.value)
}

// Match folds both branches into a single value.
func Match[T, U any](r Result[T], onOk func(T) U, onErr func(failure.Failure) U) U {
	if r.ok {
		return onOk(r.value)
	}
	return onErr(r.Failure())
}

// FromPair builds a result from a conventional (value, failure) pair.
func FromPair[T any](value T, f failure.Failure) Result[T] {
	if f != nil {
		return Err[T](f)
	}
	return Ok(value)
}
