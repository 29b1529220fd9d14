// Package outcome provides a two-variant result type used by the game core
// to report expected failures as values.
package outcome

import (
	"encoding/json"
)

// Outcome holds either a success value of type T or a failure value of type E.
type Outcome[T, E any] struct {
	value T
	err   E
	ok    bool
}

// Success wraps a value in a successful Outcome.
func Success[T, E any](value T) Outcome[T, E] {
	return Outcome[T, E]{value: value, ok: true}
}

// Failure wraps an error value in a failed Outcome.
func Failure[T, E any](err E) Outcome[T, E] {
	return Outcome[T, E]{err: err}
}

// IsSuccess reports whether the outcome carries a value.
func (o Outcome[T, E]) IsSuccess() bool { return o.ok }

// IsFailure reports whether the outcome carries an error.
func (o Outcome[T, E]) IsFailure() bool { return !o.ok }

// Value returns the success value, or the zero value of T for a failure.
func (o Outcome[T, E]) Value() T { return o.value }

// Err returns the failure value, or the zero value of E for a success.
func (o Outcome[T, E]) Err() E { return o.err }

// Unpack returns both halves and the success flag.
func (o Outcome[T, E]) Unpack() (T, E, bool) {
	return o.value, o.err, o.ok
}

// OrElse returns the success value or fallback when the outcome failed.
func (o Outcome[T, E]) OrElse(fallback T) T {
	if o.ok {
		return o.value
	}
	return fallback
}

// Recover turns a failure back into a success by applying fn to the error.
func (o Outcome[T, E]) Recover(fn func(E) T) Outcome[T, E] {
	if o.ok {
		return o
	}
	return Success[T, E](fn(o.err))
}

// Map transforms the success value and passes failures through unchanged.
func Map[T, U, E any](o Outcome[T, E], fn func(T) U) Outcome[U, E] {
	if !o.ok {
		return Failure[U](o.err)
	}
	return Success[U, E](fn(o.value))
}

// FlatMap chains a function returning another Outcome, short-circuiting on failure.
func FlatMap[T, U, E any](o Outcome[T, E], fn func(T) Outcome[U, E]) Outcome[U, E] {
	if !o.ok {
		return Failure[U](o.err)
	}
	return fn(o.value)
}

// MapError transforms the failure value and passes successes through unchanged.
func MapError[T, E, F any](o Outcome[T, E], fn func(E) F) Outcome[T, F] {
	if o.ok {
		return Success[T, F](o.value)
	}
	return Failure[T](fn(o.err))
}

// Match handles both variants exhaustively.
func Match[T, E, U any](o Outcome[T, E], onSuccess func(T) U, onFailure func(E) U) U {
	if o.ok {
		return onSuccess(o.value)
	}
	return onFailure(o.err)
}

// jsonView is the serialization view of an Outcome.
type jsonView struct {
	IsSuccess bool `json:"isSuccess"`
	Value     any  `json:"value,omitempty"`
	Error     any  `json:"error,omitempty"`
}

// MarshalJSON renders {"isSuccess": true, "value": ...} or {"isSuccess": false, "error": ...}.
// Error values that do not marshal themselves are rendered with their Error() text.
func (o Outcome[T, E]) MarshalJSON() ([]byte, error) {
	if o.ok {
		return json.Marshal(jsonView{IsSuccess: true, Value: o.value})
	}

	var errView any = o.err
	if _, marshals := errView.(json.Marshaler); !marshals {
		if e, isErr := errView.(error); isErr && e != nil {
			errView = e.Error()
		}
	}
	return json.Marshal(jsonView{IsSuccess: false, Error: errView})
}
