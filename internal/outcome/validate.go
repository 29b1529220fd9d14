package outcome

// Validator sequences checks over an Outcome. Once a check fails every
// following check is skipped and the first failure is kept.
type Validator[T, E any] struct {
	current Outcome[T, E]
}

// Validate starts a validation chain from an initial Outcome.
func Validate[T, E any](initial Outcome[T, E]) Validator[T, E] {
	return Validator[T, E]{current: initial}
}

// Check runs fn on the current success value.
func (v Validator[T, E]) Check(fn func(T) Outcome[T, E]) Validator[T, E] {
	if !v.current.ok {
		return v
	}
	return Validator[T, E]{current: fn(v.current.value)}
}

// Then is Check for a step that changes the value type.
func Then[T, U, E any](v Validator[T, E], fn func(T) Outcome[U, E]) Validator[U, E] {
	return Validator[U, E]{current: FlatMap(v.current, fn)}
}

// Result returns the outcome of the chain.
func (v Validator[T, E]) Result() Outcome[T, E] {
	return v.current
}
