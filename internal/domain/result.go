package domain

// Result carries the value of a best-effort operation. A degraded result still
// holds a usable fallback value, and Reason explains why it was used.
type Result[T any] struct {
	Value    T
	Degraded bool
	Reason   error
}

func Ok[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

func Degraded[T any](fallback T, reason error) Result[T] {
	return Result[T]{Value: fallback, Degraded: true, Reason: reason}
}
