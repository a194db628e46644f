package driven

import "context"

// BreachChecker reports whether a password appears in a known breach corpus.
type BreachChecker interface {
	IsBreached(ctx context.Context, password string) (bool, error)
}
