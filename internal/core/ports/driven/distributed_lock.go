package driven

import (
	"context"
	"time"
)

// DistributedLock serialises one-off work across replicas, such as creating
// the vector collection on first start.
type DistributedLock interface {
	// Acquire tries to take name without blocking. false means another
	// holder has it. Backends that support expiry drop the lock after ttl.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release gives name up. Releasing a lock that is not held is not an error.
	Release(ctx context.Context, name string) error

	// Extend pushes out the expiry of a held lock.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	Ping(ctx context.Context) error
}
