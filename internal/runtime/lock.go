package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

const (
	// collectionLockName serialises collection creation across replicas
	collectionLockName = "ensure-collection"
	collectionLockTTL  = 30 * time.Second
	lockPollInterval   = 200 * time.Millisecond
)

// SetCollectionLock installs a distributed lock held around EnsureCollection.
// Optional: without one, replicas starting together may both try to create.
func (s *Services) SetCollectionLock(lock driven.DistributedLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collectionLock = lock
}

func (s *Services) lock() driven.DistributedLock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectionLock
}

// withLock runs fn while holding name, polling until acquired or ctx is done
func withLock(ctx context.Context, lock driven.DistributedLock, name string, fn func() error) error {
	if lock == nil {
		return fn()
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		acquired, err := lock.Acquire(ctx, name, collectionLockTTL)
		if err != nil {
			return fmt.Errorf("acquire %s: %w", name, err)
		}
		if acquired {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	// Release with a fresh context so a cancelled caller still frees the lock
	defer func() { _ = lock.Release(context.WithoutCancel(ctx), name) }()

	return fn()
}
