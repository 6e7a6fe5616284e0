package storage

import (
	"context"
	"sync"
)

// Synced serializes every load-mutate-save cycle behind a single mutex so a
// registration and a progress save cannot interleave and drop each other's
// writes. All mutations of the underlying store must go through Update.
type Synced struct {
	mu    sync.Mutex
	store Store
}

func NewSynced(store Store) *Synced {
	return &Synced{store: store}
}

// View loads the current snapshot and passes it to fn. The snapshot must not
// be retained past the callback.
func (s *Synced) View(ctx context.Context, fn func(Accounts) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	return fn(accounts)
}

// Update loads the snapshot, applies fn, and persists the result. If fn
// returns an error nothing is written.
func (s *Synced) Update(ctx context.Context, fn func(Accounts) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	if err := fn(accounts); err != nil {
		return err
	}

	return s.store.Save(ctx, accounts)
}
