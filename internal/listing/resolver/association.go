package resolver

import (
	"context"
	"sync"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/dataloader"
)

// Association is a lazily loaded relation of one parent record. Nothing is requested
// from the loader until Prime or Get is first called; later calls reuse the same thunk.
type Association[R any] struct {
	once  sync.Once
	load  func() *dataloader.Thunk[R]
	thunk *dataloader.Thunk[R]
}

func newAssociation[R any, K comparable](l *dataloader.Loader[K, R], key K) *Association[R] {
	return &Association[R]{load: func() *dataloader.Thunk[R] { return l.Load(key) }}
}

// Prime enqueues the load without waiting for it.
func (a *Association[R]) Prime() {
	a.once.Do(func() { a.thunk = a.load() })
}

func (a *Association[R]) Get(ctx context.Context) ([]R, error) {
	a.Prime()
	return a.thunk.Get(ctx)
}
