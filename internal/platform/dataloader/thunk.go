package dataloader

import "context"

// Thunk is the deferred result of one Load. It resolves exactly once.
type Thunk[R any] struct {
	done chan struct{}
	rows []R
	err  error

	// kick dispatches the batch holding this thunk when nothing else will. Set by Load.
	kick func()
}

func newThunk[R any]() *Thunk[R] {
	return &Thunk[R]{done: make(chan struct{})}
}

func (t *Thunk[R]) resolve(rows []R, err error) {
	t.rows, t.err = rows, err
	close(t.done)
}

// Get waits for the batch holding this key, dispatching it first when no window or
// Flush is going to. If ctx ends first Get returns ctx.Err(); the batch itself keeps
// running for the other waiters.
func (t *Thunk[R]) Get(ctx context.Context) ([]R, error) {
	select {
	case <-t.done:
		return t.rows, t.err
	default:
	}
	if t.kick != nil {
		t.kick()
	}
	select {
	case <-t.done:
		return t.rows, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed once the thunk has resolved.
func (t *Thunk[R]) Done() <-chan struct{} {
	return t.done
}
