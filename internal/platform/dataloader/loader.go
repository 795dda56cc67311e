// Package dataloader coalesces per-key relation lookups made while serving one request
// into a single grouped store call per relation.
//
// A Loader is request scoped: create it when the request starts, Close it when the
// request completes, never share it between requests. Loads are collected into a
// pending batch which is dispatched when Flush is called, when the wait window that
// started with the first pending load elapses, or when the batch reaches its size cap,
// whichever comes first. A batch with no window running (wait disabled, or the loader
// held) is also dispatched by the first Get on one of its thunks, so a lone caller
// never waits on a batch nobody will send.
//
// Hold suspends the window until the next Flush. Callers that prime a whole page and
// then Flush use it so a scheduling stall cannot split the page into two fetches.
package dataloader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrScopeClosed is the panic value of a Load issued after Close, and the error
// delivered to loads that were still pending when the scope closed.
var ErrScopeClosed = errors.New("dataloader: request scope already closed")

const (
	DefaultWait     = 2 * time.Millisecond
	DefaultMaxBatch = 1000
)

// FetchFunc returns every row matching any of keys. Keys are distinct and non-empty.
type FetchFunc[K comparable, R any] func(ctx context.Context, keys []K) ([]R, error)

// KeyFunc extracts the foreign key a row is grouped under.
type KeyFunc[K comparable, R any] func(row R) K

// Observer is told about every dispatched batch.
type Observer func(relation string, keys int, took time.Duration, err error)

type options struct {
	name     string
	wait     time.Duration
	maxBatch int
	observer Observer
}

type Option func(*options)

// WithName labels the loader's batches for observers.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithWait sets the batch window. Zero disables the timer; batches then leave through
// Flush, the size cap or the first Get.
func WithWait(d time.Duration) Option {
	return func(o *options) { o.wait = d }
}

func WithMaxBatch(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBatch = n
		}
	}
}

func WithObserver(fn Observer) Option {
	return func(o *options) { o.observer = fn }
}

type batch[K comparable, R any] struct {
	keys   []K
	thunks map[K]*Thunk[R]
	timer  *time.Timer
	taken  bool
}

type Loader[K comparable, R any] struct {
	ctx   context.Context
	fetch FetchFunc[K, R]
	keyOf KeyFunc[K, R]
	opts  options

	// mu guards pending, cache, held and closed.
	mu      sync.Mutex
	pending *batch[K, R]
	cache   map[K]*Thunk[R]
	held    bool
	closed  bool
}

// New builds a loader for one relation. Store calls run on ctx with its cancellation
// removed, so an aborted request never interrupts a batch other waiters share.
func New[K comparable, R any](ctx context.Context, fetch FetchFunc[K, R], keyOf KeyFunc[K, R], opts ...Option) *Loader[K, R] {
	o := options{wait: DefaultWait, maxBatch: DefaultMaxBatch}
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader[K, R]{
		ctx:   context.WithoutCancel(ctx),
		fetch: fetch,
		keyOf: keyOf,
		opts:  o,
		cache: make(map[K]*Thunk[R]),
	}
}

// Load returns the deferred rows for key. A key already requested in this scope
// returns the same thunk and causes no further store call.
func (l *Loader[K, R]) Load(key K) *Thunk[R] {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		panic(ErrScopeClosed)
	}
	if t, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return t
	}

	t := newThunk[R]()
	l.cache[key] = t

	b := l.pending
	if b == nil {
		b = &batch[K, R]{thunks: make(map[K]*Thunk[R])}
		l.pending = b
		if l.opts.wait > 0 && !l.held {
			b.timer = time.AfterFunc(l.opts.wait, func() { l.dispatch(b) })
		}
	}
	b.keys = append(b.keys, key)
	b.thunks[key] = t
	t.kick = func() { l.kick(b) }

	var full *batch[K, R]
	if len(b.keys) >= l.opts.maxBatch {
		full = l.take()
	}
	l.mu.Unlock()

	if full != nil {
		go l.run(full)
	}
	return t
}

func (l *Loader[K, R]) LoadMany(keys []K) []*Thunk[R] {
	out := make([]*Thunk[R], len(keys))
	for i, k := range keys {
		out[i] = l.Load(k)
	}
	return out
}

// Flush dispatches the pending batch now and releases a Hold. It does not wait for
// the store call.
func (l *Loader[K, R]) Flush() {
	l.mu.Lock()
	l.held = false
	b := l.take()
	l.mu.Unlock()

	if b != nil {
		go l.run(b)
	}
}

// Hold stops the wait window until the next Flush. The size cap still applies.
func (l *Loader[K, R]) Hold() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = true
	if b := l.pending; b != nil && b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// kick dispatches b for a waiting Get unless b already left or its window will send it.
func (l *Loader[K, R]) kick(b *batch[K, R]) {
	l.mu.Lock()
	if b.taken || b.timer != nil {
		l.mu.Unlock()
		return
	}
	l.take()
	l.mu.Unlock()

	go l.run(b)
}

// Close ends the request scope. Loads still pending are failed with ErrScopeClosed;
// batches already dispatched complete and their results are dropped with the loader.
func (l *Loader[K, R]) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	b := l.take()
	l.mu.Unlock()

	if b != nil {
		for _, t := range b.thunks {
			t.resolve(nil, ErrScopeClosed)
		}
	}
}

// take detaches the pending batch. Callers hold mu.
func (l *Loader[K, R]) take() *batch[K, R] {
	b := l.pending
	if b == nil {
		return nil
	}
	l.pending = nil
	b.taken = true
	if b.timer != nil {
		b.timer.Stop()
	}
	return b
}

func (l *Loader[K, R]) dispatch(b *batch[K, R]) {
	l.mu.Lock()
	if b.taken {
		l.mu.Unlock()
		return
	}
	l.take()
	l.mu.Unlock()

	l.run(b)
}

func (l *Loader[K, R]) run(b *batch[K, R]) {
	if len(b.keys) == 0 {
		panic("dataloader: dispatched a batch with no keys")
	}

	start := time.Now()
	rows, err := l.safeFetch(b.keys)
	if l.opts.observer != nil {
		l.opts.observer(l.opts.name, len(b.keys), time.Since(start), err)
	}

	if err != nil {
		for _, t := range b.thunks {
			t.resolve(nil, err)
		}
		return
	}

	grouped := make(map[K][]R, len(b.keys))
	for _, row := range rows {
		k := l.keyOf(row)
		if _, requested := b.thunks[k]; requested {
			grouped[k] = append(grouped[k], row)
		}
	}
	for k, t := range b.thunks {
		rs := grouped[k]
		if rs == nil {
			rs = []R{}
		}
		t.resolve(rs, nil)
	}
}

func (l *Loader[K, R]) safeFetch(keys []K) (rows []R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dataloader: %s fetch panicked: %v", l.opts.name, r)
		}
	}()
	return l.fetch(l.ctx, keys)
}
