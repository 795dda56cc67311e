// Package paging runs filtered, keyset-paginated listing queries.
package paging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/filter"
	"github.com/gosimple/slug"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// MaxLimit caps the page size whatever the caller asks for.
const MaxLimit = 50

var tracer = otel.Tracer("marketplace-service/paging")

// Query is what a store receives: rows of one category matching Predicate, newer than
// nothing or strictly after After, ordered created_at DESC, id DESC, at most Limit rows.
type Query struct {
	ScopeID   string
	Predicate filter.Predicate
	After     *Cursor
	Limit     int
}

type Store interface {
	QueryPage(ctx context.Context, q Query) ([]domain.Listing, error)
}

type Observer interface {
	ObservePage(items int, hasMore bool, took time.Duration, err error)
}

type Request struct {
	ScopeKey  string
	Limit     int
	Cursor    string
	Predicate filter.Predicate
}

type Page[T any] struct {
	Items      []T
	HasMore    bool
	NextCursor string
}

type Executor struct {
	store    Store
	scopes   domain.CategoryRepository
	observer Observer
}

func NewExecutor(store Store, scopes domain.CategoryRepository, observer Observer) *Executor {
	return &Executor{store: store, scopes: scopes, observer: observer}
}

func (e *Executor) Query(ctx context.Context, req Request) (page Page[domain.Listing], err error) {
	if req.Limit <= 0 {
		return Page[domain.Listing]{}, fmt.Errorf("%w: limit must be positive, got %d", domain.ErrInvalidArgument, req.Limit)
	}
	limit := min(req.Limit, MaxLimit)

	if !slug.IsSlug(req.ScopeKey) {
		return Page[domain.Listing]{}, fmt.Errorf("%w: malformed scope key %q", domain.ErrInvalidArgument, req.ScopeKey)
	}
	after, err := DecodeCursor(req.Cursor)
	if err != nil {
		return Page[domain.Listing]{}, err
	}

	ctx, span := tracer.Start(ctx, "Executor.Query", oteltrace.WithAttributes(
		attribute.String("scope_key", req.ScopeKey),
		attribute.Int("limit", limit),
		attribute.Bool("has_cursor", after != nil),
		attribute.Int("clauses", len(req.Predicate.Clauses)),
	))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if e.observer != nil {
			e.observer.ObservePage(len(page.Items), page.HasMore, time.Since(start), err)
		}
	}()

	category, err := e.scopes.FindBySlug(ctx, req.ScopeKey)
	if errors.Is(err, domain.ErrCategoryNotFound) {
		return Page[domain.Listing]{Items: []domain.Listing{}}, nil
	}
	if err != nil {
		return Page[domain.Listing]{}, fmt.Errorf("%w: resolve scope %q: %w", domain.ErrStoreFailure, req.ScopeKey, err)
	}

	rows, err := e.store.QueryPage(ctx, Query{
		ScopeID:   category.ID,
		Predicate: req.Predicate,
		After:     after,
		Limit:     limit + 1,
	})
	if err != nil {
		return Page[domain.Listing]{}, fmt.Errorf("%w: query page: %w", domain.ErrStoreFailure, err)
	}

	page.HasMore = len(rows) > limit
	if page.HasMore {
		rows = rows[:limit]
	}
	page.Items = rows
	if page.Items == nil {
		page.Items = []domain.Listing{}
	}
	if page.HasMore {
		page.NextCursor = EncodeCursor(CursorOf(rows[len(rows)-1]))
	}
	span.SetAttributes(attribute.Int("items", len(page.Items)), attribute.Bool("has_more", page.HasMore))
	return page, nil
}
