package postgres

import (
	"context"
	"errors"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoryRepository struct {
	pool *pgxpool.Pool
}

var _ domain.CategoryRepository = (*CategoryRepository)(nil)

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return r.findOne(ctx, sq.Eq{"slug": slug})
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	return r.findOne(ctx, sq.Eq{"id": id})
}

func (r *CategoryRepository) findOne(ctx context.Context, where sq.Eq) (*domain.Category, error) {
	query, args, err := psql.Select("id", "slug", "name").From("categories").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	var c domain.Category
	err = r.pool.QueryRow(ctx, query, args...).Scan(&c.ID, &c.Slug, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
