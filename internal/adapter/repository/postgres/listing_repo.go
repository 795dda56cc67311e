package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/paging"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

type ListingRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

var (
	_ domain.ListingRepository = (*ListingRepository)(nil)
	_ paging.Store             = (*ListingRepository)(nil)
)

func NewListingRepository(pool *pgxpool.Pool, log *logger.Logger) *ListingRepository {
	return &ListingRepository{pool: pool, logger: log.Named("pg_listings")}
}

func platformsOf(l *domain.Listing) []domain.Platform {
	if l.Platforms == nil {
		return []domain.Platform{}
	}
	return l.Platforms
}

func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	query, args, err := psql.Insert("listings").
		Columns("id", "user_id", "category_id", "level", "platforms", "description",
			"price", "per", "image", "status", "created_at", "updated_at").
		Values(l.ID, l.UserID, l.CategoryID, l.Level, platformsOf(l), l.Description,
			l.Price, l.Per, l.Image, l.Status, domain.Timestamp(l.CreatedAt), domain.Timestamp(l.UpdatedAt)).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: seller already has a listing in this category", domain.ErrInvalidArgument)
		}
		r.logger.Error("insert listing failed", zap.String("listing_id", l.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *ListingRepository) Update(ctx context.Context, l *domain.Listing) error {
	query, args, err := psql.Update("listings").
		SetMap(map[string]any{
			"level":       l.Level,
			"platforms":   platformsOf(l),
			"description": l.Description,
			"price":       l.Price,
			"per":         l.Per,
			"image":       l.Image,
			"status":      l.Status,
			"updated_at":  domain.Timestamp(l.UpdatedAt),
		}).
		Where(sq.Eq{"id": l.ID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("update listing failed", zap.String("listing_id", l.ID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("listings").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	return r.findOne(ctx, sq.Eq{"l.id": id})
}

func (r *ListingRepository) FindByUserAndCategory(ctx context.Context, userID, categoryID string) (*domain.Listing, error) {
	return r.findOne(ctx, sq.Eq{"l.user_id": userID, "l.category_id": categoryID})
}

func (r *ListingRepository) findOne(ctx context.Context, where sq.Eq) (*domain.Listing, error) {
	query, args, err := psql.Select(listingColumns...).From("listings l").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	l, err := scanListing(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ListingRepository) FindByUserID(ctx context.Context, userID string) ([]*domain.Listing, error) {
	query, args, err := psql.Select(listingColumns...).From("listings l").
		Where(sq.Eq{"l.user_id": userID}).
		OrderBy("l.category_id", "l.created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	listings, err := collectListings(rows)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Listing, len(listings))
	for i := range listings {
		out[i] = &listings[i]
	}
	return out, nil
}

func (r *ListingRepository) QueryPage(ctx context.Context, q paging.Query) ([]domain.Listing, error) {
	query, args, err := pageQuery(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("page query failed", zap.String("category_id", q.ScopeID), zap.Error(err))
		return nil, err
	}
	return collectListings(rows)
}

func scanListing(row pgx.Row) (domain.Listing, error) {
	var l domain.Listing
	err := row.Scan(&l.ID, &l.UserID, &l.CategoryID, &l.Level, &l.Platforms, &l.Description,
		&l.Price, &l.Per, &l.Image, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return domain.Listing{}, err
	}
	l.CreatedAt = domain.Timestamp(l.CreatedAt)
	l.UpdatedAt = domain.Timestamp(l.UpdatedAt)
	return l, nil
}

func collectListings(rows pgx.Rows) ([]domain.Listing, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Listing, error) {
		return scanListing(row)
	})
}
