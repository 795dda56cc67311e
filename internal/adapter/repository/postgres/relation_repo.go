package postgres

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RelationRepository serves the batched relation fetches, one IN query per call.
type RelationRepository struct {
	pool *pgxpool.Pool
}

var _ domain.RelationRepository = (*RelationRepository)(nil)

func NewRelationRepository(pool *pgxpool.Pool) *RelationRepository {
	return &RelationRepository{pool: pool}
}

func (r *RelationRepository) ImagesByListingIDs(ctx context.Context, listingIDs []string) ([]domain.ListingImage, error) {
	query, args, err := psql.Select("id", "listing_id", "url", "public_id").
		From("listing_images").
		Where(sq.Eq{"listing_id": listingIDs}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ListingImage, error) {
		var img domain.ListingImage
		err := row.Scan(&img.ID, &img.ListingID, &img.URL, &img.PublicID)
		return img, err
	})
}

func (r *RelationRepository) UsersByIDs(ctx context.Context, userIDs []string) ([]domain.User, error) {
	query, args, err := psql.Select("id", "username", "email", "gender", "birthdate", "country", "description", "last_online").
		From("users").
		Where(sq.Eq{"id": userIDs}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.User, error) {
		var u domain.User
		err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Gender, &u.Birthdate, &u.Country, &u.Description, &u.LastOnline)
		return u, err
	})
}

func (r *RelationRepository) LanguagesByUserIDs(ctx context.Context, userIDs []string) ([]domain.UserLanguage, error) {
	query, args, err := psql.Select("ul.user_id", "ul.language_id", "lang.name").
		From("user_languages ul").
		Join("languages lang ON lang.id = ul.language_id").
		Where(sq.Eq{"ul.user_id": userIDs}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.UserLanguage, error) {
		var l domain.UserLanguage
		err := row.Scan(&l.UserID, &l.LanguageID, &l.Name)
		return l, err
	})
}
