package mongodb

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// RelationRepository serves the batched relation fetches with one $in query each.
type RelationRepository struct {
	images    *mongo.Collection
	users     *mongo.Collection
	languages *mongo.Collection
	logger    *logger.Logger
}

var _ domain.RelationRepository = (*RelationRepository)(nil)

func NewRelationRepository(db *mongo.Database, log *logger.Logger) *RelationRepository {
	return &RelationRepository{
		images:    db.Collection(listingImagesCollection),
		users:     db.Collection(usersCollection),
		languages: db.Collection(userLanguagesCollection),
		logger:    log.Named("mongo_relations"),
	}
}

func (r *RelationRepository) ImagesByListingIDs(ctx context.Context, listingIDs []string) ([]domain.ListingImage, error) {
	var docs []imageDocument
	if err := r.findIn(ctx, r.images, "listing_id", listingIDs, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.ListingImage, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.ListingImage{ID: d.ID, ListingID: d.ListingID, URL: d.URL, PublicID: d.PublicID})
	}
	return out, nil
}

func (r *RelationRepository) UsersByIDs(ctx context.Context, userIDs []string) ([]domain.User, error) {
	var docs []userDocument
	if err := r.findIn(ctx, r.users, "_id", userIDs, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDomainUser(d))
	}
	return out, nil
}

func (r *RelationRepository) LanguagesByUserIDs(ctx context.Context, userIDs []string) ([]domain.UserLanguage, error) {
	var docs []languageDocument
	if err := r.findIn(ctx, r.languages, "user_id", userIDs, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.UserLanguage, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.UserLanguage{UserID: d.UserID, LanguageID: d.LanguageID, Name: d.Name})
	}
	return out, nil
}

func (r *RelationRepository) findIn(ctx context.Context, coll *mongo.Collection, field string, keys []string, into any) error {
	cur, err := coll.Find(ctx, bson.M{field: bson.M{"$in": keys}})
	if err != nil {
		r.logger.Error("batched find failed", zap.String("collection", coll.Name()), zap.Int("keys", len(keys)), zap.Error(err))
		return fmt.Errorf("find %s by %s: %w", coll.Name(), field, err)
	}
	return cur.All(ctx, into)
}
