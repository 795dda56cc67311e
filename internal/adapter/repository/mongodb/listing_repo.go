package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/paging"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

var (
	_ domain.ListingRepository = (*ListingRepository)(nil)
	_ paging.Store             = (*ListingRepository)(nil)
)

func NewListingRepository(db *mongo.Database, log *logger.Logger) *ListingRepository {
	return &ListingRepository{
		collection: db.Collection(listingsCollection),
		logger:     log.Named("mongo_listings"),
	}
}

// EnsureIndexes creates the indexes the listing queries rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(listingsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "category_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("listings indexes: %w", err)
	}
	if _, err := db.Collection(categoriesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("categories indexes: %w", err)
	}
	if _, err := db.Collection(listingImagesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "listing_id", Value: 1}},
	}); err != nil {
		return fmt.Errorf("listing_images indexes: %w", err)
	}
	if _, err := db.Collection(userLanguagesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "language_id", Value: 1}}, Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("user_languages indexes: %w", err)
	}
	return nil
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	if _, err := r.collection.InsertOne(ctx, toListingDocument(listing)); err != nil {
		r.logger.Error("insert listing failed", zap.String("listing_id", listing.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": listing.ID}, toListingDocument(listing))
	if err != nil {
		r.logger.Error("replace listing failed", zap.String("listing_id", listing.ID), zap.Error(err))
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrListingNotFound
	}
	_, err = r.collection.Database().Collection(listingImagesCollection).DeleteMany(ctx, bson.M{"listing_id": id})
	return err
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ListingRepository) FindByUserAndCategory(ctx context.Context, userID, categoryID string) (*domain.Listing, error) {
	return r.findOne(ctx, bson.M{"user_id": userID, "category_id": categoryID})
}

func (r *ListingRepository) findOne(ctx context.Context, query bson.M) (*domain.Listing, error) {
	var doc listingDocument
	err := r.collection.FindOne(ctx, query).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	l := toDomainListing(&doc)
	return &l, nil
}

func (r *ListingRepository) FindByUserID(ctx context.Context, userID string) ([]*domain.Listing, error) {
	cur, err := r.collection.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "category_id", Value: 1}, {Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domain.Listing, 0, len(docs))
	for i := range docs {
		l := toDomainListing(&docs[i])
		out = append(out, &l)
	}
	return out, nil
}

// QueryPage runs the page as an aggregation: the listing-level conditions and the sort
// come first so $limit stops the seller lookups early.
func (r *ListingRepository) QueryPage(ctx context.Context, q paging.Query) ([]domain.Listing, error) {
	pipeline, err := pagePipeline(q)
	if err != nil {
		return nil, err
	}
	cur, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	r.logger.Debug("page queried", zap.String("category_id", q.ScopeID), zap.Int("rows", len(docs)))
	return toDomainListings(docs), nil
}
