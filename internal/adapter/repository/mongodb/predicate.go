package mongodb

import (
	"fmt"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/filter"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/paging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// pagePipeline translates a page query into an aggregation pipeline.
func pagePipeline(q paging.Query) (mongo.Pipeline, error) {
	listingMatch := bson.D{{Key: "category_id", Value: q.ScopeID}}
	var sellerMatch bson.D
	needSeller, needLanguages := false, false

	for _, c := range q.Predicate.Clauses {
		switch c := c.(type) {
		case filter.NumberBetween:
			if c.On != filter.FieldPrice {
				return nil, fmt.Errorf("mongodb: unsupported range field %q", c.On)
			}
			listingMatch = append(listingMatch, bson.E{Key: "price", Value: bson.D{{Key: "$gte", Value: c.Min}, {Key: "$lte", Value: c.Max}}})
		case filter.TimeBetween:
			if c.On != filter.FieldBirthdate {
				return nil, fmt.Errorf("mongodb: unsupported time field %q", c.On)
			}
			needSeller = true
			sellerMatch = append(sellerMatch, bson.E{Key: "seller.birthdate", Value: bson.D{{Key: "$gte", Value: c.From}, {Key: "$lte", Value: c.To}}})
		case filter.In:
			switch c.On {
			case filter.FieldGender:
				needSeller = true
				sellerMatch = append(sellerMatch, bson.E{Key: "seller.gender", Value: bson.D{{Key: "$in", Value: c.Values}}})
			case filter.FieldLanguage:
				needLanguages = true
				sellerMatch = append(sellerMatch, bson.E{Key: "seller_languages.language_id", Value: bson.D{{Key: "$in", Value: c.Values}}})
			default:
				return nil, fmt.Errorf("mongodb: unsupported set field %q", c.On)
			}
		default:
			return nil, fmt.Errorf("mongodb: unsupported clause %T", c)
		}
	}

	if after := q.After; after != nil {
		if after.ID == "" {
			listingMatch = append(listingMatch, bson.E{Key: "created_at", Value: bson.D{{Key: "$lt", Value: after.CreatedAt}}})
		} else {
			listingMatch = append(listingMatch, bson.E{Key: "$or", Value: bson.A{
				bson.D{{Key: "created_at", Value: bson.D{{Key: "$lt", Value: after.CreatedAt}}}},
				bson.D{{Key: "created_at", Value: after.CreatedAt}, {Key: "_id", Value: bson.D{{Key: "$lt", Value: after.ID}}}},
			}})
		}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: listingMatch}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	if needSeller {
		pipeline = append(pipeline,
			bson.D{{Key: "$lookup", Value: bson.D{
				{Key: "from", Value: usersCollection},
				{Key: "localField", Value: "user_id"},
				{Key: "foreignField", Value: "_id"},
				{Key: "as", Value: "seller"},
			}}},
			bson.D{{Key: "$unwind", Value: "$seller"}},
		)
	}
	if needLanguages {
		pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: userLanguagesCollection},
			{Key: "localField", Value: "user_id"},
			{Key: "foreignField", Value: "user_id"},
			{Key: "as", Value: "seller_languages"},
		}}})
	}
	if len(sellerMatch) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: sellerMatch}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(q.Limit)}})
	if needSeller || needLanguages {
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: bson.D{
			{Key: "seller", Value: 0},
			{Key: "seller_languages", Value: 0},
		}}})
	}
	return pipeline, nil
}
