package mongodb

import (
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
)

const (
	listingsCollection      = "listings"
	categoriesCollection    = "categories"
	usersCollection         = "users"
	listingImagesCollection = "listing_images"
	userLanguagesCollection = "user_languages"
)

type platformDocument struct {
	ID   string `bson:"id"`
	Name string `bson:"name"`
}

type listingDocument struct {
	ID          string             `bson:"_id"`
	UserID      string             `bson:"user_id"`
	CategoryID  string             `bson:"category_id"`
	Level       string             `bson:"level"`
	Platforms   []platformDocument `bson:"platforms,omitempty"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Per         string             `bson:"per"`
	Image       string             `bson:"image,omitempty"`
	Status      bool               `bson:"status"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

type categoryDocument struct {
	ID   string `bson:"_id"`
	Slug string `bson:"slug"`
	Name string `bson:"name"`
}

type userDocument struct {
	ID          string     `bson:"_id"`
	Username    string     `bson:"username"`
	Email       string     `bson:"email"`
	Gender      string     `bson:"gender"`
	Birthdate   *time.Time `bson:"birthdate,omitempty"`
	Country     string     `bson:"country"`
	Description string     `bson:"description"`
	LastOnline  time.Time  `bson:"last_online"`
}

type imageDocument struct {
	ID        string `bson:"_id"`
	ListingID string `bson:"listing_id"`
	URL       string `bson:"url"`
	PublicID  string `bson:"public_id"`
}

type languageDocument struct {
	UserID     string `bson:"user_id"`
	LanguageID string `bson:"language_id"`
	Name       string `bson:"name"`
}

func toListingDocument(l *domain.Listing) *listingDocument {
	platforms := make([]platformDocument, 0, len(l.Platforms))
	for _, p := range l.Platforms {
		platforms = append(platforms, platformDocument{ID: p.ID, Name: p.Name})
	}
	return &listingDocument{
		ID:          l.ID,
		UserID:      l.UserID,
		CategoryID:  l.CategoryID,
		Level:       l.Level,
		Platforms:   platforms,
		Description: l.Description,
		Price:       l.Price,
		Per:         l.Per,
		Image:       l.Image,
		Status:      l.Status,
		CreatedAt:   domain.Timestamp(l.CreatedAt),
		UpdatedAt:   domain.Timestamp(l.UpdatedAt),
	}
}

func toDomainListing(d *listingDocument) domain.Listing {
	var platforms []domain.Platform
	for _, p := range d.Platforms {
		platforms = append(platforms, domain.Platform{ID: p.ID, Name: p.Name})
	}
	return domain.Listing{
		ID:          d.ID,
		UserID:      d.UserID,
		CategoryID:  d.CategoryID,
		Level:       d.Level,
		Platforms:   platforms,
		Description: d.Description,
		Price:       d.Price,
		Per:         d.Per,
		Image:       d.Image,
		Status:      d.Status,
		CreatedAt:   domain.Timestamp(d.CreatedAt),
		UpdatedAt:   domain.Timestamp(d.UpdatedAt),
	}
}

func toDomainListings(docs []listingDocument) []domain.Listing {
	out := make([]domain.Listing, 0, len(docs))
	for i := range docs {
		out = append(out, toDomainListing(&docs[i]))
	}
	return out
}

func toDomainUser(d userDocument) domain.User {
	return domain.User{
		ID:          d.ID,
		Username:    d.Username,
		Email:       d.Email,
		Gender:      d.Gender,
		Birthdate:   d.Birthdate,
		Country:     d.Country,
		Description: d.Description,
		LastOnline:  d.LastOnline,
	}
}
