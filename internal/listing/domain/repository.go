package domain

import "context"

type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	Update(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	// FindByUserAndCategory returns ErrListingNotFound when the seller has no listing there.
	FindByUserAndCategory(ctx context.Context, userID, categoryID string) (*Listing, error)
	FindByUserID(ctx context.Context, userID string) ([]*Listing, error)
}

type CategoryRepository interface {
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	FindByID(ctx context.Context, id string) (*Category, error)
}

// RelationRepository is the batched-fetch side of the store. Every returned row carries
// the foreign key it was matched on; order is unspecified.
type RelationRepository interface {
	ImagesByListingIDs(ctx context.Context, listingIDs []string) ([]ListingImage, error)
	UsersByIDs(ctx context.Context, userIDs []string) ([]User, error)
	LanguagesByUserIDs(ctx context.Context, userIDs []string) ([]UserLanguage, error)
}

type Storage interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type Mailer interface {
	SendListingCreatedEmail(toEmail, listingTitle string) error
}
