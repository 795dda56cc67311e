package resolver

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/dataloader"
)

const (
	RelationImages    = "images"
	RelationSellers   = "sellers"
	RelationLanguages = "languages"
)

// Loaders holds the request-scoped loaders, one per relation kind.
type Loaders struct {
	Images    *dataloader.Loader[string, domain.ListingImage]
	Sellers   *dataloader.Loader[string, domain.User]
	Languages *dataloader.Loader[string, domain.UserLanguage]
}

// NewLoaders builds a fresh set of loaders for one request. They must be closed when the
// request completes.
func NewLoaders(ctx context.Context, repo domain.RelationRepository, opts ...dataloader.Option) *Loaders {
	named := func(name string) []dataloader.Option {
		return append(append([]dataloader.Option{}, opts...), dataloader.WithName(name))
	}
	return &Loaders{
		Images: dataloader.New(ctx, repo.ImagesByListingIDs,
			func(img domain.ListingImage) string { return img.ListingID },
			named(RelationImages)...),
		Sellers: dataloader.New(ctx, repo.UsersByIDs,
			func(u domain.User) string { return u.ID },
			named(RelationSellers)...),
		Languages: dataloader.New(ctx, repo.LanguagesByUserIDs,
			func(l domain.UserLanguage) string { return l.UserID },
			named(RelationLanguages)...),
	}
}

// Hold stops every loader's wait window until the next Flush.
func (l *Loaders) Hold() {
	l.Images.Hold()
	l.Sellers.Hold()
	l.Languages.Hold()
}

func (l *Loaders) Flush() {
	l.Images.Flush()
	l.Sellers.Flush()
	l.Languages.Flush()
}

func (l *Loaders) Close() {
	l.Images.Close()
	l.Sellers.Close()
	l.Languages.Close()
}

type loadersKey struct{}

func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey{}, l)
}

func LoadersFrom(ctx context.Context) (*Loaders, bool) {
	l, ok := ctx.Value(loadersKey{}).(*Loaders)
	return l, ok
}
