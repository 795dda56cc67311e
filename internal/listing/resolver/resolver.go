// Package resolver attaches images, sellers and seller languages to listings through
// request-scoped batch loaders.
package resolver

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"golang.org/x/sync/errgroup"
)

// ListingView is a listing with its relations bound but not yet loaded.
type ListingView struct {
	Listing   domain.Listing
	Images    *Association[domain.ListingImage]
	Seller    *Association[domain.User]
	Languages *Association[domain.UserLanguage]
}

func (v *ListingView) Prime() {
	v.Images.Prime()
	v.Seller.Prime()
	v.Languages.Prime()
}

// Resolved is a listing with every relation loaded. Seller is nil when the user row is gone.
type Resolved struct {
	Listing   domain.Listing
	Images    []domain.ListingImage
	Seller    *domain.User
	Languages []domain.UserLanguage
}

type Resolver struct {
	loaders *Loaders
}

func New(loaders *Loaders) *Resolver {
	return &Resolver{loaders: loaders}
}

func (r *Resolver) Bind(l domain.Listing) *ListingView {
	return &ListingView{
		Listing:   l,
		Images:    newAssociation(r.loaders.Images, l.ID),
		Seller:    newAssociation(r.loaders.Sellers, l.UserID),
		Languages: newAssociation(r.loaders.Languages, l.UserID),
	}
}

// ResolveAll binds every listing, primes all relations, flushes the loaders and then
// resolves the listings concurrently. Each relation kind costs one store call: the
// loaders are held while priming so their windows cannot send a partial batch.
func (r *Resolver) ResolveAll(ctx context.Context, listings []domain.Listing) ([]Resolved, error) {
	r.loaders.Hold()
	views := make([]*ListingView, len(listings))
	for i, l := range listings {
		views[i] = r.Bind(l)
		views[i].Prime()
	}
	r.loaders.Flush()

	out := make([]Resolved, len(views))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range views {
		g.Go(func() error {
			res, err := resolve(gctx, v)
			if err != nil {
				return fmt.Errorf("resolve listing %s: %w", v.Listing.ID, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) Resolve(ctx context.Context, l domain.Listing) (Resolved, error) {
	out, err := r.ResolveAll(ctx, []domain.Listing{l})
	if err != nil {
		return Resolved{}, err
	}
	return out[0], nil
}

func resolve(ctx context.Context, v *ListingView) (Resolved, error) {
	res := Resolved{Listing: v.Listing}
	var err error
	if res.Images, err = v.Images.Get(ctx); err != nil {
		return Resolved{}, fmt.Errorf("images: %w", err)
	}
	sellers, err := v.Seller.Get(ctx)
	if err != nil {
		return Resolved{}, fmt.Errorf("seller: %w", err)
	}
	if len(sellers) > 0 {
		res.Seller = &sellers[0]
	}
	if res.Languages, err = v.Languages.Get(ctx); err != nil {
		return Resolved{}, fmt.Errorf("languages: %w", err)
	}
	return res, nil
}
