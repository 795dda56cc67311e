package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/filter"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/paging"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SubjectListingCreated = "listing.created"
	SubjectListingUpdated = "listing.updated"
	SubjectListingDeleted = "listing.deleted"
)

// ListingEvent is the payload published on every listing change.
type ListingEvent struct {
	ListingID  string  `json:"listing_id"`
	UserID     string  `json:"user_id"`
	CategoryID string  `json:"category_id"`
	Price      float64 `json:"price"`
	Status     bool    `json:"status"`
	OccurredAt int64   `json:"occurred_at"`
}

type PageQuerier interface {
	Query(ctx context.Context, req paging.Request) (paging.Page[domain.Listing], error)
}

// EventCounter is told about each successful write. May be nil.
type EventCounter interface {
	ListingEvent(kind string)
}

type UpsertInput struct {
	CategoryID  string            `json:"category_id"`
	Image       string            `json:"image,omitempty"`
	Level       string            `json:"level,omitempty"`
	Platforms   []domain.Platform `json:"platforms,omitempty"`
	Description string            `json:"description,omitempty"`
	Price       float64           `json:"price"`
	Per         string            `json:"per"`
}

func (in UpsertInput) validate() error {
	switch {
	case in.CategoryID == "":
		return fmt.Errorf("%w: category_id is required", domain.ErrInvalidArgument)
	case in.Price < 0:
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidArgument)
	case in.Per == "":
		return fmt.Errorf("%w: per is required", domain.ErrInvalidArgument)
	}
	return nil
}

// Deps are the collaborators of ListingUsecase. Publisher, Mailer and Counter are optional.
type Deps struct {
	Listings   domain.ListingRepository
	Categories domain.CategoryRepository
	Relations  domain.RelationRepository
	Pages      PageQuerier
	Compiler   *filter.Compiler
	Publisher  domain.EventPublisher
	Mailer     domain.Mailer
	Counter    EventCounter
	Clock      clock.Clock
}

type ListingUsecase struct {
	listings   domain.ListingRepository
	categories domain.CategoryRepository
	relations  domain.RelationRepository
	pages      PageQuerier
	compiler   *filter.Compiler
	publisher  domain.EventPublisher
	mailer     domain.Mailer
	counter    EventCounter
	clock      clock.Clock
	newID      func() string
	logger     *logger.Logger
}

func NewListingUsecase(d Deps, log *logger.Logger) *ListingUsecase {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	return &ListingUsecase{
		listings:   d.Listings,
		categories: d.Categories,
		relations:  d.Relations,
		pages:      d.Pages,
		compiler:   d.Compiler,
		publisher:  d.Publisher,
		mailer:     d.Mailer,
		counter:    d.Counter,
		clock:      d.Clock,
		newID:      uuid.NewString,
		logger:     log.Named("listing_usecase"),
	}
}

// ListFiltered returns one page of a category's listings narrowed by the facet selection.
func (uc *ListingUsecase) ListFiltered(ctx context.Context, scopeKey string, limit int, cursor string, sel filter.Selection) (paging.Page[domain.Listing], error) {
	pred, err := uc.compiler.Compile(sel)
	if err != nil {
		return paging.Page[domain.Listing]{}, err
	}
	page, err := uc.pages.Query(ctx, paging.Request{
		ScopeKey:  scopeKey,
		Limit:     limit,
		Cursor:    cursor,
		Predicate: pred,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidArgument) {
			uc.logger.Error("list filtered failed", zap.String("scope", scopeKey), zap.Error(err))
		}
		return paging.Page[domain.Listing]{}, err
	}
	uc.logger.Debug("listed filtered page",
		zap.String("scope", scopeKey),
		zap.Int("clauses", len(pred.Clauses)),
		zap.Int("items", len(page.Items)),
		zap.Bool("has_more", page.HasMore))
	return page, nil
}

func (uc *ListingUsecase) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	l, err := uc.listings.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrListingNotFound) {
			uc.logger.Error("get listing failed", zap.String("listing_id", id), zap.Error(err))
		}
		return nil, err
	}
	return l, nil
}

// ListMine returns the seller's own listings ordered by category.
func (uc *ListingUsecase) ListMine(ctx context.Context, userID string) ([]*domain.Listing, error) {
	listings, err := uc.listings.FindByUserID(ctx, userID)
	if err != nil {
		uc.logger.Error("list own listings failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return listings, nil
}

// Upsert creates the seller's listing in the category, or updates it when one exists.
// A seller holds at most one listing per category.
func (uc *ListingUsecase) Upsert(ctx context.Context, userID string, in UpsertInput) (*domain.Listing, bool, error) {
	if err := in.validate(); err != nil {
		return nil, false, err
	}
	category, err := uc.categories.FindByID(ctx, in.CategoryID)
	if errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, false, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidArgument, in.CategoryID)
	}
	if err != nil {
		return nil, false, err
	}

	now := domain.Timestamp(uc.clock.Now())
	existing, err := uc.listings.FindByUserAndCategory(ctx, userID, in.CategoryID)
	switch {
	case errors.Is(err, domain.ErrListingNotFound):
		l := &domain.Listing{
			ID:          uc.newID(),
			UserID:      userID,
			CategoryID:  in.CategoryID,
			Level:       in.Level,
			Platforms:   in.Platforms,
			Description: in.Description,
			Price:       in.Price,
			Per:         in.Per,
			Image:       in.Image,
			Status:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := uc.listings.Create(ctx, l); err != nil {
			uc.logger.Error("create listing failed", zap.String("user_id", userID), zap.Error(err))
			return nil, false, err
		}
		uc.logger.Info("listing created", zap.String("listing_id", l.ID), zap.String("user_id", userID), zap.String("category", category.Slug))
		uc.announce(ctx, SubjectListingCreated, l)
		uc.notifySeller(ctx, l, category)
		return l, true, nil
	case err != nil:
		return nil, false, err
	}

	if in.Level != "" {
		existing.Level = in.Level
	}
	if in.Platforms != nil {
		existing.Platforms = in.Platforms
	}
	if in.Description != "" {
		existing.Description = in.Description
	}
	if in.Image != "" {
		existing.Image = in.Image
	}
	existing.Price = in.Price
	existing.Per = in.Per
	existing.UpdatedAt = now
	if err := uc.listings.Update(ctx, existing); err != nil {
		uc.logger.Error("update listing failed", zap.String("listing_id", existing.ID), zap.Error(err))
		return nil, false, err
	}
	uc.logger.Info("listing updated", zap.String("listing_id", existing.ID), zap.String("user_id", userID))
	uc.announce(ctx, SubjectListingUpdated, existing)
	return existing, false, nil
}

// SwitchStatus flips the active flag of a listing the caller owns.
func (uc *ListingUsecase) SwitchStatus(ctx context.Context, userID, id string) (*domain.Listing, error) {
	l, err := uc.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	l.Status = !l.Status
	l.UpdatedAt = domain.Timestamp(uc.clock.Now())
	if err := uc.listings.Update(ctx, l); err != nil {
		uc.logger.Error("switch status failed", zap.String("listing_id", id), zap.Error(err))
		return nil, err
	}
	uc.announce(ctx, SubjectListingUpdated, l)
	return l, nil
}

func (uc *ListingUsecase) Delete(ctx context.Context, userID, id string) error {
	l, err := uc.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := uc.listings.Delete(ctx, id); err != nil {
		uc.logger.Error("delete listing failed", zap.String("listing_id", id), zap.Error(err))
		return err
	}
	uc.logger.Info("listing deleted", zap.String("listing_id", id), zap.String("user_id", userID))
	uc.announce(ctx, SubjectListingDeleted, l)
	return nil
}

func (uc *ListingUsecase) owned(ctx context.Context, userID, id string) (*domain.Listing, error) {
	l, err := uc.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.UserID != userID {
		uc.logger.Warn("forbidden listing access",
			zap.String("listing_id", id), zap.String("owner_id", l.UserID), zap.String("user_id", userID))
		return nil, domain.ErrForbidden
	}
	return l, nil
}

// announce publishes the change. Delivery failures are logged and do not fail the write.
func (uc *ListingUsecase) announce(ctx context.Context, subject string, l *domain.Listing) {
	if uc.counter != nil {
		uc.counter.ListingEvent(subject)
	}
	if uc.publisher == nil {
		return
	}
	ev := ListingEvent{
		ListingID:  l.ID,
		UserID:     l.UserID,
		CategoryID: l.CategoryID,
		Price:      l.Price,
		Status:     l.Status,
		OccurredAt: uc.clock.Now().UnixMilli(),
	}
	if err := uc.publisher.Publish(ctx, subject, ev); err != nil {
		uc.logger.Warn("listing event not published", zap.String("subject", subject), zap.String("listing_id", l.ID), zap.Error(err))
	}
}

func (uc *ListingUsecase) notifySeller(ctx context.Context, l *domain.Listing, category *domain.Category) {
	if uc.mailer == nil || uc.relations == nil {
		return
	}
	users, err := uc.relations.UsersByIDs(ctx, []string{l.UserID})
	if err != nil || len(users) == 0 || users[0].Email == "" {
		uc.logger.Warn("seller email unavailable, skipping notification", zap.String("user_id", l.UserID), zap.Error(err))
		return
	}
	if err := uc.mailer.SendListingCreatedEmail(users[0].Email, category.Name); err != nil {
		uc.logger.Warn("listing created email failed", zap.String("listing_id", l.ID), zap.Error(err))
	}
}
