// Package memory is a map-backed store used by tests and the "memory" store driver.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/paging"
)

type Store struct {
	mu         sync.RWMutex
	categories map[string]domain.Category
	listings   map[string]domain.Listing
	users      map[string]domain.User
	images     []domain.ListingImage
	languages  []domain.UserLanguage

	// relationCalls counts batched fetches per relation.
	relationCalls map[string]int
}

var (
	_ domain.ListingRepository  = (*Store)(nil)
	_ domain.RelationRepository = (*Store)(nil)
	_ paging.Store              = (*Store)(nil)
)

func New() *Store {
	return &Store{
		categories:    make(map[string]domain.Category),
		listings:      make(map[string]domain.Listing),
		users:         make(map[string]domain.User),
		relationCalls: make(map[string]int),
	}
}

func (s *Store) PutCategory(c domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) PutImage(img domain.ListingImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append(s.images, img)
}

func (s *Store) PutLanguage(l domain.UserLanguage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.languages = append(s.languages, l)
}

// RelationCalls returns how many batched fetches hit relation.
func (s *Store) RelationCalls(relation string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.relationCalls[relation]
}

func (s *Store) Create(_ context.Context, l *domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[l.ID] = cloneListing(*l)
	return nil
}

func (s *Store) Update(_ context.Context, l *domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[l.ID]; !ok {
		return domain.ErrListingNotFound
	}
	s.listings[l.ID] = cloneListing(*l)
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[id]; !ok {
		return domain.ErrListingNotFound
	}
	delete(s.listings, id)
	s.images = slices.DeleteFunc(s.images, func(img domain.ListingImage) bool { return img.ListingID == id })
	return nil
}

func (s *Store) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	out := cloneListing(l)
	return &out, nil
}

func (s *Store) FindByUserAndCategory(_ context.Context, userID, categoryID string) (*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.listings {
		if l.UserID == userID && l.CategoryID == categoryID {
			out := cloneListing(l)
			return &out, nil
		}
	}
	return nil, domain.ErrListingNotFound
}

func (s *Store) FindByUserID(_ context.Context, userID string) ([]*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Listing
	for _, l := range s.sorted() {
		if l.UserID == userID {
			c := cloneListing(l)
			out = append(out, &c)
		}
	}
	// sorted is newest first; a stable sort keeps that within each category.
	slices.SortStableFunc(out, func(a, b *domain.Listing) int { return cmp.Compare(a.CategoryID, b.CategoryID) })
	return out, nil
}

// Categories returns the category view of the store.
func (s *Store) Categories() *Categories { return &Categories{s: s} }

type Categories struct{ s *Store }

var _ domain.CategoryRepository = (*Categories)(nil)

func (c *Categories) FindBySlug(_ context.Context, slug string) (*domain.Category, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	for _, cat := range c.s.categories {
		if cat.Slug == slug {
			out := cat
			return &out, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

func (c *Categories) FindByID(_ context.Context, id string) (*domain.Category, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	cat, ok := c.s.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return &cat, nil
}

// QueryPage evaluates the predicate in process against each listing joined with its seller.
func (s *Store) QueryPage(ctx context.Context, q paging.Query) ([]domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Listing, 0, q.Limit)
	for _, l := range s.sorted() {
		if len(out) == q.Limit {
			break
		}
		if l.CategoryID != q.ScopeID {
			continue
		}
		if q.After != nil && !q.After.Admits(l.CreatedAt, l.ID) {
			continue
		}
		if !q.Predicate.Match(s.candidate(l)) {
			continue
		}
		out = append(out, cloneListing(l))
	}
	return out, nil
}

func (s *Store) ImagesByListingIDs(ctx context.Context, listingIDs []string) ([]domain.ListingImage, error) {
	if err := s.countCall(ctx, "images"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ListingImage
	for _, img := range s.images {
		if slices.Contains(listingIDs, img.ListingID) {
			out = append(out, img)
		}
	}
	return out, nil
}

func (s *Store) UsersByIDs(ctx context.Context, userIDs []string) ([]domain.User, error) {
	if err := s.countCall(ctx, "sellers"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.User
	for _, id := range userIDs {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) LanguagesByUserIDs(ctx context.Context, userIDs []string) ([]domain.UserLanguage, error) {
	if err := s.countCall(ctx, "languages"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.UserLanguage
	for _, l := range s.languages {
		if slices.Contains(userIDs, l.UserID) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *Store) countCall(ctx context.Context, relation string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.relationCalls[relation]++
	s.mu.Unlock()
	return nil
}

// sorted returns listings newest first, ties broken by descending id. Callers hold mu.
func (s *Store) sorted() []domain.Listing {
	all := make([]domain.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		all = append(all, l)
	}
	slices.SortFunc(all, func(a, b domain.Listing) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return all
}

func (s *Store) candidate(l domain.Listing) domain.Candidate {
	c := domain.Candidate{Listing: l}
	if u, ok := s.users[l.UserID]; ok {
		c.SellerGender = u.Gender
		c.SellerBirthdate = u.Birthdate
	}
	for _, lang := range s.languages {
		if lang.UserID == l.UserID {
			c.LanguageIDs = append(c.LanguageIDs, lang.LanguageID)
		}
	}
	return c
}

func cloneListing(l domain.Listing) domain.Listing {
	l.CreatedAt = domain.Timestamp(l.CreatedAt)
	l.UpdatedAt = domain.Timestamp(l.UpdatedAt)
	l.Platforms = slices.Clone(l.Platforms)
	return l
}
