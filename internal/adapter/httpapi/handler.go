// Package httpapi exposes the marketplace over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/filter"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/paging"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/resolver"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/usecase"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	// DefaultLimit applies when the client sends no limit parameter.
	DefaultLimit = 20

	maxUploadMemory = 32 << 20
	imagesFormField = "images"
)

type ListingService interface {
	ListFiltered(ctx context.Context, scopeKey string, limit int, cursor string, sel filter.Selection) (paging.Page[domain.Listing], error)
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	ListMine(ctx context.Context, userID string) ([]*domain.Listing, error)
	Upsert(ctx context.Context, userID string, in usecase.UpsertInput) (*domain.Listing, bool, error)
	SwitchStatus(ctx context.Context, userID, id string) (*domain.Listing, error)
	Delete(ctx context.Context, userID, id string) error
}

type PhotoService interface {
	UploadImages(ctx context.Context, files []usecase.Upload) (string, error)
}

type Handler struct {
	listings  ListingService
	photos    PhotoService
	relations domain.RelationRepository
	logger    *logger.Logger
}

// NewHandler wires the handlers. relations backs the loaders of requests that did not
// pass through the Loaders middleware.
func NewHandler(listings ListingService, photos PhotoService, relations domain.RelationRepository, log *logger.Logger) *Handler {
	return &Handler{listings: listings, photos: photos, relations: relations, logger: log.Named("handler")}
}

type imageResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type sellerResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Gender      string     `json:"gender,omitempty"`
	Birthdate   *time.Time `json:"birthdate,omitempty"`
	Country     string     `json:"country,omitempty"`
	Description string     `json:"description,omitempty"`
	LastOnline  time.Time  `json:"last_online"`
}

type languageResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type listingResponse struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	CategoryID  string             `json:"category_id"`
	Level       string             `json:"level,omitempty"`
	Platforms   []domain.Platform  `json:"platforms"`
	Description string             `json:"description,omitempty"`
	Price       float64            `json:"price"`
	Per         string             `json:"per"`
	Image       string             `json:"image,omitempty"`
	Status      bool               `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Images      []imageResponse    `json:"images"`
	Seller      *sellerResponse    `json:"seller"`
	Languages   []languageResponse `json:"languages"`
}

type pageResponse struct {
	Items      []listingResponse `json:"items"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func toListingResponse(r resolver.Resolved) listingResponse {
	l := r.Listing
	out := listingResponse{
		ID:          l.ID,
		UserID:      l.UserID,
		CategoryID:  l.CategoryID,
		Level:       l.Level,
		Platforms:   l.Platforms,
		Description: l.Description,
		Price:       l.Price,
		Per:         l.Per,
		Image:       l.Image,
		Status:      l.Status,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
		Images:      make([]imageResponse, 0, len(r.Images)),
		Languages:   make([]languageResponse, 0, len(r.Languages)),
	}
	if out.Platforms == nil {
		out.Platforms = []domain.Platform{}
	}
	for _, img := range r.Images {
		out.Images = append(out.Images, imageResponse{ID: img.ID, URL: img.URL})
	}
	for _, lang := range r.Languages {
		out.Languages = append(out.Languages, languageResponse{ID: lang.LanguageID, Name: lang.Name})
	}
	if s := r.Seller; s != nil {
		out.Seller = &sellerResponse{
			ID:          s.ID,
			Username:    s.Username,
			Gender:      s.Gender,
			Birthdate:   s.Birthdate,
			Country:     s.Country,
			Description: s.Description,
			LastOnline:  s.LastOnline,
		}
	}
	return out
}

// resolve attaches relations to every listing through the request's loaders.
func (h *Handler) resolve(ctx context.Context, listings []domain.Listing) ([]listingResponse, error) {
	loaders, ok := resolver.LoadersFrom(ctx)
	if !ok {
		loaders = resolver.NewLoaders(ctx, h.relations)
		defer loaders.Close()
	}
	resolved, err := resolver.New(loaders).ResolveAll(ctx, listings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreFailure, err)
	}
	out := make([]listingResponse, len(resolved))
	for i, r := range resolved {
		out[i] = toListingResponse(r)
	}
	return out, nil
}

func (h *Handler) respondListing(w http.ResponseWriter, r *http.Request, code int, l *domain.Listing) {
	items, err := h.resolve(r.Context(), []domain.Listing{*l})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, code, items[0])
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if statusOf(err) == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, err)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit %q is not a number", domain.ErrInvalidArgument, raw)
	}
	return n, nil
}

// HandleListCategory serves one page of a category. Facets come as repeated query
// parameters: ?language=en&language=de&price=0-10.
func (h *Handler) HandleListCategory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sel := filter.Selection{
		Languages: q["language"],
		Genders:   q["gender"],
		Ages:      q["age"],
		Prices:    q["price"],
	}

	page, err := h.listings.ListFiltered(r.Context(), chi.URLParam(r, "slug"), limit, q.Get("cursor"), sel)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items, err := h.resolve(r.Context(), page.Items)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, pageResponse{Items: items, HasMore: page.HasMore, NextCursor: page.NextCursor})
}

func (h *Handler) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	l, err := h.listings.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondListing(w, r, http.StatusOK, l)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	mine, err := h.listings.ListMine(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	listings := make([]domain.Listing, len(mine))
	for i, l := range mine {
		listings[i] = *l
	}
	items, err := h.resolve(r.Context(), listings)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string][]listingResponse{"items": items})
}

// HandleUpsert answers 201 when the listing was created and 200 when it was updated.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	var in usecase.UpsertInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.fail(w, r, fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidArgument, err))
		return
	}
	userID, _ := UserIDFrom(r.Context())
	l, created, err := h.listings.Upsert(r.Context(), userID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	h.respondListing(w, r, code, l)
}

func (h *Handler) HandleSwitchStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	l, err := h.listings.SwitchStatus(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondListing(w, r, http.StatusOK, l)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	if err := h.listings.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleUploadImages(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.fail(w, r, fmt.Errorf("%w: invalid multipart form: %v", domain.ErrInvalidArgument, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[imagesFormField]
	files := make([]usecase.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: open %s: %v", domain.ErrInvalidArgument, fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: read %s: %v", domain.ErrInvalidArgument, fh.Filename, err))
			return
		}
		files = append(files, usecase.Upload{Name: fh.Filename, Data: data})
	}

	url, err := h.photos.UploadImages(r.Context(), files)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"url": url})
}
