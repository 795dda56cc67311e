package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/dataloader"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	ServiceName string
	JWTSecret   string
	Relations   domain.RelationRepository
	LoaderOpts  []dataloader.Option
	Observer    RequestObserver
}

// NewRouter mounts the public browse routes and the authenticated seller routes.
func NewRouter(h *Handler, cfg RouterConfig, log *logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(Logging(log, cfg.Observer))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(Loaders(cfg.Relations, cfg.LoaderOpts...))

		r.Get("/api/categories/{slug}/listings", h.HandleListCategory)
		r.Get("/api/listings/{id}", h.HandleGetListing)

		r.Group(func(r chi.Router) {
			r.Use(Auth(cfg.JWTSecret, log))

			r.Get("/api/me/listings", h.HandleListMine)
			r.Put("/api/me/listings", h.HandleUpsert)
			r.Patch("/api/me/listings/{id}/status", h.HandleSwitchStatus)
			r.Delete("/api/me/listings/{id}", h.HandleDelete)
			r.Post("/api/me/listings/images", h.HandleUploadImages)
		})
	})

	return otelhttp.NewHandler(r, cfg.ServiceName)
}

// Serve runs srv until ctx is cancelled, then drains in-flight requests.
func Serve(ctx context.Context, srv *http.Server, log *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
