package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/resolver"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/dataloader"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type userIDKey struct{}

// Claims is the token payload issued by the user service.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// UserIDFrom returns the authenticated user set by Auth.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// Auth rejects requests without a valid HMAC-signed bearer token and stores the
// token's user id in the request context.
func Auth(jwtSecret string, log *logger.Logger) func(http.Handler) http.Handler {
	log = log.Named("auth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticate(r.Header.Get("Authorization"), jwtSecret)
			if err != nil {
				log.Warn("request not authenticated", zap.String("path", r.URL.Path), zap.Error(err))
				writeError(w, err)
				return
			}
			log.Debug("user authenticated", zap.String("path", r.URL.Path), zap.String("user_id", userID))
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey{}, userID)))
		})
	}
}

func authenticate(header, secret string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: authorization token is not provided", domain.ErrUnauthenticated)
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("%w: expected 'Bearer <token>'", domain.ErrUnauthenticated)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", fmt.Errorf("%w: token has expired", domain.ErrUnauthenticated)
	case err != nil, !token.Valid:
		return "", fmt.Errorf("%w: token is invalid", domain.ErrUnauthenticated)
	case claims.UserID == "":
		return "", fmt.Errorf("%w: user_id claim is missing", domain.ErrUnauthenticated)
	}
	return claims.UserID, nil
}

// RequestObserver receives one sample per served request.
type RequestObserver interface {
	ObserveRequest(route string, status int, took time.Duration)
}

// Logging logs each request once it completes and reports it to obs, which may be nil.
// Routes are reported by chi pattern so ids do not blow up label cardinality.
func Logging(log *logger.Logger, obs RequestObserver) func(http.Handler) http.Handler {
	log = log.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			took := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			if obs != nil {
				obs.ObserveRequest(route, status, took)
			}

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("duration", took),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			}
			if status >= http.StatusInternalServerError {
				log.Error("request failed", fields...)
				return
			}
			log.Info("request completed", fields...)
		})
	}
}

// Loaders gives every request its own batch loaders and closes them when the
// request completes, so no cached row outlives the request.
func Loaders(repo domain.RelationRepository, opts ...dataloader.Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := resolver.NewLoaders(r.Context(), repo, opts...)
			defer l.Close()
			next.ServeHTTP(w, r.WithContext(resolver.WithLoaders(r.Context(), l)))
		})
	}
}
