package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/httpapi"
	natsAdapter "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/cache"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/memory"
	mongoRepo "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/mongodb"
	pgRepo "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/postgres"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/filter"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/paging"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/usecase"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/mailer"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/dataloader"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/tracer"
	"github.com/benbjohnson/clock"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type listingStore interface {
	domain.ListingRepository
	paging.Store
}

// stores is the persistence side selected by STORE_DRIVER.
type stores struct {
	listings   listingStore
	categories domain.CategoryRepository
	relations  domain.RelationRepository
	close      func()
}

func openStores(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case "postgres":
		if err := pgRepo.Migrate(ctx, cfg.PostgresDSN); err != nil {
			return nil, err
		}
		pool, err := pgRepo.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		appLogger.Info("connected to PostgreSQL, migrations applied")
		return &stores{
			listings:   pgRepo.NewListingRepository(pool, appLogger),
			categories: pgRepo.NewCategoryRepository(pool),
			relations:  pgRepo.NewRelationRepository(pool),
			close:      pool.Close,
		}, nil

	case "mongodb":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := mongoRepo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		appLogger.Info("connected to MongoDB", zap.String("database", cfg.MongoDatabase))
		return &stores{
			listings:   mongoRepo.NewListingRepository(db, appLogger),
			categories: mongoRepo.NewCategoryRepository(db),
			relations:  mongoRepo.NewRelationRepository(db, appLogger),
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					appLogger.Error("error disconnecting from MongoDB", zap.Error(err))
				}
			},
		}, nil

	default:
		appLogger.Warn("using the in-memory store, data is lost on restart")
		store := memory.New()
		return &stores{
			listings:   store,
			categories: store.Categories(),
			relations:  store,
			close:      func() {},
		}, nil
	}
}

func main() {
	// 1. Logger and configuration
	appLogger := logger.NewLogger(nil)
	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("failed to load configuration", zap.Error(err))
	}
	appLogger = logger.NewLogger(cfg.LoggerConfig()).With(zap.String("service_name", cfg.ServiceName))
	defer func() { _ = appLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Tracing and metrics
	tp := tracer.InitTracer(cfg.ServiceName, cfg.OTExporterOTLPEndpoint, appLogger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("failed to shut down tracer provider", zap.Error(err))
		}
	}()

	metricsManager := metrics.NewMetricsManager(cfg.ServiceName)
	go func() {
		if err := metrics.StartMetricsServer(ctx, cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry); err != nil {
			appLogger.Error("metrics server failed", zap.Error(err))
		}
	}()

	// 3. Stores
	st, err := openStores(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("failed to open listing store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer st.close()

	categories := st.categories
	if cfg.RedisAddress != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddress)
		if err != nil {
			appLogger.Warn("redis unavailable, category lookups are not cached", zap.String("address", cfg.RedisAddress), zap.Error(err))
		} else {
			defer redisClient.Close()
			categories = cache.NewCategoryCache(redisClient, st.categories, cfg.CategoryCacheTTL, appLogger)
			appLogger.Info("category cache enabled", zap.Duration("ttl", cfg.CategoryCacheTTL))
		}
	}

	// 4. Messaging, object storage and mail
	var publisher domain.EventPublisher
	natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL, appLogger)
	if err != nil {
		appLogger.Warn("NATS unavailable, listing events will not be published", zap.Error(err))
	} else {
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	storage, err := s3.NewS3Storage(ctx, cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, appLogger)
	if err != nil {
		appLogger.Fatal("failed to initialize object storage", zap.Error(err))
	}

	var mail domain.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		appLogger.Info("SMTP_HOST not set, seller emails are disabled")
	}

	// 5. Usecases
	clk := clock.New()
	listingUC := usecase.NewListingUsecase(usecase.Deps{
		Listings:   st.listings,
		Categories: categories,
		Relations:  st.relations,
		Pages:      paging.NewExecutor(st.listings, categories, metricsManager),
		Compiler:   filter.NewCompiler(cfg.Buckets, clk),
		Publisher:  publisher,
		Mailer:     mail,
		Counter:    metricsManager,
		Clock:      clk,
	}, appLogger)
	photoUC := usecase.NewPhotoUsecase(storage, appLogger)

	// 6. HTTP server
	handler := httpapi.NewHandler(listingUC, photoUC, st.relations, appLogger)
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		ServiceName: cfg.ServiceName,
		JWTSecret:   cfg.JWTSecret,
		Relations:   st.relations,
		LoaderOpts: []dataloader.Option{
			dataloader.WithWait(cfg.LoaderWait),
			dataloader.WithMaxBatch(cfg.LoaderMaxBatch),
			dataloader.WithObserver(metricsManager.ObserveBatch),
		},
		Observer: metricsManager,
	}, appLogger)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := httpapi.Serve(ctx, srv, appLogger); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("HTTP server failed", zap.Error(err))
		return
	}
	appLogger.Info("application stopped")
}
