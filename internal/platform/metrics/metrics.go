package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds the service's Prometheus collectors on a private registry.
type MetricsManager struct {
	Registry *prometheus.Registry

	ListingsCreatedTotal prometheus.Counter
	ListingsUpdatedTotal prometheus.Counter
	ListingsDeletedTotal prometheus.Counter

	APIErrorsTotal *prometheus.CounterVec
	APILatency     *prometheus.HistogramVec

	LoaderBatchKeys    *prometheus.HistogramVec
	LoaderFetchLatency *prometheus.HistogramVec
	LoaderFetchErrors  *prometheus.CounterVec

	PageQueryLatency prometheus.Histogram
	PageItems        prometheus.Histogram
	PageQueryErrors  prometheus.Counter
}

func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		ListingsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "listings_created_total",
			Help:      "Total number of listings created.",
		}),
		ListingsUpdatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "listings_updated_total",
			Help:      "Total number of listings updated.",
		}),
		ListingsDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "listings_deleted_total",
			Help:      "Total number of listings deleted.",
		}),
		APIErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "api_errors_total",
			Help:      "Total number of API errors by route and status.",
		}, []string{"route", "status"}),
		APILatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Name:      "api_request_latency_seconds",
			Help:      "Latency of API requests by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		LoaderBatchKeys: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Name:      "loader_batch_keys",
			Help:      "Distinct keys per batched relation fetch.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 11),
		}, []string{"relation"}),
		LoaderFetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Name:      "loader_fetch_latency_seconds",
			Help:      "Latency of batched relation fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"relation"}),
		LoaderFetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "loader_fetch_errors_total",
			Help:      "Batched relation fetches that failed.",
		}, []string{"relation"}),
		PageQueryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: serviceName,
			Name:      "page_query_latency_seconds",
			Help:      "Latency of filtered page queries.",
			Buckets:   prometheus.DefBuckets,
		}),
		PageItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: serviceName,
			Name:      "page_items",
			Help:      "Items returned per page.",
			Buckets:   []float64{0, 1, 5, 10, 20, 30, 40, 50},
		}),
		PageQueryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "page_query_errors_total",
			Help:      "Filtered page queries that failed.",
		}),
	}

	registry.MustRegister(
		m.ListingsCreatedTotal,
		m.ListingsUpdatedTotal,
		m.ListingsDeletedTotal,
		m.APIErrorsTotal,
		m.APILatency,
		m.LoaderBatchKeys,
		m.LoaderFetchLatency,
		m.LoaderFetchErrors,
		m.PageQueryLatency,
		m.PageItems,
		m.PageQueryErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveBatch has the shape of dataloader.Observer.
func (m *MetricsManager) ObserveBatch(relation string, keys int, took time.Duration, err error) {
	m.LoaderBatchKeys.WithLabelValues(relation).Observe(float64(keys))
	m.LoaderFetchLatency.WithLabelValues(relation).Observe(took.Seconds())
	if err != nil {
		m.LoaderFetchErrors.WithLabelValues(relation).Inc()
	}
}

func (m *MetricsManager) ObservePage(items int, _ bool, took time.Duration, err error) {
	m.PageQueryLatency.Observe(took.Seconds())
	if err != nil {
		m.PageQueryErrors.Inc()
		return
	}
	m.PageItems.Observe(float64(items))
}

// ListingEvent counts listing writes by event subject.
func (m *MetricsManager) ListingEvent(kind string) {
	switch kind {
	case "listing.created":
		m.ListingsCreatedTotal.Inc()
	case "listing.updated":
		m.ListingsUpdatedTotal.Inc()
	case "listing.deleted":
		m.ListingsDeletedTotal.Inc()
	}
}

func (m *MetricsManager) ObserveRequest(route string, status int, took time.Duration) {
	m.APILatency.WithLabelValues(route).Observe(took.Seconds())
	if status >= http.StatusBadRequest {
		m.APIErrorsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	}
}

// StartMetricsServer serves /metrics on port until ctx is done. An empty port disables it.
func StartMetricsServer(ctx context.Context, port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("metrics port not configured, metrics server will not start")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	appLogger.Info("metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
