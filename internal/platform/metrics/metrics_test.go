package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsManager_ObserveBatch(t *testing.T) {
	m := NewMetricsManager("marketplace_test")

	m.ObserveBatch("images", 3, time.Millisecond, nil)
	m.ObserveBatch("images", 1, time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoaderFetchErrors.WithLabelValues("images")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LoaderBatchKeys))
}

func TestMetricsManager_ObservePageAndRequest(t *testing.T) {
	m := NewMetricsManager("marketplace_test")

	m.ObservePage(50, true, 3*time.Millisecond, nil)
	m.ObservePage(0, false, time.Millisecond, errors.New("down"))
	m.ObserveRequest("/api/listings/{id}", 404, time.Millisecond)
	m.ObserveRequest("/api/listings/{id}", 200, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PageQueryErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIErrorsTotal.WithLabelValues("/api/listings/{id}", "404")))
}

func TestMetricsManager_ListingEvent(t *testing.T) {
	m := NewMetricsManager("marketplace_test")

	m.ListingEvent("listing.created")
	m.ListingEvent("listing.updated")
	m.ListingEvent("listing.updated")
	m.ListingEvent("listing.unknown")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListingsCreatedTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ListingsUpdatedTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ListingsDeletedTotal))
}
