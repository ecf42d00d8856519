package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hifz-progress-api/internal/models"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.ObserveRecompute(true, 2, 4*time.Millisecond)
	m.ObserveRecompute(false, 0, time.Millisecond)
	m.ObserveRecommendation(models.LevelBeginner)
	m.ObserveJob("done")
	m.ObserveDBQuery("list_records", 2*time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 1e-9)
	assert.Equal(t, uint64(1), snap.RecomputesSucceeded)
	assert.Equal(t, uint64(1), snap.RecomputesFailed)
	assert.InDelta(t, 4.0, snap.AverageRecomputeMs, 1e-9)
	assert.Equal(t, uint64(2), snap.SkippedRecords)
	assert.Equal(t, uint64(1), snap.RecommendationsServed)
	assert.Equal(t, uint64(1), snap.DBQueryCount)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveRecompute(true, 0, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `progress_recompute_total{result="ok"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveRecompute(true, 1, time.Second)
	m.ObserveRecommendation(models.LevelMaster)
	m.ObserveJob("failed")
	assert.Equal(t, models.SystemMetrics{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
