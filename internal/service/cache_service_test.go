package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCacheServiceRoundTripAndStudentInvalidation(t *testing.T) {
	repo := newMemoryCache()
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, coverageKey("stu-1", 1), map[string]int{"covered": 3}, 0))
	require.NoError(t, cache.Set(ctx, coverageKey("stu-10", 1), map[string]int{"covered": 1}, 0))

	var out map[string]int
	hit, err := cache.Get(ctx, coverageKey("stu-1", 1), &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, out["covered"])

	require.NoError(t, cache.InvalidateStudent(ctx, "stu-1"))
	hit, err = cache.Get(ctx, coverageKey("stu-1", 1), &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{coverageKey("stu-10", 1)}, repo.keys())

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCache()
	cache := NewCacheService(repo, nil, 0, nil, false)
	ctx := context.Background()

	assert.False(t, cache.Enabled())
	require.NoError(t, cache.Set(ctx, "k", 1, 0))
	assert.Empty(t, repo.keys())

	var nilCache *CacheService
	hit, err := nilCache.Get(ctx, "k", new(int))
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, nilCache.InvalidateStudent(ctx, "stu-1"))
}

func TestRecommendationKeyIsStable(t *testing.T) {
	assert.Equal(t, "progress:stu-1:recommend:5:[3 9]", recommendationKey("stu-1", 5, []int{3, 9}))
	assert.Equal(t, "progress:stu-1:coverage:112", coverageKey("stu-1", 112))
}
