package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hifz-progress-api/internal/catalog"
	"github.com/noah-isme/hifz-progress-api/internal/models"
	appErrors "github.com/noah-isme/hifz-progress-api/pkg/errors"
)

func newRecommendationFixture(t *testing.T) (*RecommendationService, *progressFixture) {
	t.Helper()
	f := newProgressFixture(t)
	svc := NewRecommendationService(RecommendationServiceParams{
		Catalog:   catalog.MustDefault(),
		Records:   f.memo,
		Students:  f.students,
		Snapshots: f.snapshots,
		Cache:     NewCacheService(f.cache, nil, time.Minute, zap.NewNop(), true),
		Logger:    zap.NewNop(),
		Now:       func() time.Time { return fixedNow },
	})
	return svc, f
}

func recommendedIndices(recs []models.Recommendation) []int {
	out := make([]int, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ChapterIndex)
	}
	return out
}

func TestRecommendationServiceBeginnerWithoutSnapshot(t *testing.T) {
	svc, f := newRecommendationFixture(t)

	recs, hit, err := svc.Recommend(context.Background(), RecommendRequest{StudentID: "stu-2", Limit: 5})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []int{94, 95, 97, 98, 99}, recommendedIndices(recs))
	for _, r := range recs {
		assert.Equal(t, models.TierHigh, r.Tier)
	}
	assert.Empty(t, f.snapshots.stored)
}

func TestRecommendationServiceDefaultLimit(t *testing.T) {
	svc, _ := newRecommendationFixture(t)

	recs, _, err := svc.Recommend(context.Background(), RecommendRequest{StudentID: "stu-2"})
	require.NoError(t, err)
	assert.Len(t, recs, 10)

	all, _, err := svc.Recommend(context.Background(), RecommendRequest{StudentID: "stu-2", Limit: 500})
	require.NoError(t, err)
	assert.Len(t, all, catalog.ChapterCount)
}

func TestRecommendationServiceExclusionsAndCache(t *testing.T) {
	svc, f := newRecommendationFixture(t)
	ctx := context.Background()

	recs, hit, err := svc.Recommend(ctx, RecommendRequest{StudentID: "stu-2", Limit: 2, Exclude: []int{97, 94, 94}})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []int{95, 98}, recommendedIndices(recs))

	again, hit, err := svc.Recommend(ctx, RecommendRequest{StudentID: "stu-2", Limit: 2, Exclude: []int{94, 97}})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, recs, again)
	assert.Contains(t, f.cache.keys(), recommendationKey("stu-2", 2, []int{94, 97}))
}

func TestRecommendationServiceUsesPersistedLevel(t *testing.T) {
	svc, f := newRecommendationFixture(t)
	f.snapshots.stored["stu-2"] = models.ProgressSnapshot{StudentID: "stu-2", Level: models.LevelAdvanced}

	recs, _, err := svc.Recommend(context.Background(), RecommendRequest{StudentID: "stu-2", Limit: 1})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 2, recs[0].ChapterIndex)
	assert.Equal(t, 55, recs[0].Score)
}

func TestRecommendationServiceErrors(t *testing.T) {
	t.Run("unknown student", func(t *testing.T) {
		svc, _ := newRecommendationFixture(t)
		_, _, err := svc.Recommend(context.Background(), RecommendRequest{StudentID: "ghost"})
		assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	})

	t.Run("missing student id", func(t *testing.T) {
		svc, _ := newRecommendationFixture(t)
		_, _, err := svc.Recommend(context.Background(), RecommendRequest{})
		assert.True(t, errors.Is(err, appErrors.ErrValidation))
	})

	t.Run("record store down", func(t *testing.T) {
		svc, f := newRecommendationFixture(t)
		f.memo.err = errors.New("timeout")
		_, _, err := svc.Recommend(context.Background(), RecommendRequest{StudentID: "stu-1"})
		assert.True(t, errors.Is(err, appErrors.ErrStoreUnavailable))
	})

	t.Run("snapshot store down", func(t *testing.T) {
		svc, f := newRecommendationFixture(t)
		f.snapshots.err = errors.New("timeout")
		_, _, err := svc.Recommend(context.Background(), RecommendRequest{StudentID: "stu-1"})
		assert.True(t, errors.Is(err, appErrors.ErrStoreUnavailable))
	})
}

func TestNormalizeExclusions(t *testing.T) {
	assert.Nil(t, normalizeExclusions(nil))
	assert.Equal(t, []int{3, 7, 9}, normalizeExclusions([]int{9, 3, 7, 3}))
}
