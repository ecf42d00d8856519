package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hifz-progress-api/internal/catalog"
	"github.com/noah-isme/hifz-progress-api/internal/models"
)

var recommendNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func chapter(t *testing.T, index int) models.Chapter {
	t.Helper()
	ch, ok := catalog.MustDefault().Get(index)
	require.True(t, ok)
	return ch
}

func TestScoreLevelContributions(t *testing.T) {
	w := DefaultWeights()

	// 112: section 30, 4 verses. 2: section 1, 286 verses. 67: section 29, 30 verses.
	assert.Equal(t, 80, Score(ChapterFeatures{Chapter: chapter(t, 112)}, models.LevelBeginner, w, recommendNow))
	assert.Equal(t, 0, Score(ChapterFeatures{Chapter: chapter(t, 2)}, models.LevelBeginner, w, recommendNow))
	assert.Equal(t, 60, Score(ChapterFeatures{Chapter: chapter(t, 67)}, models.LevelIntermediate, w, recommendNow))
	assert.Equal(t, 55, Score(ChapterFeatures{Chapter: chapter(t, 2)}, models.LevelAdvanced, w, recommendNow))
	assert.Equal(t, 0, Score(ChapterFeatures{Chapter: chapter(t, 112)}, models.LevelMaster, w, recommendNow))
}

func TestScoreContinuationRecencyAndOrigin(t *testing.T) {
	w := DefaultWeights()
	f := ChapterFeatures{
		Chapter:         chapter(t, 2),
		CompletionPct:   42,
		RecentSection:   true,
		PreferredOrigin: true,
	}

	assert.Equal(t, 40+15+10, Score(f, models.LevelBeginner, w, recommendNow))
	assert.Equal(t, 40+15+10+25, Score(f, models.LevelAdvanced, w, recommendNow))
}

func TestScoreReviewBeatsRecentlyTouched(t *testing.T) {
	w := DefaultWeights()
	base := ChapterFeatures{Chapter: chapter(t, 112), CompletionPct: 100}

	stale := base
	stale.LastTouched = recommendNow.AddDate(0, 0, -45)
	fresh := base
	fresh.LastTouched = recommendNow.AddDate(0, 0, -1)

	staleScore := Score(stale, models.LevelBeginner, w, recommendNow)
	freshScore := Score(fresh, models.LevelBeginner, w, recommendNow)
	assert.Equal(t, 100, staleScore)
	assert.Equal(t, 50, freshScore)
	assert.Greater(t, staleScore, freshScore)
}

func TestScoreIsFlooredAtZero(t *testing.T) {
	f := ChapterFeatures{Chapter: chapter(t, 2), CompletionPct: 100, LastTouched: recommendNow}
	assert.Equal(t, 0, Score(f, models.LevelMaster, DefaultWeights(), recommendNow))
}

func TestTierFor(t *testing.T) {
	w := DefaultWeights()
	assert.Equal(t, models.TierHigh, TierFor(61, w))
	assert.Equal(t, models.TierMedium, TierFor(60, w))
	assert.Equal(t, models.TierMedium, TierFor(31, w))
	assert.Equal(t, models.TierLow, TierFor(30, w))
	assert.Equal(t, models.TierLow, TierFor(0, w))
}

func TestProfileStrictMajority(t *testing.T) {
	cat := catalog.MustDefault()
	at := func(n int) time.Time { return recommendNow.Add(-time.Duration(n) * time.Hour) }

	// 2 and 3 are Medinan, 112 and 114 are Meccan.
	even := []models.MemorizationRecord{
		{ID: "1", ChapterIndex: 2, RecordedAt: at(1)},
		{ID: "2", ChapterIndex: 112, RecordedAt: at(2)},
		{ID: "3", ChapterIndex: 3, RecordedAt: at(3)},
		{ID: "4", ChapterIndex: 114, RecordedAt: at(4)},
	}
	p := Profile(even, cat, 10)
	assert.Equal(t, models.OriginClass(""), p.Origin)
	assert.Contains(t, p.RecentSections, 1)
	assert.Contains(t, p.RecentSections, 3)
	assert.Contains(t, p.RecentSections, 30)

	skewed := append(even, models.MemorizationRecord{ID: "5", ChapterIndex: 113, RecordedAt: at(5)})
	assert.Equal(t, models.OriginMeccan, Profile(skewed, cat, 10).Origin)
}

func TestProfileUsesMostRecentWindow(t *testing.T) {
	cat := catalog.MustDefault()
	var records []models.MemorizationRecord
	for i := 0; i < 3; i++ {
		records = append(records, models.MemorizationRecord{ID: "old", ChapterIndex: 114, RecordedAt: recommendNow.AddDate(0, -1, -i)})
	}
	records = append(records,
		models.MemorizationRecord{ID: "new-a", ChapterIndex: 2, RecordedAt: recommendNow.Add(-time.Hour)},
		models.MemorizationRecord{ID: "new-b", ChapterIndex: 999, RecordedAt: recommendNow},
	)

	p := Profile(records, cat, 1)
	assert.Equal(t, map[int]struct{}{1: {}}, p.RecentSections)
	assert.Equal(t, models.OriginMedinan, p.Origin)
}

func TestRankBeginnerDefaults(t *testing.T) {
	cat := catalog.MustDefault()
	features := Features(cat, nil, ActivityProfile{})

	recs := Rank(features, models.LevelBeginner, DefaultWeights(), recommendNow, 5, nil)
	require.Len(t, recs, 5)
	assert.Equal(t, []int{94, 95, 97, 98, 99}, indices(recs))
	for _, r := range recs {
		assert.Equal(t, 80, r.Score)
		assert.Equal(t, models.TierHigh, r.Tier)
	}

	excluded := Rank(features, models.LevelBeginner, DefaultWeights(), recommendNow, 2, map[int]struct{}{94: {}, 97: {}})
	assert.Equal(t, []int{95, 98}, indices(excluded))
}

func TestRankIsDeterministic(t *testing.T) {
	cat := catalog.MustDefault()
	states := map[int]ChapterState{
		18: {Coverage: CoverageResult{VerseCount: 110, CoveredCount: 55, CompletionRatio: 0.5}, LastTouched: recommendNow},
		67: {Coverage: CoverageResult{VerseCount: 30, CoveredCount: 30, CompletionRatio: 1}, LastTouched: recommendNow.AddDate(0, -3, 0)},
	}
	profile := ActivityProfile{RecentSections: map[int]struct{}{15: {}}, Origin: models.OriginMeccan}
	features := Features(cat, states, profile)

	first := Rank(features, models.LevelIntermediate, DefaultWeights(), recommendNow, 114, nil)
	second := Rank(features, models.LevelIntermediate, DefaultWeights(), recommendNow, 114, nil)
	require.Len(t, first, 114)
	assert.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		if prev.Score == cur.Score {
			assert.Less(t, prev.ChapterIndex, cur.ChapterIndex)
		} else {
			assert.Greater(t, prev.Score, cur.Score)
		}
	}

	var cave models.Recommendation
	for _, r := range first {
		if r.ChapterIndex == 18 {
			cave = r
		}
	}
	assert.InDelta(t, 50, cave.CompletionPct, 1e-9)
	assert.Equal(t, 40+15+10, cave.Score)
}

func indices(recs []models.Recommendation) []int {
	out := make([]int, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ChapterIndex)
	}
	return out
}
