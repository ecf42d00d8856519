package progress

import (
	"sort"
	"time"

	"github.com/noah-isme/hifz-progress-api/internal/models"
)

// Weights are the additive scoring constants and tier cut-offs.
type Weights struct {
	BeginnerFinalSection int
	BeginnerShortChapter int
	IntermediateMedium   int
	IntermediateLate     int
	AdvancedUntouched    int
	AdvancedLongChapter  int
	Continuation         int
	RecentSection        int
	ReviewDue            int
	CompletedPenalty     int
	OriginPreference     int

	ShortChapterMaxVerses  int
	MediumChapterMaxVerses int
	LateSectionFrom        int
	ReviewAfter            time.Duration

	TierHighAbove   int
	TierMediumAbove int
}

// DefaultWeights returns the product defaults.
func DefaultWeights() Weights {
	return Weights{
		BeginnerFinalSection:   50,
		BeginnerShortChapter:   30,
		IntermediateMedium:     40,
		IntermediateLate:       20,
		AdvancedUntouched:      30,
		AdvancedLongChapter:    25,
		Continuation:           40,
		RecentSection:          15,
		ReviewDue:              20,
		CompletedPenalty:       30,
		OriginPreference:       10,
		ShortChapterMaxVerses:  10,
		MediumChapterMaxVerses: 50,
		LateSectionFrom:        25,
		ReviewAfter:            30 * 24 * time.Hour,
		TierHighAbove:          60,
		TierMediumAbove:        30,
	}
}

// ChapterFeatures is the precomputed input to Score for one chapter.
type ChapterFeatures struct {
	Chapter         models.Chapter
	CompletionPct   float64
	LastTouched     time.Time
	RecentSection   bool
	PreferredOrigin bool
}

// ActivityProfile summarises a student's most recent records.
type ActivityProfile struct {
	RecentSections map[int]struct{}
	Origin         models.OriginClass
}

// Profile inspects the window most recent records of any status. Origin is
// set only when one origin class holds a strict majority of them.
func Profile(records []models.MemorizationRecord, cat Catalog, window int) ActivityProfile {
	recent := make([]models.MemorizationRecord, 0, len(records))
	for _, rec := range records {
		if _, ok := cat.Get(rec.ChapterIndex); ok {
			recent = append(recent, rec)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		if !recent[i].RecordedAt.Equal(recent[j].RecordedAt) {
			return recent[i].RecordedAt.After(recent[j].RecordedAt)
		}
		return recent[i].ID > recent[j].ID
	})
	if window >= 0 && len(recent) > window {
		recent = recent[:window]
	}

	profile := ActivityProfile{RecentSections: make(map[int]struct{}, len(recent))}
	origins := make(map[models.OriginClass]int, 2)
	for _, rec := range recent {
		ch, _ := cat.Get(rec.ChapterIndex)
		profile.RecentSections[ch.Section] = struct{}{}
		origins[ch.Origin]++
	}
	for origin, n := range origins {
		if 2*n > len(recent) {
			profile.Origin = origin
		}
	}
	return profile
}

// Features builds the per-chapter bundle for every catalog chapter.
func Features(cat Catalog, states map[int]ChapterState, profile ActivityProfile) []ChapterFeatures {
	chapters := cat.All()
	out := make([]ChapterFeatures, 0, len(chapters))
	for _, ch := range chapters {
		f := ChapterFeatures{Chapter: ch}
		if st, ok := states[ch.Index]; ok {
			f.CompletionPct = st.Coverage.Percent()
			f.LastTouched = st.LastTouched
		}
		_, f.RecentSection = profile.RecentSections[ch.Section]
		f.PreferredOrigin = profile.Origin != "" && profile.Origin == ch.Origin
		out = append(out, f)
	}
	return out
}

// Score returns the additive suitability score of a chapter, floored at 0.
func Score(f ChapterFeatures, level models.ProgressLevel, w Weights, now time.Time) int {
	score := 0
	verses := f.Chapter.VerseCount

	switch level {
	case models.LevelBeginner:
		if f.Chapter.Section == FinalSection {
			score += w.BeginnerFinalSection
		}
		if verses <= w.ShortChapterMaxVerses {
			score += w.BeginnerShortChapter
		}
	case models.LevelIntermediate:
		if verses > w.ShortChapterMaxVerses && verses <= w.MediumChapterMaxVerses {
			score += w.IntermediateMedium
		}
		if f.Chapter.Section >= w.LateSectionFrom {
			score += w.IntermediateLate
		}
	case models.LevelAdvanced:
		if f.CompletionPct == 0 {
			score += w.AdvancedUntouched
		}
		if verses > w.MediumChapterMaxVerses {
			score += w.AdvancedLongChapter
		}
	}

	if f.CompletionPct > 0 && f.CompletionPct < 100 {
		score += w.Continuation
	}
	if f.RecentSection {
		score += w.RecentSection
	}
	if f.CompletionPct >= 100 {
		if !f.LastTouched.IsZero() && now.Sub(f.LastTouched) > w.ReviewAfter {
			score += w.ReviewDue
		} else {
			score -= w.CompletedPenalty
		}
	}
	if f.PreferredOrigin {
		score += w.OriginPreference
	}

	if score < 0 {
		return 0
	}
	return score
}

// TierFor labels a score.
func TierFor(score int, w Weights) models.RecommendationTier {
	switch {
	case score > w.TierHighAbove:
		return models.TierHigh
	case score > w.TierMediumAbove:
		return models.TierMedium
	default:
		return models.TierLow
	}
}

// Rank scores every non-excluded chapter and returns the top n, ordered by
// score descending then chapter index ascending.
func Rank(features []ChapterFeatures, level models.ProgressLevel, w Weights, now time.Time, n int, exclude map[int]struct{}) []models.Recommendation {
	recs := make([]models.Recommendation, 0, len(features))
	for _, f := range features {
		if _, skip := exclude[f.Chapter.Index]; skip {
			continue
		}
		score := Score(f, level, w, now)
		recs = append(recs, models.Recommendation{
			ChapterIndex:  f.Chapter.Index,
			ChapterName:   f.Chapter.Name,
			Section:       f.Chapter.Section,
			Score:         score,
			CompletionPct: f.CompletionPct,
			Tier:          TierFor(score, w),
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].ChapterIndex < recs[j].ChapterIndex
	})

	if n >= 0 && len(recs) > n {
		recs = recs[:n]
	}
	return recs
}
