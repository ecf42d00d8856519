package main

import (
	"time"

	"github.com/noah-isme/hifz-progress-api/internal/progress"
	"github.com/noah-isme/hifz-progress-api/pkg/config"
)

func levelThresholds(cfg config.LevelConfig) progress.LevelThresholds {
	return progress.LevelThresholds{
		MasterChapters:       cfg.MasterChapters,
		MasterPct:            cfg.MasterPct,
		AdvancedChapters:     cfg.AdvancedChapters,
		AdvancedPct:          cfg.AdvancedPct,
		IntermediateChapters: cfg.IntermediateChapters,
		IntermediatePct:      cfg.IntermediatePct,
	}
}

// scoringWeights overlays configured weights on the defaults. Chapter length
// bands and the late-section boundary are not configurable.
func scoringWeights(cfg config.RecommendationConfig) progress.Weights {
	w := progress.DefaultWeights()
	w.BeginnerFinalSection = cfg.BeginnerSection30
	w.BeginnerShortChapter = cfg.BeginnerShortChapter
	w.IntermediateMedium = cfg.IntermediateMedium
	w.IntermediateLate = cfg.IntermediateLateJuz
	w.AdvancedUntouched = cfg.AdvancedUntouched
	w.AdvancedLongChapter = cfg.AdvancedLongChapter
	w.Continuation = cfg.Continuation
	w.RecentSection = cfg.RecentSection
	w.ReviewDue = cfg.ReviewDue
	w.CompletedPenalty = cfg.CompletedPenalty
	w.OriginPreference = cfg.OriginPreference
	w.TierHighAbove = cfg.TierHighAbove
	w.TierMediumAbove = cfg.TierMediumAbove
	if cfg.ReviewAfterDays > 0 {
		w.ReviewAfter = time.Duration(cfg.ReviewAfterDays) * 24 * time.Hour
	}
	return w
}
