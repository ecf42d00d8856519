package progress

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/hifz-progress-api/internal/models"
)

const (
	// Sections is the number of sections reported in a snapshot.
	Sections = 30
	// FinalSection is the section tracked separately for beginners.
	FinalSection = 30
)

// LevelThresholds are the chapter counts and overall percentages that unlock
// each level. Either condition is enough.
type LevelThresholds struct {
	MasterChapters       int
	MasterPct            float64
	AdvancedChapters     int
	AdvancedPct          float64
	IntermediateChapters int
	IntermediatePct      float64
}

// DefaultLevelThresholds returns the product defaults.
func DefaultLevelThresholds() LevelThresholds {
	return LevelThresholds{
		MasterChapters:       30,
		MasterPct:            80,
		AdvancedChapters:     10,
		AdvancedPct:          40,
		IntermediateChapters: 3,
		IntermediatePct:      15,
	}
}

// Classify returns the strictest level whose thresholds are met.
func Classify(chaptersCompleted int, overallPct float64, th LevelThresholds) models.ProgressLevel {
	switch {
	case chaptersCompleted >= th.MasterChapters || overallPct >= th.MasterPct:
		return models.LevelMaster
	case chaptersCompleted >= th.AdvancedChapters || overallPct >= th.AdvancedPct:
		return models.LevelAdvanced
	case chaptersCompleted >= th.IntermediateChapters || overallPct >= th.IntermediatePct:
		return models.LevelIntermediate
	default:
		return models.LevelBeginner
	}
}

// ChapterState is the derived state of one chapter for one student.
type ChapterState struct {
	Chapter     models.Chapter
	Coverage    CoverageResult
	Mastered    bool
	Completed   bool
	// LastTouched is zero when no record of the chapter carries a timestamp.
	LastTouched time.Time
}

// SkippedRecord describes a record left out of the computation.
type SkippedRecord struct {
	RecordID     string
	ChapterIndex int
	Reason       string
}

// AggregateInput is everything a recompute needs, loaded once.
type AggregateInput struct {
	StudentID string
	Catalog   Catalog
	Records   []models.MemorizationRecord
	Sessions  []models.MemorizationSession
	Today     time.Time
	Levels    LevelThresholds
}

// AggregateResult is the recomputed snapshot plus per-chapter detail.
type AggregateResult struct {
	Snapshot models.ProgressSnapshot
	Chapters map[int]ChapterState
	Skipped  []SkippedRecord
}

// Aggregate rebuilds a student's snapshot from the record and session log.
// It never reads a previous snapshot. LastComputedAt and ID are left for the
// caller to stamp.
func Aggregate(in AggregateInput) AggregateResult {
	qualifying := make(map[models.MemorizationStatus]struct{}, len(QualifyingStatuses))
	for _, s := range QualifyingStatuses {
		qualifying[s] = struct{}{}
	}

	var skipped []SkippedRecord
	ranges := make(map[int][]VerseRange)
	mastered := make(map[int]bool)
	lastTouched := make(map[int]time.Time)
	var gradeSum float64
	var graded int

	for _, rec := range in.Records {
		ch, ok := in.Catalog.Get(rec.ChapterIndex)
		if !ok {
			skipped = append(skipped, SkippedRecord{RecordID: rec.ID, ChapterIndex: rec.ChapterIndex, Reason: "unknown chapter"})
			continue
		}
		r := VerseRange{Start: rec.VerseStart, End: rec.VerseEnd}
		if !r.Valid(ch.VerseCount) {
			skipped = append(skipped, SkippedRecord{
				RecordID:     rec.ID,
				ChapterIndex: rec.ChapterIndex,
				Reason:       fmt.Sprintf("verse range %d-%d outside 1-%d", rec.VerseStart, rec.VerseEnd, ch.VerseCount),
			})
			continue
		}

		if t, seen := lastTouched[ch.Index]; !seen || rec.RecordedAt.After(t) {
			lastTouched[ch.Index] = rec.RecordedAt
		}

		if _, ok := qualifying[rec.Status]; !ok {
			continue
		}
		ranges[ch.Index] = append(ranges[ch.Index], r)
		if rec.Status == models.StatusMastered {
			mastered[ch.Index] = true
		}
		if score := rec.Grade.Score(); score > 0 {
			gradeSum += score
			graded++
		}
	}

	chapters := make(map[int]ChapterState, len(lastTouched))
	covered := make(map[int]int, len(ranges))
	var completed, verses int
	for index, touched := range lastTouched {
		ch, _ := in.Catalog.Get(index)
		cov, err := Coverage(ch.VerseCount, ranges[index])
		if err != nil {
			skipped = append(skipped, SkippedRecord{ChapterIndex: index, Reason: err.Error()})
			continue
		}
		state := ChapterState{
			Chapter:     ch,
			Coverage:    cov,
			Mastered:    mastered[index],
			Completed:   cov.Full() && mastered[index],
			LastTouched: touched,
		}
		chapters[index] = state
		covered[index] = cov.CoveredCount
		verses += cov.CoveredCount
		if state.Completed {
			completed++
		}
	}

	sections := SectionCompletions(in.Catalog, Sections, covered)
	touched := 0
	for _, pct := range sections {
		if pct > 0 {
			touched++
		}
	}

	overall := 0.0
	if total := in.Catalog.TotalVerses(); total > 0 {
		overall = 100 * float64(verses) / float64(total)
		if overall > 100 {
			overall = 100
		}
	}

	avg := 0.0
	if graded > 0 {
		avg = gradeSum / float64(graded)
	}

	dates := make([]time.Time, 0, len(in.Sessions))
	for _, s := range in.Sessions {
		dates = append(dates, s.SessionDate)
	}
	streak := AnalyzeStreak(dates, in.Today)

	sort.Slice(skipped, func(i, j int) bool {
		if skipped[i].ChapterIndex != skipped[j].ChapterIndex {
			return skipped[i].ChapterIndex < skipped[j].ChapterIndex
		}
		return skipped[i].RecordID < skipped[j].RecordID
	})

	return AggregateResult{
		Snapshot: models.ProgressSnapshot{
			StudentID:              in.StudentID,
			ChaptersCompleted:      completed,
			VersesMemorized:        verses,
			SectionsTouched:        touched,
			Section30CompletionPct: sections[FinalSection],
			OverallCompletionPct:   overall,
			Level:                  Classify(completed, overall, in.Levels),
			AverageQualityScore:    avg,
			TotalSessions:          len(in.Sessions),
			CurrentStreakDays:      streak.Current,
			LongestStreakDays:      streak.Longest,
			SectionCompletion:      sections,
			SkippedRecords:         len(skipped),
		},
		Chapters: chapters,
		Skipped:  skipped,
	}
}
