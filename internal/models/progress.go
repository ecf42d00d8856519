package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ProgressLevel classifies a student's overall memorization progress.
type ProgressLevel string

const (
	LevelBeginner     ProgressLevel = "BEGINNER"
	LevelIntermediate ProgressLevel = "INTERMEDIATE"
	LevelAdvanced     ProgressLevel = "ADVANCED"
	LevelMaster       ProgressLevel = "MASTER"
)

// SectionCompletion maps section number (1..30) to completion percentage.
type SectionCompletion map[int]float64

// Value encodes the map for a JSONB column.
func (s SectionCompletion) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

// Scan decodes a JSONB column.
func (s *SectionCompletion) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = SectionCompletion{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("section completion: unsupported type %T", src)
	}
	decoded := SectionCompletion{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("section completion: %w", err)
	}
	*s = decoded
	return nil
}

// ProgressSnapshot is the fully recomputed aggregate for one student. It is
// replaced wholesale on every recompute.
type ProgressSnapshot struct {
	ID                     string            `db:"id" json:"id"`
	StudentID              string            `db:"student_id" json:"student_id"`
	ChaptersCompleted      int               `db:"chapters_completed" json:"chapters_completed"`
	VersesMemorized        int               `db:"verses_memorized" json:"verses_memorized"`
	SectionsTouched        int               `db:"sections_touched" json:"sections_touched"`
	Section30CompletionPct float64           `db:"section30_completion_pct" json:"section30_completion_pct"`
	OverallCompletionPct   float64           `db:"overall_completion_pct" json:"overall_completion_pct"`
	Level                  ProgressLevel     `db:"level" json:"level"`
	AverageQualityScore    float64           `db:"average_quality_score" json:"average_quality_score"`
	TotalSessions          int               `db:"total_sessions" json:"total_sessions"`
	CurrentStreakDays      int               `db:"current_streak_days" json:"current_streak_days"`
	LongestStreakDays      int               `db:"longest_streak_days" json:"longest_streak_days"`
	SectionCompletion      SectionCompletion `db:"section_completion" json:"section_completion"`
	SkippedRecords         int               `db:"skipped_records" json:"skipped_records"`
	LastComputedAt         time.Time         `db:"last_computed_at" json:"last_computed_at"`
}

// ChapterCoverage is the de-duplicated coverage of one chapter for one student.
type ChapterCoverage struct {
	StudentID       string  `json:"student_id"`
	ChapterIndex    int     `json:"chapter_index"`
	VerseCount      int     `json:"verse_count"`
	CoveredCount    int     `json:"covered_count"`
	CompletionRatio float64 `json:"completion_ratio"`
}

// ChapterProgress is one row of a student's per-chapter breakdown.
type ChapterProgress struct {
	ChapterIndex  int        `json:"chapter_index"`
	ChapterName   string     `json:"chapter_name"`
	Section       int        `json:"section"`
	VerseCount    int        `json:"verse_count"`
	CoveredCount  int        `json:"covered_count"`
	CompletionPct float64    `json:"completion_pct"`
	Completed     bool       `json:"completed"`
	LastTouchedAt *time.Time `json:"last_touched_at,omitempty"`
}

// StreakSummary holds consecutive-day study streaks.
type StreakSummary struct {
	StudentID         string `json:"student_id"`
	CurrentStreakDays int    `json:"current_streak_days"`
	LongestStreakDays int    `json:"longest_streak_days"`
}

// RecommendationTier buckets recommendation scores.
type RecommendationTier string

const (
	TierHigh   RecommendationTier = "HIGH"
	TierMedium RecommendationTier = "MEDIUM"
	TierLow    RecommendationTier = "LOW"
)

// Recommendation is one ranked chapter suggestion.
type Recommendation struct {
	ChapterIndex  int                `json:"chapter_index"`
	ChapterName   string             `json:"chapter_name"`
	Section       int                `json:"section"`
	Score         int                `json:"score"`
	CompletionPct float64            `json:"completion_pct"`
	Tier          RecommendationTier `json:"tier"`
}

// BatchRecomputeStatus is the per-student outcome of a bulk recompute.
type BatchRecomputeStatus string

const (
	BatchStatusOK     BatchRecomputeStatus = "OK"
	BatchStatusFailed BatchRecomputeStatus = "FAILED"
)

// BatchRecomputeResult reports one student's bulk recompute outcome.
type BatchRecomputeResult struct {
	StudentID string               `json:"student_id"`
	Status    BatchRecomputeStatus `json:"status"`
	Attempts  int                  `json:"attempts"`
	Level     ProgressLevel        `json:"level,omitempty"`
	ErrorCode string               `json:"error_code,omitempty"`
	Error     string               `json:"error,omitempty"`
}
