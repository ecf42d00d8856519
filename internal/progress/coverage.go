package progress

import (
	"fmt"

	"github.com/noah-isme/hifz-progress-api/internal/models"
	appErrors "github.com/noah-isme/hifz-progress-api/pkg/errors"
)

// QualifyingStatuses are the record statuses counted toward completion.
var QualifyingStatuses = []models.MemorizationStatus{models.StatusFluent, models.StatusMastered}

// VerseRange is an inclusive, 1-indexed span of verses.
type VerseRange struct {
	Start int
	End   int
}

// Valid reports whether the range fits inside a chapter of verseCount verses.
func (r VerseRange) Valid(verseCount int) bool {
	return r.Start >= 1 && r.Start <= r.End && r.End <= verseCount
}

// CoverageResult is the de-duplicated coverage of one chapter.
type CoverageResult struct {
	VerseCount      int
	CoveredCount    int
	CompletionRatio float64
}

// Percent returns the completion ratio scaled to 0..100.
func (c CoverageResult) Percent() float64 {
	return c.CompletionRatio * 100
}

// Full reports whether every verse is covered.
func (c CoverageResult) Full() bool {
	return c.VerseCount > 0 && c.CoveredCount == c.VerseCount
}

// Coverage unions the ranges into a set of covered verses. Ranges may overlap
// or arrive in any order; parts outside 1..verseCount are ignored.
func Coverage(verseCount int, ranges []VerseRange) (CoverageResult, error) {
	if verseCount <= 0 {
		return CoverageResult{}, appErrors.Clone(appErrors.ErrDataIntegrity, fmt.Sprintf("verse count %d is not positive", verseCount))
	}

	covered := make([]bool, verseCount+1)
	count := 0
	for _, r := range ranges {
		start, end := r.Start, r.End
		if start < 1 {
			start = 1
		}
		if end > verseCount {
			end = verseCount
		}
		for v := start; v <= end; v++ {
			if !covered[v] {
				covered[v] = true
				count++
			}
		}
	}

	return CoverageResult{
		VerseCount:      verseCount,
		CoveredCount:    count,
		CompletionRatio: float64(count) / float64(verseCount),
	}, nil
}

// RangesFor extracts the verse ranges of the records for one chapter whose
// status is in statuses.
func RangesFor(records []models.MemorizationRecord, chapterIndex int, statuses ...models.MemorizationStatus) []VerseRange {
	allowed := make(map[models.MemorizationStatus]struct{}, len(statuses))
	for _, s := range statuses {
		allowed[s] = struct{}{}
	}

	ranges := make([]VerseRange, 0)
	for _, rec := range records {
		if rec.ChapterIndex != chapterIndex {
			continue
		}
		if _, ok := allowed[rec.Status]; !ok {
			continue
		}
		ranges = append(ranges, VerseRange{Start: rec.VerseStart, End: rec.VerseEnd})
	}
	return ranges
}
