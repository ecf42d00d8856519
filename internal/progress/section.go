package progress

import (
	"sync"

	"github.com/noah-isme/hifz-progress-api/internal/models"
)

const sectionWorkers = 8

// Catalog is the chapter lookup the calculators read from.
type Catalog interface {
	All() []models.Chapter
	Get(index int) (models.Chapter, bool)
	BySection(section int) []models.Chapter
	TotalVerses() int
}

// SectionCompletion returns 100 * covered / total verses over the chapters of
// one section. covered maps chapter index to covered verse count. Sections
// without chapters report 0.
func SectionCompletion(section int, chapters []models.Chapter, covered map[int]int) float64 {
	var coveredSum, totalSum int
	for _, ch := range chapters {
		if ch.Section != section {
			continue
		}
		coveredSum += covered[ch.Index]
		totalSum += ch.VerseCount
	}
	if totalSum == 0 {
		return 0
	}
	pct := 100 * float64(coveredSum) / float64(totalSum)
	if pct > 100 {
		return 100
	}
	return pct
}

// SectionCompletions evaluates sections 1..sections concurrently, at most
// sectionWorkers at a time.
func SectionCompletions(cat Catalog, sections int, covered map[int]int) models.SectionCompletion {
	result := make(models.SectionCompletion, sections)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, sectionWorkers)

	for s := 1; s <= sections; s++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(section int) {
			defer wg.Done()
			defer func() { <-sem }()
			pct := SectionCompletion(section, cat.BySection(section), covered)
			mu.Lock()
			result[section] = pct
			mu.Unlock()
		}(s)
	}
	wg.Wait()

	return result
}
