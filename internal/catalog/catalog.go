package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/hifz-progress-api/internal/models"
	appErrors "github.com/noah-isme/hifz-progress-api/pkg/errors"
)

const (
	// ChapterCount is the fixed number of chapters.
	ChapterCount = 114
	// SectionCount is the fixed number of sections (juz).
	SectionCount = 30
	// TotalVerseCount is the verse total across all chapters.
	TotalVerseCount = 6236
)

//go:embed chapters.yaml
var chaptersYAML []byte

// Catalog is the immutable chapter reference table.
type Catalog struct {
	chapters  []models.Chapter
	byIndex   map[int]models.Chapter
	bySection map[int][]models.Chapter
	total     int
}

type document struct {
	Chapters []models.Chapter `yaml:"chapters"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the shared catalog decoded from the embedded table. The
// embedded data is validated on first use; a failure is fatal to callers.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(chaptersYAML)
	})
	return defaultCatalog, defaultErr
}

// MustDefault is Default for process wiring where a broken embedded table cannot be recovered.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes and validates a YAML chapter table.
func Parse(raw []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status, "decode chapter catalog")
	}
	return New(doc.Chapters)
}

// New validates the chapters and builds the lookup tables.
func New(chapters []models.Chapter) (*Catalog, error) {
	if len(chapters) != ChapterCount {
		return nil, integrityErr("catalog has %d chapters, want %d", len(chapters), ChapterCount)
	}

	c := &Catalog{
		chapters:  make([]models.Chapter, 0, len(chapters)),
		byIndex:   make(map[int]models.Chapter, len(chapters)),
		bySection: make(map[int][]models.Chapter, SectionCount),
	}
	for _, ch := range chapters {
		switch {
		case ch.Index < 1 || ch.Index > ChapterCount:
			return nil, integrityErr("chapter index %d out of range", ch.Index)
		case ch.VerseCount <= 0:
			return nil, integrityErr("chapter %d has verse count %d", ch.Index, ch.VerseCount)
		case ch.Section < 1 || ch.Section > SectionCount:
			return nil, integrityErr("chapter %d has section %d", ch.Index, ch.Section)
		case !ch.Origin.Valid():
			return nil, integrityErr("chapter %d has origin %q", ch.Index, ch.Origin)
		}
		if _, dup := c.byIndex[ch.Index]; dup {
			return nil, integrityErr("duplicate chapter index %d", ch.Index)
		}
		c.byIndex[ch.Index] = ch
		c.chapters = append(c.chapters, ch)
		c.total += ch.VerseCount
	}
	if c.total != TotalVerseCount {
		return nil, integrityErr("catalog verse total %d, want %d", c.total, TotalVerseCount)
	}

	sort.Slice(c.chapters, func(i, j int) bool { return c.chapters[i].Index < c.chapters[j].Index })
	for _, ch := range c.chapters {
		c.bySection[ch.Section] = append(c.bySection[ch.Section], ch)
	}
	return c, nil
}

// Get returns the chapter with the given index.
func (c *Catalog) Get(index int) (models.Chapter, bool) {
	ch, ok := c.byIndex[index]
	return ch, ok
}

// All returns every chapter in index order. The slice is a copy.
func (c *Catalog) All() []models.Chapter {
	out := make([]models.Chapter, len(c.chapters))
	copy(out, c.chapters)
	return out
}

// BySection returns the chapters that start in the given section.
func (c *Catalog) BySection(section int) []models.Chapter {
	src := c.bySection[section]
	out := make([]models.Chapter, len(src))
	copy(out, src)
	return out
}

// TotalVerses returns the verse total across the catalog.
func (c *Catalog) TotalVerses() int {
	return c.total
}

func integrityErr(format string, args ...interface{}) error {
	return appErrors.Clone(appErrors.ErrDataIntegrity, fmt.Sprintf(format, args...))
}
