package models

import "time"

// OriginClass is the revelation period of a chapter.
type OriginClass string

const (
	OriginMeccan  OriginClass = "MECCAN"
	OriginMedinan OriginClass = "MEDINAN"
)

// Valid reports whether the origin is one of the known classes.
func (o OriginClass) Valid() bool {
	return o == OriginMeccan || o == OriginMedinan
}

// Chapter is an immutable catalog entry (surah).
type Chapter struct {
	Index      int         `yaml:"index" json:"index"`
	Name       string      `yaml:"name" json:"name"`
	Section    int         `yaml:"section" json:"section"`
	VerseCount int         `yaml:"verses" json:"verse_count"`
	Origin     OriginClass `yaml:"origin" json:"origin"`
}

// MemorizationStatus tracks how well a verse range is held.
type MemorizationStatus string

const (
	StatusNew      MemorizationStatus = "NEW"
	StatusReview   MemorizationStatus = "REVIEW"
	StatusFluent   MemorizationStatus = "FLUENT"
	StatusMastered MemorizationStatus = "MASTERED"
)

// Qualifying reports whether the status counts toward completion math.
func (s MemorizationStatus) Qualifying() bool {
	return s == StatusFluent || s == StatusMastered
}

// QualityGrade is the teacher's assessment of a recitation.
type QualityGrade string

const (
	GradeA QualityGrade = "A"
	GradeB QualityGrade = "B"
	GradeC QualityGrade = "C"
)

// Score maps the grade onto the numeric scale used for averages.
func (g QualityGrade) Score() float64 {
	switch g {
	case GradeA:
		return 4
	case GradeB:
		return 3
	case GradeC:
		return 2
	default:
		return 0
	}
}

// MemorizationRecord is an append-only entry describing a recited verse range.
type MemorizationRecord struct {
	ID           string             `db:"id" json:"id"`
	StudentID    string             `db:"student_id" json:"student_id"`
	ChapterIndex int                `db:"chapter_index" json:"chapter_index"`
	VerseStart   int                `db:"verse_start" json:"verse_start"`
	VerseEnd     int                `db:"verse_end" json:"verse_end"`
	Status       MemorizationStatus `db:"status" json:"status"`
	Grade        QualityGrade       `db:"quality_grade" json:"quality_grade"`
	RecordedAt   time.Time          `db:"recorded_at" json:"recorded_at"`
}

// MemorizationSession is one study encounter.
type MemorizationSession struct {
	ID                string       `db:"id" json:"id"`
	StudentID         string       `db:"student_id" json:"student_id"`
	SessionDate       time.Time    `db:"session_date" json:"session_date"`
	SessionType       string       `db:"session_type" json:"session_type"`
	VerseCountCovered int          `db:"verse_count_covered" json:"verse_count_covered"`
	Grade             QualityGrade `db:"quality_grade" json:"quality_grade"`
	DurationMinutes   int          `db:"duration_minutes" json:"duration_minutes"`
}
