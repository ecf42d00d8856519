package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hifz-progress-api/internal/models"
)

// MemorizationRepository reads the append-only record and session log.
type MemorizationRepository struct {
	db *sqlx.DB
}

// NewMemorizationRepository constructs a MemorizationRepository.
func NewMemorizationRepository(db *sqlx.DB) *MemorizationRepository {
	return &MemorizationRepository{db: db}
}

// ListRecords returns every memorization record of a student, oldest first.
func (r *MemorizationRepository) ListRecords(ctx context.Context, studentID string) ([]models.MemorizationRecord, error) {
	const query = `SELECT id, student_id, chapter_index, verse_start, verse_end, status, quality_grade, recorded_at
        FROM memorization_records WHERE student_id = $1 ORDER BY recorded_at ASC, id ASC`
	var records []models.MemorizationRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list memorization records: %w", err)
	}
	return records, nil
}

// ListRecordsForChapter returns a student's records for one chapter.
func (r *MemorizationRepository) ListRecordsForChapter(ctx context.Context, studentID string, chapterIndex int) ([]models.MemorizationRecord, error) {
	const query = `SELECT id, student_id, chapter_index, verse_start, verse_end, status, quality_grade, recorded_at
        FROM memorization_records WHERE student_id = $1 AND chapter_index = $2 ORDER BY recorded_at ASC, id ASC`
	var records []models.MemorizationRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID, chapterIndex); err != nil {
		return nil, fmt.Errorf("list chapter records: %w", err)
	}
	return records, nil
}

// ListSessions returns every study session of a student, newest first.
func (r *MemorizationRepository) ListSessions(ctx context.Context, studentID string) ([]models.MemorizationSession, error) {
	const query = `SELECT id, student_id, session_date, session_type, verse_count_covered, quality_grade, duration_minutes
        FROM memorization_sessions WHERE student_id = $1 ORDER BY session_date DESC, id ASC`
	var sessions []models.MemorizationSession
	if err := r.db.SelectContext(ctx, &sessions, query, studentID); err != nil {
		return nil, fmt.Errorf("list memorization sessions: %w", err)
	}
	return sessions, nil
}

// ListSessionDates returns the distinct session days of a student, newest first.
func (r *MemorizationRepository) ListSessionDates(ctx context.Context, studentID string) ([]time.Time, error) {
	const query = `SELECT DISTINCT session_date FROM memorization_sessions WHERE student_id = $1 ORDER BY session_date DESC`
	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, studentID); err != nil {
		return nil, fmt.Errorf("list session dates: %w", err)
	}
	return dates, nil
}
