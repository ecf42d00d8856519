package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hifz-progress-api/internal/models"
)

// ProgressRepository persists derived progress snapshots.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs a ProgressRepository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Upsert replaces the student's snapshot in a single statement. Concurrent
// writers for the same student resolve last-writer-wins. The stored row ID is
// written back to snapshot.ID.
func (r *ProgressRepository) Upsert(ctx context.Context, snapshot *models.ProgressSnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	const query = `INSERT INTO progress_snapshots (id, student_id, chapters_completed, verses_memorized, sections_touched,
        section30_completion_pct, overall_completion_pct, level, average_quality_score, total_sessions,
        current_streak_days, longest_streak_days, section_completion, skipped_records, last_computed_at)
        VALUES (:id, :student_id, :chapters_completed, :verses_memorized, :sections_touched,
        :section30_completion_pct, :overall_completion_pct, :level, :average_quality_score, :total_sessions,
        :current_streak_days, :longest_streak_days, :section_completion, :skipped_records, :last_computed_at)
        ON CONFLICT (student_id)
        DO UPDATE SET chapters_completed = EXCLUDED.chapters_completed, verses_memorized = EXCLUDED.verses_memorized,
            sections_touched = EXCLUDED.sections_touched, section30_completion_pct = EXCLUDED.section30_completion_pct,
            overall_completion_pct = EXCLUDED.overall_completion_pct, level = EXCLUDED.level,
            average_quality_score = EXCLUDED.average_quality_score, total_sessions = EXCLUDED.total_sessions,
            current_streak_days = EXCLUDED.current_streak_days, longest_streak_days = EXCLUDED.longest_streak_days,
            section_completion = EXCLUDED.section_completion, skipped_records = EXCLUDED.skipped_records,
            last_computed_at = EXCLUDED.last_computed_at
        RETURNING id`

	rows, err := r.db.NamedQueryContext(ctx, query, snapshot)
	if err != nil {
		return fmt.Errorf("upsert progress snapshot: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&snapshot.ID); err != nil {
			return fmt.Errorf("scan progress snapshot id: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("upsert progress snapshot: %w", err)
	}
	return nil
}

// FindByStudent returns the persisted snapshot or sql.ErrNoRows.
func (r *ProgressRepository) FindByStudent(ctx context.Context, studentID string) (*models.ProgressSnapshot, error) {
	const query = `SELECT id, student_id, chapters_completed, verses_memorized, sections_touched, section30_completion_pct,
        overall_completion_pct, level, average_quality_score, total_sessions, current_streak_days, longest_streak_days,
        section_completion, skipped_records, last_computed_at
        FROM progress_snapshots WHERE student_id = $1`
	var snapshot models.ProgressSnapshot
	if err := r.db.GetContext(ctx, &snapshot, query, studentID); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
