package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hifz-progress-api/internal/models"
)

func TestMemorizationRepositoryListRecords(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewMemorizationRepository(db)

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "student_id", "chapter_index", "verse_start", "verse_end", "status", "quality_grade", "recorded_at"}).
		AddRow("r1", "stu-1", 1, 1, 7, "MASTERED", "A", at).
		AddRow("r2", "stu-1", 2, 1, 5, "NEW", "C", at.Add(time.Hour))
	mock.ExpectQuery("FROM memorization_records WHERE student_id = \\$1 ORDER BY recorded_at ASC, id ASC").
		WithArgs("stu-1").
		WillReturnRows(rows)

	records, err := repo.ListRecords(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.StatusMastered, records[0].Status)
	assert.Equal(t, models.GradeA, records[0].Grade)
	assert.Equal(t, 7, records[0].VerseEnd)
	assert.Equal(t, at, records[0].RecordedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemorizationRepositoryListRecordsForChapter(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewMemorizationRepository(db)

	mock.ExpectQuery("WHERE student_id = \\$1 AND chapter_index = \\$2").
		WithArgs("stu-1", 36).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "chapter_index", "verse_start", "verse_end", "status", "quality_grade", "recorded_at"}))

	records, err := repo.ListRecordsForChapter(context.Background(), "stu-1", 36)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemorizationRepositoryListSessions(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewMemorizationRepository(db)

	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "student_id", "session_date", "session_type", "verse_count_covered", "quality_grade", "duration_minutes"}).
		AddRow("s1", "stu-1", day, "MEMORIZATION", 12, "B", 45)
	mock.ExpectQuery("FROM memorization_sessions WHERE student_id = \\$1").
		WithArgs("stu-1").
		WillReturnRows(rows)

	sessions, err := repo.ListSessions(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, day, sessions[0].SessionDate)
	assert.Equal(t, 45, sessions[0].DurationMinutes)
	assert.Equal(t, models.GradeB, sessions[0].Grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemorizationRepositoryListSessionDates(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewMemorizationRepository(db)

	d1 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT DISTINCT session_date FROM memorization_sessions").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"session_date"}).AddRow(d1).AddRow(d2))

	dates, err := repo.ListSessionDates(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{d1, d2}, dates)
}

func TestMemorizationRepositoryWrapsErrors(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewMemorizationRepository(db)

	driverErr := errors.New("timeout")
	mock.ExpectQuery("FROM memorization_records").WillReturnError(driverErr)

	_, err := repo.ListRecords(context.Background(), "stu-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, driverErr)
	assert.Contains(t, err.Error(), "list memorization records")
}
