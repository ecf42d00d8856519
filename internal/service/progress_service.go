package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/hifz-progress-api/internal/models"
	"github.com/noah-isme/hifz-progress-api/internal/progress"
	appErrors "github.com/noah-isme/hifz-progress-api/pkg/errors"
	"github.com/noah-isme/hifz-progress-api/pkg/jobs"
)

// JobTypeRecompute identifies queued progress recomputes.
const JobTypeRecompute = "recompute_progress"

type memorizationReader interface {
	ListRecords(ctx context.Context, studentID string) ([]models.MemorizationRecord, error)
	ListRecordsForChapter(ctx context.Context, studentID string, chapterIndex int) ([]models.MemorizationRecord, error)
	ListSessions(ctx context.Context, studentID string) ([]models.MemorizationSession, error)
	ListSessionDates(ctx context.Context, studentID string) ([]time.Time, error)
}

type studentLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
}

type snapshotStore interface {
	Upsert(ctx context.Context, snapshot *models.ProgressSnapshot) error
	FindByStudent(ctx context.Context, studentID string) (*models.ProgressSnapshot, error)
}

type recomputeQueue interface {
	Enqueue(job jobs.Job) (bool, error)
}

// ProgressServiceConfig tunes recompute behaviour.
type ProgressServiceConfig struct {
	Levels           progress.LevelThresholds
	Location         *time.Location
	CacheTTL         time.Duration
	BatchConcurrency int
	BatchMaxRetries  int
	BatchRetryDelay  time.Duration
}

// ProgressServiceParams groups constructor dependencies.
type ProgressServiceParams struct {
	Catalog      progress.Catalog
	Memorization memorizationReader
	Students     studentLookup
	Snapshots    snapshotStore
	Cache        *CacheService
	Metrics      *MetricsService
	Logger       *zap.Logger
	Now          func() time.Time
	Config       ProgressServiceConfig
}

// ProgressService is the single entry point for rebuilding and reading
// student progress. Snapshots are always rebuilt from the record log.
type ProgressService struct {
	catalog      progress.Catalog
	memorization memorizationReader
	students     studentLookup
	snapshots    snapshotStore
	cache        *CacheService
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time
	cfg          ProgressServiceConfig
	queue        recomputeQueue
}

// NewProgressService constructs a ProgressService.
func NewProgressService(params ProgressServiceParams) *ProgressService {
	cfg := params.Config
	if cfg.Levels == (progress.LevelThresholds{}) {
		cfg.Levels = progress.DefaultLevelThresholds()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
	}
	if cfg.BatchMaxRetries < 0 {
		cfg.BatchMaxRetries = 0
	}
	if cfg.BatchRetryDelay <= 0 {
		cfg.BatchRetryDelay = 200 * time.Millisecond
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &ProgressService{
		catalog:      params.Catalog,
		memorization: params.Memorization,
		students:     params.Students,
		snapshots:    params.Snapshots,
		cache:        params.Cache,
		metrics:      params.Metrics,
		logger:       logger,
		now:          now,
		cfg:          cfg,
	}
}

// AttachQueue wires the background queue used by EnqueueRefresh.
func (s *ProgressService) AttachQueue(queue recomputeQueue) {
	s.queue = queue
}

// Recompute rebuilds and persists the student's snapshot from scratch.
func (s *ProgressService) Recompute(ctx context.Context, studentID string) (*models.ProgressSnapshot, error) {
	start := time.Now()
	snapshot, skipped, err := s.recompute(ctx, studentID)
	s.metrics.ObserveRecompute(err == nil, skipped, time.Since(start))
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *ProgressService) recompute(ctx context.Context, studentID string) (*models.ProgressSnapshot, int, error) {
	if err := ensureStudent(ctx, s.students, studentID); err != nil {
		return nil, 0, err
	}

	records, err := s.listRecords(ctx, studentID)
	if err != nil {
		return nil, 0, err
	}
	sessions, err := s.listSessions(ctx, studentID)
	if err != nil {
		return nil, 0, err
	}

	result := s.aggregate(studentID, records, sessions)
	snapshot := result.Snapshot
	snapshot.LastComputedAt = s.now().UTC()

	start := time.Now()
	err = s.snapshots.Upsert(ctx, &snapshot)
	s.metrics.ObserveDBQuery("upsert_snapshot", time.Since(start))
	if err != nil {
		s.logger.Error("persist progress snapshot failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, len(result.Skipped), storeErr(err, "failed to persist progress snapshot")
	}

	if err := s.cache.InvalidateStudent(ctx, studentID); err != nil {
		s.logger.Warn("invalidate progress cache failed", zap.String("student_id", studentID), zap.Error(err))
	}

	s.logger.Debug("progress recomputed",
		zap.String("student_id", studentID),
		zap.String("level", string(snapshot.Level)),
		zap.Int("chapters_completed", snapshot.ChaptersCompleted),
		zap.Int("verses_memorized", snapshot.VersesMemorized),
	)
	return &snapshot, len(result.Skipped), nil
}

// Snapshot returns the last persisted snapshot.
func (s *ProgressService) Snapshot(ctx context.Context, studentID string) (*models.ProgressSnapshot, error) {
	if err := ensureStudent(ctx, s.students, studentID); err != nil {
		return nil, err
	}
	start := time.Now()
	snapshot, err := s.snapshots.FindByStudent(ctx, studentID)
	s.metrics.ObserveDBQuery("find_snapshot", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSnapshotMissing, "progress has not been computed for this student")
		}
		return nil, storeErr(err, "failed to load progress snapshot")
	}
	return snapshot, nil
}

// Coverage returns the de-duplicated coverage of one chapter.
func (s *ProgressService) Coverage(ctx context.Context, studentID string, chapterIndex int) (*models.ChapterCoverage, bool, error) {
	ch, ok := s.catalog.Get(chapterIndex)
	if !ok {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("chapter %d not found", chapterIndex))
	}
	if err := ensureStudent(ctx, s.students, studentID); err != nil {
		return nil, false, err
	}

	key := coverageKey(studentID, chapterIndex)
	var cached models.ChapterCoverage
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	start := time.Now()
	records, err := s.memorization.ListRecordsForChapter(ctx, studentID, chapterIndex)
	s.metrics.ObserveDBQuery("list_chapter_records", time.Since(start))
	if err != nil {
		return nil, false, storeErr(err, "failed to load memorization records")
	}

	valid := make([]models.MemorizationRecord, 0, len(records))
	for _, rec := range records {
		if !(progress.VerseRange{Start: rec.VerseStart, End: rec.VerseEnd}).Valid(ch.VerseCount) {
			s.logger.Warn("skipping memorization record with invalid verse range",
				zap.String("student_id", studentID), zap.String("record_id", rec.ID), zap.Int("chapter_index", chapterIndex))
			continue
		}
		valid = append(valid, rec)
	}

	res, err := progress.Coverage(ch.VerseCount, progress.RangesFor(valid, chapterIndex, progress.QualifyingStatuses...))
	if err != nil {
		return nil, false, err
	}

	coverage := &models.ChapterCoverage{
		StudentID:       studentID,
		ChapterIndex:    chapterIndex,
		VerseCount:      res.VerseCount,
		CoveredCount:    res.CoveredCount,
		CompletionRatio: res.CompletionRatio,
	}
	_ = s.cache.Set(ctx, key, coverage, s.cfg.CacheTTL)
	return coverage, false, nil
}

// Streak returns the student's current and longest study streaks.
func (s *ProgressService) Streak(ctx context.Context, studentID string) (*models.StreakSummary, error) {
	if err := ensureStudent(ctx, s.students, studentID); err != nil {
		return nil, err
	}
	start := time.Now()
	dates, err := s.memorization.ListSessionDates(ctx, studentID)
	s.metrics.ObserveDBQuery("list_session_dates", time.Since(start))
	if err != nil {
		return nil, storeErr(err, "failed to load memorization sessions")
	}
	streak := progress.AnalyzeStreak(dates, s.today())
	return &models.StreakSummary{
		StudentID:         studentID,
		CurrentStreakDays: streak.Current,
		LongestStreakDays: streak.Longest,
	}, nil
}

// ChapterBreakdown lists every chapter the student has records for.
func (s *ProgressService) ChapterBreakdown(ctx context.Context, studentID string) ([]models.ChapterProgress, error) {
	if err := ensureStudent(ctx, s.students, studentID); err != nil {
		return nil, err
	}
	records, err := s.listRecords(ctx, studentID)
	if err != nil {
		return nil, err
	}

	result := s.aggregate(studentID, records, nil)
	rows := make([]models.ChapterProgress, 0, len(result.Chapters))
	for _, state := range result.Chapters {
		var touchedAt *time.Time
		if !state.LastTouched.IsZero() {
			touched := state.LastTouched.UTC()
			touchedAt = &touched
		}
		rows = append(rows, models.ChapterProgress{
			ChapterIndex:  state.Chapter.Index,
			ChapterName:   state.Chapter.Name,
			Section:       state.Chapter.Section,
			VerseCount:    state.Chapter.VerseCount,
			CoveredCount:  state.Coverage.CoveredCount,
			CompletionPct: state.Coverage.Percent(),
			Completed:     state.Completed,
			LastTouchedAt: touchedAt,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ChapterIndex < rows[j].ChapterIndex })
	return rows, nil
}

// RecomputeBatch recomputes each student independently and reports one
// result per input ID, in input order. An empty list means every active
// student. Transient store failures are retried. A failing student never
// aborts the batch; cancelling ctx does.
func (s *ProgressService) RecomputeBatch(ctx context.Context, studentIDs []string) ([]models.BatchRecomputeResult, error) {
	if len(studentIDs) == 0 {
		ids, err := s.students.ListActiveIDs(ctx)
		if err != nil {
			return nil, storeErr(err, "failed to list active students")
		}
		studentIDs = ids
	}

	results := make([]models.BatchRecomputeResult, len(studentIDs))
	var g errgroup.Group
	g.SetLimit(s.cfg.BatchConcurrency)
	for i, id := range studentIDs {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.recomputeWithRetry(ctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("batch recompute cancelled", zap.Int("students", len(studentIDs)), zap.Error(err))
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Status == models.BatchStatusFailed {
			failed++
		}
	}
	s.logger.Info("batch recompute finished", zap.Int("students", len(results)), zap.Int("failed", failed))
	return results, nil
}

func (s *ProgressService) recomputeWithRetry(ctx context.Context, studentID string) models.BatchRecomputeResult {
	result := models.BatchRecomputeResult{StudentID: studentID}
	for {
		result.Attempts++
		snapshot, err := s.Recompute(ctx, studentID)
		if err == nil {
			result.Status = models.BatchStatusOK
			result.Level = snapshot.Level
			result.ErrorCode, result.Error = "", ""
			return result
		}

		appErr := appErrors.FromError(err)
		result.Status = models.BatchStatusFailed
		result.ErrorCode = appErr.Code
		result.Error = appErr.Message
		if !appErrors.IsRetryable(err) || result.Attempts > s.cfg.BatchMaxRetries {
			s.logger.Warn("student recompute failed", zap.String("student_id", studentID), zap.Int("attempts", result.Attempts), zap.Error(err))
			return result
		}

		timer := time.NewTimer(s.cfg.BatchRetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			result.ErrorCode = appErrors.ErrStoreUnavailable.Code
			result.Error = ctx.Err().Error()
			return result
		case <-timer.C:
		}
	}
}

// RecomputeAll runs a batch over every active student.
func (s *ProgressService) RecomputeAll(ctx context.Context) error {
	_, err := s.RecomputeBatch(ctx, nil)
	return err
}

// EnqueueRefresh schedules an asynchronous recompute. It reports false when
// a refresh for the student was already pending.
func (s *ProgressService) EnqueueRefresh(ctx context.Context, studentID string) (bool, error) {
	if s.queue == nil {
		return false, appErrors.Clone(appErrors.ErrInternal, "refresh queue unavailable")
	}
	if err := ensureStudent(ctx, s.students, studentID); err != nil {
		return false, err
	}
	queued, err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeRecompute,
		Key:     studentID,
		Payload: studentID,
	})
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "refresh queue is busy")
	}
	return queued, nil
}

// HandleJob is the queue handler for JobTypeRecompute jobs.
func (s *ProgressService) HandleJob(ctx context.Context, job jobs.Job) error {
	studentID, ok := job.Payload.(string)
	if !ok || job.Type != JobTypeRecompute {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported job %q", job.Type))
	}
	_, err := s.Recompute(ctx, studentID)
	return err
}

func (s *ProgressService) aggregate(studentID string, records []models.MemorizationRecord, sessions []models.MemorizationSession) progress.AggregateResult {
	result := progress.Aggregate(progress.AggregateInput{
		StudentID: studentID,
		Catalog:   s.catalog,
		Records:   records,
		Sessions:  sessions,
		Today:     s.today(),
		Levels:    s.cfg.Levels,
	})
	for _, skipped := range result.Skipped {
		s.logger.Warn("skipping memorization record",
			zap.String("student_id", studentID),
			zap.String("record_id", skipped.RecordID),
			zap.Int("chapter_index", skipped.ChapterIndex),
			zap.String("reason", skipped.Reason),
		)
	}
	return result
}

func (s *ProgressService) listRecords(ctx context.Context, studentID string) ([]models.MemorizationRecord, error) {
	start := time.Now()
	records, err := s.memorization.ListRecords(ctx, studentID)
	s.metrics.ObserveDBQuery("list_records", time.Since(start))
	if err != nil {
		return nil, storeErr(err, "failed to load memorization records")
	}
	return records, nil
}

func (s *ProgressService) listSessions(ctx context.Context, studentID string) ([]models.MemorizationSession, error) {
	start := time.Now()
	sessions, err := s.memorization.ListSessions(ctx, studentID)
	s.metrics.ObserveDBQuery("list_sessions", time.Since(start))
	if err != nil {
		return nil, storeErr(err, "failed to load memorization sessions")
	}
	return sessions, nil
}

func (s *ProgressService) today() time.Time {
	return s.now().In(s.cfg.Location)
}

type studentChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

func ensureStudent(ctx context.Context, students studentChecker, studentID string) error {
	if studentID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	exists, err := students.Exists(ctx, studentID)
	if err != nil {
		return storeErr(err, "failed to look up student")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return nil
}

func storeErr(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, message)
}
