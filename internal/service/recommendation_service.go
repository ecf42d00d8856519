package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hifz-progress-api/internal/catalog"
	"github.com/noah-isme/hifz-progress-api/internal/models"
	"github.com/noah-isme/hifz-progress-api/internal/progress"
)

type recordLister interface {
	ListRecords(ctx context.Context, studentID string) ([]models.MemorizationRecord, error)
}

type snapshotFinder interface {
	FindByStudent(ctx context.Context, studentID string) (*models.ProgressSnapshot, error)
}

// RecommendRequest describes a recommendation query.
type RecommendRequest struct {
	StudentID string
	Limit     int
	Exclude   []int
}

// RecommendationServiceConfig tunes ranking.
type RecommendationServiceConfig struct {
	Weights      progress.Weights
	Levels       progress.LevelThresholds
	DefaultLimit int
	RecentWindow int
	CacheTTL     time.Duration
}

// RecommendationServiceParams groups constructor dependencies.
type RecommendationServiceParams struct {
	Catalog   progress.Catalog
	Records   recordLister
	Students  studentChecker
	Snapshots snapshotFinder
	Cache     *CacheService
	Metrics   *MetricsService
	Logger    *zap.Logger
	Now       func() time.Time
	Config    RecommendationServiceConfig
}

// RecommendationService ranks chapters for a student to study next.
type RecommendationService struct {
	catalog   progress.Catalog
	records   recordLister
	students  studentChecker
	snapshots snapshotFinder
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
	cfg       RecommendationServiceConfig
}

// NewRecommendationService constructs a RecommendationService.
func NewRecommendationService(params RecommendationServiceParams) *RecommendationService {
	cfg := params.Config
	if cfg.Weights == (progress.Weights{}) {
		cfg.Weights = progress.DefaultWeights()
	}
	if cfg.Levels == (progress.LevelThresholds{}) {
		cfg.Levels = progress.DefaultLevelThresholds()
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = 10
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &RecommendationService{
		catalog:   params.Catalog,
		records:   params.Records,
		students:  params.Students,
		snapshots: params.Snapshots,
		cache:     params.Cache,
		metrics:   params.Metrics,
		logger:    logger,
		now:       now,
		cfg:       cfg,
	}
}

// Recommend returns up to req.Limit ranked chapters. The boolean reports a cache hit.
func (s *RecommendationService) Recommend(ctx context.Context, req RecommendRequest) ([]models.Recommendation, bool, error) {
	if err := ensureStudent(ctx, s.students, req.StudentID); err != nil {
		return nil, false, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > catalog.ChapterCount {
		limit = catalog.ChapterCount
	}
	exclude := normalizeExclusions(req.Exclude)

	key := recommendationKey(req.StudentID, limit, exclude)
	var cached []models.Recommendation
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}

	start := time.Now()
	records, err := s.records.ListRecords(ctx, req.StudentID)
	s.metrics.ObserveDBQuery("list_records", time.Since(start))
	if err != nil {
		return nil, false, storeErr(err, "failed to load memorization records")
	}

	now := s.now()
	result := progress.Aggregate(progress.AggregateInput{
		StudentID: req.StudentID,
		Catalog:   s.catalog,
		Records:   records,
		Today:     now,
		Levels:    s.cfg.Levels,
	})

	level, err := s.level(ctx, req.StudentID, result.Snapshot.Level)
	if err != nil {
		return nil, false, err
	}

	profile := progress.Profile(records, s.catalog, s.cfg.RecentWindow)
	features := progress.Features(s.catalog, result.Chapters, profile)

	skip := make(map[int]struct{}, len(exclude))
	for _, idx := range exclude {
		skip[idx] = struct{}{}
	}
	recs := progress.Rank(features, level, s.cfg.Weights, now, limit, skip)

	_ = s.cache.Set(ctx, key, recs, s.cfg.CacheTTL)
	s.metrics.ObserveRecommendation(level)
	return recs, false, nil
}

// level prefers the persisted snapshot and falls back to the in-memory
// aggregate when the student has never been recomputed.
func (s *RecommendationService) level(ctx context.Context, studentID string, fallback models.ProgressLevel) (models.ProgressLevel, error) {
	start := time.Now()
	snapshot, err := s.snapshots.FindByStudent(ctx, studentID)
	s.metrics.ObserveDBQuery("find_snapshot", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("no persisted snapshot, using derived level", zap.String("student_id", studentID), zap.String("level", string(fallback)))
			return fallback, nil
		}
		return "", storeErr(err, "failed to load progress snapshot")
	}
	return snapshot.Level, nil
}

func normalizeExclusions(raw []int) []int {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(raw))
	out := make([]int, 0, len(raw))
	for _, idx := range raw {
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
