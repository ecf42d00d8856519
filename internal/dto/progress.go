package dto

import "github.com/noah-isme/hifz-progress-api/internal/models"

// RecommendationQuery captures GET /students/:id/recommendations parameters.
type RecommendationQuery struct {
	Limit   int   `validate:"gte=0"`
	Exclude []int `validate:"omitempty,max=114,dive,min=1,max=114"`
}

// RecommendationResponse wraps a ranked list.
type RecommendationResponse struct {
	StudentID       string                  `json:"student_id"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

// BatchRecomputeRequest is the POST /progress/recompute payload. An empty
// list recomputes every active student.
type BatchRecomputeRequest struct {
	StudentIDs []string `json:"student_ids" validate:"omitempty,max=1000,dive,required"`
}

// BatchRecomputeResponse summarises a batch run.
type BatchRecomputeResponse struct {
	Total     int                           `json:"total"`
	Succeeded int                           `json:"succeeded"`
	Failed    int                           `json:"failed"`
	Results   []models.BatchRecomputeResult `json:"results"`
}

// RefreshResponse acknowledges an asynchronous recompute request.
type RefreshResponse struct {
	StudentID string `json:"student_id"`
	Queued    bool   `json:"queued"`
}

// ChapterListQuery filters the catalog listing.
type ChapterListQuery struct {
	Section int `validate:"omitempty,min=1,max=30"`
}

// ChapterBreakdownResponse lists per-chapter progress rows.
type ChapterBreakdownResponse struct {
	StudentID string                   `json:"student_id"`
	Chapters  []models.ChapterProgress `json:"chapters"`
}
