package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/hifz-progress-api/internal/dto"
	"github.com/noah-isme/hifz-progress-api/internal/middleware"
	"github.com/noah-isme/hifz-progress-api/internal/models"
	"github.com/noah-isme/hifz-progress-api/internal/service"
	appErrors "github.com/noah-isme/hifz-progress-api/pkg/errors"
	"github.com/noah-isme/hifz-progress-api/pkg/response"
)

type progressService interface {
	Snapshot(ctx context.Context, studentID string) (*models.ProgressSnapshot, error)
	Recompute(ctx context.Context, studentID string) (*models.ProgressSnapshot, error)
	EnqueueRefresh(ctx context.Context, studentID string) (bool, error)
	ChapterBreakdown(ctx context.Context, studentID string) ([]models.ChapterProgress, error)
	Coverage(ctx context.Context, studentID string, chapterIndex int) (*models.ChapterCoverage, bool, error)
	Streak(ctx context.Context, studentID string) (*models.StreakSummary, error)
	RecomputeBatch(ctx context.Context, studentIDs []string) ([]models.BatchRecomputeResult, error)
}

type reportService interface {
	Render(ctx context.Context, studentID string, format service.ReportFormat) (*service.ExportResult, error)
}

// ProgressHandler exposes progress snapshot, coverage and streak endpoints.
type ProgressHandler struct {
	service  progressService
	reports  reportService
	validate *validator.Validate
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(service progressService, reports reportService, validate *validator.Validate) *ProgressHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &ProgressHandler{service: service, reports: reports, validate: validate}
}

// Snapshot godoc
// @Summary Get a student's persisted progress snapshot
// @Tags Progress
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/progress [get]
func (h *ProgressHandler) Snapshot(c *gin.Context) {
	snapshot, err := h.service.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot)
}

// Recompute godoc
// @Summary Rebuild a student's progress snapshot now
// @Tags Progress
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /students/{id}/progress/recompute [post]
func (h *ProgressHandler) Recompute(c *gin.Context) {
	snapshot, err := h.service.Recompute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot)
}

// Refresh godoc
// @Summary Queue a background recompute
// @Tags Progress
// @Produce json
// @Param id path string true "Student ID"
// @Success 202 {object} response.Envelope
// @Router /students/{id}/progress/refresh [post]
func (h *ProgressHandler) Refresh(c *gin.Context) {
	studentID := c.Param("id")
	queued, err := h.service.EnqueueRefresh(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.RefreshResponse{StudentID: studentID, Queued: queued})
}

// Chapters godoc
// @Summary Per-chapter progress breakdown
// @Tags Progress
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/progress/chapters [get]
func (h *ProgressHandler) Chapters(c *gin.Context) {
	studentID := c.Param("id")
	rows, err := h.service.ChapterBreakdown(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ChapterBreakdownResponse{StudentID: studentID, Chapters: rows})
}

// Report godoc
// @Summary Download a progress report
// @Tags Progress
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /students/{id}/progress/report [get]
func (h *ProgressHandler) Report(c *gin.Context) {
	if h.reports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	format, err := service.ParseReportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.reports.Render(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, result.Body)
}

// Coverage godoc
// @Summary De-duplicated coverage of one chapter
// @Tags Progress
// @Produce json
// @Param id path string true "Student ID"
// @Param chapter path int true "Chapter index (1-114)"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/coverage/{chapter} [get]
func (h *ProgressHandler) Coverage(c *gin.Context) {
	chapter, err := strconv.Atoi(c.Param("chapter"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "chapter must be an integer"))
		return
	}
	coverage, cacheHit, err := h.service.Coverage(c.Request.Context(), c.Param("id"), chapter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, coverage, middleware.ExtractMeta(c))
}

// Streak godoc
// @Summary Current and longest study streaks
// @Tags Progress
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/streak [get]
func (h *ProgressHandler) Streak(c *gin.Context) {
	streak, err := h.service.Streak(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, streak)
}

// RecomputeBatch godoc
// @Summary Recompute many students; failures are reported per student
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body dto.BatchRecomputeRequest false "Student IDs, empty for all active"
// @Success 200 {object} response.Envelope
// @Router /progress/recompute [post]
func (h *ProgressHandler) RecomputeBatch(c *gin.Context) {
	var req dto.BatchRecomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	ids := make([]string, 0, len(req.StudentIDs))
	for _, id := range req.StudentIDs {
		ids = append(ids, strings.TrimSpace(id))
	}

	results, err := h.service.RecomputeBatch(c.Request.Context(), ids)
	if err != nil {
		response.Error(c, err)
		return
	}
	resp := dto.BatchRecomputeResponse{Total: len(results), Results: results}
	for _, r := range results {
		if r.Status == models.BatchStatusOK {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	response.JSON(c, http.StatusOK, resp)
}
