package handler

import (
	"context"
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

type recommendationService interface {
	Recommend(ctx context.Context, req service.RecommendRequest) ([]models.Recommendation, bool, error)
}

// RecommendationHandler serves ranked study suggestions.
type RecommendationHandler struct {
	service  recommendationService
	validate *validator.Validate
}

// NewRecommendationHandler constructs the handler.
func NewRecommendationHandler(service recommendationService, validate *validator.Validate) *RecommendationHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &RecommendationHandler{service: service, validate: validate}
}

// List godoc
// @Summary Recommend chapters to study next
// @Tags Recommendations
// @Produce json
// @Param id path string true "Student ID"
// @Param limit query int false "Maximum results (default 10, capped at 114)"
// @Param exclude query string false "Comma separated chapter indexes to leave out"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/recommendations [get]
func (h *RecommendationHandler) List(c *gin.Context) {
	query, err := parseRecommendationQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	studentID := c.Param("id")
	recs, cacheHit, err := h.service.Recommend(c.Request.Context(), service.RecommendRequest{
		StudentID: studentID,
		Limit:     query.Limit,
		Exclude:   query.Exclude,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, dto.RecommendationResponse{StudentID: studentID, Recommendations: recs}, middleware.ExtractMeta(c))
}

func parseRecommendationQuery(c *gin.Context) (dto.RecommendationQuery, error) {
	var query dto.RecommendationQuery
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return query, appErrors.Clone(appErrors.ErrValidation, "limit must be an integer")
		}
		query.Limit = limit
	}
	for _, value := range c.QueryArray("exclude") {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			idx, err := strconv.Atoi(part)
			if err != nil {
				return query, appErrors.Clone(appErrors.ErrValidation, "exclude must list chapter indexes")
			}
			query.Exclude = append(query.Exclude, idx)
		}
	}
	return query, nil
}
