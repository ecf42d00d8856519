package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/hifz-progress-api/internal/dto"
	"github.com/noah-isme/hifz-progress-api/internal/models"
	appErrors "github.com/noah-isme/hifz-progress-api/pkg/errors"
	"github.com/noah-isme/hifz-progress-api/pkg/response"
)

type chapterCatalog interface {
	All() []models.Chapter
	BySection(section int) []models.Chapter
	TotalVerses() int
}

// CatalogHandler exposes the read-only chapter catalog.
type CatalogHandler struct {
	catalog  chapterCatalog
	validate *validator.Validate
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(catalog chapterCatalog, validate *validator.Validate) *CatalogHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &CatalogHandler{catalog: catalog, validate: validate}
}

// Chapters godoc
// @Summary List catalog chapters
// @Tags Catalog
// @Produce json
// @Param section query int false "Only chapters starting in this section (1-30)"
// @Success 200 {object} response.Envelope
// @Router /catalog/chapters [get]
func (h *CatalogHandler) Chapters(c *gin.Context) {
	var query dto.ChapterListQuery
	if raw := strings.TrimSpace(c.Query("section")); raw != "" {
		section, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "section must be an integer"))
			return
		}
		query.Section = section
	}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	chapters := h.catalog.All()
	if query.Section > 0 {
		chapters = h.catalog.BySection(query.Section)
	}
	response.JSON(c, http.StatusOK, chapters, map[string]interface{}{
		"count":        len(chapters),
		"total_verses": h.catalog.TotalVerses(),
	})
}
