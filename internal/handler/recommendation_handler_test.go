package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hifz-progress-api/internal/dto"
	"github.com/noah-isme/hifz-progress-api/internal/middleware"
	"github.com/noah-isme/hifz-progress-api/internal/models"
	"github.com/noah-isme/hifz-progress-api/internal/service"
	appErrors "github.com/noah-isme/hifz-progress-api/pkg/errors"
)

type fakeRecommender struct {
	last service.RecommendRequest
	hit  bool
	err  error
}

func (f *fakeRecommender) Recommend(_ context.Context, req service.RecommendRequest) ([]models.Recommendation, bool, error) {
	f.last = req
	if f.err != nil {
		return nil, false, f.err
	}
	return []models.Recommendation{{ChapterIndex: 94, Score: 80, Tier: models.TierHigh}}, f.hit, nil
}

func newRecommendationRouter(srv *fakeRecommender) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewRecommendationHandler(srv, nil)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	r.GET("/students/:id/recommendations", h.List)
	return r
}

func TestRecommendationHandlerParsesQuery(t *testing.T) {
	srv := &fakeRecommender{}
	r := newRecommendationRouter(srv)

	rec := serve(r, http.MethodGet, "/students/stu-1/recommendations?limit=5&exclude=1,%202&exclude=9", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.RecommendRequest{StudentID: "stu-1", Limit: 5, Exclude: []int{1, 2, 9}}, srv.last)
	assert.Equal(t, "MISS", rec.Header().Get(middleware.CacheHeader))

	var body dto.RecommendationResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &body))
	assert.Equal(t, "stu-1", body.StudentID)
	require.Len(t, body.Recommendations, 1)
	assert.Equal(t, 94, body.Recommendations[0].ChapterIndex)
}

func TestRecommendationHandlerDefaults(t *testing.T) {
	srv := &fakeRecommender{hit: true}
	r := newRecommendationRouter(srv)

	rec := serve(r, http.MethodGet, "/students/stu-1/recommendations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, srv.last.Limit)
	assert.Empty(t, srv.last.Exclude)
	assert.Equal(t, true, decodeEnvelope(t, rec).Meta["cache_hit"])
}

func TestRecommendationHandlerRejectsBadInput(t *testing.T) {
	r := newRecommendationRouter(&fakeRecommender{})

	for _, path := range []string{
		"/students/stu-1/recommendations?limit=ten",
		"/students/stu-1/recommendations?limit=-1",
		"/students/stu-1/recommendations?exclude=x",
		"/students/stu-1/recommendations?exclude=115",
		"/students/stu-1/recommendations?exclude=0",
	} {
		rec := serve(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestRecommendationHandlerPropagatesNotFound(t *testing.T) {
	r := newRecommendationRouter(&fakeRecommender{err: appErrors.Clone(appErrors.ErrNotFound, "student not found")})

	rec := serve(r, http.MethodGet, "/students/ghost/recommendations", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
