package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/hifz-progress-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]int
	err := repo.Get(ctx, "progress:stu-1:coverage:1", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))

	assert.NoError(t, repo.Set(ctx, "progress:stu-1:coverage:1", map[string]int{"covered": 1}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "progress:stu-1:*"))
	assert.NoError(t, repo.PingContext(ctx))
	assert.NoError(t, repo.Close())
}
