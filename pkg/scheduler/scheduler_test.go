package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyRejectsMalformedTime(t *testing.T) {
	s := New(time.UTC, nil)
	err := s.Daily("nightly", "25:99", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestRunNowExecutesTask(t *testing.T) {
	s := New(time.UTC, nil)
	ran := make(chan struct{}, 1)
	require.NoError(t, s.Daily("nightly", "02:00", func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	}))

	s.Start(context.Background())
	defer s.Stop()

	next, ok := s.NextRun("nightly")
	require.True(t, ok)
	assert.Equal(t, 2, next.UTC().Hour())

	require.NoError(t, s.RunNow("nightly"))
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestNextRunUnknownTask(t *testing.T) {
	_, ok := New(time.UTC, nil).NextRun("missing")
	assert.False(t, ok)
}
