package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"notka/internal/model"
)

func TestSweeper_Sweep(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, grace time.Duration) (fixture, *Sweeper, string, string) {
		f := newFixture(t)
		kept := f.put(t, "kept.pdf")
		orphan := f.put(t, "orphan.pdf")
		f.repo.On("List", mock.Anything).Return([]model.Note{
			{ID: "n1", Files: []string{"../uploads/" + kept}},
		}, nil)
		s := NewSweeper(f.repo, f.files, grace, zaptest.NewLogger(t))
		s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		return f, s, kept, orphan
	}

	t.Run("removes unreferenced files", func(t *testing.T) {
		f, s, kept, orphan := setup(t, time.Hour)

		report, err := s.Sweep(ctx, false)

		require.NoError(t, err)
		assert.Equal(t, 2, report.Scanned)
		assert.Equal(t, 1, report.Referenced)
		assert.Equal(t, []string{orphan}, report.Orphans)
		assert.Equal(t, 1, report.Removed)
		assert.True(t, f.files.Exists(ctx, kept))
		assert.False(t, f.files.Exists(ctx, orphan))
	})

	t.Run("dry run only reports", func(t *testing.T) {
		f, s, _, orphan := setup(t, time.Hour)

		report, err := s.Sweep(ctx, true)

		require.NoError(t, err)
		assert.True(t, report.DryRun)
		assert.Equal(t, []string{orphan}, report.Orphans)
		assert.Zero(t, report.Removed)
		assert.True(t, f.files.Exists(ctx, orphan))
	})

	t.Run("grace period protects fresh uploads", func(t *testing.T) {
		f, s, _, orphan := setup(t, 24*time.Hour)

		report, err := s.Sweep(ctx, false)

		require.NoError(t, err)
		assert.Empty(t, report.Orphans)
		assert.Equal(t, 1, report.TooRecent)
		assert.True(t, f.files.Exists(ctx, orphan))
	})
}

func TestSweeper_ListFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.On("List", mock.Anything).Return(nil, errors.New("db down"))
	s := NewSweeper(f.repo, f.files, time.Hour, zap.NewNop())

	_, err := s.Sweep(context.Background(), false)

	assert.ErrorContains(t, err, "list notes: db down")
}

func TestSweeper_StartStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.repo.On("List", mock.Anything).Return([]model.Note{}, nil)
	s := NewSweeper(f.repo, f.files, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
