package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notka/internal/model"
	"notka/internal/repository"
	repoMocks "notka/internal/repository/mocks"
)

func newNoteService(f fixture) NoteService {
	return NewNoteService(f.repo, f.mgr, f.files, zap.NewNop())
}

func TestNoteService_List(t *testing.T) {
	f := newFixture(t)
	svc := newNoteService(f)
	ctx := context.Background()

	notes := []model.Note{{ID: "b", Title: "newer"}, {ID: "a", Title: "older"}}
	f.repo.On("List", mock.Anything).Return(notes, nil).Once()

	got, err := svc.List(ctx)

	require.NoError(t, err)
	assert.Equal(t, notes, got)

	f.repo.On("List", mock.Anything).Return(nil, errors.New("db fail")).Once()
	_, err = svc.List(ctx)
	assert.EqualError(t, err, "db fail")
}

func TestNoteService_Get(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()

	tests := []struct {
		name    string
		id      string
		setup   func(r *fixture)
		wantErr error
	}{
		{
			name: "found",
			id:   id,
			setup: func(f *fixture) {
				f.repo.On("FindByID", mock.Anything, id).Return(&model.Note{ID: id, Title: "T"}, nil)
			},
		},
		{
			name: "not found",
			id:   id,
			setup: func(f *fixture) {
				f.repo.On("FindByID", mock.Anything, id).Return(nil, repository.ErrNotFound)
			},
			wantErr: ErrNotFound,
		},
		{
			name:    "malformed id",
			id:      "not-a-uuid",
			setup:   func(*fixture) {},
			wantErr: ErrInvalidID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(&f)
			svc := newNoteService(f)

			n, err := svc.Get(ctx, tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, n)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, n.ID)
		})
	}
}

// objectIDRepo is a store that also accepts 24 hex digit keys.
type objectIDRepo struct {
	*repoMocks.MockNoteRepository
}

func (objectIDRepo) ValidID(id string) bool { return len(id) == 24 }

func TestNoteService_StoreSpecificIDs(t *testing.T) {
	ctx := context.Background()
	hexID := "6ad208f0c2684677e2c31c3c"

	t.Run("accepted when the store knows the format", func(t *testing.T) {
		f := newFixture(t)
		svc := NewNoteService(objectIDRepo{f.repo}, f.mgr, f.files, zap.NewNop())
		f.repo.On("FindByID", mock.Anything, hexID).
			Return(&model.Note{ID: hexID, Title: "old", Files: []string{"../uploads/a.pdf"}}, nil).Once()

		n, err := svc.Get(ctx, hexID)

		require.NoError(t, err)
		assert.Equal(t, hexID, n.ID)
		f.repo.AssertExpectations(t)
	})

	t.Run("rejected by a uuid-only store", func(t *testing.T) {
		f := newFixture(t)
		svc := newNoteService(f)

		_, err := svc.Get(ctx, hexID)

		assert.ErrorIs(t, err, ErrInvalidID)
		f.repo.AssertNotCalled(t, "FindByID", mock.Anything, hexID)
	})
}

func TestNoteService_CreateRoundTrip(t *testing.T) {
	f := newFixture(t)
	svc := newNoteService(f)
	ctx := context.Background()
	page := 5

	var saved *model.Note
	f.repo.On("Create", mock.Anything, mock.Anything).Return(func(_ context.Context, n *model.Note) *model.Note {
		saved = n
		return n
	}, nil)

	created, err := svc.Create(ctx, model.NoteInput{Title: "T", Content: "C", PageNumber: &page}, nil)
	require.NoError(t, err)

	f.repo.On("FindByID", mock.Anything, created.ID).Return(saved, nil)
	got, err := svc.Get(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "C", got.Content)
	assert.Equal(t, 5, *got.PageNumber)
	assert.Equal(t, created.ID, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestNoteService_Update(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()

	t.Run("last write wins", func(t *testing.T) {
		f := newFixture(t)
		svc := newNoteService(f)
		first, second := "first", "second"

		f.repo.On("Update", mock.Anything, id, model.NotePatch{Content: &first}).
			Return(&model.Note{ID: id, Title: "T", Content: first}, nil)
		f.repo.On("Update", mock.Anything, id, model.NotePatch{Content: &second}).
			Return(&model.Note{ID: id, Title: "T", Content: second}, nil)

		_, err := svc.Update(ctx, id, model.NotePatch{Content: &first})
		require.NoError(t, err)
		n, err := svc.Update(ctx, id, model.NotePatch{Content: &second})

		require.NoError(t, err)
		assert.Equal(t, "second", n.Content)
	})

	t.Run("invalid title", func(t *testing.T) {
		f := newFixture(t)
		svc := newNoteService(f)
		long := strings.Repeat("é", model.MaxTitleLength+1)

		_, err := svc.Update(ctx, id, model.NotePatch{Title: &long})

		assert.ErrorIs(t, err, ErrInvalidNote)
		assert.ErrorIs(t, err, model.ErrTitleTooLong)
		f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)
		svc := newNoteService(f)
		title := "x"
		f.repo.On("Update", mock.Anything, id, mock.Anything).Return(nil, repository.ErrNotFound)

		_, err := svc.Update(ctx, id, model.NotePatch{Title: &title})

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestNoteService_DeleteTwice(t *testing.T) {
	f := newFixture(t)
	svc := newNoteService(f)
	ctx := context.Background()
	id := uuid.NewString()

	f.repo.On("FindByID", mock.Anything, id).Return(&model.Note{ID: id, Files: []string{}}, nil).Once()
	f.repo.On("Delete", mock.Anything, id).Return(nil).Once()
	f.repo.On("FindByID", mock.Anything, id).Return(nil, repository.ErrNotFound).Once()

	require.NoError(t, svc.Delete(ctx, id))
	assert.ErrorIs(t, svc.Delete(ctx, id), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "bad"), ErrInvalidID)
}

func TestNoteService_AttachDetachInvariant(t *testing.T) {
	f := newFixture(t)
	svc := newNoteService(f)
	ctx := context.Background()
	id := uuid.NewString()

	current := &model.Note{ID: id, Title: "T", Files: []string{}, CreatedAt: time.Now()}
	f.repo.On("FindByID", mock.Anything, id).Return(current, nil)
	f.repo.On("SetFiles", mock.Anything, id, mock.Anything).Return(func(_ context.Context, _ string, files []string) *model.Note {
		n := *current
		n.Files = files
		*current = n
		return &n
	}, nil)

	check := func(n *model.Note) {
		if len(n.Files) == 0 {
			assert.Nil(t, n.LegacyFilePath())
			return
		}
		assert.Equal(t, n.Files[len(n.Files)-1], *n.LegacyFilePath())
	}

	n, err := svc.Attach(ctx, id, newUpload("one.pdf", "1"))
	require.NoError(t, err)
	check(n)
	n, err = svc.Attach(ctx, id, newUpload("two.png", "2"))
	require.NoError(t, err)
	check(n)
	first := n.Files[0]

	n, err = svc.Detach(ctx, id, n.Files[1])
	require.NoError(t, err)
	check(n)
	assert.Equal(t, []string{first}, n.Files)

	n, err = svc.Detach(ctx, id, first)
	require.NoError(t, err)
	check(n)

	_, err = svc.Attach(ctx, "nope", newUpload("one.pdf", "1"))
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = svc.Detach(ctx, "nope", "x")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestNoteService_OpenFile(t *testing.T) {
	f := newFixture(t)
	svc := newNoteService(f)
	ctx := context.Background()
	p := f.put(t, "clip.mp4")

	file, err := svc.OpenFile(ctx, p)
	require.NoError(t, err)
	defer file.Body.Close()

	assert.Equal(t, p, file.Name)
	assert.Equal(t, int64(4), file.Size)
	b, err := io.ReadAll(file.Body)
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))

	_, err = svc.OpenFile(ctx, "missing.mp4")
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = svc.OpenFile(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrForbiddenPath)

	legacy, err := svc.OpenFile(ctx, "../uploads/"+p)
	require.NoError(t, err)
	assert.NoError(t, legacy.Body.Close())
}

func TestNoteService_OpenNoteFile(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()

	t.Run("opens the last attachment", func(t *testing.T) {
		f := newFixture(t)
		svc := newNoteService(f)
		first := f.put(t, "one.pdf")
		last := f.put(t, "two.png")
		f.repo.On("FindByID", mock.Anything, id).
			Return(&model.Note{ID: id, Files: []string{first, "../uploads/" + last}}, nil).Once()

		file, err := svc.OpenNoteFile(ctx, id)

		require.NoError(t, err)
		defer file.Body.Close()
		assert.Equal(t, last, file.Name)
	})

	t.Run("no files", func(t *testing.T) {
		f := newFixture(t)
		svc := newNoteService(f)
		f.repo.On("FindByID", mock.Anything, id).Return(&model.Note{ID: id, Files: []string{}}, nil).Once()

		_, err := svc.OpenNoteFile(ctx, id)

		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("file gone from storage", func(t *testing.T) {
		f := newFixture(t)
		svc := newNoteService(f)
		f.repo.On("FindByID", mock.Anything, id).
			Return(&model.Note{ID: id, Files: []string{"20240101_000000_gone.pdf"}}, nil).Once()

		_, err := svc.OpenNoteFile(ctx, id)

		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("note absent", func(t *testing.T) {
		f := newFixture(t)
		svc := newNoteService(f)
		f.repo.On("FindByID", mock.Anything, id).Return(nil, repository.ErrNotFound).Once()

		_, err := svc.OpenNoteFile(ctx, id)

		assert.ErrorIs(t, err, ErrNotFound)
	})
}
