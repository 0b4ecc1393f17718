package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"notka/internal/model"
	"notka/internal/service"
)

type MockNoteService struct {
	mock.Mock
}

func (m *MockNoteService) List(ctx context.Context) ([]model.Note, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Note), args.Error(1)
}

func (m *MockNoteService) Get(ctx context.Context, id string) (*model.Note, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteService) Create(ctx context.Context, in model.NoteInput, file *service.Upload) (*model.Note, error) {
	args := m.Called(ctx, in, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteService) Update(ctx context.Context, id string, patch model.NotePatch) (*model.Note, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNoteService) Attach(ctx context.Context, id string, file *service.Upload) (*model.Note, error) {
	args := m.Called(ctx, id, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteService) Detach(ctx context.Context, id, path string) (*model.Note, error) {
	args := m.Called(ctx, id, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteService) OpenFile(ctx context.Context, path string) (*service.File, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.File), args.Error(1)
}

func (m *MockNoteService) OpenNoteFile(ctx context.Context, id string) (*service.File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.File), args.Error(1)
}
