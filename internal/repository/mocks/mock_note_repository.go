package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"notka/internal/model"
)

type MockNoteRepository struct {
	mock.Mock
}

func (m *MockNoteRepository) Create(ctx context.Context, note *model.Note) (*model.Note, error) {
	args := m.Called(ctx, note)
	if f, ok := args.Get(0).(func(context.Context, *model.Note) *model.Note); ok {
		return f(ctx, note), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteRepository) FindByID(ctx context.Context, id string) (*model.Note, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteRepository) List(ctx context.Context) ([]model.Note, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Note), args.Error(1)
}

func (m *MockNoteRepository) Update(ctx context.Context, id string, patch model.NotePatch) (*model.Note, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteRepository) SetFiles(ctx context.Context, id string, files []string) (*model.Note, error) {
	args := m.Called(ctx, id, files)
	if f, ok := args.Get(0).(func(context.Context, string, []string) *model.Note); ok {
		return f(ctx, id, files), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
