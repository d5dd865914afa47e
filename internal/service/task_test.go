package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/todo-app/internal/model"
	"github.com/BuzzLyutic/todo-app/internal/repo"
)

// MockTaskRepository is a testify mock of repo.TaskRepository.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) List(ctx context.Context) ([]model.Task, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) Get(ctx context.Context, id int64) (model.Task, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Create(ctx context.Context, text string) (model.Task, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) GetStats(ctx context.Context) (model.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Stats), args.Error(1)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestTaskService_Create(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		setupMock func(*MockTaskRepository)
		wantErr   error
		wantMsg   string
	}{
		{
			name: "successful creation",
			text: "Buy milk",
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, "Buy milk").Return(model.Task{ID: 1, Text: "Buy milk"}, nil)
			},
		},
		{
			name: "text is trimmed",
			text: "  Buy milk \n",
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, "Buy milk").Return(model.Task{ID: 1, Text: "Buy milk"}, nil)
			},
		},
		{
			name:      "empty text",
			text:      "",
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrValidation,
			wantMsg:   "Task text is required and cannot be empty",
		},
		{
			name:      "whitespace text",
			text:      "   ",
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrValidation,
			wantMsg:   "Task text is required and cannot be empty",
		},
		{
			name: "persistence failure is passed through",
			text: "Buy milk",
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, "Buy milk").Return(model.Task{ID: 1}, repo.ErrPersistence)
			},
			wantErr: repo.ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			service := NewTaskService(mockRepo)
			result, err := service.Create(context.Background(), tt.text)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantMsg != "" {
					assert.EqualError(t, err, tt.wantMsg)
				}
			} else {
				require.NoError(t, err)
				assert.NotZero(t, result.ID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_Update(t *testing.T) {
	tests := []struct {
		name      string
		id        int64
		patch     model.TaskPatch
		setupMock func(*MockTaskRepository)
		wantErr   error
	}{
		{
			name:  "toggle without text never validates",
			id:    1,
			patch: model.TaskPatch{Completed: boolPtr(true)},
			setupMock: func(m *MockTaskRepository) {
				m.On("Update", mock.Anything, int64(1), model.TaskPatch{Completed: boolPtr(true)}).
					Return(model.Task{ID: 1, Completed: true}, nil)
			},
		},
		{
			name:  "text is trimmed before saving",
			id:    1,
			patch: model.TaskPatch{Text: strPtr("  Renamed  ")},
			setupMock: func(m *MockTaskRepository) {
				m.On("Update", mock.Anything, int64(1), mock.MatchedBy(func(p model.TaskPatch) bool {
					return p.Text != nil && *p.Text == "Renamed" && p.Completed == nil
				})).Return(model.Task{ID: 1, Text: "Renamed"}, nil)
			},
		},
		{
			name:  "empty text on existing task",
			id:    1,
			patch: model.TaskPatch{Text: strPtr("  ")},
			setupMock: func(m *MockTaskRepository) {
				m.On("Get", mock.Anything, int64(1)).Return(model.Task{ID: 1, Text: "x"}, nil)
			},
			wantErr: ErrValidation,
		},
		{
			name:  "empty text on missing task is not found",
			id:    42,
			patch: model.TaskPatch{Text: strPtr("")},
			setupMock: func(m *MockTaskRepository) {
				m.On("Get", mock.Anything, int64(42)).Return(model.Task{}, repo.ErrNotFound)
			},
			wantErr: repo.ErrNotFound,
		},
		{
			name:  "missing task",
			id:    42,
			patch: model.TaskPatch{Completed: boolPtr(false)},
			setupMock: func(m *MockTaskRepository) {
				m.On("Update", mock.Anything, int64(42), mock.Anything).Return(model.Task{}, repo.ErrNotFound)
			},
			wantErr: repo.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			service := NewTaskService(mockRepo)
			_, err := service.Update(context.Background(), tt.id, tt.patch)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_ValidationErrorMessage(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	mockRepo.On("Get", mock.Anything, int64(1)).Return(model.Task{ID: 1}, nil)

	service := NewTaskService(mockRepo)
	_, err := service.Update(context.Background(), 1, model.TaskPatch{Text: strPtr("")})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Task text cannot be empty", ve.Message)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskService_GetStats(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	expected := model.Stats{Total: 17, Completed: 10, Pending: 7}
	mockRepo.On("GetStats", mock.Anything).Return(expected, nil)

	service := NewTaskService(mockRepo)
	stats, err := service.GetStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, expected, stats)
	mockRepo.AssertExpectations(t)
}

func TestTaskService_DeleteAndGet(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	mockRepo.On("Delete", mock.Anything, int64(7)).Return(repo.ErrNotFound)
	mockRepo.On("Get", mock.Anything, int64(8)).Return(model.Task{ID: 8, Text: "x"}, nil)

	service := NewTaskService(mockRepo)

	assert.ErrorIs(t, service.Delete(context.Background(), 7), repo.ErrNotFound)

	task, err := service.Get(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, int64(8), task.ID)
	mockRepo.AssertExpectations(t)
}
