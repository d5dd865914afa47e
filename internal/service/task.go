package service

import (
	"context"
	"errors"
	"strings"

	"github.com/BuzzLyutic/todo-app/internal/model"
	"github.com/BuzzLyutic/todo-app/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
)

const (
	msgTextRequired = "Task text is required and cannot be empty"
	msgTextEmpty    = "Task text cannot be empty"
)

// ValidationError несет сообщение, которое можно показать клиенту.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

type TaskService struct {
	repo repo.TaskRepository
}

func NewTaskService(repo repo.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	return s.repo.List(ctx)
}

func (s *TaskService) Get(ctx context.Context, id int64) (model.Task, error) {
	return s.repo.Get(ctx, id)
}

func (s *TaskService) Create(ctx context.Context, text string) (model.Task, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" { // Пустой текст после trim не сохраняем
		return model.Task{}, &ValidationError{Message: msgTextRequired}
	}
	return s.repo.Create(ctx, trimmed)
}

// Update применяет частичное обновление. Текст проверяется только если он передан;
// для несуществующей задачи приоритет у ErrNotFound.
func (s *TaskService) Update(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error) {
	if patch.Text != nil {
		trimmed := strings.TrimSpace(*patch.Text)
		if trimmed == "" {
			if _, err := s.repo.Get(ctx, id); err != nil {
				return model.Task{}, err
			}
			return model.Task{}, &ValidationError{Message: msgTextEmpty}
		}
		patch.Text = &trimmed
	}
	return s.repo.Update(ctx, id, patch)
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *TaskService) GetStats(ctx context.Context) (model.Stats, error) {
	return s.repo.GetStats(ctx)
}
