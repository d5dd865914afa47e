package repo

import (
	"context"
	"errors"

	"github.com/BuzzLyutic/todo-app/internal/model"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("failed to save tasks")
)

// TaskRepository определяет интерфейс для работы с задачами.
// Валидация текста - забота сервиса, репозиторий хранит то, что ему передали.
type TaskRepository interface {
	List(ctx context.Context) ([]model.Task, error)
	Get(ctx context.Context, id int64) (model.Task, error)
	Create(ctx context.Context, text string) (model.Task, error)
	Update(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, id int64) error
	GetStats(ctx context.Context) (model.Stats, error)
}
