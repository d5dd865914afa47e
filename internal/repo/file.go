package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-app/internal/model"
)

// FileRepo держит список задач в памяти и после каждой мутации
// целиком переписывает JSON-файл (write-through).
type FileRepo struct {
	mu     sync.Mutex
	path   string
	tasks  []model.Task
	ids    *idGenerator
	now    func() time.Time
	logger *zap.Logger
}

type FileOption func(*FileRepo)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) FileOption {
	return func(r *FileRepo) {
		r.now = now
	}
}

// NewFileRepo загружает задачи из path. Отсутствующий или битый файл
// не считается ошибкой: хранилище стартует пустым и записывает [] на диск.
func NewFileRepo(path string, logger *zap.Logger, opts ...FileOption) *FileRepo {
	r := &FileRepo{
		path:   path,
		now:    utcNow,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.ids = newIDGenerator(r.now)
	r.load()
	return r
}

func (r *FileRepo) load() {
	tasks, err := readTasks(r.path)
	if err != nil {
		r.logger.Warn("failed to load tasks, starting with empty list",
			zap.String("path", r.path), zap.Error(err))
		r.tasks = []model.Task{}
		if err := r.persist(); err != nil {
			r.logger.Error("failed to write empty task file", zap.String("path", r.path), zap.Error(err))
		}
		return
	}

	r.tasks = tasks
	for _, t := range tasks {
		r.ids.Observe(t.ID)
	}
	r.logger.Info("tasks loaded", zap.String("path", r.path), zap.Int("count", len(tasks)))
}

func readTasks(path string) ([]model.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// persist пишет во временный файл рядом и переименовывает его поверх старого.
func (r *FileRepo) persist() error {
	data, err := json.MarshalIndent(r.tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (r *FileRepo) List(ctx context.Context) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Task, len(r.tasks))
	copy(out, r.tasks)
	return out, nil
}

func (r *FileRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexOf(id); i >= 0 {
		return r.tasks[i], nil
	}
	return model.Task{}, ErrNotFound
}

func (r *FileRepo) Create(ctx context.Context, text string) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	t := model.Task{
		ID:        r.ids.Next(),
		Text:      text,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.tasks = append(r.tasks, t)
	// Откат не делаем: при ошибке записи память и файл расходятся
	return t, r.persist()
}

func (r *FileRepo) Update(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return model.Task{}, ErrNotFound
	}

	t := r.tasks[i]
	if patch.Text != nil {
		t.Text = *patch.Text
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	t.UpdatedAt = nextTimestamp(r.now(), t.UpdatedAt)

	r.tasks[i] = t
	return t, r.persist()
}

func (r *FileRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}

	r.tasks = append(r.tasks[:i:i], r.tasks[i+1:]...)
	return r.persist()
}

func (r *FileRepo) GetStats(ctx context.Context) (model.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return model.CountStats(r.tasks), nil
}

func (r *FileRepo) indexOf(id int64) int {
	for i, t := range r.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
