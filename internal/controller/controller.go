// Package controller - клиентская копия списка задач.
// Локальное состояние меняется только после ответа сервера.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-app/internal/model"
	"github.com/BuzzLyutic/todo-app/internal/worker"
)

const (
	MsgLoadFailed   = "Failed to load tasks. Please check your connection."
	MsgCreateFailed = "Failed to create task. Please try again."
	MsgUpdateFailed = "Failed to update task. Please try again."
	MsgDeleteFailed = "Failed to delete task. Please try again."
)

var (
	ErrBusy        = errors.New("task operation already in progress")
	ErrUnknownTask = errors.New("task is not in the local list")
)

// API - то, что контроллеру нужно от HTTP-клиента
type API interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, text string) (model.Task, error)
	UpdateTask(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	Health(ctx context.Context) bool
}

type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPending, FilterCompleted:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q (want all, pending or completed)", s)
	}
}

func (f Filter) Matches(t model.Task) bool {
	switch f {
	case FilterPending:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// State - снимок состояния, читается без блокировок
type State struct {
	Tasks         []model.Task // отфильтрованный список
	FilteredStats model.Stats
	Stats         model.Stats // по всему списку
	IsLoading     bool
	Err           string
	IsOnline      bool
	SearchQuery   string
	ActiveFilter  Filter
	InFlight      map[int64]bool
}

type Controller struct {
	api          API
	logger       *zap.Logger
	pollInterval time.Duration

	mu       sync.Mutex
	tasks    []model.Task
	stats    model.Stats
	loading  bool
	errMsg   string
	online   bool
	query    string
	filter   Filter
	inFlight map[int64]struct{}
	subs     []chan struct{}
	poller   *worker.Poller
}

func New(api API, logger *zap.Logger, pollInterval time.Duration) *Controller {
	return &Controller{
		api:          api,
		logger:       logger,
		pollInterval: pollInterval,
		tasks:        []model.Task{},
		loading:      true,
		online:       true,
		filter:       FilterAll,
		inFlight:     make(map[int64]struct{}),
	}
}

// Subscribe: сигнал после каждого изменения, сигналы схлопываются
func (c *Controller) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()
	return ch
}

// вызывать под c.mu
func (c *Controller) notify() {
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := filterTasks(c.tasks, c.query, c.filter)
	inFlight := make(map[int64]bool, len(c.inFlight))
	for id := range c.inFlight {
		inFlight[id] = true
	}
	return State{
		Tasks:         view,
		FilteredStats: model.CountStats(view),
		Stats:         c.stats,
		IsLoading:     c.loading,
		Err:           c.errMsg,
		IsOnline:      c.online,
		SearchQuery:   c.query,
		ActiveFilter:  c.filter,
		InFlight:      inFlight,
	}
}

func (c *Controller) Filtered() []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return filterTasks(c.tasks, c.query, c.filter)
}

func (c *Controller) FilteredStats() model.Stats {
	return model.CountStats(c.Filtered())
}

func (c *Controller) Stats() model.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Controller) SetSearch(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = query
	c.notify()
}

func (c *Controller) SetFilter(f Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
	c.notify()
}

// Load заменяет список серверным и пересчитывает статистику целиком
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.errMsg = ""
	c.notify()
	c.mu.Unlock()

	tasks, err := c.api.ListTasks(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.notify()
	c.loading = false

	if err != nil {
		c.fail(MsgLoadFailed, "load tasks", err)
		return err
	}
	c.tasks = tasks
	c.stats = model.CountStats(tasks)
	c.online = true
	return nil
}

func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.notify()
	c.mu.Unlock()

	return c.Load(ctx)
}

func (c *Controller) Create(ctx context.Context, text string) (model.Task, error) {
	c.clearError()

	task, err := c.api.CreateTask(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.notify()

	if err != nil {
		c.fail(MsgCreateFailed, "create task", err)
		return model.Task{}, err
	}
	c.online = true

	// Load мог успеть принести эту задачу, пока шел запрос
	for i := range c.tasks {
		if c.tasks[i].ID == task.ID {
			c.shiftStats(c.tasks[i].Completed, task.Completed)
			c.tasks[i] = task
			return task, nil
		}
	}

	c.tasks = append([]model.Task{task}, c.tasks...)
	c.stats.Total++
	if task.Completed {
		c.stats.Completed++
	} else {
		c.stats.Pending++
	}
	return task, nil
}

func (c *Controller) Toggle(ctx context.Context, id int64) (model.Task, error) {
	c.mu.Lock()
	current, ok := c.find(id)
	c.mu.Unlock()
	if !ok {
		return model.Task{}, ErrUnknownTask
	}
	return c.SetCompleted(ctx, id, !current.Completed)
}

func (c *Controller) SetCompleted(ctx context.Context, id int64, completed bool) (model.Task, error) {
	if err := c.acquire(id); err != nil {
		return model.Task{}, err
	}
	defer c.release(id)

	updated, err := c.api.UpdateTask(ctx, id, model.TaskPatch{Completed: &completed})

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.notify()

	if err != nil {
		c.fail(MsgUpdateFailed, "update task", err)
		return model.Task{}, err
	}
	for i := range c.tasks {
		if c.tasks[i].ID != id {
			continue
		}
		c.shiftStats(c.tasks[i].Completed, updated.Completed)
		c.tasks[i] = updated
		break
	}
	c.online = true
	return updated, nil
}

func (c *Controller) Delete(ctx context.Context, id int64) error {
	if err := c.acquire(id); err != nil {
		return err
	}
	defer c.release(id)

	err := c.api.DeleteTask(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.notify()

	if err != nil {
		c.fail(MsgDeleteFailed, "delete task", err)
		return err
	}
	for i, t := range c.tasks {
		if t.ID != id {
			continue
		}
		c.tasks = append(c.tasks[:i:i], c.tasks[i+1:]...)
		c.stats.Total--
		if t.Completed {
			c.stats.Completed--
		} else {
			c.stats.Pending--
		}
		break
	}
	c.online = true
	return nil
}

// StartPolling трогает только флаг online
func (c *Controller) StartPolling(ctx context.Context) {
	c.mu.Lock()
	if c.poller != nil {
		c.mu.Unlock()
		return
	}
	c.poller = worker.NewPoller(c.api.Health, c.setOnline, c.pollInterval, c.logger)
	p := c.poller
	c.mu.Unlock()

	p.Start(ctx)
}

func (c *Controller) Close() {
	c.mu.Lock()
	p := c.poller
	c.mu.Unlock()

	if p != nil {
		p.Stop()
	}
}

func (c *Controller) setOnline(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.online == online {
		return
	}
	c.online = online
	c.notify()
}

func (c *Controller) clearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errMsg != "" {
		c.errMsg = ""
		c.notify()
	}
}

// вызывать под c.mu
func (c *Controller) fail(msg, op string, err error) {
	c.logger.Warn("API call failed", zap.String("op", op), zap.Error(err))
	c.errMsg = msg
	c.online = false
}

// вызывать под c.mu
func (c *Controller) shiftStats(prev, next bool) {
	switch {
	case prev == next:
	case next:
		c.stats.Completed++
		c.stats.Pending--
	default:
		c.stats.Completed--
		c.stats.Pending++
	}
}

// вызывать под c.mu
func (c *Controller) find(id int64) (model.Task, bool) {
	for _, t := range c.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (c *Controller) acquire(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[id]; busy {
		return ErrBusy
	}
	c.inFlight[id] = struct{}{}
	c.errMsg = ""
	c.notify()
	return nil
}

func (c *Controller) release(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, id)
	c.notify()
}

func filterTasks(tasks []model.Task, query string, f Filter) []model.Task {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if q != "" && !strings.Contains(strings.ToLower(t.Text), q) {
			continue
		}
		if !f.Matches(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
