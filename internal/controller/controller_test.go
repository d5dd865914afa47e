package controller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-app/internal/model"
)

type MockAPI struct {
	mock.Mock
	healthy atomic.Bool
}

func (m *MockAPI) ListTasks(ctx context.Context) ([]model.Task, error) {
	args := m.Called(ctx)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *MockAPI) CreateTask(ctx context.Context, text string) (model.Task, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockAPI) UpdateTask(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockAPI) DeleteTask(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPI) Health(ctx context.Context) bool {
	return m.healthy.Load()
}

var errOffline = errors.New("connection refused")

func seed() []model.Task {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []model.Task{
		{ID: 1, Text: "Buy milk", CreatedAt: now, UpdatedAt: now},
		{ID: 2, Text: "Walk the dog", Completed: true, CreatedAt: now, UpdatedAt: now},
		{ID: 3, Text: "buy bread", CreatedAt: now, UpdatedAt: now},
	}
}

func loaded(t *testing.T) (*Controller, *MockAPI) {
	t.Helper()
	api := new(MockAPI)
	api.On("ListTasks", mock.Anything).Return(seed(), nil).Once()

	c := New(api, zap.NewNop(), time.Hour)
	require.NoError(t, c.Load(context.Background()))
	return c, api
}

func boolPtr(b bool) *bool { return &b }

func TestController_InitialState(t *testing.T) {
	c := New(new(MockAPI), zap.NewNop(), time.Hour)
	s := c.Snapshot()

	assert.True(t, s.IsLoading)
	assert.True(t, s.IsOnline)
	assert.Empty(t, s.Err)
	assert.Equal(t, FilterAll, s.ActiveFilter)
	assert.Empty(t, s.Tasks)
}

func TestController_Load(t *testing.T) {
	c, api := loaded(t)
	s := c.Snapshot()

	assert.False(t, s.IsLoading)
	assert.True(t, s.IsOnline)
	assert.Len(t, s.Tasks, 3)
	assert.Equal(t, model.Stats{Total: 3, Completed: 1, Pending: 2}, s.Stats)
	api.AssertExpectations(t)
}

func TestController_LoadFailure(t *testing.T) {
	api := new(MockAPI)
	api.On("ListTasks", mock.Anything).Return(nil, errOffline).Once()
	c := New(api, zap.NewNop(), time.Hour)

	err := c.Load(context.Background())
	require.ErrorIs(t, err, errOffline)

	s := c.Snapshot()
	assert.False(t, s.IsLoading)
	assert.False(t, s.IsOnline)
	assert.Equal(t, MsgLoadFailed, s.Err)
	assert.Empty(t, s.Tasks)

	t.Run("retry recovers", func(t *testing.T) {
		api.On("ListTasks", mock.Anything).Return(seed(), nil).Once()

		require.NoError(t, c.Retry(context.Background()))
		s := c.Snapshot()
		assert.Empty(t, s.Err)
		assert.True(t, s.IsOnline)
		assert.False(t, s.IsLoading)
		assert.Len(t, s.Tasks, 3)
	})
}

func TestController_Create(t *testing.T) {
	c, api := loaded(t)
	created := model.Task{ID: 10, Text: "New one"}
	api.On("CreateTask", mock.Anything, "New one").Return(created, nil).Once()

	got, err := c.Create(context.Background(), "New one")
	require.NoError(t, err)
	assert.Equal(t, created, got)

	s := c.Snapshot()
	assert.Equal(t, int64(10), s.Tasks[0].ID, "new task is prepended")
	assert.Equal(t, model.Stats{Total: 4, Completed: 1, Pending: 3}, s.Stats)
}

func TestController_CreateDuringLoad(t *testing.T) {
	api := new(MockAPI)
	c := New(api, zap.NewNop(), time.Hour)

	created := model.Task{ID: 99, Text: "Racing"}
	entered := make(chan struct{})
	release := make(chan struct{})
	api.On("CreateTask", mock.Anything, "Racing").
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(created, nil).Once()
	api.On("ListTasks", mock.Anything).Return([]model.Task{created}, nil).Once()

	errc := make(chan error, 1)
	go func() {
		_, err := c.Create(context.Background(), "Racing")
		errc <- err
	}()
	<-entered

	// the server list already has the task when the create response lands
	require.NoError(t, c.Load(context.Background()))
	close(release)
	require.NoError(t, <-errc)

	s := c.Snapshot()
	require.Len(t, s.Tasks, 1)
	assert.Equal(t, int64(99), s.Tasks[0].ID)
	assert.Equal(t, model.Stats{Total: 1, Completed: 0, Pending: 1}, s.Stats)
	api.AssertExpectations(t)
}

func TestController_MutationFailureLeavesState(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(api *MockAPI)
		run     func(c *Controller) error
		wantMsg string
	}{
		{
			name: "create",
			setup: func(api *MockAPI) {
				api.On("CreateTask", mock.Anything, "x").Return(model.Task{}, errOffline)
			},
			run: func(c *Controller) error {
				_, err := c.Create(context.Background(), "x")
				return err
			},
			wantMsg: MsgCreateFailed,
		},
		{
			name: "toggle",
			setup: func(api *MockAPI) {
				api.On("UpdateTask", mock.Anything, int64(1), model.TaskPatch{Completed: boolPtr(true)}).
					Return(model.Task{}, errOffline)
			},
			run: func(c *Controller) error {
				_, err := c.Toggle(context.Background(), 1)
				return err
			},
			wantMsg: MsgUpdateFailed,
		},
		{
			name: "delete",
			setup: func(api *MockAPI) {
				api.On("DeleteTask", mock.Anything, int64(2)).Return(errOffline)
			},
			run: func(c *Controller) error {
				return c.Delete(context.Background(), 2)
			},
			wantMsg: MsgDeleteFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, api := loaded(t)
			before := c.Snapshot()
			tt.setup(api)

			err := tt.run(c)
			require.ErrorIs(t, err, errOffline)

			after := c.Snapshot()
			assert.Equal(t, tt.wantMsg, after.Err)
			assert.False(t, after.IsOnline)
			assert.Equal(t, before.Tasks, after.Tasks)
			assert.Equal(t, before.Stats, after.Stats)
			assert.Empty(t, after.InFlight)
		})
	}
}

func TestController_Toggle(t *testing.T) {
	c, api := loaded(t)

	done := seed()[0]
	done.Completed = true
	done.UpdatedAt = done.UpdatedAt.Add(time.Second)
	api.On("UpdateTask", mock.Anything, int64(1), model.TaskPatch{Completed: boolPtr(true)}).Return(done, nil).Once()

	got, err := c.Toggle(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, model.Stats{Total: 3, Completed: 2, Pending: 1}, c.Stats())

	undone := done
	undone.Completed = false
	api.On("UpdateTask", mock.Anything, int64(1), model.TaskPatch{Completed: boolPtr(false)}).Return(undone, nil).Once()

	_, err = c.Toggle(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, model.Stats{Total: 3, Completed: 1, Pending: 2}, c.Stats())

	_, err = c.Toggle(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUnknownTask)
	api.AssertExpectations(t)
}

func TestController_SetCompletedNoChange(t *testing.T) {
	c, api := loaded(t)
	same := seed()[1]
	api.On("UpdateTask", mock.Anything, int64(2), model.TaskPatch{Completed: boolPtr(true)}).Return(same, nil).Once()

	_, err := c.SetCompleted(context.Background(), 2, true)
	require.NoError(t, err)
	assert.Equal(t, model.Stats{Total: 3, Completed: 1, Pending: 2}, c.Stats())
}

func TestController_Delete(t *testing.T) {
	c, api := loaded(t)
	api.On("DeleteTask", mock.Anything, int64(2)).Return(nil).Once()
	api.On("DeleteTask", mock.Anything, int64(1)).Return(nil).Once()

	require.NoError(t, c.Delete(context.Background(), 2))
	assert.Equal(t, model.Stats{Total: 2, Completed: 0, Pending: 2}, c.Stats())

	require.NoError(t, c.Delete(context.Background(), 1))
	assert.Equal(t, model.Stats{Total: 1, Completed: 0, Pending: 1}, c.Stats())

	s := c.Snapshot()
	require.Len(t, s.Tasks, 1)
	assert.Equal(t, int64(3), s.Tasks[0].ID)
	assert.Equal(t, s.Stats.Total, s.Stats.Completed+s.Stats.Pending)
}

func TestController_BusyGuard(t *testing.T) {
	c, api := loaded(t)

	release := make(chan struct{})
	entered := make(chan struct{})
	api.On("DeleteTask", mock.Anything, int64(1)).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(nil).Once()

	errc := make(chan error, 1)
	go func() { errc <- c.Delete(context.Background(), 1) }()
	<-entered

	assert.True(t, c.Snapshot().InFlight[1])

	_, err := c.Toggle(context.Background(), 1)
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, c.Delete(context.Background(), 1), ErrBusy)

	close(release)
	require.NoError(t, <-errc)
	assert.Empty(t, c.Snapshot().InFlight)
	api.AssertNumberOfCalls(t, "DeleteTask", 1)
	api.AssertNotCalled(t, "UpdateTask", mock.Anything, mock.Anything, mock.Anything)
}

func TestController_Filtering(t *testing.T) {
	c, _ := loaded(t)

	tests := []struct {
		name    string
		query   string
		filter  Filter
		wantIDs []int64
	}{
		{name: "all", query: "", filter: FilterAll, wantIDs: []int64{1, 2, 3}},
		{name: "blank query ignored", query: "   ", filter: FilterAll, wantIDs: []int64{1, 2, 3}},
		{name: "case insensitive", query: "  BUY ", filter: FilterAll, wantIDs: []int64{1, 3}},
		{name: "pending", query: "", filter: FilterPending, wantIDs: []int64{1, 3}},
		{name: "completed", query: "", filter: FilterCompleted, wantIDs: []int64{2}},
		{name: "query and filter", query: "dog", filter: FilterPending, wantIDs: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.SetSearch(tt.query)
			c.SetFilter(tt.filter)

			got := []int64{}
			for _, task := range c.Filtered() {
				got = append(got, task.ID)
			}
			assert.Equal(t, tt.wantIDs, got)

			fs := c.FilteredStats()
			assert.Equal(t, len(tt.wantIDs), fs.Total)
			assert.Equal(t, fs.Total, fs.Completed+fs.Pending)
			// unfiltered stats ignore the filter
			assert.Equal(t, 3, c.Stats().Total)
		})
	}
}

func TestParseFilter(t *testing.T) {
	for in, want := range map[string]Filter{"": FilterAll, "all": FilterAll, "Pending": FilterPending, " completed ": FilterCompleted} {
		got, err := ParseFilter(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFilter("done")
	assert.Error(t, err)
}

func TestController_Subscribe(t *testing.T) {
	c := New(new(MockAPI), zap.NewNop(), time.Hour)
	ch := c.Subscribe()

	c.SetSearch("milk")
	c.SetFilter(FilterPending)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no change signal")
	}
	// signals are coalesced
	select {
	case <-ch:
		t.Fatal("expected coalesced signal")
	default:
	}
}

func TestController_Polling(t *testing.T) {
	api := new(MockAPI)
	c := New(api, zap.NewNop(), 5*time.Millisecond)

	c.StartPolling(context.Background())
	require.Eventually(t, func() bool { return !c.Snapshot().IsOnline }, time.Second, time.Millisecond)

	api.healthy.Store(true)
	require.Eventually(t, func() bool { return c.Snapshot().IsOnline }, time.Second, time.Millisecond)

	c.Close()
	api.healthy.Store(false)
	time.Sleep(20 * time.Millisecond)
	assert.True(t, c.Snapshot().IsOnline, "no updates after Close")

	// polling never touches tasks
	api.AssertNotCalled(t, "ListTasks", mock.Anything)
}
