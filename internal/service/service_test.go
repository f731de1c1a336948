package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"loose-ends/internal/command"
	"loose-ends/internal/planner"
	"loose-ends/internal/repository"
	"loose-ends/internal/timeutil"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.Migrate(db))
	return db
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTaskService(t *testing.T) (*TaskService, *repository.TaskRepository, *repository.UserRepository, *clock) {
	t.Helper()
	db := setupTestDB(t)
	tasks := repository.NewTaskRepository(db)
	users := repository.NewUserRepository(db)
	c := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewTaskService(tasks, users, c.Now), tasks, users, c
}

func TestTaskService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc, tasks, _, c := newTaskService(t)

	created, err := svc.Execute(ctx, "alice", map[string]string{"command": "TodoCreate", "title": "water plants"})
	require.NoError(t, err)
	assert.Equal(t, command.NameCreate, created.Command)
	_, err = uuid.Parse(created.ID)
	require.NoError(t, err)

	task, err := tasks.FindByID(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "water plants", task.Title)
	assert.True(t, task.CreatedAt.Equal(c.now))

	c.now = c.now.Add(time.Hour)
	res, err := svc.Execute(ctx, "alice", map[string]string{"command": "TodoSetChecked", "id": created.ID, "checked": "true"})
	require.NoError(t, err)
	assert.Equal(t, Result{ID: created.ID, Command: command.NameSetChecked}, res)

	_, err = svc.Execute(ctx, "alice", map[string]string{"command": "TodoSetPinned", "id": created.ID})
	require.NoError(t, err)
	_, err = svc.Execute(ctx, "alice", map[string]string{"command": "TodoSetTitle", "id": created.ID, "title": ""})
	require.NoError(t, err)

	task, err = tasks.FindByID(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "", task.Title)
	require.NotNil(t, task.CheckedAt)
	assert.True(t, task.CheckedAt.Equal(c.now))
	require.NotNil(t, task.PinnedAt)
	assert.True(t, task.PinnedAt.Equal(c.now))

	_, err = svc.Execute(ctx, "alice", map[string]string{"command": "TodoSetChecked", "id": created.ID, "checked": "false"})
	require.NoError(t, err)
	task, err = tasks.FindByID(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Nil(t, task.CheckedAt)

	res, err = svc.Execute(ctx, "alice", map[string]string{"command": "TodoDelete", "id": created.ID})
	require.NoError(t, err)
	assert.Equal(t, command.NameDelete, res.Command)
	_, err = tasks.FindByID(ctx, "alice", created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTaskService_Errors(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTaskService(t)

	created, err := svc.Execute(ctx, "alice", map[string]string{"command": "TodoCreate"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		userID   string
		values   map[string]string
		wantName command.Name
		wantKind ErrorKind
	}{
		{"unknown command", "alice", map[string]string{"command": "TodoArchive"}, command.Unknown, KindInvalid},
		{"malformed id", "alice", map[string]string{"command": "TodoDelete", "id": "1"}, command.Unknown, KindInvalid},
		{"missing task", "alice", map[string]string{"command": "TodoDelete", "id": uuid.NewString()}, command.NameDelete, KindNotFound},
		{"someone else's task", "bob", map[string]string{"command": "TodoSetPinned", "id": created.ID}, command.NameSetPinned, KindNotFound},
		{"someone else's title", "bob", map[string]string{"command": "TodoSetTitle", "id": created.ID, "title": "x"}, command.NameSetTitle, KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Execute(ctx, tt.userID, tt.values)
			var cmdErr *CommandError
			require.ErrorAs(t, err, &cmdErr)
			assert.Equal(t, tt.wantName, cmdErr.Command)
			assert.Equal(t, tt.wantKind, cmdErr.Kind)
		})
	}
}

func TestTaskService_DispatchNilCommand(t *testing.T) {
	svc, _, _, _ := newTaskService(t)

	_, err := svc.Dispatch(context.Background(), "alice", nil)
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, command.Unknown, cmdErr.Command)
	assert.Equal(t, KindInvalid, cmdErr.Kind)
}

func TestTaskService_StoreFailureIsUnprocessable(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewTaskService(repository.NewTaskRepository(db), repository.NewUserRepository(db), nil)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.Execute(ctx, "alice", map[string]string{"command": "TodoCreate", "title": "x"})
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, KindUnprocessable, cmdErr.Kind)
	assert.Equal(t, command.NameCreate, cmdErr.Command)
}

func TestTaskService_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	svc, tasks, users, _ := newTaskService(t)

	_, err := users.UpsertFromGitHub(ctx, "42", "octocat", "")
	require.NoError(t, err)
	created, err := svc.Execute(ctx, "42", map[string]string{"command": "TodoCreate"})
	require.NoError(t, err)
	other, err := svc.Execute(ctx, "7", map[string]string{"command": "TodoCreate"})
	require.NoError(t, err)

	res, err := svc.Execute(ctx, "42", map[string]string{"command": "DeleteAccount"})
	require.NoError(t, err)
	assert.Equal(t, Result{ID: "42", Command: command.NameDeleteAccount, EndSession: true}, res)

	_, err = tasks.FindByID(ctx, "42", created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = users.FindByID(ctx, "42")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = tasks.FindByID(ctx, "7", other.ID)
	assert.NoError(t, err)
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "invalid", KindInvalid.String())
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "unprocessable", KindUnprocessable.String())
	assert.Equal(t, "unknown", ErrorKind(0).String())
}

func TestBoardService_Board(t *testing.T) {
	ctx := context.Background()
	svc, tasks, _, c := newTaskService(t)
	board := NewBoardService(tasks, nil)

	// Created three days ago, still open: a loose end.
	c.now = time.Date(2023, 12, 29, 12, 0, 0, 0, time.UTC)
	old, err := svc.Execute(ctx, "alice", map[string]string{"command": "TodoCreate", "title": "old"})
	require.NoError(t, err)

	c.now = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	first, err := svc.Execute(ctx, "alice", map[string]string{"command": "TodoCreate", "title": "first"})
	require.NoError(t, err)
	c.now = c.now.Add(time.Hour)
	second, err := svc.Execute(ctx, "alice", map[string]string{"command": "TodoCreate", "title": "second"})
	require.NoError(t, err)

	day := timeutil.NewDay(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), time.UTC)
	view, err := board.Board(ctx, "alice", day, "en", nil)
	require.NoError(t, err)

	assert.Equal(t, "UTC", view.Timezone)
	assert.Equal(t, "January 1, 2024", view.Date)
	require.Len(t, view.OnDeck, 2)
	assert.Equal(t, second.ID, view.OnDeck[0].ID)
	assert.Equal(t, first.ID, view.OnDeck[1].ID)
	assert.Equal(t, 2, view.OnDeckCount)
	require.Len(t, view.LooseEnds, 1)
	assert.Equal(t, old.ID, view.LooseEnds[0].ID)
	assert.Equal(t, "3 days ago", view.LooseEnds[0].Ago)
	assert.Equal(t, 1, view.LooseEndsCount)

	// Pinning the loose end moves it on deck; deleting a task hides it.
	pending := planner.PendingOf(
		command.SetPinned{ID: old.ID},
		command.Delete{ID: first.ID},
	)
	view, err = board.Board(ctx, "alice", day, "en", pending)
	require.NoError(t, err)
	require.Len(t, view.OnDeck, 3)
	assert.Equal(t, 2, view.OnDeckCount)
	assert.Empty(t, view.LooseEnds)
	assert.Zero(t, view.LooseEndsCount)
}

func TestBoardService_RepinnedLooseEndAge(t *testing.T) {
	ctx := context.Background()
	svc, tasks, _, c := newTaskService(t)
	board := NewBoardService(tasks, nil)

	c.now = time.Date(2023, 12, 29, 12, 0, 0, 0, time.UTC)
	created, err := svc.Execute(ctx, "alice", map[string]string{"command": "TodoCreate", "title": "old"})
	require.NoError(t, err)

	c.now = time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC)
	_, err = svc.Execute(ctx, "alice", map[string]string{"command": "TodoSetPinned", "id": created.ID})
	require.NoError(t, err)

	day := timeutil.NewDay(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), time.UTC)
	view, err := board.Board(ctx, "alice", day, "en", nil)
	require.NoError(t, err)

	require.Len(t, view.LooseEnds, 1)
	assert.Equal(t, created.ID, view.LooseEnds[0].ID)
	assert.Equal(t, "yesterday", view.LooseEnds[0].Ago)
}

func TestBoardService_EmptyLists(t *testing.T) {
	db := setupTestDB(t)
	board := NewBoardService(repository.NewTaskRepository(db), timeutil.NewFormatters())

	view, err := board.Board(context.Background(), "nobody", timeutil.NewDay(time.Now(), nil), "en", nil)
	require.NoError(t, err)
	assert.NotNil(t, view.OnDeck)
	assert.NotNil(t, view.LooseEnds)
}

func TestStatsService_Stats(t *testing.T) {
	ctx := context.Background()
	svc, tasks, _, c := newTaskService(t)
	stats := NewStatsService(tasks)

	check := func(at time.Time) {
		c.now = at.Add(-time.Minute)
		res, err := svc.Execute(ctx, "alice", map[string]string{"command": "TodoCreate"})
		require.NoError(t, err)
		c.now = at
		_, err = svc.Execute(ctx, "alice", map[string]string{"command": "TodoSetChecked", "id": res.ID, "checked": "true"})
		require.NoError(t, err)
	}

	// Wednesday, May 15th 2024.
	now := time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)
	// One task each: today, earlier this week, this month, this year, last year.
	check(now.Add(-time.Hour))
	check(time.Date(2024, 5, 13, 8, 0, 0, 0, time.UTC))
	check(time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC))
	check(time.Date(2024, 2, 2, 8, 0, 0, 0, time.UTC))
	check(time.Date(2023, 2, 2, 8, 0, 0, 0, time.UTC))
	day := timeutil.NewDay(now, time.UTC)

	got, err := stats.Stats(ctx, "alice", Scopes{}, day)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Stats:   Summary{Scope: "overall", Done: 5, Focused: "PT0S"},
		Done:    DoneWindow{Scope: "week", Count: 2},
		Focused: FocusedWindow{Scope: "week", Duration: "PT0S"},
	}, got)

	got, err = stats.Stats(ctx, "alice", Scopes{Stats: "today", Done: "month", Focused: "year"}, day)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Stats.Done)
	assert.Equal(t, int64(3), got.Done.Count)
	assert.Equal(t, "year", got.Focused.Scope)

	got, err = stats.Stats(ctx, "alice", Scopes{Done: "year"}, day)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Done.Count)
}

func TestStatsService_RejectsBadScope(t *testing.T) {
	stats := NewStatsService(repository.NewTaskRepository(setupTestDB(t)))

	_, err := stats.Stats(context.Background(), "alice", Scopes{Done: "decade"}, timeutil.NewDay(time.Now(), nil))
	var scopeErr *ScopeError
	require.ErrorAs(t, err, &scopeErr)
	assert.Equal(t, "done", scopeErr.Field)
	assert.Equal(t, "decade", scopeErr.Value)
}

func TestFormatISODuration(t *testing.T) {
	assert.Equal(t, "PT0S", FormatISODuration(0))
	assert.Equal(t, "PT45S", FormatISODuration(45*time.Second))
	assert.Equal(t, "PT1H30M", FormatISODuration(90*time.Minute))
	assert.Equal(t, "PT2H5S", FormatISODuration(2*time.Hour+5*time.Second))
}

func TestScheduler_ScheduleInterval(t *testing.T) {
	scheduler := NewSchedulerService(time.UTC, zap.NewNop())

	_, err := scheduler.ScheduleInterval(0, func() {})
	assert.Error(t, err)

	_, err = scheduler.ScheduleInterval(time.Minute, func() {})
	require.NoError(t, err)
	assert.Equal(t, 1, scheduler.Jobs())

	scheduler.Start()
	assert.NoError(t, scheduler.Stop(context.Background()))
}

func TestLoginStateSweeper(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewLoginStateRepository(setupTestDB(t))
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	core, logs := observer.New(zap.InfoLevel)

	_, err := repo.Issue(ctx, now.Add(-time.Hour), 10*time.Minute)
	require.NoError(t, err)
	fresh, err := repo.Issue(ctx, now, 10*time.Minute)
	require.NoError(t, err)

	sweeper := NewLoginStateSweeper(repo, func() time.Time { return now }, zap.New(core))
	removed, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 1, logs.FilterMessage("swept login states").Len())

	assert.NoError(t, repo.Consume(ctx, fresh, now))

	scheduler := NewSchedulerService(time.UTC, zap.NewNop())
	require.NoError(t, sweeper.Schedule(scheduler, 10*time.Minute))
	assert.Equal(t, 1, scheduler.Jobs())
	assert.Error(t, sweeper.Schedule(scheduler, 0))
}
