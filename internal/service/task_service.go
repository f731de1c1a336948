package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"loose-ends/internal/command"
	"loose-ends/internal/model"
	"loose-ends/internal/repository"
)

// ErrorKind classifies a failed command for the transport layer.
type ErrorKind int

const (
	// KindInvalid means the input did not decode into a command.
	KindInvalid ErrorKind = iota + 1
	// KindNotFound means the target task is missing or owned by someone else.
	KindNotFound
	// KindUnprocessable means the store rejected the command.
	KindUnprocessable
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindUnprocessable:
		return "unprocessable"
	default:
		return "unknown"
	}
}

// CommandError reports which command failed and how.
type CommandError struct {
	Command command.Name
	Kind    ErrorKind
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Command, e.Kind, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a successful command.
type Result struct {
	ID      string
	Command command.Name
	// EndSession is set when the account is gone and the session must be cleared.
	EndSession bool
}

// TaskService dispatches user commands to the repositories.
type TaskService struct {
	taskRepo *repository.TaskRepository
	userRepo *repository.UserRepository
	now      func() time.Time
}

func NewTaskService(taskRepo *repository.TaskRepository, userRepo *repository.UserRepository, now func() time.Time) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{taskRepo: taskRepo, userRepo: userRepo, now: now}
}

// Execute decodes raw form values and runs the resulting command for the user.
func (s *TaskService) Execute(ctx context.Context, userID string, values map[string]string) (Result, error) {
	cmd, err := command.Decode(values)
	if err != nil {
		return Result{}, &CommandError{Command: command.Unknown, Kind: KindInvalid, Err: err}
	}
	return s.Dispatch(ctx, userID, cmd)
}

// Dispatch runs an already decoded command. Every task statement is scoped by userID.
func (s *TaskService) Dispatch(ctx context.Context, userID string, cmd command.Command) (Result, error) {
	if cmd == nil {
		return Result{}, &CommandError{Command: command.Unknown, Kind: KindInvalid, Err: errors.New("missing command")}
	}
	now := s.now().UTC()
	result := Result{Command: cmd.Name()}

	var err error
	switch c := cmd.(type) {
	case command.Create:
		task := model.Task{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     c.Title,
			CreatedAt: now,
		}
		err = s.taskRepo.Create(ctx, &task)
		result.ID = task.ID
	case command.Delete:
		err = s.taskRepo.Delete(ctx, userID, c.ID)
		result.ID = c.ID
	case command.SetChecked:
		var checkedAt *time.Time
		if c.Checked {
			checkedAt = &now
		}
		err = s.taskRepo.SetChecked(ctx, userID, c.ID, checkedAt)
		result.ID = c.ID
	case command.SetPinned:
		err = s.taskRepo.SetPinned(ctx, userID, c.ID, now)
		result.ID = c.ID
	case command.SetTitle:
		err = s.taskRepo.SetTitle(ctx, userID, c.ID, c.Title)
		result.ID = c.ID
	case command.DeleteAccount:
		err = s.userRepo.DeleteWithTasks(ctx, userID)
		result.ID = userID
		result.EndSession = true
	default:
		return Result{}, &CommandError{
			Command: command.Unknown,
			Kind:    KindInvalid,
			Err:     fmt.Errorf("unsupported command %T", cmd),
		}
	}

	if err != nil {
		kind := KindUnprocessable
		if errors.Is(err, repository.ErrNotFound) {
			kind = KindNotFound
		}
		return Result{}, &CommandError{Command: cmd.Name(), Kind: kind, Err: err}
	}
	return result, nil
}
