package service

import (
	"context"

	"loose-ends/internal/model"
	"loose-ends/internal/planner"
	"loose-ends/internal/repository"
	"loose-ends/internal/timeutil"
)

// LooseEnd is a carried-over task with a human readable age.
type LooseEnd struct {
	model.Task
	Ago string `json:"ago"`
}

// BoardView is the day's board as served to clients.
type BoardView struct {
	Timezone       string       `json:"timezone"`
	Date           string       `json:"date"`
	OnDeck         []model.Task `json:"onDeck"`
	OnDeckCount    int          `json:"onDeckCount"`
	LooseEnds      []LooseEnd   `json:"looseEnds"`
	LooseEndsCount int          `json:"looseEndsCount"`
}

// BoardService builds the on-deck and loose-ends lists for a user's day.
type BoardService struct {
	taskRepo   *repository.TaskRepository
	formatters *timeutil.Formatters
}

func NewBoardService(taskRepo *repository.TaskRepository, formatters *timeutil.Formatters) *BoardService {
	if formatters == nil {
		formatters = timeutil.NewFormatters()
	}
	return &BoardService{taskRepo: taskRepo, formatters: formatters}
}

// Board loads the user's candidate tasks for the day, applies pending commands
// and partitions the result. pending may be nil.
func (s *BoardService) Board(ctx context.Context, userID string, day timeutil.Day, locale string, pending planner.Pending) (BoardView, error) {
	tasks, err := s.taskRepo.ListForDay(ctx, userID, day.Start())
	if err != nil {
		return BoardView{}, err
	}

	board := planner.Build(tasks, pending, day)

	looseEnds := make([]LooseEnd, 0, len(board.LooseEnds))
	for _, task := range board.LooseEnds {
		// Re-pinning an old task restarts its age.
		since := timeutil.Max(task.CreatedAt, task.PinnedAt)
		looseEnds = append(looseEnds, LooseEnd{
			Task: task,
			Ago:  s.formatters.TimeAgo(since, locale, day.Location(), day.Now()),
		})
	}

	onDeck := board.OnDeck
	if onDeck == nil {
		onDeck = []model.Task{}
	}

	return BoardView{
		Timezone:       day.Location().String(),
		Date:           s.formatters.DateFull(locale, day.Location(), day.Now()),
		OnDeck:         onDeck,
		OnDeckCount:    board.OnDeckCount,
		LooseEnds:      looseEnds,
		LooseEndsCount: board.LooseEndsCount,
	}, nil
}
