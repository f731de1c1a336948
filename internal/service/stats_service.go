package service

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"loose-ends/internal/repository"
	"loose-ends/internal/timeutil"
)

// Scopes selects the windows shown on the stats page.
type Scopes struct {
	Stats   string `query:"stats" json:"stats" validate:"oneof=overall today"`
	Done    string `query:"done" json:"done" validate:"oneof=week month year"`
	Focused string `query:"focused" json:"focused" validate:"oneof=week month year"`
}

// WithDefaults fills empty scopes.
func (s Scopes) WithDefaults() Scopes {
	if s.Stats == "" {
		s.Stats = "overall"
	}
	if s.Done == "" {
		s.Done = "week"
	}
	if s.Focused == "" {
		s.Focused = "week"
	}
	return s
}

// ScopeError is returned for a scope value outside its allowed set.
type ScopeError struct {
	Field string
	Value string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("invalid %s scope %q", e.Field, e.Value)
}

type Summary struct {
	Scope   string `json:"scope"`
	Done    int64  `json:"done"`
	Focused string `json:"focused"`
}

type DoneWindow struct {
	Scope string `json:"scope"`
	Count int64  `json:"count"`
}

type FocusedWindow struct {
	Scope    string `json:"scope"`
	Duration string `json:"duration"`
}

// Stats is the payload of the stats page.
type Stats struct {
	Stats   Summary       `json:"stats"`
	Done    DoneWindow    `json:"done"`
	Focused FocusedWindow `json:"focused"`
}

// StatsService aggregates completion counts.
type StatsService struct {
	taskRepo *repository.TaskRepository
	validate *validator.Validate
}

func NewStatsService(taskRepo *repository.TaskRepository) *StatsService {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
	})
	return &StatsService{taskRepo: taskRepo, validate: v}
}

// Stats counts the user's done tasks for the requested scopes. Windows start at
// local midnight of the day, the week (Monday), the month or the year.
func (s *StatsService) Stats(ctx context.Context, userID string, scopes Scopes, day timeutil.Day) (Stats, error) {
	scopes = scopes.WithDefaults()
	if err := s.validate.Struct(scopes); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return Stats{}, &ScopeError{Field: errs[0].Field(), Value: fmt.Sprint(errs[0].Value())}
		}
		return Stats{}, err
	}

	var since *time.Time
	if scopes.Stats == "today" {
		start := day.Start()
		since = &start
	}
	done, err := s.taskRepo.CountChecked(ctx, userID, since)
	if err != nil {
		return Stats{}, err
	}

	from := windowStart(day, scopes.Done)
	inWindow, err := s.taskRepo.CountChecked(ctx, userID, &from)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Stats:   Summary{Scope: scopes.Stats, Done: done, Focused: FormatISODuration(0)},
		Done:    DoneWindow{Scope: scopes.Done, Count: inWindow},
		Focused: FocusedWindow{Scope: scopes.Focused, Duration: FormatISODuration(0)},
	}, nil
}

func windowStart(day timeutil.Day, scope string) time.Time {
	switch scope {
	case "month":
		return day.StartOfMonth()
	case "year":
		return day.StartOfYear()
	default:
		return day.StartOfWeek()
	}
}

// FormatISODuration renders d as an ISO-8601 duration such as PT1H30M.
func FormatISODuration(d time.Duration) string {
	if d <= 0 {
		return "PT0S"
	}
	d = d.Round(time.Second)

	var b strings.Builder
	b.WriteString("PT")
	if h := d / time.Hour; h > 0 {
		fmt.Fprintf(&b, "%dH", h)
		d -= h * time.Hour
	}
	if m := d / time.Minute; m > 0 {
		fmt.Fprintf(&b, "%dM", m)
		d -= m * time.Minute
	}
	if s := d / time.Second; s > 0 {
		fmt.Fprintf(&b, "%dS", s)
	}
	return b.String()
}
