package planner

import (
	"sort"
	"time"

	"loose-ends/internal/model"
	"loose-ends/internal/timeutil"
)

// Board is the partitioned, ordered view of a user's tasks for one day.
// Tasks hidden by a pending delete stay in their partition but are not
// counted.
type Board struct {
	OnDeck         []model.Task
	OnDeckCount    int
	LooseEnds      []model.Task
	LooseEndsCount int
}

// Build projects pending mutations onto the snapshot, partitions the result
// and sorts each partition for display.
func Build(snapshot []model.Task, pending Pending, day timeutil.Day) Board {
	projected := ProjectAll(snapshot, pending, day.Now())

	var board Board
	board.OnDeck = filter(SortOnDeck(projected), func(t model.Task) bool {
		return IsRelevantToday(t, day)
	})
	board.LooseEnds = filter(SortLooseEnds(projected), func(t model.Task) bool {
		return IsLooseEnd(t, day)
	})
	board.OnDeckCount = visible(board.OnDeck)
	board.LooseEndsCount = visible(board.LooseEnds)
	return board
}

// SortOnDeck orders by checkedAt descending (unchecked first), pinnedAt
// ascending (unpinned first), then newest first.
func SortOnDeck(tasks []model.Task) []model.Task {
	return sortTasks(tasks, true)
}

// SortLooseEnds uses the on-deck keys except that the oldest task comes first.
func SortLooseEnds(tasks []model.Task) []model.Task {
	return sortTasks(tasks, false)
}

func sortTasks(tasks []model.Task, newestFirst bool) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := compareNilFirst(a.CheckedAt, b.CheckedAt, true); c != 0 {
			return c < 0
		}
		if c := compareNilFirst(a.PinnedAt, b.PinnedAt, false); c != 0 {
			return c < 0
		}
		if newestFirst {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}

// compareNilFirst puts nil ahead of any instant, then orders instants in the
// requested direction.
func compareNilFirst(a, b *time.Time, descending bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case descending:
		return b.Compare(*a)
	}
	return a.Compare(*b)
}

func filter(tasks []model.Task, keep func(model.Task) bool) []model.Task {
	out := tasks[:0]
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func visible(tasks []model.Task) int {
	n := 0
	for _, t := range tasks {
		if !t.Hidden {
			n++
		}
	}
	return n
}
