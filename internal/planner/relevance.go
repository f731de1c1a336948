// Package planner decides which tasks belong on today's list and which are
// loose ends from earlier days.
//
// Visibility is a function of the clock: a task drops off the on-deck list at
// local midnight without anything being written to the store.
package planner

import (
	"loose-ends/internal/model"
	"loose-ends/internal/timeutil"
)

// IsRelevantToday reports whether the task belongs on today's list: it was
// created today, or it was pinned today and is not done on an earlier day.
func IsRelevantToday(task model.Task, day timeutil.Day) bool {
	if day.Contains(task.CreatedAt) {
		return true
	}
	return isPinnedToday(task, day) && isUncheckedOrCheckedToday(task, day)
}

// IsLooseEnd reports whether the task is still actionable but not on today's
// list. It never overlaps with IsRelevantToday.
func IsLooseEnd(task model.Task, day timeutil.Day) bool {
	return !IsRelevantToday(task, day) && isUncheckedOrCheckedToday(task, day)
}

func isUncheckedOrCheckedToday(task model.Task, day timeutil.Day) bool {
	return task.CheckedAt == nil || day.Contains(*task.CheckedAt)
}

func isPinnedToday(task model.Task, day timeutil.Day) bool {
	return day.ContainsPtr(task.PinnedAt)
}
