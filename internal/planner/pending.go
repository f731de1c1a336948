package planner

import (
	"time"

	"loose-ends/internal/command"
	"loose-ends/internal/model"
)

// Pending holds at most one unconfirmed mutation per task id.
type Pending map[string]command.Targeted

// PendingOf builds a Pending set from commands in the order they were issued.
func PendingOf(cmds ...command.Targeted) Pending {
	p := make(Pending, len(cmds))
	for _, c := range cmds {
		p.Track(c)
	}
	return p
}

// Track records c as the outstanding mutation for its task, replacing any
// earlier one.
func (p Pending) Track(c command.Targeted) {
	p[c.TaskID()] = c
}

// Settle drops the outstanding mutation for id once its outcome is known. A
// newer mutation of a different kind for the same task is left in place.
func (p Pending) Settle(id string, name command.Name) {
	if c, ok := p[id]; ok && c.Name() == name {
		delete(p, id)
	}
}

// Project returns the task as it will look once its pending mutation is
// confirmed. The input task is not modified.
func Project(task model.Task, pending Pending, now time.Time) model.Task {
	c, ok := pending[task.ID]
	if !ok {
		return task
	}

	now = now.UTC()
	switch c := c.(type) {
	case command.SetTitle:
		task.Title = c.Title
	case command.SetChecked:
		if c.Checked {
			task.CheckedAt = &now
		} else {
			task.CheckedAt = nil
		}
	case command.SetPinned:
		task.PinnedAt = &now
	case command.Delete:
		task.Hidden = true
	}
	return task
}

// ProjectAll applies Project to every task of the snapshot.
func ProjectAll(snapshot []model.Task, pending Pending, now time.Time) []model.Task {
	out := make([]model.Task, len(snapshot))
	for i, task := range snapshot {
		out[i] = Project(task, pending, now)
	}
	return out
}
