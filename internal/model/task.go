package model

import "time"

// Task is a single day-scoped item on a user's list.
type Task struct {
	ID        string     `gorm:"primaryKey;type:text" json:"id"`
	UserID    string     `gorm:"index;not null" json:"-"`
	Title     string     `gorm:"not null;default:''" json:"title"`
	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
	CheckedAt *time.Time `json:"checkedAt"`
	PinnedAt  *time.Time `json:"pinnedAt"`

	// Hidden is a view flag set while projecting pending mutations.
	Hidden bool `gorm:"-" json:"hidden,omitempty"`
}

// Checked reports whether the task is marked done.
func (t Task) Checked() bool {
	return t.CheckedAt != nil
}
