package model

import "time"

// User stores the identity returned by the OAuth provider.
type User struct {
	ID        string `gorm:"primaryKey;type:text"`
	Login     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName prefers the profile name and falls back to the login handle.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}
