package model

import "time"

// LoginState is a one-shot OAuth state nonce.
type LoginState struct {
	State     string    `gorm:"primaryKey;type:text"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}
