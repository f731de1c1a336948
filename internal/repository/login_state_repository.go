package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"loose-ends/internal/model"
)

// LoginStateRepository stores one-shot OAuth state nonces.
type LoginStateRepository struct {
	db *gorm.DB
}

func NewLoginStateRepository(db *gorm.DB) *LoginStateRepository {
	return &LoginStateRepository{db: db}
}

// Issue creates a fresh state valid until now+ttl.
func (r *LoginStateRepository) Issue(ctx context.Context, now time.Time, ttl time.Duration) (string, error) {
	state := model.LoginState{
		State:     uuid.NewString(),
		ExpiresAt: now.Add(ttl).UTC(),
		CreatedAt: now.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&state).Error; err != nil {
		return "", fmt.Errorf("issue login state: %w", err)
	}
	return state.State, nil
}

// Consume deletes the state if it exists and has not expired. A state can be
// consumed once; later calls return ErrNotFound.
func (r *LoginStateRepository) Consume(ctx context.Context, state string, now time.Time) error {
	if state == "" {
		return ErrNotFound
	}
	result := r.db.WithContext(ctx).
		Where("state = ? AND expires_at > ?", state, now.UTC()).
		Delete(&model.LoginState{})
	if result.Error != nil {
		return fmt.Errorf("consume login state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SweepExpired removes states that expired at or before now.
func (r *LoginStateRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&model.LoginState{})
	if result.Error != nil {
		return 0, fmt.Errorf("sweep login states: %w", result.Error)
	}
	return result.RowsAffected, nil
}
