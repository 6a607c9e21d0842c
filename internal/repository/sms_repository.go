package repository

import (
	"context"
	"fmt"

	"github.com/L7NNON-loop/incutador-pro/internal/model"
	"gorm.io/gorm"
)

// SMSRepository handles database operations for queued SMS messages
type SMSRepository struct {
	db *gorm.DB
}

// NewSMSRepository creates a new SMS repository instance
func NewSMSRepository(db *gorm.DB) *SMSRepository {
	return &SMSRepository{db: db}
}

// Create persists a message record
func (r *SMSRepository) Create(ctx context.Context, msg *model.SMSMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create sms message: %w", err)
	}
	return nil
}

// ListByUser returns the user's newest messages
func (r *SMSRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]model.SMSMessage, error) {
	var msgs []model.SMSMessage
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("failed to list sms messages: %w", err)
	}
	return msgs, nil
}

// CountByStatus aggregates the user's messages per delivery status
func (r *SMSRepository) CountByStatus(ctx context.Context, userID int64) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&model.SMSMessage{}).
		Select("status, count(*) as count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count sms messages: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
