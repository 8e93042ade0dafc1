package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"taskflow/internal/model"
)

// SubscriberRepository stores chats that receive scheduled summaries.
type SubscriberRepository struct {
	db *gorm.DB
}

func NewSubscriberRepository(db *gorm.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// Upsert finds or creates a subscriber based on TelegramID and updates basic profile info.
func (r *SubscriberRepository) Upsert(ctx context.Context, sub model.Subscriber) (*model.Subscriber, error) {
	var existing model.Subscriber
	db := r.db.WithContext(ctx)
	err := db.Where("telegram_id = ?", sub.TelegramID).First(&existing).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"chat_id":    sub.ChatID,
			"first_name": sub.FirstName,
			"last_name":  sub.LastName,
			"username":   sub.Username,
		}
		if err := db.Model(&existing).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update subscriber: %w", err)
		}
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(&sub).Error; err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}
		return &sub, nil
	default:
		return nil, fmt.Errorf("find subscriber: %w", err)
	}
}

// Remove unsubscribes a Telegram user. Removing an unknown user is not an error.
func (r *SubscriberRepository) Remove(ctx context.Context, telegramID int64) error {
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).Delete(&model.Subscriber{}).Error; err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	return nil
}

func (r *SubscriberRepository) ListAll(ctx context.Context) ([]model.Subscriber, error) {
	var subs []model.Subscriber
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
