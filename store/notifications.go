package store

import (
	"context"
	"fmt"

	"github.com/bluewhale-protocol/api-go/models"
	"gorm.io/gorm"
)

type notificationStore struct {
	db *gorm.DB
}

func (s *notificationStore) Create(ctx context.Context, n *models.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create notification: %w", translate(err))
	}
	return nil
}

func (s *notificationStore) List(ctx context.Context, recipientID uint, page Page) ([]models.Notification, int64, error) {
	db := s.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	var items []models.Notification
	err := db.Order("created_at DESC").Order("id DESC").
		Scopes(paginate(page)).
		Preload("Sender").
		Preload("Content").
		Preload("Comment").
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return items, total, nil
}

func (s *notificationStore) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (s *notificationStore) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

// MarkRead only matches notifications owned by recipientID.
func (s *notificationStore) MarkRead(ctx context.Context, id, recipientID uint) (*models.Notification, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read", true)
	if res.Error != nil {
		return nil, fmt.Errorf("mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var n models.Notification
	if err := s.db.WithContext(ctx).Preload("Sender").First(&n, id).Error; err != nil {
		return nil, translate(err)
	}
	return &n, nil
}
