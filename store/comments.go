package store

import (
	"context"
	"fmt"

	"github.com/bluewhale-protocol/api-go/models"
	"gorm.io/gorm"
)

type commentStore struct {
	db *gorm.DB
}

func (s *commentStore) Create(ctx context.Context, comment *models.Comment) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return translate(err)
		}
		return adjustCounter(tx, comment.ContentID, "comments_count", 1, nil)
	})
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return s.db.WithContext(ctx).Preload("Author").First(comment, comment.ID).Error
}

func (s *commentStore) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

func (s *commentStore) UpdateBody(ctx context.Context, id uint, body string) (*models.Comment, error) {
	res := s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("body", body)
	if res.Error != nil {
		return nil, fmt.Errorf("update comment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// Delete removes the comment and its notifications and decrements the
// parent content's comments_count.
func (s *commentStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, id).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("comment_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return fmt.Errorf("delete comment notifications: %w", err)
		}
		if err := tx.Delete(&comment).Error; err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		return adjustCounter(tx, comment.ContentID, "comments_count", -1, nil)
	})
}

func (s *commentStore) ListByContent(ctx context.Context, contentID uint, page Page) ([]models.Comment, int64, error) {
	db := s.db.WithContext(ctx).Model(&models.Comment{}).Where("content_id = ?", contentID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	var comments []models.Comment
	err := db.Order("created_at DESC").Order("id DESC").
		Scopes(paginate(page)).
		Preload("Author").
		Find(&comments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	return comments, total, nil
}
