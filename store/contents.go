package store

import (
	"context"
	"fmt"

	"github.com/bluewhale-protocol/api-go/models"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type contentStore struct {
	db *gorm.DB
}

func (s *contentStore) Create(ctx context.Context, content *models.Content) error {
	if content.Tags == nil {
		content.Tags = pq.StringArray{}
	}
	if err := s.db.WithContext(ctx).Create(content).Error; err != nil {
		return fmt.Errorf("create content: %w", translate(err))
	}
	return nil
}

func (s *contentStore) GetByID(ctx context.Context, id uint) (*models.Content, error) {
	var content models.Content
	if err := s.db.WithContext(ctx).Preload("Author").First(&content, id).Error; err != nil {
		return nil, translate(err)
	}
	return &content, nil
}

func (s *contentStore) Update(ctx context.Context, id uint, updates map[string]interface{}) (*models.Content, error) {
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.Content{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("update content %d: %w", id, translate(res.Error))
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.GetByID(ctx, id)
}

// Delete removes the content together with its likes, bookmarks, comments
// and every notification that points at it or its comments.
func (s *contentStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("content_id = ?", id)
		if err := tx.Where("content_id = ? OR comment_id IN (?)", id, commentIDs).Delete(&models.Notification{}).Error; err != nil {
			return fmt.Errorf("delete notifications: %w", err)
		}
		if err := tx.Where("content_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Where("content_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return fmt.Errorf("delete likes: %w", err)
		}
		if err := tx.Where("content_id = ?", id).Delete(&models.SavedContent{}).Error; err != nil {
			return fmt.Errorf("delete bookmarks: %w", err)
		}

		res := tx.Delete(&models.Content{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete content: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *contentStore) IncrementViews(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.Content{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

func (s *contentStore) List(ctx context.Context, filter ContentFilter, page Page) ([]models.Content, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.Content{})

	var total int64
	if err := base.Session(&gorm.Session{}).Scopes(contentFilter(filter)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count content: %w", err)
	}

	var items []models.Content
	err := base.Session(&gorm.Session{}).
		Scopes(contentFilter(filter), orderContent(filter.Sort, ""), paginate(page)).
		Preload("Author").
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list content: %w", err)
	}
	return items, total, nil
}

func (s *contentStore) Search(ctx context.Context, query SearchQuery, page Page) ([]models.Content, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.Content{})

	var total int64
	if err := base.Session(&gorm.Session{}).Scopes(searchFilter(query)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count search results: %w", err)
	}

	var items []models.Content
	err := base.Session(&gorm.Session{}).
		Scopes(searchFilter(query), orderContent(query.Sort, query.Text), paginate(page)).
		Preload("Author").
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("search content: %w", err)
	}
	return items, total, nil
}

// Like records a like and bumps likes_count in one transaction. A second
// like by the same user fails with ErrAlreadyExists.
func (s *contentStore) Like(ctx context.Context, contentID, userID uint) (int64, error) {
	var likes int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Like{ContentID: contentID, UserID: userID}).Error; err != nil {
			return translate(err)
		}
		return adjustCounter(tx, contentID, "likes_count", 1, &likes)
	})
	return likes, err
}

func (s *contentStore) Unlike(ctx context.Context, contentID, userID uint) (int64, error) {
	var likes int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("content_id = ? AND user_id = ?", contentID, userID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return adjustCounter(tx, contentID, "likes_count", -1, &likes)
	})
	return likes, err
}

func (s *contentStore) HasLiked(ctx context.Context, contentID, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("content_id = ? AND user_id = ?", contentID, userID).
		Count(&count).Error
	return count > 0, err
}

func (s *contentStore) Save(ctx context.Context, userID, contentID uint) error {
	if err := s.db.WithContext(ctx).Create(&models.SavedContent{UserID: userID, ContentID: contentID}).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *contentStore) Unsave(ctx context.Context, userID, contentID uint) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND content_id = ?", userID, contentID).Delete(&models.SavedContent{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *contentStore) Saved(ctx context.Context, userID uint, page Page) ([]models.Content, int64, error) {
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Content{}).
			Joins("JOIN saved_contents ON saved_contents.content_id = contents.id").
			Where("saved_contents.user_id = ?", userID)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count saved content: %w", err)
	}

	var items []models.Content
	err := base().Select("contents.*").
		Order("saved_contents.created_at DESC").
		Scopes(paginate(page)).
		Preload("Author").
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list saved content: %w", err)
	}
	return items, total, nil
}

// adjustCounter moves a denormalised counter by delta without letting it
// drop below zero, then reads the new value back into out.
func adjustCounter(tx *gorm.DB, contentID uint, column string, delta int, out *int64) error {
	res := tx.Model(&models.Content{}).
		Where("id = ?", contentID).
		UpdateColumn(column, gorm.Expr("GREATEST("+column+" + ?, 0)", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	if out == nil {
		return nil
	}
	return tx.Model(&models.Content{}).Select(column).Where("id = ?", contentID).Scan(out).Error
}
