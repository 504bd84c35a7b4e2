package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/bluewhale-protocol/api-go/models"
	"gorm.io/gorm"
)

type userStore struct {
	db *gorm.DB
}

func (s *userStore) Create(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *userStore) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("google_id = ?", googleID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *userStore) Update(ctx context.Context, id uint, updates map[string]interface{}) (*models.User, error) {
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("update user %d: %w", id, translate(res.Error))
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.GetByID(ctx, id)
}

// Search matches name or email case-insensitively, newest users first.
func (s *userStore) Search(ctx context.Context, query string, page Page) ([]models.User, int64, error) {
	db := s.db.WithContext(ctx).Model(&models.User{})
	if q := strings.TrimSpace(query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		db = db.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var users []models.User
	err := db.Order("created_at DESC").Order("id DESC").Scopes(paginate(page)).Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("search users: %w", err)
	}
	return users, total, nil
}

// Suggested returns users the given user does not follow yet, most
// followed first.
func (s *userStore) Suggested(ctx context.Context, userID uint, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.*").
		Joins("LEFT JOIN follows f ON f.following_id = users.id").
		Where("users.id <> ?", userID).
		Where("users.id NOT IN (SELECT following_id FROM follows WHERE follower_id = ?)", userID).
		Group("users.id").
		Order("COUNT(f.id) DESC").
		Order("users.created_at DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("suggested users: %w", err)
	}
	return users, nil
}

func (s *userStore) Stats(ctx context.Context, userID uint) (models.UserStats, error) {
	var stats models.UserStats
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Follow{}).Where("following_id = ?", userID).Count(&stats.FollowersCount).Error; err != nil {
		return stats, fmt.Errorf("count followers: %w", err)
	}
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&stats.FollowingCount).Error; err != nil {
		return stats, fmt.Errorf("count following: %w", err)
	}
	if err := db.Model(&models.Content{}).Where("author_id = ?", userID).Count(&stats.ContentCount).Error; err != nil {
		return stats, fmt.Errorf("count content: %w", err)
	}
	return stats, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
