package store

import (
	"context"
	"fmt"

	"github.com/bluewhale-protocol/api-go/models"
	"gorm.io/gorm"
)

type followStore struct {
	db *gorm.DB
}

func (s *followStore) Follow(ctx context.Context, followerID, followingID uint) error {
	follow := models.Follow{FollowerID: followerID, FollowingID: followingID}
	if err := s.db.WithContext(ctx).Create(&follow).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *followStore) Unfollow(ctx context.Context, followerID, followingID uint) error {
	res := s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return fmt.Errorf("unfollow: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *followStore) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

func (s *followStore) Followers(ctx context.Context, userID uint, page Page) ([]models.User, int64, error) {
	return s.listUsers(ctx, "follows.following_id = ?", "follows.follower_id", userID, page)
}

func (s *followStore) Following(ctx context.Context, userID uint, page Page) ([]models.User, int64, error) {
	return s.listUsers(ctx, "follows.follower_id = ?", "follows.following_id", userID, page)
}

func (s *followStore) listUsers(ctx context.Context, where, joinColumn string, userID uint, page Page) ([]models.User, int64, error) {
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.User{}).
			Joins("JOIN follows ON users.id = "+joinColumn).
			Where(where, userID)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count follows: %w", err)
	}

	var users []models.User
	err := base().Select("users.*").Order("follows.created_at DESC").Scopes(paginate(page)).Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list follows: %w", err)
	}
	return users, total, nil
}

func (s *followStore) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error
	return ids, err
}
