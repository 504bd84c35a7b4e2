package store

import (
	"context"

	"github.com/bluewhale-protocol/api-go/models"
	"gorm.io/gorm"
)

type tokenStore struct {
	db *gorm.DB
}

func (s *tokenStore) Create(ctx context.Context, token *models.RefreshToken) error {
	return translate(s.db.WithContext(ctx).Create(token).Error)
}

func (s *tokenStore) GetByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&rt).Error; err != nil {
		return nil, translate(err)
	}
	return &rt, nil
}

func (s *tokenStore) Delete(ctx context.Context, token string) error {
	res := s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
