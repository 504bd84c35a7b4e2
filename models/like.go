package models

import "time"

// Like is unique per (content, user).
type Like struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ContentID uint      `gorm:"not null;uniqueIndex:idx_likes_content_user" json:"contentId"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_content_user" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SavedContent is a bookmark, unique per (user, content).
type SavedContent struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_saved_user_content" json:"userId"`
	ContentID uint      `gorm:"not null;uniqueIndex:idx_saved_user_content" json:"contentId"`
	Content   *Content  `gorm:"foreignKey:ContentID" json:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
