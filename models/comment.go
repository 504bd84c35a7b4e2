package models

import "time"

type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ContentID uint      `gorm:"not null;index" json:"contentId"`
	AuthorID  uint      `gorm:"not null" json:"authorId"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Body      string    `gorm:"not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
