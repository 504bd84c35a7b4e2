package models

import "time"

const (
	NotificationFollow  = "follow"
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationMention = "mention"
	NotificationSystem  = "system"
)

func IsValidNotificationType(t string) bool {
	switch t {
	case NotificationFollow, NotificationLike, NotificationComment, NotificationMention, NotificationSystem:
		return true
	}
	return false
}

type Notification struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RecipientID uint      `gorm:"not null;index" json:"recipientId"`
	SenderID    *uint     `json:"senderId,omitempty"`
	Sender      *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Type        string    `gorm:"not null" json:"type"`
	ContentID   *uint     `json:"contentId,omitempty"`
	Content     *Content  `gorm:"foreignKey:ContentID" json:"content,omitempty"`
	CommentID   *uint     `json:"commentId,omitempty"`
	Comment     *Comment  `gorm:"foreignKey:CommentID" json:"comment,omitempty"`
	Message     string    `gorm:"not null" json:"message"`
	Read        bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
