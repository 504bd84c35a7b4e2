package models

import (
	"time"

	"github.com/lib/pq"
)

const MaxTitleLength = 200

const (
	ContentTypeText       = "text"
	ContentTypePDF        = "pdf"
	ContentTypeArticle    = "article"
	ContentTypeQuestion   = "question"
	ContentTypeDiscussion = "discussion"
	ContentTypeReview     = "review"
	ContentTypeNews       = "news"
)

var contentTypes = map[string]bool{
	ContentTypeText:       true,
	ContentTypePDF:        true,
	ContentTypeArticle:    true,
	ContentTypeQuestion:   true,
	ContentTypeDiscussion: true,
	ContentTypeReview:     true,
	ContentTypeNews:       true,
}

func IsValidContentType(t string) bool {
	return contentTypes[t]
}

type Content struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string         `gorm:"size:200;not null" json:"title"`
	Body          string         `json:"textContent"`
	ContentType   string         `gorm:"not null;default:text" json:"contentType"`
	FileURL       string         `json:"fileUrl,omitempty"`
	FileName      string         `json:"fileName,omitempty"`
	FileKey       string         `json:"-"`
	AuthorID      uint           `gorm:"not null;index" json:"authorId"`
	Author        *User          `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Latitude      *float64       `json:"latitude,omitempty"`
	Longitude     *float64       `json:"longitude,omitempty"`
	LocationName  string         `json:"locationName,omitempty"`
	Tags          pq.StringArray `gorm:"type:text[]" json:"tags"`
	LikesCount    int64          `gorm:"not null;default:0" json:"likesCount"`
	CommentsCount int64          `gorm:"not null;default:0" json:"commentsCount"`
	AIScore       float64        `gorm:"column:ai_score;not null;default:0" json:"aiScore"`
	Views         int64          `gorm:"not null;default:0" json:"views"`
	Score         float64        `gorm:"->;-:migration" json:"score,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (c *Content) HasLocation() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// EngagementScore is the global ranking weight: likes*3 + comments*2 + views.
func (c *Content) EngagementScore() float64 {
	return float64(c.LikesCount*3 + c.CommentsCount*2 + c.Views)
}
