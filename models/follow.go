package models

import "time"

type Follow struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follows_pair" json:"followerId"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follows_pair;index" json:"followingId"`
	Follower    *User     `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Following   *User     `gorm:"foreignKey:FollowingID" json:"following,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
