package models

import (
	"strings"
	"time"
)

const MaxBioLength = 500

type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  *string   `json:"-"`
	GoogleID  *string   `gorm:"uniqueIndex" json:"-"`
	Name      string    `gorm:"not null" json:"name"`
	Bio       string    `gorm:"size:500" json:"bio"`
	AvatarURL string    `json:"avatarUrl"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasLocation reports whether both coordinates are set.
func (u *User) HasLocation() bool {
	return u.Latitude != nil && u.Longitude != nil
}

// NormalizeEmail trims and lower-cases an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DefaultName derives a display name from the local part of an email.
func DefaultName(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}

// UserStats is returned alongside a profile.
type UserStats struct {
	FollowersCount int64 `json:"followersCount"`
	FollowingCount int64 `json:"followingCount"`
	ContentCount   int64 `json:"contentCount"`
}
