package store

import (
	"context"
	"errors"

	"github.com/bluewhale-protocol/api-go/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// Page is an offset/limit window over an ordered result.
type Page struct {
	Offset int
	Limit  int
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (*models.User, error)
	Search(ctx context.Context, query string, page Page) ([]models.User, int64, error)
	Suggested(ctx context.Context, userID uint, limit int) ([]models.User, error)
	Stats(ctx context.Context, userID uint) (models.UserStats, error)
}

type FollowStore interface {
	Follow(ctx context.Context, followerID, followingID uint) error
	Unfollow(ctx context.Context, followerID, followingID uint) error
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	Followers(ctx context.Context, userID uint, page Page) ([]models.User, int64, error)
	Following(ctx context.Context, userID uint, page Page) ([]models.User, int64, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
}

type ContentStore interface {
	Create(ctx context.Context, content *models.Content) error
	GetByID(ctx context.Context, id uint) (*models.Content, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (*models.Content, error)
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) error
	List(ctx context.Context, filter ContentFilter, page Page) ([]models.Content, int64, error)
	Search(ctx context.Context, query SearchQuery, page Page) ([]models.Content, int64, error)

	Like(ctx context.Context, contentID, userID uint) (int64, error)
	Unlike(ctx context.Context, contentID, userID uint) (int64, error)
	HasLiked(ctx context.Context, contentID, userID uint) (bool, error)
	Save(ctx context.Context, userID, contentID uint) error
	Unsave(ctx context.Context, userID, contentID uint) error
	Saved(ctx context.Context, userID uint, page Page) ([]models.Content, int64, error)
}

type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	UpdateBody(ctx context.Context, id uint, body string) (*models.Comment, error)
	Delete(ctx context.Context, id uint) error
	ListByContent(ctx context.Context, contentID uint, page Page) ([]models.Comment, int64, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, recipientID uint, page Page) ([]models.Notification, int64, error)
	UnreadCount(ctx context.Context, recipientID uint) (int64, error)
	MarkAllRead(ctx context.Context, recipientID uint) (int64, error)
	MarkRead(ctx context.Context, id, recipientID uint) (*models.Notification, error)
}

type TokenStore interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
}

// Stores groups every store the HTTP layer depends on.
type Stores struct {
	Users         UserStore
	Follows       FollowStore
	Contents      ContentStore
	Comments      CommentStore
	Notifications NotificationStore
	Tokens        TokenStore
}

func New(db *gorm.DB) *Stores {
	return &Stores{
		Users:         &userStore{db: db},
		Follows:       &followStore{db: db},
		Contents:      &contentStore{db: db},
		Comments:      &commentStore{db: db},
		Notifications: &notificationStore{db: db},
		Tokens:        &tokenStore{db: db},
	}
}

// translate maps gorm errors onto the store's sentinel errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrAlreadyExists
	default:
		return err
	}
}
