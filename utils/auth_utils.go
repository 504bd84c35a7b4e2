package utils

import (
	"github.com/bluewhale-protocol/api-go/models"
	"github.com/gin-gonic/gin"
)

type UserClaims struct {
	UserID  uint   `json:"user_id"`
	TokenID string `json:"jti"`
}

type contextKey string

const (
	UserContextKey        contextKey = "user"
	CurrentUserContextKey contextKey = "currentUser"
)

func SetUser(c *gin.Context, claims *UserClaims, user *models.User) {
	c.Set(string(UserContextKey), claims)
	if user != nil {
		c.Set(string(CurrentUserContextKey), user)
	}
}

func GetUser(c *gin.Context) *UserClaims {
	user, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil
	}
	if userClaims, ok := user.(*UserClaims); ok {
		return userClaims
	}
	return nil
}

// GetCurrentUser returns the user row loaded by the auth middleware.
func GetCurrentUser(c *gin.Context) *models.User {
	user, exists := c.Get(string(CurrentUserContextKey))
	if !exists {
		return nil
	}
	if u, ok := user.(*models.User); ok {
		return u
	}
	return nil
}
