package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bluewhale-protocol/api-go/store"
	"github.com/bluewhale-protocol/api-go/utils"

	"github.com/gin-gonic/gin"
)

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth validates the bearer token and loads the caller's user row.
func RequireAuth(tokens *utils.TokenManager, users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			c.Abort()
			return
		}

		claims, err := tokens.ParseAccessToken(token)
		if errors.Is(err, utils.ErrTokenExpired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			c.Abort()
			return
		}
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			c.Abort()
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
			c.Abort()
			return
		}

		utils.SetUser(c, claims, user)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(tokens *utils.TokenManager, users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := tokens.ParseAccessToken(token)
		if err != nil {
			c.Next()
			return
		}
		if user, err := users.GetByID(c.Request.Context(), claims.UserID); err == nil {
			utils.SetUser(c, claims, user)
		}
		c.Next()
	}
}
