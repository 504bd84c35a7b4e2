package middleware

import (
	"errors"
	"net/http"

	"github.com/bluewhale-protocol/api-go/models"
	"github.com/bluewhale-protocol/api-go/store"
	"github.com/bluewhale-protocol/api-go/utils"
	"github.com/gin-gonic/gin"
)

const (
	contentKey = "content"
	commentKey = "comment"
)

// GetContent returns the content loaded by RequireContentOwner.
func GetContent(c *gin.Context) *models.Content {
	if v, ok := c.Get(contentKey); ok {
		if content, ok := v.(*models.Content); ok {
			return content
		}
	}
	return nil
}

func GetComment(c *gin.Context) *models.Comment {
	if v, ok := c.Get(commentKey); ok {
		if comment, ok := v.(*models.Comment); ok {
			return comment
		}
	}
	return nil
}

// RequireSelf rejects requests whose :userId is not the caller.
func RequireSelf() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := utils.GetUser(c)
		id, ok := utils.ParseUintParam(c.Param("userId"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			c.Abort()
			return
		}
		if user == nil || user.UserID != id {
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only modify your own profile"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireContentOwner loads :contentId and checks the caller authored it.
func RequireContentOwner(contents store.ContentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := utils.ParseUintParam(c.Param("contentId"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content ID"})
			c.Abort()
			return
		}

		content, err := contents.GetByID(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
			c.Abort()
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load content"})
			c.Abort()
			return
		}

		user := utils.GetUser(c)
		if user == nil || content.AuthorID != user.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to modify this content"})
			c.Abort()
			return
		}

		c.Set(contentKey, content)
		c.Next()
	}
}

// RequireCommentOwner loads :commentId under :contentId and checks the
// caller wrote it.
func RequireCommentOwner(comments store.CommentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		contentID, ok := utils.ParseUintParam(c.Param("contentId"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content ID"})
			c.Abort()
			return
		}
		commentID, ok := utils.ParseUintParam(c.Param("commentId"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
			c.Abort()
			return
		}

		comment, err := comments.GetByID(c.Request.Context(), commentID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && comment.ContentID != contentID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
			c.Abort()
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load comment"})
			c.Abort()
			return
		}

		user := utils.GetUser(c)
		if user == nil || comment.AuthorID != user.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to modify this comment"})
			c.Abort()
			return
		}

		c.Set(commentKey, comment)
		c.Next()
	}
}
