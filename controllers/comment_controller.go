package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bluewhale-protocol/api-go/middleware"
	"github.com/bluewhale-protocol/api-go/models"
	"github.com/bluewhale-protocol/api-go/notify"
	"github.com/bluewhale-protocol/api-go/store"
	"github.com/bluewhale-protocol/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxCommentLength = 2000

type CommentController struct {
	Stores   *store.Stores
	Notifier notify.Dispatcher
	Log      zerolog.Logger
}

func NewCommentController(stores *store.Stores, notifier notify.Dispatcher, log zerolog.Logger) *CommentController {
	return &CommentController{
		Stores:   stores,
		Notifier: notifier,
		Log:      log,
	}
}

type commentInput struct {
	Content string `json:"content" binding:"required"`
}

func bindComment(c *gin.Context) (string, bool) {
	var input commentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment content is required"})
		return "", false
	}
	body := strings.TrimSpace(input.Content)
	if body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment content is required"})
		return "", false
	}
	if len([]rune(body)) > maxCommentLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment is too long"})
		return "", false
	}
	return body, true
}

func (cc *CommentController) AddComment(c *gin.Context) {
	content, ok := loadContent(c, cc.Stores, cc.Log)
	if !ok {
		return
	}
	body, ok := bindComment(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user := utils.GetCurrentUser(c)
	comment := models.Comment{
		ContentID: content.ID,
		AuthorID:  user.ID,
		Body:      body,
	}
	if err := cc.Stores.Comments.Create(ctx, &comment); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
			return
		}
		internalError(c, cc.Log, err, "Failed to add comment")
		return
	}

	if content.AuthorID != user.ID {
		if err := cc.Notifier.Notify(ctx, notify.CommentEvent(user, content, &comment)); err != nil {
			cc.Log.Warn().Err(err).Uint("content_id", content.ID).Msg("Failed to send comment notification")
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Comment added",
		"comment": comment,
	})
}

func (cc *CommentController) GetComments(c *gin.Context) {
	content, ok := loadContent(c, cc.Stores, cc.Log)
	if !ok {
		return
	}

	p := utils.ParsePagination(c, defaultListSize)
	comments, total, err := cc.Stores.Comments.ListByContent(c.Request.Context(), content.ID, pageOf(p))
	if err != nil {
		internalError(c, cc.Log, err, "Failed to load comments")
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	c.JSON(http.StatusOK, gin.H{
		"comments":   comments,
		"pagination": utils.NewPagination(total, p),
	})
}

// UpdateComment edits the body; ownership is checked by middleware.
func (cc *CommentController) UpdateComment(c *gin.Context) {
	comment := middleware.GetComment(c)
	if comment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	body, ok := bindComment(c)
	if !ok {
		return
	}

	updated, err := cc.Stores.Comments.UpdateBody(c.Request.Context(), comment.ID, body)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	if err != nil {
		internalError(c, cc.Log, err, "Failed to update comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment updated",
		"comment": updated,
	})
}

func (cc *CommentController) DeleteComment(c *gin.Context) {
	comment := middleware.GetComment(c)
	if comment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	err := cc.Stores.Comments.Delete(c.Request.Context(), comment.ID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	if err != nil {
		internalError(c, cc.Log, err, "Failed to delete comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}
