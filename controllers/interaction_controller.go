package controllers

import (
	"errors"
	"net/http"

	"github.com/bluewhale-protocol/api-go/models"
	"github.com/bluewhale-protocol/api-go/notify"
	"github.com/bluewhale-protocol/api-go/store"
	"github.com/bluewhale-protocol/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type InteractionController struct {
	Stores   *store.Stores
	Notifier notify.Dispatcher
	Log      zerolog.Logger
}

func NewInteractionController(stores *store.Stores, notifier notify.Dispatcher, log zerolog.Logger) *InteractionController {
	return &InteractionController{
		Stores:   stores,
		Notifier: notifier,
		Log:      log,
	}
}

// loadContent resolves :contentId, answering 400/404/500 itself on failure.
func loadContent(c *gin.Context, stores *store.Stores, log zerolog.Logger) (*models.Content, bool) {
	id, ok := idParam(c, "contentId", "content")
	if !ok {
		return nil, false
	}

	content, err := stores.Contents.GetByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return nil, false
	}
	if err != nil {
		internalError(c, log, err, "Failed to load content")
		return nil, false
	}
	return content, true
}

// LikeContent godoc
// @Summary Like a content item
// @Description Adds the caller's like and notifies the author
// @Tags interactions
// @Produce json
// @Param contentId path string true "Content ID"
// @Success 200 {object} map[string]interface{}
// @Router /content/{contentId}/like [post]
func (ic *InteractionController) LikeContent(c *gin.Context) {
	content, ok := loadContent(c, ic.Stores, ic.Log)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user := utils.GetCurrentUser(c)
	likes, err := ic.Stores.Contents.Like(ctx, content.ID, user.ID)
	if errors.Is(err, store.ErrAlreadyExists) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You already liked this content"})
		return
	}
	if err != nil {
		internalError(c, ic.Log, err, "Failed to like content")
		return
	}

	if content.AuthorID != user.ID {
		if err := ic.Notifier.Notify(ctx, notify.LikeEvent(user, content)); err != nil {
			ic.Log.Warn().Err(err).Uint("content_id", content.ID).Msg("Failed to send like notification")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Content liked",
		"likesCount": likes,
	})
}

func (ic *InteractionController) UnlikeContent(c *gin.Context) {
	content, ok := loadContent(c, ic.Stores, ic.Log)
	if !ok {
		return
	}

	likes, err := ic.Stores.Contents.Unlike(c.Request.Context(), content.ID, currentUserID(c))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You have not liked this content"})
		return
	}
	if err != nil {
		internalError(c, ic.Log, err, "Failed to unlike content")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Like removed",
		"likesCount": likes,
	})
}

func (ic *InteractionController) SaveContent(c *gin.Context) {
	content, ok := loadContent(c, ic.Stores, ic.Log)
	if !ok {
		return
	}

	err := ic.Stores.Contents.Save(c.Request.Context(), currentUserID(c), content.ID)
	if errors.Is(err, store.ErrAlreadyExists) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is already saved"})
		return
	}
	if err != nil {
		internalError(c, ic.Log, err, "Failed to save content")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Content saved"})
}

// UnsaveContent is idempotent: removing a bookmark that does not exist
// still succeeds.
func (ic *InteractionController) UnsaveContent(c *gin.Context) {
	content, ok := loadContent(c, ic.Stores, ic.Log)
	if !ok {
		return
	}

	err := ic.Stores.Contents.Unsave(c.Request.Context(), currentUserID(c), content.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		internalError(c, ic.Log, err, "Failed to unsave content")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Content removed from saved"})
}

func (ic *InteractionController) GetSavedContent(c *gin.Context) {
	p := utils.ParsePagination(c, defaultPageSize)

	items, total, err := ic.Stores.Contents.Saved(c.Request.Context(), currentUserID(c), pageOf(p))
	if err != nil {
		internalError(c, ic.Log, err, "Failed to load saved content")
		return
	}

	c.JSON(http.StatusOK, contentList(items, total, p))
}
