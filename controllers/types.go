package controllers

import (
	"net/http"

	"github.com/bluewhale-protocol/api-go/models"
	"github.com/bluewhale-protocol/api-go/store"
	"github.com/bluewhale-protocol/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize    = 10
	defaultListSize    = 20
	defaultRadiusKm    = 10.0
	latestCommentLimit = 20
)

type ContentListResponse struct {
	Data       []models.Content `json:"data"`
	Pagination utils.Pagination `json:"pagination"`
}

type ContentDetailResponse struct {
	Content  *models.Content  `json:"content"`
	Comments []models.Comment `json:"comments"`
	Liked    bool             `json:"liked"`
}

type UserProfileResponse struct {
	User        *models.User     `json:"user"`
	Stats       models.UserStats `json:"stats"`
	IsFollowing bool             `json:"isFollowing"`
}

func pageOf(p utils.PageParams) store.Page {
	return store.Page{Offset: p.Offset(), Limit: p.Limit}
}

func contentList(items []models.Content, total int64, p utils.PageParams) ContentListResponse {
	if items == nil {
		items = []models.Content{}
	}
	return ContentListResponse{Data: items, Pagination: utils.NewPagination(total, p)}
}

// internalError logs err at the handler boundary and answers 500.
func internalError(c *gin.Context, log zerolog.Logger, err error, msg string) {
	log.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// idParam parses a positive numeric path parameter, answering 400 otherwise.
func idParam(c *gin.Context, name, label string) (uint, bool) {
	id, ok := utils.ParseUintParam(c.Param(name))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + label + " ID"})
		return 0, false
	}
	return id, true
}

func currentUserID(c *gin.Context) uint {
	if claims := utils.GetUser(c); claims != nil {
		return claims.UserID
	}
	return 0
}
