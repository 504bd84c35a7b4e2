package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bluewhale-protocol/api-go/cache"
	"github.com/bluewhale-protocol/api-go/middleware"
	"github.com/bluewhale-protocol/api-go/models"
	"github.com/bluewhale-protocol/api-go/storage"
	"github.com/bluewhale-protocol/api-go/store"
	"github.com/bluewhale-protocol/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

type ContentController struct {
	Stores *store.Stores
	Files  storage.FileStore
	Cache  cache.Cache
	Log    zerolog.Logger
}

func NewContentController(stores *store.Stores, files storage.FileStore, c cache.Cache, log zerolog.Logger) *ContentController {
	return &ContentController{
		Stores: stores,
		Files:  files,
		Cache:  c,
		Log:    log,
	}
}

// contentInput holds the optional fields of a create or update request.
// A nil field was not supplied.
type contentInput struct {
	Title        *string
	ContentType  *string
	Body         *string
	Latitude     *float64
	Longitude    *float64
	LocationName *string
	Tags         []string
	HasTags      bool
}

// readContentInput accepts JSON or form bodies. Form tags may be a JSON
// array string or a comma list; JSON tags may also be a plain array.
func readContentInput(c *gin.Context) (contentInput, error) {
	var in contentInput

	if strings.HasPrefix(c.ContentType(), "multipart/") || c.ContentType() == "application/x-www-form-urlencoded" {
		form := func(key string) *string {
			if v, ok := c.GetPostForm(key); ok {
				return &v
			}
			return nil
		}
		in.Title = form("title")
		in.ContentType = form("contentType")
		in.Body = form("textContent")
		if in.Body == nil {
			in.Body = form("body")
		}
		in.LocationName = form("locationName")

		for key, dst := range map[string]**float64{"latitude": &in.Latitude, "longitude": &in.Longitude} {
			raw := form(key)
			if raw == nil || strings.TrimSpace(*raw) == "" {
				continue
			}
			v, ok := utils.ParseFloat(*raw)
			if !ok {
				return in, fmt.Errorf("invalid %s", key)
			}
			*dst = &v
		}

		if tags := form("tags"); tags != nil {
			in.Tags, in.HasTags = utils.ParseTags(*tags), true
		}
		return in, nil
	}

	var body struct {
		Title        *string         `json:"title"`
		ContentType  *string         `json:"contentType"`
		TextContent  *string         `json:"textContent"`
		Body         *string         `json:"body"`
		Latitude     *float64        `json:"latitude"`
		Longitude    *float64        `json:"longitude"`
		LocationName *string         `json:"locationName"`
		Tags         json.RawMessage `json:"tags"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return in, err
	}

	in.Title = body.Title
	in.ContentType = body.ContentType
	in.Body = body.TextContent
	if in.Body == nil {
		in.Body = body.Body
	}
	in.Latitude = body.Latitude
	in.Longitude = body.Longitude
	in.LocationName = body.LocationName

	if len(body.Tags) > 0 && string(body.Tags) != "null" {
		var list []string
		var raw string
		switch {
		case json.Unmarshal(body.Tags, &list) == nil:
			in.Tags = utils.NormalizeTags(list)
		case json.Unmarshal(body.Tags, &raw) == nil:
			in.Tags = utils.ParseTags(raw)
		default:
			return in, errors.New("tags must be an array or a string")
		}
		in.HasTags = true
	}
	return in, nil
}

func validateTitle(title string) error {
	if title == "" {
		return errors.New("title is required")
	}
	if len([]rune(title)) > models.MaxTitleLength {
		return fmt.Errorf("title must be at most %d characters", models.MaxTitleLength)
	}
	return nil
}

func validateLocation(lat, lon *float64) error {
	if (lat == nil) != (lon == nil) {
		return errors.New("latitude and longitude must be provided together")
	}
	if lat != nil && !utils.ValidCoordinates(*lat, *lon) {
		return errors.New("invalid coordinates")
	}
	return nil
}

func (cc *ContentController) invalidateFeeds(c *gin.Context) {
	if err := cc.Cache.DeletePrefix(c.Request.Context(), cache.GlobalTopPrefix()); err != nil {
		cc.Log.Warn().Err(err).Msg("Failed to invalidate feed cache")
	}
}

func (cc *ContentController) CreateContent(c *gin.Context) {
	in, err := readContentInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content := models.Content{
		AuthorID:    currentUserID(c),
		ContentType: models.ContentTypeText,
		Tags:        pq.StringArray{},
	}
	if in.Title != nil {
		content.Title = strings.TrimSpace(*in.Title)
	}
	if err := validateTitle(content.Title); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if in.ContentType != nil && *in.ContentType != "" {
		content.ContentType = *in.ContentType
	}
	if !models.IsValidContentType(content.ContentType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content type"})
		return
	}
	if in.Body != nil {
		content.Body = *in.Body
	}
	if content.ContentType != models.ContentTypePDF && strings.TrimSpace(content.Body) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "textContent is required"})
		return
	}
	if err := validateLocation(in.Latitude, in.Longitude); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	content.Latitude, content.Longitude = in.Latitude, in.Longitude
	if in.LocationName != nil {
		content.LocationName = strings.TrimSpace(*in.LocationName)
	}
	if in.HasTags {
		content.Tags = pq.StringArray(in.Tags)
	}

	ctx := c.Request.Context()
	fh, fileErr := c.FormFile("file")
	if fileErr == nil {
		contentType := fh.Header.Get("Content-Type")
		if err := storage.ValidatePDF(contentType, fh.Filename, fh.Size); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files up to 10MB are allowed"})
			return
		}

		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read file"})
			return
		}
		defer f.Close()

		key := storage.ContentFileKey(content.AuthorID)
		url, err := cc.Files.Put(ctx, key, "application/pdf", f, fh.Size)
		if err != nil {
			internalError(c, cc.Log, err, "Failed to upload file")
			return
		}
		content.FileURL, content.FileName, content.FileKey = url, fh.Filename, key
	} else if content.ContentType == models.ContentTypePDF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A PDF file is required for pdf content"})
		return
	}

	if err := cc.Stores.Contents.Create(ctx, &content); err != nil {
		if content.FileKey != "" {
			if delErr := cc.Files.Delete(ctx, content.FileKey); delErr != nil {
				cc.Log.Warn().Err(delErr).Str("key", content.FileKey).Msg("Failed to clean up uploaded file")
			}
		}
		internalError(c, cc.Log, err, "Failed to create content")
		return
	}

	cc.invalidateFeeds(c)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Content created successfully",
		"content": content,
	})
}

// GetContent returns the item with its latest comments and counts the view.
func (cc *ContentController) GetContent(c *gin.Context) {
	id, ok := idParam(c, "contentId", "content")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	content, err := cc.Stores.Contents.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return
	}
	if err != nil {
		internalError(c, cc.Log, err, "Failed to load content")
		return
	}

	if err := cc.Stores.Contents.IncrementViews(ctx, id); err != nil {
		cc.Log.Warn().Err(err).Uint("content_id", id).Msg("Failed to count view")
	} else {
		content.Views++
	}

	comments, _, err := cc.Stores.Comments.ListByContent(ctx, id, store.Page{Limit: latestCommentLimit})
	if err != nil {
		internalError(c, cc.Log, err, "Failed to load comments")
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	resp := ContentDetailResponse{Content: content, Comments: comments}
	if viewer := currentUserID(c); viewer != 0 {
		if resp.Liked, err = cc.Stores.Contents.HasLiked(ctx, id, viewer); err != nil {
			internalError(c, cc.Log, err, "Failed to load like state")
			return
		}
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateContent applies a partial update; ownership is checked by middleware.
func (cc *ContentController) UpdateContent(c *gin.Context) {
	current := middleware.GetContent(c)
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return
	}

	in, err := readContentInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validateTitle(title); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		updates["title"] = title
	}

	contentType := current.ContentType
	if in.ContentType != nil && *in.ContentType != "" {
		if !models.IsValidContentType(*in.ContentType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content type"})
			return
		}
		if *in.ContentType == models.ContentTypePDF && current.FileURL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Content without a file cannot become pdf"})
			return
		}
		contentType = *in.ContentType
		updates["content_type"] = contentType
	}

	body := current.Body
	if in.Body != nil {
		body = *in.Body
		updates["body"] = body
	}
	if contentType != models.ContentTypePDF && strings.TrimSpace(body) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "textContent is required"})
		return
	}

	if in.Latitude != nil || in.Longitude != nil {
		if err := validateLocation(in.Latitude, in.Longitude); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		updates["latitude"] = *in.Latitude
		updates["longitude"] = *in.Longitude
	}
	if in.LocationName != nil {
		updates["location_name"] = strings.TrimSpace(*in.LocationName)
	}
	if in.HasTags {
		updates["tags"] = pq.StringArray(in.Tags)
	}

	updated, err := cc.Stores.Contents.Update(c.Request.Context(), current.ID, updates)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return
	}
	if err != nil {
		internalError(c, cc.Log, err, "Failed to update content")
		return
	}

	cc.invalidateFeeds(c)
	c.JSON(http.StatusOK, gin.H{
		"message": "Content updated successfully",
		"content": updated,
	})
}

// DeleteContent removes the row with its likes, saves, comments and
// notifications, then the stored file.
func (cc *ContentController) DeleteContent(c *gin.Context) {
	current := middleware.GetContent(c)
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return
	}

	ctx := c.Request.Context()
	if err := cc.Stores.Contents.Delete(ctx, current.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
			return
		}
		internalError(c, cc.Log, err, "Failed to delete content")
		return
	}

	if current.FileKey != "" {
		if err := cc.Files.Delete(ctx, current.FileKey); err != nil {
			cc.Log.Warn().Err(err).Str("key", current.FileKey).Msg("Failed to delete content file")
		}
	}

	cc.invalidateFeeds(c)
	c.JSON(http.StatusOK, gin.H{"message": "Content deleted successfully"})
}

func (cc *ContentController) GetMyContent(c *gin.Context) {
	p := utils.ParsePagination(c, defaultPageSize)
	filter := store.ContentFilter{AuthorIDs: []uint{currentUserID(c)}, Sort: store.SortNewest}

	items, total, err := cc.Stores.Contents.List(c.Request.Context(), filter, pageOf(p))
	if err != nil {
		internalError(c, cc.Log, err, "Failed to load content")
		return
	}

	c.JSON(http.StatusOK, contentList(items, total, p))
}
