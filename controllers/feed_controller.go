package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/bluewhale-protocol/api-go/cache"
	"github.com/bluewhale-protocol/api-go/models"
	"github.com/bluewhale-protocol/api-go/store"
	"github.com/bluewhale-protocol/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type FeedController struct {
	Stores  *store.Stores
	Cache   cache.Cache
	FeedTTL time.Duration
	Log     zerolog.Logger
}

func NewFeedController(stores *store.Stores, c cache.Cache, feedTTL time.Duration, log zerolog.Logger) *FeedController {
	return &FeedController{
		Stores:  stores,
		Cache:   c,
		FeedTTL: feedTTL,
		Log:     log,
	}
}

// GetAllContent lists every content item, newest first.
func (fc *FeedController) GetAllContent(c *gin.Context) {
	p := utils.ParsePagination(c, defaultPageSize)

	items, total, err := fc.Stores.Contents.List(c.Request.Context(), store.ContentFilter{Sort: store.SortNewest}, pageOf(p))
	if err != nil {
		internalError(c, fc.Log, err, "Failed to load content")
		return
	}

	c.JSON(http.StatusOK, contentList(items, total, p))
}

// GetGlobalTopContent ranks by likes*3 + comments*2 + views. Pages are
// cached for FeedTTL.
func (fc *FeedController) GetGlobalTopContent(c *gin.Context) {
	p := utils.ParsePagination(c, defaultPageSize)
	ctx := c.Request.Context()
	key := cache.GlobalTopKey(p.Page, p.Limit)

	if cached, err := fc.Cache.Get(ctx, key); err == nil {
		c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
		return
	} else if !errors.Is(err, cache.ErrMiss) {
		fc.Log.Warn().Err(err).Str("key", key).Msg("Feed cache read failed")
	}

	items, total, err := fc.Stores.Contents.List(ctx, store.ContentFilter{Sort: store.SortTopScore}, pageOf(p))
	if err != nil {
		internalError(c, fc.Log, err, "Failed to load top content")
		return
	}

	body, err := json.Marshal(contentList(items, total, p))
	if err != nil {
		internalError(c, fc.Log, err, "Failed to encode top content")
		return
	}
	if err := fc.Cache.Set(ctx, key, body, fc.FeedTTL); err != nil {
		fc.Log.Warn().Err(err).Str("key", key).Msg("Feed cache write failed")
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// parseRadius returns the ?radius= value in km, falling back to the default
// when it is missing, unparsable or not positive.
func parseRadius(raw string) float64 {
	if r, ok := utils.ParseFloat(raw); ok && r > 0 {
		return r
	}
	return defaultRadiusKm
}

func (fc *FeedController) GetLocalContent(c *gin.Context) {
	lat, latOK := utils.ParseFloat(c.Query("latitude"))
	lon, lonOK := utils.ParseFloat(c.Query("longitude"))
	if !latOK || !lonOK {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}
	if !utils.ValidCoordinates(lat, lon) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates"})
		return
	}

	p := utils.ParsePagination(c, defaultPageSize)
	filter := store.ContentFilter{
		Near: &store.GeoFilter{Latitude: lat, Longitude: lon, RadiusKm: parseRadius(c.Query("radius"))},
		Sort: store.SortNewest,
	}

	items, total, err := fc.Stores.Contents.List(c.Request.Context(), filter, pageOf(p))
	if err != nil {
		internalError(c, fc.Log, err, "Failed to load local content")
		return
	}

	c.JSON(http.StatusOK, contentList(items, total, p))
}

// GetPersonalizedContent godoc
// @Summary Get the caller's personalized feed
// @Description Merges recent content from followed authors with content near the caller's stored location
// @Tags content
// @Produce json
// @Param page query integer false "Page number (default: 1)"
// @Param limit query integer false "Items per page (default: 10, max: 100)"
// @Success 200 {object} ContentListResponse
// @Router /content/personalized [get]
func (fc *FeedController) GetPersonalizedContent(c *gin.Context) {
	user := utils.GetCurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	p := utils.ParsePagination(c, defaultPageSize)
	ctx := c.Request.Context()

	var followed, nearby []models.Content

	followingIDs, err := fc.Stores.Follows.FollowingIDs(ctx, user.ID)
	if err != nil {
		internalError(c, fc.Log, err, "Failed to load followed users")
		return
	}
	if len(followingIDs) > 0 {
		filter := store.ContentFilter{AuthorIDs: followingIDs, Sort: store.SortNewest}
		if followed, _, err = fc.Stores.Contents.List(ctx, filter, store.Page{Limit: p.Limit * 2}); err != nil {
			internalError(c, fc.Log, err, "Failed to load followed content")
			return
		}
	}

	if user.HasLocation() {
		filter := store.ContentFilter{
			Near:            &store.GeoFilter{Latitude: *user.Latitude, Longitude: *user.Longitude, RadiusKm: defaultRadiusKm},
			ExcludeAuthorID: user.ID,
			Sort:            store.SortNewest,
		}
		if nearby, _, err = fc.Stores.Contents.List(ctx, filter, store.Page{Limit: p.Limit}); err != nil {
			internalError(c, fc.Log, err, "Failed to load nearby content")
			return
		}
	}

	items, total := mergePersonalized(followed, nearby, p)
	c.JSON(http.StatusOK, contentList(items, total, p))
}

// mergePersonalized de-duplicates both sources by id, orders the union
// newest first and returns the requested page along with the union size.
func mergePersonalized(followed, nearby []models.Content, p utils.PageParams) ([]models.Content, int64) {
	seen := make(map[uint]bool, len(followed)+len(nearby))
	merged := make([]models.Content, 0, len(followed)+len(nearby))
	for _, list := range [][]models.Content{followed, nearby} {
		for _, item := range list {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			merged = append(merged, item)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].ID > merged[j].ID
		}
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	total := int64(len(merged))
	start := p.Offset()
	if start < 0 || start >= len(merged) {
		return []models.Content{}, total
	}
	end := start + p.Limit
	if end > len(merged) {
		end = len(merged)
	}
	return merged[start:end], total
}

// SearchContent godoc
// @Summary Search content
// @Description Full-text search with optional tag, type and location filters
// @Tags content
// @Produce json
// @Param query query string true "Search text"
// @Param tags query string false "Comma separated tags (match any)"
// @Param contentType query string false "Comma separated content types"
// @Param sort query string false "relevance, date, aiScore, views or likes"
// @Param lat query number false "Latitude"
// @Param lon query number false "Longitude (lng is accepted too)"
// @Param radius query number false "Radius in km (default: 10)"
// @Success 200 {object} ContentListResponse
// @Router /content/search [get]
func (fc *FeedController) SearchContent(c *gin.Context) {
	text := strings.TrimSpace(c.Query("query"))
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
		return
	}

	q := store.SearchQuery{
		Text:         text,
		Tags:         utils.NormalizeTags(utils.SplitCSV(c.Query("tags"))),
		ContentTypes: utils.SplitCSV(c.Query("contentType")),
		Sort:         store.ParseSearchSort(c.Query("sort")),
	}

	lonRaw := c.Query("lon")
	if lonRaw == "" {
		lonRaw = c.Query("lng")
	}
	lat, latOK := utils.ParseFloat(c.Query("lat"))
	lon, lonOK := utils.ParseFloat(lonRaw)
	if latOK && lonOK {
		q.Near = &store.GeoFilter{Latitude: lat, Longitude: lon, RadiusKm: parseRadius(c.Query("radius"))}
	}

	p := utils.ParsePagination(c, defaultPageSize)
	items, total, err := fc.Stores.Contents.Search(c.Request.Context(), q, pageOf(p))
	if err != nil {
		internalError(c, fc.Log, err, "Failed to search content")
		return
	}

	c.JSON(http.StatusOK, contentList(items, total, p))
}
