package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bluewhale-protocol/api-go/models"
	"github.com/bluewhale-protocol/api-go/notify"
	"github.com/bluewhale-protocol/api-go/storage"
	"github.com/bluewhale-protocol/api-go/store"
	"github.com/bluewhale-protocol/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type UserController struct {
	Stores   *store.Stores
	Notifier notify.Dispatcher
	Files    storage.FileStore
	Log      zerolog.Logger
}

func NewUserController(stores *store.Stores, notifier notify.Dispatcher, files storage.FileStore, log zerolog.Logger) *UserController {
	return &UserController{
		Stores:   stores,
		Notifier: notifier,
		Files:    files,
		Log:      log,
	}
}

func (uc *UserController) SearchUsers(c *gin.Context) {
	p := utils.ParsePagination(c, defaultPageSize)

	users, total, err := uc.Stores.Users.Search(c.Request.Context(), c.Query("query"), pageOf(p))
	if err != nil {
		internalError(c, uc.Log, err, "Failed to search users")
		return
	}
	if users == nil {
		users = []models.User{}
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      users,
		"pagination": utils.NewPagination(total, p),
	})
}

func (uc *UserController) GetSuggestedUsers(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = 5
	}
	if limit > utils.MaxPageSize {
		limit = utils.MaxPageSize
	}

	users, err := uc.Stores.Users.Suggested(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		internalError(c, uc.Log, err, "Failed to load suggested users")
		return
	}
	if users == nil {
		users = []models.User{}
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// loadUser resolves :userId, answering 400/404/500 itself on failure.
func (uc *UserController) loadUser(c *gin.Context) (*models.User, bool) {
	id, ok := idParam(c, "userId", "user")
	if !ok {
		return nil, false
	}

	user, err := uc.Stores.Users.GetByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return nil, false
	}
	if err != nil {
		internalError(c, uc.Log, err, "Failed to load user")
		return nil, false
	}
	return user, true
}

func (uc *UserController) GetUserProfile(c *gin.Context) {
	user, ok := uc.loadUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	stats, err := uc.Stores.Users.Stats(ctx, user.ID)
	if err != nil {
		internalError(c, uc.Log, err, "Failed to load user stats")
		return
	}

	resp := UserProfileResponse{User: user, Stats: stats}
	if viewer := currentUserID(c); viewer != 0 && viewer != user.ID {
		if resp.IsFollowing, err = uc.Stores.Follows.IsFollowing(ctx, viewer, user.ID); err != nil {
			internalError(c, uc.Log, err, "Failed to load follow state")
			return
		}
	}

	c.JSON(http.StatusOK, resp)
}

type profileInput struct {
	Name      *string  `json:"name" form:"name"`
	Bio       *string  `json:"bio" form:"bio"`
	AvatarURL *string  `json:"avatarUrl" form:"avatarUrl"`
	Latitude  *float64 `json:"latitude" form:"latitude"`
	Longitude *float64 `json:"longitude" form:"longitude"`
}

func (in profileInput) updates() (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, errors.New("name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Bio != nil {
		if len([]rune(*in.Bio)) > models.MaxBioLength {
			return nil, errors.New("bio must be at most 500 characters")
		}
		updates["bio"] = *in.Bio
	}
	if in.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*in.AvatarURL)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, errors.New("latitude and longitude must be provided together")
	}
	if in.Latitude != nil {
		if !utils.ValidCoordinates(*in.Latitude, *in.Longitude) {
			return nil, errors.New("invalid coordinates")
		}
		updates["latitude"] = *in.Latitude
		updates["longitude"] = *in.Longitude
	}
	return updates, nil
}

// UpdateUser serves PUT /users/:userId; ownership is checked by middleware.
func (uc *UserController) UpdateUser(c *gin.Context) {
	var input profileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates, err := input.updates()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	uc.applyProfile(c, updates)
}

// UpdateMyProfile serves PUT /users/profile. Multipart requests may carry an
// avatar file, which is uploaded once the other fields have validated.
func (uc *UserController) UpdateMyProfile(c *gin.Context) {
	var input profileInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates, err := input.updates()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		uc.applyProfile(c, updates)
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if err := storage.ValidateAvatar(contentType, fh.Size); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Avatar must be a jpeg, png or webp image up to 5MB"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read avatar"})
		return
	}
	defer f.Close()

	ctx := c.Request.Context()
	key := storage.AvatarKey(currentUserID(c), contentType)
	avatarURL, err := uc.Files.Put(ctx, key, contentType, f, fh.Size)
	if err != nil {
		internalError(c, uc.Log, err, "Failed to upload avatar")
		return
	}
	updates["avatar_url"] = avatarURL

	if !uc.applyProfile(c, updates) {
		if err := uc.Files.Delete(ctx, key); err != nil {
			uc.Log.Warn().Err(err).Str("key", key).Msg("Failed to clean up uploaded avatar")
		}
	}
}

// applyProfile writes updates for the caller and reports whether it succeeded.
func (uc *UserController) applyProfile(c *gin.Context, updates map[string]interface{}) bool {
	user, err := uc.Stores.Users.Update(c.Request.Context(), currentUserID(c), updates)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return false
	}
	if err != nil {
		internalError(c, uc.Log, err, "Failed to update profile")
		return false
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
	return true
}

func (uc *UserController) FollowUser(c *gin.Context) {
	target, ok := uc.followTarget(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	follower := utils.GetCurrentUser(c)
	err := uc.Stores.Follows.Follow(ctx, follower.ID, target.ID)
	if errors.Is(err, store.ErrAlreadyExists) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already following this user"})
		return
	}
	if err != nil {
		internalError(c, uc.Log, err, "Failed to follow user")
		return
	}

	if err := uc.Notifier.Notify(ctx, notify.FollowEvent(follower, target.ID)); err != nil {
		uc.Log.Warn().Err(err).Uint("user_id", target.ID).Msg("Failed to send follow notification")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Followed user successfully"})
}

func (uc *UserController) UnfollowUser(c *gin.Context) {
	target, ok := uc.followTarget(c)
	if !ok {
		return
	}

	err := uc.Stores.Follows.Unfollow(c.Request.Context(), currentUserID(c), target.ID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not following this user"})
		return
	}
	if err != nil {
		internalError(c, uc.Log, err, "Failed to unfollow user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed user successfully"})
}

// followTarget loads :userId and rejects following oneself.
func (uc *UserController) followTarget(c *gin.Context) (*models.User, bool) {
	id, ok := idParam(c, "userId", "user")
	if !ok {
		return nil, false
	}
	if id == currentUserID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot follow yourself"})
		return nil, false
	}
	return uc.loadUser(c)
}

func (uc *UserController) GetFollowers(c *gin.Context) {
	user, ok := uc.loadUser(c)
	if !ok {
		return
	}

	p := utils.ParsePagination(c, defaultListSize)
	users, total, err := uc.Stores.Follows.Followers(c.Request.Context(), user.ID, pageOf(p))
	if err != nil {
		internalError(c, uc.Log, err, "Failed to load followers")
		return
	}
	if users == nil {
		users = []models.User{}
	}

	c.JSON(http.StatusOK, gin.H{
		"followers":  users,
		"pagination": utils.NewPagination(total, p),
	})
}

func (uc *UserController) GetFollowing(c *gin.Context) {
	user, ok := uc.loadUser(c)
	if !ok {
		return
	}

	p := utils.ParsePagination(c, defaultListSize)
	users, total, err := uc.Stores.Follows.Following(c.Request.Context(), user.ID, pageOf(p))
	if err != nil {
		internalError(c, uc.Log, err, "Failed to load following")
		return
	}
	if users == nil {
		users = []models.User{}
	}

	c.JSON(http.StatusOK, gin.H{
		"following":  users,
		"pagination": utils.NewPagination(total, p),
	})
}

func (uc *UserController) GetUserContent(c *gin.Context) {
	user, ok := uc.loadUser(c)
	if !ok {
		return
	}

	p := utils.ParsePagination(c, defaultPageSize)
	filter := store.ContentFilter{AuthorIDs: []uint{user.ID}, Sort: store.SortNewest}
	items, total, err := uc.Stores.Contents.List(c.Request.Context(), filter, pageOf(p))
	if err != nil {
		internalError(c, uc.Log, err, "Failed to load user content")
		return
	}

	c.JSON(http.StatusOK, contentList(items, total, p))
}
