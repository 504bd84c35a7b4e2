package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bluewhale-protocol/api-go/config"
	"github.com/bluewhale-protocol/api-go/models"
	"github.com/bluewhale-protocol/api-go/store"
	"github.com/bluewhale-protocol/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

// GoogleVerifier resolves a Google credential to the account behind it.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*config.GoogleUserInfo, error)
	GetUserInfo(ctx context.Context, accessToken string) (*config.GoogleUserInfo, error)
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
}

type AuthController struct {
	Stores *store.Stores
	Tokens *utils.TokenManager
	Google GoogleVerifier
	Log    zerolog.Logger
}

// NewAuthController wires the auth endpoints. google may be nil, in which
// case Google sign-in answers 503.
func NewAuthController(stores *store.Stores, tokens *utils.TokenManager, google GoogleVerifier, log zerolog.Logger) *AuthController {
	return &AuthController{
		Stores: stores,
		Tokens: tokens,
		Google: google,
		Log:    log,
	}
}

// issueTokens signs an access/refresh pair and persists the refresh token.
func (ac *AuthController) issueTokens(ctx context.Context, userID uint) (string, string, error) {
	access, err := ac.Tokens.GenerateAccessToken(userID)
	if err != nil {
		return "", "", err
	}
	refresh, expiresAt, err := ac.Tokens.GenerateRefreshToken(userID)
	if err != nil {
		return "", "", err
	}
	if err := ac.Stores.Tokens.Create(ctx, &models.RefreshToken{
		UserID:    userID,
		Token:     refresh,
		ExpiresAt: expiresAt,
	}); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (ac *AuthController) Register(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Name     string `json:"name"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := models.NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = models.DefaultName(email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		internalError(c, ac.Log, err, "Could not hash password")
		return
	}
	hashed := string(hashedPassword)

	user := models.User{
		Email:    email,
		Password: &hashed,
		Name:     name,
	}

	ctx := c.Request.Context()
	if err := ac.Stores.Users.Create(ctx, &user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email is already registered"})
			return
		}
		internalError(c, ac.Log, err, "Failed to create user")
		return
	}

	access, refresh, err := ac.issueTokens(ctx, user.ID)
	if err != nil {
		internalError(c, ac.Log, err, "Could not generate token")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "User registered successfully",
		"user":          user,
		"token":         access,
		"refresh_token": refresh,
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user, err := ac.Stores.Users.GetByEmail(ctx, input.Email)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		internalError(c, ac.Log, err, "Failed to log in")
		return
	}

	// Google-only accounts have no password.
	if user.Password == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	access, refresh, err := ac.issueTokens(ctx, user.ID)
	if err != nil {
		internalError(c, ac.Log, err, "Could not generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Logged in successfully",
		"user":          user,
		"token":         access,
		"refresh_token": refresh,
	})
}

// Logout revokes the refresh token when one is supplied. Access tokens are
// stateless and simply expire.
func (ac *AuthController) Logout(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&input)

	if input.RefreshToken != "" {
		err := ac.Stores.Tokens.Delete(c.Request.Context(), input.RefreshToken)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			internalError(c, ac.Log, err, "Failed to logout")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (ac *AuthController) Me(c *gin.Context) {
	user := utils.GetCurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Refresh rotates a refresh token: the presented one is deleted and a new
// pair is issued.
func (ac *AuthController) Refresh(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := ac.Tokens.ParseRefreshToken(input.RefreshToken); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	ctx := c.Request.Context()
	stored, err := ac.Stores.Tokens.GetByToken(ctx, input.RefreshToken)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	if err != nil {
		internalError(c, ac.Log, err, "Failed to refresh token")
		return
	}

	// Deleting the row claims the token; a concurrent refresh that loses the
	// race sees ErrNotFound.
	err = ac.Stores.Tokens.Delete(ctx, stored.Token)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	if err != nil {
		internalError(c, ac.Log, err, "Failed to refresh token")
		return
	}

	if stored.Expired(time.Now()) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token expired"})
		return
	}

	user, err := ac.Stores.Users.GetByID(ctx, stored.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	access, refresh, err := ac.issueTokens(ctx, user.ID)
	if err != nil {
		internalError(c, ac.Log, err, "Could not generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":          user,
		"token":         access,
		"refresh_token": refresh,
	})
}

func (ac *AuthController) GoogleLogin(c *gin.Context) {
	if ac.Google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	var input struct {
		IDToken     string `json:"id_token"`
		AccessToken string `json:"access_token"`
		Code        string `json:"code"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var info *config.GoogleUserInfo
	var err error

	switch {
	case input.Code != "":
		token, exchangeErr := ac.Google.ExchangeCode(ctx, input.Code)
		if exchangeErr != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to exchange code for token"})
			return
		}
		info, err = ac.Google.GetUserInfo(ctx, token.AccessToken)
	case input.IDToken != "":
		info, err = ac.Google.VerifyIDToken(ctx, input.IDToken)
	case input.AccessToken != "":
		info, err = ac.Google.GetUserInfo(ctx, input.AccessToken)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "One of code, id_token or access_token is required"})
		return
	}

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Google token"})
		return
	}

	user, err := ac.findOrCreateGoogleUser(ctx, info)
	if err != nil {
		internalError(c, ac.Log, err, "Failed to sign in with Google")
		return
	}

	access, refresh, err := ac.issueTokens(ctx, user.ID)
	if err != nil {
		internalError(c, ac.Log, err, "Could not generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Logged in successfully",
		"user":          user,
		"token":         access,
		"refresh_token": refresh,
	})
}

// findOrCreateGoogleUser matches on Google id, then on email (linking the
// account), and creates a password-less user otherwise.
func (ac *AuthController) findOrCreateGoogleUser(ctx context.Context, info *config.GoogleUserInfo) (*models.User, error) {
	googleID := info.UserID()

	user, err := ac.Stores.Users.GetByGoogleID(ctx, googleID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	user, err = ac.Stores.Users.GetByEmail(ctx, info.Email)
	if err == nil {
		updates := map[string]interface{}{"google_id": googleID}
		if user.AvatarURL == "" && info.Picture != "" {
			updates["avatar_url"] = info.Picture
		}
		return ac.Stores.Users.Update(ctx, user.ID, updates)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	email := models.NormalizeEmail(info.Email)
	name := strings.TrimSpace(info.Name)
	if name == "" {
		name = models.DefaultName(email)
	}
	user = &models.User{
		Email:     email,
		GoogleID:  &googleID,
		Name:      name,
		AvatarURL: info.Picture,
	}
	if err := ac.Stores.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	ac.Log.Info().Uint("user_id", user.ID).Msg("Created user from Google sign-in")
	return user, nil
}
