package controllers

import (
	"errors"
	"net/http"

	"github.com/bluewhale-protocol/api-go/models"
	"github.com/bluewhale-protocol/api-go/store"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ValidationController struct {
	Users store.UserStore
	Log   zerolog.Logger
}

func NewValidationController(users store.UserStore, log zerolog.Logger) *ValidationController {
	return &ValidationController{Users: users, Log: log}
}

// ValidateEmail reports whether an account already uses the address.
func (vc *ValidationController) ValidateEmail(c *gin.Context) {
	email := models.NormalizeEmail(c.Param("email"))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	_, err := vc.Users.GetByEmail(c.Request.Context(), email)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"exists": true})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusOK, gin.H{"exists": false})
	default:
		internalError(c, vc.Log, err, "Failed to check email")
	}
}
