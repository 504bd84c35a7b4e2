package routes

import (
	"github.com/bluewhale-protocol/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupValidationRoutes(r *gin.Engine, validationController *controllers.ValidationController) {
	validation := r.Group("/auth/validate")
	{
		validation.GET("/email/:email", validationController.ValidateEmail)
	}
}
