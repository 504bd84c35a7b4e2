package routes

import (
	"github.com/bluewhale-protocol/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupAuthRoutes(r *gin.Engine, g guards, authController *controllers.AuthController) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.Refresh)
		auth.POST("/google", authController.GoogleLogin)

		auth.POST("/logout", g.auth, authController.Logout)
		auth.GET("/me", g.auth, authController.Me)
	}
}
