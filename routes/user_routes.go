package routes

import (
	"github.com/bluewhale-protocol/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupUserRoutes(r *gin.Engine, g guards, userController *controllers.UserController) {
	users := r.Group("/users")
	{
		users.GET("/search", userController.SearchUsers)
		users.GET("/suggested", g.auth, userController.GetSuggestedUsers)
		users.PUT("/profile", g.auth, userController.UpdateMyProfile)

		// Profile endpoints
		users.GET("/:userId", g.optional, userController.GetUserProfile)
		users.PUT("/:userId", g.auth, g.self, userController.UpdateUser)
		users.GET("/:userId/content", userController.GetUserContent)

		// Follow graph
		users.POST("/:userId/follow", g.auth, userController.FollowUser)
		users.DELETE("/:userId/follow", g.auth, userController.UnfollowUser)
		users.GET("/:userId/followers", userController.GetFollowers)
		users.GET("/:userId/following", userController.GetFollowing)
	}
}
