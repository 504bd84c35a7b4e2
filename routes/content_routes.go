package routes

import (
	"github.com/bluewhale-protocol/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupContentRoutes(
	r *gin.Engine,
	g guards,
	feedController *controllers.FeedController,
	contentController *controllers.ContentController,
	interactionController *controllers.InteractionController,
) {
	content := r.Group("/content")
	{
		// Feeds; static segments are registered before /:contentId
		content.GET("", feedController.GetAllContent)
		content.GET("/global-top", feedController.GetGlobalTopContent)
		content.GET("/local", feedController.GetLocalContent)
		content.GET("/search", feedController.SearchContent)
		content.GET("/personalized", g.auth, feedController.GetPersonalizedContent)
		content.GET("/saved", g.auth, interactionController.GetSavedContent)
		content.GET("/my-content", g.auth, contentController.GetMyContent)

		content.POST("", g.auth, contentController.CreateContent)
		content.GET("/:contentId", g.optional, contentController.GetContent)
		content.PUT("/:contentId", g.auth, g.contentOwner, contentController.UpdateContent)
		content.DELETE("/:contentId", g.auth, g.contentOwner, contentController.DeleteContent)

		content.POST("/:contentId/like", g.auth, interactionController.LikeContent)
		content.DELETE("/:contentId/like", g.auth, interactionController.UnlikeContent)
		content.POST("/:contentId/save", g.auth, interactionController.SaveContent)
		content.DELETE("/:contentId/save", g.auth, interactionController.UnsaveContent)
	}
}
