package routes

import (
	"github.com/bluewhale-protocol/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupCommentRoutes(r *gin.Engine, g guards, commentController *controllers.CommentController) {
	comments := r.Group("/content/:contentId/comments")
	{
		comments.GET("", commentController.GetComments)
		comments.POST("", g.auth, commentController.AddComment)
		comments.PUT("/:commentId", g.auth, g.commentOwner, commentController.UpdateComment)
		comments.DELETE("/:commentId", g.auth, g.commentOwner, commentController.DeleteComment)
	}
}
