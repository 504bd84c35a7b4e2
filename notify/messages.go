package notify

import (
	"fmt"

	"github.com/bluewhale-protocol/api-go/models"
)

func FollowEvent(follower *models.User, followingID uint) Event {
	return Event{
		RecipientID: followingID,
		SenderID:    &follower.ID,
		Type:        models.NotificationFollow,
		Message:     fmt.Sprintf("%s started following you", follower.Name),
	}
}

func LikeEvent(liker *models.User, content *models.Content) Event {
	return Event{
		RecipientID: content.AuthorID,
		SenderID:    &liker.ID,
		Type:        models.NotificationLike,
		ContentID:   &content.ID,
		Message:     fmt.Sprintf("%s liked your content %q", liker.Name, content.Title),
	}
}

func CommentEvent(author *models.User, content *models.Content, comment *models.Comment) Event {
	return Event{
		RecipientID: content.AuthorID,
		SenderID:    &author.ID,
		Type:        models.NotificationComment,
		ContentID:   &content.ID,
		CommentID:   &comment.ID,
		Message:     fmt.Sprintf("%s commented on your content %q", author.Name, content.Title),
	}
}
