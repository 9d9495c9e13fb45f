package queue

import (
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/service"
)

type Queue struct {
	pr repository.PostRepository
	sa repository.SocialAccountRepository
	ig service.InstagramService
}

func NewQueue(
	pr repository.PostRepository,
	sa repository.SocialAccountRepository,
	ig service.InstagramService) *Queue {
	return &Queue{
		pr: pr,
		sa: sa,
		ig: ig,
	}
}

const TaskTypePublishPost = "publish:post"

type PublishPostPayload struct {
	PostID int64 `json:"post_id"`
}
