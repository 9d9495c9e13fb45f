package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postpilot/internal/models"
)

func (j *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return j.PublishPost(ctx, payload.PostID)
}

func (j *Queue) PublishPost(ctx context.Context, postID int64) error {
	post, err := j.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		// deleted between scheduling and execution, nothing to do
		log.Printf("Post %d no longer exists, skipping", postID)
		return nil
	}

	// already published by a manual publish or an earlier retry
	if post.Status == models.PostStatusPublished {
		log.Printf("Post %d already published as %s, skipping", postID, post.IGMediaID)
		return nil
	}

	account, err := j.sa.GetByUserID(ctx, post.UserID)
	if err != nil {
		return err
	}
	if account == nil {
		j.pr.SetFailed(ctx, postID, "no connected Instagram account")
		log.Printf("No Instagram account for PostID %d", postID)
		return nil
	}

	_, _, err = j.ig.PublishPost(ctx, post, account)
	if err != nil {
		log.Printf("Error publishing PostID %d: %v", postID, err)
		return err
	}
	return nil
}
