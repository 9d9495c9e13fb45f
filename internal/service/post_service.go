package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
)

// PostInfo bundles a post with its ordered media assets.
type PostInfo struct {
	Post   *models.Post    `json:"post"`
	Assets []*models.Asset `json:"assets"`
}

type PostService interface {
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*PostInfo, error)
	Remove(ctx context.Context, userID, postID int64) error
}

type postService struct {
	p repository.PostRepository
	a repository.AssetRepository
}

func NewPostService(p repository.PostRepository, a repository.AssetRepository) PostService {
	return &postService{
		p: p,
		a: a,
	}
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.p.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*PostInfo, error) {
	isValid, err := s.p.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	if !isValid {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.p.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	assets, err := s.a.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	return &PostInfo{Post: post, Assets: assets}, nil
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	isValid, err := s.p.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}

	if !isValid {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return err
	}

	// assets are removed by the FK cascade
	err = s.p.Remove(ctx, postID)
	if err != nil {
		return err
	}
	return nil
}
