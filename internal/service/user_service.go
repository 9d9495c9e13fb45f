package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, userID int64) (*models.User, error)
}

type userService struct {
	u repository.UserRepository
}

func NewUserService(u repository.UserRepository) UserService {
	return &userService{
		u: u,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.u.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		err = errors.New("user doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	return user, nil
}
