package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"clinicdesk/internal/models"
	"clinicdesk/internal/repositories"
)

// UserService manages staff accounts.
type UserService interface {
	CreateWithPassword(ctx context.Context, email, fullName, password string) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
}

type userService struct {
	repo   repositories.UserRepository
	emails EmailService
	auth   AuthService
	log    *zap.Logger
}

func NewUserService(repo repositories.UserRepository, emails EmailService, auth AuthService, log *zap.Logger) UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{repo: repo, emails: emails, auth: auth, log: log}
}

func (s *userService) CreateWithPassword(ctx context.Context, email, fullName, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(strings.TrimSpace(password)) < 6 {
		return nil, ErrWeakPassword
	}
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Email: email, FullName: strings.TrimSpace(fullName), PasswordHash: hash}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.emails != nil {
		if err := s.emails.SendWelcomeEmail(user.Email, user.FullName); err != nil {
			// the account exists either way
			s.log.Warn("[users][create] welcome email failed", zap.String("email", user.Email), zap.Error(err))
		}
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}
