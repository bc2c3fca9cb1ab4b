package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"clinicdesk/internal/repositories"
	"clinicdesk/internal/utils"
)

const resetTokenTTL = time.Hour

type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type passwordResetService struct {
	users  repositories.UserRepository
	repo   repositories.PasswordResetRepository
	emails EmailService
	auth   AuthService
	log    *zap.Logger
	now    func() time.Time
}

func NewPasswordResetService(users repositories.UserRepository, repo repositories.PasswordResetRepository, emails EmailService, auth AuthService, log *zap.Logger) PasswordResetService {
	if log == nil {
		log = zap.NewNop()
	}
	return &passwordResetService{
		users:  users,
		repo:   repo,
		emails: emails,
		auth:   auth,
		log:    log,
		now:    time.Now,
	}
}

// RequestReset never reveals whether the account exists.
func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.log.Info("[password-reset] no account", zap.String("email", email), zap.Error(err))
		return nil
	}

	token, err := utils.NewOpaqueToken(utils.DefaultTokenBytes)
	if err != nil {
		return err
	}
	if _, err := s.repo.Create(ctx, user.ID, token, s.now().Add(resetTokenTTL)); err != nil {
		return err
	}

	if s.emails != nil {
		if err := s.emails.SendPasswordResetEmail(user.Email, token); err != nil {
			s.log.Warn("[password-reset] send failed", zap.String("email", user.Email), zap.Error(err))
		}
	}
	return nil
}

func (s *passwordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	newPassword = strings.TrimSpace(newPassword)
	if token == "" {
		return ErrInvalidToken
	}
	if len(newPassword) < 6 {
		return ErrWeakPassword
	}

	pr, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if pr.Used() {
		return ErrTokenUsed
	}
	if pr.Expired(s.now()) {
		return ErrInvalidToken
	}

	// consume first so two concurrent confirms cannot both set a password
	if err := s.repo.MarkUsed(ctx, pr.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTokenUsed
		}
		return err
	}
	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, pr.UserID, hash); err != nil {
		return err
	}
	s.log.Info("[password-reset] password changed", zap.Int64("user_id", pr.UserID))
	return nil
}
