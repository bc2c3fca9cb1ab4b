package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"clinicdesk/internal/models"
	"clinicdesk/internal/repositories"
	"clinicdesk/internal/session"
	"clinicdesk/internal/utils"
)

const tokenLeeway = 2 * time.Minute

type Claims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	FullName  string `json:"name,omitempty"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type AuthService interface {
	SignIn(ctx context.Context, email, password string) (*models.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	SignOut(ctx context.Context, id session.Identity) error
	ParseAccessToken(ctx context.Context, token string) (session.Identity, error)
	HashPassword(password string) (string, error)
}

type authService struct {
	users      repositories.UserRepository
	denylist   session.Denylist
	tracker    *session.Tracker
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        *zap.Logger
	now        func() time.Time
}

func NewAuthService(
	users repositories.UserRepository,
	denylist session.Denylist,
	tracker *session.Tracker,
	secret string,
	accessTTL, refreshTTL time.Duration,
	log *zap.Logger,
) AuthService {
	if denylist == nil {
		denylist = session.NewMemoryDenylist()
	}
	if tracker == nil {
		tracker = session.NewTracker()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{
		users:      users,
		denylist:   denylist,
		tracker:    tracker,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		log:        log,
		now:        time.Now,
	}
}

func (s *authService) HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.log.Error("[auth][sign-in] lookup failed", zap.String("email", email), zap.Error(err))
			return nil, nil, err
		}
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Info("[auth][sign-in] bad password", zap.Int64("user_id", user.ID))
		return nil, nil, ErrInvalidCredentials
	}

	pair, claims, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.tracker.SignedIn(identityFrom(claims))
	s.log.Info("[auth][sign-in] ok", zap.Int64("user_id", user.ID))
	return user, pair, nil
}

// Refresh rotates the refresh token and issues a new access token. The
// session stays signed in.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.RefreshRevoked || user.RefreshExpiresAt == nil || s.now().After(*user.RefreshExpiresAt) {
		return nil, ErrInvalidToken
	}
	pair, claims, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	s.tracker.SignedIn(identityFrom(claims))
	return pair, nil
}

func (s *authService) SignOut(ctx context.Context, id session.Identity) error {
	if err := s.users.ClearRefresh(ctx, id.UserID); err != nil {
		return err
	}
	// tokens issued up to this second on any device stop working
	cutoff := s.now().Truncate(time.Second).Add(time.Second)
	if err := s.denylist.RevokeSession(ctx, id.SessionID, cutoff, cutoff.Add(s.accessTTL+tokenLeeway)); err != nil {
		s.log.Warn("[auth][sign-out] session cutoff failed", zap.Int64("user_id", id.UserID), zap.Error(err))
	}
	if id.TokenID != "" {
		if err := s.denylist.Revoke(ctx, id.TokenID, id.ExpiresAt.Add(tokenLeeway)); err != nil {
			s.log.Warn("[auth][sign-out] deny-list failed", zap.Int64("user_id", id.UserID), zap.Error(err))
		}
	}
	s.tracker.SignedOut(id)
	s.log.Info("[auth][sign-out] ok", zap.Int64("user_id", id.UserID))
	return nil
}

func (s *authService) ParseAccessToken(ctx context.Context, token string) (session.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithLeeway(tokenLeeway), jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return session.Identity{}, ErrInvalidToken
	}
	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return session.Identity{}, err
	}
	if revoked {
		return session.Identity{}, ErrInvalidToken
	}
	cutoff, err := s.denylist.SessionCutoff(ctx, claims.SessionID)
	if err != nil {
		return session.Identity{}, err
	}
	if !cutoff.IsZero() && (claims.IssuedAt == nil || claims.IssuedAt.Time.Before(cutoff)) {
		return session.Identity{}, ErrInvalidToken
	}
	// a valid token means a live session, also after a restart
	id := identityFrom(claims)
	s.tracker.SignedIn(id)
	return id, nil
}

// sessionID is per user: the users table holds a single refresh token, so
// signing in again replaces the previous session.
func sessionID(userID int64) string {
	return "user-" + strconv.FormatInt(userID, 10)
}

func (s *authService) issue(ctx context.Context, user *models.User) (*TokenPair, *Claims, error) {
	now := s.now()
	sid := sessionID(user.ID)
	issuedAt := now
	cutoff, err := s.denylist.SessionCutoff(ctx, sid)
	if err != nil {
		return nil, nil, err
	}
	// iat has second precision; a sign-in in the same second as the last
	// sign-out must still land on or after the cutoff
	if issuedAt.Before(cutoff) {
		issuedAt = cutoff
	}
	claims := &Claims{
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := utils.NewOpaqueToken(utils.DefaultTokenBytes)
	if err != nil {
		return nil, nil, err
	}
	if err := s.users.UpdateRefresh(ctx, user.ID, refresh, now.Add(s.refreshTTL)); err != nil {
		return nil, nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: claims.ExpiresAt.Time}, claims, nil
}

func identityFrom(c *Claims) session.Identity {
	id := session.Identity{
		UserID:    c.UserID,
		Email:     c.Email,
		FullName:  c.FullName,
		SessionID: c.SessionID,
		TokenID:   c.ID,
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}
