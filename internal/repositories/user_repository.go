package repositories

import (
	"context"
	"database/sql"
	"time"

	"clinicdesk/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int64, hash string) error

	// refresh helpers
	UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
	ClearRefresh(ctx context.Context, userID int64) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (email, full_name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, q, user.Email, user.FullName, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	return wrapErr("create user", err)
}

const userColumns = `
	id, email, full_name, password_hash, created_at,
	refresh_token, refresh_expires_at, refresh_revoked
`

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if err != nil {
		return nil, wrapErr("get user", err)
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
	if err != nil {
		return nil, wrapErr("get user by email", err)
	}
	return u, nil
}

func (r *userRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE refresh_token=$1`, token))
	if err != nil {
		return nil, wrapErr("get user by refresh token", err)
	}
	return u, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, hash, userID)
	if err != nil {
		return wrapErr("update password", err)
	}
	return expectOneRow("update password", res)
}

// ===== refresh helpers =====

func (r *userRepository) UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE
		WHERE id=$3
	`
	_, err := r.db.ExecContext(ctx, q, token, expiresAt, userID)
	return wrapErr("update refresh", err)
}

func (r *userRepository) ClearRefresh(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token=NULL, refresh_expires_at=NULL, refresh_revoked=TRUE
		WHERE id=$1
	`, userID)
	return wrapErr("clear refresh", err)
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var (
		rt  sql.NullString
		rte sql.NullTime
		rr  sql.NullBool
	)
	if err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.CreatedAt,
		&rt, &rte, &rr,
	); err != nil {
		return nil, err
	}
	if rt.Valid {
		s := rt.String
		u.RefreshToken = &s
	}
	if rte.Valid {
		t := rte.Time
		u.RefreshExpiresAt = &t
	}
	u.RefreshRevoked = rr.Bool
	return u, nil
}
