package repositories

import (
	"context"
	"database/sql"
	"time"

	"clinicdesk/internal/models"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.PasswordReset, error)
	GetByToken(ctx context.Context, token string) (*models.PasswordReset, error)
	MarkUsed(ctx context.Context, id int64) error
}

type passwordResetRepository struct {
	db *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.PasswordReset, error) {
	const q = `
		INSERT INTO password_resets (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	pr := &models.PasswordReset{UserID: userID, Token: token, ExpiresAt: expiresAt}
	if err := r.db.QueryRowContext(ctx, q, userID, token, expiresAt).Scan(&pr.ID, &pr.CreatedAt); err != nil {
		return nil, wrapErr("create password reset", err)
	}
	return pr, nil
}

func (r *passwordResetRepository) GetByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	const q = `
		SELECT id, user_id, token, expires_at, used_at, created_at
		FROM password_resets
		WHERE token = $1
	`
	pr := &models.PasswordReset{}
	var usedAt sql.NullTime
	if err := r.db.QueryRowContext(ctx, q, token).Scan(&pr.ID, &pr.UserID, &pr.Token, &pr.ExpiresAt, &usedAt, &pr.CreatedAt); err != nil {
		return nil, wrapErr("get password reset", err)
	}
	if usedAt.Valid {
		pr.UsedAt = &usedAt.Time
	}
	return pr, nil
}

// MarkUsed consumes the token. ErrNotFound means it was already used,
// possibly by a concurrent request.
func (r *passwordResetRepository) MarkUsed(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE password_resets SET used_at = NOW() WHERE id = $1 AND used_at IS NULL`, id)
	if err != nil {
		return wrapErr("mark password reset used", err)
	}
	return expectOneRow("mark password reset used", res)
}
