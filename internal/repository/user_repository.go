package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"launchpad/internal/database"
	"launchpad/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user with email or username already exists")
)

const userColumns = `
	id, username, email, password_hash, role, avatar_url, bio, profile, notification_prefs,
	is_verified, is_active, refresh_token_hash, reset_token_hash, reset_token_expires_at,
	verify_token_hash, verify_token_expires_at, last_active_at, created_at, updated_at`

type UserRepository struct {
	db database.DBTX
}

func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.AvatarURL,
		&user.Bio,
		&user.Profile,
		&user.NotificationPrefs,
		&user.IsVerified,
		&user.IsActive,
		&user.RefreshTokenHash,
		&user.ResetTokenHash,
		&user.ResetTokenExpiresAt,
		&user.VerifyTokenHash,
		&user.VerifyTokenExpiresAt,
		&user.LastActiveAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// Create inserts an account. PasswordHash must already be an encoded hash.
func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, username, email, password_hash, role, avatar_url, bio, profile, notification_prefs,
			is_verified, is_active, verify_token_hash, verify_token_expires_at, created_at, updated_at
		) VALUES (
			$1, $2, LOWER($3), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW()
		)
	`

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.AvatarURL,
		user.Bio,
		user.Profile,
		user.NotificationPrefs,
		user.IsVerified,
		user.IsActive,
		user.VerifyTokenHash,
		user.VerifyTokenExpiresAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = LOWER($1)`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRow(ctx, query, username))
}

// FindByEmailOrUsername returns the first account matching either value.
func (r *UserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = LOWER($1) OR username = $2 LIMIT 1`
	return scanUser(r.db.QueryRow(ctx, query, email, username))
}

func (r *UserRepository) FindByResetToken(ctx context.Context, digest string, now time.Time) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token_hash = $1 AND reset_token_expires_at > $2`
	return scanUser(r.db.QueryRow(ctx, query, digest, now))
}

func (r *UserRepository) FindByVerificationToken(ctx context.Context, digest string, now time.Time) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE verify_token_hash = $1 AND verify_token_expires_at > $2`
	return scanUser(r.db.QueryRow(ctx, query, digest, now))
}

func (r *UserRepository) exec(ctx context.Context, op string, query string, args ...any) error {
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateRefreshToken stores the digest of the most recently issued refresh
// token, replacing any previous one.
func (r *UserRepository) UpdateRefreshToken(ctx context.Context, id, digest string) error {
	const query = `UPDATE users SET refresh_token_hash = $2, last_active_at = NOW(), updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, "update refresh token", query, id, digest)
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	const query = `UPDATE users SET refresh_token_hash = NULL, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, "clear refresh token", query, id)
}

func (r *UserRepository) UpdateResetToken(ctx context.Context, id, digest string, expiresAt time.Time) error {
	const query = `
		UPDATE users SET reset_token_hash = $2, reset_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, "update reset token", query, id, digest, expiresAt)
}

func (r *UserRepository) UpdateVerificationToken(ctx context.Context, id, digest string, expiresAt time.Time) error {
	const query = `
		UPDATE users SET verify_token_hash = $2, verify_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, "update verification token", query, id, digest, expiresAt)
}

// UpdatePassword stores a new hash and consumes the reset token. The stored
// refresh token is revoked with it.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `
		UPDATE users SET
			password_hash = $2,
			reset_token_hash = NULL,
			reset_token_expires_at = NULL,
			refresh_token_hash = NULL,
			updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, "update password", query, id, passwordHash)
}

func (r *UserRepository) MarkVerified(ctx context.Context, id string) error {
	const query = `
		UPDATE users SET
			is_verified = TRUE,
			verify_token_hash = NULL,
			verify_token_expires_at = NULL,
			updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, "mark verified", query, id)
}

// PurgeExpiredTokens clears reset and verification pairs whose expiry has
// passed and returns how many rows changed.
func (r *UserRepository) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		UPDATE users SET
			reset_token_hash = CASE WHEN reset_token_expires_at <= $1 THEN NULL ELSE reset_token_hash END,
			reset_token_expires_at = CASE WHEN reset_token_expires_at <= $1 THEN NULL ELSE reset_token_expires_at END,
			verify_token_hash = CASE WHEN verify_token_expires_at <= $1 THEN NULL ELSE verify_token_hash END,
			verify_token_expires_at = CASE WHEN verify_token_expires_at <= $1 THEN NULL ELSE verify_token_expires_at END
		WHERE reset_token_expires_at <= $1 OR verify_token_expires_at <= $1
	`
	cmd, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, avatarURL, bio string, profile models.Profile) (models.User, error) {
	query := `
		UPDATE users SET avatar_url = $2, bio = $3, profile = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, id, avatarURL, bio, profile))
}

func (r *UserRepository) UpdateNotificationPreferences(ctx context.Context, id string, prefs models.NotificationPreferences) error {
	const query = `UPDATE users SET notification_prefs = $2, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, "update notification preferences", query, id, prefs)
}

func (r *UserRepository) UpdateRole(ctx context.Context, username string, role models.Role) error {
	const query = `UPDATE users SET role = $2, updated_at = NOW() WHERE username = $1`
	return r.exec(ctx, "update role", query, username, role)
}

// Delete removes the account. Products, comments, votes and follows go
// with it through ON DELETE CASCADE; upvote counters on products the user
// voted for are decremented in the same statement.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const query = `
		WITH recount AS (
			UPDATE products p SET upvote_count = p.upvote_count - 1
			FROM product_upvotes pu
			WHERE pu.product_id = p.id AND pu.user_id = $1 AND p.submitted_by <> $1
		)
		DELETE FROM users WHERE id = $1
	`
	return r.exec(ctx, "delete user", query, id)
}

func (r *UserRepository) Activity(ctx context.Context, id string) (models.UserActivity, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM products WHERE submitted_by = $1),
			(SELECT COUNT(*) FROM product_upvotes WHERE user_id = $1),
			(SELECT COUNT(*) FROM comments WHERE author_id = $1),
			(SELECT COUNT(*) FROM follows WHERE followee_id = $1),
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1)
	`
	var a models.UserActivity
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&a.TotalProducts,
		&a.TotalUpvotes,
		&a.TotalComments,
		&a.Followers,
		&a.Following,
	); err != nil {
		return models.UserActivity{}, fmt.Errorf("user activity: %w", err)
	}
	return a, nil
}
