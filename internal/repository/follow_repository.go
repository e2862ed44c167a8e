package repository

import (
	"context"
	"fmt"

	"launchpad/internal/database"
	"launchpad/internal/models"
)

type FollowRepository struct {
	db database.DBTX
}

func NewFollowRepository(db database.DBTX) *FollowRepository {
	return &FollowRepository{db: db}
}

// Follow records the edge and reports false when it already existed.
func (r *FollowRepository) Follow(ctx context.Context, followerID, followeeID string) (bool, error) {
	const query = `
		INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	cmd, err := r.db.Exec(ctx, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("follow: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// Unfollow removes the edge and reports false when there was none.
func (r *FollowRepository) Unfollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	const query = `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`
	cmd, err := r.db.Exec(ctx, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("unfollow: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *FollowRepository) Followers(ctx context.Context, userID string, limit, offset int) ([]models.UserSummary, int64, error) {
	const query = `
		SELECT u.id, u.username, COALESCE(u.profile->>'displayName', ''), COALESCE(u.profile->>'headline', ''), u.avatar_url
		FROM follows f JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3
	`
	const count = `SELECT COUNT(*) FROM follows WHERE followee_id = $1`
	return r.list(ctx, query, count, userID, limit, offset)
}

func (r *FollowRepository) Following(ctx context.Context, userID string, limit, offset int) ([]models.UserSummary, int64, error) {
	const query = `
		SELECT u.id, u.username, COALESCE(u.profile->>'displayName', ''), COALESCE(u.profile->>'headline', ''), u.avatar_url
		FROM follows f JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3
	`
	const count = `SELECT COUNT(*) FROM follows WHERE follower_id = $1`
	return r.list(ctx, query, count, userID, limit, offset)
}

func (r *FollowRepository) list(ctx context.Context, query, count, userID string, limit, offset int) ([]models.UserSummary, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, count, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count follows: %w", err)
	}

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list follows: %w", err)
	}
	defer rows.Close()

	users := make([]models.UserSummary, 0, limit)
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Headline, &u.AvatarURL); err != nil {
			return nil, 0, fmt.Errorf("scan follow: %w", err)
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}
