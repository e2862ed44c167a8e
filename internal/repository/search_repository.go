package repository

import (
	"context"
	"fmt"

	"launchpad/internal/database"
	"launchpad/internal/models"
)

var userSortColumns = map[string]string{
	"createdAt": "u.created_at",
	"username":  "u.username",
}

type UserFilter struct {
	Query       string
	Role        models.Role
	HasProducts bool
	MinUpvotes  int
	SortBy      string
	SortOrder   string
	Limit       int
	Offset      int
}

type Suggestion struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Subtitle string `json:"subtitle"`
	Slug     string `json:"slug,omitempty"`
	Username string `json:"username,omitempty"`
	ID       string `json:"id"`
}

// SearchRepository serves the read-only search endpoints that span tables.
type SearchRepository struct {
	db database.DBTX
}

func NewSearchRepository(db database.DBTX) *SearchRepository {
	return &SearchRepository{db: db}
}

// Users matches username, display name and headline. Only active accounts
// are returned.
func (r *SearchRepository) Users(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	var c clauses
	c.add("u.is_active")
	if f.Query != "" {
		pattern := containsPattern(f.Query)
		c.add("(u.username ILIKE ? OR u.profile->>'displayName' ILIKE ? OR u.profile->>'headline' ILIKE ?)", pattern, pattern, pattern)
	}
	if f.Role != "" {
		c.add("u.role = ?", f.Role)
	}
	if f.HasProducts {
		c.add("EXISTS (SELECT 1 FROM products p WHERE p.submitted_by = u.id)")
	}
	if f.MinUpvotes > 0 {
		c.add("(SELECT COUNT(*) FROM product_upvotes pu WHERE pu.user_id = u.id) >= ?", f.MinUpvotes)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users u`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := `SELECT ` + qualifiedUserColumns + ` FROM users u` + c.where() +
		orderBy(userSortColumns, f.SortBy, f.SortOrder, "u.created_at") +
		" LIMIT " + c.next(f.Limit) + " OFFSET " + c.next(f.Offset)

	rows, err := r.db.Query(ctx, query, c.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u.Sanitized())
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

const qualifiedUserColumns = `
	u.id, u.username, u.email, u.password_hash, u.role, u.avatar_url, u.bio, u.profile, u.notification_prefs,
	u.is_verified, u.is_active, u.refresh_token_hash, u.reset_token_hash, u.reset_token_expires_at,
	u.verify_token_hash, u.verify_token_expires_at, u.last_active_at, u.created_at, u.updated_at`

// Suggestions returns up to limit product and/or user completions for q.
func (r *SearchRepository) Suggestions(ctx context.Context, q string, products, users bool, limit int) ([]Suggestion, error) {
	out := make([]Suggestion, 0)
	pattern := containsPattern(q)

	if products {
		const query = `
			SELECT id, name, tagline, slug FROM products
			WHERE name ILIKE $1 OR tagline ILIKE $1
			ORDER BY upvote_count DESC
			LIMIT $2
		`
		rows, err := r.db.Query(ctx, query, pattern, limit)
		if err != nil {
			return nil, fmt.Errorf("product suggestions: %w", err)
		}
		for rows.Next() {
			s := Suggestion{Type: "product"}
			if err := rows.Scan(&s.ID, &s.Text, &s.Subtitle, &s.Slug); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan product suggestion: %w", err)
			}
			out = append(out, s)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	if users {
		const query = `
			SELECT id, username, COALESCE(NULLIF(profile->>'displayName', ''), username) FROM users
			WHERE is_active AND (username ILIKE $1 OR profile->>'displayName' ILIKE $1)
			ORDER BY username
			LIMIT $2
		`
		rows, err := r.db.Query(ctx, query, pattern, limit)
		if err != nil {
			return nil, fmt.Errorf("user suggestions: %w", err)
		}
		for rows.Next() {
			s := Suggestion{Type: "user"}
			if err := rows.Scan(&s.ID, &s.Username, &s.Text); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan user suggestion: %w", err)
			}
			s.Subtitle = "@" + s.Username
			out = append(out, s)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	return out, nil
}
