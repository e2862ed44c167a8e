package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"launchpad/internal/database"
	"launchpad/internal/models"
)

var ErrCommentNotFound = errors.New("comment not found")

const commentSelect = `
	SELECT
		cm.id, cm.product_id, cm.author_id, u.username,
		COALESCE(u.profile->>'displayName', ''), COALESCE(u.profile->>'headline', ''), u.avatar_url,
		cm.parent_id, cm.content, cm.like_count, cm.is_edited, cm.is_hidden, cm.last_edited_at,
		cm.created_at, cm.updated_at
	FROM comments cm
	JOIN users u ON u.id = cm.author_id`

var commentSortColumns = map[string]string{
	"createdAt": "cm.created_at",
	"likeCount": "cm.like_count",
}

type CommentFilter struct {
	Query     string
	ProductID string
	AuthorID  string
	MinLikes  int
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

type CommentRepository struct {
	db database.DBTX
}

func NewCommentRepository(db database.DBTX) *CommentRepository {
	return &CommentRepository{db: db}
}

func scanComment(row pgx.Row) (models.Comment, error) {
	c := models.Comment{Author: &models.UserSummary{}}
	if err := row.Scan(
		&c.ID,
		&c.ProductID,
		&c.AuthorID,
		&c.Author.Username,
		&c.Author.DisplayName,
		&c.Author.Headline,
		&c.Author.AvatarURL,
		&c.ParentID,
		&c.Content,
		&c.LikeCount,
		&c.IsEdited,
		&c.IsHidden,
		&c.LastEditedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrCommentNotFound
		}
		return models.Comment{}, err
	}
	c.Author.ID = c.AuthorID
	return c, nil
}

func collectComments(rows pgx.Rows) ([]models.Comment, error) {
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Create inserts the comment and bumps the product's comment counter in one
// statement.
func (r *CommentRepository) Create(ctx context.Context, c models.Comment) error {
	const query = `
		WITH inserted AS (
			INSERT INTO comments (id, product_id, author_id, parent_id, content, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			RETURNING product_id
		)
		UPDATE products SET comment_count = comment_count + 1
		WHERE id IN (SELECT product_id FROM inserted)
	`
	if _, err := r.db.Exec(ctx, query, c.ID, c.ProductID, c.AuthorID, c.ParentID, c.Content); err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	return scanComment(r.db.QueryRow(ctx, commentSelect+` WHERE cm.id = $1`, id))
}

// ListTopLevel pages the product's root comments, newest first.
func (r *CommentRepository) ListTopLevel(ctx context.Context, productID string, includeHidden bool, limit, offset int) ([]models.Comment, int64, error) {
	const filter = ` WHERE cm.product_id = $1 AND cm.parent_id IS NULL AND ($2 OR NOT cm.is_hidden)`

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM comments cm`+filter, productID, includeHidden).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	rows, err := r.db.Query(ctx, commentSelect+filter+` ORDER BY cm.created_at DESC LIMIT $3 OFFSET $4`,
		productID, includeHidden, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	comments, err := collectComments(rows)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// Replies returns the replies to any of parentIDs, oldest first.
func (r *CommentRepository) Replies(ctx context.Context, parentIDs []string, includeHidden bool) ([]models.Comment, error) {
	if len(parentIDs) == 0 {
		return []models.Comment{}, nil
	}
	rows, err := r.db.Query(ctx,
		commentSelect+` WHERE cm.parent_id = ANY($1) AND ($2 OR NOT cm.is_hidden) ORDER BY cm.created_at ASC`,
		parentIDs, includeHidden)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return collectComments(rows)
}

func (r *CommentRepository) UpdateContent(ctx context.Context, id, content string) error {
	const query = `
		UPDATE comments SET content = $2, is_edited = TRUE, last_edited_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.db.Exec(ctx, query, id, content)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// Delete removes the comment with its replies and lowers the product's
// counter by the number of rows removed.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	const query = `
		WITH removed AS (
			DELETE FROM comments WHERE id = $1 OR parent_id = $1
			RETURNING product_id
		)
		UPDATE products p SET comment_count = GREATEST(p.comment_count - d.n, 0)
		FROM (SELECT product_id, COUNT(*) AS n FROM removed GROUP BY product_id) d
		WHERE p.id = d.product_id
	`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (r *CommentRepository) Hide(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE comments SET is_hidden = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("hide comment: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// Like reports false when the user had already liked the comment.
func (r *CommentRepository) Like(ctx context.Context, commentID, userID string) (bool, int, error) {
	const query = `
		WITH added AS (
			INSERT INTO comment_likes (comment_id, user_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
			RETURNING comment_id
		)
		UPDATE comments SET like_count = like_count + 1
		WHERE id IN (SELECT comment_id FROM added)
		RETURNING like_count
	`
	return r.like(ctx, "like comment", query, commentID, userID)
}

// Unlike reports false when there was no like to remove.
func (r *CommentRepository) Unlike(ctx context.Context, commentID, userID string) (bool, int, error) {
	const query = `
		WITH removed AS (
			DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2
			RETURNING comment_id
		)
		UPDATE comments SET like_count = GREATEST(like_count - 1, 0)
		WHERE id IN (SELECT comment_id FROM removed)
		RETURNING like_count
	`
	return r.like(ctx, "unlike comment", query, commentID, userID)
}

func (r *CommentRepository) like(ctx context.Context, op, query, commentID, userID string) (bool, int, error) {
	var count int
	if err := r.db.QueryRow(ctx, query, commentID, userID).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("%s: %w", op, err)
	}
	return true, count, nil
}

// Search pages visible comments matching f.
func (r *CommentRepository) Search(ctx context.Context, f CommentFilter) ([]models.Comment, int64, error) {
	var c clauses
	c.add("NOT cm.is_hidden")
	if f.Query != "" {
		c.add("cm.content ILIKE ?", containsPattern(f.Query))
	}
	if f.ProductID != "" {
		c.add("cm.product_id = ?", f.ProductID)
	}
	if f.AuthorID != "" {
		c.add("cm.author_id = ?", f.AuthorID)
	}
	if f.MinLikes > 0 {
		c.add("cm.like_count >= ?", f.MinLikes)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM comments cm`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	query := commentSelect + c.where() +
		orderBy(commentSortColumns, f.SortBy, f.SortOrder, "cm.created_at") +
		" LIMIT " + c.next(f.Limit) + " OFFSET " + c.next(f.Offset)

	rows, err := r.db.Query(ctx, query, c.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search comments: %w", err)
	}
	comments, err := collectComments(rows)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}
