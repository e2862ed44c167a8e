package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"launchpad/internal/database"
	"launchpad/internal/models"
)

type NotificationRepository struct {
	db database.DBTX
}

func NewNotificationRepository(db database.DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n models.Notification) error {
	const query = `
		INSERT INTO notifications (id, recipient_id, type, content, related_id, related_kind, read, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		n.ID, n.RecipientID, n.Type, n.Content, n.RelatedID, n.RelatedKind, n.CreatedByID, n.CreatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// List pages the recipient's notifications, newest first, optionally of
// one type.
func (r *NotificationRepository) List(ctx context.Context, recipientID string, typ models.NotificationType, limit, offset int) ([]models.Notification, int64, error) {
	const filter = ` WHERE n.recipient_id = $1 AND ($2 = '' OR n.type = $2)`

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications n`+filter, recipientID, string(typ)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	query := `
		SELECT n.id, n.recipient_id, n.type, n.content, n.related_id, n.related_kind, n.read,
			n.created_by, u.username, COALESCE(u.profile->>'displayName', ''), u.avatar_url, n.created_at
		FROM notifications n
		JOIN users u ON u.id = n.created_by` + filter + `
		ORDER BY n.created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.Query(ctx, query, recipientID, string(typ), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func scanNotification(row pgx.Row) (models.Notification, error) {
	n := models.Notification{CreatedBy: &models.UserSummary{}}
	err := row.Scan(
		&n.ID,
		&n.RecipientID,
		&n.Type,
		&n.Content,
		&n.RelatedID,
		&n.RelatedKind,
		&n.Read,
		&n.CreatedByID,
		&n.CreatedBy.Username,
		&n.CreatedBy.DisplayName,
		&n.CreatedBy.AvatarURL,
		&n.CreatedAt,
	)
	n.CreatedBy.ID = n.CreatedByID
	return n, err
}

// MarkRead flags the given notifications of recipientID as read. Ids owned
// by other users are ignored.
func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID string, ids []string) error {
	const query = `UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND id = ANY($2)`
	if _, err := r.db.Exec(ctx, query, recipientID, ids); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

func (r *NotificationRepository) Delete(ctx context.Context, recipientID string, ids []string) error {
	const query = `DELETE FROM notifications WHERE recipient_id = $1 AND id = ANY($2)`
	if _, err := r.db.Exec(ctx, query, recipientID, ids); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var n int64
	const query = `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT read`
	if err := r.db.QueryRow(ctx, query, recipientID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}
