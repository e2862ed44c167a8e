package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"launchpad/internal/apperr"
	"launchpad/internal/cache"
	"launchpad/internal/ids"
	"launchpad/internal/models"
	"launchpad/internal/policy"
	"launchpad/internal/repository"
)

type NotificationStore interface {
	Create(ctx context.Context, n models.Notification) error
	List(ctx context.Context, recipientID string, typ models.NotificationType, limit, offset int) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, recipientID string, ids []string) error
	Delete(ctx context.Context, recipientID string, ids []string) error
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
}

type PreferenceStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	UpdateNotificationPreferences(ctx context.Context, id string, prefs models.NotificationPreferences) error
}

// Publisher fans events out to connected clients.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Event is the message pushed on a user's notification channel.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

const (
	EventNotification = "notification"
	EventRead         = "read"
	EventDelete       = "delete"
	EventPreferences  = "preferences"
)

type NotificationService struct {
	notifications NotificationStore
	users         PreferenceStore
	pub           Publisher
	log           zerolog.Logger
}

func NewNotificationService(notifications NotificationStore, users PreferenceStore, pub Publisher, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		pub:           pub,
		log:           log,
	}
}

type NotifyInput struct {
	RecipientID string
	Type        models.NotificationType
	Content     string
	RelatedID   string
	RelatedKind models.RelatedKind
}

// Send is the manual path behind POST /notifications.
func (s *NotificationService) Send(ctx context.Context, actor models.User, in NotifyInput) (models.Notification, error) {
	if err := policy.Authorize(actor, policy.SendNotifications, ""); err != nil {
		return models.Notification{}, err
	}
	if !in.Type.Valid() {
		return models.Notification{}, apperr.BadRequest("Invalid notification type")
	}
	if in.RelatedKind != "" && in.RelatedKind != models.RelatedProduct && in.RelatedKind != models.RelatedComment {
		return models.Notification{}, apperr.BadRequest("Invalid related resource kind")
	}

	n, err := s.create(ctx, actor, in)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.Notification{}, apperr.NotFound("Recipient not found")
		}
		return models.Notification{}, err
	}
	return n, nil
}

// Automatic records an engagement notification on behalf of actor. It
// honours the recipient's in-app preferences, skips self-notifications and
// never fails the calling request.
func (s *NotificationService) Automatic(ctx context.Context, actor models.User, in NotifyInput) {
	if in.RecipientID == "" || in.RecipientID == actor.ID {
		return
	}

	recipient, err := s.users.FindByID(ctx, in.RecipientID)
	if err != nil {
		s.log.Warn().Err(err).Str("recipient_id", in.RecipientID).Msg("notification recipient lookup failed")
		return
	}
	if !wantsInApp(recipient.NotificationPrefs, in.Type) {
		return
	}

	if _, err := s.create(ctx, actor, in); err != nil {
		s.log.Warn().Err(err).Str("recipient_id", in.RecipientID).Str("type", string(in.Type)).Msg("automatic notification failed")
	}
}

func wantsInApp(prefs models.NotificationPreferences, typ models.NotificationType) bool {
	switch typ {
	case models.NotificationUpvote:
		return prefs.InApp.NewUpvotes
	case models.NotificationComment, models.NotificationReply, models.NotificationMention:
		return prefs.InApp.NewComments
	default:
		return true
	}
}

func (s *NotificationService) create(ctx context.Context, actor models.User, in NotifyInput) (models.Notification, error) {
	n := models.Notification{
		ID:          ids.New(),
		RecipientID: in.RecipientID,
		Type:        in.Type,
		Content:     in.Content,
		CreatedByID: actor.ID,
		CreatedBy: &models.UserSummary{
			ID:          actor.ID,
			Username:    actor.Username,
			DisplayName: actor.Profile.DisplayName,
			AvatarURL:   actor.AvatarURL,
		},
		CreatedAt: time.Now().UTC(),
	}
	if in.RelatedID != "" {
		related := in.RelatedID
		n.RelatedID = &related
	}
	if in.RelatedKind != "" {
		kind := in.RelatedKind
		n.RelatedKind = &kind
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		return models.Notification{}, err
	}

	s.publish(ctx, n.RecipientID, Event{Type: EventNotification, Data: n})
	return n, nil
}

type NotificationPage struct {
	Notifications []models.Notification
	Total         int64
	Unread        int64
}

func (s *NotificationService) List(ctx context.Context, userID string, typ models.NotificationType, limit, offset int) (NotificationPage, error) {
	if typ != "" && !typ.Valid() {
		return NotificationPage{}, apperr.BadRequest("Invalid notification type")
	}
	items, total, err := s.notifications.List(ctx, userID, typ, limit, offset)
	if err != nil {
		return NotificationPage{}, err
	}
	unread, err := s.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return NotificationPage{}, err
	}
	return NotificationPage{Notifications: items, Total: total, Unread: unread}, nil
}

// MarkRead returns the remaining unread count.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, notificationIDs []string) (int64, error) {
	if len(notificationIDs) == 0 {
		return 0, apperr.BadRequest("notificationIds must not be empty")
	}
	if err := s.notifications.MarkRead(ctx, userID, notificationIDs); err != nil {
		return 0, err
	}
	return s.unreadChanged(ctx, userID, EventRead)
}

func (s *NotificationService) Delete(ctx context.Context, userID string, notificationIDs []string) (int64, error) {
	if len(notificationIDs) == 0 {
		return 0, apperr.BadRequest("notificationIds must not be empty")
	}
	if err := s.notifications.Delete(ctx, userID, notificationIDs); err != nil {
		return 0, err
	}
	return s.unreadChanged(ctx, userID, EventDelete)
}

func (s *NotificationService) unreadChanged(ctx context.Context, userID, event string) (int64, error) {
	unread, err := s.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, userID, Event{Type: event, Data: map[string]int64{"unreadCount": unread}})
	return unread, nil
}

func (s *NotificationService) Preferences(ctx context.Context, userID string) (models.NotificationPreferences, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.NotificationPreferences{}, apperr.NotFound("User not found")
		}
		return models.NotificationPreferences{}, err
	}
	return user.NotificationPrefs, nil
}

func (s *NotificationService) UpdatePreferences(ctx context.Context, userID string, prefs models.NotificationPreferences) (models.NotificationPreferences, error) {
	if err := s.users.UpdateNotificationPreferences(ctx, userID, prefs); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.NotificationPreferences{}, apperr.NotFound("User not found")
		}
		return models.NotificationPreferences{}, err
	}
	s.publish(ctx, userID, Event{Type: EventPreferences, Data: prefs})
	return prefs, nil
}

func (s *NotificationService) publish(ctx context.Context, userID string, event Event) {
	if s.pub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Error().Err(err).Msg("encode notification event")
		return
	}
	if err := s.pub.Publish(ctx, cache.NotificationChannel(userID), payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("publish notification event failed")
	}
}
