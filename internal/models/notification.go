package models

import "time"

type NotificationType string

const (
	NotificationUpvote  NotificationType = "upvote"
	NotificationComment NotificationType = "comment"
	NotificationReply   NotificationType = "reply"
	NotificationMention NotificationType = "mention"
	NotificationSystem  NotificationType = "system"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationUpvote, NotificationComment, NotificationReply, NotificationMention, NotificationSystem:
		return true
	}
	return false
}

type RelatedKind string

const (
	RelatedProduct RelatedKind = "product"
	RelatedComment RelatedKind = "comment"
)

type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipientId"`
	Type        NotificationType `json:"type"`
	Content     string           `json:"content"`
	RelatedID   *string          `json:"relatedId,omitempty"`
	RelatedKind *RelatedKind     `json:"onModel,omitempty"`
	Read        bool             `json:"read"`
	CreatedByID string           `json:"createdById"`
	CreatedBy   *UserSummary     `json:"createdBy,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}
