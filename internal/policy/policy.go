// Package policy holds every role decision the API makes. Handlers and
// services ask Authorize after loading the target record; nothing else
// compares role strings.
package policy

import (
	"launchpad/internal/apperr"
	"launchpad/internal/models"
)

type Capability int

const (
	// ModifyOwned covers update and delete of a resource: owner or admin.
	ModifyOwned Capability = iota
	// EditOwnContent covers rewriting authored text: owner only.
	EditOwnContent
	HideComment
	ViewHidden
	ManageCategories
	ModerateProducts
	SendNotifications
	ViewPlatformAnalytics
)

func (c Capability) String() string {
	switch c {
	case ModifyOwned:
		return "modify"
	case EditOwnContent:
		return "edit"
	case HideComment:
		return "hide comments"
	case ViewHidden:
		return "view hidden content"
	case ManageCategories:
		return "manage categories"
	case ModerateProducts:
		return "moderate products"
	case SendNotifications:
		return "send notifications"
	case ViewPlatformAnalytics:
		return "view platform analytics"
	default:
		return "unknown"
	}
}

// Allowed reports whether actor holds capability over a resource owned by
// ownerID. ownerID is ignored by capabilities that are role-only.
func Allowed(actor models.User, capability Capability, ownerID string) bool {
	isOwner := ownerID != "" && actor.ID == ownerID

	switch capability {
	case ModifyOwned:
		return isOwner || actor.Role == models.RoleAdmin
	case EditOwnContent:
		return isOwner
	case HideComment, ViewHidden:
		return actor.Role == models.RoleModerator || actor.Role == models.RoleAdmin
	case ManageCategories, ModerateProducts, SendNotifications, ViewPlatformAnalytics:
		return actor.Role == models.RoleAdmin
	}
	return false
}

// Authorize is Allowed as an error: nil, or a Forbidden apperr.
func Authorize(actor models.User, capability Capability, ownerID string) error {
	if Allowed(actor, capability, ownerID) {
		return nil
	}
	return apperr.Forbidden("You are not allowed to " + capability.String() + " this resource")
}
