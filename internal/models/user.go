package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

type SocialLinks struct {
	Twitter     string `json:"twitter,omitempty"`
	GitHub      string `json:"github,omitempty"`
	LinkedIn    string `json:"linkedin,omitempty"`
	ProductHunt string `json:"productHunt,omitempty"`
}

type Profile struct {
	DisplayName string      `json:"displayName,omitempty"`
	Headline    string      `json:"headline,omitempty"`
	Website     string      `json:"website,omitempty"`
	Location    string      `json:"location,omitempty"`
	SocialLinks SocialLinks `json:"socialLinks"`
}

type EmailPreferences struct {
	NewComments    bool `json:"newComments"`
	NewUpvotes     bool `json:"newUpvotes"`
	ProductUpdates bool `json:"productUpdates"`
	Marketing      bool `json:"marketing"`
}

type InAppPreferences struct {
	NewComments    bool `json:"newComments"`
	NewUpvotes     bool `json:"newUpvotes"`
	ProductUpdates bool `json:"productUpdates"`
}

type NotificationPreferences struct {
	Email EmailPreferences `json:"email"`
	InApp InAppPreferences `json:"inApp"`
}

func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		Email: EmailPreferences{NewComments: true, NewUpvotes: true, ProductUpdates: true},
		InApp: InAppPreferences{NewComments: true, NewUpvotes: true, ProductUpdates: true},
	}
}

// User is the identity and credential record. Secret columns never
// serialise.
type User struct {
	ID                   string                  `json:"id"`
	Username             string                  `json:"username"`
	Email                string                  `json:"email"`
	PasswordHash         string                  `json:"-"`
	Role                 Role                    `json:"role"`
	AvatarURL            string                  `json:"avatar"`
	Bio                  string                  `json:"bio"`
	Profile              Profile                 `json:"profile"`
	NotificationPrefs    NotificationPreferences `json:"-"`
	IsVerified           bool                    `json:"isVerified"`
	IsActive             bool                    `json:"isActive"`
	RefreshTokenHash     *string                 `json:"-"`
	ResetTokenHash       *string                 `json:"-"`
	ResetTokenExpiresAt  *time.Time              `json:"-"`
	VerifyTokenHash      *string                 `json:"-"`
	VerifyTokenExpiresAt *time.Time              `json:"-"`
	LastActiveAt         time.Time               `json:"lastActiveAt"`
	CreatedAt            time.Time               `json:"createdAt"`
	UpdatedAt            time.Time               `json:"updatedAt"`
}

// Sanitized returns a copy with every credential field cleared.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.RefreshTokenHash = nil
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
	u.VerifyTokenHash = nil
	u.VerifyTokenExpiresAt = nil
	return u
}

// UserSummary is the author/submitter shape embedded in other resources.
type UserSummary struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	Headline    string `json:"headline,omitempty"`
	AvatarURL   string `json:"avatar,omitempty"`
}

type UserActivity struct {
	TotalProducts int64 `json:"totalProducts"`
	TotalUpvotes  int64 `json:"totalUpvotes"`
	TotalComments int64 `json:"totalComments"`
	Followers     int64 `json:"followers"`
	Following     int64 `json:"following"`
}

// PublicProfile is what GET /users/:id renders.
type PublicProfile struct {
	User
	Activity          UserActivity     `json:"activity"`
	SubmittedProducts []ProductSummary `json:"submittedProducts"`
	UpvotedProducts   []ProductSummary `json:"upvotedProducts"`
}
