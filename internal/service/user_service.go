package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"launchpad/internal/apperr"
	"launchpad/internal/models"
	"launchpad/internal/repository"
)

// profileListLimit caps the submitted/upvoted product lists on a profile.
const profileListLimit = 20

type ProfileStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	UpdateProfile(ctx context.Context, id string, avatarURL, bio string, profile models.Profile) (models.User, error)
	Delete(ctx context.Context, id string) error
	Activity(ctx context.Context, id string) (models.UserActivity, error)
}

type FollowStore interface {
	Follow(ctx context.Context, followerID, followeeID string) (bool, error)
	Unfollow(ctx context.Context, followerID, followeeID string) (bool, error)
	Followers(ctx context.Context, userID string, limit, offset int) ([]models.UserSummary, int64, error)
	Following(ctx context.Context, userID string, limit, offset int) ([]models.UserSummary, int64, error)
}

type ProductSummaries interface {
	SubmittedBy(ctx context.Context, userID string, limit int) ([]models.ProductSummary, error)
	UpvotedBy(ctx context.Context, userID string, limit int) ([]models.ProductSummary, error)
}

type UserService struct {
	users    ProfileStore
	follows  FollowStore
	products ProductSummaries
	media    *MediaService
	log      zerolog.Logger
}

func NewUserService(users ProfileStore, follows FollowStore, products ProductSummaries, media *MediaService, log zerolog.Logger) *UserService {
	return &UserService{
		users:    users,
		follows:  follows,
		products: products,
		media:    media,
		log:      log,
	}
}

// ProfileUpdate merges into the stored profile. Nil fields keep their
// current value.
type ProfileUpdate struct {
	DisplayName *string
	Headline    *string
	Website     *string
	Location    *string
	Bio         *string
	SocialLinks *models.SocialLinks
	Avatar      *Upload
}

type FollowPage struct {
	Users []models.UserSummary
	Total int64
}

func (s *UserService) Profile(ctx context.Context, id string) (models.PublicProfile, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return models.PublicProfile{}, err
	}

	activity, err := s.users.Activity(ctx, id)
	if err != nil {
		return models.PublicProfile{}, err
	}
	submitted, err := s.products.SubmittedBy(ctx, id, profileListLimit)
	if err != nil {
		return models.PublicProfile{}, err
	}
	upvoted, err := s.products.UpvotedBy(ctx, id, profileListLimit)
	if err != nil {
		return models.PublicProfile{}, err
	}

	return models.PublicProfile{
		User:              u.Sanitized(),
		Activity:          activity,
		SubmittedProducts: submitted,
		UpvotedProducts:   upvoted,
	}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actor models.User, in ProfileUpdate) (models.User, error) {
	current, err := s.find(ctx, actor.ID)
	if err != nil {
		return models.User{}, err
	}

	profile := current.Profile
	assign(&profile.DisplayName, in.DisplayName)
	assign(&profile.Headline, in.Headline)
	assign(&profile.Website, in.Website)
	assign(&profile.Location, in.Location)
	if in.SocialLinks != nil {
		profile.SocialLinks = *in.SocialLinks
	}
	bio := current.Bio
	assign(&bio, in.Bio)

	avatarURL := current.AvatarURL
	if in.Avatar != nil {
		avatarURL, err = s.media.UploadAvatar(ctx, actor.ID, *in.Avatar)
		if err != nil {
			return models.User{}, err
		}
	}

	updated, err := s.users.UpdateProfile(ctx, actor.ID, avatarURL, bio, profile)
	if err != nil {
		if in.Avatar != nil {
			s.media.Remove(ctx, avatarURL)
		}
		return models.User{}, mapUserErr(err)
	}
	if in.Avatar != nil {
		s.media.Remove(ctx, current.AvatarURL)
	}
	return updated.Sanitized(), nil
}

// DeleteAccount removes the user and the avatar object. Owned rows are
// removed by the store.
func (s *UserService) DeleteAccount(ctx context.Context, actor models.User) error {
	current, err := s.find(ctx, actor.ID)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, actor.ID); err != nil {
		return mapUserErr(err)
	}
	s.media.Remove(ctx, current.AvatarURL)
	s.log.Info().Str("user_id", actor.ID).Msg("account deleted")
	return nil
}

func (s *UserService) Follow(ctx context.Context, actor models.User, targetID string) error {
	if actor.ID == targetID {
		return apperr.BadRequest("You cannot follow yourself")
	}
	if _, err := s.find(ctx, targetID); err != nil {
		return err
	}
	created, err := s.follows.Follow(ctx, actor.ID, targetID)
	if err != nil {
		return err
	}
	if !created {
		return apperr.BadRequest("You are already following this user")
	}
	return nil
}

func (s *UserService) Unfollow(ctx context.Context, actor models.User, targetID string) error {
	if actor.ID == targetID {
		return apperr.BadRequest("You cannot unfollow yourself")
	}
	if _, err := s.find(ctx, targetID); err != nil {
		return err
	}
	removed, err := s.follows.Unfollow(ctx, actor.ID, targetID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.BadRequest("You are not following this user")
	}
	return nil
}

func (s *UserService) Followers(ctx context.Context, userID string, limit, offset int) (FollowPage, error) {
	if _, err := s.find(ctx, userID); err != nil {
		return FollowPage{}, err
	}
	users, total, err := s.follows.Followers(ctx, userID, limit, offset)
	if err != nil {
		return FollowPage{}, err
	}
	return FollowPage{Users: users, Total: total}, nil
}

func (s *UserService) Following(ctx context.Context, userID string, limit, offset int) (FollowPage, error) {
	if _, err := s.find(ctx, userID); err != nil {
		return FollowPage{}, err
	}
	users, total, err := s.follows.Following(ctx, userID, limit, offset)
	if err != nil {
		return FollowPage{}, err
	}
	return FollowPage{Users: users, Total: total}, nil
}

func (s *UserService) find(ctx context.Context, id string) (models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return models.User{}, mapUserErr(err)
	}
	return u, nil
}

func mapUserErr(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperr.NotFound("User not found")
	}
	return err
}

func assign(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
