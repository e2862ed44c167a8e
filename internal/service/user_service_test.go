package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/internal/apperr"
	"launchpad/internal/models"
)

type memFollows struct {
	mu    sync.Mutex
	edges map[[2]string]bool
}

func (m *memFollows) Follow(ctx context.Context, followerID, followeeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{followerID, followeeID}
	if m.edges[key] {
		return false, nil
	}
	m.edges[key] = true
	return true, nil
}

func (m *memFollows) Unfollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{followerID, followeeID}
	if !m.edges[key] {
		return false, nil
	}
	delete(m.edges, key)
	return true, nil
}

func (m *memFollows) Followers(ctx context.Context, userID string, limit, offset int) ([]models.UserSummary, int64, error) {
	return m.list(func(edge [2]string) (string, bool) { return edge[0], edge[1] == userID })
}

func (m *memFollows) Following(ctx context.Context, userID string, limit, offset int) ([]models.UserSummary, int64, error) {
	return m.list(func(edge [2]string) (string, bool) { return edge[1], edge[0] == userID })
}

func (m *memFollows) list(match func([2]string) (string, bool)) ([]models.UserSummary, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.UserSummary, 0)
	for edge := range m.edges {
		if id, ok := match(edge); ok {
			out = append(out, models.UserSummary{ID: id})
		}
	}
	return out, int64(len(out)), nil
}

type stubSummaries struct{}

func (stubSummaries) SubmittedBy(ctx context.Context, userID string, limit int) ([]models.ProductSummary, error) {
	return []models.ProductSummary{{ID: "p-1", Name: "Rocket Notes"}}, nil
}

func (stubSummaries) UpvotedBy(ctx context.Context, userID string, limit int) ([]models.ProductSummary, error) {
	return []models.ProductSummary{}, nil
}

type userFixture struct {
	svc     *UserService
	users   *memUsers
	follows *memFollows
	objects *memObjects
}

func newUserFixture(t *testing.T) userFixture {
	t.Helper()
	users := newMemUsers()
	for _, u := range []models.User{alice, bob} {
		u.Email = u.Username + "@example.com"
		u.PasswordHash = "$argon2id$secret"
		require.NoError(t, users.Create(context.Background(), u))
	}
	follows := &memFollows{edges: make(map[[2]string]bool)}
	objects := newMemObjects()
	media := NewMediaService(objects, 5*1024*1024, zerolog.Nop())
	return userFixture{
		svc:     NewUserService(users, follows, stubSummaries{}, media, zerolog.Nop()),
		users:   users,
		follows: follows,
		objects: objects,
	}
}

func TestProfileIsSanitized(t *testing.T) {
	f := newUserFixture(t)

	p, err := f.svc.Profile(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, p.PasswordHash)
	assert.Equal(t, int64(1), p.Activity.TotalProducts)
	assert.Len(t, p.SubmittedProducts, 1)
	assert.NotNil(t, p.UpvotedProducts)

	_, err = f.svc.Profile(context.Background(), "ghost")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateProfileMergesFields(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	headline := "Maker"
	bio := "Builds things"
	u, err := f.svc.UpdateProfile(ctx, alice, ProfileUpdate{Headline: &headline, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Maker", u.Profile.Headline)
	assert.Equal(t, "Builds things", u.Bio)

	name := "Alice A."
	u, err = f.svc.UpdateProfile(ctx, alice, ProfileUpdate{DisplayName: &name, Avatar: pngUpload("me.png")})
	require.NoError(t, err)
	assert.Equal(t, "Maker", u.Profile.Headline)
	assert.Equal(t, "Alice A.", u.Profile.DisplayName)
	assert.Contains(t, u.AvatarURL, "http://objects.local/avatars/")
	first := u.AvatarURL

	u, err = f.svc.UpdateProfile(ctx, alice, ProfileUpdate{Avatar: pngUpload("me2.png")})
	require.NoError(t, err)
	assert.NotEqual(t, first, u.AvatarURL)
	assert.Contains(t, f.objects.removed, first)
}

func TestDeleteAccountRemovesAvatar(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	u, err := f.svc.UpdateProfile(ctx, bob, ProfileUpdate{Avatar: pngUpload("bob.png")})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteAccount(ctx, bob))
	assert.Contains(t, f.objects.removed, u.AvatarURL)

	_, err = f.svc.Profile(ctx, bob.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestFollowRules(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	assert.True(t, apperr.Is(f.svc.Follow(ctx, alice, alice.ID), apperr.KindBadRequest))
	assert.True(t, apperr.Is(f.svc.Follow(ctx, alice, "ghost"), apperr.KindNotFound))

	require.NoError(t, f.svc.Follow(ctx, alice, bob.ID))
	err := f.svc.Follow(ctx, alice, bob.ID)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	assert.Equal(t, "You are already following this user", apperr.From(err).Message)

	followers, err := f.svc.Followers(ctx, bob.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers.Total)
	assert.Equal(t, alice.ID, followers.Users[0].ID)

	following, err := f.svc.Following(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), following.Total)

	require.NoError(t, f.svc.Unfollow(ctx, alice, bob.ID))
	err = f.svc.Unfollow(ctx, alice, bob.ID)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	assert.Equal(t, "You are not following this user", apperr.From(err).Message)
	assert.True(t, apperr.Is(f.svc.Unfollow(ctx, alice, alice.ID), apperr.KindBadRequest))

	_, err = f.svc.Followers(ctx, "ghost", 10, 0)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
