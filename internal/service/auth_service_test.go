package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/internal/apperr"
	"launchpad/internal/config"
	"launchpad/internal/models"
	"launchpad/internal/security"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			JWTAccessSecret:  "access-secret",
			JWTRefreshSecret: "refresh-secret",
			JWTAccessTTL:     15 * time.Minute,
			JWTRefreshTTL:    50 * 24 * time.Hour,
			ResetTokenTTL:    10 * time.Minute,
			VerifyTokenTTL:   24 * time.Hour,
		},
		Mail:    config.MailConfig{FrontendURL: "https://launchpad.test"},
		Storage: config.StorageConfig{MaxUploadSize: 5 * 1024 * 1024},
	}
}

type authFixture struct {
	svc     *AuthService
	users   *memUsers
	queue   *fakeQueue
	objects *memObjects
	tokens  *security.TokenIssuer
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	cfg := testConfig()
	tokens, err := security.NewTokenIssuer(cfg.Security)
	require.NoError(t, err)

	users := newMemUsers()
	queue := &fakeQueue{}
	objects := newMemObjects()
	media := NewMediaService(objects, cfg.Storage.MaxUploadSize, zerolog.Nop())

	return authFixture{
		svc:     NewAuthService(users, tokens, queue, media, cfg, zerolog.Nop()),
		users:   users,
		queue:   queue,
		objects: objects,
		tokens:  tokens,
	}
}

func (f authFixture) register(t *testing.T, username, email, password string) AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return res
}

var tokenInLink = regexp.MustCompile(`token=([0-9a-f]+)`)

func lastMailToken(t *testing.T, q *fakeQueue) string {
	t.Helper()
	mails := q.mails()
	require.NotEmpty(t, mails)
	m := tokenInLink.FindStringSubmatch(mails[len(mails)-1].Body)
	require.Len(t, m, 2)
	return m[1]
}

func TestRegisterIssuesPairAndStoresDigest(t *testing.T) {
	f := newAuthFixture(t)

	res := f.register(t, "alice", "  Alice@Example.com ", "secret123")

	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.Equal(t, models.RoleUser, res.User.Role)
	assert.Empty(t, res.User.PasswordHash)
	assert.Nil(t, res.User.RefreshTokenHash)

	claims, err := f.tokens.VerifyAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)
	assert.Equal(t, "alice", claims.Username)

	stored := f.users.get(res.User.ID)
	assert.True(t, security.DigestMatches(res.RefreshToken, stored.RefreshTokenHash))
	assert.NotEqual(t, res.RefreshToken, *stored.RefreshTokenHash)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.NotNil(t, stored.VerifyTokenHash)

	mails := f.queue.mails()
	require.Len(t, mails, 1)
	assert.Equal(t, "alice@example.com", mails[0].To)
}

func TestRegisterWithAvatar(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret123",
		Avatar:   pngUpload("me.png"),
	})
	require.NoError(t, err)
	assert.Contains(t, res.User.AvatarURL, "http://objects.local/avatars/users/"+res.User.ID+"/")
	assert.Len(t, f.objects.objects, 1)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "alice", "alice@example.com", "secret123")

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "alice2", Email: "ALICE@example.com", Password: "x",
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "other@example.com", Password: "x",
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRegisterRequiresFields(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), RegisterInput{Username: "a", Email: " "})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	reg := f.register(t, "alice", "alice@example.com", "secret123")
	ctx := context.Background()

	res, err := f.svc.Login(ctx, LoginInput{Identifier: "ALICE@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)

	_, err = f.svc.Login(ctx, LoginInput{Identifier: "alice", Password: "secret123"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, LoginInput{Identifier: "alice@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	assert.Equal(t, "Invalid credentials", apperr.From(err).Message)

	_, err = f.svc.Login(ctx, LoginInput{Identifier: "nobody@example.com", Password: "secret123"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestRegisterRejectsEmailShapedUsername(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "alice@example.com",
		Email:    "mallory@example.com",
		Password: "secret123",
	})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestLoginByEmailIgnoresEmailShapedUsernames(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	// An account whose username equals another account's email.
	hash, err := security.HashPassword("mallory-pass")
	require.NoError(t, err)
	require.NoError(t, f.users.Create(ctx, models.User{
		ID:           "u-mallory",
		Username:     "alice@example.com",
		Email:        "mallory@example.com",
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
	}))
	reg := f.register(t, "alice", "alice@example.com", "secret123")

	for i := 0; i < 50; i++ {
		res, err := f.svc.Login(ctx, LoginInput{Identifier: "alice@example.com", Password: "secret123"})
		require.NoError(t, err)
		require.Equal(t, reg.User.ID, res.User.ID)
	}
}

func TestLoginSupersedesPreviousRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	first := f.register(t, "alice", "alice@example.com", "secret123")

	_, err := f.svc.Login(context.Background(), LoginInput{Identifier: "alice", Password: "secret123"})
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), first.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, "Refresh token is expired or used", apperr.From(err).Message)
}

func TestRefreshRotation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	reg := f.register(t, "alice", "alice@example.com", "secret123")

	rotated, err := f.svc.Refresh(ctx, reg.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, reg.RefreshToken, rotated.RefreshToken)

	_, err = f.svc.Refresh(ctx, reg.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	assert.Equal(t, "Refresh token is expired or used", apperr.From(err).Message)

	_, err = f.svc.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsAccessTokenAndGarbage(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	reg := f.register(t, "alice", "alice@example.com", "secret123")

	for _, tok := range []string{"", "garbage", reg.AccessToken} {
		_, err := f.svc.Refresh(ctx, tok)
		assert.True(t, apperr.Is(err, apperr.KindUnauthorized), tok)
	}
}

func TestRefreshForDeletedUser(t *testing.T) {
	f := newAuthFixture(t)
	reg := f.register(t, "alice", "alice@example.com", "secret123")
	require.NoError(t, f.users.Delete(context.Background(), reg.User.ID))

	_, err := f.svc.Refresh(context.Background(), reg.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestLogoutRevokesAndIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	reg := f.register(t, "alice", "alice@example.com", "secret123")

	require.NoError(t, f.svc.Logout(ctx, reg.User.ID))
	require.NoError(t, f.svc.Logout(ctx, reg.User.ID))
	require.NoError(t, f.svc.Logout(ctx, "missing"))

	_, err := f.svc.Refresh(ctx, reg.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	reg := f.register(t, "alice", "alice@example.com", "secret123")

	require.NoError(t, f.svc.ForgotPassword(ctx, "Alice@Example.com"))
	token := lastMailToken(t, f.queue)

	stored := f.users.get(reg.User.ID)
	require.NotNil(t, stored.ResetTokenHash)
	assert.Equal(t, security.Digest(token), *stored.ResetTokenHash)

	require.NoError(t, f.svc.ResetPassword(ctx, token, "brand-new-pass"))

	_, err := f.svc.Login(ctx, LoginInput{Identifier: "alice", Password: "secret123"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	_, err = f.svc.Login(ctx, LoginInput{Identifier: "alice", Password: "brand-new-pass"})
	require.NoError(t, err)

	// the old session was revoked and the token is single use
	_, err = f.svc.Refresh(ctx, reg.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	err = f.svc.ResetPassword(ctx, token, "another-pass")
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestPasswordResetTokenExpires(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "alice@example.com", "secret123")

	require.NoError(t, f.svc.ForgotPassword(ctx, "alice@example.com"))
	token := lastMailToken(t, f.queue)

	f.svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	err := f.svc.ResetPassword(ctx, token, "brand-new-pass")
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestSecondResetRequestSupersedesFirst(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "alice@example.com", "secret123")

	require.NoError(t, f.svc.ForgotPassword(ctx, "alice@example.com"))
	first := lastMailToken(t, f.queue)
	require.NoError(t, f.svc.ForgotPassword(ctx, "alice@example.com"))
	second := lastMailToken(t, f.queue)

	assert.True(t, apperr.Is(f.svc.ResetPassword(ctx, first, "pass-one"), apperr.KindBadRequest))
	assert.NoError(t, f.svc.ResetPassword(ctx, second, "pass-two"))
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)
	err := f.svc.ForgotPassword(context.Background(), "nobody@example.com")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestVerifyEmailFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	reg := f.register(t, "alice", "alice@example.com", "secret123")

	token := lastMailToken(t, f.queue)
	require.NoError(t, f.svc.VerifyEmail(ctx, token))
	assert.True(t, f.users.get(reg.User.ID).IsVerified)

	assert.True(t, apperr.Is(f.svc.VerifyEmail(ctx, token), apperr.KindBadRequest))
	assert.True(t, apperr.Is(f.svc.ResendVerification(ctx, "alice@example.com"), apperr.KindBadRequest))
}

func TestResendVerificationReplacesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "alice@example.com", "secret123")
	first := lastMailToken(t, f.queue)

	require.NoError(t, f.svc.ResendVerification(ctx, "alice@example.com"))
	second := lastMailToken(t, f.queue)
	assert.NotEqual(t, first, second)

	assert.True(t, apperr.Is(f.svc.VerifyEmail(ctx, first), apperr.KindBadRequest))
	assert.NoError(t, f.svc.VerifyEmail(ctx, second))

	assert.True(t, apperr.Is(f.svc.ResendVerification(ctx, "nobody@example.com"), apperr.KindNotFound))
}
