package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"launchpad/internal/apperr"
	"launchpad/internal/config"
	"launchpad/internal/ids"
	"launchpad/internal/mail"
	"launchpad/internal/models"
	"launchpad/internal/repository"
	"launchpad/internal/security"
	"launchpad/internal/tasks"
)

// CredentialStore is the slice of the user repository the auth flows touch.
type CredentialStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (models.User, error)
	FindByResetToken(ctx context.Context, digest string, now time.Time) (models.User, error)
	FindByVerificationToken(ctx context.Context, digest string, now time.Time) (models.User, error)
	UpdateRefreshToken(ctx context.Context, id, digest string) error
	ClearRefreshToken(ctx context.Context, id string) error
	UpdateResetToken(ctx context.Context, id, digest string, expiresAt time.Time) error
	UpdateVerificationToken(ctx context.Context, id, digest string, expiresAt time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	MarkVerified(ctx context.Context, id string) error
}

type TaskQueue interface {
	Enqueue(ctx context.Context, task tasks.Task) (string, error)
}

type AuthService struct {
	users  CredentialStore
	tokens *security.TokenIssuer
	queue  TaskQueue
	media  *MediaService
	cfg    *config.AppConfig
	log    zerolog.Logger
	now    func() time.Time
}

func NewAuthService(
	users CredentialStore,
	tokens *security.TokenIssuer,
	queue TaskQueue,
	media *MediaService,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		queue:  queue,
		media:  media,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Avatar   *Upload
}

// AuthResult is a freshly issued token pair and the sanitised user it
// belongs to.
type AuthResult struct {
	User         models.User
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	input.Username = strings.TrimSpace(input.Username)
	if input.Email == "" || input.Username == "" || input.Password == "" {
		return AuthResult{}, apperr.BadRequest("All fields are required")
	}
	// A login identifier containing @ is always an email.
	if strings.Contains(input.Username, "@") {
		return AuthResult{}, apperr.BadRequest("Username cannot contain @",
			apperr.FieldError{Field: "username", Message: "username cannot contain @"})
	}

	if _, err := s.users.FindByEmailOrUsername(ctx, input.Email, input.Username); err == nil {
		return AuthResult{}, apperr.Conflict("User with email or username already exists")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return AuthResult{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	// Self-registration always yields a plain user; roles are granted out of band.
	user := models.User{
		ID:                ids.New(),
		Username:          input.Username,
		Email:             input.Email,
		PasswordHash:      passwordHash,
		Role:              models.RoleUser,
		IsActive:          true,
		NotificationPrefs: models.DefaultNotificationPreferences(),
	}

	if input.Avatar != nil && s.media != nil {
		url, err := s.media.UploadAvatar(ctx, user.ID, *input.Avatar)
		if err != nil {
			return AuthResult{}, err
		}
		user.AvatarURL = url
	}

	if err := s.users.Create(ctx, user); err != nil {
		if s.media != nil {
			s.media.Remove(ctx, user.AvatarURL)
		}
		if errors.Is(err, repository.ErrDuplicateUser) {
			return AuthResult{}, apperr.Conflict("User with email or username already exists")
		}
		return AuthResult{}, err
	}

	result, err := s.issue(ctx, user)
	if err != nil {
		return AuthResult{}, err
	}

	if err := s.sendVerification(ctx, user); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("verification mail not queued")
	}

	return result, nil
}

type LoginInput struct {
	// Identifier is an email address or a username.
	Identifier string
	Password   string
}

// Login never reveals which half of the credentials was wrong.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		return AuthResult{}, apperr.BadRequest("Email and password are required")
	}

	var user models.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.users.FindByEmail(ctx, normalizeEmail(identifier))
	} else {
		user, err = s.users.FindByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, apperr.Unauthorized("Invalid credentials")
		}
		return AuthResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return AuthResult{}, apperr.Internal(fmt.Errorf("verify password for %s: %w", user.ID, err))
	}
	if !ok || !user.IsActive {
		return AuthResult{}, apperr.Unauthorized("Invalid credentials")
	}

	return s.issue(ctx, user)
}

// Refresh rotates the pair. Only the most recently issued refresh token is
// accepted; presenting an older one fails even if it has not expired.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if refreshToken == "" {
		return AuthResult{}, apperr.Unauthorized("Unauthorized request")
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return AuthResult{}, apperr.Unauthorized("Invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, apperr.Unauthorized("Invalid refresh token")
		}
		return AuthResult{}, err
	}
	if !user.IsActive {
		return AuthResult{}, apperr.Unauthorized("Invalid refresh token")
	}

	if !security.DigestMatches(refreshToken, user.RefreshTokenHash) {
		return AuthResult{}, apperr.Unauthorized("Refresh token is expired or used")
	}

	return s.issue(ctx, user)
}

// Logout revokes the stored refresh token. Repeating it is harmless.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	err := s.users.ClearRefreshToken(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	return nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("User not found")
		}
		return err
	}

	token, digest, err := security.NewOpaqueToken()
	if err != nil {
		return err
	}
	ttl := s.cfg.Security.ResetTokenTTL
	if err := s.users.UpdateResetToken(ctx, user.ID, digest, s.now().Add(ttl)); err != nil {
		return err
	}

	return s.enqueueMail(ctx, mail.PasswordReset(s.cfg.Mail.FrontendURL, user.Email, user.Username, token, ttl))
}

// ResetPassword consumes a reset token. The new hash also revokes the
// stored refresh token, so every existing session has to log in again.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return apperr.BadRequest("Token and new password are required")
	}

	user, err := s.users.FindByResetToken(ctx, security.Digest(token), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.BadRequest("Invalid or expired reset token")
		}
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, passwordHash)
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return apperr.BadRequest("Verification token is required")
	}

	user, err := s.users.FindByVerificationToken(ctx, security.Digest(token), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.BadRequest("Invalid or expired verification token")
		}
		return err
	}
	return s.users.MarkVerified(ctx, user.ID)
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("User not found")
		}
		return err
	}
	if user.IsVerified {
		return apperr.BadRequest("Email is already verified")
	}
	return s.sendVerification(ctx, user)
}

func (s *AuthService) issue(ctx context.Context, user models.User) (AuthResult, error) {
	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return AuthResult{}, err
	}
	refreshToken, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return AuthResult{}, err
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID, security.Digest(refreshToken)); err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		User:         user.Sanitized(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// sendVerification replaces any outstanding verification token and mails
// the new one.
func (s *AuthService) sendVerification(ctx context.Context, user models.User) error {
	token, digest, err := security.NewOpaqueToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.cfg.Security.VerifyTokenTTL)
	if err := s.users.UpdateVerificationToken(ctx, user.ID, digest, expiresAt); err != nil {
		return err
	}
	return s.enqueueMail(ctx, mail.Verification(s.cfg.Mail.FrontendURL, user.Email, user.Username, token))
}

func (s *AuthService) enqueueMail(ctx context.Context, m tasks.SendMail) error {
	task, err := tasks.NewSendMail(m)
	if err != nil {
		return err
	}
	if _, err := s.queue.Enqueue(ctx, task); err != nil {
		return err
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
