package service

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"launchpad/internal/models"
	"launchpad/internal/repository"
	"launchpad/internal/tasks"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[string]models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[string]models.User)}
}

func (m *memUsers) get(id string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

func (m *memUsers) find(match func(models.User) bool) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (m *memUsers) update(id string, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	fn(&u)
	m.byID[id] = u
	return nil
}

func (m *memUsers) Create(ctx context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrDuplicateUser
		}
	}
	user.CreatedAt = time.Now()
	m.byID[user.ID] = user
	return nil
}

func (m *memUsers) FindByID(ctx context.Context, id string) (models.User, error) {
	return m.find(func(u models.User) bool { return u.ID == id })
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return m.find(func(u models.User) bool { return u.Email == email })
}

func (m *memUsers) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return m.find(func(u models.User) bool { return u.Username == username })
}

func (m *memUsers) FindByEmailOrUsername(ctx context.Context, email, username string) (models.User, error) {
	return m.find(func(u models.User) bool { return u.Email == email || u.Username == username })
}

func (m *memUsers) FindByResetToken(ctx context.Context, digest string, now time.Time) (models.User, error) {
	return m.find(func(u models.User) bool {
		return u.ResetTokenHash != nil && *u.ResetTokenHash == digest && u.ResetTokenExpiresAt.After(now)
	})
}

func (m *memUsers) FindByVerificationToken(ctx context.Context, digest string, now time.Time) (models.User, error) {
	return m.find(func(u models.User) bool {
		return u.VerifyTokenHash != nil && *u.VerifyTokenHash == digest && u.VerifyTokenExpiresAt.After(now)
	})
}

func (m *memUsers) UpdateRefreshToken(ctx context.Context, id, digest string) error {
	return m.update(id, func(u *models.User) { u.RefreshTokenHash = &digest })
}

func (m *memUsers) ClearRefreshToken(ctx context.Context, id string) error {
	return m.update(id, func(u *models.User) { u.RefreshTokenHash = nil })
}

func (m *memUsers) UpdateResetToken(ctx context.Context, id, digest string, expiresAt time.Time) error {
	return m.update(id, func(u *models.User) {
		u.ResetTokenHash = &digest
		u.ResetTokenExpiresAt = &expiresAt
	})
}

func (m *memUsers) UpdateVerificationToken(ctx context.Context, id, digest string, expiresAt time.Time) error {
	return m.update(id, func(u *models.User) {
		u.VerifyTokenHash = &digest
		u.VerifyTokenExpiresAt = &expiresAt
	})
}

func (m *memUsers) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return m.update(id, func(u *models.User) {
		u.PasswordHash = passwordHash
		u.ResetTokenHash = nil
		u.ResetTokenExpiresAt = nil
		u.RefreshTokenHash = nil
	})
}

func (m *memUsers) MarkVerified(ctx context.Context, id string) error {
	return m.update(id, func(u *models.User) {
		u.IsVerified = true
		u.VerifyTokenHash = nil
		u.VerifyTokenExpiresAt = nil
	})
}

func (m *memUsers) UpdateProfile(ctx context.Context, id string, avatarURL, bio string, profile models.Profile) (models.User, error) {
	err := m.update(id, func(u *models.User) {
		u.AvatarURL = avatarURL
		u.Bio = bio
		u.Profile = profile
	})
	if err != nil {
		return models.User{}, err
	}
	return m.get(id), nil
}

func (m *memUsers) UpdateNotificationPreferences(ctx context.Context, id string, prefs models.NotificationPreferences) error {
	return m.update(id, func(u *models.User) { u.NotificationPrefs = prefs })
}

func (m *memUsers) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) Activity(ctx context.Context, id string) (models.UserActivity, error) {
	return models.UserActivity{TotalProducts: 1}, nil
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []tasks.Task
	err   error
}

func (q *fakeQueue) Enqueue(ctx context.Context, task tasks.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.tasks = append(q.tasks, task)
	return "1-0", nil
}

func (q *fakeQueue) mails() []tasks.SendMail {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []tasks.SendMail
	for _, t := range q.tasks {
		if t.Type != tasks.TypeSendMail {
			continue
		}
		var m tasks.SendMail
		if err := t.Decode(&m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	removed []string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *memObjects) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	url := "http://objects.local/" + bucket + "/" + key
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[url] = data
	m.types[url] = contentType
	return url, nil
}

func (m *memObjects) Remove(ctx context.Context, objectURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, objectURL)
	m.removed = append(m.removed, objectURL)
	return nil
}

func (m *memObjects) AvatarBucket() string { return "avatars" }
func (m *memObjects) MediaBucket() string  { return "media" }

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, bytes.Repeat([]byte{0}, 32)...)

func pngUpload(name string) *Upload {
	return &Upload{Filename: name, Reader: bytes.NewReader(pngBytes)}
}
