package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"launchpad/internal/apperr"
	"launchpad/internal/models"
	"launchpad/internal/repository"
)

type memProducts struct {
	mu      sync.Mutex
	byID    map[string]models.Product
	upvotes map[string]map[string]bool
}

func newMemProducts() *memProducts {
	return &memProducts{byID: make(map[string]models.Product), upvotes: make(map[string]map[string]bool)}
}

func (m *memProducts) Create(ctx context.Context, p models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CategoryID == "missing" {
		return repository.ErrCategoryMissing
	}
	m.byID[p.ID] = p
	m.upvotes[p.ID] = make(map[string]bool)
	return nil
}

func (m *memProducts) FindByID(ctx context.Context, id string) (models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return models.Product{}, repository.ErrProductNotFound
	}
	p.UpvoteCount = len(m.upvotes[id])
	return p, nil
}

func (m *memProducts) List(ctx context.Context, f repository.ProductFilter) ([]models.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Product, 0)
	for _, p := range m.byID {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memProducts) Trending(ctx context.Context, limit int) ([]models.Product, error) {
	products, _, err := m.List(ctx, repository.ProductFilter{Status: models.ProductStatusApproved})
	return products, err
}

func (m *memProducts) Update(ctx context.Context, p models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.byID[p.ID] = p
	return nil
}

func (m *memProducts) UpdateModeration(ctx context.Context, id string, status models.ProductStatus, featured bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Status = status
	p.Featured = featured
	m.byID[id] = p
	return nil
}

func (m *memProducts) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memProducts) RecordView(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return 0, repository.ErrProductNotFound
	}
	p.Views++
	m.byID[id] = p
	return p.Views, nil
}

func (m *memProducts) Upvote(ctx context.Context, productID, userID string) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	votes := m.upvotes[productID]
	if votes[userID] {
		return false, 0, nil
	}
	votes[userID] = true
	return true, len(votes), nil
}

func (m *memProducts) RemoveUpvote(ctx context.Context, productID, userID string) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	votes := m.upvotes[productID]
	if !votes[userID] {
		return false, 0, nil
	}
	delete(votes, userID)
	return true, len(votes), nil
}

func (m *memProducts) UpvotedAmong(ctx context.Context, userID string, productIDs []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool)
	for _, id := range productIDs {
		if m.upvotes[id][userID] {
			out[id] = true
		}
	}
	return out, nil
}

type mockNotifier struct {
	mock.Mock
}

func (n *mockNotifier) Automatic(ctx context.Context, actor models.User, in NotifyInput) {
	n.Called(actor.ID, in.RecipientID, in.Type, in.RelatedKind)
}

type productFixture struct {
	svc      *ProductService
	products *memProducts
	objects  *memObjects
	notifier *mockNotifier
}

func newProductFixture(t *testing.T) productFixture {
	t.Helper()
	products := newMemProducts()
	objects := newMemObjects()
	notifier := &mockNotifier{}
	media := NewMediaService(objects, 5*1024*1024, zerolog.Nop())
	return productFixture{
		svc:      NewProductService(products, notifier, media, zerolog.Nop()),
		products: products,
		objects:  objects,
		notifier: notifier,
	}
}

var (
	alice = models.User{ID: "u-alice", Username: "alice", Role: models.RoleUser}
	bob   = models.User{ID: "u-bob", Username: "bob", Role: models.RoleUser}
	admin = models.User{ID: "u-admin", Username: "root", Role: models.RoleAdmin}
	mod   = models.User{ID: "u-mod", Username: "mod", Role: models.RoleModerator}
)

func validProductInput() ProductInput {
	return ProductInput{
		Name:        "Rocket Notes",
		Tagline:     "Notes at escape velocity",
		Description: "A note taking app",
		Website:     "https://rocket.example",
		CategoryID:  "cat-1",
		Logo:        pngUpload("logo.png"),
	}
}

func (f productFixture) create(t *testing.T, owner models.User) models.Product {
	t.Helper()
	p, err := f.svc.Create(context.Background(), owner, validProductInput())
	require.NoError(t, err)
	return p
}

func TestCreateProduct(t *testing.T) {
	f := newProductFixture(t)
	in := validProductInput()
	in.Images = []Upload{*pngUpload("a.png"), *pngUpload("b.png")}

	p, err := f.svc.Create(context.Background(), alice, in)
	require.NoError(t, err)
	assert.Equal(t, "rocket-notes", p.Slug)
	assert.Equal(t, models.ProductStatusPending, p.Status)
	assert.Equal(t, alice.ID, p.SubmittedBy)
	assert.Contains(t, p.LogoURL, "http://objects.local/media/")
	assert.Len(t, p.Images, 2)
	assert.Len(t, f.objects.objects, 3)
}

func TestCreateProductValidation(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	in := validProductInput()
	in.Tagline = " "
	_, err := f.svc.Create(ctx, alice, in)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	in = validProductInput()
	in.Logo = nil
	_, err = f.svc.Create(ctx, alice, in)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	assert.Equal(t, "Product logo is required", apperr.From(err).Message)

	in = validProductInput()
	for i := 0; i < MaxProductImages+1; i++ {
		in.Images = append(in.Images, *pngUpload("x.png"))
	}
	_, err = f.svc.Create(ctx, alice, in)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	assert.Empty(t, f.objects.objects)
}

func TestCreateProductUnknownCategoryCleansUp(t *testing.T) {
	f := newProductFixture(t)
	in := validProductInput()
	in.CategoryID = "missing"

	_, err := f.svc.Create(context.Background(), alice, in)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	assert.Empty(t, f.objects.objects)
	assert.Len(t, f.objects.removed, 1)
}

func TestUpdateProductOwnership(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	p := f.create(t, alice)

	_, err := f.svc.Update(ctx, bob, p.ID, ProductUpdate{Name: "Stolen"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.Update(ctx, mod, p.ID, ProductUpdate{Name: "Moderated"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	updated, err := f.svc.Update(ctx, admin, p.ID, ProductUpdate{Name: "Rocket Notes Pro"})
	require.NoError(t, err)
	assert.Equal(t, "rocket-notes-pro", updated.Slug)
	assert.Equal(t, p.Tagline, updated.Tagline)

	oldLogo := updated.LogoURL
	updated, err = f.svc.Update(ctx, alice, p.ID, ProductUpdate{Logo: pngUpload("new.png")})
	require.NoError(t, err)
	assert.NotEqual(t, oldLogo, updated.LogoURL)
	assert.Contains(t, f.objects.removed, oldLogo)
}

func TestModerateRequiresAdmin(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	p := f.create(t, alice)

	_, err := f.svc.Moderate(ctx, alice, p.ID, models.ProductStatusApproved, nil)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	featured := true
	got, err := f.svc.Moderate(ctx, admin, p.ID, models.ProductStatusApproved, &featured)
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusApproved, got.Status)
	assert.True(t, got.Featured)

	_, err = f.svc.Moderate(ctx, admin, p.ID, "archived", nil)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestDeleteProductRemovesMedia(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	p := f.create(t, alice)

	assert.True(t, apperr.Is(f.svc.Delete(ctx, bob, p.ID), apperr.KindForbidden))
	require.NoError(t, f.svc.Delete(ctx, alice, p.ID))
	assert.Contains(t, f.objects.removed, p.LogoURL)

	_, err := f.svc.Get(ctx, nil, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpvoteLifecycle(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	p := f.create(t, alice)
	f.notifier.On("Automatic", bob.ID, alice.ID, models.NotificationUpvote, models.RelatedProduct).Once()

	res, err := f.svc.Upvote(ctx, bob, p.ID)
	require.NoError(t, err)
	assert.Equal(t, UpvoteResult{UpvoteCount: 1, HasUpvoted: true}, res)

	_, err = f.svc.Upvote(ctx, bob, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	got, err := f.svc.Get(ctx, &bob, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.HasUpvoted)
	assert.True(t, *got.HasUpvoted)
	assert.Equal(t, int64(1), got.Views)

	res, err = f.svc.RemoveUpvote(ctx, bob, p.ID)
	require.NoError(t, err)
	assert.Equal(t, UpvoteResult{UpvoteCount: 0, HasUpvoted: false}, res)

	_, err = f.svc.RemoveUpvote(ctx, bob, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	_, err = f.svc.Upvote(ctx, bob, "nope")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	f.notifier.AssertExpectations(t)
}

func TestListPersonalizesForViewer(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()
	f.notifier.On("Automatic", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	p1 := f.create(t, alice)
	f.create(t, alice)

	_, err := f.svc.Upvote(ctx, bob, p1.ID)
	require.NoError(t, err)

	anon, _, err := f.svc.List(ctx, nil, repository.ProductFilter{})
	require.NoError(t, err)
	for _, p := range anon {
		assert.Nil(t, p.HasUpvoted)
	}

	mine, total, err := f.svc.List(ctx, &bob, repository.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, p := range mine {
		require.NotNil(t, p.HasUpvoted)
		assert.Equal(t, p.ID == p1.ID, *p.HasUpvoted)
	}

	_, _, err = f.svc.List(ctx, nil, repository.ProductFilter{Status: "archived"})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}
