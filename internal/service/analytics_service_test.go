package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"launchpad/internal/apperr"
	"launchpad/internal/models"
	"launchpad/internal/repository"
)

type mockAnalytics struct {
	mock.Mock
}

func (m *mockAnalytics) ProductMetrics(ctx context.Context, productID string) (repository.ProductMetrics, error) {
	args := m.Called(productID)
	return args.Get(0).(repository.ProductMetrics), args.Error(1)
}

func (m *mockAnalytics) ProductDaily(ctx context.Context, productID string, from, to time.Time) ([]repository.ProductDay, error) {
	args := m.Called(productID, from, to)
	return args.Get(0).([]repository.ProductDay), args.Error(1)
}

func (m *mockAnalytics) UserMetrics(ctx context.Context, userID string) (repository.UserMetrics, error) {
	args := m.Called(userID)
	return args.Get(0).(repository.UserMetrics), args.Error(1)
}

func (m *mockAnalytics) UserDaily(ctx context.Context, userID string, from, to time.Time) ([]repository.UserDay, error) {
	args := m.Called(userID, from, to)
	return args.Get(0).([]repository.UserDay), args.Error(1)
}

func (m *mockAnalytics) PlatformTotals(ctx context.Context) (repository.PlatformTotals, error) {
	args := m.Called()
	return args.Get(0).(repository.PlatformTotals), args.Error(1)
}

func (m *mockAnalytics) Engagement(ctx context.Context) (repository.EngagementTotals, error) {
	args := m.Called()
	return args.Get(0).(repository.EngagementTotals), args.Error(1)
}

func (m *mockAnalytics) CategoryPerformance(ctx context.Context) ([]repository.CategoryPerformance, error) {
	args := m.Called()
	return args.Get(0).([]repository.CategoryPerformance), args.Error(1)
}

func newAnalyticsFixture(t *testing.T) (*AnalyticsService, *mockAnalytics, time.Time) {
	t.Helper()
	products := newMemProducts()
	require.NoError(t, products.Create(context.Background(), models.Product{ID: "p-1", SubmittedBy: alice.ID}))
	users := newMemUsers()
	require.NoError(t, users.Create(context.Background(), models.User{ID: alice.ID, Username: "alice", Email: "alice@example.com"}))

	store := &mockAnalytics{}
	svc := NewAnalyticsService(store, products, users)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, store, now
}

func TestProductAnalyticsWindow(t *testing.T) {
	svc, store, now := newAnalyticsFixture(t)
	ctx := context.Background()

	store.On("ProductMetrics", "p-1").Return(repository.ProductMetrics{TotalViews: 42}, nil)
	store.On("ProductDaily", "p-1", now.Add(-24*time.Hour), now).Return([]repository.ProductDay{{Views: 3}}, nil).Once()
	store.On("ProductDaily", "p-1", now.Add(-7*24*time.Hour), now).Return([]repository.ProductDay{}, nil).Once()

	got, err := svc.Product(ctx, "p-1", "24h")
	require.NoError(t, err)
	assert.Equal(t, "24h", got.TimeRange)
	assert.Equal(t, int64(42), got.Metrics.TotalViews)
	assert.Len(t, got.Daily, 1)

	got, err = svc.Product(ctx, "p-1", "1y")
	require.NoError(t, err)
	assert.Equal(t, "7d", got.TimeRange)

	_, err = svc.Product(ctx, "missing", "7d")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	store.AssertExpectations(t)
}

func TestUserAnalyticsRejects24h(t *testing.T) {
	svc, store, now := newAnalyticsFixture(t)

	store.On("UserMetrics", alice.ID).Return(repository.UserMetrics{TotalProducts: 1}, nil)
	store.On("UserDaily", alice.ID, now.Add(-30*24*time.Hour), now).Return([]repository.UserDay{}, nil).Once()

	got, err := svc.User(context.Background(), alice.ID, "24h")
	require.NoError(t, err)
	assert.Equal(t, "30d", got.TimeRange)
	assert.Equal(t, int64(1), got.Metrics.TotalProducts)

	_, err = svc.User(context.Background(), "ghost", "7d")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	store.AssertExpectations(t)
}

func TestPlatformAnalyticsAdminOnly(t *testing.T) {
	svc, store, _ := newAnalyticsFixture(t)

	_, err := svc.Platform(context.Background(), mod)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	store.On("PlatformTotals").Return(repository.PlatformTotals{TotalUsers: 3}, nil)
	store.On("Engagement").Return(repository.EngagementTotals{TotalViews: 9}, nil)
	store.On("CategoryPerformance").Return([]repository.CategoryPerformance{{Name: "tools"}}, nil)

	got, err := svc.Platform(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Platform.TotalUsers)
	assert.Len(t, got.Categories, 1)
}
