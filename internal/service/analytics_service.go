package service

import (
	"context"
	"time"

	"launchpad/internal/apperr"
	"launchpad/internal/models"
	"launchpad/internal/policy"
	"launchpad/internal/repository"
)

type AnalyticsStore interface {
	ProductMetrics(ctx context.Context, productID string) (repository.ProductMetrics, error)
	ProductDaily(ctx context.Context, productID string, from, to time.Time) ([]repository.ProductDay, error)
	UserMetrics(ctx context.Context, userID string) (repository.UserMetrics, error)
	UserDaily(ctx context.Context, userID string, from, to time.Time) ([]repository.UserDay, error)
	PlatformTotals(ctx context.Context) (repository.PlatformTotals, error)
	Engagement(ctx context.Context) (repository.EngagementTotals, error)
	CategoryPerformance(ctx context.Context) ([]repository.CategoryPerformance, error)
}

type UserLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

type AnalyticsService struct {
	store    AnalyticsStore
	products ProductLookup
	users    UserLookup
	now      func() time.Time
}

func NewAnalyticsService(store AnalyticsStore, products ProductLookup, users UserLookup) *AnalyticsService {
	return &AnalyticsService{store: store, products: products, users: users, now: time.Now}
}

type ProductAnalytics struct {
	Product   models.Product            `json:"product"`
	Metrics   repository.ProductMetrics `json:"metrics"`
	Daily     []repository.ProductDay   `json:"dailyMetrics"`
	TimeRange string                    `json:"timeRange"`
	StartDate time.Time                 `json:"startDate"`
	EndDate   time.Time                 `json:"endDate"`
}

type UserAnalytics struct {
	User      models.User            `json:"user"`
	Metrics   repository.UserMetrics `json:"metrics"`
	Daily     []repository.UserDay   `json:"dailyActivity"`
	TimeRange string                 `json:"timeRange"`
	StartDate time.Time              `json:"startDate"`
	EndDate   time.Time              `json:"endDate"`
}

type PlatformAnalytics struct {
	Platform   repository.PlatformTotals        `json:"platformMetrics"`
	Engagement repository.EngagementTotals      `json:"engagementMetrics"`
	Categories []repository.CategoryPerformance `json:"categoryPerformance"`
}

// window resolves a time range label. Unknown labels fall back to def.
func window(label, def string, allowed []string) (string, time.Duration) {
	spans := map[string]time.Duration{
		"24h": 24 * time.Hour,
		"7d":  7 * 24 * time.Hour,
		"30d": 30 * 24 * time.Hour,
		"90d": 90 * 24 * time.Hour,
	}
	for _, a := range allowed {
		if a == label {
			return label, spans[label]
		}
	}
	return def, spans[def]
}

func (s *AnalyticsService) Product(ctx context.Context, productID, timeRange string) (ProductAnalytics, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return ProductAnalytics{}, mapProductErr(err)
	}

	label, span := window(timeRange, "7d", []string{"24h", "7d", "30d", "90d"})
	end := s.now()
	start := end.Add(-span)

	metrics, err := s.store.ProductMetrics(ctx, productID)
	if err != nil {
		return ProductAnalytics{}, err
	}
	daily, err := s.store.ProductDaily(ctx, productID, start, end)
	if err != nil {
		return ProductAnalytics{}, err
	}

	return ProductAnalytics{
		Product:   p,
		Metrics:   metrics,
		Daily:     daily,
		TimeRange: label,
		StartDate: start,
		EndDate:   end,
	}, nil
}

func (s *AnalyticsService) User(ctx context.Context, userID, timeRange string) (UserAnalytics, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return UserAnalytics{}, mapUserErr(err)
	}

	label, span := window(timeRange, "30d", []string{"7d", "30d", "90d"})
	end := s.now()
	start := end.Add(-span)

	metrics, err := s.store.UserMetrics(ctx, userID)
	if err != nil {
		return UserAnalytics{}, err
	}
	daily, err := s.store.UserDaily(ctx, userID, start, end)
	if err != nil {
		return UserAnalytics{}, err
	}

	return UserAnalytics{
		User:      u.Sanitized(),
		Metrics:   metrics,
		Daily:     daily,
		TimeRange: label,
		StartDate: start,
		EndDate:   end,
	}, nil
}

func (s *AnalyticsService) Platform(ctx context.Context, actor models.User) (PlatformAnalytics, error) {
	if !policy.Allowed(actor, policy.ViewPlatformAnalytics, "") {
		return PlatformAnalytics{}, apperr.Forbidden("Only admins can access platform analytics")
	}

	totals, err := s.store.PlatformTotals(ctx)
	if err != nil {
		return PlatformAnalytics{}, err
	}
	engagement, err := s.store.Engagement(ctx)
	if err != nil {
		return PlatformAnalytics{}, err
	}
	categories, err := s.store.CategoryPerformance(ctx)
	if err != nil {
		return PlatformAnalytics{}, err
	}
	return PlatformAnalytics{Platform: totals, Engagement: engagement, Categories: categories}, nil
}
