package repository

import (
	"context"
	"fmt"
	"time"

	"launchpad/internal/database"
)

type ProductMetrics struct {
	TotalViews    int64 `json:"totalViews"`
	TotalUpvotes  int64 `json:"totalUpvotes"`
	TotalComments int64 `json:"totalComments"`
}

type ProductDay struct {
	Date     time.Time `json:"date"`
	Views    int64     `json:"views"`
	Upvotes  int64     `json:"upvotes"`
	Comments int64     `json:"comments"`
}

type UserMetrics struct {
	TotalProducts int64 `json:"totalProducts"`
	TotalComments int64 `json:"totalComments"`
	TotalUpvotes  int64 `json:"totalUpvotes"`
	UpvotesEarned int64 `json:"upvotesEarned"`
}

type UserDay struct {
	Date     time.Time `json:"date"`
	Products int64     `json:"products"`
	Comments int64     `json:"comments"`
}

type PlatformTotals struct {
	TotalProducts   int64 `json:"totalProducts"`
	TotalUsers      int64 `json:"totalUsers"`
	TotalComments   int64 `json:"totalComments"`
	TotalCategories int64 `json:"totalCategories"`
}

type EngagementTotals struct {
	TotalViews     int64   `json:"totalViews"`
	TotalUpvotes   int64   `json:"totalUpvotes"`
	AverageViews   float64 `json:"averageViews"`
	AverageUpvotes float64 `json:"averageUpvotes"`
}

type CategoryPerformance struct {
	CategoryID     string  `json:"categoryId"`
	Name           string  `json:"name"`
	Icon           string  `json:"icon"`
	TotalProducts  int64   `json:"totalProducts"`
	TotalViews     int64   `json:"totalViews"`
	TotalUpvotes   int64   `json:"totalUpvotes"`
	AverageViews   float64 `json:"averageViews"`
	AverageUpvotes float64 `json:"averageUpvotes"`
}

type AnalyticsRepository struct {
	db database.DBTX
}

func NewAnalyticsRepository(db database.DBTX) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) ProductMetrics(ctx context.Context, productID string) (ProductMetrics, error) {
	const query = `
		SELECT p.views, p.upvote_count, (SELECT COUNT(*) FROM comments WHERE product_id = p.id)
		FROM products p WHERE p.id = $1
	`
	var m ProductMetrics
	if err := r.db.QueryRow(ctx, query, productID).Scan(&m.TotalViews, &m.TotalUpvotes, &m.TotalComments); err != nil {
		return ProductMetrics{}, fmt.Errorf("product metrics: %w", err)
	}
	return m, nil
}

// ProductDaily returns one row per calendar day in [from, to].
func (r *AnalyticsRepository) ProductDaily(ctx context.Context, productID string, from, to time.Time) ([]ProductDay, error) {
	const query = `
		SELECT d,
			(SELECT COUNT(*) FROM product_views v
				WHERE v.product_id = $1 AND v.viewed_at >= d AND v.viewed_at < d + INTERVAL '1 day'),
			(SELECT COUNT(*) FROM product_upvotes pu
				WHERE pu.product_id = $1 AND pu.created_at >= d AND pu.created_at < d + INTERVAL '1 day'),
			(SELECT COUNT(*) FROM comments cm
				WHERE cm.product_id = $1 AND cm.created_at >= d AND cm.created_at < d + INTERVAL '1 day')
		FROM generate_series(date_trunc('day', $2::timestamptz), date_trunc('day', $3::timestamptz), INTERVAL '1 day') AS d
		ORDER BY d
	`
	rows, err := r.db.Query(ctx, query, productID, from, to)
	if err != nil {
		return nil, fmt.Errorf("product daily: %w", err)
	}
	defer rows.Close()

	out := make([]ProductDay, 0)
	for rows.Next() {
		var d ProductDay
		if err := rows.Scan(&d.Date, &d.Views, &d.Upvotes, &d.Comments); err != nil {
			return nil, fmt.Errorf("scan product day: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepository) UserMetrics(ctx context.Context, userID string) (UserMetrics, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM products WHERE submitted_by = $1),
			(SELECT COUNT(*) FROM comments WHERE author_id = $1),
			(SELECT COUNT(*) FROM product_upvotes WHERE user_id = $1),
			(SELECT COALESCE(SUM(upvote_count), 0) FROM products WHERE submitted_by = $1)
	`
	var m UserMetrics
	if err := r.db.QueryRow(ctx, query, userID).Scan(&m.TotalProducts, &m.TotalComments, &m.TotalUpvotes, &m.UpvotesEarned); err != nil {
		return UserMetrics{}, fmt.Errorf("user metrics: %w", err)
	}
	return m, nil
}

func (r *AnalyticsRepository) UserDaily(ctx context.Context, userID string, from, to time.Time) ([]UserDay, error) {
	const query = `
		SELECT d,
			(SELECT COUNT(*) FROM products p
				WHERE p.submitted_by = $1 AND p.created_at >= d AND p.created_at < d + INTERVAL '1 day'),
			(SELECT COUNT(*) FROM comments cm
				WHERE cm.author_id = $1 AND cm.created_at >= d AND cm.created_at < d + INTERVAL '1 day')
		FROM generate_series(date_trunc('day', $2::timestamptz), date_trunc('day', $3::timestamptz), INTERVAL '1 day') AS d
		ORDER BY d
	`
	rows, err := r.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("user daily: %w", err)
	}
	defer rows.Close()

	out := make([]UserDay, 0)
	for rows.Next() {
		var d UserDay
		if err := rows.Scan(&d.Date, &d.Products, &d.Comments); err != nil {
			return nil, fmt.Errorf("scan user day: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepository) PlatformTotals(ctx context.Context) (PlatformTotals, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM comments),
			(SELECT COUNT(*) FROM categories)
	`
	var t PlatformTotals
	if err := r.db.QueryRow(ctx, query).Scan(&t.TotalProducts, &t.TotalUsers, &t.TotalComments, &t.TotalCategories); err != nil {
		return PlatformTotals{}, fmt.Errorf("platform totals: %w", err)
	}
	return t, nil
}

func (r *AnalyticsRepository) Engagement(ctx context.Context) (EngagementTotals, error) {
	const query = `
		SELECT
			COALESCE(SUM(views), 0), COALESCE(SUM(upvote_count), 0),
			COALESCE(AVG(views), 0)::float8, COALESCE(AVG(upvote_count), 0)::float8
		FROM products
	`
	var e EngagementTotals
	if err := r.db.QueryRow(ctx, query).Scan(&e.TotalViews, &e.TotalUpvotes, &e.AverageViews, &e.AverageUpvotes); err != nil {
		return EngagementTotals{}, fmt.Errorf("engagement totals: %w", err)
	}
	return e, nil
}

// CategoryPerformance aggregates product engagement per category, best
// upvoted first. Categories without products are omitted.
func (r *AnalyticsRepository) CategoryPerformance(ctx context.Context) ([]CategoryPerformance, error) {
	const query = `
		SELECT c.id, c.name, c.icon,
			COUNT(p.id), COALESCE(SUM(p.views), 0), COALESCE(SUM(p.upvote_count), 0),
			COALESCE(AVG(p.views), 0)::float8, COALESCE(AVG(p.upvote_count), 0)::float8
		FROM products p JOIN categories c ON c.id = p.category_id
		GROUP BY c.id
		ORDER BY COALESCE(SUM(p.upvote_count), 0) DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("category performance: %w", err)
	}
	defer rows.Close()

	out := make([]CategoryPerformance, 0)
	for rows.Next() {
		var c CategoryPerformance
		if err := rows.Scan(&c.CategoryID, &c.Name, &c.Icon, &c.TotalProducts, &c.TotalViews, &c.TotalUpvotes, &c.AverageViews, &c.AverageUpvotes); err != nil {
			return nil, fmt.Errorf("scan category performance: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
