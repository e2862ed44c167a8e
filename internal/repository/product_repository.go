package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"launchpad/internal/database"
	"launchpad/internal/models"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryMissing  = errors.New("category does not exist")
	ErrDuplicateProduct = errors.New("product with this slug already exists")
)

const productSelect = `
	SELECT
		p.id, p.name, p.slug, p.tagline, p.description, p.website, p.logo_url, p.images,
		p.category_id, c.name, c.slug,
		p.submitted_by, u.username, COALESCE(u.profile->>'displayName', ''), u.avatar_url,
		p.upvote_count, p.comment_count, p.status, p.featured, p.views, p.launch_date,
		p.twitter, p.github, p.created_at, p.updated_at
	FROM products p
	JOIN categories c ON c.id = p.category_id
	JOIN users u ON u.id = p.submitted_by`

var productSortColumns = map[string]string{
	"createdAt":   "p.created_at",
	"upvoteCount": "p.upvote_count",
	"views":       "p.views",
	"name":        "p.name",
	"launchDate":  "p.launch_date",
}

// ProductFilter narrows product listings and searches. Zero values mean
// "no constraint".
type ProductFilter struct {
	Query      string
	CategoryID string
	Status     models.ProductStatus
	MinUpvotes int
	MinViews   int64
	From       *time.Time
	To         *time.Time
	SortBy     string
	SortOrder  string
	Limit      int
	Offset     int
}

type ProductRepository struct {
	db database.DBTX
}

func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

func scanProduct(row pgx.Row) (models.Product, error) {
	p := models.Product{
		Category:  &models.CategorySummary{},
		Submitter: &models.UserSummary{},
	}
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Tagline,
		&p.Description,
		&p.Website,
		&p.LogoURL,
		&p.Images,
		&p.CategoryID,
		&p.Category.Name,
		&p.Category.Slug,
		&p.SubmittedBy,
		&p.Submitter.Username,
		&p.Submitter.DisplayName,
		&p.Submitter.AvatarURL,
		&p.UpvoteCount,
		&p.CommentCount,
		&p.Status,
		&p.Featured,
		&p.Views,
		&p.LaunchDate,
		&p.Twitter,
		&p.GitHub,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, ErrProductNotFound
		}
		return models.Product{}, err
	}
	p.Category.ID = p.CategoryID
	p.Submitter.ID = p.SubmittedBy
	if p.Images == nil {
		p.Images = []string{}
	}
	return p, nil
}

func collectProducts(rows pgx.Rows) ([]models.Product, error) {
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func mapProductWriteErr(op string, err error) error {
	switch {
	case database.IsForeignKeyViolation(err):
		return ErrCategoryMissing
	case database.IsUniqueViolation(err):
		return ErrDuplicateProduct
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (r *ProductRepository) Create(ctx context.Context, p models.Product) error {
	const query = `
		INSERT INTO products (
			id, name, slug, tagline, description, website, logo_url, images, category_id,
			submitted_by, status, launch_date, twitter, github, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW()
		)
	`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.Name, p.Slug, p.Tagline, p.Description, p.Website, p.LogoURL, p.Images,
		p.CategoryID, p.SubmittedBy, p.Status, p.LaunchDate, p.Twitter, p.GitHub,
	)
	if err != nil {
		return mapProductWriteErr("insert product", err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (models.Product, error) {
	return scanProduct(r.db.QueryRow(ctx, productSelect+` WHERE p.id = $1`, id))
}

func (r *ProductRepository) List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	var c clauses
	if f.Query != "" {
		pattern := containsPattern(f.Query)
		c.add("(p.name ILIKE ? OR p.tagline ILIKE ? OR p.description ILIKE ?)", pattern, pattern, pattern)
	}
	if f.CategoryID != "" {
		c.add("p.category_id = ?", f.CategoryID)
	}
	if f.Status != "" {
		c.add("p.status = ?", f.Status)
	}
	if f.MinUpvotes > 0 {
		c.add("p.upvote_count >= ?", f.MinUpvotes)
	}
	if f.MinViews > 0 {
		c.add("p.views >= ?", f.MinViews)
	}
	if f.From != nil {
		c.add("p.created_at >= ?", *f.From)
	}
	if f.To != nil {
		c.add("p.created_at <= ?", *f.To)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := productSelect + c.where() +
		orderBy(productSortColumns, f.SortBy, f.SortOrder, "p.created_at") +
		" LIMIT " + c.next(f.Limit) + " OFFSET " + c.next(f.Offset)

	rows, err := r.db.Query(ctx, query, c.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Trending ranks approved products by upvotes, then views.
func (r *ProductRepository) Trending(ctx context.Context, limit int) ([]models.Product, error) {
	query := productSelect + `
		WHERE p.status = 'approved'
		ORDER BY p.upvote_count DESC, p.views DESC
		LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("trending products: %w", err)
	}
	return collectProducts(rows)
}

func (r *ProductRepository) Update(ctx context.Context, p models.Product) error {
	const query = `
		UPDATE products SET
			name = $2, slug = $3, tagline = $4, description = $5, website = $6,
			logo_url = $7, images = $8, category_id = $9, launch_date = $10,
			twitter = $11, github = $12, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.db.Exec(ctx, query,
		p.ID, p.Name, p.Slug, p.Tagline, p.Description, p.Website,
		p.LogoURL, p.Images, p.CategoryID, p.LaunchDate, p.Twitter, p.GitHub,
	)
	if err != nil {
		return mapProductWriteErr("update product", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) UpdateModeration(ctx context.Context, id string, status models.ProductStatus, featured bool) error {
	const query = `UPDATE products SET status = $2, featured = $3, updated_at = NOW() WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id, status, featured)
	if err != nil {
		return fmt.Errorf("moderate product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// RecordView bumps the view counter and logs the view for daily series.
func (r *ProductRepository) RecordView(ctx context.Context, id string) (int64, error) {
	const query = `
		WITH logged AS (
			INSERT INTO product_views (product_id) VALUES ($1)
		)
		UPDATE products SET views = views + 1 WHERE id = $1
		RETURNING views
	`
	var views int64
	if err := r.db.QueryRow(ctx, query, id).Scan(&views); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("record view: %w", err)
	}
	return views, nil
}

// Upvote adds the vote and bumps the counter in one statement. It reports
// false when the user had already voted.
func (r *ProductRepository) Upvote(ctx context.Context, productID, userID string) (bool, int, error) {
	const query = `
		WITH added AS (
			INSERT INTO product_upvotes (product_id, user_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
			RETURNING product_id
		)
		UPDATE products SET upvote_count = upvote_count + 1
		WHERE id IN (SELECT product_id FROM added)
		RETURNING upvote_count
	`
	return r.vote(ctx, "upvote", query, productID, userID)
}

// RemoveUpvote is the inverse of Upvote; false means there was no vote.
func (r *ProductRepository) RemoveUpvote(ctx context.Context, productID, userID string) (bool, int, error) {
	const query = `
		WITH removed AS (
			DELETE FROM product_upvotes WHERE product_id = $1 AND user_id = $2
			RETURNING product_id
		)
		UPDATE products SET upvote_count = GREATEST(upvote_count - 1, 0)
		WHERE id IN (SELECT product_id FROM removed)
		RETURNING upvote_count
	`
	return r.vote(ctx, "remove upvote", query, productID, userID)
}

func (r *ProductRepository) vote(ctx context.Context, op, query, productID, userID string) (bool, int, error) {
	var count int
	if err := r.db.QueryRow(ctx, query, productID, userID).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("%s: %w", op, err)
	}
	return true, count, nil
}

func (r *ProductRepository) HasUpvoted(ctx context.Context, productID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM product_upvotes WHERE product_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, productID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("has upvoted: %w", err)
	}
	return exists, nil
}

// UpvotedAmong returns which of productIDs userID has upvoted.
func (r *ProductRepository) UpvotedAmong(ctx context.Context, userID string, productIDs []string) (map[string]bool, error) {
	voted := make(map[string]bool, len(productIDs))
	if len(productIDs) == 0 {
		return voted, nil
	}

	const query = `SELECT product_id FROM product_upvotes WHERE user_id = $1 AND product_id = ANY($2)`
	rows, err := r.db.Query(ctx, query, userID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("upvoted among: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan upvote: %w", err)
		}
		voted[id] = true
	}
	return voted, rows.Err()
}

func (r *ProductRepository) SubmittedBy(ctx context.Context, userID string, limit int) ([]models.ProductSummary, error) {
	const query = `
		SELECT id, name, slug, tagline, logo_url, upvote_count, views
		FROM products WHERE submitted_by = $1
		ORDER BY created_at DESC LIMIT $2
	`
	return r.summaries(ctx, query, userID, limit)
}

func (r *ProductRepository) UpvotedBy(ctx context.Context, userID string, limit int) ([]models.ProductSummary, error) {
	const query = `
		SELECT p.id, p.name, p.slug, p.tagline, p.logo_url, p.upvote_count, p.views
		FROM product_upvotes pu JOIN products p ON p.id = pu.product_id
		WHERE pu.user_id = $1
		ORDER BY pu.created_at DESC LIMIT $2
	`
	return r.summaries(ctx, query, userID, limit)
}

func (r *ProductRepository) summaries(ctx context.Context, query, userID string, limit int) ([]models.ProductSummary, error) {
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("product summaries: %w", err)
	}
	defer rows.Close()

	out := make([]models.ProductSummary, 0)
	for rows.Next() {
		var s models.ProductSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.Tagline, &s.LogoURL, &s.UpvoteCount, &s.Views); err != nil {
			return nil, fmt.Errorf("scan product summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
