package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"launchpad/internal/database"
	"launchpad/internal/models"
)

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrDuplicateCategory = errors.New("category with this name already exists")
)

const categoryColumns = `
	c.id, c.name, c.slug, c.description, c.icon, c.color, c.is_active, c.parent_id,
	c.featured, c.sort_order, c.created_at, c.updated_at`

const categoryStatsColumns = `
	COUNT(p.id), COALESCE(SUM(p.upvote_count), 0), COALESCE(SUM(p.views), 0)`

type CategoryRepository struct {
	db database.DBTX
}

func NewCategoryRepository(db database.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func categoryFields(c *models.Category) []any {
	return []any{
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.Color, &c.IsActive, &c.ParentID,
		&c.Featured, &c.Order, &c.CreatedAt, &c.UpdatedAt,
	}
}

func scanCategory(row pgx.Row) (models.Category, error) {
	var c models.Category
	if err := row.Scan(categoryFields(&c)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Category{}, ErrCategoryNotFound
		}
		return models.Category{}, err
	}
	return c, nil
}

func scanCategoryWithStats(row pgx.Row) (models.CategoryWithStats, error) {
	var c models.CategoryWithStats
	dest := append(categoryFields(&c.Category), &c.TotalProducts, &c.TotalUpvotes, &c.TotalViews)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.CategoryWithStats{}, ErrCategoryNotFound
		}
		return models.CategoryWithStats{}, err
	}
	return c, nil
}

func mapCategoryWriteErr(op string, err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return ErrDuplicateCategory
	case database.IsForeignKeyViolation(err):
		return ErrCategoryNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (r *CategoryRepository) Create(ctx context.Context, c models.Category) error {
	const query = `
		INSERT INTO categories (
			id, name, slug, description, icon, color, is_active, parent_id, featured, sort_order,
			created_at, updated_at
		) VALUES ($1, LOWER($2), $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		c.ID, c.Name, c.Slug, c.Description, c.Icon, c.Color, c.IsActive, c.ParentID, c.Featured, c.Order,
	)
	if err != nil {
		return mapCategoryWriteErr("insert category", err)
	}
	return nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (models.Category, error) {
	return scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories c WHERE c.id = $1`, id))
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) (models.Category, error) {
	return scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories c WHERE c.name = LOWER($1)`, name))
}

func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories c ORDER BY c.sort_order, c.name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]models.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListWithStats returns every category with product, upvote and view totals.
func (r *CategoryRepository) ListWithStats(ctx context.Context) ([]models.CategoryWithStats, error) {
	query := `SELECT ` + categoryColumns + `,` + categoryStatsColumns + `
		FROM categories c LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id
		ORDER BY c.sort_order, c.name`
	return r.statsRows(ctx, query)
}

// Trending ranks categories by the upvotes, then views, of their products.
func (r *CategoryRepository) Trending(ctx context.Context, limit int) ([]models.CategoryWithStats, error) {
	query := `SELECT ` + categoryColumns + `,` + categoryStatsColumns + `
		FROM categories c LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id
		ORDER BY COALESCE(SUM(p.upvote_count), 0) DESC, COALESCE(SUM(p.views), 0) DESC
		LIMIT $1`
	return r.statsRows(ctx, query, limit)
}

func (r *CategoryRepository) statsRows(ctx context.Context, query string, args ...any) ([]models.CategoryWithStats, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	defer rows.Close()

	out := make([]models.CategoryWithStats, 0)
	for rows.Next() {
		c, err := scanCategoryWithStats(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category stats: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryRepository) FindWithStats(ctx context.Context, id string) (models.CategoryWithStats, error) {
	query := `SELECT ` + categoryColumns + `,` + categoryStatsColumns + `
		FROM categories c LEFT JOIN products p ON p.category_id = c.id
		WHERE c.id = $1
		GROUP BY c.id`
	return scanCategoryWithStats(r.db.QueryRow(ctx, query, id))
}

func (r *CategoryRepository) Update(ctx context.Context, c models.Category) error {
	const query = `
		UPDATE categories SET
			name = LOWER($2), slug = $3, description = $4, icon = $5, color = $6,
			is_active = $7, parent_id = $8, featured = $9, sort_order = $10, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.db.Exec(ctx, query,
		c.ID, c.Name, c.Slug, c.Description, c.Icon, c.Color, c.IsActive, c.ParentID, c.Featured, c.Order,
	)
	if err != nil {
		return mapCategoryWriteErr("update category", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) CountProducts(ctx context.Context, id string) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count category products: %w", err)
	}
	return n, nil
}
