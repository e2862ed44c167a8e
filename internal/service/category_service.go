package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"launchpad/internal/apperr"
	"launchpad/internal/ids"
	"launchpad/internal/models"
	"launchpad/internal/policy"
	"launchpad/internal/repository"
)

const (
	maxCategoryDescription = 500
	defaultCategoryColor   = "#000000"
	defaultCategoryIcon    = "default-category-icon.png"
)

type CategoryStore interface {
	Create(ctx context.Context, c models.Category) error
	FindByID(ctx context.Context, id string) (models.Category, error)
	ListWithStats(ctx context.Context) ([]models.CategoryWithStats, error)
	Trending(ctx context.Context, limit int) ([]models.CategoryWithStats, error)
	FindWithStats(ctx context.Context, id string) (models.CategoryWithStats, error)
	Update(ctx context.Context, c models.Category) error
	Delete(ctx context.Context, id string) error
	CountProducts(ctx context.Context, id string) (int64, error)
}

type CategoryService struct {
	categories CategoryStore
}

func NewCategoryService(categories CategoryStore) *CategoryService {
	return &CategoryService{categories: categories}
}

// CategoryInput carries create and update fields. Pointer fields are
// optional on update.
type CategoryInput struct {
	Name        string
	Description *string
	Icon        *string
	Color       *string
	IsActive    *bool
	ParentID    *string
	Featured    *bool
	Order       *int
}

func (s *CategoryService) Create(ctx context.Context, actor models.User, in CategoryInput) (models.Category, error) {
	if err := policy.Authorize(actor, policy.ManageCategories, ""); err != nil {
		return models.Category{}, err
	}
	name := strings.ToLower(strings.TrimSpace(in.Name))
	if name == "" {
		return models.Category{}, apperr.BadRequest("Category name is required")
	}

	c := models.Category{
		ID:       ids.New(),
		Name:     name,
		Slug:     slugify(name),
		Icon:     defaultCategoryIcon,
		Color:    defaultCategoryColor,
		IsActive: true,
	}
	if err := applyCategoryInput(&c, in); err != nil {
		return models.Category{}, err
	}

	if err := s.categories.Create(ctx, c); err != nil {
		return models.Category{}, mapCategoryErr(err)
	}
	return s.find(ctx, c.ID)
}

func (s *CategoryService) Update(ctx context.Context, actor models.User, id string, in CategoryInput) (models.Category, error) {
	if err := policy.Authorize(actor, policy.ManageCategories, ""); err != nil {
		return models.Category{}, err
	}
	c, err := s.find(ctx, id)
	if err != nil {
		return models.Category{}, err
	}

	if name := strings.ToLower(strings.TrimSpace(in.Name)); name != "" {
		c.Name = name
		c.Slug = slugify(name)
	}
	if err := applyCategoryInput(&c, in); err != nil {
		return models.Category{}, err
	}
	if c.ParentID != nil && *c.ParentID == c.ID {
		return models.Category{}, apperr.BadRequest("A category cannot be its own parent")
	}

	if err := s.categories.Update(ctx, c); err != nil {
		return models.Category{}, mapCategoryErr(err)
	}
	return s.find(ctx, id)
}

func applyCategoryInput(c *models.Category, in CategoryInput) error {
	if in.Description != nil {
		if utf8.RuneCountInString(*in.Description) > maxCategoryDescription {
			return apperr.BadRequest("Description cannot be more than 500 characters")
		}
		c.Description = *in.Description
	}
	if in.Icon != nil {
		c.Icon = *in.Icon
	}
	if in.Color != nil {
		c.Color = *in.Color
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if in.ParentID != nil {
		if *in.ParentID == "" {
			c.ParentID = nil
		} else {
			parent := *in.ParentID
			c.ParentID = &parent
		}
	}
	if in.Featured != nil {
		c.Featured = *in.Featured
	}
	if in.Order != nil {
		c.Order = *in.Order
	}
	return nil
}

// Delete refuses to orphan products.
func (s *CategoryService) Delete(ctx context.Context, actor models.User, id string) error {
	if err := policy.Authorize(actor, policy.ManageCategories, ""); err != nil {
		return err
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	n, err := s.categories.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.BadRequest("Cannot delete category with associated products")
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return mapCategoryErr(err)
	}
	return nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.CategoryWithStats, error) {
	return s.categories.ListWithStats(ctx)
}

func (s *CategoryService) Trending(ctx context.Context, limit int) ([]models.CategoryWithStats, error) {
	return s.categories.Trending(ctx, limit)
}

func (s *CategoryService) Get(ctx context.Context, id string) (models.CategoryWithStats, error) {
	c, err := s.categories.FindWithStats(ctx, id)
	if err != nil {
		return models.CategoryWithStats{}, mapCategoryErr(err)
	}
	return c, nil
}

func (s *CategoryService) find(ctx context.Context, id string) (models.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return models.Category{}, mapCategoryErr(err)
	}
	return c, nil
}

func mapCategoryErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound):
		return apperr.NotFound("Category not found")
	case errors.Is(err, repository.ErrDuplicateCategory):
		return apperr.Conflict("Category with this name already exists")
	}
	return err
}
