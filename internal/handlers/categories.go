package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"launchpad/internal/response"
	"launchpad/internal/service"
)

type categoryRequest struct {
	Name           string  `json:"name" binding:"omitempty,max=50"`
	Description    *string `json:"description"`
	Icon           *string `json:"icon"`
	Color          *string `json:"color" binding:"omitempty,hexcolor"`
	ParentCategory *string `json:"parentCategory"`
	IsActive       *bool   `json:"isActive"`
	Featured       *bool   `json:"featured"`
	Order          *int    `json:"order"`
}

func (r categoryRequest) input() service.CategoryInput {
	return service.CategoryInput{
		Name:        r.Name,
		Description: r.Description,
		Icon:        r.Icon,
		Color:       r.Color,
		IsActive:    r.IsActive,
		ParentID:    r.ParentCategory,
		Featured:    r.Featured,
		Order:       r.Order,
	}
}

func (h HandlerSet) ListCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, categories, "Categories fetched successfully")
}

func (h HandlerSet) TrendingCategories(c *gin.Context) {
	categories, err := h.categories.Trending(c.Request.Context(), parseLimit(c, 5, 50))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, categories, "Trending categories fetched successfully")
}

func (h HandlerSet) GetCategory(c *gin.Context) {
	category, err := h.categories.Get(c.Request.Context(), c.Param("categoryId"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, category, "Category fetched successfully")
}

func (h HandlerSet) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	category, err := h.categories.Create(c.Request.Context(), actor(c), req.input())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, category, "Category created successfully")
}

func (h HandlerSet) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	category, err := h.categories.Update(c.Request.Context(), actor(c), c.Param("categoryId"), req.input())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, category, "Category updated successfully")
}

func (h HandlerSet) DeleteCategory(c *gin.Context) {
	if err := h.categories.Delete(c.Request.Context(), actor(c), c.Param("categoryId")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{}, "Category deleted successfully")
}
