package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"launchpad/internal/models"
	"launchpad/internal/repository"
	"launchpad/internal/response"
)

func (h HandlerSet) SearchProducts(c *gin.Context) {
	var q productQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, err)
		return
	}
	page := response.ParsePage(c)
	filter, err := q.filter(page)
	if err != nil {
		fail(c, err)
		return
	}

	result, err := h.search.Products(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, productList{Products: result.Products, Pagination: page.Paginate(result.Total)}, "Products searched successfully")
}

type userQuery struct {
	Query       string `form:"query"`
	Role        string `form:"role"`
	HasProducts bool   `form:"hasProducts"`
	MinUpvotes  int    `form:"minUpvotes" binding:"omitempty,min=0"`
	SortBy      string `form:"sortBy"`
	SortOrder   string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

type userList struct {
	Users      []models.User       `json:"users"`
	Pagination response.Pagination `json:"pagination"`
}

func (h HandlerSet) SearchUsers(c *gin.Context) {
	var q userQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, err)
		return
	}
	page := response.ParsePage(c)

	result, err := h.search.Users(c.Request.Context(), repository.UserFilter{
		Query:       q.Query,
		Role:        models.Role(q.Role),
		HasProducts: q.HasProducts,
		MinUpvotes:  q.MinUpvotes,
		SortBy:      q.SortBy,
		SortOrder:   q.SortOrder,
		Limit:       page.Limit,
		Offset:      page.Offset(),
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, userList{Users: result.Users, Pagination: page.Paginate(result.Total)}, "Users searched successfully")
}

type commentQuery struct {
	Query     string `form:"query"`
	ProductID string `form:"productId"`
	UserID    string `form:"userId"`
	MinLikes  int    `form:"minLikes" binding:"omitempty,min=0"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

func (h HandlerSet) SearchComments(c *gin.Context) {
	var q commentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, err)
		return
	}
	page := response.ParsePage(c)

	result, err := h.search.Comments(c.Request.Context(), repository.CommentFilter{
		Query:     q.Query,
		ProductID: q.ProductID,
		AuthorID:  q.UserID,
		MinLikes:  q.MinLikes,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Limit:     page.Limit,
		Offset:    page.Offset(),
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, commentList{Comments: result.Comments, Pagination: page.Paginate(result.Total)}, "Comments searched successfully")
}

func (h HandlerSet) Suggestions(c *gin.Context) {
	suggestions, err := h.search.Suggestions(c.Request.Context(), c.Query("query"), c.Query("type"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, suggestions, "Search suggestions fetched successfully")
}
