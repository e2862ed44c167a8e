package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"launchpad/internal/apperr"
	"launchpad/internal/middleware"
	"launchpad/internal/models"
	"launchpad/internal/policy"
	"launchpad/internal/repository"
	"launchpad/internal/response"
	"launchpad/internal/service"
)

const defaultTrendingLimit = 10

type productList struct {
	Products   []models.Product    `json:"products"`
	Pagination response.Pagination `json:"pagination"`
}

// productQuery is shared by the listing and the product search.
type productQuery struct {
	Search     string `form:"search"`
	Query      string `form:"query"`
	Category   string `form:"category"`
	Status     string `form:"status"`
	MinUpvotes int    `form:"minUpvotes" binding:"omitempty,min=0"`
	MinViews   int64  `form:"minViews" binding:"omitempty,min=0"`
	StartDate  string `form:"startDate"`
	EndDate    string `form:"endDate"`
	SortBy     string `form:"sortBy"`
	SortOrder  string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

func (q productQuery) filter(page response.Page) (repository.ProductFilter, error) {
	from, err := parseDate("startDate", q.StartDate)
	if err != nil {
		return repository.ProductFilter{}, err
	}
	to, err := parseDate("endDate", q.EndDate)
	if err != nil {
		return repository.ProductFilter{}, err
	}

	text := q.Search
	if text == "" {
		text = q.Query
	}
	return repository.ProductFilter{
		Query:      text,
		CategoryID: q.Category,
		Status:     models.ProductStatus(q.Status),
		MinUpvotes: q.MinUpvotes,
		MinViews:   q.MinViews,
		From:       from,
		To:         to,
		SortBy:     q.SortBy,
		SortOrder:  q.SortOrder,
		Limit:      page.Limit,
		Offset:     page.Offset(),
	}, nil
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.BadRequest("Invalid date", apperr.FieldError{Field: field, Message: field + " must be a date"})
}

// ListProducts shows approved products unless the caller asks for another
// status and may moderate.
func (h HandlerSet) ListProducts(c *gin.Context) {
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

	viewer := middleware.Viewer(c)
	if viewer == nil || !policy.Allowed(*viewer, policy.ModerateProducts, "") {
		filter.Status = models.ProductStatusApproved
	}

	products, total, err := h.products.List(c.Request.Context(), viewer, filter)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, productList{Products: products, Pagination: page.Paginate(total)}, "Products fetched successfully")
}

func (h HandlerSet) TrendingProducts(c *gin.Context) {
	limit := parseLimit(c, defaultTrendingLimit, 100)
	products, err := h.products.Trending(c.Request.Context(), middleware.Viewer(c), limit)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, products, "Trending products fetched successfully")
}

func (h HandlerSet) GetProduct(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), middleware.Viewer(c), c.Param("productId"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, product, "Product fetched successfully")
}

type productRequest struct {
	Name        string  `form:"name" json:"name" binding:"omitempty,max=100"`
	Tagline     string  `form:"tagline" json:"tagline" binding:"omitempty,max=200"`
	Description string  `form:"description" json:"description"`
	Website     string  `form:"website" json:"website" binding:"omitempty,url"`
	Category    string  `form:"category" json:"category"`
	LaunchDate  string  `form:"launchDate" json:"launchDate"`
	Twitter     *string `form:"twitter" json:"twitter"`
	GitHub      *string `form:"github" json:"github"`
}

// productForm binds the text fields and opens the logo and gallery files.
func productForm(c *gin.Context, files *uploads) (productRequest, *time.Time, *service.Upload, []service.Upload, error) {
	var req productRequest
	if err := c.ShouldBind(&req); err != nil {
		return req, nil, nil, nil, err
	}
	launch, err := parseDate("launchDate", req.LaunchDate)
	if err != nil {
		return req, nil, nil, nil, err
	}
	logo, err := files.one(c, "logo")
	if err != nil {
		return req, nil, nil, nil, err
	}
	images, err := files.all(c, "images")
	if err != nil {
		return req, nil, nil, nil, err
	}
	return req, launch, logo, images, nil
}

func (h HandlerSet) CreateProduct(c *gin.Context) {
	var files uploads
	defer files.Close()
	req, launch, logo, images, err := productForm(c, &files)
	if err != nil {
		fail(c, err)
		return
	}

	product, err := h.products.Create(c.Request.Context(), actor(c), service.ProductInput{
		Name:        req.Name,
		Tagline:     req.Tagline,
		Description: req.Description,
		Website:     req.Website,
		CategoryID:  req.Category,
		LaunchDate:  launch,
		Twitter:     deref(req.Twitter),
		GitHub:      deref(req.GitHub),
		Logo:        logo,
		Images:      images,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, product, "Product created successfully")
}

func (h HandlerSet) UpdateProduct(c *gin.Context) {
	var files uploads
	defer files.Close()
	req, launch, logo, images, err := productForm(c, &files)
	if err != nil {
		fail(c, err)
		return
	}

	product, err := h.products.Update(c.Request.Context(), actor(c), c.Param("productId"), service.ProductUpdate{
		Name:        req.Name,
		Tagline:     req.Tagline,
		Description: req.Description,
		Website:     req.Website,
		CategoryID:  req.Category,
		LaunchDate:  launch,
		Twitter:     req.Twitter,
		GitHub:      req.GitHub,
		Logo:        logo,
		Images:      images,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, product, "Product updated successfully")
}

func (h HandlerSet) DeleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), actor(c), c.Param("productId")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{}, "Product deleted successfully")
}

func (h HandlerSet) Upvote(c *gin.Context) {
	result, err := h.products.Upvote(c.Request.Context(), actor(c), c.Param("productId"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, result, "Product upvoted successfully")
}

func (h HandlerSet) RemoveUpvote(c *gin.Context) {
	result, err := h.products.RemoveUpvote(c.Request.Context(), actor(c), c.Param("productId"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, result, "Upvote removed successfully")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
