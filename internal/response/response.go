package response

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"launchpad/internal/apperr"
)

type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

type ErrorEnvelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors"`
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

func Success(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

func Error(c *gin.Context, err *apperr.Error) {
	details := err.Details
	if details == nil {
		details = []apperr.FieldError{}
	}
	c.AbortWithStatusJSON(err.Status(), ErrorEnvelope{
		Success: false,
		Message: err.Message,
		Errors:  details,
	})
}

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Page is the parsed page/limit query pair.
type Page struct {
	Number int
	Limit  int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// Paginate builds the pagination block for total matching rows.
func (p Page) Paginate(total int64) Pagination {
	pages := total / int64(p.Limit)
	if total%int64(p.Limit) != 0 {
		pages++
	}
	return Pagination{Total: total, Page: p.Number, Limit: p.Limit, Pages: pages}
}

// ParsePage reads page and limit from the query string, clamping bad input
// to the defaults.
func ParsePage(c *gin.Context) Page {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Page{Number: page, Limit: limit}
}
