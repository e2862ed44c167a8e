package models

import "time"

type ProductStatus string

const (
	ProductStatusPending  ProductStatus = "pending"
	ProductStatusApproved ProductStatus = "approved"
	ProductStatusRejected ProductStatus = "rejected"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusPending, ProductStatusApproved, ProductStatusRejected:
		return true
	}
	return false
}

type Product struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Slug         string           `json:"slug"`
	Tagline      string           `json:"tagline"`
	Description  string           `json:"description"`
	Website      string           `json:"website"`
	LogoURL      string           `json:"logo"`
	Images       []string         `json:"images"`
	CategoryID   string           `json:"categoryId"`
	Category     *CategorySummary `json:"category,omitempty"`
	SubmittedBy  string           `json:"submittedById"`
	Submitter    *UserSummary     `json:"submittedBy,omitempty"`
	UpvoteCount  int              `json:"upvoteCount"`
	CommentCount int              `json:"commentCount"`
	Status       ProductStatus    `json:"status"`
	Featured     bool             `json:"featured"`
	Views        int64            `json:"views"`
	LaunchDate   time.Time        `json:"launchDate"`
	Twitter      string           `json:"twitter,omitempty"`
	GitHub       string           `json:"github,omitempty"`
	HasUpvoted   *bool            `json:"hasUpvoted,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

type ProductSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Tagline     string `json:"tagline"`
	LogoURL     string `json:"logo"`
	UpvoteCount int    `json:"upvoteCount"`
	Views       int64  `json:"views"`
}
