package models

import "time"

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	IsActive    bool      `json:"isActive"`
	ParentID    *string   `json:"parentCategory"`
	Featured    bool      `json:"featured"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CategoryStats struct {
	TotalProducts int64 `json:"totalProducts"`
	TotalUpvotes  int64 `json:"totalUpvotes"`
	TotalViews    int64 `json:"totalViews"`
}

type CategoryWithStats struct {
	Category
	CategoryStats
}

type CategorySummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
