package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"launchpad/internal/apperr"
	"launchpad/internal/models"
	"launchpad/internal/repository"
)

const (
	suggestionLimit    = 5
	minSuggestionQuery = 2
)

type ProductSearcher interface {
	List(ctx context.Context, f repository.ProductFilter) ([]models.Product, int64, error)
}

type CommentSearcher interface {
	Search(ctx context.Context, f repository.CommentFilter) ([]models.Comment, int64, error)
}

type DirectorySearcher interface {
	Users(ctx context.Context, f repository.UserFilter) ([]models.User, int64, error)
	Suggestions(ctx context.Context, q string, products, users bool, limit int) ([]repository.Suggestion, error)
}

// SearchService answers the public search endpoints. Matching is a
// case-insensitive substring match.
type SearchService struct {
	products  ProductSearcher
	comments  CommentSearcher
	directory DirectorySearcher
}

func NewSearchService(products ProductSearcher, comments CommentSearcher, directory DirectorySearcher) *SearchService {
	return &SearchService{products: products, comments: comments, directory: directory}
}

type ProductPage struct {
	Products []models.Product
	Total    int64
}

type UserPage struct {
	Users []models.User
	Total int64
}

type CommentPage struct {
	Comments []models.Comment
	Total    int64
}

func (s *SearchService) Products(ctx context.Context, f repository.ProductFilter) (ProductPage, error) {
	if f.Status != "" && !f.Status.Valid() {
		return ProductPage{}, apperr.BadRequest("Invalid product status")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return ProductPage{}, apperr.BadRequest("Invalid date range")
	}
	products, total, err := s.products.List(ctx, f)
	if err != nil {
		return ProductPage{}, err
	}
	return ProductPage{Products: products, Total: total}, nil
}

func (s *SearchService) Users(ctx context.Context, f repository.UserFilter) (UserPage, error) {
	if f.Role != "" && !f.Role.Valid() {
		return UserPage{}, apperr.BadRequest("Invalid role specified")
	}
	users, total, err := s.directory.Users(ctx, f)
	if err != nil {
		return UserPage{}, err
	}
	return UserPage{Users: users, Total: total}, nil
}

func (s *SearchService) Comments(ctx context.Context, f repository.CommentFilter) (CommentPage, error) {
	comments, total, err := s.comments.Search(ctx, f)
	if err != nil {
		return CommentPage{}, err
	}
	return CommentPage{Comments: comments, Total: total}, nil
}

// Suggestions returns an empty list for queries shorter than two
// characters. kind is "all", "products" or "users".
func (s *SearchService) Suggestions(ctx context.Context, q, kind string) ([]repository.Suggestion, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < minSuggestionQuery {
		return []repository.Suggestion{}, nil
	}

	var products, users bool
	switch kind {
	case "", "all":
		products, users = true, true
	case "products":
		products = true
	case "users":
		users = true
	default:
		return nil, apperr.BadRequest("Invalid suggestion type")
	}
	return s.directory.Suggestions(ctx, q, products, users, suggestionLimit)
}
