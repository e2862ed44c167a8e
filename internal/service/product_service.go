package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"launchpad/internal/apperr"
	"launchpad/internal/ids"
	"launchpad/internal/models"
	"launchpad/internal/policy"
	"launchpad/internal/repository"
)

const MaxProductImages = 5

type ProductStore interface {
	Create(ctx context.Context, p models.Product) error
	FindByID(ctx context.Context, id string) (models.Product, error)
	List(ctx context.Context, f repository.ProductFilter) ([]models.Product, int64, error)
	Trending(ctx context.Context, limit int) ([]models.Product, error)
	Update(ctx context.Context, p models.Product) error
	UpdateModeration(ctx context.Context, id string, status models.ProductStatus, featured bool) error
	Delete(ctx context.Context, id string) error
	RecordView(ctx context.Context, id string) (int64, error)
	Upvote(ctx context.Context, productID, userID string) (bool, int, error)
	RemoveUpvote(ctx context.Context, productID, userID string) (bool, int, error)
	UpvotedAmong(ctx context.Context, userID string, productIDs []string) (map[string]bool, error)
}

// Notifier records engagement notifications without failing the caller.
type Notifier interface {
	Automatic(ctx context.Context, actor models.User, in NotifyInput)
}

type ProductService struct {
	products ProductStore
	notifier Notifier
	media    *MediaService
	log      zerolog.Logger
}

func NewProductService(products ProductStore, notifier Notifier, media *MediaService, log zerolog.Logger) *ProductService {
	return &ProductService{
		products: products,
		notifier: notifier,
		media:    media,
		log:      log,
	}
}

type ProductInput struct {
	Name        string
	Tagline     string
	Description string
	Website     string
	CategoryID  string
	LaunchDate  *time.Time
	Twitter     string
	GitHub      string
	Logo        *Upload
	Images      []Upload
}

func (s *ProductService) Create(ctx context.Context, actor models.User, in ProductInput) (models.Product, error) {
	if blank(in.Name, in.Tagline, in.Description, in.Website, in.CategoryID) {
		return models.Product{}, apperr.BadRequest("All required fields must be provided")
	}
	if in.Logo == nil {
		return models.Product{}, apperr.BadRequest("Product logo is required")
	}
	if len(in.Images) > MaxProductImages {
		return models.Product{}, apperr.BadRequest(fmt.Sprintf("A product can have at most %d images", MaxProductImages))
	}

	p := models.Product{
		ID:          ids.New(),
		Name:        strings.TrimSpace(in.Name),
		Slug:        slugify(in.Name),
		Tagline:     strings.TrimSpace(in.Tagline),
		Description: in.Description,
		Website:     strings.TrimSpace(in.Website),
		CategoryID:  in.CategoryID,
		SubmittedBy: actor.ID,
		Status:      models.ProductStatusPending,
		LaunchDate:  time.Now().UTC(),
		Twitter:     in.Twitter,
		GitHub:      in.GitHub,
		Images:      []string{},
	}
	if in.LaunchDate != nil {
		p.LaunchDate = in.LaunchDate.UTC()
	}

	logo, images, err := s.uploadAll(ctx, p.ID, in.Logo, in.Images)
	if err != nil {
		return models.Product{}, err
	}
	p.LogoURL = logo
	p.Images = images

	if err := s.products.Create(ctx, p); err != nil {
		s.media.Remove(ctx, append(images, logo)...)
		return models.Product{}, mapProductErr(err)
	}

	return s.find(ctx, p.ID)
}

// uploadAll stores the logo and gallery. On failure everything already
// uploaded is removed again.
func (s *ProductService) uploadAll(ctx context.Context, productID string, logo *Upload, gallery []Upload) (string, []string, error) {
	var logoURL string
	images := make([]string, 0, len(gallery))

	if logo != nil {
		url, err := s.media.UploadProductImage(ctx, productID, *logo)
		if err != nil {
			return "", nil, err
		}
		logoURL = url
	}

	for _, up := range gallery {
		url, err := s.media.UploadProductImage(ctx, productID, up)
		if err != nil {
			s.media.Remove(ctx, append(images, logoURL)...)
			return "", nil, err
		}
		images = append(images, url)
	}
	return logoURL, images, nil
}

// Get returns one product and counts the view.
func (s *ProductService) Get(ctx context.Context, viewer *models.User, id string) (models.Product, error) {
	if _, err := s.products.RecordView(ctx, id); err != nil {
		return models.Product{}, mapProductErr(err)
	}
	p, err := s.find(ctx, id)
	if err != nil {
		return models.Product{}, err
	}

	list := []models.Product{p}
	if err := s.personalize(ctx, viewer, list); err != nil {
		return models.Product{}, err
	}
	return list[0], nil
}

func (s *ProductService) List(ctx context.Context, viewer *models.User, f repository.ProductFilter) ([]models.Product, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperr.BadRequest("Invalid product status")
	}
	products, total, err := s.products.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	if err := s.personalize(ctx, viewer, products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *ProductService) Trending(ctx context.Context, viewer *models.User, limit int) ([]models.Product, error) {
	products, err := s.products.Trending(ctx, limit)
	if err != nil {
		return nil, err
	}
	if err := s.personalize(ctx, viewer, products); err != nil {
		return nil, err
	}
	return products, nil
}

// personalize fills HasUpvoted for a signed-in viewer.
func (s *ProductService) personalize(ctx context.Context, viewer *models.User, products []models.Product) error {
	if viewer == nil || len(products) == 0 {
		return nil
	}
	productIDs := make([]string, len(products))
	for i, p := range products {
		productIDs[i] = p.ID
	}
	voted, err := s.products.UpvotedAmong(ctx, viewer.ID, productIDs)
	if err != nil {
		return err
	}
	for i := range products {
		v := voted[products[i].ID]
		products[i].HasUpvoted = &v
	}
	return nil
}

// ProductUpdate holds optional changes; nil and empty values keep the
// current data.
type ProductUpdate struct {
	Name        string
	Tagline     string
	Description string
	Website     string
	CategoryID  string
	LaunchDate  *time.Time
	Twitter     *string
	GitHub      *string
	Logo        *Upload
	Images      []Upload
}

func (s *ProductService) Update(ctx context.Context, actor models.User, id string, in ProductUpdate) (models.Product, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if err := policy.Authorize(actor, policy.ModifyOwned, p.SubmittedBy); err != nil {
		return models.Product{}, err
	}
	if len(in.Images) > MaxProductImages {
		return models.Product{}, apperr.BadRequest(fmt.Sprintf("A product can have at most %d images", MaxProductImages))
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		p.Name = name
		p.Slug = slugify(name)
	}
	p.Tagline = coalesce(strings.TrimSpace(in.Tagline), p.Tagline)
	p.Description = coalesce(in.Description, p.Description)
	p.Website = coalesce(strings.TrimSpace(in.Website), p.Website)
	p.CategoryID = coalesce(in.CategoryID, p.CategoryID)
	if in.LaunchDate != nil {
		p.LaunchDate = in.LaunchDate.UTC()
	}
	if in.Twitter != nil {
		p.Twitter = *in.Twitter
	}
	if in.GitHub != nil {
		p.GitHub = *in.GitHub
	}

	logo, images, err := s.uploadAll(ctx, p.ID, in.Logo, in.Images)
	if err != nil {
		return models.Product{}, err
	}

	var replaced []string
	if logo != "" {
		replaced = append(replaced, p.LogoURL)
		p.LogoURL = logo
	}
	if len(images) > 0 {
		replaced = append(replaced, p.Images...)
		p.Images = images
	}

	if err := s.products.Update(ctx, p); err != nil {
		s.media.Remove(ctx, append(images, logo)...)
		return models.Product{}, mapProductErr(err)
	}
	s.media.Remove(ctx, replaced...)

	return s.find(ctx, p.ID)
}

// Moderate changes status and the featured flag. A nil featured keeps the
// current value.
func (s *ProductService) Moderate(ctx context.Context, actor models.User, id string, status models.ProductStatus, featured *bool) (models.Product, error) {
	if err := policy.Authorize(actor, policy.ModerateProducts, ""); err != nil {
		return models.Product{}, err
	}
	p, err := s.find(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if status == "" {
		status = p.Status
	}
	if !status.Valid() {
		return models.Product{}, apperr.BadRequest("Invalid product status")
	}
	if featured == nil {
		featured = &p.Featured
	}

	if err := s.products.UpdateModeration(ctx, id, status, *featured); err != nil {
		return models.Product{}, mapProductErr(err)
	}
	return s.find(ctx, id)
}

func (s *ProductService) Delete(ctx context.Context, actor models.User, id string) error {
	p, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ModifyOwned, p.SubmittedBy); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return mapProductErr(err)
	}
	s.media.Remove(ctx, append(p.Images, p.LogoURL)...)
	return nil
}

type UpvoteResult struct {
	UpvoteCount int  `json:"upvoteCount"`
	HasUpvoted  bool `json:"hasUpvoted"`
}

func (s *ProductService) Upvote(ctx context.Context, actor models.User, id string) (UpvoteResult, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return UpvoteResult{}, err
	}

	added, count, err := s.products.Upvote(ctx, id, actor.ID)
	if err != nil {
		return UpvoteResult{}, err
	}
	if !added {
		return UpvoteResult{}, apperr.BadRequest("You have already upvoted this product")
	}

	s.notifier.Automatic(ctx, actor, NotifyInput{
		RecipientID: p.SubmittedBy,
		Type:        models.NotificationUpvote,
		Content:     fmt.Sprintf("%s upvoted your product %s", actor.Username, p.Name),
		RelatedID:   p.ID,
		RelatedKind: models.RelatedProduct,
	})

	return UpvoteResult{UpvoteCount: count, HasUpvoted: true}, nil
}

func (s *ProductService) RemoveUpvote(ctx context.Context, actor models.User, id string) (UpvoteResult, error) {
	if _, err := s.find(ctx, id); err != nil {
		return UpvoteResult{}, err
	}

	removed, count, err := s.products.RemoveUpvote(ctx, id, actor.ID)
	if err != nil {
		return UpvoteResult{}, err
	}
	if !removed {
		return UpvoteResult{}, apperr.BadRequest("You haven't upvoted this product")
	}
	return UpvoteResult{UpvoteCount: count, HasUpvoted: false}, nil
}

func (s *ProductService) find(ctx context.Context, id string) (models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return models.Product{}, mapProductErr(err)
	}
	return p, nil
}

func mapProductErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return apperr.NotFound("Product not found")
	case errors.Is(err, repository.ErrCategoryMissing):
		return apperr.BadRequest("Category does not exist")
	case errors.Is(err, repository.ErrDuplicateProduct):
		return apperr.Conflict("A product with this name already exists")
	}
	return err
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

func coalesce(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
